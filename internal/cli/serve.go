package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/superrelativity/relgraph/internal/server"
	"github.com/superrelativity/relgraph/pkg/observability/prom"
	"github.com/superrelativity/relgraph/pkg/pipeline"
	"github.com/superrelativity/relgraph/pkg/syncjob"
)

// sessionCleanupInterval is how often expired sessions are purged.
const sessionCleanupInterval = 10 * time.Minute

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen     string
		schedule   bool
		origin     string
		noSyncAPIs bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Serves classification, layout sessions with expand/collapse, rendering, graph
and impact queries from the configured store, sync triggers, and Prometheus
metrics on /metrics. With --schedule the sync job also runs at the configured
interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), listen, origin, schedule, noSyncAPIs)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: config server.listen)")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "run the sync job at the configured interval")
	cmd.Flags().StringVar(&origin, "allowed-origin", "", "CORS allowed origin (default: *)")
	cmd.Flags().BoolVar(&noSyncAPIs, "no-sync", false, "disable the sync endpoints")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, listen, origin string, schedule, noSync bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Server.Listen
	}

	prom.New(prometheus.DefaultRegisterer).Register()

	cc, err := newCache(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	runner := pipeline.NewRunner(cc, nil, c.Logger)
	defer runner.Close()

	s, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := newSessions(ctx, cfg, cc)
	if err != nil {
		return err
	}
	defer sessions.Close()

	var svc *syncjob.Service
	if !noSync && cfg.Source.URL != "" {
		src, err := c.newSource(cfg, cc)
		if err != nil {
			return err
		}
		svc, err = syncjob.New(syncjob.Options{
			Source:           src,
			Store:            s,
			Cache:            cc,
			Logger:           c.Logger.WithPrefix("sync"),
			Workers:          cfg.Sync.Workers,
			MatchDescription: cfg.Classify.MatchDescription,
		})
		if err != nil {
			return err
		}
	}

	srv := server.New(server.Options{
		Runner:        runner,
		Sessions:      sessions,
		Store:         s,
		Sync:          svc,
		Logger:        c.Logger.WithPrefix("http"),
		SessionTTL:    cfg.Session.TTL.Std(),
		Pipeline:      pipelineOptions(cfg),
		AllowedOrigin: origin,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, listen, sessionCleanupInterval)
	})
	if schedule && svc != nil {
		g.Go(func() error {
			return svc.Schedule(ctx, cfg.Sync.Interval.Std())
		})
	}

	printInfo("Serving on %s", StyleLink.Render(listen))
	return g.Wait()
}
