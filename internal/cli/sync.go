package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/superrelativity/relgraph/internal/config"
	"github.com/superrelativity/relgraph/pkg/cache"
	"github.com/superrelativity/relgraph/pkg/store"
	"github.com/superrelativity/relgraph/pkg/syncjob"
)

// syncCommand creates the sync command, which copies entities and
// classified relationships from the architecture repository into the store.
func (c *CLI) syncCommand() *cobra.Command {
	var (
		every  time.Duration
		status bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync entities and relationships into the store",
		Long: `Sync entities and relationships into the store.

Fact sheets are fetched from the configured source, relationships are
classified, and both are upserted into the configured store. With --every
the sync repeats until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSync(cmd.Context(), every, status)
		},
	}

	cmd.Flags().DurationVar(&every, "every", 0, "repeat the sync at this interval until interrupted")
	cmd.Flags().BoolVar(&status, "status", false, "print the last sync and recent jobs instead of syncing")

	return cmd
}

// syncBackends are the resources a sync service needs; close releases them.
type syncBackends struct {
	service *syncjob.Service
	store   store.Store
	cache   cache.Cache
}

func (b *syncBackends) close() {
	b.store.Close()
	b.cache.Close()
}

func (c *CLI) newSyncBackends(ctx context.Context, cfg *config.Config) (*syncBackends, error) {
	cc, err := newCache(ctx, cfg, false)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	s, err := c.newStore(ctx, cfg)
	if err != nil {
		cc.Close()
		return nil, err
	}
	src, err := c.newSource(cfg, cc)
	if err != nil {
		cc.Close()
		s.Close()
		return nil, err
	}
	svc, err := syncjob.New(syncjob.Options{
		Source:           src,
		Store:            s,
		Cache:            cc,
		Logger:           c.Logger,
		Workers:          cfg.Sync.Workers,
		MatchDescription: cfg.Classify.MatchDescription,
	})
	if err != nil {
		cc.Close()
		s.Close()
		return nil, err
	}
	return &syncBackends{service: svc, store: s, cache: cc}, nil
}

func (c *CLI) runSync(ctx context.Context, every time.Duration, status bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	b, err := c.newSyncBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	if status {
		return printSyncStatus(ctx, b.service)
	}

	if every > 0 {
		printInfo("Syncing every %s (Ctrl+C to stop)", every)
		return b.service.Schedule(ctx, every)
	}

	spinner := newSpinnerWithContext(ctx, "Syncing from "+cfg.Source.URL+"...")
	spinner.Start()
	job, err := b.service.Run(ctx)
	if err != nil {
		spinner.StopWithError("Sync failed")
		return err
	}
	spinner.Stop()

	printSuccess("Sync complete")
	printKeyValue("Job", job.ID)
	printKeyValue("Entities", fmt.Sprint(job.Entities))
	printKeyValue("Synced", fmt.Sprint(job.Relationships))
	printKeyValue("Rejected", fmt.Sprint(job.Rejected))
	return nil
}

func printSyncStatus(ctx context.Context, svc *syncjob.Service) error {
	last, ok, err := svc.LastSync(ctx)
	if err != nil {
		return err
	}
	if ok {
		printKeyValue("Last sync", last.Timestamp.Local().Format(time.DateTime))
		printKeyValue("Job", last.JobID)
		printKeyValue("Entities", fmt.Sprint(last.TotalEntities))
	} else {
		printInfo("No recent sync")
	}

	jobs, err := svc.Jobs(ctx, 10)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.StartedAt.Local().Format(time.DateTime),
			string(j.Status),
			fmt.Sprint(j.Entities),
			fmt.Sprint(j.Relationships),
			fmt.Sprint(j.Rejected),
		})
	}
	printNewline()
	printTable([]string{"Started", "Status", "Entities", "Synced", "Rejected"}, rows)
	return nil
}
