// Package prom implements the observability hook interfaces on Prometheus
// collectors.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/superrelativity/relgraph/pkg/observability"
)

const namespace = "relgraph"

// Hooks records pipeline, cache, HTTP and sync events as Prometheus metrics.
type Hooks struct {
	classified      *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	classifyLatency prometheus.Histogram

	layouts       *prometheus.CounterVec
	layoutLatency prometheus.Histogram
	reverseNodes  prometheus.Counter
	toggles       *prometheus.CounterVec

	renders       *prometheus.CounterVec
	renderLatency prometheus.Histogram

	cacheOps *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	syncJobs    *prometheus.CounterVec
	syncLatency prometheus.Histogram
}

// New creates the collectors and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_classified_total",
			Help:      "Relationships processed by the classifier by result",
		}, []string{"result"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_rejected_total",
			Help:      "Relationships rejected by the whitelist by endpoint types",
		}, []string{"from_type", "to_type"}),
		classifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Classification batch duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Layouts computed by result",
		}, []string{"result"}),
		layoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout derivation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		reverseNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_reverse_nodes_total",
			Help:      "Nodes repositioned as reverse nodes",
		}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_toggles_total",
			Help:      "Collapse toggles by resulting state",
		}, []string{"state"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Render runs by result",
		}, []string{"result"}),
		renderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and outcome",
		}, []string{"key_type", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Outgoing source API requests by host and status",
		}, []string{"host", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Outgoing source API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		syncJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_jobs_total",
			Help:      "Sync jobs by result",
		}, []string{"result"}),
		syncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Sync job duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	reg.MustRegister(
		h.classified, h.rejected, h.classifyLatency,
		h.layouts, h.layoutLatency, h.reverseNodes, h.toggles,
		h.renders, h.renderLatency,
		h.cacheOps,
		h.httpRequests, h.httpLatency,
		h.syncJobs, h.syncLatency,
	)
	return h
}

// Register installs h as the global pipeline, cache, HTTP and sync hooks.
func (h *Hooks) Register() {
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
	observability.SetSyncHooks(h)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// PipelineHooks
// =============================================================================

func (h *Hooks) OnClassifyStart(context.Context, int) {}

func (h *Hooks) OnClassifyComplete(_ context.Context, accepted, rejected int, d time.Duration, _ error) {
	h.classified.WithLabelValues("accepted").Add(float64(accepted))
	h.classified.WithLabelValues("rejected").Add(float64(rejected))
	h.classifyLatency.Observe(d.Seconds())
}

func (h *Hooks) OnRelationshipRejected(_ context.Context, fromType, toType string) {
	h.rejected.WithLabelValues(fromType, toType).Inc()
}

func (h *Hooks) OnLayoutStart(context.Context, int) {}

func (h *Hooks) OnLayoutComplete(_ context.Context, _, reverse int, d time.Duration, err error) {
	h.layouts.WithLabelValues(result(err)).Inc()
	h.layoutLatency.Observe(d.Seconds())
	h.reverseNodes.Add(float64(reverse))
}

func (h *Hooks) OnToggle(_ context.Context, _ string, collapsed bool, _ int) {
	state := "expanded"
	if collapsed {
		state = "collapsed"
	}
	h.toggles.WithLabelValues(state).Inc()
}

func (h *Hooks) OnRenderStart(context.Context, []string) {}

func (h *Hooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.renders.WithLabelValues(result(err)).Inc()
	h.renderLatency.Observe(d.Seconds())
}

// =============================================================================
// CacheHooks
// =============================================================================

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
}

// =============================================================================
// HTTPHooks
// =============================================================================

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.httpRequests.WithLabelValues(host, statusClass(status)).Inc()
	h.httpLatency.WithLabelValues(host).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpRequests.WithLabelValues(host, "error").Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// =============================================================================
// SyncHooks
// =============================================================================

func (h *Hooks) OnSyncStart(context.Context, string) {}

func (h *Hooks) OnSyncComplete(_ context.Context, _ string, _, _, _ int, d time.Duration, err error) {
	h.syncJobs.WithLabelValues(result(err)).Inc()
	h.syncLatency.Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
	_ observability.SyncHooks     = (*Hooks)(nil)
)
