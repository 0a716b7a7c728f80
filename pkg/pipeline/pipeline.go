// Package pipeline provides the classify → layout → render pipeline shared
// by the CLI, the API and the sync job.
//
// # Architecture
//
// The pipeline consists of three independent stages:
//
//  1. Classify: turn raw relationships into canonical typed edges
//  2. Layout: level a graph and compose its initial collapse state
//  3. Render: generate output in various formats (DOT, SVG, PNG, JSON)
//
// Layouts and artifacts are content-addressed: the layout key is the hash
// of the graph plus the layout options, the artifact key the hash of the
// layout plus the render options. Cache failures are never fatal; the
// stage is simply recomputed.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	state, err := runner.Layout(ctx, g, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	state.Toggle("API-1")
//	artifacts, err := runner.Render(ctx, state.Layout(), pipeline.Options{
//	    Formats: []string{"svg"},
//	})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/superrelativity/relgraph/pkg/cache"
	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/errors"
	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/layout"
	"github.com/superrelativity/relgraph/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Sync
// =============================================================================

const (
	// DefaultColumnWidth is the horizontal distance between levels.
	DefaultColumnWidth = layout.DefaultColumnWidth

	// DefaultRowHeight is the vertical distance between nodes of a level.
	DefaultRowHeight = layout.DefaultRowHeight

	// DefaultFallbackRoots is the number of highest-outdegree nodes used as
	// roots when no node has in-degree zero.
	DefaultFallbackRoots = layout.DefaultFallbackRoots

	// DefaultFormat is the default render format.
	DefaultFormat = render.FormatSVG

	// MaxWorkers bounds concurrent classification.
	MaxWorkers = 64
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Classify options
	MatchDescription bool `json:"match_description,omitempty"`
	Workers          int  `json:"workers,omitempty"`

	// Layout options
	ColumnWidth   float64 `json:"column_width,omitempty"`
	RowHeight     float64 `json:"row_height,omitempty"`
	FallbackRoots int     `json:"fallback_roots,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	ShowHidden bool     `json:"show_hidden,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a layout and render run.
type Result struct {
	// GraphHash is the content hash of the input graph.
	GraphHash string

	// State is the composed collapse state.
	State *layout.State

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, render.Formats)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForClassify validates and sets defaults for classification.
func (o *Options) ValidateForClassify() error {
	if o.Workers < 0 || o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be between 0 and %d, got %d", MaxWorkers, o.Workers)
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.ColumnWidth == 0 {
		o.ColumnWidth = DefaultColumnWidth
	}
	if o.RowHeight == 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.FallbackRoots == 0 {
		o.FallbackRoots = DefaultFallbackRoots
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.ColumnWidth < 0 || o.RowHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "column width and row height must not be negative")
	}
	if o.FallbackRoots < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "fallback roots must not be negative, got %d", o.FallbackRoots)
	}
	o.SetLayoutDefaults()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ClassifyOptions returns the classifier options.
func (o *Options) ClassifyOptions() classify.Options {
	return classify.Options{MatchDescription: o.MatchDescription}
}

// LayoutOptions returns the layout composer options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		ColumnWidth:   o.ColumnWidth,
		RowHeight:     o.RowHeight,
		FallbackRoots: o.FallbackRoots,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ColumnWidth:   o.ColumnWidth,
		RowHeight:     o.RowHeight,
		FallbackRoots: o.FallbackRoots,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		ShowHidden: o.ShowHidden,
		Detailed:   o.Detailed,
	}
}

// GraphHash returns the content hash of a graph.
func GraphHash(g graph.Graph) (string, error) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return "", fmt.Errorf("serialize graph: %w", err)
	}
	return cache.Hash(data), nil
}
