package cache

import "fmt"

// Key type names, reported to the cache hooks.
const (
	KeyTypeHTTP     = "http"
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
	KeyTypeSync     = "sync"
)

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is the key for a cached source API response.
	HTTPKey(namespace, key string) string
	// LayoutKey is the key for a composed layout of a graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey is the key for a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
	// SyncKey is the key for a sync job marker such as "last".
	SyncKey(name string) string
}

// LayoutKeyOpts are the layout options that change the result.
type LayoutKeyOpts struct {
	ColumnWidth   float64 `json:"column_width"`
	RowHeight     float64 `json:"row_height"`
	FallbackRoots int     `json:"fallback_roots"`
}

// ArtifactKeyOpts are the render options that change the result.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	ShowHidden bool   `json:"show_hidden,omitempty"`
	Detailed   bool   `json:"detailed,omitempty"`
}

// DefaultKeyer produces keys of the form type:hash.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:" + namespace + ":" + key.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", KeyTypeHTTP, namespace, key)
}

// LayoutKey hashes the graph hash together with the options.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return typedKey(KeyTypeLayout, graphHash, opts)
}

// ArtifactKey hashes the layout hash together with the options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return typedKey(KeyTypeArtifact, layoutHash, opts)
}

// SyncKey returns "sync:" + name, matching the marker other tools read.
func (DefaultKeyer) SyncKey(name string) string {
	return KeyTypeSync + ":" + name
}

// KeyType returns the type prefix of a key built by DefaultKeyer.
func KeyType(key string) string {
	for i := range len(key) {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
