package classify

import (
	"strings"

	"github.com/superrelativity/relgraph/pkg/entity"
)

// Options tunes keyword matching.
type Options struct {
	// MatchDescription appends the description to the type hint before
	// keyword matching. Useful for sources that leave the type empty.
	MatchDescription bool `json:"matchDescription,omitempty"`
}

// Classify assigns a canonical type to rel given its endpoint types.
// The second result is false when the relationship is rejected.
func Classify(rel RawRelationship, fromType, toType entity.Type) (ClassifiedRelationship, bool) {
	return ClassifyWith(rel, fromType, toType, Options{})
}

// ClassifyWith is Classify with matching options.
func ClassifyWith(rel RawRelationship, fromType, toType entity.Type, opts Options) (ClassifiedRelationship, bool) {
	hint := rel.Type
	if opts.MatchDescription && rel.Description != "" {
		hint += " " + rel.Description
	}
	hint = strings.ToLower(hint)

	for _, r := range rules {
		if !r.matches(fromType, toType, hint) {
			continue
		}
		out := ClassifiedRelationship{
			From:          rel.From,
			To:            rel.To,
			CanonicalType: r.Type,
			Properties:    Properties{Description: rel.Description},
		}
		if r.Mode {
			out.Properties.Mode = InferMode(hint)
		}
		if r.RW {
			out.Properties.RW = InferRW(hint)
		}
		return out, true
	}
	return ClassifiedRelationship{}, false
}

// InferMode returns Pushes for push/send/publish hints and Pulls otherwise.
func InferMode(hint string) Mode {
	h := strings.ToLower(hint)
	switch {
	case containsAny(h, []string{"push", "send", "publish"}):
		return Pushes
	case containsAny(h, []string{"pull", "fetch", "subscribe"}):
		return Pulls
	default:
		return Pulls
	}
}

// InferRW returns Reads or Writes when exactly one of "read" and "write"
// appears in the hint, and ReadNWrites otherwise.
func InferRW(hint string) RW {
	h := strings.ToLower(hint)
	read := strings.Contains(h, "read")
	write := strings.Contains(h, "write")
	switch {
	case read && !write:
		return Reads
	case write && !read:
		return Writes
	default:
		return ReadNWrites
	}
}
