package entity

import "strings"

// Resolver maps an entity id to its type.
type Resolver interface {
	Resolve(id string) Type
}

// DefaultPrefixes is the prefix convention of the architecture repository.
var DefaultPrefixes = map[string]Type{
	"APP":  Application,
	"API":  API,
	"CAP":  BusinessFunction,
	"BF":   BusinessFunction,
	"COMP": Component,
	"CMP":  Component,
	"DATA": DataObject,
	"DO":   DataObject,
	"TBL":  Table,
	"TAB":  Table,
	"SRV":  Server,
	"ACH":  AppChange,
	"ICH":  InfraChange,
}

// PrefixResolver resolves types from the id prefix before the first hyphen.
type PrefixResolver struct {
	prefixes map[string]Type
}

// NewPrefixResolver creates a resolver over the given prefix table.
// Prefixes are matched case-insensitively. A nil table uses DefaultPrefixes.
func NewPrefixResolver(prefixes map[string]Type) *PrefixResolver {
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}
	norm := make(map[string]Type, len(prefixes))
	for p, t := range prefixes {
		norm[strings.ToUpper(p)] = t
	}
	return &PrefixResolver{prefixes: norm}
}

// Resolve returns the type for id. It never fails: ids without a hyphen or
// with an unknown prefix resolve to Unknown.
func (r *PrefixResolver) Resolve(id string) Type {
	prefix, _, ok := strings.Cut(strings.TrimSpace(id), "-")
	if !ok || prefix == "" {
		return Unknown
	}
	if t, ok := r.prefixes[strings.ToUpper(prefix)]; ok {
		return t
	}
	return Unknown
}

var defaultResolver = NewPrefixResolver(nil)

// Resolve maps id to a type using DefaultPrefixes.
func Resolve(id string) Type {
	return defaultResolver.Resolve(id)
}

// ResolveEntity returns an Entity for id with its resolved type.
func ResolveEntity(id string) Entity {
	return Entity{ID: id, Type: Resolve(id)}
}

// IndexResolver resolves known entities to their recorded type and
// everything else through a fallback resolver.
type IndexResolver struct {
	types    map[string]Type
	fallback Resolver
}

// NewIndexResolver indexes entities. Entities of type Unknown are not
// indexed. A nil fallback uses the default prefix table.
func NewIndexResolver(entities []Entity, fallback Resolver) *IndexResolver {
	if fallback == nil {
		fallback = defaultResolver
	}
	types := make(map[string]Type, len(entities))
	for _, e := range entities {
		if e.Type != Unknown {
			types[e.ID] = e.Type
		}
	}
	return &IndexResolver{types: types, fallback: fallback}
}

// Resolve returns the indexed type of id or the fallback's answer.
func (r *IndexResolver) Resolve(id string) Type {
	if t, ok := r.types[id]; ok {
		return t
	}
	return r.fallback.Resolve(id)
}
