// Package entity resolves enterprise-architecture entity identifiers to
// coarse entity types.
//
// Identifiers follow a structural prefix convention: the letters before the
// first hyphen name the kind of entity ("APP-123" is an Application,
// "CAP-004" a BusinessFunction). [Resolve] is total: every string maps to
// exactly one [Type], and unrecognized prefixes map to [Unknown].
//
// Graph stores return node types as labels rather than ids. [ParseType]
// accepts those labels, including the "BusinessCapability" alias used by
// the source repository.
package entity
