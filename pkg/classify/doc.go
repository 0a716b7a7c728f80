// Package classify turns loosely-typed relationship records into canonical,
// directional edge types.
//
// Classification is a closed-world whitelist. An ordered table of rules
// pairs a source entity type and target entity type with a keyword
// predicate over the lower-cased type hint; the first rule that matches
// decides the canonical type. A pair of endpoint types that no rule accepts
// is rejected: there is no generic fallback type.
//
// # Rule order
//
// Predicates overlap (Component→Component tries CONTAINS before the
// unconditional RELATES), so the table is evaluated strictly in declared
// order. [Rules] returns the table for inspection.
//
// # Direction metadata
//
// CALLS edges carry a [Mode] inferred by [InferMode]; CALLS and WORKS_ON
// edges carry an [RW] access mode inferred by [InferRW]; BusinessFunction
// RELATES edges carry a Mode.
//
// # Purity
//
// [Classify] is pure and deterministic. [Classifier] adds logging, counting
// and observability hooks around it for batch use, and never fails on a
// rejected record.
package classify
