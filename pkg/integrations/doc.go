// Package integrations provides HTTP clients for the architecture repository
// the graph is synchronized from.
//
// # Overview
//
// The [leanix] subpackage fetches fact sheets (applications, APIs, business
// capabilities, components, data objects, servers and changes) and their
// relationships from a LeanIX-style REST API.
//
// # Shared Infrastructure
//
// The [Client] type provides the HTTP functionality the source clients
// share:
//   - default headers (user agent, bearer token)
//   - JSON decoding with typed errors ([ErrNotFound], [ErrUnauthorized],
//     [ErrNetwork])
//   - retry with exponential backoff for transient failures
//   - response caching via [cache.Cache] under a per-source namespace
//   - request events reported to the observability HTTP hooks
//
// # Adding a New Source
//
// To add support for a new source:
//
//  1. Create a subpackage: pkg/integrations/<source>/
//  2. Define response structs matching the API schema
//  3. Embed *integrations.Client and use Cached + Get to fetch
//  4. Return entity.Entity and classify.RawRelationship values
package integrations
