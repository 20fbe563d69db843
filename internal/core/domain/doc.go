// Package domain defines the core business entities for sitesage.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - PageRecord: One crawled page in the page manifest
//   - RawPage: Opaque HTML bytes fetched for a URL
//   - Document: A normalised page (cleaned text, title, links)
//   - Chunk: A retrievable unit of page text, keyed by its index row
//   - Hit: A chunk returned by the retriever with its similarity score
//   - Category: The closed set of specialist response categories
//   - Answer: The composed reply to one conversation turn
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
