// Package domain defines the core business entities for taskman.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Task: A tracked unit of work (the primary record)
//   - TaskMatch: A semantic search hit against the episodic-memory index
//   - EmbeddingMode: Direction of an embedding (storage vs query)
//   - AppSettings: Resolved application configuration
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
