// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The episodic-memory pipeline is split into three layers:
//
//   - Embedder: prefixes text by direction and truncates model output
//   - IndexService: keeps the vector sidecar in step with task mutations
//   - SimilarityService: turns query text into ranked task IDs
//
// MemoryService and TaskService sit on top and decide when failures are
// absorbed. Services are pure Go with no CGO or external dependencies.
package services
