package mcp

import (
	"github.com/custodia-labs/taskman/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Tasks manages task records.
	Tasks driving.TaskService

	// Memory provides semantic search. Optional: when nil the search tools
	// return no results.
	Memory driving.MemoryService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Tasks == nil {
		return ErrMissingTaskService
	}
	return nil
}
