package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for taskman resources.
	uriScheme = "taskman://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the open task list.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tasks",
		Name:        "tasks",
		Description: "Open tasks, newest first",
		MIMEType:    "application/json",
	}, s.handleTasksResource)

	// Counts by status and priority.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Task counts by status and priority, overdue tasks and index size",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Template for a single task.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tasks/{taskId}",
		Name:        "task",
		Description: "A single task",
		MIMEType:    "application/json",
	}, s.handleTaskResource)
}

// handleTasksResource returns pending and in-progress tasks.
func (s *Server) handleTasksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	var open []TaskOutput
	for _, status := range []domain.TaskStatus{domain.TaskStatusInProgress, domain.TaskStatusPending} {
		tasks, err := s.ports.Tasks.List(ctx, domain.TaskFilter{Status: status})
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
		for i := range tasks {
			open = append(open, toTaskOutput(&tasks[i]))
		}
	}
	if open == nil {
		open = []TaskOutput{}
	}

	return jsonResource(req.Params.URI, open)
}

// StatsOutput is the body of the stats resource.
type StatsOutput struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Overdue    int            `json:"overdue"`

	// Indexed is omitted when semantic search is unavailable.
	Indexed *int `json:"indexed,omitempty"`
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Tasks.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}

	out := StatsOutput{
		Total:      stats.Total,
		ByStatus:   make(map[string]int, len(stats.ByStatus)),
		ByPriority: make(map[string]int, len(stats.ByPriority)),
		Overdue:    stats.Overdue,
	}
	for status, n := range stats.ByStatus {
		out.ByStatus[status.String()] = n
	}
	for priority, n := range stats.ByPriority {
		out.ByPriority[priority.String()] = n
	}
	if s.ports.Memory != nil {
		if n, err := s.ports.Memory.Indexed(ctx); err == nil {
			out.Indexed = &n
		}
	}

	return jsonResource(req.Params.URI, out)
}

// handleTaskResource returns one task.
func (s *Server) handleTaskResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, ok := extractTaskID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	task, err := s.ports.Tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}

	return jsonResource(req.Params.URI, toTaskOutput(task))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTaskID extracts the task ID from a URI like taskman://tasks/{taskId}.
func extractTaskID(uri string) (int64, bool) {
	const prefix = uriScheme + "tasks/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
