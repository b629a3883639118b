package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

// dueDateLayout is the date-only form accepted for due dates.
const dueDateLayout = "2006-01-02"

// TaskOutput is the wire form of a task.
type TaskOutput struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CreateTaskInput is the input schema for the create_task tool.
type CreateTaskInput struct {
	Title       string `json:"title" jsonschema:"short summary of the task"`
	Description string `json:"description,omitempty" jsonschema:"optional details"`
	Tags        string `json:"tags,omitempty" jsonschema:"comma separated tags"`
	Priority    string `json:"priority,omitempty" jsonschema:"low, medium, high or urgent (default medium)"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"deadline as YYYY-MM-DD or RFC 3339"`
}

// CreateTaskOutput is the output schema for the create_task tool.
type CreateTaskOutput struct {
	Task TaskOutput `json:"task"`

	// PossibleDuplicates lists existing tasks similar to the new one.
	PossibleDuplicates []MatchOutput `json:"possible_duplicates"`
}

// TaskIDInput identifies a single task.
type TaskIDInput struct {
	ID int64 `json:"id" jsonschema:"the task id"`
}

// TaskResult wraps a single task.
type TaskResult struct {
	Task TaskOutput `json:"task"`
}

// ListTasksInput is the input schema for the list_tasks tool.
type ListTasksInput struct {
	Status   string `json:"status,omitempty" jsonschema:"pending, in_progress, completed or archived"`
	Priority string `json:"priority,omitempty" jsonschema:"low, medium, high or urgent"`
	Tag      string `json:"tag,omitempty" jsonschema:"only tasks carrying this tag"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of tasks to return"`
	Overdue  bool   `json:"overdue,omitempty" jsonschema:"only open tasks due before today; other filters are ignored"`
}

// ListTasksOutput is the output schema for the list_tasks tool.
type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
	Count int          `json:"count"`
}

// UpdateTaskInput is the input schema for the update_task tool.
// Omitted fields are left unchanged.
type UpdateTaskInput struct {
	ID          int64   `json:"id" jsonschema:"the task id"`
	Title       *string `json:"title,omitempty" jsonschema:"new title"`
	Description *string `json:"description,omitempty" jsonschema:"new description"`
	Tags        *string `json:"tags,omitempty" jsonschema:"new comma separated tags"`
	Status      *string `json:"status,omitempty" jsonschema:"new status"`
	Priority    *string `json:"priority,omitempty" jsonschema:"new priority"`
	DueDate     *string `json:"due_date,omitempty" jsonschema:"new deadline as YYYY-MM-DD or RFC 3339"`
}

// DeleteTaskOutput is the output schema for the delete_task tool.
type DeleteTaskOutput struct {
	Deleted int64 `json:"deleted"`
}

// SearchInput is the input schema for the semantic search tools.
type SearchInput struct {
	Query     string  `json:"query" jsonschema:"free text describing the task"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of results"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum similarity between 0 and 1; omit for the default, negative for no cutoff"`
}

// SearchOutput is the output schema for the semantic search tools.
type SearchOutput struct {
	Results []MatchOutput `json:"results"`
	Count   int           `json:"count"`
}

// MatchOutput represents a single semantic match.
type MatchOutput struct {
	TaskID     int64       `json:"task_id"`
	Similarity float64     `json:"similarity"`
	Task       *TaskOutput `json:"task,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task and report existing tasks that look like duplicates",
	}, s.handleCreateTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_task",
		Description: "Get a task by id",
	}, s.handleGetTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks, newest first, optionally filtered by status, priority or tag",
	}, s.handleListTasks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_task",
		Description: "Change fields of an existing task",
	}, s.handleUpdateTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed",
	}, s.handleCompleteTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task",
	}, s.handleDeleteTask)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_tasks",
		Description: "Find tasks by meaning rather than exact words",
	}, s.handleSearchTasks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_similar_tasks",
		Description: "Find existing tasks that may duplicate the given text",
	}, s.handleFindSimilar)
}

func (s *Server) handleCreateTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateTaskInput,
) (*mcp.CallToolResult, CreateTaskOutput, error) {
	task := domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Tags:        input.Tags,
		Priority:    domain.Priority(input.Priority),
	}
	if input.DueDate != "" {
		due, err := parseDueDate(input.DueDate)
		if err != nil {
			return nil, CreateTaskOutput{}, err
		}
		task.DueDate = &due
	}

	// Check before creating so the new task cannot match itself
	duplicates := s.similar(ctx, task.SearchableText(), domain.SemanticSearchOptions{})

	created, err := s.ports.Tasks.Create(ctx, task)
	if err != nil {
		return nil, CreateTaskOutput{}, err
	}

	return nil, CreateTaskOutput{
		Task:               toTaskOutput(created),
		PossibleDuplicates: duplicates,
	}, nil
}

func (s *Server) handleGetTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TaskIDInput,
) (*mcp.CallToolResult, TaskResult, error) {
	task, err := s.ports.Tasks.Get(ctx, input.ID)
	if err != nil {
		return nil, TaskResult{}, fmt.Errorf("task %d: %w", input.ID, err)
	}
	return nil, TaskResult{Task: toTaskOutput(task)}, nil
}

func (s *Server) handleListTasks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListTasksInput,
) (*mcp.CallToolResult, ListTasksOutput, error) {
	var tasks []domain.Task
	var err error
	if input.Overdue {
		tasks, err = s.ports.Tasks.Overdue(ctx)
		if err == nil && input.Limit > 0 && len(tasks) > input.Limit {
			tasks = tasks[:input.Limit]
		}
	} else {
		tasks, err = s.ports.Tasks.List(ctx, domain.TaskFilter{
			Status:   domain.TaskStatus(input.Status),
			Priority: domain.Priority(input.Priority),
			Tag:      input.Tag,
			Limit:    input.Limit,
		})
	}
	if err != nil {
		return nil, ListTasksOutput{}, err
	}

	output := ListTasksOutput{
		Tasks: make([]TaskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i := range tasks {
		output.Tasks[i] = toTaskOutput(&tasks[i])
	}
	return nil, output, nil
}

func (s *Server) handleUpdateTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateTaskInput,
) (*mcp.CallToolResult, TaskResult, error) {
	update := domain.TaskUpdate{
		Title:       input.Title,
		Description: input.Description,
		Tags:        input.Tags,
	}
	if input.Status != nil {
		status := domain.TaskStatus(*input.Status)
		update.Status = &status
	}
	if input.Priority != nil {
		priority := domain.Priority(*input.Priority)
		update.Priority = &priority
	}
	if input.DueDate != nil {
		due, err := parseDueDate(*input.DueDate)
		if err != nil {
			return nil, TaskResult{}, err
		}
		update.DueDate = &due
	}

	task, err := s.ports.Tasks.Update(ctx, input.ID, update)
	if err != nil {
		return nil, TaskResult{}, fmt.Errorf("update task %d: %w", input.ID, err)
	}
	return nil, TaskResult{Task: toTaskOutput(task)}, nil
}

func (s *Server) handleCompleteTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TaskIDInput,
) (*mcp.CallToolResult, TaskResult, error) {
	task, err := s.ports.Tasks.Complete(ctx, input.ID)
	if err != nil {
		return nil, TaskResult{}, fmt.Errorf("complete task %d: %w", input.ID, err)
	}
	return nil, TaskResult{Task: toTaskOutput(task)}, nil
}

func (s *Server) handleDeleteTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TaskIDInput,
) (*mcp.CallToolResult, DeleteTaskOutput, error) {
	if err := s.ports.Tasks.Delete(ctx, input.ID); err != nil {
		return nil, DeleteTaskOutput{}, fmt.Errorf("delete task %d: %w", input.ID, err)
	}
	return nil, DeleteTaskOutput{Deleted: input.ID}, nil
}

// handleSearchTasks never fails: an unavailable index yields no results.
func (s *Server) handleSearchTasks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results := []MatchOutput{}
	if s.ports.Memory != nil {
		matches := s.ports.Memory.Search(ctx, input.Query, searchOptions(input))
		results = toMatchOutputs(matches)
	}
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

func (s *Server) handleFindSimilar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results := s.similar(ctx, input.Query, searchOptions(input))
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

func (s *Server) similar(ctx context.Context, text string, opts domain.SemanticSearchOptions) []MatchOutput {
	if s.ports.Memory == nil || strings.TrimSpace(text) == "" {
		return []MatchOutput{}
	}
	return toMatchOutputs(s.ports.Memory.FindSimilar(ctx, text, opts))
}

func searchOptions(input SearchInput) domain.SemanticSearchOptions {
	return domain.SemanticSearchOptions{Limit: input.Limit, Threshold: input.Threshold}
}

func toMatchOutputs(matches []domain.TaskMatch) []MatchOutput {
	out := make([]MatchOutput, 0, len(matches))
	for _, m := range matches {
		match := MatchOutput{TaskID: m.TaskID, Similarity: m.Similarity}
		if m.Task != nil {
			task := toTaskOutput(m.Task)
			match.Task = &task
		}
		out = append(out, match)
	}
	return out
}

func toTaskOutput(t *domain.Task) TaskOutput {
	out := TaskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Tags:        t.Tags,
		Status:      t.Status.String(),
		Priority:    t.Priority.String(),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.Format(time.RFC3339)
	}
	return out
}

// parseDueDate accepts a date or a full RFC 3339 timestamp.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(dueDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: due date %q must be YYYY-MM-DD or RFC 3339", domain.ErrInvalidInput, s)
	}
	return t, nil
}
