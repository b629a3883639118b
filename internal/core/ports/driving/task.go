package driving

import (
	"context"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

// TaskService manages tasks. Every successful mutation keeps the
// episodic-memory index in step on a best-effort basis; index failures
// never fail the mutation.
type TaskService interface {
	// Create validates and stores a new task, returning it with its ID set.
	Create(ctx context.Context, task domain.Task) (*domain.Task, error)

	// Get retrieves a task by ID.
	Get(ctx context.Context, id int64) (*domain.Task, error)

	// List returns tasks matching the filter.
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)

	// Update applies the non-nil fields of update to the task.
	Update(ctx context.Context, id int64, update domain.TaskUpdate) (*domain.Task, error)

	// Complete marks the task as completed.
	Complete(ctx context.Context, id int64) (*domain.Task, error)

	// Delete removes the task.
	Delete(ctx context.Context, id int64) error

	// Tags returns every tag in use.
	Tags(ctx context.Context) ([]string, error)

	// Stats returns task counts by status and priority, and the overdue count.
	Stats(ctx context.Context) (*domain.TaskStats, error)

	// Overdue returns open tasks whose due date is before today.
	Overdue(ctx context.Context) ([]domain.Task, error)
}
