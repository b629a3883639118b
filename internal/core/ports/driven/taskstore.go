package driven

import (
	"context"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

// TaskStore persists tasks. It is the primary record store; the vector
// index only mirrors it.
type TaskStore interface {
	// Create inserts a new task and assigns its ID.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.Task, error)

	// List returns tasks matching the filter, newest first.
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)

	// Count returns the number of tasks matching the filter (ignoring Limit/Offset).
	Count(ctx context.Context, filter domain.TaskFilter) (int, error)

	// Update overwrites an existing task. Returns domain.ErrNotFound if absent.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id int64) error

	// Tags returns the distinct tags used across all tasks, sorted.
	Tags(ctx context.Context) ([]string, error)
}
