package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
	"github.com/custodia-labs/taskman/internal/core/ports/driving"
)

// Ensure TaskService implements the interface.
var _ driving.TaskService = (*TaskService)(nil)

// maxTitleLength bounds task titles, in runes.
const maxTitleLength = 200

// TaskService manages tasks and keeps the episodic-memory index in step.
type TaskService struct {
	store   driven.TaskStore
	indexer *IndexService
	now     func() time.Time
}

// NewTaskService creates a new task service.
// The indexer is optional (can be nil); without it no indexing happens.
func NewTaskService(store driven.TaskStore, indexer *IndexService) *TaskService {
	return &TaskService{
		store:   store,
		indexer: indexer,
		now:     time.Now,
	}
}

// Create validates and stores a new task.
func (s *TaskService) Create(ctx context.Context, task domain.Task) (*domain.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if err := validateTask(&task); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task.ID = 0
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.store.Create(ctx, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if s.indexer != nil {
		s.indexer.OnTaskUpserted(ctx, &task)
	}
	return &task, nil
}

// Get retrieves a task by ID.
func (s *TaskService) Get(ctx context.Context, id int64) (*domain.Task, error) {
	return s.store.Get(ctx, id)
}

// List returns tasks matching the filter.
func (s *TaskService) List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("status %q: %w", filter.Status, domain.ErrInvalidInput)
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, fmt.Errorf("priority %q: %w", filter.Priority, domain.ErrInvalidInput)
	}
	return s.store.List(ctx, filter)
}

// Update applies the non-nil fields of update to the task.
// The index entry is refreshed only when the searchable text changed.
func (s *TaskService) Update(ctx context.Context, id int64, update domain.TaskUpdate) (*domain.Task, error) {
	if update.IsEmpty() {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrInvalidInput)
	}

	task, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := task.SearchableText()

	if update.Title != nil {
		task.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Tags != nil {
		task.Tags = *update.Tags
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.DueDate != nil {
		due := *update.DueDate
		task.DueDate = &due
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}

	if s.indexer != nil && task.SearchableText() != before {
		s.indexer.OnTaskUpserted(ctx, task)
	}
	return task, nil
}

// Complete marks the task as completed.
func (s *TaskService) Complete(ctx context.Context, id int64) (*domain.Task, error) {
	status := domain.TaskStatusCompleted
	return s.Update(ctx, id, domain.TaskUpdate{Status: &status})
}

// Delete removes the task and its index entry.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if s.indexer != nil {
		s.indexer.OnTaskDeleted(ctx, id)
	}
	return nil
}

// Tags returns every tag in use.
func (s *TaskService) Tags(ctx context.Context) ([]string, error) {
	return s.store.Tags(ctx)
}

// Stats counts tasks by status and priority, plus the open tasks that are
// overdue. Every figure comes from TaskStore.Count.
func (s *TaskService) Stats(ctx context.Context) (*domain.TaskStats, error) {
	total, err := s.store.Count(ctx, domain.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	stats := &domain.TaskStats{
		Total:      total,
		ByStatus:   make(map[domain.TaskStatus]int),
		ByPriority: make(map[domain.Priority]int),
	}
	for _, status := range domain.AllTaskStatuses() {
		n, err := s.store.Count(ctx, domain.TaskFilter{Status: status})
		if err != nil {
			return nil, fmt.Errorf("count %s tasks: %w", status, err)
		}
		stats.ByStatus[status] = n
	}
	for _, priority := range domain.AllPriorities() {
		n, err := s.store.Count(ctx, domain.TaskFilter{Priority: priority})
		if err != nil {
			return nil, fmt.Errorf("count %s tasks: %w", priority, err)
		}
		stats.ByPriority[priority] = n
	}

	today := domain.StartOfDay(s.now())
	for _, status := range domain.AllTaskStatuses() {
		if !status.IsOpen() {
			continue
		}
		n, err := s.store.Count(ctx, domain.TaskFilter{Status: status, DueBefore: &today})
		if err != nil {
			return nil, fmt.Errorf("count overdue tasks: %w", err)
		}
		stats.Overdue += n
	}
	return stats, nil
}

// Overdue returns open tasks due before today, most overdue first.
func (s *TaskService) Overdue(ctx context.Context) ([]domain.Task, error) {
	today := domain.StartOfDay(s.now())
	var overdue []domain.Task
	for _, status := range domain.AllTaskStatuses() {
		if !status.IsOpen() {
			continue
		}
		tasks, err := s.store.List(ctx, domain.TaskFilter{Status: status, DueBefore: &today})
		if err != nil {
			return nil, fmt.Errorf("list overdue tasks: %w", err)
		}
		overdue = append(overdue, tasks...)
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		if !overdue[i].DueDate.Equal(*overdue[j].DueDate) {
			return overdue[i].DueDate.Before(*overdue[j].DueDate)
		}
		return overdue[i].ID < overdue[j].ID
	})
	if overdue == nil {
		overdue = []domain.Task{}
	}
	return overdue, nil
}

func validateTask(task *domain.Task) error {
	if task.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(task.Title) > maxTitleLength {
		return fmt.Errorf("title longer than %d characters: %w", maxTitleLength, domain.ErrInvalidInput)
	}
	if !task.Status.IsValid() {
		return fmt.Errorf("status %q: %w", task.Status, domain.ErrInvalidInput)
	}
	if !task.Priority.IsValid() {
		return fmt.Errorf("priority %q: %w", task.Priority, domain.ErrInvalidInput)
	}
	return nil
}
