package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

// Ensure TaskStore implements the interface.
var _ driven.TaskStore = (*TaskStore)(nil)

// TaskStore is an in-memory implementation of driven.TaskStore.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[int64]domain.Task
	nextID int64
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:  make(map[int64]domain.Task),
		nextID: 1,
	}
}

// Create inserts a new task and assigns its ID.
func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.ID = s.nextID
	s.nextID++
	s.tasks[task.ID] = *task
	return nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(_ context.Context, id int64) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &task, nil
}

// List returns tasks matching the filter, newest first.
func (s *TaskStore) List(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	matched := s.matching(filter)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.Task{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Count returns the number of tasks matching the filter.
func (s *TaskStore) Count(_ context.Context, filter domain.TaskFilter) (int, error) {
	return len(s.matching(filter)), nil
}

// Update overwrites an existing task.
func (s *TaskStore) Update(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return domain.ErrNotFound
	}
	s.tasks[task.ID] = *task
	return nil
}

// Delete removes a task.
func (s *TaskStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// Tags returns the distinct tags used across all tasks, sorted.
func (s *TaskStore) Tags(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, task := range s.tasks {
		for _, tag := range task.TagList() {
			seen[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *TaskStore) matching(filter domain.TaskFilter) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if filter.Tag != "" && !hasTag(&task, filter.Tag) {
			continue
		}
		if filter.DueBefore != nil && (task.DueDate == nil || !task.DueDate.Before(*filter.DueBefore)) {
			continue
		}
		result = append(result, task)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func hasTag(task *domain.Task, tag string) bool {
	for _, t := range task.TagList() {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
