package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/taskman/internal/core/domain"
	"github.com/custodia-labs/taskman/internal/core/ports/driven"
)

// taskStore implements driven.TaskStore.
type taskStore struct {
	store *Store
}

var _ driven.TaskStore = (*taskStore)(nil)

const taskColumns = `id, title, description, tags, status, priority, due_date, created_at, updated_at`

// Create inserts a new task and assigns its ID.
func (s *taskStore) Create(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, tags, status, priority, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, task.Title, task.Description, task.Tags, string(task.Status), string(task.Priority),
		nullTime(task), task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading task id: %w", err)
	}
	task.ID = id
	return nil
}

// Get retrieves a task by ID.
func (s *taskStore) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// List returns tasks matching the filter, newest first.
func (s *taskStore) List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// Count returns the number of tasks matching the filter.
func (s *taskStore) Count(ctx context.Context, filter domain.TaskFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

// Update overwrites an existing task.
func (s *taskStore) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, tags = ?, status = ?, priority = ?,
			due_date = ?, updated_at = ?
		WHERE id = ?
	`, task.Title, task.Description, task.Tags, string(task.Status), string(task.Priority),
		nullTime(task), task.UpdatedAt, task.ID)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a task. The sidecar entry is left to the index service.
func (s *taskStore) Delete(ctx context.Context, id int64) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireAffected(res)
}

// Tags returns the distinct tags used across all tasks, sorted.
func (s *taskStore) Tags(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT tags FROM tasks WHERE tags != ''`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning tags: %w", err)
		}
		t := domain.Task{Tags: raw}
		for _, tag := range t.TagList() {
			seen[tag] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// filterClause builds the WHERE clause for a task filter.
func filterClause(filter domain.TaskFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if tag := normaliseTag(filter.Tag); tag != "" {
		// Tags are matched whole, case-insensitively, ignoring spaces.
		conds = append(conds, "(',' || REPLACE(LOWER(tags), ' ', '') || ',') LIKE ?")
		args = append(args, "%,"+tag+",%")
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_date IS NOT NULL AND due_date < ?")
		args = append(args, filter.DueBefore.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func normaliseTag(tag string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), " ", "")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	var due sql.NullTime

	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Tags,
		&status, &priority, &due, &task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.Priority(priority)
	if due.Valid {
		t := due.Time
		task.DueDate = &t
	}
	return &task, nil
}

func nullTime(task *domain.Task) sql.NullTime {
	if task.DueDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: task.DueDate.UTC(), Valid: true}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
