package domain

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusArchived   TaskStatus = "archived"
)

// IsValid returns true if the status is recognised.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s TaskStatus) String() string {
	return string(s)
}

// Priority expresses importance and urgency.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid returns true if the priority is recognised.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p Priority) String() string {
	return string(p)
}

// Task is the primary record tracked by taskman.
type Task struct {
	// ID is assigned by the task store. Zero means "not yet saved".
	ID int64 `json:"id"`

	// Title is a short summary of the work. Required.
	Title string `json:"title"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Tags is an optional comma-separated tag string.
	Tags string `json:"tags,omitempty"`

	// Status is the lifecycle state.
	Status TaskStatus `json:"status"`

	// Priority is the importance level.
	Priority Priority `json:"priority"`

	// DueDate is an optional deadline.
	DueDate *time.Time `json:"due_date,omitempty"`

	// CreatedAt is when the task was first saved.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the task was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchableText builds the text the episodic-memory index embeds for this
// task: title, then description, then tags, one per line. Empty optional
// fields are omitted.
func (t *Task) SearchableText() string {
	parts := []string{t.Title}
	if t.Description != "" {
		parts = append(parts, t.Description)
	}
	if t.Tags != "" {
		parts = append(parts, t.Tags)
	}
	return strings.Join(parts, "\n")
}

// TagList splits the tag string into trimmed, non-empty tags.
func (t *Task) TagList() []string {
	if t.Tags == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TaskFilter narrows a task listing. Zero values mean "no filter".
type TaskFilter struct {
	Status   TaskStatus
	Priority Priority
	Tag      string

	// DueBefore keeps tasks whose due date is strictly earlier.
	// Tasks without a due date never match.
	DueBefore *time.Time

	Limit  int
	Offset int
}

// TaskUpdate carries the fields to change on an existing task.
// Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Tags        *string
	Status      *TaskStatus
	Priority    *Priority
	DueDate     *time.Time
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Tags == nil &&
		u.Status == nil && u.Priority == nil && u.DueDate == nil
}

// TaskStats summarises the task table.
type TaskStats struct {
	Total      int                `json:"total"`
	ByStatus   map[TaskStatus]int `json:"by_status"`
	ByPriority map[Priority]int   `json:"by_priority"`

	// Overdue counts open (pending or in progress) tasks due before today.
	Overdue int `json:"overdue"`
}

// AllTaskStatuses returns every status in lifecycle order.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived}
}

// AllPriorities returns every priority from lowest to highest.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// IsOpen reports whether the status still counts as outstanding work.
func (s TaskStatus) IsOpen() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// IsOverdue reports whether the task is open and due before the day of now.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || !t.Status.IsOpen() {
		return false
	}
	return t.DueDate.Before(StartOfDay(now))
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
