package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTask_SearchableText(t *testing.T) {
	tests := []struct {
		name     string
		task     Task
		expected string
	}{
		{
			name:     "title only",
			task:     Task{Title: "Buy milk"},
			expected: "Buy milk",
		},
		{
			name:     "title and description",
			task:     Task{Title: "Fix login bug", Description: "OAuth token refresh fails after 1 hour"},
			expected: "Fix login bug\nOAuth token refresh fails after 1 hour",
		},
		{
			name:     "title and tags without description",
			task:     Task{Title: "Write report", Tags: "work,q3"},
			expected: "Write report\nwork,q3",
		},
		{
			name:     "all fields in order",
			task:     Task{Title: "T", Description: "D", Tags: "a,b"},
			expected: "T\nD\na,b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.task.SearchableText())
		})
	}
}

func TestTask_TagList(t *testing.T) {
	task := Task{Tags: " work, ,urgent ,home"}
	assert.Equal(t, []string{"work", "urgent", "home"}, task.TagList())

	empty := Task{}
	assert.Nil(t, empty.TagList())
}

func TestTaskStatus_IsValid(t *testing.T) {
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, TaskStatus("done").IsValid())
}

func TestPriority_IsValid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		assert.True(t, p.IsValid(), p.String())
	}
	assert.False(t, Priority("critical").IsValid())
}

func TestTaskUpdate_IsEmpty(t *testing.T) {
	assert.True(t, TaskUpdate{}.IsEmpty())

	title := "new"
	assert.False(t, TaskUpdate{Title: &title}.IsEmpty())
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	yesterday := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: TaskStatusPending}, false},
		{"due yesterday", Task{Status: TaskStatusPending, DueDate: &yesterday}, true},
		{"in progress due yesterday", Task{Status: TaskStatusInProgress, DueDate: &yesterday}, true},
		{"due today", Task{Status: TaskStatusPending, DueDate: &today}, false},
		{"completed", Task{Status: TaskStatusCompleted, DueDate: &yesterday}, false},
		{"archived", Task{Status: TaskStatusArchived, DueDate: &yesterday}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.IsOverdue(now))
		})
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 6, 1, 23, 59, 0, 0, time.FixedZone("UTC-5", -5*3600))

	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}

func TestAllTaskStatusesAndPriorities(t *testing.T) {
	for _, s := range AllTaskStatuses() {
		assert.True(t, s.IsValid())
	}
	for _, p := range AllPriorities() {
		assert.True(t, p.IsValid())
	}
	assert.Len(t, AllTaskStatuses(), 4)
	assert.Len(t, AllPriorities(), 4)
}
