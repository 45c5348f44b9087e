package model

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts any casing ("High", "HIGH") and returns the canonical value.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// ParseStatus accepts "in progress", "In progress", "in-progress", "inprogress" and so on.
func ParseStatus(s string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	switch key {
	case "pending":
		return StatusPending, true
	case "inprogress":
		return StatusInProgress, true
	case "completed":
		return StatusCompleted, true
	}
	return "", false
}

type TodoItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Priority      Priority   `json:"priority"`
	Status        Status     `json:"status"`
	DueDate       time.Time  `json:"dueDate"`
	AssignedTo    []int      `json:"assignedTo"`
	CreatedBy     int        `json:"createdBy"`
	Department    Department `json:"department"`
	Attachments   []string   `json:"attachments"`
	TodoChecklist []TodoItem `json:"todoChecklist"`
	Progress      int        `json:"progress"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (t *Task) IsAssigned(userID int) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Task) CompletedCount() int {
	n := 0
	for _, item := range t.TodoChecklist {
		if item.Completed {
			n++
		}
	}
	return n
}

// IsOverdue is true when the due date has passed and the task is not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.DueDate.Before(now)
}

// TaskDetail is a task with assignee ids expanded to user summaries.
type TaskDetail struct {
	Task
	AssignedTo []UserSummary `json:"assignedTo"`
}

// TaskListItem is a TaskDetail annotated with its completed checklist count.
type TaskListItem struct {
	TaskDetail
	CompletedTodoCount int `json:"completedTodoCount"`
}

// TaskSummary is the projection used for "recent tasks".
type TaskSummary struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	Priority  Priority  `json:"priority"`
	DueDate   time.Time `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
}
