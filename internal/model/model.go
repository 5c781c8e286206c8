package model

import (
	"strings"
	"time"
)

// DateLayout is the wire and form format of Task.DueDate.
const DateLayout = "2006-01-02"

type Credential struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
}

type Employee struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Statuses lists every status in workflow order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

func (s TaskStatus) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return "To Do"
	}
}

func (s TaskStatus) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseStatus accepts the wire value in any case; blank input is TODO.
func ParseStatus(value string) (TaskStatus, bool) {
	trimmed := TaskStatus(strings.ToUpper(strings.TrimSpace(value)))
	if trimmed == "" {
		return StatusTodo, true
	}
	if !trimmed.Valid() {
		return "", false
	}
	return trimmed, true
}

type Task struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     string     `json:"dueDate,omitempty"`
	EmployeeID  *int64     `json:"employeeId,omitempty"`
}

// Due parses DueDate. ok is false when the date is empty or malformed.
func (t Task) Due() (time.Time, bool) {
	if strings.TrimSpace(t.DueDate) == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(DateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Overdue reports whether the task is past its due date on the given day and not done.
func (t Task) Overdue(now time.Time) bool {
	if t.Status == StatusDone {
		return false
	}
	due, ok := t.Due()
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}
