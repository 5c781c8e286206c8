// Package views holds the presentation logic shared by the terminal and web
// front ends: dashboard aggregation, local search and user-facing messages.
package views

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/apiclient"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	MsgLoginFailed        = "Login failed. Check credentials."
	MsgRegistrationFailed = "Registration failed. Username may be taken."
	MsgRegisteredNoLogin  = "Account created. Please sign in."
	MsgSessionExpired     = "Session expired. Please sign in again."
	MsgDashboardFailed    = "Failed to load dashboard data"
	MsgEmployeesFailed    = "Failed to load employees"
	MsgEmployeeFailed     = "Failed to load employee"
	MsgEmployeeSaveFailed = "Failed to save employee"
	MsgEmployeeDelFailed  = "Failed to delete employee"
	MsgTasksFailed        = "Failed to load tasks"
	MsgTaskFailed         = "Failed to load task"
	MsgTaskSaveFailed     = "Failed to save task"
	MsgTaskDelFailed      = "Failed to delete task"
	MsgNoEmployee         = "No employee selected"
)

// Lister is the read side of a resource client.
type Lister[T any] interface {
	ListAll(ctx context.Context) ([]T, error)
}

type Stats struct {
	Employees  int `json:"employees"`
	Tasks      int `json:"tasks"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}

func Summarize(employees []model.Employee, tasks []model.Task, now time.Time) Stats {
	stats := Stats{Employees: len(employees), Tasks: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusDone:
			stats.Done++
		default:
			stats.Todo++
		}
		if task.Overdue(now) {
			stats.Overdue++
		}
	}
	return stats
}

type Dashboard struct {
	Stats     Stats
	Employees []model.Employee
	Tasks     []model.Task
}

// LoadDashboard fetches both collections concurrently and aggregates them.
func LoadDashboard(ctx context.Context, employees Lister[model.Employee], tasks Lister[model.Task], now time.Time) (Dashboard, error) {
	var dash Dashboard
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		list, err := employees.ListAll(groupCtx)
		dash.Employees = list
		return err
	})
	group.Go(func() error {
		list, err := tasks.ListAll(groupCtx)
		dash.Tasks = list
		return err
	})
	if err := group.Wait(); err != nil {
		return Dashboard{}, err
	}
	dash.Stats = Summarize(dash.Employees, dash.Tasks, now)
	return dash, nil
}

// SearchEmployees keeps employees whose name, email or position contains query,
// ignoring case.
func SearchEmployees(employees []model.Employee, query string) []model.Employee {
	return filterEmployees(employees, query, func(e model.Employee) []string {
		return []string{e.Name, e.Email, e.Position}
	})
}

// PickEmployees is the task form's employee picker search over name and position.
func PickEmployees(employees []model.Employee, query string) []model.Employee {
	return filterEmployees(employees, query, func(e model.Employee) []string {
		return []string{e.Name, e.Position}
	})
}

func filterEmployees(employees []model.Employee, query string, fields func(model.Employee) []string) []model.Employee {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return employees
	}
	result := make([]model.Employee, 0, len(employees))
	for _, employee := range employees {
		for _, field := range fields(employee) {
			if strings.Contains(strings.ToLower(field), needle) {
				result = append(result, employee)
				break
			}
		}
	}
	return result
}

// EmployeeName resolves a task's soft employee reference.
func EmployeeName(employees []model.Employee, id *int64) string {
	if id == nil {
		return MsgNoEmployee
	}
	for _, employee := range employees {
		if employee.ID == *id {
			return employee.Name
		}
	}
	return MsgNoEmployee
}

// FormatDue renders a task due date for lists, e.g. "Mar 9, 2026".
func FormatDue(task model.Task) string {
	due, ok := task.Due()
	if !ok {
		if task.DueDate == "" {
			return "No due date"
		}
		return task.DueDate
	}
	return due.Format("Jan 2, 2006")
}

// SessionLost reports whether err means the server no longer accepts the token.
func SessionLost(err error) bool {
	return errors.Is(err, apiclient.ErrAuthorization)
}

// LoginMessage picks the message for a failed login or registration attempt.
func LoginMessage(err error, registering bool) string {
	var registered *apiclient.RegisteredLoginError
	switch {
	case errors.As(err, &registered):
		return MsgRegisteredNoLogin
	case registering:
		return MsgRegistrationFailed
	default:
		return MsgLoginFailed
	}
}

// RequestGuard hands out increasing tokens so a view can drop responses to
// requests it has since superseded.
type RequestGuard struct {
	seq atomic.Uint64
}

func (g *RequestGuard) Begin() uint64 {
	return g.seq.Add(1)
}

func (g *RequestGuard) Current(token uint64) bool {
	return g.seq.Load() == token
}
