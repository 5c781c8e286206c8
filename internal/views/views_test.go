package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/apiclient"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister[T any] struct {
	items []T
	err   error
}

func (s staticLister[T]) ListAll(context.Context) ([]T, error) {
	return s.items, s.err
}

var now = time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)

func sampleEmployees() []model.Employee {
	return []model.Employee{
		{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", Position: "Engineer"},
		{ID: 2, Name: "Grace Hopper", Email: "grace@navy.mil", Position: "Admiral"},
		{ID: 3, Name: "Linus", Email: "linus@example.org", Position: "Maintainer"},
	}
}

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "a", Status: model.StatusTodo, DueDate: "2026-04-01"},
		{ID: 2, Title: "b", Status: model.StatusInProgress, DueDate: "2026-05-01"},
		{ID: 3, Title: "c", Status: model.StatusInProgress},
		{ID: 4, Title: "d", Status: model.StatusDone, DueDate: "2026-01-01"},
		{ID: 5, Title: "e", Status: model.StatusDone},
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize(sampleEmployees(), sampleTasks(), now)
	assert.Equal(t, Stats{Employees: 3, Tasks: 5, Todo: 1, InProgress: 2, Done: 2, Overdue: 1}, stats)
}

func TestLoadDashboard(t *testing.T) {
	dash, err := LoadDashboard(context.Background(),
		staticLister[model.Employee]{items: sampleEmployees()},
		staticLister[model.Task]{items: sampleTasks()},
		now)
	require.NoError(t, err)
	assert.Equal(t, 3, dash.Stats.Employees)
	assert.Equal(t, 2, dash.Stats.Done)
	assert.Len(t, dash.Tasks, 5)
}

func TestLoadDashboardPropagatesErrorKind(t *testing.T) {
	failure := &apiclient.RequestError{Kind: apiclient.ErrAuthorization}
	_, err := LoadDashboard(context.Background(),
		staticLister[model.Employee]{items: sampleEmployees()},
		staticLister[model.Task]{err: failure},
		now)
	require.Error(t, err)
	assert.True(t, SessionLost(err))
}

func TestSearchEmployees(t *testing.T) {
	employees := sampleEmployees()

	assert.Len(t, SearchEmployees(employees, ""), 3)
	assert.Equal(t, []model.Employee{employees[1]}, SearchEmployees(employees, "NAVY"))
	assert.Equal(t, []model.Employee{employees[0], employees[2]}, SearchEmployees(employees, "example"))
	assert.Equal(t, []model.Employee{employees[2]}, SearchEmployees(employees, "maint"))
	assert.Empty(t, SearchEmployees(employees, "nobody"))
}

func TestPickEmployeesIgnoresEmail(t *testing.T) {
	employees := sampleEmployees()
	assert.Empty(t, PickEmployees(employees, "navy"))
	assert.Equal(t, []model.Employee{employees[1]}, PickEmployees(employees, "admiral"))
}

func TestEmployeeName(t *testing.T) {
	employees := sampleEmployees()
	id := int64(2)
	missing := int64(99)
	assert.Equal(t, "Grace Hopper", EmployeeName(employees, &id))
	assert.Equal(t, MsgNoEmployee, EmployeeName(employees, &missing))
	assert.Equal(t, MsgNoEmployee, EmployeeName(employees, nil))
}

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "Apr 1, 2026", FormatDue(model.Task{DueDate: "2026-04-01"}))
	assert.Equal(t, "No due date", FormatDue(model.Task{}))
}

func TestLoginMessage(t *testing.T) {
	assert.Equal(t, MsgLoginFailed, LoginMessage(apiclient.ErrAuthentication, false))
	assert.Equal(t, MsgRegistrationFailed, LoginMessage(apiclient.ErrRegistration, true))
	registered := &apiclient.RegisteredLoginError{Username: "a", Err: apiclient.ErrAuthentication}
	assert.Equal(t, MsgRegisteredNoLogin, LoginMessage(registered, true))
	assert.False(t, SessionLost(errors.New("boom")))
}

func TestRequestGuard(t *testing.T) {
	var guard RequestGuard
	first := guard.Begin()
	second := guard.Begin()
	assert.False(t, guard.Current(first))
	assert.True(t, guard.Current(second))
}
