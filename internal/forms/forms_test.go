package forms

import (
	"testing"

	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLogin(t *testing.T) {
	tests := []struct {
		name  string
		input LoginInput
		want  map[string]string
	}{
		{
			name:  "valid login",
			input: LoginInput{Username: "alice", Password: "secret"},
		},
		{
			name:  "missing fields",
			input: LoginInput{Username: "  "},
			want:  map[string]string{"username": "Username is required", "password": "Password is required"},
		},
		{
			name:  "registration mismatch",
			input: LoginInput{Username: "alice", Password: "a", Confirm: "b", Registering: true},
			want:  map[string]string{"confirm": "Passwords do not match"},
		},
		{
			name:  "confirm ignored when signing in",
			input: LoginInput{Username: "alice", Password: "a", Confirm: "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLogin(tt.input)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, FieldErrors(err))
		})
	}
}

func TestParseEmployee(t *testing.T) {
	employee, err := ParseEmployee(EmployeeInput{Name: " Ada ", Email: "ada@example.com", Position: "Engineer"})
	require.NoError(t, err)
	assert.Equal(t, model.Employee{Name: "Ada", Email: "ada@example.com", Position: "Engineer"}, employee)

	_, err = ParseEmployee(EmployeeInput{Email: "not-an-email"})
	assert.Equal(t, map[string]string{
		"name":     "Name is required",
		"email":    "Email is not a valid address",
		"position": "Position is required",
	}, FieldErrors(err))
}

func TestParseTask(t *testing.T) {
	input := NewTaskInput()
	input.Title = "Write report"
	input.DueDate = "2026-05-01"
	input.EmployeeID = "7"

	task, err := ParseTask(input)
	require.NoError(t, err)
	assert.Equal(t, model.StatusTodo, task.Status)
	require.NotNil(t, task.EmployeeID)
	assert.Equal(t, int64(7), *task.EmployeeID)

	_, err = ParseTask(TaskInput{})
	assert.Equal(t, map[string]string{
		"title":      "Title is required",
		"dueDate":    "Due date is required",
		"employeeId": "Please select an employee",
	}, FieldErrors(err))

	_, err = ParseTask(TaskInput{Title: "x", DueDate: "05/01/2026", EmployeeID: "1", Status: "doing"})
	assert.Equal(t, map[string]string{
		"dueDate": "Due date must be YYYY-MM-DD",
		"status":  "Status must be TODO, IN_PROGRESS or DONE",
	}, FieldErrors(err))

	_, err = ParseTask(TaskInput{Title: "x", DueDate: "2026-05-01", EmployeeID: "0"})
	assert.Equal(t, "Please select an employee", FieldErrors(err)["employeeId"])
}

func TestTaskInputFrom(t *testing.T) {
	id := int64(3)
	input := TaskInputFrom(model.Task{Title: "t", Status: model.StatusInProgress, DueDate: "2026-01-02", EmployeeID: &id})
	assert.Equal(t, TaskInput{Title: "t", Status: "IN_PROGRESS", DueDate: "2026-01-02", EmployeeID: "3"}, input)

	assert.Equal(t, "TODO", TaskInputFrom(model.Task{}).Status)
}

func TestValidationErrorMessage(t *testing.T) {
	v := &ValidationError{}
	assert.False(t, v.HasErrors())
	v.Add("title", "Title is required")
	v.Add("title", "ignored")
	v.Add("dueDate", "Due date is required")
	assert.Equal(t, "Due date is required; Title is required", v.Error())
	assert.Equal(t, "validation", v.Kind())
}
