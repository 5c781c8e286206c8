// Package forms validates user input locally before anything is sent to a service.
package forms

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/go-playground/validator/v10"
)

// ValidationError maps form field names to user-facing messages.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, e.FieldErrors[field])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Kind() string { return "validation" }

// Add records msg for field unless the field already has one.
func (e *ValidationError) Add(field, msg string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string]string)
	}
	if _, exists := e.FieldErrors[field]; exists {
		return
	}
	e.FieldErrors[field] = msg
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.FieldErrors) > 0
}

// Field returns the message for field, or "".
func (e *ValidationError) Field(field string) string {
	if e == nil {
		return ""
	}
	return e.FieldErrors[field]
}

// FieldErrors returns the per-field messages of err, or nil when err is not a ValidationError.
func FieldErrors(err error) map[string]string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.FieldErrors
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := field.Tag.Get("form"); name != "" {
				return name
			}
			return field.Name
		})
	})
	return validate
}

// messages[field][tag] is the text shown when that rule fails.
type messages map[string]map[string]string

func check(input any, text messages) *ValidationError {
	result := &ValidationError{}
	err := engine().Struct(input)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return result
	}
	for _, fe := range fieldErrs {
		msg := text[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = fe.Field() + " is invalid"
		}
		result.Add(fe.Field(), msg)
	}
	return result
}

type LoginInput struct {
	Username    string `form:"username" validate:"required"`
	Password    string `form:"password" validate:"required"`
	Confirm     string `form:"confirm"`
	Registering bool   `form:"-"`
}

var loginMessages = messages{
	"username": {"required": "Username is required"},
	"password": {"required": "Password is required"},
}

// CheckLogin validates the login or registration form.
func CheckLogin(input LoginInput) error {
	input.Username = strings.TrimSpace(input.Username)
	result := check(input, loginMessages)
	if input.Registering && input.Password != input.Confirm {
		result.Add("confirm", "Passwords do not match")
	}
	if result.HasErrors() {
		return result
	}
	return nil
}

type EmployeeInput struct {
	Name     string `form:"name" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Position string `form:"position" validate:"required"`
}

var employeeMessages = messages{
	"name":     {"required": "Name is required"},
	"email":    {"required": "Email is required", "email": "Email is not a valid address"},
	"position": {"required": "Position is required"},
}

func (in EmployeeInput) trimmed() EmployeeInput {
	return EmployeeInput{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Position: strings.TrimSpace(in.Position),
	}
}

// EmployeeInputFrom fills the form from an existing record.
func EmployeeInputFrom(employee model.Employee) EmployeeInput {
	return EmployeeInput{Name: employee.Name, Email: employee.Email, Position: employee.Position}
}

// ParseEmployee validates the form and builds the record to send.
func ParseEmployee(input EmployeeInput) (model.Employee, error) {
	input = input.trimmed()
	if result := check(input, employeeMessages); result.HasErrors() {
		return model.Employee{}, result
	}
	return model.Employee{Name: input.Name, Email: input.Email, Position: input.Position}, nil
}

type TaskInput struct {
	Title       string `form:"title" validate:"required"`
	Description string `form:"description"`
	Status      string `form:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate     string `form:"dueDate" validate:"required,datetime=2006-01-02"`
	EmployeeID  string `form:"employeeId" validate:"required,number"`
}

var taskMessages = messages{
	"title":      {"required": "Title is required"},
	"status":     {"oneof": "Status must be TODO, IN_PROGRESS or DONE"},
	"dueDate":    {"required": "Due date is required", "datetime": "Due date must be YYYY-MM-DD"},
	"employeeId": {"required": "Please select an employee", "number": "Please select an employee"},
}

// NewTaskInput is the blank task form.
func NewTaskInput() TaskInput {
	return TaskInput{Status: string(model.StatusTodo)}
}

// TaskInputFrom fills the form from an existing record.
func TaskInputFrom(task model.Task) TaskInput {
	input := TaskInput{
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		DueDate:     task.DueDate,
	}
	if input.Status == "" {
		input.Status = string(model.StatusTodo)
	}
	if task.EmployeeID != nil {
		input.EmployeeID = strconv.FormatInt(*task.EmployeeID, 10)
	}
	return input
}

// ParseTask validates the form and builds the record to send.
func ParseTask(input TaskInput) (model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Status = strings.ToUpper(strings.TrimSpace(input.Status))
	input.DueDate = strings.TrimSpace(input.DueDate)
	input.EmployeeID = strings.TrimSpace(input.EmployeeID)

	if result := check(input, taskMessages); result.HasErrors() {
		return model.Task{}, result
	}

	status, _ := model.ParseStatus(input.Status)
	employeeID, err := strconv.ParseInt(input.EmployeeID, 10, 64)
	if err != nil || employeeID <= 0 {
		result := &ValidationError{}
		result.Add("employeeId", "Please select an employee")
		return model.Task{}, result
	}

	return model.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate,
		EmployeeID:  &employeeID,
	}, nil
}
