package tui

import (
	"strconv"
	"strings"

	"github.com/Joseda-hg/tasktracker/internal/forms"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/Joseda-hg/tasktracker/internal/views"
	"github.com/jesseduffield/gocui"
)

type formField struct {
	Label  string
	Key    string
	Value  string
	Masked bool
}

type formKind int

const (
	formLogin formKind = iota
	formEmployee
	formTask
)

type formState struct {
	kind        formKind
	id          int64
	fields      []formField
	index       int
	registering bool
	pick        int
	errors      map[string]string
	message     string
	submitting  bool
}

const (
	fieldUsername = iota
	fieldPassword
	fieldConfirm
)

const (
	fieldName = iota
	fieldEmail
	fieldPosition
)

const (
	fieldTitle = iota
	fieldDescription
	fieldStatus
	fieldDue
	fieldEmployee
)

func newLoginForm(registering bool) *formState {
	fields := []formField{
		{Label: "Username", Key: "username"},
		{Label: "Password", Key: "password", Masked: true},
	}
	if registering {
		fields = append(fields, formField{Label: "Confirm password", Key: "confirm", Masked: true})
	}
	return &formState{kind: formLogin, fields: fields, registering: registering}
}

// toggleRegistering switches between sign in and register, keeping what was typed.
func (f *formState) toggleRegistering() {
	username := f.fields[fieldUsername].Value
	password := f.fields[fieldPassword].Value
	next := newLoginForm(!f.registering)
	next.fields[fieldUsername].Value = username
	next.fields[fieldPassword].Value = password
	*f = *next
}

func (f *formState) loginInput() forms.LoginInput {
	input := forms.LoginInput{
		Username:    f.fields[fieldUsername].Value,
		Password:    f.fields[fieldPassword].Value,
		Registering: f.registering,
	}
	if f.registering {
		input.Confirm = f.fields[fieldConfirm].Value
	}
	return input
}

func newEmployeeForm(employee *model.Employee) *formState {
	var input forms.EmployeeInput
	state := &formState{kind: formEmployee}
	if employee != nil {
		input = forms.EmployeeInputFrom(*employee)
		state.id = employee.ID
	}
	state.fields = []formField{
		{Label: "Name", Key: "name", Value: input.Name},
		{Label: "Email", Key: "email", Value: input.Email},
		{Label: "Position", Key: "position", Value: input.Position},
	}
	return state
}

func (f *formState) employeeInput() forms.EmployeeInput {
	return forms.EmployeeInput{
		Name:     f.fields[fieldName].Value,
		Email:    f.fields[fieldEmail].Value,
		Position: f.fields[fieldPosition].Value,
	}
}

// newTaskForm builds the task editor. The employee field holds the picker
// query; pick indexes the matching employees.
func newTaskForm(task *model.Task, employees []model.Employee) *formState {
	input := forms.NewTaskInput()
	state := &formState{kind: formTask}
	if task != nil {
		input = forms.TaskInputFrom(*task)
		state.id = task.ID
		state.pick = -1
		for i, employee := range employees {
			if task.EmployeeID != nil && employee.ID == *task.EmployeeID {
				state.pick = i
				break
			}
		}
	}
	state.fields = []formField{
		{Label: "Title", Key: "title", Value: input.Title},
		{Label: "Description", Key: "description", Value: input.Description},
		{Label: "Status (space/←→)", Key: "status", Value: input.Status},
		{Label: "Due (YYYY-MM-DD)", Key: "dueDate", Value: input.DueDate},
		{Label: "Employee (type to search, ←→ pick)", Key: "employeeId"},
	}
	return state
}

func (f *formState) candidates(employees []model.Employee) []model.Employee {
	return views.PickEmployees(employees, f.fields[fieldEmployee].Value)
}

func (f *formState) picked(employees []model.Employee) *model.Employee {
	candidates := f.candidates(employees)
	if f.pick < 0 || f.pick >= len(candidates) {
		return nil
	}
	return &candidates[f.pick]
}

func (f *formState) taskInput(employees []model.Employee) forms.TaskInput {
	input := forms.TaskInput{
		Title:       f.fields[fieldTitle].Value,
		Description: f.fields[fieldDescription].Value,
		Status:      f.fields[fieldStatus].Value,
		DueDate:     f.fields[fieldDue].Value,
	}
	if employee := f.picked(employees); employee != nil {
		input.EmployeeID = strconv.FormatInt(employee.ID, 10)
	}
	return input
}

func (f *formState) isStatusField() bool {
	return f.kind == formTask && f.index == fieldStatus
}

func (f *formState) isPickerField() bool {
	return f.kind == formTask && f.index == fieldEmployee
}

func cycleStatus(current string, delta int) string {
	index := 0
	for i, status := range model.Statuses {
		if string(status) == strings.ToUpper(current) {
			index = i
			break
		}
	}
	count := len(model.Statuses)
	return string(model.Statuses[(index+delta+count)%count])
}

type formEditor struct {
	ui *UI
}

func (e *formEditor) Edit(_ *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || ui.form.submitting {
		return false
	}
	form := ui.form
	field := &form.fields[form.index]

	if form.isStatusField() {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleStatus(field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleStatus(field.Value, -1)
		}
		return true
	}

	if form.isPickerField() {
		switch key {
		case gocui.KeyArrowRight:
			form.pick = min(form.pick+1, len(form.candidates(ui.employees))-1)
			return true
		case gocui.KeyArrowLeft:
			form.pick = max(form.pick-1, 0)
			return true
		}
	}

	before := field.Value
	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	if form.isPickerField() && field.Value != before {
		form.pick = 0
	}
	return true
}
