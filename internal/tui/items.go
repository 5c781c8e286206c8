package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/Joseda-hg/tasktracker/internal/views"
)

func formatEmployeeSummary(employee model.Employee) string {
	return fmt.Sprintf("%s | %s | %s", employee.Name, employee.Email, employee.Position)
}

func formatTaskSummary(task model.Task, employees []model.Employee, now time.Time) string {
	summary := fmt.Sprintf("%s | %s | %s | %s", task.Title, task.Status.Label(), views.EmployeeName(employees, task.EmployeeID), views.FormatDue(task))
	if task.Overdue(now) {
		summary += " | OVERDUE"
	}
	return summary
}

func formatStats(stats views.Stats) string {
	lines := []string{
		fmt.Sprintf("Employees    %d", stats.Employees),
		fmt.Sprintf("Tasks        %d", stats.Tasks),
		"",
		fmt.Sprintf("To Do        %d", stats.Todo),
		fmt.Sprintf("In Progress  %d", stats.InProgress),
		fmt.Sprintf("Done         %d", stats.Done),
		fmt.Sprintf("Overdue      %d", stats.Overdue),
	}
	return strings.Join(lines, "\n")
}

func formatPick(employee model.Employee) string {
	return fmt.Sprintf("%s (%s)", employee.Name, employee.Position)
}
