package stubapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/labstack/echo/v4"
)

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func notFound(c echo.Context, what string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
}

func (s *Server) listEmployees(c echo.Context) error {
	s.mu.Lock()
	result := make([]model.Employee, 0, len(s.employees))
	for _, employee := range s.employees {
		result = append(result, employee)
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getEmployee(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c, "employee")
	}
	s.mu.Lock()
	employee, exists := s.employees[id]
	s.mu.Unlock()
	if !exists {
		return notFound(c, "employee")
	}
	return c.JSON(http.StatusOK, employee)
}

func (s *Server) createEmployee(c echo.Context) error {
	var employee model.Employee
	if err := c.Bind(&employee); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	s.mu.Lock()
	s.nextEmployeeID++
	employee.ID = s.nextEmployeeID
	s.employees[employee.ID] = employee
	s.mu.Unlock()

	return c.JSON(http.StatusOK, employee)
}

func (s *Server) updateEmployee(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c, "employee")
	}
	var employee model.Employee
	if err := c.Bind(&employee); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.employees[id]; !exists {
		return notFound(c, "employee")
	}
	employee.ID = id
	s.employees[id] = employee
	return c.JSON(http.StatusOK, employee)
}

func (s *Server) deleteEmployee(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c, "employee")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.employees[id]; !exists {
		return notFound(c, "employee")
	}
	delete(s.employees, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listTasks(c echo.Context) error {
	s.mu.Lock()
	result := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		result = append(result, task)
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getTask(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c, "task")
	}
	s.mu.Lock()
	task, exists := s.tasks[id]
	s.mu.Unlock()
	if !exists {
		return notFound(c, "task")
	}
	return c.JSON(http.StatusOK, task)
}

// bindTask decodes the body; a non-empty problem is the 400 message.
func bindTask(c echo.Context) (model.Task, string) {
	var task model.Task
	if err := c.Bind(&task); err != nil {
		return model.Task{}, "invalid request body"
	}
	status, ok := model.ParseStatus(string(task.Status))
	if !ok {
		return model.Task{}, "invalid status"
	}
	task.Status = status
	return task, ""
}

func (s *Server) createTask(c echo.Context) error {
	task, problem := bindTask(c)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}

	s.mu.Lock()
	s.nextTaskID++
	task.ID = s.nextTaskID
	s.tasks[task.ID] = task
	s.mu.Unlock()

	return c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c, "task")
	}
	task, problem := bindTask(c)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[id]; !exists {
		return notFound(c, "task")
	}
	task.ID = id
	s.tasks[id] = task
	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c, "task")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[id]; !exists {
		return notFound(c, "task")
	}
	delete(s.tasks, id)
	return c.NoContent(http.StatusNoContent)
}
