package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/apiclient"
	"github.com/Joseda-hg/tasktracker/internal/forms"
	"github.com/Joseda-hg/tasktracker/internal/gate"
	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/Joseda-hg/tasktracker/internal/views"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"statusLabel": func(s model.TaskStatus) string { return s.Label() },
}

func page(name string) *template.Template {
	return template.Must(template.New("layout.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/layout.tmpl", "templates/"+name))
}

var (
	loginTemplate        = page("login.tmpl")
	dashboardTemplate    = page("dashboard.tmpl")
	employeesTemplate    = page("employees.tmpl")
	employeeFormTemplate = page("employee_form.tmpl")
	tasksTemplate        = page("tasks.tmpl")
	taskFormTemplate     = page("task_form.tmpl")
)

type Server struct {
	clients *apiclient.Clients
	gate    *gate.Gate
	logger  *slog.Logger
	now     func() time.Time
}

func NewServer(clients *apiclient.Clients, g *gate.Gate, logger *slog.Logger) *Server {
	return &Server{clients: clients, gate: g, logger: logger, now: time.Now}
}

func (s *Server) Handler() http.Handler {
	protect := func(h http.HandlerFunc) http.Handler { return s.gate.Protect(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", s.loginPageHandler)
	mux.HandleFunc("POST /login", s.loginHandler)
	mux.HandleFunc("POST /logout", s.logoutHandler)
	mux.HandleFunc("GET /logout", s.logoutHandler)

	mux.Handle("GET /{$}", protect(s.dashboardHandler))
	mux.Handle("GET /api/dashboard", protect(s.apiDashboardHandler))

	mux.Handle("GET /employees", protect(s.employeesHandler))
	mux.Handle("GET /employees/new", protect(s.employeeNewHandler))
	mux.Handle("POST /employees", protect(s.employeeCreateHandler))
	mux.Handle("GET /employees/edit/{id}", protect(s.employeeEditHandler))
	mux.Handle("POST /employees/edit/{id}", protect(s.employeeUpdateHandler))
	mux.Handle("POST /employees/delete/{id}", protect(s.employeeDeleteHandler))

	mux.Handle("GET /tasks", protect(s.tasksHandler))
	mux.Handle("GET /tasks/new", protect(s.taskNewHandler))
	mux.Handle("POST /tasks", protect(s.taskCreateHandler))
	mux.Handle("GET /tasks/{id}", protect(s.taskEditHandler))
	mux.Handle("POST /tasks/{id}", protect(s.taskUpdateHandler))
	mux.Handle("POST /tasks/{id}/delete", protect(s.taskDeleteHandler))

	// Anything else goes back to the login page.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
	})
	return s.logRequests(mux)
}

type pageData struct {
	Title    string
	Username string
	Error    string
	Notice   string
}

func (s *Server) base(ctx context.Context, title string) pageData {
	data := pageData{Title: title}
	if cred, ok := s.clients.Auth.CurrentUser(ctx); ok {
		data.Username = cred.Username
	}
	return data
}

// sessionLost signs out and sends the browser to login when the services
// reject the stored token. It reports whether it handled the response.
func (s *Server) sessionLost(w http.ResponseWriter, r *http.Request, err error) bool {
	if !views.SessionLost(err) {
		return false
	}
	if logoutErr := s.clients.Auth.Logout(r.Context()); logoutErr != nil {
		s.log(r.Context(), "session").Error("logout after rejected token", "error", logoutErr)
	}
	http.Redirect(w, r, gate.LoginPath+"?expired=1", http.StatusSeeOther)
	return true
}

func (s *Server) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("render template", "template", tmpl.Name(), "error", err)
	}
}

func (s *Server) log(ctx context.Context, operation string) *slog.Logger {
	return logging.Component(ctx, s.logger, "web", operation)
}

type loginData struct {
	pageData
	Entered     string
	Registering bool
	Fields      map[string]string
}

func (s *Server) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	data := loginData{pageData: pageData{Title: "Sign in"}, Registering: r.URL.Query().Get("mode") == "register"}
	if r.URL.Query().Get("expired") != "" {
		data.Error = views.MsgSessionExpired
	}
	s.render(w, http.StatusOK, loginTemplate, data)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	input := forms.LoginInput{
		Username:    r.PostFormValue("username"),
		Password:    r.PostFormValue("password"),
		Confirm:     r.PostFormValue("confirm"),
		Registering: r.PostFormValue("mode") == "register",
	}
	data := loginData{pageData: pageData{Title: "Sign in"}, Entered: input.Username, Registering: input.Registering}

	if err := forms.CheckLogin(input); err != nil {
		data.Fields = forms.FieldErrors(err)
		s.render(w, http.StatusUnprocessableEntity, loginTemplate, data)
		return
	}

	var err error
	if input.Registering {
		_, err = s.clients.Auth.RegisterAndLogin(r.Context(), strings.TrimSpace(input.Username), input.Password)
	} else {
		_, err = s.clients.Auth.Login(r.Context(), strings.TrimSpace(input.Username), input.Password)
	}
	if err != nil {
		data.Error = views.LoginMessage(err, input.Registering)
		var registered *apiclient.RegisteredLoginError
		if errors.As(err, &registered) {
			data.Registering = false
		}
		s.render(w, http.StatusUnauthorized, loginTemplate, data)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.clients.Auth.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
}

type dashboardData struct {
	pageData
	Stats views.Stats
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{pageData: s.base(r.Context(), "Dashboard")}
	dash, err := views.LoadDashboard(r.Context(), s.clients.Employees, s.clients.Tasks, s.now())
	if err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgDashboardFailed
		s.render(w, http.StatusBadGateway, dashboardTemplate, data)
		return
	}
	data.Stats = dash.Stats
	s.render(w, http.StatusOK, dashboardTemplate, data)
}

func (s *Server) apiDashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := views.LoadDashboard(r.Context(), s.clients.Employees, s.clients.Tasks, s.now())
	if err != nil {
		status := http.StatusBadGateway
		if views.SessionLost(err) {
			status = http.StatusUnauthorized
		}
		writeError(w, status, errors.New(views.MsgDashboardFailed))
		return
	}
	writeJSON(w, dash.Stats)
}

type employeesData struct {
	pageData
	Query     string
	Employees []model.Employee
}

func (s *Server) employeesHandler(w http.ResponseWriter, r *http.Request) {
	data := employeesData{pageData: s.base(r.Context(), "Employees"), Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if r.URL.Query().Get("error") == "delete" {
		data.Error = views.MsgEmployeeDelFailed
	}

	employees, err := s.clients.Employees.ListAll(r.Context())
	if err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgEmployeesFailed
		s.render(w, http.StatusBadGateway, employeesTemplate, data)
		return
	}
	data.Employees = views.SearchEmployees(employees, data.Query)
	s.render(w, http.StatusOK, employeesTemplate, data)
}

type employeeFormData struct {
	pageData
	ID     int64
	Input  forms.EmployeeInput
	Fields map[string]string
}

func (s *Server) employeeNewHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, employeeFormTemplate, employeeFormData{pageData: s.base(r.Context(), "New employee")})
}

func (s *Server) employeeEditHandler(w http.ResponseWriter, r *http.Request) {
	data := employeeFormData{pageData: s.base(r.Context(), "Edit employee")}
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	employee, err := s.clients.Employees.GetByID(r.Context(), id)
	if err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgEmployeeFailed
		s.render(w, statusFor(err), employeeFormTemplate, data)
		return
	}
	data.ID = employee.ID
	data.Input = forms.EmployeeInputFrom(employee)
	s.render(w, http.StatusOK, employeeFormTemplate, data)
}

func employeeInputFromRequest(r *http.Request) forms.EmployeeInput {
	return forms.EmployeeInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Position: r.PostFormValue("position"),
	}
}

func (s *Server) employeeCreateHandler(w http.ResponseWriter, r *http.Request) {
	s.saveEmployee(w, r, 0)
}

func (s *Server) employeeUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.saveEmployee(w, r, id)
}

func (s *Server) saveEmployee(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	title := "New employee"
	if id != 0 {
		title = "Edit employee"
	}
	data := employeeFormData{pageData: s.base(r.Context(), title), ID: id, Input: employeeInputFromRequest(r)}

	employee, err := forms.ParseEmployee(data.Input)
	if err != nil {
		data.Fields = forms.FieldErrors(err)
		s.render(w, http.StatusUnprocessableEntity, employeeFormTemplate, data)
		return
	}

	if id == 0 {
		_, err = s.clients.Employees.Create(r.Context(), employee)
	} else {
		employee.ID = id
		_, err = s.clients.Employees.Update(r.Context(), id, employee)
	}
	if err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgEmployeeSaveFailed
		s.render(w, statusFor(err), employeeFormTemplate, data)
		return
	}
	http.Redirect(w, r, "/employees", http.StatusSeeOther)
}

func (s *Server) employeeDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := s.clients.Employees.Remove(r.Context(), id); err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		http.Redirect(w, r, "/employees?error=delete", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/employees", http.StatusSeeOther)
}

type taskRow struct {
	Task     model.Task
	Employee string
	Due      string
	Overdue  bool
}

type tasksData struct {
	pageData
	Stats views.Stats
	Rows  []taskRow
}

func (s *Server) tasksHandler(w http.ResponseWriter, r *http.Request) {
	data := tasksData{pageData: s.base(r.Context(), "Tasks")}
	if r.URL.Query().Get("error") == "delete" {
		data.Error = views.MsgTaskDelFailed
	}

	dash, err := views.LoadDashboard(r.Context(), s.clients.Employees, s.clients.Tasks, s.now())
	if err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgTasksFailed
		s.render(w, http.StatusBadGateway, tasksTemplate, data)
		return
	}
	data.Stats = dash.Stats
	data.Rows = buildTaskRows(dash.Tasks, dash.Employees, s.now())
	s.render(w, http.StatusOK, tasksTemplate, data)
}

func buildTaskRows(tasks []model.Task, employees []model.Employee, now time.Time) []taskRow {
	rows := make([]taskRow, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, taskRow{
			Task:     task,
			Employee: views.EmployeeName(employees, task.EmployeeID),
			Due:      views.FormatDue(task),
			Overdue:  task.Overdue(now),
		})
	}
	return rows
}

type taskFormData struct {
	pageData
	ID            int64
	Input         forms.TaskInput
	Fields        map[string]string
	Statuses      []model.TaskStatus
	Employees     []model.Employee
	EmployeeQuery string
}

func (s *Server) taskForm(r *http.Request, title string) taskFormData {
	return taskFormData{
		pageData:      s.base(r.Context(), title),
		Statuses:      model.Statuses,
		EmployeeQuery: strings.TrimSpace(r.FormValue("employeeQuery")),
	}
}

// loadPicker fills the employee picker. A failure leaves it empty and is
// reported by the caller.
func (s *Server) loadPicker(ctx context.Context, data *taskFormData) error {
	employees, err := s.clients.Employees.ListAll(ctx)
	if err != nil {
		return err
	}
	data.Employees = views.PickEmployees(employees, data.EmployeeQuery)
	return nil
}

func (s *Server) taskNewHandler(w http.ResponseWriter, r *http.Request) {
	data := s.taskForm(r, "New task")
	data.Input = forms.NewTaskInput()
	if err := s.loadPicker(r.Context(), &data); err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgEmployeesFailed
	}
	s.render(w, http.StatusOK, taskFormTemplate, data)
}

func (s *Server) taskEditHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	data := s.taskForm(r, "Edit task")
	task, err := s.clients.Tasks.GetByID(r.Context(), id)
	if err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgTaskFailed
		s.render(w, statusFor(err), taskFormTemplate, data)
		return
	}
	data.ID = task.ID
	data.Input = forms.TaskInputFrom(task)
	if err := s.loadPicker(r.Context(), &data); err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgEmployeesFailed
	}
	s.render(w, http.StatusOK, taskFormTemplate, data)
}

func taskInputFromRequest(r *http.Request) forms.TaskInput {
	return forms.TaskInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Status:      r.PostFormValue("status"),
		DueDate:     r.PostFormValue("dueDate"),
		EmployeeID:  r.PostFormValue("employeeId"),
	}
}

func (s *Server) taskCreateHandler(w http.ResponseWriter, r *http.Request) {
	s.saveTask(w, r, 0)
}

func (s *Server) taskUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.saveTask(w, r, id)
}

func (s *Server) saveTask(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	title := "New task"
	if id != 0 {
		title = "Edit task"
	}
	data := s.taskForm(r, title)
	data.ID = id
	data.Input = taskInputFromRequest(r)

	task, err := forms.ParseTask(data.Input)
	if err != nil {
		data.Fields = forms.FieldErrors(err)
		if pickErr := s.loadPicker(r.Context(), &data); pickErr != nil && s.sessionLost(w, r, pickErr) {
			return
		}
		s.render(w, http.StatusUnprocessableEntity, taskFormTemplate, data)
		return
	}

	if id == 0 {
		_, err = s.clients.Tasks.Create(r.Context(), task)
	} else {
		task.ID = id
		_, err = s.clients.Tasks.Update(r.Context(), id, task)
	}
	if err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		data.Error = views.MsgTaskSaveFailed
		_ = s.loadPicker(r.Context(), &data)
		s.render(w, statusFor(err), taskFormTemplate, data)
		return
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (s *Server) taskDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := s.clients.Tasks.Remove(r.Context(), id); err != nil {
		if s.sessionLost(w, r, err) {
			return
		}
		http.Redirect(w, r, "/tasks?error=delete", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func statusFor(err error) int {
	if errors.Is(err, apiclient.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := logging.ContextWithLogger(r.Context(), s.logger.With("method", r.Method, "path", r.URL.Path))
		next.ServeHTTP(rec, r.WithContext(ctx))
		s.logger.Debug("web request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(started))
	})
}

func parseID(value string) (int64, error) {
	value = strings.Trim(value, "/")
	if value == "" {
		return 0, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
