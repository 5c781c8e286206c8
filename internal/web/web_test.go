package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/apiclient"
	"github.com/Joseda-hg/tasktracker/internal/gate"
	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/Joseda-hg/tasktracker/internal/session"
	"github.com/Joseda-hg/tasktracker/internal/stubapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	handler  http.Handler
	clients  *apiclient.Clients
	sessions *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stub := stubapi.New(stubapi.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, stub.AddUser("alice", "secret"))
	api := httptest.NewServer(stub)
	t.Cleanup(api.Close)

	sessions := session.NewStore(session.NewMemoryBackend(), logging.Discard())
	clients := apiclient.New(apiclient.Config{
		AuthURL:     api.URL + "/auth",
		EmployeeURL: api.URL + "/employees",
		TaskURL:     api.URL + "/tasks",
		HTTPClient:  api.Client(),
		Logger:      logging.Discard(),
	}, sessions)

	server := NewServer(clients, gate.New(sessions, logging.Discard()), logging.Discard())
	server.now = func() time.Time { return time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC) }
	return &fixture{handler: server.Handler(), clients: clients, sessions: sessions}
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (f *fixture) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	rec := f.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestProtectedPagesRedirectWithoutSession(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/", "/employees", "/employees/new", "/employees/edit/1", "/tasks", "/tasks/new", "/tasks/3"} {
		rec := f.get(target)
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/login", rec.Header().Get("Location"), target)
	}
}

func TestUnknownPathGoesToLogin(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	rec := f.get("/reports/2026")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginFailureShowsMessage(t *testing.T) {
	f := newFixture(t)

	rec := f.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed. Check credentials.")
	_, ok := f.sessions.Load(context.Background())
	assert.False(t, ok)

	rec = f.get("/employees")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.post("/login", url.Values{"username": {" "}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username is required")
	assert.Contains(t, rec.Body.String(), "Password is required")
}

func TestRegisterFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.post("/login", url.Values{"mode": {"register"}, "username": {"bob"}, "password": {"pw"}, "confirm": {"other"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")

	rec = f.post("/login", url.Values{"mode": {"register"}, "username": {"alice"}, "password": {"pw"}, "confirm": {"pw"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration failed. Username may be taken.")

	rec = f.post("/login", url.Values{"mode": {"register"}, "username": {"bob"}, "password": {"pw"}, "confirm": {"pw"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	cred, ok := f.sessions.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "bob", cred.Username)
}

func TestDashboardAfterLogin(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	rec := f.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Employees: <strong>0</strong>")
	assert.Contains(t, body, "Log out (alice)")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = f.get("/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"employees":0,"tasks":0,"todo":0,"inProgress":0,"done":0,"overdue":0}`, rec.Body.String())
}

func TestEmployeeLifecycle(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	rec := f.post("/employees", url.Values{"name": {"Ada"}, "email": {"not-an-email"}, "position": {"Engineer"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is not a valid address")

	rec = f.post("/employees", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "position": {"Engineer"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/employees", rec.Header().Get("Location"))
	rec = f.post("/employees", url.Values{"name": {"Grace"}, "email": {"grace@navy.mil"}, "position": {"Admiral"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	employees, err := f.clients.Employees.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 2)

	rec = f.get("/employees?q=navy")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grace")
	assert.NotContains(t, rec.Body.String(), "ada@example.com")

	ada := employees[0]
	if ada.Name != "Ada" {
		ada = employees[1]
	}
	editPath := "/employees/edit/" + itoa(ada.ID)
	rec = f.get(editPath)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="ada@example.com"`)

	rec = f.post(editPath, url.Values{"name": {"Ada Lovelace"}, "email": {"ada@example.com"}, "position": {"Engineer"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	updated, err := f.clients.Employees.GetByID(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)

	rec = f.post("/employees/delete/"+itoa(ada.ID), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/employees", rec.Header().Get("Location"))
	_, err = f.clients.Employees.GetByID(context.Background(), ada.ID)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
}

func TestEditMissingEmployee(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	rec := f.get("/employees/edit/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load employee")
}

func TestTaskListShowsLabelsAndOverdue(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	ctx := context.Background()

	employee, err := f.clients.Employees.Create(ctx, model.Employee{Name: "Ada", Email: "ada@example.com", Position: "Engineer"})
	require.NoError(t, err)

	rec := f.post("/tasks", url.Values{"title": {""}, "dueDate": {"15/04/2026"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Title is required")
	assert.Contains(t, body, "Due date must be YYYY-MM-DD")
	assert.Contains(t, body, "Please select an employee")

	rec = f.post("/tasks", url.Values{
		"title":      {"Write report"},
		"status":     {"IN_PROGRESS"},
		"dueDate":    {"2026-04-01"},
		"employeeId": {itoa(employee.ID)},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks", rec.Header().Get("Location"))

	rec = f.get("/tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Write report")
	assert.Contains(t, body, "In Progress")
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Apr 1, 2026")
	assert.Contains(t, body, `<span class="overdue">Overdue</span>`)

	tasks, err := f.clients.Tasks.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	rec = f.get("/tasks/" + itoa(tasks[0].ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="IN_PROGRESS" selected`)

	rec = f.post("/tasks/"+itoa(tasks[0].ID)+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	tasks, err = f.clients.Tasks.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskPickerFiltersEmployees(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	ctx := context.Background()

	_, err := f.clients.Employees.Create(ctx, model.Employee{Name: "Ada", Email: "ada@example.com", Position: "Engineer"})
	require.NoError(t, err)
	_, err = f.clients.Employees.Create(ctx, model.Employee{Name: "Grace", Email: "grace@navy.mil", Position: "Admiral"})
	require.NoError(t, err)

	rec := f.get("/tasks/new?employeeQuery=admiral")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grace (Admiral)")
	assert.NotContains(t, rec.Body.String(), "Ada (Engineer)")
}

func TestRejectedTokenSignsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, model.Credential{Token: "forged", Username: "alice"}))

	rec := f.get("/employees")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?expired=1", rec.Header().Get("Location"))
	_, ok := f.sessions.Load(ctx)
	assert.False(t, ok)

	rec = f.get("/login?expired=1")
	assert.Contains(t, rec.Body.String(), "Session expired. Please sign in again.")
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	rec := f.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = f.get("/tasks")
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLogoutByLink(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	rec := f.get("/logout")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, ok := f.sessions.Load(context.Background())
	assert.False(t, ok)
}

func TestParseID(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
