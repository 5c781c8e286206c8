// Package stubapi is an in-memory stand-in for the auth, employee and task
// services. cmd/stubapi serves it for local development and the client tests
// run against it through httptest.
package stubapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
)

type Options struct {
	// Secret signs issued tokens. A fixed development secret is used when empty.
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
	Logger     *slog.Logger
}

type Server struct {
	echo   *echo.Echo
	logger *slog.Logger
	tokens *tokenIssuer
	cost   int

	mu             sync.Mutex
	users          map[string][]byte
	employees      map[int64]model.Employee
	tasks          map[int64]model.Task
	nextEmployeeID int64
	nextTaskID     int64
}

func New(opts Options) *Server {
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("tasktracker-development-secret")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		echo:      echo.New(),
		logger:    logger,
		tokens:    &tokenIssuer{secret: opts.Secret, ttl: opts.TokenTTL},
		cost:      opts.BcryptCost,
		users:     make(map[string][]byte),
		employees: make(map[int64]model.Employee),
		tasks:     make(map[int64]model.Task),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("stub request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	auth := e.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/register", s.register)

	employees := e.Group("/employees", s.requireToken)
	employees.GET("", s.listEmployees)
	employees.POST("", s.createEmployee)
	employees.GET("/:id", s.getEmployee)
	employees.PUT("/:id", s.updateEmployee)
	employees.DELETE("/:id", s.deleteEmployee)

	tasks := e.Group("/tasks", s.requireToken)
	tasks.GET("", s.listTasks)
	tasks.POST("", s.createTask)
	tasks.GET("/:id", s.getTask)
	tasks.PUT("/:id", s.updateTask)
	tasks.DELETE("/:id", s.deleteTask)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// AddUser registers a user directly, bypassing the HTTP API.
func (s *Server) AddUser(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = hash
	return nil
}
