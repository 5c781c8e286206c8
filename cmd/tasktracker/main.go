package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/apiclient"
	"github.com/Joseda-hg/tasktracker/internal/config"
	"github.com/Joseda-hg/tasktracker/internal/db"
	"github.com/Joseda-hg/tasktracker/internal/gate"
	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/session"
	"github.com/Joseda-hg/tasktracker/internal/tui"
	"github.com/Joseda-hg/tasktracker/internal/web"
	gfshutdown "github.com/gelmium/graceful-shutdown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path for the session store")
	envFileFlag := flag.String("env", ".env", "dotenv file with service URLs")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	flag.Parse()

	if err := config.LoadDotEnv(*envFileFlag); err != nil {
		log.Fatal(err)
	}

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	configDir := filepath.Dir(cfgPath)
	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(configDir, "tasktracker.db")
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = filepath.Join(configDir, "session.json")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(configDir, "tasktracker.log")
	}
	if *webFlag || *webOnlyFlag {
		cfg.WebEnabled = true
	}
	if *portFlag != 0 {
		cfg.WebPort = *portFlag
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		log.Fatal(err)
	}

	// Environment overrides apply to this run only and are not written back.
	cfg, err = config.ApplyEnv(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// The terminal UI owns stdout, so logs go to a file unless only the web
	// server runs.
	logOut, closeLog, err := openLog(cfg.LogPath, *webOnlyFlag)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		log.Fatal(err)
	}

	sessions, closeSessions, err := openSessions(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer closeSessions()

	clients := apiclient.New(apiclient.Config{
		AuthURL:     cfg.AuthURL,
		EmployeeURL: cfg.EmployeeURL,
		TaskURL:     cfg.TaskURL,
		Timeout:     cfg.RequestTimeout(),
		Logger:      logger,
	}, sessions)
	routeGate := gate.New(sessions, logger)

	var server *http.Server
	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		server = &http.Server{
			Addr:              addr,
			Handler:           web.NewServer(clients, routeGate, logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("web server running", "url", "http://localhost"+addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("web server error", "error", err)
			}
		}()
	}

	if *webOnlyFlag {
		wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, map[string]gfshutdown.Operation{
			"web": func(ctx context.Context) error {
				logger.Info("shutting down web server")
				return server.Shutdown(ctx)
			},
			"sessions": func(context.Context) error {
				return closeSessions()
			},
		})
		exitCode := <-wait
		logger.Info("exited", "code", exitCode)
		os.Exit(exitCode)
	}

	runErr := tui.Run(context.Background(), tui.Deps{
		Clients:  clients,
		Sessions: sessions,
		Gate:     routeGate,
		Logger:   logger,
	})

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("web server shutdown", "error", err)
		}
		cancel()
	}

	if runErr != nil {
		logger.Error("terminal ui stopped", "error", runErr)
		fmt.Fprintln(os.Stderr, runErr)
		closeSessions()
		closeLog()
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openLog(path string, toStderr bool) (io.Writer, func() error, error) {
	if toStderr {
		return os.Stderr, func() error { return nil }, nil
	}
	if err := config.EnsureDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

// openSessions builds the credential store on the configured backend. The
// returned close func is safe to call more than once.
func openSessions(cfg config.Config, logger *slog.Logger) (*session.Store, func() error, error) {
	if cfg.SessionBackend == config.SessionBackendFile {
		return session.NewStore(session.NewFileBackend(cfg.SessionFile), logger), func() error { return nil }, nil
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closed := false
	closeStore := func() error {
		if closed {
			return nil
		}
		closed = true
		return store.Close()
	}
	return session.NewStore(session.NewSQLiteBackend(store), logger), closeStore, nil
}

func openStore(dbPath string) (*db.Store, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return db.NewStore(sqlDB), nil
}
