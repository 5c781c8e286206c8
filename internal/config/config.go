package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	SessionBackendSQLite = "sqlite"
	SessionBackendFile   = "file"
)

type Config struct {
	DBPath         string `json:"db_path"`
	SessionBackend string `json:"session_backend"`
	SessionFile    string `json:"session_file"`
	WebEnabled     bool   `json:"web_enabled"`
	WebPort        int    `json:"web_port"`

	AuthURL     string `json:"auth_url"`
	EmployeeURL string `json:"employee_url"`
	TaskURL     string `json:"task_url"`

	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogPath   string `json:"log_path"`
}

func Default() Config {
	return Config{
		SessionBackend:        SessionBackendSQLite,
		WebPort:               8080,
		AuthURL:               "http://localhost:8081/auth",
		EmployeeURL:           "http://localhost:8082/employees",
		TaskURL:               "http://localhost:8083/tasks",
		RequestTimeoutSeconds: 10,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tasktracker", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks the values the clients cannot run without.
func (c Config) Validate() error {
	var problems []string
	if c.AuthURL == "" {
		problems = append(problems, "auth_url is required")
	}
	if c.EmployeeURL == "" {
		problems = append(problems, "employee_url is required")
	}
	if c.TaskURL == "" {
		problems = append(problems, "task_url is required")
	}
	switch c.SessionBackend {
	case SessionBackendSQLite, SessionBackendFile:
	default:
		problems = append(problems, fmt.Sprintf("session_backend %q is not one of sqlite, file", c.SessionBackend))
	}
	if len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}
