package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAuthURL        = "AUTH_API_URL"
	EnvEmployeeURL    = "EMPLOYEE_API_URL"
	EnvTaskURL        = "TASK_API_URL"
	EnvRequestTimeout = "REQUEST_TIMEOUT_SECONDS"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvSessionBackend = "SESSION_BACKEND"
)

// Error collects every configuration problem so they can be fixed in one pass.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// LoadDotEnv reads KEY=value pairs from the given files into the process
// environment. Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with values from the environment.
func ApplyEnv(cfg Config) (Config, error) {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	var problems []string

	str := func(key string, target *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}

	str(EnvAuthURL, &cfg.AuthURL)
	str(EnvEmployeeURL, &cfg.EmployeeURL)
	str(EnvTaskURL, &cfg.TaskURL)
	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvLogFormat, &cfg.LogFormat)
	str(EnvSessionBackend, &cfg.SessionBackend)

	if value, ok := lookup(EnvRequestTimeout); ok && strings.TrimSpace(value) != "" {
		seconds, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || seconds <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be a positive integer, got %q", EnvRequestTimeout, value))
		} else {
			cfg.RequestTimeoutSeconds = seconds
		}
	}

	for _, key := range []string{EnvAuthURL, EnvEmployeeURL, EnvTaskURL} {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			problems = append(problems, fmt.Sprintf("%s must be an http(s) URL, got %q", key, value))
		}
	}

	if len(problems) > 0 {
		return cfg, &Error{Problems: problems}
	}
	return cfg, nil
}
