// Package apiclient talks to the remote auth, employee and task services.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CredentialStore is the part of the session store the clients need.
type CredentialStore interface {
	Save(ctx context.Context, cred model.Credential) error
	Load(ctx context.Context) (model.Credential, bool)
	Clear(ctx context.Context) error
}

type Config struct {
	AuthURL     string
	EmployeeURL string
	TaskURL     string
	Timeout     time.Duration
	HTTPClient  Doer
	Logger      *slog.Logger
}

type Clients struct {
	Auth      *AuthClient
	Employees *EmployeeClient
	Tasks     *TaskClient
}

func New(cfg Config, sessions CredentialStore) *Clients {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	t := &transport{http: httpClient, logger: cfg.Logger}

	auth := &AuthClient{t: t, baseURL: strings.TrimRight(cfg.AuthURL, "/"), sessions: sessions}
	return &Clients{
		Auth:      auth,
		Employees: newResource[model.Employee](t, "employee", cfg.EmployeeURL, auth),
		Tasks:     newResource[model.Task](t, "task", cfg.TaskURL, auth),
	}
}

type transport struct {
	http   Doer
	logger *slog.Logger
}

type call struct {
	op     string
	method string
	url    string
	header http.Header
	in     any
	out    any
}

// do sends c and decodes a 2xx JSON body into c.out. Non-2xx responses come back
// as *RequestError with the kind derived from the status code.
func (t *transport) do(ctx context.Context, c call) (int, error) {
	requestID := uuid.NewString()
	logger := logging.Component(ctx, t.logger, "apiclient", c.op, "method", c.method, "url", c.url, "request_id", requestID)
	fail := func(status int, kind, err error) (int, error) {
		reqErr := &RequestError{Op: c.op, Method: c.method, URL: c.url, Status: status, Kind: kind, Err: err}
		logger.Warn("request failed", "status", status, "error_kind", ErrorKind(reqErr), "error", err)
		return status, reqErr
	}

	var body io.Reader
	if c.in != nil {
		payload, err := json.Marshal(c.in)
		if err != nil {
			return fail(0, ErrTransport, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, c.url, body)
	if err != nil {
		return fail(0, ErrTransport, fmt.Errorf("build request: %w", err))
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	res, err := t.http.Do(req)
	if err != nil {
		return fail(0, ErrTransport, err)
	}
	defer res.Body.Close()

	if err := googleapi.CheckResponse(res); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return fail(apiErr.Code, kindForStatus(apiErr.Code), apiErr)
		}
		return fail(res.StatusCode, kindForStatus(res.StatusCode), err)
	}

	logger.Debug("request complete", "status", res.StatusCode, "duration", time.Since(started))

	if c.out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.StatusCode, nil
	}
	if err := json.NewDecoder(res.Body).Decode(c.out); err != nil {
		return fail(res.StatusCode, ErrTransport, fmt.Errorf("decode response: %w", err))
	}
	return res.StatusCode, nil
}
