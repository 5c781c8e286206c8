package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by this package matches exactly one of
// them through errors.Is.
var (
	ErrTransport      = errors.New("transport error")
	ErrAuthentication = errors.New("invalid credentials or server error")
	ErrRegistration   = errors.New("registration failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
)

// RequestError describes a failed call to one of the remote services.
type RequestError struct {
	Op     string
	Method string
	URL    string
	Status int
	Kind   error
	Err    error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RegisteredLoginError reports that an account was created but the sign-in
// that followed it failed.
type RegisteredLoginError struct {
	Username string
	Err      error
}

func (e *RegisteredLoginError) Error() string {
	return fmt.Sprintf("account %q created but sign-in failed: %v", e.Username, e.Err)
}

func (e *RegisteredLoginError) Unwrap() error {
	return e.Err
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuthorization
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransport
	}
}

// ErrorKind maps an error to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrRegistration):
		return "registration"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}

	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return "internal"
}
