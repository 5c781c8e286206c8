package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"golang.org/x/oauth2"
)

type AuthClient struct {
	t        *transport
	baseURL  string
	sessions CredentialStore
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges username and password for a token and stores the credential.
// Every failure is reported as ErrAuthentication and leaves the session untouched.
func (a *AuthClient) Login(ctx context.Context, username, password string) (model.Credential, error) {
	var cred model.Credential
	_, err := a.t.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		url:    a.baseURL + "/login",
		in:     credentialsRequest{Username: username, Password: password},
		out:    &cred,
	})
	logger := logging.Component(ctx, a.t.logger, "auth", "login", "username", username)
	if err != nil {
		logger.Info("login rejected", "error_kind", ErrorKind(err))
		return model.Credential{}, ErrAuthentication
	}
	if strings.TrimSpace(cred.Token) == "" {
		logger.Info("login response carried no token")
		return model.Credential{}, ErrAuthentication
	}
	if cred.Username == "" {
		cred.Username = username
	}

	if err := a.sessions.Save(ctx, cred); err != nil {
		return model.Credential{}, fmt.Errorf("login: %w", err)
	}
	logger.Info("logged in")
	return cred, nil
}

// Register creates an account. It does not sign in.
func (a *AuthClient) Register(ctx context.Context, username, password string) error {
	_, err := a.t.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		url:    a.baseURL + "/register",
		in:     credentialsRequest{Username: username, Password: password},
	})
	if err != nil {
		logging.Component(ctx, a.t.logger, "auth", "register", "username", username).
			Info("registration rejected", "error_kind", ErrorKind(err))
		return ErrRegistration
	}
	return nil
}

// RegisterAndLogin registers and then signs in with the same credentials.
// A failed sign-in after a successful registration is a *RegisteredLoginError.
func (a *AuthClient) RegisterAndLogin(ctx context.Context, username, password string) (model.Credential, error) {
	if err := a.Register(ctx, username, password); err != nil {
		return model.Credential{}, err
	}
	cred, err := a.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			return model.Credential{}, &RegisteredLoginError{Username: username, Err: err}
		}
		return model.Credential{}, err
	}
	return cred, nil
}

// errSignedOut is returned by the session token source when no credential is
// stored. It never leaves the package.
var errSignedOut = errors.New("no stored credential")

type sessionTokenSource struct {
	ctx      context.Context
	sessions CredentialStore
}

// Token reads the stored credential on every call, so a logout or a new login
// takes effect on the next request.
func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	cred, ok := s.sessions.Load(s.ctx)
	if !ok {
		return nil, errSignedOut
	}
	token := &oauth2.Token{AccessToken: strings.TrimSpace(cred.Token), TokenType: "Bearer"}
	if !token.Valid() {
		return nil, errSignedOut
	}
	return token, nil
}

// TokenSource exposes the stored credential as an oauth2.TokenSource. It is
// not cached.
func (a *AuthClient) TokenSource(ctx context.Context) oauth2.TokenSource {
	return sessionTokenSource{ctx: ctx, sessions: a.sessions}
}

// AuthHeader returns the Authorization header for the stored credential, read
// fresh on every call. It is empty when nobody is signed in.
func (a *AuthClient) AuthHeader(ctx context.Context) http.Header {
	req := &http.Request{Header: http.Header{}}
	token, err := a.TokenSource(ctx).Token()
	if err != nil {
		return req.Header
	}
	token.SetAuthHeader(req)
	return req.Header
}

// CurrentUser reports the stored credential, if any.
func (a *AuthClient) CurrentUser(ctx context.Context) (model.Credential, bool) {
	return a.sessions.Load(ctx)
}

func (a *AuthClient) Logout(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}
