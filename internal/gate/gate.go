// Package gate decides whether a protected view may be shown, based only on
// whether a credential is stored locally.
package gate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
)

const LoginPath = "/login"

// CredentialLoader is the read side of the session store.
type CredentialLoader interface {
	Load(ctx context.Context) (model.Credential, bool)
}

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Decision is the outcome for one navigation. When Allow is false the caller
// must go to Redirect, replacing the current history entry if Replace is set.
type Decision struct {
	Allow    bool
	Redirect string
	Replace  bool
}

type Gate struct {
	sessions CredentialLoader
	logger   *slog.Logger
}

func New(sessions CredentialLoader, logger *slog.Logger) *Gate {
	return &Gate{sessions: sessions, logger: logger}
}

// State reads the session store on every call; nothing is cached.
func (g *Gate) State(ctx context.Context) State {
	if _, ok := g.sessions.Load(ctx); ok {
		return Authenticated
	}
	return Unauthenticated
}

// Check decides whether target may render.
func (g *Gate) Check(ctx context.Context, target string) Decision {
	if g.State(ctx) == Authenticated {
		return Decision{Allow: true}
	}
	logging.Component(ctx, g.logger, "gate", "check").Debug("redirecting to login", "target", target)
	return Decision{Redirect: LoginPath, Replace: true}
}

// Protect wraps next so it only runs with a stored credential. Without one the
// browser is sent to the login page with a 303, which replaces the request in
// history, and the response is marked uncacheable.
func (g *Gate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		decision := g.Check(r.Context(), r.URL.Path)
		if !decision.Allow {
			http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
