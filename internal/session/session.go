// Package session persists the signed-in user's credential in a client-local
// key-value store and announces logouts to interested front ends.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
)

// Key is the single record the store reads and writes.
const Key = "user"

var ErrEmptyToken = errors.New("credential token is empty")

type Store struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

func NewStore(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend:   backend,
		logger:    logger,
		listeners: make(map[int]func()),
	}
}

// Save replaces the stored credential.
func (s *Store) Save(ctx context.Context, cred model.Credential) error {
	if strings.TrimSpace(cred.Token) == "" {
		return ErrEmptyToken
	}
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := s.backend.Put(ctx, Key, string(payload)); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	logging.Component(ctx, s.logger, "session", "save").Debug("credential saved", "username", cred.Username)
	return nil
}

// Load returns the stored credential. Any missing, unreadable or malformed
// record reads as logged out.
func (s *Store) Load(ctx context.Context) (model.Credential, bool) {
	raw, err := s.backend.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			logging.Component(ctx, s.logger, "session", "load").Warn("read credential", "error", err)
		}
		return model.Credential{}, false
	}

	var cred model.Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		logging.Component(ctx, s.logger, "session", "load").Warn("malformed credential record", "error", err)
		return model.Credential{}, false
	}
	if strings.TrimSpace(cred.Token) == "" {
		return model.Credential{}, false
	}
	return cred, true
}

// Clear removes the credential and then notifies every logout listener.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	logging.Component(ctx, s.logger, "session", "clear").Info("logged out")

	s.mu.Lock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// OnLogout registers fn to run after every Clear. The returned func unregisters it.
func (s *Store) OnLogout(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
