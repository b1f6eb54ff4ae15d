package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/p-n-ai/sciencegpt/internal/tutor"
)

// SessionCookie carries the session id.
const SessionCookie = "sgpt_session"

// sessionLocks serializes interactions per session id.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// sessionID returns the id from the cookie, issuing a new one when the
// cookie is missing or malformed.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// load returns the stored state for id or a fresh one.
func (s *Server) load(ctx context.Context, id string) (*tutor.State, error) {
	st, err := s.store.Get(ctx, id)
	if errors.Is(err, tutor.ErrSessionNotFound) {
		slog.Info("new session", "session_id", id)
		return s.engine.NewState(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return st, nil
}

// dispatch runs ev against the session under its lock and persists the
// result. State is not saved when the engine rejects the event.
func (s *Server) dispatch(ctx context.Context, id string, ev tutor.Event) (tutor.View, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return tutor.View{}, err
	}
	view, err := s.engine.Dispatch(ctx, st, ev)
	if err != nil {
		return tutor.View{}, err
	}
	if err := s.store.Save(ctx, st); err != nil {
		return tutor.View{}, fmt.Errorf("save session: %w", err)
	}
	return view, nil
}

// snapshot reads the session state under its lock without dispatching.
func (s *Server) snapshot(ctx context.Context, id string) (*tutor.State, error) {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.load(ctx, id)
}

// handleForget deletes the stored session and expires the cookie.
func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookie)
	if err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			unlock := s.locks.lock(id.String())
			err := s.store.Delete(r.Context(), id.String())
			unlock()
			if err != nil {
				slog.Error("delete session failed", "session_id", id.String(), "error", err)
				writeError(w, http.StatusInternalServerError, "could not delete session")
				return
			}
			slog.Info("session deleted", "session_id", id.String())
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
