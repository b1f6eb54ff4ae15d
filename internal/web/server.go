// Package web serves the tutor over HTTP: a JSON API, a websocket event
// channel and the embedded single page.
package web

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/p-n-ai/sciencegpt/internal/tutor"
)

//go:embed static/index.html
var static embed.FS

const (
	maxBodyBytes = 64 << 10
	checkTimeout = 2 * time.Second
)

// HealthChecker is a dependency checked by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the HTTP server.
type Config struct {
	Engine       *tutor.Engine
	Store        tutor.SessionStore       // nil keeps sessions in memory without expiry
	Checks       map[string]HealthChecker // checked by /readyz
	SecureCookie bool
}

// Server routes HTTP requests to the tutor engine.
type Server struct {
	engine *tutor.Engine
	store  tutor.SessionStore
	checks map[string]HealthChecker
	locks  *sessionLocks
	secure bool
}

// NewServer creates the HTTP server.
func NewServer(cfg Config) *Server {
	store := cfg.Store
	if store == nil {
		store = tutor.NewMemoryStore(0)
	}
	return &Server{
		engine: cfg.Engine,
		store:  store,
		checks: cfg.Checks,
		locks:  newSessionLocks(),
		secure: cfg.SecureCookie,
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /api/state", s.eventHandler(func(*http.Request) (tutor.Event, error) {
		return tutor.Visit{}, nil
	}))
	mux.HandleFunc("POST /api/settings", s.eventHandler(decodeSettings))
	mux.HandleFunc("POST /api/questions", s.eventHandler(decodeQuestion))
	mux.HandleFunc("POST /api/fact/refresh", s.eventHandler(constEvent(tutor.RefreshFact{})))
	mux.HandleFunc("POST /api/challenge", s.eventHandler(constEvent(tutor.CompleteChallenge{})))
	mux.HandleFunc("POST /api/reset", s.eventHandler(constEvent(tutor.ResetProgress{})))
	mux.HandleFunc("POST /api/session/end", s.eventHandler(constEvent(tutor.EndSession{})))
	mux.HandleFunc("DELETE /api/session", s.handleForget)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/catalog/topics", s.handleTopics)
	mux.HandleFunc("GET /api/progress/export", s.handleExport)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return withRequestLogging(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	for name, check := range s.checks {
		if err := check.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  fmt.Sprintf("%s: %v", name, err),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, tutor.ErrEmptyQuestion),
		errors.Is(err, tutor.ErrUnknownEvent),
		isInvalidSettings(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets the websocket upgrade take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}
