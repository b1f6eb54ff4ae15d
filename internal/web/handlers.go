package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/sciencegpt/internal/curriculum"
	"github.com/p-n-ai/sciencegpt/internal/tutor"
)

var errBadRequest = errors.New("bad request")

func isInvalidSettings(err error) bool {
	return errors.Is(err, curriculum.ErrInvalidSettings)
}

// eventDecoder builds the engine event for a request.
type eventDecoder func(r *http.Request) (tutor.Event, error)

func constEvent(ev tutor.Event) eventDecoder {
	return func(*http.Request) (tutor.Event, error) { return ev, nil }
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func decodeSettings(r *http.Request) (tutor.Event, error) {
	var s curriculum.Settings
	if err := decodeBody(r, &s); err != nil {
		return nil, err
	}
	return tutor.ApplySettings{Settings: s}, nil
}

func decodeQuestion(r *http.Request) (tutor.Event, error) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return tutor.AskQuestion{Text: body.Text}, nil
}

func (s *Server) eventHandler(decode eventDecoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		ev, err := decode(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id := s.sessionID(w, r)
		view, err := s.dispatch(r.Context(), id, ev)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				slog.Error("dispatch failed", "event", ev.Kind(), "session_id", id, "error", err)
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type gradeOptions struct {
	Grade     int      `json:"grade"`
	Subjects  []string `json:"subjects"`
	Challenge string   `json:"challenge"`
}

type catalogResponse struct {
	Defaults  curriculum.Settings   `json:"defaults"`
	Languages []curriculum.Language `json:"languages"`
	Grades    []gradeOptions        `json:"grades"`
	Topics    map[string][]string   `json:"topics"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	c := s.engine.Catalog()
	resp := catalogResponse{
		Defaults:  c.DefaultSettings(),
		Languages: c.Languages(),
		Topics:    map[string][]string{},
	}
	for _, g := range c.Grades() {
		subjects := c.SubjectsForGrade(g)
		resp.Grades = append(resp.Grades, gradeOptions{Grade: g, Subjects: subjects, Challenge: c.Challenge(g)})
		for _, subject := range subjects {
			if _, ok := resp.Topics[subject]; !ok {
				resp.Topics[subject] = c.TopicOptions(subject)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	subject := strings.TrimSpace(r.URL.Query().Get("subject"))
	if subject == "" {
		writeError(w, http.StatusBadRequest, "subject is required")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"subject": subject,
		"topics":  s.engine.Catalog().SearchTopics(subject, query),
	})
}

// Export formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatXLSX {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	id := s.sessionID(w, r)
	st, err := s.snapshot(r.Context(), id)
	if err != nil {
		slog.Error("export failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load session")
		return
	}

	name := fmt.Sprintf("science_progress_%s.%s", time.Now().Format("20060102"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	switch format {
	case FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = st.Progress.ExportXLSX(w)
	default:
		w.Header().Set("Content-Type", "application/json")
		err = st.Progress.ExportJSON(w)
	}
	if err != nil {
		slog.Error("export failed", "session_id", id, "format", format, "error", err)
	}
}
