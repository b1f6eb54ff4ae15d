package tutor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/p-n-ai/sciencegpt/internal/curriculum"
)

// Event is a learner interaction.
type Event interface {
	Kind() string
}

// ApplySettings replaces the current selection.
type ApplySettings struct {
	Settings curriculum.Settings `json:"settings"`
}

// AskQuestion submits a typed question or a clicked suggestion.
type AskQuestion struct {
	Text string `json:"text"`
}

// RefreshFact drops cached facts so a new one is generated.
type RefreshFact struct{}

// CompleteChallenge marks today's challenge as done.
type CompleteChallenge struct{}

// ResetProgress clears points, badges, progress and chat history.
type ResetProgress struct{}

// Visit renders the page without changing anything but the streak.
type Visit struct{}

// EndSession closes the current learning session.
type EndSession struct{}

func (ApplySettings) Kind() string     { return "apply_settings" }
func (AskQuestion) Kind() string       { return "ask_question" }
func (RefreshFact) Kind() string       { return "refresh_fact" }
func (CompleteChallenge) Kind() string { return "complete_challenge" }
func (ResetProgress) Kind() string     { return "reset_progress" }
func (Visit) Kind() string             { return "visit" }
func (EndSession) Kind() string        { return "end_session" }

// ErrUnknownEvent is returned for event kinds the engine does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// DecodeEvent parses a {"type": kind, ...} message into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	var ev Event
	switch envelope.Type {
	case "apply_settings":
		var e ApplySettings
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		ev = e
	case "ask_question":
		var e AskQuestion
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		ev = e
	case "refresh_fact":
		ev = RefreshFact{}
	case "complete_challenge":
		ev = CompleteChallenge{}
	case "reset_progress":
		ev = ResetProgress{}
	case "visit":
		ev = Visit{}
	case "end_session":
		ev = EndSession{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, envelope.Type)
	}
	return ev, nil
}
