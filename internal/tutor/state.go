// Package tutor drives a learner session: it applies interaction events to
// the session state and renders the resulting view.
package tutor

import (
	"time"

	"github.com/p-n-ai/sciencegpt/internal/content"
	"github.com/p-n-ai/sciencegpt/internal/curriculum"
	"github.com/p-n-ai/sciencegpt/internal/gamification"
	"github.com/p-n-ai/sciencegpt/internal/progress"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in the chat history.
type ChatMessage struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	VideoURL  string    `json:"video_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// State is everything one learner session owns. It is serialised as a
// whole by the session stores.
type State struct {
	ID           string              `json:"id"`
	Settings     curriculum.Settings `json:"settings"`
	Content      content.Cache       `json:"content"`
	Gamification gamification.Ledger `json:"gamification"`
	Progress     progress.Ledger     `json:"progress"`
	Chat         []ChatMessage       `json:"chat"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// NewState returns a fresh session with the given settings.
func NewState(id string, settings curriculum.Settings, now time.Time) *State {
	st := &State{
		ID:        id,
		Settings:  settings,
		Chat:      []ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.Progress.Clear()
	return st
}
