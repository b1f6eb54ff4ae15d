package tutor

import (
	"github.com/p-n-ai/sciencegpt/internal/content"
	"github.com/p-n-ai/sciencegpt/internal/curriculum"
	"github.com/p-n-ai/sciencegpt/internal/gamification"
	"github.com/p-n-ai/sciencegpt/internal/progress"
)

// Notice levels.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
)

// Notice is a one-shot message shown after an interaction.
type Notice struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// ChallengeView is the daily challenge card.
type ChallengeView struct {
	Grade     int    `json:"grade"`
	Question  string `json:"question"`
	Completed bool   `json:"completed"`
}

// FactView is the fact of the day card.
type FactView struct {
	content.Fact
	Grade    int    `json:"grade"`
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Fallback bool   `json:"fallback,omitempty"`
}

// View is everything the page needs after an interaction.
type View struct {
	SessionID   string                 `json:"session_id"`
	Settings    curriculum.Settings    `json:"settings"`
	Suggestions []string               `json:"suggestions"`
	Fact        FactView               `json:"fact"`
	Chat        []ChatMessage          `json:"chat"`
	Stats       gamification.Stats     `json:"stats"`
	Badges      []gamification.Badge   `json:"badges"`
	NewBadges   []gamification.Badge   `json:"new_badges"`
	NextGoals   []gamification.Goal    `json:"next_goals"`
	Motivation  string                 `json:"motivation"`
	Challenge   ChallengeView          `json:"challenge"`
	Tip         string                 `json:"tip"`
	Notices     []Notice               `json:"notices"`
	Progress    progress.Summary       `json:"progress"`
	Weekly      []progress.DayProgress `json:"weekly"`
}
