package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/sciencegpt/internal/content"
	"github.com/p-n-ai/sciencegpt/internal/curriculum"
	"github.com/p-n-ai/sciencegpt/internal/gamification"
)

const nextGoals = 2

// sessionIdleTimeout closes an open session that saw no activity for this long.
const sessionIdleTimeout = 30 * time.Minute

// ErrEmptyQuestion is returned when a question has no text.
var ErrEmptyQuestion = errors.New("question is empty")

// EngineConfig holds dependencies for the tutor engine.
type EngineConfig struct {
	Catalog   *curriculum.Catalog
	Generator *content.Generator
	Events    EventLogger      // nil discards analytics events
	Now       func() time.Time // nil uses time.Now
}

// Engine applies learner events to session state.
type Engine struct {
	catalog   *curriculum.Catalog
	generator *content.Generator
	events    EventLogger
	now       func() time.Time
}

// NewEngine creates a tutor engine.
func NewEngine(cfg EngineConfig) *Engine {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	generator := cfg.Generator
	if generator == nil {
		generator = content.NewGenerator(content.GeneratorConfig{Languages: cfg.Catalog})
	}
	return &Engine{
		catalog:   cfg.Catalog,
		generator: generator,
		events:    events,
		now:       now,
	}
}

// Catalog returns the curriculum the engine validates against.
func (e *Engine) Catalog() *curriculum.Catalog {
	return e.catalog
}

// NewState creates a session with the catalog's default settings.
func (e *Engine) NewState(id string) *State {
	return NewState(id, e.catalog.DefaultSettings(), e.now())
}

// Render is the page load: it records the visit and renders the view.
func (e *Engine) Render(ctx context.Context, st *State) (View, error) {
	return e.Dispatch(ctx, st, Visit{})
}

// turn collects the side effects of one dispatch.
type turn struct {
	now       time.Time
	notices   []Notice
	newBadges []gamification.Badge
}

func (t *turn) notify(level, text string) {
	t.notices = append(t.notices, Notice{Level: level, Text: text})
}

func (t *turn) earned(badges []gamification.Badge) {
	t.newBadges = append(t.newBadges, badges...)
}

// Dispatch applies ev to st and renders the resulting view. Remote failures
// degrade to fallback content and never surface as errors.
func (e *Engine) Dispatch(ctx context.Context, st *State, ev Event) (View, error) {
	t := &turn{now: e.now()}
	_, ending := ev.(EndSession)
	if !ending {
		e.ensureSession(ctx, st, t)
	}

	var err error
	switch ev := ev.(type) {
	case ApplySettings:
		err = e.applySettings(ctx, st, t, ev.Settings)
	case AskQuestion:
		err = e.askQuestion(ctx, st, t, ev.Text)
	case RefreshFact:
		st.Content.ClearFacts()
	case CompleteChallenge:
		e.completeChallenge(ctx, st, t)
	case ResetProgress:
		e.resetProgress(ctx, st, t)
	case EndSession:
		e.endSession(ctx, st, t)
	case Visit:
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Kind())
	}
	if err != nil {
		return View{}, err
	}

	t.earned(st.Gamification.Visit(t.now))
	if !ending {
		e.ensureSession(ctx, st, t)
	}

	view := e.render(ctx, st, t)
	st.UpdatedAt = t.now
	return view, nil
}

// ensureSession opens a session when none is open. A session left open
// across midnight or past the idle timeout is closed at its last activity
// and a fresh one is started.
func (e *Engine) ensureSession(ctx context.Context, st *State, t *turn) {
	if cur := st.Progress.Current; cur != nil {
		last := st.UpdatedAt
		if last.Before(cur.StartTime) {
			last = cur.StartTime
		}
		sameDay := gamification.Day(cur.StartTime).Equal(gamification.Day(t.now))
		if sameDay && t.now.Sub(last) <= sessionIdleTimeout {
			return
		}
		e.closeSession(ctx, st, last)
	}
	st.Progress.StartSession(t.now, st.Settings.Grade, st.Settings.Language)
	e.logEvent(ctx, st, EventSessionStarted, map[string]any{
		"grade":    st.Settings.Grade,
		"language": st.Settings.Language,
	})
}

func (e *Engine) applySettings(ctx context.Context, st *State, t *turn, s curriculum.Settings) error {
	if err := e.catalog.ValidateSettings(s); err != nil {
		return err
	}
	if s == st.Settings {
		t.notify(NoticeInfo, "Settings are already up to date!")
		return nil
	}

	st.Settings = s
	st.Content.ClearSuggestions()
	st.Content.ClearFacts()
	t.notify(NoticeSuccess, "✅ Settings applied! New suggestions and fact will be generated.")
	e.logEvent(ctx, st, EventSettingsApplied, map[string]any{
		"grade":    s.Grade,
		"language": s.Language,
		"subject":  s.Subject,
		"topic":    s.Topic,
	})
	return nil
}

// askQuestion records the user message and answers it immediately.
func (e *Engine) askQuestion(ctx context.Context, st *State, t *turn, text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return ErrEmptyQuestion
	}
	st.Chat = append(st.Chat, ChatMessage{Role: RoleUser, Text: question, CreatedAt: t.now})

	answer := e.generator.Answer(ctx, st.Settings, question)
	st.Chat = append(st.Chat, ChatMessage{
		Role:      RoleAssistant,
		Text:      answer.Text,
		VideoURL:  answer.VideoURL,
		CreatedAt: e.now(),
	})
	if answer.Fallback {
		return nil
	}

	s := st.Settings
	t.earned(st.Gamification.RecordQuestion(s.Subject))
	st.Progress.RecordQuestion(s.Subject, s.Grade, s.Topic)
	e.logEvent(ctx, st, EventQuestionAnswered, map[string]any{
		"grade":     s.Grade,
		"subject":   s.Subject,
		"topic":     s.Topic,
		"language":  s.Language,
		"has_video": answer.VideoURL != "",
	})
	return nil
}

func (e *Engine) completeChallenge(ctx context.Context, st *State, t *turn) {
	badges, err := st.Gamification.CompleteChallenge(t.now)
	if errors.Is(err, gamification.ErrChallengeDone) {
		t.notify(NoticeInfo, "✅ Challenge completed for today!")
		return
	}
	t.earned(badges)
	t.notify(NoticeSuccess, fmt.Sprintf("Great job! You earned %d points! 🎉", gamification.PointsPerChallenge))
	e.logEvent(ctx, st, EventChallengeCompleted, map[string]any{"grade": st.Settings.Grade})
}

func (e *Engine) resetProgress(ctx context.Context, st *State, t *turn) {
	st.Gamification.Reset()
	st.Progress.Clear()
	st.Chat = []ChatMessage{}
	t.newBadges = nil
	t.notify(NoticeSuccess, "Progress reset!")
	e.logEvent(ctx, st, EventProgressReset, nil)
}

func (e *Engine) endSession(ctx context.Context, st *State, t *turn) {
	if !e.closeSession(ctx, st, t.now) {
		t.notify(NoticeInfo, "No active session.")
		return
	}
	t.notify(NoticeSuccess, "Session ended.")
}

// closeSession ends the open session at end and reports whether one was open.
func (e *Engine) closeSession(ctx context.Context, st *State, end time.Time) bool {
	cur := st.Progress.Current
	if cur == nil {
		return false
	}
	minutes := max(end.Sub(cur.StartTime).Minutes(), 0)
	st.Progress.EndSession(end)
	e.logEvent(ctx, st, EventSessionEnded, map[string]any{"minutes": minutes})
	return true
}

func (e *Engine) render(ctx context.Context, st *State, t *turn) View {
	s := st.Settings

	suggestions := e.generator.Suggestions(ctx, &st.Content, s)
	if suggestions.Fallback {
		t.notify(NoticeWarning, "Could not generate new suggestions, showing defaults.")
	}

	fact := e.generator.Fact(ctx, &st.Content, s, t.now)
	if fact.Generated && !fact.Fallback {
		t.earned(st.Gamification.RecordFact())
		e.logEvent(ctx, st, EventFactGenerated, map[string]any{
			"grade":   s.Grade,
			"subject": s.Subject,
			"topic":   s.Topic,
		})
	}

	for _, b := range t.newBadges {
		t.notify(NoticeSuccess, fmt.Sprintf("🎉 New Badge: %s %s", b.Icon, b.Name))
		e.logEvent(ctx, st, EventBadgeEarned, map[string]any{"badge": string(b.ID)})
	}

	g := &st.Gamification
	return View{
		SessionID:   st.ID,
		Settings:    s,
		Suggestions: suggestions.Questions,
		Fact: FactView{
			Fact:     fact.Fact,
			Grade:    s.Grade,
			Subject:  s.Subject,
			Topic:    s.Topic,
			Fallback: fact.Fallback,
		},
		Chat:       append([]ChatMessage{}, st.Chat...),
		Stats:      g.Stats(),
		Badges:     nonNil(g.Earned()),
		NewBadges:  nonNil(t.newBadges),
		NextGoals:  nonNil(g.NextGoals(nextGoals)),
		Motivation: gamification.Motivation(g.Points),
		Challenge: ChallengeView{
			Grade:     s.Grade,
			Question:  e.catalog.Challenge(s.Grade),
			Completed: g.ChallengeDone(t.now),
		},
		Tip:      e.catalog.RandomTip(),
		Notices:  nonNil(t.notices),
		Progress: st.Progress.Summary(),
		Weekly:   st.Progress.Weekly(t.now),
	}
}

func (e *Engine) logEvent(ctx context.Context, st *State, eventType string, data map[string]any) {
	if err := e.events.LogEvent(ctx, AnalyticsEvent{
		SessionID: st.ID,
		EventType: eventType,
		Data:      data,
		CreatedAt: e.now(),
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "session_id", st.ID, "error", err)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
