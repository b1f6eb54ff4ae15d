package tutor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/sciencegpt/internal/ai"
	"github.com/p-n-ai/sciencegpt/internal/content"
	"github.com/p-n-ai/sciencegpt/internal/curriculum"
	"github.com/p-n-ai/sciencegpt/internal/gamification"
	"github.com/p-n-ai/sciencegpt/internal/tutor"
)

// tutorAI answers each task with a canned completion.
type tutorAI struct {
	mu    sync.Mutex
	err   error
	calls map[ai.TaskType]int
}

func (f *tutorAI) Complete(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[ai.TaskType]int{}
	}
	f.calls[req.Task]++
	if f.err != nil {
		return ai.CompletionResponse{}, f.err
	}
	var text string
	switch req.Task {
	case ai.TaskSuggestions:
		text = "What is a magnet?\nWhy do compasses point north?\nHow is an electromagnet made?\nCan magnets lose strength?"
	case ai.TaskFact:
		text = "Fact: The Earth behaves like a giant magnet.\nExplanation: Its molten iron core creates a magnetic field."
	default:
		text = "Magnets attract iron because of aligned magnetic domains."
	}
	return ai.CompletionResponse{Content: text, Model: "test"}, nil
}

func (f *tutorAI) count(task ai.TaskType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[task]
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

var magnetism = curriculum.Settings{Grade: 7, Language: "English", Subject: "Physics", Topic: "Magnetism"}

type fixture struct {
	engine *tutor.Engine
	ai     *tutorAI
	events *tutor.MemoryEventLogger
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := curriculum.Default()
	if err != nil {
		t.Fatalf("curriculum.Default() error = %v", err)
	}
	f := &fixture{
		ai:     &tutorAI{},
		events: tutor.NewMemoryEventLogger(),
		clock:  &clock{t: time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)},
	}
	f.engine = tutor.NewEngine(tutor.EngineConfig{
		Catalog:   catalog,
		Generator: content.NewGenerator(content.GeneratorConfig{AI: f.ai, Languages: catalog}),
		Events:    f.events,
		Now:       f.clock.now,
	})
	return f
}

func (f *fixture) dispatch(t *testing.T, st *tutor.State, ev tutor.Event) tutor.View {
	t.Helper()
	view, err := f.engine.Dispatch(context.Background(), st, ev)
	if err != nil {
		t.Fatalf("Dispatch(%s) error = %v", ev.Kind(), err)
	}
	return view
}

func hasNotice(view tutor.View, text string) bool {
	for _, n := range view.Notices {
		if n.Text == text {
			return true
		}
	}
	return false
}

func TestEngine_Render_NewSession(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")

	view, err := f.engine.Render(context.Background(), st)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if view.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", view.SessionID)
	}
	if view.Settings.Grade != 3 || view.Settings.Subject != "General Science" {
		t.Errorf("Settings = %+v, want catalog defaults", view.Settings)
	}
	if len(view.Suggestions) != 4 {
		t.Errorf("len(Suggestions) = %d, want 4", len(view.Suggestions))
	}
	if view.Fact.Fact.Fact != "The Earth behaves like a giant magnet." {
		t.Errorf("Fact = %q", view.Fact.Fact.Fact)
	}
	if view.Stats.Points != gamification.PointsPerFact {
		t.Errorf("Points = %d, want %d for the generated fact", view.Stats.Points, gamification.PointsPerFact)
	}
	if view.Stats.StreakDays != 1 {
		t.Errorf("StreakDays = %d, want 1", view.Stats.StreakDays)
	}
	if view.Challenge.Question != "How many bones do you think are in your body?" || view.Challenge.Completed {
		t.Errorf("Challenge = %+v", view.Challenge)
	}
	if view.Tip == "" {
		t.Error("Tip should be set")
	}
	if len(view.Weekly) != 7 || view.Weekly[6].Sessions != 1 {
		t.Errorf("Weekly = %+v, want today's open session counted", view.Weekly)
	}
	if st.Progress.Current == nil {
		t.Error("render should open a progress session")
	}
	if len(f.events.OfType(tutor.EventSessionStarted)) != 1 || len(f.events.OfType(tutor.EventFactGenerated)) != 1 {
		t.Errorf("events = %+v", f.events.Events())
	}
}

func TestEngine_Render_UsesCache(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")

	f.dispatch(t, st, tutor.Visit{})
	f.clock.advance(time.Hour)
	view := f.dispatch(t, st, tutor.Visit{})

	if got := f.ai.count(ai.TaskSuggestions); got != 1 {
		t.Errorf("suggestion calls = %d, want 1", got)
	}
	if got := f.ai.count(ai.TaskFact); got != 1 {
		t.Errorf("fact calls = %d, want 1", got)
	}
	if view.Stats.Points != gamification.PointsPerFact {
		t.Errorf("Points = %d, a cached fact should not earn points again", view.Stats.Points)
	}
}

func TestEngine_FactExpiresAfterADay(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")

	f.dispatch(t, st, tutor.Visit{})
	f.clock.advance(24 * time.Hour)
	view := f.dispatch(t, st, tutor.Visit{})

	if got := f.ai.count(ai.TaskFact); got != 2 {
		t.Errorf("fact calls = %d, want 2", got)
	}
	if view.Stats.FactsGenerated != 2 {
		t.Errorf("FactsGenerated = %d, want 2", view.Stats.FactsGenerated)
	}
}

func TestEngine_ApplySettings(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	f.dispatch(t, st, tutor.Visit{})

	view := f.dispatch(t, st, tutor.ApplySettings{Settings: magnetism})

	if view.Settings != magnetism {
		t.Errorf("Settings = %+v, want %+v", view.Settings, magnetism)
	}
	if !hasNotice(view, "✅ Settings applied! New suggestions and fact will be generated.") {
		t.Errorf("Notices = %+v", view.Notices)
	}
	if f.ai.count(ai.TaskSuggestions) != 2 || f.ai.count(ai.TaskFact) != 2 {
		t.Errorf("calls = %v, want suggestions and fact regenerated", f.ai.calls)
	}
	if st.Content.SettingsApplied {
		t.Error("settings-applied flag should be cleared after regeneration")
	}
	if len(f.events.OfType(tutor.EventSettingsApplied)) != 1 {
		t.Error("settings_applied event not logged")
	}
}

func TestEngine_ApplySettings_Unchanged(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	f.dispatch(t, st, tutor.Visit{})

	view := f.dispatch(t, st, tutor.ApplySettings{Settings: st.Settings})

	if !hasNotice(view, "Settings are already up to date!") {
		t.Errorf("Notices = %+v", view.Notices)
	}
	if f.ai.count(ai.TaskSuggestions) != 1 {
		t.Error("unchanged settings should not regenerate suggestions")
	}
}

func TestEngine_ApplySettings_Invalid(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	before := st.Settings

	invalid := magnetism
	invalid.Grade = 2
	_, err := f.engine.Dispatch(context.Background(), st, tutor.ApplySettings{Settings: invalid})
	if !errors.Is(err, curriculum.ErrInvalidSettings) {
		t.Fatalf("Dispatch() error = %v, want ErrInvalidSettings", err)
	}
	if st.Settings != before {
		t.Errorf("Settings changed to %+v on invalid input", st.Settings)
	}
}

func TestEngine_AskQuestion(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	f.dispatch(t, st, tutor.ApplySettings{Settings: magnetism})

	view := f.dispatch(t, st, tutor.AskQuestion{Text: "  How do magnets work?  "})

	if len(view.Chat) != 2 {
		t.Fatalf("len(Chat) = %d, want 2", len(view.Chat))
	}
	if view.Chat[0].Role != tutor.RoleUser || view.Chat[0].Text != "How do magnets work?" {
		t.Errorf("Chat[0] = %+v", view.Chat[0])
	}
	if view.Chat[1].Role != tutor.RoleAssistant || view.Chat[1].Text == "" {
		t.Errorf("Chat[1] = %+v", view.Chat[1])
	}
	if want := gamification.PointsPerFact + gamification.PointsPerQuestion; view.Stats.Points != want {
		t.Errorf("Points = %d, want %d", view.Stats.Points, want)
	}

	first, _ := gamification.Lookup(gamification.BadgeFirstQuestion)
	if len(view.NewBadges) != 1 || view.NewBadges[0].ID != first.ID {
		t.Errorf("NewBadges = %+v, want first question badge", view.NewBadges)
	}
	if !hasNotice(view, "🎉 New Badge: "+first.Icon+" "+first.Name) {
		t.Errorf("Notices = %+v", view.Notices)
	}
	if view.Progress.TotalQuestions != 1 || view.Progress.QuestionsBySubject["Physics"] != 1 {
		t.Errorf("Progress = %+v", view.Progress)
	}
	if got := view.Progress.TopicCoverage["Physics"]; len(got) != 1 || got[0] != "Magnetism" {
		t.Errorf("TopicCoverage = %v", got)
	}
	if len(f.events.OfType(tutor.EventQuestionAnswered)) != 1 || len(f.events.OfType(tutor.EventBadgeEarned)) != 1 {
		t.Errorf("events = %+v", f.events.Events())
	}
}

func TestEngine_AskQuestion_Empty(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")

	_, err := f.engine.Dispatch(context.Background(), st, tutor.AskQuestion{Text: "   "})
	if !errors.Is(err, tutor.ErrEmptyQuestion) {
		t.Fatalf("Dispatch() error = %v, want ErrEmptyQuestion", err)
	}
	if len(st.Chat) != 0 {
		t.Errorf("len(Chat) = %d, want 0", len(st.Chat))
	}
}

func TestEngine_AskQuestion_AIFailure(t *testing.T) {
	f := newFixture(t)
	f.ai.err = errors.New("upstream down")
	st := f.engine.NewState("s1")

	view := f.dispatch(t, st, tutor.AskQuestion{Text: "Why is the sky blue?"})

	if len(view.Chat) != 2 || view.Chat[1].Text == "" {
		t.Fatalf("Chat = %+v, want fallback answer appended", view.Chat)
	}
	if view.Stats.Points != 0 || view.Stats.QuestionsAsked != 0 {
		t.Errorf("Stats = %+v, fallback answers earn nothing", view.Stats)
	}
	if !view.Fact.Fallback {
		t.Error("fact should be the fallback")
	}
	if len(view.Suggestions) != 4 {
		t.Errorf("len(Suggestions) = %d, want 4 fallback questions", len(view.Suggestions))
	}
	if !hasNotice(view, "Could not generate new suggestions, showing defaults.") {
		t.Errorf("Notices = %+v", view.Notices)
	}
	if len(f.events.OfType(tutor.EventQuestionAnswered)) != 0 {
		t.Error("fallback answer should not be logged as answered")
	}
}

func TestEngine_CompleteChallenge_OncePerDay(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	f.dispatch(t, st, tutor.Visit{})

	view := f.dispatch(t, st, tutor.CompleteChallenge{})
	if !hasNotice(view, "Great job! You earned 5 points! 🎉") {
		t.Errorf("Notices = %+v", view.Notices)
	}
	if !view.Challenge.Completed {
		t.Error("challenge should be completed")
	}
	points := view.Stats.Points

	view = f.dispatch(t, st, tutor.CompleteChallenge{})
	if !hasNotice(view, "✅ Challenge completed for today!") {
		t.Errorf("Notices = %+v", view.Notices)
	}
	if view.Stats.Points != points {
		t.Errorf("Points = %d, want %d", view.Stats.Points, points)
	}

	f.clock.advance(24 * time.Hour)
	view = f.dispatch(t, st, tutor.Visit{})
	if view.Challenge.Completed {
		t.Error("challenge should be open again the next day")
	}
}

func TestEngine_Streak_DailyLearner(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")

	var view tutor.View
	for range 3 {
		view = f.dispatch(t, st, tutor.Visit{})
		f.clock.advance(24 * time.Hour)
	}

	if view.Stats.StreakDays != 3 {
		t.Errorf("StreakDays = %d, want 3", view.Stats.StreakDays)
	}
	found := false
	for _, b := range view.NewBadges {
		if b.ID == gamification.BadgeDailyLearner {
			found = true
		}
	}
	if !found {
		t.Errorf("NewBadges = %+v, want daily learner", view.NewBadges)
	}
}

func TestEngine_RefreshFact(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	f.dispatch(t, st, tutor.Visit{})

	f.dispatch(t, st, tutor.RefreshFact{})

	if got := f.ai.count(ai.TaskFact); got != 2 {
		t.Errorf("fact calls = %d, want 2", got)
	}
}

func TestEngine_ResetProgress(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	f.dispatch(t, st, tutor.AskQuestion{Text: "What is gravity?"})

	view := f.dispatch(t, st, tutor.ResetProgress{})

	if view.Stats.Points != 0 || len(view.Badges) != 0 {
		t.Errorf("Stats = %+v Badges = %+v, want cleared", view.Stats, view.Badges)
	}
	if len(view.Chat) != 0 {
		t.Errorf("len(Chat) = %d, want 0", len(view.Chat))
	}
	if view.Progress.TotalQuestions != 0 {
		t.Errorf("TotalQuestions = %d, want 0", view.Progress.TotalQuestions)
	}
	if view.Stats.StreakDays != 1 {
		t.Errorf("StreakDays = %d, today's visit should be recorded again", view.Stats.StreakDays)
	}
	if len(view.Suggestions) != 4 {
		t.Error("content cache should survive a progress reset")
	}
}

func TestEngine_EndSession(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")
	f.dispatch(t, st, tutor.Visit{})
	f.clock.advance(30 * time.Minute)

	view := f.dispatch(t, st, tutor.EndSession{})

	if st.Progress.Current != nil {
		t.Error("EndSession should close the session")
	}
	if view.Progress.SessionsCount != 1 || view.Progress.TotalTimeSpent != 30 {
		t.Errorf("Progress = %+v", view.Progress)
	}
	if len(f.events.OfType(tutor.EventSessionEnded)) != 1 {
		t.Error("session_ended event not logged")
	}

	view = f.dispatch(t, st, tutor.EndSession{})
	if !hasNotice(view, "No active session.") {
		t.Errorf("Notices = %+v", view.Notices)
	}

	f.dispatch(t, st, tutor.Visit{})
	if st.Progress.Current == nil {
		t.Error("next visit should open a new session")
	}
}

func TestEngine_SessionRollsOverAtMidnight(t *testing.T) {
	f := newFixture(t)
	st := f.engine.NewState("s1")

	var view tutor.View
	for range 3 {
		view = f.dispatch(t, st, tutor.AskQuestion{Text: "What is gravity?"})
		f.clock.advance(24 * time.Hour)
	}

	p := view.Progress
	if p.ActiveDays != 3 || p.ConsistencyScore != 30 {
		t.Errorf("ActiveDays = %d ConsistencyScore = %d, want 3 and 30", p.ActiveDays, p.ConsistencyScore)
	}
	if p.SessionsCount != 2 {
		t.Errorf("SessionsCount = %d, want 2 closed sessions", p.SessionsCount)
	}
	for _, day := range view.Weekly[4:] {
		if day.Questions != 1 || day.Sessions != 1 {
			t.Errorf("Weekly %s = %+v, want one question in one session", day.Date, day)
		}
	}
	if got := len(f.events.OfType(tutor.EventSessionStarted)); got != 3 {
		t.Errorf("session_started events = %d, want 3", got)
	}
	if got := len(f.events.OfType(tutor.EventSessionEnded)); got != 2 {
		t.Errorf("session_ended events = %d, want 2", got)
	}
}

func TestEngine_SessionIdleTimeout(t *testing.T) {
	tests := []struct {
		name     string
		gap      time.Duration
		sessions int
		minutes  float64
	}{
		{name: "active learner keeps the session", gap: 20 * time.Minute, sessions: 0},
		{name: "idle learner starts a new session", gap: 2 * time.Hour, sessions: 1, minutes: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			st := f.engine.NewState("s1")
			f.dispatch(t, st, tutor.Visit{})
			f.clock.advance(10 * time.Minute)
			f.dispatch(t, st, tutor.AskQuestion{Text: "What is a cell?"})

			f.clock.advance(tt.gap)
			view := f.dispatch(t, st, tutor.Visit{})

			if view.Progress.SessionsCount != tt.sessions {
				t.Errorf("SessionsCount = %d, want %d", view.Progress.SessionsCount, tt.sessions)
			}
			if view.Progress.TotalTimeSpent != tt.minutes {
				t.Errorf("TotalTimeSpent = %v, want %v", view.Progress.TotalTimeSpent, tt.minutes)
			}
			if st.Progress.Current == nil {
				t.Fatal("a session should be open after the visit")
			}
		})
	}
}
