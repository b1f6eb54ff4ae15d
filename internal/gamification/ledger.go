package gamification

import (
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/samber/lo"
)

// Points awarded per activity.
const (
	PointsPerQuestion  = 10
	PointsPerFact      = 5
	PointsPerChallenge = 5
)

// ErrChallengeDone is returned when the daily challenge was already
// completed on the given day.
var ErrChallengeDone = errors.New("daily challenge already completed today")

// Ledger is one learner's gamification state. The zero value is a fresh
// ledger. Badges only grow until Reset.
type Ledger struct {
	Points              int         `json:"points"`
	Badges              []BadgeID   `json:"badges"`
	QuestionsAsked      int         `json:"questions_asked"`
	SubjectsExplored    []string    `json:"subjects_explored"`
	FactsGenerated      int         `json:"facts_generated"`
	StreakDays          int         `json:"streak_days"`
	DailyVisits         []time.Time `json:"daily_visits"`
	ChallengesCompleted []time.Time `json:"challenges_completed"`
}

// Evaluate returns the badges the ledger qualifies for but does not yet
// hold, in catalog order. It does not modify l.
func Evaluate(l Ledger) []Badge {
	var out []Badge
	for _, b := range catalog {
		if l.HasBadge(b.ID) {
			continue
		}
		if qualifies(l, b) {
			out = append(out, b)
		}
	}
	return out
}

func qualifies(l Ledger, b Badge) bool {
	if pointMilestones[b.ID] {
		return l.Points >= b.PointsRequired
	}
	switch b.ID {
	case BadgeFirstQuestion:
		return l.QuestionsAsked >= 1
	case BadgeQuestionMaster:
		return l.QuestionsAsked >= questionMasterCount
	case BadgeScienceExplorer:
		return len(l.SubjectsExplored) >= explorerSubjects
	case BadgeFactCollector:
		return l.FactsGenerated >= factCollectorCount
	case BadgeDailyLearner:
		return l.StreakDays >= dailyLearnerStreak
	}
	return false
}

// HasBadge reports whether id has been earned.
func (l *Ledger) HasBadge(id BadgeID) bool {
	return slices.Contains(l.Badges, id)
}

// award unions every newly qualifying badge into the ledger in one pass.
func (l *Ledger) award() []Badge {
	earned := Evaluate(*l)
	for _, b := range earned {
		l.Badges = append(l.Badges, b.ID)
	}
	return earned
}

// AddPoints adds n points (negative values are ignored).
func (l *Ledger) AddPoints(n int) []Badge {
	if n > 0 {
		l.Points += n
	}
	return l.award()
}

// RecordQuestion counts an answered question in subject.
func (l *Ledger) RecordQuestion(subject string) []Badge {
	l.QuestionsAsked++
	if subject != "" && !lo.Contains(l.SubjectsExplored, subject) {
		l.SubjectsExplored = append(l.SubjectsExplored, subject)
		sort.Strings(l.SubjectsExplored)
	}
	return l.AddPoints(PointsPerQuestion)
}

// RecordFact counts a generated fact of the day.
func (l *Ledger) RecordFact() []Badge {
	l.FactsGenerated++
	return l.AddPoints(PointsPerFact)
}

// ChallengeDone reports whether the daily challenge was completed on day.
func (l *Ledger) ChallengeDone(day time.Time) bool {
	d := Day(day)
	return lo.ContainsBy(l.ChallengesCompleted, func(c time.Time) bool { return c.Equal(d) })
}

// CompleteChallenge awards the daily challenge points, once per calendar day.
func (l *Ledger) CompleteChallenge(day time.Time) ([]Badge, error) {
	if l.ChallengeDone(day) {
		return nil, ErrChallengeDone
	}
	l.ChallengesCompleted = append(l.ChallengesCompleted, Day(day))
	return l.AddPoints(PointsPerChallenge), nil
}

// Visit records a visit on now's calendar date and recomputes the streak.
// Repeated visits on the same day leave the ledger unchanged.
func (l *Ledger) Visit(now time.Time) []Badge {
	today := Day(now)
	if lo.ContainsBy(l.DailyVisits, func(d time.Time) bool { return d.Equal(today) }) {
		return nil
	}
	l.DailyVisits = append(l.DailyVisits, today)
	l.StreakDays = Streak(l.DailyVisits)
	return l.award()
}

// Reset clears the ledger.
func (l *Ledger) Reset() {
	*l = Ledger{}
}

// Earned returns the earned badges in the order they were awarded.
func (l *Ledger) Earned() []Badge {
	return lo.FilterMap(l.Badges, func(id BadgeID, _ int) (Badge, bool) {
		return Lookup(id)
	})
}

// Available returns the badges not yet earned, in catalog order.
func (l *Ledger) Available() []Badge {
	return lo.Filter(catalog, func(b Badge, _ int) bool {
		return !l.HasBadge(b.ID)
	})
}

// Goal is progress toward a points-gated badge.
type Goal struct {
	Badge        Badge   `json:"badge"`
	PointsNeeded int     `json:"points_needed"`
	Progress     float64 `json:"progress"` // 0..1
}

// NextGoals returns up to n unearned badges with a points requirement the
// learner has not reached yet, closest first.
func (l *Ledger) NextGoals(n int) []Goal {
	candidates := lo.Filter(l.Available(), func(b Badge, _ int) bool {
		return b.PointsRequired > l.Points
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PointsRequired < candidates[j].PointsRequired
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return lo.Map(candidates, func(b Badge, _ int) Goal {
		return Goal{
			Badge:        b,
			PointsNeeded: b.PointsRequired - l.Points,
			Progress:     float64(l.Points) / float64(b.PointsRequired),
		}
	})
}

// Stats is the scoreboard summary.
type Stats struct {
	Points           int `json:"points"`
	BadgesCount      int `json:"badges_count"`
	QuestionsAsked   int `json:"questions_asked"`
	SubjectsExplored int `json:"subjects_explored"`
	FactsGenerated   int `json:"facts_generated"`
	StreakDays       int `json:"streak_days"`
}

// Stats returns the scoreboard summary.
func (l *Ledger) Stats() Stats {
	return Stats{
		Points:           l.Points,
		BadgesCount:      len(l.Badges),
		QuestionsAsked:   l.QuestionsAsked,
		SubjectsExplored: len(l.SubjectsExplored),
		FactsGenerated:   l.FactsGenerated,
		StreakDays:       l.StreakDays,
	}
}

// Motivation returns the encouragement line for a points total.
func Motivation(points int) string {
	switch {
	case points <= 0:
		return "🌟 Start your learning journey by asking a question!"
	case points < 50:
		return "🚀 You're doing great! Keep asking questions to earn more points!"
	case points < 100:
		return "⭐ Excellent progress! You're becoming a science star!"
	default:
		return "🏆 Amazing! You're a true science champion!"
	}
}
