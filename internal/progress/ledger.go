// Package progress records learning sessions and derives progress analytics.
package progress

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/p-n-ai/sciencegpt/internal/curriculum"
)

// Scoring weights for the summary.
const (
	consistencyPerDay   = 10
	diversityPerSubject = 15
	favoriteSubjects    = 3
)

// Session is one bounded span of use.
type Session struct {
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	QuestionsAsked  int        `json:"questions_asked"`
	SubjectsCovered []string   `json:"subjects_covered"`
	Grade           int        `json:"grade"`
	Language        string     `json:"language"`
}

// Minutes returns the session length, zero while the session is open.
func (s Session) Minutes() float64 {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime).Minutes()
}

// SubjectCount pairs a subject with its question count.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// Ledger accumulates questions and sessions. Set-valued fields are kept
// as sorted slices. Use New for a ready ledger.
type Ledger struct {
	Sessions           []Session           `json:"sessions"`
	QuestionsBySubject map[string]int      `json:"questions_by_subject"`
	QuestionsByGrade   map[string]int      `json:"questions_by_grade"`
	TopicCoverage      map[string][]string `json:"topic_coverage"`
	TotalQuestions     int                 `json:"total_questions"`
	TotalTimeSpent     float64             `json:"total_time_spent"` // minutes
	FavoriteSubjects   []SubjectCount      `json:"favorite_subjects"`
	Current            *Session            `json:"current_session,omitempty"`
}

// New returns an empty ledger.
func New() *Ledger {
	l := &Ledger{}
	l.Clear()
	return l
}

// Clear drops every record, including the open session.
func (l *Ledger) Clear() {
	*l = Ledger{
		Sessions:           []Session{},
		QuestionsBySubject: map[string]int{},
		QuestionsByGrade:   map[string]int{},
		TopicCoverage:      map[string][]string{},
		FavoriteSubjects:   []SubjectCount{},
	}
}

func (l *Ledger) ensureMaps() {
	if l.QuestionsBySubject == nil {
		l.QuestionsBySubject = map[string]int{}
	}
	if l.QuestionsByGrade == nil {
		l.QuestionsByGrade = map[string]int{}
	}
	if l.TopicCoverage == nil {
		l.TopicCoverage = map[string][]string{}
	}
}

// StartSession opens a session. An already open session is ended at now first.
func (l *Ledger) StartSession(now time.Time, grade int, language string) {
	if l.Current != nil {
		l.EndSession(now)
	}
	l.Current = &Session{
		StartTime:       now,
		SubjectsCovered: []string{},
		Grade:           grade,
		Language:        language,
	}
}

// EndSession closes the open session and folds it into the totals. It
// reports false when no session was open.
func (l *Ledger) EndSession(now time.Time) bool {
	if l.Current == nil {
		return false
	}
	s := *l.Current
	end := now
	if end.Before(s.StartTime) {
		end = s.StartTime
	}
	s.EndTime = &end

	l.Sessions = append(l.Sessions, s)
	l.Current = nil
	l.TotalTimeSpent += s.Minutes()
	l.FavoriteSubjects = l.topSubjects(favoriteSubjects)
	return true
}

// RecordQuestion counts a question asked in subject at grade. Topics other
// than curriculum.AllTopics are added to the subject's coverage.
func (l *Ledger) RecordQuestion(subject string, grade int, topic string) {
	l.ensureMaps()
	if l.Current != nil {
		l.Current.QuestionsAsked++
		l.Current.SubjectsCovered = addSorted(l.Current.SubjectsCovered, subject)
	}
	l.QuestionsBySubject[subject]++
	l.QuestionsByGrade[fmt.Sprintf("Grade %d", grade)]++
	if topic != "" && topic != curriculum.AllTopics {
		l.TopicCoverage[subject] = addSorted(l.TopicCoverage[subject], topic)
	}
	l.TotalQuestions++
}

func addSorted(set []string, v string) []string {
	i := sort.SearchStrings(set, v)
	if i < len(set) && set[i] == v {
		return set
	}
	set = append(set, "")
	copy(set[i+1:], set[i:])
	set[i] = v
	return set
}

// topSubjects ranks subjects by question count, ties broken by name.
func (l *Ledger) topSubjects(n int) []SubjectCount {
	counts := lo.MapToSlice(l.QuestionsBySubject, func(subject string, count int) SubjectCount {
		return SubjectCount{Subject: subject, Count: count}
	})
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Subject < counts[j].Subject
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// activeSessions returns completed sessions plus the open one.
func (l *Ledger) activeSessions() []Session {
	all := append([]Session{}, l.Sessions...)
	if l.Current != nil {
		all = append(all, *l.Current)
	}
	return all
}

// Summary is the derived progress view.
type Summary struct {
	TotalQuestions     int                 `json:"total_questions"`
	TotalTimeSpent     float64             `json:"total_time_spent"`
	SubjectsExplored   int                 `json:"subjects_explored"`
	SessionsCount      int                 `json:"sessions_count"`
	ActiveDays         int                 `json:"active_days"`
	FavoriteSubjects   []SubjectCount      `json:"favorite_subjects"`
	ConsistencyScore   int                 `json:"consistency_score"`
	DiversityScore     int                 `json:"diversity_score"`
	OverallScore       int                 `json:"overall_score"`
	QuestionsBySubject map[string]int      `json:"questions_by_subject"`
	TopicCoverage      map[string][]string `json:"topic_coverage"`
}

// Summary derives the scores: consistency is 10 per distinct active day,
// diversity 15 per subject, overall their sum plus total questions.
func (l *Ledger) Summary() Summary {
	days := lo.Uniq(lo.Map(l.activeSessions(), func(s Session, _ int) string {
		return s.StartTime.Format(time.DateOnly)
	}))
	consistency := len(days) * consistencyPerDay
	diversity := len(l.QuestionsBySubject) * diversityPerSubject

	return Summary{
		TotalQuestions:     l.TotalQuestions,
		TotalTimeSpent:     math.Round(l.TotalTimeSpent*10) / 10,
		SubjectsExplored:   len(l.QuestionsBySubject),
		SessionsCount:      len(l.Sessions),
		ActiveDays:         len(days),
		FavoriteSubjects:   l.topSubjects(favoriteSubjects),
		ConsistencyScore:   consistency,
		DiversityScore:     diversity,
		OverallScore:       consistency + diversity + l.TotalQuestions,
		QuestionsBySubject: lo.Assign(l.QuestionsBySubject),
		TopicCoverage: lo.MapValues(l.TopicCoverage, func(topics []string, _ string) []string {
			return append([]string{}, topics...)
		}),
	}
}

// DayProgress is one day of the weekly view.
type DayProgress struct {
	Date      string `json:"date"`
	DayName   string `json:"day_name"`
	Questions int    `json:"questions"`
	Subjects  int    `json:"subjects"`
	Sessions  int    `json:"sessions"`
}

// Weekly returns the seven days ending at today, oldest first.
func (l *Ledger) Weekly(today time.Time) []DayProgress {
	sessions := l.activeSessions()
	out := make([]DayProgress, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(time.DateOnly)
		onDay := lo.Filter(sessions, func(s Session, _ int) bool {
			return s.StartTime.Format(time.DateOnly) == day
		})
		subjects := lo.Uniq(lo.FlatMap(onDay, func(s Session, _ int) []string { return s.SubjectsCovered }))
		out = append(out, DayProgress{
			Date:      day,
			DayName:   today.AddDate(0, 0, -i).Format("Mon"),
			Questions: lo.SumBy(onDay, func(s Session) int { return s.QuestionsAsked }),
			Subjects:  len(subjects),
			Sessions:  len(onDay),
		})
	}
	return out
}
