// Package gamification tracks points, badges and daily streaks.
package gamification

// BadgeID identifies a badge in the catalog.
type BadgeID string

const (
	BadgeFirstQuestion   BadgeID = "first_question"
	BadgeQuestionMaster  BadgeID = "question_master"
	BadgeDailyLearner    BadgeID = "daily_learner"
	BadgeScienceExplorer BadgeID = "science_explorer"
	BadgeFactCollector   BadgeID = "fact_collector"
	BadgeRisingStar      BadgeID = "point_milestone_50"
	BadgeScienceStar     BadgeID = "point_milestone_100"
	BadgeChampion        BadgeID = "point_milestone_200"
)

// Badge is a one-time achievement.
type Badge struct {
	ID             BadgeID `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	PointsRequired int     `json:"points_required"`
}

// Thresholds for the count and streak badges.
const (
	questionMasterCount = 10
	explorerSubjects    = 3
	factCollectorCount  = 5
	dailyLearnerStreak  = 3
)

var catalog = []Badge{
	{ID: BadgeFirstQuestion, Name: "Curious Mind", Description: "Asked your first question", Icon: "🤔"},
	{ID: BadgeQuestionMaster, Name: "Question Master", Description: "Asked 10 questions", Icon: "❓", PointsRequired: 100},
	{ID: BadgeDailyLearner, Name: "Daily Learner", Description: "Used the app for 3 consecutive days", Icon: "📚"},
	{ID: BadgeScienceExplorer, Name: "Science Explorer", Description: "Explored 3 different subjects", Icon: "🔬"},
	{ID: BadgeFactCollector, Name: "Fact Collector", Description: "Generated 5 facts of the day", Icon: "💡"},
	{ID: BadgeRisingStar, Name: "Rising Star", Description: "Earned 50 points", Icon: "⭐", PointsRequired: 50},
	{ID: BadgeScienceStar, Name: "Science Star", Description: "Earned 100 points", Icon: "🌟", PointsRequired: 100},
	{ID: BadgeChampion, Name: "Knowledge Champion", Description: "Earned 200 points", Icon: "🏆", PointsRequired: 200},
}

// pointMilestones are awarded purely on the points total.
var pointMilestones = map[BadgeID]bool{
	BadgeRisingStar:  true,
	BadgeScienceStar: true,
	BadgeChampion:    true,
}

// Catalog returns every badge in display order.
func Catalog() []Badge {
	out := make([]Badge, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id BadgeID) (Badge, bool) {
	for _, b := range catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
