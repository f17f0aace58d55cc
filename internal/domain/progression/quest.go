package progression

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestType is the fixed catalog of daily quest kinds.
type QuestType string

const (
	QuestCompleteWorkout    QuestType = "complete_workout"
	QuestWalkSteps          QuestType = "walk_steps"
	QuestStrengthWorkout    QuestType = "strength_workout"
	QuestCardioWorkout      QuestType = "cardio_workout"
	QuestEnduranceWorkout   QuestType = "endurance_workout"
	QuestFlexibilityWorkout QuestType = "flexibility_workout"
	QuestBeatPR             QuestType = "beat_pr"
	QuestMaintainStreak     QuestType = "maintain_streak"
	QuestWorkout30Min       QuestType = "workout_30min"
	QuestWorkout45Min       QuestType = "workout_45min"
)

// DailyQuest is one per-day, per-user micro-goal. Reward amounts are fixed at
// creation; the completed flag is one-way.
type DailyQuest struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	QuestDate       string    `json:"quest_date"`
	QuestType       QuestType `json:"quest_type"`
	TargetValue     int       `json:"target_value"`
	CurrentProgress int       `json:"current_progress"`
	Completed       bool      `json:"completed"`
	XPReward        int       `json:"xp_reward"`
	CreditsReward   int       `json:"credits_reward"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuestUpdate describes how one quest advanced for a workout.
type QuestUpdate struct {
	Quest       DailyQuest `json:"quest"`
	Increment   int        `json:"increment"`
	NewProgress int        `json:"new_progress"`
	Completed   bool       `json:"completed"`
}

// MatchQuestProgress determines which of the day's quests a workout advances.
// Already completed quests are skipped; walk_steps and maintain_streak are
// sourced elsewhere and never advance here. Progress is not clamped to the
// target; completion is signalled the first time progress reaches it.
func MatchQuestProgress(quests []DailyQuest, category string, durationMinutes int, beatPR bool) []QuestUpdate {
	category = strings.ToLower(category)
	updates := make([]QuestUpdate, 0)
	for _, q := range quests {
		if q.Completed {
			continue
		}
		inc := questIncrement(q.QuestType, category, durationMinutes, beatPR)
		if inc == 0 {
			continue
		}
		newProgress := q.CurrentProgress + inc
		updates = append(updates, QuestUpdate{
			Quest:       q,
			Increment:   inc,
			NewProgress: newProgress,
			Completed:   newProgress >= q.TargetValue,
		})
	}
	return updates
}

func questIncrement(t QuestType, category string, durationMinutes int, beatPR bool) int {
	switch t {
	case QuestCompleteWorkout:
		return 1
	case QuestStrengthWorkout:
		if category == "strength" {
			return 1
		}
	case QuestCardioWorkout:
		if category == "cardio" {
			return 1
		}
	case QuestEnduranceWorkout:
		if category == "endurance" {
			return 1
		}
	case QuestFlexibilityWorkout:
		if category == "flexibility" || category == "yoga" || category == "stretching" {
			return 1
		}
	case QuestWorkout30Min:
		if durationMinutes >= 30 {
			return 1
		}
	case QuestWorkout45Min:
		if durationMinutes >= 45 {
			return 1
		}
	case QuestBeatPR:
		if beatPR {
			return 1
		}
	}
	return 0
}
