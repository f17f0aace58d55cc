package progression

import (
	"testing"

	"github.com/google/uuid"
)

func quest(t QuestType, target, progress int, completed bool) DailyQuest {
	return DailyQuest{
		ID:              uuid.New(),
		QuestType:       t,
		TargetValue:     target,
		CurrentProgress: progress,
		Completed:       completed,
		XPReward:        100,
		CreditsReward:   50,
	}
}

func TestMatchQuestProgressByType(t *testing.T) {
	quests := []DailyQuest{
		quest(QuestCompleteWorkout, 1, 0, false),
		quest(QuestStrengthWorkout, 1, 0, false),
		quest(QuestCardioWorkout, 1, 0, false),
	}
	updates := MatchQuestProgress(quests, "Strength", 20, false)
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2 (complete_workout + strength_workout)", len(updates))
	}
	for _, u := range updates {
		if u.Increment != 1 || !u.Completed {
			t.Fatalf("update %+v: want increment 1 and completed", u)
		}
	}
}

func TestMatchQuestProgressFlexibilityAliases(t *testing.T) {
	quests := []DailyQuest{quest(QuestFlexibilityWorkout, 1, 0, false)}
	for _, category := range []string{"flexibility", "yoga", "stretching"} {
		if got := MatchQuestProgress(quests, category, 10, false); len(got) != 1 {
			t.Fatalf("category %q: got %d updates, want 1", category, len(got))
		}
	}
	if got := MatchQuestProgress(quests, "cardio", 10, false); len(got) != 0 {
		t.Fatalf("category cardio matched flexibility quest")
	}
}

func TestMatchQuestProgressDurationQuestsIndependent(t *testing.T) {
	quests := []DailyQuest{
		quest(QuestWorkout30Min, 1, 0, false),
		quest(QuestWorkout45Min, 1, 0, false),
	}
	if got := MatchQuestProgress(quests, "cardio", 50, false); len(got) != 2 {
		t.Fatalf("50 min workout: got %d updates, want both duration quests", len(got))
	}
	if got := MatchQuestProgress(quests, "cardio", 35, false); len(got) != 1 {
		t.Fatalf("35 min workout: got %d updates, want only the 30min quest", len(got))
	}
	if got := MatchQuestProgress(quests, "cardio", 0, false); len(got) != 0 {
		t.Fatalf("zero duration advanced a duration quest")
	}
}

func TestMatchQuestProgressBeatPR(t *testing.T) {
	quests := []DailyQuest{quest(QuestBeatPR, 1, 0, false)}
	if got := MatchQuestProgress(quests, "strength", 20, false); len(got) != 0 {
		t.Fatalf("no PR but quest advanced")
	}
	if got := MatchQuestProgress(quests, "strength", 20, true); len(got) != 1 {
		t.Fatalf("PR beaten but quest did not advance")
	}
}

func TestMatchQuestProgressSkipsCompleted(t *testing.T) {
	quests := []DailyQuest{quest(QuestCompleteWorkout, 1, 1, true)}
	if got := MatchQuestProgress(quests, "cardio", 20, false); len(got) != 0 {
		t.Fatalf("completed quest advanced again")
	}
}

func TestMatchQuestProgressExternalTypesNeverAdvance(t *testing.T) {
	quests := []DailyQuest{
		quest(QuestWalkSteps, 10000, 0, false),
		quest(QuestMaintainStreak, 1, 0, false),
	}
	if got := MatchQuestProgress(quests, "cardio", 60, true); len(got) != 0 {
		t.Fatalf("externally sourced quest types advanced: %+v", got)
	}
}

func TestMatchQuestProgressOvershootNotClamped(t *testing.T) {
	quests := []DailyQuest{quest(QuestCompleteWorkout, 2, 2, false)}
	got := MatchQuestProgress(quests, "cardio", 10, false)
	if len(got) != 1 {
		t.Fatalf("got %d updates, want 1", len(got))
	}
	if got[0].NewProgress != 3 || !got[0].Completed {
		t.Fatalf("got %+v, want progress 3 (unclamped) and completed", got[0])
	}
}

func TestMatchQuestProgressNoQuests(t *testing.T) {
	if got := MatchQuestProgress(nil, "cardio", 30, true); len(got) != 0 {
		t.Fatalf("no quests should be a no-op, got %+v", got)
	}
}
