package progression

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	abilityapp "fitquest-server/internal/app/ability"
	charapp "fitquest-server/internal/app/character"
	questapp "fitquest-server/internal/app/quest"
	workoutapp "fitquest-server/internal/app/workout"
	domainprog "fitquest-server/internal/domain/progression"
	domainworkout "fitquest-server/internal/domain/workout"
	"fitquest-server/internal/platform/mq"
)

// Notifier pushes progression events to a user's connected clients.
type Notifier interface {
	Notify(userID uuid.UUID, payload any)
}

// CompletionResult aggregates everything one workout completion produced.
type CompletionResult struct {
	Log          domainworkout.Log              `json:"log"`
	StreakDays   int                            `json:"streak_days"`
	StatDeltas   domainprog.StatDeltas          `json:"stat_deltas"`
	XPGained     int                            `json:"xp_gained"`
	NewLevel     int                            `json:"new_level"`
	LeveledUp    bool                           `json:"leveled_up"`
	NewAbilities []domainprog.Ability           `json:"new_abilities"`
	QuestUpdates []domainprog.QuestUpdate       `json:"quest_updates"`
	NewRecords   []domainworkout.PersonalRecord `json:"new_records"`
}

type Service struct {
	logger     zerolog.Logger
	characters *charapp.Service
	abilities  *abilityapp.Service
	quests     *questapp.Service
	workouts   *workoutapp.Service
	notifier   Notifier
	pub        mq.Publisher
}

func NewService(logger zerolog.Logger, characters *charapp.Service, abilities *abilityapp.Service, quests *questapp.Service, workouts *workoutapp.Service, notifier Notifier, pub mq.Publisher) *Service {
	return &Service{
		logger:     logger,
		characters: characters,
		abilities:  abilities,
		quests:     quests,
		workouts:   workouts,
		notifier:   notifier,
		pub:        pub,
	}
}

// CompleteWorkout runs the progression flow for one workout completion
// event, strictly in sequence: persist the session, update the streak,
// detect records, apply stat gains, award XP, check unlocks, advance quests.
// Store errors after the log insert propagate to the caller but leave the
// workout recorded; the caller decides whether to retry the whole flow.
func (s *Service) CompleteWorkout(ctx context.Context, userID uuid.UUID, ev domainworkout.CompletionEvent) (CompletionResult, error) {
	ev.Normalize()
	if err := ev.Validate(); err != nil {
		return CompletionResult{}, err
	}

	char, err := s.characters.GetByUser(ctx, userID)
	if err != nil {
		return CompletionResult{}, err
	}

	now := time.Now().UTC()
	log, err := s.workouts.Log(ctx, userID, ev, now)
	if err != nil {
		return CompletionResult{}, err
	}
	result := CompletionResult{Log: log}

	if len(ev.Sets) > 0 {
		if err := s.workouts.RecordSession(ctx, log.ID, ev.Sets); err != nil {
			return result, err
		}
	}

	streak, err := s.workouts.UpdateStreak(ctx, userID, now)
	if err != nil {
		return result, err
	}
	result.StreakDays = streak

	records, err := s.workouts.CheckPersonalRecords(ctx, userID, log.ID, ev.Sets, now)
	if err != nil {
		return result, err
	}
	result.NewRecords = records
	beatPR := len(records) > 0

	deltas := domainprog.MapStats(ev.Exercises)
	if err := s.characters.IncrementStats(ctx, userID, deltas); err != nil {
		return result, err
	}
	result.StatDeltas = deltas

	equipped, err := s.abilities.EquippedByUser(ctx, userID)
	if err != nil {
		return result, err
	}
	award := domainprog.ComputeAward(domainprog.AwardInput{
		DurationMinutes: ev.DurationMinutes,
		CharacterXP:     char.XP,
		Class:           char.ClassType,
		Equipped:        equipped,
		StreakDays:      streak,
	})
	updated, err := s.characters.AddXP(ctx, userID, award.XPGained)
	if err != nil {
		return result, err
	}
	result.XPGained = award.XPGained
	result.NewLevel = award.NewLevel
	result.LeveledUp = award.LeveledUp
	if award.LeveledUp {
		s.characters.PublishLevelUp(ctx, userID, award.NewLevel)
		s.notify(userID, map[string]any{"type": "level_up", "new_level": award.NewLevel})
	}

	counts, err := s.workouts.CountsByCategory(ctx, userID)
	if err != nil {
		return result, err
	}
	// Unlock checks use post-award XP so a workout that levels the character
	// can unlock abilities in the same flow.
	unlocked, err := s.abilities.CheckUnlocks(ctx, updated, counts)
	if err != nil {
		return result, err
	}
	result.NewAbilities = unlocked
	for _, a := range unlocked {
		s.notify(userID, map[string]any{"type": "ability_unlocked", "ability": a})
	}

	questUpdates, err := s.quests.ApplyWorkout(ctx, userID, ev.Category, ev.DurationMinutes, beatPR, now)
	if err != nil {
		return result, err
	}
	result.QuestUpdates = questUpdates
	for _, u := range questUpdates {
		if u.Completed {
			s.notify(userID, map[string]any{"type": "quest_completed", "quest": u.Quest, "xp_reward": u.Quest.XPReward})
		}
	}

	s.publish(ctx, "workout.completed", map[string]any{
		"user_id":          userID,
		"log_id":           log.ID,
		"category":         ev.Category,
		"duration_minutes": ev.DurationMinutes,
		"xp_gained":        award.XPGained,
	})
	s.notify(userID, map[string]any{"type": "workout_completed", "result": result})

	return result, nil
}

func (s *Service) notify(userID uuid.UUID, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(userID, payload)
}

func (s *Service) publish(ctx context.Context, subject string, payload any) {
	if s.pub == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, subject, b); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("publish failed")
	}
}
