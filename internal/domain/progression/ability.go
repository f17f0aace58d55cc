package progression

import (
	"time"

	"github.com/google/uuid"
)

// Class is a character archetype. It governs which abilities apply and which
// workout count gates their unlocks.
type Class string

const (
	ClassWarrior          Class = "warrior"
	ClassScout            Class = "scout"
	ClassEnduranceAthlete Class = "endurance_athlete"
	ClassMonk             Class = "monk"
	ClassHybrid           Class = "hybrid"
	ClassSurvivor         Class = "survivor"
)

var classes = map[Class]bool{
	ClassWarrior:          true,
	ClassScout:            true,
	ClassEnduranceAthlete: true,
	ClassMonk:             true,
	ClassHybrid:           true,
	ClassSurvivor:         true,
}

func ValidClass(c Class) bool { return classes[c] }

// AbilityType distinguishes always-on passives from manually equipped actives.
type AbilityType string

const (
	AbilityPassive  AbilityType = "passive"
	AbilityActive   AbilityType = "active"
	AbilityUltimate AbilityType = "ultimate"
)

// EffectKind is the closed set of ability effect variants the XP calculator
// dispatches on.
type EffectKind string

const (
	// EffectXPBoost adds its magnitude to the XP multiplier when the ability's
	// class matches the character (or the ability is universal).
	EffectXPBoost EffectKind = "xp_boost"
	// EffectConditionalMultiplier applies its magnitude only while its
	// condition holds, either adding to or replacing the multiplier.
	EffectConditionalMultiplier EffectKind = "conditional_multiplier"
	// EffectNone marks flavor abilities with no XP interaction.
	EffectNone EffectKind = "none"
)

// ConditionType names the measurable a conditional effect is gated on.
type ConditionType string

const (
	ConditionNone            ConditionType = ""
	ConditionStreakDays      ConditionType = "streak_days"
	ConditionDurationMinutes ConditionType = "duration_minutes"
)

// MultiplierMode controls how a conditional effect combines with the running
// multiplier.
type MultiplierMode string

const (
	ModeAdd     MultiplierMode = "add"
	ModeReplace MultiplierMode = "replace"
)

// Effect is the tagged variant describing what an ability does to XP awards.
type Effect struct {
	Kind      EffectKind     `json:"kind"`
	Magnitude float64        `json:"magnitude"`
	Condition ConditionType  `json:"condition,omitempty"`
	Threshold int            `json:"threshold,omitempty"`
	Mode      MultiplierMode `json:"mode,omitempty"`
}

// Ability is a static catalog entry. Immutable reference data.
type Ability struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	ClassType          Class       `json:"class_type"`
	Tier               int         `json:"tier"`
	UnlockWorkoutCount int         `json:"unlock_workout_count"`
	UnlockLevel        int         `json:"unlock_level"`
	AbilityType        AbilityType `json:"ability_type"`
	Effect             Effect      `json:"effect"`
	// Universal abilities boost XP for every class, not just their own.
	Universal bool `json:"universal"`
}

// UserAbility is one unlocked ability with its equip state.
type UserAbility struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	AbilityID  uuid.UUID `json:"ability_id"`
	Equipped   bool      `json:"equipped"`
	UnlockedAt time.Time `json:"unlocked_at"`
	Ability    Ability   `json:"ability"`
}

// WorkoutCounts are per-category completed workout totals for one user.
// Flexibility combines the flexibility, yoga and stretching categories.
type WorkoutCounts struct {
	Strength    int `json:"strength"`
	Cardio      int `json:"cardio"`
	Endurance   int `json:"endurance"`
	Flexibility int `json:"flexibility"`
	Total       int `json:"total"`
}

// RelevantCount selects the workout count that gates a class's unlocks.
func RelevantCount(class Class, counts WorkoutCounts) int {
	switch class {
	case ClassWarrior:
		return counts.Strength
	case ClassScout:
		return counts.Cardio
	case ClassEnduranceAthlete:
		return counts.Endurance
	case ClassMonk:
		return counts.Flexibility
	default:
		return counts.Total
	}
}

// UnlockDecision is one newly qualified ability and its initial equip state.
type UnlockDecision struct {
	Ability  Ability `json:"ability"`
	Equipped bool    `json:"equipped"`
}

// EvaluateUnlocks returns the abilities of the given class that newly qualify
// for a character at the given level, in catalog order. Both thresholds must
// hold. Abilities already in owned are skipped, so a second call with owned
// updated from the first call's output yields nothing. Passives are marked
// equipped at unlock.
func EvaluateUnlocks(class Class, level int, counts WorkoutCounts, catalog []Ability, owned map[uuid.UUID]bool) []UnlockDecision {
	relevant := RelevantCount(class, counts)
	decisions := make([]UnlockDecision, 0)
	for _, a := range catalog {
		if a.ClassType != class && !a.Universal {
			continue
		}
		// Universal abilities gate on total workouts, not the class metric.
		progress := relevant
		if a.Universal {
			progress = counts.Total
		}
		if progress < a.UnlockWorkoutCount || level < a.UnlockLevel {
			continue
		}
		if owned[a.ID] {
			continue
		}
		decisions = append(decisions, UnlockDecision{
			Ability:  a,
			Equipped: a.AbilityType == AbilityPassive,
		})
	}
	return decisions
}
