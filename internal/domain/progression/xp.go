package progression

import "math"

// Streak bonus thresholds, applied multiplicatively after ability effects.
const (
	streakBonusDays     = 7
	streakBonusBigDays  = 30
	streakBonusFactor   = 1.5
	streakBonusBigRatio = 2.0
)

// AwardInput carries everything the XP calculation needs. The caller supplies
// fresh character and ability state; the calculation itself performs no I/O.
type AwardInput struct {
	DurationMinutes int
	CharacterXP     int
	Class           Class
	Equipped        []Ability
	StreakDays      int
}

// AwardResult reports the outcome of one workout's XP award.
type AwardResult struct {
	XPGained  int  `json:"xp_gained"`
	NewXP     int  `json:"new_xp"`
	OldLevel  int  `json:"old_level"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

// ComputeAward calculates XP for a completed workout. Base XP is ten per
// minute. Equipped XP boosts stack additively onto the multiplier; a
// conditional effect in replace mode overrides it. The streak bonus then
// multiplies the result. Persisting NewXP is the caller's responsibility.
func ComputeAward(in AwardInput) AwardResult {
	duration := in.DurationMinutes
	if duration < 0 {
		duration = 0
	}
	baseXP := duration * 10

	multiplier := 1.0
	for _, a := range in.Equipped {
		switch a.Effect.Kind {
		case EffectXPBoost:
			if a.ClassType == in.Class || a.Universal {
				multiplier += a.Effect.Magnitude
			}
		case EffectConditionalMultiplier:
			if !conditionHolds(a.Effect, duration, in.StreakDays) {
				continue
			}
			if a.Effect.Mode == ModeReplace {
				multiplier = a.Effect.Magnitude
			} else {
				multiplier += a.Effect.Magnitude
			}
		}
	}

	switch {
	case in.StreakDays >= streakBonusBigDays:
		multiplier *= streakBonusBigRatio
	case in.StreakDays >= streakBonusDays:
		multiplier *= streakBonusFactor
	}

	gained := int(math.Floor(float64(baseXP) * multiplier))
	oldLevel := LevelFor(in.CharacterXP)
	newXP := in.CharacterXP + gained
	newLevel := LevelFor(newXP)

	return AwardResult{
		XPGained:  gained,
		NewXP:     newXP,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		LeveledUp: newLevel > oldLevel,
	}
}

func conditionHolds(e Effect, durationMinutes, streakDays int) bool {
	switch e.Condition {
	case ConditionStreakDays:
		return streakDays >= e.Threshold
	case ConditionDurationMinutes:
		return durationMinutes >= e.Threshold
	default:
		return false
	}
}
