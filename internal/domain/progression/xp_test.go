package progression

import (
	"testing"

	"github.com/google/uuid"
)

func boostAbility(class Class, magnitude float64, universal bool) Ability {
	return Ability{
		ID:        uuid.New(),
		Name:      "boost",
		ClassType: class,
		Effect:    Effect{Kind: EffectXPBoost, Magnitude: magnitude},
		Universal: universal,
	}
}

func TestComputeAwardBase(t *testing.T) {
	res := ComputeAward(AwardInput{DurationMinutes: 45, Class: ClassWarrior})
	if res.XPGained != 450 {
		t.Fatalf("XPGained = %d, want 450", res.XPGained)
	}
	if res.LeveledUp != true {
		t.Fatalf("expected level up from 0 xp with 450 gained")
	}
}

func TestComputeAwardStreakBonus(t *testing.T) {
	res := ComputeAward(AwardInput{DurationMinutes: 45, Class: ClassWarrior, StreakDays: 10})
	if res.XPGained != 675 {
		t.Fatalf("XPGained = %d, want 675", res.XPGained)
	}

	res = ComputeAward(AwardInput{DurationMinutes: 45, Class: ClassWarrior, StreakDays: 30})
	if res.XPGained != 900 {
		t.Fatalf("XPGained with 30-day streak = %d, want 900", res.XPGained)
	}
}

func TestComputeAwardZeroDuration(t *testing.T) {
	res := ComputeAward(AwardInput{DurationMinutes: 0, CharacterXP: 500, Class: ClassScout, StreakDays: 40})
	if res.XPGained != 0 || res.LeveledUp {
		t.Fatalf("zero duration: got %+v, want no xp and no level change", res)
	}
	if res.NewLevel != res.OldLevel {
		t.Fatalf("zero duration changed level: %+v", res)
	}
}

func TestComputeAwardNegativeDurationClamped(t *testing.T) {
	res := ComputeAward(AwardInput{DurationMinutes: -10, Class: ClassScout})
	if res.XPGained != 0 {
		t.Fatalf("negative duration: XPGained = %d, want 0", res.XPGained)
	}
}

func TestComputeAwardTierCrossing(t *testing.T) {
	// 995 -> 1005 crosses into the 250-step tier; the new level must use the
	// new tier's formula.
	res := ComputeAward(AwardInput{DurationMinutes: 1, CharacterXP: 995, Class: ClassWarrior})
	if res.NewXP != 1005 {
		t.Fatalf("NewXP = %d, want 1005", res.NewXP)
	}
	if res.OldLevel != 10 || res.NewLevel != 11 || !res.LeveledUp {
		t.Fatalf("tier crossing: got %+v, want old=10 new=11 leveled up", res)
	}
}

func TestComputeAwardClassBoost(t *testing.T) {
	in := AwardInput{
		DurationMinutes: 30,
		Class:           ClassWarrior,
		Equipped: []Ability{
			boostAbility(ClassWarrior, 0.2, false),
			boostAbility(ClassScout, 0.5, false), // wrong class, ignored
		},
	}
	res := ComputeAward(in)
	if res.XPGained != 360 {
		t.Fatalf("XPGained = %d, want 360 (300 * 1.2)", res.XPGained)
	}
}

func TestComputeAwardUniversalBoost(t *testing.T) {
	in := AwardInput{
		DurationMinutes: 30,
		Class:           ClassMonk,
		Equipped:        []Ability{boostAbility(ClassHybrid, 0.1, true)},
	}
	res := ComputeAward(in)
	if res.XPGained != 330 {
		t.Fatalf("XPGained = %d, want 330 (300 * 1.1)", res.XPGained)
	}
}

func TestComputeAwardBoostsStackAdditively(t *testing.T) {
	in := AwardInput{
		DurationMinutes: 10,
		Class:           ClassWarrior,
		Equipped: []Ability{
			boostAbility(ClassWarrior, 0.2, false),
			boostAbility(ClassWarrior, 0.3, false),
		},
	}
	res := ComputeAward(in)
	if res.XPGained != 150 {
		t.Fatalf("XPGained = %d, want 150 (100 * 1.5)", res.XPGained)
	}
}

func TestComputeAwardStreakGatedMultiplier(t *testing.T) {
	berserker := Ability{
		ID:        uuid.New(),
		Name:      "Berserker",
		ClassType: ClassWarrior,
		Effect: Effect{
			Kind:      EffectConditionalMultiplier,
			Magnitude: 0.5,
			Condition: ConditionStreakDays,
			Threshold: 7,
			Mode:      ModeAdd,
		},
	}

	// Below the streak threshold the effect is inert; 6-day streaks also miss
	// the streak bonus, so multiplier stays 1.0.
	res := ComputeAward(AwardInput{DurationMinutes: 10, Class: ClassWarrior, Equipped: []Ability{berserker}, StreakDays: 6})
	if res.XPGained != 100 {
		t.Fatalf("below threshold: XPGained = %d, want 100", res.XPGained)
	}

	// At 7 days the effect adds 0.5 and the 1.5x streak bonus multiplies it.
	res = ComputeAward(AwardInput{DurationMinutes: 10, Class: ClassWarrior, Equipped: []Ability{berserker}, StreakDays: 7})
	if res.XPGained != 225 {
		t.Fatalf("at threshold: XPGained = %d, want 225 (100 * 1.5 * 1.5)", res.XPGained)
	}
}

func TestComputeAwardDurationGatedReplaces(t *testing.T) {
	will := Ability{
		ID:        uuid.New(),
		Name:      "Unbreakable Will",
		ClassType: ClassEnduranceAthlete,
		Effect: Effect{
			Kind:      EffectConditionalMultiplier,
			Magnitude: 2.0,
			Condition: ConditionDurationMinutes,
			Threshold: 45,
			Mode:      ModeReplace,
		},
	}
	boost := boostAbility(ClassEnduranceAthlete, 0.3, false)

	// The replace-mode effect overrides the boosted multiplier, it does not
	// stack onto it.
	res := ComputeAward(AwardInput{DurationMinutes: 45, Class: ClassEnduranceAthlete, Equipped: []Ability{boost, will}})
	if res.XPGained != 900 {
		t.Fatalf("XPGained = %d, want 900 (450 * 2.0 replace)", res.XPGained)
	}

	// Below 45 minutes the condition fails and only the boost applies.
	res = ComputeAward(AwardInput{DurationMinutes: 30, Class: ClassEnduranceAthlete, Equipped: []Ability{boost, will}})
	if res.XPGained != 390 {
		t.Fatalf("XPGained = %d, want 390 (300 * 1.3)", res.XPGained)
	}
}
