package progression

import (
	"testing"

	"github.com/google/uuid"
)

func catalogAbility(name string, class Class, tier, count, level int, abilityType AbilityType) Ability {
	return Ability{
		ID:                 uuid.New(),
		Name:               name,
		ClassType:          class,
		Tier:               tier,
		UnlockWorkoutCount: count,
		UnlockLevel:        level,
		AbilityType:        abilityType,
		Effect:             Effect{Kind: EffectXPBoost, Magnitude: 0.1},
	}
}

func TestEvaluateUnlocksBothThresholdsRequired(t *testing.T) {
	a := catalogAbility("Iron Grip", ClassWarrior, 1, 10, 5, AbilityPassive)
	catalog := []Ability{a}
	counts := WorkoutCounts{Strength: 9}

	if got := EvaluateUnlocks(ClassWarrior, 5, counts, catalog, nil); len(got) != 0 {
		t.Fatalf("count below threshold: unlocked %d abilities, want 0", len(got))
	}
	counts.Strength = 10
	if got := EvaluateUnlocks(ClassWarrior, 4, counts, catalog, nil); len(got) != 0 {
		t.Fatalf("level below threshold: unlocked %d abilities, want 0", len(got))
	}
	got := EvaluateUnlocks(ClassWarrior, 5, counts, catalog, nil)
	if len(got) != 1 || got[0].Ability.ID != a.ID {
		t.Fatalf("both thresholds met: got %+v, want %s", got, a.Name)
	}
}

func TestEvaluateUnlocksIdempotent(t *testing.T) {
	catalog := []Ability{
		catalogAbility("Iron Grip", ClassWarrior, 1, 1, 1, AbilityPassive),
		catalogAbility("War Cry", ClassWarrior, 2, 5, 5, AbilityActive),
	}
	counts := WorkoutCounts{Strength: 20}

	owned := map[uuid.UUID]bool{}
	first := EvaluateUnlocks(ClassWarrior, 10, counts, catalog, owned)
	if len(first) != 2 {
		t.Fatalf("first pass unlocked %d, want 2", len(first))
	}
	for _, d := range first {
		owned[d.Ability.ID] = true
	}
	second := EvaluateUnlocks(ClassWarrior, 10, counts, catalog, owned)
	if len(second) != 0 {
		t.Fatalf("second pass unlocked %d, want 0", len(second))
	}
}

func TestEvaluateUnlocksPassiveAutoEquip(t *testing.T) {
	catalog := []Ability{
		catalogAbility("Iron Grip", ClassWarrior, 1, 1, 1, AbilityPassive),
		catalogAbility("War Cry", ClassWarrior, 1, 1, 1, AbilityActive),
		catalogAbility("Titan Form", ClassWarrior, 1, 1, 1, AbilityUltimate),
	}
	got := EvaluateUnlocks(ClassWarrior, 1, WorkoutCounts{Strength: 1}, catalog, nil)
	if len(got) != 3 {
		t.Fatalf("unlocked %d, want 3", len(got))
	}
	for _, d := range got {
		wantEquipped := d.Ability.AbilityType == AbilityPassive
		if d.Equipped != wantEquipped {
			t.Fatalf("%s: equipped=%v, want %v", d.Ability.Name, d.Equipped, wantEquipped)
		}
	}
}

func TestEvaluateUnlocksClassFilter(t *testing.T) {
	catalog := []Ability{
		catalogAbility("Iron Grip", ClassWarrior, 1, 1, 1, AbilityPassive),
		catalogAbility("Fleet Foot", ClassScout, 1, 1, 1, AbilityPassive),
	}
	counts := WorkoutCounts{Strength: 5, Cardio: 5, Total: 10}
	got := EvaluateUnlocks(ClassScout, 3, counts, catalog, nil)
	if len(got) != 1 || got[0].Ability.ClassType != ClassScout {
		t.Fatalf("got %+v, want only the scout ability", got)
	}
}

func TestEvaluateUnlocksUniversalGatesOnTotal(t *testing.T) {
	universal := catalogAbility("Adapt", "any", 1, 10, 1, AbilityPassive)
	universal.Universal = true
	catalog := []Ability{universal}

	counts := WorkoutCounts{Strength: 2, Total: 9}
	if got := EvaluateUnlocks(ClassWarrior, 5, counts, catalog, nil); len(got) != 0 {
		t.Fatalf("total below threshold: unlocked %d, want 0", len(got))
	}
	counts.Total = 10
	got := EvaluateUnlocks(ClassWarrior, 5, counts, catalog, nil)
	if len(got) != 1 || got[0].Ability.ID != universal.ID {
		t.Fatalf("got %+v, want the universal ability", got)
	}
}

func TestRelevantCountByClass(t *testing.T) {
	counts := WorkoutCounts{Strength: 1, Cardio: 2, Endurance: 3, Flexibility: 4, Total: 10}
	cases := []struct {
		class Class
		want  int
	}{
		{ClassWarrior, 1},
		{ClassScout, 2},
		{ClassEnduranceAthlete, 3},
		{ClassMonk, 4},
		{ClassHybrid, 10},
		{ClassSurvivor, 10},
	}
	for _, c := range cases {
		if got := RelevantCount(c.class, counts); got != c.want {
			t.Fatalf("RelevantCount(%s) = %d, want %d", c.class, got, c.want)
		}
	}
}

func TestEvaluateUnlocksSecondaryClassSeparate(t *testing.T) {
	warrior := catalogAbility("Iron Grip", ClassWarrior, 1, 1, 1, AbilityPassive)
	scout := catalogAbility("Fleet Foot", ClassScout, 1, 1, 1, AbilityPassive)
	catalog := []Ability{warrior, scout}
	counts := WorkoutCounts{Strength: 5, Cardio: 5, Total: 10}

	owned := map[uuid.UUID]bool{}
	primary := EvaluateUnlocks(ClassWarrior, 3, counts, catalog, owned)
	for _, d := range primary {
		owned[d.Ability.ID] = true
	}
	secondary := EvaluateUnlocks(ClassScout, 3, counts, catalog, owned)

	if len(primary) != 1 || primary[0].Ability.ID != warrior.ID {
		t.Fatalf("primary pass: got %+v", primary)
	}
	if len(secondary) != 1 || secondary[0].Ability.ID != scout.ID {
		t.Fatalf("secondary pass: got %+v", secondary)
	}
}
