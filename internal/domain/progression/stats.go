package progression

import (
	"strings"

	"fitquest-server/internal/domain/workout"
)

// StatDeltas are non-negative increments to the five character attributes.
type StatDeltas struct {
	Strength        int `json:"strength"`
	Agility         int `json:"agility"`
	Endurance       int `json:"endurance"`
	Focus           int `json:"focus"`
	Resourcefulness int `json:"resourcefulness"`
}

func (d StatDeltas) Add(o StatDeltas) StatDeltas {
	return StatDeltas{
		Strength:        d.Strength + o.Strength,
		Agility:         d.Agility + o.Agility,
		Endurance:       d.Endurance + o.Endurance,
		Focus:           d.Focus + o.Focus,
		Resourcefulness: d.Resourcefulness + o.Resourcefulness,
	}
}

func (d StatDeltas) IsZero() bool {
	return d == StatDeltas{}
}

type statRule struct {
	match func(category, muscle, name string) bool
	delta StatDeltas
}

// Classification is an explicit ordered rule list; each exercise lands in the
// first matching bucket. The final rule is a catch-all so unrecognized
// activity never errors.
var statRules = []statRule{
	{
		match: func(category, muscle, _ string) bool {
			return category == "strength" || inSet(muscle, "chest", "back", "legs", "shoulders", "arms")
		},
		delta: StatDeltas{Strength: 3, Endurance: 1},
	},
	{
		match: func(category, muscle, _ string) bool {
			return category == "cardio" || muscle == "cardiovascular"
		},
		delta: StatDeltas{Agility: 3, Endurance: 2},
	},
	{
		match: func(category, _, name string) bool {
			return strings.Contains(name, "cycling") || strings.Contains(name, "rowing") ||
				strings.Contains(name, "erg") || category == "endurance"
		},
		delta: StatDeltas{Endurance: 3, Agility: 1, Strength: 1},
	},
	{
		match: func(category, _, _ string) bool {
			return inSet(category, "yoga", "pilates", "stretching", "flexibility")
		},
		delta: StatDeltas{Focus: 3, Agility: 2},
	},
	{
		match: func(_, _, _ string) bool { return true },
		delta: StatDeltas{Resourcefulness: 1},
	},
}

// MapStats derives attribute increments from a workout's exercises. The sum is
// order independent: each exercise contributes to exactly one bucket.
func MapStats(exercises []workout.Exercise) StatDeltas {
	var total StatDeltas
	for _, ex := range exercises {
		category := strings.ToLower(ex.Category)
		muscle := strings.ToLower(ex.PrimaryMuscleGroup)
		name := strings.ToLower(ex.Name)
		for _, rule := range statRules {
			if rule.match(category, muscle, name) {
				total = total.Add(rule.delta)
				break
			}
		}
	}
	return total
}

func inSet(v string, set ...string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
