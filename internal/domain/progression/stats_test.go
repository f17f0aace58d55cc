package progression

import (
	"math/rand"
	"testing"

	"fitquest-server/internal/domain/workout"
)

func TestMapStatsBuckets(t *testing.T) {
	got := MapStats([]workout.Exercise{
		{Name: "Bench Press", Category: "strength", PrimaryMuscleGroup: "chest"},
		{Name: "Sun Salutation", Category: "yoga"},
	})
	want := StatDeltas{Strength: 3, Endurance: 1, Focus: 3, Agility: 2}
	if got != want {
		t.Fatalf("MapStats = %+v, want %+v", got, want)
	}
}

func TestMapStatsMuscleGroupRoutesToStrength(t *testing.T) {
	got := MapStats([]workout.Exercise{{Name: "Squat", Category: "legs day", PrimaryMuscleGroup: "legs"}})
	want := StatDeltas{Strength: 3, Endurance: 1}
	if got != want {
		t.Fatalf("MapStats = %+v, want %+v", got, want)
	}
}

func TestMapStatsEnduranceByName(t *testing.T) {
	got := MapStats([]workout.Exercise{{Name: "Indoor Cycling", Category: "machine"}})
	want := StatDeltas{Endurance: 3, Agility: 1, Strength: 1}
	if got != want {
		t.Fatalf("MapStats = %+v, want %+v", got, want)
	}
}

func TestMapStatsCatchAll(t *testing.T) {
	got := MapStats([]workout.Exercise{
		{Name: "Juggling"},
		{Name: "Tree Climbing", Category: "adventure"},
	})
	want := StatDeltas{Resourcefulness: 2}
	if got != want {
		t.Fatalf("MapStats = %+v, want %+v", got, want)
	}
}

func TestMapStatsOrderIndependent(t *testing.T) {
	exercises := []workout.Exercise{
		{Name: "Deadlift", Category: "strength", PrimaryMuscleGroup: "back"},
		{Name: "Sprints", Category: "cardio"},
		{Name: "Rowing Machine", Category: "machine"},
		{Name: "Pilates Flow", Category: "pilates"},
		{Name: "Juggling"},
	}
	want := MapStats(exercises)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]workout.Exercise(nil), exercises...)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := MapStats(shuffled); got != want {
			t.Fatalf("permutation %d: MapStats = %+v, want %+v", i, got, want)
		}
	}
}

func TestMapStatsEmpty(t *testing.T) {
	if got := MapStats(nil); !got.IsZero() {
		t.Fatalf("MapStats(nil) = %+v, want zero", got)
	}
}
