package workout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Exercise is one constituent exercise of a completed workout, as reported
// by the client. Exercises are identified by name; there is no server-side
// exercise catalog.
type Exercise struct {
	Name               string `json:"name"`
	Category           string `json:"category"`
	PrimaryMuscleGroup string `json:"primary_muscle_group"`
}

// SetEntry records the sets a user performed for one exercise in a session.
type SetEntry struct {
	ExerciseName  string    `json:"exercise_name"`
	Category      string    `json:"category"`
	MuscleGroup   string    `json:"muscle_group"`
	SetsCompleted int       `json:"sets_completed"`
	Reps          []int64   `json:"reps"`
	Weights       []float64 `json:"weights"`
}

// CompletionEvent is the message that triggers the progression flow.
// It is not persisted as-is; the log and session rows derived from it are.
type CompletionEvent struct {
	DurationMinutes int        `json:"duration_minutes"`
	Category        string     `json:"category"`
	Exercises       []Exercise `json:"exercises"`
	Sets            []SetEntry `json:"sets,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// Normalize clamps a negative duration to zero and lowercases category tags.
// A missing category is kept as the empty string so the stat mapper routes it
// to the catch-all bucket.
func (e *CompletionEvent) Normalize() {
	if e.DurationMinutes < 0 {
		e.DurationMinutes = 0
	}
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	for i := range e.Exercises {
		e.Exercises[i].Name = strings.TrimSpace(e.Exercises[i].Name)
		e.Exercises[i].Category = strings.ToLower(strings.TrimSpace(e.Exercises[i].Category))
		e.Exercises[i].PrimaryMuscleGroup = strings.ToLower(strings.TrimSpace(e.Exercises[i].PrimaryMuscleGroup))
	}
}

// Validate rejects structurally invalid events. Unknown categories are not an
// error; they fall through to defined catch-all behavior downstream.
func (e CompletionEvent) Validate() error {
	for i, ex := range e.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return fmt.Errorf("exercise %d: name required", i)
		}
	}
	for i, set := range e.Sets {
		if strings.TrimSpace(set.ExerciseName) == "" {
			return fmt.Errorf("set entry %d: exercise_name required", i)
		}
		if len(set.Reps) != len(set.Weights) {
			return fmt.Errorf("set entry %d: reps and weights length mismatch", i)
		}
	}
	return nil
}

// Log is a persisted workout completion.
type Log struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Category        string    `json:"category"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes,omitempty"`
	LoggedAt        time.Time `json:"logged_at"`
}

// Record types for personal bests.
const (
	RecordMaxWeight = "max_weight"
	RecordMaxReps   = "max_reps"
)

// PersonalRecord is a user's best value for one exercise and record type.
type PersonalRecord struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	ExerciseName  string    `json:"exercise_name"`
	RecordType    string    `json:"record_type"`
	Value         float64   `json:"value"`
	PreviousValue float64   `json:"previous_value,omitempty"`
	AchievedAt    time.Time `json:"achieved_at"`
}
