package character

import (
	"time"

	"github.com/google/uuid"

	"fitquest-server/internal/domain/progression"
)

// Character is a user's role-playing avatar. One per user, created at
// onboarding. Level is always derived from XP, never stored.
type Character struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	ClassType       progression.Class `json:"class_type"`
	SecondaryClass  progression.Class `json:"secondary_class,omitempty"`
	XP              int               `json:"xp"`
	Strength        int               `json:"strength"`
	Agility         int               `json:"agility"`
	Endurance       int               `json:"endurance"`
	Focus           int               `json:"focus"`
	Resourcefulness int               `json:"resourcefulness"`
	SurvivalCredits int               `json:"survival_credits"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (c Character) Level() int {
	return progression.LevelFor(c.XP)
}

func (c Character) XPForNextLevel() int {
	return progression.XPForNextLevel(c.XP)
}

func (c Character) XPProgressPercent() float64 {
	return progression.ProgressPercent(c.XP)
}
