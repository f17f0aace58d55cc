package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"fitquest-server/internal/domain/character"
	"fitquest-server/internal/domain/progression"
	"fitquest-server/internal/platform/mq"
)

var (
	ErrNotFound      = errors.New("character not found")
	ErrAlreadyExists = errors.New("character already exists")
	ErrInvalidClass  = errors.New("invalid class")
)

const characterColumns = `id, user_id, class_type, secondary_class, xp,
strength, agility, endurance, focus, resourcefulness, survival_credits,
created_at, updated_at`

type Service struct {
	db       *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
	pub      mq.Publisher
}

func NewService(db *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration, pub mq.Publisher) *Service {
	return &Service{db: db, cache: cache, cacheTTL: cacheTTL, pub: pub}
}

// Create makes the one character a user gets at onboarding.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, classType, secondaryClass progression.Class) (character.Character, error) {
	if !progression.ValidClass(classType) {
		return character.Character{}, ErrInvalidClass
	}
	if secondaryClass != "" && (!progression.ValidClass(secondaryClass) || secondaryClass == classType) {
		return character.Character{}, ErrInvalidClass
	}
	id := uuid.New()
	row := s.db.QueryRow(ctx, `
INSERT INTO characters (id, user_id, class_type, secondary_class)
VALUES ($1, $2, $3, $4)
RETURNING `+characterColumns, id, userID, classType, secondaryClass)
	c, err := scanCharacter(row)
	if err != nil {
		if isDuplicate(err) {
			return character.Character{}, ErrAlreadyExists
		}
		return character.Character{}, fmt.Errorf("insert character: %w", err)
	}
	s.invalidate(ctx, userID)
	_ = s.publishEvent(ctx, "character.created", map[string]any{"character_id": c.ID, "user_id": c.UserID, "class_type": c.ClassType})
	return c, nil
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (character.Character, error) {
	key := s.cacheKey(userID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var c character.Character
			if uErr := json.Unmarshal([]byte(cached), &c); uErr == nil {
				return c, nil
			}
		}
	}

	row := s.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE user_id = $1`, userID)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return character.Character{}, ErrNotFound
		}
		return character.Character{}, fmt.Errorf("query character: %w", err)
	}
	if s.cache != nil {
		if b, err := json.Marshal(c); err == nil {
			_ = s.cache.Set(ctx, key, b, s.cacheTTL).Err()
		}
	}
	return c, nil
}

// AddXP applies an XP gain as a single atomic increment so concurrent
// completions cannot lose updates. Returns the updated character.
func (s *Service) AddXP(ctx context.Context, userID uuid.UUID, delta int) (character.Character, error) {
	if delta < 0 {
		return character.Character{}, fmt.Errorf("xp delta must be non-negative")
	}
	row := s.db.QueryRow(ctx, `
UPDATE characters SET xp = xp + $1, updated_at = NOW()
WHERE user_id = $2
RETURNING `+characterColumns, delta, userID)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return character.Character{}, ErrNotFound
		}
		return character.Character{}, fmt.Errorf("add xp: %w", err)
	}
	s.invalidate(ctx, userID)
	return c, nil
}

// IncrementStats applies attribute gains atomically.
func (s *Service) IncrementStats(ctx context.Context, userID uuid.UUID, d progression.StatDeltas) error {
	if d.IsZero() {
		return nil
	}
	res, err := s.db.Exec(ctx, `
UPDATE characters SET
    strength = strength + $1,
    agility = agility + $2,
    endurance = endurance + $3,
    focus = focus + $4,
    resourcefulness = resourcefulness + $5,
    updated_at = NOW()
WHERE user_id = $6
`, d.Strength, d.Agility, d.Endurance, d.Focus, d.Resourcefulness, userID)
	if err != nil {
		return fmt.Errorf("increment stats: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, userID)
	return nil
}

// GrantReward adds flat quest XP and credits. No multipliers apply here.
func (s *Service) GrantReward(ctx context.Context, userID uuid.UUID, xp, credits int) error {
	res, err := s.db.Exec(ctx, `
UPDATE characters SET
    xp = xp + $1,
    survival_credits = survival_credits + $2,
    updated_at = NOW()
WHERE user_id = $3
`, xp, credits, userID)
	if err != nil {
		return fmt.Errorf("grant reward: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) PublishLevelUp(ctx context.Context, userID uuid.UUID, newLevel int) {
	_ = s.publishEvent(ctx, "character.level_up", map[string]any{"user_id": userID, "new_level": newLevel})
}

func (s *Service) cacheKey(userID uuid.UUID) string {
	return "character:user:" + userID.String()
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cacheKey(userID)).Err()
}

func (s *Service) publishEvent(ctx context.Context, subject string, payload any) error {
	if s.pub == nil {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.pub.Publish(ctx, subject, b)
}

func scanCharacter(row pgx.Row) (character.Character, error) {
	var c character.Character
	err := row.Scan(&c.ID, &c.UserID, &c.ClassType, &c.SecondaryClass, &c.XP,
		&c.Strength, &c.Agility, &c.Endurance, &c.Focus, &c.Resourcefulness,
		&c.SurvivalCredits, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate")
}
