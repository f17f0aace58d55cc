package ability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitquest-server/internal/domain/character"
	"fitquest-server/internal/domain/progression"
	"fitquest-server/internal/platform/mq"
)

var (
	ErrNotFound       = errors.New("ability not found")
	ErrNotUnlocked    = errors.New("ability not unlocked")
	ErrPassiveAbility = errors.New("passive abilities stay equipped")
)

const abilityColumns = `id, name, description, class_type, tier,
unlock_workout_count, unlock_level, ability_type,
effect_kind, effect_value, effect_condition, effect_threshold, effect_mode, universal`

type Service struct {
	db  *pgxpool.Pool
	pub mq.Publisher
}

func NewService(db *pgxpool.Pool, pub mq.Publisher) *Service {
	return &Service{db: db, pub: pub}
}

// CatalogForClasses returns the static catalog entries for the given classes,
// in catalog order (tier, then unlock level).
func (s *Service) CatalogForClasses(ctx context.Context, classes []progression.Class) ([]progression.Ability, error) {
	if len(classes) == 0 {
		return []progression.Ability{}, nil
	}
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		if c != "" {
			names = append(names, string(c))
		}
	}
	rows, err := s.db.Query(ctx, `
SELECT `+abilityColumns+`
FROM abilities
WHERE class_type = ANY($1) OR universal = true
ORDER BY tier ASC, unlock_level ASC, name ASC
`, names)
	if err != nil {
		return nil, fmt.Errorf("query abilities: %w", err)
	}
	defer rows.Close()
	return collectAbilities(rows)
}

// UnlockedByUser returns the user's unlocked abilities with their catalog rows.
func (s *Service) UnlockedByUser(ctx context.Context, userID uuid.UUID) ([]progression.UserAbility, error) {
	rows, err := s.db.Query(ctx, `
SELECT ua.id, ua.user_id, ua.ability_id, ua.equipped, ua.unlocked_at,
       a.id, a.name, a.description, a.class_type, a.tier,
       a.unlock_workout_count, a.unlock_level, a.ability_type,
       a.effect_kind, a.effect_value, a.effect_condition, a.effect_threshold, a.effect_mode, a.universal
FROM user_abilities ua
JOIN abilities a ON a.id = ua.ability_id
WHERE ua.user_id = $1
ORDER BY a.tier ASC, a.unlock_level ASC, a.name ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user abilities: %w", err)
	}
	defer rows.Close()

	items := make([]progression.UserAbility, 0)
	for rows.Next() {
		var ua progression.UserAbility
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AbilityID, &ua.Equipped, &ua.UnlockedAt,
			&ua.Ability.ID, &ua.Ability.Name, &ua.Ability.Description, &ua.Ability.ClassType, &ua.Ability.Tier,
			&ua.Ability.UnlockWorkoutCount, &ua.Ability.UnlockLevel, &ua.Ability.AbilityType,
			&ua.Ability.Effect.Kind, &ua.Ability.Effect.Magnitude, &ua.Ability.Effect.Condition,
			&ua.Ability.Effect.Threshold, &ua.Ability.Effect.Mode, &ua.Ability.Universal); err != nil {
			return nil, fmt.Errorf("scan user ability: %w", err)
		}
		items = append(items, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user abilities: %w", err)
	}
	return items, nil
}

// EquippedByUser returns only the catalog rows of equipped abilities, which
// is what the XP calculator consumes.
func (s *Service) EquippedByUser(ctx context.Context, userID uuid.UUID) ([]progression.Ability, error) {
	rows, err := s.db.Query(ctx, `
SELECT a.id, a.name, a.description, a.class_type, a.tier,
       a.unlock_workout_count, a.unlock_level, a.ability_type,
       a.effect_kind, a.effect_value, a.effect_condition, a.effect_threshold, a.effect_mode, a.universal
FROM user_abilities ua
JOIN abilities a ON a.id = ua.ability_id
WHERE ua.user_id = $1 AND ua.equipped = true
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query equipped abilities: %w", err)
	}
	defer rows.Close()
	return collectAbilities(rows)
}

// CheckUnlocks evaluates unlock eligibility for the character's primary and
// secondary classes and persists any new unlocks. The unique constraint on
// (user_id, ability_id) backs the evaluator's idempotence against races.
func (s *Service) CheckUnlocks(ctx context.Context, char character.Character, counts progression.WorkoutCounts) ([]progression.Ability, error) {
	classes := []progression.Class{char.ClassType}
	if char.SecondaryClass != "" {
		classes = append(classes, char.SecondaryClass)
	}
	catalog, err := s.CatalogForClasses(ctx, classes)
	if err != nil {
		return nil, err
	}
	owned, err := s.ownedSet(ctx, char.UserID)
	if err != nil {
		return nil, err
	}

	level := char.Level()
	decisions := progression.EvaluateUnlocks(char.ClassType, level, counts, catalog, owned)
	for _, d := range decisions {
		owned[d.Ability.ID] = true
	}
	if char.SecondaryClass != "" {
		decisions = append(decisions, progression.EvaluateUnlocks(char.SecondaryClass, level, counts, catalog, owned)...)
	}

	unlocked := make([]progression.Ability, 0, len(decisions))
	for _, d := range decisions {
		res, err := s.db.Exec(ctx, `
INSERT INTO user_abilities (id, user_id, ability_id, equipped)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, ability_id) DO NOTHING
`, uuid.New(), char.UserID, d.Ability.ID, d.Equipped)
		if err != nil {
			return unlocked, fmt.Errorf("insert unlock %s: %w", d.Ability.Name, err)
		}
		if res.RowsAffected() == 0 {
			continue
		}
		unlocked = append(unlocked, d.Ability)
		_ = s.publishEvent(ctx, "ability.unlocked", map[string]any{
			"user_id":    char.UserID,
			"ability_id": d.Ability.ID,
			"name":       d.Ability.Name,
		})
	}
	return unlocked, nil
}

// ToggleEquip flips the equip flag of an unlocked active or ultimate ability.
// Passives are auto-equipped at unlock and cannot be toggled.
func (s *Service) ToggleEquip(ctx context.Context, userID, abilityID uuid.UUID) (progression.UserAbility, error) {
	var abilityType progression.AbilityType
	err := s.db.QueryRow(ctx, `SELECT ability_type FROM abilities WHERE id = $1`, abilityID).Scan(&abilityType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progression.UserAbility{}, ErrNotFound
		}
		return progression.UserAbility{}, fmt.Errorf("query ability: %w", err)
	}
	if abilityType == progression.AbilityPassive {
		return progression.UserAbility{}, ErrPassiveAbility
	}

	res, err := s.db.Exec(ctx, `
UPDATE user_abilities SET equipped = NOT equipped
WHERE user_id = $1 AND ability_id = $2
`, userID, abilityID)
	if err != nil {
		return progression.UserAbility{}, fmt.Errorf("toggle equip: %w", err)
	}
	if res.RowsAffected() == 0 {
		return progression.UserAbility{}, ErrNotUnlocked
	}

	items, err := s.UnlockedByUser(ctx, userID)
	if err != nil {
		return progression.UserAbility{}, err
	}
	for _, ua := range items {
		if ua.AbilityID == abilityID {
			return ua, nil
		}
	}
	return progression.UserAbility{}, ErrNotUnlocked
}

func (s *Service) ownedSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.db.Query(ctx, `SELECT ability_id FROM user_abilities WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query owned abilities: %w", err)
	}
	defer rows.Close()

	owned := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owned ability: %w", err)
		}
		owned[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned abilities: %w", err)
	}
	return owned, nil
}

func collectAbilities(rows pgx.Rows) ([]progression.Ability, error) {
	abilities := make([]progression.Ability, 0)
	for rows.Next() {
		var a progression.Ability
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.ClassType, &a.Tier,
			&a.UnlockWorkoutCount, &a.UnlockLevel, &a.AbilityType,
			&a.Effect.Kind, &a.Effect.Magnitude, &a.Effect.Condition,
			&a.Effect.Threshold, &a.Effect.Mode, &a.Universal); err != nil {
			return nil, fmt.Errorf("scan ability: %w", err)
		}
		abilities = append(abilities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate abilities: %w", err)
	}
	return abilities, nil
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
