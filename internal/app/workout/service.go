package workout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitquest-server/internal/domain/progression"
	"fitquest-server/internal/domain/workout"
)

var ErrUserNotFound = errors.New("user not found")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// Log persists a workout completion and returns the stored row.
func (s *Service) Log(ctx context.Context, userID uuid.UUID, ev workout.CompletionEvent, now time.Time) (workout.Log, error) {
	var l workout.Log
	err := s.db.QueryRow(ctx, `
INSERT INTO workout_logs (id, user_id, category, duration_minutes, notes, logged_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, category, duration_minutes, notes, logged_at
`, uuid.New(), userID, ev.Category, ev.DurationMinutes, ev.Notes, now).
		Scan(&l.ID, &l.UserID, &l.Category, &l.DurationMinutes, &l.Notes, &l.LoggedAt)
	if err != nil {
		return workout.Log{}, fmt.Errorf("insert workout log: %w", err)
	}
	return l, nil
}

// RecordSession stores the per-exercise set data alongside a log.
func (s *Service) RecordSession(ctx context.Context, logID uuid.UUID, sets []workout.SetEntry) error {
	for i, set := range sets {
		_, err := s.db.Exec(ctx, `
INSERT INTO workout_session_exercises (id, log_id, order_index, exercise_name, category, muscle_group, sets_completed, reps, weights)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, uuid.New(), logID, i, set.ExerciseName, set.Category, set.MuscleGroup, set.SetsCompleted, set.Reps, set.Weights)
		if err != nil {
			return fmt.Errorf("insert session exercise %s: %w", set.ExerciseName, err)
		}
	}
	return nil
}

// History returns the most recent workout logs for a user.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]workout.Log, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, category, duration_minutes, notes, logged_at
FROM workout_logs WHERE user_id = $1
ORDER BY logged_at DESC LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query workout logs: %w", err)
	}
	defer rows.Close()

	logs := make([]workout.Log, 0)
	for rows.Next() {
		var l workout.Log
		if err := rows.Scan(&l.ID, &l.UserID, &l.Category, &l.DurationMinutes, &l.Notes, &l.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan workout log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout logs: %w", err)
	}
	return logs, nil
}

// CountsByCategory aggregates completed workout counts per category. The
// flexibility bucket combines flexibility, yoga and stretching.
func (s *Service) CountsByCategory(ctx context.Context, userID uuid.UUID) (progression.WorkoutCounts, error) {
	rows, err := s.db.Query(ctx, `
SELECT LOWER(category), COUNT(*)
FROM workout_logs WHERE user_id = $1
GROUP BY LOWER(category)
`, userID)
	if err != nil {
		return progression.WorkoutCounts{}, fmt.Errorf("query workout counts: %w", err)
	}
	defer rows.Close()

	var counts progression.WorkoutCounts
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return progression.WorkoutCounts{}, fmt.Errorf("scan workout count: %w", err)
		}
		counts.Total += n
		switch category {
		case "strength":
			counts.Strength += n
		case "cardio":
			counts.Cardio += n
		case "endurance":
			counts.Endurance += n
		case "flexibility", "yoga", "stretching":
			counts.Flexibility += n
		}
	}
	if err := rows.Err(); err != nil {
		return progression.WorkoutCounts{}, fmt.Errorf("iterate workout counts: %w", err)
	}
	return counts, nil
}

// UpdateStreak advances the user's consecutive-day streak for a workout on
// the given day: same day keeps it, yesterday extends it, a gap resets to 1.
// Returns the streak after the update.
func (s *Service) UpdateStreak(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	date := day.Format("2006-01-02")
	var current, longest int
	var last *time.Time
	err := s.db.QueryRow(ctx, `
SELECT current_streak, longest_streak, last_workout_date
FROM users WHERE id = $1
`, userID).Scan(&current, &longest, &last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("query streak: %w", err)
	}

	today, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("parse workout date: %w", err)
	}
	switch {
	case last != nil && last.Format("2006-01-02") == date:
		// Second workout today; streak unchanged.
		return current, nil
	case last != nil && last.Format("2006-01-02") == today.AddDate(0, 0, -1).Format("2006-01-02"):
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}

	_, err = s.db.Exec(ctx, `
UPDATE users SET current_streak = $1, longest_streak = $2, last_workout_date = $3
WHERE id = $4
`, current, longest, today, userID)
	if err != nil {
		return 0, fmt.Errorf("update streak: %w", err)
	}
	return current, nil
}

// CurrentStreak reads the user's streak without modifying it.
func (s *Service) CurrentStreak(ctx context.Context, userID uuid.UUID) (int, error) {
	var current int
	err := s.db.QueryRow(ctx, `SELECT current_streak FROM users WHERE id = $1`, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("query streak: %w", err)
	}
	return current, nil
}

// CheckPersonalRecords compares a session's best weight and reps per exercise
// against stored records and upserts improvements. Returns the new records.
func (s *Service) CheckPersonalRecords(ctx context.Context, userID, logID uuid.UUID, sets []workout.SetEntry, now time.Time) ([]workout.PersonalRecord, error) {
	newRecords := make([]workout.PersonalRecord, 0)
	for _, set := range sets {
		if maxWeight := maxOf(set.Weights); maxWeight > 0 {
			rec, improved, err := s.upsertRecord(ctx, userID, logID, set.ExerciseName, workout.RecordMaxWeight, maxWeight, now)
			if err != nil {
				return newRecords, err
			}
			if improved {
				newRecords = append(newRecords, rec)
			}
		}
		var maxReps float64
		for _, r := range set.Reps {
			if float64(r) > maxReps {
				maxReps = float64(r)
			}
		}
		if maxReps > 0 {
			rec, improved, err := s.upsertRecord(ctx, userID, logID, set.ExerciseName, workout.RecordMaxReps, maxReps, now)
			if err != nil {
				return newRecords, err
			}
			if improved {
				newRecords = append(newRecords, rec)
			}
		}
	}
	return newRecords, nil
}

// Records lists a user's personal records.
func (s *Service) Records(ctx context.Context, userID uuid.UUID) ([]workout.PersonalRecord, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, exercise_name, record_type, value, achieved_at
FROM personal_records WHERE user_id = $1
ORDER BY achieved_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := make([]workout.PersonalRecord, 0)
	for rows.Next() {
		var r workout.PersonalRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseName, &r.RecordType, &r.Value, &r.AchievedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (s *Service) upsertRecord(ctx context.Context, userID, logID uuid.UUID, exercise, recordType string, value float64, now time.Time) (workout.PersonalRecord, bool, error) {
	var previous float64
	err := s.db.QueryRow(ctx, `
SELECT value FROM personal_records
WHERE user_id = $1 AND exercise_name = $2 AND record_type = $3
`, userID, exercise, recordType).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return workout.PersonalRecord{}, false, fmt.Errorf("query record: %w", err)
	}
	if err == nil && value <= previous {
		return workout.PersonalRecord{}, false, nil
	}

	rec := workout.PersonalRecord{
		ID:            uuid.New(),
		UserID:        userID,
		ExerciseName:  exercise,
		RecordType:    recordType,
		Value:         value,
		PreviousValue: previous,
		AchievedAt:    now,
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO personal_records (id, user_id, exercise_name, record_type, value, log_id, achieved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, exercise_name, record_type)
DO UPDATE SET value = EXCLUDED.value, log_id = EXCLUDED.log_id, achieved_at = EXCLUDED.achieved_at
`, rec.ID, userID, exercise, recordType, value, logID, now)
	if err != nil {
		return workout.PersonalRecord{}, false, fmt.Errorf("upsert record: %w", err)
	}
	return rec, true, nil
}

func maxOf(values []float64) float64 {
	var best float64
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	return best
}
