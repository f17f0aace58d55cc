package quest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"fitquest-server/internal/domain/progression"
	"fitquest-server/internal/platform/mq"
)

// template is one entry of the fixed generation catalog. Reward amounts are
// copied onto the quest row at creation and never change afterwards.
type template struct {
	Type    progression.QuestType
	Target  int
	XP      int
	Credits int
}

var templates = []template{
	{progression.QuestCompleteWorkout, 1, 100, 50},
	{progression.QuestWalkSteps, 10000, 150, 75},
	{progression.QuestStrengthWorkout, 1, 200, 100},
	{progression.QuestCardioWorkout, 1, 200, 100},
	{progression.QuestEnduranceWorkout, 1, 200, 100},
	{progression.QuestFlexibilityWorkout, 1, 180, 90},
	{progression.QuestBeatPR, 1, 500, 250},
	{progression.QuestMaintainStreak, 1, 300, 150},
	{progression.QuestWorkout30Min, 1, 250, 125},
	{progression.QuestWorkout45Min, 1, 350, 175},
}

// RewardGranter issues flat quest rewards against the character record.
type RewardGranter interface {
	GrantReward(ctx context.Context, userID uuid.UUID, xp, credits int) error
}

const questColumns = `id, user_id, quest_date, quest_type, target_value,
current_progress, completed, xp_reward, credits_reward, created_at`

type Service struct {
	db           *pgxpool.Pool
	cache        *redis.Client
	cacheTTL     time.Duration
	pub          mq.Publisher
	rewards      RewardGranter
	questsPerDay int
	loc          *time.Location
	rand         *rand.Rand
}

func NewService(db *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration, pub mq.Publisher, rewards RewardGranter, questsPerDay int, timezone string) *Service {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	if questsPerDay <= 0 || questsPerDay > len(templates) {
		questsPerDay = 3
	}
	return &Service{
		db:           db,
		cache:        cache,
		cacheTTL:     cacheTTL,
		pub:          pub,
		rewards:      rewards,
		questsPerDay: questsPerDay,
		loc:          loc,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// QuestDate formats the calendar date quests are scoped to.
func (s *Service) QuestDate(now time.Time) string {
	return now.In(s.loc).Format("2006-01-02")
}

// TodayFor returns the user's quests for today, generating a fresh random set
// when none exist yet.
func (s *Service) TodayFor(ctx context.Context, userID uuid.UUID, now time.Time) ([]progression.DailyQuest, error) {
	date := s.QuestDate(now)
	key := s.cacheKey(userID, date)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var quests []progression.DailyQuest
			if uErr := json.Unmarshal([]byte(cached), &quests); uErr == nil {
				return quests, nil
			}
		}
	}

	quests, err := s.questsFor(ctx, userID, date, false)
	if err != nil {
		return nil, err
	}
	if len(quests) == 0 {
		if err := s.generate(ctx, userID, date); err != nil {
			return nil, err
		}
		quests, err = s.questsFor(ctx, userID, date, false)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if b, err := json.Marshal(quests); err == nil {
			_ = s.cache.Set(ctx, key, b, s.cacheTTL).Err()
		}
	}
	return quests, nil
}

// ApplyWorkout advances today's incomplete quests for one workout and issues
// rewards for any that complete. The completed=false guard in the update makes
// reward issuance single-shot even under concurrent submissions.
func (s *Service) ApplyWorkout(ctx context.Context, userID uuid.UUID, category string, durationMinutes int, beatPR bool, now time.Time) ([]progression.QuestUpdate, error) {
	date := s.QuestDate(now)
	active, err := s.questsFor(ctx, userID, date, true)
	if err != nil {
		return nil, err
	}
	updates := progression.MatchQuestProgress(active, category, durationMinutes, beatPR)
	if len(updates) == 0 {
		return updates, nil
	}

	applied := make([]progression.QuestUpdate, 0, len(updates))
	for _, u := range updates {
		res, err := s.db.Exec(ctx, `
UPDATE daily_quests SET current_progress = $1, completed = $2
WHERE id = $3 AND completed = false
`, u.NewProgress, u.Completed, u.Quest.ID)
		if err != nil {
			return applied, fmt.Errorf("update quest %s: %w", u.Quest.QuestType, err)
		}
		if res.RowsAffected() == 0 {
			continue
		}
		applied = append(applied, u)

		if u.Completed {
			if err := s.rewards.GrantReward(ctx, userID, u.Quest.XPReward, u.Quest.CreditsReward); err != nil {
				return applied, fmt.Errorf("grant quest reward: %w", err)
			}
			_ = s.publishEvent(ctx, "quest.completed", map[string]any{
				"user_id":        userID,
				"quest_id":       u.Quest.ID,
				"quest_type":     u.Quest.QuestType,
				"xp_reward":      u.Quest.XPReward,
				"credits_reward": u.Quest.CreditsReward,
			})
		}
	}
	s.invalidate(ctx, userID, date)
	return applied, nil
}

func (s *Service) generate(ctx context.Context, userID uuid.UUID, date string) error {
	picked := make([]template, len(templates))
	copy(picked, templates)
	s.rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:s.questsPerDay]

	for _, t := range picked {
		_, err := s.db.Exec(ctx, `
INSERT INTO daily_quests (id, user_id, quest_date, quest_type, target_value, xp_reward, credits_reward)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, quest_date, quest_type) DO NOTHING
`, uuid.New(), userID, date, t.Type, t.Target, t.XP, t.Credits)
		if err != nil {
			return fmt.Errorf("insert quest %s: %w", t.Type, err)
		}
	}
	return nil
}

func (s *Service) questsFor(ctx context.Context, userID uuid.UUID, date string, onlyActive bool) ([]progression.DailyQuest, error) {
	query := `SELECT ` + questColumns + ` FROM daily_quests WHERE user_id = $1 AND quest_date = $2`
	if onlyActive {
		query += ` AND completed = false`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("query quests: %w", err)
	}
	defer rows.Close()

	quests := make([]progression.DailyQuest, 0)
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quests: %w", err)
	}
	return quests, nil
}

func scanQuest(row pgx.Row) (progression.DailyQuest, error) {
	var q progression.DailyQuest
	var date time.Time
	err := row.Scan(&q.ID, &q.UserID, &date, &q.QuestType, &q.TargetValue,
		&q.CurrentProgress, &q.Completed, &q.XPReward, &q.CreditsReward, &q.CreatedAt)
	if err != nil {
		return progression.DailyQuest{}, fmt.Errorf("scan quest: %w", err)
	}
	q.QuestDate = date.Format("2006-01-02")
	return q, nil
}

func (s *Service) cacheKey(userID uuid.UUID, date string) string {
	return "quests:user:" + userID.String() + ":" + date
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID, date string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cacheKey(userID, date)).Err()
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
