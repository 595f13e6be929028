package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

const selectUser = `SELECT uid, tg_id, username, first_name,
			      goal, gender, age, weight_kg, height_cm, target_weight_kg, activity_level,
			      daily_calories, daily_protein_g, daily_fat_g, daily_carbs_g,
			      level, xp, xp_to_next_level, streak_days, max_streak_days,
			      last_streak_date, daily_bonus_date,
			      trial_started_at, subscription_status, subscription_expires_at,
			      onboarding_completed, created_at
			  FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		target                                      sql.NullFloat64
		lastStreak, bonusDate, trialStart, expireAt sql.NullTime
	)
	if err := row.Scan(&u.UUID, &u.TgID, &u.Username, &u.FirstName,
		&u.Goal, &u.Gender, &u.Age, &u.WeightKg, &u.HeightCm, &target, &u.ActivityLevel,
		&u.DailyCalories, &u.DailyProteinG, &u.DailyFatG, &u.DailyCarbsG,
		&u.Level, &u.XP, &u.XPToNextLevel, &u.StreakDays, &u.MaxStreakDays,
		&lastStreak, &bonusDate,
		&trialStart, &u.SubscriptionStatus, &expireAt,
		&u.OnboardingCompleted, &u.CreatedAt); err != nil {
		return nil, err
	}

	if target.Valid {
		u.TargetWeightKg = &target.Float64
	}
	u.LastStreakDate = nullTime(lastStreak)
	u.DailyBonusDate = nullTime(bonusDate)
	u.TrialStartedAt = nullTime(trialStart)
	u.SubscriptionExpiresAt = nullTime(expireAt)
	return u, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func saveUser(ctx context.Context, tx *sql.Tx, u *models.User) error {
	query := `UPDATE users SET
			      username = $2, first_name = $3,
			      goal = $4, gender = $5, age = $6, weight_kg = $7, height_cm = $8,
			      target_weight_kg = $9, activity_level = $10,
			      daily_calories = $11, daily_protein_g = $12, daily_fat_g = $13, daily_carbs_g = $14,
			      level = $15, xp = $16, xp_to_next_level = $17,
			      streak_days = $18, max_streak_days = $19,
			      last_streak_date = $20, daily_bonus_date = $21,
			      trial_started_at = $22, subscription_status = $23, subscription_expires_at = $24,
			      onboarding_completed = $25
			  WHERE uid = $1`
	_, err := tx.ExecContext(ctx, query, u.UUID, u.Username, u.FirstName,
		u.Goal, u.Gender, u.Age, u.WeightKg, u.HeightCm,
		u.TargetWeightKg, u.ActivityLevel,
		u.DailyCalories, u.DailyProteinG, u.DailyFatG, u.DailyCarbsG,
		u.Level, u.XP, u.XPToNextLevel,
		u.StreakDays, u.MaxStreakDays,
		u.LastStreakDate, u.DailyBonusDate,
		u.TrialStartedAt, u.SubscriptionStatus, u.SubscriptionExpiresAt,
		u.OnboardingCompleted)
	return err
}

// CreateUser сохраняет нового пользователя и возвращает его UID. Если
// пользователь с таким tg_id уже есть, обновляет имя и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (tg_id, username, first_name, goal, level, xp, xp_to_next_level,
			      subscription_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (tg_id) DO UPDATE
			  SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.TgID, user.Username, user.FirstName, user.Goal, user.Level, user.XP, user.XPToNextLevel,
		user.SubscriptionStatus).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, selectUser+` WHERE uid = $1`, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByTgID возвращает пользователя по Telegram id.
func (s *Storage) GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	const op = "storage.GetUserByTgID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, selectUser+` WHERE tg_id = $1`, tgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
