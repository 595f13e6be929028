package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

func (r *txRepo) HasAchievement(ctx context.Context, userUID, code string) (bool, error) {
	const op = "storage.HasAchievement"

	var exists bool
	query := `SELECT EXISTS (
			      SELECT 1 FROM achievements WHERE user_uid = $1 AND achievement_code = $2
			  )`
	if err := r.tx.QueryRowContext(ctx, query, userUID, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// InsertAchievement возвращает false, если пара (user, code) уже записана.
func (r *txRepo) InsertAchievement(ctx context.Context, a models.Achievement) (bool, error) {
	const op = "storage.InsertAchievement"

	query := `INSERT INTO achievements (user_uid, achievement_code, achieved_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid, achievement_code) DO NOTHING`
	res, err := r.tx.ExecContext(ctx, query, a.UserUID, a.Code, a.AchievedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// ListAchievements возвращает достижения пользователя по времени получения.
func (s *Storage) ListAchievements(ctx context.Context, userUID string) ([]models.Achievement, error) {
	const op = "storage.ListAchievements"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, achievement_code, achieved_at
			  FROM achievements
			  WHERE user_uid = $1
			  ORDER BY achieved_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err = rows.Scan(&a.UserUID, &a.Code, &a.AchievedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
