package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

func (r *txRepo) InsertFoodLog(ctx context.Context, e *models.FoodLog) (string, error) {
	const op = "storage.InsertFoodLog"

	query := `INSERT INTO food_log (user_uid, logged_at, meal_type, food_name,
			      calories, protein_g, fat_g, carbs_g, weight_g, source)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var id string
	if err := r.tx.QueryRowContext(ctx, query, e.UserUID, e.LoggedAt, e.MealType, e.FoodName,
		e.Calories, e.ProteinG, e.FatG, e.CarbsG, e.WeightG, e.Source).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// MealTypesOn возвращает различные типы приёмов пищи за календарный день day (UTC).
func (r *txRepo) MealTypesOn(ctx context.Context, userUID string, day time.Time) ([]string, error) {
	const op = "storage.MealTypesOn"

	query := `SELECT DISTINCT meal_type FROM food_log
			  WHERE user_uid = $1 AND logged_at >= $2 AND logged_at < $3`
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := r.tx.QueryContext(ctx, query, userUID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var types []string
	for rows.Next() {
		var t string
		if err = rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		types = append(types, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return types, nil
}

func (r *txRepo) CountFoodLogDays(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountFoodLogDays"

	query := `SELECT COUNT(DISTINCT (logged_at AT TIME ZONE 'UTC')::date)
			  FROM food_log WHERE user_uid = $1`
	var n int
	if err := r.tx.QueryRowContext(ctx, query, userUID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// GetWorkoutByDate возвращает nil без ошибки, если за дату тренировки нет.
func (r *txRepo) GetWorkoutByDate(ctx context.Context, userUID string, day time.Time) (*models.Workout, error) {
	const op = "storage.GetWorkoutByDate"

	query := `SELECT id, user_uid, workout_date, completed, notes, xp_awarded
			  FROM workouts WHERE user_uid = $1 AND workout_date = $2`
	w := &models.Workout{}
	err := r.tx.QueryRowContext(ctx, query, userUID, day).
		Scan(&w.ID, &w.UserUID, &w.WorkoutDate, &w.Completed, &w.Notes, &w.XPAwarded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}

// SaveWorkout создаёт тренировку или обновляет отметку за ту же дату.
// Начисленный ранее опыт при обновлении не меняется.
func (r *txRepo) SaveWorkout(ctx context.Context, w *models.Workout) (string, error) {
	const op = "storage.SaveWorkout"

	query := `INSERT INTO workouts (user_uid, workout_date, completed, notes, xp_awarded)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (user_uid, workout_date) DO UPDATE
			  SET completed = EXCLUDED.completed, notes = EXCLUDED.notes
			  RETURNING id`
	var id string
	if err := r.tx.QueryRowContext(ctx, query,
		w.UserUID, w.WorkoutDate, w.Completed, w.Notes, w.XPAwarded).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (r *txRepo) CountCompletedWorkouts(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountCompletedWorkouts"

	var n int
	query := `SELECT COUNT(*) FROM workouts WHERE user_uid = $1 AND completed`
	if err := r.tx.QueryRowContext(ctx, query, userUID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (r *txRepo) UpsertWeightLog(ctx context.Context, e *models.WeightLog) (string, error) {
	const op = "storage.UpsertWeightLog"

	query := `INSERT INTO weight_log (user_uid, weight_kg, logged_date)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid, logged_date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
			  RETURNING id`
	var id string
	if err := r.tx.QueryRowContext(ctx, query, e.UserUID, e.WeightKg, e.LoggedDate).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// WeightHistory возвращает замеры начиная с since по возрастанию даты.
func (s *Storage) WeightHistory(ctx context.Context, userUID string, since time.Time) ([]models.WeightLog, error) {
	const op = "storage.WeightHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, weight_kg, logged_date
			  FROM weight_log
			  WHERE user_uid = $1 AND logged_date >= $2
			  ORDER BY logged_date`
	rows, err := s.DB.QueryContext(ctx, query, userUID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.WeightLog
	for rows.Next() {
		var w models.WeightLog
		if err = rows.Scan(&w.ID, &w.UserUID, &w.WeightKg, &w.LoggedDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListFoodLogs возвращает записи о еде за календарный день day (UTC).
func (s *Storage) ListFoodLogs(ctx context.Context, userUID string, day time.Time) ([]models.FoodLog, error) {
	const op = "storage.ListFoodLogs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, logged_at, meal_type, food_name,
			      calories, protein_g, fat_g, carbs_g, weight_g, source
			  FROM food_log
			  WHERE user_uid = $1 AND logged_at >= $2 AND logged_at < $3
			  ORDER BY logged_at`
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.DB.QueryContext(ctx, query, userUID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.FoodLog
	for rows.Next() {
		var f models.FoodLog
		if err = rows.Scan(&f.ID, &f.UserUID, &f.LoggedAt, &f.MealType, &f.FoodName,
			&f.Calories, &f.ProteinG, &f.FatG, &f.CarbsG, &f.WeightG, &f.Source); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
