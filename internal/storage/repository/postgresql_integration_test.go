package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/storage"
)

func TestIntegration_CreateUserIsIdempotentByTgID(t *testing.T) {
	s := setupTestDatabase(t)

	first := createTestUser(t, s, 100)
	second, err := s.CreateUser(context.Background(), models.NewUser(100, "renamed", "Renamed"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	u, err := s.GetUserByTgID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "renamed", u.Username)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 500, u.XPToNextLevel)
}

func TestIntegration_InUserTxPersistsAndRollsBack(t *testing.T) {
	s := setupTestDatabase(t)
	uid := createTestUser(t, s, 200)
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	err := s.InUserTx(ctx, uid, func(ctx context.Context, tx storage.Tx, u *models.User) error {
		u.XP = 120
		u.StreakDays = 1
		u.LastStreakDate = &day
		_, err := tx.InsertFoodLog(ctx, &models.FoodLog{
			UserUID: uid, LoggedAt: day.Add(9 * time.Hour), MealType: models.MealBreakfast,
			FoodName: "oatmeal", Calories: 300, Source: models.SourceManual,
		})
		return err
	})
	require.NoError(t, err)

	u, err := s.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 120, u.XP)
	require.NotNil(t, u.LastStreakDate)
	assert.Equal(t, day, u.LastStreakDate.UTC())

	err = s.InUserTx(ctx, uid, func(ctx context.Context, tx storage.Tx, u *models.User) error {
		u.XP = 999
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	u, err = s.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 120, u.XP)
}

func TestIntegration_ConcurrentAchievementInsert(t *testing.T) {
	s := setupTestDatabase(t)
	uid := createTestUser(t, s, 300)
	ctx := context.Background()

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InUserTx(ctx, uid, func(ctx context.Context, tx storage.Tx, u *models.User) error {
				has, err := tx.HasAchievement(ctx, uid, "streak_7")
				if err != nil || has {
					return err
				}
				ok, err := tx.InsertAchievement(ctx, models.Achievement{UserUID: uid, Code: "streak_7", AchievedAt: time.Now()})
				if err != nil {
					return err
				}
				if ok {
					u.XP += 100
					mu.Lock()
					inserted++
					mu.Unlock()
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	list, err := s.ListAchievements(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	u, err := s.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 100, u.XP)
}

func TestIntegration_ActivityTables(t *testing.T) {
	s := setupTestDatabase(t)
	uid := createTestUser(t, s, 400)
	ctx := context.Background()
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	err := s.InUserTx(ctx, uid, func(ctx context.Context, tx storage.Tx, _ *models.User) error {
		for i, meal := range []string{models.MealBreakfast, models.MealLunch, models.MealLunch} {
			_, err := tx.InsertFoodLog(ctx, &models.FoodLog{
				UserUID: uid, LoggedAt: day.Add(time.Duration(8+i*4) * time.Hour), MealType: meal,
				FoodName: "food", Source: models.SourceManual,
			})
			require.NoError(t, err)
		}
		types, err := tx.MealTypesOn(ctx, uid, day)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{models.MealBreakfast, models.MealLunch}, types)

		days, err := tx.CountFoodLogDays(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 1, days)

		w, err := tx.GetWorkoutByDate(ctx, uid, day)
		require.NoError(t, err)
		assert.Nil(t, w)

		firstID, err := tx.SaveWorkout(ctx, &models.Workout{UserUID: uid, WorkoutDate: day, Completed: true, XPAwarded: 40})
		require.NoError(t, err)
		secondID, err := tx.SaveWorkout(ctx, &models.Workout{UserUID: uid, WorkoutDate: day, Completed: true, Notes: "legs"})
		require.NoError(t, err)
		assert.Equal(t, firstID, secondID)

		w, err = tx.GetWorkoutByDate(ctx, uid, day)
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, 40, w.XPAwarded)
		assert.Equal(t, "legs", w.Notes)

		n, err := tx.CountCompletedWorkouts(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = tx.UpsertWeightLog(ctx, &models.WeightLog{UserUID: uid, WeightKg: 80, LoggedDate: day})
		require.NoError(t, err)
		_, err = tx.UpsertWeightLog(ctx, &models.WeightLog{UserUID: uid, WeightKg: 79.5, LoggedDate: day})
		require.NoError(t, err)

		ok, err := tx.InsertPayment(ctx, models.Payment{
			UserUID: uid, TelegramPaymentID: "charge-1", Amount: 150, PeriodDays: 30,
			StartsAt: day, ExpiresAt: day.AddDate(0, 0, 30),
		})
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = tx.InsertPayment(ctx, models.Payment{
			UserUID: uid, TelegramPaymentID: "charge-1", Amount: 150, PeriodDays: 30,
			StartsAt: day, ExpiresAt: day.AddDate(0, 0, 30),
		})
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	history, err := s.WeightHistory(ctx, uid, day.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 79.5, history[0].WeightKg, 1e-9)
}
