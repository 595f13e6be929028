package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-progression/internal/cache"
	"github.com/magabrotheeeer/habit-progression/internal/config"
	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/achievements"
	"github.com/magabrotheeeer/habit-progression/internal/storage"
	"github.com/magabrotheeeer/habit-progression/internal/storage/memory"
)

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Flush(ctx context.Context, events []models.Event) {
	m.Called(ctx, events)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) nextDay() { c.t = c.t.AddDate(0, 0, 1) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type fixture struct {
	svc   *Service
	store *memory.Storage
	clock *clock
	uid   string
}

func setup(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.New()
	uid, err := store.CreateUser(context.Background(), models.NewUser(42, "tester", "Test"))
	require.NoError(t, err)

	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(c.now)}, opts...)
	return &fixture{
		svc:   NewService(store, nil, newNoopLogger(), opts...),
		store: store,
		clock: c,
		uid:   uid,
	}
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), f.uid)
	require.NoError(t, err)
	return u
}

func codes(list []*models.UnlockResult) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Code)
	}
	return out
}

func TestMealXP(t *testing.T) {
	tests := []struct {
		meal string
		want int
	}{
		{models.MealBreakfast, 15},
		{models.MealLunch, 15},
		{models.MealDinner, 15},
		{models.MealSnack, 10},
		{"brunch", 10},
	}
	for _, tt := range tests {
		t.Run(tt.meal, func(t *testing.T) {
			assert.Equal(t, tt.want, MealXP(tt.meal))
		})
	}
}

func TestLogFood_Defaults(t *testing.T) {
	f := setup(t)

	res, err := f.svc.LogFood(context.Background(), f.uid, models.DummyFoodLog{FoodName: "apple", Calories: 52})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Entry.ID)
	assert.Equal(t, models.MealSnack, res.Entry.MealType)
	assert.Equal(t, models.SourceManual, res.Entry.Source)
	assert.Equal(t, 100.0, res.Entry.WeightG)
	assert.Equal(t, 10, res.XPAwarded)
	assert.Equal(t, 1, res.Streak.StreakDays)
	assert.True(t, res.Streak.StreakUpdated)
	assert.False(t, res.AllMealsBonus)
	assert.Empty(t, res.Achievements)

	u := f.user(t)
	assert.Equal(t, 10, u.XP)
	assert.Equal(t, 1, u.StreakDays)
}

func TestLogFood_DailyMealsBonus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "eggs", MealType: models.MealBreakfast})
	require.NoError(t, err)
	assert.False(t, res.AllMealsBonus)
	assert.True(t, res.Streak.StreakUpdated)

	res, err = f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "soup", MealType: models.MealLunch})
	require.NoError(t, err)
	assert.False(t, res.AllMealsBonus)
	assert.False(t, res.Streak.StreakUpdated)

	res, err = f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "fish", MealType: models.MealDinner})
	require.NoError(t, err)
	assert.True(t, res.AllMealsBonus)
	assert.Equal(t, 15+50, res.XPAwarded)
	assert.Equal(t, 15+15+15+50, f.user(t).XP)

	// каждая следующая запись за тот же день снова получает бонус
	res, err = f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "nuts", MealType: models.MealSnack})
	require.NoError(t, err)
	assert.True(t, res.AllMealsBonus)
	assert.Equal(t, 10+50, res.XPAwarded)
	assert.Equal(t, 95+60, f.user(t).XP)
}

func TestLogFood_FirstPhoto(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "soup", MealType: models.MealLunch, Source: models.SourceAIPhoto})
	require.NoError(t, err)
	assert.Equal(t, []string{achievements.CodeFirstPhoto}, codes(res.Achievements))
	assert.Equal(t, 15+100, f.user(t).XP)

	res, err = f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "tea", Source: models.SourceAIPhoto})
	require.NoError(t, err)
	assert.Empty(t, res.Achievements)
	assert.Equal(t, 115+10, f.user(t).XP)
}

func TestLogFood_WeekStreak(t *testing.T) {
	n := &NotifierMock{}
	var flushed []models.Event
	n.On("Flush", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		flushed = append(flushed, args.Get(1).([]models.Event)...)
	})

	f := setup(t)
	f.svc.notifier = n
	ctx := context.Background()

	var res *FoodResult
	for day := 1; day <= 7; day++ {
		var err error
		res, err = f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "oats"})
		require.NoError(t, err)
		assert.Equal(t, day, res.Streak.StreakDays)
		if day < 7 {
			assert.Empty(t, res.Achievements)
		}
		f.clock.nextDay()
	}

	assert.ElementsMatch(t, []string{achievements.CodeStreak7, achievements.CodeFirstWeek}, codes(res.Achievements))

	u := f.user(t)
	assert.Equal(t, 7, u.StreakDays)
	assert.Equal(t, 7, u.MaxStreakDays)
	assert.Equal(t, 7*10+100+100, u.XP)

	var types []string
	for _, e := range flushed {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, models.EventStreakMilestone)
	assert.Contains(t, types, models.EventAchievementUnlocked)
}

func TestLogWorkout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	no := false

	res, err := f.svc.LogWorkout(ctx, f.uid, models.DummyWorkout{WorkoutDate: "2024-03-01"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Workout.Completed)
	assert.Equal(t, WorkoutXP, res.XPAwarded)
	assert.Equal(t, WorkoutXP, res.Workout.XPAwarded)

	res, err = f.svc.LogWorkout(ctx, f.uid, models.DummyWorkout{WorkoutDate: "2024-03-01", Completed: &no, Notes: "skipped"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.Workout.Completed)
	assert.Equal(t, "skipped", res.Workout.Notes)
	assert.Equal(t, 0, res.XPAwarded)
	assert.Equal(t, WorkoutXP, res.Workout.XPAwarded)

	res, err = f.svc.LogWorkout(ctx, f.uid, models.DummyWorkout{WorkoutDate: "2024-03-02", Completed: &no})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 0, res.XPAwarded)

	assert.Equal(t, WorkoutXP, f.user(t).XP)
	assert.Equal(t, 0, f.user(t).StreakDays)

	_, err = f.svc.LogWorkout(ctx, f.uid, models.DummyWorkout{WorkoutDate: "01.03.2024"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLogWorkout_TenWorkouts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var res *WorkoutResult
	for i := 0; i < 10; i++ {
		var err error
		res, err = f.svc.LogWorkout(ctx, f.uid, models.DummyWorkout{WorkoutDate: start.AddDate(0, 0, i).Format(time.DateOnly)})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{achievements.CodeWorkouts10}, codes(res.Achievements))
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 2, res.Level)
	assert.Equal(t, 0, res.XP)
	assert.Equal(t, 1000, res.XPToNextLevel)
}

func TestLogWeight(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	target := 70.0
	require.NoError(t, f.store.InUserTx(ctx, f.uid, func(_ context.Context, _ storage.Tx, u *models.User) error {
		u.TargetWeightKg = &target
		u.WeightKg = 75
		return nil
	}))

	res, err := f.svc.LogWeight(ctx, f.uid, models.DummyWeightLog{WeightKg: 72})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), res.Entry.LoggedDate)
	assert.Empty(t, res.Achievements)
	assert.Equal(t, WeightLogXP, res.XPAwarded)
	assert.Equal(t, 72.0, f.user(t).WeightKg)

	res, err = f.svc.LogWeight(ctx, f.uid, models.DummyWeightLog{WeightKg: 70.4, LoggedDate: "2024-03-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{achievements.CodeGoalReached}, codes(res.Achievements))

	u := f.user(t)
	assert.Equal(t, 2, u.Level)
	assert.Equal(t, 10+500+10-500, u.XP)

	_, err = f.svc.LogWeight(ctx, f.uid, models.DummyWeightLog{WeightKg: 70, LoggedDate: "yesterday"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestClaimDailyBonus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.ClaimDailyBonus(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.AlreadyClaimed)
	assert.Equal(t, DailyBonusXP, res.XPAwarded)

	f.clock.t = f.clock.t.Add(10 * time.Hour)
	res, err = f.svc.ClaimDailyBonus(ctx, f.uid)
	require.NoError(t, err)
	assert.True(t, res.AlreadyClaimed)
	assert.Equal(t, 0, res.XPAwarded)

	f.clock.nextDay()
	res, err = f.svc.ClaimDailyBonus(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, res.AlreadyClaimed)
	assert.Equal(t, 2*DailyBonusXP, f.user(t).XP)
}

func TestHandlePayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	st, err := f.svc.HandlePayment(ctx, 42, "charge-1", 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, st.Status)
	assert.Equal(t, 30, st.DaysLeft)
	firstExpiry := *st.ExpiresAt

	f.clock.nextDay()
	st, err = f.svc.HandlePayment(ctx, 42, "charge-1", 100)
	require.NoError(t, err)
	assert.Equal(t, firstExpiry, *st.ExpiresAt)
	assert.Len(t, f.store.Payments(f.uid), 1)

	_, err = f.svc.HandlePayment(ctx, 7, "charge-2", 100)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestSubscriptionStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	started := f.clock.t
	expires := started.AddDate(0, 0, 7)
	require.NoError(t, f.store.InUserTx(ctx, f.uid, func(_ context.Context, _ storage.Tx, u *models.User) error {
		u.SubscriptionStatus = models.StatusTrial
		u.TrialStartedAt = &started
		u.SubscriptionExpiresAt = &expires
		return nil
	}))

	st, err := f.svc.SubscriptionStatus(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrial, st.Status)
	assert.Equal(t, 7, st.DaysLeft)

	ok, err := f.svc.HasPremium(ctx, f.uid)
	require.NoError(t, err)
	assert.True(t, ok)

	f.clock.t = expires.Add(time.Hour)
	st, err = f.svc.SubscriptionStatus(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, st.Status)
	// производный статус не сохраняется
	assert.Equal(t, models.StatusTrial, f.user(t).SubscriptionStatus)

	ok, err = f.svc.HasPremium(ctx, f.uid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProfileCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	f := setup(t, WithCache(c, time.Minute))
	ctx := context.Background()

	p, err := f.svc.Profile(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.XP)
	assert.Equal(t, 500, p.XPToNext)
	assert.Len(t, p.Achievements, len(achievements.Catalog()))
	assert.True(t, mr.Exists(profileKey(f.uid)))

	_, err = f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "soup", MealType: models.MealLunch, Source: models.SourceAIPhoto})
	require.NoError(t, err)
	assert.False(t, mr.Exists(profileKey(f.uid)))

	p, err = f.svc.Profile(ctx, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 115, p.XP)
	assert.Equal(t, 1, p.StreakDays)

	var photo AchievementView
	for _, a := range p.Achievements {
		if a.Code == achievements.CodeFirstPhoto {
			photo = a
		}
	}
	assert.True(t, photo.Earned)
	require.NotNil(t, photo.AchievedAt)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(profileKey(f.uid)))
}

func TestAchievementsList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.LogFood(ctx, f.uid, models.DummyFoodLog{FoodName: "x", Source: models.SourceAIPhoto})
	require.NoError(t, err)

	list, err := f.svc.Achievements(ctx, f.uid)
	require.NoError(t, err)
	require.Len(t, list.Earned, 1)
	assert.Equal(t, achievements.CodeFirstPhoto, list.Earned[0].Code)
	assert.Len(t, list.Available, len(achievements.Catalog())-1)
}

func TestFoodLog(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, in := range []models.DummyFoodLog{
		{FoodName: "eggs", Calories: 150, ProteinG: 12, FatG: 10, CarbsG: 1, MealType: models.MealBreakfast},
		{FoodName: "rice", Calories: 200, ProteinG: 4, FatG: 0.5, CarbsG: 45, MealType: models.MealLunch},
	} {
		_, err := f.svc.LogFood(ctx, f.uid, in)
		require.NoError(t, err)
	}

	day, err := f.svc.FoodLog(ctx, f.uid, "")
	require.NoError(t, err)
	assert.Len(t, day.Entries, 2)
	assert.Equal(t, Macros{Calories: 350, ProteinG: 16, FatG: 10.5, CarbsG: 46}, day.Totals)
	assert.Equal(t, Macros{Calories: 2000, ProteinG: 150, FatG: 65, CarbsG: 250}, day.Goal)

	other, err := f.svc.FoodLog(ctx, f.uid, "2024-02-28")
	require.NoError(t, err)
	assert.Empty(t, other.Entries)

	_, err = f.svc.FoodLog(ctx, f.uid, "28/02")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestWeightHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, d := range []string{"2023-06-01", "2024-01-15", "2024-02-25"} {
		_, err := f.svc.LogWeight(ctx, f.uid, models.DummyWeightLog{WeightKg: 80, LoggedDate: d})
		require.NoError(t, err)
	}

	tests := []struct {
		period string
		want   int
	}{
		{Period30d, 1},
		{Period90d, 2},
		{PeriodAll, 3},
		{"weird", 1},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			entries, err := f.svc.WeightHistory(ctx, f.uid, tt.period)
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}
}

func TestUnknownUserDoesNotFlush(t *testing.T) {
	n := &NotifierMock{}
	f := setup(t)
	f.svc.notifier = n

	_, err := f.svc.LogFood(context.Background(), "missing", models.DummyFoodLog{FoodName: "x"})
	require.ErrorIs(t, err, models.ErrUserNotFound)
	n.AssertNotCalled(t, "Flush", mock.Anything, mock.Anything)
}

// rollbackStore откатывает каждую транзакцию уже после выполнения тела.
type rollbackStore struct {
	storage.Storage
}

var errCommit = errors.New("commit failed")

func (s rollbackStore) InUserTx(ctx context.Context, userUID string, fn storage.TxFunc) error {
	return s.Storage.InUserTx(ctx, userUID, func(ctx context.Context, tx storage.Tx, user *models.User) error {
		if err := fn(ctx, tx, user); err != nil {
			return err
		}
		return errCommit
	})
}

func TestRolledBackActionDoesNotFlush(t *testing.T) {
	n := &NotifierMock{}
	f := setup(t)
	f.svc.store = rollbackStore{Storage: f.store}
	f.svc.notifier = n

	_, err := f.svc.LogFood(context.Background(), f.uid, models.DummyFoodLog{FoodName: "salad", Source: models.SourceAIPhoto})
	require.ErrorIs(t, err, errCommit)

	n.AssertNotCalled(t, "Flush", mock.Anything, mock.Anything)
	earned, err := f.store.ListAchievements(context.Background(), f.uid)
	require.NoError(t, err)
	assert.Empty(t, earned)
	assert.Equal(t, 0, f.user(t).XP)
}
