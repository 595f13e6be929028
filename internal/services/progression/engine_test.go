package progression

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

type recorder struct {
	events []models.Event
}

func (r *recorder) Emit(e models.Event) { r.events = append(r.events, e) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newUser() *models.User {
	u := models.NewUser(1, "alice", "Alice")
	u.UUID = "user-1"
	return u
}

func TestXPForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: 1, want: 500},
		{level: 2, want: 1000},
		{level: 3, want: 2000},
		{level: 10, want: 256000},
		{level: 0, want: 500},
		{level: MaxLevel, want: 500 << (MaxLevel - 1)},
		{level: MaxLevel + 10, want: 500 << (MaxLevel - 1)},
		{level: 200, want: 500 << (MaxLevel - 1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, XPForLevel(tt.level), "level %d", tt.level)
	}
}

func TestEngine_Award(t *testing.T) {
	tests := []struct {
		name          string
		amounts       []int
		wantLevel     int
		wantXP        int
		wantThreshold int
		wantLevelUps  int
	}{
		{name: "below threshold", amounts: []int{15}, wantLevel: 1, wantXP: 15, wantThreshold: 500},
		{name: "exact threshold", amounts: []int{500}, wantLevel: 2, wantXP: 0, wantThreshold: 1000, wantLevelUps: 1},
		{name: "several levels at once", amounts: []int{1700}, wantLevel: 3, wantXP: 200, wantThreshold: 2000, wantLevelUps: 1},
		{name: "split into two calls", amounts: []int{850, 850}, wantLevel: 3, wantXP: 200, wantThreshold: 2000, wantLevelUps: 2},
		{name: "1200 in one call", amounts: []int{1200}, wantLevel: 2, wantXP: 700, wantThreshold: 1000, wantLevelUps: 1},
		{name: "600 twice", amounts: []int{600, 600}, wantLevel: 2, wantXP: 700, wantThreshold: 1000, wantLevelUps: 1},
		{name: "zero amount", amounts: []int{0}, wantLevel: 1, wantXP: 0, wantThreshold: 500},
		{name: "negative amount clamped", amounts: []int{-100}, wantLevel: 1, wantXP: 0, wantThreshold: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			e := NewEngine(newNoopLogger(), rec)
			u := newUser()

			for _, a := range tt.amounts {
				res, err := e.Award(context.Background(), u, a)
				require.NoError(t, err)
				assert.Less(t, res.RemainingXP, res.XPToNextLevel)
				assert.Equal(t, u.Level, res.NewLevel)
			}
			assert.Equal(t, tt.wantLevel, u.Level)
			assert.Equal(t, tt.wantXP, u.XP)
			assert.Equal(t, tt.wantThreshold, u.XPToNextLevel)
			assert.Len(t, rec.events, tt.wantLevelUps)
		})
	}
}

func TestEngine_AwardStopsAtMaxLevel(t *testing.T) {
	tests := []struct {
		name   string
		level  int
		xp     int
		amount int
	}{
		{name: "огромное начисление с первого уровня", level: 1, amount: math.MaxInt},
		{name: "начисление на последнем уровне", level: MaxLevel, xp: 10, amount: math.MaxInt / 2},
		{name: "уровень из хранилища выше предела", level: MaxLevel + 5, xp: 1, amount: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(newNoopLogger(), nil)
			u := newUser()
			u.Level = tt.level
			u.XP = tt.xp
			u.XPToNextLevel = XPForLevel(tt.level)

			res, err := e.Award(context.Background(), u, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, MaxLevel, u.Level)
			assert.Equal(t, XPForLevel(MaxLevel), u.XPToNextLevel)
			assert.Positive(t, u.XPToNextLevel)
			assert.GreaterOrEqual(t, u.XP, 0)
			assert.Less(t, u.XP, u.XPToNextLevel)
			assert.Equal(t, u.XP, res.RemainingXP)
		})
	}
}

func TestEngine_AwardResultFields(t *testing.T) {
	e := NewEngine(newNoopLogger(), nil)
	u := newUser()
	u.XP = 490

	res, err := e.Award(context.Background(), u, 15)
	require.NoError(t, err)
	assert.Equal(t, &AwardResult{
		AmountAwarded: 15,
		NewLevel:      2,
		LeveledUp:     true,
		RemainingXP:   5,
		XPToNextLevel: 1000,
	}, res)
}

func TestEngine_NormalizesStoredAggregate(t *testing.T) {
	e := NewEngine(newNoopLogger(), nil)
	u := &models.User{UUID: "u"}

	_, err := e.Award(context.Background(), u, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 10, u.XP)
	assert.Equal(t, 500, u.XPToNextLevel)
}

func TestEngine_LevelHook(t *testing.T) {
	t.Run("not called below level 10", func(t *testing.T) {
		e := NewEngine(newNoopLogger(), nil)
		called := false
		e.OnLevel(func(context.Context, *models.User) error {
			called = true
			return nil
		})
		u := newUser()
		_, err := e.Award(context.Background(), u, 1000)
		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("called at level 10 and result refreshed", func(t *testing.T) {
		e := NewEngine(newNoopLogger(), nil)
		u := newUser()
		u.Level = 9
		u.XPToNextLevel = XPForLevel(9)
		u.XP = XPForLevel(9) - 1

		calls := 0
		e.OnLevel(func(ctx context.Context, user *models.User) error {
			calls++
			if calls == 1 {
				// бонус за достижение начисляется через тот же движок
				_, err := e.Award(ctx, user, 300)
				return err
			}
			return nil
		})

		res, err := e.Award(context.Background(), u, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 10, res.NewLevel)
		assert.True(t, res.LeveledUp)
		assert.Equal(t, 300, res.RemainingXP)
		assert.Equal(t, 300, u.XP)
	})

	t.Run("hook error propagates", func(t *testing.T) {
		e := NewEngine(newNoopLogger(), nil)
		boom := errors.New("boom")
		e.OnLevel(func(context.Context, *models.User) error { return boom })
		u := newUser()
		u.Level = 10
		u.XPToNextLevel = XPForLevel(10)

		_, err := e.Award(context.Background(), u, 5)
		assert.ErrorIs(t, err, boom)
	})
}

func TestEngine_LevelUpEvent(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(newNoopLogger(), rec)
	u := newUser()

	_, err := e.Award(context.Background(), u, 1500)
	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, models.EventLevelUp, ev.Type)
	assert.Equal(t, "user-1", ev.UserUID)
	assert.Equal(t, int64(1), ev.TgID)
	assert.Equal(t, 3, ev.Payload["level"])
	assert.Equal(t, 1, ev.Payload["previous_level"])
}
