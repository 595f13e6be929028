package progression

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

type UnlockerMock struct{ mock.Mock }

func (m *UnlockerMock) Unlock(ctx context.Context, user *models.User, code string) (*models.UnlockResult, error) {
	args := m.Called(ctx, user, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UnlockResult), args.Error(1)
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func TestStreakTracker_Update(t *testing.T) {
	tests := []struct {
		name        string
		last        *time.Time
		streak      int
		max         int
		today       time.Time
		wantStreak  int
		wantMax     int
		wantUpdated bool
	}{
		{name: "first activity", today: day("2024-01-01"), wantStreak: 1, wantMax: 1, wantUpdated: true},
		{name: "same day is a no-op", last: ptr(day("2024-01-02")), streak: 5, max: 5, today: day("2024-01-02"), wantStreak: 5, wantMax: 5},
		{name: "next day continues", last: ptr(day("2024-01-01")), streak: 5, max: 5, today: day("2024-01-02"), wantStreak: 6, wantMax: 6, wantUpdated: true},
		{name: "gap resets", last: ptr(day("2024-01-01")), streak: 5, max: 5, today: day("2024-01-05"), wantStreak: 1, wantMax: 5, wantUpdated: true},
		{name: "month boundary", last: ptr(day("2024-01-31")), streak: 2, max: 4, today: day("2024-02-01"), wantStreak: 3, wantMax: 4, wantUpdated: true},
		{name: "time of day ignored", last: ptr(day("2024-03-01").Add(23 * time.Hour)), streak: 1, max: 1, today: day("2024-03-02").Add(time.Minute), wantStreak: 2, wantMax: 2, wantUpdated: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUser()
			u.LastStreakDate = tt.last
			u.StreakDays = tt.streak
			u.MaxStreakDays = tt.max

			tr := NewStreakTracker(&UnlockerMock{}, nil)
			res, err := tr.Update(context.Background(), u, tt.today)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreak, res.StreakDays)
			assert.Equal(t, tt.wantUpdated, res.StreakUpdated)
			assert.Equal(t, tt.wantStreak, u.StreakDays)
			assert.Equal(t, tt.wantMax, u.MaxStreakDays)
			require.NotNil(t, u.LastStreakDate)
			assert.Equal(t, Date(tt.today), *u.LastStreakDate)
		})
	}
}

func TestStreakTracker_Idempotent(t *testing.T) {
	u := newUser()
	tr := NewStreakTracker(&UnlockerMock{}, nil)
	today := day("2024-05-10")

	_, err := tr.Update(context.Background(), u, today)
	require.NoError(t, err)
	snapshot := *u

	for i := 0; i < 3; i++ {
		res, err := tr.Update(context.Background(), u, today.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		assert.False(t, res.StreakUpdated)
	}
	assert.Equal(t, snapshot, *u)
}

func TestStreakTracker_Milestones(t *testing.T) {
	unlocker := &UnlockerMock{}
	rec := &recorder{}
	u := newUser()
	u.StreakDays = 6
	u.MaxStreakDays = 6
	u.LastStreakDate = ptr(day("2024-01-06"))

	unlocker.On("Unlock", mock.Anything, u, "streak_7").
		Return(&models.UnlockResult{Code: "streak_7", BonusXP: 100}, nil).Once()

	tr := NewStreakTracker(unlocker, rec)
	res, err := tr.Update(context.Background(), u, day("2024-01-07"))
	require.NoError(t, err)
	assert.Equal(t, 7, res.StreakDays)
	unlocker.AssertExpectations(t)

	require.Len(t, rec.events, 1)
	assert.Equal(t, models.EventStreakMilestone, rec.events[0].Type)
	assert.Equal(t, 7, rec.events[0].Payload["streak_days"])
}

func TestStreakTracker_AboveMilestoneStillChecks(t *testing.T) {
	unlocker := &UnlockerMock{}
	rec := &recorder{}
	u := newUser()
	u.StreakDays = 30
	u.MaxStreakDays = 30
	u.LastStreakDate = ptr(day("2024-02-01"))

	unlocker.On("Unlock", mock.Anything, u, "streak_7").Return(nil, nil).Once()
	unlocker.On("Unlock", mock.Anything, u, "streak_30").Return(nil, nil).Once()

	tr := NewStreakTracker(unlocker, rec)
	_, err := tr.Update(context.Background(), u, day("2024-02-02"))
	require.NoError(t, err)
	unlocker.AssertExpectations(t)
	assert.Empty(t, rec.events)
}
