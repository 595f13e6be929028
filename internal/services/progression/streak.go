package progression

import (
	"context"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// Unlocker выдаёт достижение по коду, повторные вызовы ничего не делают.
type Unlocker interface {
	Unlock(ctx context.Context, user *models.User, code string) (*models.UnlockResult, error)
}

// StreakMilestones — пороги стрика и коды достижений за них.
var StreakMilestones = []struct {
	Days int
	Code string
}{
	{Days: 7, Code: "streak_7"},
	{Days: 30, Code: "streak_30"},
	{Days: 100, Code: "streak_100"},
}

// StreakResult — итог обновления стрика.
type StreakResult struct {
	StreakDays    int  `json:"streak_days"`
	StreakUpdated bool `json:"streak_updated"`
}

// StreakTracker ведёт непрерывность ежедневной активности.
type StreakTracker struct {
	unlocker Unlocker
	events   Emitter
}

// NewStreakTracker создает StreakTracker. events может быть nil.
func NewStreakTracker(unlocker Unlocker, events Emitter) *StreakTracker {
	return &StreakTracker{
		unlocker: unlocker,
		events:   events,
	}
}

// Update засчитывает день today. Повторный вызов в тот же день ничего не меняет,
// вчерашний день продолжает стрик, пропуск от двух дней начинает его заново.
func (s *StreakTracker) Update(ctx context.Context, user *models.User, today time.Time) (*StreakResult, error) {
	day := Date(today)

	if user.LastStreakDate != nil {
		last := Date(*user.LastStreakDate)
		switch {
		case last.Equal(day):
			return &StreakResult{StreakDays: user.StreakDays, StreakUpdated: false}, nil
		case last.AddDate(0, 0, 1).Equal(day):
			user.StreakDays++
		default:
			user.StreakDays = 1
		}
	} else {
		user.StreakDays = 1
	}

	user.LastStreakDate = &day
	if user.StreakDays > user.MaxStreakDays {
		user.MaxStreakDays = user.StreakDays
	}

	for _, m := range StreakMilestones {
		if user.StreakDays < m.Days {
			continue
		}
		if user.StreakDays == m.Days && s.events != nil {
			s.events.Emit(models.Event{
				Type:    models.EventStreakMilestone,
				UserUID: user.UUID,
				TgID:    user.TgID,
				Payload: map[string]any{"streak_days": m.Days},
			})
		}
		if _, err := s.unlocker.Unlock(ctx, user, m.Code); err != nil {
			return nil, err
		}
	}

	return &StreakResult{StreakDays: user.StreakDays, StreakUpdated: true}, nil
}

// Date отбрасывает время суток, сохраняя календарную дату в UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
