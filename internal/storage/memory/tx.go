package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

type tx struct {
	st *state
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (t *tx) HasAchievement(_ context.Context, userUID, code string) (bool, error) {
	_, ok := t.st.achievements[userUID][code]
	return ok, nil
}

func (t *tx) InsertAchievement(_ context.Context, a models.Achievement) (bool, error) {
	codes, ok := t.st.achievements[a.UserUID]
	if !ok {
		codes = map[string]models.Achievement{}
		t.st.achievements[a.UserUID] = codes
	}
	if _, exists := codes[a.Code]; exists {
		return false, nil
	}
	codes[a.Code] = a
	return true, nil
}

func (t *tx) InsertFoodLog(_ context.Context, entry *models.FoodLog) (string, error) {
	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.LoggedAt.IsZero() {
		e.LoggedAt = time.Now()
	}
	t.st.foodLogs = append(t.st.foodLogs, e)
	return e.ID, nil
}

func (t *tx) MealTypesOn(_ context.Context, userUID string, day time.Time) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, f := range t.st.foodLogs {
		if f.UserUID != userUID || !sameDay(f.LoggedAt, day) {
			continue
		}
		if _, ok := seen[f.MealType]; ok {
			continue
		}
		seen[f.MealType] = struct{}{}
		out = append(out, f.MealType)
	}
	return out, nil
}

func (t *tx) CountFoodLogDays(_ context.Context, userUID string) (int, error) {
	days := map[string]struct{}{}
	for _, f := range t.st.foodLogs {
		if f.UserUID == userUID {
			days[f.LoggedAt.Format(time.DateOnly)] = struct{}{}
		}
	}
	return len(days), nil
}

func (t *tx) GetWorkoutByDate(_ context.Context, userUID string, day time.Time) (*models.Workout, error) {
	for _, w := range t.st.workouts {
		if w.UserUID == userUID && sameDay(w.WorkoutDate, day) {
			found := w
			return &found, nil
		}
	}
	return nil, nil
}

func (t *tx) SaveWorkout(_ context.Context, workout *models.Workout) (string, error) {
	for i, w := range t.st.workouts {
		if w.UserUID == workout.UserUID && sameDay(w.WorkoutDate, workout.WorkoutDate) {
			t.st.workouts[i].Completed = workout.Completed
			t.st.workouts[i].Notes = workout.Notes
			return w.ID, nil
		}
	}
	w := *workout
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	t.st.workouts = append(t.st.workouts, w)
	return w.ID, nil
}

func (t *tx) CountCompletedWorkouts(_ context.Context, userUID string) (int, error) {
	n := 0
	for _, w := range t.st.workouts {
		if w.UserUID == userUID && w.Completed {
			n++
		}
	}
	return n, nil
}

func (t *tx) UpsertWeightLog(_ context.Context, entry *models.WeightLog) (string, error) {
	for i, w := range t.st.weights {
		if w.UserUID == entry.UserUID && sameDay(w.LoggedDate, entry.LoggedDate) {
			t.st.weights[i].WeightKg = entry.WeightKg
			return w.ID, nil
		}
	}
	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	t.st.weights = append(t.st.weights, e)
	return e.ID, nil
}

func (t *tx) InsertPayment(_ context.Context, p models.Payment) (bool, error) {
	if _, exists := t.st.payments[p.TelegramPaymentID]; exists {
		return false, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	t.st.payments[p.TelegramPaymentID] = p
	return true, nil
}
