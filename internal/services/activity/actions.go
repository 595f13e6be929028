package activity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/achievements"
	"github.com/magabrotheeeer/habit-progression/internal/services/entitlement"
	"github.com/magabrotheeeer/habit-progression/internal/services/progression"
)

// Опыт за действия.
const (
	WorkoutXP    = 40
	WeightLogXP  = 10
	DailyBonusXP = 10
	// goalTolerance — допуск в килограммах для goal_reached.
	goalTolerance = 0.5
)

var mealXP = map[string]int{
	models.MealBreakfast: 15,
	models.MealLunch:     15,
	models.MealDinner:    15,
	models.MealSnack:     10,
}

// MealXP возвращает опыт за приём пищи; неизвестный тип даёт 10.
func MealXP(mealType string) int {
	if xp, ok := mealXP[mealType]; ok {
		return xp
	}
	return 10
}

// Progress — прогресс пользователя после действия.
type Progress struct {
	XPAwarded     int                    `json:"xp_awarded"`
	LeveledUp     bool                   `json:"level_up"`
	Level         int                    `json:"level"`
	XP            int                    `json:"xp"`
	XPToNextLevel int                    `json:"xp_to_next_level"`
	Achievements  []*models.UnlockResult `json:"achievements"`
}

// FoodResult — ответ на запись о еде.
type FoodResult struct {
	Entry         models.FoodLog            `json:"entry"`
	Streak        *progression.StreakResult `json:"streak"`
	AllMealsBonus bool                      `json:"all_meals_bonus"`
	Progress
}

// WorkoutResult — ответ на отметку о тренировке.
type WorkoutResult struct {
	Workout models.Workout `json:"workout"`
	Created bool           `json:"created"`
	Progress
}

// WeightResult — ответ на замер веса.
type WeightResult struct {
	Entry models.WeightLog `json:"entry"`
	Progress
}

// DailyBonusResult — ответ на запрос ежедневного бонуса.
type DailyBonusResult struct {
	AlreadyClaimed bool `json:"already_claimed"`
	Progress
}

// LogFood записывает еду, начисляет опыт за приём пищи, продлевает стрик
// и проверяет достижения за питание.
func (s *Service) LogFood(ctx context.Context, userUID string, in models.DummyFoodLog) (*FoodResult, error) {
	const op = "services.activity.LogFood"

	entry := models.FoodLog{
		UserUID:  userUID,
		LoggedAt: s.now().UTC(),
		MealType: in.MealType,
		FoodName: in.FoodName,
		Calories: in.Calories,
		ProteinG: in.ProteinG,
		FatG:     in.FatG,
		CarbsG:   in.CarbsG,
		WeightG:  in.WeightG,
		Source:   in.Source,
	}
	if entry.MealType == "" {
		entry.MealType = models.MealSnack
	}
	if entry.Source == "" {
		entry.Source = models.SourceManual
	}
	if entry.WeightG == 0 {
		entry.WeightG = 100
	}

	res := &FoodResult{}
	err := s.inTx(ctx, userUID, func(ctx context.Context, sess *session, user *models.User) error {
		startLevel := user.Level

		id, err := sess.tx.InsertFoodLog(ctx, &entry)
		if err != nil {
			return err
		}
		entry.ID = id

		xp := MealXP(entry.MealType)
		if _, err := sess.engine.Award(ctx, user, xp); err != nil {
			return err
		}
		awarded := xp

		today := s.today()
		res.Streak, err = sess.streak.Update(ctx, user, today)
		if err != nil {
			return err
		}

		bonus, err := sess.registry.CheckDailyMeals(ctx, user, today)
		if err != nil {
			return err
		}
		if bonus != nil {
			res.AllMealsBonus = true
			awarded += bonus.AmountAwarded
		}

		if entry.Source == models.SourceAIPhoto {
			if _, err := sess.registry.Unlock(ctx, user, achievements.CodeFirstPhoto); err != nil {
				return err
			}
		}
		if _, err := sess.registry.CheckFoodDays(ctx, user); err != nil {
			return err
		}

		res.Progress = sess.progress(user, startLevel, awarded)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.Entry = entry
	return res, nil
}

// LogWorkout сохраняет тренировку за дату. Новая выполненная тренировка
// даёт WorkoutXP и проверку достижений; изменение существующей опыта не даёт.
func (s *Service) LogWorkout(ctx context.Context, userUID string, in models.DummyWorkout) (*WorkoutResult, error) {
	const op = "services.activity.LogWorkout"

	day, err := time.Parse(time.DateOnly, in.WorkoutDate)
	if err != nil {
		return nil, fmt.Errorf("%s: workout_date: %w", op, models.ErrValidation)
	}
	completed := true
	if in.Completed != nil {
		completed = *in.Completed
	}

	res := &WorkoutResult{}
	err = s.inTx(ctx, userUID, func(ctx context.Context, sess *session, user *models.User) error {
		startLevel := user.Level

		existing, err := sess.tx.GetWorkoutByDate(ctx, userUID, day)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Completed = completed
			existing.Notes = in.Notes
			if _, err := sess.tx.SaveWorkout(ctx, existing); err != nil {
				return err
			}
			res.Workout = *existing
			res.Progress = sess.progress(user, startLevel, 0)
			return nil
		}

		workout := models.Workout{
			UserUID:     userUID,
			WorkoutDate: day,
			Completed:   completed,
			Notes:       in.Notes,
		}
		if completed {
			workout.XPAwarded = WorkoutXP
		}
		workout.ID, err = sess.tx.SaveWorkout(ctx, &workout)
		if err != nil {
			return err
		}
		res.Created = true
		res.Workout = workout

		if completed {
			if _, err := sess.engine.Award(ctx, user, WorkoutXP); err != nil {
				return err
			}
			if _, err := sess.registry.CheckWorkouts(ctx, user); err != nil {
				return err
			}
		}

		res.Progress = sess.progress(user, startLevel, workout.XPAwarded)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// LogWeight записывает вес за дату (по умолчанию сегодня), обновляет текущий
// вес пользователя и выдаёт goal_reached при попадании в целевой вес.
func (s *Service) LogWeight(ctx context.Context, userUID string, in models.DummyWeightLog) (*WeightResult, error) {
	const op = "services.activity.LogWeight"

	day := s.today()
	if in.LoggedDate != "" {
		parsed, err := time.Parse(time.DateOnly, in.LoggedDate)
		if err != nil {
			return nil, fmt.Errorf("%s: logged_date: %w", op, models.ErrValidation)
		}
		day = parsed
	}

	entry := models.WeightLog{
		UserUID:    userUID,
		WeightKg:   in.WeightKg,
		LoggedDate: day,
	}
	res := &WeightResult{}
	err := s.inTx(ctx, userUID, func(ctx context.Context, sess *session, user *models.User) error {
		startLevel := user.Level

		id, err := sess.tx.UpsertWeightLog(ctx, &entry)
		if err != nil {
			return err
		}
		entry.ID = id
		user.WeightKg = in.WeightKg

		if user.TargetWeightKg != nil && math.Abs(in.WeightKg-*user.TargetWeightKg) <= goalTolerance {
			if _, err := sess.registry.Unlock(ctx, user, achievements.CodeGoalReached); err != nil {
				return err
			}
		}
		if _, err := sess.engine.Award(ctx, user, WeightLogXP); err != nil {
			return err
		}

		res.Progress = sess.progress(user, startLevel, WeightLogXP)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.Entry = entry
	return res, nil
}

// ClaimDailyBonus начисляет DailyBonusXP не чаще раза в календарный день.
func (s *Service) ClaimDailyBonus(ctx context.Context, userUID string) (*DailyBonusResult, error) {
	const op = "services.activity.ClaimDailyBonus"

	res := &DailyBonusResult{}
	err := s.inTx(ctx, userUID, func(ctx context.Context, sess *session, user *models.User) error {
		startLevel := user.Level
		today := s.today()

		if user.DailyBonusDate != nil && progression.Date(*user.DailyBonusDate).Equal(today) {
			res.AlreadyClaimed = true
			res.Progress = sess.progress(user, startLevel, 0)
			return nil
		}

		user.DailyBonusDate = &today
		if _, err := sess.engine.Award(ctx, user, DailyBonusXP); err != nil {
			return err
		}
		res.Progress = sess.progress(user, startLevel, DailyBonusXP)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// HandlePayment активирует премиум по успешной оплате из Telegram.
// Повторная доставка того же платежа ничего не меняет.
func (s *Service) HandlePayment(ctx context.Context, tgID int64, paymentID string, amount int) (*entitlement.Status, error) {
	const op = "services.activity.HandlePayment"

	user, err := s.store.GetUserByTgID(ctx, tgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var st *entitlement.Status
	err = s.inTx(ctx, user.UUID, func(ctx context.Context, sess *session, locked *models.User) error {
		var err error
		st, err = entitlement.Activate(ctx, sess.tx, locked, paymentID, amount, s.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// progress собирает итог действия. Выданные достижения берутся из
// событий сессии, в том числе выданные стриком и хуком уровня.
func (sess *session) progress(user *models.User, startLevel, awarded int) Progress {
	p := Progress{
		XPAwarded:     awarded,
		LeveledUp:     user.Level > startLevel,
		Level:         user.Level,
		XP:            user.XP,
		XPToNextLevel: user.XPToNextLevel,
		Achievements:  []*models.UnlockResult{},
	}
	sess.awarded = awarded
	for _, e := range sess.events.Events() {
		if e.Type != models.EventAchievementUnlocked {
			continue
		}
		code, _ := e.Payload["code"].(string)
		def, ok := achievements.Lookup(code)
		if !ok {
			continue
		}
		p.Achievements = append(p.Achievements, &models.UnlockResult{
			Code:    def.Code,
			Name:    def.Name,
			Icon:    def.Icon,
			BonusXP: def.BonusXP,
		})
		sess.awarded += def.BonusXP
	}
	return p
}
