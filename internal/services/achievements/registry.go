// Package achievements реализует реестр достижений: идемпотентную выдачу
// по статическому каталогу с бонусным опытом и правила, не зависящие
// от каталога (бонус за три основных приёма пищи за день).
package achievements

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/progression"
)

// DailyMealsBonusXP — бонус за завтрак, обед и ужин в один день.
const DailyMealsBonusXP = 50

// FoodDaysForFirstWeek — число дней с записями о еде для first_week.
const FoodDaysForFirstWeek = 7

var requiredMeals = []string{models.MealBreakfast, models.MealLunch, models.MealDinner}

// Store описывает операции хранилища, нужные реестру, в рамках транзакции.
type Store interface {
	// HasAchievement проверяет наличие записи (user, code).
	HasAchievement(ctx context.Context, userUID, code string) (bool, error)
	// InsertAchievement создаёт запись. Возвращает false, если запись уже
	// существовала (в том числе при гонке по уникальному ключу).
	InsertAchievement(ctx context.Context, achievement models.Achievement) (bool, error)
	// MealTypesOn возвращает различные типы приёмов пищи за день.
	MealTypesOn(ctx context.Context, userUID string, day time.Time) ([]string, error)
	// CountCompletedWorkouts возвращает количество выполненных тренировок.
	CountCompletedWorkouts(ctx context.Context, userUID string) (int, error)
	// CountFoodLogDays возвращает число различных дней с записями о еде.
	CountFoodLogDays(ctx context.Context, userUID string) (int, error)
}

// Awarder начисляет опыт.
type Awarder interface {
	Award(ctx context.Context, user *models.User, amount int) (*progression.AwardResult, error)
}

// Registry выдаёт достижения.
type Registry struct {
	store   Store
	awarder Awarder
	events  progression.Emitter
	log     *slog.Logger
	now     func() time.Time
}

// NewRegistry создает Registry. events может быть nil.
func NewRegistry(store Store, awarder Awarder, events progression.Emitter, log *slog.Logger, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		store:   store,
		awarder: awarder,
		events:  events,
		log:     log,
		now:     now,
	}
}

// Unlock выдаёт достижение code, если его ещё нет. Возвращает nil, когда
// достижение уже получено или код отсутствует в каталоге.
func (r *Registry) Unlock(ctx context.Context, user *models.User, code string) (*models.UnlockResult, error) {
	const op = "services.achievements.Unlock"

	exists, err := r.store.HasAchievement(ctx, user.UUID, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, nil
	}

	def, ok := Lookup(code)
	if !ok {
		r.log.Warn("unknown achievement code ignored", slog.String("op", op), slog.String("code", code))
		return nil, nil
	}

	inserted, err := r.store.InsertAchievement(ctx, models.Achievement{
		UserUID:    user.UUID,
		Code:       code,
		AchievedAt: r.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !inserted {
		r.log.Debug("achievement already recorded", slog.String("op", op), slog.String("code", code), sl.UserUID(user.UUID))
		return nil, nil
	}

	award, err := r.awarder.Award(ctx, user, def.BonusXP)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.log.Info("achievement unlocked", slog.String("op", op), slog.String("code", code), sl.UserUID(user.UUID))
	if r.events != nil {
		r.events.Emit(models.Event{
			Type:    models.EventAchievementUnlocked,
			UserUID: user.UUID,
			TgID:    user.TgID,
			Payload: map[string]any{"code": def.Code, "name": def.Name, "icon": def.Icon, "xp": def.BonusXP},
		})
	}

	return &models.UnlockResult{
		Code:      def.Code,
		Name:      def.Name,
		Icon:      def.Icon,
		BonusXP:   def.BonusXP,
		LeveledUp: award.LeveledUp,
	}, nil
}

// CheckLevel — LevelHook для progression.Engine: выдаёт level_10.
func (r *Registry) CheckLevel(ctx context.Context, user *models.User) error {
	if user.Level < progression.LevelHookThreshold {
		return nil
	}
	_, err := r.Unlock(ctx, user, CodeLevel10)
	return err
}

// CheckDailyMeals начисляет DailyMealsBonusXP, если за day залогированы
// завтрак, обед и ужин. Флага "уже начислено сегодня" нет: каждая
// подходящая запись после третьего основного приёма начисляет бонус снова.
func (r *Registry) CheckDailyMeals(ctx context.Context, user *models.User, day time.Time) (*progression.AwardResult, error) {
	const op = "services.achievements.CheckDailyMeals"

	types, err := r.store.MealTypesOn(ctx, user.UUID, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logged := make(map[string]struct{}, len(types))
	for _, t := range types {
		logged[t] = struct{}{}
	}
	for _, meal := range requiredMeals {
		if _, ok := logged[meal]; !ok {
			return nil, nil
		}
	}

	award, err := r.awarder.Award(ctx, user, DailyMealsBonusXP)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return award, nil
}

// CheckWorkouts выдаёт достижения за 10/50/100 выполненных тренировок.
func (r *Registry) CheckWorkouts(ctx context.Context, user *models.User) ([]*models.UnlockResult, error) {
	const op = "services.achievements.CheckWorkouts"

	count, err := r.store.CountCompletedWorkouts(ctx, user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var awarded []*models.UnlockResult
	for _, m := range workoutMilestones {
		if count < m.Count {
			continue
		}
		res, err := r.Unlock(ctx, user, m.Code)
		if err != nil {
			return nil, err
		}
		if res != nil {
			awarded = append(awarded, res)
		}
	}
	return awarded, nil
}

// CheckFoodDays выдаёт first_week после семи разных дней с записями о еде.
func (r *Registry) CheckFoodDays(ctx context.Context, user *models.User) (*models.UnlockResult, error) {
	const op = "services.achievements.CheckFoodDays"

	days, err := r.store.CountFoodLogDays(ctx, user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if days < FoodDaysForFirstWeek {
		return nil, nil
	}
	return r.Unlock(ctx, user, CodeFirstWeek)
}
