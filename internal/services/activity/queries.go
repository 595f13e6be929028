package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/achievements"
	"github.com/magabrotheeeer/habit-progression/internal/services/entitlement"
	"github.com/magabrotheeeer/habit-progression/internal/services/progression"
)

// Периоды истории веса.
const (
	Period30d = "30d"
	Period90d = "90d"
	PeriodAll = "all"
)

var periodDays = map[string]int{
	Period30d: 30,
	Period90d: 90,
	PeriodAll: 3650,
}

// Цели по умолчанию, пока нормы не рассчитаны.
const (
	defaultCalories = 2000
	defaultProteinG = 150
	defaultFatG     = 65
	defaultCarbsG   = 250
)

// AchievementView — достижение каталога с отметкой о получении.
type AchievementView struct {
	achievements.Definition
	Earned     bool       `json:"earned"`
	AchievedAt *time.Time `json:"achieved_at"`
}

// Profile — профиль геймификации.
type Profile struct {
	Level        int               `json:"level"`
	XP           int               `json:"xp"`
	XPToNext     int               `json:"xp_to_next"`
	StreakDays   int               `json:"streak_days"`
	MaxStreak    int               `json:"max_streak"`
	Achievements []AchievementView `json:"achievements"`
}

// AchievementsList — достижения, разделённые на полученные и доступные.
type AchievementsList struct {
	Earned    []AchievementView `json:"earned"`
	Available []AchievementView `json:"available"`
}

// Macros — калории и БЖУ.
type Macros struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
}

// FoodDay — дневник питания за день.
type FoodDay struct {
	Entries []models.FoodLog `json:"entries"`
	Totals  Macros           `json:"totals"`
	Goal    Macros           `json:"goal"`
}

// Profile возвращает профиль геймификации, используя кэш.
func (s *Service) Profile(ctx context.Context, userUID string) (*Profile, error) {
	const op = "services.activity.Profile"

	key := profileKey(userUID)
	if s.cache != nil {
		var cached Profile
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read profile from cache", sl.UserUID(userUID), sl.Err(err))
		} else if found {
			return &cached, nil
		}
	}

	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	views, err := s.achievementViews(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	xpToNext := user.XPToNextLevel
	if xpToNext == 0 {
		xpToNext = progression.XPForLevel(user.Level)
	}
	profile := &Profile{
		Level:        max(user.Level, 1),
		XP:           user.XP,
		XPToNext:     xpToNext,
		StreakDays:   user.StreakDays,
		MaxStreak:    user.MaxStreakDays,
		Achievements: views,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, profile, s.profileTTL); err != nil {
			s.log.Warn("failed to cache profile", sl.UserUID(userUID), sl.Err(err))
		}
	}
	return profile, nil
}

// Achievements возвращает полученные и доступные достижения.
func (s *Service) Achievements(ctx context.Context, userUID string) (*AchievementsList, error) {
	const op = "services.activity.Achievements"

	views, err := s.achievementViews(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list := &AchievementsList{
		Earned:    []AchievementView{},
		Available: []AchievementView{},
	}
	for _, v := range views {
		if v.Earned {
			list.Earned = append(list.Earned, v)
		} else {
			list.Available = append(list.Available, v)
		}
	}
	return list, nil
}

func (s *Service) achievementViews(ctx context.Context, userUID string) ([]AchievementView, error) {
	earned, err := s.store.ListAchievements(ctx, userUID)
	if err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(earned))
	for _, a := range earned {
		at[a.Code] = a.AchievedAt
	}

	catalog := achievements.Catalog()
	views := make([]AchievementView, 0, len(catalog))
	for _, def := range catalog {
		v := AchievementView{Definition: def}
		if t, ok := at[def.Code]; ok {
			v.Earned = true
			v.AchievedAt = &t
		}
		views = append(views, v)
	}
	return views, nil
}

// FoodLog возвращает записи о еде за день с суммами и целями пользователя.
// Пустая строка day означает сегодня.
func (s *Service) FoodLog(ctx context.Context, userUID, day string) (*FoodDay, error) {
	const op = "services.activity.FoodLog"

	date := s.today()
	if day != "" {
		parsed, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("%s: date: %w", op, models.ErrValidation)
		}
		date = parsed
	}

	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries, err := s.store.ListFoodLogs(ctx, userUID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &FoodDay{
		Entries: entries,
		Goal: Macros{
			Calories: float64(orDefault(user.DailyCalories, defaultCalories)),
			ProteinG: float64(orDefault(user.DailyProteinG, defaultProteinG)),
			FatG:     float64(orDefault(user.DailyFatG, defaultFatG)),
			CarbsG:   float64(orDefault(user.DailyCarbsG, defaultCarbsG)),
		},
	}
	if res.Entries == nil {
		res.Entries = []models.FoodLog{}
	}
	for _, e := range entries {
		res.Totals.Calories += e.Calories
		res.Totals.ProteinG += e.ProteinG
		res.Totals.FatG += e.FatG
		res.Totals.CarbsG += e.CarbsG
	}
	return res, nil
}

// WeightHistory возвращает замеры веса за период. Неизвестный период
// трактуется как 30d. Проверка премиума выполняется до вызова.
func (s *Service) WeightHistory(ctx context.Context, userUID, period string) ([]models.WeightLog, error) {
	const op = "services.activity.WeightHistory"

	days, ok := periodDays[period]
	if !ok {
		days = periodDays[Period30d]
	}
	since := s.today().AddDate(0, 0, -days)

	entries, err := s.store.WeightHistory(ctx, userUID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entries == nil {
		entries = []models.WeightLog{}
	}
	return entries, nil
}

// SubscriptionStatus возвращает статус доступа на текущий момент.
// Производный статус не сохраняется.
func (s *Service) SubscriptionStatus(ctx context.Context, userUID string) (*entitlement.Status, error) {
	const op = "services.activity.SubscriptionStatus"

	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	st := entitlement.DeriveStatus(user, s.now())
	s.log.Debug("subscription status derived", slog.String("op", op), sl.UserUID(userUID), slog.String("status", st.Status))
	return &st, nil
}

// HasPremium сообщает, открыт ли премиум пользователю сейчас.
func (s *Service) HasPremium(ctx context.Context, userUID string) (bool, error) {
	const op = "services.activity.HasPremium"

	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return entitlement.HasPremiumAccess(user, s.now()), nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
