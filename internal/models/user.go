// Package models содержит доменную модель пользователя трекера привычек:
// данные Telegram-аккаунта, параметры тела, суточные нормы, прогресс
// геймификации и кэш состояния премиум-доступа.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет пользователя, пришедшего через Telegram Mini App.
type User struct {
	UUID      string // Внутренний идентификатор пользователя
	TgID      int64  // Идентификатор пользователя в Telegram
	Username  string // Username в Telegram (может быть пустым)
	FirstName string // Имя из Telegram

	Goal           string   // cut | bulk | maintain
	Gender         string   // male | female
	Age            int      // Возраст, лет
	WeightKg       float64  // Текущий вес
	HeightCm       float64  // Рост
	TargetWeightKg *float64 // Целевой вес (опционально)
	ActivityLevel  string   // sedentary | moderate | active | athlete

	DailyCalories int
	DailyProteinG int
	DailyFatG     int
	DailyCarbsG   int

	Level          int        // Уровень, не меньше 1
	XP             int        // Опыт внутри текущего уровня
	XPToNextLevel  int        // Порог следующего уровня: 500 * 2^(level-1)
	StreakDays     int        // Текущий стрик в днях
	MaxStreakDays  int        // Лучший стрик за всё время
	LastStreakDate *time.Time // Календарная дата последнего засчитанного дня
	DailyBonusDate *time.Time // Дата последнего ежедневного бонуса

	TrialStartedAt        *time.Time // Начало пробного периода
	SubscriptionStatus    string     // trial | active | expired | cancelled
	SubscriptionExpiresAt *time.Time // Окончание текущего периода доступа

	OnboardingCompleted bool
	CreatedAt           time.Time
}

// NewUser возвращает пользователя с начальными значениями прогресса.
func NewUser(tgID int64, username, firstName string) *User {
	return &User{
		TgID:               tgID,
		Username:           username,
		FirstName:          firstName,
		Goal:               "maintain",
		Level:              1,
		XPToNextLevel:      500,
		SubscriptionStatus: StatusTrial,
	}
}
