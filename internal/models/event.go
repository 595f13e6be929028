package models

import "time"

// Типы событий для асинхронной доставки уведомлений.
const (
	EventLevelUp             = "level_up"
	EventAchievementUnlocked = "achievement_unlocked"
	EventStreakMilestone     = "streak_milestone"
)

// Event — заметное событие прогресса, публикуемое после фиксации транзакции.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	UserUID    string         `json:"user_uid"`
	TgID       int64          `json:"tg_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
