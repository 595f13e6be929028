package models

import "time"

// Achievement — факт получения достижения пользователем.
// Пара (UserUID, Code) уникальна, запись не изменяется после создания.
type Achievement struct {
	UserUID    string
	Code       string
	AchievedAt time.Time
}

// UnlockResult — итог первой выдачи достижения.
type UnlockResult struct {
	Code      string `json:"achievement_code"`
	Name      string `json:"achievement_name"`
	Icon      string `json:"achievement_icon"`
	BonusXP   int    `json:"xp_awarded"`
	LeveledUp bool   `json:"level_up"`
}
