package models

import "time"

// Статусы премиум-доступа пользователя.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Payment — неизменяемая запись об оплате, добавляется при каждой активации.
type Payment struct {
	ID                string    // Внутренний идентификатор записи
	UserUID           string    // Владелец оплаты
	TelegramPaymentID string    // telegram_payment_charge_id, уникален
	Amount            int       // Сумма в Telegram Stars
	PeriodDays        int       // Длительность оплаченного периода
	StartsAt          time.Time // Начало периода
	ExpiresAt         time.Time // Окончание периода
}
