// Package entitlement ведёт состояние премиум-доступа: пробный период,
// активация после оплаты и проекция статуса на момент чтения.
package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

const (
	// TrialDays — длительность пробного периода.
	TrialDays = 7
	// PeriodDays — длительность оплаченного периода.
	PeriodDays = 30
)

// PaymentStore записывает платежи в транзакции пользователя.
type PaymentStore interface {
	// InsertPayment возвращает false, если платёж уже записан.
	InsertPayment(ctx context.Context, payment models.Payment) (bool, error)
}

// Status — наблюдаемое состояние доступа.
type Status struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
	DaysLeft  int        `json:"days_left"`
}

// StartTrial открывает пробный период от now.
func StartTrial(user *models.User, now time.Time) {
	expires := now.AddDate(0, 0, TrialDays)
	user.TrialStartedAt = &now
	user.SubscriptionStatus = models.StatusTrial
	user.SubscriptionExpiresAt = &expires
}

// TrialAvailable сообщает, можно ли открыть пробный период. Пробный период
// выдаётся один раз и никогда поверх оплаченного доступа.
func TrialAvailable(user *models.User) bool {
	return user.TrialStartedAt == nil && user.SubscriptionStatus != models.StatusActive
}

// Activate записывает платёж и открывает период в PeriodDays дней от now.
// Срок не суммируется с предыдущим. Повторный paymentID ничего не меняет.
func Activate(ctx context.Context, store PaymentStore, user *models.User, paymentID string, amount int, now time.Time) (*Status, error) {
	const op = "services.entitlement.Activate"

	expires := now.AddDate(0, 0, PeriodDays)
	inserted, err := store.InsertPayment(ctx, models.Payment{
		UserUID:           user.UUID,
		TelegramPaymentID: paymentID,
		Amount:            amount,
		PeriodDays:        PeriodDays,
		StartsAt:          now,
		ExpiresAt:         expires,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if inserted {
		user.SubscriptionStatus = models.StatusActive
		user.SubscriptionExpiresAt = &expires
	}

	st := DeriveStatus(user, now)
	return &st, nil
}

// DeriveStatus вычисляет статус на момент now, не изменяя пользователя.
// Истёкший trial или active наблюдается как expired.
func DeriveStatus(user *models.User, now time.Time) Status {
	st := Status{
		Status:    user.SubscriptionStatus,
		ExpiresAt: user.SubscriptionExpiresAt,
	}
	if st.Status == "" {
		st.Status = models.StatusExpired
	}
	if user.SubscriptionExpiresAt == nil {
		st.Status = models.StatusExpired
		return st
	}

	if left := user.SubscriptionExpiresAt.Sub(now); left > 0 {
		st.DaysLeft = int(left / (24 * time.Hour))
	}
	if st.DaysLeft == 0 && (st.Status == models.StatusTrial || st.Status == models.StatusActive) {
		st.Status = models.StatusExpired
	}
	return st
}

// HasPremiumAccess сообщает, открыт ли премиум на момент now.
func HasPremiumAccess(user *models.User, now time.Time) bool {
	st := DeriveStatus(user, now)
	return st.DaysLeft > 0 && (st.Status == models.StatusTrial || st.Status == models.StatusActive)
}
