package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// InsertPayment записывает платёж. false — такой telegram_payment_id уже есть.
func (r *txRepo) InsertPayment(ctx context.Context, p models.Payment) (bool, error) {
	const op = "storage.InsertPayment"

	query := `INSERT INTO payments (user_uid, telegram_payment_id, amount, period_days,
			      starts_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (telegram_payment_id) DO NOTHING`
	res, err := r.tx.ExecContext(ctx, query,
		p.UserUID, p.TelegramPaymentID, p.Amount, p.PeriodDays, p.StartsAt, p.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}
