// Package webhook принимает обновления Telegram Bot API об оплате
// премиума в Telegram Stars.
package webhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
	"github.com/magabrotheeeer/habit-progression/internal/services/entitlement"
)

// SecretHeader — заголовок, в котором Telegram передаёт secret_token вебхука.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Service активирует премиум по платежу.
type Service interface {
	HandlePayment(ctx context.Context, tgID int64, paymentID string, amount int) (*entitlement.Status, error)
}

// Handler обрабатывает вебхук оплаты.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service
	secret  string // secret_token, заданный при setWebhook
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  secret,
	}
}

type from struct {
	ID int64 `json:"id"`
}

// Update — нужная часть объекта Update из Bot API.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		From              from `json:"from"`
		SuccessfulPayment *struct {
			Currency                string `json:"currency"`
			TotalAmount             int    `json:"total_amount"`
			InvoicePayload          string `json:"invoice_payload"`
			TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
		} `json:"successful_payment"`
	} `json:"message"`
	PreCheckoutQuery *struct {
		ID   string `json:"id"`
		From from   `json:"from"`
	} `json:"pre_checkout_query"`
}

// verifySecret сверяет заголовок с secret_token. Без настроенного секрета
// вебхук не принимает ничего.
func (h *Handler) verifySecret(got string) bool {
	if h.secret == "" || got == "" {
		return false
	}
	return hmac.Equal([]byte(h.secret), []byte(got))
}

// ServeHTTP godoc
// @Summary Вебхук оплаты Telegram Stars
// @Tags Subscription
// @Accept  json
// @Produce  json
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /subscription/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.webhook"
	log := h.log.With(slog.String("op", op))

	if !h.verifySecret(r.Header.Get(SecretHeader)) {
		log.Warn("invalid or missing webhook secret")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid webhook secret"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}
	defer r.Body.Close()

	var upd Update
	if err := json.Unmarshal(body, &upd); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}

	if upd.Message == nil || upd.Message.SuccessfulPayment == nil {
		if upd.PreCheckoutQuery != nil {
			log.Info("pre-checkout approved", slog.String("query_id", upd.PreCheckoutQuery.ID))
			render.JSON(w, r, map[string]any{"ok": true})
			return
		}
		log.Warn("ignored webhook update", slog.Int64("update_id", upd.UpdateID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}

	tgID := upd.Message.From.ID
	if tgID == 0 {
		log.Warn("payment without user id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing user id"))
		return
	}

	payment := upd.Message.SuccessfulPayment
	if payment.TelegramPaymentChargeID == "" {
		log.Warn("payment without charge id", slog.Int64("tg_id", tgID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing payment id"))
		return
	}

	st, err := h.service.HandlePayment(r.Context(), tgID, payment.TelegramPaymentChargeID, payment.TotalAmount)
	if err != nil {
		log.Error("failed to activate subscription", sl.Err(err), slog.Int64("tg_id", tgID))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("subscription activated",
		slog.Int64("tg_id", tgID),
		slog.String("payment_id", payment.TelegramPaymentChargeID),
		slog.Int("amount", payment.TotalAmount),
	)
	render.JSON(w, r, map[string]any{"ok": true, "subscription": st})
}
