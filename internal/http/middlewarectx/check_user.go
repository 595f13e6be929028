package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
)

// PremiumChecker определяет интерфейс проверки премиум-доступа.
type PremiumChecker interface {
	HasPremium(ctx context.Context, userUID string) (bool, error)
}

// PremiumMiddleware пропускает запрос без проверки, если requires вернул false,
// иначе требует открытый премиум и отвечает 403 без него.
func PremiumMiddleware(log *slog.Logger, svc PremiumChecker, requires func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requires != nil && !requires(r) {
				next.ServeHTTP(w, r)
				return
			}

			userUID, ok := UserUIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			premium, err := svc.HasPremium(r.Context(), userUID)
			if err != nil {
				log.Error("failed to check premium access", sl.Err(err))
				code, resp := response.FromError(err)
				render.Status(r, code)
				render.JSON(w, r, resp)
				return
			}
			if !premium {
				log.Info("premium required, access denied", sl.UserUID(userUID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("premium subscription required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PeriodBeyond30d — условие для PremiumMiddleware: история длиннее 30 дней.
func PeriodBeyond30d(r *http.Request) bool {
	period := r.URL.Query().Get("period")
	return period != "" && period != "30d"
}
