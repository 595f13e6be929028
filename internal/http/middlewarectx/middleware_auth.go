// Package middlewarectx содержит HTTP middleware для проверки сессионного
// токена, ограничения частоты запросов и проверки премиум-доступа.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст uid пользователя и его Telegram id
// для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/habit-progression/internal/http/response"
	"github.com/magabrotheeeer/habit-progression/internal/lib/jwt"
	"github.com/magabrotheeeer/habit-progression/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для внутреннего uid пользователя в контексте
	UserUID Key = "user_uid"
	// TgID — ключ для Telegram id пользователя в контексте
	TgID Key = "tg_id"
)

// TokenParser описывает проверку сессионного токена.
type TokenParser interface {
	ParseToken(token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(tokens TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := tokens.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Debug("token rejected", sl.Err(jwt.Cause(err)))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.Subject)
			ctx = context.WithValue(ctx, TgID, claims.ExternalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserUIDFrom достаёт uid пользователя, положенный JWTMiddleware.
func UserUIDFrom(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	return uid, ok && uid != ""
}
