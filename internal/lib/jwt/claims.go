package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// CustomClaims описывает данные, хранящиеся в сессионном токене.
// Subject — внутренний uid пользователя.
type CustomClaims struct {
	ExternalID           int64 `json:"external_id"` // Telegram id пользователя
	jwt.RegisteredClaims       // sub, iat, exp
}

// GenerateToken создает токен с subject = userUID, подписывая его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(userUID string, externalID int64) (string, error) {
	const op = "jwt.GenerateToken"
	if userUID == "" {
		return "", fmt.Errorf("%s: empty subject", op)
	}
	now := j.now()
	claims := CustomClaims{
		ExternalID: externalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись, алгоритм и срок действия токена.
//
// Любая ошибка сводится к models.ErrUnauthenticated, чтобы вызывающий код
// не мог отличить просроченный токен от поддельного. Исходная причина
// доступна через Cause для логирования.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, &authError{cause: err}
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, &authError{cause: errors.New("invalid claims")}
	}
	return claims, nil
}

type authError struct {
	cause error
}

func (e *authError) Error() string { return models.ErrUnauthenticated.Error() }

func (e *authError) Is(target error) bool { return target == models.ErrUnauthenticated }

// Cause возвращает внутреннюю причину отказа, если err получена из ParseToken.
func Cause(err error) error {
	var ae *authError
	if errors.As(err, &ae) {
		return ae.cause
	}
	return err
}
