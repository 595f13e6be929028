// Package jwt реализует выпуск и проверку сессионных JWT токенов,
// которые выдаются после успешной проверки Telegram initData.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для выпуска и проверки сессионных токенов.
type Maker interface {
	// GenerateToken выпускает токен для внутреннего uid и Telegram id.
	GenerateToken(userUID string, externalID int64) (string, error)
	// ParseToken проверяет токен и возвращает его claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа HS256
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration    // Время жизни токена.
	now       func() time.Time // Источник времени, подменяется в тестах.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени.
func (j *MakerImpl) WithClock(now func() time.Time) *MakerImpl {
	j.now = now
	return j
}
