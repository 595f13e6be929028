// Package initdata проверяет подписанные данные запуска Telegram Mini App (initData).
//
// Validator восстанавливает строку проверки из всех полей, кроме hash,
// вычисляет HMAC-SHA256 на ключе, производном от токена бота, и сравнивает
// его с присланным hash за постоянное время. Пакет не имеет состояния и
// безопасен для одновременного использования.
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/habit-progression/internal/models"
)

const (
	// DefaultMaxAge — допустимое расхождение auth_date с текущим временем.
	DefaultMaxAge = 300 * time.Second

	webAppDataKey = "WebAppData"
)

// Identity — данные пользователя из поля user. Не сохраняются.
type Identity struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

// Result — результат успешной проверки.
type Result struct {
	User     *Identity  // nil, если поле user отсутствует
	AuthDate *time.Time // nil, если поле auth_date отсутствует
	Fields   url.Values // все подписанные поля без hash
}

// Validator проверяет initData для конкретного бота.
type Validator struct {
	secretKey []byte
	maxAge    time.Duration
	now       func() time.Time
}

// New создаёт Validator. secretKey = HMAC-SHA256(key="WebAppData", msg=botToken)
// вычисляется один раз.
func New(botToken string, maxAge time.Duration) *Validator {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	mac := hmac.New(sha256.New, []byte(webAppDataKey))
	mac.Write([]byte(botToken))
	return &Validator{
		secretKey: mac.Sum(nil),
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate проверяет строку initData.
//
// Возвращает ошибку, оборачивающую models.ErrUnauthenticated, если нет hash,
// auth_date вне окна или подпись не совпадает, и models.ErrValidation, если
// строка не разбирается или поле user содержит некорректный JSON.
func (v *Validator) Validate(initData string) (*Result, error) {
	const op = "initdata.Validate"

	fields, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrValidation, err)
	}

	receivedHash := fields.Get("hash")
	if receivedHash == "" {
		return nil, fmt.Errorf("%s: %w: missing hash", op, models.ErrUnauthenticated)
	}
	fields.Del("hash")

	res := &Result{Fields: fields}

	if raw, ok := first(fields, "auth_date"); ok {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: bad auth_date", op, models.ErrValidation)
		}
		authDate := time.Unix(unix, 0)
		if age := v.now().Sub(authDate); age > v.maxAge || age < -v.maxAge {
			return nil, fmt.Errorf("%s: %w: auth_date outside window", op, models.ErrUnauthenticated)
		}
		res.AuthDate = &authDate
	}

	expected := v.sign(DataCheckString(fields))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(receivedHash))) {
		return nil, fmt.Errorf("%s: %w: signature mismatch", op, models.ErrUnauthenticated)
	}

	if raw, ok := first(fields, "user"); ok {
		var identity Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			return nil, fmt.Errorf("%s: %w: malformed user: %v", op, models.ErrValidation, err)
		}
		res.User = &identity
	}

	return res, nil
}

// Sign подписывает поля так же, как это делает Telegram. Используется в тестах
// и локальных инструментах для генерации валидного initData.
func (v *Validator) Sign(fields url.Values) string {
	return v.sign(DataCheckString(fields))
}

func (v *Validator) sign(checkString string) string {
	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}

// DataCheckString строит каноническую строку: поля, отсортированные по ключу,
// в виде key=value, разделённые переводом строки. Берётся первое значение ключа.
func DataCheckString(fields url.Values) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields.Get(k))
	}
	return strings.Join(pairs, "\n")
}

func first(fields url.Values, key string) (string, bool) {
	vals, ok := fields[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
