package models

import "errors"

var (
	// ErrUnauthenticated — неверная подпись initData, устаревший auth_date
	// или невалидный/просроченный токен. Причина наружу не раскрывается.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation — некорректная структура входных данных.
	ErrValidation = errors.New("validation error")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrPremiumRequired — функция доступна только с премиумом.
	ErrPremiumRequired = errors.New("premium subscription required")
)
