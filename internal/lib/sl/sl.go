// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
//	log.Error("failed to award xp", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// UserUID возвращает атрибут с идентификатором пользователя.
func UserUID(uid string) slog.Attr {
	return slog.String("user_uid", uid)
}
