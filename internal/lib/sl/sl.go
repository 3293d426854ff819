// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель, упростить формирование структурированных полей лога,
// например, для передачи информации об ошибках и адресах покупателей.
package sl

import (
	"log/slog"
	"strings"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Email возвращает slog.Attr с ключом "email", в котором локальная часть адреса
// частично скрыта: в логи попадают только первый символ и домен.
func Email(email string) slog.Attr {
	return slog.String("email", MaskEmail(email))
}

// MaskEmail скрывает локальную часть адреса: "buyer@example.com" -> "b***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
