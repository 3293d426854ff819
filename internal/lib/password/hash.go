// Package password реализует функции для безопасного хеширования и проверки паролей,
// а также генерацию случайных паролей-заглушек для учётных записей, созданных по вебхуку.
package password

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// placeholderBytes длина случайного пароля-заглушки до кодирования.
const placeholderBytes = 32

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе, ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GeneratePlaceholder возвращает криптографически случайный пароль.
// Пользователь его не знает: войти он сможет только после сброса пароля.
func GeneratePlaceholder() (string, error) {
	const op = "password.GeneratePlaceholder"
	buf := make([]byte, placeholderBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
