// Package signature проверяет, что вебхук действительно отправлен платёжным провайдером.
//
// Подпись равна HMAC-SHA256 в hex от канонического представления формы
// (formdata.Values.Encode) с общим секретом.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/magabrotheeeer/resume-builder/internal/lib/formdata"
)

// ErrMismatch возвращается, если подпись не совпала с вычисленной.
var ErrMismatch = errors.New("webhook signature mismatch")

// Outcome описывает результат проверки.
type Outcome string

const (
	// Verified подпись проверена и совпала.
	Verified Outcome = "verified"
	// SkippedNoSecret секрет не настроен, проверка пропущена (fail-open).
	SkippedNoSecret Outcome = "skipped_no_secret"
	// SkippedNoSignature секрет настроен, но заголовок подписи отсутствует.
	SkippedNoSignature Outcome = "skipped_no_signature"
	// Rejected подпись не совпала.
	Rejected Outcome = "rejected"
)

// Verifier проверяет подписи с заданным секретом.
type Verifier struct {
	secret []byte
}

// NewVerifier создаёт Verifier. Пустой секрет означает, что проверка отключена.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled сообщает, настроен ли секрет.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Sign вычисляет подпись для набора полей.
func (v *Verifier) Sign(values formdata.Values) string {
	return Compute(v.secret, values)
}

// Verify сравнивает заявленную подпись с вычисленной за постоянное время.
// Без секрета или без подписи проверка пропускается, это не ошибка.
func (v *Verifier) Verify(values formdata.Values, claimed string) (Outcome, error) {
	if !v.Enabled() {
		return SkippedNoSecret, nil
	}
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return SkippedNoSignature, nil
	}
	expected := Compute(v.secret, values)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(claimed))) {
		return Rejected, ErrMismatch
	}
	return Verified, nil
}

// Compute возвращает hex HMAC-SHA256 канонической формы.
func Compute(secret []byte, values formdata.Values) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(values.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}
