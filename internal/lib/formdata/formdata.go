// Package formdata разбирает тело application/x-www-form-urlencoded с сохранением
// исходного порядка полей. net/url.Values хранит поля в map и порядок теряет,
// а для проверки подписи вебхука порядок важен.
package formdata

import (
	"fmt"
	"net/url"
	"strings"
)

// Field одна пара ключ/значение формы.
type Field struct {
	Key   string
	Value string
}

// Values упорядоченный набор полей формы.
type Values []Field

// Parse разбирает закодированное тело формы. Пустые сегменты ("a=1&&b=2") пропускаются,
// поле без "=" получает пустое значение.
func Parse(body string) (Values, error) {
	const op = "formdata.Parse"
	var result Values
	for _, part := range strings.Split(body, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%s: key %q: %w", op, rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%s: value of %q: %w", op, key, err)
		}
		result = append(result, Field{Key: key, Value: value})
	}
	return result, nil
}

// Get возвращает первое значение поля или пустую строку.
func (v Values) Get(key string) string {
	for _, f := range v {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Has сообщает, присутствует ли поле в форме.
func (v Values) Has(key string) bool {
	for _, f := range v {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Encode кодирует поля обратно в канонический вид: ключи и значения экранируются
// как в query string, пары соединяются через "=" и "&" в исходном порядке.
func (v Values) Encode() string {
	var b strings.Builder
	for i, f := range v {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

// Map возвращает поля в виде map, при повторе ключа остаётся первое значение.
func (v Values) Map() map[string]string {
	m := make(map[string]string, len(v))
	for _, f := range v {
		if _, ok := m[f.Key]; !ok {
			m[f.Key] = f.Value
		}
	}
	return m
}
