// Package validation содержит функции нормализации и проверки входных данных.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultAreaCode задаёт код региона, если продавец не указал свой.
const DefaultAreaCode = "+1-876-"

const localDigits = 7

// Digits оставляет в строке только цифры.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatLocal приводит локальный номер к виду 123-4567, отбрасывая лишние цифры.
func FormatLocal(input string) string {
	d := Digits(input)
	if len(d) > localDigits {
		d = d[:localDigits]
	}
	if len(d) <= 3 {
		return d
	}
	return d[:3] + "-" + d[3:]
}

// JoinPhone собирает полный номер из кода региона и локальной части.
// Пустая локальная часть даёт пустой номер.
func JoinPhone(areaCode, local string) string {
	local = strings.TrimSpace(local)
	if local == "" {
		return ""
	}
	if strings.TrimSpace(areaCode) == "" {
		areaCode = DefaultAreaCode
	}
	return strings.TrimSpace(areaCode) + local
}

// SplitPhone выделяет из полного номера локальную часть для формы редактирования.
func SplitPhone(areaCode, full string) string {
	if strings.TrimSpace(areaCode) == "" {
		areaCode = DefaultAreaCode
	}
	d := Digits(full)
	prefix := Digits(areaCode)
	if strings.HasPrefix(d, prefix) {
		d = d[len(prefix):]
	}
	return FormatLocal(d)
}

// NormalizeHandle добавляет к имени в соцсети ведущий @.
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" || strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

// StripHandle убирает ведущий @ для отображения в форме.
func StripHandle(handle string) string {
	return strings.TrimPrefix(handle, "@")
}

// NormalizeEmail обрезает пробелы и приводит адрес к нижнему регистру.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail проверяет адрес так же мягко, как форма подписки: непустой и содержит @.
func IsValidEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}

// Truncate обрезает строку до max символов.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
