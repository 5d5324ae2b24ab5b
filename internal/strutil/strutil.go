// Пакет strutil — строковые утилиты Media Module:
// слаги, короткие идентификаторы, санитизация тегов.
package strutil

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

// Алфавит коротких идентификаторов (буквы и цифры без спецсимволов).
const shortIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ShortIDLength — длина вторичного идентификатора по умолчанию (backfill в контракте персистентности).
const ShortIDLength = 6

// MediaIDLength — длина uniqueId медиа-записи.
const MediaIDLength = 32

// ShortID возвращает случайный алфавитно-цифровой идентификатор указанной длины.
// Источник случайности — crypto/rand.
func ShortID(length int) string {
	if length <= 0 {
		length = ShortIDLength
	}
	b := make([]byte, length)
	max := big.NewInt(int64(len(shortIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// rand.Reader недоступен только при деградации ОС;
			// детерминированный символ хуже паники в рантайме.
			b[i] = shortIDAlphabet[0]
			continue
		}
		b[i] = shortIDAlphabet[n.Int64()]
	}
	return string(b)
}

// Slugify нормализует строку в URL-безопасный слаг:
// нижний регистр, пунктуация отбрасывается, пробелы заменяются дефисами.
func Slugify(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	prevDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !prevDash && b.Len() > 0 {
				b.WriteRune('-')
				prevDash = true
			}
		default:
			// Пунктуация и прочие символы отбрасываются
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SanitizeTags разбирает строку тегов, разделённых запятыми:
// пустые элементы отбрасываются, дубликаты удаляются, порядок сохраняется.
func SanitizeTags(raw string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}
