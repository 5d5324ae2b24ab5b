// Пакет mailer — исходящая почта Media Module: проверка валидности
// адресов (Zerobounce + локальные эвристики) и отправка писем через
// внешний транспорт.
package mailer

import "context"

// Validator — проверка пригодности адреса для отправки.
// Реализации никогда не возвращают ошибку: любой внутренний сбой
// деградирует к разрешающему вердикту (fail-open).
type Validator interface {
	// IsValid сообщает, можно ли отправлять письма на адрес.
	IsValid(ctx context.Context, email string) bool
}
