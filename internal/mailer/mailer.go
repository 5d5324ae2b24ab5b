package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrRecipientRejected — адрес получателя не прошёл проверку валидности.
var ErrRecipientRejected = errors.New("адрес получателя отклонён проверкой валидности")

// Message — исходящее письмо.
type Message struct {
	To      string
	From    string
	BCC     string
	Subject string
	HTML    string
}

// Sender — транспорт доставки писем. Реализацию предоставляет
// внешняя инфраструктура (SMTP-релей, HTTP API провайдера).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Defaults — значения, подставляемые в письмо, когда поле не задано.
type Defaults struct {
	// From — адрес отправителя по умолчанию.
	From string
	// BCC — скрытая копия по умолчанию.
	BCC string
	// ReportingTo — получатель служебных писем без явного адресата.
	ReportingTo string
}

// Mailer отправляет письма через Sender, предварительно проверяя
// получателя валидатором.
type Mailer struct {
	sender    Sender
	validator Validator
	defaults  Defaults
	logger    *slog.Logger
}

// NewMailer создаёт отправитель. validator может быть nil — тогда
// письма уходят без проверки получателя.
func NewMailer(sender Sender, validator Validator, defaults Defaults, logger *slog.Logger) *Mailer {
	return &Mailer{
		sender:    sender,
		validator: validator,
		defaults:  defaults,
		logger:    logger.With(slog.String("component", "mailer")),
	}
}

// Send дополняет письмо значениями по умолчанию, проверяет получателя
// и передаёт письмо транспорту.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		msg.To = m.defaults.ReportingTo
	}
	if msg.From == "" {
		msg.From = m.defaults.From
	}
	if msg.BCC == "" {
		msg.BCC = m.defaults.BCC
	}

	if m.validator != nil && !m.validator.IsValid(ctx, msg.To) {
		return fmt.Errorf("%w: %s", ErrRecipientRejected, msg.To)
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("отправка письма: %w", err)
	}
	m.logger.Debug("Письмо отправлено", slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}
