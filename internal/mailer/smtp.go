// smtp.go — SMTP-транспорт доставки писем.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
)

// SMTPSender — Sender поверх SMTP-релея. Соединение открытое, без TLS:
// релей находится в приватной сети. Аутентификация PLAIN включается
// только при заданном имени пользователя.
type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
}

// NewSMTPSender создаёт транспорт для релея host:port.
func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		host: host,
		auth: auth,
	}
}

// Send передаёт письмо релею одним SMTP-сеансом.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	rcpts := []string{msg.To}
	if msg.BCC != "" {
		rcpts = append(rcpts, msg.BCC)
	}
	if err := smtp.SendMail(s.addr, s.auth, msg.From, rcpts, buildMIME(msg)); err != nil {
		return fmt.Errorf("SMTP %s: %w", s.addr, err)
	}
	return nil
}

// buildMIME собирает HTML-письмо в формате RFC 5322.
// BCC в заголовки не попадает: скрытые получатели передаются
// только в SMTP-конверте.
func buildMIME(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}
