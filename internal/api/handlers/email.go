// email.go — проверка валидности почтовых адресов.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/luxeawards/media-module/internal/api/errors"
	"github.com/luxeawards/media-module/internal/mailer"
)

// emailValidationRequest — тело запроса проверки адреса.
type emailValidationRequest struct {
	Email string `json:"email"`
}

// emailValidationResponse — вердикт проверки.
type emailValidationResponse struct {
	Email string `json:"email"`
	Valid bool   `json:"valid"`
}

// ValidateEmail — POST /api/v1/email/validation. Только для роли admin.
// Вердикт консервативен в пользу адреса: при недоступности внешнего
// сервиса адрес считается валидным.
func (h *APIHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	var req emailValidationRequest
	if err := decodeJSONBody(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON-объект")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		apierrors.ValidationError(w, "Поле email обязательно")
		return
	}

	writeJSON(w, http.StatusOK, emailValidationResponse{
		Email: email,
		Valid: h.validator.IsValid(r.Context(), email),
	})
}

// emailReportRequest — тело запроса отправки служебного письма.
// Пустой to — письмо уходит получателю служебных отчётов.
type emailReportRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// SendReport — POST /api/v1/email/report. Только для роли admin.
// Отправляет служебное письмо через настроенный SMTP-транспорт;
// адресат по умолчанию и отправитель подставляются из конфигурации.
func (h *APIHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	if h.mail == nil {
		apierrors.ServiceUnavailable(w, "Отправка писем не настроена")
		return
	}

	var req emailReportRequest
	if err := decodeJSONBody(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON-объект")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		apierrors.ValidationError(w, "Поле subject обязательно")
		return
	}

	err := h.mail.Send(r.Context(), mailer.Message{
		To:      strings.TrimSpace(req.To),
		Subject: req.Subject,
		HTML:    req.HTML,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
	case errors.Is(err, mailer.ErrRecipientRejected):
		apierrors.ValidationError(w, err.Error())
	default:
		h.logger.Error("Ошибка отправки письма", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Не удалось отправить письмо")
	}
}
