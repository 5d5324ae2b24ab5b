// handler.go — основной обработчик API Media Module.
// Объединяет health, media и email обработчики; каждый успешный ответ
// проходит пост-обработку (удаление служебных полей, нормализация URL).
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/luxeawards/media-module/internal/api/shaping"
	"github.com/luxeawards/media-module/internal/domain/model"
	"github.com/luxeawards/media-module/internal/mailer"
	"github.com/luxeawards/media-module/internal/service"
)

// MediaProvider — операции сервисного слоя, нужные HTTP-обработчикам.
// Реализуется service.MediaService.
type MediaProvider interface {
	SaveMultiple(ctx context.Context, files []service.UploadFile, params service.UploadParams) ([]*model.Media, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*model.Media, error)
	PartialUpdateByUniqueID(ctx context.Context, uniqueID string, params service.UpdateParams) (*model.Media, error)
	RemoveByUniqueID(ctx context.Context, uniqueID string) error
}

// MailSender — отправка служебных писем. Реализуется mailer.Mailer.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// APIHandler — основной обработчик API Media Module.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health    *HealthHandler
	media     MediaProvider
	validator mailer.Validator
	// mail — nil, когда SMTP-транспорт не настроен.
	mail MailSender
	// mediaShaper — нормализатор для media-endpoints (media как массив).
	mediaShaper *shaping.Normalizer
	logger      *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	media MediaProvider,
	validator mailer.Validator,
	mail MailSender,
	mediaShaper *shaping.Normalizer,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:      health,
		media:       media,
		validator:   validator,
		mail:        mail,
		mediaShaper: mediaShaper,
		logger:      logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// decodeJSONBody разбирает JSON-тело запроса в dest.
func decodeJSONBody(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

// writeJSON записывает JSON-ответ с указанным статусом без пост-обработки.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeShaped записывает успешный JSON-ответ, пропустив значение через
// пост-обработку: сначала удаление служебных полей, затем нормализация
// media-URL. Ответы с ошибками через writeShaped не проходят.
func (h *APIHandler) writeShaped(w http.ResponseWriter, status int, data any) {
	shaped := shaping.StripInternal(data)
	shaped = h.mediaShaper.Normalize(shaped)
	writeJSON(w, status, shaped)
}
