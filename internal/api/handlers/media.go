// media.go — обработчики медиафайлов: чтение, загрузка, частичное
// обновление и удаление по uniqueId.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/luxeawards/media-module/internal/api/errors"
	"github.com/luxeawards/media-module/internal/repository"
	"github.com/luxeawards/media-module/internal/service"
)

const (
	// maxImageFiles — предельное число изображений в одном запросе.
	maxImageFiles = 20
	// maxVideoFiles — предельное число видео в одном запросе.
	maxVideoFiles = 5
	// maxVideoSize — предельный размер одного видео (90 MiB).
	maxVideoSize = 94371840
	// multipartMemory — лимит буферизации multipart-формы в памяти.
	multipartMemory = 32 << 20
)

// GetMedia — GET /api/v1/media/{uniqueId}.
func (h *APIHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	uniqueID := chi.URLParam(r, "uniqueId")

	media, err := h.media.GetByUniqueID(r.Context(), uniqueID)
	if err != nil {
		h.writeMediaError(w, r, uniqueID, err)
		return
	}
	h.writeShaped(w, http.StatusOK, media)
}

// partialUpdateRequest — тело PATCH-запроса. Оба поля опциональны;
// формат значений тот же, что при загрузке (теги через запятую,
// атрибуты — JSON-строка).
type partialUpdateRequest struct {
	Tags       *string `json:"tags"`
	Attributes *string `json:"attributes"`
}

// PartialUpdateMedia — PATCH /api/v1/media/{uniqueId}.
func (h *APIHandler) PartialUpdateMedia(w http.ResponseWriter, r *http.Request) {
	uniqueID := chi.URLParam(r, "uniqueId")

	var req partialUpdateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON-объект")
		return
	}

	media, err := h.media.PartialUpdateByUniqueID(r.Context(), uniqueID, service.UpdateParams{
		Tags:       req.Tags,
		Attributes: req.Attributes,
	})
	if err != nil {
		h.writeMediaError(w, r, uniqueID, err)
		return
	}
	h.writeShaped(w, http.StatusOK, media)
}

// RemoveMedia — DELETE /api/v1/media/{uniqueId}. Мягкое удаление.
func (h *APIHandler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	uniqueID := chi.URLParam(r, "uniqueId")

	if err := h.media.RemoveByUniqueID(r.Context(), uniqueID); err != nil {
		h.writeMediaError(w, r, uniqueID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImages — POST /api/v1/media/images. Принимает до 20 изображений
// в поле files multipart-формы.
func (h *APIHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, uploadRules{
		maxFiles:  maxImageFiles,
		mimeToken: "image",
		mimeError: "Загружать можно только изображения",
	})
}

// UploadVideos — POST /api/v1/media/videos. Принимает до 5 видео
// размером до 90 MiB каждое.
func (h *APIHandler) UploadVideos(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, uploadRules{
		maxFiles:  maxVideoFiles,
		maxSize:   maxVideoSize,
		mimeToken: "video",
		mimeError: "Загружать можно только видео",
	})
}

// uploadRules — ограничения пакета загружаемых файлов.
type uploadRules struct {
	maxFiles int
	// maxSize — предельный размер одного файла; 0 — без ограничения.
	maxSize   int64
	mimeToken string
	mimeError string
}

// upload — общая логика обработчиков загрузки.
func (h *APIHandler) upload(w http.ResponseWriter, r *http.Request, rules uploadRules) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) > rules.maxFiles {
		apierrors.ValidationError(w, fmt.Sprintf("Слишком много файлов: максимум %d", rules.maxFiles))
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, header := range headers {
		mimeType := header.Header.Get("Content-Type")
		if !strings.Contains(mimeType, rules.mimeToken) {
			apierrors.ValidationError(w, rules.mimeError)
			return
		}
		if rules.maxSize > 0 && header.Size > rules.maxSize {
			apierrors.PayloadTooLarge(w,
				fmt.Sprintf("Файл %s превышает предельный размер %d байт", header.Filename, rules.maxSize))
			return
		}

		f, err := header.Open()
		if err != nil {
			apierrors.InternalError(w, "Не удалось прочитать файл из запроса")
			return
		}
		opened = append(opened, f)

		files = append(files, service.UploadFile{
			OriginalName: header.Filename,
			Encoding:     transferEncoding(header),
			MimeType:     mimeType,
			Size:         header.Size,
			Content:      f,
		})
	}

	saved, err := h.media.SaveMultiple(r.Context(), files, service.UploadParams{
		ResourceType: r.FormValue("resourceType"),
		ResourceID:   r.FormValue("resourceId"),
		Tags:         r.FormValue("tags"),
		Attributes:   r.FormValue("attributes"),
	})
	if err != nil {
		h.writeMediaError(w, r, "", err)
		return
	}

	// Типизированный срез приводится к []any, чтобы пост-обработка
	// прошлась по каждой записи.
	payload := make([]any, len(saved))
	for i, m := range saved {
		payload[i] = m
	}
	h.writeShaped(w, http.StatusCreated, payload)
}

// transferEncoding извлекает кодировку передачи части формы.
func transferEncoding(header *multipart.FileHeader) string {
	if enc := header.Header.Get("Content-Transfer-Encoding"); enc != "" {
		return enc
	}
	return "7bit"
}

// writeMediaError переводит ошибки сервисного слоя в HTTP-ответы.
func (h *APIHandler) writeMediaError(w http.ResponseWriter, r *http.Request, uniqueID string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		apierrors.NotFound(w, fmt.Sprintf("Медиа с id %s не найдено", uniqueID))
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrStorage):
		h.logger.Error("Сбой объектного хранилища",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		apierrors.StorageUnavailable(w, "Объектное хранилище недоступно")
	default:
		h.logger.Error("Ошибка обработки медиа-запроса",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервиса")
	}
}
