// Пакет service — бизнес-логика Media Module: загрузка файлов в
// объектное хранилище, работа с медиазаписями и кэширование чтений.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/luxeawards/media-module/internal/domain/model"
	"github.com/luxeawards/media-module/internal/storage"
	"github.com/luxeawards/media-module/internal/strutil"
)

// Ошибки валидации входных данных. Все оборачивают ErrValidation,
// чтобы HTTP-слой мог отличить их от внутренних сбоев.
var (
	ErrValidation = fmt.Errorf("некорректные данные запроса")

	ErrInvalidAttributes   = fmt.Errorf("%w: attributes должен быть корректным JSON-объектом", ErrValidation)
	ErrInvalidResourceType = fmt.Errorf("%w: пустой resourceType", ErrValidation)
	ErrEmptyResourceID     = fmt.Errorf("%w: пустой resourceId", ErrValidation)
	ErrNoFiles             = fmt.Errorf("%w: файлы для загрузки не переданы", ErrValidation)
)

// ErrStorage — сбой объектного хранилища при загрузке файла.
// HTTP-слой транслирует его в 502, а не во внутреннюю ошибку.
var ErrStorage = fmt.Errorf("объектное хранилище недоступно")

// MediaStore — операции над коллекцией медиазаписей.
// Реализуется repository.Collection[model.Media].
type MediaStore interface {
	Create(ctx context.Context, input *model.Media) (*model.Media, error)
	FindOneByUniqueID(ctx context.Context, uniqueID string, projection bson.M) (*model.Media, error)
	PartialUpdateByUniqueID(ctx context.Context, uniqueID string, patch bson.M) (*model.Media, error)
	RemoveByUniqueID(ctx context.Context, uniqueID string) (*model.Media, error)
}

// UploadFile — один файл из multipart-запроса.
type UploadFile struct {
	OriginalName string
	Encoding     string
	MimeType     string
	Size         int64
	Content      io.Reader
}

// UploadParams — общие метаданные пакета загружаемых файлов.
// Tags — список через запятую, Attributes — сырой JSON-объект.
type UploadParams struct {
	ResourceType string
	ResourceID   string
	Tags         string
	Attributes   string
}

// UpdateParams — частичное обновление медиазаписи. Обновляются только
// переданные поля; формат значений тот же, что при загрузке.
type UpdateParams struct {
	Tags       *string
	Attributes *string
}

// MediaService — операции над медиафайлами: загрузка в хранилище,
// чтение через LRU-кэш, частичное обновление и мягкое удаление.
type MediaService struct {
	store    MediaStore
	uploader storage.Uploader
	cache    *MediaCache
	// keyPrefix — префикс ключей объектов в хранилище (имя окружения).
	keyPrefix string
	logger    *slog.Logger
}

// NewMediaService создаёт сервис медиафайлов.
func NewMediaService(store MediaStore, uploader storage.Uploader, cache *MediaCache, keyPrefix string, logger *slog.Logger) *MediaService {
	return &MediaService{
		store:     store,
		uploader:  uploader,
		cache:     cache,
		keyPrefix: keyPrefix,
		logger:    logger.With(slog.String("component", "media-service")),
	}
}

// SaveMultiple загружает файлы в объектное хранилище параллельно и
// создаёт по записи на каждый файл. Теги и атрибуты общие для всего
// пакета. При ошибке любой загрузки возвращается первая ошибка;
// уже загруженные объекты из хранилища не отзываются.
func (s *MediaService) SaveMultiple(ctx context.Context, files []UploadFile, params UploadParams) ([]*model.Media, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	resourceType := strings.TrimSpace(strings.ToLower(params.ResourceType))
	if resourceType == "" {
		return nil, ErrInvalidResourceType
	}
	resourceID := strings.TrimSpace(params.ResourceID)
	if resourceID == "" {
		return nil, ErrEmptyResourceID
	}

	attributes, err := parseAttributes(params.Attributes)
	if err != nil {
		return nil, err
	}
	tags := strutil.SanitizeTags(params.Tags)

	results := make([]*model.Media, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			media := model.NewMedia()
			media.Tags = tags
			media.Attributes = attributes
			media.ResourceType = resourceType
			media.ResourceID = resourceID
			media.OriginalName = f.OriginalName
			media.Encoding = f.Encoding
			media.MimeType = f.MimeType
			media.ContentType = f.MimeType
			media.Size = f.Size
			media.Key = s.storageKey(media.UniqueID, f.OriginalName)

			location, err := s.uploader.Upload(gctx, media.Key, f.MimeType, f.Content, f.Size)
			if err != nil {
				return fmt.Errorf("%w: загрузка файла %s: %w", ErrStorage, f.OriginalName, err)
			}
			media.Location = location

			saved, err := s.store.Create(gctx, media)
			if err != nil {
				return fmt.Errorf("сохранение записи для %s: %w", f.OriginalName, err)
			}
			results[i] = saved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Файлы загружены", slog.Int("count", len(files)),
		slog.String("resourceType", resourceType), slog.String("resourceId", resourceID))
	return results, nil
}

// GetByUniqueID возвращает медиазапись, используя read-through LRU-кэш.
func (s *MediaService) GetByUniqueID(ctx context.Context, uniqueID string) (*model.Media, error) {
	if media, ok := s.cache.Get(uniqueID); ok {
		return media, nil
	}
	media, err := s.store.FindOneByUniqueID(ctx, uniqueID, nil)
	if err != nil {
		return nil, err
	}
	s.cache.Set(uniqueID, media)
	return media, nil
}

// PartialUpdateByUniqueID обновляет только переданные поля (теги и
// атрибуты) и инвалидирует кэш.
func (s *MediaService) PartialUpdateByUniqueID(ctx context.Context, uniqueID string, params UpdateParams) (*model.Media, error) {
	patch := bson.M{}
	if params.Tags != nil {
		patch["tags"] = strutil.SanitizeTags(*params.Tags)
	}
	if params.Attributes != nil {
		attributes, err := parseAttributes(*params.Attributes)
		if err != nil {
			return nil, err
		}
		patch["attributes"] = attributes
	}

	media, err := s.store.PartialUpdateByUniqueID(ctx, uniqueID, patch)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(uniqueID)
	return media, nil
}

// RemoveByUniqueID мягко удаляет запись и инвалидирует кэш.
// Объект в хранилище не трогается.
func (s *MediaService) RemoveByUniqueID(ctx context.Context, uniqueID string) error {
	if _, err := s.store.RemoveByUniqueID(ctx, uniqueID); err != nil {
		return err
	}
	s.cache.Delete(uniqueID)
	return nil
}

// storageKey строит ключ объекта: <окружение>/<uniqueId>-<имя файла>.
// Имя файла сохраняется как есть, включая пробелы: кодирование
// выполняет слой пост-обработки ответов.
func (s *MediaService) storageKey(uniqueID, originalName string) string {
	return fmt.Sprintf("%s/%s-%s", s.keyPrefix, uniqueID, originalName)
}

// parseAttributes разбирает сырую строку атрибутов. Пустая строка
// эквивалентна пустому объекту.
func parseAttributes(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var attributes map[string]any
	if err := json.Unmarshal([]byte(raw), &attributes); err != nil {
		return nil, ErrInvalidAttributes
	}
	if attributes == nil {
		attributes = map[string]any{}
	}
	return attributes, nil
}
