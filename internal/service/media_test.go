package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/luxeawards/media-module/internal/domain/model"
	"github.com/luxeawards/media-module/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeMediaStore — хранилище записей в памяти для тестов.
type fakeMediaStore struct {
	mu      sync.Mutex
	records map[string]*model.Media
	// findCalls считает обращения к FindOneByUniqueID.
	findCalls int
	createErr error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{records: make(map[string]*model.Media)}
}

func (s *fakeMediaStore) Create(_ context.Context, input *model.Media) (*model.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.records[input.UniqueID] = input
	return input, nil
}

func (s *fakeMediaStore) FindOneByUniqueID(_ context.Context, uniqueID string, _ bson.M) (*model.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	m, ok := s.records[uniqueID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (s *fakeMediaStore) PartialUpdateByUniqueID(_ context.Context, uniqueID string, patch bson.M) (*model.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[uniqueID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if tags, ok := patch["tags"].([]string); ok {
		m.Tags = tags
	}
	if attrs, ok := patch["attributes"].(map[string]any); ok {
		m.Attributes = attrs
	}
	return m, nil
}

func (s *fakeMediaStore) RemoveByUniqueID(_ context.Context, uniqueID string) (*model.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[uniqueID]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.records, uniqueID)
	return nil, nil
}

// fakeUploader запоминает загруженные ключи.
type fakeUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, _ io.Reader, _ int64) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return "https://media.example.com/awards/" + key, nil
}

func newTestMediaService(store *fakeMediaStore, uploader *fakeUploader) *MediaService {
	return NewMediaService(store, uploader, NewMediaCache(100, time.Minute), "production", testLogger())
}

func uploadFiles(n int) []UploadFile {
	files := make([]UploadFile, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, UploadFile{
			OriginalName: fmt.Sprintf("photo %d.jpg", i),
			Encoding:     "7bit",
			MimeType:     "image/jpeg",
			Size:         2048,
			Content:      strings.NewReader("jpeg-bytes"),
		})
	}
	return files
}

// TestMediaService_SaveMultiple проверяет пакетную загрузку: общие метаданные,
// индивидуальные ключи и uniqueId каждой записи.
func TestMediaService_SaveMultiple(t *testing.T) {
	store := newFakeMediaStore()
	uploader := &fakeUploader{}
	svc := newTestMediaService(store, uploader)

	saved, err := svc.SaveMultiple(context.Background(), uploadFiles(3), UploadParams{
		ResourceType: "  Hotel ",
		ResourceID:   " hotel-42 ",
		Tags:         "Menu,,Logo,Menu",
		Attributes:   `{"order":1}`,
	})
	if err != nil {
		t.Fatalf("SaveMultiple: %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("сохранено %d записей, ожидалось 3", len(saved))
	}

	seen := map[string]bool{}
	for _, m := range saved {
		if m.ResourceType != "hotel" {
			t.Errorf("ResourceType = %q, ожидался приведённый к нижнему регистру hotel", m.ResourceType)
		}
		if m.ResourceID != "hotel-42" {
			t.Errorf("ResourceID = %q, ожидался hotel-42", m.ResourceID)
		}
		if len(m.Tags) != 2 || m.Tags[0] != "Menu" || m.Tags[1] != "Logo" {
			t.Errorf("Tags = %v, ожидался дедуплицированный [Menu Logo]", m.Tags)
		}
		if m.Attributes["order"] != float64(1) {
			t.Errorf("Attributes = %v, ожидался разобранный JSON", m.Attributes)
		}
		if len(m.UniqueID) != 32 {
			t.Errorf("UniqueID длиной %d, ожидалось 32 символа", len(m.UniqueID))
		}
		if seen[m.UniqueID] {
			t.Errorf("uniqueId %q повторяется", m.UniqueID)
		}
		seen[m.UniqueID] = true
		// Ключ: <окружение>/<uniqueId>-<оригинальное имя>.
		expectedPrefix := "production/" + m.UniqueID + "-"
		if !strings.HasPrefix(m.Key, expectedPrefix) {
			t.Errorf("Key = %q, ожидался префикс %q", m.Key, expectedPrefix)
		}
		if m.Location == "" {
			t.Error("Location должен заполняться адресом из хранилища")
		}
	}
	if len(uploader.keys) != 3 {
		t.Errorf("в хранилище загружено %d объектов, ожидалось 3", len(uploader.keys))
	}
}

// TestMediaService_SaveMultiple_Validation проверяет отклонение некорректных метаданных.
func TestMediaService_SaveMultiple_Validation(t *testing.T) {
	svc := newTestMediaService(newFakeMediaStore(), &fakeUploader{})

	cases := []struct {
		name     string
		files    []UploadFile
		params   UploadParams
		expected error
	}{
		{"без файлов", nil, UploadParams{ResourceType: "hotel", ResourceID: "h1"}, ErrNoFiles},
		{"пустой resourceType", uploadFiles(1), UploadParams{ResourceType: "  ", ResourceID: "h1"}, ErrInvalidResourceType},
		{"пустой resourceId", uploadFiles(1), UploadParams{ResourceType: "hotel", ResourceID: " "}, ErrEmptyResourceID},
		{"битые attributes", uploadFiles(1), UploadParams{ResourceType: "hotel", ResourceID: "h1", Attributes: "{broken"}, ErrInvalidAttributes},
		{"attributes-массив", uploadFiles(1), UploadParams{ResourceType: "hotel", ResourceID: "h1", Attributes: "[1,2]"}, ErrInvalidAttributes},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SaveMultiple(context.Background(), tc.files, tc.params)
			if !errors.Is(err, tc.expected) {
				t.Errorf("ошибка %v, ожидалась %v", err, tc.expected)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ошибка %v должна оборачивать ErrValidation", err)
			}
		})
	}
}

// TestMediaService_SaveMultiple_UploadError проверяет, что ошибка хранилища
// прерывает пакет и помечается как сбой хранилища.
func TestMediaService_SaveMultiple_UploadError(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("таймаут соединения")}
	svc := newTestMediaService(newFakeMediaStore(), uploader)

	_, err := svc.SaveMultiple(context.Background(), uploadFiles(2), UploadParams{
		ResourceType: "hotel",
		ResourceID:   "h1",
	})
	if err == nil {
		t.Fatal("ошибка загрузки должна возвращаться вызывающему")
	}
	if !errors.Is(err, ErrStorage) {
		t.Errorf("ошибка загрузки должна оборачивать ErrStorage: %v", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Error("сбой хранилища не должен считаться ошибкой валидации")
	}
}

// TestMediaService_GetByUniqueID_ReadThrough проверяет кэширование чтений.
func TestMediaService_GetByUniqueID_ReadThrough(t *testing.T) {
	store := newFakeMediaStore()
	store.records["abc"] = &model.Media{UniqueID: "abc", OriginalName: "a.png"}
	svc := newTestMediaService(store, &fakeUploader{})

	for i := 0; i < 3; i++ {
		m, err := svc.GetByUniqueID(context.Background(), "abc")
		if err != nil {
			t.Fatalf("GetByUniqueID: %v", err)
		}
		if m.OriginalName != "a.png" {
			t.Errorf("OriginalName = %q", m.OriginalName)
		}
	}
	if store.findCalls != 1 {
		t.Errorf("хранилище опрошено %d раз, ожидался 1: повторы идут из кэша", store.findCalls)
	}
}

// TestMediaService_GetByUniqueID_NotFound проверяет проброс ErrNotFound.
func TestMediaService_GetByUniqueID_NotFound(t *testing.T) {
	svc := newTestMediaService(newFakeMediaStore(), &fakeUploader{})

	_, err := svc.GetByUniqueID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено: %v", err)
	}
}

// TestMediaService_PartialUpdate проверяет обновление только переданных полей
// и инвалидацию кэша.
func TestMediaService_PartialUpdate(t *testing.T) {
	store := newFakeMediaStore()
	store.records["abc"] = &model.Media{
		UniqueID:   "abc",
		Tags:       []string{"Old"},
		Attributes: map[string]any{"kept": true},
	}
	svc := newTestMediaService(store, &fakeUploader{})

	// Прогреваем кэш.
	if _, err := svc.GetByUniqueID(context.Background(), "abc"); err != nil {
		t.Fatalf("GetByUniqueID: %v", err)
	}

	tags := "New,Tags"
	updated, err := svc.PartialUpdateByUniqueID(context.Background(), "abc", UpdateParams{Tags: &tags})
	if err != nil {
		t.Fatalf("PartialUpdateByUniqueID: %v", err)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "New" {
		t.Errorf("Tags = %v, ожидался [New Tags]", updated.Tags)
	}
	// Атрибуты не передавались и не должны измениться.
	if updated.Attributes["kept"] != true {
		t.Errorf("Attributes = %v, непереданные поля должны сохраняться", updated.Attributes)
	}

	// Кэш инвалидирован: следующее чтение идёт в хранилище.
	calls := store.findCalls
	if _, err := svc.GetByUniqueID(context.Background(), "abc"); err != nil {
		t.Fatalf("GetByUniqueID после обновления: %v", err)
	}
	if store.findCalls != calls+1 {
		t.Error("после обновления чтение должно идти мимо кэша")
	}
}

// TestMediaService_PartialUpdate_InvalidAttributes проверяет отклонение
// битого JSON в атрибутах.
func TestMediaService_PartialUpdate_InvalidAttributes(t *testing.T) {
	store := newFakeMediaStore()
	store.records["abc"] = &model.Media{UniqueID: "abc"}
	svc := newTestMediaService(store, &fakeUploader{})

	bad := "{broken"
	_, err := svc.PartialUpdateByUniqueID(context.Background(), "abc", UpdateParams{Attributes: &bad})
	if !errors.Is(err, ErrInvalidAttributes) {
		t.Fatalf("ожидалась ErrInvalidAttributes, получено: %v", err)
	}
}

// TestMediaService_Remove проверяет удаление и инвалидацию кэша.
func TestMediaService_Remove(t *testing.T) {
	store := newFakeMediaStore()
	store.records["abc"] = &model.Media{UniqueID: "abc"}
	svc := newTestMediaService(store, &fakeUploader{})

	// Прогреваем кэш.
	if _, err := svc.GetByUniqueID(context.Background(), "abc"); err != nil {
		t.Fatalf("GetByUniqueID: %v", err)
	}

	if err := svc.RemoveByUniqueID(context.Background(), "abc"); err != nil {
		t.Fatalf("RemoveByUniqueID: %v", err)
	}

	if _, err := svc.GetByUniqueID(context.Background(), "abc"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("после удаления ожидалась ErrNotFound, получено: %v", err)
	}
}

// TestMediaService_Remove_NotFound проверяет проброс ErrNotFound при удалении.
func TestMediaService_Remove_NotFound(t *testing.T) {
	svc := newTestMediaService(newFakeMediaStore(), &fakeUploader{})

	if err := svc.RemoveByUniqueID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено: %v", err)
	}
}
