// Пакет model — доменные модели Media Module.
// Media — метаданные загруженного файла в коллекции media.
package model

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/luxeawards/media-module/internal/strutil"
)

// Media — запись метаданных загруженного файла.
// Поддерживает soft-delete, timestamps и uniqueId (вторичный внешний
// идентификатор, 32 символа). Физическое удаление через публичный
// контракт не выполняется.
type Media struct {
	// ID — первичный идентификатор хранилища
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	// Tags — произвольные теги (Menu, PDF, Logo и т.д.)
	Tags []string `bson:"tags" json:"tags"`
	// Attributes — произвольные атрибуты медиа (валидный JSON-объект)
	Attributes map[string]any `bson:"attributes" json:"attributes"`
	// Key — ключ объекта в объектном хранилище
	Key string `bson:"key" json:"key,omitempty"`
	// Location — публичный URL объекта (если хранилище его вернуло)
	Location string `bson:"location" json:"location,omitempty"`
	// ResourceType — тип владеющего ресурса (hotel, restaurant, spa, user)
	ResourceType string `bson:"resourceType" json:"resourceType"`
	// ResourceID — идентификатор владеющего ресурса
	ResourceID string `bson:"resourceId" json:"resourceId"`
	// OriginalName — оригинальное имя загруженного файла
	OriginalName string `bson:"originalname" json:"originalname"`
	// Encoding — кодировка передачи из multipart-запроса
	Encoding string `bson:"encoding" json:"encoding,omitempty"`
	// MimeType — MIME-тип файла
	MimeType string `bson:"mimetype" json:"mimetype"`
	// ContentType — MIME-тип, с которым объект сохранён в хранилище
	ContentType string `bson:"contentType" json:"contentType,omitempty"`
	// Size — размер файла в байтах
	Size int64 `bson:"size" json:"size"`
	// UniqueID — внешний стабильный идентификатор (32 символа)
	UniqueID string `bson:"uniqueId" json:"uniqueId"`
	// DeletedAt — millisecond epoch; nil означает «живая запись»
	DeletedAt *int64 `bson:"deletedAt" json:"deletedAt,omitempty"`
	// CreatedAt — millisecond epoch, выставляется контрактом персистентности
	CreatedAt int64 `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	// UpdatedAt — millisecond epoch, обновляется при каждой записи
	UpdatedAt int64 `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// NewMedia возвращает медиа-запись с заполненными значениями по умолчанию
// (пустые теги/атрибуты, свежий uniqueId).
func NewMedia() *Media {
	return &Media{
		Tags:       []string{},
		Attributes: map[string]any{},
		UniqueID:   strutil.ShortID(strutil.MediaIDLength),
	}
}

// Canonical возвращает запись в канонической форме (плоский map с
// bson-именами полей) для слоя пост-обработки ответов.
func (m *Media) Canonical() any {
	raw, err := bson.Marshal(m)
	if err != nil {
		return m
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return m
	}
	return map[string]any(doc)
}

// --- repository.Record ---

// ObjectID возвращает первичный идентификатор хранилища.
func (m *Media) ObjectID() primitive.ObjectID { return m.ID }

// SetObjectID выставляет первичный идентификатор хранилища.
func (m *Media) SetObjectID(id primitive.ObjectID) { m.ID = id }

// --- Маркеры возможностей контракта персистентности ---

// GetUniqueID возвращает внешний стабильный идентификатор.
func (m *Media) GetUniqueID() string { return m.UniqueID }

// SetUniqueID выставляет внешний стабильный идентификатор.
func (m *Media) SetUniqueID(id string) { m.UniqueID = id }

// GetDeletedAt возвращает отметку soft-delete (nil — запись живая).
func (m *Media) GetDeletedAt() *int64 { return m.DeletedAt }

// SetDeletedAt выставляет отметку soft-delete.
func (m *Media) SetDeletedAt(ts *int64) { m.DeletedAt = ts }

// GetCreatedAt возвращает время создания записи.
func (m *Media) GetCreatedAt() int64 { return m.CreatedAt }

// SetCreatedAt выставляет время создания записи.
func (m *Media) SetCreatedAt(ts int64) { m.CreatedAt = ts }

// SetUpdatedAt выставляет время последнего обновления.
func (m *Media) SetUpdatedAt(ts int64) { m.UpdatedAt = ts }
