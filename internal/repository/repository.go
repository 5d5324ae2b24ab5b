// Пакет repository — обобщённый контракт персистентности над MongoDB.
//
// Каждый «вид» записей (kind) — Go-структура с bson-тегами, реализующая
// Record и, опционально, маркеры возможностей: SoftDeletable, Timestamped,
// UniqueIdentified, Slugged. Маркеры проверяются один раз при создании
// Collection[T] (на уровне типа, не на уровне документа) и определяют
// поведение всех операций: фильтрацию живых записей, сохранение
// неизменяемых полей, вычисление слага, порядок выдачи.
//
// Вместо рантайм-интроспекции схемы (как это делают ORM поверх документных
// БД) контракт использует явные интерфейсы-маркеры: вид либо реализует
// возможность целиком, либо не имеет её вовсе.
package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ошибки контракта персистентности.
var (
	// ErrNotFound — подходящая живая запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrInvalidModel — коллекция не привязана к виду (ошибка конфигурации).
	ErrInvalidModel = errors.New("некорректная модель: коллекция не привязана")
	// ErrSoftDeleteUnsupported — фильтр по deletedAt для вида без поддержки soft-delete.
	ErrSoftDeleteUnsupported = errors.New("вид не поддерживает deletedAt")
	// ErrUniqueIDUnsupported — операция по uniqueId для вида без поддержки uniqueId.
	ErrUniqueIDUnsupported = errors.New("вид не поддерживает операции по uniqueId")
)

// Record — обязательный контракт любого вида: доступ к первичному
// идентификатору хранилища.
type Record interface {
	// ObjectID возвращает первичный идентификатор хранилища.
	ObjectID() primitive.ObjectID
	// SetObjectID выставляет первичный идентификатор, назначенный хранилищем.
	SetObjectID(primitive.ObjectID)
}

// SoftDeletable — маркер вида с поддержкой soft-delete.
// Операции чтения/обновления/удаления неявно ограничиваются живыми
// записями (deletedAt == nil); Remove проставляет отметку вместо
// физического удаления.
type SoftDeletable interface {
	// GetDeletedAt возвращает отметку удаления (millisecond epoch, nil — живая).
	GetDeletedAt() *int64
	// SetDeletedAt выставляет отметку удаления.
	SetDeletedAt(*int64)
}

// Timestamped — маркер вида с полями createdAt/updatedAt.
// createdAt неизменяем после создания; updatedAt обновляется контрактом
// при каждой записи. Выдача FindAll упорядочивается по createdAt desc.
type Timestamped interface {
	// GetCreatedAt возвращает время создания (millisecond epoch, 0 — не задано).
	GetCreatedAt() int64
	// SetCreatedAt выставляет время создания.
	SetCreatedAt(int64)
	// SetUpdatedAt выставляет время последнего обновления.
	SetUpdatedAt(int64)
}

// UniqueIdentified — маркер вида со вторичным внешним идентификатором.
// uniqueId неизменяем после назначения: операции обновления всегда
// переносят существующее значение и никогда не выводят новое из входных
// данных (кроме backfill-случая, когда значения ещё не было).
type UniqueIdentified interface {
	// GetUniqueID возвращает внешний стабильный идентификатор.
	GetUniqueID() string
	// SetUniqueID выставляет внешний стабильный идентификатор.
	SetUniqueID(string)
}

// Slugged — маркер вида с производным слагом.
// Слаг пересчитывается при каждой записи, в которой присутствует
// поле-источник, и никогда — при записях без него.
type Slugged interface {
	// SlugSourceField возвращает bson-имя поля-источника (по умолчанию name).
	SlugSourceField() string
	// SlugSourceValue возвращает текущее значение поля-источника
	// (пустая строка — поле отсутствует в записи).
	SlugSourceValue() string
	// SetSlug выставляет вычисленный слаг.
	SetSlug(string)
}
