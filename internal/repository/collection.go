// collection.go — Collection[T], обобщённые CRUD-операции контракта
// персистентности. Все запросы — через официальный mongo-driver, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luxeawards/media-module/internal/strutil"
)

// capabilities — результат проверки маркеров вида.
// Вычисляется один раз в New и дальше не меняется.
type capabilities struct {
	softDelete bool
	timestamps bool
	uniqueID   bool
	slug       bool
	slugField  string
}

// Collection — привязка вида T к коллекции MongoDB.
// T — структура записи; *T обязан реализовывать Record.
type Collection[T any] struct {
	coll   *mongo.Collection
	caps   capabilities
	logger *slog.Logger
}

// New привязывает вид T к коллекции name базы db и проверяет маркеры
// возможностей. Возвращает ErrInvalidModel, если коллекция не задана или
// *T не реализует Record.
func New[T any](db *mongo.Database, name string, logger *slog.Logger) (*Collection[T], error) {
	if db == nil || name == "" {
		return nil, ErrInvalidModel
	}

	var zero T
	probe := any(&zero)
	if _, ok := probe.(Record); !ok {
		return nil, fmt.Errorf("%w: *%T не реализует Record", ErrInvalidModel, zero)
	}

	caps := capabilities{}
	_, caps.softDelete = probe.(SoftDeletable)
	_, caps.timestamps = probe.(Timestamped)
	_, caps.uniqueID = probe.(UniqueIdentified)
	if s, ok := probe.(Slugged); ok {
		caps.slug = true
		caps.slugField = s.SlugSourceField()
	}

	return &Collection[T]{
		coll:   db.Collection(name),
		caps:   caps,
		logger: logger.With(slog.String("component", "repository"), slog.String("collection", name)),
	}, nil
}

// EnsureIndexes создаёт индексы коллекции при старте приложения
// (замена миграций для документного хранилища).
func (c *Collection[T]) EnsureIndexes(ctx context.Context) error {
	var models []mongo.IndexModel
	if c.caps.uniqueID {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: "uniqueId", Value: 1}}})
	}
	if c.caps.timestamps {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}})
	}
	if len(models) == 0 {
		return nil
	}
	if _, err := c.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("ошибка создания индексов %s: %w", c.coll.Name(), err)
	}
	return nil
}

// FindAll возвращает записи по фильтру с опциональными проекцией и сортировкой.
// Для soft-delete видов фильтр неявно ограничивается живыми записями,
// если caller явно не задал deletedAt. Без явной сортировки timestamped-виды
// упорядочиваются по createdAt desc.
func (c *Collection[T]) FindAll(ctx context.Context, filter bson.M, projection bson.M, sort bson.D) ([]*T, error) {
	q, err := c.constrainAlive(filter, true)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}
	switch {
	case len(sort) > 0:
		opts.SetSort(sort)
	case c.caps.timestamps:
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}

	cursor, err := c.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска в %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var result []*T
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("ошибка чтения курсора %s: %w", c.coll.Name(), err)
	}
	return result, nil
}

// Count возвращает количество записей по фильтру.
// Правила ограничения живыми записями — как у FindAll.
func (c *Collection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	q, err := c.constrainAlive(filter, true)
	if err != nil {
		return 0, err
	}
	n, err := c.coll.CountDocuments(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта в %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

// FindOne возвращает живую запись по первичному идентификатору.
func (c *Collection[T]) FindOne(ctx context.Context, id string, projection bson.M) (*T, error) {
	filter, err := c.idFilter(id)
	if err != nil {
		return nil, err
	}
	return c.findOne(ctx, filter, projection)
}

// FindOneByUniqueID возвращает живую запись по вторичному идентификатору.
// Возвращает ErrUniqueIDUnsupported, если вид не поддерживает uniqueId.
func (c *Collection[T]) FindOneByUniqueID(ctx context.Context, uniqueID string, projection bson.M) (*T, error) {
	if !c.caps.uniqueID {
		return nil, ErrUniqueIDUnsupported
	}
	return c.findOne(ctx, bson.M{"uniqueId": uniqueID}, projection)
}

// Create сохраняет новую запись. Вычисляет слаг (если поле-источник
// присутствует), выставляет createdAt/updatedAt (если нужны и не заданы)
// и возвращает запись с назначенным хранилищем идентификатором.
func (c *Collection[T]) Create(ctx context.Context, input *T) (*T, error) {
	if c.caps.slug {
		s := any(input).(Slugged)
		if v := s.SlugSourceValue(); v != "" {
			s.SetSlug(strutil.Slugify(v))
		}
	}
	if c.caps.timestamps {
		ts := any(input).(Timestamped)
		now := nowMillis()
		if ts.GetCreatedAt() == 0 {
			ts.SetCreatedAt(now)
		}
		ts.SetUpdatedAt(now)
	}

	res, err := c.coll.InsertOne(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ошибка вставки в %s: %w", c.coll.Name(), err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		any(input).(Record).SetObjectID(oid)
	}
	return input, nil
}

// Update полностью заменяет живую запись по первичному идентификатору.
// Семантика — replace, не merge: поля, отсутствующие во входной записи,
// теряются, кроме неизменяемых (createdAt, uniqueId), которые контракт
// перечитывает из существующей записи перед заменой.
func (c *Collection[T]) Update(ctx context.Context, id string, input *T) (*T, error) {
	filter, err := c.idFilter(id)
	if err != nil {
		return nil, err
	}
	return c.replace(ctx, filter, input)
}

// UpdateByUniqueID — полная замена живой записи по вторичному идентификатору.
func (c *Collection[T]) UpdateByUniqueID(ctx context.Context, uniqueID string, input *T) (*T, error) {
	if !c.caps.uniqueID {
		return nil, ErrUniqueIDUnsupported
	}
	return c.replace(ctx, bson.M{"uniqueId": uniqueID}, input)
}

// PartialUpdate изменяет только поля, присутствующие в patch; остальные
// сохраняют прежние значения. Неизменяемые поля из patch отбрасываются.
func (c *Collection[T]) PartialUpdate(ctx context.Context, id string, patch bson.M) (*T, error) {
	filter, err := c.idFilter(id)
	if err != nil {
		return nil, err
	}
	return c.merge(ctx, filter, patch)
}

// PartialUpdateByUniqueID — частичное обновление по вторичному идентификатору.
func (c *Collection[T]) PartialUpdateByUniqueID(ctx context.Context, uniqueID string, patch bson.M) (*T, error) {
	if !c.caps.uniqueID {
		return nil, ErrUniqueIDUnsupported
	}
	return c.merge(ctx, bson.M{"uniqueId": uniqueID}, patch)
}

// Remove удаляет живую запись по первичному идентификатору:
// soft-delete виды получают отметку deletedAt, остальные удаляются физически
// (для них возвращается nil-запись).
func (c *Collection[T]) Remove(ctx context.Context, id string) (*T, error) {
	filter, err := c.idFilter(id)
	if err != nil {
		return nil, err
	}
	return c.remove(ctx, filter)
}

// RemoveByUniqueID — удаление по вторичному идентификатору.
func (c *Collection[T]) RemoveByUniqueID(ctx context.Context, uniqueID string) (*T, error) {
	if !c.caps.uniqueID {
		return nil, ErrUniqueIDUnsupported
	}
	return c.remove(ctx, bson.M{"uniqueId": uniqueID})
}

// --- Внутренние операции ---

// constrainAlive копирует фильтр и применяет правила soft-delete:
// для поддерживающих видов добавляет deletedAt == nil (если caller не задал
// его явно и allowOverride == true); для остальных фильтр по deletedAt —
// ошибка конфигурации.
func (c *Collection[T]) constrainAlive(filter bson.M, allowOverride bool) (bson.M, error) {
	q := bson.M{}
	for k, v := range filter {
		q[k] = v
	}

	if c.caps.softDelete {
		if _, explicit := q["deletedAt"]; !explicit || !allowOverride {
			q["deletedAt"] = nil
		}
		return q, nil
	}
	if _, ok := q["deletedAt"]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSoftDeleteUnsupported, c.coll.Name())
	}
	return q, nil
}

// idFilter строит фильтр по первичному идентификатору.
// Невалидный hex не может соответствовать ни одной записи — ErrNotFound.
func (c *Collection[T]) idFilter(id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный идентификатор %q", ErrNotFound, id)
	}
	return bson.M{"_id": oid}, nil
}

// findOne возвращает одну живую запись по фильтру.
func (c *Collection[T]) findOne(ctx context.Context, filter bson.M, projection bson.M) (*T, error) {
	q, err := c.constrainAlive(filter, false)
	if err != nil {
		return nil, err
	}

	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	out := new(T)
	if err := c.coll.FindOne(ctx, q, opts).Decode(out); err != nil {
		return nil, c.normalizeErr(err)
	}
	return out, nil
}

// replace выполняет полную замену с сохранением неизменяемых полей.
// Существующая запись перечитывается (проекция createdAt/uniqueId) до
// замены; если её нет — ErrNotFound без применения замены.
func (c *Collection[T]) replace(ctx context.Context, filter bson.M, input *T) (*T, error) {
	projection := bson.M{}
	if c.caps.timestamps {
		projection["createdAt"] = 1
	}
	if c.caps.uniqueID {
		projection["uniqueId"] = 1
	}

	existing, err := c.findOne(ctx, filter, projection)
	if err != nil {
		return nil, err
	}

	now := nowMillis()
	if c.caps.uniqueID {
		// uniqueId всегда переносится из существующей записи; вход игнорируется.
		// Backfill: записи без uniqueId получают свежесгенерированный.
		u := any(input).(UniqueIdentified)
		if existingID := any(existing).(UniqueIdentified).GetUniqueID(); existingID != "" {
			u.SetUniqueID(existingID)
		} else {
			u.SetUniqueID(strutil.ShortID(strutil.ShortIDLength))
		}
	}
	if c.caps.timestamps {
		ts := any(input).(Timestamped)
		if createdAt := any(existing).(Timestamped).GetCreatedAt(); createdAt != 0 {
			ts.SetCreatedAt(createdAt)
		} else {
			ts.SetCreatedAt(now)
		}
		ts.SetUpdatedAt(now)
	}
	if c.caps.slug {
		s := any(input).(Slugged)
		if v := s.SlugSourceValue(); v != "" {
			s.SetSlug(strutil.Slugify(v))
		}
	}

	// _id в замене опускается: идентификатор назначает хранилище.
	any(input).(Record).SetObjectID(primitive.NilObjectID)

	q, err := c.constrainAlive(filter, false)
	if err != nil {
		return nil, err
	}

	out := new(T)
	err = c.coll.FindOneAndReplace(ctx, q, input,
		options.FindOneAndReplace().SetReturnDocument(options.After),
	).Decode(out)
	if err != nil {
		return nil, c.normalizeErr(err)
	}
	return out, nil
}

// merge выполняет частичное обновление ($set только присутствующих полей).
func (c *Collection[T]) merge(ctx context.Context, filter bson.M, patch bson.M) (*T, error) {
	set := bson.M{}
	for k, v := range patch {
		switch k {
		case "_id", "uniqueId", "createdAt", "deletedAt":
			// Неизменяемые и служебные поля через patch не меняются
			continue
		}
		set[k] = v
	}
	if c.caps.slug {
		if v, ok := set[c.caps.slugField].(string); ok && v != "" {
			set["slug"] = strutil.Slugify(v)
		}
	}
	if c.caps.timestamps {
		set["updatedAt"] = nowMillis()
	}

	q, err := c.constrainAlive(filter, false)
	if err != nil {
		return nil, err
	}

	out := new(T)
	err = c.coll.FindOneAndUpdate(ctx, q, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(out)
	if err != nil {
		return nil, c.normalizeErr(err)
	}
	return out, nil
}

// remove — soft-delete или физическое удаление в зависимости от вида.
func (c *Collection[T]) remove(ctx context.Context, filter bson.M) (*T, error) {
	q, err := c.constrainAlive(filter, false)
	if err != nil {
		return nil, err
	}

	if c.caps.softDelete {
		set := bson.M{"deletedAt": nowMillis()}
		if c.caps.timestamps {
			set["updatedAt"] = nowMillis()
		}
		out := new(T)
		err = c.coll.FindOneAndUpdate(ctx, q, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(out)
		if err != nil {
			return nil, c.normalizeErr(err)
		}
		return out, nil
	}

	res, err := c.coll.DeleteOne(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления из %s: %w", c.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return nil, ErrNotFound
	}
	return nil, nil
}

// normalizeErr приводит ошибки драйвера к таксономии контракта:
// «документ не найден» всегда превращается в ErrNotFound, остальное
// оборачивается как ошибка хранилища.
func (c *Collection[T]) normalizeErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("ошибка запроса к %s: %w", c.coll.Name(), err)
}

// nowMillis — текущее время в millisecond epoch (формат таймстампов контракта).
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
