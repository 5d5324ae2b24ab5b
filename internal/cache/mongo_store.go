// mongo_store.go — бэкенд кэша в коллекции MongoDB (cacheManager).
// Истечение — ленивое при чтении плюс TTL-индекс по expiresAt.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Имя коллекции кэша.
const mongoCacheCollection = "cacheManager"

// cacheDocument — документ кэша: ключ как _id, сырое JSON-значение,
// опциональный срок истечения.
type cacheDocument struct {
	Key       string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty"`
}

// MongoStore — Store поверх коллекции MongoDB.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore создаёт хранилище кэша в базе db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongoCacheCollection)}
}

// EnsureIndexes создаёт TTL-индекс по expiresAt: MongoDB физически удаляет
// истёкшие документы фоновым процессом.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("ошибка создания TTL-индекса кэша: %w", err)
	}
	return nil
}

// Get возвращает значение ключа; истёкшие документы считаются промахом
// (TTL-индекс удаляет их с задержкой, поэтому срок проверяется и при чтении).
func (m *MongoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc cacheDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if doc.ExpiresAt != nil && doc.ExpiresAt.Before(time.Now()) {
		// Истёкший документ: best-effort очистка, для caller — промах
		_, _ = m.coll.DeleteOne(ctx, bson.M{"_id": key})
		return nil, false, nil
	}
	return doc.Value, true, nil
}

// Set сохраняет значение ключа (upsert). ttl == 0 — бессрочно.
func (m *MongoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	doc := cacheDocument{Key: key, Value: value}
	if ttl > 0 {
		expires := time.Now().Add(ttl)
		doc.ExpiresAt = &expires
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// Del удаляет ключ.
func (m *MongoStore) Del(ctx context.Context, key string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
