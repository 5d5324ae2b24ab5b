package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/luxeawards/media-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_media_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш медиазаписей.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_media_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша медиазаписей.",
	})
)

// MediaCache — LRU-кэш медиазаписей с автоматическим TTL, ключ — uniqueId.
// Каждый экземпляр сервиса имеет собственный in-memory кэш.
type MediaCache struct {
	cache *expirable.LRU[string, *model.Media]
}

// NewMediaCache создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewMediaCache(maxSize int, ttl time.Duration) *MediaCache {
	cache := expirable.NewLRU[string, *model.Media](maxSize, nil, ttl)
	return &MediaCache{cache: cache}
}

// Get возвращает запись из кэша по uniqueId.
// Обновляет Prometheus-метрики hit/miss.
func (c *MediaCache) Get(uniqueID string) (*model.Media, bool) {
	val, ok := c.cache.Get(uniqueID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *MediaCache) Set(uniqueID string, media *model.Media) {
	c.cache.Add(uniqueID, media)
}

// Delete удаляет запись из кэша (инвалидация при изменении или удалении).
func (c *MediaCache) Delete(uniqueID string) {
	c.cache.Remove(uniqueID)
}
