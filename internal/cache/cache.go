// Пакет cache — key-value кэш с JSON-значениями и поэлементным TTL.
// Бэкенд подключаемый: коллекция MongoDB (по умолчанию) или Redis.
// Используется для квотного учёта ключей внешних API и мемоизации ответов.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store — низкоуровневое хранилище сырых JSON-значений.
type Store interface {
	// Get возвращает значение ключа. false — ключ отсутствует или истёк.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set сохраняет значение с TTL. ttl == 0 — без ограничения срока жизни.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del удаляет ключ. Отсутствие ключа ошибкой не считается.
	Del(ctx context.Context, key string) error
}

// Service — типобезопасная обёртка над Store с JSON-сериализацией.
type Service struct {
	store Store
}

// NewService создаёт кэш-сервис поверх выбранного хранилища.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get декодирует значение ключа в dest. Возвращает false при промахе.
func (s *Service) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения кэша %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("ошибка декодирования кэша %q: %w", key, err)
	}
	return true, nil
}

// Set сериализует значение в JSON и сохраняет с TTL (0 — бессрочно).
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("ошибка кодирования кэша %q: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("ошибка записи кэша %q: %w", key, err)
	}
	return nil
}

// Del удаляет ключ.
func (s *Service) Del(ctx context.Context, key string) error {
	if err := s.store.Del(ctx, key); err != nil {
		return fmt.Errorf("ошибка удаления кэша %q: %w", key, err)
	}
	return nil
}
