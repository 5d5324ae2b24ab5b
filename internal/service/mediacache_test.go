package service

import (
	"testing"
	"time"

	"github.com/luxeawards/media-module/internal/domain/model"
)

// TestMediaCache_GetSet проверяет базовые операции Get/Set.
func TestMediaCache_GetSet(t *testing.T) {
	cache := NewMediaCache(100, 5*time.Minute)

	media := &model.Media{
		UniqueID:     "abc123",
		OriginalName: "logo.png",
		MimeType:     "image/png",
		Size:         1024,
	}

	// Cache miss
	_, ok := cache.Get("abc123")
	if ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}

	// Set + cache hit
	cache.Set("abc123", media)
	got, ok := cache.Get("abc123")
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if got.UniqueID != "abc123" {
		t.Errorf("UniqueID = %q, ожидался %q", got.UniqueID, "abc123")
	}
	if got.OriginalName != "logo.png" {
		t.Errorf("OriginalName = %q, ожидался %q", got.OriginalName, "logo.png")
	}
}

// TestMediaCache_Delete проверяет удаление из кэша (инвалидация).
func TestMediaCache_Delete(t *testing.T) {
	cache := NewMediaCache(100, 5*time.Minute)

	cache.Set("delete-me", &model.Media{UniqueID: "delete-me"})

	// Проверяем что запись есть
	if _, ok := cache.Get("delete-me"); !ok {
		t.Fatal("ожидался cache hit перед удалением")
	}

	cache.Delete("delete-me")

	if _, ok := cache.Get("delete-me"); ok {
		t.Fatal("ожидался cache miss после Delete")
	}
}

// TestMediaCache_TTLExpiration проверяет автоматическое истечение TTL.
func TestMediaCache_TTLExpiration(t *testing.T) {
	// Короткий TTL = 50ms для теста
	cache := NewMediaCache(100, 50*time.Millisecond)

	cache.Set("ttl-test", &model.Media{UniqueID: "ttl-test"})

	// Сразу после Set — должен быть hit
	if _, ok := cache.Get("ttl-test"); !ok {
		t.Fatal("ожидался cache hit сразу после Set")
	}

	// Ждём истечения TTL
	time.Sleep(100 * time.Millisecond)

	if _, ok := cache.Get("ttl-test"); ok {
		t.Fatal("ожидался cache miss после истечения TTL")
	}
}
