package cache

import (
	"context"
	"testing"
	"time"
)

// memStore — in-memory Store для unit-тестов Service.
type memStore struct {
	data    map[string][]byte
	expires map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, expires: map[string]time.Time{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if exp, has := m.expires[key]; has && exp.Before(time.Now()) {
		delete(m.data, key)
		delete(m.expires, key)
		return nil, false, nil
	}
	return raw, true, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	delete(m.expires, key)
	return nil
}

// TestService_SetGet проверяет сериализацию значений через Store.
func TestService_SetGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())

	type usage struct {
		KeyIndex int `json:"keyIndex"`
	}

	if err := svc.Set(ctx, "zerobounce.key.usage", usage{KeyIndex: 2}, 0); err != nil {
		t.Fatalf("Set() вернул ошибку: %v", err)
	}

	var got usage
	ok, err := svc.Get(ctx, "zerobounce.key.usage", &got)
	if err != nil {
		t.Fatalf("Get() вернул ошибку: %v", err)
	}
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if got.KeyIndex != 2 {
		t.Errorf("KeyIndex = %d, ожидалось 2", got.KeyIndex)
	}
}

// TestService_Miss проверяет промах для отсутствующего ключа.
func TestService_Miss(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())

	var dest map[string]any
	ok, err := svc.Get(ctx, "нет-такого-ключа", &dest)
	if err != nil {
		t.Fatalf("Get() вернул ошибку: %v", err)
	}
	if ok {
		t.Fatal("ожидался cache miss")
	}
}

// TestService_TTL проверяет поэлементное истечение срока жизни.
func TestService_TTL(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())

	if err := svc.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("Set() вернул ошибку: %v", err)
	}

	var got string
	if ok, _ := svc.Get(ctx, "k", &got); !ok {
		t.Fatal("ожидался cache hit до истечения TTL")
	}

	time.Sleep(30 * time.Millisecond)

	if ok, _ := svc.Get(ctx, "k", &got); ok {
		t.Fatal("ожидался cache miss после истечения TTL")
	}
}

// TestService_Del проверяет удаление ключа.
func TestService_Del(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())

	_ = svc.Set(ctx, "k", 1, 0)
	if err := svc.Del(ctx, "k"); err != nil {
		t.Fatalf("Del() вернул ошибку: %v", err)
	}

	var got int
	if ok, _ := svc.Get(ctx, "k", &got); ok {
		t.Fatal("ожидался cache miss после Del")
	}
}
