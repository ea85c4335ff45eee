package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestManagerHasSessionAndRevoke(t *testing.T) {
	store := newMockStore()
	store.data[store.AccessSessionKey("access-123")] = "1"
	manager := &Manager{store: store, keyer: store}
	ctx := context.Background()

	ok, err := manager.HasSession(ctx, "access-123")
	if err != nil || !ok {
		t.Fatalf("expected active session, ok=%v err=%v", ok, err)
	}

	if err := manager.Revoke(ctx, "access-123"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, "access-123")
	if err != nil || ok {
		t.Fatalf("expected session gone after revoke, ok=%v err=%v", ok, err)
	}
}

func TestManagerHasSessionPropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("redis down")
	manager := &Manager{store: store, keyer: store}

	if _, err := manager.HasSession(context.Background(), "access-1"); err == nil {
		t.Fatal("expected store error to propagate")
	}
	if _, err := manager.HasSession(context.Background(), " "); err == nil {
		t.Fatal("expected empty access id to be rejected")
	}
}
