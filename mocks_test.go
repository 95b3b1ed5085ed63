package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-tokenauth"
)

// MockRevocationStore implements auth.RevocationStore
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) RevokeToken(ctx context.Context, token auth.AuthToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRevocationStore) RevokeAllForUser(ctx context.Context, userID string, tokenType auth.TokenType) error {
	args := m.Called(ctx, userID, tokenType)
	return args.Error(0)
}

func (m *MockRevocationStore) RevokeAllUserTokens(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRevocationStore) IsValid(ctx context.Context, token auth.AuthToken) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

// memoryCache is an in-process auth.Cache for exercising the real
// revocation store without a redis server.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	value     string
	expiresAt time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]memoryCacheEntry{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryCacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

var (
	_ auth.RevocationStore = (*MockRevocationStore)(nil)
	_ auth.Cache           = (*memoryCache)(nil)
)
