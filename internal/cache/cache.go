// Package cache holds per-session snapshots of normalized collections so
// filter and page requests do not refetch from the ERP API.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/straye-as/erp-desk/internal/config"
	"go.uber.org/zap"
)

// Store caches JSON encoded values by key
type Store interface {
	// GetJSON unmarshals the cached value into dest. The bool is false on miss.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Keys builds snapshot keys scoped by session so nothing crosses sessions
type Keys struct {
	Prefix string
}

// Snapshot is the key of one entity collection of one session
func (k Keys) Snapshot(sessionID, entity string) string {
	return fmt.Sprintf("%ssession:%s:%s", k.Prefix, sessionID, entity)
}

// Session lists the snapshot keys of every entity for a session
func (k Keys) Session(sessionID string, entities ...string) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = k.Snapshot(sessionID, e)
	}
	return out
}

// New returns the store selected by configuration
func New(cfg *config.CacheConfig, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", "memory":
		logger.Info("Using in-memory snapshot cache")
		return NewMemoryStore(), nil
	case "redis":
		logger.Info("Using Redis snapshot cache", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
		return NewRedisStore(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache mode %q", cfg.Mode)
	}
}

// ============================================================================
// Memory
// ============================================================================

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store for single instance deployments
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("json unmarshal: %w", err)
	}
	return true, nil
}

func (m *MemoryStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
