package datastore

import (
	"context"
	"sort"
	"sync"

	"github.com/kusy2009/Codelist-Genius/internal/store"
)

// DataStore records processed queries and lists them back.
// This interface can be implemented by both the PostgreSQL store and the in-memory store
type DataStore interface {
	// Lifecycle
	Close() error
	InitDB(ctx context.Context) error

	// Query history
	RecordQuery(ctx context.Context, rec store.QueryRecord) error
	ListRecentQueries(ctx context.Context, limit int) ([]store.QueryRecord, error)
}

// Type represents the type of data store to use
type Type string

const (
	// PostgreSQLStore uses real PostgreSQL database
	PostgreSQLStore Type = "postgresql"
	// MemoryStore keeps history for the lifetime of the process
	MemoryStore Type = "memory"
	// NoStore discards history
	NoStore Type = "none"
)

// Config holds configuration for data store creation
type Config struct {
	Type             Type
	ConnectionString string
}

// NewDataStore creates a new data store based on configuration
func NewDataStore(config Config) (DataStore, error) {
	switch config.Type {
	case PostgreSQLStore:
		return store.NewStore(config.ConnectionString)
	case MemoryStore, "":
		return NewMemoryStore(), nil
	case NoStore:
		return discardStore{}, nil
	default:
		return nil, &UnsupportedStoreTypeError{Type: string(config.Type)}
	}
}

// UnsupportedStoreTypeError is returned when an unsupported store type is requested
type UnsupportedStoreTypeError struct {
	Type string
}

func (e *UnsupportedStoreTypeError) Error() string {
	return "unsupported store type: " + e.Type
}

// MemoryStoreCapacity is how many records the in-memory store keeps;
// older records are dropped first.
const MemoryStoreCapacity = 1000

// memoryStore keeps the most recent records in insertion order. Safe for
// concurrent use.
type memoryStore struct {
	mu       sync.RWMutex
	capacity int
	records  []store.QueryRecord
}

// NewMemoryStore returns an empty in-memory DataStore holding at most
// MemoryStoreCapacity records.
func NewMemoryStore() DataStore {
	return newMemoryStore(MemoryStoreCapacity)
}

func newMemoryStore(capacity int) *memoryStore {
	return &memoryStore{capacity: capacity}
}

func (m *memoryStore) Close() error {
	return nil
}

func (m *memoryStore) InitDB(ctx context.Context) error {
	return nil // nothing to create
}

func (m *memoryStore) RecordQuery(ctx context.Context, rec store.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	if over := len(m.records) - m.capacity; m.capacity > 0 && over > 0 {
		m.records = append(m.records[:0:0], m.records[over:]...)
	}
	return nil
}

// ListRecentQueries returns newest first; records with the same CreatedAt
// come back latest-recorded first.
func (m *memoryStore) ListRecentQueries(ctx context.Context, limit int) ([]store.QueryRecord, error) {
	m.mu.RLock()
	out := make([]store.QueryRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type discardStore struct{}

func (discardStore) Close() error {
	return nil
}

func (discardStore) InitDB(ctx context.Context) error {
	return nil
}

func (discardStore) RecordQuery(ctx context.Context, _ store.QueryRecord) error {
	return nil
}

func (discardStore) ListRecentQueries(ctx context.Context, _ int) ([]store.QueryRecord, error) {
	return nil, nil
}
