// Package storage persists the live day, saved day logs and the outbox.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Backend.Get for a key that was never written.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a durable key/value store holding one JSON document per key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Apply writes puts and removes deletes. SQLite applies the batch in one
	// transaction; the file backend applies it key by key.
	Apply(ctx context.Context, b Batch) error
	// Quarantine moves a corrupt value aside so it can be inspected later.
	Quarantine(ctx context.Context, key string) error
	Close() error
}

// Batch is a set of writes applied together.
type Batch struct {
	Puts    map[string][]byte
	Deletes []string
}

// Put queues a write of value under key.
func (b *Batch) Put(key string, value []byte) {
	if b.Puts == nil {
		b.Puts = map[string][]byte{}
	}
	b.Puts[key] = value
}

// Delete queues the removal of key.
func (b *Batch) Delete(key string) {
	b.Deletes = append(b.Deletes, key)
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open opens the backend of the given kind rooted at dir.
func Open(kind, dir string) (Backend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage error creating %s: %w", dir, err)
	}
	switch kind {
	case KindFile, "":
		return NewFileBackend(dir), nil
	case KindSQLite:
		return OpenSQLite(filepath.Join(dir, "gtrack.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want %q or %q)", kind, KindFile, KindSQLite)
	}
}
