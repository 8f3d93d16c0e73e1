package results

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrBlobNotFound is returned by BlobStore.Get for missing keys.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a minimal key-value store for S3-compatible backends (e.g. AWS S3, MinIO).
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// BlobSink keeps a results CSV as a single object in a BlobStore. Each Append reads the
// object, adds the row (and the header when the object is new) and writes it back.
type BlobSink struct {
	store BlobStore
	key   string
	mu    sync.Mutex
}

// NewBlobSink writes to prefix/name in store.
func NewBlobSink(store BlobStore, prefix, name string) *BlobSink {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &BlobSink{store: store, key: prefix + name}
}

// Key returns the object key.
func (b *BlobSink) Key() string {
	return b.key
}

// Append implements Sink.
func (b *BlobSink) Append(ctx context.Context, r Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	existing, err := b.store.Get(ctx, b.key)
	if err != nil && !errors.Is(err, ErrBlobNotFound) {
		return fmt.Errorf("blob sink get %s: %w", b.key, err)
	}
	var buf bytes.Buffer
	buf.Write(existing)
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if len(existing) == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(r.Record()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := b.store.Put(ctx, b.key, buf.Bytes()); err != nil {
		return fmt.Errorf("blob sink put %s: %w", b.key, err)
	}
	return nil
}

// MemoryBlobStore is an in-memory BlobStore.
type MemoryBlobStore struct {
	mu   sync.RWMutex
	objs map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objs: make(map[string][]byte)}
}

// Get implements BlobStore.
func (m *MemoryBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.objs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements BlobStore.
func (m *MemoryBlobStore) Put(ctx context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key] = append([]byte(nil), body...)
	return nil
}

// List implements BlobStore.
func (m *MemoryBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Delete implements BlobStore.
func (m *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}
