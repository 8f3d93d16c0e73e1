package results

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store records rows and answers queries over them.
type Store interface {
	Record(ctx context.Context, r Row) error
	Query(ctx context.Context, q Query) ([]Row, error)
}

// Query filters rows. Zero values match everything.
type Query struct {
	Evaluator string
	Precision string
	From      time.Time
	To        time.Time
	Limit     int
}

const defaultQueryLimit = 1000

func (q Query) limit() int {
	if q.Limit <= 0 {
		return defaultQueryLimit
	}
	return q.Limit
}

func (q Query) matches(r Row) bool {
	if q.Evaluator != "" && r.Evaluator != q.Evaluator {
		return false
	}
	if q.Precision != "" && r.Precision != q.Precision {
		return false
	}
	if !q.From.IsZero() && r.At.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && r.At.After(q.To) {
		return false
	}
	return true
}

// StoreSink adapts a Store to Sink.
func StoreSink(s Store) Sink {
	return SinkFunc(s.Record)
}

// MemoryStore keeps rows in memory (bounded, no persistence).
type MemoryStore struct {
	mu   sync.RWMutex
	max  int
	rows []Row
}

// NewMemoryStore creates an in-memory store that keeps at most max rows (0 = unbounded).
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{max: max, rows: make([]Row, 0, 64)}
}

// Record implements Store.
func (m *MemoryStore) Record(ctx context.Context, r Row) error {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, r)
	if m.max > 0 && len(m.rows) > m.max {
		m.rows = m.rows[len(m.rows)-m.max:]
	}
	return nil
}

// Query implements Store. Rows come back oldest first.
func (m *MemoryStore) Query(ctx context.Context, q Query) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Row
	for _, r := range m.rows {
		if q.matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if len(out) > q.limit() {
		out = out[:q.limit()]
	}
	return out, nil
}
