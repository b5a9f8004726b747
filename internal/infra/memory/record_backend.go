package memory

import (
	"context"
	"sync"

	"promo-quiz-service/internal/domain"
)

// RecordBackend keeps records in process memory. It backs the ephemeral mode and tests.
type RecordBackend struct {
	mu      sync.RWMutex
	records map[domain.RecordName][]byte
}

func NewRecordBackend() *RecordBackend {
	return &RecordBackend{records: make(map[domain.RecordName][]byte)}
}

func (b *RecordBackend) Name() string { return "memory" }

func (b *RecordBackend) Load(_ context.Context, record domain.RecordName) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.records[record]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *RecordBackend) Save(_ context.Context, record domain.RecordName, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[record] = append([]byte(nil), data...)
	return nil
}

func (b *RecordBackend) Clear(_ context.Context, record domain.RecordName) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, record)
	return nil
}

// Put stores raw bytes for a record, bypassing encoding. Tests use it to plant
// corrupt data.
func (b *RecordBackend) Put(record domain.RecordName, data []byte) {
	_ = b.Save(context.Background(), record, data)
}

// Has reports whether a value is held for the record.
func (b *RecordBackend) Has(record domain.RecordName) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.records[record]
	return ok
}
