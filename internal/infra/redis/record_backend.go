package redis

import (
	"context"
	"errors"
	"fmt"

	"promo-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the record keys: quiz:media, quiz:questions, quiz:submissions.
const DefaultKeyPrefix = "quiz:"

// RecordBackend stores each record as a JSON string under its own key.
type RecordBackend struct {
	conn   *Conn
	prefix string
}

func NewRecordBackend(conn *Conn, prefix string) *RecordBackend {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RecordBackend{conn: conn, prefix: prefix}
}

func (b *RecordBackend) Name() string { return "redis" }

// Available reports whether a key-value URL is configured. Reachability is
// checked lazily by the operations themselves.
func (b *RecordBackend) Available() bool {
	return b.conn != nil && b.conn.Configured()
}

// Key returns the key a record is stored under.
func (b *RecordBackend) Key(record domain.RecordName) string {
	return b.prefix + string(record)
}

func (b *RecordBackend) Load(ctx context.Context, record domain.RecordName) ([]byte, error) {
	client, err := b.conn.Client(ctx)
	if err != nil {
		return nil, err
	}
	data, err := client.Get(ctx, b.Key(record)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		b.conn.observe(client, err)
		return nil, fmt.Errorf("redis get %s: %w", b.Key(record), err)
	}
	return data, nil
}

func (b *RecordBackend) Save(ctx context.Context, record domain.RecordName, data []byte) error {
	client, err := b.conn.Client(ctx)
	if err != nil {
		return err
	}
	if err := client.Set(ctx, b.Key(record), data, 0).Err(); err != nil {
		b.conn.observe(client, err)
		return fmt.Errorf("redis set %s: %w", b.Key(record), err)
	}
	return nil
}

// Clear removes the key; the record then resolves through the rest of the chain.
func (b *RecordBackend) Clear(ctx context.Context, record domain.RecordName) error {
	client, err := b.conn.Client(ctx)
	if err != nil {
		return err
	}
	if err := client.Del(ctx, b.Key(record)).Err(); err != nil {
		b.conn.observe(client, err)
		return fmt.Errorf("redis del %s: %w", b.Key(record), err)
	}
	return nil
}
