package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Options bounds how long a single call may spend on an unreachable server.
// Dials and commands are attempted once; the record chain falls through on failure.
type Options struct {
	DialTimeout time.Duration
	// Timeout applies to socket reads and writes.
	Timeout time.Duration
}

// DefaultOptions keeps a down server from stalling requests.
func DefaultOptions() Options {
	return Options{DialTimeout: 500 * time.Millisecond, Timeout: time.Second}
}

// Conn owns the key-value client. The client is opened on first use, reused
// while open and reopened on the next call after it was closed.
type Conn struct {
	url  string
	opts Options
	log  zerolog.Logger

	sf     singleflight.Group
	mu     sync.Mutex
	client *redis.Client
}

// NewConn prepares a connection for url. An empty url leaves the connection
// unconfigured.
func NewConn(url string, log zerolog.Logger) *Conn {
	return NewConnWithOptions(url, DefaultOptions(), log)
}

// NewConnWithOptions is NewConn with explicit timeouts. Zero fields take the defaults.
func NewConnWithOptions(url string, opts Options, log zerolog.Logger) *Conn {
	def := DefaultOptions()
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &Conn{url: url, opts: opts, log: log.With().Str("component", "redis").Logger()}
}

// Configured reports whether a URL was supplied.
func (c *Conn) Configured() bool {
	return c.url != ""
}

// IsOpen reports whether a client is currently held.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

// Client returns the open client, dialing once if none is held. Concurrent
// callers share a single dial.
func (c *Conn) Client(ctx context.Context) (*redis.Client, error) {
	if !c.Configured() {
		return nil, errors.New("redis url not configured")
	}
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client != nil {
		return client, nil
	}

	result, err, _ := c.sf.Do("open", func() (interface{}, error) {
		c.mu.Lock()
		if c.client != nil {
			client := c.client
			c.mu.Unlock()
			return client, nil
		}
		c.mu.Unlock()

		opt, err := redis.ParseURL(c.url)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		opt.MaxRetries = -1
		opt.DialerRetries = 1
		opt.DialerRetryTimeout = time.Millisecond
		opt.DialTimeout = c.opts.DialTimeout
		opt.ReadTimeout = c.opts.Timeout
		opt.WriteTimeout = c.opts.Timeout
		client := redis.NewClient(opt)

		pingCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout+c.opts.Timeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		c.mu.Lock()
		c.client = client
		c.mu.Unlock()
		c.log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("redis connected")
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*redis.Client), nil
}

// Close closes the held client, if any. The next Client call reopens it.
func (c *Conn) Close() error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

// observe drops the held client when it reports itself closed so the next call
// dials again.
func (c *Conn) observe(client *redis.Client, err error) {
	if !errors.Is(err, redis.ErrClosed) {
		return
	}
	c.mu.Lock()
	if c.client == client {
		c.client = nil
	}
	c.mu.Unlock()
}
