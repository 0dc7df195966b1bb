package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// ErrClosed is returned by every call on a closed connection.
var ErrClosed = errors.New("memory: connection closed")

// ErrNestedMulti mirrors the backend refusal of a MULTI inside a MULTI.
var ErrNestedMulti = errors.New("memory: MULTI calls can not be nested")

// Client implements ports.Client as one connection to a Store.
// Like a real connection it is meant for a single session; the mutex only guards
// the queue against misuse.
type Client struct {
	store *Store

	mu     sync.Mutex
	queue  []func() // Writes buffered while a MULTI is open
	multi  bool
	closed bool
}

var _ ports.Client = (*Client)(nil)

// check returns ErrClosed on closed connections and honors ctx cancellation.
func (c *Client) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// write runs op now, or queues it while a MULTI is open. It reports whether op ran.
func (c *Client) write(op func()) bool {
	c.mu.Lock()
	if c.multi {
		c.queue = append(c.queue, op)
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	op()
	return true
}

func (c *Client) inMulti() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.multi
}

// Exists reports whether the key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if err := c.check(ctx); err != nil {
		return false, err
	}
	if c.inMulti() {
		return false, domain.ErrReadInTransaction
	}
	_, ok := c.store.get(key)
	return ok, nil
}

// Get returns the value at key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if err := c.check(ctx); err != nil {
		return "", err
	}
	if c.inMulti() {
		return "", domain.ErrReadInTransaction
	}
	val, ok := c.store.get(key)
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return val, nil
}

// Set stores value at key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	c.write(func() { c.store.set(key, value, 0) })
	return nil
}

// GetSet stores value and returns the previous one.
func (c *Client) GetSet(ctx context.Context, key, value string) (string, error) {
	if err := c.check(ctx); err != nil {
		return "", err
	}
	if c.inMulti() {
		return "", domain.ErrReadInTransaction
	}
	prev, ok := c.store.getSet(key, value)
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return prev, nil
}

// Del removes keys. Inside a MULTI the count is unknown and reported as 0.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	var n int64
	c.write(func() { n = c.store.del(keys...) })
	return n, nil
}

// MSet stores every pair.
func (c *Client) MSet(ctx context.Context, values map[string]string) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	pairs := make(map[string]string, len(values))
	for k, v := range values {
		pairs[k] = v
	}
	c.write(func() {
		for k, v := range pairs {
			c.store.set(k, v, 0)
		}
	})
	return nil
}

// Keys enumerates keys matching a glob pattern.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	if c.inMulti() {
		return nil, domain.ErrReadInTransaction
	}
	return c.store.keys(pattern)
}

// DBSize returns the number of live keys.
func (c *Client) DBSize(ctx context.Context) (int64, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	if c.inMulti() {
		return 0, domain.ErrReadInTransaction
	}
	return c.store.size(), nil
}

// FlushDB removes every key.
func (c *Client) FlushDB(ctx context.Context) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	c.write(c.store.flush)
	return nil
}

// SetNX stores value only if key is absent.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := c.check(ctx); err != nil {
		return false, err
	}
	if c.inMulti() {
		return false, domain.ErrReadInTransaction
	}
	return c.store.setNX(key, value, ttl), nil
}

// DelIfValue removes key if it holds value. Inside a MULTI the release is queued.
func (c *Client) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	if err := c.check(ctx); err != nil {
		return false, err
	}
	ok := true
	c.write(func() { ok = c.store.delIfValue(key, value) })
	return ok, nil
}

// Multi starts buffering writes.
func (c *Client) Multi(ctx context.Context) (ports.TxHandle, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.multi {
		return nil, ErrNestedMulti
	}
	c.multi = true
	c.queue = nil
	return &tx{client: c}, nil
}

// Close releases the connection and drops any queued writes.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.multi = false
	c.queue = nil
	return nil
}

type tx struct {
	client *Client
}

func (t *tx) finish() ([]func(), error) {
	c := t.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if !c.multi {
		return nil, errors.New("memory: EXEC without MULTI")
	}
	queued := c.queue
	c.queue = nil
	c.multi = false
	return queued, nil
}

func (t *tx) Exec(ctx context.Context) error {
	queued, err := t.finish()
	if err != nil {
		return err
	}
	for _, op := range queued {
		op()
	}
	return nil
}

func (t *tx) Discard(ctx context.Context) error {
	_, err := t.finish()
	return err
}
