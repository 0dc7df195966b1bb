package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds the caller's token.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// Client implements ports.Client over a single dedicated Redis connection.
// While a MULTI is open, writes are sent raw so the server can answer QUEUED,
// and calls whose answer is needed immediately fail with domain.ErrReadInTransaction.
type Client struct {
	conn  *backend.Conn
	multi bool
}

var _ ports.Client = (*Client)(nil)

// NewClient wraps a dedicated connection. The Client takes ownership of conn.
func NewClient(conn *backend.Conn) *Client {
	return &Client{conn: conn}
}

// do sends a raw command on the connection.
func (c *Client) do(ctx context.Context, args ...any) *backend.Cmd {
	cmd := backend.NewCmd(ctx, args...)
	_ = c.conn.Process(ctx, cmd)
	return cmd
}

// queue sends a raw command inside a MULTI; the server replies QUEUED.
func (c *Client) queue(ctx context.Context, args ...any) error {
	return c.do(ctx, args...).Err()
}

// Exists reports whether the key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if c.multi {
		return false, domain.ErrReadInTransaction
	}
	n, err := c.conn.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the value at key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.multi {
		return "", domain.ErrReadInTransaction
	}
	val, err := c.conn.Get(ctx, key).Result()
	if err != nil {
		if err == backend.Nil {
			return "", domain.ErrKeyNotFound
		}
		return "", err
	}
	return val, nil
}

// Set stores value at key without expiration.
func (c *Client) Set(ctx context.Context, key, value string) error {
	if c.multi {
		return c.queue(ctx, "set", key, value)
	}
	return c.conn.Set(ctx, key, value, 0).Err()
}

// GetSet stores value and returns the previous one.
func (c *Client) GetSet(ctx context.Context, key, value string) (string, error) {
	if c.multi {
		return "", domain.ErrReadInTransaction
	}
	prev, err := c.conn.GetSet(ctx, key, value).Result()
	if err != nil {
		if err == backend.Nil {
			return "", domain.ErrKeyNotFound
		}
		return "", err
	}
	return prev, nil
}

// Del removes keys. Inside a MULTI the count is unknown and reported as 0.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	if c.multi {
		args := make([]any, 0, len(keys)+1)
		args = append(args, "del")
		for _, k := range keys {
			args = append(args, k)
		}
		return 0, c.queue(ctx, args...)
	}
	return c.conn.Del(ctx, keys...).Result()
}

// MSet stores every pair in one MSET.
func (c *Client) MSet(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, values[k])
	}
	if c.multi {
		return c.queue(ctx, append([]any{"mset"}, pairs...)...)
	}
	return c.conn.MSet(ctx, pairs...).Err()
}

// Keys enumerates keys matching a glob pattern.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	if c.multi {
		return nil, domain.ErrReadInTransaction
	}
	return c.conn.Keys(ctx, pattern).Result()
}

// DBSize returns the number of keys in the selected database.
func (c *Client) DBSize(ctx context.Context) (int64, error) {
	if c.multi {
		return 0, domain.ErrReadInTransaction
	}
	return c.conn.DBSize(ctx).Result()
}

// FlushDB removes every key in the selected database.
func (c *Client) FlushDB(ctx context.Context) error {
	if c.multi {
		return c.queue(ctx, "flushdb")
	}
	return c.conn.FlushDB(ctx).Err()
}

// SetNX stores value only if key is absent, using SET NX PX.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if c.multi {
		return false, domain.ErrReadInTransaction
	}
	return c.conn.SetNX(ctx, key, value, ttl).Result()
}

// DelIfValue removes key if it holds value. Inside a MULTI the release is queued.
func (c *Client) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	if c.multi {
		return true, c.queue(ctx, "eval", releaseScript, 1, key, value)
	}
	n, err := c.conn.Eval(ctx, releaseScript, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Multi sends MULTI on the connection. A refusal from the server is returned as is.
func (c *Client) Multi(ctx context.Context) (ports.TxHandle, error) {
	if err := c.do(ctx, "multi").Err(); err != nil {
		return nil, err
	}
	c.multi = true
	return &tx{client: c}, nil
}

// Close discards an open MULTI and returns the connection to the pool.
func (c *Client) Close() error {
	if c.multi {
		_ = c.do(context.Background(), "discard").Err()
		c.multi = false
	}
	return c.conn.Close()
}

type tx struct {
	client *Client
}

// Exec sends EXEC and returns the first error among the queued replies.
func (t *tx) Exec(ctx context.Context) error {
	c := t.client
	if !c.multi {
		return errors.New("redis: EXEC without MULTI")
	}
	c.multi = false
	replies, err := c.do(ctx, "exec").Slice()
	if err != nil {
		if err == backend.Nil {
			return errors.New("redis: transaction aborted")
		}
		return err
	}
	for i, reply := range replies {
		if rerr, ok := reply.(error); ok {
			return fmt.Errorf("queued command %d failed: %w", i, rerr)
		}
	}
	return nil
}

// Discard sends DISCARD.
func (t *tx) Discard(ctx context.Context) error {
	c := t.client
	if !c.multi {
		return errors.New("redis: DISCARD without MULTI")
	}
	c.multi = false
	return c.do(ctx, "discard").Err()
}
