package datastore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the thin capability surface over the shared store that the
// rest of the worker is built on: list push/pop for the queue and
// history lists, key/TTL for the health cache, hash increment for the
// optional counter shape, and a lease for leader election. Nothing
// above this package imports redis directly.
type Client struct {
	rdb *redis.Client
}

// Options mirrors the connection settings of §6: host/port/db/timeout.
type Options struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

func New(opts Options) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})
	return &Client{rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return newStoreError(KindTransport, "ping", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// ListPushHead pushes value onto the head of the named list (LPUSH). New
// work and re-enqueued failures both use this.
func (c *Client) ListPushHead(ctx context.Context, key string, value []byte) error {
	if err := c.rdb.LPush(ctx, key, value).Err(); err != nil {
		return newStoreError(classify(err), "list-push-head", err)
	}
	return nil
}

// ListPopTail pops one value from the tail of the named list (RPOP). A
// timeout or an empty list is not an error: it is reported as
// (nil, false, nil).
func (c *Client) ListPopTail(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.RPop(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) || classify(err) == KindTimeout {
			return nil, false, nil
		}
		return nil, false, newStoreError(classify(err), "list-pop-tail", err)
	}
	return val, true, nil
}

// ListPopTailBlocking is ListPopTail with a short blocking window, used
// by the Queue Consumer for its first pop per tick to reduce idle
// polling (§4.6).
func (c *Client) ListPopTailBlocking(ctx context.Context, key string, timeout time.Duration) ([]byte, bool, error) {
	res, err := c.rdb.BRPop(ctx, timeout, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || classify(err) == KindTimeout {
			return nil, false, nil
		}
		return nil, false, newStoreError(classify(err), "list-pop-tail-blocking", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, false, nil
	}
	return []byte(res[1]), true, nil
}

func (c *Client) ListLength(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, newStoreError(classify(err), "list-length", err)
	}
	return n, nil
}

// GetString returns (value, true, nil) when key exists, (nil, false,
// nil) when it is missing, and an error only on a transport/timeout
// failure.
func (c *Client) GetString(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, newStoreError(classify(err), "get-string", err)
	}
	return val, true, nil
}

func (c *Client) SetStringWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return newStoreError(classify(err), "set-string-ttl", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return newStoreError(classify(err), "delete", err)
	}
	return nil
}

// HashIncrementInt atomically increments field in the hash at key by
// delta, returning the new value. Backs the optional counter-hash
// aggregation shape (§5 of SPEC_FULL.md).
func (c *Client) HashIncrementInt(ctx context.Context, key, field string, delta int64) (int64, error) {
	v, err := c.rdb.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, newStoreError(classify(err), "hash-incr-int", err)
	}
	return v, nil
}

func (c *Client) HashIncrementFloat(ctx context.Context, key, field string, delta float64) (float64, error) {
	v, err := c.rdb.HIncrByFloat(ctx, key, field, delta).Result()
	if err != nil {
		return 0, newStoreError(classify(err), "hash-incr-float", err)
	}
	return v, nil
}

func (c *Client) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, newStoreError(classify(err), "hash-get-all", err)
	}
	return v, nil
}

// LeaseHandle represents an acquired advisory lock. Release is
// idempotent: releasing twice, or after the TTL has already expired,
// is not an error.
type LeaseHandle struct {
	client *Client
	name   string
	token  string
}

// TryAcquireLease attempts to become the sole holder of the named
// lease for ttl, using SETNX semantics (SET key value NX EX ttl), the
// same primitive the teacher's health.HealthCheckService and the
// original implementation's RedisLockRegistry both build on. It
// returns (nil, false, nil) when another instance already holds it.
func (c *Client) TryAcquireLease(ctx context.Context, name string, ttl time.Duration) (*LeaseHandle, bool, error) {
	token := leaseToken()
	ok, err := c.rdb.SetNX(ctx, leaseKey(name), token, ttl).Result()
	if err != nil {
		return nil, false, newStoreError(classify(err), "try-acquire-lease", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &LeaseHandle{client: c, name: name, token: token}, true, nil
}

// releaseScript is a compare-and-delete: it only removes the key if its
// value still matches the caller's token. A separate GET-then-DEL would
// leave a window where the lease expires, gets re-acquired by another
// instance with a new token, and is then wiped out by this stale
// handle's DEL — handing the "exclusive" lease to a second holder. The
// same primitive underlies Spring's RedisLockRegistry unlock.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Release drops the lease if, and only if, this handle's token still
// matches what's stored — guarding against releasing a lease that has
// since expired and been re-acquired by another instance. The
// check-and-delete runs as a single Lua script so no other client can
// observe or act between the compare and the delete.
func (h *LeaseHandle) Release(ctx context.Context) error {
	if err := h.client.rdb.Eval(ctx, releaseScript, []string{leaseKey(h.name)}, h.token).Err(); err != nil {
		return newStoreError(classify(err), "release-lease", err)
	}
	return nil
}

func leaseKey(name string) string {
	return "healthcheck-leader-lock-registry:" + name
}

func classify(err error) Kind {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
