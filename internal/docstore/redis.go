package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"azadi/pkg/platform/sentinel"
)

const (
	defaultRedisPrefix = "docstore:"
	redisScanCount     = 256
	maxWatchAttempts   = 5
)

// RedisClient stores one JSON document per written path. Writes run inside
// WATCH/MULTI on the affected chain so concurrent writers never interleave.
type RedisClient struct {
	rdb    *redis.Client
	prefix string
}

type RedisOption func(*RedisClient)

// WithKeyPrefix namespaces every key, for sharing a Redis with other data.
func WithKeyPrefix(prefix string) RedisOption {
	return func(c *RedisClient) {
		c.prefix = prefix
	}
}

func NewRedisClient(rdb *redis.Client, opts ...RedisOption) *RedisClient {
	c := &RedisClient{rdb: rdb, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisClient) Driver() Driver { return DriverRedis }

func (c *RedisClient) Fetch(ctx context.Context, path string) (Value, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return Value{}, err
	}
	node, err := flatRead(ctx, c.reader(c.rdb), clean)
	if err != nil {
		return Value{}, wrapDriverErr(OpFetch, clean, err)
	}
	return encodeTree(node)
}

func (c *RedisClient) Put(ctx context.Context, path string, value any) error {
	tree, err := toTree(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return c.write(ctx, OpPut, path, func(r flatReader, clean string) (flatPlan, error) {
		return planWrite(ctx, r, clean, tree)
	})
}

func (c *RedisClient) Patch(ctx context.Context, path string, fields map[string]any) error {
	return c.write(ctx, OpPatch, path, func(r flatReader, clean string) (flatPlan, error) {
		return planPatch(ctx, r, clean, fields)
	})
}

func (c *RedisClient) Delete(ctx context.Context, path string) error {
	return c.write(ctx, OpDelete, path, func(r flatReader, clean string) (flatPlan, error) {
		return planWrite(ctx, r, clean, nil)
	})
}

func (c *RedisClient) write(ctx context.Context, op Op, path string, plan func(flatReader, string) (flatPlan, error)) error {
	clean, err := CleanPath(path)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		p, err := plan(c.reader(tx), clean)
		if err != nil {
			return err
		}
		if p.empty() {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(p.del) > 0 {
				pipe.Del(ctx, c.keys(p.del)...)
			}
			for docPath, raw := range p.set {
				pipe.Set(ctx, c.key(docPath), []byte(raw), 0)
			}
			return nil
		})
		return err
	}

	for range maxWatchAttempts {
		err = c.rdb.Watch(ctx, txf, c.keys(chain(clean))...)
		if !errors.Is(err, redis.TxFailedErr) {
			return wrapDriverErr(op, clean, err)
		}
	}
	return &TransportError{Op: op, Path: clean, Err: fmt.Errorf("%w: watched keys kept changing", sentinel.ErrConflict)}
}

func (c *RedisClient) key(path string) string { return c.prefix + path }

func (c *RedisClient) keys(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = c.key(p)
	}
	return out
}

type redisCmds interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

type redisReader struct {
	cmds   redisCmds
	prefix string
}

func (c *RedisClient) reader(cmds redisCmds) *redisReader {
	return &redisReader{cmds: cmds, prefix: c.prefix}
}

func (r *redisReader) documents(ctx context.Context, paths []string) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	if len(paths) == 0 {
		return out, nil
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = r.prefix + p
	}
	vals, err := r.cmds.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[paths[i]] = json.RawMessage(s)
		}
	}
	return out, nil
}

func (r *redisReader) descendants(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	match := r.prefix + path + "/*"
	var found []string
	var cursor uint64
	for {
		keys, next, err := r.cmds.Scan(ctx, cursor, match, redisScanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			found = append(found, strings.TrimPrefix(k, r.prefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	if len(found) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	return r.documents(ctx, found)
}
