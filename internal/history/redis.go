package history

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/mrz1836/go-cache"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/logging"
)

// Redis key layout.
const (
	keyPrefix     = "reviewapp:"
	invocationKey = keyPrefix + "invocation:"
	slugKey       = keyPrefix + "slug:"
)

// Pool sizing for the go-cache client.
const (
	redisMaxActive       = 8
	redisMaxIdle         = 4
	redisMaxConnLifetime = time.Hour
	redisIdleTimeout     = 5 * time.Minute
)

// Redis is a Store shared between serve-mode replicas and CI runners.
//
// Each invocation is a JSON string under reviewapp:invocation:<id>; each
// slug has a list of ids under reviewapp:slug:<slug>, oldest first.
type Redis struct {
	client     *cache.Client
	maxEntries int
}

// NewRedis connects to rawURL (redis://[user:pass@]host:port/db) and checks
// the connection with a PING.
func NewRedis(ctx context.Context, rawURL string, maxEntries int) (*Redis, error) {
	client, err := cache.Connect(ctx, rawURL,
		redisMaxActive, redisMaxIdle, redisMaxConnLifetime, redisIdleTimeout,
		false, false,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to redis %s", logging.FilterSensitiveValue(rawURL))
	}
	if err := cache.Ping(ctx, client); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connect to redis %s", logging.FilterSensitiveValue(rawURL))
	}
	return &Redis{client: client, maxEntries: maxEntries}, nil
}

// Save implements Store. Saving an id twice overwrites the record without
// indexing it again.
func (r *Redis) Save(ctx context.Context, inv domain.Invocation) error {
	conn, err := r.client.GetConnectionWithContext(ctx)
	if err != nil {
		return errors.Wrap(err, "redis connection")
	}
	defer r.client.CloseConnection(conn)

	key := invocationKey + inv.ID
	existed, err := cache.ExistsRaw(conn, key)
	if err != nil {
		return errors.Wrap(err, "check invocation")
	}
	if err := cache.SetToJSONRaw(conn, key, inv, 0); err != nil {
		return errors.Wrapf(err, "save invocation %s", inv.ID)
	}
	if inv.Slug == "" || existed {
		return nil
	}

	list := slugKey + inv.Slug
	if err := cache.SetListRaw(conn, list, []string{inv.ID}); err != nil {
		return errors.Wrapf(err, "index invocation %s", inv.ID)
	}
	ids, err := cache.GetListRaw(conn, list)
	if err != nil {
		return errors.Wrap(err, "read slug index")
	}
	if len(ids) <= r.maxEntries {
		return nil
	}

	overflow := ids[:len(ids)-r.maxEntries]
	keys := make([]string, 0, len(overflow))
	for _, id := range overflow {
		keys = append(keys, invocationKey+id)
	}
	if _, err := cache.DeleteWithoutDependencyRaw(conn, keys...); err != nil {
		return errors.Wrap(err, "drop trimmed invocations")
	}
	if _, err := conn.Do("LTRIM", list, -r.maxEntries, -1); err != nil {
		return errors.Wrap(err, "trim slug index")
	}
	return nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, id string) (domain.Invocation, error) {
	data, err := cache.GetBytes(ctx, r.client, invocationKey+id)
	if stderrors.Is(err, redis.ErrNil) {
		return domain.Invocation{}, notFound(id)
	}
	if err != nil {
		return domain.Invocation{}, errors.Wrapf(err, "load invocation %s", id)
	}
	return decode(id, data)
}

// List implements Store.
func (r *Redis) List(ctx context.Context, slug string, limit int) ([]domain.Invocation, error) {
	conn, err := r.client.GetConnectionWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "redis connection")
	}
	defer r.client.CloseConnection(conn)

	ids, err := cache.GetListRaw(conn, slugKey+slug)
	if err != nil {
		return nil, errors.Wrapf(err, "read slug index %s", slug)
	}

	out := make([]domain.Invocation, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		data, err := cache.GetBytesRaw(conn, invocationKey+ids[i])
		if stderrors.Is(err, redis.ErrNil) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load invocation %s", ids[i])
		}
		inv, err := decode(ids[i], data)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func decode(id string, data []byte) (domain.Invocation, error) {
	var inv domain.Invocation
	if err := json.Unmarshal(data, &inv); err != nil {
		return domain.Invocation{}, errors.Wrapf(err, "decode invocation %s", id)
	}
	return inv, nil
}

// Close implements Store.
func (r *Redis) Close() error {
	r.client.Close()
	return nil
}

var _ Store = (*Redis)(nil)
