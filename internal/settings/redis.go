package settings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/transit-complaints/backend/internal/models"
)

// RedisStore keeps each setting as one JSON document under "settings:<key>".
// SET replaces the whole value, so readers never see a partial write.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "settings:"}
}

func (r *RedisStore) Get(ctx context.Context, key string) (models.Setting, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Setting{}, false, nil
	}
	if err != nil {
		return models.Setting{}, false, eris.Wrapf(err, "redis: get setting %s", key)
	}

	var s models.Setting
	if err := json.Unmarshal(val, &s); err != nil {
		return models.Setting{}, false, eris.Wrapf(err, "redis: decode setting %s", key)
	}
	return s, true, nil
}

func (r *RedisStore) Upsert(ctx context.Context, s models.Setting) error {
	b, err := json.Marshal(s)
	if err != nil {
		return eris.Wrapf(err, "redis: encode setting %s", s.Key)
	}
	if err := r.client.Set(ctx, r.prefix+s.Key, b, 0).Err(); err != nil {
		return eris.Wrapf(err, "redis: set setting %s", s.Key)
	}
	return nil
}

// InsertIfAbsent uses SETNX so a concurrent SetFlag is never overwritten.
func (r *RedisStore) InsertIfAbsent(ctx context.Context, s models.Setting) (bool, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return false, eris.Wrapf(err, "redis: encode setting %s", s.Key)
	}
	ok, err := r.client.SetNX(ctx, r.prefix+s.Key, b, 0).Result()
	if err != nil {
		return false, eris.Wrapf(err, "redis: setnx setting %s", s.Key)
	}
	return ok, nil
}
