package handoffrepo

import (
	"context"
	"encoding/json"
	"time"

	interrors "github.com/jrsteele09/go-handoff-server/internal/errors"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisRepo)(nil)

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisRepo stores handoff records as JSON strings with a native key TTL.
// Conditional updates use WATCH/MULTI so two racing callers can never both
// observe and act on the same record version.
type RedisRepo struct {
	Client *redis.Client
	Keys   Keyspace
}

// NewRedisRepo connects to redisURL and checks the connection.
func NewRedisRepo(ctx context.Context, redisURL string, keys Keyspace) (*RedisRepo, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewRedisRepo] redis.ParseURL")
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "[NewRedisRepo] ping")
	}
	return NewRedisRepoFromClient(rdb, keys), nil
}

// NewRedisRepoFromClient wraps an existing client.
func NewRedisRepoFromClient(client *redis.Client, keys Keyspace) *RedisRepo {
	return &RedisRepo{
		Client: client,
		Keys:   keys,
	}
}

func (r *RedisRepo) Create(ctx context.Context, record *Record, ttl time.Duration) error {
	if record == nil || record.HandoffID == "" {
		return errors.New("[RedisRepo.Create] record with an id is required")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Create] json.Marshal")
	}

	created, err := r.Client.SetNX(ctx, r.Keys.Key(record.HandoffID), data, ttl).Result()
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Create] SETNX")
	}
	if !created {
		return interrors.Wrapf(interrors.ErrConflict, "[RedisRepo.Create] handoff exists")
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, handoffID string) (*Record, error) {
	return r.load(ctx, r.Client, r.Keys.Key(handoffID))
}

func (r *RedisRepo) Transition(ctx context.Context, handoffID string, from Status, mutate func(*Record), ttl time.Duration) (*Record, error) {
	key := r.Keys.Key(handoffID)

	var updated *Record
	err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
		record, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if record.Status != from {
			return interrors.Wrapf(interrors.ErrConflict, "[RedisRepo.Transition] status %s", record.Status)
		}

		mutate(record)
		record.HandoffID = handoffID
		data, err := json.Marshal(record)
		if err != nil {
			return errors.Wrap(err, "[RedisRepo.Transition] json.Marshal")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = record
		return nil
	}, key)
	if err != nil {
		return nil, r.txError(err, "[RedisRepo.Transition]")
	}
	return updated, nil
}

func (r *RedisRepo) TakeIf(ctx context.Context, handoffID string, status Status) (*Record, error) {
	key := r.Keys.Key(handoffID)

	var taken *Record
	err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
		record, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if record.Status != status {
			return interrors.Wrapf(interrors.ErrConflict, "[RedisRepo.TakeIf] status %s", record.Status)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		taken = record
		return nil
	}, key)
	if err != nil {
		return nil, r.txError(err, "[RedisRepo.TakeIf]")
	}
	return taken, nil
}

// Close releases the underlying client.
func (r *RedisRepo) Close() error {
	return r.Client.Close()
}

func (r *RedisRepo) load(ctx context.Context, c stringGetter, key string) (*Record, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, interrors.Wrapf(interrors.ErrNotFound, "[RedisRepo] handoff")
	} else if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo] GET")
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "[RedisRepo] json.Unmarshal")
	}
	return &record, nil
}

// txError maps a lost optimistic transaction to ErrConflict.
func (r *RedisRepo) txError(err error, op string) error {
	if errors.Is(err, redis.TxFailedErr) {
		return interrors.Wrapf(interrors.ErrConflict, "%s concurrent update", op)
	}
	if interrors.Is(err, interrors.ErrNotFound) || interrors.Is(err, interrors.ErrConflict) {
		return err
	}
	return errors.Wrap(err, op)
}
