package queue

import (
	"context"

	"github.com/redis/rueidis"
)

// RedisSlotManager keeps the slot pool in a Redis list so independent worker
// processes share one download budget.
type RedisSlotManager struct {
	client rueidis.Client
	key    string
}

func NewRedisSlotManager(client rueidis.Client, key string) *RedisSlotManager {
	return &RedisSlotManager{
		client: client,
		key:    key,
	}
}

func (r *RedisSlotManager) Acquire(ctx context.Context) error {
	cmd := r.client.B().Lpop().Key(r.key).Build()
	result := r.client.Do(ctx, cmd)

	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return ErrNoSlotAvailable
		}
		return err
	}

	return nil
}

func (r *RedisSlotManager) Release(ctx context.Context) error {
	cmd := r.client.B().Rpush().Key(r.key).Element("1").Build()
	return r.client.Do(ctx, cmd).Error()
}

// Reset drops whatever slots are left over from a previous run and refills
// the pool to count.
func (r *RedisSlotManager) Reset(ctx context.Context, count int) error {
	delCmd := r.client.B().Del().Key(r.key).Build()
	if err := r.client.Do(ctx, delCmd).Error(); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		if err := r.Release(ctx); err != nil {
			return err
		}
	}

	return nil
}
