package sink

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// Redis keeps the last known fix of every bus in one hash,
// field = bus id, value = fix JSON.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(ctx context.Context, config *params.SinksConfig) (*Redis, error) {
	key := config.RedisKey
	if key == "" {
		key = params.DefaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client, key: key}, nil
}

// lastKnownValue returns the encoded latest fix, or nil if there are none.
func lastKnownValue(fixes fix.Fixes) ([]byte, error) {
	if len(fixes) == 0 {
		return nil, nil
	}
	last := fixes[0]
	for _, f := range fixes[1:] {
		if f.Timestamp > last.Timestamp {
			last = f
		}
	}
	return json.Marshal(last)
}

func (r *Redis) Publish(ctx context.Context, busID conceptual.BusID, fixes fix.Fixes) error {
	b, err := lastKnownValue(fixes)
	if err != nil || b == nil {
		return err
	}
	return r.client.HSet(ctx, r.key, busID.String(), b).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
