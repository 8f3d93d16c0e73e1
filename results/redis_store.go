package results

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "simeval:results"

// RedisStore implements Store using a Redis sorted set scored by timestamp; members are JSON rows.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore creates a store that uses the given Redis client.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Record implements Store.
func (r *RedisStore) Record(ctx context.Context, row Row) error {
	if row.At.IsZero() {
		row.At = time.Now()
	}
	raw, err := json.Marshal(toJSON(row))
	if err != nil {
		return err
	}
	score := float64(row.At.UnixNano()) / 1e9
	return r.client.ZAdd(ctx, r.key, redis.Z{Score: score, Member: string(raw)}).Err()
}

// Query implements Store by reading the time window from the sorted set and filtering in memory.
func (r *RedisStore) Query(ctx context.Context, q Query) ([]Row, error) {
	min, max := "-inf", "+inf"
	if !q.From.IsZero() {
		min = strconv.FormatFloat(float64(q.From.UnixNano())/1e9, 'f', -1, 64)
	}
	if !q.To.IsZero() {
		max = strconv.FormatFloat(float64(q.To.UnixNano())/1e9, 'f', -1, 64)
	}
	const batch = 10000
	var out []Row
	for offset := int64(0); ; offset += batch {
		vals, err := r.client.ZRangeByScore(ctx, r.key, &redis.ZRangeBy{
			Min: min, Max: max, Offset: offset, Count: batch,
		}).Result()
		if err != nil {
			return nil, err
		}
		for _, mem := range vals {
			var rj rowJSON
			if err := json.Unmarshal([]byte(mem), &rj); err != nil {
				continue
			}
			row := rj.row()
			if !q.matches(row) {
				continue
			}
			out = append(out, row)
			if len(out) >= q.limit() {
				return out, nil
			}
		}
		if len(vals) < batch {
			break
		}
	}
	return out, nil
}
