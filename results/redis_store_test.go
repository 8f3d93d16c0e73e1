package results

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStore(client, "")
}

func TestRedisStore_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	mr, store := newRedisStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, Row{Evaluator: "sts", Precision: "float32", Epoch: 0, Score: 0.3, At: base}))
	require.NoError(t, store.Record(ctx, Row{Evaluator: "sts", Precision: "int8", Epoch: 1, Score: 0.2, At: base.Add(time.Minute)}))
	require.NoError(t, store.Record(ctx, Row{Evaluator: "nli", Epoch: 0, MSEDot: math.Inf(1), At: base.Add(2 * time.Minute)}))
	require.NoError(t, store.Record(ctx, Row{Evaluator: "sts", Epoch: 2, Score: 0.1}))

	members, err := mr.ZMembers(defaultRedisKey)
	require.NoError(t, err)
	assert.Len(t, members, 4)

	rows, err := store.Query(ctx, Query{Evaluator: "sts"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{rows[0].Epoch, rows[1].Epoch, rows[2].Epoch})
	assert.True(t, rows[0].At.Equal(base))
	assert.False(t, rows[2].At.IsZero())

	rows, err = store.Query(ctx, Query{Evaluator: "nli"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, math.IsNaN(rows[0].MSEDot))

	rows, err = store.Query(ctx, Query{Precision: "int8"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Epoch)
}

func TestRedisStore_QueryWindowAndLimit(t *testing.T) {
	ctx := context.Background()
	_, store := newRedisStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Row{Evaluator: "sts", Epoch: i, At: base.Add(time.Duration(i) * time.Hour)}))
	}

	rows, err := store.Query(ctx, Query{From: base.Add(time.Hour), To: base.Add(3 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Epoch)
	assert.Equal(t, 3, rows[2].Epoch)

	rows, err = store.Query(ctx, Query{From: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = store.Query(ctx, Query{To: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Epoch)

	rows, err = store.Query(ctx, Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Epoch)
	assert.Equal(t, 1, rows[1].Epoch)

	rows, err = store.Query(ctx, Query{Evaluator: "missing"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRedisStore_SkipsForeignMembers(t *testing.T) {
	ctx := context.Background()
	mr, store := newRedisStore(t)
	_, err := mr.ZAdd(defaultRedisKey, 1, "not json")
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, Row{Evaluator: "sts", At: time.Unix(2, 0)}))

	rows, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "sts", rows[0].Evaluator)
}
