package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amped/longevity/internal/domain/impact"
	"github.com/amped/longevity/internal/domain/memo"
	"github.com/amped/longevity/internal/domain/model"
)

func setupTestRedis(t *testing.T, opts ...Option) (*miniredis.Miniredis, *RedisCache) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCache(client, opts...)
}

func TestRedisCache_PutGet(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	key := memo.Key{Type: model.Steps, Value: 4000, Period: model.PeriodDay}

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Put(ctx, key, model.NewImpactValue(-15))
	v, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, -15.0, v.LifespanImpactMinutes)
	assert.Equal(t, model.DirectionNegative, v.Direction)
	assert.True(t, mr.Exists("longevity:impact:steps|4000||day"))
	assert.Equal(t, int64(1), c.Size())

	hits, misses, tracked := memo.Stats(c)
	assert.True(t, tracked)
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestRedisCache_TTL(t *testing.T) {
	mr, c := setupTestRedis(t, WithTTL(time.Minute), WithPrefix("test:"))
	ctx := context.Background()
	key := memo.Key{Type: model.SleepHours, Value: 6.5}

	c.Put(ctx, key, model.NewImpactValue(-5))
	assert.Equal(t, time.Minute, mr.TTL("test:sleepHours|6.5||"))

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	mr, c := setupTestRedis(t)
	key := memo.Key{Type: model.Steps, Value: 1}
	require.NoError(t, mr.Set(defaultPrefix+key.String(), "not-json"))

	_, ok := c.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestRedisCache_BackendDown(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	key := memo.Key{Type: model.Steps, Value: 1}
	mr.Close()

	assert.NotPanics(t, func() { c.Put(ctx, key, model.NewImpactValue(1)) })
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.Size())
}

func TestRedisCache_AsEvaluatorBackend(t *testing.T) {
	_, c := setupTestRedis(t)
	ctx := context.Background()
	m := impact.NewModel()

	first := memo.Wrap(ctx, m, c).Evaluate(model.RestingHeartRate, 75)
	second := memo.Wrap(ctx, m, c).Evaluate(model.RestingHeartRate, 75)

	assert.Equal(t, m.Evaluate(model.RestingHeartRate, 75), first)
	assert.Equal(t, first, second)
	hits, _, _ := memo.Stats(c)
	assert.Equal(t, int64(1), hits)
}

func TestRedisCache_SharedAcrossCalibrations(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	coef := 0.05
	table, err := impact.NewTable(map[model.MetricType]impact.Override{model.Steps: {Coefficient: &coef}})
	require.NoError(t, err)
	defaults := impact.NewModel()
	recalibrated := impact.NewModel(impact.WithTable(table))

	other := NewRedisCache(NewRedisClient(mr.Addr(), "", 0))
	t.Cleanup(func() { _ = other.client.Close() })

	assert.InDelta(t, -5.0, memo.Wrap(ctx, defaults, c).Evaluate(model.Steps, 6000), 1e-9)
	assert.InDelta(t, -45.0, memo.Wrap(ctx, recalibrated, other).Evaluate(model.Steps, 6000), 1e-9)
	assert.InDelta(t, -5.0, memo.Wrap(ctx, defaults, other).Evaluate(model.Steps, 6000), 1e-9)
	assert.Len(t, mr.Keys(), 2)
	assert.True(t, mr.Exists(defaultPrefix+"steps|6000|"+table.Fingerprint()+"|day"))
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()
	assert.NoError(t, Ping(context.Background(), client))
}
