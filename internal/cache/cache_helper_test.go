package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedDoctor struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedDoctor{ID: 7, Name: "Dr. Grey"}, nil
	}

	var first cachedDoctor
	require.NoError(t, cm.Doctor.CacheOrExecute(ctx, DoctorProfileKey(7), &first, time.Minute, fetch))
	assert.Equal(t, "Dr. Grey", first.Name)
	assert.True(t, mr.Exists("doctor:id:7"))

	var second cachedDoctor
	require.NoError(t, cm.Doctor.CacheOrExecute(ctx, DoctorProfileKey(7), &second, time.Minute, fetch))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCacheOrExecute_FetchError(t *testing.T) {
	cm, mr := newTestManager(t)
	boom := errors.New("boom")

	var dest cachedDoctor
	err := cm.Doctor.CacheOrExecute(context.Background(), "id:1", &dest, time.Minute, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("doctor:id:1"))
}

func TestInvalidateDoctorCache(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	require.NoError(t, cm.Doctor.Set(ctx, DoctorProfileKey(3), cachedDoctor{ID: 3}, time.Minute))
	require.NoError(t, cm.Doctor.Set(ctx, DoctorProfileKey(4), cachedDoctor{ID: 4}, time.Minute))
	require.NoError(t, cm.Doctor.Set(ctx, DoctorListKey("approved", "", "created_at:desc", 20, 0), []cachedDoctor{{ID: 3}}, time.Minute))
	require.NoError(t, cm.Rating.Set(ctx, DoctorRatingsKey(3, 20, 0), []int{5}, time.Minute))

	InvalidateDoctorCache(ctx, cm, 3)

	assert.False(t, mr.Exists("doctor:id:3"))
	assert.True(t, mr.Exists("doctor:id:4"))
	assert.False(t, mr.Exists("doctor:list:approved::created_at:desc:20:0"))
	assert.False(t, mr.Exists("rating:doctor:3:20:0"))
}

func TestNilClientDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(nil)

	var dest cachedDoctor
	err := cm.Doctor.Get(ctx, "id:1", &dest)
	assert.ErrorIs(t, err, ErrCacheNotAvailable)
	assert.NoError(t, cm.Doctor.Set(ctx, "id:1", dest, time.Minute))
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	calls := 0
	require.NoError(t, cm.Doctor.CacheOrExecute(ctx, "id:1", &dest, time.Minute, func() (interface{}, error) {
		calls++
		return cachedDoctor{ID: 1}, nil
	}))
	assert.Equal(t, uint(1), dest.ID)
	assert.Equal(t, 1, calls)
}
