package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/guoosantos/euro-one-sub006/libs/geocode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestStore_JobLifecycle(t *testing.T) {
	server, client := newTestClient(t)
	store := New(client, "")
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	job := &geocode.Job{
		Key:         "10.0000:20.0000",
		PositionIDs: []int64{1, 2},
		PositionID:  2,
		Latitude:    10,
		Longitude:   20,
		Reason:      "stop",
		Status:      geocode.JobPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	_, err := store.GetJob(ctx, job.Key)
	assert.ErrorIs(t, err, geocode.ErrJobNotFound)
	assert.ErrorIs(t, store.UpdateJob(ctx, job.Key, job), geocode.ErrJobNotFound)

	require.NoError(t, store.CreateJob(ctx, job.Key, job))
	assert.ErrorIs(t, store.CreateJob(ctx, job.Key, job), geocode.ErrJobExists)
	assert.True(t, server.Exists("geocode:job:10.0000:20.0000"))

	got, err := store.GetJob(ctx, job.Key)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	keys, err := store.PendingKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{job.Key}, keys)

	job.AddPosition(3)
	require.NoError(t, store.UpdateJob(ctx, job.Key, job))

	got, err = store.GetJob(ctx, job.Key)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got.PositionIDs)

	require.NoError(t, store.DeleteJob(ctx, job.Key))
	require.NoError(t, store.DeleteJob(ctx, job.Key))
	assert.False(t, server.Exists("geocode:job:10.0000:20.0000"))

	_, err = store.GetJob(ctx, job.Key)
	assert.ErrorIs(t, err, geocode.ErrJobNotFound)

	keys, err = store.PendingKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_NonPendingLeavesIndex(t *testing.T) {
	_, client := newTestClient(t)
	store := New(client, "test:")
	ctx := context.Background()

	job := &geocode.Job{Key: "k", Status: geocode.JobPending}
	require.NoError(t, store.CreateJob(ctx, "k", job))

	job.Status = geocode.JobProcessing
	require.NoError(t, store.UpdateJob(ctx, "k", job))

	keys, err := store.PendingKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_WithDeduplicator(t *testing.T) {
	_, client := newTestClient(t)
	store := New(client, "")
	dedup := geocode.NewDeduplicator(store, NewLocker(client, ""), geocode.DefaultPrecision)
	ctx := context.Background()

	_, err := dedup.Enqueue(ctx, 4, -23.55051, -46.63331, "a")
	require.NoError(t, err)
	job, err := dedup.Enqueue(ctx, 2, -23.55049, -46.63329, "b")
	require.NoError(t, err)

	stored, err := store.GetJob(ctx, job.Key)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, stored.PositionIDs)
	assert.Equal(t, "b", stored.Reason)
}

func TestLocker(t *testing.T) {
	server, client := newTestClient(t)
	locker := NewLocker(client, "")
	locker.Retry = 5 * time.Millisecond

	unlock, err := locker.Lock(context.Background(), "cell")
	require.NoError(t, err)
	assert.True(t, server.Exists("geocode:lock:cell"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "cell")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, server.Exists("geocode:lock:cell"))

	unlock, err = locker.Lock(context.Background(), "cell")
	require.NoError(t, err)
	unlock()
}

func TestLocker_ForeignTokenIsKept(t *testing.T) {
	server, client := newTestClient(t)
	locker := NewLocker(client, "")

	unlock, err := locker.Lock(context.Background(), "cell")
	require.NoError(t, err)

	require.NoError(t, server.Set("geocode:lock:cell", "someone-else"))
	unlock()

	value, err := server.Get("geocode:lock:cell")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", value)
}
