package geocode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeduplicator(store Store) *Deduplicator {
	d := NewDeduplicator(store, nil, DefaultPrecision)
	d.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDeduplicator_MergesSameCell(t *testing.T) {
	store := NewMemoryStore()
	d := newTestDeduplicator(store)
	ctx := context.Background()

	first, err := d.Enqueue(ctx, 10, -23.55051, -46.63331, "ignition")
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, first.PositionIDs)

	second, err := d.Enqueue(ctx, 7, -23.55049, -46.63329, "stop")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, []int64{7, 10}, second.PositionIDs)
	assert.Equal(t, int64(7), second.PositionID)
	assert.Equal(t, "stop", second.Reason)
	assert.Equal(t, -23.55051, second.Latitude)
	assert.Equal(t, -46.63331, second.Longitude)

	stored, err := store.GetJob(ctx, first.Key)
	require.NoError(t, err)
	assert.Equal(t, second, stored)
}

func TestDeduplicator_DifferentCells(t *testing.T) {
	store := NewMemoryStore()
	d := newTestDeduplicator(store)
	ctx := context.Background()

	_, err := d.Enqueue(ctx, 1, 10, 20, "")
	require.NoError(t, err)
	_, err = d.Enqueue(ctx, 2, 10.001, 20, "")
	require.NoError(t, err)

	keys, err := store.PendingKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0000:20.0000", "10.0010:20.0000"}, keys)
}

func TestDeduplicator_ReplacesNonPendingJob(t *testing.T) {
	store := NewMemoryStore()
	d := newTestDeduplicator(store)
	ctx := context.Background()
	key := d.Key(1, 1)

	require.NoError(t, store.CreateJob(ctx, key, &Job{Key: key, PositionIDs: []int64{99}, Status: JobProcessing}))

	job, err := d.Enqueue(ctx, 5, 1, 1, "periodic")
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, job.PositionIDs)
	assert.Equal(t, JobPending, job.Status)
}

func TestDeduplicator_ConcurrentEnqueue(t *testing.T) {
	store := NewMemoryStore()
	d := newTestDeduplicator(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(1); i <= 100; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := d.Enqueue(ctx, id, -10.5, 30.25, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	job, err := store.GetJob(ctx, d.Key(-10.5, 30.25))
	require.NoError(t, err)
	assert.Len(t, job.PositionIDs, 100)
}

type failingStore struct {
	Store
	err error
}

func (s failingStore) GetJob(context.Context, string) (*Job, error) {
	return nil, s.err
}

func TestDeduplicator_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	d := newTestDeduplicator(failingStore{Store: NewMemoryStore(), err: boom})

	job, err := d.Enqueue(context.Background(), 1, 0, 0, "")
	assert.Nil(t, job)
	assert.Equal(t, boom, err)
}

func TestDeduplicator_Requeue(t *testing.T) {
	store := NewMemoryStore()
	d := newTestDeduplicator(store)
	ctx := context.Background()

	job, err := d.Enqueue(ctx, 1, 5, 5, "a")
	require.NoError(t, err)

	taken, err := store.GetJob(ctx, job.Key)
	require.NoError(t, err)
	taken.Status = JobProcessing
	taken.Attempts = 2
	require.NoError(t, store.UpdateJob(ctx, job.Key, taken))

	_, err = d.Enqueue(ctx, 3, 5, 5, "b")
	require.NoError(t, err)

	require.NoError(t, d.Requeue(ctx, taken))

	merged, err := store.GetJob(ctx, job.Key)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, merged.PositionIDs)
	assert.Equal(t, 2, merged.Attempts)
	assert.Equal(t, int64(3), merged.PositionID)
	assert.Equal(t, "b", merged.Reason)
	assert.Equal(t, JobPending, merged.Status)
}

func TestDeduplicator_RequeueOwnProcessingRecord(t *testing.T) {
	store := NewMemoryStore()
	d := newTestDeduplicator(store)
	ctx := context.Background()

	job, err := d.Enqueue(ctx, 1, 5, 5, "a")
	require.NoError(t, err)
	job.Status = JobProcessing
	job.Attempts = 1
	require.NoError(t, store.UpdateJob(ctx, job.Key, job))

	keys, err := store.PendingKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, d.Requeue(ctx, job))

	keys, err = store.PendingKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{job.Key}, keys)
}
