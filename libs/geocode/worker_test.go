package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGeocoder struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (g *mockGeocoder) Reverse(_ context.Context, lat, lng float64) (Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.fail[GridKey(lat, lng, DefaultPrecision)] {
		return Address{}, errors.New("сервис недоступен")
	}
	return Address{DisplayName: GridKey(lat, lng, DefaultPrecision)}, nil
}

// enqueueingGeocoder ставит новую позицию в ту же ячейку, пока задача обрабатывается.
type enqueueingGeocoder struct {
	t      *testing.T
	store  *MemoryStore
	dedup  *Deduplicator
	status JobStatus
}

func (g *enqueueingGeocoder) Reverse(ctx context.Context, lat, lng float64) (Address, error) {
	job, err := g.store.GetJob(ctx, GridKey(lat, lng, DefaultPrecision))
	if assert.NoError(g.t, err) {
		g.status = job.Status
	}

	_, err = g.dedup.Enqueue(ctx, 99, lat, lng, "late")
	assert.NoError(g.t, err)
	return Address{DisplayName: "ok"}, nil
}

type mockSaver struct {
	mu    sync.Mutex
	saved []Result
}

func (s *mockSaver) Save(data interface{ ToBytes() ([]byte, error) }) error {
	raw, err := data.ToBytes()
	if err != nil {
		return err
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}

	s.mu.Lock()
	s.saved = append(s.saved, result)
	s.mu.Unlock()
	return nil
}

func newTestWorker(t *testing.T, geocoder Geocoder) (*Worker, *Deduplicator, *MemoryStore, *mockSaver) {
	t.Helper()

	store := NewMemoryStore()
	locker := &KeyedMutex{}
	dedup := NewDeduplicator(store, locker, DefaultPrecision)
	saver := &mockSaver{}

	worker := NewWorker(store, locker, dedup, geocoder, saver)
	worker.Workers = 4
	return worker, dedup, store, saver
}

func TestWorker_DrainProcessesAll(t *testing.T) {
	worker, dedup, store, saver := newTestWorker(t, &mockGeocoder{})
	ctx := context.Background()

	_, err := dedup.Enqueue(ctx, 1, 10, 20, "a")
	require.NoError(t, err)
	_, err = dedup.Enqueue(ctx, 2, 10, 20, "b")
	require.NoError(t, err)
	_, err = dedup.Enqueue(ctx, 3, 11, 21, "c")
	require.NoError(t, err)

	stats, err := worker.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainStats{Processed: 2}, stats)
	assert.Equal(t, 0, store.Len())

	require.Len(t, saver.saved, 2)
	byKey := map[string]Result{}
	for _, r := range saver.saved {
		byKey[r.Key] = r
	}
	assert.Equal(t, []int64{1, 2}, byKey["10.0000:20.0000"].PositionIDs)
	assert.Equal(t, int64(2), byKey["10.0000:20.0000"].PositionID)
	assert.Equal(t, "b", byKey["10.0000:20.0000"].Reason)
	assert.Equal(t, "11.0000:21.0000", byKey["11.0000:21.0000"].Address.DisplayName)
}

func TestWorker_EmptyQueue(t *testing.T) {
	geocoder := &mockGeocoder{}
	worker, _, _, _ := newTestWorker(t, geocoder)

	stats, err := worker.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DrainStats{}, stats)
	assert.Equal(t, 0, geocoder.calls)
}

func TestWorker_RetryThenDrop(t *testing.T) {
	geocoder := &mockGeocoder{fail: map[string]bool{"10.0000:20.0000": true}}
	worker, dedup, store, saver := newTestWorker(t, geocoder)
	worker.MaxAttempts = 2
	ctx := context.Background()

	_, err := dedup.Enqueue(ctx, 1, 10, 20, "")
	require.NoError(t, err)

	stats, err := worker.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainStats{Requeued: 1}, stats)

	job, err := store.GetJob(ctx, "10.0000:20.0000")
	require.NoError(t, err)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, JobPending, job.Status)

	stats, err = worker.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainStats{Dropped: 1}, stats)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, saver.saved)
	assert.Equal(t, 2, geocoder.calls)
}

func TestWorker_CancelledContext(t *testing.T) {
	worker, dedup, _, _ := newTestWorker(t, &mockGeocoder{})

	_, err := dedup.Enqueue(context.Background(), 1, 10, 20, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = worker.Drain(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_JobIsPersistedWhileProcessing(t *testing.T) {
	geocoder := &enqueueingGeocoder{t: t}
	worker, dedup, store, saver := newTestWorker(t, geocoder)
	geocoder.store, geocoder.dedup = store, dedup
	ctx := context.Background()

	_, err := dedup.Enqueue(ctx, 1, 10, 20, "first")
	require.NoError(t, err)

	stats, err := worker.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainStats{Processed: 1}, stats)
	assert.Equal(t, JobProcessing, geocoder.status)

	require.Len(t, saver.saved, 1)
	assert.Equal(t, []int64{1}, saver.saved[0].PositionIDs)

	next, err := store.GetJob(ctx, "10.0000:20.0000")
	require.NoError(t, err)
	assert.Equal(t, JobPending, next.Status)
	assert.Equal(t, []int64{99}, next.PositionIDs)
}

func TestWorker_SkipsJobAlreadyProcessing(t *testing.T) {
	geocoder := &mockGeocoder{}
	worker, _, store, _ := newTestWorker(t, geocoder)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, "k", &Job{Key: "k", Status: JobProcessing}))

	job, err := worker.claim(ctx, "k")
	assert.Nil(t, job)
	assert.ErrorIs(t, err, errJobBusy)
	assert.Equal(t, outcomeSkipped, worker.process(ctx, "k"))
	assert.Equal(t, 0, geocoder.calls)
}
