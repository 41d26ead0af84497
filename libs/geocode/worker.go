package geocode

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Geocoder обратное геокодирование координат в адрес.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (Address, error)
}

// Saver получатель результатов геокодирования.
type Saver interface {
	Save(interface{ ToBytes() ([]byte, error) }) error
}

type DrainStats struct {
	Processed int
	Requeued  int
	Dropped   int
}

// Worker разбирает очередь задач геокодирования.
type Worker struct {
	Queue        Queue
	Locker       Locker
	Deduplicator *Deduplicator
	Geocoder     Geocoder
	Saver        Saver
	Workers      int
	MaxAttempts  int

	now func() time.Time
}

func NewWorker(queue Queue, locker Locker, dedup *Deduplicator, geocoder Geocoder, saver Saver) *Worker {
	return &Worker{
		Queue:        queue,
		Locker:       locker,
		Deduplicator: dedup,
		Geocoder:     geocoder,
		Saver:        saver,
		Workers:      runtime.NumCPU(),
		MaxAttempts:  3,
		now:          time.Now,
	}
}

var errJobBusy = errors.New("задача геокодирования уже обрабатывается")

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeProcessed
	outcomeRequeued
	outcomeDropped
)

// Drain обрабатывает все задачи, ожидающие на момент вызова, и ждёт завершения.
func (w *Worker) Drain(ctx context.Context) (DrainStats, error) {
	var stats DrainStats

	keys, err := w.Queue.PendingKeys(ctx)
	if err != nil {
		return stats, fmt.Errorf("не удалось получить список задач геокодирования: %w", err)
	}
	if len(keys) == 0 {
		return stats, nil
	}

	workers := w.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(keys) {
		workers = len(keys)
	}

	ch := make(chan string, len(keys))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range ch {
				if ctx.Err() != nil {
					return
				}
				result := w.process(ctx, key)

				mu.Lock()
				switch result {
				case outcomeProcessed:
					stats.Processed++
				case outcomeRequeued:
					stats.Requeued++
				case outcomeDropped:
					stats.Dropped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, key := range keys {
		ch <- key
	}
	close(ch)
	wg.Wait()

	return stats, ctx.Err()
}

// claim переводит ожидающую задачу в processing, не удаляя её из хранилища.
func (w *Worker) claim(ctx context.Context, key string) (*Job, error) {
	unlock, err := w.Locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	job, err := w.Queue.GetJob(ctx, key)
	if err != nil {
		return nil, err
	}
	if job.Status != JobPending {
		return nil, errJobBusy
	}

	job.Status = JobProcessing
	job.UpdatedAt = w.clock()
	if err := w.Queue.UpdateJob(ctx, key, job); err != nil {
		return nil, err
	}
	return job, nil
}

// release удаляет запись задачи, если её за время обработки не заменила новая ожидающая.
func (w *Worker) release(ctx context.Context, key string) error {
	unlock, err := w.Locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := w.Queue.GetJob(ctx, key)
	if errors.Is(err, ErrJobNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current.Status != JobProcessing {
		return nil
	}
	return w.Queue.DeleteJob(ctx, key)
}

func (w *Worker) process(ctx context.Context, key string) outcome {
	logger := log.WithField("key", key)

	job, err := w.claim(ctx, key)
	if errors.Is(err, ErrJobNotFound) || errors.Is(err, errJobBusy) {
		return outcomeSkipped
	}
	if err != nil {
		logger.WithField("err", err).Error("Не удалось забрать задачу геокодирования")
		return outcomeSkipped
	}

	address, err := w.Geocoder.Reverse(ctx, job.Latitude, job.Longitude)
	if err == nil && w.Saver != nil {
		err = w.Saver.Save(&Result{
			Key:         job.Key,
			PositionIDs: job.PositionIDs,
			PositionID:  job.PositionID,
			Latitude:    job.Latitude,
			Longitude:   job.Longitude,
			Reason:      job.Reason,
			Address:     address,
			GeocodedAt:  w.clock(),
		})
	}
	if err == nil {
		w.releaseLogged(ctx, key)
		logger.WithField("positions", len(job.PositionIDs)).Debug("Задача геокодирования выполнена")
		return outcomeProcessed
	}

	job.Attempts++
	if job.Attempts >= w.maxAttempts() {
		logger.WithFields(log.Fields{
			"err":       err,
			"attempts":  job.Attempts,
			"positions": job.PositionIDs,
		}).Error("Задача геокодирования отброшена после исчерпания попыток")
		w.releaseLogged(ctx, key)
		return outcomeDropped
	}

	logger.WithFields(log.Fields{"err": err, "attempts": job.Attempts}).Warn("Не удалось выполнить задачу геокодирования, повтор")
	if requeueErr := w.Deduplicator.Requeue(ctx, job); requeueErr != nil {
		logger.WithField("err", requeueErr).Error("Не удалось вернуть задачу геокодирования в очередь")
		return outcomeDropped
	}
	return outcomeRequeued
}

func (w *Worker) releaseLogged(ctx context.Context, key string) {
	if err := w.release(context.WithoutCancel(ctx), key); err != nil {
		log.WithFields(log.Fields{"key": key, "err": err}).Error("Не удалось удалить обработанную задачу геокодирования")
	}
}

func (w *Worker) maxAttempts() int {
	if w.MaxAttempts <= 0 {
		return 1
	}
	return w.MaxAttempts
}

func (w *Worker) clock() time.Time {
	if w.now == nil {
		return time.Now()
	}
	return w.now()
}
