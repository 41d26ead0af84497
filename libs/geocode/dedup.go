package geocode

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// Deduplicator сливает запросы геокодирования, попавшие в одну ячейку сетки, в одну задачу.
type Deduplicator struct {
	store     Store
	locker    Locker
	precision int
	now       func() time.Time
}

// NewDeduplicator при locker == nil используется KeyedMutex, что годится только для одного процесса.
func NewDeduplicator(store Store, locker Locker, precision int) *Deduplicator {
	if locker == nil {
		locker = &KeyedMutex{}
	}
	return &Deduplicator{store: store, locker: locker, precision: precision, now: time.Now}
}

func (d *Deduplicator) Key(lat, lng float64) string {
	return GridKey(lat, lng, d.precision)
}

// Enqueue ставит позицию в очередь геокодирования.
//
// Если для ячейки уже есть ожидающая задача, позиция добавляется в неё, а PositionID
// и Reason перезаписываются последними значениями; координаты задачи остаются прежними.
func (d *Deduplicator) Enqueue(ctx context.Context, positionID int64, lat, lng float64, reason string) (*Job, error) {
	key := d.Key(lat, lng)

	unlock, err := d.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := d.store.GetJob(ctx, key)
	if err != nil && !errors.Is(err, ErrJobNotFound) {
		return nil, err
	}

	now := d.now()

	if existing != nil && existing.Status == JobPending {
		existing.AddPosition(positionID)
		existing.PositionID = positionID
		existing.Reason = reason
		existing.UpdatedAt = now

		if err := d.store.UpdateJob(ctx, key, existing); err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{
			"key":       key,
			"positions": len(existing.PositionIDs),
		}).Debug("Позиция добавлена в ожидающую задачу геокодирования")
		return existing, nil
	}

	job := &Job{
		Key:         key,
		PositionIDs: []int64{positionID},
		PositionID:  positionID,
		Latitude:    lat,
		Longitude:   lng,
		Reason:      reason,
		Status:      JobPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if existing != nil {
		err = d.store.UpdateJob(ctx, key, job)
	} else {
		err = d.store.CreateJob(ctx, key, job)
	}
	if err != nil {
		return nil, err
	}

	log.WithField("key", key).Debug("Создана задача геокодирования")
	return job, nil
}

// Requeue возвращает в очередь задачу, которую не удалось обработать.
// Если за это время в ячейке появилась новая задача, позиции сливаются в неё.
func (d *Deduplicator) Requeue(ctx context.Context, job *Job) error {
	unlock, err := d.locker.Lock(ctx, job.Key)
	if err != nil {
		return err
	}
	defer unlock()

	existing, err := d.store.GetJob(ctx, job.Key)
	if err != nil && !errors.Is(err, ErrJobNotFound) {
		return err
	}

	if existing != nil && existing.Status == JobPending {
		for _, id := range job.PositionIDs {
			existing.AddPosition(id)
		}
		if job.Attempts > existing.Attempts {
			existing.Attempts = job.Attempts
		}
		existing.UpdatedAt = d.now()
		return d.store.UpdateJob(ctx, job.Key, existing)
	}

	retry := job.Clone()
	retry.Status = JobPending
	retry.UpdatedAt = d.now()

	if existing != nil {
		return d.store.UpdateJob(ctx, job.Key, retry)
	}
	return d.store.CreateJob(ctx, job.Key, retry)
}
