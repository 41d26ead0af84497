package intake

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/guoosantos/euro-one-sub006/libs/geocode"
	log "github.com/sirupsen/logrus"
)

// Enqueuer постановка позиции в очередь геокодирования.
type Enqueuer interface {
	Enqueue(ctx context.Context, positionID int64, lat, lng float64, reason string) (*geocode.Job, error)
}

type item struct {
	positionID int64
	lat, lng   float64
	reason     string
}

// Buffer развязывает приём сообщений и постановку в очередь, которая ждёт блокировку ячейки.
type Buffer struct {
	target Enqueuer
	ch     chan item
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func NewBuffer(target Enqueuer, buffer, workers int) *Buffer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Buffer{
		target: target,
		ch:     make(chan item, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

func (b *Buffer) worker() {
	defer b.wg.Done()
	for it := range b.ch {
		if _, err := b.target.Enqueue(b.ctx, it.positionID, it.lat, it.lng, it.reason); err != nil {
			log.WithFields(log.Fields{
				"err":      err,
				"position": it.positionID,
			}).Error("Ошибка постановки позиции в очередь геокодирования")
		}
	}
}

func (b *Buffer) Push(positionID int64, lat, lng float64, reason string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("буфер приёма был закрыт")
	}

	select {
	case b.ch <- item{positionID: positionID, lat: lat, lng: lng, reason: reason}:
		return nil
	case <-b.ctx.Done():
		return fmt.Errorf("буфер приёма был закрыт")
	}
}

// Close дожидается обработки уже принятых позиций.
func (b *Buffer) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	b.wg.Wait()
	b.cancel()
}

// Abort прерывает обработку, не дожидаясь освобождения блокировок.
func (b *Buffer) Abort() {
	b.cancel()
	b.Close()
}
