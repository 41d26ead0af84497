package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/guoosantos/euro-one-sub006/libs/geocode"
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Drainer разбор очереди геокодирования.
type Drainer interface {
	Drain(ctx context.Context) (geocode.DrainStats, error)
}

// DrainQueue периодический разбор очереди геокодирования по расписанию cron.
type DrainQueue struct {
	Worker         Drainer
	CronExpression string
	Timeout        time.Duration
	Location       *time.Location

	ctx           context.Context
	cancel        context.CancelFunc
	cronScheduler *cron.Cron
}

func (domain *DrainQueue) Run() (geocode.DrainStats, error) {
	parent := domain.ctx
	if parent == nil {
		parent = context.Background()
	}

	ctx := parent
	if domain.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, domain.Timeout)
		defer cancel()
	}

	stats, err := domain.Worker.Drain(ctx)
	if err != nil {
		return stats, fmt.Errorf("не удалось разобрать очередь геокодирования: %w", err)
	}
	return stats, nil
}

func (domain *DrainQueue) Initialize() error {
	loc := domain.Location
	if loc == nil {
		loc = time.UTC
	}

	domain.ctx, domain.cancel = context.WithCancel(context.Background())
	domain.cronScheduler = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	_, err := domain.cronScheduler.AddFunc(domain.CronExpression, func() {
		stats, err := domain.Run()
		if err != nil {
			logrus.Errorf("Ошибка разбора очереди геокодирования: %v", err)
			return
		}
		if stats != (geocode.DrainStats{}) {
			logrus.WithFields(logrus.Fields{
				"processed": stats.Processed,
				"requeued":  stats.Requeued,
				"dropped":   stats.Dropped,
			}).Info("Очередь геокодирования разобрана")
		}
	})
	if err != nil {
		domain.cancel()
		return fmt.Errorf("ошибка при настройке cron-задачи: %w", err)
	}

	domain.cronScheduler.Start()
	logrus.Infof("Запланирован разбор очереди геокодирования: %s", domain.CronExpression)

	return nil
}

// Shutdown останавливает планировщик и ждёт завершения текущего разбора.
func (domain *DrainQueue) Shutdown() {
	if domain.cronScheduler != nil {
		if domain.cancel != nil {
			domain.cancel()
		}
		<-domain.cronScheduler.Stop().Done()
		logrus.Info("Cron-планировщик остановлен")
	}
}
