package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/config"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/domain"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/intake"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/storage"
	"github.com/guoosantos/euro-one-sub006/libs/geocode"
	"github.com/guoosantos/euro-one-sub006/libs/geocode/redisstore"
	"github.com/guoosantos/euro-one-sub006/libs/logging"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "Путь до конфигурационного файла")
	flag.Parse()

	conf, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Не удалось получить конфиг: %v", err)
	}

	fileLogger, err := logging.Configure(conf.GetLoggingOptions())
	if err != nil {
		log.Fatalf("Не удалось настроить логирование: %v", err)
	}
	if fileLogger != nil {
		defer fileLogger.Close()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis недоступен: %v", err)
	}

	store := redisstore.New(client, conf.Redis.Prefix)
	locker := redisstore.NewLocker(client, conf.Redis.Prefix)
	locker.TTL = conf.GetLockTTL()
	dedup := geocode.NewDeduplicator(store, locker, conf.GetGridPrecision())

	results := storage.NewRepository()
	if len(conf.Store) > 0 {
		if err := results.LoadStorages(conf.Store); err != nil {
			log.Fatalf("Не удалось загрузить хранилища: %v", err)
		}
	} else {
		log.Warn("Хранилища результатов не настроены, адреса никуда не сохраняются")
	}
	defer results.Close()

	reverse := geocode.NewNominatimClient(conf.NominatimURL, conf.NominatimUserAgent, conf.GetNominatimTimeout())
	reverse.Language = conf.NominatimLanguage

	worker := geocode.NewWorker(store, locker, dedup, reverse, results)
	worker.Workers = conf.Workers
	worker.MaxAttempts = conf.MaxAttempts

	drain := domain.DrainQueue{Worker: worker, CronExpression: conf.DrainCron}
	if err := drain.Initialize(); err != nil {
		log.Fatalf("Не удалось запланировать разбор очереди: %v", err)
	}
	defer drain.Shutdown()

	conn, err := nats.Connect(conf.NatsURL, nats.Name("geocoder"))
	if err != nil {
		log.Fatalf("Ошибка подключения к NATS: %v", err)
	}
	defer conn.Close()

	buffer := intake.NewBuffer(dedup, conf.IntakeBuffer, conf.Workers)
	defer buffer.Close()

	sub, err := intake.Subscribe(conn, conf.NatsSubject, conf.NatsQueueGroup, buffer)
	if err != nil {
		log.Fatalf("Не удалось подписаться на %s: %v", conf.NatsSubject, err)
	}
	defer sub.Unsubscribe()

	log.WithFields(log.Fields{
		"subject":   sub.Subject,
		"precision": conf.GetGridPrecision(),
	}).Info("Геокодер запущен")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Получен сигнал остановки, завершение работы")
}

func getConfig(configFilePath string) (config.Settings, error) {
	var c config.Settings
	var err error

	if configFilePath == "" {
		return c, errors.New("не задан путь до конфига")
	}

	c, err = config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("ошибка парсинга конфига: %v", err)
	}

	return c, nil
}
