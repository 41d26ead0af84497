package storage

import (
	"errors"
	"fmt"

	"github.com/guoosantos/euro-one-sub006/cli/geocoder/storage/store/mysql"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/storage/store/nats"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/storage/store/postgresql"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/storage/store/rabbitmq"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/storage/store/redis"
	"github.com/guoosantos/euro-one-sub006/cli/geocoder/storage/store/tarantool_queue"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidStorage = errors.New("storage not found")
var ErrUnknownStorage = errors.New("storage isn't support yet")

type Store interface {
	Connector
	Saver
}

// Saver интерфейс для подключения внешних хранилищ
type Saver interface {
	// Save сохранение в хранилище
	Save(interface{ ToBytes() ([]byte, error) }) error
}

// Connector интерфейс для подключения внешних хранилищ
type Connector interface {
	// Init установка соединения с хранилищем
	Init(map[string]string) error

	// Close закрытие соединения с хранилищем
	Close() error
}

// factories конструкторы хранилищ по имени раздела конфига
var factories = map[string]func() Store{
	"rabbitmq":        func() Store { return &rabbitmq.Connector{} },
	"postgresql":      func() Store { return &postgresql.Connector{} },
	"nats":            func() Store { return &nats.Connector{} },
	"tarantool_queue": func() Store { return &tarantool_queue.Connector{} },
	"redis":           func() Store { return &redis.Connector{} },
	"mysql":           func() Store { return &mysql.Connector{} },
}

// Repository набор выходных хранилищ для результатов геокодирования
type Repository struct {
	storages []Saver
}

// AddStore добавляет хранилище для сохранения данных
func (r *Repository) AddStore(s Saver) {
	r.storages = append(r.storages, s)
}

// Save сохраняет данные во все установленные хранилища.
// Ошибка первого же хранилища прерывает запись, чтобы задача ушла на повтор.
func (r *Repository) Save(m interface{ ToBytes() ([]byte, error) }) error {
	if len(r.storages) == 0 {
		log.Debug("Нет хранилищ для сохранения результата геокодирования")
		return nil
	}

	for _, store := range r.storages {
		if err := store.Save(m); err != nil {
			return err
		}
	}
	return nil
}

// LoadStorages загружает хранилища из структуры конфига
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	if len(storages) == 0 {
		return ErrInvalidStorage
	}

	for name, params := range storages {
		factory, ok := factories[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStorage, name)
		}

		db := factory()
		if err := db.Init(params); err != nil {
			return fmt.Errorf("ошибка инициализации хранилища %s: %w", name, err)
		}

		log.WithField("storage", name).Info("Подключено хранилище результатов")
		r.AddStore(db)
	}
	return nil
}

// Close закрывает все хранилища, поддерживающие закрытие
func (r *Repository) Close() error {
	var firstErr error
	for _, store := range r.storages {
		c, ok := store.(Connector)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewRepository создает пустой репозиторий
func NewRepository() *Repository {
	return &Repository{}
}
