package tarantool_queue

/*
Плагин для публикации результатов геокодирования в Tarantool queue.

Раздел настроек конфига (обязательны host, port и queue):

host = "localhost"
port = "3301"
user = "guest"
password = ""
max_recons = 5
timeout = 1
reconnect = 1
queue = "geocode_results"
ttr = 60
*/

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tarantool/go-tarantool"
	"github.com/tarantool/go-tarantool/queue"
)

type Connector struct {
	connection *tarantool.Connection
	queue      queue.Queue
	config     map[string]string
	putOpts    queue.Opts
}

// intOption целое из раздела конфига; пустое значение даёт def
func intOption(cfg map[string]string, name string, def int) (int, error) {
	raw := cfg[name]
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("не удалось получить %s: %v", name, err)
	}
	return v, nil
}

func options(cfg map[string]string) (tarantool.Opts, queue.Opts, error) {
	maxRecons, err := intOption(cfg, "max_recons", 5)
	if err != nil {
		return tarantool.Opts{}, queue.Opts{}, err
	}
	timeout, err := intOption(cfg, "timeout", 1)
	if err != nil {
		return tarantool.Opts{}, queue.Opts{}, err
	}
	reconnect, err := intOption(cfg, "reconnect", 1)
	if err != nil {
		return tarantool.Opts{}, queue.Opts{}, err
	}
	ttr, err := intOption(cfg, "ttr", 0)
	if err != nil {
		return tarantool.Opts{}, queue.Opts{}, err
	}

	connOpts := tarantool.Opts{
		Timeout:       time.Duration(timeout) * time.Second,
		Reconnect:     time.Duration(reconnect) * time.Second,
		MaxReconnects: uint(maxRecons),
		User:          cfg["user"],
		Pass:          cfg["password"],
	}
	return connOpts, queue.Opts{Ttr: time.Duration(ttr) * time.Second}, nil
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	if cfg["queue"] == "" {
		return fmt.Errorf("не задано имя очереди Tarantool")
	}
	c.config = cfg

	connOpts, putOpts, err := options(cfg)
	if err != nil {
		return err
	}
	c.putOpts = putOpts

	c.connection, err = tarantool.Connect(fmt.Sprintf("%s:%s", cfg["host"], cfg["port"]), connOpts)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к Tarantool: %v", err)
	}
	c.queue = queue.New(c.connection, cfg["queue"])
	return nil
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на результат")
	}

	data, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации результата: %v", err)
	}

	if c.putOpts.Ttr > 0 {
		_, err = c.queue.PutWithOpts(data, c.putOpts)
	} else {
		_, err = c.queue.Put(data)
	}
	if err != nil {
		return fmt.Errorf("не удалось отправить результат в очередь: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
