package nats

/*
Раздел настроек, которые должны быть в конфиге для подключения хранилища:

servers = "nats://localhost:4222"
topic = "geocode.results"
*/

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

type Connector struct {
	connection *nats.Conn
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	if c.config["topic"] == "" {
		return fmt.Errorf("не задан topic для NATS")
	}

	if c.connection, err = nats.Connect(c.config["servers"], nats.Name("geocoder-results")); err != nil {
		return fmt.Errorf("ошибка подключения к NATS: %v", err)
	}
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

	if err = c.connection.Publish(c.config["topic"], data); err != nil {
		return fmt.Errorf("не удалось отправить сообщение в NATS: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	c.connection.Close()
	return nil
}
