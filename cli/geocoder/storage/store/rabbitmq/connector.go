package rabbitmq

/*
Раздел настроек, которые должны быть в конфиге для подключения хранилища:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "geocode"
exchange_type = "topic"
key = "geocode.result"
*/

import (
	"fmt"

	"github.com/streadway/amqp"
)

type Connector struct {
	connection *amqp.Connection
	channel    *amqp.Channel
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

	conStr := fmt.Sprintf("amqp://%s:%s@%s:%s/", c.config["user"], c.config["password"], c.config["host"], c.config["port"])
	if c.connection, err = amqp.Dial(conStr); err != nil {
		return fmt.Errorf("ошибка подключения к RabbitMQ: %v", err)
	}

	if c.channel, err = c.connection.Channel(); err != nil {
		return fmt.Errorf("ошибка открытия канала RabbitMQ: %v", err)
	}

	exchangeType := c.config["exchange_type"]
	if exchangeType == "" {
		exchangeType = amqp.ExchangeTopic
	}
	if err = c.channel.ExchangeDeclare(c.config["exchange"], exchangeType, true, false, false, false, nil); err != nil {
		return fmt.Errorf("не удалось объявить exchange: %v", err)
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

	if err = c.channel.Publish(
		c.config["exchange"],
		c.config["key"],
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         data,
		},
	); err != nil {
		return fmt.Errorf("не удалось отправить сообщение в RabbitMQ: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}
	return c.connection.Close()
}
