package redis

/*
Раздел настроек, которые должны быть в конфиге для подключения хранилища:

addr = "localhost:6379"
password = ""
db = "0"
key = "geocode:results"
mode = "list"      # list: LPUSH в key, channel: PUBLISH в key
*/

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type Connector struct {
	client *redis.Client
	config map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	if c.config["key"] == "" {
		return fmt.Errorf("не задан key для Redis")
	}

	db := 0
	if raw := c.config["db"]; raw != "" {
		var err error
		if db, err = strconv.Atoi(raw); err != nil {
			return fmt.Errorf("не удалось получить db: %v", err)
		}
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     c.config["addr"],
		Password: c.config["password"],
		DB:       db,
	})
	if err := c.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("Redis недоступен: %v", err)
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

	ctx := context.Background()
	if c.config["mode"] == "channel" {
		err = c.client.Publish(ctx, c.config["key"], data).Err()
	} else {
		err = c.client.LPush(ctx, c.config["key"], data).Err()
	}
	if err != nil {
		return fmt.Errorf("не удалось записать результат в Redis: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.client.Close()
}
