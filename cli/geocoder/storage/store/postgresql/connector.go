package postgresql

/*
Настройки, которые могут (а не которые – должны) быть в конфиге для подключения хранилища:

host = "localhost"
port = "5432"
user = "postgres"
password = "postgres"
database = "fleet"
table = "position_addresses"
sslmode = "disable"
result_field_name = "result"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const defaultResultField = "result"

type Connector struct {
	connection *sql.DB
	config     map[string]string
	query      string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	connStr := fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
		c.config["database"], c.config["host"], c.config["port"], c.config["user"], c.config["password"], c.config["sslmode"])
	if c.connection, err = sql.Open("postgres", connStr); err != nil {
		return fmt.Errorf("ошибка подключения к PostgreSQL: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("PostgreSQL недоступен: %v", err)
	}

	field := c.config["result_field_name"]
	if field == "" {
		log.Warnf("Ключ 'result_field_name' не найден в конфигурации хранилища. Используется значение по умолчанию '%s'.", defaultResultField)
		field = defaultResultField
	}
	c.query = fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1)", c.config["table"], field)
	return err
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на результат")
	}

	data, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации результата: %v", err)
	}

	if _, err = c.connection.Exec(c.query, data); err != nil {
		return fmt.Errorf("не удалось вставить запись: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
