package mysql

/*
Настройки, которые могут быть в конфиге для подключения хранилища:

host = "localhost"
port = "3306"
user = "root"
password = "root"
database = "fleet"
table = "position_addresses"
result_field_name = "result"
*/

import (
	"database/sql"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

const defaultResultField = "result"

type Connector struct {
	connection *sql.DB
	config     map[string]string
	query      string
}

// dsn собирает строку подключения из раздела конфига
func dsn(cfg map[string]string) string {
	mc := mysql.NewConfig()
	mc.User = cfg["user"]
	mc.Passwd = cfg["password"]
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg["host"], cfg["port"])
	mc.DBName = cfg["database"]
	return mc.FormatDSN()
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	if c.connection, err = sql.Open("mysql", dsn(cfg)); err != nil {
		return fmt.Errorf("ошибка подключения к MySQL: %v", err)
	}
	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("MySQL недоступен: %v", err)
	}

	field := c.config["result_field_name"]
	if field == "" {
		field = defaultResultField
	}
	c.query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", c.config["table"], field)
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

	if _, err = c.connection.Exec(c.query, data); err != nil {
		return fmt.Errorf("не удалось вставить запись: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
