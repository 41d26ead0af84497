package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

/*
Генератор запросов геокодирования.

Публикует в NATS запрос на геокодирование позиции и, если задан -results,
ждёт результат с этой позицией.

Usage:
  -pid int
    	Идентификатор позиции (обязательно)
  -lat float
    	Широта
  -lon float
    	Долгота
  -reason string
    	Причина запроса
  -server string
    	Адрес NATS (default "nats://localhost:4222")
  -subject string
    	Тема запросов (default "geocode.requests")
  -results string
    	Тема результатов, которую нужно слушать
  -timeout int
    	Время ожидания результата в секундах, по умолчанию 30

Example

```
./request-gen --pid 1 --lat -23.5505 --lon -46.6333 --results geocode.results
```
*/

type request struct {
	PositionID int64   `json:"positionId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Reason     string  `json:"reason,omitempty"`
}

type result struct {
	PositionIDs []int64 `json:"positionIds"`
	Address     struct {
		DisplayName string `json:"displayName"`
	} `json:"address"`
}

func buildRequest(pid int64, lat, lon float64, reason string) ([]byte, error) {
	return json.Marshal(request{PositionID: pid, Latitude: lat, Longitude: lon, Reason: reason})
}

// matchResult адрес из результата, если в нём есть позиция pid
func matchResult(data []byte, pid int64) (string, bool) {
	var r result
	if err := json.Unmarshal(data, &r); err != nil {
		return "", false
	}
	for _, id := range r.PositionIDs {
		if id == pid {
			return r.Address.DisplayName, true
		}
	}
	return "", false
}

func main() {
	pid := int64(0)
	lat := 0.0
	lon := 0.0
	reason := ""
	server := ""
	subject := ""
	results := ""
	timeout := 0

	flag.Int64Var(&pid, "pid", 0, "Идентификатор позиции (обязательно)")
	flag.Float64Var(&lat, "lat", 0, "Широта")
	flag.Float64Var(&lon, "lon", 0, "Долгота")
	flag.StringVar(&reason, "reason", "", "Причина запроса")
	flag.StringVar(&server, "server", nats.DefaultURL, "Адрес NATS")
	flag.StringVar(&subject, "subject", "geocode.requests", "Тема запросов")
	flag.StringVar(&results, "results", "", "Тема результатов, которую нужно слушать")
	flag.IntVar(&timeout, "timeout", 30, "Время ожидания результата в секундах")

	flag.Parse()

	if pid == 0 {
		fmt.Println("Требуется идентификатор позиции, смотрите помощь (-h)")
		os.Exit(1)
	}

	payload, err := buildRequest(pid, lat, lon, reason)
	if err != nil {
		fmt.Println("Ошибка формирования запроса: ", err)
		os.Exit(1)
	}

	conn, err := nats.Connect(server)
	if err != nil {
		fmt.Println("Ошибка подключения к NATS: ", err)
		os.Exit(1)
	}
	defer conn.Close()

	var sub *nats.Subscription
	if results != "" {
		if sub, err = conn.SubscribeSync(results); err != nil {
			fmt.Println("Ошибка подписки на результаты: ", err)
			os.Exit(1)
		}
	}

	if err = conn.Publish(subject, payload); err != nil {
		fmt.Println("Ошибка отправки запроса: ", err)
		os.Exit(1)
	}
	if err = conn.FlushTimeout(5 * time.Second); err != nil {
		fmt.Println("Сервер не подтвердил получение запроса: ", err)
		os.Exit(1)
	}

	if sub == nil {
		fmt.Println("Запрос отправлен")
		return
	}

	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for {
		msg, err := sub.NextMsg(time.Until(deadline))
		if err != nil {
			fmt.Println("Результат не получен: ", err)
			os.Exit(1)
		}
		if address, ok := matchResult(msg.Data, pid); ok {
			fmt.Printf("Адрес: %s\n", address)
			return
		}
	}
}
