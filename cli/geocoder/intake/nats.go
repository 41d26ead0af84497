package intake

import (
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const DefaultSubject = "geocode.requests"

// Subscribe подписывается на запросы геокодирования и передаёт корректные в буфер.
// Некорректные сообщения пишутся в лог и отбрасываются.
func Subscribe(conn *nats.Conn, subject, queueGroup string, buffer *Buffer) (*nats.Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	handler := func(msg *nats.Msg) {
		positionID, c, reason, err := Decode(msg.Data)
		if err != nil {
			log.WithFields(log.Fields{
				"err":     err,
				"subject": msg.Subject,
			}).Warn("Отброшен некорректный запрос геокодирования")
			return
		}

		if err := buffer.Push(positionID, c.Latitude, c.Longitude, reason); err != nil {
			log.WithFields(log.Fields{"err": err, "position": positionID}).Error("Не удалось принять запрос геокодирования")
		}
	}

	if queueGroup != "" {
		return conn.QueueSubscribe(subject, queueGroup, handler)
	}
	return conn.Subscribe(subject, handler)
}
