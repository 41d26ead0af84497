package logging

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Once пишет сообщение не чаще одного раза на ключ за время жизни экземпляра.
// Создаётся один раз при старте процесса и передаётся тем, кому нужен.
type Once struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	logger log.FieldLogger
}

func NewOnce(logger log.FieldLogger) *Once {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Once{seen: make(map[string]struct{}), logger: logger}
}

// Mark возвращает true только при первом обращении с данным ключом.
func (o *Once) Mark(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.seen[key]; ok {
		return false
	}
	o.seen[key] = struct{}{}
	return true
}

func (o *Once) Warn(key string, fields log.Fields, msg string) {
	if o == nil || !o.Mark(key) {
		return
	}
	o.logger.WithFields(fields).Warn(msg)
}

func (o *Once) Info(key string, fields log.Fields, msg string) {
	if o == nil || !o.Mark(key) {
		return
	}
	o.logger.WithFields(fields).Info(msg)
}

// Reset забывает все ключи.
func (o *Once) Reset() {
	o.mu.Lock()
	o.seen = make(map[string]struct{})
	o.mu.Unlock()
}
