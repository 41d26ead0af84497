package redisstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultLockTTL   = 10 * time.Second
	DefaultLockRetry = 50 * time.Millisecond
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker блокировка ячейки через SET NX PX с уникальным токеном владельца.
type Locker struct {
	client redis.UniversalClient
	prefix string
	TTL    time.Duration
	Retry  time.Duration
}

func NewLocker(client redis.UniversalClient, prefix string) *Locker {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Locker{client: client, prefix: prefix, TTL: DefaultLockTTL, Retry: DefaultLockRetry}
}

func (l *Locker) lockKey(key string) string {
	return l.prefix + "lock:" + key
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.lockKey(key)
	token := uuid.NewString()

	ttl := l.TTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	retry := l.Retry
	if retry <= 0 {
		retry = DefaultLockRetry
	}

	ticker := time.NewTicker(retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return func() {
		if err := unlockScript.Run(context.Background(), l.client, []string{lockKey}, token).Err(); err != nil {
			log.WithFields(log.Fields{"key": key, "err": err}).Warn("Не удалось снять блокировку ячейки")
		}
	}, nil
}
