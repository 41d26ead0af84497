// Package redisstore хранилище задач геокодирования и распределённая блокировка в Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/guoosantos/euro-one-sub006/libs/geocode"
	"gopkg.in/vmihailenco/msgpack.v2"
)

const DefaultPrefix = "geocode:"

// Store задачи лежат под <prefix>job:<key>, ключи ожидающих задач в множестве <prefix>pending.
type Store struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) jobKey(key string) string {
	return s.prefix + "job:" + key
}

func (s *Store) pendingKey() string {
	return s.prefix + "pending"
}

type record struct {
	Key         string  `msgpack:"key"`
	PositionIDs []int64 `msgpack:"positions"`
	PositionID  int64   `msgpack:"position"`
	Latitude    float64 `msgpack:"lat"`
	Longitude   float64 `msgpack:"lng"`
	Reason      string  `msgpack:"reason"`
	Status      string  `msgpack:"status"`
	Attempts    int     `msgpack:"attempts"`
	CreatedAt   int64   `msgpack:"created"`
	UpdatedAt   int64   `msgpack:"updated"`
}

func encodeJob(job *geocode.Job) ([]byte, error) {
	return msgpack.Marshal(&record{
		Key:         job.Key,
		PositionIDs: job.PositionIDs,
		PositionID:  job.PositionID,
		Latitude:    job.Latitude,
		Longitude:   job.Longitude,
		Reason:      job.Reason,
		Status:      string(job.Status),
		Attempts:    job.Attempts,
		CreatedAt:   job.CreatedAt.UnixMilli(),
		UpdatedAt:   job.UpdatedAt.UnixMilli(),
	})
}

func decodeJob(raw []byte) (*geocode.Job, error) {
	var r record
	if err := msgpack.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("ошибка декодирования задачи геокодирования: %w", err)
	}
	return &geocode.Job{
		Key:         r.Key,
		PositionIDs: r.PositionIDs,
		PositionID:  r.PositionID,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Reason:      r.Reason,
		Status:      geocode.JobStatus(r.Status),
		Attempts:    r.Attempts,
		CreatedAt:   time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(r.UpdatedAt).UTC(),
	}, nil
}

func (s *Store) GetJob(ctx context.Context, key string) (*geocode.Job, error) {
	raw, err := s.client.Get(ctx, s.jobKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, geocode.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeJob(raw)
}

func (s *Store) CreateJob(ctx context.Context, key string, job *geocode.Job) error {
	raw, err := encodeJob(job)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, s.jobKey(key), raw, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return geocode.ErrJobExists
	}
	return s.syncPending(ctx, key, job.Status)
}

func (s *Store) UpdateJob(ctx context.Context, key string, job *geocode.Job) error {
	raw, err := encodeJob(job)
	if err != nil {
		return err
	}

	updated, err := s.client.SetXX(ctx, s.jobKey(key), raw, 0).Result()
	if err != nil {
		return err
	}
	if !updated {
		return geocode.ErrJobNotFound
	}
	return s.syncPending(ctx, key, job.Status)
}

func (s *Store) syncPending(ctx context.Context, key string, status geocode.JobStatus) error {
	if status == geocode.JobPending {
		return s.client.SAdd(ctx, s.pendingKey(), key).Err()
	}
	return s.client.SRem(ctx, s.pendingKey(), key).Err()
}

func (s *Store) PendingKeys(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.pendingKey()).Result()
}

func (s *Store) DeleteJob(ctx context.Context, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.jobKey(key))
		pipe.SRem(ctx, s.pendingKey(), key)
		return nil
	})
	return err
}
