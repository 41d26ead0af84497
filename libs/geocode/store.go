package geocode

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrJobNotFound = errors.New("задача геокодирования не найдена")
	ErrJobExists   = errors.New("задача геокодирования уже существует")
)

// Store хранилище задач по ключу ячейки.
// Согласованность чтения-изменения-записи по одному ключу обеспечивает Locker.
type Store interface {
	// GetJob возвращает ErrJobNotFound, если задачи нет.
	GetJob(ctx context.Context, key string) (*Job, error)
	// CreateJob возвращает ErrJobExists, если задача уже есть.
	CreateJob(ctx context.Context, key string, job *Job) error
	UpdateJob(ctx context.Context, key string, job *Job) error
}

// Queue хранилище, из которого воркер забирает задачи.
type Queue interface {
	Store
	PendingKeys(ctx context.Context) ([]string, error)
	// DeleteJob удаляет задачу; отсутствие задачи не ошибка.
	DeleteJob(ctx context.Context, key string) error
}

// MemoryStore хранилище задач в памяти процесса.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) GetJob(_ context.Context, key string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[key]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) CreateJob(_ context.Context, key string, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; ok {
		return ErrJobExists
	}
	s.jobs[key] = job.Clone()
	return nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, key string, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; !ok {
		return ErrJobNotFound
	}
	s.jobs[key] = job.Clone()
	return nil
}

func (s *MemoryStore) PendingKeys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.jobs))
	for key, job := range s.jobs {
		if job.Status == JobPending {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, key)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
