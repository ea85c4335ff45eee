package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lock coordinates exclusive job runs across worker replicas.
type Lock interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job string) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	CronLockKey(job string) string
}

// RedisLock implements Lock with SETNX and a TTL per job. The TTL bounds how
// long a crashed holder can block the job.
type RedisLock struct {
	client redisStore

	mu     sync.Mutex
	owners map[string]string
}

func NewRedisLock(client redisStore) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	return &RedisLock{client: client, owners: make(map[string]string)}, nil
}

func (l *RedisLock) Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	if job == "" {
		return false, errors.New("job name required")
	}
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.client.CronLockKey(job), owner, ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.mu.Lock()
		l.owners[job] = owner
		l.mu.Unlock()
	}
	return ok, nil
}

// Release frees the lock only while this instance still owns it. A lock whose
// TTL lapsed and was taken by another replica is left alone.
func (l *RedisLock) Release(ctx context.Context, job string) error {
	l.mu.Lock()
	owner, held := l.owners[job]
	delete(l.owners, job)
	l.mu.Unlock()
	if !held {
		return nil
	}

	if _, err := l.client.CompareAndDelete(ctx, l.client.CronLockKey(job), owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
