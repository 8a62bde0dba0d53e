package locker

import (
	"context"
	"fmt"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"sync"
	"time"
)

type localLock struct {
	value     string
	expiresAt time.Time
}

// localLockService is the single process locker used with the in-memory store.
type localLockService struct {
	mu    sync.Mutex
	locks map[string]localLock
	now   func() time.Time
}

func NewLocalLockService() contracts.LockerService {
	return &localLockService{
		locks: make(map[string]localLock),
		now:   time.Now,
	}
}

func (s *localLockService) TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if held, ok := s.locks[key]; ok && now.Before(held.expiresAt) {
		return false, "", nil
	}

	lockValue := utils.GenerateLockValue()
	s.locks[key] = localLock{value: lockValue, expiresAt: now.Add(expiration)}
	return true, lockValue, nil
}

func (s *localLockService) Unlock(ctx context.Context, key, lockValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.locks[key]
	if !ok || !s.now().Before(held.expiresAt) {
		delete(s.locks, key)
		return nil
	}
	if held.value != lockValue {
		return exceptions.ErrRedisUnlock(fmt.Errorf("lock not owned by this client"))
	}
	delete(s.locks, key)
	return nil
}

func (s *localLockService) Refresh(ctx context.Context, key, lockValue string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.locks[key]
	if !ok || held.value != lockValue || !s.now().Before(held.expiresAt) {
		return exceptions.ErrRedisUnlock(fmt.Errorf("lock %s not owned by this client", key))
	}
	held.expiresAt = s.now().Add(expiration)
	s.locks[key] = held
	return nil
}
