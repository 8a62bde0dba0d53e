package locker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRedisRepository struct {
	mock.Mock
}

func (m *mockRedisRepository) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockRedisRepository) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return m.Called(ctx, key, value, exp).Error(0)
}

func (m *mockRedisRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockRedisRepository) TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, exp)
	return args.Bool(0), args.Error(1)
}

func (m *mockRedisRepository) CompareAndDelete(ctx context.Context, key string, value interface{}) (bool, error) {
	args := m.Called(ctx, key, value)
	return args.Bool(0), args.Error(1)
}

func (m *mockRedisRepository) CompareAndExpire(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, exp)
	return args.Bool(0), args.Error(1)
}

func TestLockService_TryLock(t *testing.T) {
	ctx := context.Background()

	t.Run("Acquired", func(t *testing.T) {
		repo := new(mockRedisRepository)
		repo.On("TrySetNX", ctx, "alerting:flag:Patient/p1:hypertension", mock.AnythingOfType("string"), 10*time.Second).Return(true, nil)

		service := NewLockService(repo, zap.NewNop())
		acquired, value, err := service.TryLock(ctx, "alerting:flag:Patient/p1:hypertension", 10*time.Second)

		require.NoError(t, err)
		assert.True(t, acquired)
		assert.NotEmpty(t, value, "a lock value should be returned to the owner")
		repo.AssertExpectations(t)
	})

	t.Run("Held Elsewhere", func(t *testing.T) {
		repo := new(mockRedisRepository)
		repo.On("TrySetNX", ctx, "k", mock.Anything, time.Second).Return(false, nil)

		acquired, value, err := NewLockService(repo, zap.NewNop()).TryLock(ctx, "k", time.Second)

		require.NoError(t, err)
		assert.False(t, acquired)
		assert.Empty(t, value)
	})

	t.Run("Redis Down", func(t *testing.T) {
		repo := new(mockRedisRepository)
		repo.On("TrySetNX", ctx, "k", mock.Anything, time.Second).Return(false, errors.New("dial tcp: refused"))

		_, _, err := NewLockService(repo, zap.NewNop()).TryLock(ctx, "k", time.Second)
		assert.Error(t, err)
	})
}

func TestLockService_Unlock(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner Releases", func(t *testing.T) {
		repo := new(mockRedisRepository)
		repo.On("CompareAndDelete", ctx, "k", "v1").Return(true, nil)

		err := NewLockService(repo, zap.NewNop()).Unlock(ctx, "k", "v1")
		assert.NoError(t, err)
		repo.AssertNotCalled(t, "Get", ctx, "k")
	})

	t.Run("Already Expired", func(t *testing.T) {
		repo := new(mockRedisRepository)
		repo.On("CompareAndDelete", ctx, "k", "v1").Return(false, nil)
		repo.On("Get", ctx, "k").Return("", nil)

		err := NewLockService(repo, zap.NewNop()).Unlock(ctx, "k", "v1")
		assert.NoError(t, err, "releasing an expired lock is not an error")
	})

	t.Run("Owned By Someone Else", func(t *testing.T) {
		repo := new(mockRedisRepository)
		repo.On("CompareAndDelete", ctx, "k", "v1").Return(false, nil)
		repo.On("Get", ctx, "k").Return(`"v2"`, nil)

		err := NewLockService(repo, zap.NewNop()).Unlock(ctx, "k", "v1")
		assert.Error(t, err)
	})
}

func TestLockService_Refresh(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRedisRepository)
	repo.On("CompareAndExpire", ctx, "k", "v1", time.Minute).Return(true, nil)
	repo.On("CompareAndExpire", ctx, "k", "v2", time.Minute).Return(false, nil)

	service := NewLockService(repo, zap.NewNop())
	assert.NoError(t, service.Refresh(ctx, "k", "v1", time.Minute))
	assert.Error(t, service.Refresh(ctx, "k", "v2", time.Minute))
}
