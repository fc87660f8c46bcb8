package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) UpdateSubscriptionTier(ctx context.Context, userUID, tierID string) error {
	return m.Called(ctx, userUID, tierID).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestUserService_GetProfile(t *testing.T) {
	user := &models.User{UID: "uid-1", Email: "a@b.c", SubscriptionTier: "free"}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    bool
	}{
		{
			name: "промах кеша, чтение из репозитория",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", ProfileCacheKey("uid-1"), mock.Anything).Return(false, nil)
				r.On("GetUser", mock.Anything, "uid-1").Return(user, nil)
				c.On("Set", ProfileCacheKey("uid-1"), user, profileCacheTTL).Return(nil)
			},
		},
		{
			name: "попадание в кеш, репозиторий не вызывается",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", ProfileCacheKey("uid-1"), mock.Anything).Return(true, nil)
			},
		},
		{
			name: "ошибка репозитория",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", ProfileCacheKey("uid-1"), mock.Anything).Return(false, nil)
				r.On("GetUser", mock.Anything, "uid-1").Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			svc := NewUserService(repo, cache, newNoopLogger())
			_, err := svc.GetProfile(context.Background(), "uid-1")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestUserService_ScanUsage(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, mock.Anything).Return(false, nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{
		UID: "uid-1", SubscriptionTier: "free", ReceiptScansUsed: 2,
	}, nil)

	svc := NewUserService(repo, cache, newNoopLogger())
	usage, err := svc.ScanUsage(context.Background(), "uid-1")

	assert.NoError(t, err)
	assert.Equal(t, 2, usage.Used)
	assert.Equal(t, 3, usage.Total)
	assert.Equal(t, 1, usage.Remaining)
	assert.False(t, usage.Unlimited)
}

func TestUserService_SetTier(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("UpdateSubscriptionTier", mock.Anything, "uid-1", "smart").Return(nil)
	cache.On("Invalidate", ProfileCacheKey("uid-1")).Return(nil)

	svc := NewUserService(repo, cache, newNoopLogger())
	assert.NoError(t, svc.SetTier(context.Background(), "uid-1", "smart"))

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
