// Package services содержит бизнес-логику работы с профилем пользователя,
// включая кеширование и вычисление использования лимитов тарифа.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/entitlement"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// profileCacheTTL время жизни профиля в кеше.
const profileCacheTTL = 5 * time.Minute

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// GetUser возвращает пользователя по его UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// UpdateSubscriptionTier устанавливает пользователю тариф.
	UpdateSubscriptionTier(ctx context.Context, userUID, tierID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// UserService реализует бизнес-логику работы с профилем пользователя.
type UserService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, log *slog.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ProfileCacheKey возвращает ключ кеша профиля пользователя.
func ProfileCacheKey(userUID string) string {
	return "user:profile:" + userUID
}

// GetProfile возвращает профиль пользователя, используя кеш или репозиторий.
func (s *UserService) GetProfile(ctx context.Context, userUID string) (*models.User, error) {
	var result *models.User
	cacheKey := ProfileCacheKey(userUID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read profile from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, user, profileCacheTTL); err != nil {
		s.log.Warn("failed to cache profile", slog.String("key", cacheKey), sl.Err(err))
	}
	return user, nil
}

// ScanUsage возвращает использование лимита сканирований чеков.
func (s *UserService) ScanUsage(ctx context.Context, userUID string) (models.ScanUsage, error) {
	user, err := s.GetProfile(ctx, userUID)
	if err != nil {
		return models.ScanUsage{}, err
	}
	return entitlement.ScanUsage(user), nil
}

// SetTier устанавливает пользователю тариф и инвалидирует кеш профиля.
func (s *UserService) SetTier(ctx context.Context, userUID, tierID string) error {
	if err := s.repo.UpdateSubscriptionTier(ctx, userUID, tierID); err != nil {
		return err
	}
	s.InvalidateProfile(userUID)
	s.log.Info("updated subscription tier",
		slog.String("user_uid", userUID), slog.String("tier", tierID))
	return nil
}

// InvalidateProfile удаляет профиль пользователя из кеша.
func (s *UserService) InvalidateProfile(userUID string) {
	cacheKey := ProfileCacheKey(userUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.String("key", cacheKey), sl.Err(err))
	}
}
