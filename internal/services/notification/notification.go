// Package services содержит бизнес-логику уведомлений: создание с
// публикацией события в канал пользователя, список и пометки о прочтении.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
	"github.com/pantrypilot/pantry-tracker/internal/models"
	"github.com/pantrypilot/pantry-tracker/internal/realtime"
)

// defaultListLimit ограничивает размер списка уведомлений.
const defaultListLimit = 100

const notificationsCacheTTL = time.Minute

// NotificationRepository определяет методы для работы с уведомлениями в хранилище.
type NotificationRepository interface {
	// CreateNotification сохраняет уведомление и возвращает его ID.
	CreateNotification(ctx context.Context, n models.Notification) (string, error)
	// ListNotifications возвращает уведомления пользователя, новые первыми.
	ListNotifications(ctx context.Context, userUID string, limit int) ([]models.Notification, error)
	// MarkNotificationRead помечает уведомление прочитанным.
	MarkNotificationRead(ctx context.Context, userUID, id string) error
	// MarkAllNotificationsRead помечает прочитанными все уведомления пользователя.
	MarkAllNotificationsRead(ctx context.Context, userUID string) error
	// CountUnreadNotifications возвращает число непрочитанных уведомлений.
	CountUnreadNotifications(ctx context.Context, userUID string) (int, error)
}

// EventPublisher публикует сообщения в канал событий пользователя.
type EventPublisher interface {
	PublishToUser(userUID string, msg realtime.ChannelMessage)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// NotificationService реализует бизнес-логику уведомлений.
type NotificationService struct {
	repo   NotificationRepository
	events EventPublisher
	cache  Cache
	log    *slog.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(repo NotificationRepository, events EventPublisher,
	cache Cache, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		events: events,
		cache:  cache,
		log:    log,
	}
}

func listCacheKey(userUID string) string {
	return "notifications:" + userUID
}

// Create сохраняет уведомление, инвалидирует кеш списка и публикует
// событие с актуальным числом непрочитанных в канал пользователя.
func (s *NotificationService) Create(ctx context.Context, userUID string, req models.DummyNotification) (string, error) {
	id, err := s.repo.CreateNotification(ctx, models.Notification{
		UserUID: userUID,
		Type:    req.Type,
		Title:   req.Title,
		Body:    req.Body,
	})
	if err != nil {
		return "", err
	}
	s.invalidateList(userUID)

	unread, err := s.repo.CountUnreadNotifications(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to count unread notifications", sl.Err(err))
		unread = 0
	}
	s.events.PublishToUser(userUID, realtime.NewNotificationMessage(realtime.NestedTypeUnreadCount, unread))

	s.log.Info("created notification", slog.String("id", id),
		slog.String("user_uid", userUID), slog.String("type", req.Type))
	return id, nil
}

// List возвращает уведомления пользователя, используя кеш или репозиторий.
func (s *NotificationService) List(ctx context.Context, userUID string) ([]models.Notification, error) {
	var result []models.Notification
	cacheKey := listCacheKey(userUID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read notifications from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListNotifications(ctx, userUID, defaultListLimit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, result, notificationsCacheTTL); err != nil {
		s.log.Warn("failed to cache notifications", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// MarkRead помечает уведомление прочитанным и публикует событие
// с обновлённым числом непрочитанных.
func (s *NotificationService) MarkRead(ctx context.Context, userUID, id string) error {
	if err := s.repo.MarkNotificationRead(ctx, userUID, id); err != nil {
		return err
	}
	s.invalidateList(userUID)
	s.publishUnreadCount(ctx, userUID)
	return nil
}

// MarkAllRead помечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if err := s.repo.MarkAllNotificationsRead(ctx, userUID); err != nil {
		return err
	}
	s.invalidateList(userUID)
	s.events.PublishToUser(userUID, realtime.NewNotificationMessage(realtime.NestedTypeUnreadCount, 0))
	return nil
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userUID string) (int, error) {
	return s.repo.CountUnreadNotifications(ctx, userUID)
}

func (s *NotificationService) invalidateList(userUID string) {
	cacheKey := listCacheKey(userUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate notifications cache", slog.String("key", cacheKey), sl.Err(err))
	}
}

func (s *NotificationService) publishUnreadCount(ctx context.Context, userUID string) {
	unread, err := s.repo.CountUnreadNotifications(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to count unread notifications", sl.Err(err))
		return
	}
	s.events.PublishToUser(userUID, realtime.NewNotificationMessage(realtime.NestedTypeUnreadCount, unread))
}
