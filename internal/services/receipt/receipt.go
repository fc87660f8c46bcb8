// Package services содержит бизнес-логику сканирования чеков с учётом
// лимитов тарифа и публикацией события об использовании лимита.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/entitlement"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
	"github.com/pantrypilot/pantry-tracker/internal/models"
	"github.com/pantrypilot/pantry-tracker/internal/realtime"
	userservice "github.com/pantrypilot/pantry-tracker/internal/services/user"
)

// Ошибки проверки лимитов тарифа.
var (
	ErrScanLimitReached = errors.New("receipt scan limit reached")
	ErrTooManyItems     = errors.New("too many items per receipt")
)

// ReceiptRepository определяет методы для работы с чеками в хранилище.
type ReceiptRepository interface {
	// CreateReceipt сохраняет чек с позициями и возвращает его ID.
	CreateReceipt(ctx context.Context, receipt models.Receipt, items []models.ReceiptItem) (string, error)
	// ListReceipts возвращает чеки пользователя, новые первыми.
	ListReceipts(ctx context.Context, userUID string, limit int) ([]models.Receipt, error)
	// ListReceiptItems возвращает позиции чека.
	ListReceiptItems(ctx context.Context, receiptID string) ([]models.ReceiptItem, error)
}

// UserRepository определяет операции с пользователем, нужные при сканировании.
type UserRepository interface {
	// GetUser возвращает пользователя по его UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// IncrementScanUsage атомарно увеличивает счётчик сканирований.
	IncrementScanUsage(ctx context.Context, userUID string) (int, error)
}

// EventPublisher публикует сообщения в канал событий пользователя.
type EventPublisher interface {
	PublishToUser(userUID string, msg realtime.ChannelMessage)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Invalidate(key string) error
}

// ReceiptService реализует бизнес-логику сканирования чеков.
type ReceiptService struct {
	repo   ReceiptRepository
	users  UserRepository
	events EventPublisher
	cache  Cache
	log    *slog.Logger
}

// NewReceiptService создает новый экземпляр ReceiptService.
func NewReceiptService(repo ReceiptRepository, users UserRepository,
	events EventPublisher, cache Cache, log *slog.Logger) *ReceiptService {
	return &ReceiptService{
		repo:   repo,
		users:  users,
		events: events,
		cache:  cache,
		log:    log,
	}
}

// Scan проверяет лимиты тарифа, сохраняет чек, увеличивает счётчик
// сканирований и публикует событие об использовании лимита. Событие
// публикуется только для тарифов с ограничением: безлимитному тарифу
// счётчик не показывается.
func (s *ReceiptService) Scan(ctx context.Context, userUID string, req models.DummyReceipt) (string, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return "", err
	}

	if entitlement.HasReachedScanLimit(user) {
		return "", ErrScanLimitReached
	}
	if !entitlement.WithinItemsPerReceipt(user, len(req.Items)) {
		return "", ErrTooManyItems
	}

	purchaseDate, err := time.Parse("02-01-2006", req.PurchaseDate)
	if err != nil {
		return "", fmt.Errorf("invalid purchase date: %w", err)
	}

	receipt := models.Receipt{
		UserUID:      userUID,
		StoreName:    req.StoreName,
		PurchaseDate: purchaseDate,
		TotalAmount:  req.TotalAmount,
	}
	items := make([]models.ReceiptItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.ReceiptItem{
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LocationID: item.LocationID,
		})
	}

	receiptID, err := s.repo.CreateReceipt(ctx, receipt, items)
	if err != nil {
		return "", err
	}

	used, err := s.users.IncrementScanUsage(ctx, userUID)
	if err != nil {
		return "", err
	}
	if err := s.cache.Invalidate(userservice.ProfileCacheKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", sl.Err(err))
	}

	s.log.Info("scanned receipt", slog.String("receipt_id", receiptID),
		slog.String("user_uid", userUID), slog.Int("scans_used", used))

	limit := entitlement.TierFor(user.SubscriptionTier).Limits.ReceiptScans
	if limit != entitlement.Unlimited {
		remaining := max(limit-used, 0)
		s.events.PublishToUser(userUID, realtime.NewScanUsageMessage(used, remaining))
	}
	return receiptID, nil
}

// List возвращает чеки пользователя.
func (s *ReceiptService) List(ctx context.Context, userUID string, limit int) ([]models.Receipt, error) {
	return s.repo.ListReceipts(ctx, userUID, limit)
}

// ListItems возвращает позиции чека.
func (s *ReceiptService) ListItems(ctx context.Context, receiptID string) ([]models.ReceiptItem, error) {
	return s.repo.ListReceiptItems(ctx, receiptID)
}
