// Package services содержит бизнес-логику оплаты: каталог цен с запасным
// вариантом, представление подписки, checkout и применение событий
// платёжного провайдера. Все переходы состояния подписки проходят через
// ApplyProviderEvent и applySubscription, другого пути мутации зеркала нет.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/billing"
	"github.com/pantrypilot/pantry-tracker/internal/config"
	"github.com/pantrypilot/pantry-tracker/internal/entitlement"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
	"github.com/pantrypilot/pantry-tracker/internal/models"
	"github.com/pantrypilot/pantry-tracker/internal/paymentprovider"
	userservice "github.com/pantrypilot/pantry-tracker/internal/services/user"
	"github.com/pantrypilot/pantry-tracker/internal/storage/repository"
)

const pricesCacheKey = "billing:prices"

const pricesCacheTTL = time.Hour

// ErrNoSubscription возвращается, когда у пользователя нет подписки.
var ErrNoSubscription = errors.New("no subscription")

// ProviderClient описывает операции клиента платёжного провайдера.
type ProviderClient interface {
	ListPrices(ctx context.Context) ([]paymentprovider.Price, error)
	GetSubscription(ctx context.Context, id string) (*paymentprovider.Subscription, error)
	CreateCheckoutSession(ctx context.Context, req paymentprovider.CreateCheckoutSessionRequest) (*paymentprovider.CheckoutSession, error)
	CancelAtPeriodEnd(ctx context.Context, id string) (*paymentprovider.Subscription, error)
	Reactivate(ctx context.Context, id string) (*paymentprovider.Subscription, error)
}

// SubscriptionRepository определяет методы для работы с зеркалами подписок.
type SubscriptionRepository interface {
	UpsertSubscription(ctx context.Context, sub models.Subscription) error
	GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error)
}

// UserRepository определяет операции с пользователем при смене тарифа.
type UserRepository interface {
	UpdateSubscriptionTier(ctx context.Context, userUID, tierID string) error
}

// NotificationCreator создаёт уведомление пользователю о смене подписки.
// Публикация события в канал пользователя происходит внутри создания
// уведомления.
type NotificationCreator interface {
	Create(ctx context.Context, userUID string, req models.DummyNotification) (string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// BillingService реализует бизнес-логику оплаты.
type BillingService struct {
	provider      ProviderClient
	subs          SubscriptionRepository
	users         UserRepository
	notifications NotificationCreator
	cache         Cache
	cfg           config.PaymentProvider
	log           *slog.Logger
}

// NewBillingService создает новый экземпляр BillingService.
func NewBillingService(provider ProviderClient, subs SubscriptionRepository,
	users UserRepository, notifications NotificationCreator,
	cache Cache, cfg config.PaymentProvider, log *slog.Logger) *BillingService {
	return &BillingService{
		provider:      provider,
		subs:          subs,
		users:         users,
		notifications: notifications,
		cache:         cache,
		cfg:           cfg,
		log:           log,
	}
}

// Prices возвращает каталог цен провайдера. При недоступности провайдера
// возвращается запасной каталог с явным флагом Fallback, запасные данные
// не кешируются.
func (s *BillingService) Prices(ctx context.Context) (billing.PriceList, error) {
	var cached billing.PriceList
	found, err := s.cache.Get(pricesCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read prices from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	providerPrices, err := s.provider.ListPrices(ctx)
	if err != nil {
		s.log.Warn("price catalog unavailable, serving fallback", sl.Err(err))
		return billing.FallbackPrices(), nil
	}

	prices := make([]models.Price, 0, len(providerPrices))
	for _, p := range providerPrices {
		tierID := p.Metadata["tier_id"]
		if tierID == "" {
			continue
		}
		prices = append(prices, models.Price{
			ID:          p.ID,
			UnitAmount:  p.UnitAmount,
			Currency:    p.Currency,
			Interval:    p.Recurring.Interval,
			TierID:      tierID,
			ProductName: entitlement.TierFor(tierID).Name,
		})
	}
	list := billing.PriceList{Prices: prices}
	if err := s.cache.Set(pricesCacheKey, list, pricesCacheTTL); err != nil {
		s.log.Warn("failed to cache prices", sl.Err(err))
	}
	return list, nil
}

// SubscriptionView — представление подписки для страницы оплаты.
type SubscriptionView struct {
	Subscription    *models.Subscription `json:"subscription,omitempty"`
	DaysRemaining   *int                 `json:"days_remaining,omitempty"`
	IsPastDue       bool                 `json:"is_past_due"`
	IsCancelPending bool                 `json:"is_cancel_pending"`
	Discount        *billing.Discount    `json:"yearly_discount,omitempty"`
}

// Subscription возвращает представление подписки пользователя. Отсутствие
// подписки не является ошибкой: пользователь на бесплатном тарифе.
func (s *BillingService) Subscription(ctx context.Context, userUID string) (*SubscriptionView, error) {
	sub, err := s.subs.GetSubscriptionByUserUID(ctx, userUID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	view := &SubscriptionView{
		Subscription:    sub,
		DaysRemaining:   billing.DaysRemaining(sub, time.Now()),
		IsPastDue:       billing.IsPastDue(sub),
		IsCancelPending: billing.IsCancelPending(sub),
	}
	if sub != nil {
		prices, err := s.Prices(ctx)
		if err == nil {
			view.Discount = billing.DiscountFor(prices, sub.TierID)
		}
	}
	return view, nil
}

// Checkout создаёт сессию оплаты и возвращает URL страницы провайдера.
func (s *BillingService) Checkout(ctx context.Context, userUID, priceID, tierID string) (string, error) {
	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateCheckoutSessionRequest{
		PriceID:    priceID,
		UserUID:    userUID,
		TierID:     tierID,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return "", err
	}
	s.log.Info("created checkout session", slog.String("user_uid", userUID),
		slog.String("session_id", session.ID), slog.String("tier", tierID))
	return session.URL, nil
}

// Cancel помечает подписку пользователя к отмене в конце периода.
// Доступ сохраняется до конца оплаченного периода.
func (s *BillingService) Cancel(ctx context.Context, userUID string) error {
	sub, err := s.subs.GetSubscriptionByUserUID(ctx, userUID)
	if err != nil {
		if isNotFound(err) {
			return ErrNoSubscription
		}
		return err
	}

	updated, err := s.provider.CancelAtPeriodEnd(ctx, sub.ID)
	if err != nil {
		return err
	}
	return s.applySubscription(ctx, s.subscriptionFromProvider(updated, sub.UserUID, sub.TierID))
}

// Reactivate снимает отложенную отмену с подписки пользователя.
func (s *BillingService) Reactivate(ctx context.Context, userUID string) error {
	sub, err := s.subs.GetSubscriptionByUserUID(ctx, userUID)
	if err != nil {
		if isNotFound(err) {
			return ErrNoSubscription
		}
		return err
	}

	updated, err := s.provider.Reactivate(ctx, sub.ID)
	if err != nil {
		return err
	}
	return s.applySubscription(ctx, s.subscriptionFromProvider(updated, sub.UserUID, sub.TierID))
}

// ApplyProviderEvent применяет событие вебхука провайдера. Неизвестные
// типы событий игнорируются без ошибки: провайдер шлёт больше, чем
// приложению нужно.
func (s *BillingService) ApplyProviderEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	const op = "billing.ApplyProviderEvent"

	switch event.Type {
	case paymentprovider.EventSubscriptionUpdated, paymentprovider.EventSubscriptionDeleted:
		var ps paymentprovider.Subscription
		if err := json.Unmarshal(event.Data.Object, &ps); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return s.applySubscription(ctx, s.subscriptionFromProvider(&ps, "", ""))

	case paymentprovider.EventCheckoutCompleted, paymentprovider.EventInvoicePaymentFail:
		// В объекте лежит только ссылка на подписку, состояние запрашиваем
		// у провайдера.
		var ref struct {
			Subscription string `json:"subscription"`
		}
		if err := json.Unmarshal(event.Data.Object, &ref); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if ref.Subscription == "" {
			s.log.Info("event without subscription reference, skipping",
				slog.String("event_type", event.Type))
			return nil
		}
		ps, err := s.provider.GetSubscription(ctx, ref.Subscription)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return s.applySubscription(ctx, s.subscriptionFromProvider(ps, "", ""))

	default:
		s.log.Info("ignoring provider event", slog.String("event_type", event.Type))
		return nil
	}
}

// subscriptionFromProvider конвертирует объект провайдера в зеркало.
// UID пользователя и тариф берутся из metadata, запасные значения
// используются, когда metadata недоступна.
func (s *BillingService) subscriptionFromProvider(ps *paymentprovider.Subscription,
	fallbackUserUID, fallbackTierID string) models.Subscription {
	userUID := ps.Metadata["user_uid"]
	if userUID == "" {
		userUID = fallbackUserUID
	}
	tierID := ps.Metadata["tier_id"]
	if tierID == "" {
		tierID = fallbackTierID
	}
	return models.Subscription{
		ID:                 ps.ID,
		UserUID:            userUID,
		TierID:             tierID,
		Status:             ps.Status,
		CurrentPeriodStart: time.Unix(ps.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(ps.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  ps.CancelAtPeriodEnd,
	}
}

// applySubscription — единственная точка изменения зеркала подписки и
// тарифа пользователя. Обновляет зеркало, выставляет тариф, создаёт
// уведомление и инвалидирует кеш профиля.
func (s *BillingService) applySubscription(ctx context.Context, sub models.Subscription) error {
	const op = "billing.applySubscription"

	if sub.UserUID == "" {
		s.log.Warn("subscription without user uid, skipping", slog.String("subscription_id", sub.ID))
		return nil
	}
	if sub.TierID == "" {
		// Metadata провайдера может не нести tier_id, тариф берётся из зеркала.
		stored, err := s.subs.GetSubscriptionByUserUID(ctx, sub.UserUID)
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		if stored != nil {
			sub.TierID = stored.TierID
		}
	}

	if err := s.subs.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tierID := entitlement.FreeTierID
	if billing.IsActive(&sub) || billing.IsPastDue(&sub) {
		tierID = sub.TierID
	}
	if err := s.users.UpdateSubscriptionTier(ctx, sub.UserUID, tierID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(userservice.ProfileCacheKey(sub.UserUID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", sl.Err(err))
	}

	if _, err := s.notifications.Create(ctx, sub.UserUID, models.DummyNotification{
		Type:  "subscription_updated",
		Title: "Your subscription was updated",
		Body:  fmt.Sprintf("Current plan: %s, status: %s", entitlement.TierFor(tierID).Name, sub.Status),
	}); err != nil {
		s.log.Warn("failed to create subscription notification", sl.Err(err))
	}

	s.log.Info("applied subscription state", slog.String("subscription_id", sub.ID),
		slog.String("user_uid", sub.UserUID), slog.String("status", sub.Status),
		slog.String("tier", tierID))
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
