package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// UpsertSubscription сохраняет зеркало подписки провайдера. Повторное
// событие по той же подписке перезаписывает запись целиком, поэтому
// обработка вебхуков идемпотентна.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions
			      (id, user_uid, tier_id, status, current_period_start,
			       current_period_end, cancel_at_period_end)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (id) DO UPDATE SET
			      tier_id = EXCLUDED.tier_id,
			      status = EXCLUDED.status,
			      current_period_start = EXCLUDED.current_period_start,
			      current_period_end = EXCLUDED.current_period_end,
			      cancel_at_period_end = EXCLUDED.cancel_at_period_end;`
	_, err := s.DB.ExecContext(ctx, query,
		sub.ID, sub.UserUID, sub.TierID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSubscription возвращает подписку по идентификатору провайдера.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, tier_id, status, current_period_start,
			      current_period_end, cancel_at_period_end
			  FROM subscriptions
			  WHERE id = $1`
	sub := &models.Subscription{}
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&sub.ID, &sub.UserUID,
		&sub.TierID, &sub.Status, &sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// GetSubscriptionByUserUID возвращает последнюю подписку пользователя.
func (s *Storage) GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUserUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, tier_id, status, current_period_start,
			      current_period_end, cancel_at_period_end
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY current_period_end DESC
			  LIMIT 1`
	sub := &models.Subscription{}
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&sub.ID, &sub.UserUID,
		&sub.TierID, &sub.Status, &sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindSubscriptionsEndingOn находит активные подписки, оплаченный период
// которых заканчивается в указанную дату. Используется планировщиком
// для напоминаний о продлении.
func (s *Storage) FindSubscriptionsEndingOn(ctx context.Context, date time.Time) ([]models.ReminderInfo, error) {
	const op = "storage.FindSubscriptionsEndingOn"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.email, u.uid, s.tier_id, s.current_period_end
			  FROM subscriptions s
			  JOIN users u ON u.uid = s.user_uid
			  WHERE s.status = 'active'
			    AND NOT s.cancel_at_period_end
			    AND s.current_period_end::DATE = $1::DATE;`
	rows, err := s.DB.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ReminderInfo
	for rows.Next() {
		var info models.ReminderInfo
		if err = rows.Scan(&info.Email, &info.UserUID, &info.TierName, &info.PeriodEnd); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, info)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
