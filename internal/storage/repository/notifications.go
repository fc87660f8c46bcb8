package repository

import (
	"context"
	"fmt"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// CreateNotification сохраняет уведомление и возвращает его ID.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	const op = "storage.CreateNotification"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO notifications (user_uid, type, title, body)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		n.UserUID, n.Type, n.Title, n.Body).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListNotifications возвращает уведомления пользователя, новые первыми.
func (s *Storage) ListNotifications(ctx context.Context, userUID string, limit int) ([]models.Notification, error) {
	const op = "storage.ListNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, type, title, body, is_read, created_at
			  FROM notifications
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Notification
	for rows.Next() {
		var n models.Notification
		if err = rows.Scan(&n.ID, &n.UserUID, &n.Type, &n.Title, &n.Body,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationRead помечает уведомление прочитанным. Проверка
// user_uid не даёт пометить чужое уведомление.
func (s *Storage) MarkNotificationRead(ctx context.Context, userUID, id string) error {
	const op = "storage.MarkNotificationRead"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE notifications
			  SET is_read = TRUE
			  WHERE id = $1 AND user_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead помечает прочитанными все уведомления пользователя.
func (s *Storage) MarkAllNotificationsRead(ctx context.Context, userUID string) error {
	const op = "storage.MarkAllNotificationsRead"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE notifications
			  SET is_read = TRUE
			  WHERE user_uid = $1 AND NOT is_read`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUnreadNotifications возвращает число непрочитанных уведомлений.
func (s *Storage) CountUnreadNotifications(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountUnreadNotifications"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_uid = $1 AND NOT is_read`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
