package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, email_verified, currency, subscription_tier, password_hash)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.EmailVerified, user.Currency, user.SubscriptionTier,
		user.PasswordHash).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, email_verified, currency, subscription_tier,
			      receipt_scans_used, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)

	if err := row.Scan(&u.UID, &u.Email, &u.EmailVerified, &u.Currency,
		&u.SubscriptionTier, &u.ReceiptScansUsed, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, email_verified, currency, subscription_tier,
			      receipt_scans_used, created_at, password_hash
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)

	if err := row.Scan(&u.UID, &u.Email, &u.EmailVerified, &u.Currency,
		&u.SubscriptionTier, &u.ReceiptScansUsed, &u.CreatedAt, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSubscriptionTier устанавливает пользователю тариф.
func (s *Storage) UpdateSubscriptionTier(ctx context.Context, userUID, tierID string) error {
	const op = "storage.UpdateSubscriptionTier"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_tier = $1
			  WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, tierID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// IncrementScanUsage атомарно увеличивает счётчик сканирований и
// возвращает новое значение.
func (s *Storage) IncrementScanUsage(ctx context.Context, userUID string) (int, error) {
	const op = "storage.IncrementScanUsage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET receipt_scans_used = receipt_scans_used + 1
			  WHERE uid = $1
			  RETURNING receipt_scans_used`
	var used int
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return used, nil
}

// ResetAllScanUsage обнуляет счётчики сканирований всем пользователям.
// Вызывается планировщиком в начале каждого месяца.
func (s *Storage) ResetAllScanUsage(ctx context.Context) (int64, error) {
	const op = "storage.ResetAllScanUsage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET receipt_scans_used = 0 WHERE receipt_scans_used > 0`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}
