package repository

import (
	"context"
	"fmt"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// CreateReceipt сохраняет чек вместе с позициями в одной транзакции
// и возвращает ID чека.
func (s *Storage) CreateReceipt(ctx context.Context, receipt models.Receipt, items []models.ReceiptItem) (string, error) {
	const op = "storage.CreateReceipt"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var receiptID string
	query := `INSERT INTO receipts (user_uid, store_name, purchase_date, total_amount)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err = tx.QueryRowContext(ctx, query,
		receipt.UserUID, receipt.StoreName, receipt.PurchaseDate,
		receipt.TotalAmount).Scan(&receiptID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	itemQuery := `INSERT INTO receipt_items (receipt_id, name, quantity, unit_price, location_id)
				  VALUES ($1, $2, $3, $4, NULLIF($5, ''));`
	for _, item := range items {
		if _, err = tx.ExecContext(ctx, itemQuery,
			receiptID, item.Name, item.Quantity, item.UnitPrice, item.LocationID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return receiptID, nil
}

// ListReceipts возвращает чеки пользователя, новые первыми.
func (s *Storage) ListReceipts(ctx context.Context, userUID string, limit int) ([]models.Receipt, error) {
	const op = "storage.ListReceipts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, store_name, purchase_date, total_amount, created_at
			  FROM receipts
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

	var result []models.Receipt
	for rows.Next() {
		var r models.Receipt
		if err = rows.Scan(&r.ID, &r.UserUID, &r.StoreName, &r.PurchaseDate,
			&r.TotalAmount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListReceiptItems возвращает позиции чека.
func (s *Storage) ListReceiptItems(ctx context.Context, receiptID string) ([]models.ReceiptItem, error) {
	const op = "storage.ListReceiptItems"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, receipt_id, name, quantity, unit_price, COALESCE(location_id::TEXT, '')
			  FROM receipt_items
			  WHERE receipt_id = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, receiptID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ReceiptItem
	for rows.Next() {
		var item models.ReceiptItem
		if err = rows.Scan(&item.ID, &item.ReceiptID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.LocationID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
