package repository

import (
	"context"
	"fmt"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// CreateTag сохраняет тег и возвращает его ID.
func (s *Storage) CreateTag(ctx context.Context, tag models.Tag) (string, error) {
	const op = "storage.CreateTag"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO tags (user_uid, name, color)
			  VALUES ($1, $2, $3)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		tag.UserUID, tag.Name, tag.Color).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListTags возвращает теги пользователя в алфавитном порядке.
func (s *Storage) ListTags(ctx context.Context, userUID string) ([]models.Tag, error) {
	const op = "storage.ListTags"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, color
			  FROM tags
			  WHERE user_uid = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err = rows.Scan(&tag.ID, &tag.UserUID, &tag.Name, &tag.Color); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, tag)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveTag удаляет тег пользователя.
func (s *Storage) RemoveTag(ctx context.Context, userUID, id string) error {
	const op = "storage.RemoveTag"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM tags WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// CreateLocation сохраняет локацию хранения и возвращает её ID.
func (s *Storage) CreateLocation(ctx context.Context, location models.Location) (string, error) {
	const op = "storage.CreateLocation"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO locations (user_uid, name)
			  VALUES ($1, $2)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		location.UserUID, location.Name).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListLocations возвращает локации пользователя в алфавитном порядке.
func (s *Storage) ListLocations(ctx context.Context, userUID string) ([]models.Location, error) {
	const op = "storage.ListLocations"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name
			  FROM locations
			  WHERE user_uid = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Location
	for rows.Next() {
		var location models.Location
		if err = rows.Scan(&location.ID, &location.UserUID, &location.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, location)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveLocation удаляет локацию пользователя. Позиции чеков,
// ссылавшиеся на неё, получают NULL по внешнему ключу.
func (s *Storage) RemoveLocation(ctx context.Context, userUID, id string) error {
	const op = "storage.RemoveLocation"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM locations WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// CountLocations возвращает число локаций пользователя для проверки
// лимита тарифа.
func (s *Storage) CountLocations(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountLocations"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locations WHERE user_uid = $1`, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
