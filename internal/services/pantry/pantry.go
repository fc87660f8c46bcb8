// Package services содержит бизнес-логику кладовой: теги и локации
// хранения с проверкой лимита локаций по тарифу.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pantrypilot/pantry-tracker/internal/entitlement"
	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// ErrLocationLimitReached возвращается при попытке превысить лимит локаций тарифа.
var ErrLocationLimitReached = errors.New("location limit reached")

// PantryRepository определяет методы для работы с тегами и локациями в хранилище.
type PantryRepository interface {
	CreateTag(ctx context.Context, tag models.Tag) (string, error)
	ListTags(ctx context.Context, userUID string) ([]models.Tag, error)
	RemoveTag(ctx context.Context, userUID, id string) error
	CreateLocation(ctx context.Context, location models.Location) (string, error)
	ListLocations(ctx context.Context, userUID string) ([]models.Location, error)
	RemoveLocation(ctx context.Context, userUID, id string) error
	CountLocations(ctx context.Context, userUID string) (int, error)
}

// UserRepository определяет чтение пользователя для проверки лимитов.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// PantryService реализует бизнес-логику кладовой.
type PantryService struct {
	repo  PantryRepository
	users UserRepository
	log   *slog.Logger
}

// NewPantryService создает новый экземпляр PantryService.
func NewPantryService(repo PantryRepository, users UserRepository, log *slog.Logger) *PantryService {
	return &PantryService{
		repo:  repo,
		users: users,
		log:   log,
	}
}

// CreateTag создаёт тег пользователя.
func (s *PantryService) CreateTag(ctx context.Context, userUID string, req models.DummyTag) (string, error) {
	id, err := s.repo.CreateTag(ctx, models.Tag{
		UserUID: userUID,
		Name:    req.Name,
		Color:   req.Color,
	})
	if err != nil {
		return "", err
	}
	s.log.Info("created tag", slog.String("id", id), slog.String("user_uid", userUID))
	return id, nil
}

// ListTags возвращает теги пользователя.
func (s *PantryService) ListTags(ctx context.Context, userUID string) ([]models.Tag, error) {
	return s.repo.ListTags(ctx, userUID)
}

// RemoveTag удаляет тег пользователя.
func (s *PantryService) RemoveTag(ctx context.Context, userUID, id string) error {
	return s.repo.RemoveTag(ctx, userUID, id)
}

// CreateLocation создаёт локацию хранения, проверяя лимит тарифа.
func (s *PantryService) CreateLocation(ctx context.Context, userUID string, req models.DummyLocation) (string, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return "", err
	}
	count, err := s.repo.CountLocations(ctx, userUID)
	if err != nil {
		return "", err
	}
	if !entitlement.CanAddLocation(user, count) {
		return "", ErrLocationLimitReached
	}

	id, err := s.repo.CreateLocation(ctx, models.Location{
		UserUID: userUID,
		Name:    req.Name,
	})
	if err != nil {
		return "", err
	}
	s.log.Info("created location", slog.String("id", id), slog.String("user_uid", userUID))
	return id, nil
}

// ListLocations возвращает локации пользователя.
func (s *PantryService) ListLocations(ctx context.Context, userUID string) ([]models.Location, error) {
	return s.repo.ListLocations(ctx, userUID)
}

// RemoveLocation удаляет локацию пользователя.
func (s *PantryService) RemoveLocation(ctx context.Context, userUID, id string) error {
	return s.repo.RemoveLocation(ctx, userUID, id)
}
