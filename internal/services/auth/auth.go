// Package services содержит бизнес-логику регистрации и входа пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pantrypilot/pantry-tracker/internal/entitlement"
	"github.com/pantrypilot/pantry-tracker/internal/lib/jwt"
	"github.com/pantrypilot/pantry-tracker/internal/lib/password"
	"github.com/pantrypilot/pantry-tracker/internal/models"
	"github.com/pantrypilot/pantry-tracker/internal/storage/repository"
)

// ErrUserExists возвращается при попытке зарегистрировать занятую почту.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidCredentials возвращается при неверной паре почта/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService отвечает за регистрацию пользователей и выдачу токенов сессии.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя на бесплатном тарифе и возвращает его UID.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "services.auth.Register"

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.users.CreateUser(ctx, models.User{
		Email:            email,
		Currency:         "usd",
		SubscriptionTier: entitlement.FreeTierID,
		PasswordHash:     hash,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пару почта/пароль и возвращает токен сессии.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "services.auth.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}
