package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pantrypilot/pantry-tracker/internal/lib/jwt"
	"github.com/pantrypilot/pantry-tracker/internal/lib/password"
	"github.com/pantrypilot/pantry-tracker/internal/models"
	"github.com/pantrypilot/pantry-tracker/internal/storage/repository"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MakerMock struct{ mock.Mock }

func (m *MakerMock) GenerateToken(userUID, email string) (string, error) {
	args := m.Called(userUID, email)
	return args.String(0), args.Error(1)
}

func (m *MakerMock) ParseToken(tokenStr string) (*jwt.CustomClaims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.CustomClaims), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	users := new(UsersMock)
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(nil, repository.ErrNotFound)
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "alice@example.com" &&
			u.SubscriptionTier == "free" &&
			password.CompareHash(u.PasswordHash, "secret123") == nil
	})).Return("uid-1", nil)

	svc := NewAuthService(users, new(MakerMock))

	// Почта нормализуется к нижнему регистру.
	uid, err := svc.Register(context.Background(), " Alice@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	users.AssertExpectations(t)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	users := new(UsersMock)
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(&models.User{UID: "uid-1", Email: "alice@example.com"}, nil)

	svc := NewAuthService(users, new(MakerMock))

	_, err := svc.Register(context.Background(), "alice@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	tests := []struct {
		name      string
		password  string
		user      *models.User
		userErr   error
		wantToken string
		wantErr   error
	}{
		{
			name:      "успешный вход",
			password:  "secret123",
			user:      &models.User{UID: "uid-1", Email: "alice@example.com", PasswordHash: hash},
			wantToken: "token-1",
		},
		{
			name:     "неверный пароль",
			password: "wrong",
			user:     &models.User{UID: "uid-1", Email: "alice@example.com", PasswordHash: hash},
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "пользователь не найден",
			password: "secret123",
			userErr:  repository.ErrNotFound,
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "ошибка хранилища",
			password: "secret123",
			userErr:  errors.New("db down"),
			wantErr:  errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(tt.user, tt.userErr)

			maker := new(MakerMock)
			if tt.wantToken != "" {
				maker.On("GenerateToken", "uid-1", "alice@example.com").Return(tt.wantToken, nil)
			}

			svc := NewAuthService(users, maker)
			token, err := svc.Login(context.Background(), "alice@example.com", tt.password)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrInvalidCredentials) {
					assert.ErrorIs(t, err, ErrInvalidCredentials)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			maker.AssertExpectations(t)
		})
	}
}
