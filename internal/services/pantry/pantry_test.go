package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateTag(ctx context.Context, tag models.Tag) (string, error) {
	args := m.Called(ctx, tag)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) ListTags(ctx context.Context, userUID string) ([]models.Tag, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}
func (m *RepoMock) RemoveTag(ctx context.Context, userUID, id string) error {
	return m.Called(ctx, userUID, id).Error(0)
}
func (m *RepoMock) CreateLocation(ctx context.Context, location models.Location) (string, error) {
	args := m.Called(ctx, location)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) ListLocations(ctx context.Context, userUID string) ([]models.Location, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}
func (m *RepoMock) RemoveLocation(ctx context.Context, userUID, id string) error {
	return m.Called(ctx, userUID, id).Error(0)
}
func (m *RepoMock) CountLocations(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

type UsersMock struct{ mock.Mock }

func (m *UsersMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPantryService_CreateLocation(t *testing.T) {
	tests := []struct {
		name         string
		tier         string
		currentCount int
		wantErr      error
	}{
		{name: "бесплатный тариф в пределах лимита", tier: "free", currentCount: 2},
		{name: "бесплатный тариф на лимите", tier: "free", currentCount: 3, wantErr: ErrLocationLimitReached},
		{name: "smart в пределах лимита", tier: "smart", currentCount: 9},
		{name: "smart на лимите", tier: "smart", currentCount: 10, wantErr: ErrLocationLimitReached},
		{name: "pro без ограничений", tier: "pro", currentCount: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			users := new(UsersMock)
			users.On("GetUser", mock.Anything, "uid-1").Return(&models.User{
				UID: "uid-1", SubscriptionTier: tt.tier,
			}, nil)
			repo.On("CountLocations", mock.Anything, "uid-1").Return(tt.currentCount, nil)
			if tt.wantErr == nil {
				repo.On("CreateLocation", mock.Anything, mock.Anything).Return("loc-1", nil)
			}

			svc := NewPantryService(repo, users, newNoopLogger())
			id, err := svc.CreateLocation(context.Background(), "uid-1", models.DummyLocation{Name: "Fridge"})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "loc-1", id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestPantryService_Tags(t *testing.T) {
	repo := new(RepoMock)
	users := new(UsersMock)

	repo.On("CreateTag", mock.Anything, mock.MatchedBy(func(tag models.Tag) bool {
		return tag.UserUID == "uid-1" && tag.Name == "dairy" && tag.Color == "#00ff00"
	})).Return("tag-1", nil)
	repo.On("ListTags", mock.Anything, "uid-1").Return([]models.Tag{{ID: "tag-1", Name: "dairy"}}, nil)
	repo.On("RemoveTag", mock.Anything, "uid-1", "tag-1").Return(nil)

	svc := NewPantryService(repo, users, newNoopLogger())

	id, err := svc.CreateTag(context.Background(), "uid-1", models.DummyTag{Name: "dairy", Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, "tag-1", id)

	tags, err := svc.ListTags(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	require.NoError(t, svc.RemoveTag(context.Background(), "uid-1", "tag-1"))
	repo.AssertExpectations(t)
}
