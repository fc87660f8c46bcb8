package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pantrypilot/pantry-tracker/internal/models"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name       string
		tierID     string
		expectedID string
	}{
		{name: "известный тариф smart", tierID: "smart", expectedID: "smart"},
		{name: "известный тариф pro", tierID: "pro", expectedID: "pro"},
		{name: "неизвестный тариф заменяется на free", tierID: "nonexistent", expectedID: "free"},
		{name: "пустой идентификатор заменяется на free", tierID: "", expectedID: "free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := TierFor(tt.tierID)
			assert.Equal(t, tt.expectedID, tier.ID)
		})
	}
}

func TestTierForUnknownEqualsFree(t *testing.T) {
	assert.Equal(t, TierFor(""), TierFor("nonexistent"))
	assert.Equal(t, TierFor(FreeTierID), TierFor("nonexistent"))
}

func TestHasReachedScanLimit(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		expected bool
	}{
		{
			name:     "nil-пользователь трактуется как лимит достигнут",
			user:     nil,
			expected: true,
		},
		{
			name:     "безлимитный тариф всегда false",
			user:     &models.User{SubscriptionTier: "pro", ReceiptScansUsed: 100500},
			expected: false,
		},
		{
			name:     "использование меньше лимита",
			user:     &models.User{SubscriptionTier: "smart", ReceiptScansUsed: 19},
			expected: false,
		},
		{
			name:     "использование равно лимиту",
			user:     &models.User{SubscriptionTier: "smart", ReceiptScansUsed: 20},
			expected: true,
		},
		{
			name:     "использование больше лимита",
			user:     &models.User{SubscriptionTier: "free", ReceiptScansUsed: 10},
			expected: true,
		},
		{
			name:     "неизвестный тариф считается по лимитам free",
			user:     &models.User{SubscriptionTier: "platinum", ReceiptScansUsed: 3},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasReachedScanLimit(tt.user))
		})
	}
}

func TestScanUsage(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		expected models.ScanUsage
	}{
		{
			name:     "остаток считается как лимит минус использование",
			user:     &models.User{SubscriptionTier: "smart", ReceiptScansUsed: 18},
			expected: models.ScanUsage{Used: 18, Total: 20, Remaining: 2},
		},
		{
			name:     "остаток не бывает отрицательным",
			user:     &models.User{SubscriptionTier: "smart", ReceiptScansUsed: 25},
			expected: models.ScanUsage{Used: 25, Total: 20, Remaining: 0},
		},
		{
			name:     "безлимитный тариф помечается флагом Unlimited",
			user:     &models.User{SubscriptionTier: "pro", ReceiptScansUsed: 42},
			expected: models.ScanUsage{Used: 42, Unlimited: true},
		},
		{
			name:     "nil-пользователь получает нетронутую квоту free",
			user:     nil,
			expected: models.ScanUsage{Used: 0, Total: 3, Remaining: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScanUsage(tt.user))
		})
	}
}

func TestHasReachedScanLimitUnlimitedForAnyUsage(t *testing.T) {
	for _, used := range []int{0, 1, 3, 20, 1000, 1 << 20} {
		user := &models.User{SubscriptionTier: "pro", ReceiptScansUsed: used}
		assert.False(t, HasReachedScanLimit(user), "usage %d", used)
	}
}

func TestCanAddLocation(t *testing.T) {
	tests := []struct {
		name         string
		user         *models.User
		currentCount int
		expected     bool
	}{
		{name: "nil-пользователь не может создавать локации", user: nil, currentCount: 0, expected: false},
		{name: "лимит free не достигнут", user: &models.User{SubscriptionTier: "free"}, currentCount: 2, expected: true},
		{name: "лимит free достигнут", user: &models.User{SubscriptionTier: "free"}, currentCount: 3, expected: false},
		{name: "pro без ограничений", user: &models.User{SubscriptionTier: "pro"}, currentCount: 9999, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanAddLocation(tt.user, tt.currentCount))
		})
	}
}

func TestWithinItemsPerReceipt(t *testing.T) {
	smart := &models.User{SubscriptionTier: "smart"}
	assert.True(t, WithinItemsPerReceipt(smart, 50))
	assert.False(t, WithinItemsPerReceipt(smart, 51))
	assert.True(t, WithinItemsPerReceipt(&models.User{SubscriptionTier: "pro"}, 10000))
	assert.False(t, WithinItemsPerReceipt(nil, 1))
}
