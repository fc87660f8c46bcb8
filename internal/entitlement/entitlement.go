// Package entitlement содержит чистую логику тарифных ограничений:
// статичный каталог тарифов, проверку достижения лимитов и вычисление
// оставшейся квоты. Пакет не выполняет ввод-вывод, все функции тотальны
// и безопасны для оптимистичного вызова до обращения к серверу.
package entitlement

import "github.com/pantrypilot/pantry-tracker/internal/models"

// FreeTierID — идентификатор бесплатного тарифа, используемый как
// запасной вариант для любого неизвестного идентификатора.
const FreeTierID = "free"

// Unlimited — сентинел «без ограничений» в значениях лимитов тарифа.
const Unlimited = 0

var tiers = map[string]models.Tier{
	"free": {
		ID:           "free",
		Name:         "Free",
		PriceMonthly: 0,
		PriceYearly:  0,
		Features:     []string{"Basic pantry tracking", "Manual item entry"},
		Limits: models.TierLimits{
			ReceiptScans:    3,
			ItemsPerReceipt: 20,
			PantryUsers:     1,
			Locations:       3,
		},
	},
	"smart": {
		ID:           "smart",
		Name:         "Smart",
		PriceMonthly: 499,
		PriceYearly:  4999,
		Features:     []string{"Receipt scanning", "Expiry reminders", "Shared pantry"},
		Limits: models.TierLimits{
			ReceiptScans:    20,
			ItemsPerReceipt: 50,
			PantryUsers:     3,
			Locations:       10,
		},
	},
	"pro": {
		ID:           "pro",
		Name:         "Pro",
		PriceMonthly: 999,
		PriceYearly:  9999,
		Features:     []string{"Unlimited receipt scanning", "Unlimited locations", "Priority support"},
		Limits: models.TierLimits{
			ReceiptScans:    Unlimited,
			ItemsPerReceipt: Unlimited,
			PantryUsers:     Unlimited,
			Locations:       Unlimited,
		},
	},
}

// TierFor возвращает тариф по идентификатору. Для неизвестного или пустого
// идентификатора возвращается бесплатный тариф — функция никогда не падает.
func TierFor(tierID string) models.Tier {
	if tier, ok := tiers[tierID]; ok {
		return tier
	}
	return tiers[FreeTierID]
}

// Tiers возвращает каталог тарифов в фиксированном порядке free, smart, pro.
func Tiers() []models.Tier {
	return []models.Tier{tiers["free"], tiers["smart"], tiers["pro"]}
}

// HasReachedScanLimit сообщает, исчерпал ли пользователь лимит сканирований
// чеков своего тарифа. Отсутствующий пользователь трактуется как «лимит
// достигнут» (fail-closed). Лимит 0 означает безлимит и всегда даёт false.
func HasReachedScanLimit(user *models.User) bool {
	if user == nil {
		return true
	}
	limit := TierFor(user.SubscriptionTier).Limits.ReceiptScans
	if limit == Unlimited {
		return false
	}
	return user.ReceiptScansUsed >= limit
}

// ScanUsage вычисляет использование квоты сканирований для пользователя.
// Remaining никогда не бывает отрицательным. Для nil-пользователя
// возвращается нулевое использование бесплатного тарифа.
func ScanUsage(user *models.User) models.ScanUsage {
	if user == nil {
		limit := tiers[FreeTierID].Limits.ReceiptScans
		return models.ScanUsage{Used: 0, Total: limit, Remaining: limit}
	}
	limit := TierFor(user.SubscriptionTier).Limits.ReceiptScans
	if limit == Unlimited {
		return models.ScanUsage{Used: user.ReceiptScansUsed, Unlimited: true}
	}
	remaining := limit - user.ReceiptScansUsed
	if remaining < 0 {
		remaining = 0
	}
	return models.ScanUsage{
		Used:      user.ReceiptScansUsed,
		Total:     limit,
		Remaining: remaining,
	}
}

// CanAddLocation проверяет, разрешает ли тариф пользователя создать ещё одну
// локацию при текущем их количестве. Fail-closed для nil-пользователя.
func CanAddLocation(user *models.User, currentCount int) bool {
	if user == nil {
		return false
	}
	limit := TierFor(user.SubscriptionTier).Limits.Locations
	if limit == Unlimited {
		return true
	}
	return currentCount < limit
}

// WithinItemsPerReceipt проверяет, укладывается ли чек из n позиций
// в лимит тарифа пользователя. Fail-closed для nil-пользователя.
func WithinItemsPerReceipt(user *models.User, n int) bool {
	if user == nil {
		return false
	}
	limit := TierFor(user.SubscriptionTier).Limits.ItemsPerReceipt
	if limit == Unlimited {
		return true
	}
	return n <= limit
}
