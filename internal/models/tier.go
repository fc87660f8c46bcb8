package models

// TierLimits задаёт лимиты использования для тарифа.
// Значение 0 — «без ограничений», а не «ноль разрешённых».
type TierLimits struct {
	ReceiptScans    int `json:"receiptScans"`
	ItemsPerReceipt int `json:"itemsPerReceipt"`
	PantryUsers     int `json:"pantryUsers"`
	Locations       int `json:"locations"`
}

// Tier описывает тарифный план подписки. Каталог тарифов статичен
// и неизменяем, тарифы никогда не создаются и не удаляются во время работы.
type Tier struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	PriceMonthly int64      `json:"priceMonthly"` // Цена за месяц в минимальных единицах валюты
	PriceYearly  int64      `json:"priceYearly"`  // Цена за год в минимальных единицах валюты
	Features     []string   `json:"features"`
	Limits       TierLimits `json:"limits"`
}
