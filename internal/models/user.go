// Package models содержит доменные структуры приложения: пользователей,
// тарифы, подписки, чеки, теги, локации и уведомления. Структуры используются
// в бизнес-логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID              string    `json:"uid"`                // Уникальный идентификатор пользователя
	Email            string    `json:"email"`              // Электронная почта
	EmailVerified    bool      `json:"email_verified"`     // Подтверждена ли почта
	Currency         string    `json:"currency"`           // Предпочитаемая валюта, например "usd"
	SubscriptionTier string    `json:"subscription_tier"`  // Идентификатор тарифа: free, smart, pro
	ReceiptScansUsed int       `json:"receipt_scans_used"` // Счётчик сканирований чеков за месяц
	CreatedAt        time.Time `json:"created_at"`         // Дата создания учётной записи
	PasswordHash     string    `json:"-"`                  // Bcrypt-хеш пароля, наружу не отдается
}

// ScanUsage описывает текущее использование лимита сканирований чеков.
// При Unlimited == true поля Total и Remaining не имеют смысла:
// тариф не ограничивает количество сканирований.
type ScanUsage struct {
	Used      int  `json:"used"`
	Total     int  `json:"total,omitempty"`
	Remaining int  `json:"remaining,omitempty"`
	Unlimited bool `json:"unlimited"`
}
