package models

import "time"

// ReminderInfo — сообщение для очереди напоминаний о продлении подписки.
// Публикуется планировщиком и потребляется сервисом отправки писем.
type ReminderInfo struct {
	Email     string    `json:"email"`
	UserUID   string    `json:"user_uid"`
	TierName  string    `json:"tier_name"`
	PeriodEnd time.Time `json:"period_end"`
}
