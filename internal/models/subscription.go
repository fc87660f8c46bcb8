package models

import "time"

// Статусы подписки, зеркалирующие объект подписки платёжного провайдера.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusTrialing   = "trialing"
)

// Subscription — зеркало состояния подписки у платёжного провайдера.
// Создаётся после успешного checkout, мутируется только входящими
// событиями/опросом провайдера, ядро напрямую её не изменяет.
type Subscription struct {
	ID                 string    // Идентификатор подписки у провайдера
	UserUID            string    // Владелец подписки
	TierID             string    // Оплаченный тариф
	Status             string    // active, past_due, canceled, incomplete, trialing, ...
	CurrentPeriodStart time.Time // Начало текущего оплаченного периода
	CurrentPeriodEnd   time.Time // Конец текущего оплаченного периода
	CancelAtPeriodEnd  bool      // Отменится ли подписка в конце периода
}
