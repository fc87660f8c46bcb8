// Package billing содержит чистые производные от состояния подписки:
// проекции статуса, количество оставшихся дней, вычисление скидки за годовую
// оплату и запасной каталог цен. Пакет не выполняет ввод-вывод.
package billing

import (
	"math"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/entitlement"
	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// DaysRemaining возвращает количество дней до конца оплаченного периода,
// округлённое вверх. Для отсутствующей подписки возвращается nil.
// Значение может быть отрицательным, если период уже истёк — вызывающая
// сторона показывает его как «0 / просрочено», а не как ошибку.
func DaysRemaining(sub *models.Subscription, now time.Time) *int {
	if sub == nil {
		return nil
	}
	days := int(math.Ceil(sub.CurrentPeriodEnd.Sub(now).Hours() / 24))
	return &days
}

// IsPastDue сообщает, просрочен ли платёж по подписке.
func IsPastDue(sub *models.Subscription) bool {
	return sub != nil && sub.Status == models.SubscriptionStatusPastDue
}

// IsCancelPending сообщает, ожидает ли подписка отмены в конце периода.
func IsCancelPending(sub *models.Subscription) bool {
	return sub != nil && sub.CancelAtPeriodEnd && sub.Status != models.SubscriptionStatusCanceled
}

// IsActive сообщает, действует ли подписка сейчас (active или trialing).
func IsActive(sub *models.Subscription) bool {
	if sub == nil {
		return false
	}
	return sub.Status == models.SubscriptionStatusActive || sub.Status == models.SubscriptionStatusTrialing
}

// Discount описывает выгоду годовой оплаты по сравнению с помесячной.
type Discount struct {
	MonthlyEquivalent float64 `json:"monthly_equivalent"` // Цена года в пересчёте на месяц
	Percentage        int     `json:"percentage"`         // Скидка в процентах
	TotalSavings      int64   `json:"total_savings"`      // Экономия за год в минимальных единицах валюты
}

// YearlyDiscount вычисляет скидку за годовую оплату. Возвращает nil, если
// какая-либо из цен отсутствует: «неизвестно» и «скидки нет» — разные
// состояния, и вызывающая сторона должна их различать.
func YearlyDiscount(monthlyAmount, yearlyAmount int64) *Discount {
	if monthlyAmount <= 0 || yearlyAmount <= 0 {
		return nil
	}
	monthlyEquivalent := float64(yearlyAmount) / 12
	percentage := int(math.Round((1 - monthlyEquivalent/float64(monthlyAmount)) * 100))
	return &Discount{
		MonthlyEquivalent: monthlyEquivalent,
		Percentage:        percentage,
		TotalSavings:      monthlyAmount*12 - yearlyAmount,
	}
}

// PriceList — результат получения каталога цен. Флаг Fallback явно отличает
// запасные данные от авторитетных, чтобы вызывающий код не выдавал
// захардкоженные цены за актуальные.
type PriceList struct {
	Prices   []models.Price `json:"prices"`
	Fallback bool           `json:"fallback"`
}

// FallbackPrices возвращает запасной каталог цен, построенный из статичного
// каталога тарифов. Используется, когда каталог платёжного провайдера
// недоступен, чтобы страница оплаты оставалась работоспособной.
func FallbackPrices() PriceList {
	var prices []models.Price
	for _, tier := range entitlement.Tiers() {
		if tier.PriceMonthly > 0 {
			prices = append(prices, models.Price{
				ID:          "fallback_" + tier.ID + "_monthly",
				UnitAmount:  tier.PriceMonthly,
				Currency:    "usd",
				Interval:    "month",
				TierID:      tier.ID,
				ProductName: tier.Name,
			})
		}
		if tier.PriceYearly > 0 {
			prices = append(prices, models.Price{
				ID:          "fallback_" + tier.ID + "_yearly",
				UnitAmount:  tier.PriceYearly,
				Currency:    "usd",
				Interval:    "year",
				TierID:      tier.ID,
				ProductName: tier.Name,
			})
		}
	}
	return PriceList{Prices: prices, Fallback: true}
}

// DiscountFor находит в каталоге месячную и годовую цены тарифа и вычисляет
// скидку. Возвращает nil, когда одной из цен нет.
func DiscountFor(list PriceList, tierID string) *Discount {
	var monthly, yearly int64
	for _, p := range list.Prices {
		if p.TierID != tierID {
			continue
		}
		switch p.Interval {
		case "month":
			monthly = p.UnitAmount
		case "year":
			yearly = p.UnitAmount
		}
	}
	return YearlyDiscount(monthly, yearly)
}
