package models

// Price — позиция каталога цен платёжного провайдера.
// Interval принимает значения "month" или "year".
type Price struct {
	ID          string `json:"id"`
	UnitAmount  int64  `json:"unit_amount"` // Сумма в минимальных единицах валюты
	Currency    string `json:"currency"`
	Interval    string `json:"interval"`
	TierID      string `json:"tier"`
	ProductName string `json:"product_name"`
}
