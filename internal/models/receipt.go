package models

import "time"

// Receipt представляет отсканированный чек пользователя.
type Receipt struct {
	ID           string    // Уникальный идентификатор чека
	UserUID      string    // Владелец чека
	StoreName    string    // Название магазина
	PurchaseDate time.Time // Дата покупки
	TotalAmount  int64     // Итоговая сумма в минимальных единицах валюты
	CreatedAt    time.Time // Время сканирования
}

// ReceiptItem — позиция чека, добавляемая в кладовую.
type ReceiptItem struct {
	ID         string // Уникальный идентификатор позиции
	ReceiptID  string // Чек, к которому относится позиция
	Name       string // Название продукта
	Quantity   int    // Количество
	UnitPrice  int64  // Цена за единицу в минимальных единицах валюты
	LocationID string // Локация хранения, может быть пустой
}

// DummyReceipt используется для приёма данных из JSON-запроса на сканирование чека.
// Дата приходит строкой в формате 02-01-2006 и парсится вручную.
type DummyReceipt struct {
	StoreName    string             `json:"store_name" validate:"required"`
	PurchaseDate string             `json:"purchase_date" validate:"required"`
	TotalAmount  int64              `json:"total_amount" validate:"gte=0"`
	Items        []DummyReceiptItem `json:"items" validate:"required,dive"`
}

// DummyReceiptItem — позиция чека в JSON-запросе.
type DummyReceiptItem struct {
	Name       string `json:"name" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice  int64  `json:"unit_price" validate:"gte=0"`
	LocationID string `json:"location_id"`
}
