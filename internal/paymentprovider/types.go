package paymentprovider

// Recurring описывает период списания цены.
type Recurring struct {
	Interval string `json:"interval"`
}

// Price одна цена провайдера. UnitAmount в минорных единицах валюты.
type Price struct {
	ID         string    `json:"id"`
	Nickname   string    `json:"nickname"`
	UnitAmount int64     `json:"unit_amount"`
	Currency   string    `json:"currency"`
	Recurring  Recurring `json:"recurring"`
	Metadata   Metadata  `json:"metadata"`
}

// Metadata произвольные пары ключ-значение, привязанные к объекту провайдера.
// В metadata цены храним tier_id, чтобы сопоставить цену с тарифом.
type Metadata map[string]string

// PriceList ответ провайдера на запрос списка цен.
type PriceList struct {
	Data    []Price `json:"data"`
	HasMore bool    `json:"has_more"`
}

// Subscription объект подписки на стороне провайдера.
type Subscription struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	CustomerID         string   `json:"customer"`
	CurrentPeriodStart int64    `json:"current_period_start"`
	CurrentPeriodEnd   int64    `json:"current_period_end"`
	CancelAtPeriodEnd  bool     `json:"cancel_at_period_end"`
	Metadata           Metadata `json:"metadata"`
}

// CheckoutSession сессия оплаты. URL ведёт на hosted-страницу провайдера.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSessionRequest параметры создания сессии оплаты.
type CreateCheckoutSessionRequest struct {
	PriceID    string
	UserUID    string
	TierID     string
	SuccessURL string
	CancelURL  string
}

// apiError тело ошибки провайдера.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
