// Package paymentprovider реализует REST-клиент платёжного провайдера:
// список цен, чтение и изменение подписок, создание сессий оплаты и
// проверка подписи вебхуков.
package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/config"
)

// Client клиент API платёжного провайдера.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент по настройкам из конфига.
func NewClient(cfg config.PaymentProvider) *Client {
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// do выполняет запрос к API. Провайдер принимает form-encoded тело и
// отвечает JSON. Тело ошибки разбирается в сообщение.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, result any) error {
	const op = "paymentprovider.do"

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s: %s: %s", op, resp.Status, apiErr.Error.Message)
		}
		return fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// ListPrices возвращает активные цены провайдера.
func (c *Client) ListPrices(ctx context.Context) ([]Price, error) {
	const op = "paymentprovider.ListPrices"

	var list PriceList
	if err := c.do(ctx, http.MethodGet, "/prices?active=true&limit=100", nil, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list.Data, nil
}

// GetSubscription возвращает подписку по идентификатору провайдера.
func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	const op = "paymentprovider.GetSubscription"

	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+id, nil, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// CreateCheckoutSession создаёт сессию оплаты подписки. UID пользователя и
// тариф кладутся в metadata, чтобы вебхук мог сопоставить событие.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CreateCheckoutSessionRequest) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckoutSession"

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", req.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("subscription_data[metadata][user_uid]", req.UserUID)
	form.Set("subscription_data[metadata][tier_id]", req.TierID)

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// CancelAtPeriodEnd помечает подписку к отмене в конце оплаченного периода.
// Доступ сохраняется до конца периода.
func (c *Client) CancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error) {
	const op = "paymentprovider.CancelAtPeriodEnd"

	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions/"+id, form, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// Reactivate снимает отложенную отмену с подписки.
func (c *Client) Reactivate(ctx context.Context, id string) (*Subscription, error) {
	const op = "paymentprovider.Reactivate"

	form := url.Values{}
	form.Set("cancel_at_period_end", "false")

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions/"+id, form, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}
