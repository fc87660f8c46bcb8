package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Типы событий вебхука, которые обрабатывает приложение.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaymentFail  = "invoice.payment_failed"
)

// ErrInvalidSignature возвращается при несовпадении подписи вебхука.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SignatureHeader HTTP-заголовок, в котором провайдер передает подпись вебхука.
const SignatureHeader = "Webhook-Signature"

// webhookTolerance максимальный возраст подписи. Защищает от повтора
// перехваченных запросов.
const webhookTolerance = 5 * time.Minute

// WebhookEvent событие провайдера. Data.Object разбирается по Type.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ConstructEvent проверяет подпись из заголовка Signature и разбирает
// тело вебхука. Формат заголовка: "t=<unix>,v1=<hex hmac-sha256>".
func ConstructEvent(payload []byte, sigHeader, secret string, now time.Time) (*WebhookEvent, error) {
	const op = "paymentprovider.ConstructEvent"

	timestamp, signature, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if now.Sub(time.Unix(timestamp, 0)) > webhookTolerance {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(expected, got) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &event, nil
}

// SignPayload формирует заголовок подписи для тела вебхука. Используется
// в тестах обработчика вебхуков.
func SignPayload(payload []byte, secret string, now time.Time) string {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, string, error) {
	var timestamp int64
	var signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signature = value
		}
	}
	if timestamp == 0 || signature == "" {
		return 0, "", ErrInvalidSignature
	}
	return timestamp, signature, nil
}
