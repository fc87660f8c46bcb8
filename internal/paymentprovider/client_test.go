package paymentprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrypilot/pantry-tracker/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.PaymentProvider{
		APIURL: srv.URL,
		APIKey: "sk_test_key",
	})
}

func TestListPrices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/prices", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(PriceList{Data: []Price{
			{ID: "price_1", UnitAmount: 499, Currency: "usd",
				Recurring: Recurring{Interval: "month"},
				Metadata:  Metadata{"tier_id": "smart"}},
			{ID: "price_2", UnitAmount: 4999, Currency: "usd",
				Recurring: Recurring{Interval: "year"},
				Metadata:  Metadata{"tier_id": "smart"}},
		}})
	})

	prices, err := client.ListPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, int64(499), prices[0].UnitAmount)
	assert.Equal(t, "smart", prices[0].Metadata["tier_id"])
}

func TestCreateCheckoutSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/sessions", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_1", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "user-42", r.PostForm.Get("subscription_data[metadata][user_uid]"))
		assert.Equal(t, "smart", r.PostForm.Get("subscription_data[metadata][tier_id]"))

		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"})
	})

	session, err := client.CreateCheckoutSession(context.Background(), CreateCheckoutSessionRequest{
		PriceID:    "price_1",
		UserUID:    "user-42",
		TierID:     "smart",
		SuccessURL: "https://app.example/billing?ok=1",
		CancelURL:  "https://app.example/billing",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", session.URL)
}

func TestCancelAtPeriodEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/sub_1", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "true", r.PostForm.Get("cancel_at_period_end"))

		json.NewEncoder(w).Encode(Subscription{ID: "sub_1", Status: "active", CancelAtPeriodEnd: true})
	})

	sub, err := client.CancelAtPeriodEnd(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
}

func TestAPIErrorIsSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"card declined"}}`))
	})

	_, err := client.GetSubscription(context.Background(), "sub_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}
