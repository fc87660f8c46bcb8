package services

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrypilot/pantry-tracker/internal/lib/smtp"
	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// fakeClient записывает отправляемое письмо вместо реального SMTP.
type fakeClient struct {
	from string
	to   []string
	body bytes.Buffer
}

func (c *fakeClient) Mail(from string) error { c.from = from; return nil }
func (c *fakeClient) Rcpt(to string) error   { c.to = append(c.to, to); return nil }
func (c *fakeClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&c.body}, nil
}
func (c *fakeClient) Quit() error  { return nil }
func (c *fakeClient) Close() error { return nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type fakeTransport struct {
	client *fakeClient
}

func (t *fakeTransport) Connect() (smtp.Client, error) { return t.client, nil }
func (t *fakeTransport) GetSMTPUser() string           { return "noreply@pantrytracker.app" }

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSenderService_SendRenewalReminder(t *testing.T) {
	client := &fakeClient{}
	svc := NewSenderService(newNoopLogger(), &fakeTransport{client: client})

	reminder := models.ReminderInfo{
		Email:     "alice@example.com",
		UserUID:   "uid-1",
		TierName:  "smart",
		PeriodEnd: time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(reminder)
	require.NoError(t, err)

	require.NoError(t, svc.SendRenewalReminder(body))

	assert.Equal(t, "noreply@pantrytracker.app", client.from)
	assert.Equal(t, []string{"alice@example.com"}, client.to)
	assert.Contains(t, client.body.String(), "smart")
	assert.Contains(t, client.body.String(), "September 3, 2026")
	assert.Contains(t, client.body.String(), "Subject: Your Pantry Tracker subscription renews soon")
}

func TestSenderService_SendRenewalReminderBadPayload(t *testing.T) {
	svc := NewSenderService(newNoopLogger(), &fakeTransport{client: &fakeClient{}})
	assert.Error(t, svc.SendRenewalReminder([]byte("not-json")))
}
