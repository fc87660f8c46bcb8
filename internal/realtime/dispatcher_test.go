package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingCache фиксирует инвалидированные ключи.
type recordingCache struct {
	mu   sync.Mutex
	keys []string
}

func (c *recordingCache) Invalidate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	return nil
}

func (c *recordingCache) invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.keys...)
}

// recordingNotices фиксирует показанные всплывающие уведомления.
type recordingNotices struct {
	mu    sync.Mutex
	texts []string
}

func (n *recordingNotices) Notice(text string, _ time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
}

func (n *recordingNotices) shown() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.texts...)
}

func TestDispatcherHandle(t *testing.T) {
	tests := []struct {
		name            string
		raw             string
		path            string
		expectedKeys    []string
		expectedNotices []string
	}{
		{
			name:         "notification инвалидирует список уведомлений",
			raw:          `{"type":"notification","data":{"type":"new_notification"}}`,
			path:         "/pantry",
			expectedKeys: []string{CacheKeyNotifications},
		},
		{
			name:         "unread_count_update идёт той же веткой",
			raw:          `{"type":"notification","data":{"type":"unread_count_update","unreadCount":5}}`,
			path:         "/pantry",
			expectedKeys: []string{CacheKeyNotifications},
		},
		{
			name:            "scan_usage_update на странице чеков показывает уведомление",
			raw:             `{"type":"scan_usage_update","data":{"scansRemaining":3}}`,
			path:            "/receipts/scan",
			expectedKeys:    []string{CacheKeyProfile},
			expectedNotices: []string{"Receipt scans remaining: 3"},
		},
		{
			name:         "scan_usage_update вне страницы чеков уведомления не показывает",
			raw:          `{"type":"scan_usage_update","data":{"scansRemaining":3}}`,
			path:         "/pantry",
			expectedKeys: []string{CacheKeyProfile},
		},
		{
			name: "неизвестный тип — no-op",
			raw:  `{"type":"totally_new_thing","data":{"x":1}}`,
			path: "/receipts",
		},
		{
			name: "некорректный кадр отбрасывается без паники",
			raw:  `{not json`,
			path: "/receipts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &recordingCache{}
			notices := &recordingNotices{}
			d := NewDispatcher(cache, notices, func() string { return tt.path }, testLogger())

			d.Handle([]byte(tt.raw))

			assert.Equal(t, tt.expectedKeys, emptyAsNil(cache.invalidated()))
			assert.Equal(t, tt.expectedNotices, emptyAsNil(notices.shown()))
		})
	}
}

func TestDispatcherIsIdempotent(t *testing.T) {
	cache := &recordingCache{}
	d := NewDispatcher(cache, nil, func() string { return "/pantry" }, testLogger())

	raw := []byte(`{"type":"notification","data":{}}`)
	d.Handle(raw)
	d.Handle(raw)

	// Повторное сообщение даёт то же итоговое состояние: тот же ключ помечен устаревшим.
	assert.Equal(t, []string{CacheKeyNotifications, CacheKeyNotifications}, cache.invalidated())
}

func TestDispatcherNilCurrentPath(t *testing.T) {
	cache := &recordingCache{}
	notices := &recordingNotices{}
	d := NewDispatcher(cache, notices, nil, testLogger())

	d.Handle([]byte(`{"type":"scan_usage_update","data":{"scansRemaining":1}}`))

	assert.Equal(t, []string{CacheKeyProfile}, cache.invalidated())
	assert.Empty(t, notices.shown())
}

func emptyAsNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
