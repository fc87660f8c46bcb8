package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Event
		wantErr  bool
	}{
		{
			name:     "уведомление с вложенным типом",
			raw:      `{"type":"notification","data":{"type":"unread_count_update","unreadCount":7}}`,
			expected: NotificationEvent{Nested: NestedTypeUnreadCount, UnreadCount: 7},
		},
		{
			name:     "уведомление без тела",
			raw:      `{"type":"notification"}`,
			expected: NotificationEvent{},
		},
		{
			name:     "изменение счётчика сканирований",
			raw:      `{"type":"scan_usage_update","data":{"scansUsed":4,"scansRemaining":16}}`,
			expected: ScanUsageEvent{ScansUsed: 4, ScansRemaining: 16},
		},
		{
			name:     "неизвестный тип декодируется в UnknownEvent",
			raw:      `{"type":"price_drop","data":{"sku":"x"}}`,
			expected: UnknownEvent{Type: "price_drop"},
		},
		{
			name:    "синтаксически некорректный кадр",
			raw:     `{"type":`,
			wantErr: true,
		},
		{
			name:    "некорректное тело распознанного типа",
			raw:     `{"type":"scan_usage_update","data":"oops"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMessageConstructorsRoundTrip(t *testing.T) {
	msg := NewScanUsageMessage(4, 16)
	raw := `{"type":"` + msg.Type + `","data":` + string(msg.Data) + `}`

	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, ScanUsageEvent{ScansUsed: 4, ScansRemaining: 16}, ev)

	note := NewNotificationMessage(NestedTypeUnreadCount, 2)
	raw = `{"type":"` + note.Type + `","data":` + string(note.Data) + `}`
	ev, err = DecodeEvent([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, NotificationEvent{Nested: NestedTypeUnreadCount, UnreadCount: 2}, ev)
}
