// Package realtime реализует канал доставки событий приложения: серверный
// хаб веб-сокетов, клиентское соединение с автоматическим переподключением
// и диспетчер уведомлений, инвалидирующий локальный кеш по входящим
// сообщениям.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Типы сообщений канала. Перечисление открытое: неизвестные типы
// не являются ошибкой и игнорируются получателем.
const (
	MessageTypeNotification = "notification"
	MessageTypeScanUsage    = "scan_usage_update"
)

// NestedTypeUnreadCount — вложенный тип уведомления об изменении счётчика
// непрочитанных. Отдельной ветки обработки не требует.
const NestedTypeUnreadCount = "unread_count_update"

// ChannelMessage — конверт сообщения канала: тип и произвольное тело.
type ChannelMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event — размеченное объединение распознанных событий канала.
// Явный вариант UnknownEvent делает добавление нового вида события
// проверяемым компилятором исчерпывающим switch, а не молчаливым
// совпадением строк.
type Event interface {
	isEvent()
}

// NotificationEvent — новое уведомление пользователя или изменение
// счётчика непрочитанных.
type NotificationEvent struct {
	Nested      string `json:"type"`
	UnreadCount int    `json:"unreadCount"`
}

// ScanUsageEvent — изменение счётчика использованных сканирований чеков.
type ScanUsageEvent struct {
	ScansUsed      int `json:"scansUsed"`
	ScansRemaining int `json:"scansRemaining"`
}

// UnknownEvent — сообщение нераспознанного типа. Обрабатывается как no-op.
type UnknownEvent struct {
	Type string
}

func (NotificationEvent) isEvent() {}
func (ScanUsageEvent) isEvent()    {}
func (UnknownEvent) isEvent()      {}

// DecodeEvent разбирает текстовый кадр канала в событие. Ошибка возвращается
// только для синтаксически некорректного кадра; сообщение неизвестного типа
// успешно декодируется в UnknownEvent.
func DecodeEvent(raw []byte) (Event, error) {
	const op = "realtime.DecodeEvent"

	var msg ChannelMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch msg.Type {
	case MessageTypeNotification:
		var ev NotificationEvent
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		return ev, nil
	case MessageTypeScanUsage:
		var ev ScanUsageEvent
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		return ev, nil
	default:
		return UnknownEvent{Type: msg.Type}, nil
	}
}

// NewNotificationMessage собирает кадр с уведомлением для отправки клиенту.
func NewNotificationMessage(nested string, unreadCount int) ChannelMessage {
	data, _ := json.Marshal(NotificationEvent{Nested: nested, UnreadCount: unreadCount})
	return ChannelMessage{Type: MessageTypeNotification, Data: data}
}

// NewScanUsageMessage собирает кадр об изменении счётчика сканирований.
func NewScanUsageMessage(used, remaining int) ChannelMessage {
	data, _ := json.Marshal(ScanUsageEvent{ScansUsed: used, ScansRemaining: remaining})
	return ChannelMessage{Type: MessageTypeScanUsage, Data: data}
}
