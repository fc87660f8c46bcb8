package realtime

import (
	"sync"
	"time"
)

// Notice — всплывающее уведомление с ограниченным временем жизни.
type Notice struct {
	ID   int
	Text string
}

// NoticeCenter хранит активные всплывающие уведомления и скрывает их
// по таймеру. Реализует NoticeSink.
type NoticeCenter struct {
	mu      sync.Mutex
	nextID  int
	notices map[int]Notice
}

// NewNoticeCenter создаёт пустой центр уведомлений.
func NewNoticeCenter() *NoticeCenter {
	return &NoticeCenter{notices: make(map[int]Notice)}
}

// Notice показывает уведомление и планирует его автоскрытие через ttl.
func (nc *NoticeCenter) Notice(text string, ttl time.Duration) {
	nc.mu.Lock()
	nc.nextID++
	id := nc.nextID
	nc.notices[id] = Notice{ID: id, Text: text}
	nc.mu.Unlock()

	time.AfterFunc(ttl, func() {
		nc.Dismiss(id)
	})
}

// Dismiss скрывает уведомление по идентификатору. Повторный вызов — no-op.
func (nc *NoticeCenter) Dismiss(id int) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	delete(nc.notices, id)
}

// Active возвращает активные уведомления в порядке показа.
func (nc *NoticeCenter) Active() []Notice {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	result := make([]Notice, 0, len(nc.notices))
	for id := 1; id <= nc.nextID; id++ {
		if n, ok := nc.notices[id]; ok {
			result = append(result, n)
		}
	}
	return result
}
