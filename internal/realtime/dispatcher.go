package realtime

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
)

// Ключи клиентского кеша запросов, инвалидируемые диспетчером.
const (
	CacheKeyNotifications = "notifications"
	CacheKeyProfile       = "user:profile"
)

// receiptsPathPrefix — префикс представлений, связанных с чеками; только на
// них показывается всплывающее уведомление об остатке сканирований.
const receiptsPathPrefix = "/receipts"

// noticeTTL — время жизни всплывающего уведомления до автоскрытия.
const noticeTTL = 4 * time.Second

// Invalidator помечает закешированную коллекцию устаревшей, чтобы следующее
// чтение перезапросило её из источника истины.
type Invalidator interface {
	Invalidate(key string) error
}

// NoticeSink принимает всплывающие уведомления с ограниченным временем жизни.
type NoticeSink interface {
	Notice(text string, ttl time.Duration)
}

// Dispatcher — слой реакции на входящие сообщения канала. Собственного
// состояния не держит, только инвалидирует общий кеш, поэтому обработка
// идемпотентна: повторное сообщение приводит к тому же итоговому состоянию.
type Dispatcher struct {
	cache       Invalidator
	notices     NoticeSink
	currentPath func() string
	log         *slog.Logger
}

// NewDispatcher создаёт диспетчер. currentPath возвращает путь текущего
// представления клиента и может быть nil, тогда путь считается пустым.
func NewDispatcher(cache Invalidator, notices NoticeSink, currentPath func() string, log *slog.Logger) *Dispatcher {
	if currentPath == nil {
		currentPath = func() string { return "" }
	}
	return &Dispatcher{
		cache:       cache,
		notices:     notices,
		currentPath: currentPath,
		log:         log,
	}
}

// Handle обрабатывает один входящий кадр канала. Ошибка разбора логируется
// и кадр отбрасывается — здоровье канала от неё не страдает. Сообщения
// нераспознанного типа — no-op.
func (d *Dispatcher) Handle(raw []byte) {
	const op = "realtime.Dispatcher.Handle"

	event, err := DecodeEvent(raw)
	if err != nil {
		d.log.Error("failed to decode channel message", slog.String("op", op), sl.Err(err))
		return
	}

	switch ev := event.(type) {
	case NotificationEvent:
		// unread_count_update отдельной ветки не требует: достаточно той же инвалидации.
		d.invalidate(CacheKeyNotifications)
	case ScanUsageEvent:
		d.invalidate(CacheKeyProfile)
		if strings.HasPrefix(d.currentPath(), receiptsPathPrefix) && d.notices != nil {
			d.notices.Notice(fmt.Sprintf("Receipt scans remaining: %d", ev.ScansRemaining), noticeTTL)
		}
	case UnknownEvent:
		d.log.Debug("ignoring unknown channel message", slog.String("type", ev.Type))
	}
}

func (d *Dispatcher) invalidate(key string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Invalidate(key); err != nil {
		d.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}
