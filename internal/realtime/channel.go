package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
)

// ChannelPath — фиксированный путь конечной точки канала событий.
const ChannelPath = "/api/ws"

// defaultReconnectDelay — пауза перед повторным подключением после
// аварийного разрыва соединения.
const defaultReconnectDelay = 3 * time.Second

// closeReasonShutdown — причина штатного закрытия, отличающая намеренное
// завершение от аварийного разрыва.
const closeReasonShutdown = "client shutting down"

// ConnState — состояние клиентского соединения канала.
type ConnState int

// Состояния соединения: Disconnected -> Connecting -> Connected -> Disconnected.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Visibility сообщает каналу, находится ли клиент на переднем плане.
// Переподключение после разрыва выполняется только для видимого клиента,
// для скрытого — откладывается до возврата видимости.
type Visibility interface {
	// Visible возвращает true, когда клиент на переднем плане.
	Visible() bool
	// OnVisible регистрирует обработчик возврата видимости и возвращает
	// функцию снятия регистрации.
	OnVisible(fn func()) (cancel func())
}

// AlwaysVisible — реализация Visibility для клиента, который всегда
// находится на переднем плане.
type AlwaysVisible struct{}

// Visible всегда возвращает true.
func (AlwaysVisible) Visible() bool { return true }

// OnVisible ничего не регистрирует: видимость не меняется.
func (AlwaysVisible) OnVisible(func()) (cancel func()) { return func() {} }

// EndpointFromOrigin выводит адрес конечной точки канала из origin страницы:
// тот же хост и порт, схема http переходит в ws, https — в wss, путь
// фиксированный. Хост не хардкодится, поэтому канал работает и за обратным
// прокси, переписывающим видимый адрес.
func EndpointFromOrigin(origin string) (string, error) {
	const op = "realtime.EndpointFromOrigin"

	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("%s: unsupported origin scheme %q", op, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%s: origin %q has no host", op, origin)
	}
	u.Path = ChannelPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// ChannelConfig — настройки клиентского соединения канала.
type ChannelConfig struct {
	Origin         string        // Origin страницы, из которого выводится адрес конечной точки
	ReconnectDelay time.Duration // Пауза перед переподключением, по умолчанию 3 секунды
	Visibility     Visibility    // Наблюдатель видимости, по умолчанию AlwaysVisible
	Handler        func([]byte)  // Обработчик входящих кадров, вызывается в порядке доставки
}

// Channel — клиентское соединение канала событий с автоматическим
// переподключением. Экземпляр владеет не более чем одним живым соединением;
// создание нового всегда сначала закрывает предыдущее.
type Channel struct {
	endpoint   string
	delay      time.Duration
	visibility Visibility
	handler    func([]byte)
	log        *slog.Logger

	// dial подменяется в тестах, чтобы управлять темпом подключения.
	dial func(endpoint string) (*websocket.Conn, error)

	mu             sync.Mutex
	state          ConnState
	conn           *websocket.Conn
	closed         bool
	lastErr        error
	reconnectTimer *time.Timer

	cancelVisible func()
}

// NewChannel создаёт канал для данного origin страницы. Соединение не
// открывается до первого вызова Connect. Регистрирует наблюдателя
// видимости: при возврате на передний план канал переподключается,
// если соединение не активно.
func NewChannel(cfg ChannelConfig, log *slog.Logger) (*Channel, error) {
	const op = "realtime.NewChannel"

	endpoint, err := EndpointFromOrigin(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	visibility := cfg.Visibility
	if visibility == nil {
		visibility = AlwaysVisible{}
	}
	handler := cfg.Handler
	if handler == nil {
		handler = func([]byte) {}
	}

	c := &Channel{
		endpoint:   endpoint,
		delay:      delay,
		visibility: visibility,
		handler:    handler,
		log:        log,
	}
	c.dial = func(endpoint string) (*websocket.Conn, error) {
		conn, resp, err := websocket.DefaultDialer.Dial(endpoint, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return conn, err
	}
	c.cancelVisible = visibility.OnVisible(func() {
		if c.State() != StateConnected {
			c.Connect()
		}
	})
	return c, nil
}

// State возвращает текущее состояние соединения.
func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError возвращает последнюю ошибку транспорта. Ошибки канала не
// фатальны: они только записываются, а восстановлением управляет политика
// переподключения.
func (c *Channel) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Endpoint возвращает выведенный адрес конечной точки канала.
func (c *Channel) Endpoint() string { return c.endpoint }

// Connect открывает соединение с сервером. Повторный вызов в состоянии
// Connecting или Connected — no-op: второй сокет не создаётся. Существующее
// соединение перед открытием нового закрывается (ошибки закрытия
// проглатываются). Подключение выполняется асинхронно.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.closed || c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.establish()
}

func (c *Channel) establish() {
	conn, err := c.dial(c.endpoint)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.lastErr = err
		c.toDisconnectedLocked(false)
		c.mu.Unlock()
		c.log.Warn("channel dial failed", sl.Err(err))
		return
	}
	c.state = StateConnected
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("channel connected", slog.String("endpoint", c.endpoint))
	go c.readLoop(conn)
}

// readLoop читает кадры до разрыва соединения и передаёт их обработчику
// в порядке доставки. Событие закрытия — единственное место, из которого
// планируется переподключение: ошибки чтения лишь фиксируются, чтобы
// обработчик ошибки и обработчик закрытия не планировали повтор наперегонки.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			clean := websocket.IsCloseError(err, websocket.CloseNormalClosure)
			c.handleClose(conn, err, clean)
			return
		}
		c.handler(raw)
	}
}

func (c *Channel) handleClose(conn *websocket.Conn, err error, clean bool) {
	c.mu.Lock()
	if c.conn != conn {
		// Разрыв уже вытесненного соединения, актуальное состояние не трогаем.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if !clean {
		c.lastErr = err
	}
	c.toDisconnectedLocked(clean)
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}
	if clean {
		c.log.Info("channel closed cleanly")
	} else {
		c.log.Warn("channel connection lost", sl.Err(err))
	}
}

// toDisconnectedLocked — единственная точка перехода в Disconnected и
// единственный планировщик переподключения. Вызывается под c.mu.
func (c *Channel) toDisconnectedLocked(clean bool) {
	c.state = StateDisconnected
	if c.closed || clean {
		return
	}
	if !c.visibility.Visible() {
		// Клиент в фоне: переподключение отложено до возврата видимости.
		return
	}
	if c.reconnectTimer != nil {
		return
	}
	c.reconnectTimer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		closed := c.closed
		c.mu.Unlock()
		if closed || !c.visibility.Visible() {
			return
		}
		c.Connect()
	})
}

// Send сериализует сообщение и отправляет его серверу. Возвращает false без
// паники, когда соединение не открыто: сообщения, отправленные в разрыве,
// теряются, буферизация на этом уровне не предусмотрена.
func (c *Channel) Send(msg ChannelMessage) bool {
	raw, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("failed to marshal channel message", sl.Err(err))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.conn == nil {
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.lastErr = err
		return false
	}
	return true
}

// Close выполняет намеренное завершение: снимает наблюдателя видимости,
// отменяет отложенное переподключение и один раз закрывает соединение
// кодом 1000, чтобы сервер не принял завершение за аварийный разрыв.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	c.cancelVisible()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReasonShutdown)
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			c.log.Debug("failed to send close frame", sl.Err(err))
		}
		_ = conn.Close()
	}
}
