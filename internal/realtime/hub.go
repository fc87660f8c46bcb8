package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
)

const (
	clientSendBuffer = 32
	writeWait        = 10 * time.Second
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connected_clients",
		Help: "Number of currently connected realtime clients.",
	})
	publishedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_published_messages_total",
		Help: "Total realtime messages published to clients, by message type.",
	}, []string{"type"})
)

// client — одно серверное соединение с браузером пользователя.
type client struct {
	userUID string
	conn    *websocket.Conn
	send    chan []byte
}

// Hub — серверный реестр соединений канала событий. Один пользователь может
// держать несколько вкладок, сообщение доставляется во все его соединения.
type Hub struct {
	clients    map[string]map[*client]struct{}
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
	log        *slog.Logger
}

// NewHub создаёт пустой хаб.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		log:        log,
	}
}

// Run обслуживает регистрацию и снятие соединений до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.userUID] == nil {
				h.clients[c.userUID] = make(map[*client]struct{})
			}
			h.clients[c.userUID][c] = struct{}{}
			h.mu.Unlock()
			connectedClients.Inc()
			h.log.Info("realtime client registered", slog.String("user_uid", c.userUID))

		case c := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[c.userUID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
					connectedClients.Dec()
					if len(set) == 0 {
						delete(h.clients, c.userUID)
					}
					h.log.Info("realtime client unregistered", slog.String("user_uid", c.userUID))
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
					connectedClients.Dec()
				}
			}
			h.clients = make(map[string]map[*client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// PublishToUser отправляет сообщение во все соединения пользователя.
// Отсутствие соединений не является ошибкой: доставка at-most-once,
// сообщения в разрыве теряются.
func (h *Hub) PublishToUser(userUID string, msg ChannelMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal channel message", sl.Err(err))
		return
	}
	publishedMessages.WithLabelValues(msg.Type).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userUID] {
		select {
		case c.send <- raw:
		default:
			// Буфер клиента заполнен, соединение считается мёртвым.
			go func(c *client) { h.unregister <- c }(c)
		}
	}
}
