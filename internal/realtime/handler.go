package realtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"github.com/pantrypilot/pantry-tracker/internal/http/middlewarectx"
	"github.com/pantrypilot/pantry-tracker/internal/http/response"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Сессия проверяется JWT-middleware до апгрейда.
		return true
	},
}

// Handler обслуживает конечную точку /api/ws: апгрейд соединения
// аутентифицированного пользователя и его регистрация в хабе.
type Handler struct {
	hub *Hub
	log *slog.Logger
}

// NewHandler создаёт обработчик конечной точки канала событий.
func NewHandler(hub *Hub, log *slog.Logger) *Handler {
	return &Handler{hub: hub, log: log}
}

// ServeHTTP godoc
// @Summary Канал событий
// @Description Открывает веб-сокет соединение для доставки событий текущему пользователю.
// @Tags Realtime
// @Success 101 "Switching Protocols"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /api/ws [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "realtime.Handler"
	log := h.log.With(slog.String("op", op))

	userUID, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	c := &client{
		userUID: userUID,
		conn:    conn,
		send:    make(chan []byte, clientSendBuffer),
	}
	h.hub.register <- c

	go h.writePump(c)
	go h.readPump(c)
}

// readPump вычитывает входящие кадры до разрыва. Штатное закрытие кодом 1000
// логируется как info, аварийный разрыв — как warn: серверу не нужно
// реагировать на намеренное завершение клиента.
func (h *Handler) readPump(c *client) {
	defer func() {
		h.hub.unregister <- c
		_ = c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				h.log.Info("realtime client closed cleanly", slog.String("user_uid", c.userUID))
			} else {
				h.log.Warn("realtime client dropped", slog.String("user_uid", c.userUID), sl.Err(err))
			}
			return
		}
	}
}

func (h *Handler) writePump(c *client) {
	for raw := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			h.log.Warn("realtime write failed", slog.String("user_uid", c.userUID), sl.Err(err))
			return
		}
	}
	_ = c.conn.Close()
}
