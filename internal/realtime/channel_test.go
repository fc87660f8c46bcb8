package realtime

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeVisibility — управляемый из теста наблюдатель видимости.
type fakeVisibility struct {
	mu       sync.Mutex
	visible  bool
	handlers []func()
}

func (f *fakeVisibility) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

func (f *fakeVisibility) OnVisible(fn func()) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
	return func() {}
}

func (f *fakeVisibility) show() {
	f.mu.Lock()
	f.visible = true
	handlers := append([]func(){}, f.handlers...)
	f.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// newWSServer поднимает тестовый веб-сокет сервер и считает апгрейды.
func newWSServer(t *testing.T, handle func(conn *websocket.Conn)) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var upgrades atomic.Int32
	up := websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ChannelPath {
			http.NotFound(w, r)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgrades.Add(1)
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv, &upgrades
}

func TestEndpointFromOrigin(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		expected string
		wantErr  bool
	}{
		{name: "http переходит в ws", origin: "http://localhost:8080", expected: "ws://localhost:8080/api/ws"},
		{name: "https переходит в wss", origin: "https://pantry.example.com", expected: "wss://pantry.example.com/api/ws"},
		{name: "порт и хост сохраняются", origin: "https://app.example.com:8443/some/page?x=1", expected: "wss://app.example.com:8443/api/ws"},
		{name: "неизвестная схема — ошибка", origin: "ftp://example.com", wantErr: true},
		{name: "origin без хоста — ошибка", origin: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndpointFromOrigin(tt.origin)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConnectWhileConnectingIsNoop(t *testing.T) {
	ch, err := NewChannel(ChannelConfig{Origin: "http://localhost:9"}, testLogger())
	require.NoError(t, err)
	defer ch.Close()

	var dials atomic.Int32
	release := make(chan struct{})
	ch.dial = func(string) (*websocket.Conn, error) {
		dials.Add(1)
		<-release
		return nil, assert.AnError
	}

	ch.Connect()
	require.Eventually(t, func() bool { return dials.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateConnecting, ch.State())

	// Повторный вызов в состоянии Connecting не создаёт второй сокет.
	ch.Connect()
	ch.Connect()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), dials.Load())

	close(release)
}

func TestConnectWhileConnectedIsNoop(t *testing.T) {
	srv, upgrades := newWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ch, err := NewChannel(ChannelConfig{Origin: srv.URL}, testLogger())
	require.NoError(t, err)
	defer ch.Close()

	ch.Connect()
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, time.Second, 5*time.Millisecond)

	ch.Connect()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), upgrades.Load())
	assert.Equal(t, StateConnected, ch.State())
}

func TestAbnormalCloseReconnectsWhileVisible(t *testing.T) {
	var drops atomic.Int32
	srv, upgrades := newWSServer(t, func(conn *websocket.Conn) {
		// Первое соединение рвётся без кадра закрытия, второе живёт.
		if drops.Add(1) == 1 {
			_ = conn.Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ch, err := NewChannel(ChannelConfig{
		Origin:         srv.URL,
		ReconnectDelay: 30 * time.Millisecond,
	}, testLogger())
	require.NoError(t, err)
	defer ch.Close()

	ch.Connect()
	require.Eventually(t, func() bool { return upgrades.Load() == 2 && ch.State() == StateConnected },
		2*time.Second, 5*time.Millisecond)
}

func TestCleanCloseDoesNotReconnect(t *testing.T) {
	srv, upgrades := newWSServer(t, func(conn *websocket.Conn) {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_, _, _ = conn.ReadMessage()
		_ = conn.Close()
	})

	ch, err := NewChannel(ChannelConfig{
		Origin:         srv.URL,
		ReconnectDelay: 30 * time.Millisecond,
	}, testLogger())
	require.NoError(t, err)
	defer ch.Close()

	ch.Connect()
	require.Eventually(t, func() bool { return ch.State() == StateDisconnected && upgrades.Load() == 1 },
		time.Second, 5*time.Millisecond)

	// Времени хватило бы на несколько переподключений, но штатное закрытие их не планирует.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), upgrades.Load())
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestBackgroundedClientDefersReconnect(t *testing.T) {
	var drops atomic.Int32
	dropNow := make(chan struct{})
	srv, upgrades := newWSServer(t, func(conn *websocket.Conn) {
		if drops.Add(1) == 1 {
			<-dropNow
			_ = conn.Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	visibility := &fakeVisibility{visible: true}
	ch, err := NewChannel(ChannelConfig{
		Origin:         srv.URL,
		ReconnectDelay: 30 * time.Millisecond,
		Visibility:     visibility,
	}, testLogger())
	require.NoError(t, err)
	defer ch.Close()

	ch.Connect()
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, time.Second, 5*time.Millisecond)

	// Клиент уходит в фон до разрыва: переподключение откладывается.
	visibility.mu.Lock()
	visibility.visible = false
	visibility.mu.Unlock()
	close(dropNow)

	require.Eventually(t, func() bool { return ch.State() == StateDisconnected }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), upgrades.Load())

	// Возврат на передний план запускает переподключение.
	visibility.show()
	require.Eventually(t, func() bool { return upgrades.Load() == 2 && ch.State() == StateConnected },
		2*time.Second, 5*time.Millisecond)
}

func TestSendWhenDisconnectedReturnsFalse(t *testing.T) {
	ch, err := NewChannel(ChannelConfig{Origin: "http://localhost:9"}, testLogger())
	require.NoError(t, err)
	defer ch.Close()

	assert.Equal(t, StateDisconnected, ch.State())
	assert.False(t, ch.Send(ChannelMessage{Type: "ping"}))
}

func TestSendWhenConnected(t *testing.T) {
	received := make(chan []byte, 1)
	srv, _ := newWSServer(t, func(conn *websocket.Conn) {
		_, raw, err := conn.ReadMessage()
		if err == nil {
			received <- raw
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ch, err := NewChannel(ChannelConfig{Origin: srv.URL}, testLogger())
	require.NoError(t, err)
	defer ch.Close()

	ch.Connect()
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, time.Second, 5*time.Millisecond)

	assert.True(t, ch.Send(ChannelMessage{Type: "ping"}))
	select {
	case raw := <-received:
		assert.Contains(t, string(raw), `"ping"`)
	case <-time.After(time.Second):
		t.Fatal("server did not receive the frame")
	}
}

func TestCloseSendsNormalClosure(t *testing.T) {
	closeCode := make(chan int, 1)
	srv, _ := newWSServer(t, func(conn *websocket.Conn) {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if ce, ok := err.(*websocket.CloseError); ok {
					closeCode <- ce.Code
				}
				return
			}
		}
	})

	ch, err := NewChannel(ChannelConfig{Origin: srv.URL}, testLogger())
	require.NoError(t, err)

	ch.Connect()
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, time.Second, 5*time.Millisecond)

	ch.Close()
	select {
	case code := <-closeCode:
		assert.Equal(t, websocket.CloseNormalClosure, code)
	case <-time.After(time.Second):
		t.Fatal("server did not observe a close frame")
	}

	// Повторный Close — no-op.
	ch.Close()
	assert.False(t, ch.Send(ChannelMessage{Type: "ping"}))
}
