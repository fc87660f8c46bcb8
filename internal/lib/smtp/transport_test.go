package smtp

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// plainSMTPServer поднимает SMTP сервер без поддержки STARTTLS и возвращает
// его хост и порт.
func plainSMTPServer(t *testing.T) (host, port string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		fmt.Fprint(conn, "220 localhost ESMTP\r\n")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				fmt.Fprint(conn, "250-localhost\r\n250 AUTH PLAIN\r\n")
			case strings.HasPrefix(cmd, "QUIT"):
				fmt.Fprint(conn, "221 bye\r\n")
				return
			default:
				fmt.Fprint(conn, "502 not implemented\r\n")
			}
		}
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func TestTransport_GetSMTPUser(t *testing.T) {
	transport := NewTransport(Config{User: "noreply@pantrytracker.app"}, newNoopLogger())
	assert.Equal(t, "noreply@pantrytracker.app", transport.GetSMTPUser())
}

func TestTransport_ConnectRequiresSTARTTLS(t *testing.T) {
	host, port := plainSMTPServer(t)

	transport := NewTransport(Config{Host: host, Port: port, User: "u", Pass: "p"}, newNoopLogger())
	client, err := transport.Connect()

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "STARTTLS")
}

func TestTransport_ConnectDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	transport := NewTransport(Config{Host: host, Port: port}, newNoopLogger())
	client, err := transport.Connect()

	require.Error(t, err)
	assert.Nil(t, client)
}
