package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/reedyang/last-trial/internal/protocol/wire"
)

func startServer(t *testing.T, handler func(conn *gorilla.Conn)) string {
	t.Helper()
	upgrader := gorilla.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientDeliversEventsAndNormalClose(t *testing.T) {
	url := startServer(t, func(conn *gorilla.Conn) {
		// A malformed frame must be skipped, not terminate the pump.
		_ = conn.WriteMessage(gorilla.TextMessage, []byte("{not json"))
		_ = conn.WriteMessage(gorilla.TextMessage,
			[]byte(`{"type":"system_message","content":"hello"}`))
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(gorilla.CloseMessage,
			gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""), deadline)
	})

	client, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	events := make(chan wire.Event, 8)
	codes := make(chan int, 1)
	client.Run(
		func(ev wire.Event) { events <- ev },
		func(code int, err error) { codes <- code },
	)

	select {
	case ev := <-events:
		require.Equal(t, wire.KindSystemMessage, ev.Kind)
		require.Equal(t, "hello", ev.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case code := <-codes:
		require.Equal(t, CloseNormal, code)
	case <-time.After(2 * time.Second):
		t.Fatal("close not reported")
	}

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("done channel not closed")
	}
}

func TestClientReportsAbnormalClose(t *testing.T) {
	url := startServer(t, func(conn *gorilla.Conn) {
		// Drop the TCP connection without a close frame.
		_ = conn.Close()
	})

	client, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	codes := make(chan int, 1)
	client.Run(func(wire.Event) {}, func(code int, err error) { codes <- code })

	select {
	case code := <-codes:
		require.Equal(t, -1, code)
	case <-time.After(2 * time.Second):
		t.Fatal("close not reported")
	}
}

func TestClientSendPing(t *testing.T) {
	pings := make(chan wire.PingMessage, 1)
	url := startServer(t, func(conn *gorilla.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ping wire.PingMessage
		if json.Unmarshal(data, &ping) == nil {
			pings <- ping
		}
	})

	client, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	at := time.UnixMilli(1740000000000)
	require.NoError(t, client.SendPing(at))

	select {
	case ping := <-pings:
		require.Equal(t, wire.Kind("ping"), ping.Kind)
		require.Equal(t, at.UnixMilli(), ping.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("ping not received")
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	url := startServer(t, func(conn *gorilla.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client, err := Dial(context.Background(), url)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	_ = client.Close()
	select {
	case <-client.Done():
	default:
		t.Fatal("done channel not closed after Close")
	}
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/api/ws/game/1")
	require.Error(t, err)
}
