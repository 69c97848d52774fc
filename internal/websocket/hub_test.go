package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsecli/pkg/contracts/domain"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestClientReceivesWelcome(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeConnected, msg.Type)
}

func TestPublishBroadcastsProgress(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn) // welcome

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Publish(domain.OperationProgress{
		OperationID: "op-1",
		Stage:       "parse",
		Percent:     42,
	})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeProgress, msg.Type)

	payload, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	var event domain.OperationProgress
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "op-1", event.OperationID)
	assert.Equal(t, "parse", event.Stage)
	assert.InDelta(t, 42, event.Percent, 1e-9)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, srv := startHub(t)
	first := dial(t, srv)
	second := dial(t, srv)
	readMessage(t, first)
	readMessage(t, second)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast(Message{Type: "data:refreshed", Timestamp: time.Now()})

	assert.Equal(t, "data:refreshed", readMessage(t, first).Type)
	assert.Equal(t, "data:refreshed", readMessage(t, second).Type)
}

func TestDisconnectAfterHubStopped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	// Stop the hub first, then drop the connection: the client's
	// unregister hand-off must not hang with no hub loop to receive it.
	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-hub.done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	released := make(chan struct{})
	go func() {
		hub.notifyDisconnect(&Client{hub: hub})
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("disconnect hand-off blocked after hub shutdown")
	}
}

func TestClientCountDropsOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}
