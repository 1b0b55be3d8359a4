package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "carrier-pigeon"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "carrier-pigeon")
}

func TestObserverSet_DispatchAndRemove(t *testing.T) {
	set := newObserverSet()

	var mu sync.Mutex
	var got [][]byte
	id := set.add(func(frame []byte) {
		mu.Lock()
		got = append(got, frame)
		mu.Unlock()
	})

	set.dispatch([]byte("one"))
	set.remove(id)
	set.dispatch([]byte("two"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Equal(t, "one", string(got[0]))
}

func TestWebSocketClient_ReceivesFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"cmd":1}`)))
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := New(Config{
		Driver:    DriverWebSocket,
		WebSocket: WebSocketConfig{URL: url, Token: "tok-1"},
	})
	require.NoError(t, err)
	defer client.Close()

	frames := make(chan []byte, 1)
	client.AddPeerObserver(func(frame []byte) { frames <- frame })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case frame := <-frames:
		require.JSONEq(t, `{"cmd":1}`, string(frame))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for peer frame")
	}
	require.Equal(t, "Bearer tok-1", gotAuth)
}
