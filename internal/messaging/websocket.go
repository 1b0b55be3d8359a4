package messaging

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	pkglog "github.com/wirelive/multihost-service/pkg/log"
)

// webSocketClient receives peer frames over a WebSocket connection to the
// signaling backend. One text frame carries one JSON peer message.
type webSocketClient struct {
	cfg       WebSocketConfig
	observers *observerSet

	mu   sync.Mutex
	conn *websocket.Conn
}

func newWebSocketClient(cfg WebSocketConfig) (*webSocketClient, error) {
	if cfg.PongWait == 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingInterval == 0 {
		// Must be shorter than PongWait so pings keep the read deadline alive.
		cfg.PingInterval = cfg.PongWait * 9 / 10
	}
	if cfg.WriteWait == 0 {
		cfg.WriteWait = 10 * time.Second
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 64 * 1024
	}

	return &webSocketClient{
		cfg:       cfg,
		observers: newObserverSet(),
	}, nil
}

func (w *webSocketClient) AddPeerObserver(handler func([]byte)) string {
	return w.observers.add(handler)
}

func (w *webSocketClient) RemovePeerObserver(id string) {
	w.observers.remove(id)
}

// Run dials the signaling backend and pumps frames to observers until ctx
// is done. Reconnects on read errors.
func (w *webSocketClient) Run(ctx context.Context) error {
	l := pkglog.L()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.runConnection(ctx); err != nil && ctx.Err() == nil {
				l.Warn().Err(err).Msg("peer websocket error, reconnecting in 2s")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(2 * time.Second):
					continue
				}
			}
			return ctx.Err()
		}
	}
}

func (w *webSocketClient) runConnection(ctx context.Context) error {
	header := http.Header{}
	if w.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+w.cfg.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.cfg.URL, header)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()
		conn.Close()
	}()

	pingDone := make(chan struct{})
	defer close(pingDone)
	go w.pingLoop(conn, pingDone)

	conn.SetReadLimit(w.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(w.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(w.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}
		w.observers.dispatch(message)
	}
}

func (w *webSocketClient) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(w.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *webSocketClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}
