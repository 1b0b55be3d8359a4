package messaging

import (
	"context"
	"fmt"
	"time"
)

// Supported drivers.
const (
	DriverRedis     = "redis"
	DriverWebSocket = "websocket"
)

// Client delivers raw peer frames from the signaling backend to registered
// observers. Observers are invoked sequentially, in registration-independent
// order, from the driver's receive loop.
type Client interface {
	// AddPeerObserver registers handler for every incoming peer frame and
	// returns a token for RemovePeerObserver.
	AddPeerObserver(handler func(frame []byte)) string
	// RemovePeerObserver deregisters a previously added observer.
	RemovePeerObserver(id string)
	// Run receives frames until ctx is done, reconnecting on errors.
	Run(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}

// RedisConfig configures the Redis Pub/Sub driver.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

// WebSocketConfig configures the WebSocket driver.
type WebSocketConfig struct {
	URL            string
	Token          string
	PongWait       time.Duration
	PingInterval   time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Config selects and configures a messaging driver.
type Config struct {
	Driver    string
	Redis     RedisConfig
	WebSocket WebSocketConfig
}

// New builds the messaging client for cfg.Driver.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case DriverRedis:
		return newRedisClient(cfg.Redis)
	case DriverWebSocket:
		return newWebSocketClient(cfg.WebSocket)
	default:
		return nil, fmt.Errorf("unknown messaging driver: %q", cfg.Driver)
	}
}
