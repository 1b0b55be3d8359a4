package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/wirelive/multihost-service/internal/domain"
	"github.com/wirelive/multihost-service/internal/messaging"
	pkgconfig "github.com/wirelive/multihost-service/pkg/config"
)

type Config struct {
	Server    ServerConfig
	Room      RoomConfig
	Local     LocalConfig
	Messaging MessagingConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// RoomConfig identifies the room this instance coordinates and the Room
// Service that carries seat actions.
type RoomConfig struct {
	ID           string `mapstructure:"id"`
	OwnerID      string `mapstructure:"owner_id"`
	OwnerName    string `mapstructure:"owner_name"`
	ServiceAddr  string `mapstructure:"service_addr"`
	ServiceToken string `mapstructure:"service_token"`
}

// LocalConfig describes the participant this instance acts for.
type LocalConfig struct {
	UserID   string `mapstructure:"user_id"`
	UserName string `mapstructure:"user_name"`
	Role     string `mapstructure:"role"`
}

type MessagingConfig struct {
	Driver    string
	Redis     RedisConfig
	WebSocket WebSocketConfig
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

type WebSocketConfig struct {
	URL            string
	Token          string
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("room.service_addr", "http://localhost:8083")
	v.SetDefault("local.role", "owner")
	v.SetDefault("messaging.driver", "redis")
	v.SetDefault("messaging.redis.address", "localhost:6379")
	v.SetDefault("messaging.redis.password", "")
	v.SetDefault("messaging.redis.db", 0)
	v.SetDefault("messaging.websocket.ping_interval", "30s")
	v.SetDefault("messaging.websocket.pong_wait", "60s")
	v.SetDefault("messaging.websocket.write_wait", "10s")
	v.SetDefault("messaging.websocket.max_message_size", 65536)
	v.SetDefault("log.level", "info")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("room.id", "ROOM_ID")
	v.BindEnv("room.owner_id", "ROOM_OWNER_ID")
	v.BindEnv("room.owner_name", "ROOM_OWNER_NAME")
	v.BindEnv("room.service_addr", "ROOM_SERVICE_ADDR")
	v.BindEnv("room.service_token", "ROOM_SERVICE_TOKEN")
	v.BindEnv("local.user_id", "LOCAL_USER_ID")
	v.BindEnv("local.user_name", "LOCAL_USER_NAME")
	v.BindEnv("local.role", "LOCAL_ROLE")
	v.BindEnv("messaging.driver", "MESSAGING_DRIVER")
	v.BindEnv("messaging.redis.address", "REDIS_ADDRESS")
	v.BindEnv("messaging.redis.password", "REDIS_PASSWORD")
	v.BindEnv("messaging.redis.channel", "REDIS_PEER_CHANNEL")
	v.BindEnv("messaging.websocket.url", "PEER_WEBSOCKET_URL")
	v.BindEnv("messaging.websocket.token", "PEER_WEBSOCKET_TOKEN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Messaging.WebSocket.PingInterval = parseDuration(v, "messaging.websocket.ping_interval", 30*time.Second)
	cfg.Messaging.WebSocket.PongWait = parseDuration(v, "messaging.websocket.pong_wait", 60*time.Second)
	cfg.Messaging.WebSocket.WriteWait = parseDuration(v, "messaging.websocket.write_wait", 10*time.Second)

	if cfg.Messaging.Redis.Channel == "" {
		cfg.Messaging.Redis.Channel = "multihost:user:" + cfg.Local.UserID + ":peer"
	}

	return &cfg, nil
}

// LocalRole builds the local participant's role from configuration.
func (c *Config) LocalRole() domain.Role {
	return domain.Role{
		UserID: c.Local.UserID,
		Name:   c.Local.UserName,
		Kind:   domain.ParseRoleKind(c.Local.Role),
	}
}

// OwnerRole builds the room owner's role from configuration.
func (c *Config) OwnerRole() domain.Role {
	return domain.Role{UserID: c.Room.OwnerID, Name: c.Room.OwnerName, Kind: domain.RoleOwner}
}

// MessagingDriver maps configuration onto the messaging driver config.
func (c *Config) MessagingDriver() messaging.Config {
	return messaging.Config{
		Driver: c.Messaging.Driver,
		Redis: messaging.RedisConfig{
			Address:  c.Messaging.Redis.Address,
			Password: c.Messaging.Redis.Password,
			DB:       c.Messaging.Redis.DB,
			Channel:  c.Messaging.Redis.Channel,
		},
		WebSocket: messaging.WebSocketConfig{
			URL:            c.Messaging.WebSocket.URL,
			Token:          c.Messaging.WebSocket.Token,
			PongWait:       c.Messaging.WebSocket.PongWait,
			PingInterval:   c.Messaging.WebSocket.PingInterval,
			WriteWait:      c.Messaging.WebSocket.WriteWait,
			MaxMessageSize: c.Messaging.WebSocket.MaxMessageSize,
		},
	}
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
