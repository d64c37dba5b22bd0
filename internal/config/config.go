package config

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Chat     ChatConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type LogConfig struct {
	Level  string
	Format string
}

type ChatConfig struct {
	HistoryLimit           int
	MaxContentLength       int
	HistoryPage            int
	RetentionMaxAge        time.Duration
	SweepInterval          time.Duration
	SendBuffer             int
	HeartbeatInterval      time.Duration
	SlowOperationThreshold time.Duration
	CrisisExtraKeywords    []string
	ConnectRateLimit       int
	ConnectRateWindow      time.Duration
}

// RedisConfig is disabled when URL is empty.
type RedisConfig struct {
	URL          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	AlertChannel string
}

// DatabaseConfig is disabled when DSN is empty.
// AutoMigrate lets the server create its own tables on connect.
type DatabaseConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

// KafkaConfig is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers     []string
	CrisisTopic string
	ClientID    string
}

func (c RedisConfig) Enabled() bool    { return c.URL != "" }
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }
func (c KafkaConfig) Enabled() bool    { return len(c.Brokers) > 0 }

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

func setDefaults() {
	viper.SetDefault("CHAT_HOST", "")
	viper.SetDefault("CHAT_PORT", "3001")
	viper.SetDefault("CHAT_READ_TIMEOUT", 30*time.Second)
	viper.SetDefault("CHAT_WRITE_TIMEOUT", 30*time.Second)
	viper.SetDefault("CHAT_IDLE_TIMEOUT", 120*time.Second)
	viper.SetDefault("CHAT_SHUTDOWN_TIMEOUT", 10*time.Second)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	viper.SetDefault("CHAT_HISTORY_LIMIT", 100)
	viper.SetDefault("CHAT_MAX_CONTENT_LENGTH", 500)
	viper.SetDefault("CHAT_HISTORY_PAGE", 20)
	viper.SetDefault("CHAT_RETENTION_MAX_AGE", time.Hour)
	viper.SetDefault("CHAT_SWEEP_INTERVAL", 5*time.Minute)
	viper.SetDefault("CHAT_SEND_BUFFER", 256)
	viper.SetDefault("CHAT_HEARTBEAT_INTERVAL", 30*time.Second)
	viper.SetDefault("CHAT_SLOW_OPERATION_THRESHOLD", 250*time.Millisecond)
	viper.SetDefault("CRISIS_EXTRA_KEYWORDS", "")
	viper.SetDefault("WS_CONNECT_RATE_LIMIT", 30)
	viper.SetDefault("WS_CONNECT_RATE_WINDOW", time.Minute)

	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_MAX_RETRIES", 3)
	viper.SetDefault("REDIS_POOL_SIZE", 100)
	viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	viper.SetDefault("REDIS_ALERT_CHANNEL", "chat:crisis:alerts")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("DATABASE_AUTO_MIGRATE", true)

	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_CRISIS_TOPIC", "crisis-alerts")
	viper.SetDefault("KAFKA_CLIENT_ID", "safespace-chat")
}

// LoadConfig reads configuration once from the environment, after loading
// an optional .env file.
func LoadConfig() (*Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file loaded", "error", err)
		}

		setDefaults()
		viper.AutomaticEnv()
		ConfigInstance = build()
	})

	return ConfigInstance, nil
}

func build() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            viper.GetString("CHAT_HOST"),
			Port:            viper.GetString("CHAT_PORT"),
			ReadTimeout:     viper.GetDuration("CHAT_READ_TIMEOUT"),
			WriteTimeout:    viper.GetDuration("CHAT_WRITE_TIMEOUT"),
			IdleTimeout:     viper.GetDuration("CHAT_IDLE_TIMEOUT"),
			ShutdownTimeout: viper.GetDuration("CHAT_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(viper.GetString("ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Chat: ChatConfig{
			HistoryLimit:           viper.GetInt("CHAT_HISTORY_LIMIT"),
			MaxContentLength:       viper.GetInt("CHAT_MAX_CONTENT_LENGTH"),
			HistoryPage:            viper.GetInt("CHAT_HISTORY_PAGE"),
			RetentionMaxAge:        viper.GetDuration("CHAT_RETENTION_MAX_AGE"),
			SweepInterval:          viper.GetDuration("CHAT_SWEEP_INTERVAL"),
			SendBuffer:             viper.GetInt("CHAT_SEND_BUFFER"),
			HeartbeatInterval:      viper.GetDuration("CHAT_HEARTBEAT_INTERVAL"),
			SlowOperationThreshold: viper.GetDuration("CHAT_SLOW_OPERATION_THRESHOLD"),
			CrisisExtraKeywords:    splitList(viper.GetString("CRISIS_EXTRA_KEYWORDS")),
			ConnectRateLimit:       viper.GetInt("WS_CONNECT_RATE_LIMIT"),
			ConnectRateWindow:      viper.GetDuration("WS_CONNECT_RATE_WINDOW"),
		},
		Redis: RedisConfig{
			URL:          viper.GetString("REDIS_URL"),
			MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			AlertChannel: viper.GetString("REDIS_ALERT_CHANNEL"),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(viper.GetString("DATABASE_DRIVER")),
			DSN:         viper.GetString("DATABASE_DSN"),
			AutoMigrate: viper.GetBool("DATABASE_AUTO_MIGRATE"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(viper.GetString("KAFKA_BROKERS")),
			CrisisTopic: viper.GetString("KAFKA_CRISIS_TOPIC"),
			ClientID:    viper.GetString("KAFKA_CLIENT_ID"),
		},
	}
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseLevel maps LOG_LEVEL to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
