package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RelayMode 决定实时事件如何从 API 服务器到达 socket 连接。
const (
	RelayModeLocal = "local" // API 服务器进程内直接投递
	RelayModeKafka = "kafka" // 经 Kafka 投递给独立的 chatserver
)

// APIServerConfig 保存 API 服务器特有的配置。
type APIServerConfig struct {
	Host   string     `mapstructure:"HOST"`
	Port   string     `mapstructure:"PORT"`
	Prefix string     `mapstructure:"PREFIX"` // REST 路由前缀，例如 /api
	CORS   CORSConfig `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis.
// Redis 目前只承载 Token 黑名单，关闭后登出不会吊销 Token。
type RedisConfig struct {
	Enabled  bool   `mapstructure:"ENABLED"`
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName    string          `mapstructure:"APP_NAME"`
	AppVersion string          `mapstructure:"APP_VERSION"`
	Env        string          `mapstructure:"ENV"`
	LogLevel   string          `mapstructure:"LOG_LEVEL"`
	Server     ServerConfig    `mapstructure:"SERVER"`     // ChatServer 的配置
	APIServer  APIServerConfig `mapstructure:"API_SERVER"` // API 服务器配置
	Kafka      KafkaConfig     `mapstructure:"KAFKA"`
	Database   DatabaseConfig  `mapstructure:"DATABASE"`
	Auth       AuthConfig      `mapstructure:"AUTH"`
	WebSocket  WebSocketConfig `mapstructure:"WEBSOCKET"`
	Redis      RedisConfig     `mapstructure:"REDIS"`
	Relay      RelayConfig     `mapstructure:"RELAY"`
	Search     SearchConfig    `mapstructure:"SEARCH"`
}

// ServerConfig holds configuration for the chat (socket) HTTP server.
type ServerConfig struct {
	Host           string        `mapstructure:"HOST"`
	Port           string        `mapstructure:"PORT"`
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"MAX_HEADER_BYTES"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"BROKERS"`
	ClientID      string   `mapstructure:"CLIENT_ID"`
	RelayTopic    string   `mapstructure:"RELAY_TOPIC"`    // API 服务器提交后发布的实时事件
	ConsumerGroup string   `mapstructure:"CONSUMER_GROUP"` // 每个 chatserver 实例会追加主机名
	Protocol      string   `mapstructure:"PROTOCOL"`
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"` // "postgres" 或 "sqlite"
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
	Path     string `mapstructure:"PATH"` // sqlite 文件路径或 DSN
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// AuthConfig holds configuration for authentication (e.g., JWT).
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
	Issuer       string        `mapstructure:"ISSUER"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	Path                string `mapstructure:"PATH"`
	SocketIOPath        string `mapstructure:"SOCKETIO_PATH"`
	WriteWaitSeconds    int    `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int    `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int    `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int    `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
	SendBuffer          int    `mapstructure:"SEND_BUFFER"`
}

// RelayConfig 选择实时事件的投递方式。
type RelayConfig struct {
	Mode string `mapstructure:"MODE"`
}

// SearchConfig 控制用户搜索。
type SearchConfig struct {
	Limit          int `mapstructure:"LIMIT"`
	MinQueryLength int `mapstructure:"MIN_QUERY_LENGTH"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "socialchat")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	// ChatServer
	v.SetDefault("SERVER.HOST", "0.0.0.0")
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.MAX_HEADER_BYTES", 1<<20) // 1 MB

	// APIServer
	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "4000")
	v.SetDefault("API_SERVER.PREFIX", "/api")
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	// Kafka
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "socialchat")
	v.SetDefault("KAFKA.RELAY_TOPIC", "socialchat-relay")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "socialchat-chatserver")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")

	// Database
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "socialchat")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.PATH", "socialchat.db")
	v.SetDefault("DATABASE.LOG_LEVEL", "warn")

	// Auth
	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH.ISSUER", "socialchat")

	// Redis
	v.SetDefault("REDIS.ENABLED", true)
	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	// WebSocket
	v.SetDefault("WEBSOCKET.PATH", "/ws")
	v.SetDefault("WEBSOCKET.SOCKETIO_PATH", "/socket.io/")
	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54) // (60 * 9) / 10
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 4096)
	v.SetDefault("WEBSOCKET.SEND_BUFFER", 256)

	v.SetDefault("RELAY.MODE", RelayModeLocal)

	v.SetDefault("SEARCH.LIMIT", 10)
	v.SetDefault("SEARCH.MIN_QUERY_LENGTH", 2)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// SERVER.PORT 可以被环境变量 SERVER_PORT 覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// 找到了配置文件但解析失败
			return
		}
		// 没有配置文件时使用默认值
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
