package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// Migrate runs the embedded schema migrations on startup.
	Migrate bool `yaml:"migrate"`

	// Pool sizing; zero values fall back to the pkg/db defaults.
	MaxConns           int32         `yaml:"max_conns"`
	MinConns           int32         `yaml:"min_conns"`
	MaxConnIdleTime    time.Duration `yaml:"max_conn_idle_time"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
}

// MQConfig holds the RabbitMQ settings. An empty URL disables event publishing.
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the Redis settings. An empty Addr disables the dashboard cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds the token signing settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	ClientURL      string   `yaml:"client_url"`
	ExposeErrors   bool     `yaml:"expose_errors"`
	UploadDir      string   `yaml:"upload_dir"`
	PublicURL      string   `yaml:"public_url"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// OTelConfig holds the tracing exporter settings.
type OTelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// DSN builds the postgres connection URL.
func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		sslMode,
	)
}

// OverrideDBFromEnv applies DB_* environment variables.
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

// OverrideMQFromEnv applies MQ_URL.
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv applies REDIS_ADDR and REDIS_PASSWORD.
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideJWTFromEnv applies JWT_SECRET and JWT_TTL.
func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
	if ttl := os.Getenv("JWT_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TTL = d
		}
	}
}

// OverrideServerFromEnv applies SERVER_PORT and CLIENT_URL.
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		cfg.ClientURL = clientURL
	}
}
