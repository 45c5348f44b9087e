package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	pkgconfig "github.com/Prabesh-Pandey/Task-Manager/pkg/config"
)

// AuthConfig maps each department to its registration secrets.
type AuthConfig struct {
	AdminInviteTokens map[string]string `yaml:"admin_invite_tokens"`
	DepartmentCodes   map[string]string `yaml:"department_codes"`
	RateLimit         RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig throttles register/login per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type CacheConfig struct {
	DashboardTTL time.Duration `yaml:"dashboard_ttl"`
}

type Config struct {
	Env    string                 `yaml:"-"`
	Debug  bool                   `yaml:"debug"`
	Server pkgconfig.ServerConfig `yaml:"server"`
	DB     pkgconfig.DBConfig     `yaml:"db"`
	Redis  pkgconfig.RedisConfig  `yaml:"redis"`
	MQ     pkgconfig.MQConfig     `yaml:"mq"`
	JWT    pkgconfig.JWTConfig    `yaml:"jwt"`
	Auth   AuthConfig             `yaml:"auth"`
	Cache  CacheConfig            `yaml:"cache"`
	OTel   pkgconfig.OTelConfig   `yaml:"otel"`
}

// Load reads config/base.yaml plus the CONFIG_ENV overlay, then applies the
// environment overrides and defaults.
func Load() (*Config, error) {
	return LoadFrom(pkgconfig.GetConfigEnv(), pkgconfig.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	cfgMap, err := pkgconfig.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := pkgconfig.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}
	cfg.Env = env

	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)
	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	if v := os.Getenv("EXPOSE_ERRORS"); v == "true" {
		cfg.Server.ExposeErrors = true
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if unresolved(c.JWT.Secret) {
		c.JWT.Secret = ""
	}
	dropUnresolved(c.Auth.AdminInviteTokens)
	dropUnresolved(c.Auth.DepartmentCodes)

	if c.Server.Port == "" {
		c.Server.Port = ":5000"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 7 * 24 * time.Hour
	}
	if c.Cache.DashboardTTL <= 0 {
		c.Cache.DashboardTTL = time.Minute
	}
	if c.Auth.RateLimit.RequestsPerSecond <= 0 {
		c.Auth.RateLimit.RequestsPerSecond = 1
	}
	if c.Auth.RateLimit.Burst <= 0 {
		c.Auth.RateLimit.Burst = 10
	}
	if c.OTel.ServiceName == "" {
		c.OTel.ServiceName = "task-manager"
	}
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if len(c.Auth.DepartmentCodes) == 0 && len(c.Auth.AdminInviteTokens) == 0 {
		return fmt.Errorf("auth: no department codes or admin invite tokens configured for env %q", c.Env)
	}
	return nil
}

// unresolved reports a ${VAR} placeholder that neither secrets.env nor the
// environment supplied.
func unresolved(v string) bool {
	return strings.Contains(v, "${")
}

func dropUnresolved(secrets map[string]string) {
	for dept, v := range secrets {
		if unresolved(v) || strings.TrimSpace(v) == "" {
			delete(secrets, dept)
		}
	}
}
