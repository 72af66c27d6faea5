// Package config loads the curator configuration from .env and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	CommentsBackendDB   = "db"
	CommentsBackendBaaS = "baas"
)

type Config struct {
	Port          string `env:"PORT" env-default:"8080"`
	DatabaseURL   string `env:"DATABASE_URL" env-default:"host=localhost user=postgres password=postgres dbname=curator port=5432 sslmode=disable TimeZone=UTC"`
	SessionSecret string `env:"SESSION_SECRET" env-default:"secret_key_change_me"`
	GinMode       string `env:"GIN_MODE" env-default:"debug"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`
	TemplatesDir  string `env:"TEMPLATES_DIR" env-default:"./web/templates"`

	// 首次启动时创建的管理员账号
	AdminUsername string `env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	PerPage int `env:"PER_PAGE" env-default:"30"`

	// cron 表达式带秒字段
	FetchSchedule   string        `env:"FETCH_SCHEDULE" env-default:"@every 30m"`
	CleanupSchedule string        `env:"CLEANUP_SCHEDULE" env-default:"0 0 2 * * *"`
	RetentionDays   int           `env:"RETENTION_DAYS" env-default:"30"`
	RSSHubInstance  string        `env:"RSSHUB_INSTANCE_URL" env-default:"https://rsshub.app"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"30s"`

	CommentsBackend string `env:"COMMENTS_BACKEND" env-default:"db"`
	BaaSURL         string `env:"BAAS_URL"`
	BaaSKey         string `env:"BAAS_KEY"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.PerPage < 1 || c.PerPage > 200 {
		return fmt.Errorf("config: PER_PAGE must be in [1,200], got %d", c.PerPage)
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("config: RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	switch c.CommentsBackend {
	case CommentsBackendDB:
	case CommentsBackendBaaS:
		if c.BaaSURL == "" {
			return errors.New("config: BAAS_URL is required when COMMENTS_BACKEND=baas")
		}
	default:
		return fmt.Errorf("config: unknown COMMENTS_BACKEND %q", c.CommentsBackend)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
