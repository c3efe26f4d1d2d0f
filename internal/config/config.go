// Package config содержит логику чтения конфигурации трекера продаж.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

// Хранилища состояния трекера.
const (
	StateBolt   = "bolt"
	StateRedis  = "redis"
	StateMemory = "memory"
)

// Хранилища заявок.
const (
	SignupBackendFile     = "file"
	SignupBackendSQLite   = "sqlite"
	SignupBackendPostgres = "postgres"
)

// Config содержит параметры конфигурации трекера продаж.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	StaticDir   string `env:"STATIC_DIR"`
	DatabaseURI string `env:"DATABASE_URI"`

	StateBackend string `env:"STATE_BACKEND" envDefault:"bolt"`
	StatePath    string `env:"STATE_PATH" envDefault:"data/tracker.db"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	SignupBackend string `env:"SIGNUP_BACKEND" envDefault:"file"`
	SignupsFile   string `env:"SIGNUPS_FILE" envDefault:"data/beta-signups.json"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/signups.db"`

	AdminUser     string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// PasswordGenerated сообщает, что пароль администратора сгенерирован при запуске.
	PasswordGenerated bool

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"seller-tracker.events"`

	Timezone    string `env:"TIMEZONE" envDefault:"America/Jamaica"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"seller-tracker"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envStaticDir := cfg.StaticDir
	envDatabaseURI := cfg.DatabaseURI

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.StaticDir, "s", "web", "directory with static files")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envStaticDir != "" {
		cfg.StaticDir = envStaticDir
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.AdminPassword == "" {
		password, err := randomPassword()
		if err != nil {
			return nil, err
		}
		cfg.AdminPassword = password
		cfg.PasswordGenerated = true
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StateBackend {
	case StateBolt, StateRedis, StateMemory:
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend)
	}

	switch c.SignupBackend {
	case SignupBackendFile, SignupBackendSQLite:
	case SignupBackendPostgres:
		if c.DatabaseURI == "" {
			return fmt.Errorf("SIGNUP_BACKEND=postgres requires DATABASE_URI")
		}
	default:
		return fmt.Errorf("unknown SIGNUP_BACKEND %q", c.SignupBackend)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location возвращает часовой пояс, в котором считаются календарные сутки.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate admin password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
