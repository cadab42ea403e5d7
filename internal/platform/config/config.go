package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config agrupa la configuración del servicio. Se puede cargar desde un
// archivo YAML (CONFIG_FILE) y siempre se puede pisar por env vars, que
// es lo que usamos en dev y en los despliegues chicos.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Notify    NotifyConfig    `yaml:"notify"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	// DSN vacío => repos in-memory (modo dev).
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	// JWTSecret vacío => sin verifier (modo dev, X-Debug-User-ID).
	JWTSecret string `yaml:"jwt_secret"`
}

type NotifyConfig struct {
	// AMQPURL vacío => sink de log (dev). Con URL se publica a RabbitMQ.
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`
}

type AnalyticsConfig struct {
	// BaseURL del servicio de análisis nutricional. Vacío => cálculo local.
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load lee CONFIG_FILE si está definido, y luego aplica overrides de env.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Notify: NotifyConfig{
			Queue: "care-access.events",
		},
		Analytics: AnalyticsConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyEnv(cfg *Config) {
	setIfEnv(&cfg.Server.Port, "PORT")
	setIfEnv(&cfg.Database.DSN, "DB_DSN")
	setIfEnv(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setIfEnv(&cfg.Notify.AMQPURL, "AMQP_URL")
	setIfEnv(&cfg.Notify.Queue, "NOTIFY_QUEUE")
	setIfEnv(&cfg.Analytics.BaseURL, "ANALYTICS_BASE_URL")
	setIfEnv(&cfg.Logging.Level, "LOG_LEVEL")
	setIfEnv(&cfg.Logging.Format, "LOG_FORMAT")
}

func setIfEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
