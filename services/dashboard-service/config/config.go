package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	awspkg "github.com/yashrajoria/inventory-dashboard/pkg/aws"
)

// Config holds the dashboard-service configuration.
type Config struct {
	Env            string        `env:"ENV"                   envDefault:"development"`
	Port           string        `env:"PORT"                  envDefault:"8090" validate:"required,numeric"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS"       envDefault:"http://localhost:5173"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"       envDefault:"10s" validate:"gt=0"`

	InventoryServiceURL string `env:"INVENTORY_SERVICE_URL" envDefault:"http://localhost:8082" validate:"required,url"`
	OrderServiceURL     string `env:"ORDER_SERVICE_URL"     envDefault:"http://localhost:8080" validate:"required,url"`

	StompURL       string        `env:"STOMP_URL"        envDefault:"ws://localhost:8082/ws/websocket" validate:"required"`
	StompOrigin    string        `env:"STOMP_ORIGIN"     envDefault:"http://localhost:5173"`
	StompLogin     string        `env:"STOMP_LOGIN"`
	StompPasscode  string        `env:"STOMP_PASSCODE"`
	StompHost      string        `env:"STOMP_HOST"       envDefault:"/"`
	StompHeartBeat time.Duration `env:"STOMP_HEARTBEAT"  envDefault:"10s" validate:"gte=0"`

	StompDisconnectTimeout time.Duration `env:"STOMP_DISCONNECT_TIMEOUT" envDefault:"3s" validate:"gt=0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"  envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"inventory-dashboard"`

	RedisURL        string        `env:"REDIS_URL"`
	BuyDedupeWindow time.Duration `env:"BUY_DEDUPE_WINDOW" envDefault:"2s" validate:"gt=0"`

	DepletionAlertTopicARN string `env:"DEPLETION_ALERT_TOPIC_ARN"`

	RenderInterval time.Duration `env:"RENDER_INTERVAL" envDefault:"0s" validate:"gte=0"`

	CloudWatchEnabled bool   `env:"CLOUDWATCH_ENABLED"`
	UseSecrets        bool   `env:"AWS_USE_SECRETS"`
	StompSecretName   string `env:"STOMP_SECRET_NAME" envDefault:"inventory-dashboard/stomp" validate:"required_if=UseSecrets true"`
}

// Load reads .env (when present) and the environment into a validated Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// CredentialsSource resolves broker credentials from a secret store.
type CredentialsSource interface {
	GetStompCredentials(ctx context.Context, name string) (*awspkg.StompCredentials, error)
}

// ApplySecrets overrides the STOMP login and passcode from the secret store
// when AWS_USE_SECRETS is set.
func (c *Config) ApplySecrets(ctx context.Context, src CredentialsSource) error {
	if !c.UseSecrets {
		return nil
	}
	creds, err := src.GetStompCredentials(ctx, c.StompSecretName)
	if err != nil {
		return err
	}
	c.StompLogin = creds.Login
	c.StompPasscode = creds.Passcode
	return nil
}

// KafkaEnabled reports whether the optional Kafka feed is configured.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
