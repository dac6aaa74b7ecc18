package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL" envDefault:"marketplace.db"`
	JWTSecret   string `env:"JWT_SECRET"`

	Provider Provider `envPrefix:"PROVIDER_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Pipeline Pipeline `envPrefix:"PIPELINE_"`
}

// Provider holds the payment gateway credentials. KeySecret signs the
// client-side verification digest, WebhookSecret authenticates inbound
// webhook deliveries.
type Provider struct {
	KeyID         string `env:"KEY_ID"`
	KeySecret     string `env:"KEY_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

// Redis is optional; when Addr is set the live notifier runs on Redis
// pub/sub instead of the in-process hub.
type Redis struct {
	Addr string `env:"ADDR"`
}

type Pipeline struct {
	// FanOut caps concurrent order-item writes per webhook delivery.
	FanOut  int           `env:"FAN_OUT" envDefault:"8"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
