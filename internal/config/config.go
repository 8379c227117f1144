package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	// InfinityPayCallbackURL is where the InfinityPay app reports payment
	// outcomes; it is embedded into every generated deeplink.
	InfinityPayCallbackURL string `env:"INFINITY_PAY_CALLBACK_URL,required=true"`

	MercadoPagoBaseURL      string `env:"MERCADO_PAGO_BASE_URL,default=https://api.mercadopago.com"`
	MercadoPagoClientID     string `env:"MERCADO_PAGO_CLIENT_ID"`
	MercadoPagoClientSecret string `env:"MERCADO_PAGO_CLIENT_SECRET"`
	MercadoPagoDeviceID     string `env:"MERCADO_PAGO_DEVICE_ID"`

	// CallbackToken, when set, must match the X-Callback-Token header on
	// inbound provider callbacks.
	CallbackToken string `env:"PAYMENT_CALLBACK_TOKEN"`

	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL,required=true"`

	PaymentMaxRetries      int `env:"PAYMENT_MAX_RETRIES,default=3"`
	ProviderProbeTimeoutMS int `env:"PROVIDER_PROBE_TIMEOUT_MS,default=2000"`

	// ProcessingDeadlineMin bounds how long an attempt may sit in
	// processing before the timeout scanner fails it.
	ProcessingDeadlineMin int `env:"PROCESSING_DEADLINE_MIN,default=30"`
	TimeoutScanIntervalMS int `env:"TIMEOUT_SCAN_INTERVAL_MS,default=60000"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
