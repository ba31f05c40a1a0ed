package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL" required:"true"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Shared secret the provider signs webhook bodies with.
	WebhookSecret string `env:"WEBHOOK_SECRET" required:"true"`

	// When true, notifications missing session_id or status are rejected
	// with 400 instead of being acknowledged with an empty 200.
	WebhookStrictFields bool `env:"WEBHOOK_STRICT_FIELDS" envDefault:"false"`

	// Where processed webhook events are recorded: "none", "kafka" or "opensearch"
	EventSink string `env:"EVENT_SINK" envDefault:"none"`

	// Kafka configuration
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaEventsTopic string   `env:"KAFKA_EVENTS_TOPIC" envDefault:"webhooks.orders"`

	// OpenSearch configuration
	OpensearchUrls        []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexEvents string   `env:"OPENSEARCH_INDEX_EVENTS" envDefault:"webhook-events"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}
