// Package config defines the global configuration for the zoo platform.
// Configuration is loaded once at process startup and is immutable
// thereafter. Values come from the OS environment, optionally seeded from a
// .env file; any missing required value or invalid format fails startup.
package config

import (
	"time"

	"github.com/yizus58/api-zoo/internal/types"
)

// SecretString aliases types.SecretString, the redacted secret type used in
// configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Broker    BrokerConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Report    ReportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// AuthConfig holds token issuance settings.
type AuthConfig struct {
	JWTKey   SecretString  `envconfig:"JWT_KEY" validate:"required,min=16"`
	TokenTTL time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

// BrokerConfig holds message broker connection and queue topology settings.
// The retry queue name and final DLQ suffix are fixed by the consumer
// contract; only the main queue name is configurable.
type BrokerConfig struct {
	URL       SecretString `envconfig:"RABBITMQ_URL" default:"amqp://localhost"`
	QueueName string       `envconfig:"QUEUE_NAME" default:"email_queue"`
}

// StorageConfig holds object storage (Cloudflare R2 over the S3 API)
// credentials and bucket settings.
type StorageConfig struct {
	AccountID string       `envconfig:"R2_ACCOUNT_ID" validate:"required"`
	AccessKey SecretString `envconfig:"R2_BUCKET_ACCESS_KEY" validate:"required,min=10"`
	SecretKey SecretString `envconfig:"R2_BUCKET_SECRET_KEY" validate:"required,min=20"`
	Bucket    string       `envconfig:"R2_BUCKET_NAME" validate:"required"`
	Region    string       `envconfig:"R2_BUCKET_REGION" default:"auto"`
}

// SchedulerConfig holds the daily task trigger settings. The default spec
// fires at minute 1 of every hour in the configured timezone.
type SchedulerConfig struct {
	Enabled  bool   `envconfig:"CRON_ENABLED" default:"true"`
	Spec     string `envconfig:"CRON_SPEC" default:"1 * * * *"`
	Timezone string `envconfig:"CRON_TZ" default:"America/Bogota"`
}

// ReportConfig holds email composition settings for the daily report.
type ReportConfig struct {
	Subject string `envconfig:"REPORT_SUBJECT" default:"Reporte diario de comentarios"`
}
