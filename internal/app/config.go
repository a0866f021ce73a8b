package app

import "time"

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска бэк-офиса.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// KafkaBrokers: список брокеров через запятую; пустая строка отключает публикацию.
	KafkaBrokers  string
	KafkaClientID string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending: порог backlog для деградации readiness; 0 отключает проверку.
	OutboxMaxPending int

	// PageSize переопределяет размер страницы всех листингов; 0 оставляет значения по умолчанию.
	PageSize int

	OrderHeaderFirst          bool
	OrderDeliveryReassignment bool

	LogLevel string
}

// DefaultConfig возвращает конфигурацию для локального запуска поверх памяти.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaClientID:       "backoffice",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		OutboxMaxPending:    1000,
		LogLevel:            "info",
	}
}
