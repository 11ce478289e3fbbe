// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for the API gateway and the operation
// processor: HTTP server, PostgreSQL, MongoDB, Kafka, Redis, auth and ledger settings.
package config

import "time"

// Config is shared by both binaries. Sections a binary does not use still
// carry their defaults so one validation covers every deployment.
type Config struct {
	Application    ApplicationConfig
	Logging        LoggingConfig
	Server         ServerConfig
	Kafka          KafkaConfig
	Postgres       PostgresConfig
	MongoDB        MongoDBConfig
	Redis          RedisConfig
	Auth           AuthConfig
	Outbox         OutboxConfig
	WorkerPool     WorkerPoolConfig
	Ledger         LedgerConfig
	Reconciliation ReconciliationConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig holds the HTTP listener settings. ShutdownTimeout also bounds
// the drain of the processor.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	OperationTopic    string // Topic carrying ledger operation requests
	ChangeTopic       string // Topic carrying committed ledger change events
	NumPartitions     int    // Number of partitions for topics
	ReplicationFactor int    // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue

	MaxHandlerAttempts int // failed attempts before a message is dead-lettered
}

// PostgresConfig configures the pool backing entries, inventory and the outbox
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string // applied on startup, relative to the working directory
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains Redis configuration used for distributed locks
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// AuthConfig contains the settings used to verify bearer tokens
type AuthConfig struct {
	JWTSecret string
	Issuer    string // Optional expected "iss" claim
}

// OutboxConfig paces the change event poller
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // a message is abandoned after this many failed publishes
}

type WorkerPoolConfig struct {
	Size int
}

// LedgerConfig contains business settings of the ledger
type LedgerConfig struct {
	Timezone          string // IANA zone used to cut business days
	LowStockThreshold int    // Items with a quantity below this are reported as low stock
	ClosingLockTTL    time.Duration
}

// Location resolves the configured business timezone, falling back to UTC.
func (l LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReconciliationConfig contains settings of the orphaned transfer leg sweeper
type ReconciliationConfig struct {
	SweepInterval time.Duration
	LockTTL       time.Duration
}
