package config

import (
	"errors"
	"strings"
	"time"
)

// problems collects every invalid setting so a misconfigured deployment
// reports them all at once
type problems []string

func (p *problems) require(ok bool, message string) {
	if !ok {
		*p = append(*p, message)
	}
}

func (p *problems) positive(value int64, key string) {
	p.require(value > 0, key+" must be greater than 0")
}

func (p *problems) positiveDuration(value time.Duration, key string) {
	p.require(value > 0, key+" must be greater than 0")
}

func (p *problems) present(value, key string) {
	p.require(strings.TrimSpace(value) != "", key+" is required")
}

func (c *Config) validate() error {
	var p problems

	c.Server.check(&p)
	c.Kafka.check(&p)
	c.Postgres.check(&p)
	c.MongoDB.check(&p)

	p.present(c.Redis.Addr, "REDIS_ADDR")
	p.positive(int64(c.Redis.PoolSize), "REDIS_POOL_SIZE")

	p.present(c.Auth.JWTSecret, "AUTH_JWT_SECRET")

	p.positiveDuration(c.Outbox.PollingInterval, "OUTBOX_POLLING_INTERVAL")
	p.positive(int64(c.Outbox.BatchSize), "OUTBOX_BATCH_SIZE")
	p.positive(int64(c.Outbox.MaxRetryAttempts), "OUTBOX_MAX_RETRY_ATTEMPTS")

	p.positive(int64(c.WorkerPool.Size), "WORKER_POOL_SIZE")

	c.Ledger.check(&p)

	p.positiveDuration(c.Reconciliation.SweepInterval, "RECONCILIATION_SWEEP_INTERVAL")
	p.positiveDuration(c.Reconciliation.LockTTL, "RECONCILIATION_LOCK_TTL")

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}

func (s ServerConfig) check(p *problems) {
	p.positive(int64(s.Port), "SERVER_PORT")
	p.positiveDuration(s.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	p.positiveDuration(s.ReadTimeout, "SERVER_READ_TIMEOUT")
	p.positiveDuration(s.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	p.positiveDuration(s.IdleTimeout, "SERVER_IDLE_TIMEOUT")
}

func (k KafkaConfig) check(p *problems) {
	p.present(k.Brokers, "KAFKA_BROKERS")
	p.present(k.OperationTopic, "KAFKA_OPERATION_TOPIC")
	p.present(k.ChangeTopic, "KAFKA_CHANGE_TOPIC")
	p.present(k.DLQTopic, "KAFKA_DLQ_TOPIC")
	p.present(k.ConsumerGroup, "KAFKA_CONSUMER_GROUP")
	p.require(k.OperationTopic == "" || k.OperationTopic != k.ChangeTopic,
		"KAFKA_CHANGE_TOPIC must differ from KAFKA_OPERATION_TOPIC")
	p.positive(int64(k.MinBytes), "KAFKA_CONSUMER_MIN_BYTES")
	p.positive(int64(k.MaxBytes), "KAFKA_CONSUMER_MAX_BYTES")
	p.positiveDuration(k.MaxWait, "KAFKA_CONSUMER_MAX_WAIT")
	p.positive(int64(k.MaxHandlerAttempts), "KAFKA_MAX_HANDLER_ATTEMPTS")
}

func (pg PostgresConfig) check(p *problems) {
	p.present(pg.URL, "POSTGRES_URL")
	p.positive(int64(pg.MaxConns), "POSTGRES_MAX_CONNS")
	p.positive(int64(pg.MinConns), "POSTGRES_MIN_CONNS")
	p.require(pg.MinConns <= pg.MaxConns, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS")
	p.positiveDuration(pg.ConnMaxLifetime, "POSTGRES_MAX_CONN_LIFETIME")
	p.positiveDuration(pg.ConnMaxIdleTime, "POSTGRES_MAX_CONN_IDLE_TIME")
}

func (m MongoDBConfig) check(p *problems) {
	p.present(m.URI, "MONGO_URI")
	p.present(m.Database, "MONGO_DATABASE")
	p.positiveDuration(m.Timeout, "MONGO_TIMEOUT")
	p.require(m.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	p.require(m.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	p.positiveDuration(m.MaxConnIdleTime, "MONGO_MAX_CONN_IDLE_TIME")
}

func (l LedgerConfig) check(p *problems) {
	_, err := time.LoadLocation(l.Timezone)
	p.require(err == nil, "LEDGER_TIMEZONE must be a valid IANA timezone")
	p.require(l.LowStockThreshold >= 0, "LEDGER_LOW_STOCK_THRESHOLD must not be negative")
	p.positiveDuration(l.ClosingLockTTL, "LEDGER_CLOSING_LOCK_TTL")
}
