package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := t.TempDir()

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	require.NoError(t, os.Mkdir(tempConfigsSubDir, 0755))

	testAppName := "ShopLedgerTest"
	testPort := 9090
	testLogLevel := "debug"
	testTimezone := "Europe/Paris"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nLEDGER_TIMEZONE=%s\nLEDGER_LOW_STOCK_THRESHOLD=3\n",
		testAppName, testPort, testLogLevel, testTimezone,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	require.NoError(t, os.WriteFile(envFilePath, []byte(envContent), 0644))

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testTimezone, cfg.Ledger.Timezone)
	assert.Equal(t, 3, cfg.Ledger.LowStockThreshold)
	assert.Equal(t, "Europe/Paris", cfg.Ledger.Location().String())

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "ledger_operations", cfg.Kafka.OperationTopic)
	assert.Equal(t, "ledger_changes", cfg.Kafka.ChangeTopic)
	assert.Equal(t, "ledger_operations_dlq", cfg.Kafka.DLQTopic)
	assert.Equal(t, 10, cfg.Kafka.MaxHandlerAttempts)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Reconciliation.SweepInterval)
	assert.Equal(t, 10, cfg.WorkerPool.Size)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestConfig_Validate_HappyPath(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := buildConfig(v)

	assert.NoError(t, cfg.validate(), "Default config should be valid")
}

func TestConfig_Validate_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"MissingOperationTopic", func(c *Config) { c.Kafka.OperationTopic = "" }, "KAFKA_OPERATION_TOPIC is required"},
		{"MissingChangeTopic", func(c *Config) { c.Kafka.ChangeTopic = "" }, "KAFKA_CHANGE_TOPIC is required"},
		{"MissingRedisAddr", func(c *Config) { c.Redis.Addr = "" }, "REDIS_ADDR is required"},
		{"MissingJWTSecret", func(c *Config) { c.Auth.JWTSecret = "" }, "AUTH_JWT_SECRET is required"},
		{"InvalidTimezone", func(c *Config) { c.Ledger.Timezone = "Mars/Olympus" }, "LEDGER_TIMEZONE must be a valid IANA timezone"},
		{"NegativeThreshold", func(c *Config) { c.Ledger.LowStockThreshold = -1 }, "LEDGER_LOW_STOCK_THRESHOLD must not be negative"},
		{"ZeroSweepInterval", func(c *Config) { c.Reconciliation.SweepInterval = 0 }, "RECONCILIATION_SWEEP_INTERVAL must be greater than 0"},
		{"ZeroPort", func(c *Config) { c.Server.Port = 0 }, "SERVER_PORT must be greater than 0"},
		{"SharedTopics", func(c *Config) { c.Kafka.ChangeTopic = c.Kafka.OperationTopic }, "KAFKA_CHANGE_TOPIC must differ from KAFKA_OPERATION_TOPIC"},
		{"ZeroHandlerAttempts", func(c *Config) { c.Kafka.MaxHandlerAttempts = 0 }, "KAFKA_MAX_HANDLER_ATTEMPTS must be greater than 0"},
		{"PoolBounds", func(c *Config) { c.Postgres.MinConns = 50 }, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			cfg := buildConfig(v)
			tc.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestConfig_Validate_ReportsEveryProblem(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := buildConfig(v)
	cfg.Redis.Addr = ""
	cfg.WorkerPool.Size = 0

	err := cfg.validate()

	require.Error(t, err)
	assert.Equal(t, "REDIS_ADDR is required, WORKER_POOL_SIZE must be greater than 0", err.Error())
}

func TestLedgerConfig_Location_FallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LedgerConfig{Timezone: "not/a-zone"}.Location())
}
