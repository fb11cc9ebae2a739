package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("does_not_exist")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:9092", cfg.Kafka.Brokers)
	assert.Equal(t, "funding_executions", cfg.Kafka.FundingTopic)
	assert.Equal(t, "wallet_events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "funding_executions_dlq", cfg.Kafka.DLQTopic)
	assert.Equal(t, "funding-worker-group", cfg.Kafka.ConsumerGroup)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "wallet_ledger", cfg.MongoDB.Database)
	assert.Equal(t, "GBP", cfg.Wallet.DefaultCurrency)
	assert.Equal(t, 30*24*time.Hour, cfg.Wallet.IdempotencyTTL)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
	assert.Equal(t, "development", cfg.Application.Env)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WALLET_DEFAULT_CURRENCY", "EUR")
	t.Setenv("MONGO_DATABASE", "wallet_ledger_test")

	cfg, err := LoadConfig("does_not_exist")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "EUR", cfg.Wallet.DefaultCurrency)
	assert.Equal(t, "wallet_ledger_test", cfg.MongoDB.Database)
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	t.Setenv("SERVER_PORT", "-1")
	t.Setenv("WORKER_POOL_SIZE", "0")

	_, err := LoadConfig("does_not_exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "WORKER_POOL_SIZE")
}
