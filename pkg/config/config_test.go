package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
)

const (
	testOracle     = "0x1111111111111111111111111111111111111111"
	testSettlement = "0x2222222222222222222222222222222222222222"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	t.Setenv("ORACLE_ADDRESS", testOracle)
	t.Setenv("SETTLEMENT_ADDRESS", testSettlement)
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := loadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceChain, cfg.SourceChain)
	assert.Equal(t, "https://mainnet.base.org", cfg.RPCURL)
	assert.Equal(t, int64(8453), cfg.SigningChainID)
	assert.Equal(t, int64(DefaultMaxPriceAgeMs), cfg.MaxPriceAgeMs)
	assert.Equal(t, DefaultScanBatchSize, cfg.ScanBatchSize)
	assert.Equal(t, DefaultMaxScan, cfg.MaxScan)
	assert.Equal(t, int64(DefaultMaxSlippageBps), cfg.Bridge.MaxSlippageBps)
	assert.Equal(t, DefaultBridgeAPIEndpoint, cfg.Bridge.APIEndpoint)
	assert.Equal(t, DefaultServerPort, cfg.ServerPort)
	assert.Equal(t, "", cfg.RateLimit.RedisAddr)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, logger.InfoLevel, cfg.LoggerConfig.Level)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOURCE_CHAIN", "Arbitrum")
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("SIGNING_CHAIN_ID", "31337")
	t.Setenv("MAX_PRICE_AGE_MS", "60000")
	t.Setenv("SCAN_BATCH_SIZE", "25")
	t.Setenv("MAX_SCAN", "500")
	t.Setenv("MAX_SLIPPAGE_BPS", "50")
	t.Setenv("CALL_TIMEOUT", "10s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CIRCUIT_BREAKER_ENABLED", "false")

	cfg, err := loadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "arbitrum", cfg.SourceChain)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, int64(31337), cfg.SigningChainID)
	assert.Equal(t, int64(60000), cfg.MaxPriceAgeMs)
	assert.Equal(t, 25, cfg.ScanBatchSize)
	assert.Equal(t, 500, cfg.MaxScan)
	assert.Equal(t, int64(50), cfg.Bridge.MaxSlippageBps)
	assert.Equal(t, 10*time.Second, cfg.CallTimeout)
	assert.Equal(t, logger.DebugLevel, cfg.LoggerConfig.Level)
	assert.False(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadFromEnvValidation(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectedErr string
	}{
		{
			name:        "unknown source chain",
			env:         map[string]string{"SOURCE_CHAIN": "solana"},
			expectedErr: "invalid SOURCE_CHAIN value",
		},
		{
			name:        "bad settlement address",
			env:         map[string]string{"SETTLEMENT_ADDRESS": "0x1234"},
			expectedErr: "invalid SETTLEMENT_ADDRESS value",
		},
		{
			name:        "missing oracle",
			env:         map[string]string{"ORACLE_ADDRESS": ""},
			expectedErr: "ORACLE_ADDRESS environment variable is required",
		},
		{
			name:        "missing key",
			env:         map[string]string{"PRIVATE_KEY": ""},
			expectedErr: "PRIVATE_KEY or ENCRYPTED_KEY_PATH",
		},
		{
			name:        "encrypted key without password",
			env:         map[string]string{"PRIVATE_KEY": "", "ENCRYPTED_KEY_PATH": "/tmp/key.json"},
			expectedErr: "KEY_PASSWORD is required",
		},
		{
			name:        "slippage out of range",
			env:         map[string]string{"MAX_SLIPPAGE_BPS": "20000"},
			expectedErr: "MAX_SLIPPAGE_BPS must be between 0 and 10000",
		},
		{
			name:        "non numeric price age",
			env:         map[string]string{"MAX_PRICE_AGE_MS": "five"},
			expectedErr: "invalid MAX_PRICE_AGE_MS value",
		},
		{
			name:        "batch larger than scan",
			env:         map[string]string{"SCAN_BATCH_SIZE": "100", "MAX_SCAN": "10"},
			expectedErr: "must not exceed MAX_SCAN",
		},
		{
			name:        "zero batch size",
			env:         map[string]string{"SCAN_BATCH_SIZE": "0"},
			expectedErr: "SCAN_BATCH_SIZE must be greater than 0",
		},
		{
			name:        "bad log level",
			env:         map[string]string{"LOG_LEVEL": "verbose"},
			expectedErr: "invalid LOG_LEVEL value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestChainLookup(t *testing.T) {
	assert.Equal(t, int64(42161), GetChainID("arbitrum"))
	assert.Equal(t, int64(8453), GetChainID("BASE"))
	assert.Equal(t, int64(0), GetChainID("unknown"))
	assert.Equal(t, "polygon", GetChainName(137))
	assert.Equal(t, "", GetChainName(999999))
	info, ok := GetChainInfo("Polygon")
	assert.True(t, ok)
	assert.Equal(t, "POL", info.GasToken)
	assert.Equal(t, "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", info.WETHAddress)
}
