package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
)

// Config holds the configuration for the relayer service
type Config struct {
	SourceChain       string
	RPCURL            string
	OracleAddress     string
	SettlementAddress string
	SigningChainID    int64
	Key               KeyConfig
	Bridge            BridgeConfig
	MaxPriceAgeMs     int64
	ScanBatchSize     int
	MaxScan           int
	CallTimeout       time.Duration
	GasMultiplier     float64
	ServerPort        string
	MetricsAPIKey     string
	RateLimit         RateLimitConfig
	CircuitBreaker    CircuitBreakerConfig
	LoggerConfig      LoggerConfig
}

// KeyConfig holds the sources the relayer credential can be loaded from
type KeyConfig struct {
	PrivateKey       string
	EncryptedKeyPath string
	KeyPassword      string
}

// BridgeConfig holds the bridge aggregator configuration
type BridgeConfig struct {
	APIEndpoint    string
	APIKey         string
	Timeout        time.Duration
	MaxSlippageBps int64
}

// RateLimitConfig holds the API rate limiter configuration. An empty RedisAddr disables rate limiting.
type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	PerMinute     int
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	sourceChain, err := GetEnvSourceChain()
	if err != nil {
		return nil, err
	}

	rpcURL, err := GetEnvRPCURL(sourceChain)
	if err != nil {
		return nil, err
	}

	oracleAddress, err := GetEnvAddress("ORACLE_ADDRESS")
	if err != nil {
		return nil, err
	}

	settlementAddress, err := GetEnvAddress("SETTLEMENT_ADDRESS")
	if err != nil {
		return nil, err
	}

	signingChainID, err := GetEnvSigningChainID(sourceChain)
	if err != nil {
		return nil, err
	}

	bridgeEndpoint, err := GetEnvBridgeAPIEndpoint()
	if err != nil {
		return nil, err
	}

	bridgeTimeout, err := GetEnvBridgeTimeout()
	if err != nil {
		return nil, err
	}

	maxSlippageBps, err := GetEnvMaxSlippageBps()
	if err != nil {
		return nil, err
	}

	maxPriceAgeMs, err := GetEnvMaxPriceAgeMs()
	if err != nil {
		return nil, err
	}

	scanBatchSize, err := GetEnvScanBatchSize()
	if err != nil {
		return nil, err
	}

	maxScan, err := GetEnvMaxScan()
	if err != nil {
		return nil, err
	}

	callTimeout, err := GetEnvCallTimeout()
	if err != nil {
		return nil, err
	}

	gasMultiplier, err := GetEnvGasMultiplier()
	if err != nil {
		return nil, err
	}

	serverPort, err := GetEnvServerPort()
	if err != nil {
		return nil, err
	}

	rateLimit, err := GetEnvRateLimitPerMinute()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourceChain:       sourceChain,
		RPCURL:            rpcURL,
		OracleAddress:     oracleAddress,
		SettlementAddress: settlementAddress,
		SigningChainID:    signingChainID,
		Key: KeyConfig{
			PrivateKey:       os.Getenv("PRIVATE_KEY"),
			EncryptedKeyPath: os.Getenv("ENCRYPTED_KEY_PATH"),
			KeyPassword:      os.Getenv("KEY_PASSWORD"),
		},
		Bridge: BridgeConfig{
			APIEndpoint:    bridgeEndpoint,
			APIKey:         os.Getenv("BRIDGE_API_KEY"),
			Timeout:        bridgeTimeout,
			MaxSlippageBps: maxSlippageBps,
		},
		MaxPriceAgeMs: maxPriceAgeMs,
		ScanBatchSize: scanBatchSize,
		MaxScan:       maxScan,
		CallTimeout:   callTimeout,
		GasMultiplier: gasMultiplier,
		ServerPort:    serverPort,
		MetricsAPIKey: os.Getenv("METRICS_API_KEY"),
		RateLimit: RateLimitConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			PerMinute:     rateLimit,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	// Validate required environment variables
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Key.PrivateKey == "" && cfg.Key.EncryptedKeyPath == "" {
		return fmt.Errorf("PRIVATE_KEY or ENCRYPTED_KEY_PATH environment variable is required")
	}
	if cfg.Key.EncryptedKeyPath != "" && cfg.Key.KeyPassword == "" {
		return fmt.Errorf("KEY_PASSWORD is required when ENCRYPTED_KEY_PATH is set")
	}
	if cfg.OracleAddress == "" {
		return fmt.Errorf("ORACLE_ADDRESS environment variable is required")
	}
	if cfg.SettlementAddress == "" {
		return fmt.Errorf("SETTLEMENT_ADDRESS environment variable is required")
	}
	if cfg.ScanBatchSize > cfg.MaxScan {
		return fmt.Errorf("SCAN_BATCH_SIZE (%d) must not exceed MAX_SCAN (%d)", cfg.ScanBatchSize, cfg.MaxScan)
	}
	return nil
}
