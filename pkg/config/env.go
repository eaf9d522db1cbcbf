package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
)

const (
	// DefaultSourceChain is the chain where the settlement contract lives
	DefaultSourceChain = "base"

	// DefaultBridgeAPIEndpoint defines the default bridge aggregator API endpoint
	DefaultBridgeAPIEndpoint = "https://li.quest/v1"

	// DefaultBridgeTimeout defines the default timeout for bridge quote requests
	DefaultBridgeTimeout = 15

	// DefaultMaxSlippageBps defines the maximum slippage requested from the bridge, in basis points
	DefaultMaxSlippageBps = 100

	// DefaultMaxPriceAgeMs defines how old an oracle price may be before purchases are refused
	DefaultMaxPriceAgeMs = 300000

	// DefaultScanBatchSize defines how many token ids are checked concurrently when enumerating positions
	DefaultScanBatchSize = 50

	// DefaultMaxScan defines the upper bound of token ids scanned per enumeration
	DefaultMaxScan = 1000

	// DefaultCallTimeout defines the timeout applied to a single workflow, in seconds
	DefaultCallTimeout = 60

	// DefaultGasMultiplier defines the buffer applied on top of the suggested gas price
	DefaultGasMultiplier = 1.1

	// DefaultServerPort defines the default port for the API server
	DefaultServerPort = "8080"

	// DefaultRateLimitPerMinute defines how many API requests a single client may issue per minute
	DefaultRateLimitPerMinute = 60

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker
	DefaultCircuitBreakerWindow = 60

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker
	DefaultCircuitBreakerReset = 30

	// DefaultLogLevel defines the default log level
	DefaultLogLevel = "info"
)

// GetEnvSourceChain returns the chain identifier the relayer settles on
func GetEnvSourceChain() (string, error) {
	chain := os.Getenv("SOURCE_CHAIN")
	if chain == "" {
		return DefaultSourceChain, nil
	}

	info, ok := GetChainInfo(chain)
	if !ok {
		return "", fmt.Errorf("invalid SOURCE_CHAIN value: %s, unknown chain", chain)
	}
	return info.Name, nil
}

// GetEnvRPCURL returns the RPC URL for the source chain, falling back to the chain's public endpoint
func GetEnvRPCURL(sourceChain string) (string, error) {
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		info, ok := GetChainInfo(sourceChain)
		if !ok {
			return "", fmt.Errorf("RPC_URL is required for chain %s", sourceChain)
		}
		return info.DefaultRPCURL, nil
	}

	if _, err := url.ParseRequestURI(rpcURL); err != nil {
		return "", fmt.Errorf("invalid RPC_URL value: %s, must be a valid URL", rpcURL)
	}
	return rpcURL, nil
}

// GetEnvAddress returns a contract address from the given environment variable, empty if unset
func GetEnvAddress(name string) (string, error) {
	address := os.Getenv(name)
	if address == "" {
		return "", nil
	}

	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid Ethereum address", name, address)
	}
	return address, nil
}

// GetEnvSigningChainID returns the chain ID bound into the intent signing domain
func GetEnvSigningChainID(sourceChain string) (int64, error) {
	chainID := os.Getenv("SIGNING_CHAIN_ID")
	if chainID == "" {
		id := GetChainID(sourceChain)
		if id == 0 {
			return 0, fmt.Errorf("SIGNING_CHAIN_ID is required for chain %s", sourceChain)
		}
		return id, nil
	}

	id, err := strconv.ParseInt(chainID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid SIGNING_CHAIN_ID value: %s, must be an integer", chainID)
	}
	if id <= 0 {
		return 0, fmt.Errorf("SIGNING_CHAIN_ID must be greater than 0")
	}
	return id, nil
}

// GetEnvBridgeAPIEndpoint returns the bridge aggregator API endpoint from environment variables
func GetEnvBridgeAPIEndpoint() (string, error) {
	apiEndpoint := os.Getenv("BRIDGE_API_ENDPOINT")
	if apiEndpoint == "" {
		return DefaultBridgeAPIEndpoint, nil
	}

	if _, err := url.ParseRequestURI(apiEndpoint); err != nil {
		return "", fmt.Errorf("invalid BRIDGE_API_ENDPOINT value: %s, must be a valid URL", apiEndpoint)
	}
	return apiEndpoint, nil
}

// GetEnvBridgeTimeout returns the bridge request timeout from environment variables
func GetEnvBridgeTimeout() (time.Duration, error) {
	timeout := os.Getenv("BRIDGE_TIMEOUT")
	if timeout == "" {
		return DefaultBridgeTimeout * time.Second, nil
	}

	parsed, err := time.ParseDuration(timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid BRIDGE_TIMEOUT value: %s, must be a valid duration string", timeout)
	}
	return parsed, nil
}

// GetEnvMaxSlippageBps returns the maximum bridge slippage in basis points
func GetEnvMaxSlippageBps() (int64, error) {
	slippage := os.Getenv("MAX_SLIPPAGE_BPS")
	if slippage == "" {
		return DefaultMaxSlippageBps, nil
	}

	bps, err := strconv.ParseInt(slippage, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid MAX_SLIPPAGE_BPS value: %s, must be an integer", slippage)
	}
	if bps < 0 || bps > 10000 {
		return 0, fmt.Errorf("MAX_SLIPPAGE_BPS must be between 0 and 10000")
	}
	return bps, nil
}

// GetEnvMaxPriceAgeMs returns the maximum accepted oracle price age in milliseconds
func GetEnvMaxPriceAgeMs() (int64, error) {
	maxAge := os.Getenv("MAX_PRICE_AGE_MS")
	if maxAge == "" {
		return DefaultMaxPriceAgeMs, nil
	}

	ms, err := strconv.ParseInt(maxAge, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid MAX_PRICE_AGE_MS value: %s, must be an integer", maxAge)
	}
	if ms <= 0 {
		return 0, fmt.Errorf("MAX_PRICE_AGE_MS must be greater than 0")
	}
	return ms, nil
}

// GetEnvScanBatchSize returns the batch size used when scanning token ids
func GetEnvScanBatchSize() (int, error) {
	return getEnvPositiveInt("SCAN_BATCH_SIZE", DefaultScanBatchSize)
}

// GetEnvMaxScan returns the default upper bound of scanned token ids
func GetEnvMaxScan() (int, error) {
	return getEnvPositiveInt("MAX_SCAN", DefaultMaxScan)
}

// GetEnvRateLimitPerMinute returns the per-client API request budget
func GetEnvRateLimitPerMinute() (int, error) {
	return getEnvPositiveInt("RATE_LIMIT_PER_MINUTE", DefaultRateLimitPerMinute)
}

// GetEnvCallTimeout returns the timeout applied to a single workflow
func GetEnvCallTimeout() (time.Duration, error) {
	timeout := os.Getenv("CALL_TIMEOUT")
	if timeout == "" {
		return DefaultCallTimeout * time.Second, nil
	}

	parsed, err := time.ParseDuration(timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid CALL_TIMEOUT value: %s, must be a valid duration string", timeout)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("CALL_TIMEOUT must be greater than 0")
	}
	return parsed, nil
}

// GetEnvGasMultiplier returns the multiplier applied to the suggested gas price
func GetEnvGasMultiplier() (float64, error) {
	multiplier := os.Getenv("GAS_MULTIPLIER")
	if multiplier == "" {
		return DefaultGasMultiplier, nil
	}

	parsed, err := strconv.ParseFloat(multiplier, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid GAS_MULTIPLIER value: %s, must be a number", multiplier)
	}
	if parsed < 1 {
		return 0, fmt.Errorf("GAS_MULTIPLIER must be greater than or equal to 1")
	}
	return parsed, nil
}

// GetEnvServerPort returns the API server port from environment variables
func GetEnvServerPort() (string, error) {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		return DefaultServerPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid SERVER_PORT value: %s, must be a valid integer", port)
	}
	return port, nil
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	return getEnvBool("CIRCUIT_BREAKER_ENABLED", DefaultCircuitBreakerEnabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	return getEnvPositiveInt("CIRCUIT_BREAKER_THRESHOLD", DefaultCircuitBreakerThreshold)
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	window := os.Getenv("CIRCUIT_BREAKER_WINDOW")
	if window == "" {
		return DefaultCircuitBreakerWindow * time.Second, nil
	}

	// Validate duration format
	parsed, err := time.ParseDuration(window)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_WINDOW value: %s, must be a valid duration string", window)
	}
	return parsed, nil
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	reset := os.Getenv("CIRCUIT_BREAKER_RESET")
	if reset == "" {
		return DefaultCircuitBreakerReset * time.Second, nil
	}

	// Validate duration format
	parsed, err := time.ParseDuration(reset)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_RESET value: %s, must be a valid duration string", reset)
	}
	return parsed, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = DefaultLogLevel
	}

	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return logger.InfoLevel, fmt.Errorf("invalid LOG_LEVEL value: %s, must be one of debug, info, notice, error", level)
	}
	return parsed, nil
}

// GetEnvLogColoring returns whether log output is colored
func GetEnvLogColoring() (bool, error) {
	return getEnvBool("LOG_COLORING", true)
}

func getEnvPositiveInt(name string, defaultValue int) (int, error) {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be an integer", name, value)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", name)
	}
	return parsed, nil
}

func getEnvBool(name string, defaultValue bool) (bool, error) {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue, nil
	}

	if value == "true" {
		return true, nil
	} else if value == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid %s value: %s, must be 'true' or 'false'", name, value)
}
