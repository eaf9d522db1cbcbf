package config

import "strings"

// ChainInfo holds static information about a chain the relayer can settle to
type ChainInfo struct {
	Name          string
	ChainID       int64
	GasToken      string
	WETHAddress   string
	DefaultRPCURL string
}

// NativeTokenAddress is the placeholder address bridge aggregators use for a chain's native gas token
const NativeTokenAddress = "0x0000000000000000000000000000000000000000"

var chains = map[string]ChainInfo{
	"ethereum": {
		Name:          "ethereum",
		ChainID:       1,
		GasToken:      "ETH",
		WETHAddress:   "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		DefaultRPCURL: "https://eth.llamarpc.com",
	},
	"base": {
		Name:          "base",
		ChainID:       8453,
		GasToken:      "ETH",
		WETHAddress:   "0x4200000000000000000000000000000000000006",
		DefaultRPCURL: "https://mainnet.base.org",
	},
	"optimism": {
		Name:          "optimism",
		ChainID:       10,
		GasToken:      "ETH",
		WETHAddress:   "0x4200000000000000000000000000000000000006",
		DefaultRPCURL: "https://mainnet.optimism.io",
	},
	"arbitrum": {
		Name:          "arbitrum",
		ChainID:       42161,
		GasToken:      "ETH",
		WETHAddress:   "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
		DefaultRPCURL: "https://arb1.arbitrum.io/rpc",
	},
	"polygon": {
		Name:          "polygon",
		ChainID:       137,
		GasToken:      "POL",
		WETHAddress:   "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619",
		DefaultRPCURL: "https://polygon-rpc.com",
	},
	"avalanche": {
		Name:          "avalanche",
		ChainID:       43114,
		GasToken:      "AVAX",
		WETHAddress:   "0x49D5c2BdFfac6CE2BFdB6640F4F80f226bc10bAB",
		DefaultRPCURL: "https://avalanche-c-chain-rpc.publicnode.com",
	},
	"bsc": {
		Name:          "bsc",
		ChainID:       56,
		GasToken:      "BNB",
		WETHAddress:   "0x2170Ed0880ac9A755fd29B2688956BD959F933F8",
		DefaultRPCURL: "https://bsc-dataseed.bnbchain.org",
	},
}

// GetChainInfo returns the static information for a chain identifier, matched case-insensitively
func GetChainInfo(name string) (ChainInfo, bool) {
	info, ok := chains[strings.ToLower(name)]
	return info, ok
}

// GetChainID returns the EVM chain ID for a chain identifier, or 0 if unknown
func GetChainID(name string) int64 {
	info, ok := GetChainInfo(name)
	if !ok {
		return 0
	}
	return info.ChainID
}

// GetChainName returns the chain identifier for an EVM chain ID, or an empty string if unknown
func GetChainName(chainID int64) string {
	for name, info := range chains {
		if info.ChainID == chainID {
			return name
		}
	}
	return ""
}
