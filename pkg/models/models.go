package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GasPrice is a point-in-time gas price quote for one destination chain
type GasPrice struct {
	Chain       string
	PriceWei    *big.Int
	PriceGwei   string // display only
	High24h     *big.Int
	Low24h      *big.Int
	TimestampMs int64
	GasToken    string
}

// PriceReading is the raw price record published by the oracle for a chain
type PriceReading struct {
	PriceWei    *big.Int
	High24h     *big.Int
	Low24h      *big.Int
	TimestampMs int64
	GasToken    string
}

// BridgeType tells how a redemption is delivered
type BridgeType string

const (
	BridgeTypeDirect BridgeType = "direct"
	BridgeTypeBridge BridgeType = "bridge"
)

// BridgeQuote is a bridge aggregator quote for moving value to a position's target chain
type BridgeQuote struct {
	Calldata         []byte
	To               common.Address
	MinReceive       *big.Int
	EstimatedReceive *big.Int
	Tool             string
}

// BridgeInfo describes how a redemption was routed
type BridgeInfo struct {
	Type             BridgeType
	Tool             string
	Target           common.Address
	EstimatedReceive *big.Int
	MinReceive       *big.Int
}

// Route is the settlement path chosen for a redemption
type Route struct {
	Calldata   []byte
	BridgeInfo BridgeInfo
}

// PurchaseReceipt is what the settlement contract reports for a mined purchase
type PurchaseReceipt struct {
	TxHash          common.Hash
	TokenID         *big.Int
	ExpiryTimestamp int64
}

// PurchaseResult is returned after a successful purchase
type PurchaseResult struct {
	TxHash             common.Hash
	TokenID            *big.Int
	LockedGasPriceWei  *big.Int
	LockedGasPriceGwei string
	ExpiryTimestamp    int64
}

// RedeemResult is returned after a successful redemption
type RedeemResult struct {
	TxHash       common.Hash
	WETHRedeemed *big.Int
	TargetChain  string
	BridgeInfo   BridgeInfo
}
