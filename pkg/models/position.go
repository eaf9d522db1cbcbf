package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PositionStatus is the lifecycle state of a position at a given instant
type PositionStatus string

const (
	PositionActive    PositionStatus = "active"
	PositionExhausted PositionStatus = "exhausted"
	PositionExpired   PositionStatus = "expired"
)

// PositionDetail is the position record stored by the settlement contract
type PositionDetail struct {
	TotalAmount       *big.Int
	RemainingAmount   *big.Int
	LockedPrice       *big.Int
	PurchaseTimestamp int64 // seconds
	ExpiryTimestamp   int64 // seconds
	TargetChain       string
}

// Position is a gas-futures holding, one-to-one with a settlement token id
type Position struct {
	TokenID *big.Int
	Owner   common.Address
	PositionDetail
}

// IsExpired returns true once now has reached the expiry timestamp
func (p *Position) IsExpired(now time.Time) bool {
	return now.Unix() >= p.ExpiryTimestamp
}

// Status returns the lifecycle state at now. Expiry takes precedence over exhaustion.
func (p *Position) Status(now time.Time) PositionStatus {
	if p.IsExpired(now) {
		return PositionExpired
	}
	if p.RemainingAmount == nil || p.RemainingAmount.Sign() == 0 {
		return PositionExhausted
	}
	return PositionActive
}
