package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RedeemAllSentinel requests the full remaining balance of a position
const RedeemAllSentinel = "max"

// PurchaseIntent is a user-signed request to buy a gas-futures position
type PurchaseIntent struct {
	User        common.Address
	USDCAmount  *big.Int
	TargetChain string
	ExpiryDays  uint64
	Timestamp   uint64
}

// RedeemIntent is a user-signed request to redeem part or all of a position
type RedeemIntent struct {
	User       common.Address
	TokenID    *big.Int
	WETHAmount RedeemAmount
	Timestamp  uint64
}

// RedeemAmount is either a literal amount or the full remaining balance
type RedeemAmount struct {
	All    bool
	Amount *big.Int
}

// ParseRedeemAmount parses a redeem amount in its canonical form: the lowercase "max"
// sentinel or a positive decimal integer without sign, whitespace or leading zeros.
// The string is signed as-is, so any other spelling of the same value is rejected.
func ParseRedeemAmount(s string) (RedeemAmount, error) {
	if s == RedeemAllSentinel {
		return RedeemAmount{All: true}, nil
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return RedeemAmount{}, fmt.Errorf("invalid amount: %q", s)
	}
	if amount.Sign() <= 0 {
		return RedeemAmount{}, fmt.Errorf("amount must be positive: %s", s)
	}
	if amount.String() != s {
		return RedeemAmount{}, fmt.Errorf("amount not in canonical form: %q", s)
	}
	return RedeemAmount{Amount: amount}, nil
}

// String returns the canonical form that is signed by the user
func (a RedeemAmount) String() string {
	if a.All {
		return RedeemAllSentinel
	}
	if a.Amount == nil {
		return ""
	}
	return a.Amount.String()
}

// Resolve returns the amount to redeem given the position's remaining balance
func (a RedeemAmount) Resolve(remaining *big.Int) *big.Int {
	if a.All {
		return new(big.Int).Set(remaining)
	}
	return new(big.Int).Set(a.Amount)
}
