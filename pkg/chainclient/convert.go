package chainclient

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/contracts"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

// toPriceReading validates a raw oracle record. An all-zero record is how the
// oracle reports a chain it has no price for.
func toPriceReading(raw contracts.GasOracleGasPrice) (models.PriceReading, error) {
	if raw.PriceWei == nil || raw.High24h == nil || raw.Low24h == nil {
		return models.PriceReading{}, fmt.Errorf("%w: missing price fields", ErrMalformedResponse)
	}
	if raw.PriceWei.Sign() == 0 && raw.TimestampMs == 0 {
		return models.PriceReading{}, ErrPriceNotFound
	}
	if raw.TimestampMs == 0 || raw.TimestampMs > math.MaxInt64 {
		return models.PriceReading{}, fmt.Errorf("%w: invalid timestamp %d", ErrMalformedResponse, raw.TimestampMs)
	}

	return models.PriceReading{
		PriceWei:    new(big.Int).Set(raw.PriceWei),
		High24h:     new(big.Int).Set(raw.High24h),
		Low24h:      new(big.Int).Set(raw.Low24h),
		TimestampMs: int64(raw.TimestampMs),
		GasToken:    raw.GasToken,
	}, nil
}

// toPositionDetail validates a raw settlement position record
func toPositionDetail(raw contracts.GasFuturesPosition) (models.PositionDetail, error) {
	if raw.TotalAmount == nil || raw.RemainingAmount == nil || raw.LockedPrice == nil {
		return models.PositionDetail{}, fmt.Errorf("%w: missing position fields", ErrMalformedResponse)
	}
	// unminted ids read back as the zero struct
	if raw.TotalAmount.Sign() == 0 && raw.ExpiryTimestamp == 0 {
		return models.PositionDetail{}, ErrTokenNotFound
	}
	if raw.RemainingAmount.Cmp(raw.TotalAmount) > 0 {
		return models.PositionDetail{}, fmt.Errorf("%w: remaining %s exceeds total %s",
			ErrMalformedResponse, raw.RemainingAmount, raw.TotalAmount)
	}
	if raw.ExpiryTimestamp <= raw.PurchaseTimestamp {
		return models.PositionDetail{}, fmt.Errorf("%w: expiry %d not after purchase %d",
			ErrMalformedResponse, raw.ExpiryTimestamp, raw.PurchaseTimestamp)
	}
	if raw.ExpiryTimestamp > math.MaxInt64 {
		return models.PositionDetail{}, fmt.Errorf("%w: expiry out of range", ErrMalformedResponse)
	}
	if strings.TrimSpace(raw.TargetChain) == "" {
		return models.PositionDetail{}, fmt.Errorf("%w: empty target chain", ErrMalformedResponse)
	}

	return models.PositionDetail{
		TotalAmount:       new(big.Int).Set(raw.TotalAmount),
		RemainingAmount:   new(big.Int).Set(raw.RemainingAmount),
		LockedPrice:       new(big.Int).Set(raw.LockedPrice),
		PurchaseTimestamp: int64(raw.PurchaseTimestamp),
		ExpiryTimestamp:   int64(raw.ExpiryTimestamp),
		TargetChain:       raw.TargetChain,
	}, nil
}

// toOwner rejects the zero address, which ERC-721 implementations never report for a live token
func toOwner(owner common.Address) (common.Address, error) {
	if owner == (common.Address{}) {
		return common.Address{}, ErrTokenNotFound
	}
	return owner, nil
}

// isRevert reports whether a call error is a contract revert rather than a transport failure
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "nonexistent token") ||
		strings.Contains(msg, "invalid token id")
}
