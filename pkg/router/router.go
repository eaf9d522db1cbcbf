package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/bridge"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/circuitbreaker"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

// DefaultMaxSlippageBps is the default slippage bound requested from the bridge (1%)
const DefaultMaxSlippageBps int64 = 100

var (
	// ErrSlippageExceeded is returned when a quote's minimum implies more slippage than allowed
	ErrSlippageExceeded = errors.New("bridge quote exceeds slippage bound")
	// ErrBridgeUnavailable is returned while the bridge circuit breaker is open
	ErrBridgeUnavailable = errors.New("bridge temporarily unavailable")
)

// Bridge is the bridge aggregator collaborator
type Bridge interface {
	Quote(
		ctx context.Context,
		sourceChain, destChain string,
		amount *big.Int,
		from, to common.Address,
		maxSlippageBps int64,
	) (models.BridgeQuote, error)
}

// Router picks the settlement path for a redemption
type Router struct {
	bridge         Bridge
	sender         common.Address
	maxSlippageBps int64
	breaker        *circuitbreaker.CircuitBreaker
	logger         logger.Logger
}

// New creates a router. sender is the address that executes bridge calldata,
// the settlement contract. breaker may be nil.
func New(
	bridge Bridge,
	sender common.Address,
	maxSlippageBps int64,
	breaker *circuitbreaker.CircuitBreaker,
	logger logger.Logger,
) *Router {
	return &Router{
		bridge:         bridge,
		sender:         sender,
		maxSlippageBps: maxSlippageBps,
		breaker:        breaker,
		logger:         logger,
	}
}

// RouteRedeem returns calldata and bridge info for delivering amount of the
// position's gas token to recipient on the position's target chain
func (r *Router) RouteRedeem(
	ctx context.Context,
	position *models.Position,
	amount *big.Int,
	sourceChain string,
	recipient common.Address,
) (models.Route, error) {
	if strings.EqualFold(sourceChain, position.TargetChain) {
		r.logger.DebugWithChain(position.TargetChain, "Token %s redeems directly, no bridge needed", position.TokenID)
		return models.Route{
			Calldata:   []byte{},
			BridgeInfo: models.BridgeInfo{Type: models.BridgeTypeDirect},
		}, nil
	}

	if r.breaker != nil && r.breaker.IsOpen() {
		return models.Route{}, ErrBridgeUnavailable
	}

	quote, err := r.bridge.Quote(ctx, sourceChain, position.TargetChain, amount, r.sender, recipient, r.maxSlippageBps)
	if err != nil {
		// only aggregator outages count against the shared breaker
		if r.breaker != nil && !bridge.IsRequestError(err) {
			r.breaker.RecordFailure()
		}
		return models.Route{}, fmt.Errorf("bridge quote %s -> %s failed: %w", sourceChain, position.TargetChain, err)
	}
	if r.breaker != nil {
		r.breaker.RecordSuccess()
	}

	if exceedsSlippage(quote.EstimatedReceive, quote.MinReceive, r.maxSlippageBps) {
		r.logger.NoticeWithChain(position.TargetChain, "Rejecting %s quote: min %s of estimate %s exceeds %d bps",
			quote.Tool, quote.MinReceive, quote.EstimatedReceive, r.maxSlippageBps)
		return models.Route{}, fmt.Errorf("%w: min %s of estimate %s, bound %d bps",
			ErrSlippageExceeded, quote.MinReceive, quote.EstimatedReceive, r.maxSlippageBps)
	}

	r.logger.InfoWithChain(position.TargetChain, "Routing token %s via %s, estimated receive %s",
		position.TokenID, quote.Tool, quote.EstimatedReceive)

	return models.Route{
		Calldata: quote.Calldata,
		BridgeInfo: models.BridgeInfo{
			Type:             models.BridgeTypeBridge,
			Tool:             quote.Tool,
			Target:           quote.To,
			EstimatedReceive: quote.EstimatedReceive,
			MinReceive:       quote.MinReceive,
		},
	}, nil
}

// exceedsSlippage reports whether (estimated - min) / estimated > bps / 10000
func exceedsSlippage(estimated, minimum *big.Int, bps int64) bool {
	if estimated == nil || minimum == nil || estimated.Sign() <= 0 {
		return true
	}
	loss := new(big.Int).Sub(estimated, minimum)
	lhs := loss.Mul(loss, big.NewInt(10000))
	rhs := new(big.Int).Mul(estimated, big.NewInt(bps))
	return lhs.Cmp(rhs) > 0
}
