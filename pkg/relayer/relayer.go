// Package relayer runs the purchase and redeem workflows. Each workflow checks
// every precondition before it issues its single settlement call, so a failed
// request never leaves a partial mutation behind.
package relayer

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/metrics"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/oracle"
)

const (
	workflowPurchase = "purchase"
	workflowRedeem   = "redeem"
)

// Settlement is the settlement collaborator as used by the workflows
type Settlement interface {
	IsChainSupported(ctx context.Context, chain string) (bool, error)
	Purchase(
		ctx context.Context,
		usdcAmount, minOut, lockedPrice *big.Int,
		chain string,
		expirySeconds *big.Int,
		buyer common.Address,
	) (models.PurchaseReceipt, error)
	Redeem(ctx context.Context, tokenID, amount *big.Int, bridgeCalldata []byte, recipient common.Address) (common.Hash, error)
}

// PriceGate reads prices and applies the staleness policy
type PriceGate interface {
	GetPrice(ctx context.Context, chain string) (models.GasPrice, error)
	IsStale(price models.GasPrice, maxAgeMs int64) bool
	Age(price models.GasPrice) int64
}

// Verifier checks intent signatures
type Verifier interface {
	VerifyPurchase(intent models.PurchaseIntent, signature []byte) bool
	VerifyRedeem(intent models.RedeemIntent, signature []byte) bool
}

// PositionReader resolves a token id to a position
type PositionReader interface {
	GetPosition(ctx context.Context, tokenID *big.Int) (*models.Position, error)
}

// Router picks the settlement path for a redemption
type Router interface {
	RouteRedeem(
		ctx context.Context,
		position *models.Position,
		amount *big.Int,
		sourceChain string,
		recipient common.Address,
	) (models.Route, error)
}

// Config holds the workflow settings
type Config struct {
	SourceChain   string
	MaxPriceAgeMs int64
	CallTimeout   time.Duration
}

// Relayer runs the purchase and redeem workflows
type Relayer struct {
	cfg        Config
	settlement Settlement
	prices     PriceGate
	verifier   Verifier
	positions  PositionReader
	router     Router
	now        func() time.Time
	logger     logger.Logger
}

// Option configures a Relayer
type Option func(*Relayer)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(r *Relayer) {
		r.now = now
	}
}

// New creates a new relayer
func New(
	cfg Config,
	settlement Settlement,
	prices PriceGate,
	verifier Verifier,
	positions PositionReader,
	router Router,
	log logger.Logger,
	opts ...Option,
) *Relayer {
	if cfg.MaxPriceAgeMs <= 0 {
		cfg.MaxPriceAgeMs = oracle.DefaultMaxPriceAgeMs
	}
	r := &Relayer{
		cfg:        cfg,
		settlement: settlement,
		prices:     prices,
		verifier:   verifier,
		positions:  positions,
		router:     router,
		now:        time.Now,
		logger:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Purchase validates a signed purchase intent against a fresh oracle price
// and mints a position locked at that price
func (r *Relayer) Purchase(ctx context.Context, req PurchaseRequest) (result models.PurchaseResult, err error) {
	defer r.observe(workflowPurchase, time.Now(), &err)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	intent, sig, f := parsePurchase(req)
	if f != nil {
		return models.PurchaseResult{}, f
	}
	chain := intent.TargetChain

	supported, err := r.settlement.IsChainSupported(ctx, chain)
	if err != nil {
		return models.PurchaseResult{}, newFailure(ErrInternal, "failed to check chain support").withCause(err)
	}
	if !supported {
		return models.PurchaseResult{}, newFailure(ErrUnsupportedChain, "chain %s is not supported", chain).
			with("targetChain", chain)
	}

	price, err := r.prices.GetPrice(ctx, chain)
	if err != nil {
		if errors.Is(err, oracle.ErrPriceNotFound) {
			return models.PurchaseResult{}, newFailure(ErrPriceUnavailable, "no price available for %s", chain).
				with("targetChain", chain)
		}
		return models.PurchaseResult{}, newFailure(ErrInternal, "failed to read price").withCause(err)
	}

	if r.prices.IsStale(price, r.cfg.MaxPriceAgeMs) {
		return models.PurchaseResult{}, newFailure(ErrStalePrice, "price for %s is too old", chain).
			with("ageMs", r.prices.Age(price)).
			with("maxAgeMs", r.cfg.MaxPriceAgeMs)
	}

	if !r.verifier.VerifyPurchase(intent, sig) {
		return models.PurchaseResult{}, newFailure(ErrSignatureInvalid, "signature does not match purchase intent")
	}

	lockedPrice := new(big.Int).Set(price.PriceWei)
	expirySeconds := new(big.Int).SetUint64(intent.ExpiryDays * secondsPerDay)
	minOut := big.NewInt(0)

	r.logger.InfoWithChain(chain, "Purchasing for %s: %s USDC units at %s gwei for %d days",
		intent.User.Hex(), intent.USDCAmount, price.PriceGwei, intent.ExpiryDays)

	receipt, err := r.settlement.Purchase(ctx, intent.USDCAmount, minOut, lockedPrice, chain, expirySeconds, intent.User)
	if err != nil {
		f := newFailure(ErrSettlementCall, "purchase transaction failed").withCause(err)
		if receipt.TxHash != (common.Hash{}) {
			f.with("txHash", receipt.TxHash.Hex())
		}
		return models.PurchaseResult{}, f
	}

	return models.PurchaseResult{
		TxHash:             receipt.TxHash,
		TokenID:            receipt.TokenID,
		LockedGasPriceWei:  lockedPrice,
		LockedGasPriceGwei: oracle.FormatGwei(lockedPrice),
		ExpiryTimestamp:    receipt.ExpiryTimestamp,
	}, nil
}

// Redeem validates a signed redeem intent against the current position and
// releases the resolved amount, bridging it when the position targets another chain
func (r *Relayer) Redeem(ctx context.Context, req RedeemRequest) (result models.RedeemResult, err error) {
	defer r.observe(workflowRedeem, time.Now(), &err)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	intent, sig, f := parseRedeem(req)
	if f != nil {
		return models.RedeemResult{}, f
	}

	position, err := r.positions.GetPosition(ctx, intent.TokenID)
	if err != nil {
		return models.RedeemResult{}, newFailure(ErrPositionNotFound, "position %s not found", intent.TokenID).
			with("tokenId", intent.TokenID.String())
	}

	if position.Owner != intent.User {
		return models.RedeemResult{}, newFailure(ErrNotOwner, "%s does not own position %s", intent.User.Hex(), intent.TokenID)
	}

	if position.IsExpired(r.now()) {
		return models.RedeemResult{}, newFailure(ErrPositionExpired, "position %s has expired, use the expired reclaim path", intent.TokenID).
			with("expiryTimestamp", position.ExpiryTimestamp)
	}

	remaining := position.RemainingAmount
	if remaining == nil {
		remaining = new(big.Int)
	}
	amount := intent.WETHAmount.Resolve(remaining)
	if amount.Sign() <= 0 || amount.Cmp(remaining) > 0 {
		return models.RedeemResult{}, newFailure(ErrInsufficientBalance, "requested %s exceeds remaining %s", amount, remaining).
			with("requested", amount.String()).
			with("remaining", remaining.String())
	}

	if !r.verifier.VerifyRedeem(intent, sig) {
		return models.RedeemResult{}, newFailure(ErrSignatureInvalid, "signature does not match redeem intent")
	}

	route, err := r.router.RouteRedeem(ctx, position, amount, r.cfg.SourceChain, intent.User)
	if err != nil {
		return models.RedeemResult{}, newFailure(ErrBridgeQuote, "failed to route redemption to %s", position.TargetChain).
			withCause(err)
	}

	r.logger.InfoWithChain(position.TargetChain, "Redeeming %s wei of position %s for %s (%s)",
		amount, intent.TokenID, intent.User.Hex(), route.BridgeInfo.Type)

	txHash, err := r.settlement.Redeem(ctx, intent.TokenID, amount, route.Calldata, intent.User)
	if err != nil {
		return models.RedeemResult{}, newFailure(ErrSettlementCall, "redeem transaction failed").withCause(err)
	}

	return models.RedeemResult{
		TxHash:       txHash,
		WETHRedeemed: amount,
		TargetChain:  position.TargetChain,
		BridgeInfo:   route.BridgeInfo,
	}, nil
}

func (r *Relayer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.CallTimeout)
}

// observe records the workflow outcome and turns untagged errors into ErrInternal failures
func (r *Relayer) observe(workflow string, start time.Time, err *error) {
	metrics.RequestDuration.WithLabelValues(workflow).Observe(time.Since(start).Seconds())

	if *err == nil {
		metrics.Requests.WithLabelValues(workflow, "success").Inc()
		return
	}

	f := AsFailure(*err)
	*err = f
	metrics.Requests.WithLabelValues(workflow, f.Code()).Inc()

	if f.Class() == ClassServerError {
		r.logger.Error("%s failed: %v", workflow, f)
	} else {
		r.logger.Debug("%s rejected: %v", workflow, f)
	}
}
