package oracle

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/big"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/config"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/metrics"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

const (
	// DefaultMaxPriceAgeMs is the age after which a price may not be used for a purchase
	DefaultMaxPriceAgeMs = 300000

	gweiExponent    = -9
	displayDecimals = 6
)

// ErrPriceNotFound is returned when no usable price exists for a chain
var ErrPriceNotFound = models.ErrPriceNotFound

// Reader is the oracle collaborator
type Reader interface {
	ListSupportedChains(ctx context.Context) ([]string, error)
	ReadPrice(ctx context.Context, chain string) (models.PriceReading, error)
}

// Gate reads prices from the oracle and applies the staleness policy
type Gate struct {
	reader Reader
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Gate
type Option func(*Gate)

// WithClock overrides the time source used for staleness checks
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// NewGate creates a new price gate
func NewGate(reader Reader, log logger.Logger, opts ...Option) *Gate {
	g := &Gate{
		reader: reader,
		now:    time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetPrice returns a freshly read price for the chain.
// Missing and malformed records both resolve to ErrPriceNotFound; transport errors are returned wrapped.
func (g *Gate) GetPrice(ctx context.Context, chain string) (models.GasPrice, error) {
	reading, err := g.reader.ReadPrice(ctx, chain)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPriceNotFound):
			metrics.OracleReads.WithLabelValues(chain, "not_found").Inc()
			return models.GasPrice{}, ErrPriceNotFound
		case errors.Is(err, models.ErrMalformedResponse):
			metrics.OracleReads.WithLabelValues(chain, "malformed").Inc()
			g.logger.ErrorWithChain(chain, "Oracle returned a malformed price record: %v", err)
			return models.GasPrice{}, ErrPriceNotFound
		default:
			metrics.OracleReads.WithLabelValues(chain, "error").Inc()
			return models.GasPrice{}, fmt.Errorf("oracle read for %s: %w", chain, err)
		}
	}
	metrics.OracleReads.WithLabelValues(chain, "success").Inc()

	price := toGasPrice(chain, reading)
	gwei, _ := decimal.NewFromBigInt(price.PriceWei, gweiExponent).Float64()
	metrics.GasPrice.WithLabelValues(chain).Set(gwei)
	return price, nil
}

// IsStale returns true when the price is older than maxAgeMs. A price exactly maxAgeMs old is still fresh.
func (g *Gate) IsStale(price models.GasPrice, maxAgeMs int64) bool {
	return g.Age(price) > maxAgeMs
}

// Age returns how old the price is in milliseconds
func (g *Gate) Age(price models.GasPrice) int64 {
	return g.now().UnixMilli() - price.TimestampMs
}

// Prices lists the oracle's supported chains and returns a lazy sequence that
// reads each chain's price on demand. Chains whose price cannot be read are
// logged and skipped.
func (g *Gate) Prices(ctx context.Context) (iter.Seq[models.GasPrice], error) {
	chains, err := g.reader.ListSupportedChains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list oracle chains: %w", err)
	}

	return func(yield func(models.GasPrice) bool) {
		for _, chain := range chains {
			if ctx.Err() != nil {
				return
			}
			price, err := g.GetPrice(ctx, chain)
			if err != nil {
				g.logger.ErrorWithChain(chain, "Skipping chain in price listing: %v", err)
				continue
			}
			if !yield(price) {
				return
			}
		}
	}, nil
}

// GetAllPrices resolves the price of every supported chain
func (g *Gate) GetAllPrices(ctx context.Context) ([]models.GasPrice, error) {
	seq, err := g.Prices(ctx)
	if err != nil {
		return nil, err
	}
	prices := slices.Collect(seq)
	if prices == nil {
		prices = []models.GasPrice{}
	}
	return prices, nil
}

// FormatGwei renders a wei amount as gwei with 6 decimals, rounding half away from zero
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return decimal.Zero.StringFixed(displayDecimals)
	}
	return decimal.NewFromBigInt(wei, gweiExponent).StringFixed(displayDecimals)
}

func toGasPrice(chain string, reading models.PriceReading) models.GasPrice {
	priceWei := new(big.Int).Set(reading.PriceWei)

	high := priceWei
	if reading.High24h != nil && reading.High24h.Sign() > 0 {
		high = reading.High24h
	}
	low := priceWei
	if reading.Low24h != nil && reading.Low24h.Sign() > 0 {
		low = reading.Low24h
	}

	// older oracle deployments leave the symbol empty
	gasToken := reading.GasToken
	if gasToken == "" {
		if info, ok := config.GetChainInfo(chain); ok {
			gasToken = info.GasToken
		}
	}

	return models.GasPrice{
		Chain:       chain,
		PriceWei:    priceWei,
		PriceGwei:   FormatGwei(priceWei),
		High24h:     new(big.Int).Set(high),
		Low24h:      new(big.Int).Set(low),
		TimestampMs: reading.TimestampMs,
		GasToken:    gasToken,
	}
}
