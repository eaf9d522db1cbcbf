package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/bridge"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/circuitbreaker"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

var (
	settlementAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	userAddr       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	lifiDiamond    = common.HexToAddress("0x1231DEB6f5749EF6cE6943a275A1D3E7486F4EaE")
)

type fakeBridge struct {
	quote models.BridgeQuote
	err   error
	calls int

	lastSource, lastDest string
	lastAmount           *big.Int
	lastFrom, lastTo     common.Address
	lastBps              int64
}

func (f *fakeBridge) Quote(
	_ context.Context,
	sourceChain, destChain string,
	amount *big.Int,
	from, to common.Address,
	maxSlippageBps int64,
) (models.BridgeQuote, error) {
	f.calls++
	f.lastSource, f.lastDest = sourceChain, destChain
	f.lastAmount = amount
	f.lastFrom, f.lastTo = from, to
	f.lastBps = maxSlippageBps
	return f.quote, f.err
}

func position(targetChain string) *models.Position {
	return &models.Position{
		TokenID: big.NewInt(57),
		Owner:   userAddr,
		PositionDetail: models.PositionDetail{
			TotalAmount:     big.NewInt(1_000_000),
			RemainingAmount: big.NewInt(1_000_000),
			TargetChain:     targetChain,
		},
	}
}

func quote(estimated, minimum int64) models.BridgeQuote {
	return models.BridgeQuote{
		Calldata:         []byte{0xca, 0xfe},
		To:               lifiDiamond,
		MinReceive:       big.NewInt(minimum),
		EstimatedReceive: big.NewInt(estimated),
		Tool:             "stargate",
	}
}

func TestRouteRedeem(t *testing.T) {
	ctx := context.Background()
	amount := big.NewInt(500_000)

	t.Run("same chain is direct and never calls the bridge", func(t *testing.T) {
		bridge := &fakeBridge{}
		r := New(bridge, settlementAddr, DefaultMaxSlippageBps, nil, &logger.EmptyLogger{})

		route, err := r.RouteRedeem(ctx, position("base"), amount, "base", userAddr)
		require.NoError(t, err)
		assert.Equal(t, models.BridgeTypeDirect, route.BridgeInfo.Type)
		assert.Empty(t, route.Calldata)
		assert.Equal(t, 0, bridge.calls)

		// chain identifiers compare case-insensitively
		_, err = r.RouteRedeem(ctx, position("Base"), amount, "base", userAddr)
		require.NoError(t, err)
		assert.Equal(t, 0, bridge.calls)
	})

	t.Run("cross chain uses the bridge quote", func(t *testing.T) {
		bridge := &fakeBridge{quote: quote(1_000, 995)}
		r := New(bridge, settlementAddr, DefaultMaxSlippageBps, nil, &logger.EmptyLogger{})

		route, err := r.RouteRedeem(ctx, position("arbitrum"), amount, "base", userAddr)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xca, 0xfe}, route.Calldata)
		assert.Equal(t, models.BridgeInfo{
			Type:             models.BridgeTypeBridge,
			Tool:             "stargate",
			Target:           lifiDiamond,
			EstimatedReceive: big.NewInt(1_000),
			MinReceive:       big.NewInt(995),
		}, route.BridgeInfo)

		assert.Equal(t, 1, bridge.calls)
		assert.Equal(t, "base", bridge.lastSource)
		assert.Equal(t, "arbitrum", bridge.lastDest)
		assert.Equal(t, amount, bridge.lastAmount)
		assert.Equal(t, settlementAddr, bridge.lastFrom)
		assert.Equal(t, userAddr, bridge.lastTo)
		assert.Equal(t, DefaultMaxSlippageBps, bridge.lastBps)
	})

	t.Run("quote beyond slippage bound is rejected", func(t *testing.T) {
		bridge := &fakeBridge{quote: quote(1_000, 989)}
		r := New(bridge, settlementAddr, DefaultMaxSlippageBps, nil, &logger.EmptyLogger{})

		_, err := r.RouteRedeem(ctx, position("arbitrum"), amount, "base", userAddr)
		assert.ErrorIs(t, err, ErrSlippageExceeded)
	})

	t.Run("bridge failure is wrapped", func(t *testing.T) {
		cause := errors.New("no route")
		bridge := &fakeBridge{err: cause}
		r := New(bridge, settlementAddr, DefaultMaxSlippageBps, nil, &logger.EmptyLogger{})

		_, err := r.RouteRedeem(ctx, position("arbitrum"), amount, "base", userAddr)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("open breaker fails fast but direct still works", func(t *testing.T) {
		bridge := &fakeBridge{err: errors.New("timeout")}
		breaker := circuitbreaker.NewCircuitBreaker("bridge", true, 2, time.Minute, time.Minute, &logger.EmptyLogger{})
		r := New(bridge, settlementAddr, DefaultMaxSlippageBps, breaker, &logger.EmptyLogger{})

		for i := 0; i < 2; i++ {
			_, err := r.RouteRedeem(ctx, position("arbitrum"), amount, "base", userAddr)
			require.Error(t, err)
		}
		assert.Equal(t, 2, bridge.calls)

		_, err := r.RouteRedeem(ctx, position("arbitrum"), amount, "base", userAddr)
		assert.ErrorIs(t, err, ErrBridgeUnavailable)
		assert.Equal(t, 2, bridge.calls)

		route, err := r.RouteRedeem(ctx, position("base"), amount, "base", userAddr)
		require.NoError(t, err)
		assert.Equal(t, models.BridgeTypeDirect, route.BridgeInfo.Type)
	})
}

func TestExceedsSlippage(t *testing.T) {
	tests := []struct {
		name      string
		estimated *big.Int
		minimum   *big.Int
		bps       int64
		want      bool
	}{
		{"exactly at bound", big.NewInt(10_000), big.NewInt(9_900), 100, false},
		{"one unit past bound", big.NewInt(10_000), big.NewInt(9_899), 100, true},
		{"no slippage", big.NewInt(10_000), big.NewInt(10_000), 0, false},
		{"zero bound any loss", big.NewInt(10_000), big.NewInt(9_999), 0, true},
		{"zero estimate", big.NewInt(0), big.NewInt(0), 100, true},
		{"missing values", nil, big.NewInt(1), 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exceedsSlippage(tt.estimated, tt.minimum, tt.bps))
		})
	}
}

func TestBreakerIgnoresRequestErrors(t *testing.T) {
	ctx := context.Background()
	amount := big.NewInt(500_000)

	quoteCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quoteCalls++
		if r.URL.Query().Get("fromAmount") == "1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"No available quotes for the requested transfer","code":1002}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{
			"tool": "across",
			"estimate": {"toAmount": "500000", "toAmountMin": "497500"},
			"transactionRequest": {"to": %q, "data": "0xdeadbeef"}
		}`, lifiDiamond.Hex())
	}))
	defer server.Close()

	aggregator := bridge.New(server.URL, "", 5*time.Second, &logger.EmptyLogger{})
	breaker := circuitbreaker.NewCircuitBreaker("bridge", true, 3, time.Minute, time.Minute, &logger.EmptyLogger{})
	r := New(aggregator, settlementAddr, DefaultMaxSlippageBps, breaker, &logger.EmptyLogger{})

	// a target chain the settlement contract supports but the chain table does not
	for i := 0; i < 5; i++ {
		_, err := r.RouteRedeem(ctx, position("zksync"), amount, "base", userAddr)
		assert.ErrorIs(t, err, bridge.ErrUnknownChain)
	}
	// no route for this particular transfer
	for i := 0; i < 5; i++ {
		_, err := r.RouteRedeem(ctx, position("arbitrum"), big.NewInt(1), "base", userAddr)
		assert.ErrorIs(t, err, bridge.ErrNoRoute)
	}
	assert.False(t, breaker.IsOpen())
	assert.Equal(t, 0, breaker.GetState().FailureCount)
	assert.Equal(t, 5, quoteCalls)

	route, err := r.RouteRedeem(ctx, position("arbitrum"), amount, "base", userAddr)
	require.NoError(t, err)
	assert.Equal(t, models.BridgeTypeBridge, route.BridgeInfo.Type)
	assert.Equal(t, lifiDiamond, route.BridgeInfo.Target)
}

func TestBreakerTripsOnAggregatorOutage(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	aggregator := bridge.New(server.URL, "", 5*time.Second, &logger.EmptyLogger{})
	breaker := circuitbreaker.NewCircuitBreaker("bridge", true, 3, time.Minute, time.Minute, &logger.EmptyLogger{})
	r := New(aggregator, settlementAddr, DefaultMaxSlippageBps, breaker, &logger.EmptyLogger{})

	for i := 0; i < 3; i++ {
		_, err := r.RouteRedeem(ctx, position("arbitrum"), big.NewInt(500_000), "base", userAddr)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBridgeUnavailable)
	}

	_, err := r.RouteRedeem(ctx, position("arbitrum"), big.NewInt(500_000), "base", userAddr)
	assert.ErrorIs(t, err, ErrBridgeUnavailable)
}
