// Package bridge provides a client for a LI.FI compatible bridge aggregator API.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/config"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/metrics"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

// noRouteCode is the aggregator error code for "no available quotes"
const noRouteCode = 1002

var (
	// ErrNoRoute is returned when the aggregator has no route for the transfer
	ErrNoRoute = errors.New("no bridge route available")
	// ErrUnknownChain is returned for chain identifiers without a known EVM chain id
	ErrUnknownChain = errors.New("unknown chain")
	// ErrInvalidQuote is returned when a quote response fails validation
	ErrInvalidQuote = errors.New("invalid bridge quote")
	// ErrInvalidRequest is returned for quote arguments rejected before any call is made
	ErrInvalidRequest = errors.New("invalid bridge request")
)

// IsRequestError reports whether err was caused by the quote request itself
// (unknown chain, bad arguments, no route for this transfer, caller gave up)
// rather than by the aggregator being unhealthy
func IsRequestError(err error) bool {
	return errors.Is(err, ErrUnknownChain) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNoRoute) ||
		errors.Is(err, context.Canceled)
}

// QuoteResponse is the subset of the aggregator quote response the relayer uses
type QuoteResponse struct {
	Tool     string `json:"tool"`
	Estimate struct {
		ToAmount    string `json:"toAmount"`
		ToAmountMin string `json:"toAmountMin"`
	} `json:"estimate"`
	TransactionRequest struct {
		To   string `json:"to"`
		Data string `json:"data"`
	} `json:"transactionRequest"`
}

// ChainsResponse is the aggregator chain listing
type ChainsResponse struct {
	Chains []struct {
		ID   int64  `json:"id"`
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"chains"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Client represents a bridge aggregator client
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// New creates a new bridge aggregator client
func New(endpoint, apiKey string, timeout time.Duration, logger logger.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: createHTTPClient(timeout),
		logger:     logger,
	}
}

// Quote requests a quote for moving amount of wrapped gas token from sourceChain to
// the native gas token of destChain
func (c *Client) Quote(
	ctx context.Context,
	sourceChain, destChain string,
	amount *big.Int,
	from, to common.Address,
	maxSlippageBps int64,
) (models.BridgeQuote, error) {
	quote, err := c.quote(ctx, sourceChain, destChain, amount, from, to, maxSlippageBps)
	status := "success"
	switch {
	case errors.Is(err, ErrNoRoute):
		status = "no_route"
	case err != nil:
		status = "error"
	}
	metrics.BridgeQuotes.WithLabelValues(destChain, status).Inc()
	return quote, err
}

func (c *Client) quote(
	ctx context.Context,
	sourceChain, destChain string,
	amount *big.Int,
	from, to common.Address,
	maxSlippageBps int64,
) (models.BridgeQuote, error) {
	source, ok := config.GetChainInfo(sourceChain)
	if !ok {
		return models.BridgeQuote{}, fmt.Errorf("%w: %s", ErrUnknownChain, sourceChain)
	}
	dest, ok := config.GetChainInfo(destChain)
	if !ok {
		return models.BridgeQuote{}, fmt.Errorf("%w: %s", ErrUnknownChain, destChain)
	}
	if source.ChainID == dest.ChainID {
		return models.BridgeQuote{}, fmt.Errorf("%w: source and destination are both %s", ErrInvalidRequest, source.Name)
	}
	if amount == nil || amount.Sign() <= 0 {
		return models.BridgeQuote{}, fmt.Errorf("%w: bridge amount must be positive", ErrInvalidRequest)
	}
	if maxSlippageBps < 0 || maxSlippageBps > 10000 {
		return models.BridgeQuote{}, fmt.Errorf("%w: slippage must be within 0-10000 bps, got %d", ErrInvalidRequest, maxSlippageBps)
	}

	params := url.Values{}
	params.Set("fromChain", strconv.FormatInt(source.ChainID, 10))
	params.Set("toChain", strconv.FormatInt(dest.ChainID, 10))
	params.Set("fromToken", source.WETHAddress)
	params.Set("toToken", config.NativeTokenAddress)
	params.Set("fromAmount", amount.String())
	params.Set("fromAddress", from.Hex())
	params.Set("toAddress", to.Hex())
	params.Set("slippage", slippageFraction(maxSlippageBps))

	c.logger.DebugWithChain(destChain, "Requesting bridge quote from %s for %s wei", sourceChain, amount)

	body, err := c.get(ctx, "/quote", params)
	if err != nil {
		return models.BridgeQuote{}, err
	}

	var resp QuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.BridgeQuote{}, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidQuote, err)
	}
	return toBridgeQuote(resp)
}

// ListSupportedChains returns the chain identifiers the aggregator supports that the relayer knows about
func (c *Client) ListSupportedChains(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/chains", nil)
	if err != nil {
		return nil, err
	}

	var resp ChainsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode chains: %v", err)
	}

	names := make([]string, 0, len(resp.Chains))
	for _, chain := range resp.Chains {
		if name := config.GetChainName(chain.ID); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.endpoint + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-lifi-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge request %s failed: %w", path, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Error("Failed to close response body: %v", err)
		}
	}(resp.Body)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.Unmarshal(bodyBytes, &apiErr)
		if resp.StatusCode == http.StatusNotFound || apiErr.Code == noRouteCode {
			return nil, fmt.Errorf("%w: %s", ErrNoRoute, apiErr.Message)
		}
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	return bodyBytes, nil
}

// toBridgeQuote validates a raw quote response and converts it into a typed quote
func toBridgeQuote(resp QuoteResponse) (models.BridgeQuote, error) {
	if resp.Tool == "" {
		return models.BridgeQuote{}, fmt.Errorf("%w: missing tool", ErrInvalidQuote)
	}
	if !common.IsHexAddress(resp.TransactionRequest.To) || common.HexToAddress(resp.TransactionRequest.To) == (common.Address{}) {
		return models.BridgeQuote{}, fmt.Errorf("%w: bad target %q", ErrInvalidQuote, resp.TransactionRequest.To)
	}
	calldata, err := hexutil.Decode(resp.TransactionRequest.Data)
	if err != nil || len(calldata) == 0 {
		return models.BridgeQuote{}, fmt.Errorf("%w: bad calldata", ErrInvalidQuote)
	}
	estimated, ok := parseAmount(resp.Estimate.ToAmount)
	if !ok {
		return models.BridgeQuote{}, fmt.Errorf("%w: bad toAmount %q", ErrInvalidQuote, resp.Estimate.ToAmount)
	}
	minimum, ok := parseAmount(resp.Estimate.ToAmountMin)
	if !ok {
		return models.BridgeQuote{}, fmt.Errorf("%w: bad toAmountMin %q", ErrInvalidQuote, resp.Estimate.ToAmountMin)
	}
	if minimum.Cmp(estimated) > 0 {
		return models.BridgeQuote{}, fmt.Errorf("%w: minimum %s above estimate %s", ErrInvalidQuote, minimum, estimated)
	}

	return models.BridgeQuote{
		Calldata:         calldata,
		To:               common.HexToAddress(resp.TransactionRequest.To),
		MinReceive:       minimum,
		EstimatedReceive: estimated,
		Tool:             resp.Tool,
	}, nil
}

func parseAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, false
	}
	return v, true
}

// slippageFraction converts basis points to the decimal fraction the aggregator expects
func slippageFraction(bps int64) string {
	return decimal.New(bps, -4).String()
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
