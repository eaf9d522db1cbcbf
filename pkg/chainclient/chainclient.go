package chainclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/contracts"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/metrics"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

var (
	// ErrTokenNotFound is returned when a token id does not exist on the settlement contract
	ErrTokenNotFound = models.ErrTokenNotFound

	// ErrPriceNotFound is returned when the oracle holds no price for a chain
	ErrPriceNotFound = models.ErrPriceNotFound

	// ErrMalformedResponse is returned when a contract returns data that violates its documented shape
	ErrMalformedResponse = models.ErrMalformedResponse

	// ErrTransactionReverted is returned when a settlement transaction is mined with a failed status
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrSendOutcomeUnknown is returned when a submission failed in a way that does not
	// prove the node rejected it; the transaction may still be mined
	ErrSendOutcomeUnknown = errors.New("transaction submission outcome unknown")
)

const gasPriceTimeout = 10 * time.Second

// Backend is the subset of an Ethereum client the relayer needs
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Config holds the addresses and tuning of the settlement chain
type Config struct {
	Chain             string
	OracleAddress     common.Address
	SettlementAddress common.Address
	GasMultiplier     float64
}

// Client talks to the oracle and settlement contracts on the source chain
type Client struct {
	chain             string
	backend           Backend
	oracle            *contracts.GasOracle
	settlement        *contracts.GasFutures
	settlementAddress common.Address
	purchasedTopic    common.Hash
	credential        *Credential
	nonces            *NonceTracker
	gasMultiplier     float64
	sendBackoff       func(attempt int) time.Duration
	logger            logger.Logger
}

// Dial connects to an RPC endpoint and binds the contracts
func Dial(ctx context.Context, rpcURL string, cfg Config, credential *Credential, log logger.Logger) (*Client, error) {
	ethClient, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to client: %w", err)
	}

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID.Cmp(credential.ChainID()) != 0 {
		ethClient.Close()
		return nil, fmt.Errorf("RPC chain ID %s does not match credential chain ID %s", chainID, credential.ChainID())
	}

	return New(ethClient, cfg, credential, log)
}

// New creates a client over an existing backend
func New(backend Backend, cfg Config, credential *Credential, log logger.Logger) (*Client, error) {
	if credential == nil {
		return nil, errors.New("credential is required")
	}

	oracle, err := contracts.NewGasOracle(cfg.OracleAddress, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oracle contract: %w", err)
	}

	settlement, err := contracts.NewGasFutures(cfg.SettlementAddress, submitTracking{backend})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settlement contract: %w", err)
	}

	multiplier := cfg.GasMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	return &Client{
		chain:             cfg.Chain,
		backend:           backend,
		oracle:            oracle,
		settlement:        settlement,
		settlementAddress: cfg.SettlementAddress,
		purchasedTopic:    contracts.PositionPurchasedTopic(),
		credential:        credential,
		nonces:            NewNonceTracker(log),
		gasMultiplier:     multiplier,
		sendBackoff:       sendBackoff,
		logger:            log,
	}, nil
}

// RelayerAddress returns the address that signs settlement transactions
func (c *Client) RelayerAddress() common.Address {
	return c.credential.Address()
}

// ListSupportedChains returns the chains the oracle publishes prices for
func (c *Client) ListSupportedChains(ctx context.Context) ([]string, error) {
	chains, err := c.oracle.GetSupportedChains(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("failed to read supported chains: %w", err)
	}
	return chains, nil
}

// ReadPrice returns the oracle's price record for a chain
func (c *Client) ReadPrice(ctx context.Context, chain string) (models.PriceReading, error) {
	raw, err := c.oracle.GetGasPrice(&bind.CallOpts{Context: ctx}, chain)
	if err != nil {
		if isRevert(err) {
			return models.PriceReading{}, ErrPriceNotFound
		}
		return models.PriceReading{}, fmt.Errorf("failed to read price for %s: %w", chain, err)
	}
	return toPriceReading(raw)
}

// IsChainSupported returns whether the settlement contract accepts positions for a chain
func (c *Client) IsChainSupported(ctx context.Context, chain string) (bool, error) {
	supported, err := c.settlement.IsChainSupported(&bind.CallOpts{Context: ctx}, chain)
	if err != nil {
		return false, fmt.Errorf("failed to check chain support for %s: %w", chain, err)
	}
	return supported, nil
}

// OwnerOf returns the current owner of a token
func (c *Client) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	owner, err := c.settlement.OwnerOf(&bind.CallOpts{Context: ctx}, tokenID)
	if err != nil {
		if isRevert(err) {
			return common.Address{}, ErrTokenNotFound
		}
		return common.Address{}, fmt.Errorf("failed to read owner of %s: %w", tokenID, err)
	}
	return toOwner(owner)
}

// GetPosition returns the settlement record of a token
func (c *Client) GetPosition(ctx context.Context, tokenID *big.Int) (models.PositionDetail, error) {
	raw, err := c.settlement.GetPosition(&bind.CallOpts{Context: ctx}, tokenID)
	if err != nil {
		if isRevert(err) {
			return models.PositionDetail{}, ErrTokenNotFound
		}
		return models.PositionDetail{}, fmt.Errorf("failed to read position %s: %w", tokenID, err)
	}
	return toPositionDetail(raw)
}

// BalanceOf returns the number of positions held by a user
func (c *Client) BalanceOf(ctx context.Context, user common.Address) (*big.Int, error) {
	balance, err := c.settlement.BalanceOf(&bind.CallOpts{Context: ctx}, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance of %s: %w", user.Hex(), err)
	}
	if balance == nil {
		return nil, fmt.Errorf("%w: nil balance", ErrMalformedResponse)
	}
	return balance, nil
}

// IsAuthorizedCaller returns whether the settlement contract accepts calls from the relayer
func (c *Client) IsAuthorizedCaller(ctx context.Context) (bool, error) {
	ok, err := c.settlement.IsAuthorizedRelayer(&bind.CallOpts{Context: ctx}, c.credential.Address())
	if err != nil {
		return false, fmt.Errorf("failed to check relayer authorization: %w", err)
	}
	return ok, nil
}

// Purchase mints a position for the buyer and returns the minted token id
func (c *Client) Purchase(
	ctx context.Context,
	usdcAmount, minOut, lockedPrice *big.Int,
	chain string,
	expirySeconds *big.Int,
	buyer common.Address,
) (models.PurchaseReceipt, error) {
	receipt, err := c.transact(ctx, "purchase", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.settlement.PurchaseFor(opts, usdcAmount, minOut, lockedPrice, chain, expirySeconds, buyer)
	})
	if err != nil {
		return models.PurchaseReceipt{}, err
	}

	event, err := c.purchasedEvent(receipt)
	if err != nil {
		return models.PurchaseReceipt{TxHash: receipt.TxHash}, err
	}
	return models.PurchaseReceipt{
		TxHash:          receipt.TxHash,
		TokenID:         event.TokenId,
		ExpiryTimestamp: int64(event.Expiry),
	}, nil
}

// Redeem releases an amount of a position to the recipient, optionally through bridge calldata
func (c *Client) Redeem(
	ctx context.Context,
	tokenID, amount *big.Int,
	bridgeCalldata []byte,
	recipient common.Address,
) (common.Hash, error) {
	if bridgeCalldata == nil {
		bridgeCalldata = []byte{}
	}
	receipt, err := c.transact(ctx, "redeem", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.settlement.RedeemFor(opts, tokenID, amount, bridgeCalldata, recipient)
	})
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

// transact sends one settlement transaction and waits for it to be mined
func (c *Client) transact(
	ctx context.Context,
	method string,
	send func(opts *bind.TransactOpts) (*types.Transaction, error),
) (*types.Receipt, error) {
	var (
		tx    *types.Transaction
		nonce uint64
	)
	for attempt := 0; ; attempt++ {
		gasPrice, err := c.gasPrice(ctx)
		if err != nil {
			metrics.SettlementCalls.WithLabelValues(method, "gas_price_error").Inc()
			return nil, err
		}

		nonce, err = c.nonces.Reserve(ctx, c.backend, c.credential.Address())
		if err != nil {
			metrics.SettlementCalls.WithLabelValues(method, "nonce_error").Inc()
			return nil, err
		}

		sendCtx, submitted := withSubmitMarker(ctx)
		opts, err := c.credential.transactOpts(sendCtx, nonce, gasPrice)
		if err != nil {
			c.nonces.Release(nonce)
			return nil, err
		}

		tx, err = send(opts)
		if err == nil {
			break
		}

		outcome, kind := classifySendError(err)
		if !submitted.Load() && outcome == sendAmbiguous {
			outcome, kind = sendRejected, sendErrNotSent
		}
		if outcome == sendAmbiguous {
			// the node may hold the transaction: never resend it and never hand its nonce out again
			c.nonces.Abandon(nonce)
			metrics.SettlementCalls.WithLabelValues(method, "send_unknown").Inc()
			c.logger.ErrorWithChain(c.chain, "Sending %s with nonce %d ended ambiguously (%s): %v", method, nonce, kind, err)
			return nil, fmt.Errorf("%w: %s nonce %d: %v", ErrSendOutcomeUnknown, method, nonce, err)
		}
		c.nonces.Release(nonce)

		if outcome == sendRejected || attempt+1 >= maxSendAttempts {
			metrics.SettlementCalls.WithLabelValues(method, "send_error").Inc()
			return nil, fmt.Errorf("failed to send %s transaction: %w", method, err)
		}
		if kind == sendErrNonce {
			c.nonces.Invalidate()
		}

		backoff := c.sendBackoff(attempt)
		metrics.SendRetries.WithLabelValues(method, kind).Inc()
		c.logger.NoticeWithChain(c.chain, "Sending %s was rejected (%s), retrying in %s: %v", method, kind, backoff, err)
		select {
		case <-ctx.Done():
			metrics.SettlementCalls.WithLabelValues(method, "send_error").Inc()
			return nil, fmt.Errorf("failed to send %s transaction: %w", method, ctx.Err())
		case <-time.After(backoff):
		}
	}
	c.nonces.Track(nonce, tx.Hash())
	c.logger.InfoWithChain(c.chain, "Sent %s transaction %s (nonce %d)", method, tx.Hash().Hex(), nonce)

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	// the nonce is consumed once the transaction is in the pool, mined or not
	c.nonces.Confirm(nonce)
	if err != nil {
		metrics.SettlementCalls.WithLabelValues(method, "wait_error").Inc()
		return nil, fmt.Errorf("failed waiting for %s transaction %s: %w", method, tx.Hash().Hex(), err)
	}

	metrics.GasUsed.WithLabelValues(method).Observe(float64(receipt.GasUsed))
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.SettlementCalls.WithLabelValues(method, "reverted").Inc()
		return receipt, fmt.Errorf("%w: %s %s", ErrTransactionReverted, method, tx.Hash().Hex())
	}

	metrics.SettlementCalls.WithLabelValues(method, "success").Inc()
	c.logger.InfoWithChain(c.chain, "%s transaction %s mined in block %s", method, tx.Hash().Hex(), receipt.BlockNumber)
	return receipt, nil
}

// gasPrice returns the suggested gas price with the configured buffer applied
func (c *Client) gasPrice(ctx context.Context) (*big.Int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, gasPriceTimeout)
	defer cancel()

	suggested, err := c.backend.SuggestGasPrice(timeoutCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	// Apply gas multiplier (e.g. 1.1 = 10% buffer)
	multiplied := new(big.Float).Mul(new(big.Float).SetInt(suggested), big.NewFloat(c.gasMultiplier))
	final := new(big.Int)
	multiplied.Int(final)
	return final, nil
}

// purchasedEvent extracts the PositionPurchased event from a purchase receipt
func (c *Client) purchasedEvent(receipt *types.Receipt) (*contracts.GasFuturesPositionPurchased, error) {
	for _, log := range receipt.Logs {
		if log == nil || log.Address != c.settlementAddress || len(log.Topics) == 0 || log.Topics[0] != c.purchasedTopic {
			continue
		}
		event, err := c.settlement.ParsePositionPurchased(*log)
		if err != nil {
			return nil, fmt.Errorf("%w: PositionPurchased log: %v", ErrMalformedResponse, err)
		}
		if event.TokenId == nil || event.Expiry == 0 || event.Expiry > math.MaxInt64 {
			return nil, fmt.Errorf("%w: PositionPurchased token %v expiry %d", ErrMalformedResponse, event.TokenId, event.Expiry)
		}
		return event, nil
	}
	return nil, fmt.Errorf("%w: no PositionPurchased event in %s", ErrMalformedResponse, receipt.TxHash.Hex())
}
