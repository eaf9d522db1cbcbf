package chainclient

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Credential is the relayer identity used to sign every settlement transaction.
// It is built once at startup and never mutated.
type Credential struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewCredential creates a credential from a private key bound to a chain ID
func NewCredential(key *ecdsa.PrivateKey, chainID *big.Int) (*Credential, error) {
	if key == nil {
		return nil, errors.New("private key is required")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("chain ID must be positive")
	}
	return &Credential{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
	}, nil
}

// NewCredentialFromHex parses a hex private key, with or without the 0x prefix
func NewCredentialFromHex(privateKeyHex string, chainID *big.Int) (*Credential, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewCredential(key, chainID)
}

// Address returns the relayer address
func (c *Credential) Address() common.Address {
	return c.address
}

// ChainID returns a copy of the chain ID the credential signs for
func (c *Credential) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// transactOpts builds fresh transaction options for a single call
func (c *Credential) transactOpts(ctx context.Context, nonce uint64, gasPrice *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.Nonce = new(big.Int).SetUint64(nonce)
	opts.GasPrice = gasPrice
	return opts, nil
}
