package chainclient

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	t.Run("address derived from key", func(t *testing.T) {
		cred, err := NewCredential(key, big.NewInt(8453))
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), cred.Address())
	})

	t.Run("hex key with prefix", func(t *testing.T) {
		hexKey := "0x" + hex.EncodeToString(crypto.FromECDSA(key))
		cred, err := NewCredentialFromHex(hexKey, big.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), cred.Address())
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := NewCredential(nil, big.NewInt(1))
		assert.Error(t, err)
		_, err = NewCredential(key, big.NewInt(0))
		assert.Error(t, err)
		_, err = NewCredentialFromHex("not-a-key", big.NewInt(1))
		assert.Error(t, err)
	})

	t.Run("chain id is not shared", func(t *testing.T) {
		chainID := big.NewInt(10)
		cred, err := NewCredential(key, chainID)
		require.NoError(t, err)

		chainID.SetInt64(99)
		cred.ChainID().SetInt64(42)
		assert.Equal(t, int64(10), cred.ChainID().Int64())
	})

	t.Run("transact opts are fresh per call", func(t *testing.T) {
		cred, err := NewCredential(key, big.NewInt(8453))
		require.NoError(t, err)

		a, err := cred.transactOpts(context.Background(), 1, big.NewInt(100))
		require.NoError(t, err)
		b, err := cred.transactOpts(context.Background(), 2, big.NewInt(200))
		require.NoError(t, err)

		assert.Equal(t, uint64(1), a.Nonce.Uint64())
		assert.Equal(t, uint64(2), b.Nonce.Uint64())
		assert.Equal(t, cred.Address(), a.From)
		assert.NotSame(t, a, b)
	})
}
