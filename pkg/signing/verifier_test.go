package signing

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

var testContract = common.HexToAddress("0x2222222222222222222222222222222222222222")

func setup(t *testing.T) (*Signer, *Verifier) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	domain := NewDomain(8453, testContract)
	signer, err := NewSigner(key, domain)
	require.NoError(t, err)
	verifier, err := NewVerifier(domain)
	require.NoError(t, err)
	return signer, verifier
}

func purchaseIntent(user common.Address) models.PurchaseIntent {
	return models.PurchaseIntent{
		User:        user,
		USDCAmount:  big.NewInt(100_000_000),
		TargetChain: "arbitrum",
		ExpiryDays:  30,
		Timestamp:   1_700_000_000_000,
	}
}

func redeemIntent(user common.Address, amount string) models.RedeemIntent {
	a, _ := models.ParseRedeemAmount(amount)
	return models.RedeemIntent{
		User:       user,
		TokenID:    big.NewInt(57),
		WETHAmount: a,
		Timestamp:  1_700_000_000_000,
	}
}

func TestVerifyPurchase(t *testing.T) {
	signer, verifier := setup(t)
	intent := purchaseIntent(signer.Address())

	sig, err := signer.SignPurchase(intent)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	t.Run("valid", func(t *testing.T) {
		assert.True(t, verifier.VerifyPurchase(intent, sig))
		// pure: same inputs give the same answer
		assert.True(t, verifier.VerifyPurchase(intent, sig))
	})

	t.Run("v as 0/1 is accepted", func(t *testing.T) {
		raw := append([]byte(nil), sig...)
		raw[64] -= 27
		assert.True(t, verifier.VerifyPurchase(intent, raw))
	})

	tamper := []struct {
		name   string
		mutate func(i *models.PurchaseIntent)
	}{
		{"amount", func(i *models.PurchaseIntent) { i.USDCAmount = big.NewInt(100_000_001) }},
		{"chain", func(i *models.PurchaseIntent) { i.TargetChain = "polygon" }},
		{"expiry", func(i *models.PurchaseIntent) { i.ExpiryDays = 31 }},
		{"timestamp", func(i *models.PurchaseIntent) { i.Timestamp++ }},
		{"user", func(i *models.PurchaseIntent) {
			i.User = common.HexToAddress("0x00000000000000000000000000000000000000bb")
		}},
	}
	for _, tt := range tamper {
		t.Run("tampered "+tt.name, func(t *testing.T) {
			altered := purchaseIntent(signer.Address())
			tt.mutate(&altered)
			assert.False(t, verifier.VerifyPurchase(altered, sig))
		})
	}

	t.Run("malformed signatures", func(t *testing.T) {
		assert.False(t, verifier.VerifyPurchase(intent, nil))
		assert.False(t, verifier.VerifyPurchase(intent, sig[:64]))
		assert.False(t, verifier.VerifyPurchase(intent, append(append([]byte(nil), sig...), 0x00)))

		badV := append([]byte(nil), sig...)
		badV[64] = 5
		assert.False(t, verifier.VerifyPurchase(intent, badV))

		zero := make([]byte, SignatureLength)
		assert.False(t, verifier.VerifyPurchase(intent, zero))
	})

	t.Run("different domain rejects", func(t *testing.T) {
		other, err := NewVerifier(NewDomain(1, testContract))
		require.NoError(t, err)
		assert.False(t, other.VerifyPurchase(intent, sig))

		other, err = NewVerifier(NewDomain(8453, common.HexToAddress("0x3333333333333333333333333333333333333333")))
		require.NoError(t, err)
		assert.False(t, other.VerifyPurchase(intent, sig))
	})

	t.Run("oversized amount does not panic", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 300)
		altered := purchaseIntent(signer.Address())
		altered.USDCAmount = huge
		assert.False(t, verifier.VerifyPurchase(altered, sig))
	})
}

func TestVerifyRedeem(t *testing.T) {
	signer, verifier := setup(t)

	t.Run("literal amount", func(t *testing.T) {
		intent := redeemIntent(signer.Address(), "500000")
		sig, err := signer.SignRedeem(intent)
		require.NoError(t, err)

		assert.True(t, verifier.VerifyRedeem(intent, sig))
		assert.False(t, verifier.VerifyRedeem(redeemIntent(signer.Address(), "500001"), sig))
		assert.False(t, verifier.VerifyRedeem(redeemIntent(signer.Address(), "max"), sig))

		otherToken := intent
		otherToken.TokenID = big.NewInt(58)
		assert.False(t, verifier.VerifyRedeem(otherToken, sig))
	})

	t.Run("max sentinel is signed literally", func(t *testing.T) {
		intent := redeemIntent(signer.Address(), "max")
		sig, err := signer.SignRedeem(intent)
		require.NoError(t, err)

		assert.True(t, verifier.VerifyRedeem(intent, sig))
		assert.False(t, verifier.VerifyRedeem(redeemIntent(signer.Address(), "1000000"), sig))
	})

	t.Run("purchase signature does not verify as redeem", func(t *testing.T) {
		sig, err := signer.SignPurchase(purchaseIntent(signer.Address()))
		require.NoError(t, err)
		assert.False(t, verifier.VerifyRedeem(redeemIntent(signer.Address(), "max"), sig))
	})
}

func TestTypedDataHashLayout(t *testing.T) {
	domain := common.HexToHash("0x01")
	structHash := common.HexToHash("0x02")

	expected := crypto.Keccak256Hash(append(append([]byte{0x19, 0x01}, domain.Bytes()...), structHash.Bytes()...))
	assert.Equal(t, expected, TypedDataHash(domain, structHash))
}
