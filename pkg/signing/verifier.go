package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

// SignatureLength is the length of an r || s || v signature
const SignatureLength = crypto.SignatureLength

// Verifier checks intent signatures against a fixed domain
type Verifier struct {
	separator common.Hash
}

// NewVerifier creates a verifier for the given domain
func NewVerifier(domain Domain) (*Verifier, error) {
	separator, err := domain.Separator()
	if err != nil {
		return nil, fmt.Errorf("signing: domain separator: %w", err)
	}
	return &Verifier{separator: separator}, nil
}

// VerifyPurchase returns true iff the signature over the purchase intent was produced by intent.User
func (v *Verifier) VerifyPurchase(intent models.PurchaseIntent, signature []byte) bool {
	structHash, err := PurchaseStructHash(intent)
	if err != nil {
		return false
	}
	return v.verify(structHash, signature, intent.User)
}

// VerifyRedeem returns true iff the signature over the redeem intent was produced by intent.User
func (v *Verifier) VerifyRedeem(intent models.RedeemIntent, signature []byte) bool {
	structHash, err := RedeemStructHash(intent)
	if err != nil {
		return false
	}
	return v.verify(structHash, signature, intent.User)
}

func (v *Verifier) verify(structHash common.Hash, signature []byte, claimed common.Address) bool {
	signer, err := recoverSigner(TypedDataHash(v.separator, structHash), signature)
	if err != nil {
		return false
	}
	return signer == claimed
}

// recoverSigner accepts v as 0/1 or 27/28 and rejects malleable high-s signatures
func recoverSigner(digest common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("signing: signature must be %d bytes, got %d", SignatureLength, len(signature))
	}

	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, true) {
		return common.Address{}, fmt.Errorf("signing: invalid signature values")
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("signing: recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Signer produces intent signatures. The relayer never signs intents itself;
// this is the reference implementation for intent producers and tests.
type Signer struct {
	key       *ecdsa.PrivateKey
	separator common.Hash
}

// NewSigner creates a signer for the given domain
func NewSigner(key *ecdsa.PrivateKey, domain Domain) (*Signer, error) {
	separator, err := domain.Separator()
	if err != nil {
		return nil, fmt.Errorf("signing: domain separator: %w", err)
	}
	return &Signer{key: key, separator: separator}, nil
}

// Address returns the address of the signing key
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignPurchase signs a purchase intent
func (s *Signer) SignPurchase(intent models.PurchaseIntent) ([]byte, error) {
	structHash, err := PurchaseStructHash(intent)
	if err != nil {
		return nil, fmt.Errorf("signing: purchase struct hash: %w", err)
	}
	return s.sign(structHash)
}

// SignRedeem signs a redeem intent
func (s *Signer) SignRedeem(intent models.RedeemIntent) ([]byte, error) {
	structHash, err := RedeemStructHash(intent)
	if err != nil {
		return nil, fmt.Errorf("signing: redeem struct hash: %w", err)
	}
	return s.sign(structHash)
}

func (s *Signer) sign(structHash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(TypedDataHash(s.separator, structHash).Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing: sign: %w", err)
	}
	// wallets emit v as 27/28
	sig[64] += 27
	return sig, nil
}
