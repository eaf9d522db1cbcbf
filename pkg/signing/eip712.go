// Package signing implements the EIP-712 signing contract shared with intent
// producers. The domain version is the scheme identifier; a change to any
// typed struct below must bump DomainVersion.
package signing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

const (
	DomainName    = "GasFutures Relayer"
	DomainVersion = "1"
)

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	domainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))

	// PurchaseIntent(address user,uint256 usdcAmount,string targetChain,uint256 expiryDays,uint256 timestamp)
	purchaseIntentTypeHash = crypto.Keccak256Hash([]byte(
		"PurchaseIntent(address user,uint256 usdcAmount,string targetChain,uint256 expiryDays,uint256 timestamp)",
	))

	// RedeemIntent(address user,uint256 tokenId,string wethAmount,uint256 timestamp)
	redeemIntentTypeHash = crypto.Keccak256Hash([]byte(
		"RedeemIntent(address user,uint256 tokenId,string wethAmount,uint256 timestamp)",
	))

	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
)

// Domain binds signatures to one chain and one settlement contract
type Domain struct {
	ChainID           *big.Int
	VerifyingContract common.Address
}

// NewDomain creates a signing domain
func NewDomain(chainID int64, verifyingContract common.Address) Domain {
	return Domain{
		ChainID:           big.NewInt(chainID),
		VerifyingContract: verifyingContract,
	}
}

// Separator computes the EIP-712 domain separator
func (d Domain) Separator() (common.Hash, error) {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: bytes32Type}, // keccak256(name)
		{Type: bytes32Type}, // keccak256(version)
		{Type: uint256Type}, // chainId
		{Type: addressType}, // verifyingContract
	}

	encoded, err := arguments.Pack(
		domainTypeHash,
		crypto.Keccak256Hash([]byte(DomainName)),
		crypto.Keccak256Hash([]byte(DomainVersion)),
		d.ChainID,
		d.VerifyingContract,
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// PurchaseStructHash computes the struct hash of a purchase intent
func PurchaseStructHash(intent models.PurchaseIntent) (common.Hash, error) {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: addressType}, // user
		{Type: uint256Type}, // usdcAmount
		{Type: bytes32Type}, // keccak256(targetChain)
		{Type: uint256Type}, // expiryDays
		{Type: uint256Type}, // timestamp
	}

	encoded, err := arguments.Pack(
		purchaseIntentTypeHash,
		intent.User,
		orZero(intent.USDCAmount),
		crypto.Keccak256Hash([]byte(intent.TargetChain)),
		new(big.Int).SetUint64(intent.ExpiryDays),
		new(big.Int).SetUint64(intent.Timestamp),
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// RedeemStructHash computes the struct hash of a redeem intent. The amount is
// hashed in its canonical string form so the "max" sentinel is signed literally:
// clients must sign "max" or the plain decimal (no sign, whitespace or leading zeros).
func RedeemStructHash(intent models.RedeemIntent) (common.Hash, error) {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: addressType}, // user
		{Type: uint256Type}, // tokenId
		{Type: bytes32Type}, // keccak256(wethAmount)
		{Type: uint256Type}, // timestamp
	}

	encoded, err := arguments.Pack(
		redeemIntentTypeHash,
		intent.User,
		orZero(intent.TokenID),
		crypto.Keccak256Hash([]byte(intent.WETHAmount.String())),
		new(big.Int).SetUint64(intent.Timestamp),
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// TypedDataHash computes keccak256("\x19\x01" || domainSeparator || structHash)
func TypedDataHash(domainSeparator, structHash common.Hash) common.Hash {
	raw := make([]byte, 0, 66)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator.Bytes()...)
	raw = append(raw, structHash.Bytes()...)
	return crypto.Keccak256Hash(raw)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
