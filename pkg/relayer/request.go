package relayer

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

// MaxExpiryDays bounds expiryDays so the expiry in seconds always fits an int64
const MaxExpiryDays = 36500

const secondsPerDay = 86400

// PurchaseRequest is the purchase request body. Amounts are decimal strings.
type PurchaseRequest struct {
	UserAddress string      `json:"userAddress"`
	USDCAmount  string      `json:"usdcAmount"`
	TargetChain string      `json:"targetChain"`
	ExpiryDays  json.Number `json:"expiryDays"`
	Timestamp   json.Number `json:"timestamp"`
	Signature   string      `json:"signature"`
}

// RedeemRequest is the redeem request body. WETHAmount is a decimal string or "max".
type RedeemRequest struct {
	UserAddress string      `json:"userAddress"`
	TokenID     string      `json:"tokenId"`
	WETHAmount  string      `json:"wethAmount"`
	Timestamp   json.Number `json:"timestamp"`
	Signature   string      `json:"signature"`
}

func parsePurchase(req PurchaseRequest) (models.PurchaseIntent, []byte, *Failure) {
	user, f := parseAddress("userAddress", req.UserAddress)
	if f != nil {
		return models.PurchaseIntent{}, nil, f
	}
	amount, f := parsePositiveInt("usdcAmount", req.USDCAmount)
	if f != nil {
		return models.PurchaseIntent{}, nil, f
	}
	chain := strings.TrimSpace(req.TargetChain)
	if chain == "" {
		return models.PurchaseIntent{}, nil, missing("targetChain")
	}
	expiryDays, f := parsePositiveUint("expiryDays", req.ExpiryDays.String())
	if f != nil {
		return models.PurchaseIntent{}, nil, f
	}
	if expiryDays > MaxExpiryDays {
		return models.PurchaseIntent{}, nil, newFailure(ErrValidation, "expiryDays must be at most %d", MaxExpiryDays).
			with("field", "expiryDays")
	}
	timestamp, f := parsePositiveUint("timestamp", req.Timestamp.String())
	if f != nil {
		return models.PurchaseIntent{}, nil, f
	}
	sig, f := parseSignature(req.Signature)
	if f != nil {
		return models.PurchaseIntent{}, nil, f
	}

	return models.PurchaseIntent{
		User:        user,
		USDCAmount:  amount,
		TargetChain: chain,
		ExpiryDays:  expiryDays,
		Timestamp:   timestamp,
	}, sig, nil
}

func parseRedeem(req RedeemRequest) (models.RedeemIntent, []byte, *Failure) {
	user, f := parseAddress("userAddress", req.UserAddress)
	if f != nil {
		return models.RedeemIntent{}, nil, f
	}
	tokenID, f := parseTokenID(req.TokenID)
	if f != nil {
		return models.RedeemIntent{}, nil, f
	}
	if strings.TrimSpace(req.WETHAmount) == "" {
		return models.RedeemIntent{}, nil, missing("wethAmount")
	}
	amount, err := models.ParseRedeemAmount(req.WETHAmount)
	if err != nil {
		return models.RedeemIntent{}, nil, newFailure(ErrValidation, "wethAmount must be a positive integer or %q", models.RedeemAllSentinel).
			with("field", "wethAmount").withCause(err)
	}
	timestamp, f := parsePositiveUint("timestamp", req.Timestamp.String())
	if f != nil {
		return models.RedeemIntent{}, nil, f
	}
	sig, f := parseSignature(req.Signature)
	if f != nil {
		return models.RedeemIntent{}, nil, f
	}

	return models.RedeemIntent{
		User:       user,
		TokenID:    tokenID,
		WETHAmount: amount,
		Timestamp:  timestamp,
	}, sig, nil
}

func missing(field string) *Failure {
	return newFailure(ErrValidation, "%s is required", field).with("field", field)
}

func parseAddress(field, s string) (common.Address, *Failure) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, missing(field)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, newFailure(ErrValidation, "%s is not a valid address", field).with("field", field)
	}
	return common.HexToAddress(s), nil
}

func parsePositiveInt(field, s string) (*big.Int, *Failure) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, missing(field)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, newFailure(ErrValidation, "%s must be a positive integer", field).with("field", field)
	}
	return v, nil
}

// parseTokenID accepts any non-negative integer; token ids start at zero
func parseTokenID(s string) (*big.Int, *Failure) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, missing("tokenId")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, newFailure(ErrValidation, "tokenId must be a non-negative integer").with("field", "tokenId")
	}
	return v, nil
}

func parsePositiveUint(field, s string) (uint64, *Failure) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, missing(field)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, newFailure(ErrValidation, "%s must be a positive integer", field).with("field", field)
	}
	return v, nil
}

func parseSignature(s string) ([]byte, *Failure) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, missing("signature")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	sig, err := hexutil.Decode(s)
	if err != nil {
		return nil, newFailure(ErrValidation, "signature must be hex encoded").with("field", "signature")
	}
	return sig, nil
}
