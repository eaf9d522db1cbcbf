package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// GasFuturesABI is the ABI of the GasFutures settlement contract
const GasFuturesABI = `[
	{
		"inputs": [{"internalType": "string", "name": "chain", "type": "string"}],
		"name": "isChainSupported",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
		"name": "ownerOf",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
		"name": "getPosition",
		"outputs": [
			{"internalType": "uint256", "name": "totalAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "remainingAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "lockedPrice", "type": "uint256"},
			{"internalType": "uint64", "name": "purchaseTimestamp", "type": "uint64"},
			{"internalType": "uint64", "name": "expiryTimestamp", "type": "uint64"},
			{"internalType": "string", "name": "targetChain", "type": "string"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "relayer", "type": "address"}],
		"name": "isAuthorizedRelayer",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "usdcAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "minOut", "type": "uint256"},
			{"internalType": "uint256", "name": "lockedPrice", "type": "uint256"},
			{"internalType": "string", "name": "chain", "type": "string"},
			{"internalType": "uint256", "name": "expirySeconds", "type": "uint256"},
			{"internalType": "address", "name": "buyer", "type": "address"}
		],
		"name": "purchaseFor",
		"outputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "bytes", "name": "bridgeCalldata", "type": "bytes"},
			{"internalType": "address", "name": "recipient", "type": "address"}
		],
		"name": "redeemFor",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "usdcAmount", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "wethAmount", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "lockedPrice", "type": "uint256"},
			{"indexed": false, "internalType": "string", "name": "targetChain", "type": "string"},
			{"indexed": false, "internalType": "uint64", "name": "expiry", "type": "uint64"}
		],
		"name": "PositionPurchased",
		"type": "event"
	}
]`

// GasFutures is an auto generated Go binding around an Ethereum contract.
type GasFutures struct {
	GasFuturesCaller     // Read-only binding to the contract
	GasFuturesTransactor // Write-only binding to the contract
	GasFuturesFilterer   // Log filterer for contract events
}

// GasFuturesCaller is an auto generated read-only Go binding around an Ethereum contract.
type GasFuturesCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// GasFuturesTransactor is an auto generated write-only Go binding around an Ethereum contract.
type GasFuturesTransactor struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// GasFuturesFilterer is an auto generated log filtering Go binding around an Ethereum contract events.
type GasFuturesFilterer struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// GasFuturesPosition is the named output of getPosition.
type GasFuturesPosition struct {
	TotalAmount       *big.Int
	RemainingAmount   *big.Int
	LockedPrice       *big.Int
	PurchaseTimestamp uint64
	ExpiryTimestamp   uint64
	TargetChain       string
}

// GasFuturesPositionPurchased represents a PositionPurchased event raised by the GasFutures contract.
type GasFuturesPositionPurchased struct {
	TokenId     *big.Int
	Buyer       common.Address
	UsdcAmount  *big.Int
	WethAmount  *big.Int
	LockedPrice *big.Int
	TargetChain string
	Expiry      uint64
	Raw         types.Log // Blockchain specific contextual infos
}

// NewGasFutures creates a new instance of GasFutures, bound to a specific deployed contract.
func NewGasFutures(address common.Address, backend bind.ContractBackend) (*GasFutures, error) {
	parsed, err := abi.JSON(strings.NewReader(GasFuturesABI))
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(address, parsed, backend, backend, backend)
	return &GasFutures{
		GasFuturesCaller:     GasFuturesCaller{contract: contract},
		GasFuturesTransactor: GasFuturesTransactor{contract: contract},
		GasFuturesFilterer:   GasFuturesFilterer{contract: contract},
	}, nil
}

// IsChainSupported is a free data retrieval call binding the contract method.
//
// Solidity: function isChainSupported(string chain) view returns(bool)
func (_GasFutures *GasFuturesCaller) IsChainSupported(opts *bind.CallOpts, chain string) (bool, error) {
	var out []interface{}
	err := _GasFutures.contract.Call(opts, &out, "isChainSupported", chain)
	if err != nil {
		return *new(bool), err
	}

	out0 := *abi.ConvertType(out[0], new(bool)).(*bool)
	return out0, err
}

// OwnerOf is a free data retrieval call binding the contract method.
//
// Solidity: function ownerOf(uint256 tokenId) view returns(address)
func (_GasFutures *GasFuturesCaller) OwnerOf(opts *bind.CallOpts, tokenId *big.Int) (common.Address, error) {
	var out []interface{}
	err := _GasFutures.contract.Call(opts, &out, "ownerOf", tokenId)
	if err != nil {
		return *new(common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return out0, err
}

// BalanceOf is a free data retrieval call binding the contract method.
//
// Solidity: function balanceOf(address owner) view returns(uint256)
func (_GasFutures *GasFuturesCaller) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	var out []interface{}
	err := _GasFutures.contract.Call(opts, &out, "balanceOf", owner)
	if err != nil {
		return *new(*big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return out0, err
}

// GetPosition is a free data retrieval call binding the contract method.
//
// Solidity: function getPosition(uint256 tokenId) view returns(uint256 totalAmount, uint256 remainingAmount, uint256 lockedPrice, uint64 purchaseTimestamp, uint64 expiryTimestamp, string targetChain)
func (_GasFutures *GasFuturesCaller) GetPosition(opts *bind.CallOpts, tokenId *big.Int) (GasFuturesPosition, error) {
	var out []interface{}
	err := _GasFutures.contract.Call(opts, &out, "getPosition", tokenId)

	outstruct := new(GasFuturesPosition)
	if err != nil {
		return *outstruct, err
	}

	outstruct.TotalAmount = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	outstruct.RemainingAmount = *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	outstruct.LockedPrice = *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	outstruct.PurchaseTimestamp = *abi.ConvertType(out[3], new(uint64)).(*uint64)
	outstruct.ExpiryTimestamp = *abi.ConvertType(out[4], new(uint64)).(*uint64)
	outstruct.TargetChain = *abi.ConvertType(out[5], new(string)).(*string)

	return *outstruct, err
}

// IsAuthorizedRelayer is a free data retrieval call binding the contract method.
//
// Solidity: function isAuthorizedRelayer(address relayer) view returns(bool)
func (_GasFutures *GasFuturesCaller) IsAuthorizedRelayer(opts *bind.CallOpts, relayer common.Address) (bool, error) {
	var out []interface{}
	err := _GasFutures.contract.Call(opts, &out, "isAuthorizedRelayer", relayer)
	if err != nil {
		return *new(bool), err
	}

	out0 := *abi.ConvertType(out[0], new(bool)).(*bool)
	return out0, err
}

// PurchaseFor is a paid mutator transaction binding the contract method.
//
// Solidity: function purchaseFor(uint256 usdcAmount, uint256 minOut, uint256 lockedPrice, string chain, uint256 expirySeconds, address buyer) returns(uint256 tokenId)
func (_GasFutures *GasFuturesTransactor) PurchaseFor(opts *bind.TransactOpts, usdcAmount *big.Int, minOut *big.Int, lockedPrice *big.Int, chain string, expirySeconds *big.Int, buyer common.Address) (*types.Transaction, error) {
	return _GasFutures.contract.Transact(opts, "purchaseFor", usdcAmount, minOut, lockedPrice, chain, expirySeconds, buyer)
}

// RedeemFor is a paid mutator transaction binding the contract method.
//
// Solidity: function redeemFor(uint256 tokenId, uint256 amount, bytes bridgeCalldata, address recipient) returns()
func (_GasFutures *GasFuturesTransactor) RedeemFor(opts *bind.TransactOpts, tokenId *big.Int, amount *big.Int, bridgeCalldata []byte, recipient common.Address) (*types.Transaction, error) {
	return _GasFutures.contract.Transact(opts, "redeemFor", tokenId, amount, bridgeCalldata, recipient)
}

// ParsePositionPurchased is a log parse operation binding the contract event.
//
// Solidity: event PositionPurchased(uint256 indexed tokenId, address indexed buyer, uint256 usdcAmount, uint256 wethAmount, uint256 lockedPrice, string targetChain, uint64 expiry)
func (_GasFutures *GasFuturesFilterer) ParsePositionPurchased(log types.Log) (*GasFuturesPositionPurchased, error) {
	event := new(GasFuturesPositionPurchased)
	if err := _GasFutures.contract.UnpackLog(event, "PositionPurchased", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// PositionPurchasedTopic returns the event signature hash of PositionPurchased
func PositionPurchasedTopic() common.Hash {
	parsed, err := abi.JSON(strings.NewReader(GasFuturesABI))
	if err != nil {
		return common.Hash{}
	}
	return parsed.Events["PositionPurchased"].ID
}
