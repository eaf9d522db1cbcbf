package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// GasOracleABI is the ABI of the GasOracle contract
const GasOracleABI = `[
	{
		"inputs": [],
		"name": "getSupportedChains",
		"outputs": [
			{"internalType": "string[]", "name": "", "type": "string[]"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "string", "name": "chain", "type": "string"}
		],
		"name": "getGasPrice",
		"outputs": [
			{"internalType": "uint256", "name": "priceWei", "type": "uint256"},
			{"internalType": "uint256", "name": "high24h", "type": "uint256"},
			{"internalType": "uint256", "name": "low24h", "type": "uint256"},
			{"internalType": "uint64", "name": "timestampMs", "type": "uint64"},
			{"internalType": "string", "name": "gasToken", "type": "string"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// GasOracle is an auto generated Go binding around an Ethereum contract.
type GasOracle struct {
	GasOracleCaller // Read-only binding to the contract
}

// GasOracleCaller is an auto generated read-only Go binding around an Ethereum contract.
type GasOracleCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// GasOracleGasPrice is the named output of getGasPrice.
type GasOracleGasPrice struct {
	PriceWei    *big.Int
	High24h     *big.Int
	Low24h      *big.Int
	TimestampMs uint64
	GasToken    string
}

// NewGasOracle creates a new instance of GasOracle, bound to a specific deployed contract.
func NewGasOracle(address common.Address, caller bind.ContractCaller) (*GasOracle, error) {
	parsed, err := abi.JSON(strings.NewReader(GasOracleABI))
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(address, parsed, caller, nil, nil)
	return &GasOracle{GasOracleCaller: GasOracleCaller{contract: contract}}, nil
}

// GetSupportedChains is a free data retrieval call binding the contract method.
//
// Solidity: function getSupportedChains() view returns(string[])
func (_GasOracle *GasOracleCaller) GetSupportedChains(opts *bind.CallOpts) ([]string, error) {
	var out []interface{}
	err := _GasOracle.contract.Call(opts, &out, "getSupportedChains")
	if err != nil {
		return *new([]string), err
	}

	out0 := *abi.ConvertType(out[0], new([]string)).(*[]string)
	return out0, err
}

// GetGasPrice is a free data retrieval call binding the contract method.
//
// Solidity: function getGasPrice(string chain) view returns(uint256 priceWei, uint256 high24h, uint256 low24h, uint64 timestampMs, string gasToken)
func (_GasOracle *GasOracleCaller) GetGasPrice(opts *bind.CallOpts, chain string) (GasOracleGasPrice, error) {
	var out []interface{}
	err := _GasOracle.contract.Call(opts, &out, "getGasPrice", chain)

	outstruct := new(GasOracleGasPrice)
	if err != nil {
		return *outstruct, err
	}

	outstruct.PriceWei = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	outstruct.High24h = *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	outstruct.Low24h = *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	outstruct.TimestampMs = *abi.ConvertType(out[3], new(uint64)).(*uint64)
	outstruct.GasToken = *abi.ConvertType(out[4], new(string)).(*string)

	return *outstruct, err
}
