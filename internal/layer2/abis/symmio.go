package abis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SymmioContractMetaData covers the symmio account facet calls used for solver deposits.
var SymmioContractMetaData = &bind.MetaData{
	ABI: "[{\"inputs\":[{\"internalType\":\"address\",\"name\":\"user\",\"type\":\"address\"},{\"internalType\":\"uint256\",\"name\":\"amount\",\"type\":\"uint256\"}],\"name\":\"depositFor\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"getCollateral\",\"outputs\":[{\"internalType\":\"address\",\"name\":\"\",\"type\":\"address\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"address\",\"name\":\"user\",\"type\":\"address\"}],\"name\":\"balanceOf\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"}]",
}

// SymmioContract is a Go binding around the symmio diamond.
type SymmioContract struct {
	SymmioContractCaller     // Read-only binding to the contract
	SymmioContractTransactor // Write-only binding to the contract
}

// SymmioContractCaller is a read-only Go binding around the symmio diamond.
type SymmioContractCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// SymmioContractTransactor is a write-only Go binding around the symmio diamond.
type SymmioContractTransactor struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// NewSymmioContract creates a new instance of SymmioContract, bound to a specific deployed contract.
func NewSymmioContract(address common.Address, backend bind.ContractBackend) (*SymmioContract, error) {
	contract, err := bindSymmioContract(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &SymmioContract{SymmioContractCaller: SymmioContractCaller{contract: contract}, SymmioContractTransactor: SymmioContractTransactor{contract: contract}}, nil
}

// bindSymmioContract binds a generic wrapper to an already deployed contract.
func bindSymmioContract(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := SymmioContractMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

// GetCollateral is a free data retrieval call binding the contract method getCollateral.
//
// Solidity: function getCollateral() view returns(address)
func (_SymmioContract *SymmioContractCaller) GetCollateral(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	err := _SymmioContract.contract.Call(opts, &out, "getCollateral")
	if err != nil {
		return *new(common.Address), err
	}
	out0 := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return out0, err
}

// BalanceOf is a free data retrieval call binding the contract method 0x70a08231.
//
// Solidity: function balanceOf(address user) view returns(uint256)
func (_SymmioContract *SymmioContractCaller) BalanceOf(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	var out []interface{}
	err := _SymmioContract.contract.Call(opts, &out, "balanceOf", user)
	if err != nil {
		return *new(*big.Int), err
	}
	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return out0, err
}

// DepositFor is a paid mutator transaction binding the contract method depositFor.
//
// Solidity: function depositFor(address user, uint256 amount) returns()
func (_SymmioContract *SymmioContractTransactor) DepositFor(opts *bind.TransactOpts, user common.Address, amount *big.Int) (*types.Transaction, error) {
	return _SymmioContract.contract.Transact(opts, "depositFor", user, amount)
}
