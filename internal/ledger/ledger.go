// Package ledger describes the external asset and settlement contracts the vault drives,
// and provides an in-process implementation of them.
package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNotMinter             = errors.New("caller is not a minter")
	ErrUnknownContract       = errors.New("unknown contract")
)

// Asset is a fungible token seen from the vault custody account.
// Transfer moves funds out of custody, TransferFrom spends an allowance granted to custody.
type Asset interface {
	Address() common.Address
	Decimals(ctx context.Context) (uint8, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// MintableAsset is the vault token, custody holds the minter role on it
type MintableAsset interface {
	Asset
	Mint(ctx context.Context, to common.Address, amount *big.Int) error
	BurnFrom(ctx context.Context, from common.Address, amount *big.Int) error
}

// Settlement is the counterpart custody forwards collateral to
type Settlement interface {
	Address() common.Address
	Collateral(ctx context.Context) (common.Address, error)
	DepositFor(ctx context.Context, beneficiary common.Address, amount *big.Int) error
}

// Backend resolves contract handles acting as the custody account
type Backend interface {
	Custodian() common.Address
	Asset(ctx context.Context, address common.Address) (Asset, error)
	MintableAsset(ctx context.Context, address common.Address) (MintableAsset, error)
	Settlement(ctx context.Context, address common.Address) (Settlement, error)
}
