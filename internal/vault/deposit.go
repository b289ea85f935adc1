package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/types"
	log "github.com/sirupsen/logrus"
)

// Deposit pulls amount collateral from caller and mints the matching vault token to it
func (v *Vault) Deposit(ctx context.Context, caller common.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpDeposit); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	next := new(big.Int).Add(v.ledger.CurrentDeposit, amount)
	if next.Cmp(v.params.DepositLimit) > 0 {
		return fmt.Errorf("%w: current %s, amount %s, limit %s", ErrDepositLimitReached,
			v.ledger.CurrentDeposit, amount, v.params.DepositLimit)
	}
	minted := types.ToVaultPrecision(amount, v.params.CollateralDecimals, v.params.VaultTokenDecimals)

	state := v.ledger.Clone()
	state.CurrentDeposit = next
	state.Deposited = true
	change := &Change{
		Ledger: &state,
		Events: []Event{&DepositEvent{User: caller, Amount: types.CopyInt(amount)}},
	}

	custody := v.backend.Custodian()
	err := v.commit(ctx, change, func() error {
		if err := v.collateral.TransferFrom(ctx, caller, custody, amount); err != nil {
			return transferFailed("pull collateral", err)
		}
		if minted.Sign() == 0 {
			return nil
		}
		if err := v.vaultToken.Mint(ctx, caller, minted); err != nil {
			if refundErr := v.collateral.Transfer(ctx, caller, amount); refundErr != nil {
				log.Errorf("Refund %s collateral to %s after failed mint: %v", amount, caller.Hex(), refundErr)
			}
			return transferFailed("mint vault token", err)
		}
		return nil
	})
	if err != nil {
		log.Debugf("Deposit from %s rejected: %v", caller.Hex(), err)
		return err
	}

	log.Infof("Deposit from %s, amount: %s, minted: %s, current deposit: %s", caller.Hex(), amount, minted, next)
	return nil
}

// DepositToSymmio forwards unlocked collateral to the settlement counterpart and returns the solver it credited
func (v *Vault) DepositToSymmio(ctx context.Context, caller common.Address, amount *big.Int) (common.Address, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpDepositToSymmio); err != nil {
		return common.Address{}, err
	}
	if err := checkAmount(amount); err != nil {
		return common.Address{}, err
	}
	available, err := v.availableBalance(ctx, nil)
	if err != nil {
		return common.Address{}, err
	}
	if amount.Cmp(available) > 0 {
		return common.Address{}, fmt.Errorf("%w: amount %s, available %s", ErrInsufficientContractBalance, amount, available)
	}

	solver := v.params.Solver
	change := &Change{
		Events: []Event{&DepositToSymmioEvent{Caller: caller, Solver: solver, Amount: types.CopyInt(amount)}},
	}
	err = v.commit(ctx, change, func() error {
		if err := v.symmio.DepositFor(ctx, solver, amount); err != nil {
			return transferFailed("symmio deposit", err)
		}
		return nil
	})
	if err != nil {
		log.Warnf("DepositToSymmio by %s failed: %v", caller.Hex(), err)
		return common.Address{}, err
	}

	log.Infof("DepositToSymmio by %s, solver: %s, amount: %s", caller.Hex(), solver.Hex(), amount)
	return solver, nil
}

// availableBalance is custody balance plus extra minus the locked balance, floored at zero
func (v *Vault) availableBalance(ctx context.Context, extra *big.Int) (*big.Int, error) {
	balance, err := v.collateral.BalanceOf(ctx, v.backend.Custodian())
	if err != nil {
		return nil, transferFailed("read custody balance", err)
	}
	if extra != nil {
		balance = new(big.Int).Add(balance, extra)
	}
	return subFloor(balance, v.ledger.LockedBalance), nil
}
