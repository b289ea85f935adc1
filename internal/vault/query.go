package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/types"
)

func (v *Vault) CurrentDeposit() *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return types.CopyInt(v.ledger.CurrentDeposit)
}

func (v *Vault) LockedBalance() *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return types.CopyInt(v.ledger.LockedBalance)
}

func (v *Vault) WithdrawRequest(id uint64) (WithdrawRequest, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.registry.Get(id)
}

// WithdrawRequests lists the requests currently in status, ordered by id
func (v *Vault) WithdrawRequests(status RequestStatus) []WithdrawRequest {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ids := v.registry.IDs(status)
	out := make([]WithdrawRequest, 0, len(ids))
	for _, id := range ids {
		req, err := v.registry.Get(id)
		if err == nil {
			out = append(out, req)
		}
	}
	return out
}

func (v *Vault) RequestCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.registry.Len()
}

func (v *Vault) Symmio() common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.params.Symmio
}

func (v *Vault) Solver() common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.params.Solver
}

func (v *Vault) SolverVaultTokenAddress() common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.params.VaultToken
}

func (v *Vault) Collateral() common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.params.Collateral
}

func (v *Vault) DepositLimit() *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return types.CopyInt(v.params.DepositLimit)
}

func (v *Vault) MinimumPaybackRatio() *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return types.CopyInt(v.params.MinimumPaybackRatio)
}

func (v *Vault) Params() Params {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.params.Clone()
}

func (v *Vault) Paused() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.gate.Paused()
}

func (v *Vault) HasRole(role access.Role, account common.Address) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.gate.HasRole(role, account)
}

func (v *Vault) Members(role access.Role) []common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.gate.Members(role)
}

// AvailableBalance is the custody collateral not committed to ready requests
func (v *Vault) AvailableBalance(ctx context.Context) (*big.Int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.availableBalance(ctx, nil)
}

// CheckSolvency verifies that custody still covers the locked balance
func (v *Vault) CheckSolvency(ctx context.Context) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	balance, err := v.collateral.BalanceOf(ctx, v.backend.Custodian())
	if err != nil {
		return transferFailed("read custody balance", err)
	}
	if balance.Cmp(v.ledger.LockedBalance) < 0 {
		return fmt.Errorf("%w: balance %s, locked %s", ErrInsolvent, balance, v.ledger.LockedBalance)
	}
	return nil
}

// Snapshot copies the whole vault state
func (v *Vault) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{
		Params:   v.params.Clone(),
		Ledger:   v.ledger.Clone(),
		Paused:   v.gate.Paused(),
		Requests: v.registry.All(),
		Grants:   v.gate.Grants(),
	}
}
