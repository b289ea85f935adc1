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

func (v *Vault) SetDepositLimit(ctx context.Context, caller common.Address, limit *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpSetDepositLimit); err != nil {
		return err
	}
	if limit == nil || limit.Sign() < 0 {
		return fmt.Errorf("%w: deposit limit %v", ErrInvalidAmount, limit)
	}
	params := v.params.Clone()
	params.DepositLimit = types.CopyInt(limit)
	return v.commitParams(ctx, caller, &params, "deposit_limit", limit.String())
}

func (v *Vault) SetMinimumPaybackRatio(ctx context.Context, caller common.Address, ratio *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpSetMinimumPaybackRatio); err != nil {
		return err
	}
	if err := checkRatio(ratio); err != nil {
		return err
	}
	params := v.params.Clone()
	params.MinimumPaybackRatio = types.CopyInt(ratio)
	return v.commitParams(ctx, caller, &params, "minimum_payback_ratio", types.FormatRatio(ratio))
}

// SetVaultToken replaces the vault token, allowed only until the first deposit
func (v *Vault) SetVaultToken(ctx context.Context, caller common.Address, token common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpSetVaultToken); err != nil {
		return err
	}
	if token == (common.Address{}) {
		return ErrZeroAddress
	}
	if v.ledger.Deposited {
		return ErrDepositsExist
	}
	handle, decimals, err := v.resolveVaultToken(ctx, token)
	if err != nil {
		return err
	}
	params := v.params.Clone()
	params.VaultToken = token
	params.VaultTokenDecimals = decimals
	if err := v.commitParams(ctx, caller, &params, "vault_token", token.Hex()); err != nil {
		return err
	}
	v.vaultToken = handle
	return nil
}

func (v *Vault) SetSolver(ctx context.Context, caller common.Address, solver common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpSetSolver); err != nil {
		return err
	}
	if solver == (common.Address{}) {
		return ErrZeroAddress
	}
	params := v.params.Clone()
	params.Solver = solver
	return v.commitParams(ctx, caller, &params, "solver", solver.Hex())
}

// SetSymmioAddress switches the settlement counterpart. The new one must settle in the same collateral.
func (v *Vault) SetSymmioAddress(ctx context.Context, caller common.Address, symmio common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpSetSymmio); err != nil {
		return err
	}
	if symmio == (common.Address{}) {
		return ErrZeroAddress
	}
	settlement, err := v.backend.Settlement(ctx, symmio)
	if err != nil {
		return fmt.Errorf("resolve symmio %s: %w", symmio.Hex(), err)
	}
	collateral, err := settlement.Collateral(ctx)
	if err != nil {
		return fmt.Errorf("read symmio collateral: %w", err)
	}
	if collateral != v.params.Collateral {
		return fmt.Errorf("%w: %s settles in %s, vault holds %s", ErrCollateralCannotBeChanged,
			symmio.Hex(), collateral.Hex(), v.params.Collateral.Hex())
	}
	params := v.params.Clone()
	params.Symmio = symmio
	if err := v.commitParams(ctx, caller, &params, "symmio", symmio.Hex()); err != nil {
		return err
	}
	v.symmio = settlement
	return nil
}

func (v *Vault) commitParams(ctx context.Context, caller common.Address, params *Params, field, value string) error {
	change := &Change{
		Params: params,
		Events: []Event{&ParamsUpdatedEvent{Field: field, Value: value, Sender: caller}},
	}
	if err := v.commit(ctx, change, nil); err != nil {
		return err
	}
	log.Infof("Vault %s set to %s by %s", field, value, caller.Hex())
	return nil
}

func (v *Vault) Pause(ctx context.Context, caller common.Address) error {
	return v.setPaused(ctx, caller, true)
}

func (v *Vault) Unpause(ctx context.Context, caller common.Address) error {
	return v.setPaused(ctx, caller, false)
}

func (v *Vault) setPaused(ctx context.Context, caller common.Address, paused bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	op := access.OpUnpause
	var event Event = &UnpausedEvent{Account: caller}
	if paused {
		op = access.OpPause
		event = &PausedEvent{Account: caller}
	}
	if err := v.gate.Check(caller, op); err != nil {
		return err
	}
	if paused && v.gate.Paused() {
		return ErrPaused
	}
	if !paused && !v.gate.Paused() {
		return ErrNotPaused
	}
	if err := v.commit(ctx, &Change{Paused: &paused, Events: []Event{event}}, nil); err != nil {
		return err
	}
	log.Infof("Vault %s by %s", op, caller.Hex())
	return nil
}

// GrantRole adds account to role, granting a held role is a no-op
func (v *Vault) GrantRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkRoleChange(caller, access.OpGrantRole, role, account); err != nil {
		return err
	}
	if v.gate.HasRole(role, account) {
		return nil
	}
	grant := access.Grant{Role: role, Account: account}
	change := &Change{
		Grants: []access.Grant{grant},
		Events: []Event{&RoleGrantedEvent{Role: role, Account: account, Sender: caller}},
	}
	if err := v.commit(ctx, change, nil); err != nil {
		return err
	}
	log.Infof("Role %s granted to %s by %s", role, account.Hex(), caller.Hex())
	return nil
}

// RevokeRole removes account from role, revoking a missing role is a no-op
func (v *Vault) RevokeRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkRoleChange(caller, access.OpRevokeRole, role, account); err != nil {
		return err
	}
	if !v.gate.HasRole(role, account) {
		return nil
	}
	grant := access.Grant{Role: role, Account: account}
	change := &Change{
		Revokes: []access.Grant{grant},
		Events:  []Event{&RoleRevokedEvent{Role: role, Account: account, Sender: caller}},
	}
	if err := v.commit(ctx, change, nil); err != nil {
		return err
	}
	log.Infof("Role %s revoked from %s by %s", role, account.Hex(), caller.Hex())
	return nil
}

func (v *Vault) checkRoleChange(caller common.Address, op access.Operation, role access.Role, account common.Address) error {
	if err := v.gate.Check(caller, op); err != nil {
		return err
	}
	if role == access.RoleNone || role > access.RoleUnpauser {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	if account == (common.Address{}) {
		return ErrZeroAddress
	}
	return nil
}
