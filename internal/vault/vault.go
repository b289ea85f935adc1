package vault

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/ledger"
	"github.com/goatnetwork/solver-vault/internal/types"
	log "github.com/sirupsen/logrus"
)

// InitParams configures a vault on first boot, ignored when the store already holds state
type InitParams struct {
	Owner               common.Address
	Symmio              common.Address
	VaultToken          common.Address
	Solver              common.Address
	DepositLimit        *big.Int
	MinimumPaybackRatio *big.Int
	DepositRelease      DepositRelease
	// Grants are extra role memberships, the owner always gets RoleAdmin
	Grants []access.Grant
}

// Vault is the custodial ledger. Every mutating operation holds the write lock until the
// store commit and its external effects are done, so operations apply strictly one at a time.
type Vault struct {
	mu sync.RWMutex

	backend ledger.Backend
	store   Store
	bus     Publisher

	params   Params
	ledger   LedgerState
	gate     *access.Gate
	registry *Registry

	collateral ledger.Asset
	vaultToken ledger.MintableAsset
	symmio     ledger.Settlement
}

func New(ctx context.Context, backend ledger.Backend, store Store, bus Publisher, init InitParams) (*Vault, error) {
	if store == nil {
		store = NopStore{}
	}
	v := &Vault{
		backend: backend,
		store:   store,
		bus:     bus,
		gate:    access.NewGate(),
	}

	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vault snapshot: %w", err)
	}
	if snap != nil {
		if err := v.restore(ctx, snap); err != nil {
			return nil, err
		}
		log.Infof("Vault restored, collateral: %s, requests: %d, current deposit: %s, locked: %s",
			v.params.Collateral.Hex(), v.registry.Len(), v.ledger.CurrentDeposit, v.ledger.LockedBalance)
		return v, nil
	}

	if err := v.initialize(ctx, init); err != nil {
		return nil, err
	}
	log.Infof("Vault initialized, collateral: %s, vault token: %s, symmio: %s, solver: %s",
		v.params.Collateral.Hex(), v.params.VaultToken.Hex(), v.params.Symmio.Hex(), v.params.Solver.Hex())
	return v, nil
}

func (v *Vault) initialize(ctx context.Context, init InitParams) error {
	for _, addr := range []common.Address{init.Owner, init.Symmio, init.VaultToken, init.Solver} {
		if addr == (common.Address{}) {
			return ErrZeroAddress
		}
	}
	limit := types.CopyInt(init.DepositLimit)
	if limit == nil {
		limit = new(big.Int)
	}
	if limit.Sign() < 0 {
		return fmt.Errorf("%w: deposit limit %s", ErrInvalidAmount, limit)
	}
	minRatio := types.CopyInt(init.MinimumPaybackRatio)
	if minRatio == nil {
		minRatio = new(big.Int)
	}
	if err := checkRatio(minRatio); err != nil {
		return err
	}

	settlement, err := v.backend.Settlement(ctx, init.Symmio)
	if err != nil {
		return fmt.Errorf("resolve symmio %s: %w", init.Symmio.Hex(), err)
	}
	collateralAddr, err := settlement.Collateral(ctx)
	if err != nil {
		return fmt.Errorf("read symmio collateral: %w", err)
	}
	collateral, collateralDecimals, err := v.resolveAsset(ctx, collateralAddr)
	if err != nil {
		return err
	}
	vaultToken, vaultDecimals, err := v.resolveVaultToken(ctx, init.VaultToken)
	if err != nil {
		return err
	}

	params := Params{
		Collateral:          collateralAddr,
		CollateralDecimals:  collateralDecimals,
		VaultToken:          init.VaultToken,
		VaultTokenDecimals:  vaultDecimals,
		Symmio:              init.Symmio,
		Solver:              init.Solver,
		DepositLimit:        limit,
		MinimumPaybackRatio: minRatio,
		DepositRelease:      init.DepositRelease,
	}
	state := LedgerState{CurrentDeposit: new(big.Int), LockedBalance: new(big.Int)}
	paused := false

	grants := []access.Grant{{Role: access.RoleAdmin, Account: init.Owner}}
	for _, g := range init.Grants {
		if g.Role == access.RoleNone || g.Account == (common.Address{}) {
			return fmt.Errorf("%w: %s for %s", ErrInvalidRole, g.Role, g.Account.Hex())
		}
		grants = append(grants, g)
	}
	change := &Change{Params: &params, Ledger: &state, Paused: &paused, Grants: grants}
	for _, g := range grants {
		change.Events = append(change.Events, &RoleGrantedEvent{Role: g.Role, Account: g.Account, Sender: init.Owner})
	}

	v.registry = &Registry{}
	v.collateral = collateral
	v.vaultToken = vaultToken
	v.symmio = settlement
	return v.commit(ctx, change, nil)
}

func (v *Vault) restore(ctx context.Context, snap *Snapshot) error {
	registry, err := NewRegistry(snap.Requests)
	if err != nil {
		return fmt.Errorf("restore withdraw requests: %w", err)
	}
	settlement, err := v.backend.Settlement(ctx, snap.Params.Symmio)
	if err != nil {
		return fmt.Errorf("resolve symmio %s: %w", snap.Params.Symmio.Hex(), err)
	}
	collateral, err := v.backend.Asset(ctx, snap.Params.Collateral)
	if err != nil {
		return fmt.Errorf("resolve collateral %s: %w", snap.Params.Collateral.Hex(), err)
	}
	vaultToken, err := v.backend.MintableAsset(ctx, snap.Params.VaultToken)
	if err != nil {
		return fmt.Errorf("resolve vault token %s: %w", snap.Params.VaultToken.Hex(), err)
	}

	v.params = snap.Params.Clone()
	v.ledger = snap.Ledger.Clone()
	if v.ledger.CurrentDeposit == nil {
		v.ledger.CurrentDeposit = new(big.Int)
	}
	if v.ledger.LockedBalance == nil {
		v.ledger.LockedBalance = new(big.Int)
	}
	v.registry = registry
	v.gate.SetPaused(snap.Paused)
	for _, g := range snap.Grants {
		v.gate.Grant(g.Role, g.Account)
	}
	v.collateral = collateral
	v.vaultToken = vaultToken
	v.symmio = settlement
	return nil
}

func (v *Vault) resolveAsset(ctx context.Context, addr common.Address) (ledger.Asset, uint8, error) {
	asset, err := v.backend.Asset(ctx, addr)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve collateral %s: %w", addr.Hex(), err)
	}
	decimals, err := asset.Decimals(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("read collateral decimals: %w", err)
	}
	return asset, decimals, nil
}

func (v *Vault) resolveVaultToken(ctx context.Context, addr common.Address) (ledger.MintableAsset, uint8, error) {
	token, err := v.backend.MintableAsset(ctx, addr)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve vault token %s: %w", addr.Hex(), err)
	}
	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("read vault token decimals: %w", err)
	}
	return token, decimals, nil
}

// commit persists change together with effects, then applies it in memory and publishes its events.
// Callers hold the write lock.
func (v *Vault) commit(ctx context.Context, change *Change, effects func() error) error {
	if err := v.store.Commit(ctx, change, effects); err != nil {
		return err
	}
	v.apply(change)
	for _, event := range change.Events {
		v.publish(event)
	}
	return nil
}

func (v *Vault) apply(change *Change) {
	if change.Params != nil {
		v.params = change.Params.Clone()
	}
	if change.Ledger != nil {
		v.ledger = change.Ledger.Clone()
	}
	if change.Paused != nil {
		v.gate.SetPaused(*change.Paused)
	}
	for _, req := range change.Requests {
		var err error
		if req.ID == v.registry.NextID() {
			err = v.registry.Append(req)
		} else {
			err = v.registry.Replace(req)
		}
		if err != nil {
			// validated before commit, reaching this means the registry and store diverged
			log.Errorf("Apply withdraw request %d: %v", req.ID, err)
		}
	}
	for _, g := range change.Grants {
		v.gate.Grant(g.Role, g.Account)
	}
	for _, g := range change.Revokes {
		v.gate.Revoke(g.Role, g.Account)
	}
}

func (v *Vault) publish(event Event) {
	if v.bus == nil {
		return
	}
	v.bus.Publish(event.Type(), event)
}

func checkRatio(ratio *big.Int) error {
	if ratio == nil || ratio.Sign() < 0 || ratio.Cmp(types.RatioOne) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPaybackRatio, ratio)
	}
	return nil
}

func checkAmount(amount *big.Int) error {
	if !types.IsPositive(amount) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}
