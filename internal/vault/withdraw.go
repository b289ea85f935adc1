package vault

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/types"
	log "github.com/sirupsen/logrus"
)

// RequestWithdraw burns amount vault token from caller and queues a pending request
// paying receiver. It returns the new request id.
func (v *Vault) RequestWithdraw(ctx context.Context, caller common.Address, amount *big.Int, receiver common.Address) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpRequestWithdraw); err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	if receiver == (common.Address{}) {
		return 0, fmt.Errorf("%w: receiver", ErrZeroAddress)
	}
	if v.registry.NextID() > math.MaxUint32 {
		return 0, ErrRegistryFull
	}
	balance, err := v.vaultToken.BalanceOf(ctx, caller)
	if err != nil {
		return 0, transferFailed("read vault token balance", err)
	}
	if balance.Cmp(amount) < 0 {
		return 0, fmt.Errorf("%w: balance %s, amount %s", ErrInsufficientTokenBalance, balance, amount)
	}
	collateralAmount := types.ToCollateralPrecision(amount, v.params.CollateralDecimals, v.params.VaultTokenDecimals)
	if collateralAmount.Sign() == 0 {
		return 0, fmt.Errorf("%w: %s vault token is below one collateral unit", ErrInvalidAmount, amount)
	}

	req := WithdrawRequest{
		ID:           v.registry.NextID(),
		Receiver:     receiver,
		Amount:       collateralAmount,
		Status:       RequestPending,
		PaybackRatio: new(big.Int),
	}
	change := &Change{
		Requests: []WithdrawRequest{req},
		Events:   []Event{&WithdrawRequestEvent{RequestID: req.ID, Receiver: receiver, Amount: types.CopyInt(collateralAmount)}},
	}
	if v.params.DepositRelease == ReleaseOnRequest {
		state := v.ledger.Clone()
		state.CurrentDeposit = subFloor(state.CurrentDeposit, collateralAmount)
		change.Ledger = &state
	}

	err = v.commit(ctx, change, func() error {
		if err := v.vaultToken.BurnFrom(ctx, caller, amount); err != nil {
			return transferFailed("burn vault token", err)
		}
		return nil
	})
	if err != nil {
		log.Debugf("RequestWithdraw from %s rejected: %v", caller.Hex(), err)
		return 0, err
	}

	log.Infof("RequestWithdraw %d from %s, receiver: %s, vault token: %s, amount: %s",
		req.ID, caller.Hex(), receiver.Hex(), amount, collateralAmount)
	return req.ID, nil
}

// AcceptWithdrawRequest moves a batch of pending requests to ready at one payback ratio and locks
// their payout. depositAmount is pulled from the caller first to top up custody. Either the whole
// batch is accepted or nothing changes.
func (v *Vault) AcceptWithdrawRequest(ctx context.Context, caller common.Address, depositAmount *big.Int, ids []uint64, paybackRatio *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpAcceptWithdraw); err != nil {
		return err
	}
	if depositAmount == nil {
		depositAmount = new(big.Int)
	}
	if depositAmount.Sign() < 0 {
		return fmt.Errorf("%w: deposit amount %s", ErrInvalidAmount, depositAmount)
	}
	if paybackRatio == nil || paybackRatio.Sign() < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPaybackRatio, paybackRatio)
	}

	accepted := make([]WithdrawRequest, 0, len(ids))
	for _, id := range ids {
		req, err := v.registry.Get(id)
		if err != nil {
			return err
		}
		accepted = append(accepted, req)
	}
	seen := make(map[uint64]struct{}, len(ids))
	for _, req := range accepted {
		if req.Status != RequestPending {
			return fmt.Errorf("%w: request %d is %s", ErrInvalidAcceptedRequest, req.ID, req.Status)
		}
		if _, dup := seen[req.ID]; dup {
			return fmt.Errorf("%w: request %d listed twice", ErrInvalidAcceptedRequest, req.ID)
		}
		seen[req.ID] = struct{}{}
	}
	if paybackRatio.Cmp(v.params.MinimumPaybackRatio) < 0 {
		return fmt.Errorf("%w: %s below %s", ErrPaybackRatioTooLow,
			types.FormatRatio(paybackRatio), types.FormatRatio(v.params.MinimumPaybackRatio))
	}
	if err := checkRatio(paybackRatio); err != nil {
		return err
	}

	required := new(big.Int)
	released := new(big.Int)
	for i := range accepted {
		accepted[i].Status = RequestReady
		accepted[i].PaybackRatio = types.CopyInt(paybackRatio)
		required.Add(required, accepted[i].Payout())
		released.Add(released, accepted[i].Amount)
	}
	available, err := v.availableBalance(ctx, depositAmount)
	if err != nil {
		return err
	}
	if required.Cmp(available) > 0 {
		return fmt.Errorf("%w: required %s, available %s", ErrInsufficientContractBalance, required, available)
	}

	state := v.ledger.Clone()
	state.LockedBalance.Add(state.LockedBalance, required)
	if v.params.DepositRelease == ReleaseOnAccept {
		state.CurrentDeposit = subFloor(state.CurrentDeposit, released)
	}
	change := &Change{
		Ledger:   &state,
		Requests: accepted,
		Events: []Event{&WithdrawRequestAcceptedEvent{
			ProvidedAmount: types.CopyInt(depositAmount),
			RequestIDs:     append([]uint64(nil), ids...),
			PaybackRatio:   types.CopyInt(paybackRatio),
		}},
	}

	custody := v.backend.Custodian()
	err = v.commit(ctx, change, func() error {
		if depositAmount.Sign() == 0 {
			return nil
		}
		if err := v.collateral.TransferFrom(ctx, caller, custody, depositAmount); err != nil {
			return transferFailed("pull balancer deposit", err)
		}
		return nil
	})
	if err != nil {
		log.Warnf("AcceptWithdrawRequest by %s failed: %v", caller.Hex(), err)
		return err
	}

	log.Infof("AcceptWithdrawRequest by %s, ids: %v, ratio: %s, provided: %s, locked: %s",
		caller.Hex(), ids, types.FormatRatio(paybackRatio), depositAmount, state.LockedBalance)
	return nil
}

// ClaimForWithdrawRequest pays a ready request to its stored receiver. Any caller may claim.
func (v *Vault) ClaimForWithdrawRequest(ctx context.Context, caller common.Address, id uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gate.Check(caller, access.OpClaimWithdraw); err != nil {
		return err
	}
	req, err := v.registry.Get(id)
	if err != nil {
		return err
	}
	if req.Status != RequestReady {
		return fmt.Errorf("%w: request %d is %s", ErrRequestNotReady, id, req.Status)
	}

	payout := req.Payout()
	req.Status = RequestDone
	state := v.ledger.Clone()
	state.LockedBalance = subFloor(state.LockedBalance, payout)
	change := &Change{
		Ledger:   &state,
		Requests: []WithdrawRequest{req},
		Events:   []Event{&WithdrawClaimedEvent{RequestID: id, Receiver: req.Receiver}},
	}

	err = v.commit(ctx, change, func() error {
		if payout.Sign() == 0 {
			return nil
		}
		if err := v.collateral.Transfer(ctx, req.Receiver, payout); err != nil {
			return transferFailed("pay receiver", err)
		}
		return nil
	})
	if err != nil {
		log.Warnf("ClaimForWithdrawRequest %d by %s failed: %v", id, caller.Hex(), err)
		return err
	}

	log.Infof("ClaimForWithdrawRequest %d by %s, receiver: %s, payout: %s", id, caller.Hex(), req.Receiver.Hex(), payout)
	return nil
}
