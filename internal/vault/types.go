package vault

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/types"
)

type RequestStatus uint8

const (
	RequestPending RequestStatus = iota
	RequestReady
	RequestDone
)

func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestReady:
		return "ready"
	case RequestDone:
		return "done"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func ParseRequestStatus(value string) (RequestStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pending":
		return RequestPending, nil
	case "ready":
		return RequestReady, nil
	case "done":
		return RequestDone, nil
	}
	return 0, fmt.Errorf("unknown request status %q", value)
}

// canMoveTo allows exactly one step forward
func (s RequestStatus) canMoveTo(next RequestStatus) bool {
	return next == s+1 && next <= RequestDone
}

// DepositRelease selects when a withdrawal gives its deposit headroom back
type DepositRelease uint8

const (
	// ReleaseOnAccept lowers currentDeposit by the face amount when the balancer accepts
	ReleaseOnAccept DepositRelease = iota
	// ReleaseOnRequest lowers currentDeposit as soon as the user requests the withdrawal
	ReleaseOnRequest
)

func (r DepositRelease) String() string {
	if r == ReleaseOnRequest {
		return "request"
	}
	return "accept"
}

func ParseDepositRelease(value string) (DepositRelease, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "accept":
		return ReleaseOnAccept, nil
	case "request":
		return ReleaseOnRequest, nil
	}
	return ReleaseOnAccept, fmt.Errorf("unknown deposit release mode %q", value)
}

// Params is the vault configuration
type Params struct {
	Collateral          common.Address
	CollateralDecimals  uint8
	VaultToken          common.Address
	VaultTokenDecimals  uint8
	Symmio              common.Address
	Solver              common.Address
	DepositLimit        *big.Int
	MinimumPaybackRatio *big.Int
	DepositRelease      DepositRelease
}

func (p Params) Clone() Params {
	p.DepositLimit = types.CopyInt(p.DepositLimit)
	p.MinimumPaybackRatio = types.CopyInt(p.MinimumPaybackRatio)
	return p
}

// LedgerState holds the solvency figures
type LedgerState struct {
	CurrentDeposit *big.Int
	LockedBalance  *big.Int
	// Deposited turns true with the first accepted deposit and never resets
	Deposited bool
}

func (l LedgerState) Clone() LedgerState {
	l.CurrentDeposit = types.CopyInt(l.CurrentDeposit)
	l.LockedBalance = types.CopyInt(l.LockedBalance)
	return l
}

type WithdrawRequest struct {
	ID           uint64         `json:"id"`
	Receiver     common.Address `json:"receiver"`
	Amount       *big.Int       `json:"amount"`
	Status       RequestStatus  `json:"status"`
	PaybackRatio *big.Int       `json:"payback_ratio"`
}

func (r WithdrawRequest) Clone() WithdrawRequest {
	r.Amount = types.CopyInt(r.Amount)
	r.PaybackRatio = types.CopyInt(r.PaybackRatio)
	return r
}

// Payout is the collateral owed on claim
func (r WithdrawRequest) Payout() *big.Int {
	return types.MulRatio(r.Amount, r.PaybackRatio)
}

// subFloor returns a-b, clamped at zero
func subFloor(a, b *big.Int) *big.Int {
	out := new(big.Int).Sub(a, b)
	if out.Sign() < 0 {
		return out.SetInt64(0)
	}
	return out
}
