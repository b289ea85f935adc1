package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/state"
)

// Event is emitted after an operation commits
type Event interface {
	Type() state.EventType
}

type DepositEvent struct {
	User   common.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
}

type DepositToSymmioEvent struct {
	Caller common.Address `json:"caller"`
	Solver common.Address `json:"solver"`
	Amount *big.Int       `json:"amount"`
}

type WithdrawRequestEvent struct {
	RequestID uint64         `json:"request_id"`
	Receiver  common.Address `json:"receiver"`
	Amount    *big.Int       `json:"amount"`
}

type WithdrawRequestAcceptedEvent struct {
	ProvidedAmount *big.Int `json:"provided_amount"`
	RequestIDs     []uint64 `json:"request_ids"`
	PaybackRatio   *big.Int `json:"payback_ratio"`
}

type WithdrawClaimedEvent struct {
	RequestID uint64         `json:"request_id"`
	Receiver  common.Address `json:"receiver"`
}

type PausedEvent struct {
	Account common.Address `json:"account"`
}

type UnpausedEvent struct {
	Account common.Address `json:"account"`
}

type RoleGrantedEvent struct {
	Role    access.Role    `json:"role"`
	Account common.Address `json:"account"`
	Sender  common.Address `json:"sender"`
}

type RoleRevokedEvent struct {
	Role    access.Role    `json:"role"`
	Account common.Address `json:"account"`
	Sender  common.Address `json:"sender"`
}

// ParamsUpdatedEvent records a configuration change, Value is rendered as text
type ParamsUpdatedEvent struct {
	Field  string         `json:"field"`
	Value  string         `json:"value"`
	Sender common.Address `json:"sender"`
}

func (*DepositEvent) Type() state.EventType                 { return state.Deposit }
func (*DepositToSymmioEvent) Type() state.EventType         { return state.DepositToSymmio }
func (*WithdrawRequestEvent) Type() state.EventType         { return state.WithdrawRequest }
func (*WithdrawRequestAcceptedEvent) Type() state.EventType { return state.WithdrawRequestAccepted }
func (*WithdrawClaimedEvent) Type() state.EventType         { return state.WithdrawClaimed }
func (*PausedEvent) Type() state.EventType                  { return state.Paused }
func (*UnpausedEvent) Type() state.EventType                { return state.Unpaused }
func (*RoleGrantedEvent) Type() state.EventType             { return state.RoleGranted }
func (*RoleRevokedEvent) Type() state.EventType             { return state.RoleRevoked }
func (*ParamsUpdatedEvent) Type() state.EventType           { return state.ParamsUpdated }

// Publisher receives committed events, *state.EventBus satisfies it
type Publisher interface {
	Publish(eventType state.EventType, data interface{})
}
