package vault

import (
	"context"

	"github.com/goatnetwork/solver-vault/internal/access"
)

// Snapshot is the complete persisted vault state
type Snapshot struct {
	Params   Params
	Ledger   LedgerState
	Paused   bool
	Requests []WithdrawRequest
	Grants   []access.Grant
}

// Change is what one operation writes. Nil fields are left untouched.
type Change struct {
	Params   *Params
	Ledger   *LedgerState
	Paused   *bool
	Requests []WithdrawRequest
	Grants   []access.Grant
	Revokes  []access.Grant
	Events   []Event
}

// Store persists vault changes. Commit must write change and run effects in one
// transaction: when effects fails nothing is persisted and its error is returned as is.
type Store interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	Commit(ctx context.Context, change *Change, effects func() error) error
}

// NopStore keeps nothing, the vault lives in memory only
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	return nil, nil
}

func (NopStore) Commit(ctx context.Context, change *Change, effects func() error) error {
	if effects == nil {
		return nil
	}
	return effects()
}
