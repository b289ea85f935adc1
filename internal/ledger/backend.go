package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryBackend resolves registered in-process contracts acting as custodian
type MemoryBackend struct {
	mu sync.RWMutex

	custodian   common.Address
	tokens      map[common.Address]*MemoryToken
	settlements map[common.Address]*MemorySettlement
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend(custodian common.Address) *MemoryBackend {
	return &MemoryBackend{
		custodian:   custodian,
		tokens:      make(map[common.Address]*MemoryToken),
		settlements: make(map[common.Address]*MemorySettlement),
	}
}

func (b *MemoryBackend) AddToken(token *MemoryToken) *MemoryToken {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token.Address()] = token
	return token
}

func (b *MemoryBackend) AddSettlement(settlement *MemorySettlement) *MemorySettlement {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settlements[settlement.Address()] = settlement
	b.tokens[settlement.CollateralToken().Address()] = settlement.CollateralToken()
	return settlement
}

func (b *MemoryBackend) Token(address common.Address) (*MemoryToken, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tokens[address]
	return t, ok
}

func (b *MemoryBackend) Custodian() common.Address {
	return b.custodian
}

func (b *MemoryBackend) Asset(ctx context.Context, address common.Address) (Asset, error) {
	return b.MintableAsset(ctx, address)
}

func (b *MemoryBackend) MintableAsset(ctx context.Context, address common.Address) (MintableAsset, error) {
	token, ok := b.Token(address)
	if !ok {
		return nil, fmt.Errorf("%w: token %s", ErrUnknownContract, address.Hex())
	}
	return token.As(b.custodian), nil
}

func (b *MemoryBackend) Settlement(ctx context.Context, address common.Address) (Settlement, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.settlements[address]
	if !ok {
		return nil, fmt.Errorf("%w: settlement %s", ErrUnknownContract, address.Hex())
	}
	return s.As(b.custodian), nil
}
