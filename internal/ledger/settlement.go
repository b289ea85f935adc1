package ledger

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemorySettlement stands in for the symmio contract: it takes collateral and keeps
// a per-beneficiary balance.
type MemorySettlement struct {
	mu sync.Mutex

	address    common.Address
	collateral *MemoryToken
	balances   map[common.Address]*big.Int
}

func NewMemorySettlement(address common.Address, collateral *MemoryToken) *MemorySettlement {
	return &MemorySettlement{
		address:    address,
		collateral: collateral,
		balances:   make(map[common.Address]*big.Int),
	}
}

func (s *MemorySettlement) Address() common.Address {
	return s.address
}

func (s *MemorySettlement) CollateralToken() *MemoryToken {
	return s.collateral
}

func (s *MemorySettlement) BalanceOf(beneficiary common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[beneficiary]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// DepositForAs moves collateral from payer into the settlement and credits beneficiary
func (s *MemorySettlement) DepositForAs(payer, beneficiary common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collateral.TransferAs(payer, s.address, amount); err != nil {
		return err
	}
	current, ok := s.balances[beneficiary]
	if !ok {
		current = new(big.Int)
	}
	s.balances[beneficiary] = new(big.Int).Add(current, amount)
	return nil
}

func (s *MemorySettlement) As(account common.Address) *MemorySettlementAccount {
	return &MemorySettlementAccount{settlement: s, actor: account}
}

// MemorySettlementAccount implements Settlement for a fixed payer
type MemorySettlementAccount struct {
	settlement *MemorySettlement
	actor      common.Address
}

var _ Settlement = (*MemorySettlementAccount)(nil)

func (a *MemorySettlementAccount) Address() common.Address {
	return a.settlement.address
}

func (a *MemorySettlementAccount) Collateral(ctx context.Context) (common.Address, error) {
	return a.settlement.collateral.Address(), nil
}

func (a *MemorySettlementAccount) DepositFor(ctx context.Context, beneficiary common.Address, amount *big.Int) error {
	return a.settlement.DepositForAs(a.actor, beneficiary, amount)
}
