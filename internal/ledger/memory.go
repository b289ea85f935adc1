package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryToken is an in-process ERC20 with mint and burnFrom, balances live only in memory.
type MemoryToken struct {
	mu sync.Mutex

	address    common.Address
	decimals   uint8
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	minters    map[common.Address]struct{}

	fault error
}

func NewMemoryToken(address common.Address, decimals uint8) *MemoryToken {
	return &MemoryToken{
		address:    address,
		decimals:   decimals,
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
		minters:    make(map[common.Address]struct{}),
	}
}

func (t *MemoryToken) Address() common.Address {
	return t.address
}

func (t *MemoryToken) DecimalsValue() uint8 {
	return t.decimals
}

// SetFault makes every following mutation fail with err, nil clears it
func (t *MemoryToken) SetFault(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fault = err
}

func (t *MemoryToken) GrantMinter(account common.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minters[account] = struct{}{}
}

func (t *MemoryToken) Balance(account common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balanceLocked(account))
}

func (t *MemoryToken) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.supply)
}

func (t *MemoryToken) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.allowanceLocked(owner, spender))
}

func (t *MemoryToken) Approve(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*big.Int)
		t.allowances[owner] = spenders
	}
	spenders[spender] = new(big.Int).Set(amount)
}

// MintAs mints as minter, minter must hold the minter role
func (t *MemoryToken) MintAs(minter, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil {
		return t.fault
	}
	if _, ok := t.minters[minter]; !ok {
		return fmt.Errorf("%w: %s", ErrNotMinter, minter.Hex())
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.credit(to, amount)
	t.supply.Add(t.supply, amount)
	return nil
}

func (t *MemoryToken) TransferAs(from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil {
		return t.fault
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	return t.move(from, to, amount)
}

func (t *MemoryToken) TransferFromAs(spender, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil {
		return t.fault
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := t.spendAllowance(from, spender, amount); err != nil {
		return err
	}
	return t.move(from, to, amount)
}

// BurnFromAs burns from an account that approved spender
func (t *MemoryToken) BurnFromAs(spender, from common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil {
		return t.fault
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if t.balanceLocked(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), t.balanceLocked(from), amount)
	}
	if err := t.spendAllowance(from, spender, amount); err != nil {
		return err
	}
	t.debit(from, amount)
	t.supply.Sub(t.supply, amount)
	return nil
}

// As returns a view of the token acting as account
func (t *MemoryToken) As(account common.Address) *MemoryTokenAccount {
	return &MemoryTokenAccount{token: t, actor: account}
}

func (t *MemoryToken) move(from, to common.Address, amount *big.Int) error {
	if t.balanceLocked(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), t.balanceLocked(from), amount)
	}
	t.debit(from, amount)
	t.credit(to, amount)
	return nil
}

func (t *MemoryToken) spendAllowance(owner, spender common.Address, amount *big.Int) error {
	if owner == spender {
		return nil
	}
	allowed := t.allowanceLocked(owner, spender)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allowed %s by %s, needs %s", ErrInsufficientAllowance, spender.Hex(), allowed, owner.Hex(), amount)
	}
	t.allowances[owner][spender] = new(big.Int).Sub(allowed, amount)
	return nil
}

func (t *MemoryToken) balanceLocked(account common.Address) *big.Int {
	if b, ok := t.balances[account]; ok {
		return b
	}
	return new(big.Int)
}

func (t *MemoryToken) allowanceLocked(owner, spender common.Address) *big.Int {
	if spenders, ok := t.allowances[owner]; ok {
		if a, ok := spenders[spender]; ok {
			return a
		}
	}
	return new(big.Int)
}

func (t *MemoryToken) credit(account common.Address, amount *big.Int) {
	t.balances[account] = new(big.Int).Add(t.balanceLocked(account), amount)
}

func (t *MemoryToken) debit(account common.Address, amount *big.Int) {
	t.balances[account] = new(big.Int).Sub(t.balanceLocked(account), amount)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid amount %v", amount)
	}
	return nil
}

// MemoryTokenAccount implements MintableAsset for a fixed actor
type MemoryTokenAccount struct {
	token *MemoryToken
	actor common.Address
}

var _ MintableAsset = (*MemoryTokenAccount)(nil)

func (a *MemoryTokenAccount) Address() common.Address {
	return a.token.address
}

func (a *MemoryTokenAccount) Decimals(ctx context.Context) (uint8, error) {
	return a.token.decimals, nil
}

func (a *MemoryTokenAccount) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return a.token.Balance(account), nil
}

func (a *MemoryTokenAccount) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return a.token.TransferAs(a.actor, to, amount)
}

func (a *MemoryTokenAccount) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	return a.token.TransferFromAs(a.actor, from, to, amount)
}

func (a *MemoryTokenAccount) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	return a.token.MintAs(a.actor, to, amount)
}

func (a *MemoryTokenAccount) BurnFrom(ctx context.Context, from common.Address, amount *big.Int) error {
	return a.token.BurnFromAs(a.actor, from, amount)
}
