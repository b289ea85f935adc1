package access

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrPaused       = errors.New("paused")
	ErrNotPaused    = errors.New("not paused")
)

// Grant is one (role, account) membership
type Grant struct {
	Role    Role
	Account common.Address
}

// Gate holds role memberships and the halt flag. It is not safe for concurrent use,
// the owner serializes access.
type Gate struct {
	members map[Role]map[common.Address]struct{}
	paused  bool
}

func NewGate() *Gate {
	return &Gate{members: make(map[Role]map[common.Address]struct{})}
}

// Check runs the pause check first for haltable operations, then the role check
func (g *Gate) Check(caller common.Address, op Operation) error {
	if g.paused && Haltable(op) {
		return fmt.Errorf("%w: %s", ErrPaused, op)
	}
	required := RequiredRole(op)
	if required == RoleNone {
		return nil
	}
	if g.HasRole(required, caller) && Authorize(required, op) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s, caller %s", ErrUnauthorized, op, required, caller.Hex())
}

func (g *Gate) HasRole(role Role, account common.Address) bool {
	set, ok := g.members[role]
	if !ok {
		return false
	}
	_, ok = set[account]
	return ok
}

func (g *Gate) Grant(role Role, account common.Address) {
	set, ok := g.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		g.members[role] = set
	}
	set[account] = struct{}{}
}

func (g *Gate) Revoke(role Role, account common.Address) {
	set, ok := g.members[role]
	if !ok {
		return
	}
	delete(set, account)
	if len(set) == 0 {
		delete(g.members, role)
	}
}

func (g *Gate) Paused() bool {
	return g.paused
}

func (g *Gate) SetPaused(paused bool) {
	g.paused = paused
}

// Grants lists every membership ordered by role then address
func (g *Gate) Grants() []Grant {
	var out []Grant
	for role, set := range g.members {
		for account := range set {
			out = append(out, Grant{Role: role, Account: account})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Account.Cmp(out[j].Account) < 0
	})
	return out
}

// Members lists the accounts holding role
func (g *Gate) Members(role Role) []common.Address {
	var out []common.Address
	for account := range g.members[role] {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}
