package access

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin     = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	depositor = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	other     = common.HexToAddress("0x0000000000000000000000000000000000000a03")
)

func TestAuthorizeTable(t *testing.T) {
	assert.True(t, Authorize(RoleNone, OpDeposit))
	assert.True(t, Authorize(RoleBalancer, OpDeposit))
	assert.True(t, Authorize(RoleDepositor, OpDepositToSymmio))
	assert.False(t, Authorize(RoleBalancer, OpDepositToSymmio))
	assert.True(t, Authorize(RoleBalancer, OpAcceptWithdraw))
	assert.False(t, Authorize(RoleAdmin, OpAcceptWithdraw))
	assert.True(t, Authorize(RoleSetter, OpSetDepositLimit))
	assert.False(t, Authorize(RoleAdmin, OpSetDepositLimit))
	assert.True(t, Authorize(RoleAdmin, OpSetSolver))
	assert.True(t, Authorize(RolePauser, OpPause))
	assert.False(t, Authorize(RolePauser, OpUnpause))
	assert.True(t, Authorize(RoleUnpauser, OpUnpause))
	assert.False(t, Authorize(RoleAdmin, Operation(200)))
}

func TestGateCheck(t *testing.T) {
	g := NewGate()
	g.Grant(RoleAdmin, admin)
	g.Grant(RoleDepositor, depositor)

	assert.NoError(t, g.Check(other, OpDeposit))
	assert.NoError(t, g.Check(depositor, OpDepositToSymmio))
	assert.NoError(t, g.Check(admin, OpSetSolver))

	err := g.Check(other, OpDepositToSymmio)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	err = g.Check(admin, OpDepositToSymmio)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	g.Revoke(RoleDepositor, depositor)
	assert.True(t, errors.Is(g.Check(depositor, OpDepositToSymmio), ErrUnauthorized))
	assert.Empty(t, g.Members(RoleDepositor))
}

func TestGatePause(t *testing.T) {
	g := NewGate()
	g.Grant(RoleAdmin, admin)
	g.SetPaused(true)

	for _, op := range []Operation{OpDeposit, OpRequestWithdraw, OpClaimWithdraw} {
		assert.True(t, errors.Is(g.Check(other, op), ErrPaused), op.String())
	}
	// paused wins over the role check
	assert.True(t, errors.Is(g.Check(other, OpAcceptWithdraw), ErrPaused))
	// configuration stays available
	assert.NoError(t, g.Check(admin, OpSetSolver))

	g.SetPaused(false)
	assert.NoError(t, g.Check(other, OpDeposit))
}

func TestGrants(t *testing.T) {
	g := NewGate()
	g.Grant(RoleDepositor, depositor)
	g.Grant(RoleAdmin, admin)
	g.Grant(RoleAdmin, admin)

	assert.Equal(t, []Grant{
		{Role: RoleAdmin, Account: admin},
		{Role: RoleDepositor, Account: depositor},
	}, g.Grants())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Balancer ")
	require.NoError(t, err)
	assert.Equal(t, RoleBalancer, r)

	_, err = ParseRole("none")
	assert.Error(t, err)
	_, err = ParseRole("minter")
	assert.Error(t, err)
	assert.Equal(t, "role(99)", Role(99).String())
}
