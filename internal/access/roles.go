package access

import (
	"fmt"
	"strings"
)

type Role uint8

const (
	RoleNone Role = iota
	RoleAdmin
	RoleDepositor
	RoleBalancer
	RoleSetter
	RolePauser
	RoleUnpauser
)

var roleNames = [...]string{"none", "admin", "depositor", "balancer", "setter", "pauser", "unpauser"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// AllRoles lists every grantable role
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleDepositor, RoleBalancer, RoleSetter, RolePauser, RoleUnpauser}
}

func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range AllRoles() {
		if r.String() == name {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown role %q", name)
}

type Operation uint8

const (
	OpDeposit Operation = iota
	OpRequestWithdraw
	OpClaimWithdraw
	OpDepositToSymmio
	OpAcceptWithdraw
	OpSetDepositLimit
	OpSetMinimumPaybackRatio
	OpSetVaultToken
	OpSetSolver
	OpSetSymmio
	OpGrantRole
	OpRevokeRole
	OpPause
	OpUnpause
)

var operationNames = [...]string{
	"deposit", "requestWithdraw", "claimForWithdrawRequest", "depositToSymmio", "acceptWithdrawRequest",
	"setDepositLimit", "setMinimumPaybackRatio", "setVaultToken", "setSolver", "setSymmioAddress",
	"grantRole", "revokeRole", "pause", "unpause",
}

func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return fmt.Sprintf("operation(%d)", uint8(o))
}

// permissions maps each operation to the role allowed to run it.
// RoleNone marks operations open to every caller.
var permissions = map[Operation]Role{
	OpDeposit:                RoleNone,
	OpRequestWithdraw:        RoleNone,
	OpClaimWithdraw:          RoleNone,
	OpDepositToSymmio:        RoleDepositor,
	OpAcceptWithdraw:         RoleBalancer,
	OpSetDepositLimit:        RoleSetter,
	OpSetMinimumPaybackRatio: RoleSetter,
	OpSetVaultToken:          RoleSetter,
	OpSetSolver:              RoleAdmin,
	OpSetSymmio:              RoleAdmin,
	OpGrantRole:              RoleAdmin,
	OpRevokeRole:             RoleAdmin,
	OpPause:                  RolePauser,
	OpUnpause:                RoleUnpauser,
}

// haltable operations are rejected while the vault is paused
var haltable = map[Operation]bool{
	OpDeposit:         true,
	OpRequestWithdraw: true,
	OpClaimWithdraw:   true,
	OpDepositToSymmio: true,
	OpAcceptWithdraw:  true,
}

// Authorize reports whether holding role is enough to run op.
// It only consults the static table, never ledger state.
func Authorize(role Role, op Operation) bool {
	required, ok := permissions[op]
	if !ok {
		return false
	}
	return required == RoleNone || required == role
}

// RequiredRole returns the role guarding op, RoleNone for public operations
func RequiredRole(op Operation) Role {
	return permissions[op]
}

// Haltable reports whether op is blocked by the pause flag
func Haltable(op Operation) bool {
	return haltable[op]
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
