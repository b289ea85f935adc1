package db

import (
	"time"
)

// VaultParams model (only 1 record)
type VaultParams struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Collateral          string    `gorm:"not null" json:"collateral"`
	CollateralDecimals  uint8     `gorm:"not null" json:"collateral_decimals"`
	VaultToken          string    `gorm:"not null" json:"vault_token"`
	VaultTokenDecimals  uint8     `gorm:"not null" json:"vault_token_decimals"`
	Symmio              string    `gorm:"not null" json:"symmio"`
	Solver              string    `gorm:"not null" json:"solver"`
	DepositLimit        string    `gorm:"not null" json:"deposit_limit"`         // collateral base units
	MinimumPaybackRatio string    `gorm:"not null" json:"minimum_payback_ratio"` // 1e18 fixed point
	DepositRelease      string    `gorm:"not null" json:"deposit_release"`       // "accept" or "request"
	UpdatedAt           time.Time `gorm:"not null" json:"updated_at"`
}

// LedgerState model (only 1 record)
type LedgerState struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CurrentDeposit string    `gorm:"not null" json:"current_deposit"`
	LockedBalance  string    `gorm:"not null" json:"locked_balance"`
	Deposited      bool      `gorm:"not null" json:"deposited"`
	Paused         bool      `gorm:"not null" json:"paused"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// WithdrawRequest model, RequestID is the vault registry index
type WithdrawRequest struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RequestID    uint64    `gorm:"not null;uniqueIndex" json:"request_id"`
	Receiver     string    `gorm:"not null" json:"receiver"`
	Amount       string    `gorm:"not null" json:"amount"`
	Status       string    `gorm:"not null" json:"status"` // "pending", "ready", "done"
	PaybackRatio string    `gorm:"not null" json:"payback_ratio"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// RoleGrant model, revoked grants are kept with status "revoked"
type RoleGrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Role      string    `gorm:"not null;uniqueIndex:idx_role_account" json:"role"`
	Account   string    `gorm:"not null;uniqueIndex:idx_role_account" json:"account"`
	Status    string    `gorm:"not null" json:"status"` // "active", "revoked"
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// EventLog model, the audit trail of committed vault events
type EventLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventId   string    `gorm:"not null;uniqueIndex" json:"event_id"` // uuid
	EventType string    `gorm:"not null;index" json:"event_type"`
	Payload   string    `gorm:"not null" json:"payload"` // json
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
