package http

import (
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/goatnetwork/solver-vault/internal/vault"
)

// Amounts in request bodies are decimal strings in token units, "500.25"

type AmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type WithdrawRequestBody struct {
	Amount   string `json:"amount" binding:"required"`
	Receiver string `json:"receiver" binding:"required"`
}

type AcceptWithdrawBody struct {
	DepositAmount string   `json:"deposit_amount"`
	RequestIds    []uint64 `json:"request_ids" binding:"required"`
	PaybackRatio  string   `json:"payback_ratio" binding:"required"`
}

type RatioRequest struct {
	Ratio string `json:"ratio" binding:"required"`
}

type AddressRequest struct {
	Address string `json:"address" binding:"required"`
}

type RoleRequest struct {
	Role    string `json:"role" binding:"required"`
	Account string `json:"account" binding:"required"`
}

type WithdrawRequestView struct {
	ID           uint64 `json:"id"`
	Receiver     string `json:"receiver"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
	PaybackRatio string `json:"payback_ratio"`
	Payout       string `json:"payout"`
}

func newWithdrawRequestView(req vault.WithdrawRequest, collateralDecimals uint8) WithdrawRequestView {
	return WithdrawRequestView{
		ID:           req.ID,
		Receiver:     req.Receiver.Hex(),
		Amount:       types.FormatUnits(req.Amount, collateralDecimals),
		Status:       req.Status.String(),
		PaybackRatio: types.FormatRatio(req.PaybackRatio),
		Payout:       types.FormatUnits(req.Payout(), collateralDecimals),
	}
}

type VaultView struct {
	Collateral          string `json:"collateral"`
	CollateralDecimals  uint8  `json:"collateral_decimals"`
	VaultToken          string `json:"vault_token"`
	VaultTokenDecimals  uint8  `json:"vault_token_decimals"`
	Symmio              string `json:"symmio"`
	Solver              string `json:"solver"`
	DepositLimit        string `json:"deposit_limit"`
	MinimumPaybackRatio string `json:"minimum_payback_ratio"`
	DepositRelease      string `json:"deposit_release"`
	CurrentDeposit      string `json:"current_deposit"`
	LockedBalance       string `json:"locked_balance"`
	AvailableBalance    string `json:"available_balance,omitempty"`
	Paused              bool   `json:"paused"`
	RequestCount        int    `json:"request_count"`
	PendingRequests     int    `json:"pending_requests"`
	ReadyRequests       int    `json:"ready_requests"`
}

type EventView struct {
	EventId   string `json:"event_id"`
	EventType string `json:"event_type"`
	Payload   string `json:"payload"`
	CreatedAt int64  `json:"created_at"`
}
