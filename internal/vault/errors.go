package vault

import (
	"errors"
	"fmt"

	"github.com/goatnetwork/solver-vault/internal/access"
)

var (
	ErrUnauthorized = access.ErrUnauthorized
	ErrPaused       = access.ErrPaused
	ErrNotPaused    = access.ErrNotPaused

	ErrZeroAddress                 = errors.New("zero address")
	ErrCollateralCannotBeChanged   = errors.New("collateral can not be changed")
	ErrDepositLimitReached         = errors.New("deposit limit reached")
	ErrTransferFailed              = errors.New("transfer failed")
	ErrInsufficientContractBalance = errors.New("insufficient contract balance")
	ErrInsufficientTokenBalance    = errors.New("insufficient token balance")
	ErrInvalidRequestID            = errors.New("invalid request ID")
	ErrInvalidAcceptedRequest      = errors.New("invalid accepted request")
	ErrRequestNotReady             = errors.New("request not ready for withdrawal")
	ErrPaybackRatioTooLow          = errors.New("payback ratio is too low")
	ErrInvalidPaybackRatio         = errors.New("invalid payback ratio")
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrInvalidRole                 = errors.New("invalid role")
	ErrDepositsExist               = errors.New("vault token can not be changed after deposits")
	ErrInsolvent                   = errors.New("locked balance exceeds custody balance")
	ErrRegistryFull                = errors.New("withdraw request registry is full")
)

// transferFailed wraps a failed external asset call, the cause is kept as text
func transferFailed(step string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransferFailed, step, cause)
}
