package http

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/goatnetwork/solver-vault/internal/vault"
	log "github.com/sirupsen/logrus"
)

const maxEventPage = 500

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": data})
}

func abortWithError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"status": "error", "error": msg, "request_id": c.GetString(keyRequestID)})
}

// respondVaultError maps vault sentinels onto status codes
func respondVaultError(c *gin.Context, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		log.Warnf("%s %s failed, request %s: %v", c.Request.Method, c.FullPath(), c.GetString(keyRequestID), err)
	}
	abortWithError(c, code, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, vault.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, vault.ErrPaused):
		return http.StatusLocked
	case errors.Is(err, vault.ErrInvalidRequestID):
		return http.StatusNotFound
	case errors.Is(err, vault.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, vault.ErrNotPaused),
		errors.Is(err, vault.ErrDepositLimitReached),
		errors.Is(err, vault.ErrInsufficientContractBalance),
		errors.Is(err, vault.ErrInsufficientTokenBalance),
		errors.Is(err, vault.ErrInvalidAcceptedRequest),
		errors.Is(err, vault.ErrRequestNotReady),
		errors.Is(err, vault.ErrDepositsExist),
		errors.Is(err, vault.ErrCollateralCannotBeChanged),
		errors.Is(err, vault.ErrRegistryFull),
		errors.Is(err, vault.ErrInsolvent):
		return http.StatusConflict
	case errors.Is(err, vault.ErrPaybackRatioTooLow),
		errors.Is(err, vault.ErrInvalidPaybackRatio),
		errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrZeroAddress),
		errors.Is(err, vault.ErrInvalidRole):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (hs *HTTPServer) handleHealth(c *gin.Context) {
	if err := hs.vault.CheckSolvency(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (hs *HTTPServer) handleVault(c *gin.Context) {
	snap := hs.vault.Snapshot()
	p := snap.Params
	view := VaultView{
		Collateral:          p.Collateral.Hex(),
		CollateralDecimals:  p.CollateralDecimals,
		VaultToken:          p.VaultToken.Hex(),
		VaultTokenDecimals:  p.VaultTokenDecimals,
		Symmio:              p.Symmio.Hex(),
		Solver:              p.Solver.Hex(),
		DepositLimit:        types.FormatUnits(p.DepositLimit, p.CollateralDecimals),
		MinimumPaybackRatio: types.FormatRatio(p.MinimumPaybackRatio),
		DepositRelease:      p.DepositRelease.String(),
		CurrentDeposit:      types.FormatUnits(snap.Ledger.CurrentDeposit, p.CollateralDecimals),
		LockedBalance:       types.FormatUnits(snap.Ledger.LockedBalance, p.CollateralDecimals),
		Paused:              snap.Paused,
		RequestCount:        len(snap.Requests),
	}
	for _, req := range snap.Requests {
		switch req.Status {
		case vault.RequestPending:
			view.PendingRequests++
		case vault.RequestReady:
			view.ReadyRequests++
		}
	}
	if available, err := hs.vault.AvailableBalance(c.Request.Context()); err == nil {
		view.AvailableBalance = types.FormatUnits(available, p.CollateralDecimals)
	} else {
		log.Warnf("Query available balance: %v", err)
	}
	respondOK(c, view)
}

func (hs *HTTPServer) handleGetWithdrawRequest(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request id")
		return
	}
	req, err := hs.vault.WithdrawRequest(id)
	if err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, newWithdrawRequestView(req, hs.vault.Params().CollateralDecimals))
}

func (hs *HTTPServer) handleListWithdrawRequests(c *gin.Context) {
	status, err := vault.ParseRequestStatus(c.DefaultQuery("status", "pending"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	decimals := hs.vault.Params().CollateralDecimals
	requests := hs.vault.WithdrawRequests(status)
	views := make([]WithdrawRequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, newWithdrawRequestView(req, decimals))
	}
	respondOK(c, views)
}

func (hs *HTTPServer) handleRoleMembers(c *gin.Context) {
	role, err := access.ParseRole(c.Param("role"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	members := hs.vault.Members(role)
	accounts := make([]string, 0, len(members))
	for _, m := range members {
		accounts = append(accounts, m.Hex())
	}
	respondOK(c, gin.H{"role": role.String(), "members": accounts})
}

func (hs *HTTPServer) handleHasRole(c *gin.Context) {
	role, err := access.ParseRole(c.Param("role"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	account, err := types.ParseAddress(c.Param("address"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, gin.H{"role": role.String(), "account": account.Hex(), "has_role": hs.vault.HasRole(role, account)})
}

func (hs *HTTPServer) handleEvents(c *gin.Context) {
	if hs.events == nil {
		abortWithError(c, http.StatusNotFound, "event log is not available")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxEventPage)
	logs, err := hs.events.EventLogs(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		log.Errorf("Query event logs: %v", err)
		abortWithError(c, http.StatusInternalServerError, "query event logs failed")
		return
	}
	views := make([]EventView, 0, len(logs))
	for _, l := range logs {
		views = append(views, EventView{EventId: l.EventId, EventType: l.EventType, Payload: l.Payload, CreatedAt: l.CreatedAt.Unix()})
	}
	respondOK(c, views)
}

// collateralAmount binds an AmountRequest in collateral units
func (hs *HTTPServer) collateralAmount(c *gin.Context) (*big.Int, bool) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	amount, err := types.ParseUnits(req.Amount, hs.vault.Params().CollateralDecimals)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return amount, true
}

func (hs *HTTPServer) handleDeposit(c *gin.Context) {
	amount, ok := hs.collateralAmount(c)
	if !ok {
		return
	}
	if err := hs.vault.Deposit(c.Request.Context(), callerOf(c), amount); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"amount": amount.String()})
}

func (hs *HTTPServer) handleDepositToSymmio(c *gin.Context) {
	amount, ok := hs.collateralAmount(c)
	if !ok {
		return
	}
	solver, err := hs.vault.DepositToSymmio(c.Request.Context(), callerOf(c), amount)
	if err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"amount": amount.String(), "solver": solver.Hex()})
}

func (hs *HTTPServer) handleRequestWithdraw(c *gin.Context) {
	var req WithdrawRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := types.ParseUnits(req.Amount, hs.vault.Params().VaultTokenDecimals)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	receiver, err := types.ParseAddress(req.Receiver)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	id, err := hs.vault.RequestWithdraw(c.Request.Context(), callerOf(c), amount, receiver)
	if err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"request_id": id})
}

func (hs *HTTPServer) handleAcceptWithdraw(c *gin.Context) {
	var req AcceptWithdrawBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	depositAmount := new(big.Int)
	if req.DepositAmount != "" {
		var err error
		if depositAmount, err = types.ParseUnits(req.DepositAmount, hs.vault.Params().CollateralDecimals); err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	ratio, err := types.ParseRatio(req.PaybackRatio)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := hs.vault.AcceptWithdrawRequest(c.Request.Context(), callerOf(c), depositAmount, req.RequestIds, ratio); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"request_ids": req.RequestIds, "locked_balance": hs.vault.LockedBalance().String()})
}

func (hs *HTTPServer) handleClaimWithdraw(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request id")
		return
	}
	if err := hs.vault.ClaimForWithdrawRequest(c.Request.Context(), callerOf(c), id); err != nil {
		respondVaultError(c, err)
		return
	}
	req, err := hs.vault.WithdrawRequest(id)
	if err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, newWithdrawRequestView(req, hs.vault.Params().CollateralDecimals))
}

func (hs *HTTPServer) handleSetDepositLimit(c *gin.Context) {
	limit, ok := hs.collateralAmount(c)
	if !ok {
		return
	}
	if err := hs.vault.SetDepositLimit(c.Request.Context(), callerOf(c), limit); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"deposit_limit": limit.String()})
}

func (hs *HTTPServer) handleSetMinimumPaybackRatio(c *gin.Context) {
	var req RatioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	ratio, err := types.ParseRatio(req.Ratio)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := hs.vault.SetMinimumPaybackRatio(c.Request.Context(), callerOf(c), ratio); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"minimum_payback_ratio": types.FormatRatio(ratio)})
}

func (hs *HTTPServer) handleSetVaultToken(c *gin.Context) {
	hs.handleSetAddress(c, hs.vault.SetVaultToken)
}

func (hs *HTTPServer) handleSetSolver(c *gin.Context) {
	hs.handleSetAddress(c, hs.vault.SetSolver)
}

func (hs *HTTPServer) handleSetSymmio(c *gin.Context) {
	hs.handleSetAddress(c, hs.vault.SetSymmioAddress)
}

func (hs *HTTPServer) handleSetAddress(c *gin.Context, set func(ctx context.Context, caller, address common.Address) error) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	address, err := types.ParseAddress(req.Address)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := set(c.Request.Context(), callerOf(c), address); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"address": address.Hex()})
}

func (hs *HTTPServer) handlePause(c *gin.Context) {
	if err := hs.vault.Pause(c.Request.Context(), callerOf(c)); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"paused": true})
}

func (hs *HTTPServer) handleUnpause(c *gin.Context) {
	if err := hs.vault.Unpause(c.Request.Context(), callerOf(c)); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"paused": false})
}

func (hs *HTTPServer) handleGrantRole(c *gin.Context) {
	hs.handleRoleChange(c, hs.vault.GrantRole)
}

func (hs *HTTPServer) handleRevokeRole(c *gin.Context) {
	hs.handleRoleChange(c, hs.vault.RevokeRole)
}

func (hs *HTTPServer) handleRoleChange(c *gin.Context, change func(ctx context.Context, caller common.Address, role access.Role, account common.Address) error) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	account, err := types.ParseAddress(req.Account)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := change(c.Request.Context(), callerOf(c), role, account); err != nil {
		respondVaultError(c, err)
		return
	}
	respondOK(c, gin.H{"role": role.String(), "account": account.Hex(), "has_role": hs.vault.HasRole(role, account)})
}
