package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/goatnetwork/solver-vault/internal/vault"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VaultStore persists vault state in the vault database, one transaction per operation
type VaultStore struct {
	db *gorm.DB
}

var _ vault.Store = (*VaultStore)(nil)

func NewVaultStore(dm *DatabaseManager) *VaultStore {
	return &VaultStore{db: dm.GetVaultDB()}
}

func (s *VaultStore) LoadSnapshot(ctx context.Context) (*vault.Snapshot, error) {
	db := s.db.WithContext(ctx)

	var params VaultParams
	err := db.First(&params, SINGLETON_ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state LedgerState
	if err := db.First(&state, SINGLETON_ID).Error; err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	var requests []WithdrawRequest
	if err := db.Order("request_id asc").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("load withdraw requests: %w", err)
	}
	var grants []RoleGrant
	if err := db.Where("status = ?", ROLE_GRANT_ACTIVE).Order("id asc").Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("load role grants: %w", err)
	}

	snap := &vault.Snapshot{Paused: state.Paused}
	if snap.Params, err = paramsFromRow(&params); err != nil {
		return nil, err
	}
	if snap.Ledger, err = ledgerFromRow(&state); err != nil {
		return nil, err
	}
	for i := range requests {
		req, err := requestFromRow(&requests[i])
		if err != nil {
			return nil, err
		}
		snap.Requests = append(snap.Requests, req)
	}
	for _, g := range grants {
		role, err := access.ParseRole(g.Role)
		if err != nil {
			return nil, err
		}
		snap.Grants = append(snap.Grants, access.Grant{Role: role, Account: common.HexToAddress(g.Account)})
	}
	return snap, nil
}

// Commit writes change and runs effects inside one transaction, an effects error rolls
// the writes back and is returned unchanged
func (s *VaultStore) Commit(ctx context.Context, change *vault.Change, effects func() error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.write(tx, change); err != nil {
			return err
		}
		if effects == nil {
			return nil
		}
		return effects()
	})
}

func (s *VaultStore) write(tx *gorm.DB, change *vault.Change) error {
	if change.Params != nil {
		row := paramsToRow(change.Params)
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
			return fmt.Errorf("save vault params: %w", err)
		}
	}

	if change.Ledger != nil || change.Paused != nil {
		seed := &LedgerState{ID: SINGLETON_ID, CurrentDeposit: "0", LockedBalance: "0"}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
			return fmt.Errorf("seed ledger state: %w", err)
		}
		updates := map[string]interface{}{}
		if change.Ledger != nil {
			updates["current_deposit"] = change.Ledger.CurrentDeposit.String()
			updates["locked_balance"] = change.Ledger.LockedBalance.String()
			updates["deposited"] = change.Ledger.Deposited
		}
		if change.Paused != nil {
			updates["paused"] = *change.Paused
		}
		if err := tx.Model(&LedgerState{}).Where("id = ?", SINGLETON_ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("save ledger state: %w", err)
		}
	}

	if len(change.Requests) > 0 {
		rows := make([]WithdrawRequest, 0, len(change.Requests))
		for _, req := range change.Requests {
			rows = append(rows, requestToRow(req))
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "payback_ratio", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("save withdraw requests: %w", err)
		}
	}

	for _, g := range change.Grants {
		row := &RoleGrant{Role: g.Role.String(), Account: g.Account.Hex(), Status: ROLE_GRANT_ACTIVE}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role"}, {Name: "account"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("save role grant: %w", err)
		}
	}
	for _, g := range change.Revokes {
		err := tx.Model(&RoleGrant{}).
			Where("role = ? AND account = ?", g.Role.String(), g.Account.Hex()).
			Update("status", ROLE_GRANT_REVOKED).Error
		if err != nil {
			return fmt.Errorf("save role revoke: %w", err)
		}
	}

	for _, event := range change.Events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event.Type(), err)
		}
		row := &EventLog{EventId: uuid.New().String(), EventType: event.Type().String(), Payload: string(payload)}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("save event log: %w", err)
		}
	}
	return nil
}

// EventLogs returns the newest events first, eventType filters when not empty
func (s *VaultStore) EventLogs(ctx context.Context, eventType string, limit int) ([]EventLog, error) {
	query := s.db.WithContext(ctx).Order("id desc")
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var logs []EventLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func paramsToRow(p *vault.Params) *VaultParams {
	return &VaultParams{
		ID:                  SINGLETON_ID,
		Collateral:          p.Collateral.Hex(),
		CollateralDecimals:  p.CollateralDecimals,
		VaultToken:          p.VaultToken.Hex(),
		VaultTokenDecimals:  p.VaultTokenDecimals,
		Symmio:              p.Symmio.Hex(),
		Solver:              p.Solver.Hex(),
		DepositLimit:        types.CopyInt(p.DepositLimit).String(),
		MinimumPaybackRatio: types.CopyInt(p.MinimumPaybackRatio).String(),
		DepositRelease:      p.DepositRelease.String(),
	}
}

func paramsFromRow(row *VaultParams) (vault.Params, error) {
	limit, err := types.ParseBaseUnits(row.DepositLimit)
	if err != nil {
		return vault.Params{}, fmt.Errorf("deposit limit: %w", err)
	}
	ratio, err := types.ParseBaseUnits(row.MinimumPaybackRatio)
	if err != nil {
		return vault.Params{}, fmt.Errorf("minimum payback ratio: %w", err)
	}
	release, err := vault.ParseDepositRelease(row.DepositRelease)
	if err != nil {
		return vault.Params{}, err
	}
	return vault.Params{
		Collateral:          common.HexToAddress(row.Collateral),
		CollateralDecimals:  row.CollateralDecimals,
		VaultToken:          common.HexToAddress(row.VaultToken),
		VaultTokenDecimals:  row.VaultTokenDecimals,
		Symmio:              common.HexToAddress(row.Symmio),
		Solver:              common.HexToAddress(row.Solver),
		DepositLimit:        limit,
		MinimumPaybackRatio: ratio,
		DepositRelease:      release,
	}, nil
}

func ledgerFromRow(row *LedgerState) (vault.LedgerState, error) {
	current, err := types.ParseBaseUnits(row.CurrentDeposit)
	if err != nil {
		return vault.LedgerState{}, fmt.Errorf("current deposit: %w", err)
	}
	locked, err := types.ParseBaseUnits(row.LockedBalance)
	if err != nil {
		return vault.LedgerState{}, fmt.Errorf("locked balance: %w", err)
	}
	return vault.LedgerState{CurrentDeposit: current, LockedBalance: locked, Deposited: row.Deposited}, nil
}

func requestToRow(req vault.WithdrawRequest) WithdrawRequest {
	return WithdrawRequest{
		RequestID:    req.ID,
		Receiver:     req.Receiver.Hex(),
		Amount:       types.CopyInt(req.Amount).String(),
		Status:       req.Status.String(),
		PaybackRatio: types.CopyInt(req.PaybackRatio).String(),
	}
}

func requestFromRow(row *WithdrawRequest) (vault.WithdrawRequest, error) {
	amount, err := types.ParseBaseUnits(row.Amount)
	if err != nil {
		return vault.WithdrawRequest{}, fmt.Errorf("withdraw request %d amount: %w", row.RequestID, err)
	}
	ratio, err := types.ParseBaseUnits(row.PaybackRatio)
	if err != nil {
		return vault.WithdrawRequest{}, fmt.Errorf("withdraw request %d ratio: %w", row.RequestID, err)
	}
	status, err := vault.ParseRequestStatus(row.Status)
	if err != nil {
		return vault.WithdrawRequest{}, err
	}
	return vault.WithdrawRequest{
		ID:           row.RequestID,
		Receiver:     common.HexToAddress(row.Receiver),
		Amount:       amount,
		Status:       status,
		PaybackRatio: ratio,
	}, nil
}
