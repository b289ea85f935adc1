// Package monitor writes the vault event stream to the audit log and watches custody solvency.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/goatnetwork/solver-vault/internal/state"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/goatnetwork/solver-vault/internal/vault"
	log "github.com/sirupsen/logrus"
)

// SolvencyChecker is the part of the vault the monitor polls
type SolvencyChecker interface {
	CheckSolvency(ctx context.Context) error
}

type VaultMonitor struct {
	bus      *state.EventBus
	checker  SolvencyChecker
	interval time.Duration
	eventCh  chan interface{}
	once     sync.Once

	mu        sync.Mutex
	counts    map[state.EventType]uint64
	lastErr   error
	checkedAt time.Time
}

func NewVaultMonitor(bus *state.EventBus, checker SolvencyChecker, interval time.Duration) *VaultMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &VaultMonitor{
		bus:      bus,
		checker:  checker,
		interval: interval,
		eventCh:  make(chan interface{}, state.EVENT_CHAN_LENGTH),
		counts:   make(map[state.EventType]uint64),
	}
}

func (m *VaultMonitor) Start(ctx context.Context) {
	m.bus.SubscribeAll(m.eventCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Infof("VaultMonitor started, solvency interval %v", m.interval)
	m.CheckNow(ctx)

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case event := <-m.eventCh:
			m.handleEvent(event)
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

func (m *VaultMonitor) Stop() {
	m.once.Do(func() {
		m.bus.UnsubscribeAll(m.eventCh)
		log.Info("VaultMonitor stopping...")
	})
}

// CheckNow runs one solvency check and records the outcome
func (m *VaultMonitor) CheckNow(ctx context.Context) error {
	err := m.checker.CheckSolvency(ctx)

	m.mu.Lock()
	recovered := m.lastErr != nil && err == nil
	m.lastErr = err
	m.checkedAt = time.Now()
	m.mu.Unlock()

	switch {
	case err != nil:
		log.WithField("error", err.Error()).Error("Vault solvency check failed")
	case recovered:
		log.Info("Vault solvency restored")
	default:
		log.Debug("Vault solvency check passed")
	}
	return err
}

// LastCheck returns when solvency was last checked and its error, nil while solvent
func (m *VaultMonitor) LastCheck() (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkedAt, m.lastErr
}

// EventCount is how many events of eventType the monitor has logged
func (m *VaultMonitor) EventCount(eventType state.EventType) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[eventType]
}

func (m *VaultMonitor) handleEvent(data interface{}) {
	event, ok := data.(vault.Event)
	if !ok {
		log.Warnf("VaultMonitor ignores unknown event %T", data)
		return
	}
	m.mu.Lock()
	m.counts[event.Type()]++
	m.mu.Unlock()

	entry := log.WithField("event", event.Type().String())
	switch e := event.(type) {
	case *vault.DepositEvent:
		entry = entry.WithFields(log.Fields{"user": e.User.Hex(), "amount": e.Amount.String()})
	case *vault.DepositToSymmioEvent:
		entry = entry.WithFields(log.Fields{"caller": e.Caller.Hex(), "solver": e.Solver.Hex(), "amount": e.Amount.String()})
	case *vault.WithdrawRequestEvent:
		entry = entry.WithFields(log.Fields{"requestId": e.RequestID, "receiver": e.Receiver.Hex(), "amount": e.Amount.String()})
	case *vault.WithdrawRequestAcceptedEvent:
		entry = entry.WithFields(log.Fields{
			"requestIds":   e.RequestIDs,
			"provided":     e.ProvidedAmount.String(),
			"paybackRatio": types.FormatRatio(e.PaybackRatio),
		})
	case *vault.WithdrawClaimedEvent:
		entry = entry.WithFields(log.Fields{"requestId": e.RequestID, "receiver": e.Receiver.Hex()})
	case *vault.PausedEvent:
		entry = entry.WithField("account", e.Account.Hex())
	case *vault.UnpausedEvent:
		entry = entry.WithField("account", e.Account.Hex())
	case *vault.RoleGrantedEvent:
		entry = entry.WithFields(log.Fields{"role": e.Role.String(), "account": e.Account.Hex(), "sender": e.Sender.Hex()})
	case *vault.RoleRevokedEvent:
		entry = entry.WithFields(log.Fields{"role": e.Role.String(), "account": e.Account.Hex(), "sender": e.Sender.Hex()})
	case *vault.ParamsUpdatedEvent:
		entry = entry.WithFields(log.Fields{"field": e.Field, "value": e.Value, "sender": e.Sender.Hex()})
	}
	entry.Info("Vault event")
}
