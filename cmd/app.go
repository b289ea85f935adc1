package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/config"
	"github.com/goatnetwork/solver-vault/internal/db"
	"github.com/goatnetwork/solver-vault/internal/http"
	"github.com/goatnetwork/solver-vault/internal/layer2"
	"github.com/goatnetwork/solver-vault/internal/ledger"
	"github.com/goatnetwork/solver-vault/internal/monitor"
	"github.com/goatnetwork/solver-vault/internal/state"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/goatnetwork/solver-vault/internal/vault"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	DatabaseManager *db.DatabaseManager
	EventBus        *state.EventBus
	Vault           *vault.Vault
	HTTPServer      *http.HTTPServer
	VaultMonitor    *monitor.VaultMonitor
}

func NewApplication(ctx context.Context) *Application {
	config.InitConfig()

	dbm := db.NewDatabaseManager()
	store := db.NewVaultStore(dbm)
	eventBus := state.NewEventBus()

	backend, init := newLedgerBackend(ctx)
	v, err := vault.New(ctx, backend, store, eventBus, init)
	if err != nil {
		log.Fatalf("Failed to start vault: %v", err)
	}
	params := v.Params()
	log.WithFields(log.Fields{
		"custodian":  backend.Custodian().Hex(),
		"collateral": params.Collateral.Hex(),
		"vaultToken": params.VaultToken.Hex(),
		"symmio":     params.Symmio.Hex(),
		"solver":     params.Solver.Hex(),
		"release":    params.DepositRelease.String(),
		"requests":   v.RequestCount(),
	}).Info("Vault ready")

	return &Application{
		DatabaseManager: dbm,
		EventBus:        eventBus,
		Vault:           v,
		HTTPServer:      http.NewHTTPServer(v, store, config.AppConfig.ApiJwtSecret),
		VaultMonitor:    monitor.NewVaultMonitor(eventBus, v, config.AppConfig.MonitorInterval),
	}
}

// newLedgerBackend connects the configured ledger and returns first boot parameters for it.
// The init parameters are ignored when the database already holds a vault.
func newLedgerBackend(ctx context.Context) (ledger.Backend, vault.InitParams) {
	cfg := config.AppConfig
	release, err := vault.ParseDepositRelease(cfg.DepositRelease)
	if err != nil {
		log.Fatalf("Invalid deposit release: %v", err)
	}
	init := vault.InitParams{
		Owner:               cfg.OwnerAddress,
		Symmio:              cfg.SymmioAddress,
		VaultToken:          cfg.VaultTokenAddress,
		Solver:              cfg.SolverAddress,
		DepositLimit:        cfg.DepositLimit,
		MinimumPaybackRatio: cfg.MinPaybackRatio,
		DepositRelease:      release,
		Grants:              roleGrants(),
	}

	if cfg.LedgerBackend == config.LEDGER_BACKEND_EVM {
		client, err := layer2.DialEthClient(ctx)
		if err != nil {
			log.Fatalf("Failed to dial L2 node: %v", err)
		}
		backend, err := layer2.NewEvmBackendFromConfig(client)
		if err != nil {
			log.Fatalf("Failed to create evm backend: %v", err)
		}
		return backend, init
	}

	// memory ledger: unset addresses are derived from the custodian like contract deployments
	custodian := cfg.VaultAddress
	if custodian == (common.Address{}) {
		custodian = crypto.CreateAddress(common.Address{}, 0)
	}
	derive := func(current common.Address, nonce uint64) common.Address {
		if current != (common.Address{}) {
			return current
		}
		return crypto.CreateAddress(custodian, nonce)
	}
	init.Owner = derive(init.Owner, 0)
	init.VaultToken = derive(init.VaultToken, 1)
	init.Symmio = derive(init.Symmio, 2)
	init.Solver = derive(init.Solver, 3)
	collateralAddr := crypto.CreateAddress(custodian, 4)

	backend := ledger.NewMemoryBackend(custodian)
	collateral := ledger.NewMemoryToken(collateralAddr, cfg.CollateralDecimals)
	collateral.GrantMinter(init.Owner)
	vaultToken := backend.AddToken(ledger.NewMemoryToken(init.VaultToken, cfg.VaultTokenDecimals))
	vaultToken.GrantMinter(custodian)
	backend.AddSettlement(ledger.NewMemorySettlement(init.Symmio, collateral))
	if err := fundMemoryAccounts(collateral, vaultToken, init.Owner, custodian, cfg.MemoryFaucet); err != nil {
		log.Fatalf("Failed to fund memory accounts: %v", err)
	}

	log.WithFields(log.Fields{
		"custodian":  custodian.Hex(),
		"owner":      init.Owner.Hex(),
		"collateral": collateralAddr.Hex(),
		"funded":     len(cfg.MemoryFaucet),
	}).Warn("Using the in-memory ledger, balances are lost on exit")
	return backend, init
}

// fundMemoryAccounts mints collateral to each account and approves the custodian to pull it.
// The custodian also gets an unlimited vault token approval so withdraw requests can burn.
func fundMemoryAccounts(collateral, vaultToken *ledger.MemoryToken, minter, custodian common.Address, grants []types.AccountAmount) error {
	for _, g := range grants {
		if err := collateral.MintAs(minter, g.Account, g.Amount); err != nil {
			return fmt.Errorf("mint to %s: %w", g.Account.Hex(), err)
		}
		allowance := new(big.Int).Add(collateral.Allowance(g.Account, custodian), g.Amount)
		collateral.Approve(g.Account, custodian, allowance)
		vaultToken.Approve(g.Account, custodian, math.MaxBig256)
		log.Infof("Funded %s with %s collateral", g.Account.Hex(), types.FormatUnits(g.Amount, collateral.DecimalsValue()))
	}
	return nil
}

func roleGrants() []access.Grant {
	var grants []access.Grant
	lists := []struct {
		role     access.Role
		accounts []common.Address
	}{
		{access.RoleDepositor, config.AppConfig.Depositors},
		{access.RoleBalancer, config.AppConfig.Balancers},
		{access.RoleSetter, config.AppConfig.Setters},
		{access.RolePauser, config.AppConfig.Pausers},
		{access.RoleUnpauser, config.AppConfig.Unpausers},
	}
	for _, l := range lists {
		for _, account := range l.accounts {
			grants = append(grants, access.Grant{Role: l.role, Account: account})
		}
	}
	return grants
}

func (app *Application) Run(ctx context.Context, cancel context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.HTTPServer.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.VaultMonitor.Start(ctx)
	}()

	<-stop
	log.Info("Receiving exit signal...")

	cancel()

	wg.Wait()
	if err := app.DatabaseManager.Close(); err != nil {
		log.Errorf("Close vault database: %v", err)
	}
	log.Info("Server stopped")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := NewApplication(ctx)
	app.Run(ctx, cancel)
}
