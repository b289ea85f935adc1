package main

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/config"
	"github.com/goatnetwork/solver-vault/internal/ledger"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/goatnetwork/solver-vault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	user     = common.HexToAddress("0x0000000000000000000000000000000000000006")
	balancer = common.HexToAddress("0x0000000000000000000000000000000000000003")
	receiver = common.HexToAddress("0x0000000000000000000000000000000000000007")
)

func loadMemoryConfig(t *testing.T, env map[string]string) {
	t.Helper()
	base := map[string]string{
		"LEDGER_BACKEND":       config.LEDGER_BACKEND_MEMORY,
		"VAULT_PRIVATE_KEY":    "",
		"COLLATERAL_DECIMALS":  "6",
		"VAULT_TOKEN_DECIMALS": "18",
		"MIN_PAYBACK_RATIO":    "0.5",
	}
	for k, v := range env {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	prev := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestMemoryBackendRunsWithdrawFlow(t *testing.T) {
	loadMemoryConfig(t, map[string]string{
		"MEMORY_FAUCET":      user.Hex() + "=500," + balancer.Hex() + "=100",
		"BALANCER_ADDRESSES": balancer.Hex(),
	})
	ctx := context.Background()

	backend, init := newLedgerBackend(ctx)
	v, err := vault.New(ctx, backend, nil, nil, init)
	require.NoError(t, err)

	memory := backend.(*ledger.MemoryBackend)
	collateral, ok := memory.Token(v.Collateral())
	require.True(t, ok)
	vaultToken, ok := memory.Token(v.SolverVaultTokenAddress())
	require.True(t, ok)
	assert.Equal(t, big.NewInt(500_000_000), collateral.Balance(user))

	// no DEPOSIT_LIMIT given, memory mode allows a million tokens
	assert.Equal(t, new(big.Int).Mul(big.NewInt(1_000_000), types.Pow10(6)), v.DepositLimit())

	require.NoError(t, v.Deposit(ctx, user, big.NewInt(500_000_000)))
	minted := new(big.Int).Mul(big.NewInt(500), types.Pow10(18))
	assert.Equal(t, minted, vaultToken.Balance(user))

	id, err := v.RequestWithdraw(ctx, user, minted, receiver)
	require.NoError(t, err)
	require.NoError(t, v.AcceptWithdrawRequest(ctx, balancer, big.NewInt(100_000_000), []uint64{id}, mustRatio(t, "0.7")))
	assert.Equal(t, big.NewInt(350_000_000), v.LockedBalance())

	require.NoError(t, v.ClaimForWithdrawRequest(ctx, user, id))
	assert.Equal(t, big.NewInt(350_000_000), collateral.Balance(receiver))
	assert.Equal(t, big.NewInt(250_000_000), collateral.Balance(memory.Custodian()))
	assert.NoError(t, v.CheckSolvency(ctx))
}

func TestFundMemoryAccountsAddsToAllowance(t *testing.T) {
	minter := common.HexToAddress("0x01")
	custodian := common.HexToAddress("0xc0de")
	collateral := ledger.NewMemoryToken(common.HexToAddress("0xe1"), 6)
	collateral.GrantMinter(minter)
	vaultToken := ledger.NewMemoryToken(common.HexToAddress("0xe2"), 18)

	grants := []types.AccountAmount{
		{Account: user, Amount: big.NewInt(10)},
		{Account: user, Amount: big.NewInt(5)},
	}
	require.NoError(t, fundMemoryAccounts(collateral, vaultToken, minter, custodian, grants))
	assert.Equal(t, big.NewInt(15), collateral.Balance(user))
	assert.Equal(t, big.NewInt(15), collateral.Allowance(user, custodian))
	assert.Equal(t, 1, vaultToken.Allowance(user, custodian).Sign())

	err := fundMemoryAccounts(collateral, vaultToken, custodian, custodian, grants[:1])
	assert.ErrorIs(t, err, ledger.ErrNotMinter)
}

func mustRatio(t *testing.T, value string) *big.Int {
	t.Helper()
	ratio, err := types.ParseRatio(value)
	require.NoError(t, err)
	return ratio
}
