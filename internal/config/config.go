package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	LEDGER_BACKEND_MEMORY = "memory"
	LEDGER_BACKEND_EVM    = "evm"

	// whole collateral tokens
	MEMORY_DEFAULT_DEPOSIT_LIMIT = 1_000_000
)

var AppConfig Config

func InitConfig() {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to load .env file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg

	logrus.Infof("Init config, LedgerBackend %s, VaultAddress %s, DepositRelease %s, MonitorInterval %v",
		AppConfig.LedgerBackend, AppConfig.VaultAddress.Hex(), AppConfig.DepositRelease, AppConfig.MonitorInterval)

	// logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(AppConfig.LogLevel)
}

func setDefaults() {
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_DIR", "/app/db")
	viper.SetDefault("API_JWT_SECRET", "")
	viper.SetDefault("LEDGER_BACKEND", LEDGER_BACKEND_MEMORY)
	viper.SetDefault("L2_RPC", "http://localhost:8545")
	viper.SetDefault("L2_JWT_SECRET", "")
	viper.SetDefault("L2_CHAIN_ID", "2345")
	viper.SetDefault("L2_RECEIPT_TIMEOUT", "60s")
	viper.SetDefault("VAULT_PRIVATE_KEY", "")
	viper.SetDefault("VAULT_ADDRESS", "")
	viper.SetDefault("OWNER_ADDRESS", "")
	viper.SetDefault("SYMMIO_ADDRESS", "")
	viper.SetDefault("VAULT_TOKEN_ADDRESS", "")
	viper.SetDefault("SOLVER_ADDRESS", "")
	viper.SetDefault("DEPOSIT_LIMIT", "")
	viper.SetDefault("MIN_PAYBACK_RATIO", "0.5")
	viper.SetDefault("DEPOSIT_RELEASE", "accept")
	viper.SetDefault("COLLATERAL_DECIMALS", 6)
	viper.SetDefault("VAULT_TOKEN_DECIMALS", 18)
	viper.SetDefault("MONITOR_INTERVAL", "30s")
	viper.SetDefault("DEPOSITOR_ADDRESSES", "")
	viper.SetDefault("BALANCER_ADDRESSES", "")
	viper.SetDefault("SETTER_ADDRESSES", "")
	viper.SetDefault("PAUSER_ADDRESSES", "")
	viper.SetDefault("UNPAUSER_ADDRESSES", "")
	viper.SetDefault("MEMORY_FAUCET", "")
}

// LoadConfig reads the environment into a Config without touching AppConfig
func LoadConfig() (Config, error) {
	viper.AutomaticEnv()
	setDefaults()

	logLevel, err := logrus.ParseLevel(strings.ToLower(viper.GetString("LOG_LEVEL")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	backend := strings.ToLower(viper.GetString("LEDGER_BACKEND"))
	if backend != LEDGER_BACKEND_MEMORY && backend != LEDGER_BACKEND_EVM {
		return Config{}, fmt.Errorf("unknown ledger backend %q", backend)
	}

	l2ChainId, err := strconv.ParseInt(viper.GetString("L2_CHAIN_ID"), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse l2 chain id: %w", err)
	}

	vaultPriKey := viper.GetString("VAULT_PRIVATE_KEY")
	var vaultAddress common.Address
	if vaultPriKey != "" {
		vaultAddress, err = types.PrivateKeyToGethAddress(vaultPriKey)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse vault private key: %w, given length %d", err, len(vaultPriKey))
		}
	} else if backend == LEDGER_BACKEND_EVM {
		return Config{}, fmt.Errorf("VAULT_PRIVATE_KEY is required for the evm ledger backend")
	} else if raw := viper.GetString("VAULT_ADDRESS"); raw != "" {
		if vaultAddress, err = types.ParseAddress(raw); err != nil {
			return Config{}, fmt.Errorf("VAULT_ADDRESS: %w", err)
		}
	}

	addresses := make(map[string]common.Address)
	for _, key := range []string{"OWNER_ADDRESS", "SYMMIO_ADDRESS", "VAULT_TOKEN_ADDRESS", "SOLVER_ADDRESS"} {
		raw := viper.GetString(key)
		if raw == "" {
			continue
		}
		addr, err := types.ParseAddress(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
		addresses[key] = addr
	}

	lists := make(map[string][]common.Address)
	for _, key := range []string{"DEPOSITOR_ADDRESSES", "BALANCER_ADDRESSES", "SETTER_ADDRESSES", "PAUSER_ADDRESSES", "UNPAUSER_ADDRESSES"} {
		list, err := types.ParseAddressList(viper.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
		lists[key] = list
	}

	collateralDecimals := viper.GetUint("COLLATERAL_DECIMALS")
	vaultTokenDecimals := viper.GetUint("VAULT_TOKEN_DECIMALS")
	if collateralDecimals > 36 || vaultTokenDecimals > 36 {
		return Config{}, fmt.Errorf("token decimals out of range: %d, %d", collateralDecimals, vaultTokenDecimals)
	}

	var depositLimit *big.Int
	if raw := strings.TrimSpace(viper.GetString("DEPOSIT_LIMIT")); raw != "" {
		if depositLimit, err = types.ParseBaseUnits(raw); err != nil {
			return Config{}, fmt.Errorf("DEPOSIT_LIMIT: %w", err)
		}
	} else if backend == LEDGER_BACKEND_EVM {
		return Config{}, fmt.Errorf("DEPOSIT_LIMIT is required for the evm ledger backend")
	} else {
		depositLimit = new(big.Int).Mul(big.NewInt(MEMORY_DEFAULT_DEPOSIT_LIMIT), types.Pow10(uint8(collateralDecimals)))
	}

	var faucet []types.AccountAmount
	if raw := viper.GetString("MEMORY_FAUCET"); raw != "" {
		if backend != LEDGER_BACKEND_MEMORY {
			return Config{}, fmt.Errorf("MEMORY_FAUCET only applies to the memory ledger backend")
		}
		if faucet, err = types.ParseAccountAmounts(raw, uint8(collateralDecimals)); err != nil {
			return Config{}, fmt.Errorf("MEMORY_FAUCET: %w", err)
		}
	}

	minRatio, err := types.ParseRatio(viper.GetString("MIN_PAYBACK_RATIO"))
	if err != nil {
		return Config{}, fmt.Errorf("MIN_PAYBACK_RATIO: %w", err)
	}
	if minRatio.Cmp(types.RatioOne) > 0 {
		return Config{}, fmt.Errorf("MIN_PAYBACK_RATIO above 1: %s", viper.GetString("MIN_PAYBACK_RATIO"))
	}

	release := strings.ToLower(strings.TrimSpace(viper.GetString("DEPOSIT_RELEASE")))
	if release != "accept" && release != "request" {
		return Config{}, fmt.Errorf("unknown DEPOSIT_RELEASE %q", release)
	}

	return Config{
		HTTPPort:           viper.GetString("HTTP_PORT"),
		LogLevel:           logLevel,
		DbDir:              viper.GetString("DB_DIR"),
		ApiJwtSecret:       viper.GetString("API_JWT_SECRET"),
		LedgerBackend:      backend,
		L2RPC:              viper.GetString("L2_RPC"),
		L2JwtSecret:        viper.GetString("L2_JWT_SECRET"),
		L2ChainId:          big.NewInt(l2ChainId),
		L2ReceiptTimeout:   viper.GetDuration("L2_RECEIPT_TIMEOUT"),
		VaultPriKey:        vaultPriKey,
		VaultAddress:       vaultAddress,
		OwnerAddress:       addresses["OWNER_ADDRESS"],
		SymmioAddress:      addresses["SYMMIO_ADDRESS"],
		VaultTokenAddress:  addresses["VAULT_TOKEN_ADDRESS"],
		SolverAddress:      addresses["SOLVER_ADDRESS"],
		DepositLimit:       depositLimit,
		MinPaybackRatio:    minRatio,
		DepositRelease:     release,
		CollateralDecimals: uint8(collateralDecimals),
		VaultTokenDecimals: uint8(vaultTokenDecimals),
		MonitorInterval:    viper.GetDuration("MONITOR_INTERVAL"),
		Depositors:         lists["DEPOSITOR_ADDRESSES"],
		Balancers:          lists["BALANCER_ADDRESSES"],
		Setters:            lists["SETTER_ADDRESSES"],
		Pausers:            lists["PAUSER_ADDRESSES"],
		Unpausers:          lists["UNPAUSER_ADDRESSES"],
		MemoryFaucet:       faucet,
	}, nil
}

type Config struct {
	HTTPPort           string
	LogLevel           logrus.Level
	DbDir              string
	ApiJwtSecret       string
	LedgerBackend      string
	L2RPC              string
	L2JwtSecret        string
	L2ChainId          *big.Int
	L2ReceiptTimeout   time.Duration
	VaultPriKey        string
	VaultAddress       common.Address
	OwnerAddress       common.Address
	SymmioAddress      common.Address
	VaultTokenAddress  common.Address
	SolverAddress      common.Address
	DepositLimit       *big.Int // collateral base units
	MinPaybackRatio    *big.Int
	DepositRelease     string
	CollateralDecimals uint8
	VaultTokenDecimals uint8
	MonitorInterval    time.Duration
	Depositors         []common.Address
	Balancers          []common.Address
	Setters            []common.Address
	Pausers            []common.Address
	Unpausers          []common.Address
	MemoryFaucet       []types.AccountAmount // collateral minted and approved to the custodian at memory boot
}
