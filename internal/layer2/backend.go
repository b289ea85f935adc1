package layer2

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-errors/errors"
	"github.com/goatnetwork/solver-vault/internal/config"
	"github.com/goatnetwork/solver-vault/internal/layer2/abis"
	"github.com/goatnetwork/solver-vault/internal/ledger"
	vtypes "github.com/goatnetwork/solver-vault/internal/types"
	log "github.com/sirupsen/logrus"
)

// ChainClient is what the backend needs from an L2 node, *ethclient.Client satisfies it
type ChainClient interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EvmBackend drives deployed ERC20 and symmio contracts, signing as the custody key
type EvmBackend struct {
	client         ChainClient
	key            *ecdsa.PrivateKey
	chainID        *big.Int
	custodian      common.Address
	receiptTimeout time.Duration

	// one in-flight transaction at a time keeps pending nonces ordered
	txMu sync.Mutex

	mu          sync.Mutex
	tokens      map[common.Address]*abis.ERC20Contract
	settlements map[common.Address]*evmSettlement
}

var _ ledger.Backend = (*EvmBackend)(nil)

func NewEvmBackend(client ChainClient, key *ecdsa.PrivateKey, chainID *big.Int, receiptTimeout time.Duration) *EvmBackend {
	return &EvmBackend{
		client:         client,
		key:            key,
		chainID:        new(big.Int).Set(chainID),
		custodian:      crypto.PubkeyToAddress(key.PublicKey),
		receiptTimeout: receiptTimeout,
		tokens:         make(map[common.Address]*abis.ERC20Contract),
		settlements:    make(map[common.Address]*evmSettlement),
	}
}

// NewEvmBackendFromConfig builds the backend from the custody key and chain settings in AppConfig
func NewEvmBackendFromConfig(client ChainClient) (*EvmBackend, error) {
	key, err := vtypes.ParsePrivateKey(config.AppConfig.VaultPriKey)
	if err != nil {
		return nil, errors.WrapPrefix(err, "vault private key", 0)
	}
	return NewEvmBackend(client, key, config.AppConfig.L2ChainId, config.AppConfig.L2ReceiptTimeout), nil
}

func (b *EvmBackend) Custodian() common.Address {
	return b.custodian
}

func (b *EvmBackend) Asset(ctx context.Context, address common.Address) (ledger.Asset, error) {
	return b.MintableAsset(ctx, address)
}

func (b *EvmBackend) MintableAsset(ctx context.Context, address common.Address) (ledger.MintableAsset, error) {
	contract, err := b.erc20(ctx, address)
	if err != nil {
		return nil, err
	}
	return &evmToken{backend: b, address: address, contract: contract}, nil
}

func (b *EvmBackend) Settlement(ctx context.Context, address common.Address) (ledger.Settlement, error) {
	b.mu.Lock()
	if s, ok := b.settlements[address]; ok {
		b.mu.Unlock()
		return s, nil
	}
	b.mu.Unlock()

	if err := b.requireCode(ctx, address); err != nil {
		return nil, err
	}
	contract, err := abis.NewSymmioContract(address, b.client)
	if err != nil {
		return nil, errors.WrapPrefix(err, "bind symmio", 0)
	}
	s := &evmSettlement{backend: b, address: address, contract: contract}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.settlements[address] = s
	return s, nil
}

func (b *EvmBackend) erc20(ctx context.Context, address common.Address) (*abis.ERC20Contract, error) {
	b.mu.Lock()
	if c, ok := b.tokens[address]; ok {
		b.mu.Unlock()
		return c, nil
	}
	b.mu.Unlock()

	if err := b.requireCode(ctx, address); err != nil {
		return nil, err
	}
	contract, err := abis.NewERC20Contract(address, b.client)
	if err != nil {
		return nil, errors.WrapPrefix(err, "bind erc20", 0)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[address] = contract
	return contract, nil
}

func (b *EvmBackend) requireCode(ctx context.Context, address common.Address) error {
	code, err := b.client.CodeAt(ctx, address, nil)
	if err != nil {
		return errors.WrapPrefix(err, "get code at "+address.Hex(), 0)
	}
	if len(code) == 0 {
		return errors.WrapPrefix(ledger.ErrUnknownContract, "no code at "+address.Hex(), 0)
	}
	return nil
}

func (b *EvmBackend) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: b.custodian}
}

// transact signs and sends one transaction, then waits for a successful receipt
func (b *EvmBackend) transact(ctx context.Context, method string, send func(opts *bind.TransactOpts) (*types.Transaction, error)) error {
	b.txMu.Lock()
	defer b.txMu.Unlock()

	opts, err := bind.NewKeyedTransactorWithChainID(b.key, b.chainID)
	if err != nil {
		return errors.WrapPrefix(err, "new transactor", 0)
	}
	opts.Context = ctx

	tx, err := send(opts)
	if err != nil {
		return errors.WrapPrefix(err, method, 0)
	}
	log.WithFields(log.Fields{
		"method": method,
		"txHash": tx.Hash().Hex(),
		"nonce":  tx.Nonce(),
	}).Debug("Sent vault transaction")

	waitCtx := ctx
	if b.receiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, b.receiptTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(waitCtx, b.client, tx)
	if err != nil {
		return errors.WrapPrefix(err, method+" wait receipt "+tx.Hash().Hex(), 0)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.Errorf("%s reverted, tx %s", method, tx.Hash().Hex())
	}
	return nil
}

type evmToken struct {
	backend  *EvmBackend
	address  common.Address
	contract *abis.ERC20Contract
}

var _ ledger.MintableAsset = (*evmToken)(nil)

func (t *evmToken) Address() common.Address {
	return t.address
}

func (t *evmToken) Decimals(ctx context.Context) (uint8, error) {
	return t.contract.Decimals(t.backend.callOpts(ctx))
}

func (t *evmToken) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.contract.BalanceOf(t.backend.callOpts(ctx), account)
}

func (t *evmToken) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return t.backend.transact(ctx, "transfer", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.contract.Transfer(opts, to, amount)
	})
}

func (t *evmToken) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	return t.backend.transact(ctx, "transferFrom", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.contract.TransferFrom(opts, from, to, amount)
	})
}

func (t *evmToken) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	return t.backend.transact(ctx, "mint", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.contract.Mint(opts, to, amount)
	})
}

func (t *evmToken) BurnFrom(ctx context.Context, from common.Address, amount *big.Int) error {
	return t.backend.transact(ctx, "burnFrom", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.contract.BurnFrom(opts, from, amount)
	})
}

type evmSettlement struct {
	backend  *EvmBackend
	address  common.Address
	contract *abis.SymmioContract

	mu         sync.Mutex
	collateral common.Address
}

var _ ledger.Settlement = (*evmSettlement)(nil)

func (s *evmSettlement) Address() common.Address {
	return s.address
}

func (s *evmSettlement) Collateral(ctx context.Context) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collateral != (common.Address{}) {
		return s.collateral, nil
	}
	collateral, err := s.contract.GetCollateral(s.backend.callOpts(ctx))
	if err != nil {
		return common.Address{}, errors.WrapPrefix(err, "symmio getCollateral", 0)
	}
	s.collateral = collateral
	return collateral, nil
}

// DepositFor approves the settlement for amount then credits beneficiary with it.
// The approval is reset to zero when depositFor fails.
func (s *evmSettlement) DepositFor(ctx context.Context, beneficiary common.Address, amount *big.Int) error {
	collateral, err := s.Collateral(ctx)
	if err != nil {
		return err
	}
	token, err := s.backend.erc20(ctx, collateral)
	if err != nil {
		return err
	}
	err = s.backend.transact(ctx, "approve", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return token.Approve(opts, s.address, amount)
	})
	if err != nil {
		return err
	}
	err = s.backend.transact(ctx, "depositFor", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return s.contract.DepositFor(opts, beneficiary, amount)
	})
	if err == nil {
		return nil
	}
	// the approval must not outlive a failed deposit
	resetErr := s.backend.transact(ctx, "approve", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return token.Approve(opts, s.address, new(big.Int))
	})
	if resetErr != nil {
		log.WithFields(log.Fields{
			"symmio": s.address.Hex(),
			"error":  resetErr.Error(),
		}).Error("Failed to reset symmio allowance after depositFor failure")
	}
	return err
}

// SettlementBalance reads the symmio balance credited to account
func (b *EvmBackend) SettlementBalance(ctx context.Context, settlement, account common.Address) (*big.Int, error) {
	s, err := b.Settlement(ctx, settlement)
	if err != nil {
		return nil, err
	}
	return s.(*evmSettlement).contract.BalanceOf(b.callOpts(ctx), account)
}
