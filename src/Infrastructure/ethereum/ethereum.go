package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

const erc20ABI = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "symbol",
		"outputs": [{"name": "", "type": "string"}],
		"type": "function"
	}
]`

// Errors
var (
	ErrMissingEnvVars    = errors.New("missing required environment variables")
	ErrConnectNetwork    = errors.New("failed to connect to network")
	ErrInvalidPrivateKey = errors.New("failed to parse private key")
	ErrParseABI          = errors.New("failed to parse ABI")
	ErrCreateTransactor  = errors.New("failed to create transactor")
	ErrContractCall      = errors.New("failed to call contract function")
	ErrSendTransaction   = errors.New("failed to send transaction")
	ErrNoSigner          = errors.New("no signer key configured")
	ErrSignerMismatch    = errors.New("owner is not the configured signer")
)

// Config holds Ethereum client config
type Config struct {
	RPCURL         string
	PrivateKey     string
	ChainID        *big.Int
	NativeSymbol   string
	NativeDecimals int
}

// Backend is the RPC surface the client needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EthereumClient reads ERC20 state, signs approvals with the configured key
// and looks up receipts.
type EthereumClient struct {
	backend    Backend
	closer     func()
	wallet     common.Address
	privateKey *ecdsa.PrivateKey
	erc20      abi.ABI
	config     Config
	logger     *logger.Logger

	mu     sync.RWMutex
	tokens map[common.Address]domain.Token
}

var (
	_ domain.ChainClient   = (*EthereumClient)(nil)
	_ domain.TokenResolver = (*EthereumClient)(nil)
)

// NewEthereumClient dials the RPC endpoint. Without a private key the client
// is read-only and SubmitApproval fails with ErrNoSigner. A nil ChainID is
// asked from the node.
func NewEthereumClient(ctx context.Context, config Config, logg *logger.Logger) (*EthereumClient, error) {
	if config.RPCURL == "" {
		return nil, fmt.Errorf("%w: RPC_URL", ErrMissingEnvVars)
	}
	client, err := ethclient.DialContext(ctx, config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectNetwork, err)
	}
	if config.ChainID == nil || config.ChainID.Sign() == 0 {
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: chain id: %v", ErrConnectNetwork, err)
		}
		config.ChainID = id
	}

	ec, err := NewWithBackend(client, config, logg)
	if err != nil {
		client.Close()
		return nil, err
	}
	ec.closer = client.Close
	return ec, nil
}

// NewWithBackend builds a client on an existing backend.
func NewWithBackend(backend Backend, config Config, logg *logger.Logger) (*EthereumClient, error) {
	erc20Parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: ERC20 ABI: %v", ErrParseABI, err)
	}

	ec := &EthereumClient{
		backend: backend,
		closer:  func() {},
		erc20:   erc20Parsed,
		config:  config,
		logger:  logg,
		tokens:  make(map[common.Address]domain.Token),
	}

	if config.PrivateKey != "" {
		key := strings.TrimPrefix(config.PrivateKey, "0x")
		privateKey, err := crypto.HexToECDSA(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		ec.privateKey = privateKey
		ec.wallet = crypto.PubkeyToAddress(privateKey.PublicKey)
	}
	return ec, nil
}

func (ec *EthereumClient) Close() { ec.closer() }

func (ec *EthereumClient) WalletAddress() common.Address { return ec.wallet }

func (ec *EthereumClient) contract(token common.Address) *bind.BoundContract {
	return bind.NewBoundContract(token, ec.erc20, ec.backend, ec.backend, ec.backend)
}

// Allowance calls allowance(owner, spender) on the token contract.
func (ec *EthereumClient) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := ec.contract(token).Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("%w: allowance: %v", ErrContractCall, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: allowance: empty result", ErrContractCall)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: allowance: unexpected type %T", ErrContractCall, out[0])
	}
	return v, nil
}

// SubmitApproval sends approve(spender, amount) signed by the configured key.
// It returns as soon as the node accepted the transaction.
func (ec *EthereumClient) SubmitApproval(ctx context.Context, token, owner, spender common.Address, amount *big.Int) (common.Hash, error) {
	if ec.privateKey == nil {
		return common.Hash{}, ErrNoSigner
	}
	if owner != ec.wallet {
		return common.Hash{}, fmt.Errorf("%w: owner %s, signer %s", ErrSignerMismatch, owner.Hex(), ec.wallet.Hex())
	}

	auth, err := bind.NewKeyedTransactorWithChainID(ec.privateKey, ec.config.ChainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrCreateTransactor, err)
	}
	auth.Context = ctx

	tx, err := ec.contract(token).Transact(auth, "approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrSendTransaction, err)
	}

	ec.logger.WithFields(map[string]interface{}{
		"token":   token.Hex(),
		"spender": spender.Hex(),
		"amount":  amount.String(),
	}).Infof("approval sent: %s", tx.Hash().Hex())
	return tx.Hash(), nil
}

// TransactionReceipt maps a pending transaction to domain.ErrReceiptNotFound.
func (ec *EthereumClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	r, err := ec.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, geth.NotFound) {
		return nil, domain.ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrReceiptNotFound
	}
	return &domain.Receipt{
		TxHash:      r.TxHash,
		Status:      r.Status,
		BlockNumber: r.BlockNumber,
		GasUsed:     r.GasUsed,
	}, nil
}

// ResolveToken returns the configured native asset for the reserved address
// and reads decimals() and symbol() from ERC20 contracts. Results are cached
// per address since token metadata does not change.
func (ec *EthereumClient) ResolveToken(ctx context.Context, addr common.Address) (domain.Token, error) {
	if domain.IsNative(addr) {
		return domain.Token{
			Address:  domain.NativeAddress,
			Decimals: ec.config.NativeDecimals,
			Symbol:   ec.config.NativeSymbol,
		}, nil
	}

	ec.mu.RLock()
	t, ok := ec.tokens[addr]
	ec.mu.RUnlock()
	if ok {
		return t, nil
	}

	contract := ec.contract(addr)
	opts := &bind.CallOpts{Context: ctx}

	var out []interface{}
	if err := contract.Call(opts, &out, "decimals"); err != nil {
		return domain.Token{}, fmt.Errorf("%w: decimals of %s: %v", ErrContractCall, addr.Hex(), err)
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return domain.Token{}, fmt.Errorf("%w: decimals of %s: unexpected type %T", ErrContractCall, addr.Hex(), out[0])
	}

	out = nil
	symbol := ""
	if err := contract.Call(opts, &out, "symbol"); err != nil {
		// symbol() is optional in ERC20
		ec.logger.Warnf("symbol of %s: %v", addr.Hex(), err)
	} else if s, ok := out[0].(string); ok {
		symbol = s
	}

	t = domain.Token{Address: addr, Decimals: int(decimals), Symbol: symbol}
	ec.mu.Lock()
	ec.tokens[addr] = t
	ec.mu.Unlock()
	return t, nil
}
