package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// AllowanceReader reads ERC20 allowances (a read-only contract call).
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// ApprovalSubmitter signs and broadcasts an ERC20 approve(spender, amount)
// from owner's account.
type ApprovalSubmitter interface {
	SubmitApproval(ctx context.Context, token, owner, spender common.Address, amount *big.Int) (common.Hash, error)
}

// ReceiptFetcher returns ErrReceiptNotFound while a transaction is pending.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// ChainClient is everything the pipeline needs from the wallet/RPC side.
type ChainClient interface {
	AllowanceReader
	ApprovalSubmitter
	ReceiptFetcher
}

// TokenResolver returns token metadata (decimals, symbol).
type TokenResolver interface {
	ResolveToken(ctx context.Context, addr common.Address) (Token, error)
}

// SwapRepository persistence port
type SwapRepository interface {
	Save(ctx context.Context, r *SwapRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*SwapRecord, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, tx *common.Hash, status AllowanceStatus) error
	ListByApprovalStatus(ctx context.Context, statuses ...AllowanceStatus) ([]*SwapRecord, error)
}
