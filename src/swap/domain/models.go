package domain

import (
	"bytes"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// NativeAddress is the reserved token address of the chain's base currency.
var NativeAddress = common.Address{}

// Token description
type Token struct {
	Address  common.Address `json:"address"`
	Decimals int            `json:"decimals"`
	Symbol   string         `json:"symbol"`
}

func (t Token) IsNative() bool { return IsNative(t.Address) }

func IsNative(addr common.Address) bool { return addr == NativeAddress }

// QuoteTransaction is the transaction the aggregator wants submitted.
// Value is nil when the aggregator left it out.
type QuoteTransaction struct {
	To    common.Address `json:"to"`
	Data  []byte         `json:"data"`
	Value *big.Int       `json:"value"`
}

// Executable reports whether the transaction carries a real call.
func (t QuoteTransaction) Executable() bool {
	return t.To != (common.Address{}) && len(t.Data) > 0
}

// Quote entity. A quote is a price snapshot: it is never mutated after
// normalization and is not reused once a transaction has been built from it.
type Quote struct {
	ID                   uuid.UUID        `json:"id"`
	FromToken            common.Address   `json:"from_token"`
	ToToken              common.Address   `json:"to_token"`
	FromAmount           string           `json:"from_amount"`
	ToAmount             string           `json:"to_amount"`
	EstimatedGas         uint64           `json:"estimated_gas"`
	GasEstimateDefaulted bool             `json:"gas_estimate_defaulted"`
	RouteCount           int              `json:"route_count"`
	Transaction          QuoteTransaction `json:"transaction"`
	CreatedAt            time.Time        `json:"created_at"`
}

// Clone returns a deep copy so reconciled quotes never alias the original.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}
	out := *q
	out.Transaction.Data = bytes.Clone(q.Transaction.Data)
	if q.Transaction.Value != nil {
		out.Transaction.Value = new(big.Int).Set(q.Transaction.Value)
	}
	return &out
}

// ExecutableTransaction is the final, immutable swap transaction handed to
// the caller for submission.
type ExecutableTransaction struct {
	To       common.Address `json:"to"`
	Data     []byte         `json:"data"`
	Value    *big.Int       `json:"value"`
	GasLimit uint64         `json:"gas_limit"`
}

// AllowanceStatus is a state of the approval handshake for one
// (owner, spender, token) triple.
type AllowanceStatus string

const (
	AllowanceUnknown              AllowanceStatus = "UNKNOWN"
	AllowanceChecking             AllowanceStatus = "CHECKING"
	AllowanceSufficient           AllowanceStatus = "SUFFICIENT"
	AllowanceInsufficient         AllowanceStatus = "INSUFFICIENT_NEEDS_APPROVAL"
	AllowanceApproving            AllowanceStatus = "APPROVING"
	AllowanceAwaitingConfirmation AllowanceStatus = "AWAITING_CONFIRMATION"
	AllowanceConfirmed            AllowanceStatus = "CONFIRMED"
	AllowanceFailed               AllowanceStatus = "FAILED"
	AllowanceTimedOut             AllowanceStatus = "TIMED_OUT"

	// AllowanceNotRequired marks native-asset swaps in the journal.
	AllowanceNotRequired AllowanceStatus = "NOT_REQUIRED"
)

// Terminal reports whether no further transition can happen.
func (s AllowanceStatus) Terminal() bool {
	switch s {
	case AllowanceSufficient, AllowanceConfirmed, AllowanceFailed, AllowanceTimedOut, AllowanceNotRequired:
		return true
	}
	return false
}

// AllowanceState is derived fresh on every check and never cached.
type AllowanceState struct {
	Owner            common.Address  `json:"owner"`
	Spender          common.Address  `json:"spender"`
	Token            common.Address  `json:"token"`
	CurrentAllowance *big.Int        `json:"current_allowance"`
	RequiredAmount   *big.Int        `json:"required_amount"`
	Status           AllowanceStatus `json:"status"`
	ApprovalTx       *common.Hash    `json:"approval_tx,omitempty"`
}

// Receipt is the slice of a transaction receipt the pipeline cares about.
type Receipt struct {
	TxHash      common.Hash
	Status      uint64
	BlockNumber *big.Int
	GasUsed     uint64
}

const ReceiptStatusSuccessful uint64 = 1

func (r *Receipt) Succeeded() bool { return r != nil && r.Status == ReceiptStatusSuccessful }

// SwapRecord is one prepared swap attempt, kept for auditing and for
// re-checking approvals that were abandoned mid-poll.
type SwapRecord struct {
	ID             uuid.UUID       `json:"id"`
	QuoteID        uuid.UUID       `json:"quote_id"`
	Owner          common.Address  `json:"owner"`
	FromToken      common.Address  `json:"from_token"`
	ToToken        common.Address  `json:"to_token"`
	FromAmount     string          `json:"from_amount"`
	ToAmount       string          `json:"to_amount"`
	Value          *big.Int        `json:"value"`
	ValueCorrected bool            `json:"value_corrected"`
	Spender        common.Address  `json:"spender"`
	ApprovalTx     *common.Hash    `json:"approval_tx,omitempty"`
	ApprovalStatus AllowanceStatus `json:"approval_status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
