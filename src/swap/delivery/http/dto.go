// Package http provides HTTP handlers for swap operations
//
// Schemes: http
// Host: localhost:8080
// BasePath: /
// Version: 1.0.0
//
// Consumes:
// - application/json
//
// Produces:
// - application/json
//
// swagger:meta
package http

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/MMN3003/megaswap/src/swap/domain"
	"github.com/MMN3003/megaswap/src/swap/usecase"
)

// TokenDto describes a token
// swagger:model TokenDto
type TokenDto struct {
	Address  string `json:"address" example:"0xf817257fed379853cDe0fa4F97AB987181B1E5Ea"`
	Symbol   string `json:"symbol" example:"USDC"`
	Decimals int    `json:"decimals" example:"6"`
}

// TransactionDto is the transaction to sign and submit
// swagger:model TransactionDto
type TransactionDto struct {
	To       string `json:"to" example:"0x4444444444444444444444444444444444444444"`
	Data     string `json:"data" example:"0x5ae401dc"`
	Value    string `json:"value" example:"50000000000000000"`
	GasLimit uint64 `json:"gas_limit" example:"200000"`
}

// QuoteDto is a reconciled quote
// swagger:model QuoteDto
type QuoteDto struct {
	QuoteID              string          `json:"quote_id" example:"b9f..."`
	FromToken            TokenDto        `json:"from_token"`
	ToToken              TokenDto        `json:"to_token"`
	FromAmount           string          `json:"from_amount" example:"0.05"`
	ToAmount             decimal.Decimal `json:"to_amount" example:"1.2345"`
	EstimatedGas         uint64          `json:"estimated_gas" example:"200000"`
	GasEstimateDefaulted bool            `json:"gas_estimate_defaulted" example:"false"`
	RouteCount           int             `json:"route_count" example:"1"`
	ValueCorrection      string          `json:"value_correction,omitempty" example:"zero"`
	Transaction          TransactionDto  `json:"transaction"`
	CreatedAt            time.Time       `json:"created_at"`
}

// AllowanceDto is a fresh allowance reading
// swagger:model AllowanceDto
type AllowanceDto struct {
	Owner            string `json:"owner"`
	Spender          string `json:"spender"`
	Token            string `json:"token"`
	CurrentAllowance string `json:"current_allowance" example:"40"`
	RequiredAmount   string `json:"required_amount" example:"100"`
	Status           string `json:"status" example:"INSUFFICIENT_NEEDS_APPROVAL"`
	ApprovalTx       string `json:"approval_tx,omitempty"`
}

// PrepareSwapRequestBody is the payload to prepare a swap
// swagger:model PrepareSwapRequestBody
type PrepareSwapRequestBody struct {
	FromToken       string  `json:"from_token" binding:"required" example:"0x0000000000000000000000000000000000000000"`
	ToToken         string  `json:"to_token" binding:"required" example:"0xf817257fed379853cDe0fa4F97AB987181B1E5Ea"`
	Amount          string  `json:"amount" binding:"required" example:"0.05"`
	Sender          string  `json:"sender" binding:"required" example:"0x2222222222222222222222222222222222222222"`
	MaxSlippageBps  *uint32 `json:"max_slippage_bps,omitempty" example:"50"`
	DeadlineSeconds *uint64 `json:"deadline_seconds,omitempty" example:"300"`
	Destination     string  `json:"destination,omitempty"`
}

// PrepareSwapResponseBody returns everything needed to submit the swap
// swagger:model PrepareSwapResponseBody
type PrepareSwapResponseBody struct {
	RecordID    string         `json:"record_id"`
	Quote       QuoteDto       `json:"quote"`
	Allowance   *AllowanceDto  `json:"allowance,omitempty"`
	Transaction TransactionDto `json:"transaction"`
}

// RequestApprovalBody asks for an exact approval
// swagger:model RequestApprovalBody
type RequestApprovalBody struct {
	Owner   string `json:"owner" binding:"required"`
	Spender string `json:"spender" binding:"required"`
	Token   string `json:"token" binding:"required"`
	Amount  string `json:"amount" binding:"required" example:"100"`
}

// ApprovalStatusDto is a single receipt probe
// swagger:model ApprovalStatusDto
type ApprovalStatusDto struct {
	TxHash      string `json:"tx_hash"`
	Status      string `json:"status" example:"CONFIRMED"`
	BlockNumber string `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
}

// ErrorResponse is returned on every failure
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code" example:"QUOTE_UNAVAILABLE"`
	Retryable bool   `json:"retryable"`
}

func TokenDtoFromDomain(t domain.Token) TokenDto {
	return TokenDto{Address: t.Address.Hex(), Symbol: t.Symbol, Decimals: t.Decimals}
}

func TransactionDtoFromQuote(q *domain.Quote) TransactionDto {
	return TransactionDto{
		To:       q.Transaction.To.Hex(),
		Data:     hexutil.Encode(q.Transaction.Data),
		Value:    bigString(q.Transaction.Value),
		GasLimit: q.EstimatedGas,
	}
}

func TransactionDtoFromDomain(tx *domain.ExecutableTransaction) TransactionDto {
	return TransactionDto{
		To:       tx.To.Hex(),
		Data:     hexutil.Encode(tx.Data),
		Value:    bigString(tx.Value),
		GasLimit: tx.GasLimit,
	}
}

func QuoteDtoFromResult(res *usecase.QuoteResult) QuoteDto {
	q := res.Quote
	toAmount, err := decimal.NewFromString(q.ToAmount)
	if err != nil {
		toAmount = decimal.Zero
	}
	return QuoteDto{
		QuoteID:              q.ID.String(),
		FromToken:            TokenDtoFromDomain(res.FromToken),
		ToToken:              TokenDtoFromDomain(res.ToToken),
		FromAmount:           q.FromAmount,
		ToAmount:             toAmount,
		EstimatedGas:         q.EstimatedGas,
		GasEstimateDefaulted: q.GasEstimateDefaulted,
		RouteCount:           q.RouteCount,
		ValueCorrection:      res.Correction.Reason,
		Transaction:          TransactionDtoFromQuote(q),
		CreatedAt:            q.CreatedAt,
	}
}

func PrepareSwapResponseFromPlan(p *usecase.SwapPlan) PrepareSwapResponseBody {
	out := PrepareSwapResponseBody{
		RecordID: p.RecordID.String(),
		Quote: QuoteDtoFromResult(&usecase.QuoteResult{
			Quote:      p.Quote,
			FromToken:  p.FromToken,
			ToToken:    p.ToToken,
			Correction: p.Correction,
		}),
		Transaction: TransactionDtoFromDomain(p.Transaction),
	}
	if p.Allowance != nil {
		a := AllowanceDtoFromDomain(p.Allowance)
		out.Allowance = &a
	}
	return out
}

func AllowanceDtoFromDomain(s *domain.AllowanceState) AllowanceDto {
	out := AllowanceDto{
		Owner:            s.Owner.Hex(),
		Spender:          s.Spender.Hex(),
		Token:            s.Token.Hex(),
		CurrentAllowance: bigString(s.CurrentAllowance),
		RequiredAmount:   bigString(s.RequiredAmount),
		Status:           string(s.Status),
	}
	if s.ApprovalTx != nil {
		out.ApprovalTx = s.ApprovalTx.Hex()
	}
	return out
}

func ApprovalStatusDtoFromDomain(hash common.Hash, status domain.AllowanceStatus, r *domain.Receipt) ApprovalStatusDto {
	out := ApprovalStatusDto{TxHash: hash.Hex(), Status: string(status)}
	if r != nil {
		out.BlockNumber = bigString(r.BlockNumber)
		out.GasUsed = r.GasUsed
	}
	return out
}

// parseAddress accepts 20-byte hex, with or without the 0x prefix.
func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", domain.ErrInvalidQuoteRequest, field, s)
	}
	return common.HexToAddress(s), nil
}

func parseOptionalAddress(field, s string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	a, err := parseAddress(field, s)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (b PrepareSwapRequestBody) toQuoteRequest() (usecase.QuoteRequest, error) {
	from, err := parseAddress("from_token", b.FromToken)
	if err != nil {
		return usecase.QuoteRequest{}, err
	}
	to, err := parseAddress("to_token", b.ToToken)
	if err != nil {
		return usecase.QuoteRequest{}, err
	}
	sender, err := parseOptionalAddress("sender", b.Sender)
	if err != nil {
		return usecase.QuoteRequest{}, err
	}
	dest, err := parseOptionalAddress("destination", b.Destination)
	if err != nil {
		return usecase.QuoteRequest{}, err
	}
	return usecase.QuoteRequest{
		From:            from,
		To:              to,
		Amount:          b.Amount,
		Sender:          sender,
		MaxSlippageBps:  b.MaxSlippageBps,
		DeadlineSeconds: b.DeadlineSeconds,
		Destination:     dest,
	}, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
