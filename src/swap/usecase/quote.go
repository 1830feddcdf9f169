package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MMN3003/megaswap/src/Infrastructure/aggregator"
	"github.com/MMN3003/megaswap/src/amount"
	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/metrics"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

const DefaultGasEstimate uint64 = 200000

// QuoteFetcher is the transport half of the quote client.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, params aggregator.QuoteParams) (*aggregator.QuoteResponse, error)
}

var _ QuoteFetcher = (*aggregator.Client)(nil)

// QuoteRequest asks for a quote. Optional fields are forwarded only when set.
type QuoteRequest struct {
	From            common.Address
	To              common.Address
	Amount          string
	Sender          *common.Address
	MaxSlippageBps  *uint32
	DeadlineSeconds *uint64
	Destination     *common.Address
}

// QuoteClient requests quotes from the aggregator and normalizes them. It
// holds no mutable state and is safe for concurrent use.
type QuoteClient struct {
	fetcher    QuoteFetcher
	defaultGas uint64
	logger     *logger.Logger
	now        func() time.Time
}

func NewQuoteClient(f QuoteFetcher, defaultGas uint64, logg *logger.Logger) *QuoteClient {
	if defaultGas == 0 {
		defaultGas = DefaultGasEstimate
	}
	return &QuoteClient{
		fetcher:    f,
		defaultGas: defaultGas,
		logger:     logg,
		now:        time.Now,
	}
}

// GetQuote fetches an executable quote. A response without usable calldata is
// an ErrIncompleteQuote whether or not a sender was supplied.
func (c *QuoteClient) GetQuote(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	if err := validateQuoteRequest(req); err != nil {
		return nil, err
	}

	start := c.now()
	resp, err := c.fetcher.GetQuote(ctx, toParams(req))
	if err != nil {
		err = classifyFetchError(err)
		metrics.ObserveQuote(outcomeOf(err), c.now().Sub(start))
		return nil, err
	}

	q, err := c.normalize(req, resp)
	metrics.ObserveQuote(outcomeOf(err), c.now().Sub(start))
	if err != nil {
		return nil, err
	}
	return q, nil
}

func validateQuoteRequest(req QuoteRequest) error {
	if req.From == req.To {
		return fmt.Errorf("%w: from and to token are the same (%s)", domain.ErrInvalidQuoteRequest, req.From.Hex())
	}
	zero, err := amount.IsZero(req.Amount)
	if err != nil {
		return err
	}
	if zero {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	return nil
}

func toParams(req QuoteRequest) aggregator.QuoteParams {
	p := aggregator.QuoteParams{
		From:        req.From.Hex(),
		To:          req.To.Hex(),
		Amount:      req.Amount,
		MaxSlippage: req.MaxSlippageBps,
		Deadline:    req.DeadlineSeconds,
	}
	if req.Sender != nil {
		s := req.Sender.Hex()
		p.Sender = &s
	}
	if req.Destination != nil {
		d := req.Destination.Hex()
		p.Destination = &d
	}
	return p
}

func classifyFetchError(err error) error {
	var httpErr *aggregator.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return fmt.Errorf("%w: aggregator returned status %d", domain.ErrQuoteUnavailable, httpErr.StatusCode)
	case errors.Is(err, aggregator.ErrDecode):
		return fmt.Errorf("%w: %v", domain.ErrInvalidQuoteResponse, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
}

func (c *QuoteClient) normalize(req QuoteRequest, resp *aggregator.QuoteResponse) (*domain.Quote, error) {
	if resp.OutputFormatted == nil || *resp.OutputFormatted == "" {
		return nil, fmt.Errorf("%w: output_formatted missing", domain.ErrInvalidQuoteResponse)
	}
	out, err := decimal.NewFromString(*resp.OutputFormatted)
	if err != nil {
		return nil, fmt.Errorf("%w: output_formatted %q: %v", domain.ErrInvalidQuoteResponse, *resp.OutputFormatted, err)
	}
	if out.IsNegative() {
		return nil, fmt.Errorf("%w: negative output_formatted %s", domain.ErrInvalidQuoteResponse, out)
	}

	tx, err := parseTransaction(resp.Transaction, req.Sender != nil)
	if err != nil {
		return nil, err
	}

	q := &domain.Quote{
		ID:          uuid.New(),
		FromToken:   req.From,
		ToToken:     req.To,
		FromAmount:  req.Amount,
		ToAmount:    out.String(),
		RouteCount:  len(resp.Routes),
		Transaction: tx,
		CreatedAt:   c.now().UTC(),
	}

	if resp.GasEstimate == "" {
		q.EstimatedGas = c.defaultGas
		q.GasEstimateDefaulted = true
		metrics.GasEstimateDefaulted()
		c.logger.WithField("quote_id", q.ID).Warnf(
			"aggregator omitted gas_estimate, using default %d (degraded confidence)", c.defaultGas)
	} else {
		gas, err := strconv.ParseUint(resp.GasEstimate.String(), 10, 64)
		if err != nil || gas == 0 {
			return nil, fmt.Errorf("%w: gas_estimate %q is not a positive integer", domain.ErrInvalidQuoteResponse, resp.GasEstimate)
		}
		q.EstimatedGas = gas
	}

	return q, nil
}

func parseTransaction(raw *aggregator.QuoteTransaction, senderProvided bool) (domain.QuoteTransaction, error) {
	var tx domain.QuoteTransaction
	if raw == nil {
		return tx, &domain.IncompleteQuoteError{SenderProvided: senderProvided, Reason: "transaction missing"}
	}
	if raw.To == "" {
		return tx, &domain.IncompleteQuoteError{SenderProvided: senderProvided, Reason: "transaction.to missing"}
	}
	if raw.Data == "" || raw.Data == "0x" {
		return tx, &domain.IncompleteQuoteError{SenderProvided: senderProvided, Reason: "calldata empty"}
	}

	if !common.IsHexAddress(raw.To) {
		return tx, fmt.Errorf("%w: transaction.to %q is not an address", domain.ErrInvalidQuoteResponse, raw.To)
	}
	tx.To = common.HexToAddress(raw.To)
	if tx.To == (common.Address{}) {
		return tx, &domain.IncompleteQuoteError{SenderProvided: senderProvided, Reason: "transaction.to is the zero address"}
	}

	data, err := hexutil.Decode(raw.Data)
	if err != nil {
		return tx, fmt.Errorf("%w: transaction.data: %v", domain.ErrInvalidQuoteResponse, err)
	}
	tx.Data = data

	value, err := parseValue(raw.Value)
	if err != nil {
		return tx, err
	}
	tx.Value = value
	return tx, nil
}

// parseValue accepts decimal and 0x-prefixed hex. An absent value stays nil
// so the reconciler can tell "missing" from "zero".
func parseValue(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	digits, base := s, 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits, base = s[2:], 16
		if digits == "" {
			return new(big.Int), nil
		}
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: transaction.value %q", domain.ErrInvalidQuoteResponse, s)
	}
	return v, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrQuoteUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrIncompleteQuote):
		return "incomplete"
	default:
		return "invalid"
	}
}
