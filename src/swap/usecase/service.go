package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MMN3003/megaswap/src/amount"
	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/metrics"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

type Service struct {
	quotes         *QuoteClient
	allowances     *AllowanceManager
	tokens         domain.TokenResolver
	receipts       domain.ReceiptFetcher
	swaps          domain.SwapRepository
	logger         *logger.Logger
	nativeDecimals int
	now            func() time.Time
}

func NewService(
	quotes *QuoteClient,
	allowances *AllowanceManager,
	tokens domain.TokenResolver,
	receipts domain.ReceiptFetcher,
	swaps domain.SwapRepository,
	logg *logger.Logger,
	nativeDecimals int,
) *Service {
	return &Service{
		quotes:         quotes,
		allowances:     allowances,
		tokens:         tokens,
		receipts:       receipts,
		swaps:          swaps,
		logger:         logg,
		nativeDecimals: nativeDecimals,
		now:            time.Now,
	}
}

// QuoteResult is a reconciled quote plus what reconciliation changed.
type QuoteResult struct {
	Quote      *domain.Quote
	FromToken  domain.Token
	ToToken    domain.Token
	Correction ValueCorrection
}

// SwapPlan is everything the caller needs to submit the swap.
type SwapPlan struct {
	RecordID    uuid.UUID
	Quote       *domain.Quote
	FromToken   domain.Token
	ToToken     domain.Token
	Correction  ValueCorrection
	Allowance   *domain.AllowanceState
	Transaction *domain.ExecutableTransaction
}

// Quote fetches and reconciles a quote without touching allowances. The
// request is validated before any network call; token resolution and the
// aggregator fetch then run concurrently.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if err := validateQuoteRequest(req); err != nil {
		return nil, err
	}

	var (
		from, to domain.Token
		q        *domain.Quote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tokens.ResolveToken(gctx, req.From)
		if err != nil {
			return fmt.Errorf("resolve from token: %w", err)
		}
		from = t
		return nil
	})
	g.Go(func() error {
		t, err := s.tokens.ResolveToken(gctx, req.To)
		if err != nil {
			return fmt.Errorf("resolve to token: %w", err)
		}
		to = t
		return nil
	})
	g.Go(func() error {
		fetched, err := s.quotes.GetQuote(gctx, req)
		if err != nil {
			return err
		}
		q = fetched
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reconciled, corr, err := s.reconcile(q, from)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: reconciled, FromToken: from, ToToken: to, Correction: corr}, nil
}

// PrepareSwap runs the whole pipeline: quote, value reconciliation, approval
// (token inputs only, blocking until confirmed) and transaction assembly.
func (s *Service) PrepareSwap(ctx context.Context, req QuoteRequest) (*SwapPlan, error) {
	if req.Sender == nil || *req.Sender == (common.Address{}) {
		return nil, fmt.Errorf("%w: sender is required to prepare a swap", domain.ErrInvalidQuoteRequest)
	}

	res, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	q := res.Quote
	log := s.logger.WithFields(map[string]interface{}{
		"quote_id": q.ID.String(),
		"sender":   req.Sender.Hex(),
	})

	record := &domain.SwapRecord{
		ID:             uuid.New(),
		QuoteID:        q.ID,
		Owner:          *req.Sender,
		FromToken:      q.FromToken,
		ToToken:        q.ToToken,
		FromAmount:     q.FromAmount,
		ToAmount:       q.ToAmount,
		Value:          q.Transaction.Value,
		ValueCorrected: res.Correction.Applied(),
		Spender:        q.Transaction.To,
		ApprovalStatus: domain.AllowanceNotRequired,
		CreatedAt:      s.now().UTC(),
	}

	var state *domain.AllowanceState
	if !res.FromToken.IsNative() {
		required, err := minimalUnits(q.FromAmount, res.FromToken.Decimals)
		if err != nil {
			return nil, fmt.Errorf("required allowance: %w", err)
		}

		record.ApprovalStatus = domain.AllowanceChecking
		s.journal(ctx, log, record)

		state, err = s.allowances.EnsureAllowance(ctx, *req.Sender, q.Transaction.To, q.FromToken, required, s.journalObserver(ctx, log, record.ID))
		if err != nil {
			if state == nil {
				// The allowance was never read, so the observer recorded nothing past CHECKING.
				s.journalObserver(ctx, log, record.ID)(domain.AllowanceState{Status: domain.AllowanceUnknown})
			}
			return nil, err
		}
	} else {
		s.journal(ctx, log, record)
	}

	tx, err := BuildTransaction(q)
	if err != nil {
		log.Errorf("reconciled quote failed to build: %v", err)
		return nil, err
	}

	log.Infof("swap prepared: %s %s -> %s %s, value %s, gas %d",
		q.FromAmount, res.FromToken.Symbol, q.ToAmount, res.ToToken.Symbol, tx.Value, tx.GasLimit)

	return &SwapPlan{
		RecordID:    record.ID,
		Quote:       q,
		FromToken:   res.FromToken,
		ToToken:     res.ToToken,
		Correction:  res.Correction,
		Allowance:   state,
		Transaction: tx,
	}, nil
}

// CheckAllowance classifies owner's allowance for humanAmount of token.
func (s *Service) CheckAllowance(ctx context.Context, owner, spender, token common.Address, humanAmount string) (*domain.AllowanceState, error) {
	required, err := s.requiredAmount(ctx, token, humanAmount)
	if err != nil {
		return nil, err
	}
	return s.allowances.CheckAllowance(ctx, owner, spender, token, required)
}

// RequestApproval submits an exact approval only when the fresh allowance is
// short, and returns without waiting for the receipt.
func (s *Service) RequestApproval(ctx context.Context, owner, spender, token common.Address, humanAmount string) (*domain.AllowanceState, error) {
	required, err := s.requiredAmount(ctx, token, humanAmount)
	if err != nil {
		return nil, err
	}
	state, err := s.allowances.CheckAllowance(ctx, owner, spender, token, required)
	if err != nil {
		return nil, err
	}
	if state.Status == domain.AllowanceSufficient {
		return state, nil
	}

	state.Status = domain.AllowanceApproving
	hash, err := s.allowances.Approve(ctx, owner, spender, token, required)
	if err != nil {
		state.Status = domain.AllowanceFailed
		return state, err
	}
	state.ApprovalTx = &hash
	state.Status = domain.AllowanceAwaitingConfirmation
	return state, nil
}

// ApprovalStatus probes the receipt of an approval once.
func (s *Service) ApprovalStatus(ctx context.Context, hash common.Hash) (domain.AllowanceStatus, *domain.Receipt, error) {
	receipt, err := s.receipts.TransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, domain.ErrReceiptNotFound), err == nil && receipt == nil:
		return domain.AllowanceAwaitingConfirmation, nil, nil
	case err != nil:
		return domain.AllowanceUnknown, nil, err
	case receipt.Succeeded():
		return domain.AllowanceConfirmed, receipt, nil
	default:
		return domain.AllowanceFailed, receipt, nil
	}
}

// RecheckApprovals settles journal entries whose approval poll ended without
// a receipt. Entries still pending after staleAfter become TimedOut and are
// no longer probed.
func (s *Service) RecheckApprovals(ctx context.Context, staleAfter time.Duration) error {
	pending, err := s.swaps.ListByApprovalStatus(ctx, domain.AllowanceAwaitingConfirmation, domain.AllowanceTimedOut)
	if err != nil {
		return fmt.Errorf("list unsettled approvals: %w", err)
	}

	now := s.now()
	for _, r := range pending {
		if r.ApprovalTx == nil {
			continue
		}
		stale := now.Sub(r.CreatedAt) > staleAfter
		if r.ApprovalStatus == domain.AllowanceTimedOut && stale {
			continue
		}

		status, _, err := s.ApprovalStatus(ctx, *r.ApprovalTx)
		if err != nil {
			s.logger.Errorf("recheck approval %s: %v", r.ApprovalTx.Hex(), err)
			continue
		}
		if status == domain.AllowanceAwaitingConfirmation {
			if !stale || r.ApprovalStatus == domain.AllowanceTimedOut {
				continue
			}
			status = domain.AllowanceTimedOut
		}

		if err := s.swaps.UpdateApproval(ctx, r.ID, r.ApprovalTx, status); err != nil {
			s.logger.Errorf("update approval of record %s: %v", r.ID, err)
			continue
		}
		s.logger.Infof("approval %s of record %s settled as %s", r.ApprovalTx.Hex(), r.ID, status)
	}
	return nil
}

func (s *Service) reconcile(q *domain.Quote, from domain.Token) (*domain.Quote, ValueCorrection, error) {
	reconciled, corr, err := ReconcileValue(q, from, s.nativeDecimals)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedQuote) || errors.Is(err, domain.ErrUnexpectedNativeValue) {
			s.logger.WithField("quote_id", q.ID.String()).Errorf("quote rejected by reconciler: %v", err)
		}
		return nil, ValueCorrection{}, err
	}
	if corr.Applied() {
		metrics.ValueCorrected(corr.Reason)
		s.logger.WithField("quote_id", q.ID.String()).Warnf(
			"native value corrected (%s): aggregator sent %s, using %s", corr.Reason, bigOrNil(corr.Original), corr.Reconciled)
	}
	return reconciled, corr, nil
}

func (s *Service) requiredAmount(ctx context.Context, token common.Address, humanAmount string) (*big.Int, error) {
	if err := amount.Validate(humanAmount); err != nil {
		return nil, err
	}
	t, err := s.tokens.ResolveToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return minimalUnits(humanAmount, t.Decimals)
}

// journal failures are logged and never block the swap.
func (s *Service) journal(ctx context.Context, log *logger.Logger, r *domain.SwapRecord) {
	r.UpdatedAt = s.now().UTC()
	if err := s.swaps.Save(context.WithoutCancel(ctx), r); err != nil {
		log.Errorf("journal swap %s: %v", r.ID, err)
	}
}

// journalObserver persists the approval hash as soon as it exists so an
// abandoned poll can be settled later by RecheckApprovals.
func (s *Service) journalObserver(ctx context.Context, log *logger.Logger, id uuid.UUID) ApprovalObserver {
	ctx = context.WithoutCancel(ctx)
	return func(state domain.AllowanceState) {
		switch state.Status {
		case domain.AllowanceAwaitingConfirmation, domain.AllowanceSufficient, domain.AllowanceConfirmed,
			domain.AllowanceFailed, domain.AllowanceTimedOut, domain.AllowanceUnknown:
		default:
			return
		}
		if err := s.swaps.UpdateApproval(ctx, id, state.ApprovalTx, state.Status); err != nil {
			log.Errorf("journal approval state %s for %s: %v", state.Status, id, err)
		}
	}
}

func bigOrNil(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
