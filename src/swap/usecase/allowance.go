package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/metrics"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

const (
	DefaultMaxAttempts  = 30
	DefaultPollInterval = 2 * time.Second
)

// AllowanceManager drives the ERC20 approval handshake for one
// (owner, spender, token) triple at a time. It never caches allowances and
// never retries an approval on its own.
type AllowanceManager struct {
	chain        domain.ChainClient
	logger       *logger.Logger
	maxAttempts  int
	pollInterval time.Duration
}

type AllowanceOption func(*AllowanceManager)

func WithMaxAttempts(n int) AllowanceOption {
	return func(m *AllowanceManager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

func WithPollInterval(d time.Duration) AllowanceOption {
	return func(m *AllowanceManager) {
		if d >= 0 {
			m.pollInterval = d
		}
	}
}

func NewAllowanceManager(chain domain.ChainClient, logg *logger.Logger, opts ...AllowanceOption) *AllowanceManager {
	m := &AllowanceManager{
		chain:        chain,
		logger:       logg,
		maxAttempts:  DefaultMaxAttempts,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApprovalObserver is told about every state transition of EnsureAllowance.
type ApprovalObserver func(state domain.AllowanceState)

// CheckAllowance reads the current on-chain allowance and classifies it
// against required.
func (m *AllowanceManager) CheckAllowance(ctx context.Context, owner, spender, token common.Address, required *big.Int) (*domain.AllowanceState, error) {
	if required == nil || required.Sign() < 0 {
		return nil, fmt.Errorf("%w: required allowance must be non-negative", domain.ErrInvalidAmount)
	}
	if domain.IsNative(token) {
		return nil, fmt.Errorf("%w: native asset has no allowance", domain.ErrInvalidQuoteRequest)
	}

	current, err := m.chain.Allowance(ctx, token, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("read allowance of %s for %s: %w", token.Hex(), spender.Hex(), err)
	}

	state := &domain.AllowanceState{
		Owner:            owner,
		Spender:          spender,
		Token:            token,
		CurrentAllowance: current,
		RequiredAmount:   new(big.Int).Set(required),
		Status:           domain.AllowanceInsufficient,
	}
	if current.Cmp(required) >= 0 {
		state.Status = domain.AllowanceSufficient
	}
	return state, nil
}

// Approve submits approve(spender, amount) for exactly amount. Callers must
// check the allowance again before re-issuing a failed or pending approval.
func (m *AllowanceManager) Approve(ctx context.Context, owner, spender, token common.Address, amount *big.Int) (common.Hash, error) {
	if amount == nil || amount.Sign() <= 0 {
		return common.Hash{}, fmt.Errorf("%w: approval amount must be positive", domain.ErrInvalidAmount)
	}
	if spender == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("%w: spender is the zero address", domain.ErrInvalidQuoteRequest)
	}

	hash, err := m.chain.SubmitApproval(ctx, token, owner, spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", domain.ErrApprovalSubmissionFailed, err)
	}
	return hash, nil
}

// WaitForConfirmation polls for the receipt of hash at most maxAttempts
// times, pollInterval apart. It reports whether the transaction succeeded and
// fails with ErrConfirmationTimeout once the attempts are used up.
func (m *AllowanceManager) WaitForConfirmation(ctx context.Context, hash common.Hash) (bool, error) {
	log := m.logger.WithField("tx", hash.Hex())

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		metrics.ReceiptPolled()
		receipt, err := m.chain.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			log.Debugf("receipt found after %d attempt(s), status %d", attempt, receipt.Status)
			return receipt.Succeeded(), nil
		case err == nil, errors.Is(err, domain.ErrReceiptNotFound):
			log.Debugf("no receipt yet (attempt %d/%d)", attempt, m.maxAttempts)
		case ctx.Err() != nil:
			return false, ctx.Err()
		default:
			log.Warnf("receipt lookup failed (attempt %d/%d): %v", attempt, m.maxAttempts, err)
		}

		if attempt == m.maxAttempts {
			break
		}
		if err := sleep(ctx, m.pollInterval); err != nil {
			return false, err
		}
	}

	return false, fmt.Errorf("%w: no receipt for %s after %d attempts", domain.ErrConfirmationTimeout, hash.Hex(), m.maxAttempts)
}

// EnsureAllowance runs the whole handshake:
//
//	Checking -> Sufficient
//	Checking -> InsufficientNeedsApproval -> Approving -> AwaitingConfirmation -> Confirmed | Failed | TimedOut
//
// It blocks until the approval is confirmed or the handshake fails. The
// returned state is non-nil whenever a check succeeded, also on error.
func (m *AllowanceManager) EnsureAllowance(ctx context.Context, owner, spender, token common.Address, required *big.Int, observe ApprovalObserver) (*domain.AllowanceState, error) {
	if observe == nil {
		observe = func(domain.AllowanceState) {}
	}
	log := m.logger.WithFields(map[string]interface{}{
		"owner":   owner.Hex(),
		"spender": spender.Hex(),
		"token":   token.Hex(),
	})
	transition := func(s *domain.AllowanceState, to domain.AllowanceStatus) {
		log.Debugf("allowance %s -> %s", s.Status, to)
		s.Status = to
		observe(*s)
	}

	observe(domain.AllowanceState{Owner: owner, Spender: spender, Token: token, Status: domain.AllowanceChecking})
	state, err := m.CheckAllowance(ctx, owner, spender, token, required)
	if err != nil {
		return nil, err
	}
	observe(*state)
	if state.Status == domain.AllowanceSufficient {
		metrics.ObserveApproval(string(domain.AllowanceSufficient))
		return state, nil
	}

	transition(state, domain.AllowanceApproving)
	hash, err := m.Approve(ctx, owner, spender, token, required)
	if err != nil {
		transition(state, domain.AllowanceFailed)
		metrics.ObserveApproval(string(domain.AllowanceFailed))
		return state, err
	}
	state.ApprovalTx = &hash
	transition(state, domain.AllowanceAwaitingConfirmation)

	ok, err := m.WaitForConfirmation(ctx, hash)
	switch {
	case errors.Is(err, domain.ErrConfirmationTimeout):
		transition(state, domain.AllowanceTimedOut)
		metrics.ObserveApproval(string(domain.AllowanceTimedOut))
		return state, err
	case err != nil:
		// Abandoned: the approval may still land and stays checkable.
		return state, err
	case !ok:
		transition(state, domain.AllowanceFailed)
		metrics.ObserveApproval(string(domain.AllowanceFailed))
		return state, fmt.Errorf("%w: %s", domain.ErrApprovalFailed, hash.Hex())
	}

	current, err := m.chain.Allowance(ctx, token, owner, spender)
	if err != nil {
		return state, fmt.Errorf("re-read allowance after %s: %w", hash.Hex(), err)
	}
	state.CurrentAllowance = current
	if current.Cmp(required) < 0 {
		transition(state, domain.AllowanceFailed)
		metrics.ObserveApproval(string(domain.AllowanceFailed))
		return state, fmt.Errorf("%w: allowance %s still below %s after %s", domain.ErrApprovalFailed, current, required, hash.Hex())
	}

	transition(state, domain.AllowanceConfirmed)
	metrics.ObserveApproval(string(domain.AllowanceConfirmed))
	return state, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
