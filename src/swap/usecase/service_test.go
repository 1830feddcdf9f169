package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	cronDomain "github.com/MMN3003/megaswap/src/cron/domain"
	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

type fakeTokens map[common.Address]domain.Token

func (f fakeTokens) ResolveToken(_ context.Context, addr common.Address) (domain.Token, error) {
	t, ok := f[addr]
	if !ok {
		return domain.Token{}, fmt.Errorf("unknown token %s", addr.Hex())
	}
	return t, nil
}

// countingTokens records how often the chain would have been asked for
// token metadata.
type countingTokens struct {
	mu    sync.Mutex
	inner fakeTokens
	calls int
}

func (c *countingTokens) ResolveToken(ctx context.Context, addr common.Address) (domain.Token, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.ResolveToken(ctx, addr)
}

type fakeRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.SwapRecord
	history []domain.AllowanceStatus
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[uuid.UUID]*domain.SwapRecord{}}
}

func (r *fakeRepo) Save(_ context.Context, s *domain.SwapRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.records[s.ID] = &cp
	r.history = append(r.history, s.ApprovalStatus)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SwapRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) UpdateApproval(_ context.Context, id uuid.UUID, tx *common.Hash, status domain.AllowanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if tx != nil {
		h := *tx
		s.ApprovalTx = &h
	}
	s.ApprovalStatus = status
	r.history = append(r.history, status)
	return nil
}

func (r *fakeRepo) ListByApprovalStatus(_ context.Context, statuses ...domain.AllowanceStatus) ([]*domain.SwapRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SwapRecord
	for _, s := range r.records {
		for _, st := range statuses {
			if s.ApprovalStatus == st {
				cp := *s
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

// fakeReceipts answers per hash; unknown hashes are pending.
type fakeReceipts struct {
	mu       sync.Mutex
	receipts map[common.Hash]*domain.Receipt
	calls    map[common.Hash]int
}

func (f *fakeReceipts) TransactionReceipt(_ context.Context, hash common.Hash) (*domain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[common.Hash]int{}
	}
	f.calls[hash]++
	r, ok := f.receipts[hash]
	if !ok {
		return nil, domain.ErrReceiptNotFound
	}
	return r, nil
}

type serviceFixture struct {
	svc     *Service
	fetcher *fakeFetcher
	chain   *fakeChain
	repo    *fakeRepo
	tokens  *countingTokens
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		fetcher: &fakeFetcher{resp: okResponse()},
		chain:   &fakeChain{allowance: big.NewInt(0)},
		repo:    newFakeRepo(),
		tokens:  &countingTokens{inner: fakeTokens{domain.NativeAddress: mon, usdc: usdcToken}},
	}
	f.svc = NewService(
		NewQuoteClient(f.fetcher, 0, logger.Nop()),
		newTestManager(f.chain, 3),
		f.tokens,
		f.chain,
		f.repo,
		logger.Nop(),
		18,
	)
	return f
}

func tokenRequest(amount string) QuoteRequest {
	sender := alice
	return QuoteRequest{From: usdc, To: domain.NativeAddress, Amount: amount, Sender: &sender}
}

func TestPrepareSwap_NativeCorrectsZeroValue(t *testing.T) {
	f := newServiceFixture(t)

	plan, err := f.svc.PrepareSwap(context.Background(), nativeRequest())
	require.NoError(t, err)
	require.Equal(t, "50000000000000000", plan.Transaction.Value.String())
	require.Equal(t, CorrectionZero, plan.Correction.Reason)
	require.Nil(t, plan.Allowance)
	require.Zero(t, f.chain.allowanceCalls)
	require.Zero(t, f.chain.submitCalls)

	rec, err := f.repo.GetByID(context.Background(), plan.RecordID)
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceNotRequired, rec.ApprovalStatus)
	require.True(t, rec.ValueCorrected)
	require.Equal(t, "50000000000000000", rec.Value.String())
}

func TestPrepareSwap_TokenApprovesExactAmount(t *testing.T) {
	f := newServiceFixture(t)
	f.chain.allowance = big.NewInt(40)

	plan, err := f.svc.PrepareSwap(context.Background(), tokenRequest("0.0001"))
	require.NoError(t, err)
	require.Zero(t, plan.Transaction.Value.Sign())
	require.Equal(t, domain.AllowanceConfirmed, plan.Allowance.Status)
	require.Equal(t, int64(100), f.chain.approvedAmount.Int64())
	require.Equal(t, router, plan.Allowance.Spender)

	rec, err := f.repo.GetByID(context.Background(), plan.RecordID)
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceConfirmed, rec.ApprovalStatus)
	require.NotNil(t, rec.ApprovalTx)
	require.Contains(t, f.repo.history, domain.AllowanceAwaitingConfirmation)
}

func TestPrepareSwap_TokenSufficientSkipsApproval(t *testing.T) {
	f := newServiceFixture(t)
	f.chain.allowance = big.NewInt(5_000_000)

	plan, err := f.svc.PrepareSwap(context.Background(), tokenRequest("5"))
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceSufficient, plan.Allowance.Status)
	require.Zero(t, f.chain.submitCalls)
}

func TestPrepareSwap_TimeoutKeepsHashInJournal(t *testing.T) {
	f := newServiceFixture(t)
	f.chain.neverMined = true

	_, err := f.svc.PrepareSwap(context.Background(), tokenRequest("1"))
	require.ErrorIs(t, err, domain.ErrConfirmationTimeout)

	timedOut, err := f.repo.ListByApprovalStatus(context.Background(), domain.AllowanceTimedOut)
	require.NoError(t, err)
	require.Len(t, timedOut, 1)
	require.NotNil(t, timedOut[0].ApprovalTx)
}

func TestPrepareSwap_Rejections(t *testing.T) {
	f := newServiceFixture(t)

	noSender := nativeRequest()
	noSender.Sender = nil
	_, err := f.svc.PrepareSwap(context.Background(), noSender)
	require.ErrorIs(t, err, domain.ErrInvalidQuoteRequest)
	require.Zero(t, f.fetcher.calls)

	f.fetcher.resp.Transaction.Value = "0x1"
	_, err = f.svc.PrepareSwap(context.Background(), tokenRequest("1"))
	require.ErrorIs(t, err, domain.ErrUnexpectedNativeValue)
	require.Zero(t, f.chain.submitCalls)

	f.fetcher.resp = okResponse()
	f.fetcher.resp.Transaction.Data = ""
	_, err = f.svc.PrepareSwap(context.Background(), tokenRequest("1"))
	require.ErrorIs(t, err, domain.ErrIncompleteQuote)
	require.Zero(t, f.chain.submitCalls)
}

func TestPrepareSwap_RejectsAmountBelowSmallestUnit(t *testing.T) {
	f := newServiceFixture(t)

	native := nativeRequest()
	native.Amount = "0.0000000000000000001"
	_, err := f.svc.PrepareSwap(context.Background(), native)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.PrepareSwap(context.Background(), tokenRequest("0.0000001"))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	require.Zero(t, f.chain.allowanceCalls)
	require.Zero(t, f.chain.submitCalls)
	require.Empty(t, f.repo.records)
}

func TestPrepareSwap_AllowanceReadFailureLeavesNoCheckingRecord(t *testing.T) {
	f := newServiceFixture(t)
	f.chain.allowanceErr = errors.New("rpc down")

	_, err := f.svc.PrepareSwap(context.Background(), tokenRequest("1"))
	require.Error(t, err)

	checking, err := f.repo.ListByApprovalStatus(context.Background(), domain.AllowanceChecking)
	require.NoError(t, err)
	require.Empty(t, checking)

	unknown, err := f.repo.ListByApprovalStatus(context.Background(), domain.AllowanceUnknown)
	require.NoError(t, err)
	require.Len(t, unknown, 1)
}

func TestInvalidAmountRejectedBeforeNetwork(t *testing.T) {
	f := newServiceFixture(t)

	for _, amt := range []string{"abc", "-1", "", "0", "1e5"} {
		_, err := f.svc.Quote(context.Background(), tokenRequest(amt))
		require.ErrorIs(t, err, domain.ErrInvalidAmount, amt)
	}
	for _, amt := range []string{"abc", "1e5", " 1"} {
		_, err := f.svc.CheckAllowance(context.Background(), alice, router, usdc, amt)
		require.ErrorIs(t, err, domain.ErrInvalidAmount, amt)
		_, err = f.svc.RequestApproval(context.Background(), alice, router, usdc, amt)
		require.ErrorIs(t, err, domain.ErrInvalidAmount, amt)
	}

	same := tokenRequest("1")
	same.To = same.From
	_, err := f.svc.Quote(context.Background(), same)
	require.ErrorIs(t, err, domain.ErrInvalidQuoteRequest)

	require.Zero(t, f.tokens.calls)
	require.Zero(t, f.fetcher.calls)
	require.Zero(t, f.chain.allowanceCalls)
}

func TestQuote_TokenResolutionError(t *testing.T) {
	f := newServiceFixture(t)
	unknown := common.HexToAddress("0x9999999999999999999999999999999999999999")

	req := tokenRequest("1")
	req.To = unknown
	_, err := f.svc.Quote(context.Background(), req)
	require.ErrorContains(t, err, "resolve to token")
}

func TestQuote_ReconcilesWithoutAllowance(t *testing.T) {
	f := newServiceFixture(t)

	res, err := f.svc.Quote(context.Background(), tokenRequest("1"))
	require.NoError(t, err)
	require.Zero(t, res.Quote.Transaction.Value.Sign())
	require.Equal(t, "USDC", res.FromToken.Symbol)
	require.Equal(t, "MON", res.ToToken.Symbol)
	require.Zero(t, f.chain.allowanceCalls)
}

func TestRequestApproval(t *testing.T) {
	f := newServiceFixture(t)
	f.chain.allowance = big.NewInt(40)

	state, err := f.svc.RequestApproval(context.Background(), alice, router, usdc, "0.0001")
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceAwaitingConfirmation, state.Status)
	require.NotNil(t, state.ApprovalTx)
	require.Zero(t, f.chain.receiptCalls)

	f.chain.allowance = big.NewInt(150)
	state, err = f.svc.RequestApproval(context.Background(), alice, router, usdc, "0.0001")
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceSufficient, state.Status)
	require.Equal(t, 1, f.chain.submitCalls)
}

func TestCheckAllowance_HumanAmount(t *testing.T) {
	f := newServiceFixture(t)
	f.chain.allowance = big.NewInt(40)

	state, err := f.svc.CheckAllowance(context.Background(), alice, router, usdc, "0.0001")
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceInsufficient, state.Status)
	require.Equal(t, int64(100), state.RequiredAmount.Int64())

	_, err = f.svc.CheckAllowance(context.Background(), alice, router, usdc, "abc")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestApprovalStatus(t *testing.T) {
	ok := common.HexToHash("0x01")
	bad := common.HexToHash("0x02")
	receipts := &fakeReceipts{receipts: map[common.Hash]*domain.Receipt{
		ok:  {TxHash: ok, Status: domain.ReceiptStatusSuccessful},
		bad: {TxHash: bad, Status: 0},
	}}
	svc := NewService(nil, nil, fakeTokens{}, receipts, newFakeRepo(), logger.Nop(), 18)

	status, r, err := svc.ApprovalStatus(context.Background(), ok)
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceConfirmed, status)
	require.NotNil(t, r)

	status, _, err = svc.ApprovalStatus(context.Background(), bad)
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceFailed, status)

	status, _, err = svc.ApprovalStatus(context.Background(), common.HexToHash("0x03"))
	require.NoError(t, err)
	require.Equal(t, domain.AllowanceAwaitingConfirmation, status)
}

func TestRecheckApprovals(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	mined := common.HexToHash("0x01")
	lateMined := common.HexToHash("0x02")
	pending := common.HexToHash("0x03")
	stalePending := common.HexToHash("0x04")
	abandoned := common.HexToHash("0x05")

	receipts := &fakeReceipts{receipts: map[common.Hash]*domain.Receipt{
		mined:     {TxHash: mined, Status: domain.ReceiptStatusSuccessful},
		lateMined: {TxHash: lateMined, Status: domain.ReceiptStatusSuccessful},
		abandoned: {TxHash: abandoned, Status: domain.ReceiptStatusSuccessful},
	}}
	repo := newFakeRepo()
	add := func(hash common.Hash, status domain.AllowanceStatus, age time.Duration) uuid.UUID {
		h := hash
		rec := &domain.SwapRecord{ID: uuid.New(), ApprovalTx: &h, ApprovalStatus: status, CreatedAt: now.Add(-age)}
		require.NoError(t, repo.Save(context.Background(), rec))
		return rec.ID
	}
	minedID := add(mined, domain.AllowanceAwaitingConfirmation, time.Minute)
	lateID := add(lateMined, domain.AllowanceTimedOut, time.Minute)
	pendingID := add(pending, domain.AllowanceAwaitingConfirmation, time.Minute)
	staleID := add(stalePending, domain.AllowanceAwaitingConfirmation, 2*time.Hour)
	abandonedID := add(abandoned, domain.AllowanceTimedOut, 2*time.Hour)

	svc := NewService(nil, nil, fakeTokens{}, receipts, repo, logger.Nop(), 18)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.RecheckApprovals(context.Background(), time.Hour))

	statusOf := func(id uuid.UUID) domain.AllowanceStatus {
		rec, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		return rec.ApprovalStatus
	}
	require.Equal(t, domain.AllowanceConfirmed, statusOf(minedID))
	require.Equal(t, domain.AllowanceConfirmed, statusOf(lateID))
	require.Equal(t, domain.AllowanceAwaitingConfirmation, statusOf(pendingID))
	require.Equal(t, domain.AllowanceTimedOut, statusOf(staleID))
	require.Equal(t, domain.AllowanceTimedOut, statusOf(abandonedID))
	require.Zero(t, receipts.calls[abandoned])
}

type fakeRechecker struct {
	calls int
	err   error
}

func (f *fakeRechecker) RecheckApprovals(context.Context, time.Duration) error {
	f.calls++
	return f.err
}

type fakeLock struct {
	held     bool
	err      error
	released int
}

func (l *fakeLock) CreateCron(context.Context, uuid.UUID) error {
	if l.held {
		return cronDomain.ErrLockHeld
	}
	if l.err != nil {
		return l.err
	}
	l.held = true
	return nil
}

func (l *fakeLock) DeleteCron(context.Context, uuid.UUID) error {
	l.held = false
	l.released++
	return nil
}

func TestHandleRecheckApprovals_Lock(t *testing.T) {
	r := &fakeRechecker{err: errors.New("db down")}
	lock := &fakeLock{}

	handleRecheckApprovals(context.Background(), r, lock, time.Hour, logger.Nop())
	require.Equal(t, 1, r.calls)
	require.Equal(t, 1, lock.released)

	lock.held = true
	handleRecheckApprovals(context.Background(), r, lock, time.Hour, logger.Nop())
	require.Equal(t, 1, r.calls)
}

func TestHandleRecheckApprovals_LockErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.NewWithWriter("prod", "info", &buf)
	r := &fakeRechecker{}

	handleRecheckApprovals(context.Background(), r, &fakeLock{held: true}, time.Hour, logg)
	require.Empty(t, buf.String())

	handleRecheckApprovals(context.Background(), r, &fakeLock{err: errors.New("connection refused")}, time.Hour, logg)
	require.Zero(t, r.calls)
	require.Contains(t, buf.String(), `"level":"error"`)
	require.Contains(t, buf.String(), "connection refused")
}
