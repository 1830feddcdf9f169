package http

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/swap/domain"
	"github.com/MMN3003/megaswap/src/swap/usecase"
)

var (
	usdc   = common.HexToAddress("0xf817257fed379853cDe0fa4F97AB987181B1E5Ea")
	router = common.HexToAddress("0x4444444444444444444444444444444444444444")
	alice  = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type fakeService struct {
	quoteReq usecase.QuoteRequest
	quoteErr error
	plan     *usecase.SwapPlan
	state    *domain.AllowanceState
	status   domain.AllowanceStatus
	receipt  *domain.Receipt
	err      error
}

func (f *fakeService) Quote(_ context.Context, req usecase.QuoteRequest) (*usecase.QuoteResult, error) {
	f.quoteReq = req
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &usecase.QuoteResult{
		Quote:      sampleQuote(),
		FromToken:  domain.Token{Address: domain.NativeAddress, Decimals: 18, Symbol: "MON"},
		ToToken:    domain.Token{Address: usdc, Decimals: 6, Symbol: "USDC"},
		Correction: usecase.ValueCorrection{Reason: usecase.CorrectionZero},
	}, nil
}

func (f *fakeService) PrepareSwap(_ context.Context, req usecase.QuoteRequest) (*usecase.SwapPlan, error) {
	f.quoteReq = req
	return f.plan, f.err
}

func (f *fakeService) CheckAllowance(context.Context, common.Address, common.Address, common.Address, string) (*domain.AllowanceState, error) {
	return f.state, f.err
}

func (f *fakeService) RequestApproval(context.Context, common.Address, common.Address, common.Address, string) (*domain.AllowanceState, error) {
	return f.state, f.err
}

func (f *fakeService) ApprovalStatus(context.Context, common.Hash) (domain.AllowanceStatus, *domain.Receipt, error) {
	return f.status, f.receipt, f.err
}

func sampleQuote() *domain.Quote {
	return &domain.Quote{
		ID:           uuid.New(),
		FromToken:    domain.NativeAddress,
		ToToken:      usdc,
		FromAmount:   "0.05",
		ToAmount:     "1.2345",
		EstimatedGas: 210000,
		RouteCount:   1,
		Transaction: domain.QuoteTransaction{
			To:    router,
			Data:  []byte{0x5a, 0xe4, 0x01, 0xdc},
			Value: big.NewInt(50_000_000_000_000_000),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func newRouter(s SwapService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(s, logger.Nop()).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetQuote(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/swap/quote?from=0x0000000000000000000000000000000000000000&to="+usdc.Hex()+"&amount=0.05&max_slippage_bps=50", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out QuoteDto
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "50000000000000000", out.Transaction.Value)
	require.Equal(t, "0x5ae401dc", out.Transaction.Data)
	require.Equal(t, "zero", out.ValueCorrection)
	require.Equal(t, "1.2345", out.ToAmount.String())
	require.Equal(t, "MON", out.FromToken.Symbol)

	require.Nil(t, svc.quoteReq.Sender)
	require.NotNil(t, svc.quoteReq.MaxSlippageBps)
	require.Equal(t, uint32(50), *svc.quoteReq.MaxSlippageBps)
}

func TestGetQuote_BadAddress(t *testing.T) {
	r := newRouter(&fakeService{})

	w := do(r, http.MethodGet, "/swap/quote?from=nope&to="+usdc.Hex()+"&amount=1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "INVALID_QUOTE_REQUEST", decodeError(t, w).Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		code      string
		retryable bool
	}{
		{fmt.Errorf("%w: x", domain.ErrInvalidAmount), http.StatusBadRequest, "INVALID_AMOUNT", false},
		{fmt.Errorf("%w: 500", domain.ErrQuoteUnavailable), http.StatusServiceUnavailable, "QUOTE_UNAVAILABLE", true},
		{&domain.IncompleteQuoteError{Reason: "calldata empty"}, http.StatusUnprocessableEntity, "INCOMPLETE_QUOTE", false},
		{fmt.Errorf("%w: gas", domain.ErrInvalidQuoteResponse), http.StatusBadGateway, "INVALID_QUOTE_RESPONSE", false},
		{domain.ErrUnexpectedNativeValue, http.StatusBadGateway, "UNEXPECTED_NATIVE_VALUE", false},
		{domain.ErrMalformedQuote, http.StatusInternalServerError, "MALFORMED_QUOTE", false},
		{domain.ErrConfirmationTimeout, http.StatusGatewayTimeout, "CONFIRMATION_TIMEOUT", true},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL", false},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			r := newRouter(&fakeService{quoteErr: tc.err})
			w := do(r, http.MethodGet, "/swap/quote?from="+alice.Hex()+"&to="+usdc.Hex()+"&amount=1", "")
			require.Equal(t, tc.status, w.Code)
			out := decodeError(t, w)
			require.Equal(t, tc.code, out.Code)
			require.Equal(t, tc.retryable, out.Retryable)
			require.NotEmpty(t, out.Error)
		})
	}
}

func TestPrepareSwap(t *testing.T) {
	q := sampleQuote()
	svc := &fakeService{plan: &usecase.SwapPlan{
		RecordID:  uuid.New(),
		Quote:     q,
		FromToken: domain.Token{Address: domain.NativeAddress, Decimals: 18, Symbol: "MON"},
		ToToken:   domain.Token{Address: usdc, Decimals: 6, Symbol: "USDC"},
		Transaction: &domain.ExecutableTransaction{
			To:       q.Transaction.To,
			Data:     q.Transaction.Data,
			Value:    q.Transaction.Value,
			GasLimit: q.EstimatedGas,
		},
	}}
	r := newRouter(svc)

	body := `{"from_token":"0x0000000000000000000000000000000000000000","to_token":"` + usdc.Hex() +
		`","amount":"0.05","sender":"` + alice.Hex() + `"}`
	w := do(r, http.MethodPost, "/swap/prepare", body)
	require.Equal(t, http.StatusOK, w.Code)

	var out PrepareSwapResponseBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, router.Hex(), out.Transaction.To)
	require.Equal(t, uint64(210000), out.Transaction.GasLimit)
	require.Nil(t, out.Allowance)
	require.NotNil(t, svc.quoteReq.Sender)
	require.Equal(t, alice, *svc.quoteReq.Sender)
}

func TestPrepareSwap_MissingSender(t *testing.T) {
	r := newRouter(&fakeService{})

	w := do(r, http.MethodPost, "/swap/prepare", `{"from_token":"`+usdc.Hex()+`","to_token":"`+alice.Hex()+`","amount":"1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestApproval_StatusCodes(t *testing.T) {
	hash := common.HexToHash("0xabc")
	body := `{"owner":"` + alice.Hex() + `","spender":"` + router.Hex() + `","token":"` + usdc.Hex() + `","amount":"100"}`

	pending := &fakeService{state: &domain.AllowanceState{
		Owner: alice, Spender: router, Token: usdc,
		CurrentAllowance: big.NewInt(40), RequiredAmount: big.NewInt(100),
		Status: domain.AllowanceAwaitingConfirmation, ApprovalTx: &hash,
	}}
	w := do(newRouter(pending), http.MethodPost, "/swap/approvals", body)
	require.Equal(t, http.StatusAccepted, w.Code)
	var out AllowanceDto
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, hash.Hex(), out.ApprovalTx)

	enough := &fakeService{state: &domain.AllowanceState{
		Owner: alice, Spender: router, Token: usdc,
		CurrentAllowance: big.NewInt(150), RequiredAmount: big.NewInt(100),
		Status: domain.AllowanceSufficient,
	}}
	w = do(newRouter(enough), http.MethodPost, "/swap/approvals", body)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetAllowance(t *testing.T) {
	svc := &fakeService{state: &domain.AllowanceState{
		Owner: alice, Spender: router, Token: usdc,
		CurrentAllowance: big.NewInt(40), RequiredAmount: big.NewInt(100),
		Status: domain.AllowanceInsufficient,
	}}
	w := do(newRouter(svc), http.MethodGet,
		"/swap/allowance?owner="+alice.Hex()+"&spender="+router.Hex()+"&token="+usdc.Hex()+"&amount=0.0001", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out AllowanceDto
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "INSUFFICIENT_NEEDS_APPROVAL", out.Status)
	require.Equal(t, "40", out.CurrentAllowance)
}

func TestGetApprovalStatus(t *testing.T) {
	hash := common.HexToHash("0xabc")
	svc := &fakeService{
		status:  domain.AllowanceConfirmed,
		receipt: &domain.Receipt{TxHash: hash, Status: 1, BlockNumber: big.NewInt(7), GasUsed: 46000},
	}
	w := do(newRouter(svc), http.MethodGet, "/swap/approvals/"+hash.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)

	var out ApprovalStatusDto
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "CONFIRMED", out.Status)
	require.Equal(t, "7", out.BlockNumber)

	w = do(newRouter(svc), http.MethodGet, "/swap/approvals/0x1234", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
