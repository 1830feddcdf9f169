package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/swap/domain"
	"github.com/MMN3003/megaswap/src/swap/usecase"
)

// SwapService is what the handlers need from usecase.Service.
type SwapService interface {
	Quote(ctx context.Context, req usecase.QuoteRequest) (*usecase.QuoteResult, error)
	PrepareSwap(ctx context.Context, req usecase.QuoteRequest) (*usecase.SwapPlan, error)
	CheckAllowance(ctx context.Context, owner, spender, token common.Address, humanAmount string) (*domain.AllowanceState, error)
	RequestApproval(ctx context.Context, owner, spender, token common.Address, humanAmount string) (*domain.AllowanceState, error)
	ApprovalStatus(ctx context.Context, hash common.Hash) (domain.AllowanceStatus, *domain.Receipt, error)
}

var _ SwapService = (*usecase.Service)(nil)

// Handler binds usecase + logger
type Handler struct {
	service SwapService
	logger  *logger.Logger
}

func NewHandler(s SwapService, l *logger.Logger) *Handler {
	return &Handler{service: s, logger: l}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/swap")
	g.GET("/quote", h.GetQuote)
	g.POST("/prepare", h.PrepareSwap)
	g.GET("/allowance", h.GetAllowance)
	g.POST("/approvals", h.RequestApproval)
	g.GET("/approvals/:hash", h.GetApprovalStatus)
}

// GetQuote godoc
//
//	@Summary		Get a swap quote
//	@Description	Fetch an aggregator quote and reconcile its native value. No allowance is touched.
//	@Tags			swap
//	@Produce		json
//	@Param			from				query		string	true	"Input token address (zero address for the native asset)"
//	@Param			to					query		string	true	"Output token address"
//	@Param			amount				query		string	true	"Human-readable input amount"
//	@Param			sender				query		string	false	"Sender address, required for executable calldata"
//	@Param			max_slippage_bps	query		int		false	"Maximum slippage in basis points"
//	@Param			deadline			query		int		false	"Deadline in seconds"
//	@Param			destination			query		string	false	"Recipient of the output tokens"
//	@Success		200					{object}	QuoteDto
//	@Failure		400					{object}	ErrorResponse
//	@Failure		422					{object}	ErrorResponse
//	@Failure		502					{object}	ErrorResponse
//	@Failure		503					{object}	ErrorResponse
//	@Router			/swap/quote [get]
func (h *Handler) GetQuote(c *gin.Context) {
	req, err := quoteRequestFromQuery(c)
	if err != nil {
		writeError(c, h.logger, "GetQuote", err)
		return
	}

	res, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "GetQuote", err)
		return
	}
	c.JSON(http.StatusOK, QuoteDtoFromResult(res))
}

// PrepareSwap godoc
//
//	@Summary		Prepare a swap
//	@Description	Quote, reconcile, approve the router if needed (blocking until confirmed) and return the transaction to submit.
//	@Tags			swap
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PrepareSwapRequestBody	true	"Request body"
//	@Success		200		{object}	PrepareSwapResponseBody
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Failure		504		{object}	ErrorResponse
//	@Router			/swap/prepare [post]
func (h *Handler) PrepareSwap(c *gin.Context) {
	var body PrepareSwapRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, h.logger, "PrepareSwap", fmt.Errorf("%w: %v", domain.ErrInvalidQuoteRequest, err))
		return
	}
	req, err := body.toQuoteRequest()
	if err != nil {
		writeError(c, h.logger, "PrepareSwap", err)
		return
	}

	plan, err := h.service.PrepareSwap(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "PrepareSwap", err)
		return
	}
	c.JSON(http.StatusOK, PrepareSwapResponseFromPlan(plan))
}

// GetAllowance godoc
//
//	@Summary		Check an ERC20 allowance
//	@Description	Read the current allowance and classify it against the required amount.
//	@Tags			allowance
//	@Produce		json
//	@Param			owner	query		string	true	"Token owner"
//	@Param			spender	query		string	true	"Spender (router) address"
//	@Param			token	query		string	true	"ERC20 token address"
//	@Param			amount	query		string	true	"Human-readable required amount"
//	@Success		200		{object}	AllowanceDto
//	@Failure		400		{object}	ErrorResponse
//	@Router			/swap/allowance [get]
func (h *Handler) GetAllowance(c *gin.Context) {
	owner, spender, token, err := allowanceTriple(c.Query("owner"), c.Query("spender"), c.Query("token"))
	if err != nil {
		writeError(c, h.logger, "GetAllowance", err)
		return
	}

	state, err := h.service.CheckAllowance(c.Request.Context(), owner, spender, token, c.Query("amount"))
	if err != nil {
		writeError(c, h.logger, "GetAllowance", err)
		return
	}
	c.JSON(http.StatusOK, AllowanceDtoFromDomain(state))
}

// RequestApproval godoc
//
//	@Summary		Request an exact approval
//	@Description	Submit approve(spender, amount) only if the fresh allowance is short. Returns without waiting for the receipt.
//	@Tags			allowance
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RequestApprovalBody	true	"Request body"
//	@Success		200		{object}	AllowanceDto	"allowance already sufficient"
//	@Success		202		{object}	AllowanceDto	"approval submitted"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/swap/approvals [post]
func (h *Handler) RequestApproval(c *gin.Context) {
	var body RequestApprovalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, h.logger, "RequestApproval", fmt.Errorf("%w: %v", domain.ErrInvalidQuoteRequest, err))
		return
	}
	owner, spender, token, err := allowanceTriple(body.Owner, body.Spender, body.Token)
	if err != nil {
		writeError(c, h.logger, "RequestApproval", err)
		return
	}

	state, err := h.service.RequestApproval(c.Request.Context(), owner, spender, token, body.Amount)
	if err != nil {
		writeError(c, h.logger, "RequestApproval", err)
		return
	}

	status := http.StatusOK
	if state.Status == domain.AllowanceAwaitingConfirmation {
		status = http.StatusAccepted
	}
	c.JSON(status, AllowanceDtoFromDomain(state))
}

// GetApprovalStatus godoc
//
//	@Summary		Probe an approval receipt
//	@Description	Look up the receipt of an approval transaction once.
//	@Tags			allowance
//	@Produce		json
//	@Param			hash	path		string	true	"Approval transaction hash"
//	@Success		200		{object}	ApprovalStatusDto
//	@Failure		400		{object}	ErrorResponse
//	@Router			/swap/approvals/{hash} [get]
func (h *Handler) GetApprovalStatus(c *gin.Context) {
	raw, err := hexutil.Decode(c.Param("hash"))
	if err != nil || len(raw) != common.HashLength {
		writeError(c, h.logger, "GetApprovalStatus", fmt.Errorf("%w: %q is not a transaction hash", domain.ErrInvalidQuoteRequest, c.Param("hash")))
		return
	}
	hash := common.BytesToHash(raw)

	status, receipt, err := h.service.ApprovalStatus(c.Request.Context(), hash)
	if err != nil {
		writeError(c, h.logger, "GetApprovalStatus", err)
		return
	}
	c.JSON(http.StatusOK, ApprovalStatusDtoFromDomain(hash, status, receipt))
}

func quoteRequestFromQuery(c *gin.Context) (usecase.QuoteRequest, error) {
	body := PrepareSwapRequestBody{
		FromToken:   c.Query("from"),
		ToToken:     c.Query("to"),
		Amount:      c.Query("amount"),
		Sender:      c.Query("sender"),
		Destination: c.Query("destination"),
	}
	if s := c.Query("max_slippage_bps"); s != "" {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return usecase.QuoteRequest{}, fmt.Errorf("%w: max_slippage_bps %q", domain.ErrInvalidQuoteRequest, s)
		}
		bps := uint32(v)
		body.MaxSlippageBps = &bps
	}
	if s := c.Query("deadline"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return usecase.QuoteRequest{}, fmt.Errorf("%w: deadline %q", domain.ErrInvalidQuoteRequest, s)
		}
		body.DeadlineSeconds = &v
	}
	return body.toQuoteRequest()
}

func allowanceTriple(owner, spender, token string) (common.Address, common.Address, common.Address, error) {
	o, err := parseAddress("owner", owner)
	if err != nil {
		return common.Address{}, common.Address{}, common.Address{}, err
	}
	s, err := parseAddress("spender", spender)
	if err != nil {
		return common.Address{}, common.Address{}, common.Address{}, err
	}
	t, err := parseAddress("token", token)
	if err != nil {
		return common.Address{}, common.Address{}, common.Address{}, err
	}
	return o, s, t, nil
}
