package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{domain.ErrInvalidQuoteRequest, http.StatusBadRequest, "INVALID_QUOTE_REQUEST"},
	{domain.ErrQuoteUnavailable, http.StatusServiceUnavailable, "QUOTE_UNAVAILABLE"},
	{domain.ErrIncompleteQuote, http.StatusUnprocessableEntity, "INCOMPLETE_QUOTE"},
	{domain.ErrInvalidQuoteResponse, http.StatusBadGateway, "INVALID_QUOTE_RESPONSE"},
	{domain.ErrUnexpectedNativeValue, http.StatusBadGateway, "UNEXPECTED_NATIVE_VALUE"},
	{domain.ErrMalformedQuote, http.StatusInternalServerError, "MALFORMED_QUOTE"},
	{domain.ErrApprovalSubmissionFailed, http.StatusBadGateway, "APPROVAL_SUBMISSION_FAILED"},
	{domain.ErrApprovalFailed, http.StatusConflict, "APPROVAL_FAILED"},
	{domain.ErrConfirmationTimeout, http.StatusGatewayTimeout, "CONFIRMATION_TIMEOUT"},
	{domain.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "DEADLINE_EXCEEDED"},
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// writeError maps a domain error onto a status and error body. Server-side
// failures are logged at error level, caller mistakes at warn.
func writeError(c *gin.Context, log *logger.Logger, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s err: %v", op, err)
	} else {
		log.Warnf("%s err: %v", op, err)
	}

	msg := err.Error()
	if code == "INTERNAL" {
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     msg,
		Code:      code,
		Retryable: domain.Retryable(err),
	})
}
