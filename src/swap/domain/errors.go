package domain

import (
	"errors"
	"fmt"

	"github.com/MMN3003/megaswap/src/amount"
)

// Errors
var (
	ErrInvalidAmount            = amount.ErrInvalidAmount
	ErrInvalidQuoteRequest      = errors.New("invalid quote request")
	ErrQuoteUnavailable         = errors.New("quote unavailable")
	ErrIncompleteQuote          = errors.New("incomplete quote")
	ErrInvalidQuoteResponse     = errors.New("invalid quote response")
	ErrMalformedQuote           = errors.New("malformed quote")
	ErrUnexpectedNativeValue    = errors.New("unexpected native value for token swap")
	ErrApprovalSubmissionFailed = errors.New("approval submission failed")
	ErrApprovalFailed           = errors.New("approval transaction reverted")
	ErrConfirmationTimeout      = errors.New("confirmation timeout")
	ErrReceiptNotFound          = errors.New("receipt not found")
	ErrRecordNotFound           = errors.New("swap record not found")
)

// IncompleteQuoteError means the aggregator answered but could not produce
// executable calldata for the requested trade.
type IncompleteQuoteError struct {
	SenderProvided bool
	Reason         string
}

func (e *IncompleteQuoteError) Error() string {
	if !e.SenderProvided {
		return fmt.Sprintf("%s: %s (no sender supplied, aggregator returned a pricing-only quote)", ErrIncompleteQuote, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrIncompleteQuote, e.Reason)
}

func (e *IncompleteQuoteError) Unwrap() error { return ErrIncompleteQuote }

// Retryable reports whether the same call may succeed later without changing
// its parameters.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrQuoteUnavailable),
		errors.Is(err, ErrConfirmationTimeout),
		errors.Is(err, ErrApprovalSubmissionFailed):
		return true
	}
	return false
}
