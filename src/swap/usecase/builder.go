package usecase

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MMN3003/megaswap/src/swap/domain"
)

// BuildTransaction assembles the executable swap transaction from a
// reconciled quote. Gas headroom is left to the caller, see ApplyGasMultiplier.
func BuildTransaction(q *domain.Quote) (*domain.ExecutableTransaction, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil quote", domain.ErrMalformedQuote)
	}
	if q.Transaction.To == (common.Address{}) {
		return nil, fmt.Errorf("%w: quote %s has no target", domain.ErrMalformedQuote, q.ID)
	}
	if len(q.Transaction.Data) == 0 {
		return nil, fmt.Errorf("%w: quote %s has no calldata", domain.ErrMalformedQuote, q.ID)
	}
	if q.Transaction.Value == nil {
		return nil, fmt.Errorf("%w: quote %s value not reconciled", domain.ErrMalformedQuote, q.ID)
	}

	return &domain.ExecutableTransaction{
		To:       q.Transaction.To,
		Data:     bytes.Clone(q.Transaction.Data),
		Value:    new(big.Int).Set(q.Transaction.Value),
		GasLimit: q.EstimatedGas,
	}, nil
}

// ApplyGasMultiplier adds percent% headroom to gas, rounding down.
func ApplyGasMultiplier(gas uint64, percent uint64) uint64 {
	return gas + gas*percent/100
}
