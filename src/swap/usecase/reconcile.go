package usecase

import (
	"fmt"
	"math/big"

	"github.com/MMN3003/megaswap/src/amount"
	"github.com/MMN3003/megaswap/src/swap/domain"
)

// Correction reasons
const (
	CorrectionNone     = ""
	CorrectionMissing  = "missing"
	CorrectionZero     = "zero"
	CorrectionMismatch = "mismatch"
)

// ValueCorrection describes what ReconcileValue did to transaction.value.
type ValueCorrection struct {
	Reason     string
	Original   *big.Int
	Reconciled *big.Int
}

func (c ValueCorrection) Applied() bool { return c.Reason != CorrectionNone }

// ReconcileValue enforces the value rule on a quote:
//   - native input: value == ToMinimalUnits(FromAmount, nativeDecimals), whatever the aggregator sent
//   - token input: value == 0, a non-zero aggregator value is ErrUnexpectedNativeValue
//
// The input quote is left untouched; a corrected copy is returned.
func ReconcileValue(q *domain.Quote, from domain.Token, nativeDecimals int) (*domain.Quote, ValueCorrection, error) {
	if q == nil {
		return nil, ValueCorrection{}, fmt.Errorf("%w: nil quote", domain.ErrMalformedQuote)
	}
	if from.Address != q.FromToken {
		return nil, ValueCorrection{}, fmt.Errorf("%w: quote is for %s, token given is %s",
			domain.ErrMalformedQuote, q.FromToken.Hex(), from.Address.Hex())
	}

	original := q.Transaction.Value
	out := q.Clone()

	if !from.IsNative() {
		if original != nil && original.Sign() != 0 {
			return nil, ValueCorrection{}, fmt.Errorf("%w: aggregator sent value %s for token %s",
				domain.ErrUnexpectedNativeValue, original, from.Address.Hex())
		}
		out.Transaction.Value = new(big.Int)
		return out, ValueCorrection{Original: original, Reconciled: out.Transaction.Value}, nil
	}

	expected, err := minimalUnits(q.FromAmount, nativeDecimals)
	if err != nil {
		return nil, ValueCorrection{}, fmt.Errorf("native value of %q: %w", q.FromAmount, err)
	}

	corr := ValueCorrection{Original: original, Reconciled: expected}
	switch {
	case original == nil:
		corr.Reason = CorrectionMissing
	case original.Sign() == 0 && expected.Sign() != 0:
		corr.Reason = CorrectionZero
	case original.Cmp(expected) != 0:
		corr.Reason = CorrectionMismatch
	}
	out.Transaction.Value = new(big.Int).Set(expected)
	return out, corr, nil
}

// minimalUnits is amount.ToMinimalUnits that also rejects a positive amount
// whose precision is finer than decimals, since it would truncate to zero.
func minimalUnits(human string, decimals int) (*big.Int, error) {
	v, err := amount.ToMinimalUnits(human, decimals)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		zero, err := amount.IsZero(human)
		if err != nil {
			return nil, err
		}
		if !zero {
			return nil, fmt.Errorf("%w: %s is below the smallest unit at %d decimals", domain.ErrInvalidAmount, human, decimals)
		}
	}
	return v, nil
}
