package usecase

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MMN3003/megaswap/src/swap/domain"
)

func TestBuildTransaction(t *testing.T) {
	q := quoteFor(mon, "0.05", nil)
	rq, _, err := ReconcileValue(q, mon, 18)
	require.NoError(t, err)

	tx, err := BuildTransaction(rq)
	require.NoError(t, err)
	require.Equal(t, router, tx.To)
	require.Equal(t, rq.Transaction.Data, tx.Data)
	require.Equal(t, "50000000000000000", tx.Value.String())
	require.Equal(t, uint64(200000), tx.GasLimit)

	tx.Value.SetInt64(1)
	require.Equal(t, "50000000000000000", rq.Transaction.Value.String())
}

func TestBuildTransaction_Malformed(t *testing.T) {
	_, err := BuildTransaction(nil)
	require.ErrorIs(t, err, domain.ErrMalformedQuote)

	noValue := quoteFor(mon, "1", nil)
	_, err = BuildTransaction(noValue)
	require.ErrorIs(t, err, domain.ErrMalformedQuote)

	noData := quoteFor(mon, "1", big.NewInt(1))
	noData.Transaction.Data = nil
	_, err = BuildTransaction(noData)
	require.ErrorIs(t, err, domain.ErrMalformedQuote)

	noTarget := quoteFor(mon, "1", big.NewInt(1))
	noTarget.Transaction.To = domain.NativeAddress
	_, err = BuildTransaction(noTarget)
	require.ErrorIs(t, err, domain.ErrMalformedQuote)
}

func TestApplyGasMultiplier(t *testing.T) {
	require.Equal(t, uint64(240000), ApplyGasMultiplier(200000, 20))
	require.Equal(t, uint64(200000), ApplyGasMultiplier(200000, 0))
	require.Equal(t, uint64(0), ApplyGasMultiplier(0, 50))
}
