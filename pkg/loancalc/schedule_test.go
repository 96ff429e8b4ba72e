package loancalc_test

import (
	"testing"

	"github.com/fazamuttaqien/lendora/pkg/loancalc"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_SumsToPrincipal(t *testing.T) {
	tests := []struct {
		name string
		req  loancalc.LoanRequest
	}{
		{"Twelve months at twelve percent", loancalc.LoanRequest{Principal: 100000, AnnualRatePercent: 12, TermMonths: 12}},
		{"Thirty six months at eighteen percent", loancalc.LoanRequest{Principal: 250000, AnnualRatePercent: 18, TermMonths: 36}},
		{"Interest free", loancalc.LoanRequest{Principal: 1000, AnnualRatePercent: 0, TermMonths: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := loancalc.New(loancalc.DefaultPolicy()).Schedule(tt.req)
			require.NoError(t, err)
			require.Len(t, rows, tt.req.TermMonths)

			paid := decimal.Zero
			for i, row := range rows {
				assert.Equal(t, i+1, row.Month)
				assert.True(t, row.Payment.Equal(row.Principal.Add(row.Interest)))
				assert.False(t, row.Balance.IsNegative())
				paid = paid.Add(row.Principal)
			}

			assert.True(t, paid.Equal(decimal.NewFromFloat(tt.req.Principal)), "principal repaid %s", paid)
			assert.True(t, rows[len(rows)-1].Balance.IsZero())
		})
	}
}

func TestSchedule_FirstRowSplitsEMI(t *testing.T) {
	rows, err := loancalc.New(loancalc.DefaultPolicy()).Schedule(
		loancalc.LoanRequest{Principal: 100000, AnnualRatePercent: 12, TermMonths: 12},
	)
	require.NoError(t, err)

	first := rows[0]
	assert.Equal(t, "1000", first.Interest.String())
	assert.Equal(t, "7885", first.Principal.String())
	assert.Equal(t, "8885", first.Payment.String())
	assert.Equal(t, "92115", first.Balance.String())
}

func TestSchedule_ValidatesInPermissiveMode(t *testing.T) {
	policy := loancalc.DefaultPolicy()
	policy.Mode = loancalc.ModePermissive

	_, err := loancalc.New(policy).Schedule(loancalc.LoanRequest{Principal: 1000, AnnualRatePercent: 5, TermMonths: 0})
	assert.ErrorIs(t, err, loancalc.ErrInvalidArgument)
}
