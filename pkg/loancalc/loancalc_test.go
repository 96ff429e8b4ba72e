package loancalc_test

import (
	"math"
	"testing"

	"github.com/fazamuttaqien/lendora/pkg/loancalc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMI(t *testing.T) {
	tests := []struct {
		name     string
		req      loancalc.LoanRequest
		expected float64
	}{
		{
			name:     "One year at twelve percent",
			req:      loancalc.LoanRequest{Principal: 100000, AnnualRatePercent: 12, TermMonths: 12},
			expected: 8885,
		},
		{
			name:     "Small loan at twelve percent",
			req:      loancalc.LoanRequest{Principal: 50000, AnnualRatePercent: 12, TermMonths: 12},
			expected: 4442,
		},
		{
			name:     "Large loan at twelve percent",
			req:      loancalc.LoanRequest{Principal: 200000, AnnualRatePercent: 12, TermMonths: 12},
			expected: 17770,
		},
		{
			name:     "Zero interest divides evenly",
			req:      loancalc.LoanRequest{Principal: 12000, AnnualRatePercent: 0, TermMonths: 12},
			expected: 1000,
		},
		{
			name:     "Zero interest rounds half up",
			req:      loancalc.LoanRequest{Principal: 5, AnnualRatePercent: 0, TermMonths: 2},
			expected: 3,
		},
		{
			name:     "Single month repays principal plus one month of interest",
			req:      loancalc.LoanRequest{Principal: 10000, AnnualRatePercent: 12, TermMonths: 1},
			expected: 10100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emi, err := loancalc.EMI(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, emi)
		})
	}
}

func TestEMI_StrictRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		req   loancalc.LoanRequest
		field string
	}{
		{"Zero term", loancalc.LoanRequest{Principal: 1000, AnnualRatePercent: 12, TermMonths: 0}, "TermMonths"},
		{"Negative term", loancalc.LoanRequest{Principal: 1000, AnnualRatePercent: 12, TermMonths: -6}, "TermMonths"},
		{"Zero principal", loancalc.LoanRequest{Principal: 0, AnnualRatePercent: 12, TermMonths: 12}, "Principal"},
		{"Negative principal", loancalc.LoanRequest{Principal: -1, AnnualRatePercent: 12, TermMonths: 12}, "Principal"},
		{"Negative rate", loancalc.LoanRequest{Principal: 1000, AnnualRatePercent: -1, TermMonths: 12}, "AnnualRatePercent"},
		{"NaN principal", loancalc.LoanRequest{Principal: math.NaN(), AnnualRatePercent: 12, TermMonths: 12}, "Principal"},
		{"Infinite rate", loancalc.LoanRequest{Principal: 1000, AnnualRatePercent: math.Inf(1), TermMonths: 12}, "AnnualRatePercent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loancalc.EMI(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, loancalc.ErrInvalidArgument)

			var argErr *loancalc.ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.field, argErr.Field)
		})
	}
}

func TestEMI_PermissivePropagatesIEEEResults(t *testing.T) {
	policy := loancalc.DefaultPolicy()
	policy.Mode = loancalc.ModePermissive
	calc := loancalc.New(policy)

	emi, err := calc.EMI(loancalc.LoanRequest{Principal: 1000, AnnualRatePercent: 0, TermMonths: 0})
	require.NoError(t, err)
	assert.True(t, math.IsInf(emi, 1))

	emi, err = calc.EMI(loancalc.LoanRequest{Principal: 0, AnnualRatePercent: 0, TermMonths: 0})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(emi))

	emi, err = calc.EMI(loancalc.LoanRequest{Principal: -12000, AnnualRatePercent: 0, TermMonths: 12})
	require.NoError(t, err)
	assert.Equal(t, float64(-1000), emi)
}

func TestEMI_Properties(t *testing.T) {
	principals := []float64{1000, 25000, 100000, 750000}
	rates := []float64{0, 0.5, 6, 12, 18, 36}
	terms := []int{1, 6, 12, 18, 24, 36, 60}

	for _, p := range principals {
		for _, n := range terms {
			prev := math.Inf(-1)
			for _, rate := range rates {
				emi, err := loancalc.EMI(loancalc.LoanRequest{Principal: p, AnnualRatePercent: rate, TermMonths: n})
				require.NoError(t, err)

				if rate == 0 {
					assert.Equal(t, loancalc.Round(p/float64(n)), emi)
					assert.InDelta(t, p, emi*float64(n), 0.5*float64(n))
				} else {
					assert.GreaterOrEqual(t, emi*float64(n), p-0.5*float64(n))
				}

				assert.GreaterOrEqual(t, emi, prev, "EMI must not decrease as the rate rises")
				prev = emi
			}
		}
	}

	for _, p := range principals {
		for _, rate := range rates[1:] {
			prev := math.Inf(1)
			for _, n := range terms {
				emi, err := loancalc.EMI(loancalc.LoanRequest{Principal: p, AnnualRatePercent: rate, TermMonths: n})
				require.NoError(t, err)
				assert.LessOrEqual(t, emi, prev, "EMI must not increase as the term grows")
				prev = emi
			}
		}
	}
}

func TestEMI_Idempotent(t *testing.T) {
	req := loancalc.LoanRequest{Principal: 123456.78, AnnualRatePercent: 13.7, TermMonths: 27}

	first, err := loancalc.EMI(req)
	require.NoError(t, err)

	for range 100 {
		again, err := loancalc.EMI(req)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(first), math.Float64bits(again))
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, float64(3), loancalc.Round(2.5))
	assert.Equal(t, float64(2), loancalc.Round(2.49))
	assert.Equal(t, float64(-2), loancalc.Round(-2.5))
	assert.Equal(t, float64(-3), loancalc.Round(-2.51))
}

func TestQuote(t *testing.T) {
	quote, err := loancalc.New(loancalc.DefaultPolicy()).Quote(
		loancalc.LoanRequest{Principal: 100000, AnnualRatePercent: 12, TermMonths: 12},
	)
	require.NoError(t, err)

	assert.Equal(t, float64(8885), quote.EMI)
	assert.Equal(t, float64(106620), quote.TotalPayment)
	assert.Equal(t, float64(6620), quote.TotalInterest)
}

func TestParseMode(t *testing.T) {
	mode, err := loancalc.ParseMode("Permissive")
	require.NoError(t, err)
	assert.Equal(t, loancalc.ModePermissive, mode)

	mode, err = loancalc.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, loancalc.ModeStrict, mode)

	_, err = loancalc.ParseMode("lenient")
	assert.Error(t, err)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, loancalc.DefaultPolicy().Validate())

	bad := loancalc.DefaultPolicy()
	bad.AffordabilityRatio = 0
	assert.ErrorIs(t, bad.Validate(), loancalc.ErrInvalidArgument)

	bad = loancalc.DefaultPolicy()
	bad.MaxLoanHaircut = 1.5
	assert.ErrorIs(t, bad.Validate(), loancalc.ErrInvalidArgument)
}
