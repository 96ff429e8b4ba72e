package loancalc

import (
	"github.com/shopspring/decimal"
)

// Installment is one row of an amortization schedule.
type Installment struct {
	Month     int
	Payment   decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Balance   decimal.Decimal
}

// Schedule splits every EMI of req into interest and principal.
//
// Interest is charged on the outstanding balance and rounded to cents. The
// last installment settles whatever balance the rounded EMI left over, so the
// principal column always sums to req.Principal. Inputs are validated even in
// permissive mode since an unbounded schedule cannot be built.
func (c Calculator) Schedule(req LoanRequest) ([]Installment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	emiValue, err := New(Policy{
		AffordabilityRatio: c.policy.AffordabilityRatio,
		MaxLoanHaircut:     c.policy.MaxLoanHaircut,
		Mode:               ModeStrict,
	}).EMI(req)
	if err != nil {
		return nil, err
	}

	emi := decimal.NewFromFloat(emiValue)
	rate := decimal.NewFromFloat(req.AnnualRatePercent).Div(decimal.NewFromInt(percentageMultiplier * monthsPerYear))
	balance := decimal.NewFromFloat(req.Principal)

	rows := make([]Installment, 0, req.TermMonths)
	for month := 1; month <= req.TermMonths; month++ {
		interest := balance.Mul(rate).Round(2)
		principal := emi.Sub(interest)
		if month == req.TermMonths || principal.GreaterThan(balance) {
			principal = balance
		}
		if principal.IsNegative() {
			principal = decimal.Zero
		}

		balance = balance.Sub(principal)
		rows = append(rows, Installment{
			Month:     month,
			Payment:   principal.Add(interest),
			Principal: principal,
			Interest:  interest,
			Balance:   balance,
		})
	}

	return rows, nil
}
