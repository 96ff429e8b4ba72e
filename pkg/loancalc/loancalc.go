// Package loancalc computes fixed monthly installments (EMI) for amortizing
// loans and decides whether an applicant can afford a requested loan.
//
// Everything in this package is pure: no I/O, no package-level mutable state.
// A Calculator is an immutable value and is safe for concurrent use.
package loancalc

import (
	"math"
)

const (
	percentageMultiplier = 100
	monthsPerYear        = 12
)

// LoanRequest describes the loan being priced.
type LoanRequest struct {
	Principal         float64
	AnnualRatePercent float64
	TermMonths        int
}

// ApplicantFinancials is the monthly cash flow of an applicant together with
// the outcome of identity verification.
type ApplicantFinancials struct {
	MonthlyIncome    float64
	MonthlyExpenses  float64
	IdentityVerified bool
}

// EligibilityResult is the outcome of Evaluate. Eligible == false is a
// business decision, not an error.
type EligibilityResult struct {
	Eligible      bool
	MaxLoanAmount float64
	SuggestedEMI  float64
	RequestedEMI  float64
}

// Quote summarises the cost of a loan at its EMI.
type Quote struct {
	EMI           float64
	TotalPayment  float64
	TotalInterest float64
}

// Calculator applies a Policy to loan requests.
type Calculator struct {
	policy Policy
}

// New returns a Calculator bound to policy.
func New(policy Policy) Calculator {
	return Calculator{policy: policy}
}

// Policy returns the policy the calculator was built with.
func (c Calculator) Policy() Policy {
	return c.policy
}

// EMI returns the equated monthly installment for req rounded to the nearest
// whole currency unit (halves round up).
//
// In strict mode a non-positive principal or term, a negative rate or any
// non-finite input yields an error matching ErrInvalidArgument. In permissive
// mode the formula is evaluated as is and may return ±Inf or NaN.
func (c Calculator) EMI(req LoanRequest) (float64, error) {
	if c.policy.Mode == ModeStrict {
		if err := validateRequest(req); err != nil {
			return 0, err
		}
	}

	return Round(monthlyPayment(req.Principal, req.AnnualRatePercent, req.TermMonths)), nil
}

// Evaluate decides whether the applicant can afford req.
//
// The requested EMI is always reported, whatever the outcome. MaxLoanAmount
// and SuggestedEMI only depend on the applicant's cash flow and the requested
// term, never on the requested principal.
func (c Calculator) Evaluate(fin ApplicantFinancials, req LoanRequest) (EligibilityResult, error) {
	if c.policy.Mode == ModeStrict {
		if err := validateFinancials(fin); err != nil {
			return EligibilityResult{}, err
		}
	}

	requestedEMI, err := c.EMI(req)
	if err != nil {
		return EligibilityResult{}, err
	}

	availableIncome := fin.MonthlyIncome - fin.MonthlyExpenses
	maxEMI := availableIncome * c.policy.AffordabilityRatio

	eligible := requestedEMI <= maxEMI && fin.IdentityVerified

	var maxLoanAmount float64
	if eligible {
		maxLoanAmount = Round(maxEMI * float64(req.TermMonths) * c.policy.MaxLoanHaircut)
	}

	return EligibilityResult{
		Eligible:      eligible,
		MaxLoanAmount: maxLoanAmount,
		SuggestedEMI:  Round(maxEMI),
		RequestedEMI:  requestedEMI,
	}, nil
}

// Quote returns the EMI of req together with the total amount repaid and the
// interest portion of it.
func (c Calculator) Quote(req LoanRequest) (Quote, error) {
	emi, err := c.EMI(req)
	if err != nil {
		return Quote{}, err
	}

	totalPayment := emi * float64(req.TermMonths)
	return Quote{
		EMI:           emi,
		TotalPayment:  totalPayment,
		TotalInterest: totalPayment - req.Principal,
	}, nil
}

// EMI computes the installment with DefaultPolicy.
func EMI(req LoanRequest) (float64, error) {
	return New(DefaultPolicy()).EMI(req)
}

// Evaluate runs the eligibility rule with DefaultPolicy.
func Evaluate(fin ApplicantFinancials, req LoanRequest) (EligibilityResult, error) {
	return New(DefaultPolicy()).Evaluate(fin, req)
}

// Round rounds x to the nearest integer, with halves going towards +Inf.
// -2.5 rounds to -2, unlike math.Round.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

func monthlyPayment(principal, annualRatePercent float64, termMonths int) float64 {
	r := annualRatePercent / percentageMultiplier / monthsPerYear
	if r == 0 {
		return principal / float64(termMonths)
	}

	growth := math.Pow(1+r, float64(termMonths))
	return principal * r * growth / (growth - 1)
}
