package loancalc

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is matched by every input rejection of this package.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError names the offending input.
type ArgumentError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s=%v %s", e.Field, e.Value, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func validateRequest(req LoanRequest) error {
	switch {
	case !isFinite(req.Principal):
		return &ArgumentError{Field: "Principal", Value: req.Principal, Reason: "must be finite"}
	case req.Principal <= 0:
		return &ArgumentError{Field: "Principal", Value: req.Principal, Reason: "must be greater than zero"}
	case !isFinite(req.AnnualRatePercent):
		return &ArgumentError{Field: "AnnualRatePercent", Value: req.AnnualRatePercent, Reason: "must be finite"}
	case req.AnnualRatePercent < 0:
		return &ArgumentError{Field: "AnnualRatePercent", Value: req.AnnualRatePercent, Reason: "must not be negative"}
	case req.TermMonths <= 0:
		return &ArgumentError{Field: "TermMonths", Value: float64(req.TermMonths), Reason: "must be greater than zero"}
	}
	return nil
}

func validateFinancials(fin ApplicantFinancials) error {
	switch {
	case !isFinite(fin.MonthlyIncome):
		return &ArgumentError{Field: "MonthlyIncome", Value: fin.MonthlyIncome, Reason: "must be finite"}
	case fin.MonthlyIncome < 0:
		return &ArgumentError{Field: "MonthlyIncome", Value: fin.MonthlyIncome, Reason: "must not be negative"}
	case !isFinite(fin.MonthlyExpenses):
		return &ArgumentError{Field: "MonthlyExpenses", Value: fin.MonthlyExpenses, Reason: "must be finite"}
	case fin.MonthlyExpenses < 0:
		return &ArgumentError{Field: "MonthlyExpenses", Value: fin.MonthlyExpenses, Reason: "must not be negative"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
