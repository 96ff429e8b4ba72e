package loancalc

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects how inputs are checked.
type Mode int

const (
	// ModeStrict rejects out-of-domain inputs with ErrInvalidArgument.
	ModeStrict Mode = iota
	// ModePermissive evaluates every input and lets IEEE-754 results through.
	ModePermissive
)

const (
	DefaultAffordabilityRatio = 0.4
	DefaultMaxLoanHaircut     = 0.8
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModePermissive:
		return "permissive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "strict" or "permissive" (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ModeStrict, nil
	case "permissive":
		return ModePermissive, nil
	default:
		return ModeStrict, fmt.Errorf("unknown validation mode %q", s)
	}
}

// Policy holds the lending constants of the eligibility rule.
//
// AffordabilityRatio is the share of free monthly income that may go to the
// installment. MaxLoanHaircut discounts the total affordable repayment when
// computing the largest loan to offer.
type Policy struct {
	AffordabilityRatio float64
	MaxLoanHaircut     float64
	Mode               Mode
}

// DefaultPolicy returns the 40% affordability / 80% haircut policy in strict mode.
func DefaultPolicy() Policy {
	return Policy{
		AffordabilityRatio: DefaultAffordabilityRatio,
		MaxLoanHaircut:     DefaultMaxLoanHaircut,
		Mode:               ModeStrict,
	}
}

// Validate checks that both ratios lie in (0, 1].
func (p Policy) Validate() error {
	if !inUnitInterval(p.AffordabilityRatio) {
		return &ArgumentError{Field: "AffordabilityRatio", Value: p.AffordabilityRatio, Reason: "must be in (0, 1]"}
	}
	if !inUnitInterval(p.MaxLoanHaircut) {
		return &ArgumentError{Field: "MaxLoanHaircut", Value: p.MaxLoanHaircut, Reason: "must be in (0, 1]"}
	}
	if p.Mode != ModeStrict && p.Mode != ModePermissive {
		return fmt.Errorf("%w: unknown mode %s", ErrInvalidArgument, p.Mode)
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v > 0 && v <= 1
}
