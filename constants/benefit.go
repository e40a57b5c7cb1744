package constants

import (
	"strings"
)

// Benefit is a fringe benefit line item as labeled on a payroll page.
type Benefit string

const (
	AMF494  Benefit = "AMF 494"
	Annuity Benefit = "ANNUITY"
	HW      Benefit = "H&W"
	JATC494 Benefit = "JATC 494"
	LMCC494 Benefit = "LMCC 494"
	NEBF494 Benefit = "NEBF 494"
	NECA494 Benefit = "NECA-494"
	NEIF494 Benefit = "NEIF-494"
	Pension Benefit = "PENSION"
	VacHol  Benefit = "VAC/HOL"
)

var allBenefits = []Benefit{
	AMF494,
	Annuity,
	HW,
	JATC494,
	LMCC494,
	NEBF494,
	NECA494,
	NEIF494,
	Pension,
	VacHol,
}

// AllBenefits returns the benefit labels in declaration order.
func AllBenefits() []Benefit {
	out := make([]Benefit, len(allBenefits))
	copy(out, allBenefits)
	return out
}

func BenefitLabels() []string {
	result := make([]string, len(allBenefits))
	for i, b := range allBenefits {
		result[i] = string(b)
	}
	return result
}

// Stem derives the field-name stem for a benefit label: lowercase, spaces
// to underscores, "&" to "and", "-" to underscore. "H&W" becomes "handw",
// "NECA-494" becomes "neca_494".
func (b Benefit) Stem() string {
	s := strings.ToLower(string(b))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// RateField is the record key holding the benefit's hourly rate.
func (b Benefit) RateField() string {
	return b.Stem() + "_rate"
}

// AmountField is the record key holding the benefit's paid amount.
func (b Benefit) AmountField() string {
	return b.Stem() + "_amount"
}
