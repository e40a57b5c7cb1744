package pdftext

import (
	"regexp"
	"strings"
)

var (
	reMaskedSSN  = regexp.MustCompile(`\*\*\*-\*\*-\d{4}`)
	reAmount     = regexp.MustCompile(`\b\d+\.\d{2}\b`)
	reWeekEnding = regexp.MustCompile(`(?i)week ending`)
)

// naive heuristic quality based on decoded text characteristics
func heuristicQuality(txt string) float32 {
	// very simple: boost if we see common payroll artifacts
	// (masked SSN, dollar amounts, a week-ending header).
	score := float32(0.2) // base
	if reMaskedSSN.MatchString(txt) {
		score += 0.25
	}
	if reAmount.MatchString(txt) {
		score += 0.2
	}
	if reWeekEnding.MatchString(txt) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func joinPages(pages []string) string {
	return strings.Join(pages, "\n\f\n")
}
