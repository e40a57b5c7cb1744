package payroll

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/certpay/payroll-extractor/constants"
)

// Default page markers: a page is scanned for an employee only when
// every marker appears in its text.
const (
	markerNameAddress = "Name / Address"
	markerHoursWorked = "Hours Worked This Job"
)

// PatternSet carries the issuer-specific patterns. Start from
// DefaultPatternSet and override fields for registers that differ.
// All employee patterns are required; compile rejects empty ones.
type PatternSet struct {
	// Markers are fixed phrases that must all appear on a page before
	// it is scanned for an employee record.
	Markers []string

	// JobInfo maps each job info key to its pattern. The first capture
	// group of the first match is stored; a pattern without groups
	// stores the matched text itself; no match stores "".
	JobInfo map[string]string

	// Benefits drives the fringe line alternation and the derived
	// <stem>_rate / <stem>_amount field names.
	Benefits []constants.Benefit

	Identity string // employee name + masked SSN; gates the whole record
	Address  string // street, city, state, zip
	JobClass string
	Marital  string
	Hours    string // regular + overtime
	Pay      string // pay rate, gross, federal tax, net, in that order
	Dues     string
	Total    string
}

// DefaultPatternSet reproduces the certified payroll register layout
// this engine was built against.
func DefaultPatternSet() PatternSet {
	return PatternSet{
		Markers: []string{markerNameAddress, markerHoursWorked},
		JobInfo: map[string]string{
			constants.FieldJobName:           `Job\s*\n([^\n]+)`,
			constants.FieldJobNumber:         `Job Number:\s*([^\n]+)`,
			constants.FieldWeekEnding:        `Week Ending:\s*([^\n]+)`,
			constants.FieldPayrollNumber:     `Payroll #\s*([^\n]+)`,
			constants.FieldContractorName:    `Contractor\s*\n([^\n]+)`,
			constants.FieldContractorAddress: `BUTLER, WI 53007`,
			constants.FieldCustomerName:      `Customer\s*\n([^\n]+)`,
			constants.FieldCustomerAddress:   `BROOKFIELD, WI 53005`,
		},
		Benefits: constants.AllBenefits(),
		Identity: `([A-Z\s]+[A-Z])\s+(\*\*\*-\*\*-\d{4})`,
		Address:  `([A-Z0-9\s]+)\s+([A-Z]+)\s+(\w+)\s+(\d+)`,
		JobClass: `Class\s+.+\s+([A-Z]+)\s+Male`,
		Marital:  `(Single|Married)\s+\d+`,
		Hours:    `R:\s+(\d+\.\d+).*O:\s+(\d+\.\d+)`,
		Pay:      `(\d+\.\d+)\s+(\d+\.\d+)\s+(\d+\.\d+)\s+(\d+\.\d+)`,
		Dues:     `DUES\s+(\d+\.\d+)`,
		Total:    `Total\s+(\d+\.\d+)`,
	}
}

type compiledPatterns struct {
	jobInfo  map[string]*regexp.Regexp
	identity *regexp.Regexp
	address  *regexp.Regexp
	jobClass *regexp.Regexp
	marital  *regexp.Regexp
	hours    *regexp.Regexp
	pay      *regexp.Regexp
	fringe   *regexp.Regexp
	dues     *regexp.Regexp
	total    *regexp.Regexp
}

func (ps PatternSet) compile() (compiledPatterns, error) {
	var cp compiledPatterns
	var err error

	cp.jobInfo = make(map[string]*regexp.Regexp, len(ps.JobInfo))
	for key, pat := range ps.JobInfo {
		if cp.jobInfo[key], err = regexp.Compile(pat); err != nil {
			return compiledPatterns{}, fmt.Errorf("job info pattern %q: %w", key, err)
		}
	}

	fields := []struct {
		name string
		pat  string
		dst  **regexp.Regexp
	}{
		{"identity", ps.Identity, &cp.identity},
		{"address", ps.Address, &cp.address},
		{"job class", ps.JobClass, &cp.jobClass},
		{"marital", ps.Marital, &cp.marital},
		{"hours", ps.Hours, &cp.hours},
		{"pay", ps.Pay, &cp.pay},
		{"dues", ps.Dues, &cp.dues},
		{"total", ps.Total, &cp.total},
	}
	for _, f := range fields {
		if f.pat == "" {
			return compiledPatterns{}, fmt.Errorf("%s pattern is required", f.name)
		}
		if *f.dst, err = regexp.Compile(f.pat); err != nil {
			return compiledPatterns{}, fmt.Errorf("%s pattern: %w", f.name, err)
		}
	}

	if len(ps.Benefits) > 0 {
		if cp.fringe, err = regexp.Compile(fringePattern(ps.Benefits)); err != nil {
			return compiledPatterns{}, fmt.Errorf("fringe pattern: %w", err)
		}
	}
	return cp, nil
}

// fringePattern builds the benefit-line alternation: label, hourly rate,
// paid amount.
func fringePattern(benefits []constants.Benefit) string {
	labels := make([]string, len(benefits))
	for i, b := range benefits {
		labels[i] = regexp.QuoteMeta(string(b))
	}
	return `(` + strings.Join(labels, "|") + `)\s+(\d+\.\d+)\s+(\d+\.\d+)`
}
