package payroll

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/certpay/payroll-extractor/constants"
)

// Extractor turns linearized page text into job info and employee
// records. It holds compiled patterns and a logger only, so a single
// instance is safe for concurrent use across documents.
type Extractor struct {
	ps     PatternSet
	re     compiledPatterns
	logger *slog.Logger
}

// NewExtractor compiles the pattern set once up front.
func NewExtractor(ps PatternSet, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	re, err := ps.compile()
	if err != nil {
		return nil, err
	}
	return &Extractor{ps: ps, re: re, logger: logger}, nil
}

// ExtractJobInfo reads the document-level header fields from page-1
// text. Every configured key is present in the result; keys whose
// pattern does not match hold "".
func (e *Extractor) ExtractJobInfo(pageText string) JobInfo {
	info := make(JobInfo, len(e.re.jobInfo))
	for key, re := range e.re.jobInfo {
		info[key] = ""
		m := re.FindStringSubmatch(pageText)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			info[key] = strings.TrimSpace(m[1])
		} else {
			// degenerate fixed-substring pattern: keep the match itself
			info[key] = m[0]
		}
	}
	return info
}

// ExtractRecords scans every page for employee records. Pages missing
// any marker phrase are skipped; an eligible page yields at most one
// record, gated on the identity pattern. The given job info, if any,
// is copied into every record.
func (e *Extractor) ExtractRecords(pages []string, info JobInfo) []Record {
	var records []Record
	for i, pageText := range pages {
		if !e.eligible(pageText) {
			continue
		}
		rec := e.extractPage(pageText)
		if rec == nil {
			e.logger.Debug("eligible page without identity match", "page", i+1)
			continue
		}
		for k, v := range info {
			rec[k] = v
		}
		records = append(records, rec)
	}
	e.logger.Info("extracted employee records", "pages", len(pages), "records", len(records))
	return records
}

// Parse is the single document-level entry point: job info from the
// first page, employee records from all pages, merged.
func (e *Extractor) Parse(pages []string) *Result {
	first := ""
	if len(pages) > 0 {
		first = pages[0]
	}
	info := e.ExtractJobInfo(first)
	employees := e.ExtractRecords(pages, info)
	if employees == nil {
		employees = []Record{}
	}
	return &Result{JobInfo: info, Employees: employees}
}

func (e *Extractor) eligible(pageText string) bool {
	for _, marker := range e.ps.Markers {
		if !strings.Contains(pageText, marker) {
			return false
		}
	}
	return true
}

// extractPage pulls one employee's fields out of a page. Only the
// identity match is mandatory; every other field is independent and
// silently absent when its pattern finds nothing.
func (e *Extractor) extractPage(pageText string) Record {
	m := e.re.identity.FindStringSubmatch(pageText)
	if len(m) < 3 {
		return nil // no employee data on this page
	}
	rec := Record{
		constants.FieldName: strings.TrimSpace(m[1]),
		constants.FieldSSN:  m[2],
	}

	if m := e.re.address.FindStringSubmatch(pageText); len(m) > 4 {
		rec[constants.FieldAddress] = strings.TrimSpace(m[1])
		rec[constants.FieldCity] = strings.TrimSpace(m[2])
		rec[constants.FieldState] = strings.TrimSpace(m[3])
		rec[constants.FieldZip] = strings.TrimSpace(m[4])
	}
	if m := e.re.jobClass.FindStringSubmatch(pageText); len(m) > 1 {
		rec[constants.FieldJobClass] = strings.TrimSpace(m[1])
	}
	if m := e.re.marital.FindStringSubmatch(pageText); len(m) > 1 {
		rec[constants.FieldMaritalStatus] = strings.TrimSpace(m[1])
	}
	if m := e.re.hours.FindStringSubmatch(pageText); len(m) > 2 {
		rec[constants.FieldRegularHours] = parseAmount(m[1])
		rec[constants.FieldOvertimeHours] = parseAmount(m[2])
	}
	if m := e.re.pay.FindStringSubmatch(pageText); len(m) > 4 {
		rec[constants.FieldPayRate] = parseAmount(m[1])
		rec[constants.FieldGrossPay] = parseAmount(m[2])
		rec[constants.FieldFederalTax] = parseAmount(m[3])
		rec[constants.FieldNetPay] = parseAmount(m[4])
	}
	if e.re.fringe != nil {
		// repeated benefit lines overwrite: the last occurrence wins
		for _, fm := range e.re.fringe.FindAllStringSubmatch(pageText, -1) {
			b := constants.Benefit(fm[1])
			rec[b.RateField()] = parseAmount(fm[2])
			rec[b.AmountField()] = parseAmount(fm[3])
		}
	}
	if m := e.re.dues.FindStringSubmatch(pageText); len(m) > 1 {
		rec[constants.FieldDuesAmount] = parseAmount(m[1])
	}
	if m := e.re.total.FindStringSubmatch(pageText); len(m) > 1 {
		rec[constants.FieldTotalDeductions] = parseAmount(m[1])
	}
	return rec
}

// parseAmount converts a digits-dot-digits capture; the patterns
// guarantee it parses.
func parseAmount(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
