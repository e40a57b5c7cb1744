package mapping

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/certpay/payroll-extractor/constants"
)

// DefaultMappingName is the mapping used when a caller names none.
const DefaultMappingName = "default"

// WisdotMappingName targets the WisDOT certified payroll workbook.
const WisdotMappingName = "wisdot"

func defaultPairs() []Pair {
	return []Pair{
		{"EmployeeName", constants.FieldName},
		{"SSN", constants.FieldSSN},
		{"Address", constants.FieldAddress},
		{"City", constants.FieldCity},
		{"State", constants.FieldState},
		{"PayRate", constants.FieldPayRate},
		{"RegularHours", constants.FieldRegularHours},
		{"OvertimeHours", constants.FieldOvertimeHours},
		{"GrossPay", constants.FieldGrossPay},
		{"NetPay", constants.FieldNetPay},
	}
}

func wisdotPairs() []Pair {
	return []Pair{
		{"EmployeeName", constants.FieldName},
		{"SSN", constants.FieldSSN},
		{"Address", constants.FieldAddress},
		{"City", constants.FieldCity},
		{"State", constants.FieldState},
		{"MaritalStatus", constants.FieldMaritalStatus},
		{"JobClass", constants.FieldJobClass},
		{"PayRate", constants.FieldPayRate},
		{"RegularHours", constants.FieldRegularHours},
		{"OvertimeHours", constants.FieldOvertimeHours},
		{"GrossPay", constants.FieldGrossPay},
		{"NetPay", constants.FieldNetPay},
		{"TotalDeductions", constants.FieldTotalDeductions},
		{"AMF494Rate", constants.AMF494.RateField()},
		{"AMF494Amount", constants.AMF494.AmountField()},
		{"AnnuityRate", constants.Annuity.RateField()},
		{"AnnuityAmount", constants.Annuity.AmountField()},
		{"HWRate", constants.HW.RateField()},
		{"HWAmount", constants.HW.AmountField()},
		{"PensionRate", constants.Pension.RateField()},
		{"PensionAmount", constants.Pension.AmountField()},
		{"DuesAmount", constants.FieldDuesAmount},
		{"JobName", constants.FieldJobName},
		{"JobNumber", constants.FieldJobNumber},
		{"WeekEnding", constants.FieldWeekEnding},
	}
}

// EnsureDefaults creates the mapping and template directories and
// seeds the built-in default and wisdot pairs. Existing files are
// left alone, so operator edits survive restarts.
func (s *Store) EnsureDefaults() error {
	if err := os.MkdirAll(s.mappingsDir, 0o755); err != nil {
		return fmt.Errorf("create mappings dir: %w", err)
	}
	if err := os.MkdirAll(s.templatesDir, 0o755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}
	for _, seed := range []struct {
		name  string
		pairs []Pair
	}{
		{DefaultMappingName, defaultPairs()},
		{WisdotMappingName, wisdotPairs()},
	} {
		if err := s.seed(seed.name, seed.pairs); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seed(name string, pairs []Pair) error {
	m := New(pairs...)
	if !s.templateExists(name) {
		if err := s.PutTemplate(name, m.TemplateFields()); err != nil {
			return err
		}
		if err := s.PutMapping(name, m); err != nil {
			return err
		}
		s.logger.Info("seeded default mapping", "name", name)
	}
	return nil
}

func (s *Store) templateExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.templatesDir, name+".csv"))
	return err == nil
}
