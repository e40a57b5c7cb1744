package constants

// Employee field keys produced per payroll page.
const (
	FieldName            = "name"
	FieldSSN             = "ssn"
	FieldAddress         = "address"
	FieldCity            = "city"
	FieldState           = "state"
	FieldZip             = "zip"
	FieldJobClass        = "job_class"
	FieldMaritalStatus   = "marital_status"
	FieldRegularHours    = "regular_hours"
	FieldOvertimeHours   = "overtime_hours"
	FieldPayRate         = "pay_rate"
	FieldGrossPay        = "gross_pay"
	FieldFederalTax      = "federal_tax"
	FieldNetPay          = "net_pay"
	FieldDuesAmount      = "dues_amount"
	FieldTotalDeductions = "total_deductions"
)

// Job info field keys shared by every record from the same document.
const (
	FieldJobName           = "job_name"
	FieldJobNumber         = "job_number"
	FieldWeekEnding        = "week_ending"
	FieldPayrollNumber     = "payroll_number"
	FieldContractorName    = "contractor_name"
	FieldContractorAddress = "contractor_address"
	FieldCustomerName      = "customer_name"
	FieldCustomerAddress   = "customer_address"
)

// JobInfoFields lists the job info keys in canonical order.
var JobInfoFields = []string{
	FieldJobName,
	FieldJobNumber,
	FieldWeekEnding,
	FieldPayrollNumber,
	FieldContractorName,
	FieldContractorAddress,
	FieldCustomerName,
	FieldCustomerAddress,
}
