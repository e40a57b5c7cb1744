package payroll

// JobInfo holds the document-level header fields. Every key of the
// configured pattern set is always present; unmatched values are "".
type JobInfo map[string]string

// Record is one employee's extracted fields plus the merged job info.
// Values are string or float64.
type Record map[string]any

// Result is everything extracted from one document.
type Result struct {
	JobInfo   JobInfo  `json:"job_info"`
	Employees []Record `json:"employees"`
}

// String returns the value for key when it is a string, else "".
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the value for key when it is a float64.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key].(float64)
	return v, ok
}
