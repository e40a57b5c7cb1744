package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/mapping"
)

func sampleTable() *mapping.Table {
	return &mapping.Table{
		Columns: []string{"EmployeeName", "GrossPay", "JobName"},
		Rows: [][]any{
			{"JOHN A SMITH", 1100.0, "I-43 INTERCHANGE PROJECT"},
			{"JANE B DOE", "", ""},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			require.Error(t, err, "input %q", tt.in)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestExportCSV(t *testing.T) {
	s := NewService(nil)

	data, err := s.ExportCSV(sampleTable())
	require.NoError(t, err)

	want := "EmployeeName,GrossPay,JobName\n" +
		"JOHN A SMITH,1100,I-43 INTERCHANGE PROJECT\n" +
		"JANE B DOE,,\n"
	assert.Equal(t, want, string(data))
}

func TestExportCSVEmptyTable(t *testing.T) {
	s := NewService(nil)

	data, err := s.ExportCSV(&mapping.Table{Columns: []string{"A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, "A,B\n", string(data))
}

func TestExportCSVFloatFormatting(t *testing.T) {
	s := NewService(nil)
	table := &mapping.Table{
		Columns: []string{"PayRate", "RegularHours"},
		Rows:    [][]any{{25.5, 40.0}},
	}

	data, err := s.ExportCSV(table)
	require.NoError(t, err)
	assert.Equal(t, "PayRate,RegularHours\n25.5,40\n", string(data))
}

func TestExportXLSX(t *testing.T) {
	s := NewService(nil)

	data, err := s.ExportXLSX(sampleTable())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Payroll")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"EmployeeName", "GrossPay", "JobName"}, rows[0])
	assert.Equal(t, "JOHN A SMITH", rows[1][0])
	assert.Equal(t, "1100", rows[1][1])
}

func TestExportDispatch(t *testing.T) {
	s := NewService(nil)

	csvData, err := s.Export(sampleTable(), FormatCSV)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(csvData, []byte("EmployeeName,")))

	xlsxData, err := s.Export(sampleTable(), FormatXLSX)
	require.NoError(t, err)
	// XLSX files are ZIP containers.
	assert.True(t, bytes.HasPrefix(xlsxData, []byte("PK")))
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, ".csv", FormatCSV.Ext())
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		FormatXLSX.ContentType())
	assert.Equal(t, ".xlsx", FormatXLSX.Ext())
}
