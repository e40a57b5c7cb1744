package parse

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/export"
	"github.com/certpay/payroll-extractor/internal/mapping"
	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/pdftext"
)

const testHeaderPage = `Job
I-43 INTERCHANGE PROJECT
Job Number: 22-1234`

const testEmployeePage = `Name / Address
JOHN A SMITH ***-**-1234
Hours Worked This Job`

type stubExtractor struct {
	res pdftext.TextExtractionResult
	err error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (pdftext.TextExtractionResult, error) {
	return s.res, s.err
}

func newTestService(t *testing.T, stub *stubExtractor) *Service {
	t.Helper()
	dir := t.TempDir()
	store := mapping.NewStore(dir+"/mappings", dir+"/templates", nil)
	require.NoError(t, store.EnsureDefaults())

	parser, err := payroll.NewExtractor(payroll.DefaultPatternSet(), nil)
	require.NoError(t, err)

	return NewService(stub, parser, store, export.NewService(nil), nil)
}

func TestParseDocumentCSV(t *testing.T) {
	stub := &stubExtractor{res: pdftext.TextExtractionResult{
		Pages:  []string{testHeaderPage, testEmployeePage},
		Method: pdftext.MethodEmbedded,
	}}
	svc := newTestService(t, stub)

	resp, err := svc.ParseDocument(context.Background(), ParseRequest{Path: "/data/wk1.pdf"})
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, resp.Format)
	assert.Equal(t, "text/csv", resp.ContentType)
	assert.Equal(t, pdftext.MethodEmbedded, resp.Method)
	assert.Equal(t, 2, resp.PageCount)
	require.Len(t, resp.Result.Employees, 1)

	want := "EmployeeName,SSN,Address,City,State,PayRate,RegularHours,OvertimeHours,GrossPay,NetPay\n" +
		"JOHN A SMITH,***-**-1234,,,,,,,,\n"
	assert.Equal(t, want, string(resp.Payload))
}

func TestParseDocumentXLSX(t *testing.T) {
	stub := &stubExtractor{res: pdftext.TextExtractionResult{
		Pages: []string{testHeaderPage, testEmployeePage},
	}}
	svc := newTestService(t, stub)

	resp, err := svc.ParseDocument(context.Background(), ParseRequest{Path: "/data/wk1.pdf", Format: "xlsx"})
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, resp.Format)
	assert.True(t, strings.HasPrefix(string(resp.Payload), "PK"))
}

func TestParseDocumentZeroEmployees(t *testing.T) {
	stub := &stubExtractor{res: pdftext.TextExtractionResult{
		Pages: []string{"nothing resembling a payroll page"},
	}}
	svc := newTestService(t, stub)

	resp, err := svc.ParseDocument(context.Background(), ParseRequest{Path: "/data/empty.pdf"})
	require.NoError(t, err)
	assert.Empty(t, resp.Result.Employees)
	assert.Equal(t, "EmployeeName,SSN,Address,City,State,PayRate,RegularHours,OvertimeHours,GrossPay,NetPay\n",
		string(resp.Payload))
}

func TestParseDocumentUnknownMapping(t *testing.T) {
	svc := newTestService(t, &stubExtractor{})

	_, err := svc.ParseDocument(context.Background(), ParseRequest{Path: "/data/wk1.pdf", MappingName: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMappingNotFound)
}

func TestParseDocumentBadFormat(t *testing.T) {
	svc := newTestService(t, &stubExtractor{})

	_, err := svc.ParseDocument(context.Background(), ParseRequest{Path: "/data/wk1.pdf", Format: "docx"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseDocumentRequiresPath(t *testing.T) {
	svc := newTestService(t, &stubExtractor{})

	_, err := svc.ParseDocument(context.Background(), ParseRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseDocumentUnreadable(t *testing.T) {
	stub := &stubExtractor{err: common.NewAppError("DOCUMENT_UNREADABLE", "open pdf", common.ErrDocumentUnreadable)}
	svc := newTestService(t, stub)

	_, err := svc.ParseDocument(context.Background(), ParseRequest{Path: "/data/broken.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDocumentUnreadable)
}
