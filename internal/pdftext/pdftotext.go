package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/certpay/payroll-extractor/internal/common"
)

// pdfToText shells out to poppler's pdftotext and splits the output on
// the form-feed page separator.
func (e *Extractor) pdfToText(ctx context.Context, path string) (pages []string, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.PdftotextPath, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			// the binary itself is missing or unrunnable; says nothing about the document
			return nil, nil, fmt.Errorf("pdftotext unavailable: %w", err)
		}
		return nil, []string{string(errb)}, common.NewAppError("DOCUMENT_UNREADABLE",
			fmt.Sprintf("pdftotext: %v", err), common.ErrDocumentUnreadable)
	}

	for _, raw := range strings.Split(string(out), "\f") {
		text := Normalize(raw)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil, nil
}
