package pdftext

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/certpay/payroll-extractor/internal/common"
)

// extractEmbedded reads page text with the in-process PDF reader. The
// library panics on some malformed documents; recover so a bad upload
// surfaces as ErrDocumentUnreadable instead of taking the process down.
func (e *Extractor) extractEmbedded(path string) (pages []string, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, warnings = nil, nil
			err = common.NewAppError("DOCUMENT_UNREADABLE",
				fmt.Sprintf("pdf reader panic: %v", r), common.ErrDocumentUnreadable)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, common.NewAppError("DOCUMENT_UNREADABLE",
			fmt.Sprintf("open pdf: %v", err), common.ErrDocumentUnreadable)
	}
	defer func() {
		_ = f.Close()
	}()

	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			warnings = append(warnings, fmt.Sprintf("page %d: missing page object", i))
			continue
		}
		text, perr := p.GetPlainText(nil)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		text = Normalize(text)
		if text == "" {
			// pages with no embedded text are skipped, not placeheld
			continue
		}
		pages = append(pages, text)
	}
	return pages, warnings, nil
}
