package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"reports/internal/domain"
	"reports/internal/render"
)

// Export formats.
const (
	FormatMarkdown = "markdown"
	FormatPDF      = "pdf"
	FormatPreview  = "preview"
	FormatJSON     = "json"
)

// Formats lists the supported export formats.
var Formats = []string{FormatMarkdown, FormatPDF, FormatPreview, FormatJSON}

// ExportOptions tune Export.
type ExportOptions struct {
	PDF   render.PDFOptions
	Width int // preview width in cells
}

// ParseFormat normalizes a format name or file extension.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	case "preview", "txt", "text", "term":
		return FormatPreview, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want one of %s)", s, strings.Join(Formats, ", "))
}

// Export writes the printable report to w in format.
func (s *ReportService) Export(ctx context.Context, w io.Writer, format string, opts ExportOptions) error {
	r, err := s.Report(ctx)
	if err != nil {
		return err
	}
	s.log.Debug("export", "format", format, "sections", len(r.Sections))
	return ExportReport(w, r, format, opts)
}

// ExportReport writes r to w in format. JSON is the importable document;
// the other formats are rendered without editor affordances.
func ExportReport(w io.Writer, r *domain.Report, format string, opts ExportOptions) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if format == FormatJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}

	page := render.Report(r)
	switch format {
	case FormatMarkdown:
		return render.WriteMarkdown(w, page)
	case FormatPDF:
		pdfOpts := opts.PDF
		if pdfOpts.PageSize == "" {
			pdfOpts = render.DefaultPDFOptions()
		}
		return render.WritePDF(w, page, pdfOpts)
	default:
		width := opts.Width
		if width <= 0 {
			width = 100
		}
		_, err := io.WriteString(w, render.Preview(page, width)+"\n")
		return err
	}
}
