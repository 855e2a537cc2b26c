package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"reports/internal/domain"
)

// PDFOptions controls page geometry and typography of PDF export.
type PDFOptions struct {
	PageSize    string  // A4, Letter, ...
	Orientation string  // "P" or "L"
	Font        string  // core font family
	MarginMM    float64 // all four margins
	ImageDir    string  // base for relative image sources
}

// DefaultPDFOptions matches the print layout of the editor: A4 portrait
// with 10mm margins.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{PageSize: "A4", Orientation: "P", Font: "Helvetica", MarginMM: 10}
}

const (
	lineHeight    = 5.0
	bodySize      = 10.0
	subheaderSize = 12.0
	sectionSize   = 15.0
	titleSize     = 20.0
	columnGap     = 4.0
	imageHeight   = 45.0
)

// WritePDF lays out page and writes the document to w.
func WritePDF(w io.Writer, page *Page, opts PDFOptions) error {
	if opts.PageSize == "" {
		opts = DefaultPDFOptions()
	}
	pdf := gofpdf.New(opts.Orientation, "mm", opts.PageSize, "")
	pdf.SetMargins(opts.MarginMM, opts.MarginMM, opts.MarginMM)
	pdf.SetAutoPageBreak(true, opts.MarginMM)
	pdf.SetTitle(page.Title, true)
	pdf.SetCreator("reports", true)
	if by := page.Meta[domain.FieldPreparedBy]; by != "" {
		pdf.SetAuthor(by, true)
	}

	pw := &pdfWriter{
		pdf:  pdf,
		opts: opts,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		html: pdf.HTMLBasicNew(),
	}
	pdf.AddPage()
	pw.header(page)
	for _, s := range page.Sections {
		pw.heading(s.Title, sectionSize)
		pw.region(s.Body)
		pdf.Ln(lineHeight)
	}
	if c := page.Meta[domain.FieldConclusion]; c != "" {
		pw.heading("Conclusion", sectionSize)
		pw.richText(c)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfWriter struct {
	pdf  *gofpdf.Fpdf
	opts PDFOptions
	tr   func(string) string
	html gofpdf.HTMLBasicType
	cur  *Element
}

func (pw *pdfWriter) font(style string, size float64) {
	pw.pdf.SetFont(pw.opts.Font, style, size)
}

// box returns the left edge and width of the current text area.
func (pw *pdfWriter) box() (float64, float64) {
	left, _, right, _ := pw.pdf.GetMargins()
	width, _ := pw.pdf.GetPageSize()
	return left, width - left - right
}

func (pw *pdfWriter) header(page *Page) {
	pw.font("B", titleSize)
	pw.pdf.MultiCell(0, titleSize*0.5, pw.tr(page.Title), "", "L", false)
	pw.font("", bodySize)
	pw.pdf.SetTextColor(90, 90, 90)
	for _, key := range []string{domain.FieldSubtitle, domain.FieldClient, domain.FieldLocation, domain.FieldPreparedBy} {
		if v := page.Meta[key]; v != "" {
			pw.pdf.MultiCell(0, lineHeight, pw.tr(metaLabel(key)+": "+plainText(v)), "", "L", false)
		}
	}
	pw.pdf.SetTextColor(0, 0, 0)
	pw.pdf.Ln(lineHeight)
}

func (pw *pdfWriter) heading(text string, size float64) {
	pw.font("B", size)
	pw.pdf.MultiCell(0, size*0.45, pw.tr(text), "", "L", false)
	pw.pdf.Ln(1.5)
	pw.font("", bodySize)
}

func (pw *pdfWriter) richText(s string) {
	pw.font("", bodySize)
	pw.pdf.SetX(pw.leftMargin())
	pw.html.Write(lineHeight, pw.tr(s))
	pw.pdf.Ln(lineHeight * 1.5)
}

func (pw *pdfWriter) leftMargin() float64 {
	left, _, _, _ := pw.pdf.GetMargins()
	return left
}

func (pw *pdfWriter) region(reg *Region) {
	for _, el := range reg.Blocks {
		pw.cur = el
		el.Block.Accept(pw)
	}
}

func (pw *pdfWriter) VisitText(b *domain.Text) {
	if strings.TrimSpace(b.Content) == "" {
		return
	}
	pw.richText(b.Content)
}

func (pw *pdfWriter) VisitSubheader(b *domain.Subheader) {
	pw.heading(plainText(b.Content), subheaderSize)
}

func (pw *pdfWriter) VisitImageGrid(b *domain.ImageGrid) {
	left, width := pw.box()
	cols := b.Columns
	if cols < 1 {
		cols = 1
	}
	cellW := (width - columnGap*float64(cols-1)) / float64(cols)
	captionH := lineHeight
	for row := 0; row*cols < len(b.Images); row++ {
		pw.ensureSpace(imageHeight + captionH)
		y := pw.pdf.GetY()
		for c := 0; c < cols; c++ {
			i := row*cols + c
			if i >= len(b.Images) {
				break
			}
			x := left + float64(c)*(cellW+columnGap)
			pw.image(b.Images[i], x, y, cellW)
		}
		pw.pdf.SetXY(left, y+imageHeight+captionH+2)
	}
}

func (pw *pdfWriter) image(img domain.Image, x, y, w float64) {
	path := ""
	if img.Src != nil {
		path = *img.Src
		if !filepath.IsAbs(path) && pw.opts.ImageDir != "" {
			path = filepath.Join(pw.opts.ImageDir, path)
		}
	}
	if pw.embeddable(path) {
		pw.pdf.ImageOptions(path, x, y, 0, imageHeight, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	} else {
		pw.pdf.SetDrawColor(200, 200, 200)
		pw.pdf.Rect(x, y, w, imageHeight, "D")
		pw.pdf.SetDrawColor(0, 0, 0)
	}
	if img.Caption != "" {
		pw.font("I", bodySize-1)
		pw.pdf.SetXY(x, y+imageHeight)
		pw.pdf.CellFormat(w, lineHeight, pw.tr(img.Caption), "", 0, "C", false, 0, "")
		pw.font("", bodySize)
	}
}

// embeddable reports whether path is a readable image gofpdf can decode.
// A failed registration is cleared so the rest of the document still renders.
func (pw *pdfWriter) embeddable(path string) bool {
	if path == "" || pw.pdf.Err() {
		return false
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg", "png", "gif":
	default:
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if pw.pdf.RegisterImageOptions(path, gofpdf.ImageOptions{ReadDpi: true}) == nil || pw.pdf.Err() {
		pw.pdf.ClearError()
		return false
	}
	return true
}

func (pw *pdfWriter) VisitTable(b *domain.Table) {
	left, width := pw.box()
	cols := b.Cols()
	cellW := width / float64(cols)
	for r, row := range b.Cells {
		style := ""
		if r == 0 {
			style = "B"
		}
		pw.font(style, bodySize)
		lines := 1
		for _, cell := range row {
			if n := len(pw.pdf.SplitLines([]byte(pw.tr(cell)), cellW-2)); n > lines {
				lines = n
			}
		}
		rowH := float64(lines) * lineHeight
		pw.ensureSpace(rowH)
		y := pw.pdf.GetY()
		for c, cell := range row {
			x := left + float64(c)*cellW
			if r == 0 {
				pw.pdf.SetFillColor(235, 235, 235)
				pw.pdf.Rect(x, y, cellW, rowH, "FD")
			} else {
				pw.pdf.Rect(x, y, cellW, rowH, "D")
			}
			pw.pdf.SetXY(x+1, y)
			pw.pdf.MultiCell(cellW-2, lineHeight, pw.tr(cell), "", "L", false)
		}
		pw.pdf.SetXY(left, y+rowH)
	}
	pw.font("", bodySize)
	pw.pdf.Ln(lineHeight)
}

// VisitLayout writes the columns side by side by narrowing the margins to
// each column's box in turn. Content continues below the tallest column.
func (pw *pdfWriter) VisitLayout(*domain.Layout) {
	cols := pw.cur.Columns
	left, top, right, _ := pw.pdf.GetMargins()
	pageW, _ := pw.pdf.GetPageSize()
	width := pageW - left - right
	colW := (width - columnGap*float64(len(cols)-1)) / float64(len(cols))

	startPage, startY := pw.pdf.PageNo(), pw.pdf.GetY()
	endPage, endY := startPage, startY
	for j, col := range cols {
		x := left + float64(j)*(colW+columnGap)
		pw.pdf.SetPage(startPage)
		pw.pdf.SetLeftMargin(x)
		pw.pdf.SetRightMargin(pageW - x - colW)
		pw.pdf.SetXY(x, startY)
		pw.region(col)

		page, y := pw.pdf.PageNo(), pw.pdf.GetY()
		if page > endPage || (page == endPage && y > endY) {
			endPage, endY = page, y
		}
	}
	pw.pdf.SetMargins(left, top, right)
	pw.pdf.SetPage(endPage)
	pw.pdf.SetXY(left, endY)
}

// ensureSpace starts a new page when h does not fit below the cursor.
func (pw *pdfWriter) ensureSpace(h float64) {
	_, pageH := pw.pdf.GetPageSize()
	_, _, _, bottom := pw.pdf.GetMargins()
	if pw.pdf.GetY()+h > pageH-bottom {
		pw.pdf.AddPage()
	}
}
