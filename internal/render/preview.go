package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"reports/internal/domain"
)

var (
	colorCyan = lipgloss.Color("36")
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")

	styleReportTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSection     = lipgloss.NewStyle().Bold(true).Underline(true)
	styleSubheader   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleMeta        = lipgloss.NewStyle().Foreground(colorGray)
	styleEmpty       = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	styleColumn      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText drops inline HTML from rich text content.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

// Preview renders page for a terminal of the given width.
func Preview(page *Page, width int) string {
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	b.WriteString(styleReportTitle.Render(page.Title))
	b.WriteString("\n")
	for _, key := range []string{domain.FieldSubtitle, domain.FieldClient, domain.FieldLocation, domain.FieldPreparedBy} {
		if v := page.Meta[key]; v != "" {
			b.WriteString(styleMeta.Render(fmt.Sprintf("%s: %s", metaLabel(key), plainText(v))))
			b.WriteString("\n")
		}
	}
	for _, s := range page.Sections {
		b.WriteString("\n")
		b.WriteString(styleSection.Render(s.Title))
		b.WriteString("\n\n")
		b.WriteString(PreviewRegion(s.Body, width))
	}
	if c := page.Meta[domain.FieldConclusion]; c != "" {
		b.WriteString("\n")
		b.WriteString(styleSection.Render("Conclusion"))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(plainText(c)))
		b.WriteString("\n")
	}
	return b.String()
}

// PreviewRegion renders one region at the given width.
func PreviewRegion(reg *Region, width int) string {
	p := &previewer{width: width}
	var parts []string
	for _, el := range reg.Blocks {
		p.out = ""
		p.cur = el
		el.Block.Accept(p)
		if p.out != "" {
			parts = append(parts, p.out)
		}
	}
	if len(parts) == 0 {
		return styleEmpty.Render("(empty)") + "\n"
	}
	return strings.Join(parts, "\n") + "\n"
}

type previewer struct {
	width int
	cur   *Element
	out   string
}

func (p *previewer) VisitText(b *domain.Text) {
	txt := plainText(b.Content)
	if txt == "" {
		return
	}
	p.out = lipgloss.NewStyle().Width(p.width).Render(txt)
}

func (p *previewer) VisitSubheader(b *domain.Subheader) {
	p.out = styleSubheader.Render(plainText(b.Content))
}

func (p *previewer) VisitImageGrid(b *domain.ImageGrid) {
	var lines []string
	for _, img := range b.Images {
		if img.Src == nil {
			continue
		}
		line := "[image] " + *img.Src
		if img.Caption != "" {
			line += " - " + img.Caption
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	p.out = styleMeta.Render(strings.Join(lines, "\n"))
}

func (p *previewer) VisitTable(b *domain.Table) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleTableBorder).
		Headers(b.Cells[0]...).
		Rows(b.Cells[1:]...)
	p.out = t.Render()
}

func (p *previewer) VisitLayout(b *domain.Layout) {
	cols := p.cur.Columns
	// Two cells of border and two of padding per column.
	inner := p.width/len(cols) - 4
	if inner < 8 {
		inner = 8
	}
	rendered := make([]string, len(cols))
	for j, col := range cols {
		body := strings.TrimRight(PreviewRegion(col, inner), "\n")
		rendered[j] = styleColumn.Width(inner).Render(body)
	}
	p.out = lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
