package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"reports/internal/domain"
)

// WriteMarkdown writes page as GitHub-flavoured Markdown. Layout columns
// are written one after another; inline HTML in text blocks is kept.
func WriteMarkdown(w io.Writer, page *Page) error {
	bw := bufio.NewWriter(w)
	m := &mdWriter{w: bw}

	m.printf("# %s\n\n", page.Title)
	if sub := page.Meta[domain.FieldSubtitle]; sub != "" {
		m.printf("_%s_\n\n", sub)
	}
	for _, key := range []string{domain.FieldClient, domain.FieldLocation, domain.FieldPreparedBy} {
		if v := page.Meta[key]; v != "" {
			m.printf("- **%s:** %s\n", metaLabel(key), v)
		}
	}
	m.printf("\n")

	for _, s := range page.Sections {
		m.printf("## %s\n\n", s.Title)
		m.region(s.Body)
	}

	if c := page.Meta[domain.FieldConclusion]; c != "" {
		m.printf("## Conclusion\n\n%s\n\n", c)
	}
	if m.err != nil {
		return m.err
	}
	return bw.Flush()
}

type mdWriter struct {
	w   *bufio.Writer
	err error
	cur *Element
}

func (m *mdWriter) printf(format string, args ...any) {
	if m.err != nil {
		return
	}
	_, m.err = fmt.Fprintf(m.w, format, args...)
}

func (m *mdWriter) region(reg *Region) {
	for _, el := range reg.Blocks {
		m.element(el)
	}
}

func (m *mdWriter) element(el *Element) {
	m.cur = el
	el.Block.Accept(m)
}

func (m *mdWriter) VisitText(b *domain.Text) {
	if strings.TrimSpace(b.Content) != "" {
		m.printf("%s\n\n", b.Content)
	}
}

func (m *mdWriter) VisitSubheader(b *domain.Subheader) {
	m.printf("### %s\n\n", b.Content)
}

func (m *mdWriter) VisitImageGrid(b *domain.ImageGrid) {
	for _, img := range b.Images {
		if img.Src == nil {
			continue
		}
		m.printf("![%s](%s)\n", img.Caption, *img.Src)
		if img.Caption != "" {
			m.printf("_%s_\n", img.Caption)
		}
		m.printf("\n")
	}
}

func (m *mdWriter) VisitTable(b *domain.Table) { m.table(b.Cells) }

func (m *mdWriter) VisitLayout(*domain.Layout) {
	for _, col := range m.cur.Columns {
		m.region(col)
	}
}

func (m *mdWriter) table(cells [][]string) {
	if len(cells) == 0 {
		return
	}
	row := func(r []string) {
		escaped := make([]string, len(r))
		for i, c := range r {
			escaped[i] = strings.NewReplacer("|", `\|`, "\n", "<br>").Replace(c)
		}
		m.printf("| %s |\n", strings.Join(escaped, " | "))
	}
	row(cells[0])
	sep := make([]string, len(cells[0]))
	for i := range sep {
		sep[i] = "---"
	}
	m.printf("|%s|\n", strings.Join(sep, "|"))
	for _, r := range cells[1:] {
		row(r)
	}
	m.printf("\n")
}

func metaLabel(key string) string {
	switch key {
	case domain.FieldClient:
		return "Client"
	case domain.FieldLocation:
		return "Location"
	case domain.FieldPreparedBy:
		return "Prepared by"
	case domain.FieldSubtitle:
		return "Subtitle"
	case domain.FieldConclusion:
		return "Conclusion"
	}
	return key
}
