package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"reports/internal/domain"
	"reports/internal/service"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleValue    = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning  = lipgloss.NewStyle().Foreground(colorYellow)
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell     = lipgloss.NewStyle().Padding(0, 1)
	styleIconOK   = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconErr  = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo = lipgloss.NewStyle().Foreground(colorGray)
	styleType     = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconLock    = "locked"
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconOK.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconErr.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleWarning.Render(iconWarning)+" "+styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+styleValue.Render(value))
}

// newTable returns a bordered table in the CLI palette.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleDim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
}

// printSections prints the section list as a table.
func printSections(w io.Writer, secs []service.SectionSummary) {
	t := newTable("#", "ID", "TITLE", "BLOCKS", "STATE")
	for i, s := range secs {
		var flags []string
		if s.Locked {
			flags = append(flags, iconLock)
		}
		if !s.Deletable {
			flags = append(flags, "fixed")
		}
		t.Row(fmt.Sprint(i+1), s.ID, s.Title, fmt.Sprint(s.Blocks), strings.Join(flags, ","))
	}
	fmt.Fprintln(w, t.Render())
}

// printOutline prints a block list as an indented tree with paths.
func printOutline(w io.Writer, slot domain.Path, list []domain.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, b := range list {
		p := slot.At(i)
		fmt.Fprintf(w, "%s%s %s %s\n", indent,
			styleDim.Render(p.String()),
			styleType.Render(string(b.Type())),
			styleDim.Render(b.BlockID()))
		if l, ok := b.(*domain.Layout); ok {
			for j, col := range l.Children {
				fmt.Fprintf(w, "%s  %s\n", indent, styleDim.Render(fmt.Sprintf("column %d", j)))
				printOutline(w, p.Column(j), col, depth+2)
			}
		}
	}
}
