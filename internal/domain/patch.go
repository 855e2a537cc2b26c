package domain

import "fmt"

// Patch is a partial update of one block. Nil fields are left as they are.
// Setting a field the target variant does not own is refused.
type Patch struct {
	Content     *string    `json:"content,omitempty"`
	Images      []Image    `json:"images,omitempty"`
	GridColumns *int       `json:"gridColumns,omitempty"`
	Cells       [][]string `json:"cells,omitempty"`
	Columns     *int       `json:"columns,omitempty"`
}

// Empty reports whether p sets no field.
func (p Patch) Empty() bool {
	return p.Content == nil && p.Images == nil && p.GridColumns == nil && p.Cells == nil && p.Columns == nil
}

// Apply returns a copy of b carrying the fields of p. b is not modified.
func (p Patch) Apply(b Block) (Block, error) {
	a := &patchApplier{patch: p}
	b.Accept(a)
	if a.err != nil {
		return nil, Refusal("update block", a.err)
	}
	return a.out, nil
}

type patchApplier struct {
	patch Patch
	out   Block
	err   error
}

func (a *patchApplier) mismatch(t BlockType, fields ...string) {
	a.err = fmt.Errorf("%w: %v on %s", ErrFieldMismatch, fields, t)
}

// foreign lists the fields of the patch that are set, excluding own.
func (a *patchApplier) foreign(own ...string) []string {
	set := map[string]bool{
		"content":     a.patch.Content != nil,
		"images":      a.patch.Images != nil,
		"gridColumns": a.patch.GridColumns != nil,
		"cells":       a.patch.Cells != nil,
		"columns":     a.patch.Columns != nil,
	}
	for _, o := range own {
		delete(set, o)
	}
	var out []string
	for _, name := range []string{"content", "images", "gridColumns", "cells", "columns"} {
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}

func (a *patchApplier) VisitText(b *Text) {
	if f := a.foreign("content"); len(f) > 0 {
		a.mismatch(b.Type(), f...)
		return
	}
	nb := *b
	if a.patch.Content != nil {
		nb.Content = *a.patch.Content
	}
	a.out = &nb
}

func (a *patchApplier) VisitSubheader(b *Subheader) {
	if f := a.foreign("content"); len(f) > 0 {
		a.mismatch(b.Type(), f...)
		return
	}
	nb := *b
	if a.patch.Content != nil {
		nb.Content = *a.patch.Content
	}
	a.out = &nb
}

func (a *patchApplier) VisitImageGrid(b *ImageGrid) {
	if f := a.foreign("images", "gridColumns"); len(f) > 0 {
		a.mismatch(b.Type(), f...)
		return
	}
	nb := *b
	if a.patch.Images != nil {
		if len(a.patch.Images) == 0 {
			a.err = ErrLastImage
			return
		}
		nb.Images = append([]Image(nil), a.patch.Images...)
	}
	if a.patch.GridColumns != nil {
		if *a.patch.GridColumns < 1 {
			a.err = fmt.Errorf("%w: grid columns %d", ErrColumnsRange, *a.patch.GridColumns)
			return
		}
		nb.Columns = *a.patch.GridColumns
	}
	a.out = &nb
}

func (a *patchApplier) VisitTable(b *Table) {
	if f := a.foreign("cells"); len(f) > 0 {
		a.mismatch(b.Type(), f...)
		return
	}
	nb := *b
	if a.patch.Cells != nil {
		if err := CheckCells(a.patch.Cells); err != nil {
			a.err = err
			return
		}
		nb.Cells = CopyCells(a.patch.Cells)
	}
	a.out = &nb
}

func (a *patchApplier) VisitLayout(b *Layout) {
	if f := a.foreign("columns"); len(f) > 0 {
		a.mismatch(b.Type(), f...)
		return
	}
	nb := *b
	if a.patch.Columns != nil {
		n := *a.patch.Columns
		if n < 1 || n > MaxLayoutColumns {
			a.err = fmt.Errorf("%w: layout columns %d", ErrColumnsRange, n)
			return
		}
		nb.Columns = n
		nb.Children = ResizeColumns(b.Children, n)
	}
	a.out = &nb
}

// ResizeColumns keeps the first n columns of children and pads with empty
// lists. Blocks in dropped columns are discarded.
func ResizeColumns(children [][]Block, n int) [][]Block {
	out := make([][]Block, n)
	for j := range out {
		if j < len(children) {
			out[j] = children[j]
		} else {
			out[j] = []Block{}
		}
	}
	return out
}

// CheckCells verifies that cells has at least one row and one column and
// that every row has the same length.
func CheckCells(cells [][]string) error {
	if len(cells) == 0 {
		return ErrLastRow
	}
	width := len(cells[0])
	if width == 0 {
		return ErrLastColumn
	}
	for i, row := range cells {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRagged, i, len(row), width)
		}
	}
	return nil
}

// CopyCells returns a deep copy of cells.
func CopyCells(cells [][]string) [][]string {
	out := make([][]string, len(cells))
	for i, row := range cells {
		out[i] = append([]string(nil), row...)
	}
	return out
}
