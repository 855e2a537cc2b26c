package blocktree

import (
	"fmt"

	"reports/internal/domain"
)

// Table row and column operations replace the whole cells grid of the
// table with the given id. Every result stays rectangular.

// AddRow appends an empty row.
func (t *Tree) AddRow(id string) (*Tree, error) {
	return t.editCells("add row", id, func(cells [][]string) ([][]string, error) {
		return append(cells, make([]string, len(cells[0]))), nil
	})
}

// RemoveRow deletes row i. Removing the only row is refused.
func (t *Tree) RemoveRow(id string, i int) (*Tree, error) {
	return t.editCells("remove row", id, func(cells [][]string) ([][]string, error) {
		if i < 0 || i >= len(cells) {
			return nil, domain.Addressing("remove row", fmt.Errorf("%w: row %d of %d", domain.ErrOutOfRange, i, len(cells)))
		}
		if len(cells) == 1 {
			return nil, domain.ErrLastRow
		}
		return append(cells[:i], cells[i+1:]...), nil
	})
}

// AddColumn appends an empty column to every row.
func (t *Tree) AddColumn(id string) (*Tree, error) {
	return t.editCells("add column", id, func(cells [][]string) ([][]string, error) {
		for r := range cells {
			cells[r] = append(cells[r], "")
		}
		return cells, nil
	})
}

// RemoveColumn deletes column j from every row. Removing the only column
// is refused.
func (t *Tree) RemoveColumn(id string, j int) (*Tree, error) {
	return t.editCells("remove column", id, func(cells [][]string) ([][]string, error) {
		width := len(cells[0])
		if j < 0 || j >= width {
			return nil, domain.Addressing("remove column", fmt.Errorf("%w: column %d of %d", domain.ErrOutOfRange, j, width))
		}
		if width == 1 {
			return nil, domain.ErrLastColumn
		}
		for r, row := range cells {
			cells[r] = append(row[:j], row[j+1:]...)
		}
		return cells, nil
	})
}

// SetCell replaces the text of one cell.
func (t *Tree) SetCell(id string, row, col int, value string) (*Tree, error) {
	return t.editCells("set cell", id, func(cells [][]string) ([][]string, error) {
		if row < 0 || row >= len(cells) || col < 0 || col >= len(cells[row]) {
			return nil, domain.Addressing("set cell", fmt.Errorf("%w: cell %d,%d", domain.ErrOutOfRange, row, col))
		}
		cells[row][col] = value
		return cells, nil
	})
}

// editCells hands fn a private copy of the table's cells and stores the
// result through a cells patch, so the rectangular check applies.
func (t *Tree) editCells(op, id string, fn func([][]string) ([][]string, error)) (*Tree, error) {
	return t.updateBlock(op, id, func(b domain.Block) (domain.Block, error) {
		tb, ok := b.(*domain.Table)
		if !ok {
			return nil, domain.Refusal(op, fmt.Errorf("%w: %s is %s", domain.ErrFieldMismatch, id, b.Type()))
		}
		cells, err := fn(domain.CopyCells(tb.Cells))
		if err != nil {
			if domain.KindOf(err) != "" {
				return nil, err
			}
			return nil, domain.Refusal(op, err)
		}
		return domain.Patch{Cells: cells}.Apply(tb)
	})
}
