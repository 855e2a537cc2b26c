package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Canonical defaults for new blocks.
const (
	DefaultSubheader   = "New Subheader"
	DefaultGridColumns = 2
)

// NewID returns a process-unique identifier with the given prefix.
// UUIDv7 mixes a millisecond timestamp with random bits, so two ids
// minted in the same tick still differ.
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "-" + id.String()
}

// NewImage returns an empty image slot.
func NewImage() Image {
	return Image{ID: NewID("img")}
}

// NewBlock builds the canonical default block for t. An unknown type is a
// construction error.
func NewBlock(t BlockType) (Block, error) {
	id := NewID("block")
	switch t {
	case BlockTypeText:
		return &Text{ID: id}, nil
	case BlockTypeSubheader:
		return &Subheader{ID: id, Content: DefaultSubheader}, nil
	case BlockTypeImageGrid:
		return &ImageGrid{ID: id, Images: []Image{NewImage()}, Columns: DefaultGridColumns}, nil
	case BlockTypeTable:
		return &Table{ID: id, Cells: [][]string{
			{"Header 1", "Header 2"},
			{"", ""},
		}}, nil
	case BlockTypeLayout:
		return &Layout{ID: id, Columns: 1, Children: [][]Block{{}}}, nil
	}
	return nil, Construction("new block", fmt.Errorf("%w: %q", ErrUnknownType, t))
}
