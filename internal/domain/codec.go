package domain

import (
	"encoding/json"
	"fmt"
)

// wireBlock is the JSON shape of every variant. Variant-specific keys are
// omitted when they do not apply.
type wireBlock struct {
	ID       string              `json:"id"`
	Type     BlockType           `json:"type"`
	Content  *string             `json:"content,omitempty"`
	Images   []Image             `json:"images,omitempty"`
	Columns  *int                `json:"columns,omitempty"`
	Cells    [][]string          `json:"cells,omitempty"`
	Children [][]json.RawMessage `json:"children,omitempty"`
}

// MarshalBlock encodes one block, including any nested columns.
func MarshalBlock(b Block) ([]byte, error) {
	w, err := toWire(b)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// MarshalBlocks encodes a block list as a JSON array. A nil list encodes
// as [].
func MarshalBlocks(blocks []Block) ([]byte, error) {
	raw, err := marshalList(blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

func marshalList(blocks []Block) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(blocks))
	for _, b := range blocks {
		data, err := MarshalBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func toWire(b Block) (*wireBlock, error) {
	w := &wireBlock{ID: b.BlockID(), Type: b.Type()}
	switch v := b.(type) {
	case *Text:
		w.Content = &v.Content
	case *Subheader:
		w.Content = &v.Content
	case *ImageGrid:
		w.Images = v.Images
		w.Columns = &v.Columns
	case *Table:
		w.Cells = v.Cells
	case *Layout:
		w.Columns = &v.Columns
		w.Children = make([][]json.RawMessage, len(v.Children))
		for j, col := range v.Children {
			raw, err := marshalList(col)
			if err != nil {
				return nil, err
			}
			w.Children[j] = raw
		}
	default:
		return nil, Construction("marshal block", fmt.Errorf("%w: %T", ErrUnknownType, b))
	}
	return w, nil
}

// UnmarshalBlock decodes and validates one block. Unknown types and shapes
// that break a block invariant are construction errors.
func UnmarshalBlock(data []byte) (Block, error) {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, Construction("unmarshal block", fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	return fromWire(&w)
}

// UnmarshalBlocks decodes a JSON array of blocks. null decodes as an
// empty list.
func UnmarshalBlocks(data []byte) ([]Block, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Construction("unmarshal blocks", fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	return unmarshalList(raw)
}

func unmarshalList(raw []json.RawMessage) ([]Block, error) {
	out := make([]Block, 0, len(raw))
	for _, r := range raw {
		b, err := UnmarshalBlock(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func fromWire(w *wireBlock) (Block, error) {
	malformed := func(format string, args ...any) error {
		return Construction("unmarshal block", fmt.Errorf("%w: %s: %s", ErrMalformed, w.ID, fmt.Sprintf(format, args...)))
	}
	if w.ID == "" {
		return nil, malformed("missing id")
	}
	switch w.Type {
	case BlockTypeText:
		return &Text{ID: w.ID, Content: deref(w.Content)}, nil
	case BlockTypeSubheader:
		return &Subheader{ID: w.ID, Content: deref(w.Content)}, nil
	case BlockTypeImageGrid:
		if len(w.Images) == 0 {
			return nil, malformed("image grid without images")
		}
		cols := DefaultGridColumns
		if w.Columns != nil {
			cols = *w.Columns
		}
		if cols < 1 {
			return nil, malformed("grid columns %d", cols)
		}
		return &ImageGrid{ID: w.ID, Images: w.Images, Columns: cols}, nil
	case BlockTypeTable:
		if err := CheckCells(w.Cells); err != nil {
			return nil, malformed("%v", err)
		}
		return &Table{ID: w.ID, Cells: w.Cells}, nil
	case BlockTypeLayout:
		if w.Columns == nil {
			return nil, malformed("layout without columns")
		}
		n := *w.Columns
		if n < 1 || n > MaxLayoutColumns || len(w.Children) != n {
			return nil, malformed("layout has %d columns and %d children", n, len(w.Children))
		}
		l := &Layout{ID: w.ID, Columns: n, Children: make([][]Block, n)}
		for j, raw := range w.Children {
			col, err := unmarshalList(raw)
			if err != nil {
				return nil, err
			}
			l.Children[j] = col
		}
		return l, nil
	}
	return nil, Construction("unmarshal block", fmt.Errorf("%w: %q", ErrUnknownType, w.Type))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
