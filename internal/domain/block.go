package domain

type BlockType string

const (
	BlockTypeText      BlockType = "text"
	BlockTypeSubheader BlockType = "subheader"
	BlockTypeImageGrid BlockType = "image_grid"
	BlockTypeTable     BlockType = "table"
	BlockTypeLayout    BlockType = "layout"
)

// BlockTypes lists every variant in the order the editor offers them.
var BlockTypes = []BlockType{
	BlockTypeText,
	BlockTypeSubheader,
	BlockTypeImageGrid,
	BlockTypeTable,
	BlockTypeLayout,
}

// Valid reports whether t names a known variant.
func (t BlockType) Valid() bool {
	for _, bt := range BlockTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// MaxLayoutColumns bounds Layout.Columns.
const MaxLayoutColumns = 3

// Block is one node of a report section. The set of implementations is
// closed: Text, Subheader, ImageGrid, Table and Layout.
//
// Blocks reachable from a snapshot are shared between snapshots and must
// not be modified in place. Mutations build new values.
type Block interface {
	BlockID() string
	Type() BlockType
	Accept(v Visitor)
	sealed()
}

// Visitor handles every variant. Adding a variant adds a method here, so
// every exhaustive switch in the module fails to compile until it is
// extended.
type Visitor interface {
	VisitText(b *Text)
	VisitSubheader(b *Subheader)
	VisitImageGrid(b *ImageGrid)
	VisitTable(b *Table)
	VisitLayout(b *Layout)
}

type Text struct {
	ID      string
	Content string
}

type Subheader struct {
	ID      string
	Content string
}

// Image is one cell of an ImageGrid. A nil Src is an empty slot.
type Image struct {
	ID      string  `json:"id"`
	Src     *string `json:"src"`
	Caption string  `json:"caption"`
}

type ImageGrid struct {
	ID      string
	Images  []Image
	Columns int
}

// Table holds a rectangular grid; the first row is rendered as the header.
type Table struct {
	ID    string
	Cells [][]string
}

// Layout owns Columns side-by-side column lists. len(Children) == Columns.
type Layout struct {
	ID       string
	Columns  int
	Children [][]Block
}

func (b *Text) BlockID() string      { return b.ID }
func (b *Subheader) BlockID() string { return b.ID }
func (b *ImageGrid) BlockID() string { return b.ID }
func (b *Table) BlockID() string     { return b.ID }
func (b *Layout) BlockID() string    { return b.ID }

func (*Text) Type() BlockType      { return BlockTypeText }
func (*Subheader) Type() BlockType { return BlockTypeSubheader }
func (*ImageGrid) Type() BlockType { return BlockTypeImageGrid }
func (*Table) Type() BlockType     { return BlockTypeTable }
func (*Layout) Type() BlockType    { return BlockTypeLayout }

func (b *Text) Accept(v Visitor)      { v.VisitText(b) }
func (b *Subheader) Accept(v Visitor) { v.VisitSubheader(b) }
func (b *ImageGrid) Accept(v Visitor) { v.VisitImageGrid(b) }
func (b *Table) Accept(v Visitor)     { v.VisitTable(b) }
func (b *Layout) Accept(v Visitor)    { v.VisitLayout(b) }

func (*Text) sealed()      {}
func (*Subheader) sealed() {}
func (*ImageGrid) sealed() {}
func (*Table) sealed()     {}
func (*Layout) sealed()    {}

// Rows returns the number of rows in the table.
func (b *Table) Rows() int { return len(b.Cells) }

// Cols returns the number of columns in the table.
func (b *Table) Cols() int {
	if len(b.Cells) == 0 {
		return 0
	}
	return len(b.Cells[0])
}

// Column returns the block list of column j, or nil when j is out of range.
func (b *Layout) Column(j int) []Block {
	if j < 0 || j >= len(b.Children) {
		return nil
	}
	return b.Children[j]
}
