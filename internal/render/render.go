// Package render projects block trees into a presentation tree and writes
// that presentation to Markdown, PDF and the terminal.
//
// Render mirrors the block tree exactly: every layout yields one Region per
// column, and every Region and Element carries the path it had in the
// snapshot being rendered. Editor affordances are closures over those
// paths and ids; they are left nil in printable output, which is what the
// export sinks consume.
package render

import (
	"reports/internal/blocktree"
	"reports/internal/domain"
)

// Callbacks receive the user's editing intents. Any of them may be nil.
type Callbacks struct {
	OnUpdate    func(blockID string, patch domain.Patch)
	OnAdd       func(t domain.BlockType, parent domain.Path)
	OnDelete    func(blockID string)
	OnDragStart func(blockID string)
	OnDragOver  func(path domain.Path)
	OnDrop      func()
}

// Region is one block list: the root of a section or a layout column.
type Region struct {
	Path   domain.Path // slot path
	Blocks []*Element

	// Editor affordances. Nil when printable.
	Add     func(t domain.BlockType)
	DropEnd func() // hover the position after the last block
	Drop    func()
}

// Editable reports whether the region carries editor affordances.
func (r *Region) Editable() bool { return r.Add != nil }

// Element is one rendered block.
type Element struct {
	ID      string
	Type    domain.BlockType
	Path    domain.Path
	Block   domain.Block
	Columns []*Region // layout only

	// Editor affordances. Nil when printable.
	Update    func(patch domain.Patch)
	Delete    func()
	DragStart func()
	DragOver  func()
	Drop      func()
}

type options struct {
	printable bool
	locked    bool
}

// Option adjusts rendering.
type Option func(*options)

// Printable drops every editor affordance.
func Printable() Option { return func(o *options) { o.printable = true } }

// Locked renders content without structural affordances (add, delete,
// drag). Field edits stay wired; the host refuses them for locked sections.
func Locked(locked bool) Option { return func(o *options) { o.locked = locked } }

// Render walks t and returns the root region. Paths are taken from t, so a
// tree must be re-rendered after every mutation.
func Render(t *blocktree.Tree, cb Callbacks, opts ...Option) *Region {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := &renderer{cb: cb, opts: o}
	return r.region(domain.Path{}, t.Blocks())
}

// Print renders t without editor affordances.
func Print(t *blocktree.Tree) *Region {
	return Render(t, Callbacks{}, Printable())
}

type renderer struct {
	cb   Callbacks
	opts options
}

func (r *renderer) structural() bool { return !r.opts.printable && !r.opts.locked }

func (r *renderer) region(slot domain.Path, list []domain.Block) *Region {
	reg := &Region{Path: slot.Clone(), Blocks: make([]*Element, 0, len(list))}
	for i, b := range list {
		reg.Blocks = append(reg.Blocks, r.element(slot.At(i), b))
	}
	if r.structural() {
		parent := slot.Clone()
		end := slot.At(len(list))
		reg.Add = func(t domain.BlockType) { call2(r.cb.OnAdd, t, parent) }
		reg.DropEnd = func() { call1(r.cb.OnDragOver, end) }
		reg.Drop = func() { call0(r.cb.OnDrop) }
	}
	return reg
}

func (r *renderer) element(p domain.Path, b domain.Block) *Element {
	el := &Element{ID: b.BlockID(), Type: b.Type(), Path: p, Block: b}
	if l, ok := b.(*domain.Layout); ok {
		el.Columns = make([]*Region, len(l.Children))
		for j, col := range l.Children {
			el.Columns[j] = r.region(p.Column(j), col)
		}
	}
	if r.opts.printable {
		return el
	}
	id := b.BlockID()
	el.Update = func(patch domain.Patch) { call2(r.cb.OnUpdate, id, patch) }
	if r.structural() {
		el.Delete = func() { call1(r.cb.OnDelete, id) }
		el.DragStart = func() { call1(r.cb.OnDragStart, id) }
		el.DragOver = func() { call1(r.cb.OnDragOver, p) }
		el.Drop = func() { call0(r.cb.OnDrop) }
	}
	return el
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}

func call1[A any](fn func(A), a A) {
	if fn != nil {
		fn(a)
	}
}

func call2[A, B any](fn func(A, B), a A, b B) {
	if fn != nil {
		fn(a, b)
	}
}

// ── Report pages ───────────────────────────────────────────

// Page is a printable report: meta fields and one region per section.
type Page struct {
	Title    string
	Meta     map[string]string
	Sections []SectionView
}

// SectionView is one rendered section.
type SectionView struct {
	ID    string
	Title string
	Body  *Region
}

// Report renders every section of r without editor affordances.
func Report(r *domain.Report) *Page {
	page := &Page{Title: r.Title(), Meta: r.Meta}
	for _, s := range r.Sections {
		page.Sections = append(page.Sections, SectionView{
			ID:    s.ID,
			Title: s.Title,
			Body:  Print(blocktree.New(s.Blocks)),
		})
	}
	return page
}

// Walk visits every element of reg depth-first.
func Walk(reg *Region, fn func(el *Element)) {
	for _, el := range reg.Blocks {
		fn(el)
		for _, col := range el.Columns {
			Walk(col, fn)
		}
	}
}
