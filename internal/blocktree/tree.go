// Package blocktree holds immutable snapshots of a section's block tree
// and the path-addressed operations that derive new snapshots from them.
//
// A Tree is never modified after construction. Every mutation returns a
// new Tree that shares all untouched blocks with its input and copies only
// the blocks and lists along the touched path. On error the input Tree is
// returned unchanged together with a *domain.Error.
package blocktree

import (
	"fmt"
	"sync"

	"reports/internal/domain"
)

// Tree is one snapshot of a block list.
type Tree struct {
	roots []domain.Block

	indexOnce sync.Once
	index     map[string]domain.Path
	count     int
}

// New wraps blocks as a snapshot. The caller hands over ownership: neither
// the slice nor the blocks may be modified afterwards.
func New(blocks []domain.Block) *Tree {
	if blocks == nil {
		blocks = []domain.Block{}
	}
	return &Tree{roots: blocks}
}

// Empty returns a snapshot with no blocks.
func Empty() *Tree { return New(nil) }

// Blocks returns the root blocks. The returned slice is a copy; the blocks
// themselves are shared and must not be modified.
func (t *Tree) Blocks() []domain.Block {
	return append([]domain.Block(nil), t.roots...)
}

// Len returns the number of root blocks.
func (t *Tree) Len() int { return len(t.roots) }

// Count returns the number of blocks at every depth.
func (t *Tree) Count() int {
	t.buildIndex()
	return t.count
}

// buildIndex walks the tree once per snapshot. Ids are recorded on first
// sight in depth-first order (columns left to right, blocks top to
// bottom), so with duplicated ids the earliest occurrence wins.
func (t *Tree) buildIndex() {
	t.indexOnce.Do(func() {
		t.index = make(map[string]domain.Path)
		t.Walk(func(p domain.Path, b domain.Block) bool {
			t.count++
			if _, ok := t.index[b.BlockID()]; !ok {
				t.index[b.BlockID()] = p.Clone()
			}
			return true
		})
	})
}

// Walk visits every block depth-first, parents before children. Returning
// false from fn skips the block's subtree.
func (t *Tree) Walk(fn func(p domain.Path, b domain.Block) bool) {
	walkList(domain.Path{}, t.roots, fn)
}

func walkList(slot domain.Path, list []domain.Block, fn func(domain.Path, domain.Block) bool) {
	for i, b := range list {
		p := slot.At(i)
		if !fn(p, b) {
			continue
		}
		if l, ok := b.(*domain.Layout); ok {
			for j, col := range l.Children {
				walkList(p.Column(j), col, fn)
			}
		}
	}
}

// Validate reports the first duplicated id, if any.
func (t *Tree) Validate() error {
	seen := make(map[string]domain.Path)
	var err error
	t.Walk(func(p domain.Path, b domain.Block) bool {
		if err != nil {
			return false
		}
		if first, ok := seen[b.BlockID()]; ok {
			err = domain.Construction("validate tree",
				fmt.Errorf("%w: %s at %s and %s", domain.ErrDuplicateIDs, b.BlockID(), first, p))
			return false
		}
		seen[b.BlockID()] = p.Clone()
		return true
	})
	return err
}
