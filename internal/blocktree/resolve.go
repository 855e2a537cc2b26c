package blocktree

import (
	"fmt"

	"reports/internal/domain"
)

// FindPath returns the path of the block with the given id.
func (t *Tree) FindPath(id string) (domain.Path, bool) {
	t.buildIndex()
	p, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Contains reports whether a block with the given id is in the tree.
func (t *Tree) Contains(id string) bool {
	_, ok := t.FindPath(id)
	return ok
}

// Get re-walks p from the root. It returns false when p does not address a
// block in this snapshot, for example because the block was removed.
func (t *Tree) Get(p domain.Path) (domain.Block, bool) {
	if !p.IsBlock() {
		return nil, false
	}
	list, ok := t.slot(p.Slot())
	if !ok {
		return nil, false
	}
	i := p.Index()
	if i >= len(list) {
		return nil, false
	}
	return list[i], true
}

// GetByID returns the block with the given id.
func (t *Tree) GetByID(id string) (domain.Block, bool) {
	p, ok := t.FindPath(id)
	if !ok {
		return nil, false
	}
	return t.Get(p)
}

// SlotLen returns the number of blocks in the slot addressed by p.
func (t *Tree) SlotLen(p domain.Path) (int, bool) {
	list, ok := t.slot(p)
	if !ok {
		return 0, false
	}
	return len(list), true
}

// SlotOwner returns the layout that owns the slot at p and the column index.
// The root slot has no owner and reports ok with a nil layout.
func (t *Tree) SlotOwner(p domain.Path) (*domain.Layout, int, bool) {
	if !p.IsSlot() {
		return nil, 0, false
	}
	if len(p) == 0 {
		return nil, 0, true
	}
	b, ok := t.Get(p[:len(p)-1])
	if !ok {
		return nil, 0, false
	}
	l, ok := b.(*domain.Layout)
	col := p[len(p)-1]
	if !ok || col >= len(l.Children) {
		return nil, 0, false
	}
	return l, col, true
}

// slot resolves a slot path to its block list.
func (t *Tree) slot(p domain.Path) ([]domain.Block, bool) {
	return slotIn(t.roots, p)
}

func slotIn(roots []domain.Block, p domain.Path) ([]domain.Block, bool) {
	if !p.IsSlot() {
		return nil, false
	}
	list := roots
	for k := 0; k < len(p); k += 2 {
		i, col := p[k], p[k+1]
		if i >= len(list) {
			return nil, false
		}
		l, ok := list[i].(*domain.Layout)
		if !ok || col >= len(l.Children) {
			return nil, false
		}
		list = l.Children[col]
	}
	return list, true
}

// editSlot rebuilds the spine from the root down to the slot at p, letting
// fn produce the new block list for that slot. Lists and layouts along the
// spine are copied; everything else is shared with roots.
func editSlot(roots []domain.Block, p domain.Path, fn func([]domain.Block) ([]domain.Block, error)) ([]domain.Block, error) {
	if len(p) == 0 {
		return fn(roots)
	}
	if len(p) < 2 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPath, p)
	}
	i, col := p[0], p[1]
	if i < 0 || i >= len(roots) {
		return nil, fmt.Errorf("%w: %v", domain.ErrStalePath, p)
	}
	l, ok := roots[i].(*domain.Layout)
	if !ok {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotASlot, p)
	}
	if col < 0 || col >= len(l.Children) {
		return nil, fmt.Errorf("%w: column %d of %d", domain.ErrNotASlot, col, len(l.Children))
	}
	inner, err := editSlot(l.Children[col], p[2:], fn)
	if err != nil {
		return nil, err
	}
	nl := *l
	nl.Children = append([][]domain.Block(nil), l.Children...)
	nl.Children[col] = inner

	out := append([]domain.Block(nil), roots...)
	out[i] = &nl
	return out, nil
}

// editBlock replaces the block at p with the result of fn.
func editBlock(roots []domain.Block, p domain.Path, fn func(domain.Block) (domain.Block, error)) ([]domain.Block, error) {
	return editSlot(roots, p.Slot(), func(list []domain.Block) ([]domain.Block, error) {
		i := p.Index()
		if i < 0 || i >= len(list) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStalePath, p)
		}
		nb, err := fn(list[i])
		if err != nil {
			return nil, err
		}
		out := append([]domain.Block(nil), list...)
		out[i] = nb
		return out, nil
	})
}
