package blocktree

import (
	"fmt"

	"reports/internal/domain"
)

// classify tags bare resolution errors as addressing failures. Errors that
// already carry a kind pass through.
func classify(op string, err error) error {
	if domain.KindOf(err) != "" {
		return err
	}
	return domain.Addressing(op, err)
}

// Update replaces the block with the given id by a copy carrying patch.
func (t *Tree) Update(id string, patch domain.Patch) (*Tree, error) {
	return t.updateBlock("update block", id, patch.Apply)
}

// updateBlock resolves id and replaces its block with fn's result.
func (t *Tree) updateBlock(op, id string, fn func(domain.Block) (domain.Block, error)) (*Tree, error) {
	p, ok := t.FindPath(id)
	if !ok {
		return t, domain.Addressing(op, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, id))
	}
	roots, err := editBlock(t.roots, p, fn)
	if err != nil {
		return t, classify(op, err)
	}
	return New(roots), nil
}

// Add builds the default block for bt and appends it to the slot at parent.
// An empty parent is the root list; otherwise parent must name a layout
// column, e.g. [i, col] or [i, col, k, col2]. It returns the new block id.
func (t *Tree) Add(bt domain.BlockType, parent domain.Path) (*Tree, string, error) {
	b, err := domain.NewBlock(bt)
	if err != nil {
		return t, "", err
	}
	nt, err := t.Insert(b, parent.At(-1))
	if err != nil {
		return t, "", err
	}
	return nt, b.BlockID(), nil
}

// Insert places b in the slot of at, before the block currently at that
// index. An index equal to the slot length, or -1, appends. b and its
// descendants must not share ids with the tree.
func (t *Tree) Insert(b domain.Block, at domain.Path) (*Tree, error) {
	const op = "insert block"
	if len(at) == 0 || len(at)%2 == 0 {
		return t, domain.Addressing(op, fmt.Errorf("%w: %v", domain.ErrInvalidPath, at))
	}
	var collision string
	New([]domain.Block{b}).Walk(func(_ domain.Path, nb domain.Block) bool {
		if collision == "" && t.Contains(nb.BlockID()) {
			collision = nb.BlockID()
		}
		return collision == ""
	})
	if collision != "" {
		return t, domain.Construction(op, fmt.Errorf("%w: %s", domain.ErrDuplicateIDs, collision))
	}
	roots, err := editSlot(t.roots, at.Slot(), func(list []domain.Block) ([]domain.Block, error) {
		i := at.Index()
		if i == -1 {
			i = len(list)
		}
		if i < 0 || i > len(list) {
			return nil, fmt.Errorf("%w: index %d of %d", domain.ErrOutOfRange, i, len(list))
		}
		return insertAt(list, i, b), nil
	})
	if err != nil {
		return t, classify(op, err)
	}
	return New(roots), nil
}

// Delete removes the block with the given id. Deleting a layout removes
// its whole subtree.
func (t *Tree) Delete(id string) (*Tree, error) {
	const op = "delete block"
	p, ok := t.FindPath(id)
	if !ok {
		return t, domain.Addressing(op, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, id))
	}
	roots, err := editSlot(t.roots, p.Slot(), func(list []domain.Block) ([]domain.Block, error) {
		return removeAt(list, p.Index()), nil
	})
	if err != nil {
		return t, classify(op, err)
	}
	return New(roots), nil
}

// Move relocates the block with id sourceID so that it sits at target.
//
// target is interpreted against this snapshot: its slot is the list the
// block lands in and its index is the position of the block it will be
// placed before (the slot length appends). Both the source and the target
// slot are resolved here, before anything is removed. Moving to the
// source's own path is a no-op.
func (t *Tree) Move(sourceID string, target domain.Path) (*Tree, error) {
	const op = "move block"
	src, ok := t.FindPath(sourceID)
	if !ok {
		return t, domain.Addressing(op, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, sourceID))
	}
	if !target.IsBlock() {
		return t, domain.Addressing(op, fmt.Errorf("%w: %v", domain.ErrInvalidPath, target))
	}
	if src.Equal(target) {
		return t, nil
	}

	tSlot, tIdx := target.Slot(), target.Index()
	n, ok := t.SlotLen(tSlot)
	if !ok || tIdx > n {
		return t, domain.Addressing(op, fmt.Errorf("%w: %v", domain.ErrStalePath, target))
	}
	if tSlot.HasPrefix(src) {
		return t, domain.Refusal(op, fmt.Errorf("%w: %s", domain.ErrMoveIntoSelf, sourceID))
	}

	// The owner of the target slot is identified by id so it can be found
	// again after the source is removed.
	owner, col, _ := t.SlotOwner(tSlot)

	sSlot, sIdx := src.Slot(), src.Index()
	block, _ := t.Get(src)
	removed, err := editSlot(t.roots, sSlot, func(list []domain.Block) ([]domain.Block, error) {
		return removeAt(list, sIdx), nil
	})
	if err != nil {
		return t, classify(op, err)
	}

	if sSlot.Equal(tSlot) && sIdx < tIdx {
		tIdx--
	}
	dest := domain.Path{}
	if owner != nil {
		ownerPath, ok := New(removed).FindPath(owner.ID)
		if !ok {
			return t, domain.Addressing(op, fmt.Errorf("%w: %s", domain.ErrStalePath, owner.ID))
		}
		dest = ownerPath.Column(col)
	}

	roots, err := editSlot(removed, dest, func(list []domain.Block) ([]domain.Block, error) {
		if tIdx > len(list) {
			return nil, fmt.Errorf("%w: index %d of %d", domain.ErrOutOfRange, tIdx, len(list))
		}
		return insertAt(list, tIdx, block), nil
	})
	if err != nil {
		return t, classify(op, err)
	}
	return New(roots), nil
}

func insertAt(list []domain.Block, i int, b domain.Block) []domain.Block {
	out := make([]domain.Block, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, b)
	return append(out, list[i:]...)
}

func removeAt(list []domain.Block, i int) []domain.Block {
	out := make([]domain.Block, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
