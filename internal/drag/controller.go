// Package drag implements the drag-to-reorder interaction as an explicit
// state machine over block tree snapshots.
//
//	idle ──DragStart──▶ dragging ──DragOver──▶ armed ──Drop──▶ idle
//	                       │                    │ ▲
//	                       └──Cancel / Drop─────┴─┘ DragOver
//
// The controller never modifies a tree. Drop hands the recorded source and
// target to blocktree.Tree.Move and returns the resulting snapshot.
package drag

import (
	"fmt"

	"reports/internal/blocktree"
	"reports/internal/domain"
)

// State is the controller's current phase.
type State int

const (
	Idle State = iota
	Dragging
	Armed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Armed:
		return "armed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// anchor remembers what the hovered target referred to, so a drop can tell
// whether the path still means the same place.
type anchor struct {
	blockID string // block at the target path, if any
	ownerID string // layout owning the target slot; "" for the root
	column  int
	slotLen int // for end-of-slot targets
}

// Controller tracks one in-flight drag. The zero value is idle.
type Controller struct {
	state  State
	source string
	target domain.Path
	anchor anchor
}

// State returns the current phase.
func (c *Controller) State() State { return c.state }

// Source returns the id of the dragged block, or "" when idle.
func (c *Controller) Source() string { return c.source }

// Target returns the last hovered path, or nil unless armed.
func (c *Controller) Target() domain.Path { return c.target.Clone() }

// DragStart begins dragging blockID. Starting while another drag is in
// flight replaces it. A locked document refuses to start.
func (c *Controller) DragStart(blockID string, locked bool) error {
	if locked {
		return domain.Refusal("drag start", domain.ErrLocked)
	}
	c.reset()
	c.state = Dragging
	c.source = blockID
	return nil
}

// DragOver records path as the drop target. The last hover wins. The path
// must address a block in t or the end of one of its slots.
func (c *Controller) DragOver(t *blocktree.Tree, path domain.Path) error {
	const op = "drag over"
	if c.state == Idle {
		return domain.Refusal(op, domain.ErrNotDragging)
	}
	a, ok := anchorFor(t, path)
	if !ok {
		return domain.Addressing(op, fmt.Errorf("%w: %v", domain.ErrStalePath, path))
	}
	c.state = Armed
	c.target = path.Clone()
	c.anchor = a
	return nil
}

// Drop commits the move when armed and returns the new snapshot. The target
// is checked against t first: if the hovered block moved away, or the
// hovered slot changed, the drag is aborted with ErrStaleTarget and t is
// returned unchanged. Dropping while merely dragging aborts without error.
// The controller is idle afterwards in every case.
func (c *Controller) Drop(t *blocktree.Tree) (*blocktree.Tree, error) {
	const op = "drop"
	defer c.reset()

	switch c.state {
	case Idle:
		return t, domain.Refusal(op, domain.ErrNotDragging)
	case Dragging:
		return t, nil
	}

	current, ok := anchorFor(t, c.target)
	if !ok || current != c.anchor {
		return t, domain.Addressing(op, fmt.Errorf("%w: %v", domain.ErrStaleTarget, c.target))
	}
	return t.Move(c.source, c.target)
}

// Cancel aborts any drag without touching the tree.
func (c *Controller) Cancel() { c.reset() }

func (c *Controller) reset() {
	*c = Controller{}
}

func anchorFor(t *blocktree.Tree, path domain.Path) (anchor, bool) {
	if !path.IsBlock() {
		return anchor{}, false
	}
	owner, col, ok := t.SlotOwner(path.Slot())
	if !ok {
		return anchor{}, false
	}
	a := anchor{column: col}
	if owner != nil {
		a.ownerID = owner.ID
	}
	if b, ok := t.Get(path); ok {
		a.blockID = b.BlockID()
		return a, true
	}
	n, _ := t.SlotLen(path.Slot())
	if path.Index() != n {
		return anchor{}, false
	}
	a.slotLen = n
	return a, true
}
