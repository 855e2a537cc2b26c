package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Path locates a block: a root index followed by one (column, index) pair
// per layout level. Block paths have odd length. An even-length prefix
// (possibly empty) addresses a slot: the root list or one layout column.
type Path []int

// IsBlock reports whether p has the shape of a block path.
func (p Path) IsBlock() bool {
	if len(p)%2 == 0 {
		return false
	}
	return p.nonNegative()
}

// IsSlot reports whether p has the shape of a slot path.
func (p Path) IsSlot() bool {
	if len(p)%2 != 0 {
		return false
	}
	return p.nonNegative()
}

func (p Path) nonNegative() bool {
	for _, v := range p {
		if v < 0 {
			return false
		}
	}
	return true
}

// Slot returns the slot that contains the block at p.
func (p Path) Slot() Path {
	if len(p) == 0 {
		return nil
	}
	return p[: len(p)-1 : len(p)-1]
}

// Index returns the position of the block within its slot.
func (p Path) Index() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Depth returns the nesting level: 0 for root blocks.
func (p Path) Depth() int {
	if len(p) == 0 {
		return 0
	}
	return (len(p) - 1) / 2
}

// Child returns the path of block index within column col of the layout at p.
func (p Path) Child(col, index int) Path {
	out := make(Path, len(p), len(p)+2)
	copy(out, p)
	return append(out, col, index)
}

// Column returns the slot path of column col of the layout at p.
func (p Path) Column(col int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, col)
}

// At returns the path of the block at index within slot p.
func (p Path) At(index int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, index)
}

// Equal reports whether p and q address the same location.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p descends from (or equals) q.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	return p[:len(q)].Equal(q)
}

// Clone returns a copy that does not share storage with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// String renders p as dot-separated indices, e.g. "0.1.2".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

// ParsePath parses the String form. The empty string is the root slot.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	out := make(Path, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("parse path %q: %w", s, ErrInvalidPath)
		}
		out[i] = v
	}
	return out, nil
}
