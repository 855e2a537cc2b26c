package blocktree_test

import (
	"errors"
	"testing"

	"reports/internal/blocktree"
	"reports/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────

// sample builds:
//
//	[0] h  subheader
//	[1] L  layout(2)
//	    col 0: a text
//	    col 1: t table, N layout(1) { deep text }
//	[2] z  text
func sample() *blocktree.Tree {
	return blocktree.New([]domain.Block{
		&domain.Subheader{ID: "h", Content: "Intro"},
		&domain.Layout{ID: "L", Columns: 2, Children: [][]domain.Block{
			{&domain.Text{ID: "a", Content: "left"}},
			{
				&domain.Table{ID: "t", Cells: [][]string{{"H1", "H2"}, {"a", "b"}}},
				&domain.Layout{ID: "N", Columns: 1, Children: [][]domain.Block{
					{&domain.Text{ID: "deep"}},
				}},
			},
		}},
		&domain.Text{ID: "z"},
	})
}

func ids(list []domain.Block) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.BlockID()
	}
	return out
}

func layout(t *testing.T, tr *blocktree.Tree, id string) *domain.Layout {
	t.Helper()
	b, ok := tr.GetByID(id)
	if !ok {
		t.Fatalf("block %s not found", id)
	}
	l, ok := b.(*domain.Layout)
	if !ok {
		t.Fatalf("block %s is %s, want layout", id, b.Type())
	}
	return l
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("error kind = %q, want %q (%v)", got, kind, err)
	}
}

// ─────────────────────────────────────────────────────────────
// Path resolution
// ─────────────────────────────────────────────────────────────

func TestFindPath(t *testing.T) {
	tr := sample()
	tests := []struct {
		id   string
		want domain.Path
	}{
		{"h", domain.Path{0}},
		{"L", domain.Path{1}},
		{"a", domain.Path{1, 0, 0}},
		{"t", domain.Path{1, 1, 0}},
		{"N", domain.Path{1, 1, 1}},
		{"deep", domain.Path{1, 1, 1, 0, 0}},
		{"z", domain.Path{2}},
	}
	for _, tt := range tests {
		got, ok := tr.FindPath(tt.id)
		if !ok {
			t.Errorf("FindPath(%s): not found", tt.id)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("FindPath(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
	if _, ok := tr.FindPath("missing"); ok {
		t.Error("FindPath(missing) should fail")
	}
}

func TestFindPath_GetRoundTrip(t *testing.T) {
	tr := sample()
	seen := 0
	tr.Walk(func(_ domain.Path, b domain.Block) bool {
		seen++
		p, ok := tr.FindPath(b.BlockID())
		if !ok {
			t.Fatalf("FindPath(%s) failed", b.BlockID())
		}
		got, ok := tr.Get(p)
		if !ok || got.BlockID() != b.BlockID() {
			t.Errorf("Get(FindPath(%s)) = %v, %v", b.BlockID(), got, ok)
		}
		return true
	})
	if seen != tr.Count() || seen != 7 {
		t.Errorf("walked %d blocks, Count() = %d, want 7", seen, tr.Count())
	}
}

func TestGet_StalePaths(t *testing.T) {
	tr := sample()
	stale := []domain.Path{
		{},
		{3},
		{0, 0},
		{0, 0, 0},       // subheader has no columns
		{1, 2, 0},       // layout has two columns
		{1, 0, 1},       // column 0 has one block
		{1, 1, 1, 0, 1}, // nested column has one block
		{-1},
	}
	for _, p := range stale {
		if b, ok := tr.Get(p); ok {
			t.Errorf("Get(%v) = %s, want not found", p, b.BlockID())
		}
	}
}

func TestFindPath_DuplicateIDsResolveDepthFirst(t *testing.T) {
	tr := blocktree.New([]domain.Block{
		&domain.Layout{ID: "L", Columns: 2, Children: [][]domain.Block{
			{},
			{&domain.Text{ID: "dup", Content: "nested"}},
		}},
		&domain.Text{ID: "dup", Content: "root"},
	})
	p, _ := tr.FindPath("dup")
	if !p.Equal(domain.Path{0, 1, 0}) {
		t.Errorf("FindPath(dup) = %v, want [0 1 0]", p)
	}
	if err := tr.Validate(); !errors.Is(err, domain.ErrDuplicateIDs) {
		t.Errorf("Validate() = %v, want ErrDuplicateIDs", err)
	}
	if err := sample().Validate(); err != nil {
		t.Errorf("Validate(sample) = %v", err)
	}
}

func TestSlotOwner(t *testing.T) {
	tr := sample()
	l, col, ok := tr.SlotOwner(domain.Path{1, 1, 1, 0})
	if !ok || l.ID != "N" || col != 0 {
		t.Errorf("SlotOwner = %v, %d, %v", l, col, ok)
	}
	if l, _, ok := tr.SlotOwner(domain.Path{}); !ok || l != nil {
		t.Errorf("root slot owner = %v, %v", l, ok)
	}
	if _, _, ok := tr.SlotOwner(domain.Path{0, 0}); ok {
		t.Error("subheader should not own a slot")
	}
}
