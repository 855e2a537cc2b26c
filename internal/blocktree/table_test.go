package blocktree_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"reports/internal/blocktree"
	"reports/internal/domain"
)

func cells(t *testing.T, tr *blocktree.Tree, id string) [][]string {
	t.Helper()
	b, ok := tr.GetByID(id)
	if !ok {
		t.Fatalf("table %s not found", id)
	}
	return b.(*domain.Table).Cells
}

func TestTable_AddRowThenRemoveColumn(t *testing.T) {
	tr := sample()

	tr, err := tr.AddRow("t")
	if err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	want := [][]string{{"H1", "H2"}, {"a", "b"}, {"", ""}}
	if diff := cmp.Diff(want, cells(t, tr, "t")); diff != "" {
		t.Errorf("after AddRow (-want +got):\n%s", diff)
	}

	tr, err = tr.RemoveColumn("t", 1)
	if err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	want = [][]string{{"H1"}, {"a"}, {""}}
	if diff := cmp.Diff(want, cells(t, tr, "t")); diff != "" {
		t.Errorf("after RemoveColumn (-want +got):\n%s", diff)
	}
}

func TestTable_OperationsKeepRectangle(t *testing.T) {
	tr := sample()
	ops := []func(*blocktree.Tree) (*blocktree.Tree, error){
		func(x *blocktree.Tree) (*blocktree.Tree, error) { return x.AddColumn("t") },
		func(x *blocktree.Tree) (*blocktree.Tree, error) { return x.AddRow("t") },
		func(x *blocktree.Tree) (*blocktree.Tree, error) { return x.RemoveRow("t", 0) },
		func(x *blocktree.Tree) (*blocktree.Tree, error) { return x.RemoveColumn("t", 0) },
		func(x *blocktree.Tree) (*blocktree.Tree, error) { return x.AddColumn("t") },
		func(x *blocktree.Tree) (*blocktree.Tree, error) { return x.SetCell("t", 1, 2, "v") },
	}
	for i, op := range ops {
		var err error
		tr, err = op(tr)
		if err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		if err := domain.CheckCells(cells(t, tr, "t")); err != nil {
			t.Fatalf("op %d left cells invalid: %v", i, err)
		}
	}
	want := [][]string{{"b", "", ""}, {"", "", "v"}}
	if diff := cmp.Diff(want, cells(t, tr, "t")); diff != "" {
		t.Errorf("final cells (-want +got):\n%s", diff)
	}
}

func TestTable_LastRowAndColumnRefused(t *testing.T) {
	tr := blocktree.New([]domain.Block{&domain.Table{ID: "one", Cells: [][]string{{"only"}}}})

	got, err := tr.RemoveRow("one", 0)
	wantKind(t, err, domain.KindRefusal)
	if !errors.Is(err, domain.ErrLastRow) || got != tr {
		t.Errorf("RemoveRow: %v", err)
	}

	got, err = tr.RemoveColumn("one", 0)
	wantKind(t, err, domain.KindRefusal)
	if !errors.Is(err, domain.ErrLastColumn) || got != tr {
		t.Errorf("RemoveColumn: %v", err)
	}
	if diff := cmp.Diff([][]string{{"only"}}, cells(t, tr, "one")); diff != "" {
		t.Errorf("cells changed (-want +got):\n%s", diff)
	}
}

func TestTable_BadTargets(t *testing.T) {
	tr := sample()

	_, err := tr.RemoveRow("t", 7)
	wantKind(t, err, domain.KindAddressing)

	_, err = tr.AddRow("a")
	wantKind(t, err, domain.KindRefusal)

	_, err = tr.AddRow("missing")
	wantKind(t, err, domain.KindAddressing)
}

func TestImages(t *testing.T) {
	g := &domain.ImageGrid{ID: "g", Columns: 2, Images: []domain.Image{{ID: "i1"}}}
	tr := blocktree.New([]domain.Block{g})

	got, err := tr.RemoveImage("g", "i1")
	wantKind(t, err, domain.KindRefusal)
	if !errors.Is(err, domain.ErrLastImage) || got != tr {
		t.Fatalf("RemoveImage last: %v", err)
	}

	tr, added, err := tr.AddImage("g")
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	src := "charts/usage.png"
	tr, err = tr.UpdateImage("g", added, &src, "Usage")
	if err != nil {
		t.Fatalf("UpdateImage: %v", err)
	}
	tr, err = tr.RemoveImage("g", "i1")
	if err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}

	b, _ := tr.GetByID("g")
	images := b.(*domain.ImageGrid).Images
	if len(images) != 1 || images[0].ID != added || images[0].Caption != "Usage" || *images[0].Src != src {
		t.Errorf("images = %+v", images)
	}
	if len(g.Images) != 1 || g.Images[0].ID != "i1" {
		t.Error("input grid was modified")
	}

	_, err = tr.RemoveImage("g", "nope")
	wantKind(t, err, domain.KindAddressing)
}
