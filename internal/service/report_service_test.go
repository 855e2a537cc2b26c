package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"reports/internal/domain"
	"reports/internal/drag"
	"reports/internal/service"
)

func TestScenario_DragTextOutOfLayout(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)

	tr, err := svc.Tree(ctx, sec)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if diff := cmp.Diff([]domain.BlockType{domain.BlockTypeLayout}, rootTypes(tr)); diff != "" {
		t.Fatalf("seed (-want +got):\n%s", diff)
	}

	tr, textID, err := svc.AddBlock(ctx, sec, domain.BlockTypeText, domain.Path{0, 0})
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if p, _ := tr.FindPath(textID); !p.Equal(domain.Path{0, 0, 0}) {
		t.Fatalf("text path = %v", p)
	}

	if err := svc.DragStart(ctx, sec, textID); err != nil {
		t.Fatalf("DragStart: %v", err)
	}
	if err := svc.DragOver(ctx, sec, domain.Path{1}); err != nil {
		t.Fatalf("DragOver: %v", err)
	}
	tr, err = svc.Drop(ctx, sec)
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}

	want := []domain.BlockType{domain.BlockTypeLayout, domain.BlockTypeText}
	if diff := cmp.Diff(want, rootTypes(tr)); diff != "" {
		t.Errorf("after drop (-want +got):\n%s", diff)
	}
	if l := tr.Blocks()[0].(*domain.Layout); len(l.Children[0]) != 0 {
		t.Errorf("layout column should be empty, got %d blocks", len(l.Children[0]))
	}
	if state, _, _ := svc.DragState(sec); state != drag.Idle {
		t.Errorf("drag state = %v, want idle", state)
	}
}

func TestMutationsReplaceWholeField(t *testing.T) {
	ctx := context.Background()
	svc, emitter, mem := newService(t)
	sec := newSection(t, svc)

	tr, id, err := svc.AddBlock(ctx, sec, domain.BlockTypeTable, nil)
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if _, err := svc.AddRow(ctx, sec, id); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	tr, err = svc.RemoveColumn(ctx, sec, id, 1)
	if err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	tr, err = svc.SetCell(ctx, sec, id, 1, 0, "a")
	if err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	raw, err := mem.GetField(ctx, sec)
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	stored, err := domain.UnmarshalBlocks(raw)
	if err != nil {
		t.Fatalf("stored value does not decode: %v", err)
	}
	if len(stored) != tr.Len() {
		t.Fatalf("stored %d blocks, tree has %d", len(stored), tr.Len())
	}
	table := stored[1].(*domain.Table)
	if diff := cmp.Diff([][]string{{"Header 1"}, {"a"}, {""}}, table.Cells); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
	if n := len(emitter.Named(service.EventSectionUpdated)); n != 4 {
		t.Errorf("section:updated events = %d, want 4", n)
	}
}

func TestRefusalsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, emitter, _ := newService(t)
	sec := newSection(t, svc)
	_, id, _ := svc.AddBlock(ctx, sec, domain.BlockTypeTable, nil)
	before := len(emitter.Named(service.EventSectionUpdated))

	_, err := svc.RemoveRow(ctx, sec, id, 5)
	wantKind(t, err, domain.KindAddressing)

	_, err = svc.UpdateBlock(ctx, sec, id, domain.Patch{Content: strp("x")})
	wantKind(t, err, domain.KindRefusal)

	_, err = svc.UpdateBlock(ctx, sec, "ghost", domain.Patch{Content: strp("x")})
	wantKind(t, err, domain.KindAddressing)

	_, _, err = svc.AddBlock(ctx, sec, "chart", nil)
	wantKind(t, err, domain.KindConstruction)

	if after := len(emitter.Named(service.EventSectionUpdated)); after != before {
		t.Errorf("refused operations emitted %d updates", after-before)
	}
}

func TestLockedSection(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)
	tr, id, _ := svc.AddBlock(ctx, sec, domain.BlockTypeText, nil)

	if err := svc.DragStart(ctx, sec, id); err != nil {
		t.Fatalf("DragStart: %v", err)
	}
	locked, err := svc.ToggleLock(ctx, sec)
	if err != nil || !locked {
		t.Fatalf("ToggleLock = %v, %v", locked, err)
	}
	if state, _, _ := svc.DragState(sec); state != drag.Idle {
		t.Errorf("lock should cancel the drag, state = %v", state)
	}

	got, err := svc.DeleteBlock(ctx, sec, id)
	if !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("DeleteBlock err = %v", err)
	}
	if got.Count() != tr.Count() {
		t.Error("locked delete changed the tree")
	}
	if err := svc.DragStart(ctx, sec, id); !errors.Is(err, domain.ErrLocked) {
		t.Errorf("DragStart err = %v", err)
	}
	if err := svc.SetSectionTitle(ctx, sec, "x"); !errors.Is(err, domain.ErrLocked) {
		t.Errorf("SetSectionTitle err = %v", err)
	}
	if err := svc.DeleteSection(ctx, sec); !errors.Is(err, domain.ErrLocked) {
		t.Errorf("DeleteSection err = %v", err)
	}

	if err := svc.SetLocked(ctx, sec, false); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := svc.DeleteBlock(ctx, sec, id); err != nil {
		t.Errorf("DeleteBlock after unlock: %v", err)
	}
}

func TestDropOnStaleTargetAborts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)
	_, a, _ := svc.AddBlock(ctx, sec, domain.BlockTypeText, nil)
	_, b, _ := svc.AddBlock(ctx, sec, domain.BlockTypeSubheader, nil)

	if err := svc.DragStart(ctx, sec, a); err != nil {
		t.Fatal(err)
	}
	if err := svc.DragOver(ctx, sec, domain.Path{2}); err != nil {
		t.Fatal(err)
	}
	// A competing edit removes the hovered block before the drop.
	if _, err := svc.DeleteBlock(ctx, sec, b); err != nil {
		t.Fatal(err)
	}
	tr, err := svc.Drop(ctx, sec)
	if !errors.Is(err, domain.ErrStaleTarget) {
		t.Fatalf("Drop err = %v", err)
	}
	if p, _ := tr.FindPath(a); !p.Equal(domain.Path{1}) {
		t.Errorf("source moved to %v", p)
	}
	if state, _, _ := svc.DragState(sec); state != drag.Idle {
		t.Errorf("state = %v", state)
	}
}

func TestImages(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)
	tr, id, _ := svc.AddBlock(ctx, sec, domain.BlockTypeImageGrid, domain.Path{0, 0})
	first := tr.Blocks()[0].(*domain.Layout).Children[0][0].(*domain.ImageGrid).Images[0].ID

	_, err := svc.RemoveImage(ctx, sec, id, first)
	if !errors.Is(err, domain.ErrLastImage) {
		t.Fatalf("RemoveImage last err = %v", err)
	}
	_, second, err := svc.AddImage(ctx, sec, id)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	tr, err = svc.UpdateImage(ctx, sec, id, second, strp("/tmp/site.png"), "Site")
	if err != nil {
		t.Fatalf("UpdateImage: %v", err)
	}
	tr, err = svc.RemoveImage(ctx, sec, id, first)
	if err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}
	b, _ := tr.GetByID(id)
	images := b.(*domain.ImageGrid).Images
	if len(images) != 1 || images[0].ID != second || images[0].Caption != "Site" {
		t.Errorf("images = %+v", images)
	}
}

func TestUpdateFieldValidatesSectionBlocks(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)

	err := svc.UpdateField(ctx, sec, json.RawMessage(`[{"id":"x","type":"chart"}]`))
	wantKind(t, err, domain.KindConstruction)

	err = svc.UpdateField(ctx, sec, json.RawMessage(`[{"id":"x","type":"text"},{"id":"x","type":"text"}]`))
	wantKind(t, err, domain.KindConstruction)

	if err := svc.UpdateField(ctx, sec, json.RawMessage(`[{"id":"x","type":"text","content":"hi"}]`)); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	tr, _ := svc.Tree(ctx, sec)
	if b, ok := tr.GetByID("x"); !ok || b.(*domain.Text).Content != "hi" {
		t.Errorf("tree after UpdateField = %v", tr.Blocks())
	}

	if err := svc.UpdateField(ctx, "scratch", json.RawMessage(`{"any":"thing"}`)); err != nil {
		t.Errorf("non-section key should accept any json: %v", err)
	}
}

func strp(s string) *string { return &s }
