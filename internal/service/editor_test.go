package service_test

import (
	"context"
	"testing"

	"reports/internal/domain"
	"reports/internal/render"
	"reports/internal/service"
)

func TestEditor_CallbacksDriveService(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	sec := newSection(t, svc)
	ed := svc.Editor(ctx, sec)

	reg, err := ed.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	reg.Blocks[0].Columns[0].Add(domain.BlockTypeText)
	reg.Add(domain.BlockTypeSubheader)

	reg, _ = ed.Render()
	if len(reg.Blocks) != 2 || len(reg.Blocks[0].Columns[0].Blocks) != 1 {
		t.Fatalf("unexpected structure after adds")
	}
	text := reg.Blocks[0].Columns[0].Blocks[0]
	text.Update(domain.Patch{Content: strp("<p>Hello</p>")})

	// Drag the text to the end of the root list.
	text.DragStart()
	reg.DropEnd()
	reg.Drop()

	reg, _ = ed.Render()
	var types []domain.BlockType
	for _, el := range reg.Blocks {
		types = append(types, el.Type)
	}
	if len(types) != 3 || types[2] != domain.BlockTypeText {
		t.Fatalf("root types = %v", types)
	}
	if got := reg.Blocks[2].Block.(*domain.Text).Content; got != "<p>Hello</p>" {
		t.Errorf("content = %q", got)
	}
	if ed.Err() != nil {
		t.Errorf("Err = %v", ed.Err())
	}
}

func TestEditor_SwallowsLocalErrors(t *testing.T) {
	ctx := context.Background()
	svc, emitter, _ := newService(t)
	sec := newSection(t, svc)
	ed := svc.Editor(ctx, sec)
	cb := ed.Callbacks()

	cb.OnUpdate("ghost", domain.Patch{Content: strp("x")})
	cb.OnAdd(domain.BlockTypeText, domain.Path{7, 0})
	cb.OnDragOver(domain.Path{0})
	cb.OnDrop()

	if n := len(emitter.Named(service.EventEditorRefused)); n != 4 {
		t.Errorf("editor:refused events = %d, want 4", n)
	}
	if ed.Err() != nil {
		t.Errorf("local errors must not surface: %v", ed.Err())
	}
	tr, _ := svc.Tree(ctx, sec)
	if tr.Count() != 1 {
		t.Errorf("tree changed: %d blocks", tr.Count())
	}
}

func TestEditor_SurfacesConstructionErrors(t *testing.T) {
	ctx := context.Background()
	svc, emitter, _ := newService(t)
	sec := newSection(t, svc)
	ed := svc.Editor(ctx, sec)

	ed.Callbacks().OnAdd("chart", nil)

	if domain.KindOf(ed.Err()) != domain.KindConstruction {
		t.Fatalf("Err = %v", ed.Err())
	}
	if len(emitter.Named(service.EventEditorError)) != 1 {
		t.Error("expected one editor:error event")
	}
}

func TestEditor_LockedRendersWithoutStructure(t *testing.T) {
	ctx := context.Background()
	svc, emitter, _ := newService(t)
	sec := newSection(t, svc)
	_, id, _ := svc.AddBlock(ctx, sec, domain.BlockTypeText, nil)
	if err := svc.SetLocked(ctx, sec, true); err != nil {
		t.Fatal(err)
	}

	ed := svc.Editor(ctx, sec)
	reg, err := ed.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if reg.Editable() {
		t.Error("locked region should not offer add")
	}
	var el *render.Element
	render.Walk(reg, func(e *render.Element) {
		if e.ID == id {
			el = e
		}
	})
	if el == nil || el.Delete != nil || el.DragStart != nil || el.Update == nil {
		t.Fatalf("locked element affordances wrong: %+v", el)
	}

	el.Update(domain.Patch{Content: strp("x")})
	if len(emitter.Named(service.EventEditorRefused)) != 1 {
		t.Error("update of locked section should be refused")
	}
}
