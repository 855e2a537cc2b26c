package service

import (
	"context"
	"sync"

	"reports/internal/domain"
	"reports/internal/render"
)

// Editor binds renderer callbacks for one section to the service. Callbacks
// cannot return errors, so the editor routes them: addressing failures and
// structural refusals are logged and reported as EventEditorRefused, leaving
// the document unchanged; construction errors are logged, reported as
// EventEditorError and kept for Err.
type Editor struct {
	svc     *ReportService
	ctx     context.Context
	section string

	mu  sync.Mutex
	err error
}

// Editor returns an editor for sectionID. ctx is used for every callback.
func (s *ReportService) Editor(ctx context.Context, sectionID string) *Editor {
	return &Editor{svc: s, ctx: ctx, section: sectionID}
}

// Err returns the last construction error raised by a callback.
func (e *Editor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Render loads the section and renders it with callbacks bound to this
// editor. Locked sections render without structural affordances.
func (e *Editor) Render() (*render.Region, error) {
	e.svc.mu.Lock()
	sec, err := e.svc.sections.GetSection(e.ctx, e.section)
	e.svc.mu.Unlock()
	if err != nil {
		return nil, err
	}
	t, err := e.svc.Tree(e.ctx, e.section)
	if err != nil {
		return nil, err
	}
	return render.Render(t, e.Callbacks(), render.Locked(sec.Locked)), nil
}

// Callbacks returns the renderer callbacks.
func (e *Editor) Callbacks() render.Callbacks {
	return render.Callbacks{
		OnUpdate: func(blockID string, patch domain.Patch) {
			_, err := e.svc.UpdateBlock(e.ctx, e.section, blockID, patch)
			e.handle("update block", blockID, err)
		},
		OnAdd: func(t domain.BlockType, parent domain.Path) {
			_, _, err := e.svc.AddBlock(e.ctx, e.section, t, parent)
			e.handle("add block", parent.String(), err)
		},
		OnDelete: func(blockID string) {
			_, err := e.svc.DeleteBlock(e.ctx, e.section, blockID)
			e.handle("delete block", blockID, err)
		},
		OnDragStart: func(blockID string) {
			e.handle("drag start", blockID, e.svc.DragStart(e.ctx, e.section, blockID))
		},
		OnDragOver: func(path domain.Path) {
			e.handle("drag over", path.String(), e.svc.DragOver(e.ctx, e.section, path))
		},
		OnDrop: func() {
			_, err := e.svc.Drop(e.ctx, e.section)
			e.handle("drop", "", err)
		},
	}
}

func (e *Editor) handle(op, target string, err error) {
	if err == nil {
		return
	}
	data := map[string]any{
		"sectionId": e.section,
		"op":        op,
		"target":    target,
		"error":     err.Error(),
	}
	if domain.IsLocal(err) {
		e.svc.log.Warn("edit refused", "op", op, "section", e.section, "block", target, "err", err)
		e.svc.emitter.Emit(e.ctx, EventEditorRefused, data)
		return
	}
	e.svc.log.Error("edit failed", "op", op, "section", e.section, "block", target, "err", err)
	e.svc.emitter.Emit(e.ctx, EventEditorError, data)
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}
