package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"reports/internal/blocktree"
	"reports/internal/domain"
	"reports/internal/service"
	"reports/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func newService(t *testing.T) (*service.ReportService, *service.MockEmitter, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	emitter := &service.MockEmitter{}
	svc := service.NewReportService(service.Stores{Fields: mem, Sections: mem, Checkpoints: mem}, emitter, log.New(io.Discard))
	return svc, emitter, mem
}

// newSection creates a fresh section: one root layout with one empty column.
func newSection(t *testing.T, svc *service.ReportService) string {
	t.Helper()
	sec, err := svc.CreateSection(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSection: %v", err)
	}
	return sec.ID
}

func rootTypes(tr *blocktree.Tree) []domain.BlockType {
	var out []domain.BlockType
	for _, b := range tr.Blocks() {
		out = append(out, b.Type())
	}
	return out
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("error kind = %q, want %q (err: %v)", got, kind, err)
	}
}

// ─────────────────────────────────────────────────────────────
// RunningJobsGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("job-1") {
		t.Fatal("expected second TryLock for same job to fail")
	}
	if !g.TryLock("job-2") {
		t.Fatal("expected TryLock for different job to succeed")
	}
	g.Unlock("job-1")
	g.Unlock("job-2")

	if !g.TryLock("job-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("job-1")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("job-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
	if len(m.Named("test:event2")) != 1 {
		t.Error("Named should filter by event name")
	}
}
