package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"reports/internal/domain"
)

// Checkpoint stores the current report and prunes old checkpoints.
func (s *ReportService) Checkpoint(ctx context.Context, label string) (*domain.Checkpoint, error) {
	s.mu.Lock()
	r, err := s.reportLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	return s.saveCheckpoint(ctx, label, data)
}

func (s *ReportService) saveCheckpoint(ctx context.Context, label string, data []byte) (*domain.Checkpoint, error) {
	c := &domain.Checkpoint{
		ID:        domain.NewID("ckpt"),
		Label:     label,
		Report:    data,
		CreatedAt: time.Now(),
	}
	if err := s.checkpoints.SaveCheckpoint(ctx, c); err != nil {
		return nil, err
	}
	if removed, err := s.checkpoints.PruneCheckpoints(ctx, s.keep); err != nil {
		s.log.Warn("prune checkpoints", "err", err)
	} else if removed > 0 {
		s.log.Debug("pruned checkpoints", "removed", removed, "keep", s.keep)
	}
	s.emitter.Emit(ctx, EventCheckpointSaved, map[string]any{"id": c.ID, "label": label})
	return c, nil
}

// ListCheckpoints returns checkpoints newest first.
func (s *ReportService) ListCheckpoints(ctx context.Context) ([]domain.Checkpoint, error) {
	return s.checkpoints.ListCheckpoints(ctx)
}

// RestoreCheckpoint replaces the document by a stored checkpoint. The
// current document is checkpointed first so the restore can be reverted.
func (s *ReportService) RestoreCheckpoint(ctx context.Context, id string) error {
	c, err := s.checkpoints.GetCheckpoint(ctx, id)
	if err != nil {
		return err
	}
	var r domain.Report
	if err := json.Unmarshal(c.Report, &r); err != nil {
		return fmt.Errorf("decode checkpoint %s: %w", id, err)
	}
	if _, err := s.Checkpoint(ctx, "before restore"); err != nil {
		return err
	}
	if err := s.ImportReport(ctx, &r); err != nil {
		return err
	}
	s.log.Info("checkpoint restored", "id", id, "label", c.Label)
	return nil
}

// ── Autosave ───────────────────────────────────────────────

// Autosaver checkpoints the report on a cron schedule, skipping runs where
// nothing changed since the last checkpoint it wrote.
type Autosaver struct {
	svc   *ReportService
	cron  *cron.Cron
	log   *log.Logger
	guard runningJobsGuard
	last  []byte
}

// NewAutosaver schedules autosaves. schedule is a cron spec such as
// "@every 5m" or "*/10 * * * *".
func NewAutosaver(svc *ReportService, schedule string) (*Autosaver, error) {
	a := &Autosaver{
		svc:  svc,
		cron: cron.New(),
		log:  svc.log.WithPrefix("autosave"),
	}
	if _, err := a.cron.AddFunc(schedule, func() { a.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid autosave schedule %q: %w", schedule, err)
	}
	return a, nil
}

// Start begins the schedule in its own goroutine.
func (a *Autosaver) Start() {
	a.cron.Start()
	a.log.Debug("started", "entries", len(a.cron.Entries()))
}

// Stop halts the schedule and waits for a running autosave or ctx.
func (a *Autosaver) Stop(ctx context.Context) {
	done := a.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	a.guard.WaitAll(ctx)
}

// Run performs one autosave. It reports whether a checkpoint was written.
func (a *Autosaver) Run(ctx context.Context) bool {
	if !a.guard.TryLock("autosave") {
		return false
	}
	defer a.guard.Unlock("autosave")

	a.svc.mu.Lock()
	r, err := a.svc.reportLocked(ctx)
	a.svc.mu.Unlock()
	if err != nil {
		a.log.Error("load report", "err", err)
		return false
	}
	data, err := json.Marshal(r)
	if err != nil {
		a.log.Error("encode report", "err", err)
		return false
	}
	if bytes.Equal(data, a.last) {
		return false
	}
	c, err := a.svc.saveCheckpoint(ctx, "autosave", data)
	if err != nil {
		a.log.Error("save checkpoint", "err", err)
		return false
	}
	a.last = data
	a.log.Info("checkpoint saved", "id", c.ID)
	return true
}
