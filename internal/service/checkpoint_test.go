package service_test

import (
	"context"
	"testing"

	"reports/internal/domain"
	"reports/internal/service"
)

func TestCheckpointRestore(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	svc.SetCheckpointKeep(2)
	if err := svc.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	_ = svc.SetMeta(ctx, domain.FieldTitle, "Before")

	c, err := svc.Checkpoint(ctx, "manual")
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	_ = svc.SetMeta(ctx, domain.FieldTitle, "After")
	if _, err := svc.CreateSection(ctx, "Extra"); err != nil {
		t.Fatal(err)
	}

	if err := svc.RestoreCheckpoint(ctx, c.ID); err != nil {
		t.Fatalf("RestoreCheckpoint: %v", err)
	}
	meta, _ := svc.Meta(ctx)
	if meta[domain.FieldTitle] != "Before" {
		t.Errorf("title = %q, want Before", meta[domain.FieldTitle])
	}
	secs, _ := svc.ListSections(ctx)
	if len(secs) != 2 {
		t.Errorf("sections = %d, want 2", len(secs))
	}

	list, err := svc.ListCheckpoints(ctx)
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(list) != 2 || list[0].Label != "before restore" || list[1].ID != c.ID {
		t.Errorf("checkpoints = %+v", list)
	}

	// A third checkpoint pushes the oldest out.
	if _, err := svc.Checkpoint(ctx, "again"); err != nil {
		t.Fatal(err)
	}
	list, _ = svc.ListCheckpoints(ctx)
	if len(list) != 2 || list[1].Label != "before restore" {
		t.Errorf("after prune = %+v", list)
	}
}

func TestRestoreUnknownCheckpoint(t *testing.T) {
	svc, _, _ := newService(t)
	if err := svc.RestoreCheckpoint(context.Background(), "nope"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAutosaverSkipsUnchangedReports(t *testing.T) {
	ctx := context.Background()
	svc, emitter, _ := newService(t)
	if err := svc.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	a, err := service.NewAutosaver(svc, "@every 1h")
	if err != nil {
		t.Fatalf("NewAutosaver: %v", err)
	}
	if !a.Run(ctx) {
		t.Fatal("first run should save")
	}
	if a.Run(ctx) {
		t.Error("unchanged report should be skipped")
	}
	_ = svc.SetMeta(ctx, domain.FieldLocation, "Dock 4")
	if !a.Run(ctx) {
		t.Error("changed report should save")
	}
	if n := len(emitter.Named(service.EventCheckpointSaved)); n != 2 {
		t.Errorf("checkpoint events = %d, want 2", n)
	}

	a.Start()
	a.Stop(ctx)
}

func TestAutosaverRejectsBadSchedule(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := service.NewAutosaver(svc, "every tuesday"); err == nil {
		t.Fatal("expected schedule error")
	}
}
