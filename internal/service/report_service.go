package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"reports/internal/blocktree"
	"reports/internal/domain"
	"reports/internal/drag"
)

// DefaultCheckpointKeep is how many checkpoints are kept when unset.
const DefaultCheckpointKeep = 20

// Stores groups the persistence the service needs. storage.Memory
// satisfies all three; the SQLite stores are separate values.
type Stores struct {
	Fields      domain.FieldStore
	Sections    domain.SectionStore
	Checkpoints domain.CheckpointStore
}

// ReportService owns the host document state: sections, their block trees
// and report-level fields. Every block mutation loads the section's tree,
// applies one pure tree operation and, when the tree changed, replaces the
// whole value at the section's field key.
type ReportService struct {
	fields      domain.FieldStore
	sections    domain.SectionStore
	checkpoints domain.CheckpointStore
	emitter     EventEmitter
	log         *log.Logger

	// mu serializes load-mutate-store cycles and guards drags.
	mu    sync.Mutex
	drags map[string]*drag.Controller
	fills runningJobsGuard
	keep  int
}

// NewReportService creates a ReportService. A nil logger means log.Default().
func NewReportService(stores Stores, emitter EventEmitter, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Default()
	}
	if emitter == nil {
		emitter = LogEmitter{Logger: logger}
	}
	return &ReportService{
		fields:      stores.Fields,
		sections:    stores.Sections,
		checkpoints: stores.Checkpoints,
		emitter:     emitter,
		log:         logger,
		drags:       make(map[string]*drag.Controller),
		keep:        DefaultCheckpointKeep,
	}
}

// SetCheckpointKeep sets how many checkpoints Checkpoint retains.
func (s *ReportService) SetCheckpointKeep(n int) {
	if n > 0 {
		s.keep = n
	}
}

// ── Host fields ────────────────────────────────────────────

// UpdateField replaces the whole value stored at key. Values written to a
// section's block key must decode as a valid block list.
func (s *ReportService) UpdateField(ctx context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sections.GetSection(ctx, key); err == nil {
		blocks, err := domain.UnmarshalBlocks(value)
		if err != nil {
			return err
		}
		if err := blocktree.New(blocks).Validate(); err != nil {
			return err
		}
	} else if !errors.Is(err, domain.ErrSectionNotFound) {
		return err
	}
	return s.fields.UpdateField(ctx, key, value)
}

// Field returns the raw value at key.
func (s *ReportService) Field(ctx context.Context, key string) (json.RawMessage, error) {
	return s.fields.GetField(ctx, key)
}

func (s *ReportService) stringField(ctx context.Context, key string) (string, error) {
	raw, err := s.fields.GetField(ctx, key)
	if errors.Is(err, domain.ErrFieldNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("field %q is not a string: %w", key, err)
	}
	return v, nil
}

func (s *ReportService) setStringField(ctx context.Context, key, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.fields.UpdateField(ctx, key, raw)
}

// ── Trees ──────────────────────────────────────────────────

// Tree returns the current snapshot of a section's blocks.
func (s *ReportService) Tree(ctx context.Context, sectionID string) (*blocktree.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sections.GetSection(ctx, sectionID); err != nil {
		return nil, err
	}
	return s.loadTree(ctx, sectionID)
}

func (s *ReportService) loadTree(ctx context.Context, sectionID string) (*blocktree.Tree, error) {
	raw, err := s.fields.GetField(ctx, sectionID)
	if errors.Is(err, domain.ErrFieldNotFound) {
		return blocktree.Empty(), nil
	}
	if err != nil {
		return nil, err
	}
	blocks, err := domain.UnmarshalBlocks(raw)
	if err != nil {
		return nil, err
	}
	return blocktree.New(blocks), nil
}

func (s *ReportService) storeTree(ctx context.Context, sectionID string, t *blocktree.Tree) error {
	raw, err := domain.MarshalBlocks(t.Blocks())
	if err != nil {
		return err
	}
	return s.fields.UpdateField(ctx, sectionID, raw)
}

// mutate runs one tree operation against a section. Locked sections refuse.
// An operation that returns its input tree writes nothing.
func (s *ReportService) mutate(ctx context.Context, sectionID, op string, fn func(*blocktree.Tree) (*blocktree.Tree, error)) (*blocktree.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(ctx, sectionID, op, fn)
}

func (s *ReportService) mutateLocked(ctx context.Context, sectionID, op string, fn func(*blocktree.Tree) (*blocktree.Tree, error)) (*blocktree.Tree, error) {
	sec, err := s.sections.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	t, err := s.loadTree(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if sec.Locked {
		return t, domain.Refusal(op, domain.ErrLocked)
	}

	nt, err := fn(t)
	if err != nil {
		return t, err
	}
	if nt == t {
		return t, nil
	}
	if err := s.storeTree(ctx, sectionID, nt); err != nil {
		return t, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("section updated", "op", op, "section", sectionID, "blocks", nt.Count())
	s.emitter.Emit(ctx, EventSectionUpdated, map[string]any{
		"sectionId": sectionID,
		"op":        op,
		"blocks":    nt.Count(),
	})
	return nt, nil
}

// ── Block operations ───────────────────────────────────────

// UpdateBlock applies patch to the block with the given id.
func (s *ReportService) UpdateBlock(ctx context.Context, sectionID, blockID string, patch domain.Patch) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "update block", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.Update(blockID, patch)
	})
}

// AddBlock appends a default block of type bt to the slot at parent and
// returns the new block id.
func (s *ReportService) AddBlock(ctx context.Context, sectionID string, bt domain.BlockType, parent domain.Path) (*blocktree.Tree, string, error) {
	var id string
	t, err := s.mutate(ctx, sectionID, "add block", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		nt, newID, err := t.Add(bt, parent)
		id = newID
		return nt, err
	})
	return t, id, err
}

// DeleteBlock removes a block and its subtree.
func (s *ReportService) DeleteBlock(ctx context.Context, sectionID, blockID string) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "delete block", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.Delete(blockID)
	})
}

// MoveBlock moves a block before the position named by target.
func (s *ReportService) MoveBlock(ctx context.Context, sectionID, blockID string, target domain.Path) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "move block", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.Move(blockID, target)
	})
}

// AddRow appends an empty row to a table.
func (s *ReportService) AddRow(ctx context.Context, sectionID, blockID string) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "add row", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.AddRow(blockID)
	})
}

// RemoveRow deletes row i of a table.
func (s *ReportService) RemoveRow(ctx context.Context, sectionID, blockID string, i int) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "remove row", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.RemoveRow(blockID, i)
	})
}

// AddColumn appends an empty column to a table.
func (s *ReportService) AddColumn(ctx context.Context, sectionID, blockID string) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "add column", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.AddColumn(blockID)
	})
}

// RemoveColumn deletes column j of a table.
func (s *ReportService) RemoveColumn(ctx context.Context, sectionID, blockID string, j int) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "remove column", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.RemoveColumn(blockID, j)
	})
}

// SetCell writes one table cell.
func (s *ReportService) SetCell(ctx context.Context, sectionID, blockID string, row, col int, value string) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "set cell", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.SetCell(blockID, row, col, value)
	})
}

// AddImage appends an empty image to a grid and returns the image id.
func (s *ReportService) AddImage(ctx context.Context, sectionID, blockID string) (*blocktree.Tree, string, error) {
	var id string
	t, err := s.mutate(ctx, sectionID, "add image", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		nt, imgID, err := t.AddImage(blockID)
		id = imgID
		return nt, err
	})
	return t, id, err
}

// RemoveImage deletes one image from a grid.
func (s *ReportService) RemoveImage(ctx context.Context, sectionID, blockID, imageID string) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "remove image", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.RemoveImage(blockID, imageID)
	})
}

// UpdateImage sets the source and caption of one image.
func (s *ReportService) UpdateImage(ctx context.Context, sectionID, blockID, imageID string, src *string, caption string) (*blocktree.Tree, error) {
	return s.mutate(ctx, sectionID, "update image", func(t *blocktree.Tree) (*blocktree.Tree, error) {
		return t.UpdateImage(blockID, imageID, src, caption)
	})
}

// ── Drag ───────────────────────────────────────────────────

// controllerLocked returns the section's drag controller. s.mu must be held.
func (s *ReportService) controllerLocked(sectionID string) *drag.Controller {
	c, ok := s.drags[sectionID]
	if !ok {
		c = &drag.Controller{}
		s.drags[sectionID] = c
	}
	return c
}

func (s *ReportService) emitDrag(ctx context.Context, sectionID string, c *drag.Controller) {
	s.emitter.Emit(ctx, EventDragStateChanged, map[string]any{
		"sectionId": sectionID,
		"state":     c.State().String(),
		"source":    c.Source(),
		"target":    c.Target().String(),
	})
}

// DragStart begins dragging a block. Locked sections refuse.
func (s *ReportService) DragStart(ctx context.Context, sectionID, blockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.sections.GetSection(ctx, sectionID)
	if err != nil {
		return err
	}
	c := s.controllerLocked(sectionID)
	if err := c.DragStart(blockID, sec.Locked); err != nil {
		return err
	}
	s.emitDrag(ctx, sectionID, c)
	return nil
}

// DragOver records path as the candidate drop target.
func (s *ReportService) DragOver(ctx context.Context, sectionID string, path domain.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.loadTree(ctx, sectionID)
	if err != nil {
		return err
	}
	c := s.controllerLocked(sectionID)
	if err := c.DragOver(t, path); err != nil {
		return err
	}
	s.emitDrag(ctx, sectionID, c)
	return nil
}

// Drop commits the in-flight drag. The controller is idle afterwards.
func (s *ReportService) Drop(ctx context.Context, sectionID string) (*blocktree.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.controllerLocked(sectionID)
	defer func() {
		c.Cancel()
		s.emitDrag(ctx, sectionID, c)
	}()
	return s.mutateLocked(ctx, sectionID, "drop", c.Drop)
}

// CancelDrag aborts any drag in the section.
func (s *ReportService) CancelDrag(ctx context.Context, sectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.controllerLocked(sectionID)
	c.Cancel()
	s.emitDrag(ctx, sectionID, c)
}

// DragState returns the state, source and target of the section's drag.
func (s *ReportService) DragState(sectionID string) (drag.State, string, domain.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.controllerLocked(sectionID)
	return c.State(), c.Source(), c.Target()
}
