package service

import (
	"context"
	"fmt"

	"reports/internal/blocktree"
	"reports/internal/dataset"
	"reports/internal/domain"
)

// FillTableInput names a dataset source and how to shape it.
type FillTableInput struct {
	SourceType string               `json:"sourceType"`
	Config     dataset.SourceConfig `json:"config"`
	Options    dataset.Options      `json:"options"`
}

// FillTable replaces a table block's cells by a header row plus the rows
// read from a dataset source. Only one fill per block runs at a time.
func (s *ReportService) FillTable(ctx context.Context, sectionID, blockID string, in FillTableInput) (*blocktree.Tree, *dataset.Frame, error) {
	key := sectionID + "/" + blockID
	if !s.fills.TryLock(key) {
		return nil, nil, fmt.Errorf("fill of %s is already running", blockID)
	}
	defer s.fills.Unlock(key)

	// Fail fast before reading the source.
	if t, err := s.Tree(ctx, sectionID); err != nil {
		return nil, nil, err
	} else if b, ok := t.GetByID(blockID); !ok {
		return t, nil, domain.Addressing("fill table", fmt.Errorf("%w: %s", domain.ErrBlockNotFound, blockID))
	} else if b.Type() != domain.BlockTypeTable {
		return t, nil, domain.Refusal("fill table", fmt.Errorf("%w: %s is %s", domain.ErrFieldMismatch, blockID, b.Type()))
	}

	frame, err := dataset.Collect(ctx, in.SourceType, in.Config, in.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("fill table: %w", err)
	}
	s.log.Info("table filled", "section", sectionID, "block", blockID,
		"source", in.SourceType, "rows", len(frame.Rows), "truncated", frame.Truncated)

	t, err := s.UpdateBlock(ctx, sectionID, blockID, domain.Patch{Cells: frame.Cells()})
	return t, frame, err
}

// ListSources returns the available dataset sources.
func (s *ReportService) ListSources() []dataset.SourceSpec {
	return dataset.ListSources()
}
