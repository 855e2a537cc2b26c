package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"reports/internal/blocktree"
	"reports/internal/domain"
)

// SectionSummary is a section as listed to callers.
type SectionSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
	Locked    bool   `json:"locked"`
	Deletable bool   `json:"deletable"`
	Blocks    int    `json:"blocks"`
}

// ListSections returns every section in display order.
func (s *ReportService) ListSections(ctx context.Context) ([]SectionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secs, err := s.sections.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	out := make([]SectionSummary, 0, len(secs))
	for _, sec := range secs {
		title, err := s.stringField(ctx, domain.TitleKey(sec.ID))
		if err != nil {
			return nil, err
		}
		t, err := s.loadTree(ctx, sec.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, SectionSummary{
			ID:        sec.ID,
			Title:     title,
			Position:  sec.Position,
			Locked:    sec.Locked,
			Deletable: sec.Deletable,
			Blocks:    t.Count(),
		})
	}
	return out, nil
}

// seedBlocks is the content of a new section: one empty single-column layout.
func seedBlocks() ([]domain.Block, error) {
	b, err := domain.NewBlock(domain.BlockTypeLayout)
	if err != nil {
		return nil, err
	}
	return []domain.Block{b}, nil
}

// CreateSection appends a deletable section. An empty title uses the default.
func (s *ReportService) CreateSection(ctx context.Context, title string) (*SectionSummary, error) {
	if title == "" {
		title = domain.DefaultSectionTitle
	}
	blocks, err := seedBlocks()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	secs, err := s.sections.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	pos := 0
	for _, sec := range secs {
		pos = max(pos, sec.Position+1)
	}
	sec := &domain.Section{ID: domain.NewID("section"), Position: pos, Deletable: true}
	if err := s.writeSectionLocked(ctx, sec, title, blocks); err != nil {
		return nil, err
	}
	s.log.Info("section created", "section", sec.ID, "title", title)
	s.emitter.Emit(ctx, EventSectionsChanged, map[string]any{"created": sec.ID})
	return &SectionSummary{ID: sec.ID, Title: title, Position: pos, Deletable: true, Blocks: 1}, nil
}

func (s *ReportService) writeSectionLocked(ctx context.Context, sec *domain.Section, title string, blocks []domain.Block) error {
	if err := s.sections.CreateSection(ctx, sec); err != nil {
		return err
	}
	if err := s.setStringField(ctx, domain.TitleKey(sec.ID), title); err != nil {
		return err
	}
	return s.storeTree(ctx, sec.ID, blocktree.New(blocks))
}

// DeleteSection removes a section with its title and blocks. Locked and
// non-deletable sections refuse.
func (s *ReportService) DeleteSection(ctx context.Context, id string) error {
	const op = "delete section"
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sections.GetSection(ctx, id)
	if err != nil {
		return err
	}
	if sec.Locked {
		return domain.Refusal(op, domain.ErrLocked)
	}
	if !sec.Deletable {
		return domain.Refusal(op, domain.ErrNotDeletable)
	}
	if err := s.deleteSectionLocked(ctx, id); err != nil {
		return err
	}
	s.log.Info("section deleted", "section", id)
	s.emitter.Emit(ctx, EventSectionsChanged, map[string]any{"deleted": id})
	return nil
}

func (s *ReportService) deleteSectionLocked(ctx context.Context, id string) error {
	if err := s.sections.DeleteSection(ctx, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if err := s.fields.DeleteField(ctx, id); err != nil {
		return err
	}
	delete(s.drags, id)
	return s.fields.DeleteField(ctx, domain.TitleKey(id))
}

// SetLocked locks or unlocks a section.
func (s *ReportService) SetLocked(ctx context.Context, id string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sections.GetSection(ctx, id)
	if err != nil {
		return err
	}
	if sec.Locked == locked {
		return nil
	}
	sec.Locked = locked
	if err := s.sections.UpdateSection(ctx, sec); err != nil {
		return err
	}
	if locked {
		// A lock cancels any drag in flight.
		if c, ok := s.drags[id]; ok {
			c.Cancel()
		}
	}
	s.emitter.Emit(ctx, EventSectionsChanged, map[string]any{"sectionId": id, "locked": locked})
	return nil
}

// ToggleLock flips a section's lock and returns the new state.
func (s *ReportService) ToggleLock(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	sec, err := s.sections.GetSection(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	return !sec.Locked, s.SetLocked(ctx, id, !sec.Locked)
}

// SetSectionTitle replaces a section's title. Locked sections refuse.
func (s *ReportService) SetSectionTitle(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sections.GetSection(ctx, id)
	if err != nil {
		return err
	}
	if sec.Locked {
		return domain.Refusal("set title", domain.ErrLocked)
	}
	if err := s.setStringField(ctx, domain.TitleKey(id), title); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventSectionsChanged, map[string]any{"sectionId": id, "title": title})
	return nil
}

// ── Report-level fields ────────────────────────────────────

// ErrUnknownMetaField is returned for a report field outside domain.MetaFields.
var ErrUnknownMetaField = errors.New("unknown report field")

// SetMeta writes a report-level field such as the title or client name.
func (s *ReportService) SetMeta(ctx context.Context, key, value string) error {
	if !slices.Contains(domain.MetaFields, key) {
		return fmt.Errorf("%w: %q", ErrUnknownMetaField, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setStringField(ctx, key, value); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventMetaUpdated, map[string]any{"key": key})
	return nil
}

// Meta returns the non-empty report-level fields.
func (s *ReportService) Meta(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metaLocked(ctx)
}

func (s *ReportService) metaLocked(ctx context.Context) (map[string]string, error) {
	meta := make(map[string]string)
	for _, key := range domain.MetaFields {
		v, err := s.stringField(ctx, key)
		if err != nil {
			return nil, err
		}
		if v != "" {
			meta[key] = v
		}
	}
	return meta, nil
}

// ── Whole report ───────────────────────────────────────────

// Report assembles the whole document.
func (s *ReportService) Report(ctx context.Context) (*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportLocked(ctx)
}

func (s *ReportService) reportLocked(ctx context.Context) (*domain.Report, error) {
	meta, err := s.metaLocked(ctx)
	if err != nil {
		return nil, err
	}
	secs, err := s.sections.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	r := &domain.Report{Meta: meta, Sections: make([]domain.SectionContent, 0, len(secs))}
	for _, sec := range secs {
		title, err := s.stringField(ctx, domain.TitleKey(sec.ID))
		if err != nil {
			return nil, err
		}
		t, err := s.loadTree(ctx, sec.ID)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", sec.ID, err)
		}
		r.Sections = append(r.Sections, domain.SectionContent{
			ID:        sec.ID,
			Title:     title,
			Locked:    sec.Locked,
			Deletable: sec.Deletable,
			Blocks:    t.Blocks(),
		})
	}
	return r, nil
}

// ExportJSON returns the report as indented JSON.
func (s *ReportService) ExportJSON(ctx context.Context) ([]byte, error) {
	r, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(r, "", "  ")
}

// ImportReport replaces the whole document by r. Each section's blocks must
// form a valid tree; nothing is written otherwise. Sections without an id
// get a new one.
func (s *ReportService) ImportReport(ctx context.Context, r *domain.Report) error {
	seen := make(map[string]bool, len(r.Sections))
	for i := range r.Sections {
		sec := &r.Sections[i]
		if sec.ID == "" {
			sec.ID = domain.NewID("section")
		}
		if seen[sec.ID] {
			return domain.Construction("import report", fmt.Errorf("duplicate section id %s", sec.ID))
		}
		seen[sec.ID] = true
		if err := blocktree.New(sec.Blocks).Validate(); err != nil {
			return fmt.Errorf("import section %s: %w", sec.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.sections.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("import report: %w", err)
	}
	for _, sec := range old {
		if err := s.deleteSectionLocked(ctx, sec.ID); err != nil {
			return err
		}
	}
	for _, key := range domain.MetaFields {
		if err := s.fields.DeleteField(ctx, key); err != nil {
			return err
		}
	}

	for key, v := range r.Meta {
		if !slices.Contains(domain.MetaFields, key) {
			s.log.Warn("skipping unknown report field", "key", key)
			continue
		}
		if err := s.setStringField(ctx, key, v); err != nil {
			return err
		}
	}
	for i, sc := range r.Sections {
		sec := &domain.Section{ID: sc.ID, Position: i, Locked: sc.Locked, Deletable: sc.Deletable}
		if err := s.writeSectionLocked(ctx, sec, sc.Title, sc.Blocks); err != nil {
			return fmt.Errorf("import section %s: %w", sc.ID, err)
		}
	}
	s.log.Info("report replaced", "sections", len(r.Sections))
	s.emitter.Emit(ctx, EventReportReplaced, map[string]any{"sections": len(r.Sections)})
	return nil
}

// ImportJSON decodes and imports a report document.
func (s *ReportService) ImportJSON(ctx context.Context, data []byte) error {
	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	return s.ImportReport(ctx, &r)
}

// SeedReport is the document a reset starts from: one fixed introduction
// section and one regular section.
func SeedReport() (*domain.Report, error) {
	intro, err := seedBlocks()
	if err != nil {
		return nil, err
	}
	body, err := seedBlocks()
	if err != nil {
		return nil, err
	}
	return &domain.Report{
		Meta: map[string]string{domain.FieldTitle: domain.DefaultReportTitle},
		Sections: []domain.SectionContent{
			{ID: domain.NewID("section"), Title: "Introduction", Blocks: intro},
			{ID: domain.NewID("section"), Title: domain.DefaultSectionTitle, Deletable: true, Blocks: body},
		},
	}, nil
}

// Reset replaces the document by SeedReport.
func (s *ReportService) Reset(ctx context.Context) error {
	r, err := SeedReport()
	if err != nil {
		return err
	}
	return s.ImportReport(ctx, r)
}

// EnsureSeeded resets an empty document. It reports whether it did.
func (s *ReportService) EnsureSeeded(ctx context.Context) (bool, error) {
	secs, err := s.sections.ListSections(ctx)
	if err != nil {
		return false, err
	}
	if len(secs) > 0 {
		return false, nil
	}
	return true, s.Reset(ctx)
}
