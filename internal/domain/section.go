package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrFieldNotFound is returned by FieldStore.GetField for a missing key.
var ErrFieldNotFound = errors.New("field not found")

// ErrSectionNotFound is returned by SectionStore for an unknown id.
var ErrSectionNotFound = errors.New("section not found")

// Section is a host-level grouping that owns one block list (stored at the
// field key equal to its id) and a title (at TitleKey).
type Section struct {
	ID        string    `json:"id"`
	Position  int       `json:"position"`
	Locked    bool      `json:"locked"`
	Deletable bool      `json:"deletable"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Section defaults.
const (
	DefaultSectionTitle = "New Section Title"
	DefaultReportTitle  = "Untitled Report"
)

// TitleKey returns the host field key of a section title.
func TitleKey(sectionID string) string { return sectionID + "-title" }

// Report-level host field keys.
const (
	FieldTitle      = "title"
	FieldSubtitle   = "subTitle"
	FieldClient     = "clientName"
	FieldLocation   = "clientLocation"
	FieldPreparedBy = "preparedBy"
	FieldConclusion = "conclusion"
)

// MetaFields lists the report-level keys in display order.
var MetaFields = []string{FieldTitle, FieldSubtitle, FieldClient, FieldLocation, FieldPreparedBy, FieldConclusion}

// FieldStore is the host document state: a flat map from key to a JSON
// value. UpdateField replaces the whole value at key.
type FieldStore interface {
	GetField(ctx context.Context, key string) (json.RawMessage, error)
	UpdateField(ctx context.Context, key string, value json.RawMessage) error
	DeleteField(ctx context.Context, key string) error
	ListFields(ctx context.Context) (map[string]json.RawMessage, error)
}

// SectionStore persists the ordered section list.
type SectionStore interface {
	CreateSection(ctx context.Context, s *Section) error
	GetSection(ctx context.Context, id string) (*Section, error)
	ListSections(ctx context.Context) ([]Section, error)
	UpdateSection(ctx context.Context, s *Section) error
	DeleteSection(ctx context.Context, id string) error
}

// Checkpoint is a stored copy of the whole report.
type Checkpoint struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Report    []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// CheckpointStore keeps report checkpoints, newest first.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, c *Checkpoint) error
	GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error)
	ListCheckpoints(ctx context.Context) ([]Checkpoint, error)
	PruneCheckpoints(ctx context.Context, keep int) (int, error)
}

// ErrCheckpointNotFound is returned for an unknown checkpoint id.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// SectionContent is one section with its title and blocks, as exported.
type SectionContent struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Locked    bool    `json:"locked"`
	Deletable bool    `json:"deletable"`
	Blocks    []Block `json:"-"`
}

type sectionContentJSON struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Locked    bool            `json:"locked"`
	Deletable bool            `json:"deletable"`
	Blocks    json.RawMessage `json:"blocks"`
}

func (s SectionContent) MarshalJSON() ([]byte, error) {
	blocks, err := MarshalBlocks(s.Blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sectionContentJSON{
		ID: s.ID, Title: s.Title, Locked: s.Locked, Deletable: s.Deletable, Blocks: blocks,
	})
}

func (s *SectionContent) UnmarshalJSON(data []byte) error {
	var w sectionContentJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var blocks []Block
	if len(w.Blocks) > 0 {
		var err error
		if blocks, err = UnmarshalBlocks(w.Blocks); err != nil {
			return err
		}
	}
	*s = SectionContent{ID: w.ID, Title: w.Title, Locked: w.Locked, Deletable: w.Deletable, Blocks: blocks}
	return nil
}

// Report is the whole document: report-level fields plus ordered sections.
type Report struct {
	Meta     map[string]string `json:"meta"`
	Sections []SectionContent  `json:"sections"`
}

// Title returns the report title, or the default when unset.
func (r *Report) Title() string {
	if t := r.Meta[FieldTitle]; t != "" {
		return t
	}
	return DefaultReportTitle
}
