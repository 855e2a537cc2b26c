package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"reports/internal/domain"
)

// Memory is an in-process implementation of the field, section and
// checkpoint stores. It backs tests and the --memory mode of the CLI.
type Memory struct {
	mu          sync.Mutex
	fields      map[string]json.RawMessage
	sections    map[string]domain.Section
	checkpoints []domain.Checkpoint
}

func NewMemory() *Memory {
	return &Memory{
		fields:   make(map[string]json.RawMessage),
		sections: make(map[string]domain.Section),
	}
}

// ── Fields ─────────────────────────────────────────────────

func (m *Memory) GetField(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.fields[key]
	if !ok {
		return nil, fmt.Errorf("get field %q: %w", key, domain.ErrFieldNotFound)
	}
	return append(json.RawMessage(nil), v...), nil
}

func (m *Memory) UpdateField(_ context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("update field %q: invalid json", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *Memory) DeleteField(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fields, key)
	return nil
}

func (m *Memory) ListFields(_ context.Context) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]json.RawMessage, len(m.fields))
	for k, v := range m.fields {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

// ── Sections ───────────────────────────────────────────────

func (m *Memory) CreateSection(_ context.Context, s *domain.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[s.ID]; ok {
		return fmt.Errorf("create section: %s already exists", s.ID)
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.sections[s.ID] = *s
	return nil
}

func (m *Memory) GetSection(_ context.Context, id string) (*domain.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if !ok {
		return nil, fmt.Errorf("get section %s: %w", id, domain.ErrSectionNotFound)
	}
	return &s, nil
}

func (m *Memory) ListSections(_ context.Context) ([]domain.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Section, 0, len(m.sections))
	for _, s := range m.sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateSection(_ context.Context, s *domain.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[s.ID]; !ok {
		return fmt.Errorf("update section %s: %w", s.ID, domain.ErrSectionNotFound)
	}
	s.UpdatedAt = time.Now()
	m.sections[s.ID] = *s
	return nil
}

func (m *Memory) DeleteSection(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sections, id)
	return nil
}

// ── Checkpoints ────────────────────────────────────────────

func (m *Memory) SaveCheckpoint(_ context.Context, c *domain.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	m.checkpoints = append([]domain.Checkpoint{*c}, m.checkpoints...)
	return nil
}

func (m *Memory) GetCheckpoint(_ context.Context, id string) (*domain.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.checkpoints {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("get checkpoint %s: %w", id, domain.ErrCheckpointNotFound)
}

func (m *Memory) ListCheckpoints(_ context.Context) ([]domain.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Checkpoint, len(m.checkpoints))
	for i, c := range m.checkpoints {
		c.Report = nil
		out[i] = c
	}
	return out, nil
}

func (m *Memory) PruneCheckpoints(_ context.Context, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.checkpoints) <= keep {
		return 0, nil
	}
	removed := len(m.checkpoints) - keep
	m.checkpoints = m.checkpoints[:keep]
	return removed, nil
}
