package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reports/internal/domain"
)

// CheckpointStore keeps full-report snapshots in SQLite.
type CheckpointStore struct {
	db *DB
}

func NewCheckpointStore(db *DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, c *domain.Checkpoint) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO checkpoints (id, label, report_json, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Label, string(c.Report), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

func (s *CheckpointStore) GetCheckpoint(ctx context.Context, id string) (*domain.Checkpoint, error) {
	c := &domain.Checkpoint{}
	var report string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, label, report_json, created_at FROM checkpoints WHERE id = ?`, id,
	).Scan(&c.ID, &c.Label, &report, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get checkpoint %s: %w", id, domain.ErrCheckpointNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	c.Report = []byte(report)
	return c, nil
}

// ListCheckpoints returns checkpoint headers, newest first. Report bodies
// are not loaded.
func (s *CheckpointStore) ListCheckpoints(ctx context.Context) ([]domain.Checkpoint, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, label, created_at FROM checkpoints ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []domain.Checkpoint
	for rows.Next() {
		var c domain.Checkpoint
		if err := rows.Scan(&c.ID, &c.Label, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PruneCheckpoints deletes all but the newest keep checkpoints and returns
// how many were removed.
func (s *CheckpointStore) PruneCheckpoints(ctx context.Context, keep int) (int, error) {
	// Collect ids first so no rows cursor is open during the deletes.
	list, err := s.ListCheckpoints(ctx)
	if err != nil {
		return 0, err
	}
	if len(list) <= keep {
		return 0, nil
	}

	removed := 0
	for _, c := range list[keep:] {
		if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM checkpoints WHERE id = ?`, c.ID); err != nil {
			return removed, fmt.Errorf("prune checkpoint %s: %w", c.ID, err)
		}
		removed++
	}
	return removed, nil
}
