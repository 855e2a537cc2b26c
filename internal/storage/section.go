package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reports/internal/domain"
)

// SectionStore implements domain.SectionStore using SQLite.
type SectionStore struct {
	db *DB
}

func NewSectionStore(db *DB) *SectionStore {
	return &SectionStore{db: db}
}

func (s *SectionStore) CreateSection(ctx context.Context, sec *domain.Section) error {
	now := time.Now()
	sec.CreatedAt = now
	sec.UpdatedAt = now
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO sections (id, position, locked, deletable, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sec.ID, sec.Position, sec.Locked, sec.Deletable, sec.CreatedAt, sec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

func (s *SectionStore) GetSection(ctx context.Context, id string) (*domain.Section, error) {
	sec := &domain.Section{}
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, position, locked, deletable, created_at, updated_at FROM sections WHERE id = ?`, id,
	).Scan(&sec.ID, &sec.Position, &sec.Locked, &sec.Deletable, &sec.CreatedAt, &sec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get section %s: %w", id, domain.ErrSectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get section: %w", err)
	}
	return sec, nil
}

func (s *SectionStore) ListSections(ctx context.Context) ([]domain.Section, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, position, locked, deletable, created_at, updated_at FROM sections ORDER BY position ASC, created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.Position, &sec.Locked, &sec.Deletable, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

func (s *SectionStore) UpdateSection(ctx context.Context, sec *domain.Section) error {
	sec.UpdatedAt = time.Now()
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE sections SET position=?, locked=?, deletable=?, updated_at=? WHERE id=?`,
		sec.Position, sec.Locked, sec.Deletable, sec.UpdatedAt, sec.ID,
	)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update section %s: %w", sec.ID, domain.ErrSectionNotFound)
	}
	return nil
}

func (s *SectionStore) DeleteSection(ctx context.Context, id string) error {
	_, err := s.db.Conn().ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id)
	return err
}
