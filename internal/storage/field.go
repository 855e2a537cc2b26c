package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reports/internal/domain"
)

// FieldStore implements domain.FieldStore using SQLite.
type FieldStore struct {
	db *DB
}

func NewFieldStore(db *DB) *FieldStore {
	return &FieldStore{db: db}
}

func (s *FieldStore) GetField(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := s.db.Conn().QueryRowContext(ctx, `SELECT value FROM fields WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get field %q: %w", key, domain.ErrFieldNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get field %q: %w", key, err)
	}
	return json.RawMessage(value), nil
}

// UpdateField replaces the whole value stored at key.
func (s *FieldStore) UpdateField(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("update field %q: invalid json", key)
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO fields (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update field %q: %w", key, err)
	}
	return nil
}

func (s *FieldStore) DeleteField(ctx context.Context, key string) error {
	_, err := s.db.Conn().ExecContext(ctx, `DELETE FROM fields WHERE key = ?`, key)
	return err
}

func (s *FieldStore) ListFields(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `SELECT key, value FROM fields`)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = json.RawMessage(value)
	}
	return out, rows.Err()
}
