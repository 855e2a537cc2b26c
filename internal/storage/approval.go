package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ErrApprovalNotFound is returned for an unknown or already resolved id.
var ErrApprovalNotFound = errors.New("approval not found")

// Approval is a destructive action waiting for a user decision.
type Approval struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Metadata    string    `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ApprovalStore persists approvals so a standalone MCP server and the CLI
// can hand decisions across processes.
type ApprovalStore struct {
	db *DB
}

func NewApprovalStore(db *DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

func (s *ApprovalStore) CreateApproval(ctx context.Context, a *Approval) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.Status = ApprovalPending
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO approvals (id, tool, description, status, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Tool, a.Description, a.Status, a.Metadata, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (s *ApprovalStore) ApprovalStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := s.db.Conn().QueryRowContext(ctx, `SELECT status FROM approvals WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("approval %s: %w", id, ErrApprovalNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("approval status: %w", err)
	}
	return status, nil
}

// ResolveApproval moves a pending approval to approved or rejected.
func (s *ApprovalStore) ResolveApproval(ctx context.Context, id string, approved bool) error {
	status := ApprovalRejected
	if approved {
		status = ApprovalApproved
	}
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE approvals SET status = ? WHERE id = ? AND status = ?`, status, id, ApprovalPending)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("resolve approval %s: %w", id, ErrApprovalNotFound)
	}
	return nil
}

func (s *ApprovalStore) DeleteApproval(ctx context.Context, id string) error {
	_, err := s.db.Conn().ExecContext(ctx, `DELETE FROM approvals WHERE id = ?`, id)
	return err
}

// ListPending returns pending approvals, oldest first.
func (s *ApprovalStore) ListPending(ctx context.Context) ([]Approval, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, tool, description, status, metadata, created_at FROM approvals WHERE status = ? ORDER BY created_at ASC`,
		ApprovalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		var a Approval
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.Status, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
