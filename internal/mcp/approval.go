package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"reports/internal/storage"
)

// EventEmitter allows the approval queue to notify an attached front end.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// PendingAction is a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context, e.g. the section id
}

// ApprovalStore persists approvals for cross-process decisions.
type ApprovalStore interface {
	CreateApproval(ctx context.Context, a *storage.Approval) error
	ApprovalStatus(ctx context.Context, id string) (string, error)
	DeleteApproval(ctx context.Context, id string) error
}

type actionResult struct {
	approved bool
}

// ApprovalQueue gates destructive MCP tool calls on a user decision. It has
// three modes:
//   - auto: every request is approved (serve --yes)
//   - store: the request is written to the approvals table and polled until
//     `reports approve` or `reports reject` resolves it
//   - in-process: the request is emitted and Approve or Reject answers it
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan actionResult
	ctx     context.Context
	emitter EventEmitter
	timeout time.Duration
	poll    time.Duration
	auto    bool
	store   ApprovalStore
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan actionResult),
		ctx:     ctx,
		emitter: emitter,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetStore enables store mode.
func (q *ApprovalQueue) SetStore(s ApprovalStore) { q.store = s }

// SetAutoApprove disables the gate.
func (q *ApprovalQueue) SetAutoApprove(auto bool) { q.auto = auto }

// SetTimeout bounds how long a request waits for a decision.
func (q *ApprovalQueue) SetTimeout(d time.Duration) { q.timeout = d }

// Request asks for approval and blocks until it is given, refused or timed
// out. metadata is optional JSON with extra context.
func (q *ApprovalQueue) Request(tool, description string, metadata ...string) (bool, error) {
	if q.auto {
		return true, nil
	}
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}
	if q.store != nil {
		return q.requestViaStore(id, tool, description, meta)
	}
	return q.requestViaChannel(id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(id, tool, description, metadata string) (bool, error) {
	err := q.store.CreateApproval(q.ctx, &storage.Approval{
		ID:          id,
		Tool:        tool,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		return false, err
	}
	q.emitter.Emit(q.ctx, "mcp:approval-required", PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})
	// Cleanup must outlive a cancelled request context.
	defer q.store.DeleteApproval(context.Background(), id)

	deadline := time.Now().Add(q.timeout)
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Now().After(deadline) {
				return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
			}
			status, err := q.store.ApprovalStatus(q.ctx, id)
			if err != nil {
				continue
			}
			switch status {
			case storage.ApprovalApproved:
				return true, nil
			case storage.ApprovalRejected:
				return false, fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-q.ctx.Done():
			return false, fmt.Errorf("context cancelled")
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(id, tool, description, metadata string) (bool, error) {
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()

	q.emitter.Emit(q.ctx, "mcp:approval-required", PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case result := <-ch:
		q.cleanup(id)
		if !result.approved {
			return false, fmt.Errorf("action rejected by user: %s", tool)
		}
		return true, nil
	case <-time.After(q.timeout):
		q.cleanup(id)
		q.emitter.Emit(q.ctx, "mcp:approval-dismissed", map[string]string{"id": id})
		return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-q.ctx.Done():
		q.cleanup(id)
		return false, fmt.Errorf("context cancelled")
	}
}

// Approve marks a pending in-process action as approved.
func (q *ApprovalQueue) Approve(actionID string) {
	q.resolve(actionID, true)
}

// Reject marks a pending in-process action as rejected.
func (q *ApprovalQueue) Reject(actionID string) {
	q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if ok {
		select {
		case ch <- actionResult{approved: approved}:
		default:
		}
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
