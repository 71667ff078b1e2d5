package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursebook/internal/service"
)

// Approval events.
const (
	EventApprovalRequired  = "approval:required"
	EventApprovalDismissed = "approval:dismissed"
)

// DefaultApprovalTimeout bounds how long a destructive call waits.
const DefaultApprovalTimeout = 120 * time.Second

var (
	ErrRejected        = errors.New("action rejected")
	ErrApprovalTimeout = errors.New("approval timed out")
)

// PendingAction is a destructive call awaiting a decision.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

type pendingEntry struct {
	action PendingAction
	result chan bool
}

// ApprovalQueue holds destructive MCP calls until someone approves or
// rejects them, e.g. through the HTTP API.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]*pendingEntry
	emitter service.EventEmitter
	timeout time.Duration
}

func NewApprovalQueue(emitter service.EventEmitter, timeout time.Duration) *ApprovalQueue {
	if emitter == nil {
		emitter = service.LogEmitter{}
	}
	if timeout <= 0 {
		timeout = DefaultApprovalTimeout
	}
	return &ApprovalQueue{
		pending: make(map[string]*pendingEntry),
		emitter: emitter,
		timeout: timeout,
	}
}

// Request blocks until the action is approved, rejected, timed out or ctx
// is cancelled. It returns nil only on approval.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string) error {
	e := &pendingEntry{
		action: PendingAction{
			ID:          uuid.NewString(),
			Tool:        tool,
			Description: description,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		},
		result: make(chan bool, 1),
	}
	q.mu.Lock()
	q.pending[e.action.ID] = e
	q.mu.Unlock()
	defer q.cleanup(e.action.ID)

	q.emitter.Emit(ctx, EventApprovalRequired, e.action)

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()
	select {
	case ok := <-e.result:
		if !ok {
			return fmt.Errorf("%w: %s", ErrRejected, tool)
		}
		return nil
	case <-timer.C:
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": e.action.ID})
		return fmt.Errorf("%w after %s: %s", ErrApprovalTimeout, q.timeout, tool)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending lists the actions waiting for a decision, oldest first.
func (q *ApprovalQueue) Pending() []PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingAction, 0, len(q.pending))
	for _, e := range q.pending {
		out = append(out, e.action)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Approve resolves a pending action. It reports whether the id was pending.
func (q *ApprovalQueue) Approve(actionID string) bool { return q.resolve(actionID, true) }

// Reject resolves a pending action as refused.
func (q *ApprovalQueue) Reject(actionID string) bool { return q.resolve(actionID, false) }

func (q *ApprovalQueue) resolve(actionID string, approved bool) bool {
	q.mu.Lock()
	e, ok := q.pending[actionID]
	if ok {
		delete(q.pending, actionID)
	}
	q.mu.Unlock()
	if ok {
		e.result <- approved
	}
	return ok
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
