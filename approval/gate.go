// Package approval implements the pending-approval log that gates execution
// of sensitive tool actions behind an operator decision.
package approval

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an approval record.
// A record leaves StatusPending exactly once and never returns to it.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Decision is an operator verdict for a pending record.
type Decision string

const (
	Approved Decision = "approved"
	Denied   Decision = "denied"
)

// Action is the deferred work behind a gated tool invocation. It is invoked at
// most once over the lifetime of its record. Failures inside the action fold
// into the returned error; the gate records them as the execution result
// rather than letting them escape to the caller.
type Action func() (string, error)

// Request is one entry in the approval log.
type Request struct {
	ID          string
	Timestamp   time.Time
	Description string
	Status      Status
	Result      string

	action Action
}

// Resolution reports the outcome of resolving one record, shaped for display
// in a chat transcript.
type Resolution struct {
	ID          string
	Description string
	Decision    Decision
	Result      string
}

// Counts summarises the log for a presentation status bar.
type Counts struct {
	Pending  int
	Approved int
	Denied   int
}

// Gate owns the append-only approval log. All operations are safe for
// concurrent use; two concurrent Resolve calls against the same id will run
// the action at most once.
//
// The gate is owned by whatever session or request context needs it and is
// passed by reference - there are no package globals.
type Gate struct {
	mu      sync.Mutex
	records []*Request
	index   map[string]*Request

	// gen increases on every Register so a re-rendering UI can poll for new
	// pending work. notify carries the same signal for push-style drivers.
	gen    uint64
	notify chan struct{}
}

func NewGate() *Gate {
	return &Gate{
		index:  make(map[string]*Request),
		notify: make(chan struct{}, 1),
	}
}

// Register appends a new pending record without executing the action and
// returns the record id. It never blocks on operator input.
func (g *Gate) Register(description string, action Action) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	req := &Request{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Description: description,
		Status:      StatusPending,
		action:      action,
	}
	g.records = append(g.records, req)
	g.index[req.ID] = req
	g.gen++

	select {
	case g.notify <- struct{}{}:
	default:
	}

	slog.Debug("registered approval request", "id", req.ID, "description", description)
	return req.ID
}

// Dispatch registers the action and returns the deferral message handed back
// to the agent as the tool's output. It satisfies the dispatcher contract the
// tool modules expect.
func (g *Gate) Dispatch(description string, action Action) string {
	id := g.Register(description, action)
	return fmt.Sprintf(
		"APPROVAL_REQUIRED: %s has been submitted for approval (ID: %s). "+
			"Do not retry this call - ask the user to review it in the approvals panel.",
		description, id)
}

// Resolve applies an operator decision to one record. Resolving an unknown id
// or an already-terminal record is a no-op; double-clicking approve must not
// re-execute the action. The returned bool reports whether a transition
// happened.
func (g *Gate) Resolve(id string, decision Decision) (Resolution, bool) {
	g.mu.Lock()
	req, ok := g.index[id]
	if !ok {
		g.mu.Unlock()
		slog.Warn("resolve of unknown approval id", "id", id)
		return Resolution{}, false
	}
	if req.Status != StatusPending {
		g.mu.Unlock()
		slog.Debug("resolve of already-processed approval", "id", id, "status", req.Status)
		return Resolution{}, false
	}

	// Claim the record before running the action so a concurrent Resolve
	// sees a terminal status and backs off.
	if decision == Denied {
		req.Status = StatusDenied
		res := Resolution{ID: req.ID, Description: req.Description, Decision: Denied}
		g.mu.Unlock()
		return res, true
	}
	req.Status = StatusApproved
	action := req.action
	g.mu.Unlock()

	result, err := runAction(action)
	if err != nil {
		result = fmt.Sprintf("action failed: %v", err)
	}

	g.mu.Lock()
	req.Result = result
	g.mu.Unlock()

	return Resolution{ID: req.ID, Description: req.Description, Decision: Approved, Result: result}, true
}

func runAction(action Action) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	if action == nil {
		return "", nil
	}
	return action()
}

// ResolveAll applies the decision to every currently-pending record in
// insertion order. The pending set is snapshotted before any resolution runs,
// so records created while the bulk operation executes are left alone.
func (g *Gate) ResolveAll(decision Decision) []Resolution {
	g.mu.Lock()
	ids := make([]string, 0, len(g.records))
	for _, req := range g.records {
		if req.Status == StatusPending {
			ids = append(ids, req.ID)
		}
	}
	g.mu.Unlock()

	resolutions := make([]Resolution, 0, len(ids))
	for _, id := range ids {
		if res, ok := g.Resolve(id, decision); ok {
			resolutions = append(resolutions, res)
		}
	}
	return resolutions
}

// ListPending returns the pending records in insertion order. The returned
// values are copies; mutating them does not touch the log.
func (g *Gate) ListPending() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()

	pending := make([]Request, 0)
	for _, req := range g.records {
		if req.Status == StatusPending {
			pending = append(pending, *req)
		}
	}
	return pending
}

// Counts tallies the log by status.
func (g *Gate) Counts() Counts {
	g.mu.Lock()
	defer g.mu.Unlock()

	var c Counts
	for _, req := range g.records {
		switch req.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusDenied:
			c.Denied++
		}
	}
	return c
}

// ClearProcessed removes terminal records from the log. Pending records
// survive and keep their ids.
func (g *Gate) ClearProcessed() {
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.records[:0]
	for _, req := range g.records {
		if req.Status == StatusPending {
			kept = append(kept, req)
		} else {
			delete(g.index, req.ID)
		}
	}
	g.records = kept
}

// ClearAll empties the log unconditionally.
func (g *Gate) ClearAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.records = nil
	g.index = make(map[string]*Request)
}

// Generation returns a counter that increases whenever a record is
// registered. A polling UI compares it against the last value it rendered.
func (g *Gate) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// Notify returns a channel that receives a signal when new pending work
// arrives. The channel has a buffer of one; signals coalesce.
func (g *Gate) Notify() <-chan struct{} {
	return g.notify
}

// RiskHint derives a display hint from a request description. It is
// presentation metadata only and never gates behavior.
func RiskHint(description string) string {
	lower := strings.ToLower(description)
	for _, kw := range []string{"delete", "import", "write"} {
		if strings.Contains(lower, kw) {
			return "high"
		}
	}
	for _, kw := range []string{"file", "clear", "cleanup", "trim", "search"} {
		if strings.Contains(lower, kw) {
			return "medium"
		}
	}
	return "low"
}
