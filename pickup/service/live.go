package service

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	pickuppkg "github.com/mikios34/pickup-availability/pickup"
)

// EventPickupState is the realtime event carrying a pickup.StateView.
const EventPickupState = "pickup.state"

// Notifier pushes events to a connected session.
type Notifier interface {
	NotifySession(sessionID string, event string, payload any) error
}

type tracked struct {
	inputs     pickuppkg.Inputs
	generation uint64
	// seq orders evaluations of the same inputs; published is the seq of last.
	seq       uint64
	published uint64
	last      *pickuppkg.UIState
}

// LiveTracker keeps the latest inputs of every connected product page and
// pushes the UI state again whenever a query settles or the session changes.
type LiveTracker struct {
	svc        pickuppkg.Service
	notifier   Notifier
	maxVisible int
	logger     logr.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*tracked
}

func NewLiveTracker(svc pickuppkg.Service, notifier Notifier, maxVisible int, logger logr.Logger) *LiveTracker {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &LiveTracker{
		svc:        svc,
		notifier:   notifier,
		maxVisible: maxVisible,
		logger:     logger,
		sessions:   make(map[uuid.UUID]*tracked),
	}
}

// Update replaces the inputs of a session and returns the state they
// evaluate to. Results for earlier inputs are no longer pushed.
func (t *LiveTracker) Update(ctx context.Context, in pickuppkg.Inputs) pickuppkg.StateView {
	t.mu.Lock()
	tr, ok := t.sessions[in.SessionID]
	if !ok {
		tr = &tracked{}
		t.sessions[in.SessionID] = tr
	}
	tr.inputs = in
	tr.generation++
	tr.seq++
	gen, seq := tr.generation, tr.seq
	t.mu.Unlock()

	state := t.svc.Evaluate(ctx, in)
	t.publish(in.SessionID, gen, seq, state)
	return pickuppkg.View(state, t.maxVisible)
}

// Current returns the last state pushed to a session, if any.
func (t *LiveTracker) Current(sessionID uuid.UUID) (pickuppkg.StateView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.sessions[sessionID]
	if !ok || tr.last == nil {
		return pickuppkg.StateView{}, false
	}
	return pickuppkg.View(*tr.last, t.maxVisible), true
}

// Forget stops tracking a session.
func (t *LiveTracker) Forget(sessionID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// RefreshSession re-evaluates the current inputs of one session.
func (t *LiveTracker) RefreshSession(ctx context.Context, sessionID uuid.UUID) {
	t.mu.Lock()
	tr, ok := t.sessions[sessionID]
	if !ok {
		t.mu.Unlock()
		return
	}
	tr.seq++
	in, gen, seq := tr.inputs, tr.generation, tr.seq
	t.mu.Unlock()

	t.publish(sessionID, gen, seq, t.svc.Evaluate(ctx, in))
}

// Refresh re-evaluates every tracked session.
func (t *LiveTracker) Refresh(ctx context.Context) {
	t.mu.Lock()
	ids := make([]uuid.UUID, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		t.RefreshSession(ctx, id)
	}
}

// OnSettled is registered with the query pool.
func (t *LiveTracker) OnSettled(key string) {
	t.logger.V(1).Info("query settled, refreshing sessions", "key", key)
	t.Refresh(context.Background())
}

// publish records and pushes state when it was computed from the session's
// current inputs, is newer than the last published evaluation and differs
// from what the session last saw.
func (t *LiveTracker) publish(sessionID uuid.UUID, gen, seq uint64, state pickuppkg.UIState) {
	t.mu.Lock()
	tr, ok := t.sessions[sessionID]
	if !ok || tr.generation != gen || seq < tr.published {
		t.mu.Unlock()
		t.logger.V(1).Info("dropping state for superseded inputs", "session", sessionID.String())
		return
	}
	tr.published = seq
	if tr.last != nil && tr.last.Equal(state) {
		t.mu.Unlock()
		return
	}
	tr.last = &state
	t.mu.Unlock()

	if t.notifier == nil {
		return
	}
	if err := t.notifier.NotifySession(sessionID.String(), EventPickupState, pickuppkg.View(state, t.maxVisible)); err != nil {
		t.logger.Error(err, "push pickup state", "session", sessionID.String())
	}
}
