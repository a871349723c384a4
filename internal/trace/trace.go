// Package trace records what the evaluator did: one event per rewrite pass
// plus diagnostics, grouped under a run id. Recorders are pluggable; the
// in-memory recorder backs tests and the SQLite store keeps runs for
// post-hoc inspection.
package trace

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Event kinds.
const (
	// KindPass is one rewrite pass that changed the expression.
	KindPass = "pass"

	// KindMessage is a diagnostic emitted during evaluation.
	KindMessage = "message"

	// KindResult closes a run with its final value.
	KindResult = "result"
)

// Event is one step of an evaluation run.
type Event struct {
	// RunID groups the events of a single top-level evaluation.
	RunID string

	// Seq orders events within the run, starting at 1.
	Seq int64

	// Kind is one of the Kind constants.
	Kind string

	// Lookup is the definition name the pass dispatched on, if any.
	Lookup string

	// Before and After are full-form renderings of the expression around
	// the step. Messages put their text in After.
	Before string
	After  string

	// BeforeHash and AfterHash are canonical content hashes, the stable
	// identity used by the store.
	BeforeHash string
	AfterHash  string
}

// Recorder consumes events. Implementations must tolerate duplicate
// (RunID, Seq) pairs by keeping the first.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Generator produces run ids.
type Generator interface {
	NewRunID() string
}

// UUIDGenerator issues UUIDv7 run ids: time-ordered, so stored runs list in
// creation order.
type UUIDGenerator struct{}

func (UUIDGenerator) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator replays a preset id list. For deterministic tests and
// goldens only.
//
// Thread-safety: safe for concurrent use.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	at  int
}

// NewFixedGenerator creates a generator over the given ids. It panics once
// the list is exhausted, which in a test marks missing fixtures.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

func (g *FixedGenerator) NewRunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.at >= len(g.ids) {
		panic(fmt.Sprintf("trace: fixed generator exhausted after %d ids", len(g.ids)))
	}
	id := g.ids[g.at]
	g.at++
	return id
}

// MemoryRecorder keeps events in order of arrival.
//
// Thread-safety: safe for concurrent use.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
	seen   map[string]struct{}
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{seen: make(map[string]struct{})}
}

func (r *MemoryRecorder) Record(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s/%d", ev.RunID, ev.Seq)
	if _, dup := r.seen[key]; dup {
		return nil
	}
	r.seen[key] = struct{}{}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Run returns the events of one run in sequence order.
func (r *MemoryRecorder) Run(runID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.RunID == runID {
			out = append(out, ev)
		}
	}
	return out
}
