// Package trace records recent governor decision rounds for inspection,
// mirroring the teacher's lightweight in-memory Tracer in
// internal/infra/observability, generalized from HTTP request spans to
// governor select/reflect rounds and given an optional SQLite-backed tail.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two idle-path events the governor emits.
type Kind int

const (
	KindSelect Kind = iota
	KindReflect
)

func (k Kind) String() string {
	if k == KindReflect {
		return "reflect"
	}
	return "select"
}

// Round is one recorded Select or Reflect call.
type Round struct {
	ID          string    `json:"id"`
	CPU         int       `json:"cpu"`
	Kind        Kind      `json:"kind"`
	At          time.Time `json:"at"`
	StateIdx    int       `json:"state_idx"`
	PredictedUs uint64    `json:"predicted_us"`
	MeasuredUs  uint64    `json:"measured_us"`
	Attendees   int       `json:"attendees"`
	Weights     [3]uint64 `json:"weights"`
}

// Recorder is an in-memory ring buffer of recent rounds, with an optional
// Store to persist them past process restart. A nil *Recorder is valid
// everywhere it's used.
type Recorder struct {
	mu       sync.Mutex
	rounds   []Round
	maxSize  int
	store    *Store
}

// NewRecorder returns a Recorder holding at most maxSize rounds in memory.
// If store is non-nil, every recorded round is also appended there.
func NewRecorder(maxSize int, store *Store) *Recorder {
	if maxSize <= 0 {
		maxSize = 10_000
	}
	return &Recorder{
		rounds:  make([]Round, 0, maxSize),
		maxSize: maxSize,
		store:   store,
	}
}

// RecordSelect appends a select-round entry.
func (r *Recorder) RecordSelect(cpu, stateIdx int, predictedUs uint64, attendees int, weights [3]uint64, at time.Time) {
	if r == nil {
		return
	}
	r.record(Round{
		ID:          uuid.NewString(),
		CPU:         cpu,
		Kind:        KindSelect,
		At:          at,
		StateIdx:    stateIdx,
		PredictedUs: predictedUs,
		Attendees:   attendees,
		Weights:     weights,
	})
}

// RecordReflect appends a reflect-round entry.
func (r *Recorder) RecordReflect(cpu int, measuredUs uint64, at time.Time) {
	if r == nil {
		return
	}
	r.record(Round{
		ID:         uuid.NewString(),
		CPU:        cpu,
		Kind:       KindReflect,
		At:         at,
		MeasuredUs: measuredUs,
	})
}

func (r *Recorder) record(round Round) {
	r.mu.Lock()
	if len(r.rounds) >= r.maxSize {
		r.rounds = r.rounds[1:]
	}
	r.rounds = append(r.rounds, round)
	r.mu.Unlock()

	if r.store != nil {
		// Persistence is best-effort: a write failure must never block
		// or panic the idle path that fed us this round.
		_ = r.store.Insert(round)
	}
}

// Recent returns the most recent limit rounds (or all of them, if limit <=
// 0 or exceeds the buffer), oldest first.
func (r *Recorder) Recent(limit int) []Round {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.rounds) {
		limit = len(r.rounds)
	}
	start := len(r.rounds) - limit
	out := make([]Round, limit)
	copy(out, r.rounds[start:])
	return out
}

// ForCPU returns the most recent limit rounds for a single cpu.
func (r *Recorder) ForCPU(cpu, limit int) []Round {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Round
	for i := len(r.rounds) - 1; i >= 0 && (limit <= 0 || len(matched) < limit); i-- {
		if r.rounds[i].CPU == cpu {
			matched = append(matched, r.rounds[i])
		}
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched
}
