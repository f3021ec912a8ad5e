package governor

import (
	"sync/atomic"
	"time"
)

// Default tunable thresholds, in microseconds. See SetThresholds.
const (
	DefaultDeepThresholdUs    = 10_000
	DefaultShallowThresholdUs = 50
)

// InitialWeight and MinWeight bound every expert weight: I1 in spec terms —
// weights never fall below MinWeight, and start at InitialWeight whenever
// the ensemble is (re)seeded.
const (
	InitialWeight uint64 = 1000
	MinWeight     uint64 = 5
)

// State owns all mutable governor state for one logical CPU. A State must
// never be shared across CPUs: it is read and written only from that CPU's
// idle path (Select/Reflect) or from its own wake-timer callback.
//
// TimerActive, WokeByTimer, NeedsUpdate and the two thresholds are the only
// fields touched from outside the owning idle path (the wake-timer
// callback, and an external tuning interface, respectively) and are
// therefore atomics; every other field is plain and must only be touched
// from Select/Reflect for this CPU.
type State struct {
	CPU int

	LastStateIdx int
	NextTimerUs  uint64
	PredictedUs  uint64
	MeasuredUs   uint64
	PendingUs    uint64
	Attendees    int
	Total        uint64
	Inmature     uint64

	Weights           [numExperts]uint64
	Predictions       [numExperts]int64
	FormerPredictions [numExperts]int64

	WillWakeWithTimer bool
	StrictLatency     bool
	NetworkActivity   bool

	NeedsUpdate atomic.Bool
	TimerActive atomic.Bool
	WokeByTimer atomic.Bool

	DeepThresholdUs    atomic.Uint64
	ShallowThresholdUs atomic.Uint64

	wakeTimer *time.Timer

	// Residency expert private state.
	ResidencyEMA uint64

	// Timer expert private state.
	TimerBucket       int
	CorrectionFactor  [timerBuckets]uint64

	// Network expert private state.
	NetBeforeTs     time.Time
	LastTTWU        uint64
	TTWURate        uint64
	LastNetReqs     uint64
	CntxSwitchRate  uint64
	LastEpollEvents uint64
	EventRate       uint64
	InterarrivalUs  uint64
}

// newState constructs a zeroed State for cpu with default weights and
// thresholds — the Go equivalent of memset(data, 0, ...) followed by the
// field defaults the original sets explicitly at enable_device time.
func newState(cpu int) *State {
	s := &State{CPU: cpu, LastStateIdx: -1}
	for i := 0; i < numExperts; i++ {
		s.Weights[i] = InitialWeight
		s.Predictions[i] = abstain
		s.FormerPredictions[i] = abstain
	}
	s.DeepThresholdUs.Store(DefaultDeepThresholdUs)
	s.ShallowThresholdUs.Store(DefaultShallowThresholdUs)
	return s
}

// resetWeights reseeds every expert weight to InitialWeight — the
// catastrophic-forgetting guard fired on weight collapse and on a
// network-expert-detected distribution shift.
func resetWeights(s *State) {
	for i := 0; i < numExperts; i++ {
		s.Weights[i] = InitialWeight
	}
}
