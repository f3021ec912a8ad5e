package governor

// Expert indices, dense and stable — fixed registration order per spec.
// A dense array beats any pointer-chasing collection on the fuse hot path
// and removes the need for dynamic dispatch when iterating the ensemble.
const (
	ExpertResidency = iota
	ExpertTimer
	ExpertNetwork

	numExperts = 3
)

// abstain is the sentinel prediction meaning "this expert has no opinion
// this round."
const abstain int64 = -1

// Expert is a polymorphic predictor of the next idle-period length.
// Implementations must be deterministic given their inputs and private
// per-CPU state, and fast — Select and Reflect run on the idle hot path.
type Expert interface {
	// ID returns this expert's dense index in [0, numExperts).
	ID() int

	// Name returns a human label, used for logging and metrics.
	Name() string

	// Init is called once per CPU at device enable; it may capture
	// anchor timestamps or counters needed for rate estimation.
	Init(cpu int, pf Platform, s *State)

	// Select returns a microsecond prediction of the next idle duration,
	// or -1 to abstain. It may mutate only this expert's private fields
	// on s plus the shared policy flags it is authorized to set
	// (StrictLatency, NetworkActivity for the network expert).
	Select(s *State, pf Platform, cpu int) int64

	// Reflect updates private prediction state with the last observed,
	// exit-latency-adjusted residency. Called for every expert every
	// update, including experts that abstained last round.
	Reflect(s *State, pf Platform, cpu int, measuredUs uint64)
}
