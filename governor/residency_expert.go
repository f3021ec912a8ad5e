package governor

// residencyExponentialFactor and residencyExponentialFloor define the EMA's
// smoothing: weight on the newest sample is (floor-factor)/floor = 0.1.
const (
	residencyExponentialFactor = 18
	residencyExponentialFloor  = 20
)

// residencyExpert maintains an exponential moving average of measured idle
// residencies. It never abstains: even before the first reflect, its EMA is
// zero, which is itself a valid (if uninformative) prediction.
type residencyExpert struct{}

func (residencyExpert) ID() int      { return ExpertResidency }
func (residencyExpert) Name() string { return "residency" }

func (residencyExpert) Init(cpu int, pf Platform, s *State) {}

func (residencyExpert) Select(s *State, pf Platform, cpu int) int64 {
	return int64(s.ResidencyEMA)
}

func (residencyExpert) Reflect(s *State, pf Platform, cpu int, measuredUs uint64) {
	ema := residencyExponentialFactor*s.ResidencyEMA + (residencyExponentialFloor-residencyExponentialFactor)*measuredUs
	s.ResidencyEMA = ema / residencyExponentialFloor
}
