package governor

// timerBuckets, resolution and decay parameterize the bucketed
// correction-factor table: timerResolution scales the ratio, timerDecay
// controls how quickly old observations fade.
const (
	timerBuckets    = 12
	timerResolution = 1024
	timerDecay      = 8

	// timerMaxInteresting bounds measurements the timer expert trusts —
	// anything larger is treated as "no useful signal" rather than
	// skewing the correction factor.
	timerMaxInteresting = 50_000
)

// whichBucket classifies a scheduled-timer deadline into one of
// timerBuckets buckets, split first by whether any task is blocked on I/O
// (so the expert keeps separate statistics for E(duration)|iowait) and
// then by coarse duration bands.
func whichBucket(nextTimerUs uint64, iowaiters uint64) int {
	bucket := 0
	if iowaiters > 0 {
		bucket = timerBuckets / 2
	}
	switch {
	case nextTimerUs < 10:
		return bucket
	case nextTimerUs < 100:
		return bucket + 1
	case nextTimerUs < 1_000:
		return bucket + 2
	case nextTimerUs < 10_000:
		return bucket + 3
	case nextTimerUs < 100_000:
		return bucket + 4
	default:
		return bucket + 5
	}
}

// timerExpert predicts the next idle duration as a learned correction
// factor applied to the scheduler's own next-timer deadline. It never
// abstains.
type timerExpert struct{}

func (timerExpert) ID() int      { return ExpertTimer }
func (timerExpert) Name() string { return "timer" }

func (timerExpert) Init(cpu int, pf Platform, s *State) {}

func (timerExpert) Select(s *State, pf Platform, cpu int) int64 {
	iowaiters, _ := pf.IOWaitLoad(cpu)
	bucket := whichBucket(s.NextTimerUs, iowaiters)
	s.TimerBucket = bucket

	cf := s.CorrectionFactor[bucket]
	num := s.NextTimerUs * cf
	denom := uint64(timerResolution * timerDecay)
	// Ceiling division: ⌈next_timer_us · correction_factor / (RESOLUTION·DECAY)⌉.
	pred := (num + denom - 1) / denom
	return int64(pred)
}

func (timerExpert) Reflect(s *State, pf Platform, cpu int, measuredUs uint64) {
	bucket := s.TimerBucket
	factor := s.CorrectionFactor[bucket]
	factor -= factor / timerDecay

	if s.NextTimerUs > 0 && measuredUs < timerMaxInteresting {
		factor += timerResolution * measuredUs / s.NextTimerUs
	} else {
		factor += timerResolution
	}
	if factor == 0 {
		factor = 1
	}
	s.CorrectionFactor[bucket] = factor
}
