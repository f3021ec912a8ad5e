package governor

import "time"

// networkWindow is the sampling window: counters are resampled once this
// much wall-clock time has elapsed since the last sample.
const networkWindow = 500_000 * time.Microsecond

// networkStrictLatencyUs is the inter-arrival threshold above which the
// network expert asks the selector to exclude the deepest idle state.
const networkStrictLatencyUs = 400

// networkExpert estimates the mean inter-arrival time of network-driven
// wakeups from wakeup, context-switch and epoll-event rates sampled on a
// half-second window. It also emits the park/unpark sibling-CPU hint, the
// only cross-CPU side effect in the ensemble.
type networkExpert struct{}

func (networkExpert) ID() int      { return ExpertNetwork }
func (networkExpert) Name() string { return "network" }

func (networkExpert) Init(cpu int, pf Platform, s *State) {
	s.NetBeforeTs = pf.Now()
	s.LastTTWU = pf.NrTTWU(cpu)
}

func (networkExpert) Select(s *State, pf Platform, cpu int) int64 {
	now := pf.Now()
	period := now.Sub(s.NetBeforeTs)

	if period >= networkWindow {
		ttwu := pf.NrTTWU(cpu)
		s.TTWURate = (ttwu - s.LastTTWU) * 2
		s.LastTTWU = ttwu
		s.NetBeforeTs = now

		netReqs := pf.NetReqs()
		s.CntxSwitchRate = (netReqs - s.LastNetReqs) * 2
		s.LastNetReqs = netReqs

		epollEvents := pf.EpollEvents()
		s.EventRate = (epollEvents - s.LastEpollEvents) * 2
		s.LastEpollEvents = epollEvents

		rateSum := 2*s.EventRate + s.CntxSwitchRate
		if rateSum > 0 {
			s.InterarrivalUs = 1_000_000 / rateSum
		}

		deep := s.DeepThresholdUs.Load()
		shallow := s.ShallowThresholdUs.Load()
		switch {
		case cpu != 0 && (s.InterarrivalUs == 0 || s.InterarrivalUs > deep):
			pf.SetRunqueueOnline(cpu, false)
		case cpu+1 < pf.NumOnlineCPUs() && s.InterarrivalUs < shallow:
			pf.SetRunqueueOnline(cpu+1, true)
		}
	}

	deep := s.DeepThresholdUs.Load()
	if s.InterarrivalUs > 0 && s.InterarrivalUs < deep {
		s.NetworkActivity = true
		if s.InterarrivalUs > networkStrictLatencyUs {
			s.StrictLatency = true
		}
		return int64(s.InterarrivalUs)
	}

	// The workload's character changed — re-seed the ensemble rather
	// than let stale weights fight the new regime.
	resetWeights(s)
	return abstain
}

func (networkExpert) Reflect(s *State, pf Platform, cpu int, measuredUs uint64) {}
