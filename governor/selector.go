package governor

// fallbackStateIdx is returned when every expert abstained this round (I2):
// the ensemble has nothing to go on, so the round aborts before the
// selector runs or a wake timer is armed, defaulting to a shallow, safe
// state rather than guessing.
const fallbackStateIdx = 1

// selectState picks the highest-numbered idle state whose target residency
// is still covered by s.PredictedUs, honoring disabled states and a
// strict-latency exclusion of the deepest state. It mutates s.LastStateIdx,
// s.PredictedUs (clamped to the timer deadline) and s.WillWakeWithTimer,
// and returns the chosen index together with that state's exit latency.
func selectState(drv *Driver, dev *DeviceState, s *State) (idx int, exitLatencyUs uint64) {
	start := drv.stateStart()
	s.LastStateIdx = start - 1

	// Default to C1, not busy-polling, unless the timer is imminent.
	if s.NextTimerUs > 5 && start < len(drv.States) && !drv.States[start].Disabled && !dev.disabled(start) {
		s.LastStateIdx = start
	}

	if s.PredictedUs > s.NextTimerUs {
		s.PredictedUs = s.NextTimerUs
		s.WillWakeWithTimer = true
	}

	limit := len(drv.States)
	if s.StrictLatency {
		limit--
	}

	for i := start; i < limit; i++ {
		st := drv.States[i]
		if st.Disabled || dev.disabled(i) {
			continue
		}
		if st.TargetResidencyUs > s.PredictedUs {
			continue
		}
		s.LastStateIdx = i
		exitLatencyUs = st.ExitLatencyUs
	}

	return s.LastStateIdx, exitLatencyUs
}
