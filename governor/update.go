package governor

// update adjusts the last measured residency for exit latency and pending
// spurious wakes, then drives every expert's reflect and the ensemble
// weight update. It is invoked from Select, never from Reflect (§4.8) —
// Reflect stays on the latency-critical exit path and does no expert work.
func (e *Engine) update(s *State, dev *DeviceState) {
	rawUs := dev.GetLastResidencyUs()
	lastIdx := s.LastStateIdx
	exitLatencyUs := uint64(0)
	if lastIdx >= 0 && lastIdx < len(e.drv.States) {
		exitLatencyUs = e.drv.States[lastIdx].ExitLatencyUs
	}

	if rawUs <= exitLatencyUs {
		s.PendingUs = 0
		e.logf(s.CPU, ErrUnusableMeasurement, "raw=%dus exit_latency=%dus", rawUs, exitLatencyUs)
		return
	}
	measuredUs := rawUs - exitLatencyUs
	if measuredUs > s.NextTimerUs {
		measuredUs = s.NextTimerUs
	}

	if s.WokeByTimer.Load() && !e.platform.TasksWoke(s.CPU) {
		s.PendingUs += measuredUs
		e.logf(s.CPU, ErrSpuriousWake, "deferred=%dus pending_total=%dus", measuredUs, s.PendingUs)
		return
	}

	measuredUs += s.PendingUs
	s.PendingUs = 0
	s.MeasuredUs = measuredUs
	if e.recorder != nil {
		e.recorder.RecordReflect(s.CPU, measuredUs, e.platform.Now())
	}

	for i := 0; i < numExperts; i++ {
		e.experts[i].Reflect(s, e.platform, s.CPU, measuredUs)
	}

	if s.Attendees > 1 {
		e.applyWeightUpdate(s, measuredUs)
	}

	s.FormerPredictions = s.Predictions
}

// applyWeightUpdate runs the exponentially-weighted-forecaster update
// (§4.5): a per-expert loss against the measurement that led to last
// round's former predictions, normalized by a weighted-average EXP score,
// with a catastrophic-forgetting guard if any weight would hit zero.
func (e *Engine) applyWeightUpdate(s *State, measuredUs uint64) {
	var losses [numExperts]uint64
	var floorNum uint64
	for i := 0; i < numExperts; i++ {
		losses[i] = clampLoss(s.FormerPredictions[i], measuredUs)
		floorNum += s.Weights[i] * expTable[losses[i]]
	}
	floor := floorNum / 1000
	if floor == 0 {
		e.logf(s.CPU, ErrWeightNormalizerZero, "")
		return
	}

	for i := 0; i < numExperts; i++ {
		if s.FormerPredictions[i] == abstain {
			continue
		}
		newWeight := (s.Weights[i] * expTable[losses[i]]) / floor
		if newWeight == 0 {
			resetWeights(s)
			e.logf(s.CPU, ErrWeightCollapse, "expert=%s", e.experts[i].Name())
			return
		}
		if newWeight < MinWeight {
			newWeight = MinWeight
		}
		s.Weights[i] = newWeight
	}
}
