package governor

import "testing"

func newTestEngine() (*Engine, *fakePlatform) {
	pf := &fakePlatform{numOnline: 1}
	e := NewEngine(testDriver(), pf)
	return e, pf
}

// TestWeightsNeverBelowFloor is P1: for all rounds, MIN_WEIGHT <= weights[i].
func TestWeightsNeverBelowFloor(t *testing.T) {
	e, _ := newTestEngine()
	s := newState(0)
	s.Attendees = 3
	s.FormerPredictions = [numExperts]int64{100, 100, 100}

	// Feed a measurement wildly different from every prediction, many
	// times, so at least one weight would be driven toward the floor.
	for i := 0; i < 500; i++ {
		e.applyWeightUpdate(s, 50_000)
		for j := 0; j < numExperts; j++ {
			if s.Weights[j] < MinWeight {
				t.Fatalf("round %d: weight[%d] = %d below MinWeight %d", i, j, s.Weights[j], MinWeight)
			}
		}
	}
}

// TestWeightUpdateLeavesWeightsUnchangedOnPerfectPrediction is L2: calling
// the weight update with all predictions equal to measured_us leaves
// weights unchanged up to rounding.
func TestWeightUpdateLeavesWeightsUnchangedOnPerfectPrediction(t *testing.T) {
	e, _ := newTestEngine()
	s := newState(0)
	s.Attendees = 3
	// The /1000 normalizer renormalizes total weight mass to 1000 on every
	// update, so "unchanged" only holds once the ensemble is already at
	// that steady state — not from freshly seeded weights summing to
	// numExperts*InitialWeight.
	s.Weights = [numExperts]uint64{400, 300, 300}
	s.FormerPredictions = [numExperts]int64{2000, 2000, 2000}
	before := s.Weights

	e.applyWeightUpdate(s, 2000)

	for i := 0; i < numExperts; i++ {
		if diff := int64(s.Weights[i]) - int64(before[i]); diff < -1 || diff > 1 {
			t.Errorf("weight[%d] moved from %d to %d on a perfect prediction", i, before[i], s.Weights[i])
		}
	}
}

func TestWeightUpdatePenalizesWorsePredictor(t *testing.T) {
	e, _ := newTestEngine()
	s := newState(0)
	s.Attendees = 3
	// expert 2's loss (300) is large enough to cost it weight relative to
	// the perfect predictors, but not so large it collapses to zero and
	// triggers the ensemble-wide reset.
	s.FormerPredictions = [numExperts]int64{1000, 1000, 1300}

	e.applyWeightUpdate(s, 1000)

	if s.Weights[2] == 0 || s.Weights[2] >= s.Weights[0] {
		t.Errorf("expert 2 predicted worse (loss 300 vs 0) and should lose weight relative to expert 0 without collapsing: got weights %v", s.Weights)
	}
}

func TestWeightUpdateSkippedWhenFloorIsZero(t *testing.T) {
	e, _ := newTestEngine()
	s := newState(0)
	s.Attendees = 2
	for i := range s.Weights {
		s.Weights[i] = 0
	}
	s.FormerPredictions = [numExperts]int64{100, 100, 100}

	e.applyWeightUpdate(s, 100)

	for i, w := range s.Weights {
		if w != 0 {
			t.Errorf("weight[%d] = %d, want unchanged at 0 when the normalizer floor is zero", i, w)
		}
	}
}

func TestUpdateUnusableMeasurementBelowExitLatency(t *testing.T) {
	e, _ := newTestEngine()
	s := newState(0)
	s.LastStateIdx = 2 // C2, exit latency 60us
	s.PendingUs = 0
	dev := &DeviceState{CPU: 0, GetLastResidencyUs: func() uint64 { return 30 }}

	e.update(s, dev)

	if s.MeasuredUs != 0 {
		t.Errorf("MeasuredUs = %d, want 0: raw residency below exit latency carries no signal", s.MeasuredUs)
	}
}

func TestUpdateDeferSpuriousWakeIntoPending(t *testing.T) {
	e, pf := newTestEngine()
	s := newState(0)
	s.LastStateIdx = 1
	s.NextTimerUs = 1000
	s.WokeByTimer.Store(true)
	pf.tasksWoke = false

	dev := &DeviceState{CPU: 0, GetLastResidencyUs: func() uint64 { return 500 }}
	e.update(s, dev)

	if s.PendingUs == 0 {
		t.Error("expected the measured residency to be deferred into PendingUs on a spurious timer wake")
	}
}

func TestUpdateMergesPendingIntoNextMeasurement(t *testing.T) {
	e, pf := newTestEngine()
	s := newState(0)
	s.LastStateIdx = 1
	s.NextTimerUs = 10_000
	s.WokeByTimer.Store(true)
	pf.tasksWoke = false

	dev := &DeviceState{CPU: 0, GetLastResidencyUs: func() uint64 { return 500 }}
	e.update(s, dev) // deferred
	pending := s.PendingUs

	s.WokeByTimer.Store(false)
	dev.GetLastResidencyUs = func() uint64 { return 700 }
	e.update(s, dev)

	if s.MeasuredUs < pending {
		t.Errorf("MeasuredUs = %d should include the %d deferred from the spurious wake", s.MeasuredUs, pending)
	}
	if s.PendingUs != 0 {
		t.Errorf("PendingUs = %d, want reset to 0 after being merged", s.PendingUs)
	}
}
