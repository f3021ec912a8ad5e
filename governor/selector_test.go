package governor

import "testing"

func testDriver() *Driver {
	return &Driver{
		StateStart: 1,
		States: []DriverState{
			{Name: "POLL", TargetResidencyUs: 0, ExitLatencyUs: 0},
			{Name: "C1", TargetResidencyUs: 2, ExitLatencyUs: 2},
			{Name: "C2", TargetResidencyUs: 80, ExitLatencyUs: 60},
			{Name: "C3", TargetResidencyUs: 800, ExitLatencyUs: 300},
		},
	}
}

func testDevice() *DeviceState {
	return &DeviceState{CPU: 0, Disable: make([]bool, 4)}
}

func TestSelectorPicksDeepestFeasibleState(t *testing.T) {
	drv := testDriver()
	dev := testDevice()
	s := newState(0)
	s.NextTimerUs = 10_000
	s.PredictedUs = 1_000 // covers every state's target residency

	idx, exitLatency := selectState(drv, dev, s)
	if idx != 3 {
		t.Errorf("idx = %d, want 3 (C3): predicted covers all target residencies", idx)
	}
	if exitLatency != drv.States[3].ExitLatencyUs {
		t.Errorf("exitLatency = %d, want %d", exitLatency, drv.States[3].ExitLatencyUs)
	}
}

func TestSelectorRespectsTargetResidency(t *testing.T) {
	drv := testDriver()
	dev := testDevice()
	s := newState(0)
	s.NextTimerUs = 10_000
	s.PredictedUs = 500 // below C3's target residency of 800

	idx, _ := selectState(drv, dev, s)
	if idx != 2 {
		t.Errorf("idx = %d, want 2 (C2): predicted 500us doesn't cover C3's 800us target", idx)
	}
}

func TestSelectorHonorsDisabledStates(t *testing.T) {
	drv := testDriver()
	dev := testDevice()
	dev.Disable[3] = true
	s := newState(0)
	s.NextTimerUs = 10_000
	s.PredictedUs = 5_000

	idx, _ := selectState(drv, dev, s)
	if idx != 2 {
		t.Errorf("idx = %d, want 2: deepest state is disabled", idx)
	}
}

func TestSelectorExcludesDeepestUnderStrictLatency(t *testing.T) {
	drv := testDriver()
	dev := testDevice()
	s := newState(0)
	s.NextTimerUs = 10_000
	s.PredictedUs = 5_000
	s.StrictLatency = true

	idx, _ := selectState(drv, dev, s)
	if idx == len(drv.States)-1 {
		t.Errorf("idx = %d, strict latency must exclude the deepest state", idx)
	}
}

func TestSelectorClampsPredictedToTimerDeadline(t *testing.T) {
	drv := testDriver()
	dev := testDevice()
	s := newState(0)
	s.NextTimerUs = 100
	s.PredictedUs = 10_000

	selectState(drv, dev, s)
	if s.PredictedUs != 100 {
		t.Errorf("PredictedUs = %d, want clamped to NextTimerUs=100", s.PredictedUs)
	}
	if !s.WillWakeWithTimer {
		t.Error("WillWakeWithTimer should be set when predicted is clamped down to the timer deadline")
	}
}

func TestSelectorDefaultsToC1WhenTimerNotImminent(t *testing.T) {
	drv := testDriver()
	dev := testDevice()
	s := newState(0)
	s.NextTimerUs = 1_000
	s.PredictedUs = 0 // no state's target residency is satisfied

	idx, _ := selectState(drv, dev, s)
	if idx != 1 {
		t.Errorf("idx = %d, want 1 (C1 default floor)", idx)
	}
}
