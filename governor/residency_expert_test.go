package governor

import "testing"

func TestResidencyExpertNeverAbstains(t *testing.T) {
	s := newState(0)
	e := residencyExpert{}
	if pred := e.Select(s, nil, 0); pred == abstain {
		t.Fatal("residency expert must never abstain")
	}
}

func TestResidencyExpertEMAConvergesTowardSteadyInput(t *testing.T) {
	s := newState(0)
	e := residencyExpert{}

	const steady = 5000
	for i := 0; i < 200; i++ {
		e.Reflect(s, nil, 0, steady)
	}
	pred := e.Select(s, nil, 0)
	if diff := pred - steady; diff < -50 || diff > 50 {
		t.Errorf("EMA = %d after 200 rounds of steady %d input, want within 50us", pred, steady)
	}
}

func TestResidencyExpertEMATracksChange(t *testing.T) {
	s := newState(0)
	e := residencyExpert{}

	for i := 0; i < 100; i++ {
		e.Reflect(s, nil, 0, 1000)
	}
	before := s.ResidencyEMA

	for i := 0; i < 10; i++ {
		e.Reflect(s, nil, 0, 9000)
	}
	after := s.ResidencyEMA

	if after <= before {
		t.Errorf("EMA did not move up after higher measurements: before=%d after=%d", before, after)
	}
}
