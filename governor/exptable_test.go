package governor

import "testing"

func TestExpTableAnchors(t *testing.T) {
	if expTable[0] != 1000 {
		t.Errorf("expTable[0] = %d, want 1000", expTable[0])
	}
	if expTable[expTableSize-1] == 0 {
		t.Errorf("expTable[%d] = 0, want >= 1", expTableSize-1)
	}
}

func TestExpTableMonotonicNonIncreasing(t *testing.T) {
	for i := 1; i < expTableSize; i++ {
		if expTable[i] > expTable[i-1] {
			t.Fatalf("expTable[%d] = %d > expTable[%d] = %d, not monotonic", i, expTable[i], i-1, expTable[i-1])
		}
	}
}

func TestClampLoss(t *testing.T) {
	tests := []struct {
		a    int64
		b    uint64
		want uint64
	}{
		{10, 10, 0},
		{10, 15, 5},
		{15, 10, 5},
		{0, 5000, expTableSize - 1},
		{-1, 0, 1},
	}
	for _, tt := range tests {
		if got := clampLoss(tt.a, tt.b); got != tt.want {
			t.Errorf("clampLoss(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
