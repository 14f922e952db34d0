package eta

import "testing"

func TestEstimateMinutesFloor(t *testing.T) {
	if m := EstimateMinutes(0, 0, 0, 0, 10); m != 1 {
		t.Fatalf("expected floor of 1 minute, got %d", m)
	}
}

func TestEstimateSecondsScalesWithSpeed(t *testing.T) {
	slow := EstimateSeconds(12.97, 77.59, 12.98, 77.60, 5)
	fast := EstimateSeconds(12.97, 77.59, 12.98, 77.60, 10)
	if slow <= fast {
		t.Fatalf("slower speed must give longer ETA: slow=%f fast=%f", slow, fast)
	}
}
