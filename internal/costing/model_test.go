package costing

import (
	"math"
	"testing"
)

func TestEstimateShipmentT1(t *testing.T) {
	est := EstimateShipment(650, 1000, ModeT1)
	if est.Cost != 65000 {
		t.Fatalf("expected cost 65000, got %d", est.Cost)
	}
	// 650 / 55 * 24 = 283.6...
	if est.TransitHours != 284 {
		t.Fatalf("expected transit 284h, got %d", est.TransitHours)
	}
	if est.Anomalous {
		t.Fatal("unexpected anomaly flag")
	}
}

func TestEstimateShipmentT2(t *testing.T) {
	est := EstimateShipment(320, 400, ModeT2)
	if want := int(math.Round(320 * 400 * 7 / 100.0)); est.Cost != want {
		t.Fatalf("expected cost %d, got %d", want, est.Cost)
	}
	if want := int(math.Round(320.0 / 45 * 24)); est.TransitHours != want {
		t.Fatalf("expected transit %d, got %d", want, est.TransitHours)
	}
}

func TestEstimateShipmentUnknownModeFallsBack(t *testing.T) {
	est := EstimateShipment(100, 100, Mode("Road"))
	// Falls back to the default rates (cost 10, speed 50).
	if est.Cost != 1000 {
		t.Fatalf("expected fallback cost 1000, got %d", est.Cost)
	}
	if est.TransitHours != 48 {
		t.Fatalf("expected fallback transit 48h, got %d", est.TransitHours)
	}
}

func TestEstimateShipmentClampsNonFinite(t *testing.T) {
	est := EstimateShipment(650, math.NaN(), ModeT1)
	if est.Cost != 0 {
		t.Fatalf("expected clamped cost 0, got %d", est.Cost)
	}
	if !est.Anomalous {
		t.Fatal("expected anomaly flag for non-finite quantity")
	}
	// Transit does not depend on quantity and stays valid.
	if est.TransitHours != 284 {
		t.Fatalf("expected transit 284h, got %d", est.TransitHours)
	}

	est = EstimateShipment(650, math.Inf(1), ModeT1)
	if est.Cost != 0 || !est.Anomalous {
		t.Fatalf("expected clamped anomalous estimate, got %+v", est)
	}
}

func TestEstimateShipmentZeroDistance(t *testing.T) {
	est := EstimateShipment(0, 1000, ModeT1)
	if est.Cost != 0 || est.TransitHours != 0 || est.Anomalous {
		t.Fatalf("expected zero estimate, got %+v", est)
	}
}
