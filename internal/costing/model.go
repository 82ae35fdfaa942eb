// Package costing derives monetary cost and transit time for a shipment
// from its distance, quantity and transport mode. The rate tables are fixed
// policy shared with the remote optimization service.
package costing

import "math"

// Mode identifies a transport tier. T1 is the regular (cheaper, slower)
// tier, T2 the express one. Unrecognized modes fall back to default rates.
type Mode string

const (
	ModeT1 Mode = "T1"
	ModeT2 Mode = "T2"
)

// Modes lists the known transport tiers in stable order.
func Modes() []Mode {
	return []Mode{ModeT1, ModeT2}
}

// Known reports whether the mode has a dedicated rate table entry.
func (m Mode) Known() bool {
	_, ok := costPerUnit[m]
	return ok
}

var costPerUnit = map[Mode]float64{
	ModeT1: 10,
	ModeT2: 7,
}

var speedKmh = map[Mode]float64{
	ModeT1: 55,
	ModeT2: 45,
}

const (
	defaultCostPerUnit = 10
	defaultSpeedKmh    = 50
)

// Estimate is the costed view of a single shipment. Anomalous is set when
// a formula produced a non-finite value that had to be clamped to zero;
// callers are expected to surface it rather than ignore it.
type Estimate struct {
	Cost         int
	TransitHours int
	Anomalous    bool
}

// EstimateShipment computes cost and transit time for a shipment.
//
// cost = round(distance * quantity * costPerUnit / 100)
// transit = round(distance / speed * 24)
//
// Non-finite results are clamped to zero and flagged, never propagated.
func EstimateShipment(distanceKm int, quantity float64, mode Mode) Estimate {
	rate, ok := costPerUnit[mode]
	if !ok {
		rate = defaultCostPerUnit
	}
	speed, ok := speedKmh[mode]
	if !ok {
		speed = defaultSpeedKmh
	}

	var est Estimate

	cost := float64(distanceKm) * quantity * rate / 100
	if isFinite(cost) {
		est.Cost = int(math.Round(cost))
	} else {
		est.Anomalous = true
	}

	transit := float64(distanceKm) / speed * 24
	if isFinite(transit) {
		est.TransitHours = int(math.Round(transit))
	} else {
		est.Anomalous = true
	}

	return est
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
