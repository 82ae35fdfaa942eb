// Package kpi computes dashboard indicators over the current allocation
// snapshot. All figures are derived on demand, nothing is stored.
package kpi

import (
	"math"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	"github.com/clinkerflow/clinkerflow/internal/costing"
	networkdomain "github.com/clinkerflow/clinkerflow/internal/network/domain"
)

type Snapshot struct {
	TotalProduction   float64 `json:"totalProduction"`
	AllocatedClinker  float64 `json:"allocatedClinker"`
	AvailableStock    float64 `json:"availableStock"`
	TransportCost     int     `json:"transportCost"`
	DelayedShipments  int     `json:"delayedShipments"`
	OnTimeDeliveryPct float64 `json:"onTimeDelivery"`

	AllocationByPlant []PlantAllocation `json:"allocationByPlant"`
	DemandFulfillment []UnitFulfillment `json:"demandFulfillment"`
	ModeEfficiency    []ModeStat        `json:"modeEfficiency"`
	CostTrend         []CostPoint       `json:"costTrend"`
}

type PlantAllocation struct {
	PlantID     string  `json:"plantId"`
	Code        string  `json:"code"`
	Allocated   float64 `json:"allocated"`
	Unallocated float64 `json:"unallocated"`
	Cost        int     `json:"cost"`
}

type UnitFulfillment struct {
	UnitID    string  `json:"unitId"`
	Code      string  `json:"code"`
	Demand    float64 `json:"demand"`
	Allocated float64 `json:"allocated"`
	Percent   int     `json:"percent"`
}

type ModeStat struct {
	Mode        string  `json:"mode"`
	Quantity    float64 `json:"quantity"`
	Cost        int     `json:"cost"`
	CostPerUnit int     `json:"costPerUnit"`
}

type CostPoint struct {
	Month string `json:"month"`
	Cost  int    `json:"cost"`
}

// Compute builds the full indicator set from the network tables and the
// current allocations.
func Compute(plants []networkdomain.Plant, units []networkdomain.GrindingUnit, allocations []allocdomain.Allocation, onTimePct float64) Snapshot {
	snap := Snapshot{OnTimeDeliveryPct: onTimePct}

	totalStock := 0.0
	for _, p := range plants {
		snap.TotalProduction += p.Production
		totalStock += p.Stock
	}

	plantQty := make(map[string]float64, len(plants))
	plantCost := make(map[string]int, len(plants))
	byUnit := make(map[string]float64, len(units))
	modeQty := make(map[string]float64, 2)
	modeCost := make(map[string]int, 2)
	for _, a := range allocations {
		snap.AllocatedClinker += a.Quantity
		snap.TransportCost += a.Cost
		if a.Status == allocdomain.StatusDelayed {
			snap.DelayedShipments++
		}
		plantQty[a.PlantID] += a.Quantity
		plantCost[a.PlantID] += a.Cost
		byUnit[a.UnitID] += a.Quantity
		modeQty[a.Mode] += a.Quantity
		modeCost[a.Mode] += a.Cost
	}

	snap.AvailableStock = totalStock - snap.AllocatedClinker

	snap.AllocationByPlant = make([]PlantAllocation, 0, len(plants))
	for _, p := range plants {
		allocated := plantQty[p.ID]
		snap.AllocationByPlant = append(snap.AllocationByPlant, PlantAllocation{
			PlantID:     p.ID,
			Code:        p.Code,
			Allocated:   allocated,
			Unallocated: p.Stock - allocated,
			Cost:        plantCost[p.ID],
		})
	}

	snap.DemandFulfillment = make([]UnitFulfillment, 0, len(units))
	for _, u := range units {
		allocated := byUnit[u.ID]
		snap.DemandFulfillment = append(snap.DemandFulfillment, UnitFulfillment{
			UnitID:    u.ID,
			Code:      u.Code,
			Demand:    u.Demand,
			Allocated: allocated,
			Percent:   fulfillmentPercent(allocated, u.Demand),
		})
	}

	// Every transport tier appears in the breakdown, zeroed when unused.
	snap.ModeEfficiency = make([]ModeStat, 0, len(costing.Modes()))
	for _, mode := range costing.Modes() {
		stat := ModeStat{
			Mode:     string(mode),
			Quantity: modeQty[string(mode)],
			Cost:     modeCost[string(mode)],
		}
		if stat.Quantity > 0 {
			stat.CostPerUnit = int(math.Round(float64(stat.Cost) / stat.Quantity))
		}
		snap.ModeEfficiency = append(snap.ModeEfficiency, stat)
	}

	snap.CostTrend = costTrend(snap.TransportCost)

	return snap
}

// costTrend carries the fixed historical baseline with the live transport
// cost as the current point.
func costTrend(currentCost int) []CostPoint {
	return []CostPoint{
		{Month: "Jan", Cost: 15000},
		{Month: "Feb", Cost: 18000},
		{Month: "Mar", Cost: 22000},
		{Month: "Apr", Cost: currentCost},
	}
}

// fulfillmentPercent clamps to 100 so over-allocation never reads as
// more than full coverage.
func fulfillmentPercent(allocated, demand float64) int {
	if demand < 1 {
		demand = 1
	}
	pct := int(math.Round(allocated / demand * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
