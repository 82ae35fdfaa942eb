package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	networkdomain "github.com/clinkerflow/clinkerflow/internal/network/domain"
)

func testNetwork() ([]networkdomain.Plant, []networkdomain.GrindingUnit) {
	plants := []networkdomain.Plant{
		{ID: "P001", Code: "IU_002", Production: 5000, Stock: 4000},
		{ID: "P002", Code: "IU_003", Production: 3000, Stock: 2500},
	}
	units := []networkdomain.GrindingUnit{
		{ID: "U001", Code: "GU_009", Demand: 2000},
		{ID: "U002", Code: "GU_023", Demand: 1000},
	}
	return plants, units
}

func TestComputeTotals(t *testing.T) {
	plants, units := testNetwork()
	allocations := []allocdomain.Allocation{
		{ID: 1, PlantID: "P001", UnitID: "U001", Quantity: 1500, Cost: 9000, Mode: "T1", Status: allocdomain.StatusActive},
		{ID: 2, PlantID: "P002", UnitID: "U001", Quantity: 700, Cost: 4200, Mode: "T2", Status: allocdomain.StatusDelayed},
		{ID: 3, PlantID: "P001", UnitID: "U002", Quantity: 300, Cost: 1500, Mode: "T1", Status: allocdomain.StatusDelayed},
	}

	snap := Compute(plants, units, allocations, 94.2)

	assert.Equal(t, float64(8000), snap.TotalProduction)
	assert.Equal(t, float64(2500), snap.AllocatedClinker)
	assert.Equal(t, float64(4000), snap.AvailableStock)
	assert.Equal(t, 14700, snap.TransportCost)
	assert.Equal(t, 2, snap.DelayedShipments)
	assert.Equal(t, 94.2, snap.OnTimeDeliveryPct)
}

func TestComputeAllocationByPlant(t *testing.T) {
	plants, units := testNetwork()
	allocations := []allocdomain.Allocation{
		{ID: 1, PlantID: "P001", UnitID: "U001", Quantity: 1500, Cost: 9000, Mode: "T1"},
		{ID: 2, PlantID: "P001", UnitID: "U002", Quantity: 500, Cost: 2500, Mode: "T1"},
	}

	snap := Compute(plants, units, allocations, 0)

	assert.Equal(t, []PlantAllocation{
		{PlantID: "P001", Code: "IU_002", Allocated: 2000, Unallocated: 2000, Cost: 11500},
		{PlantID: "P002", Code: "IU_003", Allocated: 0, Unallocated: 2500, Cost: 0},
	}, snap.AllocationByPlant)
}

func TestComputeDemandFulfillment(t *testing.T) {
	plants, units := testNetwork()
	allocations := []allocdomain.Allocation{
		{ID: 1, PlantID: "P001", UnitID: "U001", Quantity: 500, Mode: "T1"},
		{ID: 2, PlantID: "P001", UnitID: "U002", Quantity: 2500, Mode: "T1"},
	}

	snap := Compute(plants, units, allocations, 0)

	assert.Equal(t, 25, snap.DemandFulfillment[0].Percent)
	// Over-allocation clamps at full coverage.
	assert.Equal(t, 100, snap.DemandFulfillment[1].Percent)
}

func TestComputeDemandFulfillmentZeroDemand(t *testing.T) {
	plants := []networkdomain.Plant{{ID: "P001", Code: "IU_002"}}
	units := []networkdomain.GrindingUnit{{ID: "U001", Code: "GU_009", Demand: 0}}
	allocations := []allocdomain.Allocation{
		{ID: 1, PlantID: "P001", UnitID: "U001", Quantity: 0.4, Mode: "T1"},
	}

	snap := Compute(plants, units, allocations, 0)
	assert.Equal(t, 40, snap.DemandFulfillment[0].Percent)
}

func TestComputeModeEfficiency(t *testing.T) {
	plants, units := testNetwork()
	allocations := []allocdomain.Allocation{
		{ID: 1, PlantID: "P001", UnitID: "U001", Quantity: 1000, Cost: 6500, Mode: "T1"},
	}

	snap := Compute(plants, units, allocations, 0)

	// Both tiers are always present, the unused one zeroed.
	assert.Equal(t, []ModeStat{
		{Mode: "T1", Quantity: 1000, Cost: 6500, CostPerUnit: 7},
		{Mode: "T2", Quantity: 0, Cost: 0, CostPerUnit: 0},
	}, snap.ModeEfficiency)
}

func TestComputeModeEfficiencyRounding(t *testing.T) {
	plants, units := testNetwork()
	allocations := []allocdomain.Allocation{
		{ID: 1, PlantID: "P001", UnitID: "U001", Quantity: 300, Cost: 1000, Mode: "T2"},
	}

	snap := Compute(plants, units, allocations, 0)

	assert.Equal(t, "T2", snap.ModeEfficiency[1].Mode)
	assert.Equal(t, 3, snap.ModeEfficiency[1].CostPerUnit)
}

func TestComputeCostTrend(t *testing.T) {
	plants, units := testNetwork()
	allocations := []allocdomain.Allocation{
		{ID: 1, PlantID: "P001", UnitID: "U001", Quantity: 1500, Cost: 9000, Mode: "T1"},
		{ID: 2, PlantID: "P002", UnitID: "U001", Quantity: 700, Cost: 4200, Mode: "T2"},
	}

	snap := Compute(plants, units, allocations, 0)

	assert.Equal(t, []CostPoint{
		{Month: "Jan", Cost: 15000},
		{Month: "Feb", Cost: 18000},
		{Month: "Mar", Cost: 22000},
		{Month: "Apr", Cost: 13200},
	}, snap.CostTrend)
}

func TestComputeEmptyAllocations(t *testing.T) {
	plants, units := testNetwork()

	snap := Compute(plants, units, nil, 94.2)

	assert.Zero(t, snap.AllocatedClinker)
	assert.Zero(t, snap.TransportCost)
	assert.Equal(t, float64(6500), snap.AvailableStock)
	assert.Len(t, snap.DemandFulfillment, 2)
	assert.Zero(t, snap.DemandFulfillment[0].Percent)

	// The mode breakdown still lists every tier, with no division by zero.
	assert.Equal(t, []ModeStat{
		{Mode: "T1"},
		{Mode: "T2"},
	}, snap.ModeEfficiency)

	// Current cost point tracks the live total.
	assert.Equal(t, CostPoint{Month: "Apr", Cost: 0}, snap.CostTrend[3])
}
