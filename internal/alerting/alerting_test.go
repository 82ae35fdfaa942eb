package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	networkdomain "github.com/clinkerflow/clinkerflow/internal/network/domain"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestComputeLowStockAlert(t *testing.T) {
	plants := []networkdomain.Plant{
		{Code: "IU_002", Name: "Plant IU_002", Stock: 780000, Capacity: 5000000},
		{Code: "IU_003", Name: "Plant IU_003", Stock: 4200000, Capacity: 5000000},
	}

	alerts := Compute(plants, nil, nil, Context{View: ViewOptimization}, testNow)

	require.Len(t, alerts, 1)
	assert.Equal(t, "inv-IU_002", alerts[0].ID)
	assert.Equal(t, "Low Stock: IU_002", alerts[0].Title)
	assert.Equal(t, SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "Plant IU_002 stock level is at 16%. Consider increasing production.", alerts[0].Message)
}

func TestComputeLowStockAlertRoundsPercentage(t *testing.T) {
	plants := []networkdomain.Plant{
		{Code: "IU_002", Name: "Plant IU_002", Stock: 925000, Capacity: 5000000},
	}

	alerts := Compute(plants, nil, nil, Context{View: ViewOptimization}, testNow)

	// 18.5% rounds half away from zero.
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "19%")
}

func TestComputeLowStockAlertBoundary(t *testing.T) {
	plants := []networkdomain.Plant{
		{Code: "IU_002", Name: "Plant IU_002", Stock: 1000000, Capacity: 5000000},
		{Code: "IU_003", Name: "Plant IU_003", Stock: 1000000, Capacity: 0},
	}

	// Exactly 20% does not fire, and zero capacity never divides.
	alerts := Compute(plants, nil, nil, Context{View: ViewOptimization}, testNow)
	assert.Empty(t, alerts)
}

func TestComputeDemandRiskAlert(t *testing.T) {
	units := []networkdomain.GrindingUnit{
		{Code: "GU_009", Name: "Unit GU_009", Demand: 2000, Stock: 900},
		{Code: "GU_023", Name: "Unit GU_023", Demand: 2000, Stock: 1000},
	}

	alerts := Compute(nil, units, nil, Context{View: ViewOptimization}, testNow)

	// 900 is below half of demand, 1000 is exactly half and stays quiet.
	require.Len(t, alerts, 1)
	assert.Equal(t, "unit-GU_009", alerts[0].ID)
	assert.Equal(t, "Unit Demand Risk: GU_009", alerts[0].Title)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)
	assert.Equal(t, "Unit GU_009 stock is critically low compared to demand.", alerts[0].Message)
}

func TestComputeDelayedShipments(t *testing.T) {
	allocations := []allocdomain.Allocation{
		{ID: 1, Status: allocdomain.StatusDelayed},
		{ID: 2, Status: allocdomain.StatusActive},
		{ID: 3, Status: allocdomain.StatusDelayed},
	}

	alerts := Compute(nil, nil, allocations, Context{View: ViewOptimization}, testNow)

	require.Len(t, alerts, 1)
	assert.Equal(t, "delayed-shipments", alerts[0].ID)
	assert.Contains(t, alerts[0].Message, "2 shipments")
}

func TestComputeRemoteDegraded(t *testing.T) {
	alerts := Compute(nil, nil, nil, Context{View: ViewOverview, RemoteDegraded: true}, testNow)

	// A degraded sync suppresses the steady-state notice on every view.
	require.Len(t, alerts, 1)
	assert.Equal(t, "remote-sync", alerts[0].ID)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)
}

func TestComputeSteadyStateNotice(t *testing.T) {
	for _, view := range []string{"", ViewOverview} {
		alerts := Compute(nil, nil, nil, Context{View: view}, testNow)
		require.Len(t, alerts, 1, "view %q", view)
		assert.Equal(t, "opt-info", alerts[0].ID)
		assert.Equal(t, "System Optimal", alerts[0].Title)
		assert.Equal(t, SeverityInfo, alerts[0].Severity)
	}

	// Other views stay silent.
	assert.Empty(t, Compute(nil, nil, nil, Context{View: ViewOptimization}, testNow))
}

func TestComputeDeterministic(t *testing.T) {
	plants := []networkdomain.Plant{
		{Code: "IU_002", Name: "Plant IU_002", Stock: 500000, Capacity: 5000000},
	}
	units := []networkdomain.GrindingUnit{
		{Code: "GU_009", Name: "Unit GU_009", Demand: 2000, Stock: 0},
	}
	allocations := []allocdomain.Allocation{
		{ID: 1, Status: allocdomain.StatusDelayed},
	}
	actx := Context{View: ViewOverview, RemoteDegraded: true}

	first := Compute(plants, units, allocations, actx, testNow)
	second := Compute(plants, units, allocations, actx, testNow)

	assert.Equal(t, first, second)
	require.Len(t, first, 4)
	assert.Equal(t, []string{"inv-IU_002", "unit-GU_009", "delayed-shipments", "remote-sync"},
		[]string{first[0].ID, first[1].ID, first[2].ID, first[3].ID})
}

func TestComputeQuietNetwork(t *testing.T) {
	plants := []networkdomain.Plant{
		{Code: "IU_002", Stock: 4200000, Capacity: 5000000},
	}
	units := []networkdomain.GrindingUnit{
		{Code: "GU_009", Demand: 2000, Stock: 1800},
	}

	// A healthy network reduces to the single steady-state notice.
	alerts := Compute(plants, units, nil, Context{View: ViewOverview}, testNow)
	require.Len(t, alerts, 1)
	assert.Equal(t, "opt-info", alerts[0].ID)
}
