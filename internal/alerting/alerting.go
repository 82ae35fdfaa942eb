// Package alerting derives dashboard alerts from the current network and
// allocation state. Alerts are recomputed on every read and carry
// deterministic IDs, so the same state always yields the same alert set.
package alerting

import (
	"fmt"
	"math"
	"time"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	networkdomain "github.com/clinkerflow/clinkerflow/internal/network/domain"
)

type Alert struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Time     string `json:"time"`
	Category string `json:"category"`
}

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

const (
	ViewOverview     = "overview"
	ViewOptimization = "optimization"
)

// Context carries the request-scoped state that influences which alerts
// are emitted on top of the network and allocation data.
type Context struct {
	View           string
	RemoteDegraded bool
}

const (
	lowInventoryPct = 20
	demandRiskRatio = 0.5
)

// Compute evaluates all alert rules in a fixed order.
func Compute(plants []networkdomain.Plant, units []networkdomain.GrindingUnit, allocations []allocdomain.Allocation, actx Context, now time.Time) []Alert {
	ts := now.UTC().Format(time.RFC3339)
	alerts := make([]Alert, 0, 8)

	for _, p := range plants {
		if p.Capacity <= 0 {
			continue
		}
		stockLevel := p.Stock / p.Capacity * 100
		if stockLevel >= lowInventoryPct {
			continue
		}
		alerts = append(alerts, Alert{
			ID:       "inv-" + p.Code,
			Title:    "Low Stock: " + p.Code,
			Message:  fmt.Sprintf("%s stock level is at %d%%. Consider increasing production.", p.Name, int(math.Round(stockLevel))),
			Severity: SeverityCritical,
			Time:     ts,
			Category: "inventory",
		})
	}

	for _, u := range units {
		if u.Stock >= u.Demand*demandRiskRatio {
			continue
		}
		alerts = append(alerts, Alert{
			ID:       "unit-" + u.Code,
			Title:    "Unit Demand Risk: " + u.Code,
			Message:  fmt.Sprintf("%s stock is critically low compared to demand.", u.Name),
			Severity: SeverityWarning,
			Time:     ts,
			Category: "supply",
		})
	}

	delayed := 0
	for _, a := range allocations {
		if a.Status == allocdomain.StatusDelayed {
			delayed++
		}
	}
	if delayed > 0 {
		alerts = append(alerts, Alert{
			ID:       "delayed-shipments",
			Title:    "Delayed Shipments",
			Message:  fmt.Sprintf("%d shipments are running behind schedule", delayed),
			Severity: SeverityWarning,
			Time:     ts,
			Category: "transport",
		})
	}

	if actx.RemoteDegraded {
		alerts = append(alerts, Alert{
			ID:       "remote-sync",
			Title:    "Sync Degraded",
			Message:  "Last sync with the optimization service failed, showing the previous snapshot",
			Severity: SeverityWarning,
			Time:     ts,
			Category: "system",
		})
	}

	// Steady-state notice, shown on the main dashboard only while the
	// remote sync is healthy.
	if (actx.View == "" || actx.View == ViewOverview) && !actx.RemoteDegraded {
		alerts = append(alerts, Alert{
			ID:       "opt-info",
			Title:    "System Optimal",
			Message:  "Clinker allocation is synchronized with current production peaks.",
			Severity: SeverityInfo,
			Time:     ts,
			Category: "optimization",
		})
	}

	return alerts
}
