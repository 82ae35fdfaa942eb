package catalog

import (
	"fmt"

	"github.com/clinkerflow/clinkerflow/internal/network/domain"
)

var defaultPlantCodes = []string{
	"IU_002", "IU_003", "IU_004", "IU_005", "IU_006",
	"IU_007", "IU_008", "IU_009", "IU_010", "IU_011",
	"EXT_001", "EXT_002", "IU_013", "IU_015", "IU_016",
	"IU_017", "IU_019", "IU_020", "IU_021",
}

var defaultUnitCodes = []string{
	"GU_009", "GU_023", "GU_002", "GU_020", "GU_013",
	"GU_022", "GU_005", "GU_010", "GU_019", "GU_001",
	"GU_015", "GU_012", "GU_008", "GU_006", "GU_021",
	"GU_007", "GU_011", "GU_018", "GU_024", "GU_016",
	"GU_014",
}

func defaultPlants() []domain.Plant {
	plants := make([]domain.Plant, len(defaultPlantCodes))
	for i, code := range defaultPlantCodes {
		plants[i] = domain.Plant{
			ID:         fmt.Sprintf("P%03d", i+1),
			Name:       fmt.Sprintf("Plant %s", code),
			Code:       code,
			Production: 4500000,
			Stock:      4200000,
			Capacity:   5000000,
			Status:     domain.StatusOperational,
			Latitude:   float64(20 + i%10),
			Longitude:  float64(70 + i%10),
		}
	}
	return plants
}

func defaultUnits() []domain.GrindingUnit {
	units := make([]domain.GrindingUnit, len(defaultUnitCodes))
	for i, code := range defaultUnitCodes {
		units[i] = domain.GrindingUnit{
			ID:        fmt.Sprintf("U%03d", i+1),
			Name:      fmt.Sprintf("Unit %s", code),
			Code:      code,
			Demand:    2000,
			Location:  "India",
			Priority:  domain.PriorityHigh,
			Stock:     1800,
			Latitude:  float64(25 + i%10),
			Longitude: float64(75 + i%10),
		}
	}
	return units
}
