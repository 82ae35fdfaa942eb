// Package catalog holds the static plant and grinding-unit tables for the
// session. The tables are loaded once at startup, validated, and never
// mutated afterwards; accessors hand out copies.
package catalog

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/clinkerflow/clinkerflow/internal/config"
	"github.com/clinkerflow/clinkerflow/internal/network/domain"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

// Catalog is the immutable network of plants and grinding units.
type Catalog struct {
	plants []domain.Plant
	units  []domain.GrindingUnit

	plantByID   map[string]int
	plantByCode map[string]int
	unitByID    map[string]int
	unitByCode  map[string]int
}

// New loads the network from the configured file, or falls back to the
// built-in sample network when no file is configured.
func New(p Params) (*Catalog, error) {
	log := p.Log.Named("network.catalog")

	plants, units, err := load(p.Cfg.NetworkConfigPath)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		plants:      plants,
		units:       units,
		plantByID:   make(map[string]int, len(plants)),
		plantByCode: make(map[string]int, len(plants)),
		unitByID:    make(map[string]int, len(units)),
		unitByCode:  make(map[string]int, len(units)),
	}

	for i, plant := range plants {
		if err := validatePlant(plant); err != nil {
			return nil, fmt.Errorf("plant %s: %w", plant.Code, err)
		}
		if _, dup := c.plantByCode[plant.Code]; dup {
			return nil, fmt.Errorf("plant %s: %w", plant.Code, domain.ErrDuplicateCode)
		}
		c.plantByID[plant.ID] = i
		c.plantByCode[plant.Code] = i
	}
	for i, unit := range units {
		if err := validateUnit(unit); err != nil {
			return nil, fmt.Errorf("unit %s: %w", unit.Code, err)
		}
		if _, dup := c.unitByCode[unit.Code]; dup {
			return nil, fmt.Errorf("unit %s: %w", unit.Code, domain.ErrDuplicateCode)
		}
		c.unitByID[unit.ID] = i
		c.unitByCode[unit.Code] = i
	}

	log.Info("network loaded",
		zap.Int("plants", len(plants)),
		zap.Int("units", len(units)),
		zap.Bool("from_file", p.Cfg.NetworkConfigPath != ""),
	)

	return c, nil
}

func load(path string) ([]domain.Plant, []domain.GrindingUnit, error) {
	if path == "" {
		return defaultPlants(), defaultUnits(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read network config: %w", err)
	}

	var cfg struct {
		Plants []domain.Plant        `mapstructure:"plants"`
		Units  []domain.GrindingUnit `mapstructure:"units"`
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("parse network config: %w", err)
	}
	if len(cfg.Plants) == 0 || len(cfg.Units) == 0 {
		return nil, nil, domain.ErrEmptyNetwork
	}
	return cfg.Plants, cfg.Units, nil
}

func validatePlant(p domain.Plant) error {
	if !validCoordinate(p.Latitude, p.Longitude) {
		return domain.ErrInvalidCoordinate
	}
	if p.Production < 0 || p.Stock < 0 || p.Capacity <= 0 || p.Stock > p.Capacity {
		return domain.ErrInvalidStock
	}
	return nil
}

func validateUnit(u domain.GrindingUnit) error {
	if !validCoordinate(u.Latitude, u.Longitude) {
		return domain.ErrInvalidCoordinate
	}
	if u.Demand < 0 || u.Stock < 0 {
		return domain.ErrInvalidStock
	}
	return nil
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Plants returns a copy of the plant table.
func (c *Catalog) Plants() []domain.Plant {
	out := make([]domain.Plant, len(c.plants))
	copy(out, c.plants)
	return out
}

// Units returns a copy of the grinding-unit table.
func (c *Catalog) Units() []domain.GrindingUnit {
	out := make([]domain.GrindingUnit, len(c.units))
	copy(out, c.units)
	return out
}

func (c *Catalog) PlantByID(id string) (domain.Plant, bool) {
	i, ok := c.plantByID[id]
	if !ok {
		return domain.Plant{}, false
	}
	return c.plants[i], true
}

func (c *Catalog) PlantByCode(code string) (domain.Plant, bool) {
	i, ok := c.plantByCode[code]
	if !ok {
		return domain.Plant{}, false
	}
	return c.plants[i], true
}

func (c *Catalog) UnitByID(id string) (domain.GrindingUnit, bool) {
	i, ok := c.unitByID[id]
	if !ok {
		return domain.GrindingUnit{}, false
	}
	return c.units[i], true
}

func (c *Catalog) UnitByCode(code string) (domain.GrindingUnit, bool) {
	i, ok := c.unitByCode[code]
	if !ok {
		return domain.GrindingUnit{}, false
	}
	return c.units[i], true
}

// FirstPlant returns the first plant in table order. Used only by the
// compatibility fallback when mapping unknown remote codes.
func (c *Catalog) FirstPlant() domain.Plant {
	return c.plants[0]
}

// FirstUnit returns the first grinding unit in table order.
func (c *Catalog) FirstUnit() domain.GrindingUnit {
	return c.units[0]
}
