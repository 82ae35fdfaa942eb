package domain

import "errors"

// Plant is a clinker production site. Plants are loaded once at startup
// and immutable for the session.
type Plant struct {
	ID         string  `mapstructure:"id" json:"id"`
	Name       string  `mapstructure:"name" json:"name"`
	Code       string  `mapstructure:"code" json:"code"`
	Production float64 `mapstructure:"production" json:"production"`
	Stock      float64 `mapstructure:"stock" json:"stock"`
	Capacity   float64 `mapstructure:"capacity" json:"capacity"`
	Status     string  `mapstructure:"status" json:"status"`
	Latitude   float64 `mapstructure:"latitude" json:"latitude"`
	Longitude  float64 `mapstructure:"longitude" json:"longitude"`
}

// GrindingUnit is a downstream demand site consuming clinker.
type GrindingUnit struct {
	ID        string  `mapstructure:"id" json:"id"`
	Name      string  `mapstructure:"name" json:"name"`
	Code      string  `mapstructure:"code" json:"code"`
	Demand    float64 `mapstructure:"demand" json:"demand"`
	Location  string  `mapstructure:"location" json:"location"`
	Priority  string  `mapstructure:"priority" json:"priority"`
	Stock     float64 `mapstructure:"stock" json:"stock"`
	Latitude  float64 `mapstructure:"latitude" json:"latitude"`
	Longitude float64 `mapstructure:"longitude" json:"longitude"`
}

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"

	StatusOperational = "Operational"
)

var (
	ErrEmptyNetwork      = errors.New("empty_network")
	ErrDuplicateCode     = errors.New("duplicate_code")
	ErrInvalidCoordinate = errors.New("invalid_coordinate")
	ErrInvalidStock      = errors.New("invalid_stock")
)
