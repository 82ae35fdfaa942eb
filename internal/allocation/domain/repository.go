package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	PlantID string
	UnitID  string
	Mode    string
	Status  string
}

type Repository interface {
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Allocation, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Allocation, error)
	MaxID(ctx context.Context, db *gorm.DB) (int64, error)
	Insert(ctx context.Context, db *gorm.DB, allocation *Allocation) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status string) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
	Replace(ctx context.Context, db *gorm.DB, allocations []Allocation) error
}
