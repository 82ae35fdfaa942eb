package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/clinkerflow/clinkerflow/internal/allocation/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Allocation, error) {
	var allocations []domain.Allocation
	stmt := db.WithContext(ctx).Model(&domain.Allocation{})
	if filter.PlantID != "" {
		stmt = stmt.Where("plant_id = ?", filter.PlantID)
	}
	if filter.UnitID != "" {
		stmt = stmt.Where("unit_id = ?", filter.UnitID)
	}
	if filter.Mode != "" {
		stmt = stmt.Where("mode = ?", filter.Mode)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if err := stmt.Order("id asc").Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Allocation, error) {
	var allocation domain.Allocation
	err := db.WithContext(ctx).First(&allocation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (r *repo) MaxID(ctx context.Context, db *gorm.DB) (int64, error) {
	var max int64
	err := db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&max).
		Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, allocation *domain.Allocation) error {
	return db.WithContext(ctx).Create(allocation).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status string) error {
	return db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Delete(&domain.Allocation{}, "id = ?", id).Error
}

// Replace swaps the entire allocation table for the given rows in one
// transaction, so a failed sync never leaves a half-written table.
func (r *repo) Replace(ctx context.Context, db *gorm.DB, allocations []domain.Allocation) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Allocation{}).Error; err != nil {
			return err
		}
		if len(allocations) == 0 {
			return nil
		}
		return tx.CreateInBatches(allocations, 200).Error
	})
}
