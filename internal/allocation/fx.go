package allocation

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	"github.com/clinkerflow/clinkerflow/internal/allocation/repository"
	"github.com/clinkerflow/clinkerflow/internal/allocation/service"
)

var Module = fx.Module("allocation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(migrate),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Allocation{})
}
