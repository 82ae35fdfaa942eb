package kpi

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	"github.com/clinkerflow/clinkerflow/internal/config"
	"github.com/clinkerflow/clinkerflow/internal/network/catalog"
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	Catalog     *catalog.Catalog
	Allocations allocdomain.Service
}

type Service struct {
	cfg         config.Config
	log         *zap.Logger
	catalog     *catalog.Catalog
	allocations allocdomain.Service
}

func New(p Params) *Service {
	return &Service{
		cfg:         p.Cfg,
		log:         p.Log.Named("kpi.service"),
		catalog:     p.Catalog,
		allocations: p.Allocations,
	}
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	allocations, err := s.allocations.List(ctx, allocdomain.ListRequest{})
	if err != nil {
		return Snapshot{}, err
	}
	return Compute(s.catalog.Plants(), s.catalog.Units(), allocations, s.cfg.OnTimeDeliveryPct), nil
}

var Module = fx.Module("kpi.service",
	fx.Provide(New),
)
