package alerting

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	"github.com/clinkerflow/clinkerflow/internal/network/catalog"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Catalog     *catalog.Catalog
	Allocations allocdomain.Service
}

type Service struct {
	log         *zap.Logger
	catalog     *catalog.Catalog
	allocations allocdomain.Service
	now         func() time.Time
}

func New(p Params) *Service {
	return &Service{
		log:         p.Log.Named("alerting.service"),
		catalog:     p.Catalog,
		allocations: p.Allocations,
		now:         time.Now,
	}
}

func (s *Service) Alerts(ctx context.Context, view string) ([]Alert, error) {
	allocations, err := s.allocations.List(ctx, allocdomain.ListRequest{})
	if err != nil {
		return nil, err
	}
	actx := Context{
		View:           view,
		RemoteDegraded: s.allocations.RemoteDegraded(),
	}
	return Compute(s.catalog.Plants(), s.catalog.Units(), allocations, actx, s.now()), nil
}

var Module = fx.Module("alerting.service",
	fx.Provide(New),
)
