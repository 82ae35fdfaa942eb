package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	"github.com/clinkerflow/clinkerflow/internal/config"
	"github.com/clinkerflow/clinkerflow/internal/costing"
	"github.com/clinkerflow/clinkerflow/internal/geo"
	"github.com/clinkerflow/clinkerflow/internal/network/catalog"
	networkdomain "github.com/clinkerflow/clinkerflow/internal/network/domain"
	"github.com/clinkerflow/clinkerflow/internal/observability/metrics"
	solverdomain "github.com/clinkerflow/clinkerflow/internal/solver/domain"
	"github.com/clinkerflow/clinkerflow/pkg/db"
)

type Params struct {
	fx.In

	Cfg     config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Catalog *catalog.Catalog
	Solver  solverdomain.Client
	Metrics *metrics.Metrics
}

type Service struct {
	cfg     config.Config
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	catalog *catalog.Catalog
	solver  solverdomain.Client
	metrics *metrics.Metrics

	solverRunning atomic.Bool
	degraded      atomic.Bool

	now func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		cfg:     p.Cfg,
		db:      p.DB,
		log:     p.Log.Named("allocation.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		catalog: p.Catalog,
		solver:  p.Solver,
		metrics: p.Metrics,
		now:     time.Now,
	}
}

// Derive computes the cost, distance and transit time for a prospective
// allocation without persisting anything.
func (s *Service) Derive(ctx context.Context, req domain.DeriveRequest) (domain.Derivation, error) {
	if req.Quantity <= 0 {
		return domain.Derivation{}, domain.ErrInvalidQuantity
	}
	plant, unit, mode, err := s.resolve(req.PlantID, req.UnitID, req.Mode)
	if err != nil {
		return domain.Derivation{}, err
	}
	return s.derive(ctx, plant, unit, req.Quantity, mode), nil
}

func (s *Service) derive(ctx context.Context, plant networkdomain.Plant, unit networkdomain.GrindingUnit, quantity float64, mode costing.Mode) domain.Derivation {
	distance := geo.DistanceKm(plant.Latitude, plant.Longitude, unit.Latitude, unit.Longitude)
	est := costing.EstimateShipment(distance, quantity, mode)
	if est.Anomalous {
		s.metrics.RecordNumericAnomaly(ctx, string(mode))
		s.log.Warn("non-finite shipment estimate clamped",
			zap.String("plant", plant.Code),
			zap.String("unit", unit.Code),
			zap.Float64("quantity", quantity),
		)
	}
	return domain.Derivation{
		Distance:    distance,
		Cost:        est.Cost,
		TransitTime: est.TransitHours,
		Anomalous:   est.Anomalous,
	}
}

// Add writes the allocation to the remote result set first and commits
// locally only after the remote accepted it.
func (s *Service) Add(ctx context.Context, req domain.AddRequest) (domain.Allocation, error) {
	if req.Quantity <= 0 {
		return domain.Allocation{}, domain.ErrInvalidQuantity
	}
	plant, unit, mode, err := s.resolve(req.PlantID, req.UnitID, req.Mode)
	if err != nil {
		return domain.Allocation{}, err
	}
	if req.Period <= 0 {
		return domain.Allocation{}, domain.ErrInvalidPeriod
	}

	derived := s.derive(ctx, plant, unit, req.Quantity, mode)

	maxID, err := s.repo.MaxID(ctx, s.db)
	if err != nil {
		return domain.Allocation{}, err
	}

	allocation := domain.Allocation{
		ID:          maxID + 1,
		PlantID:     plant.ID,
		UnitID:      unit.ID,
		Quantity:    req.Quantity,
		Cost:        derived.Cost,
		Mode:        string(mode),
		Distance:    derived.Distance,
		TransitTime: derived.TransitTime,
		Status:      domain.StatusPending,
		Date:        s.now().UTC().Format("2006-01-02"),
		Period:      req.Period,
		Trips:       1,
	}

	if err := s.solver.SaveAllocation(ctx, solverdomain.SaveRequest{
		FromCode: plant.Code,
		ToCode:   unit.Code,
		Mode:     allocation.Mode,
		Quantity: allocation.Quantity,
		Period:   allocation.Period,
		Trips:    allocation.Trips,
	}); err != nil {
		return domain.Allocation{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &allocation); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Allocation{}, domain.ErrDuplicateID
		}
		return domain.Allocation{}, err
	}

	s.metrics.RecordAllocationEvent(ctx, "add", allocation.Mode)
	s.log.Info("allocation added",
		zap.Int64("id", allocation.ID),
		zap.String("plant", plant.Code),
		zap.String("unit", unit.Code),
		zap.Float64("quantity", allocation.Quantity),
	)
	return allocation, nil
}

// Confirm promotes a pending allocation to Success, remote first.
func (s *Service) Confirm(ctx context.Context, id int64) (domain.Allocation, error) {
	allocation, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Allocation{}, err
	}
	if allocation == nil {
		return domain.Allocation{}, domain.ErrNotFound
	}
	if allocation.Status != domain.StatusPending {
		return domain.Allocation{}, domain.ErrNotPending
	}

	plant, ok := s.catalog.PlantByID(allocation.PlantID)
	if !ok {
		return domain.Allocation{}, domain.ErrInvalidSelection
	}
	unit, ok := s.catalog.UnitByID(allocation.UnitID)
	if !ok {
		return domain.Allocation{}, domain.ErrInvalidSelection
	}

	if err := s.solver.UpdateStatus(ctx, solverdomain.StatusUpdateRequest{
		FromCode:  plant.Code,
		ToCode:    unit.Code,
		Mode:      allocation.Mode,
		Period:    allocation.Period,
		NewStatus: domain.StatusSuccess,
	}); err != nil {
		return domain.Allocation{}, err
	}

	if err := s.repo.UpdateStatus(ctx, s.db, id, domain.StatusSuccess); err != nil {
		return domain.Allocation{}, err
	}

	allocation.Status = domain.StatusSuccess
	s.metrics.RecordAllocationEvent(ctx, "confirm", allocation.Mode)
	s.log.Info("allocation confirmed", zap.Int64("id", id))
	return *allocation, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	allocation, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if allocation == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	s.metrics.RecordAllocationEvent(ctx, "delete", allocation.Mode)
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Allocation, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{
		PlantID: strings.TrimSpace(req.PlantID),
		UnitID:  strings.TrimSpace(req.UnitID),
		Mode:    strings.TrimSpace(req.Mode),
		Status:  strings.TrimSpace(req.Status),
	})
}

// Sync replaces the local allocation table with the remote result set.
// On any failure the previous snapshot is kept and the service reports
// itself degraded until a later sync succeeds.
func (s *Service) Sync(ctx context.Context) (domain.SyncResult, error) {
	runID := s.genID.Generate().String()
	log := s.log.With(zap.String("sync_run_id", runID))

	rows, err := s.solver.FetchResults(ctx)
	if err != nil {
		s.degraded.Store(true)
		s.metrics.RecordSyncRun(ctx, "fetch_error")
		log.Warn("remote fetch failed, keeping local snapshot", zap.Error(err))
		return domain.SyncResult{RunID: runID, Degraded: true}, err
	}

	allocations := make([]domain.Allocation, 0, len(rows))
	fallbacks := 0
	for i, row := range rows {
		plant, ok := s.catalog.PlantByCode(row.From)
		if !ok {
			if !s.cfg.SyncFallbackFirst {
				s.degraded.Store(true)
				s.metrics.RecordSyncRun(ctx, "mapping_error")
				return domain.SyncResult{RunID: runID, Degraded: true},
					fmt.Errorf("%w: plant %s", domain.ErrUnknownRemoteCode, row.From)
			}
			plant = s.catalog.FirstPlant()
			fallbacks++
		}
		unit, ok := s.catalog.UnitByCode(row.To)
		if !ok {
			if !s.cfg.SyncFallbackFirst {
				s.degraded.Store(true)
				s.metrics.RecordSyncRun(ctx, "mapping_error")
				return domain.SyncResult{RunID: runID, Degraded: true},
					fmt.Errorf("%w: unit %s", domain.ErrUnknownRemoteCode, row.To)
			}
			unit = s.catalog.FirstUnit()
			fallbacks++
		}

		mode := costing.Mode(row.Mode)
		derived := s.derive(ctx, plant, unit, row.Quantity, mode)

		status := row.Status
		if status == "" {
			status = domain.StatusPending
			if row.Period == 1 {
				status = domain.StatusActive
			}
		}

		allocations = append(allocations, domain.Allocation{
			ID:          int64(i + 1),
			PlantID:     plant.ID,
			UnitID:      unit.ID,
			Quantity:    row.Quantity,
			Cost:        derived.Cost,
			Mode:        row.Mode,
			Distance:    derived.Distance,
			TransitTime: derived.TransitTime,
			Status:      status,
			Date:        s.now().UTC().Format("2006-01-02"),
			Period:      row.Period,
			Trips:       row.Trips,
		})
	}

	if err := s.repo.Replace(ctx, s.db, allocations); err != nil {
		s.degraded.Store(true)
		s.metrics.RecordSyncRun(ctx, "store_error")
		log.Error("replace failed, keeping local snapshot", zap.Error(err))
		return domain.SyncResult{RunID: runID, Degraded: true}, err
	}

	s.degraded.Store(false)
	s.metrics.RecordSyncRun(ctx, "ok")
	log.Info("allocations synced",
		zap.Int("rows", len(allocations)),
		zap.Int("fallbacks", fallbacks),
	)
	return domain.SyncResult{RunID: runID, Rows: len(allocations), Fallbacks: fallbacks}, nil
}

// RunSolver triggers a remote optimization run, waits the configured
// window, then re-syncs. Only one run may be in flight at a time.
func (s *Service) RunSolver(ctx context.Context) (domain.SyncResult, error) {
	if !s.solverRunning.CompareAndSwap(false, true) {
		return domain.SyncResult{}, domain.ErrSolverBusy
	}
	defer s.solverRunning.Store(false)

	runID := s.genID.Generate().String()
	log := s.log.With(zap.String("solver_run_id", runID))
	log.Info("optimization run started")

	if err := s.solver.Optimize(ctx); err != nil {
		s.metrics.RecordSolverRun(ctx, "trigger_error")
		return domain.SyncResult{RunID: runID}, err
	}

	// The remote exposes no completion signal, so wait a fixed window
	// before reading results back.
	wait := time.Duration(s.cfg.SolverWaitSeconds) * time.Second
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			s.metrics.RecordSolverRun(ctx, "canceled")
			return domain.SyncResult{RunID: runID}, ctx.Err()
		case <-timer.C:
		}
	}

	result, err := s.Sync(ctx)
	if err != nil {
		s.metrics.RecordSolverRun(ctx, "sync_error")
		return result, err
	}

	s.metrics.RecordSolverRun(ctx, "ok")
	log.Info("optimization run finished", zap.Int("rows", result.Rows))
	return result, nil
}

// RemoteDegraded reports whether the last sync against the remote failed.
func (s *Service) RemoteDegraded() bool {
	return s.degraded.Load()
}

func (s *Service) resolve(plantID, unitID, rawMode string) (networkdomain.Plant, networkdomain.GrindingUnit, costing.Mode, error) {
	plant, ok := s.catalog.PlantByID(strings.TrimSpace(plantID))
	if !ok {
		return networkdomain.Plant{}, networkdomain.GrindingUnit{}, "", domain.ErrInvalidSelection
	}
	unit, ok := s.catalog.UnitByID(strings.TrimSpace(unitID))
	if !ok {
		return networkdomain.Plant{}, networkdomain.GrindingUnit{}, "", domain.ErrInvalidSelection
	}
	mode := costing.Mode(strings.TrimSpace(rawMode))
	if !mode.Known() {
		return networkdomain.Plant{}, networkdomain.GrindingUnit{}, "", domain.ErrInvalidMode
	}
	return plant, unit, mode, nil
}
