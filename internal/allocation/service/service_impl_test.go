package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	"github.com/clinkerflow/clinkerflow/internal/allocation/repository"
	"github.com/clinkerflow/clinkerflow/internal/config"
	"github.com/clinkerflow/clinkerflow/internal/costing"
	"github.com/clinkerflow/clinkerflow/internal/geo"
	"github.com/clinkerflow/clinkerflow/internal/network/catalog"
	"github.com/clinkerflow/clinkerflow/internal/observability/metrics"
	solverdomain "github.com/clinkerflow/clinkerflow/internal/solver/domain"
	"github.com/clinkerflow/clinkerflow/pkg/db"
)

type stubSolver struct {
	fetch    func(ctx context.Context) ([]solverdomain.ResultRow, error)
	save     func(ctx context.Context, req solverdomain.SaveRequest) error
	update   func(ctx context.Context, req solverdomain.StatusUpdateRequest) error
	optimize func(ctx context.Context) error
	saved    []solverdomain.SaveRequest
	updated  []solverdomain.StatusUpdateRequest
}

func (s *stubSolver) FetchResults(ctx context.Context) ([]solverdomain.ResultRow, error) {
	if s.fetch != nil {
		return s.fetch(ctx)
	}
	return nil, nil
}

func (s *stubSolver) SaveAllocation(ctx context.Context, req solverdomain.SaveRequest) error {
	s.saved = append(s.saved, req)
	if s.save != nil {
		return s.save(ctx, req)
	}
	return nil
}

func (s *stubSolver) UpdateStatus(ctx context.Context, req solverdomain.StatusUpdateRequest) error {
	s.updated = append(s.updated, req)
	if s.update != nil {
		return s.update(ctx, req)
	}
	return nil
}

func (s *stubSolver) Optimize(ctx context.Context) error {
	if s.optimize != nil {
		return s.optimize(ctx)
	}
	return nil
}

func newTestService(t *testing.T, cfg config.Config, solver solverdomain.Client) (*Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Allocation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cat, err := catalog.New(catalog.Params{Cfg: cfg, Log: zap.NewNop()})
	require.NoError(t, err)

	m, err := metrics.New(metrics.Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	svc := New(Params{
		Cfg:     cfg,
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repository.Provide(),
		Catalog: cat,
		Solver:  solver,
		Metrics: m,
	}).(*Service)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc, conn
}

func TestAdd(t *testing.T) {
	solver := &stubSolver{}
	svc, _ := newTestService(t, config.Config{}, solver)
	ctx := context.Background()

	got, err := svc.Add(ctx, domain.AddRequest{
		PlantID:  "P001",
		UnitID:   "U001",
		Quantity: 1000,
		Mode:     "T1",
		Period:   1,
	})
	require.NoError(t, err)

	distance := geo.DistanceKm(20, 70, 25, 75)
	est := costing.EstimateShipment(distance, 1000, costing.ModeT1)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, distance, got.Distance)
	assert.Equal(t, est.Cost, got.Cost)
	assert.Equal(t, est.TransitHours, got.TransitTime)
	assert.Equal(t, "2024-03-15", got.Date)

	require.Len(t, solver.saved, 1)
	assert.Equal(t, "IU_002", solver.saved[0].FromCode)
	assert.Equal(t, "GU_009", solver.saved[0].ToCode)
	assert.Equal(t, float64(1), solver.saved[0].Trips)

	second, err := svc.Add(ctx, domain.AddRequest{
		PlantID:  "P002",
		UnitID:   "U002",
		Quantity: 500,
		Mode:     "T2",
		Period:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService(t, config.Config{}, &stubSolver{})
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 0, Mode: "T1", Period: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Add(ctx, domain.AddRequest{PlantID: "P999", UnitID: "U001", Quantity: 10, Mode: "T1", Period: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	_, err = svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 10, Mode: "T9", Period: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)

	_, err = svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 10, Mode: "T1", Period: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	// Quantity is checked before the selection.
	_, err = svc.Add(ctx, domain.AddRequest{PlantID: "P999", UnitID: "U999", Quantity: 0, Mode: "T9", Period: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

// staleIDRepository reports an id counter that lags behind the table, so
// the next insert collides with an existing row.
type staleIDRepository struct {
	domain.Repository
}

func (staleIDRepository) MaxID(ctx context.Context, db *gorm.DB) (int64, error) {
	return 0, nil
}

func TestAddDuplicateID(t *testing.T) {
	svc, _ := newTestService(t, config.Config{}, &stubSolver{})
	svc.repo = staleIDRepository{Repository: svc.repo}
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 100, Mode: "T1", Period: 1})
	require.NoError(t, err)

	_, err = svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 100, Mode: "T1", Period: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestAddRemoteFailureKeepsLocalClean(t *testing.T) {
	solver := &stubSolver{
		save: func(context.Context, solverdomain.SaveRequest) error {
			return &solverdomain.RemoteError{Status: 502, Detail: "upstream down"}
		},
	}
	svc, _ := newTestService(t, config.Config{}, solver)
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 100, Mode: "T1", Period: 1})
	require.Error(t, err)

	var remote *solverdomain.RemoteError
	assert.ErrorAs(t, err, &remote)

	rows, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestConfirm(t *testing.T) {
	solver := &stubSolver{}
	svc, _ := newTestService(t, config.Config{}, solver)
	ctx := context.Background()

	added, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 100, Mode: "T1", Period: 2})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, confirmed.Status)

	require.Len(t, solver.updated, 1)
	assert.Equal(t, "IU_002", solver.updated[0].FromCode)
	assert.Equal(t, "GU_009", solver.updated[0].ToCode)
	assert.Equal(t, domain.StatusSuccess, solver.updated[0].NewStatus)
	assert.Equal(t, 2, solver.updated[0].Period)

	_, err = svc.Confirm(ctx, added.ID)
	assert.ErrorIs(t, err, domain.ErrNotPending)

	_, err = svc.Confirm(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmRemoteFailureKeepsPending(t *testing.T) {
	solver := &stubSolver{
		update: func(context.Context, solverdomain.StatusUpdateRequest) error {
			return &solverdomain.RemoteError{Status: 500}
		},
	}
	svc, _ := newTestService(t, config.Config{}, solver)
	ctx := context.Background()

	added, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 100, Mode: "T1", Period: 1})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, added.ID)
	require.Error(t, err)

	rows, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.StatusPending, rows[0].Status)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t, config.Config{}, &stubSolver{})
	ctx := context.Background()

	added, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 100, Mode: "T1", Period: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, added.ID))
	assert.ErrorIs(t, svc.Delete(ctx, added.ID), domain.ErrNotFound)

	rows, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t, config.Config{}, &stubSolver{})
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 100, Mode: "T1", Period: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, domain.AddRequest{PlantID: "P002", UnitID: "U002", Quantity: 200, Mode: "T2", Period: 1})
	require.NoError(t, err)

	rows, err := svc.List(ctx, domain.ListRequest{Mode: "T2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P002", rows[0].PlantID)

	rows, err = svc.List(ctx, domain.ListRequest{PlantID: "P001"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "U001", rows[0].UnitID)
}

func TestSyncReplacesSnapshot(t *testing.T) {
	solver := &stubSolver{
		fetch: func(context.Context) ([]solverdomain.ResultRow, error) {
			return []solverdomain.ResultRow{
				{From: "IU_002", To: "GU_009", Mode: "T1", Quantity: 1200, Period: 1, Trips: 3},
				{From: "IU_003", To: "GU_023", Mode: "T2", Quantity: 800, Period: 2, Trips: 2},
				{From: "IU_004", To: "GU_002", Mode: "T1", Quantity: 400, Period: 1, Status: "Delayed", Trips: 1},
			}, nil
		},
	}
	svc, _ := newTestService(t, config.Config{}, solver)
	ctx := context.Background()

	// Stale local row that the sync must wipe.
	_, err := svc.Add(ctx, domain.AddRequest{PlantID: "P005", UnitID: "U005", Quantity: 1, Mode: "T1", Period: 1})
	require.NoError(t, err)

	result, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Zero(t, result.Fallbacks)
	assert.False(t, result.Degraded)
	assert.False(t, svc.RemoteDegraded())

	rows, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "P001", rows[0].PlantID)
	assert.Equal(t, "U001", rows[0].UnitID)
	assert.Equal(t, domain.StatusActive, rows[0].Status)
	assert.Equal(t, float64(3), rows[0].Trips)

	assert.Equal(t, int64(2), rows[1].ID)
	assert.Equal(t, domain.StatusPending, rows[1].Status)

	assert.Equal(t, int64(3), rows[2].ID)
	assert.Equal(t, domain.StatusDelayed, rows[2].Status)

	distance := geo.DistanceKm(20, 70, 25, 75)
	est := costing.EstimateShipment(distance, 1200, costing.ModeT1)
	assert.Equal(t, est.Cost, rows[0].Cost)
}

func TestSyncUnknownCodeStrict(t *testing.T) {
	solver := &stubSolver{
		fetch: func(context.Context) ([]solverdomain.ResultRow, error) {
			return []solverdomain.ResultRow{
				{From: "IU_404", To: "GU_009", Mode: "T1", Quantity: 100, Period: 1},
			}, nil
		},
	}
	svc, _ := newTestService(t, config.Config{}, solver)
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 50, Mode: "T1", Period: 1})
	require.NoError(t, err)

	_, err = svc.Sync(ctx)
	assert.ErrorIs(t, err, domain.ErrUnknownRemoteCode)
	assert.True(t, svc.RemoteDegraded())

	// Previous snapshot survives a failed sync.
	rows, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(50), rows[0].Quantity)
}

func TestSyncUnknownCodeFallback(t *testing.T) {
	solver := &stubSolver{
		fetch: func(context.Context) ([]solverdomain.ResultRow, error) {
			return []solverdomain.ResultRow{
				{From: "IU_404", To: "GU_404", Mode: "T1", Quantity: 100, Period: 1},
			}, nil
		},
	}
	svc, _ := newTestService(t, config.Config{SyncFallbackFirst: true}, solver)

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, 2, result.Fallbacks)

	rows, err := svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P001", rows[0].PlantID)
	assert.Equal(t, "U001", rows[0].UnitID)
}

func TestSyncFetchFailureKeepsSnapshot(t *testing.T) {
	solver := &stubSolver{
		fetch: func(context.Context) ([]solverdomain.ResultRow, error) {
			return nil, &solverdomain.RemoteError{Status: 503}
		},
	}
	svc, _ := newTestService(t, config.Config{}, solver)
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.AddRequest{PlantID: "P001", UnitID: "U001", Quantity: 50, Mode: "T1", Period: 1})
	require.NoError(t, err)

	result, err := svc.Sync(ctx)
	require.Error(t, err)
	assert.True(t, result.Degraded)
	assert.True(t, svc.RemoteDegraded())

	rows, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// A later successful sync clears the degraded flag.
	solver.fetch = func(context.Context) ([]solverdomain.ResultRow, error) {
		return []solverdomain.ResultRow{
			{From: "IU_002", To: "GU_009", Mode: "T1", Quantity: 10, Period: 1},
		}, nil
	}
	_, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, svc.RemoteDegraded())
}

func TestRunSolver(t *testing.T) {
	triggered := 0
	solver := &stubSolver{
		optimize: func(context.Context) error {
			triggered++
			return nil
		},
		fetch: func(context.Context) ([]solverdomain.ResultRow, error) {
			return []solverdomain.ResultRow{
				{From: "IU_002", To: "GU_009", Mode: "T1", Quantity: 10, Period: 1},
			}, nil
		},
	}
	svc, _ := newTestService(t, config.Config{SolverWaitSeconds: 0}, solver)

	result, err := svc.RunSolver(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, triggered)
	assert.Equal(t, 1, result.Rows)
}

func TestRunSolverBusy(t *testing.T) {
	svc, _ := newTestService(t, config.Config{}, &stubSolver{})
	svc.solverRunning.Store(true)

	_, err := svc.RunSolver(context.Background())
	assert.ErrorIs(t, err, domain.ErrSolverBusy)
}

func TestRunSolverTriggerError(t *testing.T) {
	solver := &stubSolver{
		optimize: func(context.Context) error {
			return &solverdomain.RemoteError{Status: 500, Detail: "solver crashed"}
		},
	}
	svc, _ := newTestService(t, config.Config{}, solver)

	_, err := svc.RunSolver(context.Background())
	require.Error(t, err)

	var remote *solverdomain.RemoteError
	assert.ErrorAs(t, err, &remote)
	assert.False(t, svc.solverRunning.Load())
}

func TestDerive(t *testing.T) {
	svc, _ := newTestService(t, config.Config{}, &stubSolver{})

	got, err := svc.Derive(context.Background(), domain.DeriveRequest{
		PlantID:  "P001",
		UnitID:   "U001",
		Quantity: 1000,
		Mode:     "T1",
	})
	require.NoError(t, err)

	distance := geo.DistanceKm(20, 70, 25, 75)
	est := costing.EstimateShipment(distance, 1000, costing.ModeT1)
	assert.Equal(t, distance, got.Distance)
	assert.Equal(t, est.Cost, got.Cost)
	assert.Equal(t, est.TransitHours, got.TransitTime)
	assert.False(t, got.Anomalous)

	rows, err := svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, rows, "derive must not persist")
}

func TestDeriveValidation(t *testing.T) {
	svc, _ := newTestService(t, config.Config{}, &stubSolver{})
	ctx := context.Background()

	// Quantity is checked before the selection.
	_, err := svc.Derive(ctx, domain.DeriveRequest{PlantID: "P999", UnitID: "U999", Quantity: 0, Mode: "T9"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Derive(ctx, domain.DeriveRequest{PlantID: "P999", UnitID: "U001", Quantity: 10, Mode: "T1"})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}
