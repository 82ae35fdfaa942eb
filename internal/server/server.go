package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/clinkerflow/clinkerflow/internal/alerting"
	"github.com/clinkerflow/clinkerflow/internal/allocation"
	allocdomain "github.com/clinkerflow/clinkerflow/internal/allocation/domain"
	"github.com/clinkerflow/clinkerflow/internal/config"
	"github.com/clinkerflow/clinkerflow/internal/kpi"
	"github.com/clinkerflow/clinkerflow/internal/network"
	"github.com/clinkerflow/clinkerflow/internal/network/catalog"
	"github.com/clinkerflow/clinkerflow/internal/observability"
	obslogger "github.com/clinkerflow/clinkerflow/internal/observability/logger"
	obsmetrics "github.com/clinkerflow/clinkerflow/internal/observability/metrics"
	obstracing "github.com/clinkerflow/clinkerflow/internal/observability/tracing"
	"github.com/clinkerflow/clinkerflow/internal/solver"
)

var Module = fx.Module("http.server",
	network.Module,
	solver.Module,
	allocation.Module,
	kpi.Module,
	alerting.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	catalog       *catalog.Catalog
	allocationSvc allocdomain.Service
	kpiSvc        *kpi.Service
	alertingSvc   *alerting.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Catalog       *catalog.Catalog
	AllocationSvc allocdomain.Service
	KPISvc        *kpi.Service
	AlertingSvc   *alerting.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		catalog:       p.Catalog,
		allocationSvc: p.AllocationSvc,
		kpiSvc:        p.KPISvc,
		alertingSvc:   p.AlertingSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Network --------
	api.GET("/plants", s.ListPlants)
	api.GET("/units", s.ListUnits)

	// -------- Allocations --------
	api.GET("/allocations", s.ListAllocations)
	api.POST("/allocations", s.AddAllocation)
	api.POST("/allocations/derive", s.DeriveAllocation)
	api.POST("/allocations/:id/confirm", s.ConfirmAllocation)
	api.DELETE("/allocations/:id", s.DeleteAllocation)
	api.POST("/allocations/sync", s.SyncAllocations)

	// -------- Solver --------
	api.POST("/solver/run", s.RunSolver)

	// -------- Dashboard --------
	api.GET("/kpis", s.GetKPIs)
	api.GET("/alerts", s.ListAlerts)
}
