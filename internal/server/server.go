package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/authorization"
	commissiondomain "github.com/smallbiznis/agencydesk/internal/commission/domain"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/config"
	"github.com/smallbiznis/agencydesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/agencydesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/agencydesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/agencydesk/internal/observability/tracing"
	"github.com/smallbiznis/agencydesk/internal/ratelimit"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
	"github.com/smallbiznis/agencydesk/internal/statement"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
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

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type statementGenerator interface {
	Generate(ctx context.Context, agentID string) (*statement.Statement, error)
}

type revenueLimiter interface {
	Enabled() bool
	AllowAgent(ctx context.Context, agentID string) (ratelimit.Result, error)
}

type Server struct {
	engine             *gin.Engine
	cfg                config.Config
	authzSvc           authorization.Service
	packSvc            packdomain.Service
	commissionSvc      commissiondomain.Service
	agentCommissionSvc agentdomain.Service
	revenueSvc         revenuedomain.Service
	statementSvc       statementGenerator
	revenueLimiter     revenueLimiter
	obsMetrics         *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin                *gin.Engine
	Cfg                config.Config
	AuthzSvc           authorization.Service
	PackSvc            packdomain.Service
	CommissionSvc      commissiondomain.Service
	AgentCommissionSvc agentdomain.Service
	RevenueSvc         revenuedomain.Service
	StatementSvc       *statement.Service
	RevenueLimiter     *ratelimit.RevenueIngestLimiter `optional:"true"`
	ObsMetrics         *obsmetrics.Metrics             `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:             p.Gin,
		cfg:                p.Cfg,
		authzSvc:           p.AuthzSvc,
		packSvc:            p.PackSvc,
		commissionSvc:      p.CommissionSvc,
		agentCommissionSvc: p.AgentCommissionSvc,
		revenueSvc:         p.RevenueSvc,
		statementSvc:       p.StatementSvc,
		revenueLimiter:     p.RevenueLimiter,
		obsMetrics:         p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(ActorContext(), RequireActor())

	packs := api.Group("/commission-packs")
	{
		packs.GET("", s.authorize(authorization.ObjectCommissionPack, authorization.ActionPackView), s.ListCommissionPacks)
		packs.POST("", s.authorize(authorization.ObjectCommissionPack, authorization.ActionPackCreate), s.CreateCommissionPack)
		packs.GET("/:id", s.authorize(authorization.ObjectCommissionPack, authorization.ActionPackView), s.GetCommissionPack)
		packs.PATCH("/:id/active", s.authorize(authorization.ObjectCommissionPack, authorization.ActionPackUpdate), s.SetCommissionPackActive)
		packs.POST("/:id/resolve", s.authorize(authorization.ObjectCommissionPack, authorization.ActionPackResolve), s.ResolveCommission)
		packs.POST("/:id/simulate", s.authorize(authorization.ObjectCommissionPack, authorization.ActionPackResolve), s.SimulateCommission)
	}

	agents := api.Group("/agents/:agent_id")
	{
		agents.GET("/commission", s.authorize(authorization.ObjectAgentCommission, authorization.ActionCommissionView), s.GetAgentCommission)
		agents.PUT("/commission", s.authorize(authorization.ObjectAgentCommission, authorization.ActionCommissionAssign), s.AssignAgentCommission)
		agents.POST("/commission/recompute", s.authorize(authorization.ObjectAgentCommission, authorization.ActionCommissionRecompute), s.RecomputeAgentCommission)
		agents.POST("/commission/simulate", s.authorize(authorization.ObjectAgentCommission, authorization.ActionCommissionSimulate), s.SimulateAgentCommission)
		agents.GET("/commission/statement", s.authorize(authorization.ObjectAgentCommission, authorization.ActionCommissionStatement), s.DownloadCommissionStatement)

		agents.GET("/revenue", s.authorize(authorization.ObjectRevenue, authorization.ActionRevenueView), s.ListRevenue)
		agents.POST("/revenue", s.authorize(authorization.ObjectRevenue, authorization.ActionRevenueRecord), s.RevenueIngestRateLimit(), s.RecordRevenue)
	}
}
