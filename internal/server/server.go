package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/folio/internal/auth/session"
	"github.com/smallbiznis/folio/internal/config"
	draftdomain "github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/smallbiznis/folio/internal/draft/migration"
	"github.com/smallbiznis/folio/internal/observability"
	obslogger "github.com/smallbiznis/folio/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/folio/internal/observability/metrics"
	obstracing "github.com/smallbiznis/folio/internal/observability/tracing"
	"github.com/smallbiznis/folio/internal/providers/pdf"
	"github.com/smallbiznis/folio/internal/provision"
	"github.com/smallbiznis/folio/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, log, httpMetrics)
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
					log.Fatal("http server failed", zap.Error(err))
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
	engine      *gin.Engine
	cfg         config.Config
	draftSvc    draftdomain.Service
	migrator    *migration.Migrator
	provisioner *provision.Provisioner
	sessions    *session.Manager
	limiter     *ratelimit.DraftAPILimiter
	pdf         pdf.Provider
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DraftSvc    draftdomain.Service
	Migrator    *migration.Migrator
	Provisioner *provision.Provisioner
	Sessions    *session.Manager
	Limiter     *ratelimit.DraftAPILimiter `optional:"true"`
	PDF         pdf.Provider
	Log         *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		draftSvc:    p.DraftSvc,
		migrator:    p.Migrator,
		provisioner: p.Provisioner,
		sessions:    p.Sessions,
		limiter:     p.Limiter,
		pdf:         p.PDF,
		log:         p.Log.Named("server"),
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	// Token minting is a development convenience; production deployments
	// get their tokens from the identity provider in front of this app.
	if !s.cfg.IsProduction() {
		s.engine.POST("/auth/token", s.IssueDevToken)
	}
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.sessions.GinMiddleware())
	api.Use(s.limiter.GinMiddleware())

	api.GET("/drafts", s.ListDrafts)
	api.POST("/drafts", s.CreateDraft)
	api.GET("/drafts/:id", s.GetDraft)
	api.PUT("/drafts/:id", s.UpdateDraft)
	api.DELETE("/drafts/:id", s.DeleteDraft)
	api.GET("/drafts/:id/pdf", s.RenderDraftPDF)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.sessions.GinMiddleware())
	admin.Use(s.limiter.GinMiddleware())

	admin.GET("/storage/status", s.StorageStatus)
	admin.POST("/storage/provision", s.ProvisionStorage)
	admin.POST("/storage/refresh", s.RefreshStorage)
	admin.POST("/storage/migrate", s.MigrateDrafts)
}
