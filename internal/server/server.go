package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	grantdomain "github.com/repomart/repomart/internal/accessgrant/domain"
	accountdomain "github.com/repomart/repomart/internal/account/domain"
	catalogdomain "github.com/repomart/repomart/internal/catalog/domain"
	"github.com/repomart/repomart/internal/config"
	"github.com/repomart/repomart/internal/observability"
	obsmiddleware "github.com/repomart/repomart/internal/observability/logger"
	obsmetrics "github.com/repomart/repomart/internal/observability/metrics"
	obstracing "github.com/repomart/repomart/internal/observability/tracing"
	orderdomain "github.com/repomart/repomart/internal/order/domain"
	"github.com/repomart/repomart/internal/ratelimit"
	salesdomain "github.com/repomart/repomart/internal/salesaggregate/domain"
	settlementdomain "github.com/repomart/repomart/internal/settlement/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
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

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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
	db            *gorm.DB
	genID         *snowflake.Node
	accountSvc    accountdomain.Service
	catalogSvc    catalogdomain.Service
	orderSvc      orderdomain.Service
	settlementSvc settlementdomain.Service
	grantSvc      grantdomain.Service
	salesSvc      salesdomain.Service
	limiter       *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	AccountSvc    accountdomain.Service
	CatalogSvc    catalogdomain.Service
	OrderSvc      orderdomain.Service
	SettlementSvc settlementdomain.Service
	GrantSvc      grantdomain.Service
	SalesSvc      salesdomain.Service
	Limiter       *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		accountSvc:    p.AccountSvc,
		catalogSvc:    p.CatalogSvc,
		orderSvc:      p.OrderSvc,
		settlementSvc: p.SettlementSvc,
		grantSvc:      p.GrantSvc,
		salesSvc:      p.SalesSvc,
		limiter:       p.Limiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.RateLimit())

	api.GET("/repos", s.ListRepos)
	api.GET("/repos/:id", s.GetRepo)

	authed := api.Group("")
	authed.Use(s.AuthRequired())

	authed.POST("/repos", s.CreateRepo)
	authed.POST("/repos/:id/publish", s.PublishRepo)

	authed.POST("/checkout", s.Checkout)
	authed.POST("/checkout/process-payment", s.ProcessPayment)
	authed.GET("/orders", s.ListOrders)
	authed.POST("/orders/:id/cancel", s.CancelOrder)

	authed.GET("/library", s.Library)
	authed.GET("/seller/revenue", s.SellerRevenue)
}
