package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	paymenthttp "github.com/commercekit/payments/internal/adapter/inbound/http/payment"
	"github.com/commercekit/payments/internal/domain/ledger"
	"github.com/commercekit/payments/internal/infra/lock"
	"github.com/commercekit/payments/internal/infra/persistence"
	"github.com/commercekit/payments/internal/module/payment"
	"github.com/commercekit/payments/internal/module/payment/gateway"
	"github.com/commercekit/payments/internal/module/payment/handler"
	sharedcache "github.com/commercekit/payments/internal/shared/cache"
	"github.com/commercekit/payments/internal/shared/config"
	"github.com/commercekit/payments/internal/shared/database"
	"github.com/commercekit/payments/internal/shared/logger"
	"github.com/commercekit/payments/internal/shared/metrics"
	"github.com/commercekit/payments/internal/shared/middleware"
)

// App represents the application.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	locks  lock.Provider
	ledger *ledger.Service
	engine *payment.Service
	flows  *payment.Flows

	paymentHandler     *paymenthttp.PaymentHandler
	refundHandler      *paymenthttp.RefundHandler
	certificateHandler *paymenthttp.CertificateHandler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:    cfg,
		zapLogger: zapLog,
		metrics:   metrics.New("payments"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	// Redis backs the gift certificate locks. Without it the engine
	// falls back to process-local locking, which only protects a
	// single instance.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			zapLog.Warn("Redis connection failed, using local locks", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}
	if app.redis != nil {
		app.locks = lock.NewRedisProvider(app.redis, cfg.Redis.LockTTL)
	} else {
		app.locks = lock.NewLocalProvider()
	}

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initModules wires the ledger, gateways, handlers and flows.
func (a *App) initModules() error {
	a.ledger = ledger.NewService(persistence.NewLedgerStore(a.db, a.metrics), nil, a.zapLogger)

	breakerCfg := &gateway.BreakerConfig{
		MaxRequests:         a.config.Gateway.HalfOpenMaxRequests,
		Interval:            a.config.Gateway.BreakerInterval,
		Timeout:             a.config.Gateway.BreakerTimeout,
		ConsecutiveFailures: a.config.Gateway.FailureThreshold,
	}

	gateways := gateway.NewRegistry()
	gateways.Register(gateway.NewBreakerGateway(
		gateway.NewStripeGateway(&gateway.StripeConfig{APIKey: a.config.Stripe.APIKey}),
		breakerCfg, a.metrics))

	alipayGW, err := gateway.NewAlipayGateway(&gateway.AlipayConfig{
		AppID:           a.config.Alipay.AppID,
		PrivateKey:      a.config.Alipay.PrivateKey,
		AlipayPublicKey: a.config.Alipay.PublicKey,
		IsProd:          a.config.Alipay.Production,
	})
	if err != nil {
		return fmt.Errorf("init alipay gateway: %w", err)
	}
	gateways.Register(gateway.NewBreakerGateway(alipayGW, breakerCfg, a.metrics))

	gateways.Register(gateway.NewBreakerGateway(
		gateway.NewGiftCertificateGateway(a.ledger, a.locks),
		breakerCfg, a.metrics))
	gateways.Register(gateway.NewExchangeGateway())

	handlers := handler.NewRegistry(
		handler.NewCardHandler(),
		handler.NewAlipayHandler(),
		handler.NewHostedPageHandler(),
		handler.NewExchangeHandler(),
		handler.NewGiftCertificateHandler(a.ledger),
	)

	a.engine = payment.NewService(handlers, gateways, a.metrics, a.zapLogger)

	orders := persistence.NewOrderRepository(a.db, a.metrics)
	certs := persistence.NewCertificateRepository(a.db)
	a.flows = payment.NewFlows(a.engine, orders, certs, a.ledger, a.zapLogger)

	a.paymentHandler = paymenthttp.NewPaymentHandler(a.flows)
	a.refundHandler = paymenthttp.NewRefundHandler(a.flows)
	a.certificateHandler = paymenthttp.NewCertificateHandler(a.flows)

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.zapLogger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.zapLogger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/v1")
	if a.config.Auth.JWTSecret != "" {
		v1.Use(middleware.RequireAuth(a.config.Auth.JWTSecret))
	}

	a.paymentHandler.RegisterRoutes(v1)
	a.refundHandler.RegisterRoutes(v1)
	a.certificateHandler.RegisterRoutes(v1)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}
}
