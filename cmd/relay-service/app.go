package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"wahook/internal/config"
	"wahook/internal/constants"
	"wahook/internal/deduplication"
	"wahook/internal/delivery"
	"wahook/internal/dispatch"
	"wahook/internal/filtering"
	"wahook/internal/gateway"
	"wahook/internal/logger"
	"wahook/internal/relay"
	"wahook/internal/session"
	"wahook/pkg/bootstrap"
	"wahook/pkg/circuitbreaker"
	"wahook/pkg/health"
	"wahook/pkg/logging"
	"wahook/pkg/metrics"
	"wahook/pkg/middleware"
	"wahook/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	tracerProvider *tracing.Provider
	dispatcher     *dispatch.Dispatcher
	session        *session.KafkaSession
	gatewayServer  *http.Server
	adminServer    *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterRelayMetrics()
	metrics.RegisterGatewayMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.redis = rdb

	relaySvc, err := a.initRelay()
	if err != nil {
		return fmt.Errorf("failed to initialize relay: %w", err)
	}

	if err := a.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}
	a.session = session.NewKafkaSession(a.Producer, a.Config.Session.Kafka, relaySvc, a.Logger)

	a.initGatewayServer(ctx)
	a.initAdminServer()

	return nil
}

func (a *App) initRelay() (*relay.Service, error) {
	engine, err := filtering.NewEngine(a.Config.Webhook)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter engine: %w", err)
	}

	var pipelineOpts []delivery.Option
	if cbCfg, ok := circuitbreaker.FromConfig("webhook", a.Config.CircuitBreaker); ok {
		pipelineOpts = append(pipelineOpts, delivery.WithCircuitBreaker(circuitbreaker.NewWrapper(cbCfg)))
	}
	pipeline := delivery.NewPipeline(a.Config.Webhook, a.Logger, pipelineOpts...)

	a.dispatcher = dispatch.New(a.Config.Dispatch, pipeline, a.Logger)

	var relayOpts []relay.Option
	if a.redis != nil {
		var store deduplication.Store = deduplication.NewRedisStore(a.redis)
		if cbCfg, ok := circuitbreaker.FromConfig("redis-dedup", a.Config.CircuitBreaker); ok {
			store = deduplication.NewBreakerStore(store, circuitbreaker.NewWrapper(cbCfg))
		}
		relayOpts = append(relayOpts, relay.WithClaimer(deduplication.NewGuard(store, a.Config.Deduplication, a.Logger)))
	}

	return relay.NewService(engine, a.dispatcher, a.Logger, relayOpts...), nil
}

func (a *App) initGatewayServer(ctx context.Context) {
	handler := gateway.NewHandler(a.session, a.Logger)
	router := gateway.NewRouter(ctx, a.Config.Gateway, handler, a.Logger, gateway.RouterOptions{
		Tracing: a.Config.Tracing.Enabled,
	})

	a.gatewayServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Gateway.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Gateway.ReadTimeout,
		WriteTimeout: a.Config.Gateway.WriteTimeout,
	}
}

func (a *App) initAdminServer() {
	if a.Config.Server.Port == 0 {
		return
	}

	healthRegistry := health.NewCheckerRegistry()
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	healthRegistry.Register(health.NewKafkaChecker(a.Config.Session.Kafka.Brokers))
	healthRegistry.Register(health.NewFuncChecker("session", func(context.Context) error {
		if !a.session.Ready() {
			return health.ErrDegraded
		}
		return nil
	}))

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.adminServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: router,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	runCtx := logging.WithServiceName(ctx, constants.ServiceName)

	for _, srv := range []struct {
		name   string
		server *http.Server
	}{
		{"gateway", a.gatewayServer},
		{"admin", a.adminServer},
	} {
		if srv.server == nil {
			continue
		}
		g.Go(func() error {
			a.Logger.InfowCtx(runCtx, "HTTP server starting", "server", srv.name, "addr", srv.server.Addr)
			if err := srv.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("%s server error: %w", srv.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		return a.shutdownServers()
	})

	g.Go(func() error {
		return a.dispatcher.Run(gCtx)
	})

	inboundTopic := a.Config.Session.Kafka.InboundTopic
	g.Go(func() error {
		a.Logger.InfowCtx(runCtx, "Starting session event consumer", "topic", inboundTopic)
		return a.Consumer.Consume(gCtx, inboundTopic, a.session.HandleEnvelope)
	})

	return g.Wait()
}

func (a *App) shutdownServers() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var firstErr error
	for _, srv := range []*http.Server{a.gatewayServer, a.adminServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("HTTP server shutdown error: %w", err)
		}
	}
	return firstErr
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down relay service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
