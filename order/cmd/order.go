package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/checkout/internal/cache"
	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/infra"
	"github.com/Alturino/checkout/internal/log"
	"github.com/Alturino/checkout/internal/metrics"
	"github.com/Alturino/checkout/internal/middleware"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/internal/repository"
	"github.com/Alturino/checkout/order/internal/controller"
	"github.com/Alturino/checkout/order/internal/otel"
	"github.com/Alturino/checkout/order/internal/service"
)

const shutdownTimeout = 15 * time.Second

func RunOrderService(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunOrderService")
	defer span.End()

	cfg := config.InitConfig(c, constants.AppOrderService)

	logger := log.Get(filepath.Join("/var/log/", constants.AppOrderService+".log"), cfg.Application).
		With().
		Str(constants.KeyAppName, constants.AppOrderService).
		Str(constants.KeyTag, "main RunOrderService").
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := inOtel.InitOtelSdk(c, constants.AppOrderService, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		c, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
		defer cancel()
		if err := inOtel.ShutdownOtel(c, shutdownFuncs); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(constants.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	db := infra.NewDatabaseClient(c, cfg.Database)
	defer func() {
		logger = logger.With().Str(constants.KeyProcess, "closing database").Logger()
		logger.Info().Msg("closing database")
		db.Close()
		logger.Info().Msg("closed database")
	}()
	queries := repository.New(db)
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(constants.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cacheClient := infra.NewCacheClient(c, cfg.Cache)
	defer func() {
		logger = logger.With().Str(constants.KeyProcess, "closing cache").Logger()
		logger.Info().Msg("closing cache")
		if err := cacheClient.Close(); err != nil {
			err = fmt.Errorf("failed closing cache with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("closed cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(constants.KeyProcess, "initializing health check").Logger()
	logger.Info().Msg("initializing health check")
	healthCheck, err := infra.NewHealth(constants.AppOrderService, cfg)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized health check")

	logger = logger.With().Str(constants.KeyProcess, "initializing order service").Logger()
	logger.Info().Msg("initializing order service")
	orderService := service.NewOrderService(
		db,
		queries,
		cache.NewRedisCache(cacheClient, cfg.Order.CacheTTL),
		cfg.Order,
	)
	logger.Info().Msg("initialized order service")

	logger = logger.With().Str(constants.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.AppOrderService),
		metrics.Middleware,
		middleware.Logging,
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.Handle("/health", healthCheck.Handler()).Methods(http.MethodGet)
	authenticated := router.NewRoute().Subrouter()
	authenticated.Use(middleware.Auth(cfg.Application.SecretKey))
	controller.AttachOrderController(authenticated, orderService)
	controller.AttachAdminOrderController(authenticated, orderService)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(constants.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	server := http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext: func(net.Listener) context.Context {
			lg := logger.With().
				Reset().
				Timestamp().
				Caller().
				Stack().
				Str(constants.KeyAppName, constants.AppOrderService).
				Logger()
			return lg.WithContext(c)
		},
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	serverErr := make(chan error, 1)
	go func() {
		logger := logger.With().Str(constants.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("encounter error=%w while running server", err)
		}
		close(serverErr)
	}()

	select {
	case err = <-serverErr:
		if err != nil {
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
	case <-c.Done():
		logger.Info().Msg("received interuption signal shutting down")
	}

	logger = logger.With().Str(constants.KeyProcess, "shutting down server").Logger()
	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down server with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown server")
}
