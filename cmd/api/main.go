package main

import (
	"context"

	"hr-leave/internal/app"
	"hr-leave/internal/bootstrap"
	"hr-leave/internal/config"
	"hr-leave/internal/observability"
	"hr-leave/internal/shared/apperror"
	"hr-leave/internal/shared/audit"
	"hr-leave/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()
	shutdownTracing := telemetry.Setup(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint, cfg.OTLPInsecure)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	auditLogger := audit.NewStdoutLogger(logger)

	// build dependency + routes
	cleanup, err := app.BuildApp(r, cfg, metrics, auditLogger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:         cfg.HTTPPort,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
			ServiceName:  cfg.ServiceName,
		},
		auditLogger,
		func(context.Context) error { return cleanup() },
		shutdownTracing,
	)
}
