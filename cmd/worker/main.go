package main

import (
	"hr-leave/internal/app"
	"hr-leave/internal/config"
	"hr-leave/internal/observability"
	"hr-leave/internal/shared/apperror"

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

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	if err := app.RunWorker(cfg, metrics); err != nil {
		logger.Fatal("run worker failed", zap.Error(err))
	}
}
