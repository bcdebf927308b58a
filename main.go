package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/app"
	kernel "github.com/km-arc/go-composer/framework/app"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/logging"
	"github.com/km-arc/go-composer/framework/metadata"
	"github.com/km-arc/go-composer/framework/metrics"
	"github.com/km-arc/go-composer/framework/providers"
	"github.com/km-arc/go-composer/framework/routing"
)

func main() {
	cfg := config.Load() // loads .env automatically
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	m := metrics.New()
	app.Declare(metadata.Default,
		providers.WithConfig(cfg),
		providers.WithLogger(logger),
		providers.WithMetrics(m),
	)

	opts := []routing.Option{
		routing.WithLogger(logger),
		routing.WithExposeErrors(cfg.App.Debug),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, routing.WithHandler(http.MethodGet, cfg.Metrics.Path, m.Handler()))
	}

	application := kernel.New(core.RefOf[*app.AppModule](), routing.NewAdapter(opts...),
		kernel.WithConfig(cfg),
		kernel.WithLogger(logger),
		kernel.WithMetrics(m),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Serve(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
