package providers

import (
	"context"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/logging"
	"github.com/km-arc/go-composer/framework/metadata"
	"github.com/km-arc/go-composer/framework/metrics"
)

// FrameworkModule exports the framework services to modules importing it.
//
// Bound tokens:
//   - "config"  → *config.Config
//   - "logger"  → *zap.Logger
//   - "metrics" → *metrics.Collector
//
// Each value is also bound under its type, so constructors can take the
// services as parameters without declaring Deps.
type FrameworkModule struct{}

const (
	ConfigToken  = "config"
	LoggerToken  = "logger"
	MetricsToken = "metrics"
)

// Option supplies a pre-built service instead of the default one.
type Option func(*services)

type services struct {
	envFiles []string
	config   *config.Config
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// WithEnvFiles sets the .env files the default config is loaded from.
func WithEnvFiles(files ...string) Option {
	return func(s *services) { s.envFiles = files }
}

// WithConfig provides cfg instead of loading it from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(s *services) { s.config = cfg }
}

// WithLogger provides log instead of building one from the config.
func WithLogger(log *zap.Logger) Option {
	return func(s *services) { s.logger = log }
}

// WithMetrics provides m instead of a fresh collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *services) { s.metrics = m }
}

// Register declares FrameworkModule on store and returns its ref for use in
// ModuleOptions.Imports. Services not supplied through options are built on
// first resolution: the config from the environment, the logger from the
// config and a fresh metrics collector.
func Register(store *metadata.Store, opts ...Option) core.Ref {
	s := &services{}
	for _, opt := range opts {
		opt(s)
	}
	ref := core.RefOf[*FrameworkModule]()
	store.Module(ref, metadata.ModuleOptions{
		Name: "FrameworkModule",
		Providers: []any{
			core.FactoryOf(ConfigToken, s.provideConfig),
			core.FactoryOf(LoggerToken, s.provideLogger),
			core.FactoryOf(MetricsToken, s.provideMetrics),
			alias(core.RefOf[*config.Config](), ConfigToken),
			alias(core.RefOf[*zap.Logger](), LoggerToken),
			alias(core.RefOf[*metrics.Collector](), MetricsToken),
		},
	})
	return ref
}

func (s *services) provideConfig(context.Context, core.Resolver) (any, error) {
	if s.config != nil {
		return s.config, nil
	}
	return config.Load(s.envFiles...), nil
}

func (s *services) provideLogger(ctx context.Context, r core.Resolver) (any, error) {
	if s.logger != nil {
		return s.logger, nil
	}
	cfg, err := container.Resolve[*config.Config](ctx, r, ConfigToken)
	if err != nil {
		return nil, err
	}
	return logging.New(cfg.Log)
}

func (s *services) provideMetrics(context.Context, core.Resolver) (any, error) {
	if s.metrics != nil {
		return s.metrics, nil
	}
	return metrics.New(), nil
}

// alias binds token to the value of target.
func alias(token, target core.Token) core.Provider {
	return core.FactoryOf(token, func(ctx context.Context, r core.Resolver) (any, error) {
		return r.Resolve(ctx, target)
	})
}
