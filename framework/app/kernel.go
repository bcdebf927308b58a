package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/compiler"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/console"
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/graph"
	"github.com/km-arc/go-composer/framework/lifecycle"
	"github.com/km-arc/go-composer/framework/linker"
	"github.com/km-arc/go-composer/framework/metadata"
	"github.com/km-arc/go-composer/framework/metrics"
)

// Application runs the whole pipeline for one root module: graph, compile,
// init hooks, link, activate hooks. It then serves or executes the linked
// app and dispatches shutdown hooks exactly once.
type Application struct {
	root        core.Ref
	adapter     linker.Adapter
	store       *metadata.Store
	registry    *container.Registry
	config      *config.Config
	logger      *zap.Logger
	middlewares []core.MiddlewareFunc

	mu     sync.Mutex
	tree   *compiler.CompiledModule
	linked any

	shutdownMu   sync.Mutex
	shutdownDone bool
	shutdownErr  error
}

// Option configures an Application.
type Option func(*Application)

// WithStore reads metadata from store instead of metadata.Default.
func WithStore(store *metadata.Store) Option {
	return func(a *Application) { a.store = store }
}

// WithRegistry resolves through registry instead of one built over the
// store.
func WithRegistry(registry *container.Registry) Option {
	return func(a *Application) { a.registry = registry }
}

// WithConfig uses cfg instead of loading the environment on first use.
func WithConfig(cfg *config.Config) Option {
	return func(a *Application) { a.config = cfg }
}

// WithLogger sets the logger passed down the pipeline.
func WithLogger(log *zap.Logger) Option {
	return func(a *Application) { a.logger = log }
}

// WithMiddlewares adds global middlewares, run before every module's own.
func WithMiddlewares(mw ...core.MiddlewareFunc) Option {
	return func(a *Application) { a.middlewares = append(a.middlewares, mw...) }
}

// WithMetrics records every dispatch in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(a *Application) { a.middlewares = append(a.middlewares, m.Middleware()) }
}

// New creates the application for root, linked through adapter.
//
//	application := app.New(core.RefOf[*AppModule](), routing.NewAdapter())
//	if err := application.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(root core.Ref, adapter linker.Adapter, opts ...Option) *Application {
	a := &Application{root: root, adapter: adapter, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = metadata.Default
	}
	if a.registry == nil {
		a.registry = container.NewRegistry(a.store)
	}
	return a
}

// Bootstrap builds, compiles and links the application. It runs once; later
// calls return the linked app of the first successful run.
func (a *Application) Bootstrap(ctx context.Context) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.linked != nil {
		return a.linked, nil
	}

	start := time.Now()
	node, err := graph.NewBuilder(a.store, graph.WithLogger(a.logger)).Build(a.root)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	tree, err := compiler.New(a.registry, compiler.WithLogger(a.logger)).Compile(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if err := lifecycle.Init(ctx, tree); err != nil {
		return nil, err
	}
	linked, err := linker.New(a.adapter,
		linker.WithMiddlewares(a.middlewares...),
		linker.WithLogger(a.logger),
	).Link(tree)
	if err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	if err := lifecycle.Activate(ctx, tree, linked); err != nil {
		return nil, err
	}

	a.tree, a.linked = tree, linked
	a.logger.Info("app: bootstrapped",
		zap.String("root", node.Name),
		zap.String("app", fmt.Sprintf("%T", linked)),
		zap.Duration("took", time.Since(start)))
	return linked, nil
}

// Tree returns the compiled module tree, or nil before Bootstrap.
func (a *Application) Tree() *compiler.CompiledModule {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tree
}

// Injector returns the injector of module ref.
func (a *Application) Injector(ref core.Ref) (*container.Injector, error) {
	return a.registry.Get(ref)
}

// Serve bootstraps an HTTP application and serves it on the configured port
// until ctx is canceled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context) error {
	cfg := a.cfg()
	ln, err := net.Listen("tcp", cfg.App.Addr())
	if err != nil {
		return err
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (a *Application) ServeListener(ctx context.Context, ln net.Listener) error {
	linked, err := a.Bootstrap(ctx)
	if err != nil {
		ln.Close()
		return err
	}
	handler, ok := linked.(http.Handler)
	if !ok {
		ln.Close()
		return fmt.Errorf("app: %T is not an http.Handler", linked)
	}

	cfg := a.cfg()
	srv := &http.Server{
		Handler:     handler,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		ErrorLog:    zap.NewStdLog(a.logger),
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	a.logger.Info("app: listening",
		zap.String("name", cfg.App.Name),
		zap.String("addr", ln.Addr().String()),
		zap.String("env", cfg.App.Env))

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(err, a.Shutdown(context.Background()))
		}
	case <-ctx.Done():
	}

	timeout := cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err = srv.Shutdown(sctx)
	a.logger.Info("app: server stopped", zap.Error(err))
	return errors.Join(err, a.Shutdown(sctx))
}

// Exec bootstraps a CLI application, runs argv against it and shuts down.
func (a *Application) Exec(ctx context.Context, argv []string, out io.Writer) error {
	linked, err := a.Bootstrap(ctx)
	if err != nil {
		return err
	}
	cli, ok := linked.(*console.App)
	if !ok {
		return fmt.Errorf("app: %T is not a *console.App", linked)
	}
	runErr := cli.Run(ctx, argv, out)
	return errors.Join(runErr, a.Shutdown(ctx))
}

// Shutdown dispatches shutdown hooks. Only the first call after a
// successful Bootstrap does anything; later calls return its result.
func (a *Application) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	if a.shutdownDone {
		return a.shutdownErr
	}

	a.mu.Lock()
	tree, linked := a.tree, a.linked
	a.mu.Unlock()
	if tree == nil {
		return nil
	}
	a.shutdownDone = true
	a.shutdownErr = lifecycle.Shutdown(ctx, tree, linked)
	a.logger.Info("app: shut down", zap.Error(a.shutdownErr))
	return a.shutdownErr
}

func (a *Application) cfg() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.config == nil {
		a.config = config.Load()
	}
	return a.config
}
