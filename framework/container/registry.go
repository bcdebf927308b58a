package container

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/metadata"
)

// Registry owns one Injector per module identity.
type Registry struct {
	mu        sync.Mutex
	store     *metadata.Store
	injectors map[core.Ref]*Injector
}

// NewRegistry creates a registry reading module metadata from store.
func NewRegistry(store *metadata.Store) *Registry {
	return &Registry{
		store:     store,
		injectors: make(map[core.Ref]*Injector),
	}
}

// Default is the process-wide registry over metadata.Default.
var Default = NewRegistry(metadata.Default)

// Store returns the metadata store the registry reads from.
func (r *Registry) Store() *metadata.Store { return r.store }

// Get returns the injector for a module, creating it on first request.
func (r *Registry) Get(ref core.Ref) (*Injector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inj, ok := r.injectors[ref]; ok {
		return inj, nil
	}
	return r.create(ref)
}

// NewInjector creates the injector for a module. Creating a second one for
// the same module is a *core.DuplicateInjectorError.
func (r *Registry) NewInjector(ref core.Ref) (*Injector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.injectors[ref]; ok {
		return nil, &core.DuplicateInjectorError{Module: core.RefName(ref)}
	}
	return r.create(ref)
}

// Lookup returns an existing injector without creating one.
func (r *Registry) Lookup(ref core.Ref) (*Injector, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inj, ok := r.injectors[ref]
	return inj, ok
}

// Reset drops every injector. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.injectors = make(map[core.Ref]*Injector)
}

// create seeds an injector from module metadata (must hold mu.Lock).
func (r *Registry) create(ref core.Ref) (*Injector, error) {
	rec, ok := r.store.Class(ref)
	if !ok || !rec.IsModule {
		return nil, &core.NotAModuleError{Name: core.RefName(ref)}
	}
	inj := newInjector(r, ref, rec.Name)
	for _, p := range rec.Providers {
		provider, err := inj.normalize(p)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", rec.Name, err)
		}
		inj.providers = append(inj.providers, provider)
	}
	for _, imp := range rec.Imports {
		if !r.store.IsModule(imp) {
			return nil, fmt.Errorf("module %s: import: %w", rec.Name, &core.NotAModuleError{Name: core.RefName(imp)})
		}
		if !slices.Contains(inj.imports, imp) {
			inj.imports = append(inj.imports, imp)
		}
	}
	for _, ctrl := range rec.Controllers {
		inj.providers = append(inj.providers, r.classProvider(ctrl))
	}
	// The module resolves itself, so modules may have constructor deps.
	inj.providers = append(inj.providers, r.classProvider(ref))

	r.injectors[ref] = inj
	return inj, nil
}

// classProvider builds the provider for a bare class ref.
func (r *Registry) classProvider(ref core.Ref) core.Provider {
	return core.Provider{
		Token: ref,
		Factory: func(ctx context.Context, res core.Resolver) (any, error) {
			rec, _ := r.store.Class(ref)
			return instantiate(ctx, res, ref, rec)
		},
	}
}
