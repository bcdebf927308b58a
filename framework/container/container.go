package container

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/km-arc/go-composer/framework/core"
)

// ── Injector ──────────────────────────────────────────────────────────────────

// Injector is the resolver of one module. It holds the module's providers,
// the modules it imports and the instances it has produced.
//
// Lookup order for a token:
//  1. the instance cache
//  2. local providers, first registered wins
//  3. each import's injector in declaration order, by the same rules
//
// A provider's factory always runs against the injector that owns it, and
// the value is cached there.
type Injector struct {
	mu sync.RWMutex

	ref      core.Ref
	name     string
	registry *Registry

	providers []core.Provider
	imports   []core.Ref

	// token → resolved singleton instance
	instances map[core.Token]any
}

func newInjector(registry *Registry, ref core.Ref, name string) *Injector {
	return &Injector{
		ref:       ref,
		name:      name,
		registry:  registry,
		instances: make(map[core.Token]any),
	}
}

// Ref returns the module identity the injector belongs to.
func (i *Injector) Ref() core.Ref { return i.ref }

// Name returns the module name.
func (i *Injector) Name() string { return i.name }

// ── Registration ──────────────────────────────────────────────────────────────

// Register appends a provider: a core.Provider, or a core.Ref for a class
// provider. Duplicates are kept; the first registration wins on lookup.
// It panics on values that are not providers.
//
//	inj.Register(core.Value("cfg", cfg)).Register(core.RefOf[*UserService]())
func (i *Injector) Register(p any) *Injector {
	if err := i.TryRegister(p); err != nil {
		panic(fmt.Sprintf("container: %v", err))
	}
	return i
}

// TryRegister is Register returning the error instead of panicking.
func (i *Injector) TryRegister(p any) error {
	provider, err := i.normalize(p)
	if err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.providers = append(i.providers, provider)
	return nil
}

func (i *Injector) normalize(p any) (core.Provider, error) {
	switch v := p.(type) {
	case core.Provider:
		if err := checkToken(v.Token); err != nil {
			return core.Provider{}, err
		}
		if v.Factory == nil {
			return core.Provider{}, &core.InvalidProviderError{Token: v.Token, Reason: "nil factory"}
		}
		return v, nil
	case *core.Provider:
		if v == nil {
			return core.Provider{}, &core.InvalidProviderError{Reason: "nil provider"}
		}
		return i.normalize(*v)
	case reflect.Type:
		return i.registry.classProvider(v), nil
	default:
		return core.Provider{}, &core.InvalidProviderError{
			Token:  p,
			Reason: fmt.Sprintf("expected core.Provider or core.Ref, got %T", p),
		}
	}
}

// RegisterImport adds a module whose providers are searched on a local miss.
// Importing the same module twice is a no-op.
func (i *Injector) RegisterImport(ref core.Ref) (*Injector, error) {
	if !i.registry.store.IsModule(ref) {
		return i, &core.NotAModuleError{Name: core.RefName(ref)}
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if !slices.Contains(i.imports, ref) {
		i.imports = append(i.imports, ref)
	}
	return i, nil
}

// Instance caches a pre-built value for token.
//
//	inj.Instance("config", cfg)
func (i *Injector) Instance(token core.Token, value any) error {
	if err := checkToken(token); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.instances[token] = value
	return nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve returns the value for token, producing and caching it on first use.
func (i *Injector) Resolve(ctx context.Context, token core.Token) (any, error) {
	return i.resolve(ctx, token, nil)
}

func (i *Injector) resolve(ctx context.Context, token core.Token, chain *resolution) (any, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hit, err := i.lookup(token, make(map[*Injector]bool))
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return nil, &core.ProviderNotFoundError{Token: token, Module: i.name}
	}
	if hit.provider == nil {
		return hit.value, nil
	}
	return hit.owner.produce(ctx, token, *hit.provider, chain)
}

// match is a lookup hit: either a cached value or a provider to run.
type match struct {
	owner    *Injector
	provider *core.Provider
	value    any
}

// lookup searches this injector and then its imports, depth first.
func (i *Injector) lookup(token core.Token, visited map[*Injector]bool) (*match, error) {
	if visited[i] {
		return nil, nil
	}
	visited[i] = true

	i.mu.RLock()
	if v, ok := i.instances[token]; ok {
		i.mu.RUnlock()
		return &match{owner: i, value: v}, nil
	}
	for idx := range i.providers {
		if i.providers[idx].Token == token {
			p := i.providers[idx]
			i.mu.RUnlock()
			return &match{owner: i, provider: &p}, nil
		}
	}
	imports := slices.Clone(i.imports)
	i.mu.RUnlock()

	for _, ref := range imports {
		dep, err := i.registry.Get(ref)
		if err != nil {
			return nil, err
		}
		m, err := dep.lookup(token, visited)
		if err != nil || m != nil {
			return m, err
		}
	}
	return nil, nil
}

// produce runs a provider owned by i and caches its value.
func (i *Injector) produce(ctx context.Context, token core.Token, p core.Provider, chain *resolution) (any, error) {
	if chain.contains(i, token) {
		return nil, &core.CircularProviderError{Path: chain.path(i, token)}
	}
	next := &resolution{owner: i, token: token, parent: chain}

	v, err := p.Factory(ctx, &scopedResolver{injector: i, chain: next})
	if err != nil {
		return nil, &core.ResolutionError{Token: token, Cause: err}
	}

	// A concurrent resolution may have finished first; keep its value.
	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.instances[token]; ok {
		return existing, nil
	}
	i.instances[token] = v
	return v, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether token has a local provider or cached instance.
func (i *Injector) Bound(token core.Token) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if _, ok := i.instances[token]; ok {
		return true
	}
	for _, p := range i.providers {
		if p.Token == token {
			return true
		}
	}
	return false
}

// Resolved reports whether token has been produced by this injector.
func (i *Injector) Resolved(token core.Token) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.instances[token]
	return ok
}

// Imports returns the imported module refs in declaration order.
func (i *Injector) Imports() []core.Ref {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Clone(i.imports)
}

// Tokens returns the local provider tokens in registration order (for
// debugging).
func (i *Injector) Tokens() []core.Token {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]core.Token, 0, len(i.providers))
	for _, p := range i.providers {
		out = append(out, p.Token)
	}
	return out
}

func checkToken(token core.Token) error {
	if token == nil {
		return &core.InvalidProviderError{Reason: "nil token"}
	}
	if !reflect.TypeOf(token).Comparable() {
		return &core.InvalidProviderError{Token: token, Reason: fmt.Sprintf("token of type %T is not comparable", token)}
	}
	return nil
}

// ── Scoped resolver ───────────────────────────────────────────────────────────

// resolution is one link of the chain of tokens being produced, used to
// detect a factory that depends on its own token.
type resolution struct {
	owner  *Injector
	token  core.Token
	parent *resolution
}

func (r *resolution) contains(owner *Injector, token core.Token) bool {
	for n := r; n != nil; n = n.parent {
		if n.owner == owner && n.token == token {
			return true
		}
	}
	return false
}

func (r *resolution) path(owner *Injector, token core.Token) []string {
	var rev []string
	for n := r; n != nil; n = n.parent {
		rev = append(rev, n.owner.name+":"+core.TokenName(n.token))
	}
	slices.Reverse(rev)
	return append(rev, owner.name+":"+core.TokenName(token))
}

// scopedResolver is the view of an injector handed to a factory.
type scopedResolver struct {
	injector *Injector
	chain    *resolution
}

func (s *scopedResolver) Resolve(ctx context.Context, token core.Token) (any, error) {
	return s.injector.resolve(ctx, token, s.chain)
}
