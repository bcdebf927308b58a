// Package container provides the hierarchical, module-scoped dependency
// injector and the registry that owns one injector per module.
//
// # Overview
//
// Every module gets exactly one Injector, obtained through Registry.Get. An
// injector holds the module's providers, the modules it imports and a cache
// of produced values. Every provider is a singleton within its injector.
//
// # Lookup
//
//  1. Cached instance
//  2. Local providers (first registered wins)
//  3. Imported modules, in declaration order, recursively
//
// When a provider is found in an import, its factory runs against the
// importing module's injector that owns it, not against the requester, and
// the value is cached in the owner.
//
// # Providers
//
//	// Value
//	core.Value("cfg", "test")
//
//	// Factory: r is scoped to the owning module
//	core.FactoryOf("repo", func(ctx context.Context, r core.Resolver) (any, error) {
//	    db, err := container.Resolve[*sql.DB](ctx, r, "db")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewRepo(db), nil
//	})
//
//	// Class, built from its Injectable constructor and deps
//	core.RefOf[*UserService]()
//
// # Resolving
//
//	inj, _ := registry.Get(core.RefOf[*AppModule]())
//
//	// Untyped
//	raw, err := inj.Resolve(ctx, "cfg")
//
//	// Generic, no type assertion required
//	svc, err := container.ResolveType[*UserService](ctx, inj)
//
// # Cycles
//
// A factory that transitively requests its own token fails with
// *core.CircularProviderError instead of recursing.
package container
