package metadata

import (
	"slices"
	"sync"

	"github.com/km-arc/go-composer/framework/core"
)

// ── Records ───────────────────────────────────────────────────────────────────

// ClassRecord is everything declared about one type: its module or
// controller shape, its constructor and its endpoint methods.
type ClassRecord struct {
	Ref          core.Ref
	IsModule     bool
	IsController bool

	Name  string
	Route string
	Help  string

	Imports      []core.Ref
	Providers    []any
	Controllers  []core.Ref
	Middlewares  []core.MiddlewareSpec
	ErrorHandler core.ErrorHandlerSpec

	Deps        []core.Token
	Constructor any

	// Methods are the declared endpoints in declaration order.
	Methods []*MethodRecord
}

// MethodRecord is the endpoint declaration of one method.
type MethodRecord struct {
	Name         string
	Route        string
	Kind         core.Kind
	Help         string
	Middlewares  []core.MiddlewareSpec
	ErrorHandler core.ErrorHandlerSpec
	Args         []core.ArgFactory
}

func (r *ClassRecord) clone() *ClassRecord {
	out := *r
	out.Imports = slices.Clone(r.Imports)
	out.Providers = slices.Clone(r.Providers)
	out.Controllers = slices.Clone(r.Controllers)
	out.Middlewares = slices.Clone(r.Middlewares)
	out.Deps = slices.Clone(r.Deps)
	out.Methods = make([]*MethodRecord, len(r.Methods))
	for i, m := range r.Methods {
		mc := *m
		mc.Middlewares = slices.Clone(m.Middlewares)
		mc.Args = slices.Clone(m.Args)
		out.Methods[i] = &mc
	}
	return &out
}

// Method returns the endpoint record for the named method.
func (r *ClassRecord) Method(name string) (*MethodRecord, bool) {
	for _, m := range r.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// ── Store ─────────────────────────────────────────────────────────────────────

// Store maps entity identity to its declared record. Writes merge: list
// fields append, scalar fields are overwritten by non-zero values.
type Store struct {
	mu      sync.RWMutex
	classes map[core.Ref]*ClassRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{classes: make(map[core.Ref]*ClassRecord)}
}

// record returns the mutable record for ref (must hold mu.Lock).
func (s *Store) record(ref core.Ref) *ClassRecord {
	if ref == nil {
		panic("metadata: nil ref")
	}
	r, ok := s.classes[ref]
	if !ok {
		r = &ClassRecord{Ref: ref, Name: core.RefName(ref)}
		s.classes[ref] = r
	}
	return r
}

// Module declares ref as a module.
//
//	metadata.Module(core.RefOf[*AppModule](), metadata.ModuleOptions{
//	    Imports:     []core.Ref{core.RefOf[*UsersModule]()},
//	    Controllers: []core.Ref{core.RefOf[*HealthController]()},
//	})
func (s *Store) Module(ref core.Ref, opts ModuleOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.record(ref)
	r.IsModule = true
	setString(&r.Name, opts.Name)
	setString(&r.Route, opts.Route)
	setString(&r.Help, opts.Help)
	r.Imports = append(r.Imports, opts.Imports...)
	r.Providers = append(r.Providers, opts.Providers...)
	r.Controllers = append(r.Controllers, opts.Controllers...)
	r.Middlewares = append(r.Middlewares, opts.Middlewares...)
	if opts.ErrorHandler != nil {
		r.ErrorHandler = opts.ErrorHandler
	}
	r.Deps = append(r.Deps, opts.Deps...)
	if opts.Constructor != nil {
		r.Constructor = opts.Constructor
	}
}

// Controller declares ref as a controller (gateway).
func (s *Store) Controller(ref core.Ref, opts ControllerOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.record(ref)
	r.IsController = true
	setString(&r.Name, opts.Name)
	setString(&r.Route, opts.Route)
	setString(&r.Help, opts.Help)
	r.Middlewares = append(r.Middlewares, opts.Middlewares...)
	if opts.ErrorHandler != nil {
		r.ErrorHandler = opts.ErrorHandler
	}
	r.Deps = append(r.Deps, opts.Deps...)
	if opts.Constructor != nil {
		r.Constructor = opts.Constructor
	}
}

// Endpoint declares the named method of ref as a dispatchable endpoint.
// Declaring the same method twice merges into the first declaration and keeps
// its position.
func (s *Store) Endpoint(ref core.Ref, method string, opts MethodOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.record(ref)
	m, ok := r.Method(method)
	if !ok {
		m = &MethodRecord{Name: method}
		r.Methods = append(r.Methods, m)
	}
	setString(&m.Route, opts.Route)
	setString(&m.Help, opts.Help)
	if opts.Kind != "" {
		m.Kind = opts.Kind
	}
	m.Middlewares = append(m.Middlewares, opts.Middlewares...)
	if opts.ErrorHandler != nil {
		m.ErrorHandler = opts.ErrorHandler
	}
	m.Args = append(m.Args, opts.Args...)
}

// Injectable declares how to construct ref when it is requested as a class
// provider.
func (s *Store) Injectable(ref core.Ref, opts InjectableOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.record(ref)
	r.Deps = append(r.Deps, opts.Deps...)
	if opts.Constructor != nil {
		r.Constructor = opts.Constructor
	}
}

// Class returns a copy of the record declared for ref.
func (s *Store) Class(ref core.Ref) (*ClassRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.classes[ref]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// IsModule reports whether ref carries module metadata.
func (s *Store) IsModule(ref core.Ref) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.classes[ref]
	return ok && r.IsModule
}

// IsController reports whether ref carries controller metadata.
func (s *Store) IsController(ref core.Ref) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.classes[ref]
	return ok && r.IsController
}

// Reset forgets every declaration.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes = make(map[core.Ref]*ClassRecord)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
