package codec

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

type (
	// Resolver - maps an encoded type name to a concrete type during deserialization.
	// Implementations must be safe for concurrent use.
	Resolver interface {
		Resolve(typeName string) (reflect.Type, error)
	}

	// Registry - Resolver backed by an explicit name -> type table.
	// Only registered types can ever be instantiated by the decoder,
	// attacker supplied names resolve to nothing.
	Registry struct {
		mu    sync.RWMutex
		types map[string]reflect.Type
	}
)

// NewRegistry - empty type registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]reflect.Type{}}
}

// Register - register the type of sample under its full name (see TypeNameOf).
// Pointers are dereferenced. Returns the registered name.
// Re-registration of the same type is a no-op; registering a different type
// under an already taken name panics (same contract as gob.Register).
func (r *Registry) Register(sample any) string {
	t := reflect.TypeOf(sample)
	if t == nil {
		panic("codec: can't register nil")
	}

	name := TypeNameOf(t)
	r.RegisterName(name, sample)

	return name
}

// RegisterName - register the type of sample under an explicit name.
func (r *Registry) RegisterName(name string, sample any) {
	if name == "" {
		panic("codec: can't register empty type name")
	}

	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil {
		panic("codec: can't register nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.types[name]; ok && prev != t {
		panic(fmt.Sprintf("codec: name %q already registered for type %s", name, prev))
	}

	r.types[name] = t
}

// Resolve - implement Resolver. Unknown name -> TypeResolutionError.
func (r *Registry) Resolve(typeName string) (reflect.Type, error) {
	r.mu.RLock()
	t, ok := r.types[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, NewTypeResolutionError(typeName, nil)
	}

	return t, nil
}

// TypeNameOf - full name of t: "<pkg path>.<type name>" for named types,
// reflect string form otherwise. Pointers are dereferenced.
func TypeNameOf(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}

var defaultRegistry = NewRegistry()

// DefaultRegistry - the process wide type registry used when no Resolver is given.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register - register sample's type with the default registry.
func Register(sample any) string {
	return defaultRegistry.Register(sample)
}

type resolverCtxKey struct{}

// ContextWithResolver - attach an execution scoped Resolver to ctx.
// The analogue of a thread context class loader: deserialization performed
// with this ctx resolves types through r instead of the configured default.
func ContextWithResolver(ctx context.Context, r Resolver) context.Context {
	return context.WithValue(ctx, resolverCtxKey{}, r)
}

// ResolverFromContext - Resolver previously attached by ContextWithResolver, if any.
func ResolverFromContext(ctx context.Context) (Resolver, bool) {
	if ctx == nil {
		return nil, false
	}

	r, ok := ctx.Value(resolverCtxKey{}).(Resolver)

	return r, ok
}
