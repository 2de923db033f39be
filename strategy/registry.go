package strategy

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// DefaultAllowedPrefixes - the built-in allowlist: this library's own types
// (tokens and friends) plus time. Intentionally narrow; applications widen it
// by installing a new AllowlistStrategy, never by mutating this default.
var DefaultAllowedPrefixes = []string{
	"github.com/imperiuse/safe-codec/",
	"time.",
}

var (
	// ErrNilStrategy - nil passed to SetStrategy.
	ErrNilStrategy = errors.New("serialization strategy can't be nil")

	// ErrAmbiguousStrategies - more than one strategy discovered at startup.
	ErrAmbiguousStrategies = errors.New("ambiguous strategy configuration: more than one strategy discovered")

	// ErrAlreadyConfigured - InitializeFromDiscovery called twice.
	ErrAlreadyConfigured = errors.New("strategy registry already configured from discovery")
)

type (
	// Registry - holder of the active Strategy. The slot is a single atomic
	// reference: readers always observe either the old or the new strategy,
	// never a partial update, and need no lock. Must not be copied.
	Registry struct {
		slot       atomic.Value // slotBox
		discovered atomic.Bool
	}

	// slotBox keeps the stored concrete type constant for atomic.Value.
	slotBox struct {
		s Strategy
	}
)

// NewRegistry - registry seeded with the built-in default AllowlistStrategy.
func NewRegistry() *Registry {
	r := &Registry{}
	r.slot.Store(slotBox{s: NewAllowlistStrategy(DefaultAllowedPrefixes)})

	return r
}

// Current - the active strategy. Never nil.
func (r *Registry) Current() Strategy {
	return r.slot.Load().(slotBox).s
}

// SetStrategy - atomically replace the active strategy. Effective for
// subsequent calls immediately; an in-flight serialize/deserialize keeps the
// strategy reference it already loaded.
func (r *Registry) SetStrategy(s Strategy) error {
	if s == nil {
		return errors.Wrap(ErrNilStrategy, "[SetStrategy]")
	}

	r.slot.Store(slotBox{s: s})

	return nil
}

// InitializeFromDiscovery - one-shot startup configuration from an external
// plugin discovery step. Zero discovered strategies keep the built-in default,
// exactly one becomes active, more than one is a fatal configuration error
// (fail fast rather than silently pick a security posture) and the registry
// state is left untouched.
func (r *Registry) InitializeFromDiscovery(found []Strategy) error {
	if len(found) > 1 {
		return errors.Wrapf(ErrAmbiguousStrategies, "[InitializeFromDiscovery] got %d", len(found))
	}

	if !r.discovered.CompareAndSwap(false, true) {
		return errors.Wrap(ErrAlreadyConfigured, "[InitializeFromDiscovery]")
	}

	if len(found) == 1 {
		return r.SetStrategy(found[0])
	}

	return nil
}

// defaultRegistry - process wide registry for callers that don't inject their
// own. Library code should take a *Registry; the package level helpers below
// exist for top-level application wiring.
var defaultRegistry = NewRegistry()

// Default - the process wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Current - active strategy of the default registry.
func Current() Strategy {
	return defaultRegistry.Current()
}

// SetStrategy - replace the active strategy of the default registry.
// Last writer wins process wide: concurrent temporary overrides race, a
// caller that swaps for one operation must save/restore around its own
// scoped region (known hazard for parallel tests).
func SetStrategy(s Strategy) error {
	return defaultRegistry.SetStrategy(s)
}

// InitializeFromDiscovery - one-shot discovery configuration of the default registry.
func InitializeFromDiscovery(found []Strategy) error {
	return defaultRegistry.InitializeFromDiscovery(found)
}

// Serialize - serialize with the default registry's active strategy.
func Serialize(v any) ([]byte, error) {
	return defaultRegistry.Current().Serialize(v)
}

// Deserialize - deserialize with the default registry's active strategy.
func Deserialize(data []byte) (any, error) {
	return defaultRegistry.Current().Deserialize(data)
}
