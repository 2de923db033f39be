// Package strategy defines the serialization strategy capability and the
// process scope policy for selecting the active one. The default strategy
// round-trips object graphs through the codec package and rejects every
// payload whose encoded type names are not covered by an allowlist of
// trusted prefixes (fail-closed).
package strategy

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/imperiuse/safe-codec/allowlist"
	"github.com/imperiuse/safe-codec/codec"
	"github.com/imperiuse/safe-codec/logger"
)

type (
	// Strategy - serialization strategy capability: a pair of serialize /
	// deserialize functions. Implementations must be safe for concurrent use.
	Strategy interface {
		Serialize(v any) ([]byte, error)
		Deserialize(data []byte) (any, error)
	}

	// AllowlistStrategy - default Strategy. Serializes with the codec graph
	// encoder; deserializes through the codec's intercepted walk, consulting
	// the immutable allowed prefix set before any type is instantiated.
	// Stateless after construction.
	AllowlistStrategy struct {
		allowed  allowlist.PrefixSet
		resolver codec.Resolver
		log      logger.Logger
	}

	// Option - AllowlistStrategy construction option.
	Option func(*AllowlistStrategy)
)

// WithResolver - resolve allowed type names through r instead of the default codec registry.
func WithResolver(r codec.Resolver) Option {
	return func(s *AllowlistStrategy) {
		s.resolver = r
	}
}

// WithLogger - use a custom logger instance.
func WithLogger(log logger.Logger) Option {
	return func(s *AllowlistStrategy) {
		s.log = log
	}
}

// NewAllowlistStrategy - strategy allowing only type names starting with one of allowedPrefixes.
// An empty list denies all deserialization.
func NewAllowlistStrategy(allowedPrefixes []string, opts ...Option) *AllowlistStrategy {
	s := &AllowlistStrategy{
		allowed: allowlist.NewPrefixSet(allowedPrefixes...),
		log:     logger.Log,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// AllowedPrefixes - copy of the allowed prefix set.
func (s *AllowlistStrategy) AllowedPrefixes() []string {
	return s.allowed.Prefixes()
}

// Serialize - encode the full object graph. Unencodable graphs fail with codec.EncodingError.
func (s *AllowlistStrategy) Serialize(v any) ([]byte, error) {
	return codec.Marshal(v)
}

// Deserialize - decode data, rejecting any type name outside the allowlist.
// See DeserializeContext for the error contract.
func (s *AllowlistStrategy) Deserialize(data []byte) (any, error) {
	return s.DeserializeContext(context.Background(), data)
}

// DeserializeContext - Deserialize honoring a codec.Resolver carried by ctx
// (falls back to the strategy's own resolver, then the default codec registry).
//
// Error kinds: codec.DisallowedTypeError - type name outside the allowlist
// (the rejected NAME is logged, payload bytes never are);
// codec.TypeResolutionError - allowed name not registered;
// codec.DecodingError - malformed input. On any error no value is returned.
func (s *AllowlistStrategy) DeserializeContext(ctx context.Context, data []byte) (any, error) {
	resolver := s.resolver
	if ctxResolver, ok := codec.ResolverFromContext(ctx); ok {
		resolver = ctxResolver
	}

	v, err := codec.Unmarshal(data, s.allowed, resolver)
	if err != nil {
		var disallowed *codec.DisallowedTypeError
		if errors.As(err, &disallowed) {
			s.log.Warn("[Deserialize] rejected disallowed type",
				zap.String("type_name", disallowed.TypeName),
			)
		}

		return nil, err
	}

	return v, nil
}
