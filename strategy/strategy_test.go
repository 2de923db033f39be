package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imperiuse/safe-codec/codec"
)

type (
	trustedToken struct {
		Value     string
		ExpiresAt time.Time
	}

	evilPayload struct {
		Cmd string
	}
)

const testPkgPrefix = "github.com/imperiuse/safe-codec/strategy."

func init() {
	codec.Register(trustedToken{})
	codec.Register(evilPayload{})
}

func newTestStrategy(prefixes ...string) *AllowlistStrategy {
	return NewAllowlistStrategy(prefixes, WithLogger(zap.NewNop()))
}

func Test_AllowlistStrategy_RoundTrip(t *testing.T) {
	s := newTestStrategy(testPkgPrefix)

	src := trustedToken{Value: "tok-1", ExpiresAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}

	data, err := s.Serialize(src)
	require.NoError(t, err)

	got, err := s.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func Test_AllowlistStrategy_RejectsUncoveredType(t *testing.T) {
	s := newTestStrategy("github.com/imperiuse/safe-codec/strategy.trustedToken")

	data, err := s.Serialize(evilPayload{Cmd: "rm -rf /"})
	require.NoError(t, err, "serialization itself is not gated")

	got, err := s.Deserialize(data)
	require.Error(t, err)
	assert.Nil(t, got)

	var disallowed *codec.DisallowedTypeError
	require.ErrorAs(t, err, &disallowed)
	assert.Equal(t, testPkgPrefix+"evilPayload", disallowed.TypeName)
}

func Test_AllowlistStrategy_EmptyAllowlistDeniesAll(t *testing.T) {
	s := newTestStrategy()

	data, err := s.Serialize(trustedToken{Value: "x"})
	require.NoError(t, err)

	_, err = s.Deserialize(data)

	var disallowed *codec.DisallowedTypeError
	require.ErrorAs(t, err, &disallowed)
}

func Test_AllowlistStrategy_ExactTypeNamePrefixes(t *testing.T) {
	// full type names are valid prefixes: allow exactly two types, nothing else
	s := newTestStrategy(
		testPkgPrefix+"trustedToken",
		testPkgPrefix+"evilPayload",
	)

	data, err := s.Serialize(trustedToken{
		Value:     "mixed",
		ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	got, err := s.Deserialize(data)
	require.NoError(t, err)
	assert.IsType(t, trustedToken{}, got)

	data, err = s.Serialize(evilPayload{Cmd: "echo"})
	require.NoError(t, err)

	_, err = s.Deserialize(data)
	assert.NoError(t, err)
}

func Test_AllowlistStrategy_MalformedVsRejected(t *testing.T) {
	s := newTestStrategy(testPkgPrefix)

	got, err := s.Deserialize([]byte{0x53, 0x43}) // truncated mid-header
	require.Error(t, err)
	assert.Nil(t, got)

	var malformed *codec.DecodingError
	require.ErrorAs(t, err, &malformed)

	var disallowed *codec.DisallowedTypeError
	assert.False(t, errors.As(err, &disallowed), "corrupt data must be distinguishable from a blocked attack")
}

func Test_AllowlistStrategy_ContextResolver(t *testing.T) {
	s := newTestStrategy(testPkgPrefix)

	data, err := s.Serialize(trustedToken{Value: "ctx"})
	require.NoError(t, err)

	// empty context scoped registry can't resolve anything
	ctx := codec.ContextWithResolver(context.Background(), codec.NewRegistry())
	_, err = s.DeserializeContext(ctx, data)

	var unresolved *codec.TypeResolutionError
	require.ErrorAs(t, err, &unresolved)

	// plain context falls back to the default registry
	got, err := s.DeserializeContext(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, trustedToken{Value: "ctx"}, got)
}

func Test_AllowlistStrategy_SerializeError(t *testing.T) {
	s := newTestStrategy(testPkgPrefix)

	_, err := s.Serialize(struct{ F func() }{F: func() {}})
	require.Error(t, err)

	var unencodable *codec.EncodingError
	assert.ErrorAs(t, err, &unencodable)
}

func Test_AllowlistStrategy_AllowedPrefixes(t *testing.T) {
	s := newTestStrategy("a.", "b.")
	assert.Equal(t, []string{"a.", "b."}, s.AllowedPrefixes())
}
