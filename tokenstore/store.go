// Package tokenstore persists strategy-encoded tokens in a key-value bucket.
// Every byte slice read back from the bucket goes through the active
// serialization strategy, so a poisoned bucket entry is rejected by the
// allowlist gate instead of being reconstructed.
package tokenstore

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/imperiuse/safe-codec/codec"
	"github.com/imperiuse/safe-codec/logger"
	"github.com/imperiuse/safe-codec/strategy"
	"github.com/imperiuse/safe-codec/token"
	"github.com/imperiuse/safe-codec/uuid"
)

//go:generate mockery --name=KeyValueI
type (
	// KeyValueI - the slice of jetstream.KeyValue this store needs.
	KeyValueI interface {
		Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
		Put(ctx context.Context, key string, value []byte) (uint64, error)
		Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	}

	// Store - token persistence over a key-value bucket.
	Store struct {
		kv  KeyValueI
		reg *strategy.Registry
		log logger.Logger
	}

	// StoreOption - Store construction option.
	StoreOption func(*Store)
)

var (
	// ErrNilKV - no bucket given.
	ErrNilKV = errors.New("kv bucket can't be nil")

	// ErrNilToken - nil token passed to Save.
	ErrNilToken = errors.New("token can't be nil")

	// ErrTokenNotFound - no entry under the given id.
	ErrTokenNotFound = errors.New("token not found")

	// ErrUnexpectedPayload - the entry decoded fine but is not an access token.
	ErrUnexpectedPayload = errors.New("stored payload is not an access token")
)

// WithRegistry - encode/decode through reg instead of the process default.
func WithRegistry(reg *strategy.Registry) StoreOption {
	return func(s *Store) {
		s.reg = reg
	}
}

// WithLogger - use a custom logger instance.
func WithLogger(log logger.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// New - Store over kv.
func New(kv KeyValueI, opts ...StoreOption) (*Store, error) {
	if kv == nil {
		return nil, errors.Wrap(ErrNilKV, "[New]")
	}

	s := &Store{
		kv:  kv,
		reg: strategy.Default(),
		log: logger.Log,
	}

	for _, o := range opts {
		o(s)
	}

	return s, nil
}

// Save - persist t under its id (a fresh uuid4 is assigned when empty).
// Returns the id the token was stored under.
func (s *Store) Save(ctx context.Context, t *token.AccessToken) (string, error) {
	if t == nil {
		return "", errors.Wrap(ErrNilToken, "[Save]")
	}

	if t.ID == "" {
		t.ID = uuid.UUID4()
	}

	if err := s.SaveAs(ctx, t.ID, t); err != nil {
		return "", err
	}

	return t.ID, nil
}

// SaveAs - persist t under an explicit id.
func (s *Store) SaveAs(ctx context.Context, id string, t *token.AccessToken) error {
	if t == nil {
		return errors.Wrap(ErrNilToken, "[SaveAs]")
	}

	data, err := s.reg.Current().Serialize(*t)
	if err != nil {
		return errors.Wrap(err, "[SaveAs] Serialize")
	}

	if _, err := s.kv.Put(ctx, id, data); err != nil {
		return errors.Wrap(err, "[SaveAs] kv.Put")
	}

	s.log.Debug("[SaveAs] token stored",
		zap.String("id", id),
		zap.Int("bytes", len(data)),
	)

	return nil
}

// Load - fetch and decode the token stored under id.
func (s *Store) Load(ctx context.Context, id string) (*token.AccessToken, error) {
	v, err := s.LoadAny(ctx, id)
	if err != nil {
		return nil, err
	}

	t, ok := v.(token.AccessToken)
	if !ok {
		return nil, errors.Wrapf(ErrUnexpectedPayload, "[Load] got %T", v)
	}

	return &t, nil
}

// LoadAny - fetch the entry under id and decode it through the active
// strategy. A disallowed payload fails with codec.DisallowedTypeError and
// never yields an object.
func (s *Store) LoadAny(ctx context.Context, id string) (any, error) {
	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errors.Wrapf(ErrTokenNotFound, "[LoadAny] id %q", id)
		}

		return nil, errors.Wrap(err, "[LoadAny] kv.Get")
	}

	v, err := s.reg.Current().Deserialize(entry.Value())
	if err != nil {
		var disallowed *codec.DisallowedTypeError
		if errors.As(err, &disallowed) {
			// the id and type name are enough for the operator, the payload stays out of the logs
			s.log.Warn("[LoadAny] rejected poisoned entry",
				zap.String("id", id),
				zap.String("type_name", disallowed.TypeName),
			)
		}

		return nil, errors.Wrap(err, "[LoadAny] Deserialize")
	}

	return v, nil
}

// Remove - delete the entry under id.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, id); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return errors.Wrapf(ErrTokenNotFound, "[Remove] id %q", id)
		}

		return errors.Wrap(err, "[Remove] kv.Delete")
	}

	s.log.Debug("[Remove] token removed", zap.String("id", id))

	return nil
}
