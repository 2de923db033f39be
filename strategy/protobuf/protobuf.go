// Package protobuf - Strategy implementation over gogo/protobuf for callers
// whose payloads are proto messages. The envelope carries the registered proto
// message name, and deserialization applies the same allowlist gate to that
// name before the message type is looked up, so swapping this strategy in via
// discovery does not weaken the security posture.
package protobuf

import (
	"bytes"
	"encoding/binary"
	"io"
	"reflect"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/imperiuse/safe-codec/allowlist"
	"github.com/imperiuse/safe-codec/codec"
	"github.com/imperiuse/safe-codec/logger"
)

// Strategy - allowlist gated proto message round trip.
type Strategy struct {
	allowed allowlist.PrefixSet
	log     logger.Logger
}

// New - Strategy allowing only proto message names starting with one of allowedPrefixes.
func New(allowedPrefixes []string) *Strategy {
	return &Strategy{
		allowed: allowlist.NewPrefixSet(allowedPrefixes...),
		log:     logger.Log,
	}
}

// UseCustomLogger - register your own logger instance of zap.Logger.
func (s *Strategy) UseCustomLogger(log logger.Logger) {
	s.log = log
}

// Serialize - encode a proto message with its registered name.
func (s *Strategy) Serialize(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, codec.NewEncodingError(errors.Errorf("%T is not a proto.Message", v))
	}

	name := proto.MessageName(m)
	if name == "" {
		return nil, codec.NewEncodingError(errors.Errorf("proto message %T is not registered", v))
	}

	payload, err := proto.Marshal(m)
	if err != nil {
		return nil, codec.NewEncodingError(errors.Wrap(err, "proto.Marshal"))
	}

	var buf bytes.Buffer
	var lenPrefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenPrefix[:], uint64(len(name)))
	buf.Write(lenPrefix[:n])
	buf.WriteString(name)
	buf.Write(payload)

	return buf.Bytes(), nil
}

// Deserialize - decode a message produced by Serialize, rejecting message
// names outside the allowlist before any proto decoding happens.
func (s *Strategy) Deserialize(data []byte) (any, error) {
	r := bytes.NewReader(data)

	nameLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, codec.NewDecodingError(errors.Wrap(err, "truncated message name length"))
	}

	if nameLen > uint64(r.Len()) {
		return nil, codec.NewDecodingError(errors.Errorf("message name length %d exceeds payload", nameLen))
	}

	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, codec.NewDecodingError(errors.Wrap(err, "truncated message name"))
	}

	name := string(nameBytes)

	if !allowlist.Allowed(name, s.allowed) {
		s.log.Warn("[Deserialize] rejected disallowed proto message",
			zap.String("type_name", name),
		)

		return nil, &codec.DisallowedTypeError{TypeName: name}
	}

	t := proto.MessageType(name)
	if t == nil {
		return nil, codec.NewTypeResolutionError(name, nil)
	}

	m, ok := reflect.New(t.Elem()).Interface().(proto.Message)
	if !ok {
		return nil, codec.NewTypeResolutionError(name, errors.Errorf("type %s is not a proto.Message", t))
	}

	payload := make([]byte, r.Len())
	_, _ = io.ReadFull(r, payload)

	if err := proto.Unmarshal(payload, m); err != nil {
		return nil, codec.NewDecodingError(errors.Wrap(err, "proto.Unmarshal"))
	}

	return m, nil
}
