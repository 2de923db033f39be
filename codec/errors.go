package codec

import (
	"fmt"
)

type (
	// EncodingError - object graph can't be serialized.
	EncodingError struct {
		cause error
	}

	// DecodingError - malformed or truncated payload.
	DecodingError struct {
		cause error
	}

	// DisallowedTypeError - security rejection: the encoded type name is not covered
	// by the allowlist. Distinguishable from DecodingError so that operators can tell
	// "attack blocked" apart from "corrupt data".
	DisallowedTypeError struct {
		TypeName string
	}

	// TypeResolutionError - the (allowed) type name can't be resolved to a registered type.
	// Configuration / environment problem, NOT a security rejection.
	TypeResolutionError struct {
		TypeName string
		cause    error
	}
)

// NewEncodingError - wrap cause into EncodingError.
func NewEncodingError(cause error) *EncodingError {
	return &EncodingError{cause: cause}
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("codec: can't encode object graph: %v", e.cause)
}

func (e *EncodingError) Unwrap() error { return e.cause }

// Cause - github.com/pkg/errors compatibility.
func (e *EncodingError) Cause() error { return e.cause }

// NewDecodingError - wrap cause into DecodingError.
func NewDecodingError(cause error) *DecodingError {
	return &DecodingError{cause: cause}
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("codec: malformed payload: %v", e.cause)
}

func (e *DecodingError) Unwrap() error { return e.cause }

// Cause - github.com/pkg/errors compatibility.
func (e *DecodingError) Cause() error { return e.cause }

func (e *DisallowedTypeError) Error() string {
	return "codec: not allowed to deserialize " + e.TypeName
}

// NewTypeResolutionError - TypeResolutionError for typeName, cause may be nil.
func NewTypeResolutionError(typeName string, cause error) *TypeResolutionError {
	return &TypeResolutionError{TypeName: typeName, cause: cause}
}

func (e *TypeResolutionError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("codec: can't resolve type %q", e.TypeName)
	}

	return fmt.Sprintf("codec: can't resolve type %q: %v", e.TypeName, e.cause)
}

func (e *TypeResolutionError) Unwrap() error { return e.cause }

// Cause - github.com/pkg/errors compatibility.
func (e *TypeResolutionError) Cause() error { return e.cause }
