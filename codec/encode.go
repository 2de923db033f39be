package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

var timeType = reflect.TypeOf(time.Time{})

// Marshal - encode v into the self describing binary format.
// The returned slice is fully materialized, nothing is buffered or retained.
// Unencodable graphs (func/chan/complex values, overly deep or cyclic graphs)
// fail with EncodingError.
func Marshal(v any) ([]byte, error) {
	e := &encoder{}
	e.buf.Write([]byte{magicHi, magicLo, formatVersion})

	if err := e.encode(reflect.ValueOf(v), 0); err != nil {
		return nil, err
	}

	return e.buf.Bytes(), nil
}

type encoder struct {
	buf bytes.Buffer
}

//nolint cyclo
func (e *encoder) encode(v reflect.Value, depth int) error {
	if depth > maxDepth {
		return NewEncodingError(errors.New("max graph depth exceeded (cyclic object graph?)"))
	}

	if !v.IsValid() {
		e.buf.WriteByte(kindNil)

		return nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			e.buf.WriteByte(kindNil)

			return nil
		}

		return e.encode(v.Elem(), depth+1)

	case reflect.Bool:
		e.buf.WriteByte(kindBool)
		if v.Bool() {
			e.buf.WriteByte(1)
		} else {
			e.buf.WriteByte(0)
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteByte(kindInt)
		e.writeVarint(v.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.buf.WriteByte(kindUint)
		e.writeUvarint(v.Uint())

	case reflect.Float32, reflect.Float64:
		e.buf.WriteByte(kindFloat)

		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Float()))
		e.buf.Write(b[:])

	case reflect.String:
		e.buf.WriteByte(kindString)
		e.writeString(v.String())

	case reflect.Slice:
		if v.IsNil() {
			e.buf.WriteByte(kindNil)

			return nil
		}

		return e.encodeSequence(v, depth)

	case reflect.Array:
		return e.encodeSequence(v, depth)

	case reflect.Map:
		if v.IsNil() {
			e.buf.WriteByte(kindNil)

			return nil
		}

		e.buf.WriteByte(kindMap)
		e.writeUvarint(uint64(v.Len()))

		iter := v.MapRange()
		for iter.Next() {
			if err := e.encode(iter.Key(), depth+1); err != nil {
				return err
			}
			if err := e.encode(iter.Value(), depth+1); err != nil {
				return err
			}
		}

	case reflect.Struct:
		return e.encodeStruct(v, depth)

	default:
		return NewEncodingError(errors.Errorf("unsupported kind %s of type %s", v.Kind(), v.Type()))
	}

	return nil
}

func (e *encoder) encodeSequence(v reflect.Value, depth int) error {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		e.buf.WriteByte(kindBytes)
		e.writeUvarint(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			e.buf.WriteByte(byte(v.Index(i).Uint()))
		}

		return nil
	}

	e.buf.WriteByte(kindSlice)
	e.writeUvarint(uint64(v.Len()))

	for i := 0; i < v.Len(); i++ {
		if err := e.encode(v.Index(i), depth+1); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) encodeStruct(v reflect.Value, depth int) error {
	t := v.Type()

	if t == timeType {
		b, err := v.Interface().(time.Time).MarshalBinary()
		if err != nil {
			return NewEncodingError(errors.Wrap(err, "time.MarshalBinary"))
		}

		e.buf.WriteByte(kindTime)
		e.writeUvarint(uint64(len(b)))
		e.buf.Write(b)

		return nil
	}

	e.buf.WriteByte(kindStruct)
	e.writeString(TypeNameOf(t))

	// unexported fields are invisible to the walk, same as encoding/json
	var fields []int
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath == "" {
			fields = append(fields, i)
		}
	}

	e.writeUvarint(uint64(len(fields)))

	for _, i := range fields {
		e.writeString(t.Field(i).Name)
		if err := e.encode(v.Field(i), depth+1); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) writeVarint(x int64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutVarint(b[:], x)
	e.buf.Write(b[:n])
}

func (e *encoder) writeUvarint(x uint64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], x)
	e.buf.Write(b[:n])
}

func (e *encoder) writeString(s string) {
	e.writeUvarint(uint64(len(s)))
	e.buf.WriteString(s)
}
