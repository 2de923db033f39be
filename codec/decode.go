package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/imperiuse/safe-codec/allowlist"
)

// Unmarshal - decode a payload produced by Marshal.
//
// Every struct type name encountered during the walk is checked against
// allowed FIRST: a miss aborts the whole decode with DisallowedTypeError and
// no partially reconstructed value escapes. Allowed names are resolved through
// resolver (DefaultRegistry when nil); an unresolvable name fails with
// TypeResolutionError. Truncated or garbled input fails with DecodingError.
func Unmarshal(data []byte, allowed allowlist.PrefixSet, resolver Resolver) (any, error) {
	if len(data) < headerLen {
		return nil, NewDecodingError(errors.Errorf("truncated header: %d bytes", len(data)))
	}

	if data[0] != magicHi || data[1] != magicLo {
		return nil, NewDecodingError(errors.New("bad magic bytes"))
	}

	if data[2] != formatVersion {
		return nil, NewDecodingError(errors.Errorf("unsupported format version 0x%02x", data[2]))
	}

	if resolver == nil {
		resolver = DefaultRegistry()
	}

	d := &decoder{
		r:        bytes.NewReader(data[headerLen:]),
		allowed:  allowed,
		resolver: resolver,
	}

	v, err := d.decode(nil, 0)
	if err != nil {
		return nil, err
	}

	if d.r.Len() != 0 {
		return nil, NewDecodingError(errors.Errorf("%d trailing bytes after value", d.r.Len()))
	}

	if !v.IsValid() {
		return nil, nil
	}

	return v.Interface(), nil
}

type decoder struct {
	r        *bytes.Reader
	allowed  allowlist.PrefixSet
	resolver Resolver
}

var invalid = reflect.Value{}

// decode - read one value. target is the static type expected at this
// position, nil at dynamic positions (root, interface valued nodes).
func (d *decoder) decode(target reflect.Type, depth int) (reflect.Value, error) {
	if depth > maxDepth {
		return invalid, NewDecodingError(errors.New("max graph depth exceeded"))
	}

	kind, err := d.r.ReadByte()
	if err != nil {
		return invalid, NewDecodingError(errors.Wrap(err, "truncated payload"))
	}

	// pointer targets: value kinds fill the pointee, kindNil yields a nil pointer
	if target != nil && target.Kind() == reflect.Ptr {
		if kind == kindNil {
			return reflect.Zero(target), nil
		}

		elem, err := d.decodeKind(kind, target.Elem(), depth)
		if err != nil {
			return invalid, err
		}

		p := reflect.New(target.Elem())
		p.Elem().Set(elem)

		return p, nil
	}

	return d.decodeKind(kind, target, depth)
}

//nolint cyclo
func (d *decoder) decodeKind(kind byte, target reflect.Type, depth int) (reflect.Value, error) {
	dynamic := target == nil || target.Kind() == reflect.Interface

	switch kind {
	case kindNil:
		if target == nil {
			return invalid, nil
		}

		return reflect.Zero(target), nil

	case kindBool:
		b, err := d.r.ReadByte()
		if err != nil {
			return invalid, NewDecodingError(errors.Wrap(err, "truncated bool"))
		}

		return d.fit(reflect.ValueOf(b != 0), target, dynamic)

	case kindInt:
		x, err := binary.ReadVarint(d.r)
		if err != nil {
			return invalid, NewDecodingError(errors.Wrap(err, "truncated varint"))
		}

		if dynamic {
			return d.fit(reflect.ValueOf(x), target, dynamic)
		}

		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			rv := reflect.New(target).Elem()
			if rv.OverflowInt(x) {
				return invalid, NewDecodingError(errors.Errorf("value %d overflows %s", x, target))
			}
			rv.SetInt(x)

			return rv, nil
		default:
			return invalid, d.mismatch("int", target)
		}

	case kindUint:
		x, err := binary.ReadUvarint(d.r)
		if err != nil {
			return invalid, NewDecodingError(errors.Wrap(err, "truncated uvarint"))
		}

		if dynamic {
			return d.fit(reflect.ValueOf(x), target, dynamic)
		}

		switch target.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			rv := reflect.New(target).Elem()
			if rv.OverflowUint(x) {
				return invalid, NewDecodingError(errors.Errorf("value %d overflows %s", x, target))
			}
			rv.SetUint(x)

			return rv, nil
		default:
			return invalid, d.mismatch("uint", target)
		}

	case kindFloat:
		var b [8]byte
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return invalid, NewDecodingError(errors.Wrap(err, "truncated float"))
		}

		f := math.Float64frombits(binary.BigEndian.Uint64(b[:]))

		if dynamic {
			return d.fit(reflect.ValueOf(f), target, dynamic)
		}

		switch target.Kind() {
		case reflect.Float32, reflect.Float64:
			rv := reflect.New(target).Elem()
			rv.SetFloat(f)

			return rv, nil
		default:
			return invalid, d.mismatch("float", target)
		}

	case kindString:
		s, err := d.readString()
		if err != nil {
			return invalid, err
		}

		if dynamic {
			return d.fit(reflect.ValueOf(s), target, dynamic)
		}

		if target.Kind() != reflect.String {
			return invalid, d.mismatch("string", target)
		}

		rv := reflect.New(target).Elem()
		rv.SetString(s)

		return rv, nil

	case kindBytes:
		b, err := d.readBytes()
		if err != nil {
			return invalid, err
		}

		return d.fitBytes(b, target, dynamic)

	case kindSlice:
		return d.decodeSlice(target, dynamic, depth)

	case kindMap:
		return d.decodeMap(target, dynamic, depth)

	case kindStruct:
		return d.decodeStruct(target, depth)

	case kindTime:
		b, err := d.readBytes()
		if err != nil {
			return invalid, err
		}

		var tm time.Time
		if err := tm.UnmarshalBinary(b); err != nil {
			return invalid, NewDecodingError(errors.Wrap(err, "time.UnmarshalBinary"))
		}

		if dynamic {
			return d.fit(reflect.ValueOf(tm), target, dynamic)
		}

		if target.Kind() == reflect.Struct && timeType.ConvertibleTo(target) {
			return reflect.ValueOf(tm).Convert(target), nil
		}

		return invalid, d.mismatch("time", target)

	default:
		return invalid, NewDecodingError(errors.Errorf("unknown kind byte 0x%02x", kind))
	}
}

func (d *decoder) decodeSlice(target reflect.Type, dynamic bool, depth int) (reflect.Value, error) {
	n, err := d.readLen()
	if err != nil {
		return invalid, err
	}

	if dynamic {
		s := make([]any, n)
		for i := 0; i < n; i++ {
			ev, err := d.decode(nil, depth+1)
			if err != nil {
				return invalid, err
			}
			if ev.IsValid() {
				s[i] = ev.Interface()
			}
		}

		return d.fit(reflect.ValueOf(s), target, dynamic)
	}

	switch target.Kind() {
	case reflect.Slice:
		rv := reflect.MakeSlice(target, n, n)
		for i := 0; i < n; i++ {
			ev, err := d.decode(target.Elem(), depth+1)
			if err != nil {
				return invalid, err
			}
			rv.Index(i).Set(ev)
		}

		return rv, nil

	case reflect.Array:
		if n != target.Len() {
			return invalid, NewDecodingError(errors.Errorf("sequence of %d elements for array %s", n, target))
		}

		rv := reflect.New(target).Elem()
		for i := 0; i < n; i++ {
			ev, err := d.decode(target.Elem(), depth+1)
			if err != nil {
				return invalid, err
			}
			rv.Index(i).Set(ev)
		}

		return rv, nil

	default:
		return invalid, d.mismatch("sequence", target)
	}
}

func (d *decoder) decodeMap(target reflect.Type, dynamic bool, depth int) (reflect.Value, error) {
	n, err := d.readLen()
	if err != nil {
		return invalid, err
	}

	// dynamic maps land as map[string]any when every key is a string,
	// map[any]any otherwise (the wire format allows any comparable key kind)
	if dynamic {
		keys := make([]any, n)
		vals := make([]any, n)
		stringKeys := true

		for i := 0; i < n; i++ {
			kv, err := d.decode(nil, depth+1)
			if err != nil {
				return invalid, err
			}

			if kv.IsValid() {
				if !kv.Comparable() {
					return invalid, NewDecodingError(errors.Errorf("unhashable map key of type %s", kv.Type()))
				}

				keys[i] = kv.Interface()
			}

			if !kv.IsValid() || kv.Kind() != reflect.String {
				stringKeys = false
			}

			vv, err := d.decode(nil, depth+1)
			if err != nil {
				return invalid, err
			}

			if vv.IsValid() {
				vals[i] = vv.Interface()
			}
		}

		if stringKeys {
			m := make(map[string]any, n)
			for i := 0; i < n; i++ {
				m[keys[i].(string)] = vals[i]
			}

			return d.fit(reflect.ValueOf(m), target, dynamic)
		}

		m := make(map[any]any, n)
		for i := 0; i < n; i++ {
			m[keys[i]] = vals[i]
		}

		return d.fit(reflect.ValueOf(m), target, dynamic)
	}

	if target.Kind() != reflect.Map {
		return invalid, d.mismatch("map", target)
	}

	rv := reflect.MakeMapWithSize(target, n)
	for i := 0; i < n; i++ {
		kv, err := d.decode(target.Key(), depth+1)
		if err != nil {
			return invalid, err
		}

		vv, err := d.decode(target.Elem(), depth+1)
		if err != nil {
			return invalid, err
		}

		rv.SetMapIndex(kv, vv)
	}

	return rv, nil
}

// decodeStruct - the type resolution step: allowlist check first, then
// resolver lookup, then field by field reconstruction.
func (d *decoder) decodeStruct(target reflect.Type, depth int) (reflect.Value, error) {
	name, err := d.readString()
	if err != nil {
		return invalid, err
	}

	if !allowlist.Allowed(name, d.allowed) {
		return invalid, &DisallowedTypeError{TypeName: name}
	}

	t, err := d.resolver.Resolve(name)
	if err != nil {
		var tre *TypeResolutionError
		if !errors.As(err, &tre) {
			err = NewTypeResolutionError(name, err)
		}

		return invalid, err
	}

	if t == nil || t.Kind() != reflect.Struct {
		return invalid, NewTypeResolutionError(name, errors.Errorf("resolved to non-struct type %v", t))
	}

	if target != nil && target.Kind() == reflect.Struct && t != target {
		return invalid, NewDecodingError(errors.Errorf("payload type %s where %s expected", name, target))
	}

	nf, err := d.readLen()
	if err != nil {
		return invalid, err
	}

	rv := reflect.New(t).Elem()

	for i := 0; i < nf; i++ {
		fname, err := d.readString()
		if err != nil {
			return invalid, err
		}

		f, ok := t.FieldByName(fname)
		if !ok || f.PkgPath != "" {
			return invalid, NewDecodingError(errors.Errorf("type %s has no field %q", name, fname))
		}

		fv, err := d.decode(f.Type, depth+1)
		if err != nil {
			return invalid, err
		}

		if fv.IsValid() {
			rv.FieldByIndex(f.Index).Set(fv)
		}
	}

	if target != nil && target.Kind() == reflect.Interface && !t.Implements(target) {
		if reflect.PtrTo(t).Implements(target) {
			return rv.Addr(), nil
		}

		return invalid, NewDecodingError(errors.Errorf("type %s does not implement %s", name, target))
	}

	return rv, nil
}

// fit - place v behind target. dynamic values land as-is, otherwise the
// target type must match the decoded kind class.
func (d *decoder) fit(v reflect.Value, target reflect.Type, dynamic bool) (reflect.Value, error) {
	if dynamic {
		if target != nil && !v.Type().Implements(target) {
			return invalid, NewDecodingError(errors.Errorf("value of type %s does not implement %s", v.Type(), target))
		}

		return v, nil
	}

	if v.Type() == target {
		return v, nil
	}

	if v.Kind() == target.Kind() && v.Type().ConvertibleTo(target) {
		return v.Convert(target), nil
	}

	return invalid, d.mismatch(v.Kind().String(), target)
}

func (d *decoder) fitBytes(b []byte, target reflect.Type, dynamic bool) (reflect.Value, error) {
	if dynamic {
		return d.fit(reflect.ValueOf(b), target, dynamic)
	}

	switch {
	case target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Uint8:
		rv := reflect.MakeSlice(target, len(b), len(b))
		for i, c := range b {
			rv.Index(i).SetUint(uint64(c))
		}

		return rv, nil

	case target.Kind() == reflect.Array && target.Elem().Kind() == reflect.Uint8:
		if len(b) != target.Len() {
			return invalid, NewDecodingError(errors.Errorf("%d bytes for array %s", len(b), target))
		}

		rv := reflect.New(target).Elem()
		for i, c := range b {
			rv.Index(i).SetUint(uint64(c))
		}

		return rv, nil

	default:
		return invalid, d.mismatch("bytes", target)
	}
}

func (d *decoder) mismatch(got string, target reflect.Type) error {
	return NewDecodingError(errors.Errorf("payload has %s where %s expected", got, target))
}

// readLen - uvarint length prefix, sanity bounded by the remaining input.
func (d *decoder) readLen() (int, error) {
	n, err := binary.ReadUvarint(d.r)
	if err != nil {
		return 0, NewDecodingError(errors.Wrap(err, "truncated length prefix"))
	}

	if n > uint64(d.r.Len()) {
		return 0, NewDecodingError(errors.Errorf("length prefix %d exceeds remaining payload %d", n, d.r.Len()))
	}

	return int(n), nil
}

func (d *decoder) readBytes() ([]byte, error) {
	n, err := d.readLen()
	if err != nil {
		return nil, err
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, NewDecodingError(errors.Wrap(err, "truncated bytes"))
	}

	return b, nil
}

func (d *decoder) readString() (string, error) {
	b, err := d.readBytes()
	if err != nil {
		return "", err
	}

	return string(b), nil
}
