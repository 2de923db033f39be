// Package codec implements a self describing binary object graph codec with a
// type check on every decoded object.
//
// Wire format: header (magic 'S' 'C' + version byte), then one value. A value
// is a kind byte followed by a kind specific payload. Scalar kinds carry no
// type names. Every struct node carries its full type name
// ("<pkg path>.<type name>"), and on decode that name is checked against an
// allowlist BEFORE the type is resolved and any field is reconstructed.
// Resolution never touches arbitrary runtime types: a name maps to a type only
// through an explicit Resolver (by default the package Registry, populated via
// Register like encoding/gob).
//
// Pointers flatten to their element (or nil), so Unmarshal returns value
// types. Unexported struct fields are skipped. Values decoded at dynamic
// positions (the root or an interface field) come back as bool, int64, uint64,
// float64, string, []byte, []any, time.Time, or a map: map[string]any when
// every key is a string, map[any]any otherwise.
package codec

const (
	magicHi       = 0x53 // 'S'
	magicLo       = 0x43 // 'C'
	formatVersion = 0x01

	headerLen = 3

	// maxDepth bounds the recursive walk; a cyclic object graph hits it
	// instead of overflowing the stack.
	maxDepth = 512
)

// value kinds
const (
	kindNil byte = iota
	kindBool
	kindInt
	kindUint
	kindFloat
	kindString
	kindBytes
	kindSlice
	kindMap
	kindStruct
	kindTime
)
