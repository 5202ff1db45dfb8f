package apexText

import (
	"reflect"
	"sync/atomic"
)

// ### Type Definitions ###

// Marshaler is the interface implemented by types that can marshal themselves into JSON.
// It is only consulted by the JSON format; the output is copied verbatim.
type Marshaler interface {
	MarshalJSON() ([]byte, error)
}

// Unmarshaler is the interface implemented by types that can unmarshal a raw JSON token.
type Unmarshaler interface {
	UnmarshalJSON([]byte) error
}

// Number is the literal text of a numeric token. Generic parses produce a
// Number instead of a float64 when the codec is configured with UseNumber.
type Number string

// SyntaxError reports malformed input: an unterminated quote, map or list,
// a truncated escape sequence, or an unexpected character.
type SyntaxError struct {
	Msg    string
	Offset int64
}

// UnmarshalTypeError reports a value that cannot be converted into the
// target Go type. It is only returned when the codec runs in strict mode.
type UnmarshalTypeError struct {
	Type   reflect.Type
	Value  string
	Field  string
	Offset int64
	Err    error
}

// AbstractTypeError reports an interface target that cannot be instantiated
// because no usable type discriminator was found.
type AbstractTypeError struct {
	Type          reflect.Type
	Discriminator string
}

// UnsupportedTypeError is returned when a Go type has no text representation.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
}

// UnsupportedValueError is returned for values such as NaN that a format cannot express.
type UnsupportedValueError struct {
	Value reflect.Value
	Str   string
}

// Buffer is an append-only byte buffer. It is the sink every format writes to.
type Buffer struct {
	buf []byte
}

// writeFn renders v. parseFn fills the addressable v from tok.
type (
	writeFn func(e *encodeState, v reflect.Value) error
	parseFn func(d *decodeState, tok View, v reflect.Value) error
)

// typeCodec is the dispatch entry for one Go type. Only registered changes
// after the codec is published.
type typeCodec struct {
	typ           reflect.Type
	name          string
	write         writeFn
	parse         parseFn
	isNumeric     bool
	mapKey        bool
	discriminated bool
	registered    atomic.Bool
}

// field describes one serializable struct member. key is pre-rendered for
// the owning codec's format (`"Name":` for JSON, `Name:` for JSV).
type field struct {
	name      string
	fold      string
	key       string
	index     []int
	typ       reflect.Type
	omitEmpty bool
	nullable  bool
	codec     *lazyCodec
}

type tagOptions string

type mapEntry struct {
	key string
	val reflect.Value
}

type mapEntries []mapEntry
