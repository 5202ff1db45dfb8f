package apexText

import (
	"encoding"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	uuidType            = reflect.TypeFor[uuid.UUID]()
	errorType           = reflect.TypeFor[error]()
	numberType          = reflect.TypeFor[Number]()
	bagType             = reflect.TypeFor[Bag]()
	valueType           = reflect.TypeFor[Value]()
	anyType             = reflect.TypeFor[any]()
	marshalerType       = reflect.TypeFor[Marshaler]()
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// compile reflects over t once and returns its codec. Member codecs are not
// resolved here; they are looked up on first use.
//
// Precedence, highest first: raw hooks, builtin types, Marshaler/Unmarshaler
// (JSON only), enums, TextMarshaler/TextUnmarshaler, then the kind of t.
// Write and parse are chosen independently, so a type with only a serialize
// hook still parses through the default path.
func (c *Codec) compile(set *settings, t reflect.Type) (*typeCodec, error) {
	tc := &typeCodec{
		typ:    t,
		name:   typeName(t),
		mapKey: canBeMapKey(t),
	}

	// 1. Raw hooks
	if h := set.hooks[t]; h != nil {
		tc.write, tc.parse = hookWriter(h, t), hookParser(h, t)
		if tc.write != nil && tc.parse != nil {
			return tc, nil
		}
	}

	// 2. Builtins
	if w, p, numeric, ok := c.builtin(t); ok {
		tc.fill(w, p)
		tc.isNumeric = numeric
		return tc, nil
	}

	// 3. Marshaler hooks
	if t.Kind() != reflect.Interface {
		c.compileMarshalers(tc)
		if tc.write != nil && tc.parse != nil {
			return tc, nil
		}
	}

	// 4. Kind switch
	if err := c.compileKind(set, tc); err != nil {
		return nil, err
	}
	tc.discriminated = c.walksStruct(set, t)
	return tc, nil
}

// fill sets whichever of write and parse is still unset.
func (tc *typeCodec) fill(w writeFn, p parseFn) {
	if tc.write == nil {
		tc.write = w
	}
	if tc.parse == nil {
		tc.parse = p
	}
}

func (c *Codec) builtin(t reflect.Type) (writeFn, parseFn, bool, bool) {
	switch t {
	case timeType:
		return writeTime, parseTime, false, true
	case durationType:
		return writeDuration, parseDuration, false, true
	case uuidType:
		return writeGuid, parseGuid, false, true
	case errorType:
		return writeException, parseException, false, true
	case numberType:
		return writeNumber, parseNumber, true, true
	case bagType:
		return writeBagValue, parseBagValue, false, true
	case valueType:
		return writeValueValue, parseValueValue, false, true
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 &&
		!reflect.PointerTo(t.Elem()).Implements(textUnmarshalerType) {
		return writeBytes, parseBytes, false, true
	}
	return nil, nil, false, false
}

func (c *Codec) compileMarshalers(tc *typeCodec) {
	t := tc.typ
	_, isJSON := c.format.(*jsonFormat)

	if isJSON {
		if t.Implements(marshalerType) {
			tc.fill(marshalerWriter(t), nil)
		}
		if reflect.PointerTo(t).Implements(unmarshalerType) {
			tc.fill(nil, parseUnmarshaler)
		}
	}

	if isEnum(t) {
		tc.fill(enumWriter(t), enumParser(t))
		return
	}

	if t.Implements(textMarshalerType) {
		tc.fill(textMarshalerWriter(t), nil)
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		tc.fill(nil, parseTextUnmarshaler)
	}
}

// isEnum reports whether t is an integer type with a text form.
func isEnum(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t.Implements(textMarshalerType)
	}
	return false
}

func (c *Codec) compileKind(set *settings, tc *typeCodec) error {
	t := tc.typ
	var (
		w writeFn
		p parseFn
	)
	switch t.Kind() {
	case reflect.Bool:
		w, p = writeBool, parseBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w, p = writeInt, parseInt
		tc.isNumeric = true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		w, p = writeUint, parseUint
		tc.isNumeric = true
	case reflect.Float32, reflect.Float64:
		w, p = writeFloat, parseFloat
		tc.isNumeric = true
	case reflect.String:
		w, p = writeString, parseString
	case reflect.Ptr:
		elem := c.lazy(set, t.Elem())
		w, p = ptrWriter(elem), ptrParser(t, elem)
	case reflect.Interface:
		w, p = writeInterface, interfaceParser(t)
	case reflect.Struct:
		sc := c.compileStruct(set, t)
		w, p = sc.write, sc.parse
	case reflect.Map:
		mk, err := mapKeyFuncs(t.Key())
		if err != nil {
			return err
		}
		elem := c.lazy(set, t.Elem())
		w, p = mapWriter(t, mk, elem), mapParser(t, mk, elem)
	case reflect.Slice:
		elem := c.lazy(set, t.Elem())
		w, p = sliceWriter(t, elem), sliceParser(t, elem)
	case reflect.Array:
		elem := c.lazy(set, t.Elem())
		w, p = arrayWriter(t, elem), arrayParser(t, elem)
	default:
		return &UnsupportedTypeError{Type: t, Reason: "no text representation for kind " + t.Kind().String()}
	}
	tc.fill(w, p)
	return nil
}

// walksStruct reports whether values of t are written by the struct walker,
// and so can carry a type discriminator.
func (c *Codec) walksStruct(set *settings, t reflect.Type) bool {
	if set.hooks[t] != nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		if c.marshalsItself(t) {
			return false
		}
		t = t.Elem()
		if set.hooks[t] != nil {
			return false
		}
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	if _, _, _, ok := c.builtin(t); ok {
		return false
	}
	return !c.marshalsItself(t)
}

func (c *Codec) marshalsItself(t reflect.Type) bool {
	if _, isJSON := c.format.(*jsonFormat); isJSON && t.Implements(marshalerType) {
		return true
	}
	return t.Implements(textMarshalerType)
}

// ### Struct layout ###

type structCodec struct {
	fields  []*field
	byName  map[string]*field
	byFold  map[string]*field
	typeKey string
	write   writeFn
	parse   parseFn
}

func (c *Codec) compileStruct(set *settings, t reflect.Type) *structCodec {
	sc := &structCodec{
		fields:  c.structFields(set, t),
		typeKey: c.format.RenderKey(set.cfg.TypeAttr),
	}
	sc.byName = make(map[string]*field, len(sc.fields))
	for _, f := range sc.fields {
		sc.byName[f.name] = f
	}
	if set.cfg.MemberMatching == MatchLenient {
		sc.byFold = make(map[string]*field, len(sc.fields))
		for _, f := range sc.fields {
			if _, dup := sc.byFold[f.fold]; !dup {
				sc.byFold[f.fold] = f
			}
		}
	}
	sc.write = structWriter(t, sc)
	sc.parse = structParser(t, sc)
	return sc
}

// lookup finds the member for a serialized key: exact match first, then the
// folded form when lenient matching is on.
func (sc *structCodec) lookup(key string) *field {
	if f, ok := sc.byName[key]; ok {
		return f
	}
	if sc.byFold != nil {
		return sc.byFold[normalizeMemberName(key)]
	}
	return nil
}

// structFields lists the serializable members of t in declaration order.
// Fields of embedded structs are promoted; a shallower field wins a name clash.
func (c *Codec) structFields(set *settings, t reflect.Type) []*field {
	var fields []*field
	c.collectFields(set, t, nil, &fields, map[reflect.Type]bool{t: true})

	pos := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if i, dup := pos[f.name]; dup {
			if len(f.index) < len(out[i].index) {
				out[i] = f
			}
			continue
		}
		pos[f.name] = len(out)
		out = append(out, f)
	}
	return out
}

func (c *Codec) collectFields(set *settings, t reflect.Type, index []int, out *[]*field, visited map[reflect.Type]bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)

		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct &&
			!visited[sf.Type] && c.walksStruct(set, sf.Type) {
			visited[sf.Type] = true
			c.collectFields(set, sf.Type, append(slices.Clone(index), i), out, visited)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			continue
		}

		if name == "" {
			name = convertName(sf.Name, set.cfg.NameConvention)
		}
		*out = append(*out, &field{
			name:      name,
			fold:      normalizeMemberName(name),
			key:       c.format.RenderKey(name),
			index:     append(slices.Clone(index), i),
			typ:       sf.Type,
			omitEmpty: opts.Contains("omitempty"),
			nullable:  isNillable(sf.Type.Kind()),
			codec:     c.lazy(set, sf.Type),
		})
	}
}

// fieldByIndex is reflect.Value.FieldByIndex without the pointer checks;
// only non-pointer embedded structs are promoted.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	if len(index) == 1 {
		return v.Field(index[0])
	}
	for _, i := range index {
		v = v.Field(i)
	}
	return v
}

// ### Map keys ###

type mapKeyCodec struct {
	toString   func(reflect.Value) (string, error)
	fromString func(string, reflect.Value) error
	numeric    bool
}

func canBeMapKey(t reflect.Type) bool {
	_, err := mapKeyFuncs(t)
	return err == nil
}

func mapKeyFuncs(t reflect.Type) (*mapKeyCodec, error) {
	if t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return &mapKeyCodec{
			toString: func(v reflect.Value) (string, error) {
				b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
				return string(b), err
			},
			fromString: func(s string, v reflect.Value) error {
				return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
			},
		}, nil
	}
	switch t.Kind() {
	case reflect.String:
		return &mapKeyCodec{
			toString: func(v reflect.Value) (string, error) { return v.String(), nil },
			fromString: func(s string, v reflect.Value) error {
				v.SetString(s)
				return nil
			},
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &mapKeyCodec{
			numeric:  true,
			toString: func(v reflect.Value) (string, error) { return strconv.FormatInt(v.Int(), 10), nil },
			fromString: func(s string, v reflect.Value) error {
				n, err := strconv.ParseInt(s, 10, 64)
				if err != nil || v.OverflowInt(n) {
					return strconv.ErrRange
				}
				v.SetInt(n)
				return nil
			},
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &mapKeyCodec{
			numeric:  true,
			toString: func(v reflect.Value) (string, error) { return strconv.FormatUint(v.Uint(), 10), nil },
			fromString: func(s string, v reflect.Value) error {
				n, err := strconv.ParseUint(s, 10, 64)
				if err != nil || v.OverflowUint(n) {
					return strconv.ErrRange
				}
				v.SetUint(n)
				return nil
			},
		}, nil
	}
	return nil, &UnsupportedTypeError{Type: t, Reason: "map key must be a string, an integer or a text marshaler"}
}
