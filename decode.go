package apexText

import (
	"encoding"
	"encoding/base64"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Every parseFn receives a complete value token and an addressable target.
// A null token leaves value targets untouched and sets nillable targets to nil.

// ### Scalar parsers ###

func parseBool(d *decodeState, tok View, v reflect.Value) error {
	switch {
	case tok.Equal("true"):
		v.SetBool(true)
	case tok.Equal("false"):
		v.SetBool(false)
	case d.f.IsNull(tok):
	default:
		return d.mismatch(tok, v.Type())
	}
	return nil
}

func parseInt(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	n, ok := parseDecimal(s)
	if !ok {
		// integral values written in float notation, 1e3 or 2.0
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return d.mismatch(tok, v.Type())
		}
		n = int64(f)
	}
	if v.OverflowInt(n) {
		return d.mismatch(tok, v.Type())
	}
	v.SetInt(n)
	return nil
}

// parseDecimal is the fast path for plain integers; it avoids strconv's
// error allocation for the common case.
func parseDecimal(s string) (int64, bool) {
	if len(s) == 0 || len(s) > 19 {
		return 0, false
	}
	i, neg := 0, false
	if s[0] == '-' {
		neg = true
		i++
		if len(s) == 1 {
			return 0, false
		}
	}
	var n int64
	for ; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		digit := int64(s[i] - '0')
		if n > (math.MaxInt64-digit)/10 {
			return 0, false
		}
		n = n*10 + digit
	}
	if neg {
		n = -n
	}
	return n, true
}

func parseUint(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v.OverflowUint(n) {
		return d.mismatch(tok, v.Type())
	}
	v.SetUint(n)
	return nil
}

func parseFloat(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	n, err := strconv.ParseFloat(s, v.Type().Bits())
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || v.OverflowFloat(n) {
		return d.mismatch(tok, v.Type())
	}
	v.SetFloat(n)
	return nil
}

// parseString accepts any scalar the format can parse; bare numbers and
// booleans keep their literal text.
func parseString(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	if startsMap(d.f, tok) || startsList(d.f, tok) {
		return d.mismatch(tok, v.Type())
	}
	if !d.f.IsQuoted(tok) {
		if _, err := d.f.ParseScalar(tok, true); err != nil {
			return d.mismatchErr(tok, v.Type(), err)
		}
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	v.SetString(s)
	return nil
}

// ### Builtin parsers ###

func parseTime(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	t, ok := parseDate(s)
	if !ok {
		return d.mismatch(tok, v.Type())
	}
	v.Set(reflect.ValueOf(t))
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate accepts every DateEncoding regardless of the one in effect.
func parseDate(s string) (time.Time, bool) {
	if strings.HasPrefix(s, "/Date(") && strings.HasSuffix(s, ")/") {
		inner := s[len("/Date(") : len(s)-len(")/")]
		// drop a trailing zone offset: /Date(1234+0100)/
		if i := strings.LastIndexAny(inner, "+-"); i > 0 {
			inner = inner[:i]
		}
		ms, err := strconv.ParseInt(inner, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	if ms, ok := parseDecimal(s); ok {
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDuration(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	if n, ok := parseDecimal(s); ok {
		v.SetInt(n)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return d.mismatch(tok, v.Type())
	}
	v.SetInt(int64(dur))
	return nil
}

func parseGuid(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return d.mismatchErr(tok, v.Type(), err)
	}
	v.Set(reflect.ValueOf(id))
	return nil
}

func parseException(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		v.SetZero()
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	v.Set(reflect.ValueOf(errors.New(s)))
	return nil
}

func parseNumber(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	if !isNumberLiteral(s) {
		return d.mismatch(tok, v.Type())
	}
	v.SetString(s)
	return nil
}

func parseBytes(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		v.SetZero()
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return d.mismatchErr(tok, v.Type(), err)
	}
	v.SetBytes(b)
	return nil
}

// ### Self-unmarshaling types ###

func parseUnmarshaler(d *decodeState, tok View, v reflect.Value) error {
	if err := v.Addr().Interface().(Unmarshaler).UnmarshalJSON([]byte(tok.String())); err != nil {
		return d.mismatchErr(tok, v.Type(), err)
	}
	return nil
}

func parseTextUnmarshaler(d *decodeState, tok View, v reflect.Value) error {
	if d.f.IsNull(tok) {
		return nil
	}
	s, err := scalarText(d.f, tok)
	if err != nil {
		return err
	}
	if err := v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return d.mismatchErr(tok, v.Type(), err)
	}
	return nil
}

// enumParser accepts either form an enum may have been written in.
func enumParser(t reflect.Type) parseFn {
	signed := t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64
	textual := reflect.PointerTo(t).Implements(textUnmarshalerType)
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			return nil
		}
		if !d.f.IsQuoted(tok) && isNumberLiteral(tok.String()) {
			if signed {
				return parseInt(d, tok, v)
			}
			return parseUint(d, tok, v)
		}
		if !textual {
			return d.mismatch(tok, t)
		}
		return parseTextUnmarshaler(d, tok, v)
	}
}

// ### Indirection ###

func ptrParser(t reflect.Type, elem *lazyCodec) parseFn {
	elemContainer := isContainer(t.Elem())
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			v.SetZero()
			return nil
		}
		if elemContainer && d.depth >= d.set.cfg.MaxDepth {
			d.depthExceeded(t)
			v.SetZero()
			return nil
		}
		tc, err := elem.get()
		if err != nil {
			return err
		}
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return tc.parse(d, tok, v.Elem())
	}
}

// interfaceParser resolves the concrete type from the discriminator when the
// token is a map. Without one, empty interfaces get the generic form and any
// other interface is an AbstractTypeError.
func interfaceParser(t reflect.Type) parseFn {
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			v.SetZero()
			return nil
		}

		var name string
		if startsMap(d.f, tok) {
			var found bool
			var err error
			name, found, err = findDiscriminator(d.f, tok, d.set.cfg.TypeAttr)
			if err != nil {
				return err
			}
			if found {
				if ok, err := d.parseConcrete(name, t, tok, v); ok || err != nil {
					return err
				}
				if d.set.cfg.StrictMode {
					return &AbstractTypeError{Type: t, Discriminator: name}
				}
				d.set.log.Debug("apexText: unresolved type discriminator",
					"type", t.String(), "discriminator", name, "field", d.field)
			}
		}

		if t.NumMethod() != 0 {
			return &AbstractTypeError{Type: t, Discriminator: name}
		}
		val, err := parseAny(d, tok)
		if err != nil {
			return err
		}
		if val == nil {
			v.SetZero()
			return nil
		}
		v.Set(reflect.ValueOf(val))
		return nil
	}
}

// parseConcrete parses tok as the type named by the discriminator and stores
// it in the interface v. ok is false when the name does not resolve to a type
// assignable to iface.
func (d *decodeState) parseConcrete(name string, iface reflect.Type, tok View, v reflect.Value) (ok bool, err error) {
	ct := resolveType(name)
	if ct == nil {
		return false, nil
	}
	var holder reflect.Value
	switch {
	case ct.Implements(iface):
		holder = reflect.New(ct).Elem()
	case ct.Kind() != reflect.Ptr && reflect.PointerTo(ct).Implements(iface):
		holder = reflect.New(reflect.PointerTo(ct)).Elem()
	default:
		return false, nil
	}
	tc, err := d.c.codecFor(d.set, holder.Type())
	if err != nil {
		return true, err
	}
	if err := tc.parse(d, tok, holder); err != nil {
		return true, err
	}
	v.Set(holder)
	return true, nil
}

// parseAny builds the generic form of a token: map[string]any, []any or the
// format's scalar value.
func parseAny(d *decodeState, tok View) (any, error) {
	f := d.f
	if f.IsNull(tok) {
		return nil, nil
	}

	i := 0
	if f.EatMapStartChar(tok, &i) {
		ok := d.enter(anyType)
		defer d.leave()
		if !ok {
			return nil, nil
		}
		m := make(map[string]any)
		if f.EatMapEndChar(tok, &i) {
			return m, nil
		}
		for {
			key, val, err := eatEntry(f, tok, &i)
			if err != nil {
				return nil, err
			}
			item, err := parseAny(d, val)
			if err != nil {
				return nil, err
			}
			m[key.String()] = item
			more, err := f.EatItemSeparatorOrMapEnd(tok, &i)
			if err != nil {
				return nil, err
			}
			if !more {
				return m, nil
			}
		}
	}

	i = 0
	if f.EatListStartChar(tok, &i) {
		ok := d.enter(anyType)
		defer d.leave()
		if !ok {
			return nil, nil
		}
		list := make([]any, 0, 4)
		if f.EatListEndChar(tok, &i) {
			return list, nil
		}
		for {
			val, err := f.EatValue(tok, &i)
			if err != nil {
				return nil, err
			}
			item, err := parseAny(d, val)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
			more, err := f.EatItemSeparatorOrListEnd(tok, &i)
			if err != nil {
				return nil, err
			}
			if !more {
				return list, nil
			}
		}
	}

	return f.ParseScalar(tok, d.set.cfg.UseNumber)
}

// ### Containers ###

// eatEntry consumes one key, its separator and its value, returning the
// unescaped key and the raw value token.
func eatEntry(f Format, tok View, i *int) (key, val View, err error) {
	k, err := f.EatMapKey(tok, i)
	if err != nil {
		return View{}, View{}, err
	}
	if !f.EatMapKeySeparator(tok, i) {
		return View{}, View{}, &SyntaxError{Msg: "expected key separator after map key", Offset: int64(tok.off + *i)}
	}
	val, err = f.EatValue(tok, i)
	if err != nil {
		return View{}, View{}, err
	}
	key, err = f.Unescape(k)
	return key, val, err
}

func structParser(t reflect.Type, sc *structCodec) parseFn {
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			return nil
		}
		i := 0
		if !d.f.EatMapStartChar(tok, &i) {
			return d.mismatch(tok, t)
		}
		ok := d.enter(t)
		defer d.leave()
		if !ok {
			return nil
		}
		if d.f.EatMapEndChar(tok, &i) {
			return nil
		}

		for {
			key, val, err := eatEntry(d.f, tok, &i)
			if err != nil {
				return err
			}
			if f := sc.lookup(key.String()); f != nil {
				tc, err := f.codec.get()
				if err != nil {
					return err
				}
				prev := d.field
				d.field = f.name
				err = tc.parse(d, val, fieldByIndex(v, f.index))
				d.field = prev
				if err != nil {
					return err
				}
			}

			more, err := d.f.EatItemSeparatorOrMapEnd(tok, &i)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
	}
}

func mapParser(t reflect.Type, mk *mapKeyCodec, elem *lazyCodec) parseFn {
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			v.SetZero()
			return nil
		}
		i := 0
		if !d.f.EatMapStartChar(tok, &i) {
			return d.mismatch(tok, t)
		}
		ok := d.enter(t)
		defer d.leave()
		if !ok {
			v.SetZero()
			return nil
		}
		tc, err := elem.get()
		if err != nil {
			return err
		}
		if v.IsNil() {
			v.Set(reflect.MakeMap(t))
		}
		if d.f.EatMapEndChar(tok, &i) {
			return nil
		}

		kv := reflect.New(t.Key()).Elem()
		ev := reflect.New(t.Elem()).Elem()
		for {
			key, val, err := eatEntry(d.f, tok, &i)
			if err != nil {
				return err
			}
			kv.SetZero()
			if err := mk.fromString(key.String(), kv); err != nil {
				if err := d.mismatchErr(key, t.Key(), err); err != nil {
					return err
				}
			} else {
				ev.SetZero()
				if err := tc.parse(d, val, ev); err != nil {
					return err
				}
				v.SetMapIndex(kv, ev)
			}

			more, err := d.f.EatItemSeparatorOrMapEnd(tok, &i)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
	}
}

func sliceParser(t reflect.Type, elem *lazyCodec) parseFn {
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			v.SetZero()
			return nil
		}
		i := 0
		if !d.f.EatListStartChar(tok, &i) {
			return d.mismatch(tok, t)
		}
		ok := d.enter(t)
		defer d.leave()
		if !ok {
			v.SetZero()
			return nil
		}
		tc, err := elem.get()
		if err != nil {
			return err
		}

		if v.IsNil() {
			v.Set(reflect.MakeSlice(t, 0, 4))
		}
		v.SetLen(0)
		if d.f.EatListEndChar(tok, &i) {
			return nil
		}

		for n := 0; ; n++ {
			val, err := d.f.EatValue(tok, &i)
			if err != nil {
				return err
			}
			if n == v.Cap() {
				v.Grow(1)
			}
			v.SetLen(n + 1)
			ev := v.Index(n)
			ev.SetZero()
			if err := tc.parse(d, val, ev); err != nil {
				return err
			}

			more, err := d.f.EatItemSeparatorOrListEnd(tok, &i)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
	}
}

func arrayParser(t reflect.Type, elem *lazyCodec) parseFn {
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			return nil
		}
		i := 0
		if !d.f.EatListStartChar(tok, &i) {
			return d.mismatch(tok, t)
		}
		ok := d.enter(t)
		defer d.leave()
		if !ok {
			return nil
		}
		tc, err := elem.get()
		if err != nil {
			return err
		}

		n := 0
		if !d.f.EatListEndChar(tok, &i) {
			for {
				val, err := d.f.EatValue(tok, &i)
				if err != nil {
					return err
				}
				// elements past the array length are scanned and dropped
				if n < v.Len() {
					if err := tc.parse(d, val, v.Index(n)); err != nil {
						return err
					}
				}
				n++
				more, err := d.f.EatItemSeparatorOrListEnd(tok, &i)
				if err != nil {
					return err
				}
				if !more {
					break
				}
			}
		}
		for ; n < v.Len(); n++ {
			v.Index(n).SetZero()
		}
		return nil
	}
}

// ### Discriminator lookup ###

func startsMap(f Format, tok View) bool {
	i := 0
	return f.EatMapStartChar(tok, &i)
}

func startsList(f Format, tok View) bool {
	i := 0
	return f.EatListStartChar(tok, &i)
}

// findDiscriminator scans the top-level keys of a map token for attr. Keys and
// values are trimmed, so producers may pad or break lines around them.
func findDiscriminator(f Format, tok View, attr string) (string, bool, error) {
	i := 0
	if !f.EatMapStartChar(tok, &i) || f.EatMapEndChar(tok, &i) {
		return "", false, nil
	}
	for {
		key, val, err := eatEntry(f, tok, &i)
		if err != nil {
			return "", false, err
		}
		if key.TrimSpace().Equal(attr) {
			s, err := scalarText(f, val)
			if err != nil {
				return "", false, err
			}
			return strings.TrimSpace(s), true, nil
		}
		more, err := f.EatItemSeparatorOrMapEnd(tok, &i)
		if err != nil || !more {
			return "", false, err
		}
	}
}
