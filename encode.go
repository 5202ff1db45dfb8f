package apexText

import (
	"encoding"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// ### Scalar writers ###

func writeBool(e *encodeState, v reflect.Value) error {
	e.f.WriteBool(e.buf, v.Bool())
	return nil
}

func writeInt(e *encodeState, v reflect.Value) error {
	e.f.WriteInt(e.buf, v.Int())
	return nil
}

func writeUint(e *encodeState, v reflect.Value) error {
	e.f.WriteUint(e.buf, v.Uint())
	return nil
}

func writeFloat(e *encodeState, v reflect.Value) error {
	if err := e.f.WriteFloat(e.buf, v.Float(), v.Type().Bits()); err != nil {
		if uv, ok := err.(*UnsupportedValueError); ok {
			uv.Value = v
		}
		return err
	}
	return nil
}

func writeString(e *encodeState, v reflect.Value) error {
	e.f.WriteString(e.buf, v.String())
	return nil
}

// ### Builtin writers ###

func writeTime(e *encodeState, v reflect.Value) error {
	e.f.WriteDate(e.buf, v.Interface().(time.Time), e.set.cfg.DateEncoding)
	return nil
}

func writeDuration(e *encodeState, v reflect.Value) error {
	e.f.WriteString(e.buf, time.Duration(v.Int()).String())
	return nil
}

func writeGuid(e *encodeState, v reflect.Value) error {
	e.f.WriteGuid(e.buf, v.Interface().(uuid.UUID))
	return nil
}

func writeException(e *encodeState, v reflect.Value) error {
	if v.IsNil() {
		e.f.WriteNull(e.buf)
		return nil
	}
	e.f.WriteException(e.buf, v.Interface().(error))
	return nil
}

func writeNumber(e *encodeState, v reflect.Value) error {
	n := v.String()
	if n != "" && !isNumberLiteral(n) {
		return &UnsupportedValueError{Value: v, Str: n}
	}
	e.f.WriteRawNumber(e.buf, n)
	return nil
}

func writeBytes(e *encodeState, v reflect.Value) error {
	if v.IsNil() {
		e.f.WriteNull(e.buf)
		return nil
	}
	e.f.WriteBytes(e.buf, v.Bytes())
	return nil
}

// ### Self-marshaling types ###

func marshalerWriter(t reflect.Type) writeFn {
	nillable := isNillable(t.Kind())
	return func(e *encodeState, v reflect.Value) error {
		if nillable && v.IsNil() {
			e.f.WriteNull(e.buf)
			return nil
		}
		data, err := v.Interface().(Marshaler).MarshalJSON()
		if err != nil {
			return err
		}
		e.buf.Write(data)
		return nil
	}
}

func textMarshalerWriter(t reflect.Type) writeFn {
	nillable := isNillable(t.Kind())
	return func(e *encodeState, v reflect.Value) error {
		if nillable && v.IsNil() {
			e.f.WriteNull(e.buf)
			return nil
		}
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return err
		}
		e.f.WriteString(e.buf, string(b))
		return nil
	}
}

// enumWriter writes an integer type with a text form as its name, or as its
// number when the codec treats enums as integers.
func enumWriter(t reflect.Type) writeFn {
	signed := t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64
	return func(e *encodeState, v reflect.Value) error {
		if e.set.cfg.TreatEnumAsInteger {
			if signed {
				e.f.WriteInt(e.buf, v.Int())
			} else {
				e.f.WriteUint(e.buf, v.Uint())
			}
			return nil
		}
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return err
		}
		e.f.WriteString(e.buf, string(b))
		return nil
	}
}

// ### Indirection ###

func ptrWriter(elem *lazyCodec) writeFn {
	return func(e *encodeState, v reflect.Value) error {
		if v.IsNil() {
			e.typeHint = ""
			e.f.WriteNull(e.buf)
			return nil
		}
		tc, err := elem.get()
		if err != nil {
			return err
		}
		return tc.write(e, v.Elem())
	}
}

// writeInterface dispatches on the runtime type. Struct values get a type
// discriminator so they can be read back into the same slot.
func writeInterface(e *encodeState, v reflect.Value) error {
	if v.IsNil() {
		e.f.WriteNull(e.buf)
		return nil
	}
	ev := v.Elem()
	tc, err := e.c.codecFor(e.set, ev.Type())
	if err != nil {
		return err
	}
	if tc.discriminated {
		registerCodecType(tc)
		e.typeHint = tc.name
	}
	return tc.write(e, ev)
}

// ### Containers ###

func structWriter(t reflect.Type, sc *structCodec) writeFn {
	return func(e *encodeState, v reflect.Value) error {
		hint := e.typeHint
		e.typeHint = ""

		ok := e.enter(t)
		defer e.leave()
		if !ok {
			e.f.WriteNull(e.buf)
			return nil
		}

		if hint == "" && e.set.cfg.AlwaysEmitTypeDiscriminator {
			hint = typeName(t)
			registerType(t)
		}

		e.f.WriteMapStart(e.buf)
		first := true
		if hint != "" {
			e.buf.WriteString(sc.typeKey)
			e.f.WriteString(e.buf, hint)
			first = false
		}

		for _, f := range sc.fields {
			fv := fieldByIndex(v, f.index)
			isNull := f.nullable && fv.IsNil()
			if isNull && !e.set.cfg.IncludeNullValues {
				continue
			}
			if f.omitEmpty && isEmptyValue(fv) {
				continue
			}

			if !first {
				e.f.WriteItemSeparator(e.buf)
			}
			first = false
			e.buf.WriteString(f.key)

			if isNull {
				e.f.WriteNull(e.buf)
				continue
			}
			tc, err := f.codec.get()
			if err != nil {
				return err
			}
			if err := tc.write(e, fv); err != nil {
				return err
			}
		}

		e.f.WriteMapEnd(e.buf)
		return nil
	}
}

func mapWriter(t reflect.Type, mk *mapKeyCodec, elem *lazyCodec) writeFn {
	elemNillable := isNillable(t.Elem().Kind())
	return func(e *encodeState, v reflect.Value) error {
		if v.IsNil() {
			e.f.WriteNull(e.buf)
			return nil
		}
		ok := e.enter(t)
		defer e.leave()
		if !ok {
			e.f.WriteNull(e.buf)
			return nil
		}
		tc, err := elem.get()
		if err != nil {
			return err
		}

		entries := getMapEntries()
		defer putMapEntries(entries)
		iter := v.MapRange()
		for iter.Next() {
			key, err := mk.toString(iter.Key())
			if err != nil {
				return err
			}
			*entries = append(*entries, mapEntry{key: key, val: iter.Value()})
		}
		entries.sort()

		e.f.WriteMapStart(e.buf)
		first := true
		for _, ent := range *entries {
			if elemNillable && ent.val.IsNil() && e.set.cfg.OmitNullsInMaps {
				continue
			}
			if !first {
				e.f.WriteItemSeparator(e.buf)
			}
			first = false
			e.f.WriteMapKey(e.buf, ent.key, mk.numeric)
			e.f.WriteKeySeparator(e.buf)
			if err := tc.write(e, ent.val); err != nil {
				return err
			}
		}
		e.f.WriteMapEnd(e.buf)
		return nil
	}
}

func sliceWriter(t reflect.Type, elem *lazyCodec) writeFn {
	return func(e *encodeState, v reflect.Value) error {
		if v.IsNil() {
			e.f.WriteNull(e.buf)
			return nil
		}
		return writeList(e, t, v, elem)
	}
}

func arrayWriter(t reflect.Type, elem *lazyCodec) writeFn {
	return func(e *encodeState, v reflect.Value) error {
		return writeList(e, t, v, elem)
	}
}

func writeList(e *encodeState, t reflect.Type, v reflect.Value, elem *lazyCodec) error {
	ok := e.enter(t)
	defer e.leave()
	if !ok {
		e.f.WriteNull(e.buf)
		return nil
	}
	tc, err := elem.get()
	if err != nil {
		return err
	}

	e.f.WriteListStart(e.buf)
	n := v.Len()
	last := e.buf.Len()
	for i := 0; i < n; i++ {
		if i > 0 {
			e.f.WriteItemSeparator(e.buf)
		}
		last = e.buf.Len()
		if err := tc.write(e, v.Index(i)); err != nil {
			return err
		}
	}
	endList(e, n, last)
	return nil
}

// endList closes a list of n items whose last item started at offset last.
// A trailing separator is read as the end of the list, so when the last item
// wrote nothing (the JSV null) a separator is added to keep it: [a,,] holds a
// and null, and [,] holds a single null.
func endList(e *encodeState, n, last int) {
	if n > 0 && e.buf.Len() == last {
		e.f.WriteItemSeparator(e.buf)
	}
	e.f.WriteListEnd(e.buf)
}
