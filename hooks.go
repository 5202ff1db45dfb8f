package apexText

import (
	"maps"
	"reflect"
)

// rawHooks are caller-supplied conversions for one exact type. Either side
// may be nil, in which case that direction uses the default codec.
type rawHooks struct {
	serialize   func(reflect.Value) (string, error)
	raw         bool // serialize output is written verbatim, not as a string
	deserialize func(string) (reflect.Value, error)
}

// RegisterSerializeFn makes c write values of type T as the string fn returns.
// Hooks take precedence over every builtin conversion. Registering resets the
// codec's cache.
func RegisterSerializeFn[T any](c *Codec, fn func(T) (string, error)) {
	c.updateHooks(reflect.TypeFor[T](), func(h *rawHooks) {
		h.serialize = func(v reflect.Value) (string, error) { return fn(v.Interface().(T)) }
		h.raw = false
	})
}

// RegisterRawSerializeFn is RegisterSerializeFn for output that is already
// valid in the codec's format, such as a pre-rendered map.
func RegisterRawSerializeFn[T any](c *Codec, fn func(T) (string, error)) {
	c.updateHooks(reflect.TypeFor[T](), func(h *rawHooks) {
		h.serialize = func(v reflect.Value) (string, error) { return fn(v.Interface().(T)) }
		h.raw = true
	})
}

// RegisterDeserializeFn makes c parse values of type T with fn. fn receives
// the unescaped text of string tokens and the raw text of anything else.
func RegisterDeserializeFn[T any](c *Codec, fn func(string) (T, error)) {
	c.updateHooks(reflect.TypeFor[T](), func(h *rawHooks) {
		h.deserialize = func(s string) (reflect.Value, error) {
			v, err := fn(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		}
	})
}

// UnregisterFns removes both hooks for T.
func UnregisterFns[T any](c *Codec) {
	t := reflect.TypeFor[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSettings(func(s *settings) *settings {
		if s.hooks[t] == nil {
			return s
		}
		hooks := maps.Clone(s.hooks)
		delete(hooks, t)
		return s.withHooks(hooks)
	})
}

func (c *Codec) updateHooks(t reflect.Type, update func(*rawHooks)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSettings(func(s *settings) *settings {
		hooks := make(map[reflect.Type]*rawHooks, len(s.hooks)+1)
		maps.Copy(hooks, s.hooks)
		h := &rawHooks{}
		if old := s.hooks[t]; old != nil {
			*h = *old
		}
		update(h)
		hooks[t] = h
		return s.withHooks(hooks)
	})
}

func hookWriter(h *rawHooks, t reflect.Type) writeFn {
	if h.serialize == nil {
		return nil
	}
	nillable := isNillable(t.Kind())
	return func(e *encodeState, v reflect.Value) error {
		if nillable && v.IsNil() {
			e.f.WriteNull(e.buf)
			return nil
		}
		s, err := h.serialize(v)
		if err != nil {
			return err
		}
		if h.raw {
			e.buf.WriteString(s)
		} else {
			e.f.WriteString(e.buf, s)
		}
		return nil
	}
}

func hookParser(h *rawHooks, t reflect.Type) parseFn {
	if h.deserialize == nil {
		return nil
	}
	nillable := isNillable(t.Kind())
	return func(d *decodeState, tok View, v reflect.Value) error {
		if d.f.IsNull(tok) {
			if nillable {
				v.SetZero()
			}
			return nil
		}
		s, err := scalarText(d.f, tok)
		if err != nil {
			return err
		}
		rv, err := h.deserialize(s)
		if err != nil {
			return d.mismatchErr(tok, t, err)
		}
		v.Set(rv)
		return nil
	}
}
