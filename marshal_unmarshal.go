package apexText

import (
	"fmt"
	"io"
	"reflect"
)

// encodeState is the per-call state of a write. depth starts at zero for
// every top-level call.
type encodeState struct {
	c   *Codec
	set *settings
	f   Format
	buf *Buffer

	depth int
	// typeHint is the discriminator the next struct writer emits first.
	typeHint string
}

func (e *encodeState) enter(t reflect.Type) bool {
	e.depth++
	if e.depth <= e.set.cfg.MaxDepth {
		return true
	}
	e.set.metrics.depthLimit()
	e.set.log.Warn("apexText: max depth exceeded, subtree written as null",
		"type", t.String(), "max_depth", e.set.cfg.MaxDepth)
	return false
}

func (e *encodeState) leave() { e.depth-- }

// decodeState is the per-call state of a parse. field names the struct member
// being parsed, for error context.
type decodeState struct {
	c   *Codec
	set *settings
	f   Format

	depth int
	field string
}

func (d *decodeState) enter(t reflect.Type) bool {
	d.depth++
	if d.depth <= d.set.cfg.MaxDepth {
		return true
	}
	d.depthExceeded(t)
	return false
}

func (d *decodeState) leave() { d.depth-- }

func (d *decodeState) depthExceeded(t reflect.Type) {
	d.set.metrics.depthLimit()
	d.set.log.Warn("apexText: max depth exceeded, subtree parsed as null",
		"type", t.String(), "max_depth", d.set.cfg.MaxDepth)
}

// mismatch reports a token that does not fit t. Outside strict mode the
// member is left as it was and parsing continues.
func (d *decodeState) mismatch(tok View, t reflect.Type) error {
	return d.mismatchErr(tok, t, nil)
}

func (d *decodeState) mismatchErr(tok View, t reflect.Type, cause error) error {
	if d.set.cfg.StrictMode {
		return &UnmarshalTypeError{
			Type:   t,
			Value:  describeToken(tok),
			Field:  d.field,
			Offset: int64(tok.off),
			Err:    cause,
		}
	}
	d.set.log.Debug("apexText: skipped value that does not fit member",
		"type", t.String(), "field", d.field, "value", describeToken(tok))
	return nil
}

func describeToken(tok View) string {
	const limit = 32
	if tok.n > limit {
		return tok.Slice(0, limit).String() + "..."
	}
	return tok.String()
}

// ### Write entry points ###

// marshalTo writes v, whose static type is t, to buf.
func (c *Codec) marshalTo(buf *Buffer, v reflect.Value, t reflect.Type) error {
	if t == nil {
		c.format.WriteNull(buf)
		return nil
	}
	set := c.state.Load().set
	tc, err := c.codecFor(set, t)
	if err != nil {
		return fmt.Errorf("apexText: %s: marshal %s: %w", c.format.Name(), t, err)
	}

	e := getEncodeState(c, set, buf)
	defer putEncodeState(e)

	mark := buf.Len()
	if err := tc.write(e, v); err != nil {
		buf.buf = buf.buf[:mark]
		return fmt.Errorf("apexText: %s: marshal %s: %w", c.format.Name(), t, err)
	}
	return nil
}

// Marshal returns the text form of v.
func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	rv := reflect.ValueOf(v)
	if err := c.marshalTo(buf, rv, reflect.TypeOf(v)); err != nil {
		return nil, err
	}

	// Create a copy of the buffer contents
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// MarshalString is Marshal returning a string.
func (c *Codec) MarshalString(v interface{}) (string, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := c.marshalTo(buf, reflect.ValueOf(v), reflect.TypeOf(v)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SerializeTo writes v to w in a single Write call. A *Buffer sink is
// appended to directly.
func (c *Codec) SerializeTo(w io.Writer, v interface{}) error {
	return c.serializeTo(w, reflect.ValueOf(v), reflect.TypeOf(v))
}

func (c *Codec) serializeTo(w io.Writer, v reflect.Value, t reflect.Type) error {
	if buf, ok := w.(*Buffer); ok {
		return c.marshalTo(buf, v, t)
	}

	buf := getBuffer()
	defer putBuffer(buf)

	if err := c.marshalTo(buf, v, t); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ### Read entry points ###

// Unmarshal parses data into the value pointed to by v. data is copied once;
// strings in the result never alias it.
func (c *Codec) Unmarshal(data []byte, v interface{}) error {
	return c.UnmarshalView(NewView(string(data)), v)
}

// UnmarshalString parses text into the value pointed to by v. Strings in the
// result share storage with text.
func (c *Codec) UnmarshalString(text string, v interface{}) error {
	return c.UnmarshalView(NewView(text), v)
}

// UnmarshalView parses a view into the value pointed to by v.
func (c *Codec) UnmarshalView(view View, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("apexText: %s: unmarshal target must be a non-nil pointer, got %s",
			c.format.Name(), reflect.TypeOf(v))
	}
	return c.unmarshalValue(view, rv.Elem())
}

// unmarshalValue parses exactly one value from view into the addressable target.
func (c *Codec) unmarshalValue(view View, target reflect.Value) error {
	t := target.Type()
	i := 0
	tok, err := c.format.EatValue(view, &i)
	if err != nil {
		return fmt.Errorf("apexText: %s: unmarshal %s: %w", c.format.Name(), t, err)
	}
	c.format.EatWhitespace(view, &i)
	if i < view.Len() {
		err := &SyntaxError{Msg: "unexpected data after top-level value", Offset: int64(view.off + i)}
		return fmt.Errorf("apexText: %s: unmarshal %s: %w", c.format.Name(), t, err)
	}
	return c.parseToken(tok, target)
}

func (c *Codec) parseToken(tok View, target reflect.Value) error {
	t := target.Type()
	set := c.state.Load().set
	tc, err := c.codecFor(set, t)
	if err != nil {
		return fmt.Errorf("apexText: %s: unmarshal %s: %w", c.format.Name(), t, err)
	}

	d := getDecodeState(c, set)
	defer putDecodeState(d)

	if err := tc.parse(d, tok, target); err != nil {
		return fmt.Errorf("apexText: %s: unmarshal %s: %w", c.format.Name(), t, err)
	}
	return nil
}

// ### Generic entry points ###

// Serialize writes v using its static type T, so interface types carry a
// type discriminator.
func Serialize[T any](c *Codec, v T) (string, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := c.marshalTo(buf, reflect.ValueOf(&v).Elem(), reflect.TypeFor[T]()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SerializeTo is Serialize writing to w.
func SerializeTo[T any](c *Codec, w io.Writer, v T) error {
	return c.serializeTo(w, reflect.ValueOf(&v).Elem(), reflect.TypeFor[T]())
}

// Deserialize parses text as a T.
func Deserialize[T any](c *Codec, text string) (T, error) {
	var v T
	err := c.unmarshalValue(NewView(text), reflect.ValueOf(&v).Elem())
	return v, err
}

// ### Package shortcuts ###

// Marshal returns the JSON encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	return JSON.Marshal(v)
}

// Unmarshal parses JSON data into the value pointed to by v.
func Unmarshal(data []byte, v interface{}) error {
	return JSON.Unmarshal(data, v)
}

// MarshalJSV returns the JSV encoding of v.
func MarshalJSV(v interface{}) ([]byte, error) {
	return JSV.Marshal(v)
}

// UnmarshalJSV parses JSV data into the value pointed to by v.
func UnmarshalJSV(data []byte, v interface{}) error {
	return JSV.Unmarshal(data, v)
}
