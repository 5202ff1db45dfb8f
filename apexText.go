package apexText

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// ### Errors ###

func (e *SyntaxError) Error() string {
	return "apexText: syntax error at offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Msg
}

func (e *UnmarshalTypeError) Error() string {
	var msg string
	if e.Field != "" {
		msg = fmt.Sprintf("cannot parse %s into struct member %s of type %s", e.Value, e.Field, e.Type)
	} else {
		msg = fmt.Sprintf("cannot parse %s into value of type %s", e.Value, e.Type)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnmarshalTypeError) Unwrap() error { return e.Err }

func (e *AbstractTypeError) Error() string {
	if e.Discriminator == "" {
		return "cannot create abstract type " + e.Type.String() + ": no type discriminator"
	}
	return "cannot create abstract type " + e.Type.String() + " from discriminator " + strconv.Quote(e.Discriminator)
}

func (e *UnsupportedTypeError) Error() string {
	return "unsupported type " + e.Type.String() + ": " + e.Reason
}

func (e *UnsupportedValueError) Error() string {
	return "unsupported value: " + e.Str
}

// ### Extraction ###

// Extract returns the raw token found by following path through nested maps.
// A path segment addresses a list element when it is a decimal index. The
// returned view shares storage with text.
func (c *Codec) Extract(text string, path ...string) (View, bool) {
	f := c.format
	v := NewView(text)
	i := 0
	tok, err := f.EatValue(v, &i)
	if err != nil {
		return View{}, false
	}
	for _, segment := range path {
		var ok bool
		if tok, ok = c.step(tok, segment); !ok {
			return View{}, false
		}
	}
	return tok, true
}

// step descends one level from a container token.
func (c *Codec) step(tok View, segment string) (View, bool) {
	f := c.format
	i := 0
	if f.EatMapStartChar(tok, &i) {
		if f.EatMapEndChar(tok, &i) {
			return View{}, false
		}
		for {
			key, val, err := eatEntry(f, tok, &i)
			if err != nil {
				return View{}, false
			}
			if key.Equal(segment) {
				return val, true
			}
			more, err := f.EatItemSeparatorOrMapEnd(tok, &i)
			if err != nil || !more {
				return View{}, false
			}
		}
	}

	i = 0
	if !f.EatListStartChar(tok, &i) {
		return View{}, false
	}
	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 || f.EatListEndChar(tok, &i) {
		return View{}, false
	}
	for n := 0; ; n++ {
		val, err := f.EatValue(tok, &i)
		if err != nil {
			return View{}, false
		}
		if n == idx {
			return val, true
		}
		more, err := f.EatItemSeparatorOrListEnd(tok, &i)
		if err != nil || !more {
			return View{}, false
		}
	}
}

// ExtractString is Extract for scalar tokens, returning the unescaped text.
func (c *Codec) ExtractString(text string, path ...string) (string, bool) {
	tok, ok := c.Extract(text, path...)
	if !ok || c.format.IsNull(tok) || startsMap(c.format, tok) || startsList(c.format, tok) {
		return "", false
	}
	s, err := scalarText(c.format, tok)
	return s, err == nil
}

// GetObject extracts the map at path in its generic form.
func (c *Codec) GetObject(text string, path ...string) (map[string]any, bool) {
	tok, ok := c.Extract(text, path...)
	if !ok || !startsMap(c.format, tok) {
		return nil, false
	}
	val, err := c.parseGeneric(tok)
	if err != nil {
		return nil, false
	}
	m, ok := val.(map[string]any)
	return m, ok
}

// GetArray extracts the list at path in its generic form.
func (c *Codec) GetArray(text string, path ...string) ([]any, bool) {
	tok, ok := c.Extract(text, path...)
	if !ok || !startsList(c.format, tok) {
		return nil, false
	}
	val, err := c.parseGeneric(tok)
	if err != nil {
		return nil, false
	}
	list, ok := val.([]any)
	return list, ok
}

func (c *Codec) parseGeneric(tok View) (any, error) {
	d := getDecodeState(c, c.state.Load().set)
	defer putDecodeState(d)
	return parseAny(d, tok)
}

// ### Streams ###

// Encoder writes successive values to an output stream, each followed by a
// newline.
type Encoder struct {
	c      *Codec
	w      io.Writer
	buf    *Buffer
	prefix string
	indent string
}

// NewEncoder returns a JSON encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return JSON.NewEncoder(w)
}

// NewEncoder returns an encoder writing c's format to w.
func (c *Codec) NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		c:   c,
		w:   w,
		buf: getBufferSize(2048),
	}
}

// SetIndent makes the encoder indent JSON output. It has no effect on other
// formats.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.prefix, e.indent = prefix, indent
}

// Encode writes v and a newline in a single Write call.
func (e *Encoder) Encode(v interface{}) error {
	e.buf.Reset()
	if err := e.c.marshalTo(e.buf, reflect.ValueOf(v), reflect.TypeOf(v)); err != nil {
		return err
	}

	out := e.buf.Bytes()
	if _, isJSON := e.c.format.(*jsonFormat); isJSON && (e.prefix != "" || e.indent != "") {
		out = Indent(out, e.prefix, e.indent)
	} else {
		e.buf.WriteByte('\n')
		out = e.buf.Bytes()
	}
	_, err := e.w.Write(out)
	return err
}

// Close returns the encoder's buffer to the pool. The encoder must not be
// used afterwards.
func (e *Encoder) Close() {
	if e.buf != nil {
		putBuffer(e.buf)
		e.buf = nil
	}
}

// Decoder reads successive values from an input stream. The whole stream is
// read on the first call to Decode or More; values are then scanned from
// memory.
type Decoder struct {
	c    *Codec
	r    io.Reader
	data View
	pos  int
	err  error
	read bool
}

// NewDecoder returns a JSON decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return JSON.NewDecoder(r)
}

// NewDecoder returns a decoder reading c's format from r.
func (c *Codec) NewDecoder(r io.Reader) *Decoder {
	return &Decoder{c: c, r: r}
}

func (d *Decoder) fill() error {
	if d.read {
		return d.err
	}
	d.read = true
	buf := getBufferSize(4096)
	defer putBuffer(buf)
	if _, err := buf.ReadFrom(d.r); err != nil {
		d.err = err
		return err
	}
	d.data = NewView(buf.String())
	return nil
}

// More reports whether another value is available.
func (d *Decoder) More() bool {
	if d.fill() != nil {
		return false
	}
	d.c.format.EatWhitespace(d.data, &d.pos)
	return d.pos < d.data.Len()
}

// Decode parses the next value into the value pointed to by v. It returns
// io.EOF when the stream holds no more values.
func (d *Decoder) Decode(v interface{}) error {
	if err := d.fill(); err != nil {
		return err
	}
	f := d.c.format
	f.EatWhitespace(d.data, &d.pos)
	if d.pos >= d.data.Len() {
		return io.EOF
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("apexText: %s: decode target must be a non-nil pointer, got %s",
			f.Name(), reflect.TypeOf(v))
	}
	tok, err := f.EatValue(d.data, &d.pos)
	if err != nil {
		// the rest of the stream cannot be resynchronized
		d.pos = d.data.Len()
		return fmt.Errorf("apexText: %s: decode %s: %w", f.Name(), rv.Type().Elem(), err)
	}
	return d.c.parseToken(tok, rv.Elem())
}

// Buffered returns the part of the stream not yet decoded.
func (d *Decoder) Buffered() View {
	return d.data.From(d.pos)
}

var errTooDeep = errors.New("nesting exceeds max depth")

// Valid reports whether text holds exactly one well-formed value of c's
// format, nested no deeper than the codec's MaxDepth.
func (c *Codec) Valid(text string) bool {
	v := NewView(text)
	i := 0
	tok, err := c.format.EatValue(v, &i)
	if err != nil {
		return false
	}
	c.format.EatWhitespace(v, &i)
	if i < v.Len() {
		return false
	}
	return validToken(c.format, tok, c.state.Load().set.cfg.MaxDepth) == nil
}

// validToken checks the inside of containers, which EatValue only matches
// brackets for.
func validToken(f Format, tok View, depth int) error {
	i := 0
	if f.EatMapStartChar(tok, &i) {
		if depth == 0 {
			return errTooDeep
		}
		if f.EatMapEndChar(tok, &i) {
			return nil
		}
		for {
			_, val, err := eatEntry(f, tok, &i)
			if err != nil {
				return err
			}
			if err := validToken(f, val, depth-1); err != nil {
				return err
			}
			more, err := f.EatItemSeparatorOrMapEnd(tok, &i)
			if err != nil || !more {
				return err
			}
		}
	}
	i = 0
	if f.EatListStartChar(tok, &i) {
		if depth == 0 {
			return errTooDeep
		}
		if f.EatListEndChar(tok, &i) {
			return nil
		}
		for {
			val, err := f.EatValue(tok, &i)
			if err != nil {
				return err
			}
			if err := validToken(f, val, depth-1); err != nil {
				return err
			}
			more, err := f.EatItemSeparatorOrListEnd(tok, &i)
			if err != nil || !more {
				return err
			}
		}
	}
	if f.IsNull(tok) {
		return nil
	}
	_, err := f.ParseScalar(tok, true)
	return err
}
