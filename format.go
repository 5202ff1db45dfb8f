package apexText

import (
	"encoding/base64"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Format is the set of primitives that distinguishes one text format from
// another. The object walker is written once against this interface.
//
// Scanning methods take the view being scanned and a cursor into it; they skip
// insignificant whitespace first and leave the cursor after the consumed token.
// Writing methods append to a Buffer and never fail unless the value has no
// representation in the format.
type Format interface {
	Name() string

	EatWhitespace(v View, i *int)
	EatMapStartChar(v View, i *int) bool
	EatMapEndChar(v View, i *int) bool
	EatListStartChar(v View, i *int) bool
	EatListEndChar(v View, i *int) bool
	EatMapKey(v View, i *int) (View, error)
	EatMapKeySeparator(v View, i *int) bool
	EatItemSeparatorOrMapEnd(v View, i *int) (more bool, err error)
	EatItemSeparatorOrListEnd(v View, i *int) (more bool, err error)
	EatValue(v View, i *int) (View, error)

	// IsNull reports whether tok is the format's null token.
	IsNull(tok View) bool
	// IsQuoted reports whether tok is a quoted string token.
	IsQuoted(tok View) bool
	// Unescape returns the literal text of a string token, without quotes.
	Unescape(tok View) (View, error)
	// ParseScalar converts a non-container token to its generic Go value.
	ParseScalar(tok View, useNumber bool) (any, error)

	// RenderKey returns the key and key separator for a member name, ready
	// to be written verbatim.
	RenderKey(name string) string

	WriteMapStart(buf *Buffer)
	WriteMapEnd(buf *Buffer)
	WriteListStart(buf *Buffer)
	WriteListEnd(buf *Buffer)
	WriteItemSeparator(buf *Buffer)
	WriteKeySeparator(buf *Buffer)
	WriteMapKey(buf *Buffer, key string, numeric bool)

	WriteNull(buf *Buffer)
	WriteString(buf *Buffer, s string)
	WriteBool(buf *Buffer, b bool)
	WriteInt(buf *Buffer, i int64)
	WriteUint(buf *Buffer, u uint64)
	WriteFloat(buf *Buffer, f float64, bits int) error
	WriteRawNumber(buf *Buffer, n string)
	WriteDate(buf *Buffer, t time.Time, enc DateEncoding)
	WriteGuid(buf *Buffer, id uuid.UUID)
	WriteBytes(buf *Buffer, b []byte)
	WriteException(buf *Buffer, err error)
}

// textFormat holds the primitives JSON and JSV share. The two formats differ
// only in punctuation, quoting rules and null representation.
type textFormat struct {
	scanner
	name string
	esc  *escaper
	null string
}

func (f *textFormat) Name() string { return f.name }

func (f *textFormat) EatMapEndChar(v View, i *int) bool {
	return f.atEnd(v, i, f.mapEnd)
}

func (f *textFormat) EatListEndChar(v View, i *int) bool {
	return f.atEnd(v, i, f.listEnd)
}

func (f *textFormat) IsNull(tok View) bool {
	return tok.Equal(f.null)
}

func (f *textFormat) IsQuoted(tok View) bool {
	return tok.n >= 2 && tok.At(0) == f.quote
}

func (f *textFormat) Unescape(tok View) (View, error) {
	return f.esc.unescape(tok, true)
}

func (f *textFormat) RenderKey(name string) string {
	buf := getBufferSize(len(name) + 4)
	defer putBuffer(buf)
	f.esc.escape(buf, name)
	buf.WriteByte(f.keySep)
	return buf.String()
}

func (f *textFormat) WriteMapStart(buf *Buffer)      { buf.WriteByte(f.mapStart) }
func (f *textFormat) WriteMapEnd(buf *Buffer)        { buf.WriteByte(f.mapEnd) }
func (f *textFormat) WriteListStart(buf *Buffer)     { buf.WriteByte(f.listStart) }
func (f *textFormat) WriteListEnd(buf *Buffer)       { buf.WriteByte(f.listEnd) }
func (f *textFormat) WriteItemSeparator(buf *Buffer) { buf.WriteByte(f.itemSep) }
func (f *textFormat) WriteKeySeparator(buf *Buffer)  { buf.WriteByte(f.keySep) }

func (f *textFormat) WriteMapKey(buf *Buffer, key string, numeric bool) {
	if numeric && !f.esc.alwaysQuote {
		buf.WriteString(key)
		return
	}
	f.esc.escape(buf, key)
}

func (f *textFormat) WriteNull(buf *Buffer) { buf.WriteString(f.null) }

func (f *textFormat) WriteString(buf *Buffer, s string) { f.esc.escape(buf, s) }

func (f *textFormat) WriteBool(buf *Buffer, b bool) {
	if b {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
}

func (f *textFormat) WriteInt(buf *Buffer, i int64)   { buf.writeInt(i) }
func (f *textFormat) WriteUint(buf *Buffer, u uint64) { buf.writeUint(u) }

func (f *textFormat) WriteFloat(buf *Buffer, v float64, bits int) error {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return &UnsupportedValueError{Str: strconv.FormatFloat(v, 'g', -1, bits)}
	}
	buf.grow(24)
	buf.buf = strconv.AppendFloat(buf.buf, v, 'g', -1, bits)
	return nil
}

func (f *textFormat) WriteRawNumber(buf *Buffer, n string) {
	if n == "" {
		n = "0"
	}
	buf.WriteString(n)
}

func (f *textFormat) WriteDate(buf *Buffer, t time.Time, enc DateEncoding) {
	switch enc {
	case DateUnixMillis:
		buf.writeInt(t.UnixMilli())
	case DateWCF:
		buf.grow(32)
		if f.esc.alwaysQuote {
			buf.WriteByte(f.quote)
		}
		buf.WriteString("/Date(")
		buf.writeInt(t.UnixMilli())
		buf.WriteString(")/")
		if f.esc.alwaysQuote {
			buf.WriteByte(f.quote)
		}
	default:
		var scratch [64]byte
		f.esc.escape(buf, string(t.AppendFormat(scratch[:0], time.RFC3339Nano)))
	}
}

func (f *textFormat) WriteGuid(buf *Buffer, id uuid.UUID) {
	f.esc.escape(buf, id.String())
}

// WriteBytes writes b as standard base64, which never needs escaping.
func (f *textFormat) WriteBytes(buf *Buffer, b []byte) {
	n := base64.StdEncoding.EncodedLen(len(b))
	buf.grow(n + 2)
	if f.esc.alwaysQuote || n == 0 {
		buf.WriteByte(f.quote)
	}
	start := len(buf.buf)
	buf.buf = buf.buf[:start+n]
	base64.StdEncoding.Encode(buf.buf[start:], b)
	if f.esc.alwaysQuote || n == 0 {
		buf.WriteByte(f.quote)
	}
}

func (f *textFormat) WriteException(buf *Buffer, err error) {
	f.esc.escape(buf, err.Error())
}

// scalarText returns the literal text of a scalar token, unescaping it when quoted.
func scalarText(f Format, tok View) (string, error) {
	if f.IsQuoted(tok) {
		u, err := f.Unescape(tok)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}
	return tok.String(), nil
}
