package apexText

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const hex = "0123456789abcdef"

type escapeStyle uint8

const (
	// backslash escapes (JSON): \" \\ \n \uXXXX ...
	escapeBackslash escapeStyle = iota
	// doubled quotes (JSV, CSV): a"b -> "a""b"
	escapeDoubledQuote
)

// escaper holds the per-format lookup tables. special marks bytes that force
// the slow path of Unescape, needs marks bytes that force escaping or quoting
// on output. Both are fixed at init and never mutated.
type escaper struct {
	style       escapeStyle
	quote       byte
	alwaysQuote bool
	special     [256]bool
	needs       [256]bool
}

var (
	jsonEscaper = newEscaper(escapeBackslash, '"', true, "\"\\")
	jsvEscaper  = newEscaper(escapeDoubledQuote, '"', false, "\",:{}[] ")
)

var controlEscapes = [256]byte{
	'"':  '"',
	'\\': '\\',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	'\f': 'f',
	'\b': 'b',
}

func newEscaper(style escapeStyle, quote byte, alwaysQuote bool, chars string) *escaper {
	e := &escaper{style: style, quote: quote, alwaysQuote: alwaysQuote}
	for i := 0; i < 0x20; i++ {
		e.needs[i] = true
	}
	e.needs[0x7f] = style == escapeBackslash
	for i := 0; i < len(chars); i++ {
		e.needs[chars[i]] = true
	}
	if style == escapeBackslash {
		e.special['\\'] = true
	} else {
		e.special[quote] = true
	}
	return e
}

// unescape returns the literal value of tok. Without an escape sequence the
// returned view is a sub-view of tok and nothing is allocated.
func (e *escaper) unescape(tok View, removeQuotes bool) (View, error) {
	inner := tok
	if removeQuotes && tok.n >= 2 && tok.At(0) == e.quote && tok.At(tok.n-1) == e.quote {
		inner = tok.Slice(1, tok.n-1)
	}

	s := inner.String()
	i := 0
	for i < len(s) && !e.special[s[i]] {
		i++
	}
	if i == len(s) {
		return inner, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])

	if e.style == escapeDoubledQuote {
		for ; i < len(s); i++ {
			c := s[i]
			b.WriteByte(c)
			if c == e.quote && i+1 < len(s) && s[i+1] == e.quote {
				i++
			}
		}
		return NewView(b.String()), nil
	}

	for i < len(s) {
		c := s[i]
		if c != '\\' {
			start := i
			for i < len(s) && s[i] != '\\' {
				i++
			}
			b.WriteString(s[start:i])
			continue
		}
		if i+1 >= len(s) {
			return View{}, &SyntaxError{Msg: "truncated escape sequence", Offset: int64(inner.off + i)}
		}
		esc := s[i+1]
		i += 2
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'f':
			b.WriteByte('\f')
		case 'b':
			b.WriteByte('\b')
		case 'v':
			b.WriteByte('\v')
		case 'u':
			r, ok := hexRune(s, i, 4)
			if !ok {
				return View{}, &SyntaxError{Msg: "truncated \\u escape", Offset: int64(inner.off + i - 2)}
			}
			i += 4
			if utf16.IsSurrogate(r) {
				if lo, ok := lowSurrogate(s, i); ok {
					if dec := utf16.DecodeRune(r, lo); dec != utf8.RuneError {
						r = dec
						i += 6
					}
				}
			}
			b.WriteRune(r)
		case 'x':
			n := 0
			for n < 4 && i+n < len(s) && unhex(s[i+n]) >= 0 {
				n++
			}
			if n != 2 && n != 4 {
				if n < 2 {
					return View{}, &SyntaxError{Msg: "truncated \\x escape", Offset: int64(inner.off + i - 2)}
				}
				n = 2
			}
			r, _ := hexRune(s, i, n)
			i += n
			b.WriteRune(r)
		default:
			b.WriteByte(esc)
		}
	}
	return NewView(b.String()), nil
}

func lowSurrogate(s string, i int) (rune, bool) {
	if i+6 > len(s) || s[i] != '\\' || s[i+1] != 'u' {
		return 0, false
	}
	r, ok := hexRune(s, i+2, 4)
	if !ok || r < 0xdc00 || r > 0xdfff {
		return 0, false
	}
	return r, true
}

func hexRune(s string, i, n int) (rune, bool) {
	if i+n > len(s) {
		return 0, false
	}
	var r rune
	for j := 0; j < n; j++ {
		d := unhex(s[i+j])
		if d < 0 {
			return 0, false
		}
		r = r<<4 | rune(d)
	}
	return r, true
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// needsEscaping reports whether s contains a byte the format must escape or quote.
func (e *escaper) needsEscaping(s string) bool {
	for i := 0; i < len(s); i++ {
		if e.needs[s[i]] {
			return true
		}
	}
	return false
}

// escape writes s as a string token.
func (e *escaper) escape(buf *Buffer, s string) {
	if !e.needsEscaping(s) {
		if e.alwaysQuote || len(s) == 0 {
			buf.WriteByte(e.quote)
			buf.WriteString(s)
			buf.WriteByte(e.quote)
			return
		}
		buf.WriteString(s)
		return
	}

	buf.grow(len(s) + 8)
	buf.WriteByte(e.quote)
	if e.style == escapeDoubledQuote {
		start := 0
		for i := 0; i < len(s); i++ {
			if s[i] == e.quote {
				buf.WriteString(s[start : i+1])
				buf.WriteByte(e.quote)
				start = i + 1
			}
		}
		buf.WriteString(s[start:])
		buf.WriteByte(e.quote)
		return
	}

	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !e.needs[c] {
			continue
		}
		buf.WriteString(s[start:i])
		if esc := controlEscapes[c]; esc != 0 {
			buf.WriteByte('\\')
			buf.WriteByte(esc)
		} else {
			buf.WriteString(`\u00`)
			buf.WriteByte(hex[c>>4])
			buf.WriteByte(hex[c&0xF])
		}
		start = i + 1
	}
	buf.WriteString(s[start:])
	buf.WriteByte(e.quote)
}
