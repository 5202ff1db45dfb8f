package apexText

import (
	"strconv"
)

// jsonFormat writes and scans RFC 8259 JSON.
type jsonFormat struct {
	textFormat
}

func newJSONFormat() *jsonFormat {
	return &jsonFormat{textFormat{
		scanner: scanner{syntax{
			quote:     '"',
			escape:    '\\',
			mapStart:  '{',
			mapEnd:    '}',
			listStart: '[',
			listEnd:   ']',
			itemSep:   ',',
			keySep:    ':',
		}},
		name: "json",
		esc:  jsonEscaper,
		null: "null",
	}}
}

// EatValue rejects a missing value; JSON has no empty scalar.
func (f *jsonFormat) EatValue(v View, i *int) (View, error) {
	tok, err := f.scanner.EatValue(v, i)
	if err != nil {
		return tok, err
	}
	if tok.IsEmpty() {
		return tok, f.errorAt(v, *i, "expected value")
	}
	return tok, nil
}

func (f *jsonFormat) ParseScalar(tok View, useNumber bool) (any, error) {
	if f.IsQuoted(tok) {
		u, err := f.Unescape(tok)
		if err != nil {
			return nil, err
		}
		return u.String(), nil
	}
	s := tok.String()
	switch s {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if !isNumberLiteral(s) {
		return nil, &SyntaxError{Msg: "invalid literal " + strconv.Quote(s), Offset: int64(tok.off)}
	}
	if useNumber {
		return Number(s), nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &SyntaxError{Msg: "invalid number " + s, Offset: int64(tok.off)}
	}
	return n, nil
}
