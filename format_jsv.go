package apexText

// jsvFormat writes and scans JSV: JSON punctuation, but strings are written
// bare unless they contain a delimiter, whitespace or a control char, in
// which case they are quoted with embedded quotes doubled. The empty token is
// null, so an empty string is written "".
//
//	{Id:1,Name:Widget,Tags:[a,b],Note:"x, y"}
type jsvFormat struct {
	textFormat
}

func newJSVFormat() *jsvFormat {
	return &jsvFormat{textFormat{
		scanner: scanner{syntax{
			quote:     '"',
			mapStart:  '{',
			mapEnd:    '}',
			listStart: '[',
			listEnd:   ']',
			itemSep:   ',',
			keySep:    ':',
		}},
		name: "jsv",
		esc:  jsvEscaper,
		null: "",
	}}
}

// ParseScalar returns every scalar as a string. JSV does not distinguish
// numbers and booleans from text.
func (f *jsvFormat) ParseScalar(tok View, _ bool) (any, error) {
	if tok.IsEmpty() {
		return nil, nil
	}
	if f.IsQuoted(tok) {
		u, err := f.Unescape(tok)
		if err != nil {
			return nil, err
		}
		return u.String(), nil
	}
	return tok.String(), nil
}
