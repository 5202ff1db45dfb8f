package apexText

import (
	"github.com/tidwall/pretty"
)

// Indent reformats JSON text with one member per line. Arrays that fit in 80
// columns stay on one line. Key order is preserved and the result ends with a
// newline.
func Indent(data []byte, prefix, indent string) []byte {
	return pretty.PrettyOptions(data, &pretty.Options{
		Width:  80,
		Prefix: prefix,
		Indent: indent,
	})
}

// Compact removes all insignificant whitespace from JSON text.
func Compact(data []byte) []byte {
	return pretty.Ugly(data)
}

// MarshalIndent is Marshal followed by Indent.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	b, err := JSON.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Indent(b, prefix, indent), nil
}
