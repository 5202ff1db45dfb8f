package apexText

import (
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Int64 converts the Number to an int64.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Float64 converts the Number to a float64.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// String returns the literal text of the Number.
func (n Number) String() string {
	return string(n)
}

// IsInt returns true if the number is an integer.
func (n Number) IsInt() bool {
	_, err := n.Int64()
	return err == nil
}

// isDigit returns true if c is an ASCII digit
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Helper to check if character is whitespace
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isNumberLiteral reports whether s is a complete JSON number:
// -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
func isNumberLiteral(s string) bool {
	if len(s) == 0 {
		return false
	}
	i := 0

	// Handle negative sign
	if s[i] == '-' {
		i++
		if i >= len(s) {
			return false
		}
	}

	// Integer part
	if s[i] == '0' {
		i++
	} else if s[i] >= '1' && s[i] <= '9' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	} else {
		return false
	}

	// Fraction
	if i < len(s) && s[i] == '.' {
		i++
		if i >= len(s) || !isDigit(s[i]) {
			return false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}

	// Exponent
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= len(s) || !isDigit(s[i]) {
			return false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}

	return i == len(s)
}

// isEmptyValue reports whether v is considered empty for omitempty
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Struct:
		// Special case for time.Time
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
		return v.IsZero()
	}
	return false
}

// isNillable reports whether values of kind k can hold nil.
func isNillable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// isContainer reports whether t is written as a map or a list, and so counts
// against the nesting depth.
func isContainer(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// Contains reports whether the tag options contain the specified option
//
//go:inline
func (o tagOptions) Contains(option string) bool {
	s := string(o)
	for s != "" {
		var next string
		if i := strings.IndexByte(s, ','); i >= 0 {
			s, next = s[:i], s[i+1:]
		}
		if s == option {
			return true
		}
		s = next
	}
	return false
}

// parseTag splits a struct field's json tag into its name and options
//
//go:inline
func parseTag(tag string) (string, tagOptions) {
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i], tagOptions(tag[i+1:])
	}
	return tag, ""
}

// ### Member naming ###

// convertName applies a naming convention to a declared Go field name.
func convertName(name string, nc NameConvention) string {
	switch nc {
	case NameCamelCase:
		return toCamelCase(name)
	case NameLowerUnderscore:
		return toLowerUnderscore(name)
	}
	return name
}

// toCamelCase lower-cases the leading run of capitals: ID -> id, URLPath -> urlPath.
func toCamelCase(name string) string {
	if name == "" {
		return name
	}
	b := []byte(name)
	for i := 0; i < len(b); i++ {
		if b[i] < 'A' || b[i] > 'Z' {
			break
		}
		// keep the last capital of a run when it starts the next word
		if i > 0 && i+1 < len(b) && b[i+1] >= 'a' && b[i+1] <= 'z' {
			break
		}
		b[i] += 'a' - 'A'
	}
	return string(b)
}

// toLowerUnderscore splits words on case changes: TotalCount -> total_count,
// HTTPStatus -> http_status.
func toLowerUnderscore(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeMemberName folds a member name for lenient matching: lower case
// with '_' and '-' removed.
func normalizeMemberName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			i++
			switch {
			case c == '_' || c == '-':
			case c >= 'A' && c <= 'Z':
				b.WriteByte(c + 'a' - 'A')
			default:
				b.WriteByte(c)
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(unicode.ToLower(r))
		i += size
	}
	return b.String()
}
