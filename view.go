package apexText

// View is an immutable window over a source string. Sub-slicing narrows the
// window and never copies, so every token handed out by the scanner shares
// storage with the text passed to the parse call.
type View struct {
	src string
	off int
	n   int
}

// NewView returns a View spanning all of s.
func NewView(s string) View {
	return View{src: s, n: len(s)}
}

// Len returns the number of bytes in the view.
func (v View) Len() int { return v.n }

// IsEmpty reports whether the view spans no bytes.
func (v View) IsEmpty() bool { return v.n == 0 }

// At returns the byte at index i, relative to the start of the view.
func (v View) At(i int) byte {
	if i < 0 || i >= v.n {
		panic("apexText: View index out of range")
	}
	return v.src[v.off+i]
}

// Slice returns the sub-view [start, end) relative to the start of v.
func (v View) Slice(start, end int) View {
	if start < 0 || end < start || end > v.n {
		panic("apexText: View slice bounds out of range")
	}
	return View{src: v.src, off: v.off + start, n: end - start}
}

// From returns the sub-view starting at index i.
func (v View) From(i int) View {
	return v.Slice(i, v.n)
}

// Offset returns the absolute position of the view in its source text.
func (v View) Offset() int { return v.off }

// Source returns the complete text the view was cut from.
func (v View) Source() string { return v.src }

// String returns the viewed bytes as a string sharing the source's storage.
func (v View) String() string {
	return v.src[v.off : v.off+v.n]
}

// Equal reports whether the view holds exactly s.
func (v View) Equal(s string) bool {
	return v.n == len(s) && v.String() == s
}

// HasPrefix reports whether the view starts with s.
func (v View) HasPrefix(s string) bool {
	return v.n >= len(s) && v.src[v.off:v.off+len(s)] == s
}

// TrimSpace returns the view without leading and trailing whitespace.
func (v View) TrimSpace() View {
	start, end := 0, v.n
	for start < end && isWhitespace(v.src[v.off+start]) {
		start++
	}
	for end > start && isWhitespace(v.src[v.off+end-1]) {
		end--
	}
	return v.Slice(start, end)
}

// IndexByte returns the index of the first c in the view, or -1.
func (v View) IndexByte(c byte) int {
	for i := 0; i < v.n; i++ {
		if v.src[v.off+i] == c {
			return i
		}
	}
	return -1
}
