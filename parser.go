package apexText

// syntax lists the punctuation a format is built from. escape is zero for
// formats that escape quotes by doubling them.
type syntax struct {
	quote     byte
	escape    byte
	mapStart  byte
	mapEnd    byte
	listStart byte
	listEnd   byte
	itemSep   byte
	keySep    byte
}

// scanner implements the Eat* token operations for a syntax. Every operation
// skips insignificant whitespace, consumes exactly one token and advances the
// cursor past it. Returned tokens are sub-views; nothing is copied.
type scanner struct {
	syntax
}

func (s *scanner) EatWhitespace(v View, i *int) {
	for *i < v.n && isWhitespace(v.src[v.off+*i]) {
		*i++
	}
}

func (s *scanner) EatMapStartChar(v View, i *int) bool {
	return s.eatChar(v, i, s.mapStart)
}

func (s *scanner) EatListStartChar(v View, i *int) bool {
	return s.eatChar(v, i, s.listStart)
}

func (s *scanner) EatMapKeySeparator(v View, i *int) bool {
	return s.eatChar(v, i, s.keySep)
}

func (s *scanner) eatChar(v View, i *int, c byte) bool {
	s.EatWhitespace(v, i)
	if *i < v.n && v.src[v.off+*i] == c {
		*i++
		return true
	}
	return false
}

// EatItemSeparatorOrMapEnd consumes the separator between map entries or the
// map's closing char. more is false once the map is closed.
func (s *scanner) EatItemSeparatorOrMapEnd(v View, i *int) (more bool, err error) {
	return s.eatSeparatorOrEnd(v, i, s.mapEnd, "map")
}

func (s *scanner) EatItemSeparatorOrListEnd(v View, i *int) (more bool, err error) {
	return s.eatSeparatorOrEnd(v, i, s.listEnd, "list")
}

func (s *scanner) eatSeparatorOrEnd(v View, i *int, end byte, what string) (bool, error) {
	s.EatWhitespace(v, i)
	if *i >= v.n {
		return false, s.errorAt(v, *i, "unterminated "+what)
	}
	switch v.src[v.off+*i] {
	case s.itemSep:
		*i++
		// a trailing separator before the close char is tolerated
		s.EatWhitespace(v, i)
		if *i < v.n && v.src[v.off+*i] == end {
			*i++
			return false, nil
		}
		return true, nil
	case end:
		*i++
		return false, nil
	}
	return false, s.errorAt(v, *i, "expected '"+string(s.itemSep)+"' or '"+string(end)+"' in "+what)
}

// atEnd reports whether the next significant char closes the current container.
func (s *scanner) atEnd(v View, i *int, end byte) bool {
	s.EatWhitespace(v, i)
	if *i < v.n && v.src[v.off+*i] == end {
		*i++
		return true
	}
	return false
}

// EatMapKey returns the next key token: a quoted string, or a bare run ending
// at the key separator or whitespace.
func (s *scanner) EatMapKey(v View, i *int) (View, error) {
	s.EatWhitespace(v, i)
	if *i >= v.n {
		return View{}, s.errorAt(v, *i, "unterminated map")
	}
	if v.src[v.off+*i] == s.quote {
		return s.eatQuoted(v, i)
	}
	start := *i
	for *i < v.n {
		c := v.src[v.off+*i]
		if c == s.keySep || c == s.mapEnd || c == s.itemSep || isWhitespace(c) {
			break
		}
		*i++
	}
	return v.Slice(start, *i), nil
}

// EatValue returns the next value token: a quoted string, a complete map or
// list, or a bare scalar run. An empty view means no scalar was present.
func (s *scanner) EatValue(v View, i *int) (View, error) {
	s.EatWhitespace(v, i)
	if *i >= v.n {
		return v.Slice(*i, *i), nil
	}
	switch c := v.src[v.off+*i]; c {
	case s.quote:
		return s.eatQuoted(v, i)
	case s.mapStart, s.listStart:
		return s.eatNested(v, i)
	}
	start := *i
	for *i < v.n {
		c := v.src[v.off+*i]
		if c == s.itemSep || c == s.mapEnd || c == s.listEnd || isWhitespace(c) {
			break
		}
		*i++
	}
	return v.Slice(start, *i), nil
}

func (s *scanner) eatQuoted(v View, i *int) (View, error) {
	start := *i
	*i++
	for *i < v.n {
		c := v.src[v.off+*i]
		if s.escape != 0 && c == s.escape {
			*i += 2
			continue
		}
		if c == s.quote {
			*i++
			// doubled quote inside a JSV string
			if s.escape == 0 && *i < v.n && v.src[v.off+*i] == s.quote {
				*i++
				continue
			}
			return v.Slice(start, *i), nil
		}
		*i++
	}
	return View{}, s.errorAt(v, start, "unterminated string")
}

func (s *scanner) eatNested(v View, i *int) (View, error) {
	start := *i
	open := v.src[v.off+*i]
	depth := 0
	inQuote := false
	for *i < v.n {
		c := v.src[v.off+*i]
		switch {
		case inQuote:
			if s.escape != 0 && c == s.escape {
				*i++
			} else if c == s.quote {
				inQuote = false
			}
		case c == s.quote:
			inQuote = true
		case c == s.mapStart || c == s.listStart:
			depth++
		case c == s.mapEnd || c == s.listEnd:
			depth--
			if depth == 0 {
				*i++
				return v.Slice(start, *i), nil
			}
		}
		*i++
	}
	if inQuote {
		return View{}, s.errorAt(v, start, "unterminated string")
	}
	if open == s.mapStart {
		return View{}, s.errorAt(v, start, "unterminated map")
	}
	return View{}, s.errorAt(v, start, "unterminated list")
}

func (s *scanner) errorAt(v View, i int, msg string) *SyntaxError {
	return &SyntaxError{Msg: msg, Offset: int64(v.off + i)}
}
