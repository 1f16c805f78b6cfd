package lexer

import "strings"

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scanIdentOrPrefixed consumes an identifier. When the identifier is a
// literal encoding prefix (L, u, U, u8, and their R forms) directly followed
// by a quote, the whole literal is consumed instead.
func (l *Lexer) scanIdentOrPrefixed() (Kind, error) {
	start := l.pos
	l.scanIdent()
	ident := l.src[start:l.pos]

	switch l.peek() {
	case '"':
		switch ident {
		case "R", "LR", "uR", "UR", "u8R":
			return String, l.scanRaw()
		case "L", "u", "U", "u8":
			return String, l.scanQuoted('"')
		}
	case '\'':
		switch ident {
		case "L", "u", "U", "u8":
			return Char, l.scanQuoted('\'')
		}
	}
	return Ident, nil
}

func (l *Lexer) scanIdent() {
	for l.pos < len(l.src) && isIdentPart(l.peek()) {
		l.advance()
	}
}

// scanNumber consumes a numeric literal including suffixes, exponents and
// C++14 digit separators (1'000'000).
func (l *Lexer) scanNumber() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case isIdentPart(c) || c == '.':
			l.advance()
		case c == '\'' && isIdentPart(l.peek2()):
			l.advance()
		case (c == '+' || c == '-') && l.pos > 0 && strings.ContainsRune("eEpP", rune(l.src[l.pos-1])):
			l.advance()
		default:
			return
		}
	}
}

// scanQuoted consumes a "..." or '...' literal starting at the opening quote.
func (l *Lexer) scanQuoted(quote byte) error {
	startLine, start := l.line, l.pos
	l.advance()
	for l.pos < len(l.src) {
		c := l.advance()
		switch c {
		case '\\':
			l.advance()
		case quote:
			return nil
		case '\n':
			return l.errorf(startLine, start, "newline in "+quoteName(quote))
		}
	}
	return l.errorf(startLine, start, "unterminated "+quoteName(quote))
}

// scanRaw consumes R"delim(...)delim" starting at the opening quote.
func (l *Lexer) scanRaw() error {
	startLine, start := l.line, l.pos
	l.advance()
	open := strings.IndexByte(l.src[l.pos:], '(')
	if open < 0 || open > 16 {
		return l.errorf(startLine, start, "invalid raw string delimiter")
	}
	delim := l.src[l.pos : l.pos+open]
	if strings.ContainsAny(delim, " ()\\\t\n") {
		return l.errorf(startLine, start, "invalid raw string delimiter")
	}
	closing := ")" + delim + `"`
	end := strings.Index(l.src[l.pos+open+1:], closing)
	if end < 0 {
		return l.errorf(startLine, start, "unterminated raw string literal")
	}
	target := l.pos + open + 1 + end + len(closing)
	for l.pos < target {
		l.advance()
	}
	return nil
}

func quoteName(q byte) string {
	if q == '\'' {
		return "char literal"
	}
	return "string literal"
}
