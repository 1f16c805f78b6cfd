// Package lexer tokenizes render graph source. It only knows enough C++ to
// find token boundaries: identifiers, numbers, string and char literals
// (including raw strings), comments and bracket punctuation. Comments,
// preprocessor directive lines and whitespace are skipped, so a brace inside
// a literal, a comment or a #define never shows up as a brace token.
package lexer

import "strings"

// Lexer holds all mutable state for a single scan over src.
type Lexer struct {
	src  string
	pos  int // index of the next byte to consume
	line int // current 1-based source line

	lenient bool
}

// New creates a lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// NewAt creates a lexer positioned at offset, which must be the start of a
// token or of whitespace. The line number is computed from the preceding text.
func NewAt(src string, offset int) *Lexer {
	if offset > len(src) {
		offset = len(src)
	}
	return &Lexer{src: src, pos: offset, line: 1 + strings.Count(src[:offset], "\n")}
}

// Tokenize scans the whole of src.
func Tokenize(src string) ([]Token, error) {
	l := New(src)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

// SetLenient controls how a quote that never closes is handled. A lenient
// lexer returns the quote as a Punct token and carries on, which suits text
// that is never compiled, such as an #if 0 region or prose in a comment-like
// block. A strict lexer reports an error.
func (l *Lexer) SetLenient(on bool) { l.lenient = on }

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
	}
	return c
}

// rewind resets the position to an earlier token start.
func (l *Lexer) rewind(pos, line int) {
	l.pos, l.line = pos, line
}

// atLineStart reports whether only blanks precede pos on its line.
func (l *Lexer) atLineStart() bool {
	for i := l.pos - 1; i >= 0; i-- {
		switch l.src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}

// skipDirective consumes a preprocessor line, following backslash
// continuations. The newline itself is left for skipTrivia.
func (l *Lexer) skipDirective() {
	for l.pos < len(l.src) {
		c := l.peek()
		if c == '\n' {
			return
		}
		if c == '\\' && (l.peek2() == '\n' || (l.peek2() == '\r' && l.pos+2 < len(l.src) && l.src[l.pos+2] == '\n')) {
			l.advance()
		}
		l.advance()
	}
}

func (l *Lexer) errorf(line, offset int, msg string) *Error {
	return &Error{Line: line, Offset: offset, Msg: msg}
}

// skipTrivia discards whitespace and comments.
func (l *Lexer) skipTrivia() error {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.advance()
		case c == '#' && l.atLineStart():
			l.skipDirective()
		case c == '/' && l.peek2() == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peek2() == '*':
			startLine, start := l.line, l.pos
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peek() == '*' && l.peek2() == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return l.errorf(startLine, start, "unterminated block comment")
			}
		default:
			return nil
		}
	}
	return nil
}

// Next returns the next token. At end of input it returns an EOF token.
func (l *Lexer) Next() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}
	start, line := l.pos, l.line
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Offset: start, End: start, Line: line}, nil
	}

	c := l.peek()
	var kind Kind
	switch {
	case isIdentStart(c):
		k, err := l.scanIdentOrPrefixed()
		if err != nil {
			if !l.lenient {
				return Token{}, err
			}
			l.rewind(start, line)
			l.scanIdent()
			k = Ident
		}
		kind = k
	case isDigit(c) || (c == '.' && isDigit(l.peek2())):
		l.scanNumber()
		kind = Number
	case c == '"' || c == '\'':
		kind = String
		if c == '\'' {
			kind = Char
		}
		if err := l.scanQuoted(c); err != nil {
			if !l.lenient {
				return Token{}, err
			}
			l.rewind(start, line)
			l.advance()
			kind = Punct
		}
	default:
		l.advance()
		switch c {
		case '(':
			kind = LParen
		case ')':
			kind = RParen
		case '{':
			kind = LBrace
		case '}':
			kind = RBrace
		case ',':
			kind = Comma
		default:
			kind = Punct
		}
	}

	return Token{Kind: kind, Text: l.src[start:l.pos], Offset: start, End: l.pos, Line: line}, nil
}
