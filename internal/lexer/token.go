package lexer

import "fmt"

// Kind identifies the category of a token.
type Kind int

const (
	EOF Kind = iota // sentinel: end of input

	Ident  // identifier or keyword, e.g. PASS_BEGIN
	Number // numeric literal, digit separators included
	String // "..." or R"d(...)d", with any encoding prefix
	Char   // '...'

	LParen // (
	RParen // )
	LBrace // {
	RBrace // }
	Comma  // ,
	Punct  // any other single byte
)

var kindNames = [...]string{
	EOF:    "EOF",
	Ident:  "identifier",
	Number: "number",
	String: "string literal",
	Char:   "char literal",
	LParen: "'('",
	RParen: "')'",
	LBrace: "'{'",
	RBrace: "'}'",
	Comma:  "','",
	Punct:  "punctuation",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexeme with its position in the source.
type Token struct {
	Kind Kind
	Text string
	// Offset and End are byte offsets: Text == src[Offset:End].
	Offset int
	End    int
	// Line is 1-based.
	Line int
}

// Is reports whether the token is an identifier with the given text.
func (t Token) Is(ident string) bool {
	return t.Kind == Ident && t.Text == ident
}

// String implements fmt.Stringer.
func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q (line %d)", t.Kind, t.Text, t.Line)
}

// Error is a lexical error such as an unterminated literal or comment.
type Error struct {
	Line   int
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
