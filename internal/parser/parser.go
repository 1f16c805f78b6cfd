package parser

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/rendergraph/internal/argblock"
	"github.com/specialistvlad/rendergraph/internal/lexer"
	"github.com/specialistvlad/rendergraph/internal/pass"
)

// DSL markers.
const (
	KeywordBegin     = "PASS_BEGIN"
	KeywordEnd       = "PASS_END"
	KeywordFixed     = "FIXED"
	KeywordRead      = "READ"
	KeywordWrite     = "WRITE"
	KeywordReadWrite = "READ_WRITE"
	KeywordInput     = "INPUT"

	KeywordFixedBegin = "FIXED_BEGIN"
	KeywordFixedEnd   = "FIXED_END"
)

// Span is the byte range [Start, End) of one pass block, from the first
// byte of PASS_BEGIN to the last byte of PASS_END.
type Span struct {
	Start int
	End   int
}

// Result is the outcome of a single ParseNext call.
type Result struct {
	// Done is set when no PASS_BEGIN remains after the offset.
	Done bool
	Pass *pass.Descriptor
	Span Span
	// Consumed is the number of bytes between the requested offset and the
	// end of the pass block. Scanning resumes at offset+Consumed.
	Consumed int
}

// File is every pass of one graph source, in source order.
type File struct {
	Passes []*pass.Descriptor
	Spans  []Span
}

// ParseAll scans src for every pass block. Duplicate pass names are an
// error; on any error no descriptors are returned.
func ParseAll(src string) (*File, error) {
	set := pass.NewSet()
	f := &File{}

	offset := 0
	for {
		res, err := ParseNext(src, offset)
		if err != nil {
			return nil, err
		}
		if res.Done {
			break
		}
		if err := set.Add(res.Pass); err != nil {
			return nil, &ParseError{
				Line:   res.Pass.Line,
				Offset: res.Pass.Offset,
				Pass:   res.Pass.Name,
				Msg:    "pass name is already used by an earlier pass",
				Err:    err,
			}
		}
		f.Spans = append(f.Spans, res.Span)
		offset += res.Consumed
	}

	f.Passes = set.All()
	return f, nil
}

// ParseNext parses the first pass block that starts at or after offset.
func ParseNext(src string, offset int) (Result, error) {
	if offset < 0 || offset > len(src) {
		return Result{}, fmt.Errorf("parser: offset %d out of range [0, %d]", offset, len(src))
	}
	p := &passParser{src: src, lex: lexer.NewAt(src, offset)}

	begin, err := p.findBegin()
	if err != nil {
		return Result{}, err
	}
	if begin.Kind == lexer.EOF {
		return Result{Done: true, Consumed: len(src) - offset}, nil
	}

	d, end, err := p.parsePass(begin)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Pass:     d,
		Span:     Span{Start: begin.Offset, End: end},
		Consumed: end - offset,
	}, nil
}

// passParser walks tokens for one ParseNext call.
type passParser struct {
	src  string
	lex  *lexer.Lexer
	name string
}

func (p *passParser) next() (lexer.Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			return tok, &ParseError{Line: lexErr.Line, Offset: lexErr.Offset, Pass: p.name, Msg: lexErr.Msg, Err: err}
		}
		return tok, err
	}
	return tok, nil
}

func (p *passParser) fail(tok lexer.Token, format string, args ...any) error {
	return &ParseError{Line: tok.Line, Offset: tok.Offset, Pass: p.name, Msg: fmt.Sprintf(format, args...)}
}

// findBegin skips tokens until PASS_BEGIN or EOF. A stray PASS_END outside
// of any pass is reported as an unmatched delimiter. Text outside of passes
// is scanned leniently since it may hold disabled code.
func (p *passParser) findBegin() (lexer.Token, error) {
	p.lex.SetLenient(true)
	defer p.lex.SetLenient(false)
	for {
		tok, err := p.next()
		if err != nil {
			return tok, err
		}
		switch {
		case tok.Kind == lexer.EOF, tok.Is(KeywordBegin):
			return tok, nil
		case tok.Is(KeywordEnd):
			return tok, p.fail(tok, "%s without a matching %s", KeywordEnd, KeywordBegin)
		}
	}
}

func (p *passParser) parsePass(begin lexer.Token) (*pass.Descriptor, int, error) {
	d := &pass.Descriptor{Line: begin.Line, Offset: begin.Offset}

	name, err := p.parseName(begin)
	if err != nil {
		return nil, 0, err
	}
	d.Name = name
	p.name = name

	lbrace, err := p.parseMarkers(d)
	if err != nil {
		return nil, 0, err
	}

	rbrace, err := p.captureBody(d, lbrace)
	if err != nil {
		return nil, 0, err
	}
	d.Body = p.src[lbrace.End:rbrace.Offset]
	d.BodyLine = lbrace.Line

	end, err := p.next()
	if err != nil {
		return nil, 0, err
	}
	if !end.Is(KeywordEnd) {
		if end.Kind == lexer.EOF {
			return nil, 0, p.fail(begin, "%s has no matching %s", KeywordBegin, KeywordEnd)
		}
		return nil, 0, p.fail(end, "expected %s after the pass body, found %s", KeywordEnd, end)
	}
	return d, end.End, nil
}

// parseName reads "(NAME)" following PASS_BEGIN.
func (p *passParser) parseName(begin lexer.Token) (string, error) {
	open, err := p.next()
	if err != nil {
		return "", err
	}
	if open.Kind != lexer.LParen {
		return "", p.fail(begin, "expected '(' after %s", KeywordBegin)
	}

	nameTok, err := p.next()
	if err != nil {
		return "", err
	}
	switch nameTok.Kind {
	case lexer.RParen:
		return "", p.fail(begin, "missing pass name")
	case lexer.EOF:
		return "", p.fail(begin, "unterminated %s(", KeywordBegin)
	case lexer.Ident:
	default:
		return "", p.fail(nameTok, "invalid pass name %q", nameTok.Text)
	}
	if err := pass.ValidateName(nameTok.Text); err != nil {
		return "", p.fail(nameTok, "%v", err)
	}

	closing, err := p.next()
	if err != nil {
		return "", err
	}
	if closing.Kind != lexer.RParen {
		if closing.Kind == lexer.EOF {
			return "", p.fail(begin, "unterminated %s(", KeywordBegin)
		}
		return "", p.fail(closing, "expected ')' after pass name, found %s", closing)
	}
	return nameTok.Text, nil
}

// parseMarkers consumes FIXED and the argument lists, returning the opening
// brace of the body.
func (p *passParser) parseMarkers(d *pass.Descriptor) (lexer.Token, error) {
	seen := make(map[string]bool)
	for {
		tok, err := p.next()
		if err != nil {
			return tok, err
		}

		switch {
		case tok.Kind == lexer.LBrace:
			return tok, nil
		case tok.Kind == lexer.RParen:
			// Tolerated: drafts close the generated signature by hand before the body.
			continue
		case tok.Kind == lexer.EOF, tok.Is(KeywordEnd):
			return tok, p.fail(tok, "missing pass body")
		case tok.Is(KeywordBegin):
			return tok, p.fail(tok, "%s inside a pass that has no body", KeywordBegin)
		case tok.Is(KeywordFixed):
			if seen[KeywordFixed] {
				return tok, p.fail(tok, "repeated %s marker", KeywordFixed)
			}
			seen[KeywordFixed] = true
			d.Fixed = true
		case tok.Is(KeywordRead), tok.Is(KeywordWrite), tok.Is(KeywordReadWrite), tok.Is(KeywordInput):
			if seen[tok.Text] {
				return tok, p.fail(tok, "repeated %s list", tok.Text)
			}
			seen[tok.Text] = true
			block, err := p.parseList(tok)
			if err != nil {
				return tok, err
			}
			switch tok.Text {
			case KeywordRead:
				d.Read = block
			case KeywordWrite:
				d.Write = block
			case KeywordReadWrite:
				d.ReadWrite = block
			case KeywordInput:
				d.Input = block
			}
		default:
			return tok, p.fail(tok, "unexpected %s before the pass body", tok)
		}
	}
}

// parseList reads "(decl, ...)" after a list marker.
func (p *passParser) parseList(marker lexer.Token) (argblock.Block, error) {
	open, err := p.next()
	if err != nil {
		return argblock.Block{}, err
	}
	if open.Kind != lexer.LParen {
		return argblock.Block{}, p.fail(marker, "expected '(' after %s", marker.Text)
	}

	depth := 1
	for {
		tok, err := p.next()
		if err != nil {
			return argblock.Block{}, err
		}
		switch tok.Kind {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
			if depth == 0 {
				return argblock.Parse(p.src[open.End:tok.Offset]), nil
			}
		case lexer.LBrace, lexer.RBrace, lexer.EOF:
			return argblock.Block{}, p.fail(marker, "unmatched '(' in %s list", marker.Text)
		}
	}
}

// captureBody finds the brace matching lbrace and records the fixed
// sections found on the way.
func (p *passParser) captureBody(d *pass.Descriptor, lbrace lexer.Token) (lexer.Token, error) {
	depth := 1
	for {
		tok, err := p.next()
		if err != nil {
			return tok, err
		}
		switch {
		case tok.Kind == lexer.LBrace:
			depth++
		case tok.Kind == lexer.RBrace:
			depth--
			if depth == 0 {
				return tok, nil
			}
		case tok.Is(KeywordFixedBegin):
			fb, err := p.parseFixedBlock(tok, lbrace.End)
			if err != nil {
				return tok, err
			}
			d.FixedBlocks = append(d.FixedBlocks, fb)
		case tok.Is(KeywordFixedEnd):
			return tok, p.fail(tok, "%s without a matching %s", KeywordFixedEnd, KeywordFixedBegin)
		case tok.Kind == lexer.EOF, tok.Is(KeywordEnd), tok.Is(KeywordBegin):
			return tok, p.fail(lbrace, "unmatched '{' in pass body")
		}
	}
}

// parseFixedBlock reads "{ ... } FIXED_END" after FIXED_BEGIN. Offsets in
// the result are relative to base, the first byte of the pass body.
func (p *passParser) parseFixedBlock(begin lexer.Token, base int) (pass.FixedBlock, error) {
	open, err := p.next()
	if err != nil {
		return pass.FixedBlock{}, err
	}
	if open.Kind != lexer.LBrace {
		return pass.FixedBlock{}, p.fail(begin, "expected '{' after %s", KeywordFixedBegin)
	}

	depth := 1
	var closing lexer.Token
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return pass.FixedBlock{}, err
		}
		switch {
		case tok.Kind == lexer.LBrace:
			depth++
		case tok.Kind == lexer.RBrace:
			depth--
			closing = tok
		case tok.Is(KeywordFixedBegin):
			return pass.FixedBlock{}, p.fail(tok, "%s inside a fixed block", KeywordFixedBegin)
		case tok.Kind == lexer.EOF, tok.Is(KeywordFixedEnd), tok.Is(KeywordEnd), tok.Is(KeywordBegin):
			return pass.FixedBlock{}, p.fail(open, "unmatched '{' in %s block", KeywordFixedBegin)
		}
	}

	end, err := p.next()
	if err != nil {
		return pass.FixedBlock{}, err
	}
	if !end.Is(KeywordFixedEnd) {
		return pass.FixedBlock{}, p.fail(begin, "%s block is not closed by %s", KeywordFixedBegin, KeywordFixedEnd)
	}
	return pass.FixedBlock{
		Start:     begin.Offset - base,
		End:       end.End - base,
		StmtStart: open.Offset - base,
		Stmt:      p.src[open.Offset:closing.End],
		Line:      open.Line,
	}, nil
}
