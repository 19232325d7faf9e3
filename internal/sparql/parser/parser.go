// Package parser implements C2 of the core: text → ast.Query. It is a
// hand-rolled recursive-descent parser over internal/sparql/lexer's token
// stream. The teacher's own grammar (internal/dsl/grammar.go) is flat
// enough for participle's declarative struct-tag mode; this grammar is
// recursive (nested group graph patterns) and needs raw-text capture for
// opaque leaves, so it is grounded instead on the pack's own
// recursive-descent SPARQL parsers — datacommonsorg/mixer's
// internal/translator/sparql/parser.go (Parser{tokens, pos} + peek/next/
// expect) and aleksaelezovic/trigo's internal/sparql QueryType/Select/
// Ask/Construct dispatch naming.
package parser

import (
	"strings"

	"github.com/recalcitrant/querylib/internal/ast"
	splexer "github.com/recalcitrant/querylib/internal/sparql/lexer"
	"github.com/recalcitrant/querylib/internal/term"
)

// Parser walks a token stream produced by internal/sparql/lexer and
// builds an ast.Query.
type Parser struct {
	src    string
	tokens []splexer.Token
	pos    int
}

// Parse parses SPARQL 1.1 query or update text into an AST, or returns a
// ParseError describing the first point at which the grammar was
// violated.
func Parse(text string) (*ast.Query, error) {
	tokens, err := splexer.Tokenize(text)
	if err != nil {
		return nil, ParseError{Kind: "LexError", Message: err.Error()}
	}

	p := &Parser{src: text, tokens: tokens}
	return p.parseQuery()
}

func (p *Parser) eof() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) peek() (splexer.Token, bool) {
	if p.eof() {
		return splexer.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *Parser) peekN(n int) (splexer.Token, bool) {
	if p.pos+n >= len(p.tokens) {
		return splexer.Token{}, false
	}
	return p.tokens[p.pos+n], true
}

func (p *Parser) advance() splexer.Token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

func (p *Parser) atEnd(offset int) (int, int, int) {
	if p.pos == 0 {
		return 0, 1, 1
	}
	last := p.tokens[min(p.pos, len(p.tokens)-1)]
	return offset, last.Line, last.Column
}

func (p *Parser) errHere(kind, format string, args ...any) ParseError {
	if tok, ok := p.peek(); ok {
		return errAt(kind, tok.Offset, tok.Line, tok.Column, format, args...)
	}
	offset, line, col := p.atEnd(len(p.src))
	return errAt(kind, offset, line, col, format, args...)
}

func (p *Parser) isKeyword(kw string) bool {
	tok, ok := p.peek()
	return ok && tok.Type == splexer.Keyword && strings.EqualFold(tok.Value, kw)
}

func (p *Parser) isPunct(v string) bool {
	tok, ok := p.peek()
	return ok && tok.Type == splexer.Punct && tok.Value == v
}

func (p *Parser) expectKeyword(kw string) (splexer.Token, error) {
	if !p.isKeyword(kw) {
		return splexer.Token{}, p.errHere("UnexpectedToken", "expected keyword %q", kw)
	}
	return p.advance(), nil
}

func (p *Parser) expectPunct(v string) (splexer.Token, error) {
	if !p.isPunct(v) {
		return splexer.Token{}, p.errHere("UnexpectedToken", "expected %q", v)
	}
	return p.advance(), nil
}

// tryKeyword consumes and returns true if the next token is the given
// keyword, otherwise leaves the cursor untouched.
func (p *Parser) tryKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) tryPunct(v string) bool {
	if p.isPunct(v) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) parseQuery() (*ast.Query, error) {
	q := &ast.Query{}

	prologueStart := 0
	for p.isKeyword("PREFIX") || p.isKeyword("BASE") {
		if p.isKeyword("PREFIX") {
			p.advance()
			if _, err := p.expectTokenType(splexer.PrefixedName); err != nil {
				return nil, err
			}
			if _, err := p.expectTokenType(splexer.IRIRef); err != nil {
				return nil, err
			}
		} else {
			p.advance()
			if _, err := p.expectTokenType(splexer.IRIRef); err != nil {
				return nil, err
			}
		}
	}
	if p.pos > prologueStart {
		last := p.tokens[p.pos-1]
		q.Prologue = strings.TrimSpace(p.src[:last.Offset+len(last.Value)])
	}

	switch {
	case p.isKeyword("SELECT"):
		sel, err := p.parseSelectQuery()
		if err != nil {
			return nil, err
		}
		q.Form = ast.FormSelect
		q.Select = sel
	case p.isKeyword("CONSTRUCT"):
		c, err := p.parseConstructQuery()
		if err != nil {
			return nil, err
		}
		q.Form = ast.FormConstruct
		q.Construct = c
	case p.isKeyword("ASK"):
		a, err := p.parseAskQuery()
		if err != nil {
			return nil, err
		}
		q.Form = ast.FormAsk
		q.Ask = a
	case p.isKeyword("DESCRIBE"):
		d, err := p.parseDescribeQuery()
		if err != nil {
			return nil, err
		}
		q.Form = ast.FormDescribe
		q.Describe = d
	case p.isKeyword("INSERT") || p.isKeyword("DELETE") || p.isKeyword("LOAD") ||
		p.isKeyword("CREATE") || p.isKeyword("DROP") || p.isKeyword("CLEAR"):
		u, err := p.parseUpdate()
		if err != nil {
			return nil, err
		}
		q.Form = ast.FormUpdate
		q.Update = u
	default:
		return nil, p.errHere("UnsupportedQueryType", "expected SELECT, CONSTRUCT, ASK, DESCRIBE, or an update operation")
	}

	return q, nil
}

func (p *Parser) expectTokenType(tt string) (splexer.Token, error) {
	tok, ok := p.peek()
	if !ok || tok.Type != tt {
		return splexer.Token{}, p.errHere("UnexpectedToken", "expected token of type %s", tt)
	}
	return p.advance(), nil
}

func (p *Parser) parseDatasetClauses() {
	for p.isKeyword("FROM") {
		p.advance()
		p.tryKeyword("NAMED")
		// dataset clause names a graph IRI; consumed but not modeled —
		// the core does not evaluate datasets (spec.md §1 non-goal).
		if tok, ok := p.peek(); ok && (tok.Type == splexer.IRIRef || tok.Type == splexer.PrefixedName) {
			p.advance()
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// rawSpan returns the original source text spanning [startTok, endTok]
// inclusive, used to capture opaque leaves verbatim (spec.md's
// "Structural shape of the WHERE tree" round-trip property does not
// require the core to understand expression grammars).
func (p *Parser) rawSpan(startOffset, endTokIdx int) string {
	if endTokIdx < 0 || endTokIdx >= len(p.tokens) {
		return strings.TrimSpace(p.src[startOffset:])
	}
	end := p.tokens[endTokIdx]
	return strings.TrimSpace(p.src[startOffset : end.Offset+len(end.Value)])
}

func (p *Parser) parseTermValue() (term.Term, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errHere("UnexpectedEOF", "expected a term")
	}

	switch tok.Type {
	case splexer.IRIRef:
		p.advance()
		return term.IRI(tok.Value[1 : len(tok.Value)-1]), nil
	case splexer.PrefixedName:
		p.advance()
		return term.PrefixedName(tok.Value), nil
	case splexer.Var:
		p.advance()
		return term.Variable(tok.Value[1:]), nil
	case splexer.BlankNode:
		p.advance()
		return term.Blank(tok.Value[2:]), nil
	case splexer.Anon:
		p.advance()
		return term.Blank(""), nil
	case splexer.StringLit:
		return p.parseLiteral()
	case splexer.Integer:
		p.advance()
		return term.Literal{Lexical: tok.Value, Datatype: term.XSDInteger}, nil
	case splexer.Decimal:
		p.advance()
		return term.Literal{Lexical: tok.Value, Datatype: term.XSDDecimal}, nil
	case splexer.Double:
		p.advance()
		return term.Literal{Lexical: tok.Value, Datatype: term.XSDDouble}, nil
	case splexer.Boolean:
		p.advance()
		return term.Literal{Lexical: strings.ToLower(tok.Value), Datatype: term.XSDBoolean}, nil
	case splexer.Keyword:
		if strings.EqualFold(tok.Value, "UNDEF") {
			p.advance()
			return term.Undef{}, nil
		}
	}
	return nil, p.errHere("UnexpectedToken", "expected a term, got %q", tok.Value)
}

func (p *Parser) parseLiteral() (term.Term, error) {
	strTok, err := p.expectTokenType(splexer.StringLit)
	if err != nil {
		return nil, err
	}
	lex := unquoteString(strTok.Value)

	if tok, ok := p.peek(); ok && tok.Type == splexer.LangTag {
		p.advance()
		return term.Literal{Lexical: lex, Lang: tok.Value[1:]}, nil
	}
	if tok, ok := p.peek(); ok && tok.Type == splexer.DoubleCaret {
		p.advance()
		dtTerm, err := p.parseTermValue()
		if err != nil {
			return nil, err
		}
		dt := term.XSDString
		switch d := dtTerm.(type) {
		case term.IRI:
			dt = d
		case term.PrefixedName:
			dt = term.IRI(d)
		}
		return term.Literal{Lexical: lex, Datatype: dt}, nil
	}
	return term.Literal{Lexical: lex, Datatype: term.XSDString}, nil
}

func unquoteString(raw string) string {
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return unescapeString(raw[len(q) : len(raw)-len(q)])
		}
	}
	if len(raw) >= 2 {
		return unescapeString(raw[1 : len(raw)-1])
	}
	return raw
}

func unescapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '"', '\'', '\\':
				b.WriteByte(s[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
