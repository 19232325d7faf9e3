package parser

import (
	"strings"

	"github.com/recalcitrant/querylib/internal/ast"
	splexer "github.com/recalcitrant/querylib/internal/sparql/lexer"
	"github.com/recalcitrant/querylib/internal/term"
)

// parseGroupGraphPattern parses "{ element* }", descending into every
// container spec.md §4.2 names.
func (p *Parser) parseGroupGraphPattern() (*ast.GroupGraphPattern, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	group := &ast.GroupGraphPattern{}

	for {
		p.tryPunct(".")
		if p.isPunct("}") {
			p.advance()
			return group, nil
		}
		if p.eof() {
			return nil, p.errHere("UnexpectedEOF", "unterminated group graph pattern")
		}

		el, err := p.parseGroupElement()
		if err != nil {
			return nil, err
		}
		group.Elements = append(group.Elements, el)
	}
}

func (p *Parser) parseGroupElement() (ast.GraphPatternElement, error) {
	switch {
	case p.isKeyword("OPTIONAL"):
		p.advance()
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &ast.Optional{Pattern: inner}, nil

	case p.isKeyword("MINUS"):
		p.advance()
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &ast.Minus{Pattern: inner}, nil

	case p.isKeyword("GRAPH"):
		p.advance()
		name, err := p.parseTermValue()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &ast.Graph{Name: name, Pattern: inner}, nil

	case p.isKeyword("SERVICE"):
		p.advance()
		silent := p.tryKeyword("SILENT")
		name, err := p.parseTermValue()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &ast.Service{Silent: silent, Name: name, Pattern: inner}, nil

	case p.isKeyword("FILTER"):
		return p.parseFilter()

	case p.isKeyword("BIND"):
		return p.parseBind()

	case p.isKeyword("VALUES"):
		return p.parseValues()

	case p.isPunct("{"):
		return p.parseBracedElement()

	default:
		return p.parseTriplesBlock()
	}
}

// parseBracedElement parses a "{ … }" that may be a nested group, a
// subquery ("{ SELECT … }"), or the first branch of a UNION.
func (p *Parser) parseBracedElement() (ast.GraphPatternElement, error) {
	if tok, ok := p.peekN(1); ok && tok.Type == splexer.Keyword && strings.EqualFold(tok.Value, "SELECT") {
		p.advance() // consume "{"
		sel, err := p.parseSelectQuery()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		first := ast.GraphPatternElement(&ast.SubSelect{Query: sel})
		return p.maybeUnion(first, func() (ast.GraphPatternElement, error) { return p.parseBracedBranch() })
	}

	first, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	return p.maybeUnion(first, func() (ast.GraphPatternElement, error) { return p.parseBracedBranch() })
}

// parseBracedBranch parses one UNION branch: either a nested group or a
// subquery, matching parseBracedElement's leading "{" dispatch without
// itself checking for a further UNION (that is handled by the caller's
// loop in maybeUnion).
func (p *Parser) parseBracedBranch() (ast.GraphPatternElement, error) {
	if tok, ok := p.peekN(1); ok && tok.Type == splexer.Keyword && strings.EqualFold(tok.Value, "SELECT") {
		p.advance()
		sel, err := p.parseSelectQuery()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		return &ast.SubSelect{Query: sel}, nil
	}
	return p.parseGroupGraphPattern()
}

// maybeUnion checks whether first is followed by one or more "UNION {
// … }" branches and, if so, folds them into a single ast.Union; otherwise
// it returns first unchanged.
func (p *Parser) maybeUnion(first ast.GraphPatternElement, parseBranch func() (ast.GraphPatternElement, error)) (ast.GraphPatternElement, error) {
	if !p.isKeyword("UNION") {
		return first, nil
	}

	branches := []*ast.GroupGraphPattern{asGroupPattern(first)}
	for p.tryKeyword("UNION") {
		branch, err := parseBranch()
		if err != nil {
			return nil, err
		}
		branches = append(branches, asGroupPattern(branch))
	}
	return &ast.Union{Branches: branches}, nil
}

// asGroupPattern wraps a non-group element (a SubSelect) into a
// single-element GroupGraphPattern so every UNION branch has a uniform
// shape, while passing an existing GroupGraphPattern through unchanged.
func asGroupPattern(el ast.GraphPatternElement) *ast.GroupGraphPattern {
	if g, ok := el.(*ast.GroupGraphPattern); ok {
		return g
	}
	return &ast.GroupGraphPattern{Elements: []ast.GraphPatternElement{el}}
}

func (p *Parser) parseFilter() (ast.GraphPatternElement, error) {
	p.advance() // FILTER

	if p.isKeyword("EXISTS") {
		p.advance()
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &ast.Filter{Kind: ast.FilterExists, Pattern: inner}, nil
	}
	if p.isKeyword("NOT") {
		p.advance()
		if _, err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		inner, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &ast.Filter{Kind: ast.FilterNotExists, Pattern: inner}, nil
	}

	expr, err := p.parseBalancedExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Filter{Kind: ast.FilterExpr, Expr: expr}, nil
}

func (p *Parser) parseBind() (ast.GraphPatternElement, error) {
	p.advance() // BIND
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	start := p.pos
	startOffset := p.tokens[start].Offset

	if err := p.skipToKeyword("AS"); err != nil {
		return nil, err
	}
	exprEnd := p.pos - 1
	expr := p.rawSpan(startOffset, exprEnd)

	if _, err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	varTok, err := p.expectTokenType(splexer.Var)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.Bind{Expr: expr, Var: term.Variable(varTok.Value[1:])}, nil
}

// parseBalancedExpr captures a raw expression possibly wrapped in
// parentheses, tracking bracket depth so embedded "(", "{" in function
// calls don't terminate the span early. Expressions are never decomposed
// by the core (spec.md §1 non-goal) — only their extent matters.
func (p *Parser) parseBalancedExpr() (string, error) {
	if !p.isPunct("(") {
		return "", p.errHere("UnexpectedToken", "expected '(' starting a FILTER expression")
	}
	start := p.tokens[p.pos].Offset
	depth := 0
	for {
		tok, ok := p.peek()
		if !ok {
			return "", p.errHere("UnexpectedEOF", "unterminated expression")
		}
		switch tok.Value {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		}
		endIdx := p.pos
		p.advance()
		if depth == 0 {
			return p.rawSpan(start, endIdx), nil
		}
	}
}

// skipToKeyword advances the cursor until it sits on the given keyword at
// the outermost paren depth, so BIND's "AS" terminator isn't confused with
// a nested "AS" inside a deeper expression.
func (p *Parser) skipToKeyword(kw string) error {
	depth := 0
	for {
		tok, ok := p.peek()
		if !ok {
			return p.errHere("UnexpectedEOF", "expected keyword %q", kw)
		}
		if depth == 0 && tok.Type == splexer.Keyword && strings.EqualFold(tok.Value, kw) {
			return nil
		}
		switch tok.Value {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		}
		p.advance()
	}
}

func (p *Parser) parseTriplesBlock() (ast.GraphPatternElement, error) {
	if p.eof() {
		return nil, p.errHere("UnexpectedEOF", "expected a triples block")
	}
	start := p.tokens[p.pos].Offset
	lastIdx := p.pos

	for {
		if p.eof() || p.isPunct("}") || p.isBoundaryKeyword() {
			break
		}
		if p.isPunct("{") {
			break
		}
		lastIdx = p.pos
		p.advance()
	}

	raw := p.rawSpan(start, lastIdx)
	if raw == "" {
		return nil, p.errHere("UnexpectedToken", "empty triples block")
	}
	return &ast.TriplesBlock{Raw: raw}, nil
}

func (p *Parser) isBoundaryKeyword() bool {
	tok, ok := p.peek()
	if !ok || tok.Type != splexer.Keyword {
		return false
	}
	switch strings.ToUpper(tok.Value) {
	case "OPTIONAL", "MINUS", "GRAPH", "SERVICE", "FILTER", "BIND", "VALUES", "UNION":
		return true
	default:
		return false
	}
}
