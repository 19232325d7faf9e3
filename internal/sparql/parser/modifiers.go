package parser

import (
	"strings"

	"github.com/recalcitrant/querylib/internal/ast"
	splexer "github.com/recalcitrant/querylib/internal/sparql/lexer"
)

// parseSolutionModifiers parses the trailing ORDER BY / GROUP BY / HAVING /
// LIMIT / OFFSET clauses that follow a query's WHERE clause. ORDER BY,
// GROUP BY and HAVING are captured as raw text (the core does not evaluate
// expressions, spec.md §1 non-goal); LIMIT and OFFSET are parsed into a
// structured NumericModifier so paramdetect can recognize a zero-padded
// literal as a placeholder without re-parsing the query text.
func (p *Parser) parseSolutionModifiers() (ast.SolutionModifiers, error) {
	var mods ast.SolutionModifiers

	if p.isKeyword("GROUP") {
		expr, err := p.parseClauseUntilNextModifier("GROUP", "BY")
		if err != nil {
			return mods, err
		}
		mods.GroupBy = expr
	}

	if p.isKeyword("HAVING") {
		p.advance()
		expr, err := p.parseBalancedExpr()
		if err != nil {
			return mods, err
		}
		mods.Having = expr
	}

	if p.isKeyword("ORDER") {
		expr, err := p.parseClauseUntilNextModifier("ORDER", "BY")
		if err != nil {
			return mods, err
		}
		mods.OrderBy = expr
	}

	for {
		if p.isKeyword("LIMIT") {
			p.advance()
			tok, err := p.expectTokenType(splexer.Integer)
			if err != nil {
				return mods, err
			}
			mods.Limit = &ast.NumericModifier{Literal: tok.Value}
			continue
		}
		if p.isKeyword("OFFSET") {
			p.advance()
			tok, err := p.expectTokenType(splexer.Integer)
			if err != nil {
				return mods, err
			}
			mods.Offset = &ast.NumericModifier{Literal: tok.Value}
			continue
		}
		break
	}

	return mods, nil
}

// parseClauseUntilNextModifier consumes kw (and a following "BY" if given)
// then raw-captures tokens up to the next solution-modifier keyword or the
// end of the query, returning the captured clause body.
func (p *Parser) parseClauseUntilNextModifier(kw, by string) (string, error) {
	if _, err := p.expectKeyword(kw); err != nil {
		return "", err
	}
	if by != "" {
		if _, err := p.expectKeyword(by); err != nil {
			return "", err
		}
	}

	start := p.pos
	if start >= len(p.tokens) {
		return "", p.errHere("UnexpectedEOF", "expected a clause after %s", kw)
	}
	startOffset := p.tokens[start].Offset

	lastIdx := start - 1
	depth := 0
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		if depth == 0 && tok.Type == splexer.Keyword && isModifierBoundary(tok.Value) {
			break
		}
		switch tok.Value {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		}
		lastIdx = p.pos
		p.advance()
	}

	if lastIdx < start {
		return "", p.errHere("UnexpectedToken", "expected a clause after %s", kw)
	}
	return p.rawSpan(startOffset, lastIdx), nil
}

func isModifierBoundary(v string) bool {
	switch strings.ToUpper(v) {
	case "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET":
		return true
	default:
		return false
	}
}
