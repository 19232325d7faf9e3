package parser

import (
	"github.com/recalcitrant/querylib/internal/ast"
	splexer "github.com/recalcitrant/querylib/internal/sparql/lexer"
	"github.com/recalcitrant/querylib/internal/term"
)

func (p *Parser) parseSelectQuery() (*ast.SelectQuery, error) {
	if _, err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	sel := &ast.SelectQuery{}
	if p.tryKeyword("DISTINCT") {
		sel.Distinct = true
	} else if p.tryKeyword("REDUCED") {
		sel.Reduced = true
	}

	if p.isPunct("*") {
		p.advance()
		sel.Star = true
	} else {
		for {
			if p.isPunct("(") {
				p.advance()
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
				sel.Projection = append(sel.Projection, ast.ProjectionVar{
					Alias: term.Variable(varTok.Value[1:]),
					Expr:  expr,
				})
				continue
			}
			varTok, ok := p.peek()
			if !ok || varTok.Type != splexer.Var {
				break
			}
			p.advance()
			sel.Projection = append(sel.Projection, ast.ProjectionVar{Var: term.Variable(varTok.Value[1:])})
		}
		if len(sel.Projection) == 0 && !sel.Star {
			return nil, p.errHere("InvalidSyntax", "SELECT requires a projection or '*'")
		}
	}

	p.parseDatasetClauses()

	where, err := p.parseWhereClause(true)
	if err != nil {
		return nil, err
	}
	sel.Where = where

	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	sel.Modifiers = mods

	return sel, nil
}

func (p *Parser) parseWhereClause(required bool) (*ast.GroupGraphPattern, error) {
	hadWhere := p.tryKeyword("WHERE")
	if !hadWhere && required && !p.isPunct("{") {
		// WHERE is optional in the grammar for ASK/DESCRIBE but SELECT
		// always requires a "{" immediately.
		return nil, p.errHere("UnexpectedToken", "expected '{' to open the WHERE clause")
	}
	if !p.isPunct("{") {
		if hadWhere {
			return nil, p.errHere("UnexpectedToken", "expected '{' after WHERE")
		}
		return nil, nil
	}
	return p.parseGroupGraphPattern()
}

func (p *Parser) parseConstructQuery() (*ast.ConstructQuery, error) {
	p.advance() // CONSTRUCT

	c := &ast.ConstructQuery{}

	if p.isPunct("{") {
		p.advance()
		start := p.pos
		startOffset := 0
		if start < len(p.tokens) {
			startOffset = p.tokens[start].Offset
		}
		for !p.isPunct("}") {
			if p.eof() {
				return nil, p.errHere("UnexpectedEOF", "unterminated CONSTRUCT template")
			}
			p.advance()
		}
		endIdx := p.pos - 1
		if endIdx >= start {
			c.Template = p.rawSpan(startOffset, endIdx)
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}

		p.parseDatasetClauses()

		where, err := p.parseWhereClause(true)
		if err != nil {
			return nil, err
		}
		c.Where = where
	} else {
		// CONSTRUCT WHERE { triples } shorthand: template == where.
		p.parseDatasetClauses()
		if _, err := p.expectKeyword("WHERE"); err != nil {
			return nil, err
		}
		where, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		c.Where = where
		for _, el := range where.Elements {
			if tb, ok := el.(*ast.TriplesBlock); ok {
				if c.Template != "" {
					c.Template += " "
				}
				c.Template += tb.Raw
			}
		}
	}

	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	c.Modifiers = mods
	return c, nil
}

func (p *Parser) parseAskQuery() (*ast.AskQuery, error) {
	p.advance() // ASK
	p.parseDatasetClauses()

	where, err := p.parseWhereClause(false)
	if err != nil {
		return nil, err
	}
	if where == nil {
		return nil, p.errHere("UnexpectedToken", "ASK requires a group graph pattern")
	}

	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	return &ast.AskQuery{Where: where, Modifiers: mods}, nil
}

func (p *Parser) parseDescribeQuery() (*ast.DescribeQuery, error) {
	p.advance() // DESCRIBE

	d := &ast.DescribeQuery{}

	if tok, ok := p.peek(); ok && tok.Value == "*" {
		p.advance()
	} else {
		for {
			tok, ok := p.peek()
			if !ok {
				break
			}
			switch tok.Type {
			case splexer.Var:
				p.advance()
				d.Targets = append(d.Targets, term.Variable(tok.Value[1:]))
			case splexer.IRIRef:
				p.advance()
				d.Targets = append(d.Targets, term.IRI(tok.Value[1:len(tok.Value)-1]))
			case splexer.PrefixedName:
				p.advance()
				d.Targets = append(d.Targets, term.PrefixedName(tok.Value))
			default:
				goto doneTargets
			}
		}
	}
doneTargets:

	p.parseDatasetClauses()

	where, err := p.parseWhereClause(false)
	if err != nil {
		return nil, err
	}
	d.Where = where

	mods, err := p.parseSolutionModifiers()
	if err != nil {
		return nil, err
	}
	d.Modifiers = mods
	return d, nil
}
