package parser

import (
	"github.com/recalcitrant/querylib/internal/ast"
	splexer "github.com/recalcitrant/querylib/internal/sparql/lexer"
	"github.com/recalcitrant/querylib/internal/term"
)

// parseValues parses "VALUES ?v { term* }" (the single-variable shorthand,
// each row one term) or "VALUES (?v1 … ?vn) { (term*)* }" (the general
// form, normalized to the same ast.Values shape with len(Vars) == 1 in the
// shorthand case).
func (p *Parser) parseValues() (ast.GraphPatternElement, error) {
	p.advance() // VALUES

	var vars []term.Variable
	if p.isPunct("(") {
		p.advance()
		for !p.isPunct(")") {
			tok, err := p.expectTokenType(splexer.Var)
			if err != nil {
				return nil, err
			}
			vars = append(vars, term.Variable(tok.Value[1:]))
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	} else {
		tok, err := p.expectTokenType(splexer.Var)
		if err != nil {
			return nil, err
		}
		vars = append(vars, term.Variable(tok.Value[1:]))
	}

	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	arity := len(vars)
	var rows []ast.ValuesRow

	for !p.isPunct("}") {
		var row ast.ValuesRow
		if arity == 1 && !p.isPunct("(") {
			t, err := p.parseTermValue()
			if err != nil {
				return nil, err
			}
			row = ast.ValuesRow{t}
		} else {
			if _, err := p.expectPunct("("); err != nil {
				return nil, err
			}
			for !p.isPunct(")") {
				t, err := p.parseTermValue()
				if err != nil {
					return nil, err
				}
				row = append(row, t)
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		}
		if len(row) != arity {
			return nil, p.errHere("InvalidSyntax", "VALUES row has %d terms, expected %d", len(row), arity)
		}
		rows = append(rows, row)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	return &ast.Values{Vars: vars, Rows: rows}, nil
}
