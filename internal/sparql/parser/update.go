package parser

import (
	"github.com/recalcitrant/querylib/internal/ast"
)

// parseUpdate parses a SPARQL 1.1 Update request: one or more ";"-separated
// operations (spec.md §4.2). INSERT/DELETE … WHERE operations are descended
// into so paramdetect can find VALUES/placeholders inside their WHERE
// clause; every other operation (the DATA forms, LOAD, CREATE, DROP, CLEAR)
// is preserved as raw text, since they carry no WHERE clause to rewrite.
func (p *Parser) parseUpdate() (*ast.UpdateOperations, error) {
	var ops ast.UpdateOperations

	for {
		if p.eof() {
			break
		}
		op, err := p.parseUpdateOperation()
		if err != nil {
			return nil, err
		}
		ops.Operations = append(ops.Operations, op)

		if !p.tryPunct(";") {
			break
		}
	}

	if len(ops.Operations) == 0 {
		return nil, p.errHere("InvalidSyntax", "expected an update operation")
	}
	return &ops, nil
}

func (p *Parser) parseUpdateOperation() (ast.UpdateOperation, error) {
	if p.eof() {
		return ast.UpdateOperation{}, p.errHere("UnexpectedEOF", "expected an update operation")
	}
	startOffset := p.tokens[p.pos].Offset

	// "WITH <graph>" names a default graph for the operation that follows;
	// consumed but not modeled (spec.md §1 non-goal: no dataset evaluation).
	if p.tryKeyword("WITH") {
		if _, err := p.parseTermValue(); err != nil {
			return ast.UpdateOperation{}, err
		}
	}

	switch {
	case p.isKeyword("LOAD"):
		return p.parseRawUpdateOp(ast.UpdateLoad, startOffset)
	case p.isKeyword("CREATE"):
		return p.parseRawUpdateOp(ast.UpdateCreate, startOffset)
	case p.isKeyword("DROP"):
		return p.parseRawUpdateOp(ast.UpdateDrop, startOffset)
	case p.isKeyword("CLEAR"):
		return p.parseRawUpdateOp(ast.UpdateClear, startOffset)
	case p.isKeyword("INSERT"):
		return p.parseInsertOrDelete(true, startOffset)
	case p.isKeyword("DELETE"):
		return p.parseInsertOrDelete(false, startOffset)
	default:
		return ast.UpdateOperation{}, p.errHere("UnsupportedQueryType", "expected an update operation")
	}
}

// parseRawUpdateOp captures an operation that has no WHERE clause to
// descend into (LOAD/CREATE/DROP/CLEAR), stopping at the next top-level
// ";" or end of input.
func (p *Parser) parseRawUpdateOp(kind ast.UpdateKind, startOffset int) (ast.UpdateOperation, error) {
	lastIdx := p.pos
	p.advance() // the operation keyword itself

	depth := 0
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		if depth == 0 && tok.Value == ";" {
			break
		}
		switch tok.Value {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			depth--
		}
		lastIdx = p.pos
		p.advance()
	}

	return ast.UpdateOperation{Kind: kind, Raw: p.rawSpan(startOffset, lastIdx)}, nil
}

// parseInsertOrDelete parses "INSERT DATA { … }", "DELETE DATA { … }",
// "DELETE WHERE { … }" (shorthand, template == pattern), and the general
// "INSERT|DELETE { template } [USING …]* WHERE { pattern }" forms.
func (p *Parser) parseInsertOrDelete(isInsert bool, startOffset int) (ast.UpdateOperation, error) {
	p.advance() // INSERT or DELETE

	if p.tryKeyword("DATA") {
		template, err := p.parseBracedRawBlock()
		if err != nil {
			return ast.UpdateOperation{}, err
		}
		kind := ast.UpdateInsertData
		if !isInsert {
			kind = ast.UpdateDeleteData
		}
		return ast.UpdateOperation{
			Kind:     kind,
			Template: template,
			Raw:      p.rawSpan(startOffset, p.pos-1),
		}, nil
	}

	if !isInsert && p.isKeyword("WHERE") {
		p.advance()
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return ast.UpdateOperation{}, err
		}
		return ast.UpdateOperation{
			Kind:  ast.UpdateDeleteWhere,
			Where: pattern,
			Raw:   p.rawSpan(startOffset, p.pos-1),
		}, nil
	}

	template, err := p.parseBracedRawBlock()
	if err != nil {
		return ast.UpdateOperation{}, err
	}

	// Modify form may name a second template (DELETE { … } INSERT { … }
	// WHERE { … }); folded into the same operation's template text since
	// the core treats templates as opaque (spec.md §1 non-goal).
	if p.isKeyword("INSERT") || p.isKeyword("DELETE") {
		p.advance()
		second, err := p.parseBracedRawBlock()
		if err != nil {
			return ast.UpdateOperation{}, err
		}
		template = template + "\n" + second
	}

	for p.tryKeyword("USING") {
		p.tryKeyword("NAMED")
		if _, err := p.parseTermValue(); err != nil {
			return ast.UpdateOperation{}, err
		}
	}

	if _, err := p.expectKeyword("WHERE"); err != nil {
		return ast.UpdateOperation{}, err
	}
	pattern, err := p.parseGroupGraphPattern()
	if err != nil {
		return ast.UpdateOperation{}, err
	}

	kind := ast.UpdateInsertWhere
	if !isInsert {
		kind = ast.UpdateDeleteWhere
	}
	return ast.UpdateOperation{
		Kind:     kind,
		Template: template,
		Where:    pattern,
		Raw:      p.rawSpan(startOffset, p.pos-1),
	}, nil
}

// parseBracedRawBlock parses a "{ … }" and returns its interior text
// verbatim, tracking brace depth so nested blank-node property lists don't
// terminate the capture early.
func (p *Parser) parseBracedRawBlock() (string, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return "", err
	}
	blockStart := p.pos
	if blockStart >= len(p.tokens) {
		return "", p.errHere("UnexpectedEOF", "unterminated block")
	}
	blockStartOffset := p.tokens[blockStart].Offset

	depth := 1
	lastIdx := blockStart - 1
	for depth > 0 {
		tok, ok := p.peek()
		if !ok {
			return "", p.errHere("UnexpectedEOF", "unterminated block")
		}
		switch tok.Value {
		case "{":
			depth++
		case "}":
			depth--
		}
		if depth == 0 {
			break
		}
		lastIdx = p.pos
		p.advance()
	}

	var template string
	if lastIdx >= blockStart {
		template = p.rawSpan(blockStartOffset, lastIdx)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return "", err
	}
	return template, nil
}
