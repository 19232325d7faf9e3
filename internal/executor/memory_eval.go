package executor

import (
	"strings"

	"github.com/recalcitrant/querylib/internal/ast"
	splexer "github.com/recalcitrant/querylib/internal/sparql/lexer"
	"github.com/recalcitrant/querylib/internal/term"
)

// triplePattern is one subject/predicate/object pattern extracted from a
// TriplesBlock's raw text. A nil Term position never occurs; Variable
// terms are the join/output positions.
type triplePattern struct {
	S, P, O term.Term
}

// parseTriples re-tokenizes a TriplesBlock's raw text and decomposes it
// into triplePattern values, handling the ";" predicate-object-list and
// "," object-list abbreviations. This is the one place the in-memory
// executor needs to look inside an otherwise-opaque TriplesBlock (spec.md
// §1 non-goal: the core itself never does this; only this demonstration
// backend does, to have something real to join against).
func parseTriples(raw string) ([]triplePattern, error) {
	tokens, err := splexer.Tokenize(raw)
	if err != nil {
		return nil, err
	}

	var patterns []triplePattern
	i := 0
	for i < len(tokens) {
		if tokens[i].Type == splexer.Punct && tokens[i].Value == "." {
			i++
			continue
		}
		s, next, err := readTerm(tokens, i)
		if err != nil {
			return nil, err
		}
		i = next

		for {
			p, next, err := readTerm(tokens, i)
			if err != nil {
				return nil, err
			}
			i = next

			for {
				o, next, err := readTerm(tokens, i)
				if err != nil {
					return nil, err
				}
				i = next
				patterns = append(patterns, triplePattern{S: s, P: p, O: o})

				if i < len(tokens) && tokens[i].Type == splexer.Punct && tokens[i].Value == "," {
					i++
					continue
				}
				break
			}

			if i < len(tokens) && tokens[i].Type == splexer.Punct && tokens[i].Value == ";" {
				i++
				continue
			}
			break
		}

		if i < len(tokens) && tokens[i].Type == splexer.Punct && tokens[i].Value == "." {
			i++
		}
	}
	return patterns, nil
}

func readTerm(tokens []splexer.Token, i int) (term.Term, int, error) {
	if i >= len(tokens) {
		return nil, i, protocolError("unexpected end of triples block")
	}
	tok := tokens[i]
	switch tok.Type {
	case splexer.IRIRef:
		return term.IRI(tok.Value[1 : len(tok.Value)-1]), i + 1, nil
	case splexer.PrefixedName:
		if tok.Value == "a" {
			return term.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type"), i + 1, nil
		}
		return term.PrefixedName(tok.Value), i + 1, nil
	case splexer.Ident:
		if tok.Value == "a" {
			return term.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type"), i + 1, nil
		}
		return term.PrefixedName(tok.Value), i + 1, nil
	case splexer.Var:
		return term.Variable(tok.Value[1:]), i + 1, nil
	case splexer.BlankNode:
		return term.Blank(tok.Value[2:]), i + 1, nil
	case splexer.Anon:
		return term.Blank(""), i + 1, nil
	case splexer.StringLit:
		lit := term.Literal{Lexical: unquote(tok.Value), Datatype: term.XSDString}
		j := i + 1
		if j < len(tokens) && tokens[j].Type == splexer.LangTag {
			lit.Lang = tokens[j].Value[1:]
			lit.Datatype = ""
			j++
		} else if j < len(tokens) && tokens[j].Type == splexer.DoubleCaret {
			j++
			dt, next, err := readTerm(tokens, j)
			if err != nil {
				return nil, i, err
			}
			if iri, ok := dt.(term.IRI); ok {
				lit.Datatype = iri
			}
			j = next
		}
		return lit, j, nil
	case splexer.Integer:
		return term.Literal{Lexical: tok.Value, Datatype: term.XSDInteger}, i + 1, nil
	case splexer.Decimal:
		return term.Literal{Lexical: tok.Value, Datatype: term.XSDDecimal}, i + 1, nil
	case splexer.Double:
		return term.Literal{Lexical: tok.Value, Datatype: term.XSDDouble}, i + 1, nil
	case splexer.Boolean:
		return term.Literal{Lexical: strings.ToLower(tok.Value), Datatype: term.XSDBoolean}, i + 1, nil
	default:
		return nil, i, protocolError("unrecognized term token in triples block: " + tok.Value)
	}
}

func unquote(raw string) string {
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// binding is this evaluator's internal row representation: variable name
// (without "?") to bound term.
type binding map[string]term.Term

func cloneBinding(b binding) binding {
	out := make(binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// compatible reports whether two bindings agree on every variable they
// share, the join condition SPARQL's algebra requires.
func compatible(a, b binding) bool {
	for k, v := range a {
		if ov, ok := b[k]; ok && !sameTerm(v, ov) {
			return false
		}
	}
	return true
}

func merge(a, b binding) binding {
	out := cloneBinding(a)
	for k, v := range b {
		out[k] = v
	}
	return out
}

func sameTerm(a, b term.Term) bool {
	return a.String() == b.String()
}

// evalContext carries the quad set the evaluator joins TriplesBlock
// patterns against.
type evalContext struct {
	quads []Quad
}

// evalGroup evaluates a WHERE group against initial rows, returning the
// resulting bindings. nil pattern evaluates to rows unchanged (matches
// ast.Walk's nil-tolerance).
func (ec *evalContext) evalGroup(pattern *ast.GroupGraphPattern, rows []binding) ([]binding, error) {
	if pattern == nil {
		return rows, nil
	}
	cur := rows
	for _, el := range pattern.Elements {
		next, err := ec.evalElement(el, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (ec *evalContext) evalElement(el ast.GraphPatternElement, rows []binding) ([]binding, error) {
	switch e := el.(type) {
	case *ast.TriplesBlock:
		patterns, err := parseTriples(e.Raw)
		if err != nil {
			return nil, err
		}
		cur := rows
		for _, p := range patterns {
			cur, err = ec.joinPattern(p, cur)
			if err != nil {
				return nil, err
			}
		}
		return cur, nil

	case *ast.Values:
		return ec.joinValues(e, rows)

	case *ast.Optional:
		inner, err := ec.evalGroup(e.Pattern, rows)
		if err != nil {
			return nil, err
		}
		return leftJoin(rows, inner), nil

	case *ast.Union:
		var out []binding
		for _, branch := range e.Branches {
			sub, err := ec.evalGroup(branch, rows)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil

	case *ast.Minus:
		inner, err := ec.evalGroup(e.Pattern, rows)
		if err != nil {
			return nil, err
		}
		var out []binding
		for _, r := range rows {
			excluded := false
			for _, ir := range inner {
				if sharesVars(r, ir) && compatible(r, ir) {
					excluded = true
					break
				}
			}
			if !excluded {
				out = append(out, r)
			}
		}
		return out, nil

	case *ast.Graph:
		return ec.evalGroup(e.Pattern, rows)

	case *ast.Service:
		if e.Silent {
			return rows, nil
		}
		return ec.evalGroup(e.Pattern, rows)

	case *ast.Filter:
		if e.Kind == ast.FilterExists {
			var out []binding
			for _, r := range rows {
				inner, err := ec.evalGroup(e.Pattern, []binding{r})
				if err != nil {
					return nil, err
				}
				if len(inner) > 0 {
					out = append(out, r)
				}
			}
			return out, nil
		}
		if e.Kind == ast.FilterNotExists {
			var out []binding
			for _, r := range rows {
				inner, err := ec.evalGroup(e.Pattern, []binding{r})
				if err != nil {
					return nil, err
				}
				if len(inner) == 0 {
					out = append(out, r)
				}
			}
			return out, nil
		}
		// Plain boolean-expression filters are not evaluated (spec.md §1
		// non-goal: full expression semantics are delegated to backends).
		return rows, nil

	case *ast.Bind:
		return rows, nil

	case *ast.GroupGraphPattern:
		return ec.evalGroup(e, rows)

	default:
		return rows, nil
	}
}

func sharesVars(a, b binding) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func leftJoin(outer, inner []binding) []binding {
	var out []binding
	for _, o := range outer {
		matched := false
		for _, in := range inner {
			if compatible(o, in) {
				out = append(out, merge(o, in))
				matched = true
			}
		}
		if !matched {
			out = append(out, o)
		}
	}
	return out
}

// joinPattern joins the current rows against every quad matching p,
// extending each compatible row with p's variable bindings.
func (ec *evalContext) joinPattern(p triplePattern, rows []binding) ([]binding, error) {
	var out []binding
	for _, row := range rows {
		for _, q := range ec.quads {
			b, ok := matchTriple(p, q, row)
			if ok {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func matchTriple(p triplePattern, q Quad, row binding) (binding, bool) {
	b := cloneBinding(row)
	if !unify(p.S, q.S, b) {
		return nil, false
	}
	if !unify(p.P, q.P, b) {
		return nil, false
	}
	if !unify(p.O, q.O, b) {
		return nil, false
	}
	return b, true
}

func unify(patternTerm, quadTerm term.Term, b binding) bool {
	if v, ok := patternTerm.(term.Variable); ok {
		name := string(v)
		if bound, ok := b[name]; ok {
			return sameTerm(bound, quadTerm)
		}
		b[name] = quadTerm
		return true
	}
	return sameTerm(patternTerm, quadTerm)
}

// joinValues binds each VALUES row in turn and cross-joins against rows,
// keeping only compatible combinations.
func (ec *evalContext) joinValues(v *ast.Values, rows []binding) ([]binding, error) {
	var out []binding
	for _, vr := range v.Rows {
		vb := binding{}
		for i, varName := range v.Vars {
			if i >= len(vr) {
				continue
			}
			if _, isUndef := vr[i].(term.Undef); isUndef {
				continue
			}
			vb[string(varName)] = vr[i]
		}
		for _, row := range rows {
			if compatible(row, vb) {
				out = append(out, merge(row, vb))
			}
		}
	}
	return out, nil
}
