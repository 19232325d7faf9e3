// Package generator implements the inverse half of C2: ast.Query → SPARQL
// text. It is the faithful inverse consumed by internal/argapply's rewrite
// step (spec.md §4.1), and must satisfy the round-trip properties named
// there: structural shape of the WHERE tree, VALUES variable-tuple and
// row order, and exact preservation of LIMIT/OFFSET numeric literals.
package generator

import (
	"fmt"
	"strings"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/term"
)

// Generate renders a parsed query back into SPARQL 1.1 text.
func Generate(q *ast.Query) (string, error) {
	var b strings.Builder

	if q.Prologue != "" {
		b.WriteString(q.Prologue)
		b.WriteString("\n")
	}

	switch q.Form {
	case ast.FormSelect:
		if err := writeSelect(&b, q.Select); err != nil {
			return "", err
		}
	case ast.FormConstruct:
		if err := writeConstruct(&b, q.Construct); err != nil {
			return "", err
		}
	case ast.FormAsk:
		if err := writeAsk(&b, q.Ask); err != nil {
			return "", err
		}
	case ast.FormDescribe:
		if err := writeDescribe(&b, q.Describe); err != nil {
			return "", err
		}
	case ast.FormUpdate:
		if err := writeUpdate(&b, q.Update); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("generator: unknown query form %v", q.Form)
	}

	return strings.TrimSpace(b.String()), nil
}

func writeSelect(b *strings.Builder, sel *ast.SelectQuery) error {
	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	} else if sel.Reduced {
		b.WriteString("REDUCED ")
	}
	if sel.Star {
		b.WriteString("*")
	} else {
		parts := make([]string, len(sel.Projection))
		for i, pv := range sel.Projection {
			if pv.Alias != "" {
				parts[i] = fmt.Sprintf("(%s AS ?%s)", pv.Expr, pv.Alias)
			} else {
				parts[i] = "?" + string(pv.Var)
			}
		}
		b.WriteString(strings.Join(parts, " "))
	}
	b.WriteString(" WHERE ")
	if err := writeGroup(b, sel.Where); err != nil {
		return err
	}
	writeModifiers(b, sel.Modifiers)
	return nil
}

func writeConstruct(b *strings.Builder, c *ast.ConstructQuery) error {
	b.WriteString("CONSTRUCT { ")
	b.WriteString(c.Template)
	b.WriteString(" } WHERE ")
	if err := writeGroup(b, c.Where); err != nil {
		return err
	}
	writeModifiers(b, c.Modifiers)
	return nil
}

func writeAsk(b *strings.Builder, a *ast.AskQuery) error {
	b.WriteString("ASK ")
	if err := writeGroup(b, a.Where); err != nil {
		return err
	}
	writeModifiers(b, a.Modifiers)
	return nil
}

func writeDescribe(b *strings.Builder, d *ast.DescribeQuery) error {
	b.WriteString("DESCRIBE ")
	if len(d.Targets) == 0 {
		b.WriteString("*")
	} else {
		parts := make([]string, len(d.Targets))
		for i, t := range d.Targets {
			parts[i] = termText(t)
		}
		b.WriteString(strings.Join(parts, " "))
	}
	if d.Where != nil {
		b.WriteString(" WHERE ")
		if err := writeGroup(b, d.Where); err != nil {
			return err
		}
	}
	writeModifiers(b, d.Modifiers)
	return nil
}

func writeUpdate(b *strings.Builder, u *ast.UpdateOperations) error {
	parts := make([]string, len(u.Operations))
	for i, op := range u.Operations {
		parts[i] = strings.TrimSpace(op.Raw)
	}
	b.WriteString(strings.Join(parts, " ; "))
	return nil
}

func writeModifiers(b *strings.Builder, m ast.SolutionModifiers) {
	if m.GroupBy != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(m.GroupBy)
	}
	if m.Having != "" {
		b.WriteString(" HAVING ")
		b.WriteString(m.Having)
	}
	if m.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(m.OrderBy)
	}
	if m.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(m.Limit.Literal)
	}
	if m.Offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(m.Offset.Literal)
	}
}

// writeGroup renders "{ element* }", recursing through every container
// variant the parser produces. Elements are separated by a space; a
// TriplesBlock gets a trailing " ." when its raw text lacks one, and every
// other element (BIND and VALUES included) is written without a separator.
func writeGroup(b *strings.Builder, g *ast.GroupGraphPattern) error {
	b.WriteString("{ ")
	if g != nil {
		for _, el := range g.Elements {
			if err := writeElement(b, el); err != nil {
				return err
			}
			b.WriteString(" ")
		}
	}
	b.WriteString("}")
	return nil
}

func writeElement(b *strings.Builder, el ast.GraphPatternElement) error {
	switch e := el.(type) {
	case *ast.TriplesBlock:
		b.WriteString(e.Raw)
		if !strings.HasSuffix(strings.TrimSpace(e.Raw), ".") {
			b.WriteString(" .")
		}
	case *ast.Optional:
		b.WriteString("OPTIONAL ")
		return writeGroup(b, e.Pattern)
	case *ast.Union:
		for i, branch := range e.Branches {
			if i > 0 {
				b.WriteString(" UNION ")
			}
			if err := writeGroup(b, branch); err != nil {
				return err
			}
		}
		return nil
	case *ast.Minus:
		b.WriteString("MINUS ")
		return writeGroup(b, e.Pattern)
	case *ast.Graph:
		b.WriteString("GRAPH ")
		b.WriteString(termText(e.Name))
		b.WriteString(" ")
		return writeGroup(b, e.Pattern)
	case *ast.Service:
		b.WriteString("SERVICE ")
		if e.Silent {
			b.WriteString("SILENT ")
		}
		b.WriteString(termText(e.Name))
		b.WriteString(" ")
		return writeGroup(b, e.Pattern)
	case *ast.Filter:
		b.WriteString("FILTER ")
		switch e.Kind {
		case ast.FilterExists:
			b.WriteString("EXISTS ")
			return writeGroup(b, e.Pattern)
		case ast.FilterNotExists:
			b.WriteString("NOT EXISTS ")
			return writeGroup(b, e.Pattern)
		default:
			b.WriteString(e.Expr)
		}
	case *ast.Bind:
		fmt.Fprintf(b, "BIND (%s AS ?%s)", e.Expr, e.Var)
	case *ast.SubSelect:
		b.WriteString("{ ")
		if err := writeSelect(b, e.Query); err != nil {
			return err
		}
		b.WriteString(" }")
	case *ast.Values:
		return writeValues(b, e)
	case *ast.GroupGraphPattern:
		return writeGroup(b, e)
	default:
		return fmt.Errorf("generator: unknown graph pattern element %T", el)
	}
	return nil
}

// writeValues renders "VALUES (?v1 … ?vn) { (row)* }", preserving variable
// and row order exactly as they appear in the AST (spec.md §4.1's
// round-trip requirement).
func writeValues(b *strings.Builder, v *ast.Values) error {
	b.WriteString("VALUES ")
	if len(v.Vars) == 1 {
		b.WriteString("?")
		b.WriteString(string(v.Vars[0]))
	} else {
		b.WriteString("(")
		parts := make([]string, len(v.Vars))
		for i, vr := range v.Vars {
			parts[i] = "?" + string(vr)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString(")")
	}
	b.WriteString(" { ")
	for _, row := range v.Rows {
		if len(v.Vars) == 1 {
			b.WriteString(rowTermText(row[0]))
			b.WriteString(" ")
			continue
		}
		b.WriteString("(")
		parts := make([]string, len(row))
		for i, t := range row {
			parts[i] = rowTermText(t)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString(") ")
	}
	b.WriteString("}")
	return nil
}

func rowTermText(t term.Term) string {
	if _, ok := t.(term.Undef); ok {
		return "UNDEF"
	}
	return termText(t)
}

// termText renders a single term in SPARQL/Turtle syntax, matching
// spec.md §6.3's rewriting conventions for terms the applier emits. Most
// variants already render correctly via term.Term.String(); Literal and
// anonymous Blank need the exceptions below (unquoted numeric/boolean
// literals, "[]" for an unlabeled blank node).
func termText(t term.Term) string {
	switch v := t.(type) {
	case term.Blank:
		if v == "" {
			return "[]"
		}
		return v.String()
	case term.Literal:
		return literalText(v)
	default:
		return t.String()
	}
}

// literalText renders a Literal per §6.3: escaped quotes, language tag
// takes precedence over datatype, xsd:string datatype is elided, and
// numeric/boolean xsd datatypes are emitted unquoted.
func literalText(l term.Literal) string {
	if l.Lang != "" {
		return quoteLexical(l.Lexical) + "@" + l.Lang
	}
	if l.Datatype != "" && l.Datatype != term.XSDString {
		if isUnquotableNumericOrBoolean(l.Datatype) && isBareLexical(l.Lexical) {
			return l.Lexical
		}
		return quoteLexical(l.Lexical) + "^^<" + string(l.Datatype) + ">"
	}
	return quoteLexical(l.Lexical)
}

func isUnquotableNumericOrBoolean(dt term.IRI) bool {
	return term.IsNumericOrBoolean(dt)
}

// isBareLexical reports whether a lexical form is safe to emit unquoted —
// it must parse back as the same numeric/boolean token the lexer accepts,
// so it cannot contain whitespace or quote characters.
func isBareLexical(lex string) bool {
	if lex == "" {
		return false
	}
	for _, r := range lex {
		if r == ' ' || r == '\t' || r == '\n' || r == '"' {
			return false
		}
	}
	return true
}

func quoteLexical(lex string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range lex {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
