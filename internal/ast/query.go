// Package ast is the typed representation of a parsed SPARQL query or
// update (spec.md §3 "Parsed queries"). Pattern containers are modeled as
// a closed interface with one concrete struct per variant, in the
// one-pointer-field-per-variant dispatch idiom the teacher uses for its own
// grammar (internal/dsl/grammar.go's StatementAST/QueryAST).
package ast

import "github.com/recalcitrant/querylib/internal/term"

// Form identifies the SPARQL query or update form.
type Form int

const (
	FormUnknown Form = iota
	FormSelect
	FormConstruct
	FormAsk
	FormDescribe
	FormUpdate
)

func (f Form) String() string {
	switch f {
	case FormSelect:
		return "SELECT"
	case FormConstruct:
		return "CONSTRUCT"
	case FormAsk:
		return "ASK"
	case FormDescribe:
		return "DESCRIBE"
	case FormUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Query is the root AST node for a parsed SPARQL 1.1 query text. Exactly
// one of Select/Construct/Ask/Describe/Update is populated, selected by
// Form.
type Query struct {
	Form Form

	Select    *SelectQuery
	Construct *ConstructQuery
	Ask       *AskQuery
	Describe  *DescribeQuery
	Update    *UpdateOperations

	// Prologue holds PREFIX/BASE declarations verbatim, preserved ahead of
	// whichever form follows so the generator can round-trip them.
	Prologue string
}

// ProjectionVar is one SELECT projection item: either a bare variable or
// an "(expr AS ?alias)" computed projection.
type ProjectionVar struct {
	Var   term.Variable
	Alias term.Variable // non-empty for "(expr AS ?alias)"
	Expr  string         // raw expression text, only set when Alias is set
}

// SelectQuery is a SELECT form: projection + WHERE + solution modifiers.
type SelectQuery struct {
	Distinct  bool
	Reduced   bool
	Star      bool // SELECT * — Projection is empty, output vars come from Where
	Projection []ProjectionVar
	Where      *GroupGraphPattern
	Modifiers  SolutionModifiers
}

// ConstructQuery is a CONSTRUCT form.
type ConstructQuery struct {
	Template  string // raw triples template text, preserved verbatim
	Where     *GroupGraphPattern
	Modifiers SolutionModifiers
}

// AskQuery is an ASK form.
type AskQuery struct {
	Where     *GroupGraphPattern
	Modifiers SolutionModifiers
}

// DescribeQuery is a DESCRIBE form. Vars/IRIs name the resources to
// describe; Where is nil for the "DESCRIBE <x>" shorthand and non-nil when
// a WHERE clause (possibly wrapping a nested SELECT subquery, per spec.md
// B4) narrows the resource set.
type DescribeQuery struct {
	Targets   []term.Term // term.IRI or term.Variable entries
	Where     *GroupGraphPattern
	Modifiers SolutionModifiers
}

// SolutionModifiers holds ORDER BY / GROUP BY / HAVING / LIMIT / OFFSET.
// OrderBy/GroupBy/Having are preserved as raw text (their internal
// expression grammar carries no parameters the core needs to rewrite).
// Limit/Offset are structured because their literal text must be
// inspected for the placeholder pattern (spec.md §3 "Parameter
// placeholders") and preserved exactly on round-trip.
type SolutionModifiers struct {
	OrderBy string
	GroupBy string
	Having  string
	Limit   *NumericModifier
	Offset  *NumericModifier
}

// NumericModifier is a LIMIT or OFFSET clause. Literal is the exact digit
// string as it appeared in the source text (e.g. "00010"), required so
// that re-detection after generation sees the same placeholder (spec.md
// §4.1).
type NumericModifier struct {
	Literal string
}

// Value parses the modifier's literal as an integer. It never errors for
// well-formed input: the parser only constructs NumericModifier from a
// digit-string token.
func (n *NumericModifier) Value() int64 {
	var v int64
	for i := 0; i < len(n.Literal); i++ {
		v = v*10 + int64(n.Literal[i]-'0')
	}
	return v
}
