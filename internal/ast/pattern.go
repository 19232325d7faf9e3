package ast

import "github.com/recalcitrant/querylib/internal/term"

// GraphPatternElement is one element of a WHERE group: a basic graph
// pattern, or one of the pattern containers the detector must walk into
// (spec.md §4.2's enumerated container list). Exactly one concrete type
// implements this interface per element.
type GraphPatternElement interface {
	isGraphPatternElement()
}

// GroupGraphPattern is "{ element* }": an ordered sequence of pattern
// elements, possibly nested.
type GroupGraphPattern struct {
	Elements []GraphPatternElement
}

func (*GroupGraphPattern) isGraphPatternElement() {}

// TriplesBlock is an opaque basic graph pattern. The core never needs to
// decompose individual triples — only to know a BGP occupies this slot in
// the pattern tree — so its source text is preserved verbatim (spec.md §1
// non-goal: full SPARQL semantic evaluation is delegated to backends).
type TriplesBlock struct {
	Raw string
}

func (*TriplesBlock) isGraphPatternElement() {}

// Optional is "OPTIONAL { pattern }".
type Optional struct {
	Pattern *GroupGraphPattern
}

func (*Optional) isGraphPatternElement() {}

// Union is "{ pattern } UNION { pattern } UNION …". Each branch is walked
// independently by the parameter detector (spec.md §4.2).
type Union struct {
	Branches []*GroupGraphPattern
}

func (*Union) isGraphPatternElement() {}

// Minus is "MINUS { pattern }".
type Minus struct {
	Pattern *GroupGraphPattern
}

func (*Minus) isGraphPatternElement() {}

// Graph is "GRAPH term { pattern }".
type Graph struct {
	Name    term.Term // term.IRI or term.Variable
	Pattern *GroupGraphPattern
}

func (*Graph) isGraphPatternElement() {}

// Service is "SERVICE [SILENT] term { pattern }".
type Service struct {
	Silent  bool
	Name    term.Term
	Pattern *GroupGraphPattern
}

func (*Service) isGraphPatternElement() {}

// FilterKind distinguishes a plain boolean-expression FILTER from one
// wrapping EXISTS/NOT EXISTS, which the detector must still descend into
// (spec.md §4.2).
type FilterKind int

const (
	FilterExpr FilterKind = iota
	FilterExists
	FilterNotExists
)

// Filter is "FILTER expr" / "FILTER EXISTS { pattern }" / "FILTER NOT
// EXISTS { pattern }". For FilterExpr, Expr holds the raw expression text
// (opaque, per TriplesBlock's rationale); for the EXISTS forms, Pattern
// holds the structured nested pattern the detector descends into.
type Filter struct {
	Kind    FilterKind
	Expr    string
	Pattern *GroupGraphPattern
}

func (*Filter) isGraphPatternElement() {}

// Bind is "BIND ( expr AS ?var )". Expr is opaque raw text.
type Bind struct {
	Expr string
	Var  term.Variable
}

func (*Bind) isGraphPatternElement() {}

// SubSelect is a nested "{ SELECT … }" subquery. The detector descends
// into its WHERE clause and its own LIMIT/OFFSET modifiers (spec.md §4.2,
// B4).
type SubSelect struct {
	Query *SelectQuery
}

func (*SubSelect) isGraphPatternElement() {}

// ValuesRow is one row of a VALUES block: one term per declared variable,
// in declared order. A term.Undef entry denotes UNDEF.
type ValuesRow []term.Term

// AllUndef reports whether every position in the row is UNDEF — the
// condition that makes a VALUES block a parameter group (spec.md §3).
func (r ValuesRow) AllUndef() bool {
	for _, t := range r {
		if _, ok := t.(term.Undef); !ok {
			return false
		}
	}
	return len(r) > 0
}

// Values is "VALUES (?v1 … ?vn) { row* }" (or the single-variable
// shorthand "VALUES ?v { term* }", normalized here to the same shape with
// Vars of length 1).
type Values struct {
	Vars []term.Variable
	Rows []ValuesRow
}

func (*Values) isGraphPatternElement() {}

// HasParameterRow reports whether this VALUES block contains at least one
// all-UNDEF row, making it a parameter group per spec.md §3.
func (v *Values) HasParameterRow() bool {
	for _, row := range v.Rows {
		if row.AllUndef() {
			return true
		}
	}
	return false
}
