package ast

// Visitor is called once per pattern element in document order, before
// Walk recurses into that element's own nested patterns (if any). Walk
// recurses into every container spec.md §4.2 names: Group (via
// GroupGraphPattern.Elements), Optional, Union (each branch), Minus,
// Graph, Service, Filter (EXISTS/NOT EXISTS branches only), and SubSelect
// (into its own WHERE).
type Visitor func(GraphPatternElement)

// Walk performs the document-order recursive descent spec.md §4.2
// describes, invoking visit on every element it encounters, including
// elements nested inside containers.
func Walk(pattern *GroupGraphPattern, visit Visitor) {
	if pattern == nil {
		return
	}
	for _, el := range pattern.Elements {
		visit(el)
		walkInto(el, visit)
	}
}

func walkInto(el GraphPatternElement, visit Visitor) {
	switch e := el.(type) {
	case *GroupGraphPattern:
		Walk(e, visit)
	case *Optional:
		Walk(e.Pattern, visit)
	case *Union:
		for _, branch := range e.Branches {
			Walk(branch, visit)
		}
	case *Minus:
		Walk(e.Pattern, visit)
	case *Graph:
		Walk(e.Pattern, visit)
	case *Service:
		Walk(e.Pattern, visit)
	case *Filter:
		if e.Kind == FilterExists || e.Kind == FilterNotExists {
			Walk(e.Pattern, visit)
		}
	case *SubSelect:
		if e.Query != nil {
			Walk(e.Query.Where, visit)
		}
	case *TriplesBlock, *Bind, *Values:
		// leaves: nothing further to recurse into.
	}
}

// WalkModifiers visits the SolutionModifiers of the top-level query and of
// every nested SubSelect, in document order, per spec.md §4.2's decoupled
// LIMIT/OFFSET scan ("scans the outermost modifier of the top-level query
// and of each nested subquery").
func WalkModifiers(q *Query, visit func(*SolutionModifiers)) {
	if q == nil {
		return
	}
	var where *GroupGraphPattern
	switch q.Form {
	case FormSelect:
		if q.Select != nil {
			visit(&q.Select.Modifiers)
			where = q.Select.Where
		}
	case FormConstruct:
		if q.Construct != nil {
			visit(&q.Construct.Modifiers)
			where = q.Construct.Where
		}
	case FormAsk:
		if q.Ask != nil {
			visit(&q.Ask.Modifiers)
			where = q.Ask.Where
		}
	case FormDescribe:
		if q.Describe != nil {
			visit(&q.Describe.Modifiers)
			where = q.Describe.Where
		}
	default:
		return
	}

	Walk(where, func(el GraphPatternElement) {
		if sub, ok := el.(*SubSelect); ok && sub.Query != nil {
			visit(&sub.Query.Modifiers)
		}
	})
}
