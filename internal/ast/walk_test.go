package ast_test

import (
	"testing"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/sparql/parser"
)

func mustParse(t *testing.T, text string) *ast.Query {
	t.Helper()
	q, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", text, err)
	}
	return q
}

func TestWalk_DescendsIntoEveryNamedContainer(t *testing.T) {
	q := mustParse(t, `SELECT * WHERE {
		?a <http://ex/p> ?b
		OPTIONAL { ?a <http://ex/q> ?c }
		MINUS { ?a <http://ex/r> ?d }
		GRAPH <http://ex/g> { ?a <http://ex/s> ?e }
		FILTER EXISTS { ?a <http://ex/t> ?f }
		{ ?a <http://ex/u> ?h } UNION { ?a <http://ex/v> ?h }
	}`)

	var kinds []string
	ast.Walk(q.Select.Where, func(el ast.GraphPatternElement) {
		switch el.(type) {
		case *ast.TriplesBlock:
			kinds = append(kinds, "triples")
		case *ast.Optional:
			kinds = append(kinds, "optional")
		case *ast.Minus:
			kinds = append(kinds, "minus")
		case *ast.Graph:
			kinds = append(kinds, "graph")
		case *ast.Filter:
			kinds = append(kinds, "filter")
		case *ast.Union:
			kinds = append(kinds, "union")
		}
	})

	want := map[string]int{"triples": 7, "optional": 1, "minus": 1, "graph": 1, "filter": 1, "union": 1}
	got := map[string]int{}
	for _, k := range kinds {
		got[k]++
	}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("expected %d visits of kind %q, got %d (all kinds: %v)", n, k, got[k], kinds)
		}
	}
}

func TestWalk_DescendsIntoSubSelect(t *testing.T) {
	q := mustParse(t, `SELECT * WHERE { { SELECT ?x WHERE { ?x <http://ex/p> ?y } } }`)

	found := false
	ast.Walk(q.Select.Where, func(el ast.GraphPatternElement) {
		if tb, ok := el.(*ast.TriplesBlock); ok && tb.Raw == "?x <http://ex/p> ?y" {
			found = true
		}
	})
	if !found {
		t.Error("expected Walk to descend into the SubSelect's own WHERE clause")
	}
}

func TestWalk_FilterExprDoesNotRecurse(t *testing.T) {
	q := mustParse(t, `SELECT * WHERE { ?a <http://ex/p> ?b FILTER (bound(?b)) }`)

	count := 0
	ast.Walk(q.Select.Where, func(el ast.GraphPatternElement) { count++ })
	if count != 2 {
		t.Errorf("expected exactly 2 top-level elements (triples, filter), got %d", count)
	}
}

func TestWalkModifiers_VisitsTopLevelAndNestedSubSelect(t *testing.T) {
	q := mustParse(t, `SELECT * WHERE { { SELECT ?x WHERE { ?x <http://ex/p> ?y } LIMIT 5 } } LIMIT 10`)

	var limits []string
	ast.WalkModifiers(q, func(m *ast.SolutionModifiers) {
		if m.Limit != nil {
			limits = append(limits, m.Limit.Literal)
		}
	})

	if len(limits) != 2 {
		t.Fatalf("expected 2 LIMIT modifiers visited (outer + subselect), got %d: %v", len(limits), limits)
	}
	if limits[0] != "10" || limits[1] != "5" {
		t.Errorf("expected outer LIMIT visited before nested subselect's, got %v", limits)
	}
}

func TestValuesRow_AllUndef(t *testing.T) {
	q := mustParse(t, `SELECT ?x WHERE { VALUES (?a ?b) { (UNDEF UNDEF) (<http://ex/1> UNDEF) } ?a <http://ex/p> ?b }`)
	values := q.Select.Where.Elements[0].(*ast.Values)

	if !values.Rows[0].AllUndef() {
		t.Error("expected row 0 (UNDEF, UNDEF) to be AllUndef")
	}
	if values.Rows[1].AllUndef() {
		t.Error("expected row 1 (<http://ex/1>, UNDEF) to not be AllUndef")
	}
	if !values.HasParameterRow() {
		t.Error("expected the VALUES block to have a parameter row")
	}
}
