package parser_test

import (
	"strings"
	"testing"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/sparql/generator"
	"github.com/recalcitrant/querylib/internal/sparql/parser"
	"github.com/recalcitrant/querylib/internal/term"
)

func mustParse(t *testing.T, text string) *ast.Query {
	t.Helper()
	q, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", text, err)
	}
	return q
}

func TestRoundTrip_SelectWithValuesAndLimit(t *testing.T) {
	src := `SELECT ?x WHERE { VALUES (?b ?a) { (UNDEF UNDEF) (<http://ex/1> <http://ex/2>) } ?a <http://ex/p> ?b . ?b <http://ex/q> ?x } LIMIT 0005 OFFSET 10`
	q := mustParse(t, src)

	out, err := generator.Generate(q)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	q2 := mustParse(t, out)
	if q2.Form != ast.FormSelect {
		t.Fatalf("expected round-tripped form Select, got %v", q2.Form)
	}

	values, ok := q2.Select.Where.Elements[0].(*ast.Values)
	if !ok {
		t.Fatalf("expected first element to be VALUES, got %T", q2.Select.Where.Elements[0])
	}
	if len(values.Vars) != 2 || values.Vars[0] != "b" || values.Vars[1] != "a" {
		t.Errorf("expected VALUES var order (b, a) preserved, got %v", values.Vars)
	}
	if len(values.Rows) != 2 {
		t.Fatalf("expected 2 VALUES rows preserved, got %d", len(values.Rows))
	}
	if _, ok := values.Rows[0][0].(term.Undef); !ok {
		t.Errorf("expected row 0 to stay all-UNDEF, got %v", values.Rows[0][0])
	}
	if got := values.Rows[1][0].String(); got != "<http://ex/1>" {
		t.Errorf("expected row 1 col 0 to round-trip as <http://ex/1>, got %q", got)
	}

	if q2.Select.Modifiers.Limit == nil || q2.Select.Modifiers.Limit.Literal != "0005" {
		t.Errorf("expected LIMIT literal 0005 preserved exactly, got %+v", q2.Select.Modifiers.Limit)
	}
	if q2.Select.Modifiers.Offset == nil || q2.Select.Modifiers.Offset.Literal != "10" {
		t.Errorf("expected OFFSET literal 10 preserved exactly, got %+v", q2.Select.Modifiers.Offset)
	}
}

func TestRoundTrip_SelectAliasProjection(t *testing.T) {
	src := `SELECT (?a AS ?renamed) ?b WHERE { ?a <http://ex/p> ?b }`
	q := mustParse(t, src)

	out, err := generator.Generate(q)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	q2 := mustParse(t, out)
	if len(q2.Select.Projection) != 2 {
		t.Fatalf("expected 2 projection entries, got %d", len(q2.Select.Projection))
	}
	if q2.Select.Projection[0].Alias != "renamed" {
		t.Errorf("expected alias 'renamed' preserved, got %q", q2.Select.Projection[0].Alias)
	}
	if q2.Select.Projection[1].Var != "b" {
		t.Errorf("expected plain var 'b' preserved, got %q", q2.Select.Projection[1].Var)
	}
}

func TestRoundTrip_ConstructTemplate(t *testing.T) {
	src := `CONSTRUCT { ?a <http://ex/sameAs> ?b } WHERE { ?a <http://ex/p> ?b }`
	q := mustParse(t, src)

	out, err := generator.Generate(q)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	q2 := mustParse(t, out)
	if q2.Form != ast.FormConstruct {
		t.Fatalf("expected form Construct, got %v", q2.Form)
	}
	if q2.Construct.Template != q.Construct.Template {
		t.Errorf("expected template text preserved, got %q want %q", q2.Construct.Template, q.Construct.Template)
	}
}

func TestRoundTrip_AskWithOptionalAndUnion(t *testing.T) {
	src := `ASK { ?a <http://ex/p> ?b OPTIONAL { ?a <http://ex/q> ?c } { ?a <http://ex/r> ?d } UNION { ?a <http://ex/s> ?d } }`
	q := mustParse(t, src)

	out, err := generator.Generate(q)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	q2 := mustParse(t, out)
	if q2.Form != ast.FormAsk {
		t.Fatalf("expected form Ask, got %v", q2.Form)
	}
	if len(q2.Ask.Where.Elements) != 3 {
		t.Fatalf("expected 3 top-level elements (triples, OPTIONAL, UNION), got %d", len(q2.Ask.Where.Elements))
	}
	if _, ok := q2.Ask.Where.Elements[1].(*ast.Optional); !ok {
		t.Errorf("expected element 1 to be OPTIONAL, got %T", q2.Ask.Where.Elements[1])
	}
	if _, ok := q2.Ask.Where.Elements[2].(*ast.Union); !ok {
		t.Errorf("expected element 2 to be UNION, got %T", q2.Ask.Where.Elements[2])
	}
}

func TestRoundTrip_DescribeTargets(t *testing.T) {
	src := `DESCRIBE ?a <http://ex/alice>`
	q := mustParse(t, src)

	out, err := generator.Generate(q)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	q2 := mustParse(t, out)
	if q2.Form != ast.FormDescribe {
		t.Fatalf("expected form Describe, got %v", q2.Form)
	}
	if len(q2.Describe.Targets) != 2 {
		t.Fatalf("expected 2 DESCRIBE targets preserved, got %d", len(q2.Describe.Targets))
	}
}

func TestRoundTrip_UpdateInsertData(t *testing.T) {
	src := `INSERT DATA { <http://ex/a> <http://ex/b> <http://ex/c> }`
	q := mustParse(t, src)
	if q.Form != ast.FormUpdate {
		t.Fatalf("expected form Update, got %v", q.Form)
	}

	out, err := generator.Generate(q)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	q2 := mustParse(t, out)
	if len(q2.Update.Operations) != 1 {
		t.Fatalf("expected 1 update operation preserved, got %d", len(q2.Update.Operations))
	}
}

func TestGenerate_LiteralWithLanguageTagAndDatatype(t *testing.T) {
	src := `SELECT * WHERE { VALUES ?x { "hello"@en "42"^^<http://www.w3.org/2001/XMLSchema#integer> } ?x <http://ex/p> ?y }`
	q := mustParse(t, src)

	out, err := generator.Generate(q)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(out, `"hello"@en`) {
		t.Errorf("expected language-tagged literal preserved verbatim, got %q", out)
	}
	if !strings.Contains(out, "42") || strings.Contains(out, `"42"`) {
		t.Errorf("expected numeric literal rendered unquoted, got %q", out)
	}
}
