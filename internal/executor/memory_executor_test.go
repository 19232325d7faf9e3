package executor

import (
	"context"
	"testing"

	"github.com/recalcitrant/querylib/internal/sparql/parser"
	"github.com/recalcitrant/querylib/internal/term"
)

func seedStore(t *testing.T) Store {
	t.Helper()
	s := NewMapStore()
	quads := []Quad{
		{S: term.IRI("http://ex/alice"), P: term.IRI("http://ex/knows"), O: term.IRI("http://ex/bob")},
		{S: term.IRI("http://ex/alice"), P: term.IRI("http://ex/knows"), O: term.IRI("http://ex/carol")},
		{S: term.IRI("http://ex/bob"), P: term.IRI("http://ex/knows"), O: term.IRI("http://ex/carol")},
	}
	for _, q := range quads {
		if err := s.Add(q); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
	return s
}

func TestMemoryExecutor_SelectParsed_ProjectsBoundVars(t *testing.T) {
	m := NewMemory(seedStore(t))
	q, err := parser.Parse(`SELECT ?a ?b WHERE { ?a <http://ex/knows> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rs, err := m.SelectParsed(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("SelectParsed failed: %v", err)
	}
	if rs.Results == nil || len(rs.Results.Bindings) != 3 {
		t.Fatalf("expected 3 bindings, got %+v", rs.Results)
	}
	for _, b := range rs.Results.Bindings {
		if b["a"].Type != "uri" || b["b"].Type != "uri" {
			t.Errorf("expected uri-typed bindings, got %+v", b)
		}
	}
}

func TestMemoryExecutor_SelectParsed_StarProjectsEverything(t *testing.T) {
	m := NewMemory(seedStore(t))
	q, err := parser.Parse(`SELECT * WHERE { ?a <http://ex/knows> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rs, err := m.SelectParsed(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("SelectParsed failed: %v", err)
	}
	if len(rs.Head.Vars) != 2 {
		t.Fatalf("expected 2 projected vars for SELECT *, got %v", rs.Head.Vars)
	}
}

func TestMemoryExecutor_SelectParsed_LimitOffset(t *testing.T) {
	m := NewMemory(seedStore(t))
	q, err := parser.Parse(`SELECT ?a ?b WHERE { ?a <http://ex/knows> ?b } LIMIT 1 OFFSET 1`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rs, err := m.SelectParsed(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("SelectParsed failed: %v", err)
	}
	if len(rs.Results.Bindings) != 1 {
		t.Fatalf("expected LIMIT 1 to yield exactly 1 binding, got %d", len(rs.Results.Bindings))
	}
}

func TestMemoryExecutor_Ask(t *testing.T) {
	m := NewMemory(seedStore(t))

	yes, err := parser.Parse(`ASK { <http://ex/alice> <http://ex/knows> <http://ex/bob> }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ok, err := m.Ask(context.Background(), yes, Options{})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !ok {
		t.Error("expected ASK to report true for a known triple")
	}

	no, err := parser.Parse(`ASK { <http://ex/carol> <http://ex/knows> <http://ex/alice> }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ok, err = m.Ask(context.Background(), no, Options{})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if ok {
		t.Error("expected ASK to report false for an absent triple")
	}
}

func TestMemoryExecutor_ConstructParsed(t *testing.T) {
	m := NewMemory(seedStore(t))
	q, err := parser.Parse(`CONSTRUCT { ?a <http://ex/connectedTo> ?b } WHERE { ?a <http://ex/knows> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rdf, err := m.ConstructParsed(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("ConstructParsed failed: %v", err)
	}
	if rdf == "" {
		t.Fatal("expected non-empty constructed RDF")
	}
}

func TestMemoryExecutor_Update_InsertDataThenQuery(t *testing.T) {
	m := NewMemory(NewMapStore())
	ins, err := parser.Parse(`INSERT DATA { <http://ex/dave> <http://ex/knows> <http://ex/erin> }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := m.Update(context.Background(), ins); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	q, err := parser.Parse(`ASK { <http://ex/dave> <http://ex/knows> <http://ex/erin> }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ok, err := m.Ask(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !ok {
		t.Error("expected INSERT DATA's triple to be queryable afterward")
	}
}

func TestMemoryExecutor_Update_DeleteDataUnsupported(t *testing.T) {
	m := NewMemory(seedStore(t))
	del, err := parser.Parse(`DELETE DATA { <http://ex/alice> <http://ex/knows> <http://ex/bob> }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := m.Update(context.Background(), del); err == nil {
		t.Fatal("expected DELETE DATA to be rejected by the append-only store")
	}
}

func TestMemoryExecutor_Update_InsertDataRejectsVariables(t *testing.T) {
	m := NewMemory(NewMapStore())
	ins, err := parser.Parse(`INSERT DATA { ?s <http://ex/knows> <http://ex/erin> }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := m.Update(context.Background(), ins); err == nil {
		t.Fatal("expected INSERT DATA with a variable to be rejected")
	}
}
