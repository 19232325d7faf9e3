package outputdetect

import (
	"testing"

	"github.com/recalcitrant/querylib/internal/sparql/parser"
)

func TestDetect_ExplicitProjectionSorted(t *testing.T) {
	q, err := parser.Parse(`SELECT ?b ?a WHERE { ?a <http://ex/p> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := Detect(q)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestDetect_Alias(t *testing.T) {
	q, err := parser.Parse(`SELECT (?a AS ?renamed) WHERE { ?a <http://ex/p> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := Detect(q)
	if len(got) != 1 || got[0] != "renamed" {
		t.Errorf("expected [renamed], got %v", got)
	}
}

func TestDetect_StarCollectsWhereVars(t *testing.T) {
	q, err := parser.Parse(`SELECT * WHERE { ?a <http://ex/p> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := Detect(q)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b] for SELECT *, got %v", got)
	}
}

func TestDetect_NonSelectReturnsNil(t *testing.T) {
	q, err := parser.Parse(`ASK { ?a <http://ex/p> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := Detect(q); got != nil {
		t.Errorf("expected nil for a non-SELECT query, got %v", got)
	}
}
