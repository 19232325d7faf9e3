package paramdetect

import (
	"testing"

	"github.com/recalcitrant/querylib/internal/sparql/parser"
)

func TestDetect_FindsValuesParameterGroupSortedVars(t *testing.T) {
	q, err := parser.Parse(`SELECT ?x WHERE { VALUES (?b ?a) { (UNDEF UNDEF) } ?a <http://ex/p> ?b }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d := Detect(q)
	if len(d.Values) != 1 {
		t.Fatalf("expected 1 parameter group, got %d", len(d.Values))
	}
	if got := d.Values[0]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected vars sorted [a b], got %v", got)
	}
}

func TestDetect_IgnoresGroundValues(t *testing.T) {
	q, err := parser.Parse(`SELECT ?x WHERE { VALUES ?a { <http://ex/alice> } ?a <http://ex/p> ?x }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d := Detect(q)
	if len(d.Values) != 0 {
		t.Errorf("expected no parameter groups for a fully-ground VALUES, got %d", len(d.Values))
	}
}

func TestDetect_LimitOffsetPlaceholders(t *testing.T) {
	q, err := parser.Parse(`SELECT ?x WHERE { ?x <http://ex/p> ?y } LIMIT 0001 OFFSET 10`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d := Detect(q)
	if len(d.Limits) != 1 || d.Limits[0] != "LIMIT 0001" {
		t.Errorf("expected one LIMIT placeholder, got %v", d.Limits)
	}
	if len(d.Offsets) != 0 {
		t.Errorf("OFFSET 10 has no leading zeros and should not be detected as a placeholder, got %v", d.Offsets)
	}
}

func TestDetect_UpdateDescendsOnlyIntoWhereForms(t *testing.T) {
	q, err := parser.Parse(`INSERT { ?s <http://ex/p> ?o } WHERE { VALUES ?s { UNDEF } ?s <http://ex/q> ?o }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d := Detect(q)
	if len(d.Values) != 1 {
		t.Fatalf("expected 1 parameter group inside INSERT ... WHERE, got %d", len(d.Values))
	}
}

func TestDetect_InsertDataHasNoParameterGroups(t *testing.T) {
	q, err := parser.Parse(`INSERT DATA { <http://ex/a> <http://ex/b> <http://ex/c> }`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d := Detect(q)
	if len(d.Values) != 0 {
		t.Errorf("expected INSERT DATA to have no parameter groups, got %d", len(d.Values))
	}
}
