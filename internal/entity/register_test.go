package entity

import (
	"errors"
	"sort"
	"testing"
)

func TestRegister_PutAndResolveEachKind(t *testing.T) {
	r := NewRegister()
	r.PutQuery(&StoredQuery{ID: "q1"})
	r.PutBackend(&Backend{ID: "b1", BackendType: BackendHTTP})
	r.PutGroup(&QueryGroup{ID: "g1"})

	if _, err := r.Query("q1"); err != nil {
		t.Errorf("expected q1 to resolve, got %v", err)
	}
	if _, err := r.Backend("b1"); err != nil {
		t.Errorf("expected b1 to resolve, got %v", err)
	}
	if _, err := r.Group("g1"); err != nil {
		t.Errorf("expected g1 to resolve, got %v", err)
	}
}

func TestRegister_UnresolvedReferenceErrors(t *testing.T) {
	r := NewRegister()

	_, err := r.Query("missing")
	if err == nil {
		t.Fatal("expected an error for an unknown query id")
	}
	var eerr EntityError
	if !errors.As(err, &eerr) || eerr.Kind != "UnresolvedReference" {
		t.Errorf("expected UnresolvedReference EntityError, got %v", err)
	}

	if _, err := r.Backend("missing"); err == nil {
		t.Error("expected an error for an unknown backend id")
	}
	if _, err := r.Group("missing"); err == nil {
		t.Error("expected an error for an unknown group id")
	}
}

func TestRegister_GroupIDsListsAllLoadedGroups(t *testing.T) {
	r := NewRegister()
	r.PutGroup(&QueryGroup{ID: "g1"})
	r.PutGroup(&QueryGroup{ID: "g2"})

	ids := r.GroupIDs()
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "g1" || ids[1] != "g2" {
		t.Errorf("expected [g1 g2], got %v", ids)
	}
}

func TestRegister_MergeCopiesAndOverwrites(t *testing.T) {
	r := NewRegister()
	r.PutQuery(&StoredQuery{ID: "q1", Name: "original"})
	r.PutGroup(&QueryGroup{ID: "g1"})

	other := NewRegister()
	other.PutQuery(&StoredQuery{ID: "q1", Name: "overwritten"})
	other.PutQuery(&StoredQuery{ID: "q2", Name: "new"})
	other.PutBackend(&Backend{ID: "b1"})
	other.PutGroup(&QueryGroup{ID: "g2"})

	n := r.Merge(other)
	if n != 1 {
		t.Errorf("expected Merge to report 1 group copied, got %d", n)
	}

	q1, err := r.Query("q1")
	if err != nil || q1.Name != "overwritten" {
		t.Errorf("expected q1 to be overwritten by the merged register, got %+v, err=%v", q1, err)
	}
	if _, err := r.Query("q2"); err != nil {
		t.Errorf("expected q2 to be merged in, got %v", err)
	}
	if _, err := r.Backend("b1"); err != nil {
		t.Errorf("expected b1 to be merged in, got %v", err)
	}
	ids := r.GroupIDs()
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "g1" || ids[1] != "g2" {
		t.Errorf("expected groups [g1 g2] after merge, got %v", ids)
	}
}

func TestStoredQuery_ParamTypesFlattensAcrossGroups(t *testing.T) {
	q := &StoredQuery{
		Parameters: []QueryParameterGroup{
			{Vars: []QueryParameter{{ParamName: "a", AllowedTypes: []string{"uri"}}}},
			{Vars: []QueryParameter{{ParamName: "b", AllowedTypes: []string{"literal"}}}},
		},
	}
	types := q.ParamTypes()
	if len(types) != 2 {
		t.Fatalf("expected 2 flattened params, got %d", len(types))
	}
	if types["a"][0] != "uri" || types["b"][0] != "literal" {
		t.Errorf("expected a->uri, b->literal, got %v", types)
	}
}
