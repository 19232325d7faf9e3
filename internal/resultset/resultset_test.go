package resultset

import "testing"

func TestNewSelectResult_ShapesHeadAndResults(t *testing.T) {
	rs := NewSelectResult([]string{"a", "b"}, []Binding{
		{"a": {Type: TypeURI, Value: "http://ex/x"}},
	})
	if len(rs.Head.Vars) != 2 {
		t.Errorf("expected 2 head vars, got %d", len(rs.Head.Vars))
	}
	if rs.Results == nil || len(rs.Results.Bindings) != 1 {
		t.Fatalf("expected 1 binding row, got %+v", rs.Results)
	}
	if rs.Boolean != nil {
		t.Error("expected Boolean to be nil for a SELECT result")
	}
}

func TestNewAskResult_ShapesBooleanOnly(t *testing.T) {
	rs := NewAskResult(true)
	if rs.Results != nil {
		t.Error("expected Results to be nil for an ASK result")
	}
	if rs.Boolean == nil || !*rs.Boolean {
		t.Fatalf("expected Boolean=true, got %v", rs.Boolean)
	}
	if len(rs.Head.Vars) != 0 {
		t.Errorf("expected an empty head for ASK, got %v", rs.Head.Vars)
	}
}

func TestMarshalUnmarshalResultSet_SelectRoundTrip(t *testing.T) {
	rs := NewSelectResult([]string{"x"}, []Binding{
		{"x": {Type: TypeLiteral, Value: "42", Datatype: "http://www.w3.org/2001/XMLSchema#integer"}},
	})

	data, err := MarshalResultSet(rs)
	if err != nil {
		t.Fatalf("MarshalResultSet failed: %v", err)
	}

	got, err := UnmarshalResultSet(data)
	if err != nil {
		t.Fatalf("UnmarshalResultSet failed: %v", err)
	}
	if len(got.Head.Vars) != 1 || got.Head.Vars[0] != "x" {
		t.Errorf("expected head var x preserved, got %v", got.Head.Vars)
	}
	if got.Results == nil || got.Results.Bindings[0]["x"].Value != "42" {
		t.Errorf("expected binding value 42 preserved, got %+v", got.Results)
	}
}

func TestMarshalUnmarshalResultSet_AskRoundTrip(t *testing.T) {
	rs := NewAskResult(false)
	data, err := MarshalResultSet(rs)
	if err != nil {
		t.Fatalf("MarshalResultSet failed: %v", err)
	}
	got, err := UnmarshalResultSet(data)
	if err != nil {
		t.Fatalf("UnmarshalResultSet failed: %v", err)
	}
	if got.Boolean == nil || *got.Boolean {
		t.Errorf("expected Boolean=false preserved, got %v", got.Boolean)
	}
}

func TestMarshalUnmarshalArgumentSet_RoundTripsUndefAsAbsentKey(t *testing.T) {
	as := ArgumentSet{
		Head: Head{Vars: []string{"a", "b"}},
		Arguments: []Binding{
			{"a": {Type: TypeURI, Value: "http://ex/x"}},
		},
	}

	data, err := MarshalArgumentSet(as)
	if err != nil {
		t.Fatalf("MarshalArgumentSet failed: %v", err)
	}
	got, err := UnmarshalArgumentSet(data)
	if err != nil {
		t.Fatalf("UnmarshalArgumentSet failed: %v", err)
	}
	if len(got.Arguments) != 1 {
		t.Fatalf("expected 1 argument row, got %d", len(got.Arguments))
	}
	if _, present := got.Arguments[0]["b"]; present {
		t.Error("expected 'b' to remain absent (UNDEF), not round-trip as a zero-value binding")
	}
}
