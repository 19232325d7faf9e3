package argapply

import "fmt"

// ApplyError reports a failure of the argument applier (spec.md §7:
// ArityMismatch, VariableMismatch, IllegalArgumentType), following the
// teacher's per-package {Kind, Message} error-struct idiom
// (query.QueryError, dsl.SyntaxError) with the extra structured fields
// §7 names for these three kinds.
type ApplyError struct {
	Kind    string
	Message string

	// GroupIndex is the 0-based index of the parameter group the error
	// concerns, set for VariableMismatch and for the strict-mode
	// ArityMismatch raised on an empty argument set.
	GroupIndex int
	Expected   []string
	Got        []string

	// VarName is set for IllegalArgumentType.
	VarName string
}

func (e ApplyError) Error() string {
	return fmt.Sprintf("argument apply error (%s): %s", e.Kind, e.Message)
}

func arityMismatch(expected, got int) ApplyError {
	return ApplyError{
		Kind:    "ArityMismatch",
		Message: fmt.Sprintf("expected %d argument set(s), got %d", expected, got),
	}
}

func variableMismatch(idx int, expected, got []string) ApplyError {
	return ApplyError{
		Kind:       "VariableMismatch",
		Message:    fmt.Sprintf("group %d: expected variables %v, got %v", idx, expected, got),
		GroupIndex: idx,
		Expected:   expected,
		Got:        got,
	}
}

func illegalArgumentType(varName string) ApplyError {
	return ApplyError{
		Kind:    "IllegalArgumentType",
		Message: fmt.Sprintf("illegal argument type for variable %q", varName),
		VarName: varName,
	}
}
