// Package argtransform implements C6: converting one node's SELECT result
// set into the next node's argument set under a declarative parameter
// mapping (spec.md §4.5).
package argtransform

import "github.com/recalcitrant/querylib/internal/resultset"

// ParameterMapping renames a source output variable to a target parameter
// name. It mirrors entity.ParameterMapping's shape without importing
// internal/entity, keeping this package's only dependency the wire types.
type ParameterMapping struct {
	FromParam string
	ToParam   string
}

// Transform converts results into an ArgumentSet per spec.md §4.5. When
// mappings is empty, it acts as identity: head.vars and every row are
// copied verbatim (the initial-argument case).
func Transform(results resultset.ResultSet, mappings []ParameterMapping) resultset.ArgumentSet {
	if len(mappings) == 0 {
		rows := make([]resultset.Binding, len(bindingsOf(results)))
		for i, b := range bindingsOf(results) {
			rows[i] = copyBinding(b)
		}
		return resultset.ArgumentSet{
			Head:      resultset.Head{Vars: append([]string(nil), results.Head.Vars...)},
			Arguments: rows,
		}
	}

	vars := make([]string, 0, len(mappings))
	seen := map[string]bool{}
	for _, m := range mappings {
		if !seen[m.ToParam] {
			seen[m.ToParam] = true
			vars = append(vars, m.ToParam)
		}
	}

	var rows []resultset.Binding
	for _, b := range bindingsOf(results) {
		row := resultset.Binding{}
		for _, m := range mappings {
			if tv, ok := b[m.FromParam]; ok {
				row[m.ToParam] = tv
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	return resultset.ArgumentSet{Head: resultset.Head{Vars: vars}, Arguments: rows}
}

func bindingsOf(rs resultset.ResultSet) []resultset.Binding {
	if rs.Results == nil {
		return nil
	}
	return rs.Results.Bindings
}

func copyBinding(b resultset.Binding) resultset.Binding {
	out := make(resultset.Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Merge UNION-merges a set of ArgumentSets in edge-iteration order
// (spec.md §4.6 step 1): head.vars is the ordered union of incoming vars,
// first-seen order; arguments is the concatenation in the given order.
func Merge(sets []resultset.ArgumentSet) resultset.ArgumentSet {
	var vars []string
	seen := map[string]bool{}
	var rows []resultset.Binding

	for _, s := range sets {
		for _, v := range s.Head.Vars {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
		rows = append(rows, s.Arguments...)
	}

	return resultset.ArgumentSet{Head: resultset.Head{Vars: vars}, Arguments: rows}
}
