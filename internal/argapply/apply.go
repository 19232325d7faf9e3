// Package argapply implements C5: rewriting a parsed query's VALUES
// parameter groups by substituting caller-supplied argument rows for
// UNDEF placeholders (spec.md §4.4).
package argapply

import (
	"log/slog"
	"sort"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/resultset"
	"github.com/recalcitrant/querylib/internal/term"
)

// Options tunes the applier's behavior on the single point spec.md §9
// leaves open: whether an empty argument list for a detected group is a
// soft no-op (the documented default) or a hard ArityMismatch under a
// strict caller policy. Default (zero value) is the spec's documented
// behavior: retain UNDEF, WARN.
type Options struct {
	Strict bool
}

// Apply rewrites q in place, substituting argSets[i]'s rows into the i-th
// VALUES-parameter group found by paramdetect, in document order. It
// mutates the AST it is given; callers that need the original preserved
// should parse a fresh copy first.
func Apply(q *ast.Query, argSets []resultset.ArgumentSet) (*ast.Query, error) {
	return ApplyWithOptions(q, argSets, Options{})
}

// ApplyWithOptions is Apply with explicit Options (spec.md §9 open
// question on strict-mode ArityMismatch elevation).
func ApplyWithOptions(q *ast.Query, argSets []resultset.ArgumentSet, opts Options) (*ast.Query, error) {
	groups := collectParameterGroups(q)

	if len(argSets) != len(groups) {
		return nil, arityMismatch(len(groups), len(argSets))
	}

	for i, v := range groups {
		groupVars := sortedStrings(varNames(v.Vars))
		argVars := sortedStrings(argSets[i].Head.Vars)
		if !equalStrings(groupVars, argVars) {
			return nil, variableMismatch(i, groupVars, argVars)
		}

		if len(argSets[i].Arguments) == 0 {
			if opts.Strict {
				return nil, ApplyError{
					Kind:       "ArityMismatch",
					Message:    "strict mode: empty argument list for a detected parameter group is not permitted",
					GroupIndex: i,
				}
			}
			slog.Warn("argapply: empty argument list, retaining UNDEF row",
				"group_index", i, "vars", groupVars)
			continue
		}

		if err := rewriteValues(v, argSets[i]); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// collectParameterGroups walks q in the same document order paramdetect
// uses, returning the *ast.Values nodes themselves (not just their
// variable-name sets) so rewriteValues can mutate them directly.
func collectParameterGroups(q *ast.Query) []*ast.Values {
	var groups []*ast.Values
	visit := func(el ast.GraphPatternElement) {
		if v, ok := el.(*ast.Values); ok && v.HasParameterRow() {
			groups = append(groups, v)
		}
	}

	if q.Form == ast.FormUpdate {
		if q.Update != nil {
			for _, op := range q.Update.Operations {
				if op.Kind == ast.UpdateInsertWhere || op.Kind == ast.UpdateDeleteWhere {
					ast.Walk(op.Where, visit)
				}
			}
		}
		return groups
	}

	ast.Walk(queryWhere(q), visit)
	return groups
}

func queryWhere(q *ast.Query) *ast.GroupGraphPattern {
	switch q.Form {
	case ast.FormSelect:
		if q.Select != nil {
			return q.Select.Where
		}
	case ast.FormConstruct:
		if q.Construct != nil {
			return q.Construct.Where
		}
	case ast.FormAsk:
		if q.Ask != nil {
			return q.Ask.Where
		}
	case ast.FormDescribe:
		if q.Describe != nil {
			return q.Describe.Where
		}
	}
	return nil
}

// rewriteValues drops v's all-UNDEF rows and appends a translated row per
// entry of arg.Arguments, preserving any pre-existing concrete rows
// (spec.md §4.4 rule 4).
func rewriteValues(v *ast.Values, arg resultset.ArgumentSet) error {
	kept := v.Rows[:0:0]
	for _, row := range v.Rows {
		if !row.AllUndef() {
			kept = append(kept, row)
		}
	}

	for _, binding := range arg.Arguments {
		row := make(ast.ValuesRow, len(v.Vars))
		for i, varName := range v.Vars {
			tv, present := binding[string(varName)]
			if !present {
				row[i] = term.Undef{}
				continue
			}
			t, err := toTerm(string(varName), tv)
			if err != nil {
				return err
			}
			row[i] = t
		}
		kept = append(kept, row)
	}

	v.Rows = kept
	return nil
}

// toTerm converts a wire-format typed value into an AST term per spec.md
// §4.4 rule 4's type-dispatch table.
func toTerm(varName string, tv resultset.TypedValue) (term.Term, error) {
	switch tv.Type {
	case resultset.TypeURI:
		return term.IRI(tv.Value), nil
	case resultset.TypeLiteral:
		lit := term.Literal{Lexical: tv.Value}
		switch {
		case tv.Lang != "":
			lit.Lang = tv.Lang
		case tv.Datatype != "":
			lit.Datatype = term.IRI(tv.Datatype)
		default:
			lit.Datatype = term.XSDString
		}
		return lit, nil
	default:
		return nil, illegalArgumentType(varName)
	}
}

func varNames(vars []term.Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = string(v)
	}
	return names
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
