// Package paramdetect implements C3: walking a parsed query's pattern
// tree to find VALUES-parameter groups and LIMIT/OFFSET placeholders
// (spec.md §4.2).
package paramdetect

import (
	"regexp"
	"sort"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/term"
)

// placeholderPattern matches a digit string with three or more leading
// zeros — the numeric-placeholder rule of spec.md §3 ("A LIMIT placeholder
// is a LIMIT whose numeric literal matches /^0{3,}\d*$/").
var placeholderPattern = regexp.MustCompile(`^0{3,}\d*$`)

// Detection is the result of a detect() call: document-order lists of
// parameter-group variable-name sets and placeholder literal texts
// (spec.md §4.2's contract).
type Detection struct {
	// Values holds, per parameter group, the group's variable names
	// sorted lexicographically (spec.md §4.2: "Variable names are
	// returned sorted lexicographically inside each group").
	Values [][]string
	Limits []string
	Offsets []string
}

// Detect walks q in document order and returns every VALUES-parameter
// group and LIMIT/OFFSET placeholder it finds.
func Detect(q *ast.Query) Detection {
	var d Detection

	if q.Form == ast.FormUpdate {
		detectUpdate(q.Update, &d)
		return d
	}

	where := queryWhere(q)
	ast.Walk(where, func(el ast.GraphPatternElement) {
		if v, ok := el.(*ast.Values); ok && v.HasParameterRow() {
			d.Values = append(d.Values, sortedVarNames(v.Vars))
		}
	})

	ast.WalkModifiers(q, func(m *ast.SolutionModifiers) {
		if m.Limit != nil && placeholderPattern.MatchString(m.Limit.Literal) {
			d.Limits = append(d.Limits, "LIMIT "+m.Limit.Literal)
		}
		if m.Offset != nil && placeholderPattern.MatchString(m.Offset.Literal) {
			d.Offsets = append(d.Offsets, "OFFSET "+m.Offset.Literal)
		}
	})

	return d
}

// detectUpdate descends into the WHERE clause of INSERT/DELETE … WHERE
// operations only; the DATA/LOAD/CREATE/DROP/CLEAR forms have no WHERE
// and are skipped entirely (spec.md §4.2).
func detectUpdate(u *ast.UpdateOperations, d *Detection) {
	if u == nil {
		return
	}
	for _, op := range u.Operations {
		if op.Kind != ast.UpdateInsertWhere && op.Kind != ast.UpdateDeleteWhere {
			continue
		}
		ast.Walk(op.Where, func(el ast.GraphPatternElement) {
			if v, ok := el.(*ast.Values); ok && v.HasParameterRow() {
				d.Values = append(d.Values, sortedVarNames(v.Vars))
			}
		})
	}
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

func sortedVarNames(vars []term.Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = string(v)
	}
	sort.Strings(names)
	return names
}
