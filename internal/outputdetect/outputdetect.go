// Package outputdetect implements C4: extracting a SELECT query's
// projection variable names (spec.md §4.3).
package outputdetect

import (
	"sort"

	"github.com/recalcitrant/querylib/internal/ast"
)

// Detect returns q's SELECT projection variable names, sorted
// lexicographically. For "SELECT *" it returns every variable bound
// anywhere in the WHERE clause. It returns nil for any non-SELECT form.
func Detect(q *ast.Query) []string {
	if q.Form != ast.FormSelect || q.Select == nil {
		return nil
	}
	sel := q.Select

	var names []string
	if sel.Star {
		seen := map[string]bool{}
		collectWhereVars(sel.Where, seen)
		for name := range seen {
			names = append(names, name)
		}
	} else {
		for _, pv := range sel.Projection {
			if pv.Alias != "" {
				names = append(names, string(pv.Alias))
			} else {
				names = append(names, string(pv.Var))
			}
		}
	}

	sort.Strings(names)
	return names
}

// collectWhereVars gathers every variable bound by a triples block,
// VALUES declaration, or BIND target anywhere in pattern — a reasonable
// approximation of "variables in scope" for SELECT * given the core's
// opaque treatment of triple patterns (spec.md §1 non-goal): variables
// appearing only inside a FILTER/BIND raw expression are not decomposed
// out, but the VALUES/BIND declarations themselves, and any ?var token
// literally present in a triples block's raw text, are recognized.
func collectWhereVars(g *ast.GroupGraphPattern, seen map[string]bool) {
	ast.Walk(g, func(el ast.GraphPatternElement) {
		switch e := el.(type) {
		case *ast.Values:
			for _, v := range e.Vars {
				seen[string(v)] = true
			}
		case *ast.Bind:
			seen[string(e.Var)] = true
		case *ast.TriplesBlock:
			for _, v := range extractVarTokens(e.Raw) {
				seen[v] = true
			}
		}
	})
}

// extractVarTokens scans raw triples text for "?name"/"$name" tokens. It
// is a lexical scan, not a parse: the core never decomposes triple
// patterns (spec.md §1 non-goal), so this is only used to approximate
// "variables in scope" for SELECT *.
func extractVarTokens(raw string) []string {
	var out []string
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '?' || c == '$' {
			j := i + 1
			for j < len(raw) && isVarNameByte(raw[j]) {
				j++
			}
			if j > i+1 {
				out = append(out, raw[i+1:j])
			}
			i = j
			continue
		}
		i++
	}
	return out
}

func isVarNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
