package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/outputdetect"
	"github.com/recalcitrant/querylib/internal/resultset"
	"github.com/recalcitrant/querylib/internal/term"
)

// MemoryExecutor is the "OxigraphMemory" executor family of spec.md §3/§4.6
// step 3: an in-process SPARQL evaluator over a Store, selected when a
// Backend's BackendType is OxigraphMemory and shared across executions per
// spec.md §5 ("The in-memory store, when present, is shared across
// executions"). It satisfies the same Executor contract as HTTPExecutor so
// the orchestrator never branches on which family it holds.
type MemoryExecutor struct {
	Store Store
}

// NewMemory builds a MemoryExecutor over store. Pass NewMapStore() for the
// pure in-process variant or a Store opened with NewBadgerStore for the
// persistent variant; the choice is the caller's, not read from the
// environment.
func NewMemory(store Store) *MemoryExecutor {
	return &MemoryExecutor{Store: store}
}

func (m *MemoryExecutor) evalWhere(where *ast.GroupGraphPattern) ([]binding, error) {
	quads, err := m.Store.All()
	if err != nil {
		return nil, protocolError(fmt.Sprintf("store read failed: %v", err))
	}
	ec := &evalContext{quads: quads}
	return ec.evalGroup(where, []binding{{}})
}

// SelectParsed evaluates q (which must be a SELECT) against the store and
// returns a SPARQL-JSON ResultSet (spec.md §4.8).
func (m *MemoryExecutor) SelectParsed(ctx context.Context, q *ast.Query, opts Options) (resultset.ResultSet, error) {
	select {
	case <-ctx.Done():
		return resultset.ResultSet{}, ctx.Err()
	default:
	}
	if q.Form != ast.FormSelect || q.Select == nil {
		return resultset.ResultSet{}, protocolError("memory executor: SelectParsed requires a SELECT query")
	}

	rows, err := m.evalWhere(q.Select.Where)
	if err != nil {
		return resultset.ResultSet{}, err
	}

	vars := outputdetect.Detect(q)
	projected := vars
	if q.Select.Star {
		projected = starVars(rows)
	}

	bindings := make([]resultset.Binding, 0, len(rows))
	for _, row := range applyLimitOffset(rows, q.Select.Modifiers) {
		b := resultset.Binding{}
		for _, v := range projected {
			if t, ok := row[v]; ok {
				b[v] = toTypedValue(t)
			}
		}
		bindings = append(bindings, b)
	}

	return resultset.NewSelectResult(projected, bindings), nil
}

// ConstructParsed evaluates q (CONSTRUCT or DESCRIBE) and renders the
// resulting quads as N-Triples text (spec.md §4.8's negotiated-format
// default for CONSTRUCT/DESCRIBE: "application/n-triples" streamed,
// "application/n-quads" parsed — this in-process adapter always has the
// full set materialized, so it renders N-Triples regardless of opts.Accept).
func (m *MemoryExecutor) ConstructParsed(ctx context.Context, q *ast.Query, opts Options) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	var where *ast.GroupGraphPattern
	var template string
	switch q.Form {
	case ast.FormConstruct:
		if q.Construct == nil {
			return "", protocolError("memory executor: malformed CONSTRUCT query")
		}
		where = q.Construct.Where
		template = q.Construct.Template
	case ast.FormDescribe:
		if q.Describe == nil {
			return "", protocolError("memory executor: malformed DESCRIBE query")
		}
		quads, err := m.Store.All()
		if err != nil {
			return "", protocolError(fmt.Sprintf("store read failed: %v", err))
		}
		return renderDescribe(quads, q.Describe.Targets), nil
	default:
		return "", protocolError("memory executor: ConstructParsed requires CONSTRUCT or DESCRIBE")
	}

	rows, err := m.evalWhere(where)
	if err != nil {
		return "", err
	}
	patterns, err := parseTriples(template)
	if err != nil {
		return "", protocolError(fmt.Sprintf("construct template: %v", err))
	}

	var b strings.Builder
	for _, row := range rows {
		for _, p := range patterns {
			s := instantiate(p.S, row)
			pr := instantiate(p.P, row)
			o := instantiate(p.O, row)
			if s == nil || pr == nil || o == nil {
				continue
			}
			fmt.Fprintf(&b, "%s %s %s .\n", s.String(), pr.String(), o.String())
		}
	}
	return b.String(), nil
}

// Ask evaluates q (which must be ASK) and reports whether its WHERE clause
// has at least one solution (spec.md §4.8).
func (m *MemoryExecutor) Ask(ctx context.Context, q *ast.Query, opts Options) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}
	if q.Form != ast.FormAsk || q.Ask == nil {
		return false, protocolError("memory executor: Ask requires an ASK query")
	}
	rows, err := m.evalWhere(q.Ask.Where)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Update applies q's INSERT/DELETE operations to the store. Per spec.md
// §4.6 step 4, UPDATE never reaches an executor from inside a QueryGroup
// (UpdateNotAllowed is raised first); this method exists so MemoryExecutor
// fully satisfies the Executor contract for direct (non-group) callers.
func (m *MemoryExecutor) Update(ctx context.Context, q *ast.Query) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if q.Form != ast.FormUpdate || q.Update == nil {
		return protocolError("memory executor: Update requires an UPDATE query")
	}

	for _, op := range q.Update.Operations {
		if err := m.applyOperation(op); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryExecutor) applyOperation(op ast.UpdateOperation) error {
	switch op.Kind {
	case ast.UpdateInsertData:
		patterns, err := parseTriples(op.Template)
		if err != nil {
			return protocolError(fmt.Sprintf("insert data: %v", err))
		}
		for _, p := range patterns {
			if containsVariable(p) {
				return protocolError("insert data: ground triples only")
			}
			if err := m.Store.Add(Quad{S: p.S, P: p.P, O: p.O}); err != nil {
				return protocolError(fmt.Sprintf("insert data: %v", err))
			}
		}
		return nil

	case ast.UpdateInsertWhere:
		rows, err := m.evalWhere(op.Where)
		if err != nil {
			return err
		}
		patterns, err := parseTriples(op.Template)
		if err != nil {
			return protocolError(fmt.Sprintf("insert where: %v", err))
		}
		for _, row := range rows {
			for _, p := range patterns {
				s, pr, o := instantiate(p.S, row), instantiate(p.P, row), instantiate(p.O, row)
				if s == nil || pr == nil || o == nil {
					continue
				}
				if err := m.Store.Add(Quad{S: s, P: pr, O: o}); err != nil {
					return protocolError(fmt.Sprintf("insert where: %v", err))
				}
			}
		}
		return nil

	case ast.UpdateDeleteData, ast.UpdateDeleteWhere:
		// Deletion requires store-wide removal, which mapStore/badgerStore
		// (append-only per spec.md's test/demo scope) do not expose; a
		// future Store method would add Remove(Quad). Left unimplemented
		// rather than silently no-op-ing: surface explicitly.
		return protocolError("memory executor: DELETE is not supported by this Store implementation")

	case ast.UpdateLoad, ast.UpdateCreate, ast.UpdateDrop, ast.UpdateClear:
		return protocolError(fmt.Sprintf("memory executor: %s is not supported", op.Raw))

	default:
		return protocolError("memory executor: unknown update operation")
	}
}

func containsVariable(p triplePattern) bool {
	_, sv := p.S.(term.Variable)
	_, pv := p.P.(term.Variable)
	_, ov := p.O.(term.Variable)
	return sv || pv || ov
}

func instantiate(t term.Term, row binding) term.Term {
	if v, ok := t.(term.Variable); ok {
		bound, ok := row[string(v)]
		if !ok {
			return nil
		}
		return bound
	}
	return t
}

func toTypedValue(t term.Term) resultset.TypedValue {
	switch v := t.(type) {
	case term.IRI:
		return resultset.TypedValue{Type: resultset.TypeURI, Value: string(v)}
	case term.Literal:
		return resultset.TypedValue{
			Type:     resultset.TypeLiteral,
			Value:    v.Lexical,
			Datatype: string(v.Datatype),
			Lang:     v.Lang,
		}
	case term.Blank:
		return resultset.TypedValue{Type: resultset.TypeBnode, Value: string(v)}
	default:
		return resultset.TypedValue{Type: resultset.TypeLiteral, Value: t.String()}
	}
}

func starVars(rows []binding) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func applyLimitOffset(rows []binding, m ast.SolutionModifiers) []binding {
	start := 0
	if m.Offset != nil {
		start = int(m.Offset.Value())
	}
	if start > len(rows) {
		return nil
	}
	rows = rows[start:]
	if m.Limit != nil {
		limit := int(m.Limit.Value())
		if limit < len(rows) {
			rows = rows[:limit]
		}
	}
	return rows
}

func renderDescribe(quads []Quad, targets []term.Term) string {
	wanted := map[string]bool{}
	for _, t := range targets {
		if iri, ok := t.(term.IRI); ok {
			wanted[string(iri)] = true
		}
	}
	var b strings.Builder
	for _, q := range quads {
		if len(wanted) > 0 {
			iri, ok := q.S.(term.IRI)
			if !ok || !wanted[string(iri)] {
				continue
			}
		}
		fmt.Fprintf(&b, "%s %s %s .\n", q.S.String(), q.P.String(), q.O.String())
	}
	return b.String()
}
