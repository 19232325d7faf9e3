// Package querylib is the parameterized-query engine's public facade:
// parse/generate SPARQL, detect and apply VALUES/LIMIT/OFFSET parameters,
// transform one node's results into the next node's arguments, and
// orchestrate a QueryGroup DAG end to end. Mirrors the teacher's pgraph.go
// facade (New/Load/Query/Save/MarshalResultJSON) — a thin re-export layer
// so callers never import internal/* directly.
package querylib

import (
	"context"

	"github.com/recalcitrant/querylib/internal/argapply"
	"github.com/recalcitrant/querylib/internal/argtransform"
	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/entity"
	"github.com/recalcitrant/querylib/internal/executor"
	"github.com/recalcitrant/querylib/internal/orchestrator"
	"github.com/recalcitrant/querylib/internal/outputdetect"
	"github.com/recalcitrant/querylib/internal/paramdetect"
	"github.com/recalcitrant/querylib/internal/resultset"
	"github.com/recalcitrant/querylib/internal/sparql/generator"
	"github.com/recalcitrant/querylib/internal/sparql/parser"
)

// Wire and AST types re-exported so callers never import internal/*.
type (
	Query       = ast.Query
	ResultSet   = resultset.ResultSet
	ArgumentSet = resultset.ArgumentSet
	Binding     = resultset.Binding
	TypedValue  = resultset.TypedValue
	Detection   = paramdetect.Detection

	StoredQuery         = entity.StoredQuery
	QueryType           = entity.QueryType
	QueryParameter      = entity.QueryParameter
	QueryParameterGroup = entity.QueryParameterGroup
	QueryNode           = entity.QueryNode
	QueryEdge           = entity.QueryEdge
	ParameterMapping    = entity.ParameterMapping
	QueryGroup          = entity.QueryGroup
	Backend             = entity.Backend
	BackendType         = entity.BackendType
	Credentials         = entity.Credentials
	Register            = entity.Register

	Executor        = executor.Executor
	ExecutorOptions = executor.Options
	Store           = executor.Store

	OrchestratorOptions = orchestrator.Options
	NodeResult          = orchestrator.NodeResult
)

const (
	QuerySelect    = entity.QuerySelect
	QueryConstruct = entity.QueryConstruct
	QueryAsk       = entity.QueryAsk
	QueryDescribe  = entity.QueryDescribe
	QueryUpdate    = entity.QueryUpdate

	BackendHTTP           = entity.BackendHTTP
	BackendOxigraphMemory = entity.BackendOxigraphMemory
)

// Parse implements C2's text → AST direction (spec.md §4.1).
func Parse(text string) (*Query, error) {
	return parser.Parse(text)
}

// Generate implements C2's AST → text direction (spec.md §4.1).
func Generate(q *Query) (string, error) {
	return generator.Generate(q)
}

// Detect implements C3: VALUES-parameter groups and LIMIT/OFFSET
// placeholders, in document order (spec.md §4.2).
func Detect(q *Query) Detection {
	return paramdetect.Detect(q)
}

// DetectOutputVars implements C4: a SELECT query's projection variable
// names, sorted lexicographically (spec.md §4.3).
func DetectOutputVars(q *Query) []string {
	return outputdetect.Detect(q)
}

// ApplyOptions re-exports argapply's strict-mode toggle (spec.md §9 open
// question on the "empty arguments retains UNDEF" rule).
type ApplyOptions = argapply.Options

// Apply implements C5: rewriting q's VALUES-parameter groups by
// substituting argSets' rows for UNDEF placeholders (spec.md §4.4).
func Apply(q *Query, argSets []ArgumentSet) (*Query, error) {
	return argapply.Apply(q, argSets)
}

// ApplyWithOptions is Apply with explicit ApplyOptions.
func ApplyWithOptions(q *Query, argSets []ArgumentSet, opts ApplyOptions) (*Query, error) {
	return argapply.ApplyWithOptions(q, argSets, opts)
}

// Transform implements C6: converting a ResultSet into an ArgumentSet
// under a declarative parameter mapping (spec.md §4.5).
func Transform(results ResultSet, mappings []ParameterMapping) ArgumentSet {
	internal := make([]argtransform.ParameterMapping, len(mappings))
	for i, m := range mappings {
		internal[i] = argtransform.ParameterMapping{FromParam: m.FromParam, ToParam: m.ToParam}
	}
	return argtransform.Transform(results, internal)
}

// Merge UNION-merges a set of ArgumentSets in iteration order (spec.md
// §4.6 step 1).
func Merge(sets []ArgumentSet) ArgumentSet {
	return argtransform.Merge(sets)
}

// NewRegister builds an empty EntityRegister (spec.md §3 "Lifecycle").
func NewRegister() *Register {
	return entity.NewRegister()
}

// NewID generates a synthetic entity id (spec.md §9's cyclic-object-graph
// note: entities are referenced by id, never by pointer).
func NewID() string {
	return entity.NewID()
}

// NewHTTPExecutor builds the HTTP backend adapter of C9 (spec.md §4.8,
// §6.4).
func NewHTTPExecutor(queryEndpoint, updateEndpoint string, creds *Credentials) Executor {
	return executor.NewHTTP(queryEndpoint, updateEndpoint, creds)
}

// NewMemoryExecutor builds the OxigraphMemory backend adapter of C9 over
// store (spec.md §4.8, §5 "shared in-memory store").
func NewMemoryExecutor(store Store) Executor {
	return executor.NewMemory(store)
}

// NewMapStore builds a pure in-process Store (spec.md §5's default
// in-memory backend).
func NewMapStore() Store {
	return executor.NewMapStore()
}

// NewBadgerStore opens a persistent Store at path. Nothing in the module
// reads INTERNAL_OXIGRAPH_DB_PATH to call it; the caller chooses the store.
func NewBadgerStore(path string) (Store, error) {
	return executor.NewBadgerStore(path)
}

// Execute implements C8: walking group's DAG to completion and returning
// the final node's result (spec.md §4.6).
func Execute(ctx context.Context, group *QueryGroup, reg *Register, opts OrchestratorOptions) (NodeResult, error) {
	return orchestrator.Execute(ctx, group, reg, opts)
}
