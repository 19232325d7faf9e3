// Package entity models the stored entities of C7 (spec.md §3 "Stored
// entities") and the EntityRegister lookup contract they are loaded
// through.
package entity

import "github.com/google/uuid"

// QueryType enumerates the SPARQL form a StoredQuery's text is expected
// to parse as.
type QueryType string

const (
	QuerySelect    QueryType = "SELECT"
	QueryConstruct QueryType = "CONSTRUCT"
	QueryAsk       QueryType = "ASK"
	QueryDescribe  QueryType = "DESCRIBE"
	QueryUpdate    QueryType = "UPDATE"
)

// QueryParameter is one VALUES variable of a parameter group, together
// with the value types it accepts (spec.md §3).
type QueryParameter struct {
	ParamName    string
	AllowedTypes []string // subset of {"uri","literal"}
}

// QueryParameterGroup is one VALUES-parameter group's declared variable
// list, in the order the group's VALUES clause declares them.
type QueryParameterGroup struct {
	Vars []QueryParameter
}

// StoredQuery is a persisted SPARQL query plus its detected parameter
// shape (spec.md §3). Parameters/OutputVars are expected to have been
// populated by running C3/C4 over QueryText at store time; the
// orchestrator trusts them rather than re-detecting on every execution.
type StoredQuery struct {
	ID                  string
	Name                string
	QueryText           string
	QueryType           QueryType
	Parameters          []QueryParameterGroup
	OutputVars          []string
	HasLimitParameter   bool
	HasOffsetParameter  bool
	DefaultBackendID    string
}

// ParamTypes returns a map from parameter name (without leading "?") to
// its allowed-type set, flattened across every parameter group — the
// shape spec.md §4.7 builds to validate an incoming ArgumentSet.
func (q *StoredQuery) ParamTypes() map[string][]string {
	out := map[string][]string{}
	for _, group := range q.Parameters {
		for _, p := range group.Vars {
			out[p.ParamName] = p.AllowedTypes
		}
	}
	return out
}

// BackendType enumerates the executor families a Backend may select
// (spec.md §3).
type BackendType string

const (
	BackendHTTP           BackendType = "HTTP"
	BackendOxigraphMemory BackendType = "OxigraphMemory"
)

// Credentials is the optional HTTP Basic auth pair a Backend may carry.
type Credentials struct {
	Username string
	Password string
}

// Backend is a named SPARQL backend configuration (spec.md §3).
type Backend struct {
	ID          string
	BackendType BackendType
	Endpoint    string
	Credentials *Credentials
}

// QueryNode is one node of a QueryGroup DAG: a reference to a StoredQuery,
// optionally overriding the default executor via BackendID (spec.md §3).
type QueryNode struct {
	ID        string
	QueryID   string
	BackendID string // empty means "use the orchestrator's default executor"
}

// ParameterMapping directs one source output variable to one target
// parameter name across a QueryEdge (spec.md §3).
type ParameterMapping struct {
	FromParam string
	ToParam   string
}

// QueryEdge connects two QueryNodes of the same QueryGroup, carrying the
// parameter mappings the orchestrator applies when it transforms the
// source node's results into the target node's arguments (spec.md §3).
type QueryEdge struct {
	ID         string
	FromNodeID string
	ToNodeID   string
	Mappings   []ParameterMapping
}

// QueryGroup is a DAG of QueryNodes/QueryEdges (spec.md §3). StartNodeIDs
// and EndNodeIDs are optional hints consumed by the orchestrator's start-
// node selection and final-result selection (spec.md §4.6).
type QueryGroup struct {
	ID          string
	Nodes       []QueryNode
	Edges       []QueryEdge
	StartNodeIDs []string
	EndNodeIDs   []string
}

// NewID generates a synthetic identifier for an entity constructed ad hoc
// (not loaded from a register), per spec.md §9's cyclic-object-graph
// design note: ids are stored, never pointers, so an ad hoc entity still
// needs a stable id to be referenced by.
func NewID() string {
	return uuid.NewString()
}
