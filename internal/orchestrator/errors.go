package orchestrator

import "fmt"

// OrchestratorError reports a DAG-execution failure (spec.md §7), following
// the teacher's per-package {Kind, Message} error-struct idiom
// (graph.GraphError, entity.EntityError).
type OrchestratorError struct {
	Kind       string
	Message    string
	NodeID     string
	ExecutionID string
}

func (e OrchestratorError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("orchestrator error (%s) at node %q: %s", e.Kind, e.NodeID, e.Message)
	}
	return fmt.Sprintf("orchestrator error (%s): %s", e.Kind, e.Message)
}

func ambiguousStartSet(msg string) OrchestratorError {
	return OrchestratorError{Kind: "AmbiguousStartSet", Message: msg}
}

func cyclicGraph(msg string) OrchestratorError {
	return OrchestratorError{Kind: "CyclicGraph", Message: msg}
}

func unresolvedReference(kind, id string) OrchestratorError {
	return OrchestratorError{
		Kind:    "UnresolvedReference",
		Message: fmt.Sprintf("%s %q not found", kind, id),
	}
}

func updateNotAllowed(nodeID string) OrchestratorError {
	return OrchestratorError{
		Kind:    "UpdateNotAllowed",
		Message: "UPDATE queries may not appear as a node inside a QueryGroup",
		NodeID:  nodeID,
	}
}

func unsupportedQueryType(nodeID, queryType string) OrchestratorError {
	return OrchestratorError{
		Kind:    "UnsupportedQueryType",
		Message: fmt.Sprintf("unsupported query type %q", queryType),
		NodeID:  nodeID,
	}
}

func noResult() OrchestratorError {
	return OrchestratorError{Kind: "NoResult", Message: "traversal finished without producing a selectable final result"}
}

// TypeMismatchError reports an argument value whose type falls outside a
// QueryParameter's AllowedTypes (spec.md §4.7).
type TypeMismatchError struct {
	ParamName        string
	Expected         []string
	Got              string
	RowIndex         int
	SourceDescription string
	TargetNodeID     string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf(
		"TypeMismatch: param %q expected one of %v, got %q (row %d, source %s, target node %s)",
		e.ParamName, e.Expected, e.Got, e.RowIndex, e.SourceDescription, e.TargetNodeID,
	)
}
