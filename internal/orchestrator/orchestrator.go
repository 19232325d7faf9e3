// Package orchestrator implements C8: given a QueryGroup and optional
// initial arguments, walks the DAG, fans arguments through edges, merges
// multi-incoming arguments, validates types, selects an executor per node,
// and returns the final node's result (spec.md §4.6).
//
// Traversal is a ready-queue BFS grounded on
// internal/inference/graph_traversals.go's bfsDeterministicReachability
// slice-as-queue/visited-set shape; per-wave fan-out uses the goroutine +
// buffered-channel + context-cancel-on-first-error pattern of
// internal/query/composite_queries.go's executeConcurrent, generalized from
// a fixed subquery list to a dynamically-computed ready set.
package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/recalcitrant/querylib/internal/argapply"
	"github.com/recalcitrant/querylib/internal/argtransform"
	"github.com/recalcitrant/querylib/internal/entity"
	"github.com/recalcitrant/querylib/internal/executor"
	"github.com/recalcitrant/querylib/internal/resultset"
	"github.com/recalcitrant/querylib/internal/sparql/parser"
)

// Options tunes a single Execute call (spec.md §4.6 "Inputs").
type Options struct {
	// InitialArgs seeds the start node(s)' arguments. Nil means "no initial
	// arguments" (B1: a parameterless query executes unchanged).
	InitialArgs *resultset.ArgumentSet
	// StartNodeID overrides start-node selection (spec.md §4.6 "Selecting
	// start nodes", first precedence tier).
	StartNodeID string
	// DefaultExecutor is used for every node without a resolvable
	// node-specific backend (spec.md §4.6 step 3).
	DefaultExecutor executor.Executor
}

// NodeResult is one node's execution output, tagged by the StoredQuery's
// QueryType since SELECT/CONSTRUCT-DESCRIBE/ASK shape their payload
// differently (spec.md §4.6 step 4).
type NodeResult struct {
	NodeID    string
	QueryType entity.QueryType
	Select    resultset.ResultSet // populated when QueryType == QuerySelect
	RDF       string              // populated for CONSTRUCT/DESCRIBE
	Boolean   bool                // populated for ASK
}

// asResultSet returns r in the ResultSet shape argtransform.Transform
// expects. Non-SELECT results have no output variables (outputdetect
// returns empty for them per spec.md §4.3), so they feed downstream edges
// as an empty result set rather than erroring — an edge mapping a
// non-existent fromParam simply produces no bindings.
func (r NodeResult) asResultSet() resultset.ResultSet {
	if r.QueryType == entity.QuerySelect {
		return r.Select
	}
	return resultset.ResultSet{}
}

type edgeIndex struct {
	out map[string][]entity.QueryEdge // source node id -> outgoing edges, group edge order
	in  map[string][]entity.QueryEdge // target node id -> incoming edges, group edge order
	ins map[string][]string           // target node id -> distinct predecessor node ids
}

func buildEdgeIndex(group *entity.QueryGroup) edgeIndex {
	known := make(map[string]bool, len(group.Nodes))
	for _, n := range group.Nodes {
		known[n.ID] = true
	}

	idx := edgeIndex{
		out: map[string][]entity.QueryEdge{},
		in:  map[string][]entity.QueryEdge{},
		ins: map[string][]string{},
	}
	seen := map[string]map[string]bool{}
	for _, e := range group.Edges {
		if !known[e.FromNodeID] || !known[e.ToNodeID] {
			slog.Warn("orchestrator: edge references a node outside its group, skipping",
				"edge_id", e.ID, "from_node_id", e.FromNodeID, "to_node_id", e.ToNodeID)
			continue
		}
		idx.out[e.FromNodeID] = append(idx.out[e.FromNodeID], e)
		idx.in[e.ToNodeID] = append(idx.in[e.ToNodeID], e)
		if seen[e.ToNodeID] == nil {
			seen[e.ToNodeID] = map[string]bool{}
		}
		if !seen[e.ToNodeID][e.FromNodeID] {
			seen[e.ToNodeID][e.FromNodeID] = true
			idx.ins[e.ToNodeID] = append(idx.ins[e.ToNodeID], e.FromNodeID)
		}
	}
	return idx
}

// selectStartNodes implements spec.md §4.6's precedence chain.
func selectStartNodes(group *entity.QueryGroup, idx edgeIndex, explicitStartNodeID string) ([]string, error) {
	if explicitStartNodeID != "" {
		return []string{explicitStartNodeID}, nil
	}
	if len(group.StartNodeIDs) > 0 {
		return append([]string(nil), group.StartNodeIDs...), nil
	}

	var noIncoming []string
	for _, n := range group.Nodes {
		if len(idx.ins[n.ID]) == 0 {
			noIncoming = append(noIncoming, n.ID)
		}
	}

	if len(noIncoming) == 1 || len(group.Nodes) <= 1 {
		if len(noIncoming) == 0 && len(group.Nodes) == 1 {
			return []string{group.Nodes[0].ID}, nil
		}
		return noIncoming, nil
	}
	if len(noIncoming) > 1 {
		sort.Strings(noIncoming)
		return nil, ambiguousStartSet(
			"more than one node has no incoming edges and the group declares no StartNodeIDs: " +
				joinIDs(noIncoming))
	}
	return nil, ambiguousStartSet("no node qualifies as a start node (every node has an incoming edge)")
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}

type traversalState struct {
	mu        sync.Mutex
	results   map[string]NodeResult
	succeeded map[string]bool
	failed    map[string]bool
	order     []string // node ids in completion order, for final-result selection
}

func newTraversalState() *traversalState {
	return &traversalState{
		results:   map[string]NodeResult{},
		succeeded: map[string]bool{},
		failed:    map[string]bool{},
	}
}

func (s *traversalState) recordSuccess(nodeID string, r NodeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[nodeID] = r
	s.succeeded[nodeID] = true
	s.order = append(s.order, nodeID)
}

func (s *traversalState) recordFailure(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[nodeID] = true
	s.order = append(s.order, nodeID)
}

func (s *traversalState) completed(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.succeeded[nodeID] || s.failed[nodeID]
}

func (s *traversalState) get(nodeID string) (NodeResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[nodeID]
	return r, ok
}

// Execute walks group's DAG to completion and returns the final node's
// result per spec.md §4.6's final-result-selection precedence.
func Execute(ctx context.Context, group *entity.QueryGroup, reg *entity.Register, opts Options) (res NodeResult, err error) {
	executionID := uuid.NewString()
	log := slog.With("execution_id", executionID, "group_id", group.ID)
	defer func() {
		if oe, ok := err.(OrchestratorError); ok {
			oe.ExecutionID = executionID
			err = oe
		}
	}()

	idx := buildEdgeIndex(group)
	starts, err := selectStartNodes(group, idx, opts.StartNodeID)
	if err != nil {
		return NodeResult{}, err
	}
	startSet := map[string]bool{}
	for _, id := range starts {
		startSet[id] = true
	}

	nodesByID := map[string]entity.QueryNode{}
	for _, n := range group.Nodes {
		nodesByID[n.ID] = n
	}

	state := newTraversalState()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	remaining := len(group.Nodes)
	queued := map[string]bool{}

	for remaining > 0 {
		ready := readyNodes(group, idx, state, startSet, queued)
		if len(ready) == 0 {
			log.Error("orchestrator: traversal stalled before every node completed, DAG is cyclic")
			return NodeResult{}, cyclicGraph("ready-queue stagnated with nodes still unexecuted: the QueryGroup is not acyclic")
		}
		for _, id := range ready {
			queued[id] = true
		}

		var wg sync.WaitGroup
		errCh := make(chan error, len(ready))
		wg.Add(len(ready))
		for _, nodeID := range ready {
			go func(nodeID string) {
				defer wg.Done()
				node := nodesByID[nodeID]
				res, err := executeNode(ctx, node, reg, idx, state, startSet[nodeID], opts, log)
				if err != nil {
					state.recordFailure(nodeID)
					errCh <- err
					cancel()
					return
				}
				state.recordSuccess(nodeID, res)
			}(nodeID)
		}
		wg.Wait()
		close(errCh)
		remaining -= len(ready)

		// Per-edge transform/validation failures are already absorbed inside
		// assembleArguments (spec.md §7: skip the failed edge, WARN, continue
		// under the union-merge policy, as long as at least one edge
		// succeeds). Anything that still reaches here — a parse error, a
		// BackendError, a TypeMismatch on initial arguments, an unresolved
		// reference, or every incoming edge having failed (reported as the
		// last edge's TypeMismatch when validation failed) — aborts the whole
		// execution, matching spec.md §8 scenario 6's expectation that a
		// hop-level TypeMismatch surfaces to the caller rather than being
		// silently swallowed.
		for err := range errCh {
			cancel()
			return NodeResult{}, err
		}
	}

	return selectFinalResult(group, state)
}

func readyNodes(group *entity.QueryGroup, idx edgeIndex, state *traversalState, startSet map[string]bool, queued map[string]bool) []string {
	var ready []string
	for _, n := range group.Nodes {
		if queued[n.ID] || state.completed(n.ID) {
			continue
		}
		if startSet[n.ID] {
			ready = append(ready, n.ID)
			continue
		}
		allDone := true
		for _, pred := range idx.ins[n.ID] {
			if !state.completed(pred) {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, n.ID)
		}
	}
	sort.Strings(ready)
	return ready
}

func executeNode(
	ctx context.Context,
	node entity.QueryNode,
	reg *entity.Register,
	idx edgeIndex,
	state *traversalState,
	isStart bool,
	opts Options,
	log *slog.Logger,
) (NodeResult, error) {
	q, err := reg.Query(node.QueryID)
	if err != nil {
		return NodeResult{}, err
	}

	merged, err := assembleArguments(node, q, idx, state, isStart, opts)
	if err != nil {
		return NodeResult{}, err
	}

	if q.QueryType == entity.QueryUpdate {
		return NodeResult{}, updateNotAllowed(node.ID)
	}

	ast0, err := parser.Parse(q.QueryText)
	if err != nil {
		return NodeResult{}, err
	}

	argSets := make([]resultset.ArgumentSet, len(q.Parameters))
	for i, group := range q.Parameters {
		vars := make([]string, len(group.Vars))
		for j, p := range group.Vars {
			vars[j] = p.ParamName
		}
		argSets[i] = projectArgumentSet(merged, vars)
	}
	if len(q.Parameters) > 0 && len(merged.Arguments) == 0 {
		log.Warn("orchestrator: query has declared parameters but the assembled argument set is empty",
			"node_id", node.ID, "query_id", q.ID)
	}

	rewritten, err := argapply.Apply(ast0, argSets)
	if err != nil {
		return NodeResult{}, err
	}

	exec := resolveExecutor(node, reg, opts.DefaultExecutor, log)

	result := NodeResult{NodeID: node.ID, QueryType: q.QueryType}
	switch q.QueryType {
	case entity.QuerySelect:
		rs, err := exec.SelectParsed(ctx, rewritten, executor.Options{})
		if err != nil {
			return NodeResult{}, err
		}
		result.Select = rs

	case entity.QueryConstruct, entity.QueryDescribe:
		rdf, err := exec.ConstructParsed(ctx, rewritten, executor.Options{})
		if err != nil {
			return NodeResult{}, err
		}
		result.RDF = rdf

	case entity.QueryAsk:
		b, err := exec.Ask(ctx, rewritten, executor.Options{})
		if err != nil {
			return NodeResult{}, err
		}
		result.Boolean = b

	default:
		return NodeResult{}, unsupportedQueryType(node.ID, string(q.QueryType))
	}

	return result, nil
}

// assembleArguments implements spec.md §4.6 step 1.
func assembleArguments(
	node entity.QueryNode,
	q *entity.StoredQuery,
	idx edgeIndex,
	state *traversalState,
	isStart bool,
	opts Options,
) (resultset.ArgumentSet, error) {
	if isStart && opts.InitialArgs != nil {
		if err := validateArguments(*opts.InitialArgs, q, "initial arguments", node.ID); err != nil {
			return resultset.ArgumentSet{}, err
		}
		return *opts.InitialArgs, nil
	}

	incoming := idx.in[node.ID]
	if len(incoming) == 0 {
		return resultset.ArgumentSet{}, nil
	}

	var sets []resultset.ArgumentSet
	anySucceeded := false
	var lastErr error
	for _, e := range incoming {
		src, ok := state.get(e.FromNodeID)
		if !ok {
			slog.Warn("orchestrator: incoming edge's source produced no result, skipping edge",
				"edge_id", e.ID, "from_node_id", e.FromNodeID, "to_node_id", node.ID)
			continue
		}
		anySucceeded = true
		mappings := make([]argtransform.ParameterMapping, len(e.Mappings))
		for i, m := range e.Mappings {
			mappings[i] = argtransform.ParameterMapping{FromParam: m.FromParam, ToParam: m.ToParam}
		}
		set := argtransform.Transform(src.asResultSet(), mappings)
		if err := validateArguments(set, q, "edge "+e.ID, node.ID); err != nil {
			slog.Warn("orchestrator: incoming edge's arguments failed validation, skipping edge",
				"edge_id", e.ID, "to_node_id", node.ID, "error", err)
			lastErr = err
			continue
		}
		sets = append(sets, set)
	}

	if !anySucceeded {
		return resultset.ArgumentSet{}, OrchestratorError{
			Kind:    "UpstreamFailure",
			Message: "every incoming edge's source node failed; this node cannot be executed",
			NodeID:  node.ID,
		}
	}

	if len(sets) == 0 && lastErr != nil {
		return resultset.ArgumentSet{}, lastErr
	}
	return argtransform.Merge(sets), nil
}

// projectArgumentSet narrows merged down to the variable set a single
// parameter group declares (spec.md §4.6 step 2: "the caller guarantees the
// argument set count equals Q's parameter-group count"). A row's keys
// outside vars are dropped; keys in vars absent from a row remain absent,
// which argapply treats as UNDEF for that position (spec.md §4.4 rule 4).
func projectArgumentSet(merged resultset.ArgumentSet, vars []string) resultset.ArgumentSet {
	out := resultset.ArgumentSet{Head: resultset.Head{Vars: vars}}
	if len(merged.Arguments) == 0 {
		return out
	}
	wanted := make(map[string]bool, len(vars))
	for _, v := range vars {
		wanted[v] = true
	}
	for _, row := range merged.Arguments {
		projected := resultset.Binding{}
		for k, v := range row {
			if wanted[k] {
				projected[k] = v
			}
		}
		out.Arguments = append(out.Arguments, projected)
	}
	return out
}

func resolveExecutor(node entity.QueryNode, reg *entity.Register, defaultExec executor.Executor, log *slog.Logger) executor.Executor {
	if node.BackendID == "" {
		return defaultExec
	}
	backend, err := reg.Backend(node.BackendID)
	if err != nil {
		log.Warn("orchestrator: backend resolution failed, falling back to default executor",
			"node_id", node.ID, "backend_id", node.BackendID, "err", err)
		return defaultExec
	}
	switch backend.BackendType {
	case entity.BackendHTTP:
		return executor.NewHTTP(backend.Endpoint, "", backend.Credentials)
	case entity.BackendOxigraphMemory:
		if mem, ok := defaultExec.(*executor.MemoryExecutor); ok {
			return mem
		}
		log.Warn("orchestrator: no shared in-memory executor available, falling back to default",
			"node_id", node.ID, "backend_id", node.BackendID)
		return defaultExec
	default:
		log.Warn("orchestrator: unknown backend type, falling back to default executor",
			"node_id", node.ID, "backend_type", backend.BackendType)
		return defaultExec
	}
}

// selectFinalResult implements spec.md §4.6's final-result-selection
// precedence.
func selectFinalResult(group *entity.QueryGroup, state *traversalState) (NodeResult, error) {
	executedEnds := filterExecuted(group.EndNodeIDs, state)
	if len(executedEnds) == 1 {
		r, _ := state.get(executedEnds[0])
		return r, nil
	}
	if len(executedEnds) > 1 {
		slog.Warn("orchestrator: multiple declared end nodes executed, selecting the last executed in traversal order",
			"candidates", executedEnds)
		return lastExecutedAmong(executedEnds, state)
	}

	if len(group.EndNodeIDs) == 0 {
		leaves := leafNodeIDs(group)
		executedLeaves := filterExecuted(leaves, state)
		if len(executedLeaves) == 1 {
			r, _ := state.get(executedLeaves[0])
			return r, nil
		}
		if len(executedLeaves) > 1 {
			slog.Warn("orchestrator: multiple leaf nodes executed, selecting the last executed",
				"candidates", executedLeaves)
			return lastExecutedAmong(executedLeaves, state)
		}
	}

	if len(state.order) > 0 {
		slog.Warn("orchestrator: falling back to the last node executed overall for the final result")
		for i := len(state.order) - 1; i >= 0; i-- {
			if r, ok := state.get(state.order[i]); ok {
				return r, nil
			}
		}
	}

	return NodeResult{}, noResult()
}

func filterExecuted(ids []string, state *traversalState) []string {
	var out []string
	for _, id := range ids {
		if _, ok := state.get(id); ok {
			out = append(out, id)
		}
	}
	return out
}

func lastExecutedAmong(ids []string, state *traversalState) (NodeResult, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	for i := len(state.order) - 1; i >= 0; i-- {
		if want[state.order[i]] {
			if r, ok := state.get(state.order[i]); ok {
				return r, nil
			}
		}
	}
	return NodeResult{}, noResult()
}

func leafNodeIDs(group *entity.QueryGroup) []string {
	hasOutgoing := map[string]bool{}
	for _, e := range group.Edges {
		hasOutgoing[e.FromNodeID] = true
	}
	var leaves []string
	for _, n := range group.Nodes {
		if !hasOutgoing[n.ID] {
			leaves = append(leaves, n.ID)
		}
	}
	return leaves
}
