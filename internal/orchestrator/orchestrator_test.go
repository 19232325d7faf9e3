package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recalcitrant/querylib/internal/entity"
	"github.com/recalcitrant/querylib/internal/executor"
	"github.com/recalcitrant/querylib/internal/term"
)

func seedSocialGraph(t *testing.T) executor.Store {
	t.Helper()
	s := executor.NewMapStore()
	quads := []executor.Quad{
		{S: term.IRI("http://ex/alice"), P: term.IRI("http://ex/knows"), O: term.IRI("http://ex/bob")},
		{S: term.IRI("http://ex/alice"), P: term.IRI("http://ex/knows"), O: term.IRI("http://ex/carol")},
		{S: term.IRI("http://ex/bob"), P: term.IRI("http://ex/knows"), O: term.IRI("http://ex/dave")},
	}
	for _, q := range quads {
		require.NoError(t, s.Add(q))
	}
	return s
}

// buildChainGroup wires two nodes: node1 finds alice's direct friends, node2
// looks up who those friends know, via a ParameterMapping from node1's
// "friend" output to node2's "person" VALUES parameter.
func buildChainGroup(t *testing.T, personAllowedTypes []string) (*entity.Register, *entity.QueryGroup) {
	t.Helper()
	reg := entity.NewRegister()

	q1 := &entity.StoredQuery{
		ID:         "q1",
		QueryType:  entity.QuerySelect,
		QueryText:  `SELECT ?friend WHERE { <http://ex/alice> <http://ex/knows> ?friend }`,
		OutputVars: []string{"friend"},
	}
	q2 := &entity.StoredQuery{
		ID:        "q2",
		QueryType: entity.QuerySelect,
		QueryText: `SELECT ?x WHERE { VALUES ?person { UNDEF } . ?person <http://ex/knows> ?x }`,
		Parameters: []entity.QueryParameterGroup{
			{Vars: []entity.QueryParameter{{ParamName: "person", AllowedTypes: personAllowedTypes}}},
		},
		OutputVars: []string{"x"},
	}
	reg.PutQuery(q1)
	reg.PutQuery(q2)

	group := &entity.QueryGroup{
		ID: "chain",
		Nodes: []entity.QueryNode{
			{ID: "node1", QueryID: "q1"},
			{ID: "node2", QueryID: "q2"},
		},
		Edges: []entity.QueryEdge{
			{
				ID: "e1", FromNodeID: "node1", ToNodeID: "node2",
				Mappings: []entity.ParameterMapping{{FromParam: "friend", ToParam: "person"}},
			},
		},
		EndNodeIDs: []string{"node2"},
	}
	reg.PutGroup(group)
	return reg, group
}

func TestExecute_ChainedGroupPartialMapping(t *testing.T) {
	reg, group := buildChainGroup(t, []string{"uri"})
	exec := executor.NewMemory(seedSocialGraph(t))

	res, err := Execute(context.Background(), group, reg, Options{DefaultExecutor: exec})
	require.NoError(t, err)
	assert.Equal(t, "node2", res.NodeID)
	require.NotNil(t, res.Select.Results)

	got := map[string]bool{}
	for _, b := range res.Select.Results.Bindings {
		got[b["x"].Value] = true
	}
	// alice knows bob and carol; only bob knows anyone further (dave).
	assert.True(t, got["http://ex/dave"], "expected dave to be reachable through bob")
	assert.Len(t, res.Select.Results.Bindings, 1)
}

func TestExecute_HopLevelTypeMismatchSurfaces(t *testing.T) {
	// node2 only accepts literal-typed "person" arguments, but node1's
	// "friend" output is always a uri — the only incoming edge's argument set
	// must fail validation at the hop, and that error must reach the caller directly
	// rather than being swallowed into a generic NoResult.
	reg, group := buildChainGroup(t, []string{"literal"})
	exec := executor.NewMemory(seedSocialGraph(t))

	_, err := Execute(context.Background(), group, reg, Options{DefaultExecutor: exec})
	require.Error(t, err)
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "person", mismatch.ParamName)
	assert.Equal(t, "uri", mismatch.Got)
}

func TestExecute_SingleNodeNoParameters(t *testing.T) {
	reg := entity.NewRegister()
	q := &entity.StoredQuery{
		ID:         "only",
		QueryType:  entity.QuerySelect,
		QueryText:  `SELECT ?friend WHERE { <http://ex/alice> <http://ex/knows> ?friend }`,
		OutputVars: []string{"friend"},
	}
	reg.PutQuery(q)
	group := &entity.QueryGroup{
		ID:    "single",
		Nodes: []entity.QueryNode{{ID: "n1", QueryID: "only"}},
	}
	reg.PutGroup(group)

	exec := executor.NewMemory(seedSocialGraph(t))
	res, err := Execute(context.Background(), group, reg, Options{DefaultExecutor: exec})
	require.NoError(t, err)
	assert.Equal(t, "n1", res.NodeID)
	assert.Len(t, res.Select.Results.Bindings, 2)
}

func TestExecute_AmbiguousStartSet(t *testing.T) {
	reg := entity.NewRegister()
	q := &entity.StoredQuery{ID: "q", QueryType: entity.QueryAsk, QueryText: `ASK { <http://ex/alice> <http://ex/knows> <http://ex/bob> }`}
	reg.PutQuery(q)
	group := &entity.QueryGroup{
		ID: "disconnected",
		Nodes: []entity.QueryNode{
			{ID: "a", QueryID: "q"},
			{ID: "b", QueryID: "q"},
		},
	}
	reg.PutGroup(group)

	exec := executor.NewMemory(seedSocialGraph(t))
	_, err := Execute(context.Background(), group, reg, Options{DefaultExecutor: exec})
	require.Error(t, err)
	var oerr OrchestratorError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "AmbiguousStartSet", oerr.Kind)
}

func TestExecute_UpdateNodeRejected(t *testing.T) {
	reg := entity.NewRegister()
	q := &entity.StoredQuery{ID: "u", QueryType: entity.QueryUpdate, QueryText: `INSERT DATA { <http://ex/x> <http://ex/y> <http://ex/z> }`}
	reg.PutQuery(q)
	group := &entity.QueryGroup{
		ID:    "updategroup",
		Nodes: []entity.QueryNode{{ID: "n1", QueryID: "u"}},
	}
	reg.PutGroup(group)

	exec := executor.NewMemory(executor.NewMapStore())
	_, err := Execute(context.Background(), group, reg, Options{DefaultExecutor: exec})
	require.Error(t, err)
	var oerr OrchestratorError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "UpdateNotAllowed", oerr.Kind)
}
