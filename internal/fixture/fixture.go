// Package fixture loads QueryGroup/StoredQuery/Backend fixtures from JSON
// documents into an entity.Register, for the cmd/querylib-cli and
// cmd/querylib-server demo entry points. entity's own types carry no JSON
// tags (spec.md §9: entities are stored/retrieved through the register, not
// serialized directly), so this package is the one place that owns the
// wire shape of a fixture document and converts it into entity values.
package fixture

import (
	"encoding/json"
	"io"

	"github.com/recalcitrant/querylib/internal/entity"
)

// Document is the top-level shape of a fixture file: a flat set of
// queries, backends, and groups, loaded together into one Register.
type Document struct {
	Queries  []StoredQuery `json:"queries"`
	Backends []Backend     `json:"backends"`
	Groups   []QueryGroup  `json:"groups"`
}

type QueryParameter struct {
	ParamName    string   `json:"param_name"`
	AllowedTypes []string `json:"allowed_types"`
}

type QueryParameterGroup struct {
	Vars []QueryParameter `json:"vars"`
}

type StoredQuery struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	QueryText          string                `json:"query_text"`
	QueryType          string                `json:"query_type"`
	Parameters         []QueryParameterGroup `json:"parameters"`
	OutputVars         []string              `json:"output_vars"`
	HasLimitParameter  bool                  `json:"has_limit_parameter"`
	HasOffsetParameter bool                  `json:"has_offset_parameter"`
	DefaultBackendID   string                `json:"default_backend_id"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Backend struct {
	ID          string       `json:"id"`
	BackendType string       `json:"backend_type"`
	Endpoint    string       `json:"endpoint"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

type QueryNode struct {
	ID        string `json:"id"`
	QueryID   string `json:"query_id"`
	BackendID string `json:"backend_id,omitempty"`
}

type ParameterMapping struct {
	FromParam string `json:"from_param"`
	ToParam   string `json:"to_param"`
}

type QueryEdge struct {
	ID         string             `json:"id"`
	FromNodeID string             `json:"from_node_id"`
	ToNodeID   string             `json:"to_node_id"`
	Mappings   []ParameterMapping `json:"mappings"`
}

type QueryGroup struct {
	ID           string      `json:"id"`
	Nodes        []QueryNode `json:"nodes"`
	Edges        []QueryEdge `json:"edges"`
	StartNodeIDs []string    `json:"start_node_ids,omitempty"`
	EndNodeIDs   []string    `json:"end_node_ids,omitempty"`
}

// Load decodes a Document from r and populates a fresh Register with it.
func Load(r io.Reader) (*entity.Register, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	reg := entity.NewRegister()
	for _, q := range doc.Queries {
		reg.PutQuery(q.toEntity())
	}
	for _, b := range doc.Backends {
		reg.PutBackend(b.toEntity())
	}
	for _, g := range doc.Groups {
		reg.PutGroup(g.toEntity())
	}
	return reg, nil
}

func (q StoredQuery) toEntity() *entity.StoredQuery {
	params := make([]entity.QueryParameterGroup, len(q.Parameters))
	for i, pg := range q.Parameters {
		vars := make([]entity.QueryParameter, len(pg.Vars))
		for j, v := range pg.Vars {
			vars[j] = entity.QueryParameter{ParamName: v.ParamName, AllowedTypes: v.AllowedTypes}
		}
		params[i] = entity.QueryParameterGroup{Vars: vars}
	}
	return &entity.StoredQuery{
		ID:                 q.ID,
		Name:               q.Name,
		QueryText:          q.QueryText,
		QueryType:          entity.QueryType(q.QueryType),
		Parameters:         params,
		OutputVars:         q.OutputVars,
		HasLimitParameter:  q.HasLimitParameter,
		HasOffsetParameter: q.HasOffsetParameter,
		DefaultBackendID:   q.DefaultBackendID,
	}
}

func (b Backend) toEntity() *entity.Backend {
	var creds *entity.Credentials
	if b.Credentials != nil {
		creds = &entity.Credentials{Username: b.Credentials.Username, Password: b.Credentials.Password}
	}
	return &entity.Backend{
		ID:          b.ID,
		BackendType: entity.BackendType(b.BackendType),
		Endpoint:    b.Endpoint,
		Credentials: creds,
	}
}

func (g QueryGroup) toEntity() *entity.QueryGroup {
	nodes := make([]entity.QueryNode, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = entity.QueryNode{ID: n.ID, QueryID: n.QueryID, BackendID: n.BackendID}
	}
	edges := make([]entity.QueryEdge, len(g.Edges))
	for i, e := range g.Edges {
		mappings := make([]entity.ParameterMapping, len(e.Mappings))
		for j, m := range e.Mappings {
			mappings[j] = entity.ParameterMapping{FromParam: m.FromParam, ToParam: m.ToParam}
		}
		edges[i] = entity.QueryEdge{ID: e.ID, FromNodeID: e.FromNodeID, ToNodeID: e.ToNodeID, Mappings: mappings}
	}
	return &entity.QueryGroup{
		ID:           g.ID,
		Nodes:        nodes,
		Edges:        edges,
		StartNodeIDs: g.StartNodeIDs,
		EndNodeIDs:   g.EndNodeIDs,
	}
}
