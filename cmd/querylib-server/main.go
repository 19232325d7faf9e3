package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"

	"github.com/recalcitrant/querylib/internal/entity"
	"github.com/recalcitrant/querylib/internal/executor"
	"github.com/recalcitrant/querylib/internal/fixture"
	"github.com/recalcitrant/querylib/internal/orchestrator"
	"github.com/recalcitrant/querylib/internal/resultset"
	"github.com/recalcitrant/querylib/internal/telemetry"
)

var allowedOrigins = []string{
	"http://localhost:5173",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// executeRequest is the /execute POST body: a fixture document defining
// the queries/backends/groups to run against, plus the group and
// (optional) start node and initial arguments to execute.
type executeRequest struct {
	Fixture     fixture.Document       `json:"fixture"`
	GroupID     string                 `json:"group_id"`
	StartNodeID string                 `json:"start_node_id,omitempty"`
	InitialArgs *resultset.ArgumentSet `json:"initial_args,omitempty"`
}

type executeResponse struct {
	NodeID    string               `json:"node_id"`
	QueryType entity.QueryType     `json:"query_type"`
	Select    *resultset.ResultSet `json:"select,omitempty"`
	RDF       string               `json:"rdf,omitempty"`
	Boolean   *bool                `json:"boolean,omitempty"`
}

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	flag.Parse()

	telemetry.SetUp()

	store := executor.NewMapStore()
	defaultExec := executor.NewMemory(store)

	mux := http.NewServeMux()

	mux.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.GroupID == "" {
			writeError(w, http.StatusBadRequest, "missing field: group_id")
			return
		}

		docBytes, err := json.Marshal(req.Fixture)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		reg, err := fixture.Load(bytes.NewReader(docBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid fixture: %v", err))
			return
		}

		group, err := reg.Group(req.GroupID)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		res, err := orchestrator.Execute(r.Context(), group, reg, orchestrator.Options{
			InitialArgs:     req.InitialArgs,
			StartNodeID:     req.StartNodeID,
			DefaultExecutor: defaultExec,
		})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		resp := executeResponse{NodeID: res.NodeID, QueryType: res.QueryType}
		switch res.QueryType {
		case entity.QuerySelect:
			resp.Select = &res.Select
		case entity.QueryConstruct, entity.QueryDescribe:
			resp.RDF = res.RDF
		case entity.QueryAsk:
			resp.Boolean = &res.Boolean
		}
		writeJSON(w, http.StatusOK, resp)
	})

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("querylib server listening on %s\n", addr)
	if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
		fmt.Fprintf(flag.CommandLine.Output(), "server error: %v\n", err)
	}
}
