package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/randalmurphal/ragflow/pkg/ragflow"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
)

// ExecuteRequest is the body of POST /api/workflows/execute.
// Nodes and edges may be given at the top level or inside workflow_config.
type ExecuteRequest struct {
	Nodes          json.RawMessage     `json:"nodes"`
	Edges          json.RawMessage     `json:"edges"`
	WorkflowConfig *workflowConfig     `json:"workflow_config"`
	Query          *string             `json:"query"`
	NodeConfigs    ragflow.NodeConfigs `json:"node_configs"`
}

type workflowConfig struct {
	Nodes json.RawMessage `json:"nodes"`
	Edges json.RawMessage `json:"edges"`
}

// ExecuteResponse is the body returned by a workflow execution.
type ExecuteResponse struct {
	Response string `json:"response"`
}

// ValidateRequest is the body of POST /api/workflows/validate.
type ValidateRequest struct {
	Nodes json.RawMessage `json:"nodes"`
	Edges json.RawMessage `json:"edges"`
}

// IndexRequest is the body of POST /api/documents/index.
type IndexRequest struct {
	CollectionName    string `json:"collection_name"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingModel    string `json:"embedding_model"`
	APIKey            string `json:"api_key"`
	Source            string `json:"source"`
	Text              string `json:"text"`
}

// IndexResponse reports how many chunks were stored.
type IndexResponse struct {
	CollectionName string `json:"collection_name"`
	Chunks         int    `json:"chunks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}

	nodesJSON, edgesJSON := req.Nodes, req.Edges
	if req.WorkflowConfig != nil && len(nodesJSON) == 0 {
		nodesJSON, edgesJSON = req.WorkflowConfig.Nodes, req.WorkflowConfig.Edges
	}

	nodes, edges, err := parseGraph(nodesJSON, edgesJSON)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	configs := req.NodeConfigs
	if configs == nil {
		configs = ragflow.NodeConfigsFromNodes(nodes)
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	response := s.engine.Execute(ctx, nodes, edges, *req.Query, configs)
	outcome := "ok"
	if strings.HasPrefix(response, ragflow.ErrorPrefix) {
		outcome = "error"
	}
	s.metrics.executions.WithLabelValues(outcome).Inc()

	s.writeJSON(w, http.StatusOK, ExecuteResponse{Response: response})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	nodes, edges, err := parseGraph(req.Nodes, req.Edges)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ragflow.Validate(nodes, edges))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("document indexing is not configured"))
		return
	}

	var req IndexRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.CollectionName == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("collection_name is required"))
		return
	}

	n, err := s.indexer.Index(r.Context(), retrieval.IndexRequest{
		Collection:        req.CollectionName,
		EmbeddingProvider: req.EmbeddingProvider,
		EmbeddingModel:    req.EmbeddingModel,
		APIKey:            req.APIKey,
		Source:            req.Source,
		Text:              req.Text,
	})
	if err != nil {
		s.logger.Error("index failed",
			slog.String("collection", req.CollectionName),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	s.writeJSON(w, http.StatusOK, IndexResponse{CollectionName: req.CollectionName, Chunks: n})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "ragflow"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// parseGraph parses raw node and edge arrays. Absent arrays are empty.
func parseGraph(nodesJSON, edgesJSON json.RawMessage) ([]ragflow.Node, []ragflow.Edge, error) {
	if len(nodesJSON) == 0 {
		nodesJSON = json.RawMessage("[]")
	}
	if len(edgesJSON) == 0 {
		edgesJSON = json.RawMessage("[]")
	}
	nodes, err := ragflow.ParseNodes(nodesJSON)
	if err != nil {
		return nil, nil, err
	}
	edges, err := ragflow.ParseEdges(edgesJSON)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
