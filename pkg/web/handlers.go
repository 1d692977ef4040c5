package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/biolattice/phagegrid/pkg/aggregate"
	"github.com/biolattice/phagegrid/pkg/assignment"
	"github.com/biolattice/phagegrid/pkg/dataset"
	"github.com/biolattice/phagegrid/pkg/hierarchy"
	"github.com/biolattice/phagegrid/pkg/model"
	"github.com/biolattice/phagegrid/pkg/session"
)

// treeResponse bundles everything a client needs to draw one frame.
type treeResponse struct {
	Version int         `json:"version"`
	Tree    interface{} `json:"tree"` // nil until a dataset is loaded
	MaxX    float64     `json:"maxX"`
	MaxY    float64     `json:"maxY"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	ext := s.ws.Extent()
	resp := treeResponse{
		Version: s.ws.Version(),
		MaxX:    ext.MaxX,
		MaxY:    ext.MaxY,
	}
	if t := s.ws.Tree(); t != nil {
		resp.Tree = t
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	parsed, err := parseDatasetBody(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	s.ws.LoadDataset(parsed)
	writeJSON(w, http.StatusOK, map[string]int{"leaves": len(parsed.Leaves), "phages": len(parsed.Headers)})
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Clusters())
}

func (s *Server) handleAddCluster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Parent string `json:"parent"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ws.AddCluster(req.Name, req.Parent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleDeleteCluster(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteCluster(mux.Vars(r)["name"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetParent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Parent string `json:"parent"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ws.SetParent(mux.Vars(r)["name"], req.Parent); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClusterVisible(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.ws.SetClusterVisible(mux.Vars(r)["name"], req.Visible)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePhageVisible(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.ws.SetPhageVisible(mux.Vars(r)["name"], req.Visible)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssignLeaf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cluster string `json:"cluster"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.ws.AssignLeaf(mux.Vars(r)["name"], req.Cluster); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderLeaf(w http.ResponseWriter, r *http.Request) {
	dir, ok := decodeDirection(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	s.ws.ReorderLeaf(vars["name"], vars["leaf"], dir)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderChild(w http.ResponseWriter, r *http.Request) {
	dir, ok := decodeDirection(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	s.ws.ReorderChild(vars["name"], vars["child"], dir)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClusterFeatures(w http.ResponseWriter, r *http.Request) {
	fm := s.ws.FeatureMap(mux.Vars(r)["name"])
	if fm == nil {
		writeJSON(w, http.StatusOK, aggregate.FeatureMap{})
		return
	}
	writeJSON(w, http.StatusOK, fm)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selection []string `json:"selection"`
		Mode      string   `json:"mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	mode := aggregate.ByCluster
	if req.Mode == string(aggregate.ByPhage) {
		mode = aggregate.ByPhage
	}
	writeJSON(w, http.StatusOK, s.ws.Query(req.Selection, mode))
}

func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	data, err := session.Encode(s.ws.Export())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleImportSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := session.Decode(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ws.Import(snap); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDatasetBody(contentType string, body []byte) (*model.Dataset, error) {
	if strings.Contains(contentType, "text/csv") {
		return dataset.FromCSV(strings.NewReader(string(body)))
	}
	return dataset.FromJSON(body)
}

func decodeDirection(w http.ResponseWriter, r *http.Request) (assignment.Direction, bool) {
	var req struct {
		Direction string `json:"direction"`
	}
	if !decodeBody(w, r, &req) {
		return 0, false
	}
	switch req.Direction {
	case "earlier", "up":
		return assignment.Earlier, true
	case "later", "down":
		return assignment.Later, true
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "direction must be \"earlier\" or \"later\"",
		})
		return 0, false
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the typed validation errors onto HTTP statuses. All of
// them are user-recoverable; none kill the server.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	var (
		dup     *hierarchy.DuplicateNameError
		prot    *hierarchy.ProtectedNodeError
		cyc     *hierarchy.CycleError
		invalid *session.InvalidSessionError
	)
	switch {
	case errors.As(err, &dup):
		status = http.StatusConflict
	case errors.As(err, &prot):
		status = http.StatusForbidden
	case errors.As(err, &cyc):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
