package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/biolattice/phagegrid/pkg/model"
	"github.com/biolattice/phagegrid/pkg/workspace"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	ws := workspace.New()
	ws.LoadDataset(&model.Dataset{
		Headers: []string{"T4", "Lambda"},
		Leaves: []model.Leaf{
			{Name: "ecoli", Values: []int{1, 0}},
			{Name: "subtilis", Values: []int{0, 1}},
		},
	})
	s := NewServer(ws)
	t.Cleanup(func() { s.Close() })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestTreeEndpoint(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, "GET", "/api/tree", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/tree = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Version int             `json:"version"`
		Tree    *model.TreeNode `json:"tree"`
		MaxX    float64         `json:"maxX"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Tree == nil || resp.Tree.Name != "Bacteria" {
		t.Errorf("Unexpected tree: %+v", resp.Tree)
	}
	if resp.MaxX == 0 {
		t.Error("Expected a non-zero canvas extent")
	}
}

func TestClusterLifecycle(t *testing.T) {
	s := testServer(t)

	if rec := do(t, s, "POST", "/api/clusters", `{"name":"Gut"}`); rec.Code != http.StatusCreated {
		t.Fatalf("Add cluster = %d: %s", rec.Code, rec.Body)
	}
	// Duplicate name conflicts.
	if rec := do(t, s, "POST", "/api/clusters", `{"name":"Gut"}`); rec.Code != http.StatusConflict {
		t.Errorf("Duplicate add = %d, want 409", rec.Code)
	}
	if rec := do(t, s, "PUT", "/api/bacteria/ecoli/cluster", `{"cluster":"Gut"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("Assign = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, s, "DELETE", "/api/clusters/Gut", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("Delete = %d: %s", rec.Code, rec.Body)
	}
	// Root is protected.
	if rec := do(t, s, "DELETE", "/api/clusters/Root", ""); rec.Code != http.StatusForbidden {
		t.Errorf("Delete Root = %d, want 403", rec.Code)
	}
}

func TestReparentCycleStatus(t *testing.T) {
	s := testServer(t)
	do(t, s, "POST", "/api/clusters", `{"name":"X"}`)
	do(t, s, "POST", "/api/clusters", `{"name":"Y","parent":"X"}`)

	rec := do(t, s, "PUT", "/api/clusters/X/parent", `{"parent":"Y"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Cycle reparent = %d, want 422: %s", rec.Code, rec.Body)
	}
}

func TestQueryEndpoint(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, "POST", "/api/query", `{"selection":["Root"],"mode":"cluster"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Query = %d: %s", rec.Code, rec.Body)
	}
	var result map[string][]model.Contributor
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result["T4"]) != 1 || result["T4"][0].Leaf != "ecoli" {
		t.Errorf("T4 contributors = %v", result["T4"])
	}
	if len(result["Lambda"]) != 1 || result["Lambda"][0].Leaf != "subtilis" {
		t.Errorf("Lambda contributors = %v", result["Lambda"])
	}
}

func TestSessionEndpoints(t *testing.T) {
	s := testServer(t)
	do(t, s, "POST", "/api/clusters", `{"name":"Gut"}`)

	rec := do(t, s, "GET", "/api/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Export = %d", rec.Code)
	}
	exported := rec.Body.String()

	if rec := do(t, s, "POST", "/api/session", exported); rec.Code != http.StatusNoContent {
		t.Fatalf("Import = %d: %s", rec.Code, rec.Body)
	}
	// Missing required fields are rejected.
	if rec := do(t, s, "POST", "/api/session", `{"allClusters":[]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Invalid import = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestDatasetUpload(t *testing.T) {
	s := testServer(t)

	body := `{"headers":["P1"],"leaves":[{"name":"x","values":[1]}]}`
	rec := do(t, s, "POST", "/api/dataset", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Dataset upload = %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, s, "GET", "/api/tree", "")
	if !strings.Contains(rec.Body.String(), `"x"`) {
		t.Errorf("New dataset leaf missing from tree: %s", rec.Body)
	}
}

func TestReorderEndpointValidatesDirection(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, "POST", "/api/clusters/Root/bacteria/ecoli/reorder", `{"direction":"sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Bad direction = %d, want 400", rec.Code)
	}
	rec = do(t, s, "POST", "/api/clusters/Root/bacteria/subtilis/reorder", `{"direction":"earlier"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Reorder = %d: %s", rec.Code, rec.Body)
	}
}
