// Package web exposes the workspace over HTTP: every mutation, the
// built tree with its layout, the aggregation queries, session
// import/export, and an SSE feed announcing rebuilds.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/biolattice/phagegrid/pkg/logging"
	"github.com/biolattice/phagegrid/pkg/pubsub"
	"github.com/biolattice/phagegrid/pkg/workspace"
)

//go:embed static/*
var staticFiles embed.FS

// Server wires the workspace and the event broker into a router.
type Server struct {
	router *mux.Router
	ws     *workspace.Workspace
	broker *pubsub.Broker
}

// NewServer creates the server and registers all routes.
func NewServer(ws *workspace.Workspace) *Server {
	broker := pubsub.NewBroker()
	ws.SetNotifier(broker)

	s := &Server{
		router: mux.NewRouter(),
		ws:     ws,
		broker: broker,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/subscribe/tree", s.handleSubscribeTree).Methods("GET")

	api.HandleFunc("/tree", s.handleTree).Methods("GET")
	api.HandleFunc("/dataset", s.handleLoadDataset).Methods("POST")

	api.HandleFunc("/clusters", s.handleListClusters).Methods("GET")
	api.HandleFunc("/clusters", s.handleAddCluster).Methods("POST")
	api.HandleFunc("/clusters/{name}", s.handleDeleteCluster).Methods("DELETE")
	api.HandleFunc("/clusters/{name}/parent", s.handleSetParent).Methods("PUT")
	api.HandleFunc("/clusters/{name}/visible", s.handleClusterVisible).Methods("PUT")
	api.HandleFunc("/clusters/{name}/features", s.handleClusterFeatures).Methods("GET")
	api.HandleFunc("/clusters/{name}/bacteria/{leaf}/reorder", s.handleReorderLeaf).Methods("POST")
	api.HandleFunc("/clusters/{name}/children/{child}/reorder", s.handleReorderChild).Methods("POST")

	api.HandleFunc("/bacteria/{name}/cluster", s.handleAssignLeaf).Methods("PUT")
	api.HandleFunc("/phages/{name}/visible", s.handlePhageVisible).Methods("PUT")

	api.HandleFunc("/query", s.handleQuery).Methods("POST")

	api.HandleFunc("/session", s.handleExportSession).Methods("GET")
	api.HandleFunc("/session", s.handleImportSession).Methods("POST")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Error("embedded static files missing", "error", err)
		return
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Handler returns the router wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// ListenAndServe blocks serving HTTP on the given port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Close shuts down the event broker.
func (s *Server) Close() error {
	return s.broker.Close()
}

func (s *Server) handleSubscribeTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Establish the stream before the first event (Safari compatibility).
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.broker.Subscribe(r.Context(), workspace.TreeTopic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.Debug("SSE client gone", "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}
