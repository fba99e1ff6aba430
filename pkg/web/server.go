package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ritzau/archmodel/pkg/logging"
	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/project"
	"github.com/ritzau/archmodel/pkg/pubsub"
	"github.com/ritzau/archmodel/pkg/session"
	"github.com/ritzau/archmodel/pkg/store"
)

// StateResponse is the full editor state as served by GET /api/state
type StateResponse struct {
	project.File
	Revision           int         `json:"revision"`
	SelectedNodeID     string      `json:"selectedNodeId,omitempty"`
	SelectedEdgeID     string      `json:"selectedEdgeId,omitempty"`
	SelectedPropertyID string      `json:"selectedPropertyId,omitempty"`
	Clipboard          *model.Node `json:"clipboard,omitempty"`
}

// MutationResponse is returned by every operation endpoint. Rejected
// operations are not errors: Changed is simply false.
type MutationResponse struct {
	Changed  bool   `json:"changed"`
	Revision int    `json:"revision"`
	ID       string `json:"id,omitempty"` // Id created by the operation, if any
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	session   *session.Session
	publisher pubsub.Publisher
}

// NewServer creates a web server over an editing session. The publisher is
// the one the session publishes to.
func NewServer(sess *session.Session, publisher pubsub.Publisher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		session:   sess,
		publisher: publisher,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the request logging middleware
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	r := s.router.PathPrefix("/api").Subrouter()

	// SSE subscription endpoint
	r.HandleFunc("/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// Read-only views
	r.HandleFunc("/state", s.handleState).Methods("GET")
	r.HandleFunc("/summary", s.handleSummary).Methods("GET")
	r.HandleFunc("/script", s.handleScript).Methods("GET")
	r.HandleFunc("/analysis", s.handleAnalysis).Methods("GET")
	r.HandleFunc("/classes", s.handleClasses).Methods("GET")

	// Session
	r.HandleFunc("/undo", s.handleUndo).Methods("POST")
	r.HandleFunc("/redo", s.handleRedo).Methods("POST")
	r.HandleFunc("/save", s.handleSave).Methods("POST")
	r.HandleFunc("/project", s.handleProjectMetadata).Methods("PUT")

	// Graph - more specific routes must come first
	r.HandleFunc("/graph", s.handleLoadGraph).Methods("PUT")
	r.HandleFunc("/canvas/clear", s.handleClearCanvas).Methods("POST")
	r.HandleFunc("/nodes", s.handleAddNode).Methods("POST")
	r.HandleFunc("/nodes/changes", s.handleNodeChanges).Methods("POST")
	r.HandleFunc("/nodes/{id}", s.handleUpdateNode).Methods("PATCH")
	r.HandleFunc("/nodes/{id}", s.handleDeleteNode).Methods("DELETE")
	r.HandleFunc("/nodes/{id}/label", s.handleNodeLabel).Methods("PUT")
	r.HandleFunc("/nodes/{id}/zindex", s.handleNodeZIndex).Methods("PUT")
	r.HandleFunc("/nodes/{id}/lock", s.handleToggleLock).Methods("POST")
	r.HandleFunc("/nodes/{id}/parent", s.handleReparent).Methods("PUT")
	r.HandleFunc("/nodes/{id}/duplicate", s.handleDuplicate).Methods("POST")
	r.HandleFunc("/nodes/{id}/properties", s.handleLinkProperty).Methods("POST")
	r.HandleFunc("/nodes/{id}/properties/new", s.handleCreateProperty).Methods("POST")
	r.HandleFunc("/nodes/{id}/properties/{propertyId}", s.handleUnlinkProperty).Methods("DELETE")
	r.HandleFunc("/edges", s.handleConnect).Methods("POST")
	r.HandleFunc("/edges/changes", s.handleEdgeChanges).Methods("POST")
	r.HandleFunc("/edges/{id}", s.handleUpdateEdge).Methods("PATCH")

	// Selection and clipboard
	r.HandleFunc("/selection", s.handleSelect).Methods("PUT")
	r.HandleFunc("/selection/delete", s.handleDeleteSelection).Methods("POST")
	r.HandleFunc("/selection/align", s.handleAlign).Methods("POST")
	r.HandleFunc("/selection/distribute", s.handleDistribute).Methods("POST")
	r.HandleFunc("/clipboard/copy", s.handleCopy).Methods("POST")
	r.HandleFunc("/clipboard/paste", s.handlePaste).Methods("POST")

	// Ontology
	r.HandleFunc("/properties", s.handleAddProperty).Methods("POST")
	r.HandleFunc("/properties/{id}", s.handleUpdateProperty).Methods("PATCH")
	r.HandleFunc("/properties/{id}", s.handleDeleteProperty).Methods("DELETE")
	r.HandleFunc("/properties/{id}/rename", s.handleRenameProperty).Methods("POST")
	r.HandleFunc("/lists", s.handleAddList).Methods("POST")
	r.HandleFunc("/lists/{id}", s.handleUpdateList).Methods("PATCH")
	r.HandleFunc("/lists/{id}", s.handleDeleteList).Methods("DELETE")
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicProject && topic != pubsub.TopicActivity {
		http.Error(w, fmt.Sprintf("Unknown topic: %s", topic), http.StatusNotFound)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	// Stream events
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
				return
			}
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	revision := s.session.Revision()
	s.session.View(func(st *model.State) {
		resp := StateResponse{
			File:               project.FromState(st),
			SelectedNodeID:     st.SelectedNodeID,
			SelectedEdgeID:     st.SelectedEdgeID,
			SelectedPropertyID: st.SelectedPropertyID,
			Clipboard:          st.Clipboard,
			Revision:           revision,
		}
		// Encode while holding the session so the tree cannot change underneath
		data, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Summary())
}

// handleScript serves the compiled script. ?timestamp=1 stamps the header
// with the generation time.
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	var generatedAt time.Time
	if r.URL.Query().Get("timestamp") != "" {
		generatedAt = time.Now()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.session.Script(generatedAt))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Analysis())
}

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	var classes []string
	s.session.View(func(st *model.State) {
		classes = store.New(st, nil).AvailableClasses()
	})
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	changed := s.session.Undo(r.Context())
	writeJSON(w, http.StatusOK, MutationResponse{Changed: changed, Revision: s.session.Revision()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	changed := s.session.Redo(r.Context())
	writeJSON(w, http.StatusOK, MutationResponse{Changed: changed, Revision: s.session.Revision()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	err := s.session.Save(r.Context())
	if errors.Is(err, session.ErrNoProjectFile) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		logging.ErrorContext(r.Context(), "failed to save project", "error", err)
		http.Error(w, "Failed to save project", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Summary())
}

// apply runs one store operation through the session and reports the outcome
func (s *Server) apply(w http.ResponseWriter, r *http.Request, op string, fn func(*store.Store)) {
	changed := s.session.Apply(r.Context(), op, fn)
	writeJSON(w, http.StatusOK, MutationResponse{Changed: changed, Revision: s.session.Revision()})
}

// applyCreate is apply for operations that return the id they created
func (s *Server) applyCreate(w http.ResponseWriter, r *http.Request, op string, fn func(*store.Store) string) {
	var id string
	changed := s.session.Apply(r.Context(), op, func(st *store.Store) { id = fn(st) })
	writeJSON(w, http.StatusOK, MutationResponse{Changed: changed, Revision: s.session.Revision(), ID: id})
}

// decode reads the JSON request body into v, answering 400 on failure
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// Start serves on the given port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end with ctx
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("server shutdown failed", "error", err)
		}
	}()

	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}
