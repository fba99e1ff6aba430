package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/archmodel/pkg/analysis"
	"github.com/ritzau/archmodel/pkg/idgen"
	"github.com/ritzau/archmodel/pkg/logging"
	"github.com/ritzau/archmodel/pkg/pubsub"
	"github.com/ritzau/archmodel/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	pub := pubsub.NewSSEPublisher()
	pub.ConfigureSessionTopics(10)
	t.Cleanup(func() { pub.Close() })

	sess := session.New(nil, "", session.Options{IDs: idgen.NewSequence(), Publisher: pub})
	return NewServer(sess, pub)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mutation(t *testing.T, rec *httptest.ResponseRecorder) MutationResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp MutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad mutation response: %v", err)
	}
	return resp
}

func seedRiskModel(t *testing.T, h http.Handler) {
	t.Helper()
	mutation(t, do(t, h, "POST", "/api/nodes", `{"id":"risk","type":"entity","position":{"x":0,"y":0},"data":{"label":"Risk","className":"CeRisk"}}`))
	mutation(t, do(t, h, "POST", "/api/nodes", `{"id":"control","type":"entity","position":{"x":300,"y":0},"data":{"label":"Control","className":"CeControl"}}`))
}

func TestOperationsFlowIntoScript(t *testing.T) {
	h := newTestServer(t).Handler()
	seedRiskModel(t, h)

	resp := mutation(t, do(t, h, "POST", "/api/edges", `{"source":"risk","target":"control"}`))
	if !resp.Changed || resp.ID == "" {
		t.Fatalf("Expected connect to create an edge, got %+v", resp)
	}

	rec := do(t, h, "GET", "/api/script", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("Unexpected script response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "c.get(CeRisk.name).link(_refcecontrol)") {
		t.Errorf("Expected link statement in script:\n%s", rec.Body.String())
	}

	rec = do(t, h, "GET", "/api/state", "")
	var state StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("Bad state response: %v", err)
	}
	if len(state.Nodes) != 2 || len(state.Edges) != 1 || state.Revision != 3 {
		t.Errorf("Unexpected state: %d nodes, %d edges, revision %d", len(state.Nodes), len(state.Edges), state.Revision)
	}
}

func TestNoOpIsNotAnError(t *testing.T) {
	h := newTestServer(t).Handler()
	seedRiskModel(t, h)

	resp := mutation(t, do(t, h, "POST", "/api/nodes", `{"id":"risk","type":"entity","data":{"label":"Again"}}`))
	if resp.Changed {
		t.Error("Expected duplicate id to be rejected without error")
	}

	resp = mutation(t, do(t, h, "POST", "/api/selection/distribute", `{"direction":"horizontal"}`))
	if resp.Changed {
		t.Error("Expected distribute with fewer than three nodes to be a no-op")
	}
}

func TestUndoRedoEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()
	seedRiskModel(t, h)

	mutation(t, do(t, h, "DELETE", "/api/nodes/control", ""))
	if resp := mutation(t, do(t, h, "POST", "/api/undo", "")); !resp.Changed {
		t.Fatal("Expected undo to change the state")
	}

	var state StateResponse
	json.Unmarshal(do(t, h, "GET", "/api/state", "").Body.Bytes(), &state)
	if len(state.Nodes) != 2 {
		t.Errorf("Expected deleted node to be restored, got %d nodes", len(state.Nodes))
	}

	if resp := mutation(t, do(t, h, "POST", "/api/redo", "")); !resp.Changed {
		t.Error("Expected redo to change the state")
	}
	if resp := mutation(t, do(t, h, "POST", "/api/redo", "")); resp.Changed {
		t.Error("Expected nothing left to redo")
	}
}

func TestOntologyEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()
	seedRiskModel(t, h)

	resp := mutation(t, do(t, h, "POST", "/api/nodes/risk/properties/new", `{"type":"TextMethodConfig","label":"Notes"}`))
	if resp.ID == "" {
		t.Fatalf("Expected a new property id, got %+v", resp)
	}

	resp = mutation(t, do(t, h, "POST", "/api/properties/"+resp.ID+"/rename", `{"id":"pNotes"}`))
	if !resp.Changed || resp.ID != "pNotes" {
		t.Fatalf("Expected rename to pNotes, got %+v", resp)
	}

	mutation(t, do(t, h, "POST", "/api/lists", `{"id":"lSeverity","name":"Severity","items":[{"id":"s1","name":"Low"}]}`))
	mutation(t, do(t, h, "PATCH", "/api/properties/pNotes", `{"name":"Remarks"}`))
	mutation(t, do(t, h, "DELETE", "/api/nodes/risk/properties/pNotes", ""))

	var state StateResponse
	json.Unmarshal(do(t, h, "GET", "/api/state", "").Body.Bytes(), &state)
	var found bool
	for _, p := range state.Properties {
		if p.ID == "pNotes" {
			found = true
			if p.Name != "Remarks" {
				t.Errorf("Expected renamed property, got %q", p.Name)
			}
		}
	}
	if !found {
		t.Error("Expected unlinking to keep the property in the ontology")
	}
	if len(state.Lists) != 4 {
		t.Errorf("Expected 4 lists, got %d", len(state.Lists))
	}
}

func TestBadRequests(t *testing.T) {
	h := newTestServer(t).Handler()
	seedRiskModel(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed body", "POST", "/api/edges", `{`, http.StatusBadRequest},
		{"unknown node", "DELETE", "/api/nodes/ghost", "", http.StatusNotFound},
		{"unknown edge", "PATCH", "/api/edges/ghost", `{}`, http.StatusNotFound},
		{"unknown property", "DELETE", "/api/properties/ghost", "", http.StatusNotFound},
		{"unknown list", "PATCH", "/api/lists/ghost", `{}`, http.StatusNotFound},
		{"connect to unknown", "POST", "/api/edges", `{"source":"risk","target":"ghost"}`, http.StatusNotFound},
		{"bad alignment", "POST", "/api/selection/align", `{"alignment":"diagonal"}`, http.StatusBadRequest},
		{"bad property type", "POST", "/api/nodes/risk/properties/new", `{"type":"Bogus","label":"x"}`, http.StatusBadRequest},
		{"missing node id", "POST", "/api/nodes", `{"type":"entity"}`, http.StatusBadRequest},
		{"save without file", "POST", "/api/save", "", http.StatusConflict},
		{"unknown topic", "GET", "/api/subscribe/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	mutation(t, do(t, h, "POST", "/api/nodes", `{"id":"x","type":"entity","data":{"label":"X","className":""}}`))

	var report analysis.Report
	if err := json.Unmarshal(do(t, h, "GET", "/api/analysis", "").Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.NodeIssues) != 1 || report.NodeIssues[0].NodeID != "x" {
		t.Errorf("Expected a validation finding for x, got %+v", report.NodeIssues)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t).Handler()
	req := httptest.NewRequest("GET", "/api/summary", nil)
	req.Header.Set(logging.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(logging.RequestIDHeader); got != "abc-123" {
		t.Errorf("Expected request id to be echoed, got %q", got)
	}
}

func TestSubscribeStreamsProjectSummary(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	seedRiskModel(t, srv.Handler())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/subscribe/project", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Expected event stream, got %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event pubsub.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("Bad event: %v", err)
		}
		var summary pubsub.ProjectSummary
		if err := json.Unmarshal(event.Data, &summary); err != nil {
			t.Fatalf("Bad summary: %v", err)
		}
		if summary.Nodes != 2 || summary.Revision != 2 {
			t.Errorf("Unexpected summary %+v", summary)
		}
		return
	}
	t.Fatalf("Stream ended without an event: %v", scanner.Err())
}

func TestLoadGraphIgnoresNullEntries(t *testing.T) {
	h := newTestServer(t).Handler()

	resp := mutation(t, do(t, h, "PUT", "/api/graph", `{"nodes":[null,{"id":"a","type":"entity","data":{"label":"A","className":"Alpha"}}],"edges":[null]}`))
	if !resp.Changed {
		t.Fatal("Expected the graph to be loaded")
	}
	if rec := do(t, h, "GET", "/api/script", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected script after load, got %d", rec.Code)
	}

	var state StateResponse
	json.Unmarshal(do(t, h, "GET", "/api/state", "").Body.Bytes(), &state)
	if len(state.Nodes) != 1 || len(state.Edges) != 0 {
		t.Errorf("Expected 1 node and 0 edges, got %d and %d", len(state.Nodes), len(state.Edges))
	}
}
