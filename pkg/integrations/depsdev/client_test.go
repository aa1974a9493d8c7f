package depsdev

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

func TestClient_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/systems/NPM/packages/express/versions/4.18.2:dependencies"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		w.Write([]byte(`{
		  "nodes": [
		    {"versionKey": {"system": "NPM", "name": "express", "version": "4.18.2"}, "relation": "SELF"},
		    {"versionKey": {"system": "NPM", "name": "qs", "version": "6.11.0"}, "relation": "DIRECT"},
		    {"versionKey": {"system": "NPM", "name": "side-channel", "version": "1.0.4"}, "relation": "INDIRECT"}
		  ],
		  "edges": [
		    {"fromNode": 0, "toNode": 1, "requirement": "6.11.0"},
		    {"fromNode": 1, "toNode": 2, "requirement": "^1.0.4"}
		  ]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	got, err := c.Resolve(context.Background(), deps.EcosystemNpm, "express", "4.18.2", false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(got.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(got.Nodes))
	}
	self := got.Nodes[0]
	if self.Relation != deps.RelationSelf || self.Name != "express" {
		t.Errorf("node 0 = %+v, want SELF express", self)
	}
	if got.Nodes[1].Ecosystem != deps.EcosystemNpm {
		t.Errorf("node ecosystem = %s, want npm", got.Nodes[1].Ecosystem)
	}
	if len(got.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(got.Edges))
	}
	if e := got.Edges[1]; e.Source != 1 || e.Target != 2 || e.Requirement != "^1.0.4" {
		t.Errorf("edge 1 = %+v, want {1 2 ^1.0.4}", e)
	}
}

func TestClient_ResolveUnknownPackage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	got, err := c.Resolve(context.Background(), deps.EcosystemNpm, "no-such-package", "1.0.0", false)
	if err != nil {
		t.Fatalf("Resolve returned %v, want empty subgraph for 404", err)
	}
	if len(got.Nodes) != 0 || len(got.Edges) != 0 {
		t.Errorf("got %+v, want empty subgraph", got)
	}
}

func TestClient_ResolveUnsupportedEcosystem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an unsupported ecosystem")
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	for _, eco := range []deps.Ecosystem{deps.EcosystemComposer, deps.EcosystemPub} {
		got, err := c.Resolve(context.Background(), eco, "some/package", "1.0.0", false)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", eco, err)
		}
		if len(got.Nodes) != 0 {
			t.Errorf("Resolve(%s) = %+v, want empty subgraph", eco, got)
		}
	}
}

func TestClient_GetDefaultVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/systems/NPM/packages/lodash" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
		  "versions": [
		    {"versionKey": {"system": "NPM", "name": "lodash", "version": "4.17.20"}, "isDefault": false},
		    {"versionKey": {"system": "NPM", "name": "lodash", "version": "4.17.21"}, "isDefault": true}
		  ]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	got, err := c.GetDefaultVersion(context.Background(), deps.EcosystemNpm, "lodash", false)
	if err != nil {
		t.Fatalf("GetDefaultVersion failed: %v", err)
	}
	if got != "4.17.21" {
		t.Errorf("GetDefaultVersion = %q, want 4.17.21", got)
	}
}

func TestClient_GetDefaultVersionMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	got, err := c.GetDefaultVersion(context.Background(), deps.EcosystemNpm, "no-such-package", false)
	if err != nil {
		t.Fatalf("GetDefaultVersion returned %v, want empty result for 404", err)
	}
	if got != "" {
		t.Errorf("GetDefaultVersion = %q, want empty", got)
	}
}
