package osv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

func TestClient_QueryBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/querybatch" {
			t.Errorf("path = %q, want /querybatch", r.URL.Path)
		}

		var body struct {
			Queries []struct {
				Package struct {
					Name      string `json:"name"`
					Ecosystem string `json:"ecosystem"`
				} `json:"package"`
				Version string `json:"version"`
			} `json:"queries"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		// The unknown-version and unindexed-ecosystem queries are filtered
		// out before the request is made.
		if len(body.Queries) != 2 {
			t.Fatalf("server received %d queries, want 2", len(body.Queries))
		}
		if body.Queries[0].Package.Ecosystem != "npm" || body.Queries[1].Package.Ecosystem != "PyPI" {
			t.Errorf("ecosystems = %q, %q", body.Queries[0].Package.Ecosystem, body.Queries[1].Package.Ecosystem)
		}

		w.Write([]byte(`{"results": [
		  {"vulns": [{"id": "GHSA-jf85-cpcp-j695"}, {"id": "GHSA-p6mc-m468-83gw"}]},
		  {"vulns": []}
		]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	queries := []Query{
		{Name: "lodash", Ecosystem: deps.EcosystemNpm, Version: "4.17.19"},
		{Name: "pinned-by-hash", Ecosystem: deps.EcosystemNpm, Version: deps.UnknownVersion},
		{Name: "requests", Ecosystem: deps.EcosystemPyPI, Version: "2.28.0"},
		{Name: "mystery", Ecosystem: deps.EcosystemNull, Version: "1.0.0"},
	}

	got, err := c.QueryBatch(context.Background(), queries)
	if err != nil {
		t.Fatalf("QueryBatch failed: %v", err)
	}
	if len(got) != len(queries) {
		t.Fatalf("got %d results, want %d (positional alignment)", len(got), len(queries))
	}

	if want := []string{"GHSA-jf85-cpcp-j695", "GHSA-p6mc-m468-83gw"}; !reflect.DeepEqual(got[0], want) {
		t.Errorf("result 0 = %v, want %v", got[0], want)
	}
	if got[1] != nil {
		t.Errorf("result for unknown version = %v, want none", got[1])
	}
	if got[2] != nil {
		t.Errorf("result 2 = %v, want none", got[2])
	}
	if got[3] != nil {
		t.Errorf("result for unindexed ecosystem = %v, want none", got[3])
	}
}

func TestClient_QueryBatchRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"results": [{"vulns": [{"id": "GHSA-jf85-cpcp-j695"}]}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	got, err := c.QueryBatch(context.Background(), []Query{
		{Name: "lodash", Ecosystem: deps.EcosystemNpm, Version: "4.17.19"},
	})
	if err != nil {
		t.Fatalf("QueryBatch failed after transient 503 (calls=%d): %v", atomic.LoadInt32(&calls), err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("server calls = %d, want 2", atomic.LoadInt32(&calls))
	}
	if len(got) != 1 || len(got[0]) != 1 || got[0][0] != "GHSA-jf85-cpcp-j695" {
		t.Errorf("got %v, want the retried result", got)
	}
}

func TestClient_QueryBatchAllSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when every query is skipped")
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	got, err := c.QueryBatch(context.Background(), []Query{
		{Name: "a", Ecosystem: deps.EcosystemNpm, Version: deps.UnknownVersion},
	})
	if err != nil {
		t.Fatalf("QueryBatch failed: %v", err)
	}
	if len(got) != 1 || got[0] != nil {
		t.Errorf("got %v, want a single empty result", got)
	}
}

func TestClient_QueryBatchCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	_, err := c.QueryBatch(context.Background(), []Query{
		{Name: "lodash", Ecosystem: deps.EcosystemNpm, Version: "4.17.19"},
	})
	if err == nil {
		t.Fatal("expected error when result count does not match query count")
	}
}

func TestClient_GetVuln(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vulns/GHSA-jf85-cpcp-j695" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
		  "id": "GHSA-jf85-cpcp-j695",
		  "summary": "Prototype Pollution in lodash",
		  "aliases": ["CVE-2020-8203"],
		  "severity": [{"type": "CVSS_V3", "score": "CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:N/I:H/A:H"}],
		  "references": [
		    {"type": "ADVISORY", "url": "https://nvd.nist.gov/vuln/detail/CVE-2020-8203"},
		    {"type": "EXPLOIT", "url": "https://example.com/poc"}
		  ],
		  "affected": [{
		    "package": {"name": "lodash", "ecosystem": "npm"},
		    "ranges": [{"type": "SEMVER", "events": [{"introduced": "0"}, {"fixed": "4.17.19"}]}]
		  }]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	got, err := c.GetVuln(context.Background(), "GHSA-jf85-cpcp-j695", false)
	if err != nil {
		t.Fatalf("GetVuln failed: %v", err)
	}

	if got.ID != "GHSA-jf85-cpcp-j695" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.SeverityScore.CVSSV3 == nil {
		t.Fatal("CVSS v3 vector was not scored")
	}
	if *got.SeverityScore.CVSSV3 != 7.4 {
		t.Errorf("CVSSV3 = %v, want 7.4", *got.SeverityScore.CVSSV3)
	}
	if got.FixAvailable != "4.17.19" {
		t.Errorf("FixAvailable = %q, want 4.17.19", got.FixAvailable)
	}
	if !got.ExploitAvailable() {
		t.Error("ExploitAvailable = false, want true (EXPLOIT reference present)")
	}
	if len(got.Aliases) != 1 || got.Aliases[0] != "CVE-2020-8203" {
		t.Errorf("Aliases = %v", got.Aliases)
	}
}

func TestClient_GetVulnNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(nil, time.Hour, srv.URL)
	if _, err := c.GetVuln(context.Background(), "GHSA-none", false); err == nil {
		t.Fatal("expected error for unknown vulnerability id")
	}
}
