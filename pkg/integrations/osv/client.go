// Package osv implements the vulnerability database client against the
// OSV.dev API: batched id discovery via querybatch, then per-id detail
// fetches.
package osv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/stackaudit/stackaudit/pkg/cache"
	"github.com/stackaudit/stackaudit/pkg/deps"
	"github.com/stackaudit/stackaudit/pkg/httputil"
	"github.com/stackaudit/stackaudit/pkg/integrations"
)

const defaultBaseURL = "https://api.osv.dev/v1"

// Client queries the OSV vulnerability database.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an OSV client backed by the given cache.
func NewClient(c cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(c, ttl, nil),
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
func NewClientWithBaseURL(c cache.Cache, ttl time.Duration, baseURL string) *Client {
	return &Client{
		Client:  integrations.NewClient(c, ttl, nil),
		baseURL: baseURL,
	}
}

// Query identifies one package version to look up.
type Query struct {
	Name      string
	Ecosystem deps.Ecosystem
	Version   string
}

// QueryBatch looks up vulnerability ids for a batch of package versions.
// The result slice is positionally aligned with queries: result[i] holds
// the ids found for queries[i] (possibly none). Queries for ecosystems OSV
// does not index come back empty.
func (c *Client) QueryBatch(ctx context.Context, queries []Query) ([][]string, error) {
	ids := make([][]string, len(queries))

	payload := batchRequest{Queries: make([]queryRequest, 0, len(queries))}
	positions := make([]int, 0, len(queries))
	for i, q := range queries {
		osvName := q.Ecosystem.OSVName()
		if osvName == "" || q.Version == deps.UnknownVersion {
			continue
		}
		payload.Queries = append(payload.Queries, queryRequest{
			Package: packageRequest{Name: q.Name, Ecosystem: osvName},
			Version: q.Version,
		})
		positions = append(positions, i)
	}
	if len(payload.Queries) == 0 {
		return ids, nil
	}

	var resp batchResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		resp = batchResponse{}
		return c.PostJSON(ctx, c.baseURL+"/querybatch", payload, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) != len(payload.Queries) {
		return nil, fmt.Errorf("querybatch: got %d results for %d queries", len(resp.Results), len(payload.Queries))
	}

	for i, res := range resp.Results {
		for _, v := range res.Vulns {
			ids[positions[i]] = append(ids[positions[i]], v.ID)
		}
	}
	return ids, nil
}

// GetVuln fetches the full record for one vulnerability id, with the
// severity vectors already evaluated to scalar scores.
func (c *Client) GetVuln(ctx context.Context, id string, refresh bool) (*deps.Vulnerability, error) {
	key := "osv:vuln:" + id
	var record vulnRecord
	err := c.Cached(ctx, key, refresh, &record, func() error {
		return c.Get(ctx, c.baseURL+"/vulns/"+url.PathEscape(id), &record)
	})
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, fmt.Errorf("vulnerability %s: %w", id, integrations.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return convertRecord(&record), nil
}

// convertRecord maps an OSV record onto the engine's vulnerability model,
// normalizing severity vectors and deriving fix availability from the
// affected-range events.
func convertRecord(r *vulnRecord) *deps.Vulnerability {
	v := &deps.Vulnerability{
		ID:      r.ID,
		Summary: r.Summary,
		Details: r.Details,
		Aliases: r.Aliases,
	}
	for _, s := range r.Severity {
		v.Severity = append(v.Severity, deps.Severity{Type: s.Type, Score: s.Score})
	}
	for _, ref := range r.References {
		v.References = append(v.References, deps.Reference{Type: ref.Type, URL: ref.URL})
	}
	for _, a := range r.Affected {
		affected := deps.Affected{
			Package: deps.AffectedPackage{
				Name:      a.Package.Name,
				Ecosystem: a.Package.Ecosystem,
				Purl:      a.Package.Purl,
			},
			Versions: a.Versions,
		}
		for _, rng := range a.Ranges {
			converted := deps.Range{Type: rng.Type}
			for _, ev := range rng.Events {
				converted.Events = append(converted.Events, deps.Event{
					Introduced: ev.Introduced,
					Fixed:      ev.Fixed,
				})
			}
			affected.Ranges = append(affected.Ranges, converted)
		}
		v.Affected = append(v.Affected, affected)
	}

	v.SeverityScore = deps.ScoreSeverity(v.Severity)
	v.FixAvailable = deps.FixedVersion(v.Affected)
	return v
}
