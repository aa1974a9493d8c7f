// Package depsdev implements the dependency-graph service client against
// the deps.dev v3 API.
package depsdev

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/stackaudit/stackaudit/pkg/cache"
	"github.com/stackaudit/stackaudit/pkg/deps"
	"github.com/stackaudit/stackaudit/pkg/integrations"
)

const defaultBaseURL = "https://api.deps.dev/v3"

// Client queries the dependency-graph service for transitive closures and
// default (latest) versions.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a deps.dev client backed by the given cache.
func NewClient(c cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(c, ttl, nil),
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
// Used by tests and self-hosted mirrors.
func NewClientWithBaseURL(c cache.Cache, ttl time.Duration, baseURL string) *Client {
	return &Client{
		Client:  integrations.NewClient(c, ttl, nil),
		baseURL: baseURL,
	}
}

// Resolve fetches the transitive dependency closure for one package
// version. An ecosystem the service does not index, or an unknown
// package/version, yields an empty subgraph rather than an error.
func (c *Client) Resolve(ctx context.Context, eco deps.Ecosystem, name, version string, refresh bool) (*deps.Subgraph, error) {
	system := eco.GraphSystem()
	if system == "" {
		return &deps.Subgraph{}, nil
	}

	key := fmt.Sprintf("depsdev:graph:%s:%s:%s", system, name, version)
	var resp graphResponse
	err := c.Cached(ctx, key, refresh, &resp, func() error {
		u := fmt.Sprintf("%s/systems/%s/packages/%s/versions/%s:dependencies",
			c.baseURL, system, url.PathEscape(name), url.PathEscape(version))
		return c.Get(ctx, u, &resp)
	})
	if errors.Is(err, integrations.ErrNotFound) {
		return &deps.Subgraph{}, nil
	}
	if err != nil {
		return nil, err
	}
	return convertGraph(&resp), nil
}

// GetDefaultVersion returns the registry's default (latest) version for a
// package, or "" when the service has no answer.
func (c *Client) GetDefaultVersion(ctx context.Context, eco deps.Ecosystem, name string, refresh bool) (string, error) {
	system := eco.GraphSystem()
	if system == "" {
		return "", nil
	}

	key := fmt.Sprintf("depsdev:pkg:%s:%s", system, name)
	var resp packageResponse
	err := c.Cached(ctx, key, refresh, &resp, func() error {
		u := fmt.Sprintf("%s/systems/%s/packages/%s", c.baseURL, system, url.PathEscape(name))
		return c.Get(ctx, u, &resp)
	})
	if errors.Is(err, integrations.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	for _, v := range resp.Versions {
		if v.IsDefault {
			return v.VersionKey.Version, nil
		}
	}
	return "", nil
}

// convertGraph maps the service response onto the engine's subgraph model.
// Node order is preserved so edge indices stay valid.
func convertGraph(resp *graphResponse) *deps.Subgraph {
	g := &deps.Subgraph{
		Nodes: make([]deps.Dependency, 0, len(resp.Nodes)),
		Edges: make([]deps.Edge, 0, len(resp.Edges)),
	}
	for _, n := range resp.Nodes {
		g.Nodes = append(g.Nodes, deps.Dependency{
			Name:      n.VersionKey.Name,
			Version:   deps.NormalizeVersion(n.VersionKey.Version),
			Ecosystem: deps.FromGraphSystem(n.VersionKey.System),
			Relation:  n.Relation,
		})
	}
	for _, e := range resp.Edges {
		g.Edges = append(g.Edges, deps.Edge{
			Source:      e.FromNode,
			Target:      e.ToNode,
			Requirement: e.Requirement,
		})
	}
	return g
}
