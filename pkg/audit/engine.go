// Package audit implements the dependency resolution and vulnerability
// intelligence pipeline: manifest parsing, transitive resolution through
// the dependency-graph service, vulnerability enrichment, and graph
// filtering. The analyzers consuming the filtered output live in
// pkg/analysis.
package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/stackaudit/stackaudit/pkg/deps"
	sterrors "github.com/stackaudit/stackaudit/pkg/errors"
	"github.com/stackaudit/stackaudit/pkg/integrations/osv"
)

// GraphResolver is the dependency-graph service contract. An unknown
// package or version yields an empty subgraph, not an error.
type GraphResolver interface {
	Resolve(ctx context.Context, eco deps.Ecosystem, name, version string, refresh bool) (*deps.Subgraph, error)
	GetDefaultVersion(ctx context.Context, eco deps.Ecosystem, name string, refresh bool) (string, error)
}

// VulnDatabase is the vulnerability database contract: batched id
// discovery followed by per-id detail fetches.
type VulnDatabase interface {
	QueryBatch(ctx context.Context, queries []osv.Query) ([][]string, error)
	GetVuln(ctx context.Context, id string, refresh bool) (*deps.Vulnerability, error)
}

// ManifestFile is one raw manifest handed to the engine. The engine is
// agnostic to where the bytes came from (source-control provider, local
// filesystem, uploaded buffer).
type ManifestFile struct {
	Path    string
	Content []byte
}

// Engine runs audits. It is stateless between runs: per-run state (the
// dependency table, the latest-version memo) is created inside Run and
// discarded with it.
type Engine struct {
	graph   GraphResolver
	vulns   VulnDatabase
	parsers []deps.Parser
	opts    Options
}

// NewEngine creates an Engine over the given service clients and manifest
// parsers.
func NewEngine(graph GraphResolver, vulns VulnDatabase, parsers []deps.Parser, opts Options) *Engine {
	return &Engine{
		graph:   graph,
		vulns:   vulns,
		parsers: parsers,
		opts:    opts.WithDefaults(),
	}
}

// Result is the audit artifact: the vulnerable dependency grouping plus
// summary counts and the aggregated degradation warnings.
type Result struct {
	ID           uuid.UUID                     `json:"id"`
	Dependencies map[string][]*deps.Dependency `json:"dependencies"`
	Paths        []string                      `json:"paths"` // manifest paths, discovery order
	Errors       []string                      `json:"errors"`

	TotalDependencies    int `json:"totalDependencies"`
	TotalVulnerabilities int `json:"totalVulnerabilities"`
	CriticalCount        int `json:"criticalCount"`
	HighCount            int `json:"highCount"`
	MediumCount          int `json:"mediumCount"`
	LowCount             int `json:"lowCount"`
}

// run bundles the per-run mutable state so Engine itself stays reusable.
type run struct {
	*Engine
	table  *deps.Table
	latest *latestMemo
	errs   *errorCollector
}

// Run executes the full pipeline over the given manifest files. Per-item
// failures degrade locally and surface in Result.Errors; Run only returns
// an error when no usable manifest input exists or the context is
// cancelled. On cancellation the accumulated result is returned alongside
// the error.
func (e *Engine) Run(ctx context.Context, files []ManifestFile) (*Result, error) {
	r := &run{
		Engine: e,
		table:  deps.NewTable(),
		latest: nil,
		errs:   newErrorCollector(),
	}
	r.latest = newLatestMemo(func(ctx context.Context, eco deps.Ecosystem, name string) (string, error) {
		return e.graph.GetDefaultVersion(ctx, eco, name, e.opts.Refresh)
	})

	if err := r.parse(files); err != nil {
		return nil, err
	}

	direct := r.directDependencies()
	if err := r.resolveTransitive(ctx, direct); err != nil {
		return r.finish(), sterrors.Wrap(sterrors.ErrCodeCancelled, err, "audit cancelled during transitive resolution")
	}
	if err := r.enrich(ctx); err != nil {
		return r.finish(), sterrors.Wrap(sterrors.ErrCodeCancelled, err, "audit cancelled during vulnerability enrichment")
	}

	return r.finish(), nil
}

// LatestVersion looks up the latest known version for a package. Lookups
// are not memoized across runs; use the result of a single Run's
// suggestions where possible.
func (e *Engine) LatestVersion(ctx context.Context, eco deps.Ecosystem, name string) (string, error) {
	return e.graph.GetDefaultVersion(ctx, eco, name, e.opts.Refresh)
}

// parse feeds every manifest through its parser and populates the table.
// Parse failures are collected per file; only the complete absence of
// usable manifests is fatal.
func (r *run) parse(files []ManifestFile) error {
	usable := 0
	for _, f := range files {
		parser, ok := deps.Detect(f.Path, r.parsers)
		if !ok {
			continue
		}
		usable++

		parsed, err := parser.Parse(f.Content)
		if err != nil {
			perr := &sterrors.ParseError{
				Ecosystem: parser.Ecosystem().String(),
				File:      f.Path,
				Cause:     err,
			}
			r.opts.Logger.Warn("manifest parse failed", "file", f.Path, "err", err)
			r.errs.add(sterrors.ErrCodeInvalidManifest, perr.Error())
			continue
		}

		r.table.TouchFile(f.Path)
		for _, dep := range parsed {
			r.table.Add(dep, f.Path)
		}
		r.opts.Logger.Debug("parsed manifest", "file", f.Path, "type", parser.Type(), "deps", len(parsed))
	}

	if usable == 0 {
		return sterrors.New(sterrors.ErrCodeNoManifests, "no supported manifest files found")
	}
	return nil
}

// directDependencies returns the canonical direct dependencies in
// discovery order (first file, then declaration order).
func (r *run) directDependencies() []*deps.Dependency {
	var out []*deps.Dependency
	seen := make(map[string]bool)
	groups := r.table.Materialize()
	for _, path := range r.table.Paths() {
		for _, dep := range groups[path] {
			if !seen[dep.Key()] {
				seen[dep.Key()] = true
				out = append(out, dep)
			}
		}
	}
	return out
}

// finish filters the graph and assembles the result with summary counts.
func (r *run) finish() *Result {
	groups := filterGroups(r.table.Materialize())

	res := &Result{
		ID:           uuid.New(),
		Dependencies: groups,
		Paths:        r.table.Paths(),
		Errors:       r.errs.summary(),
	}

	distinctDeps := make(map[string]bool)
	distinctVulns := make(map[string]float64)
	for _, group := range groups {
		for _, dep := range group {
			distinctDeps[dep.Key()] = true
			for i := range dep.Vulnerabilities {
				v := &dep.Vulnerabilities[i]
				distinctVulns[v.ID] = v.SeverityScore.Best()
			}
			if dep.Transitive == nil {
				continue
			}
			for i := range dep.Transitive.Nodes {
				node := &dep.Transitive.Nodes[i]
				distinctDeps[node.Key()] = true
				for j := range node.Vulnerabilities {
					v := &node.Vulnerabilities[j]
					distinctVulns[v.ID] = v.SeverityScore.Best()
				}
			}
		}
	}

	res.TotalDependencies = len(distinctDeps)
	res.TotalVulnerabilities = len(distinctVulns)
	for _, score := range distinctVulns {
		switch deps.RiskRating(score) {
		case "critical":
			res.CriticalCount++
		case "high":
			res.HighCount++
		case "medium":
			res.MediumCount++
		default:
			res.LowCount++
		}
	}
	return res
}

// errorCollector aggregates per-stage degradation warnings, each tagged
// with its error code, deduplicated, with a count when multiple items fail
// identically.
type errorCollector struct {
	mu     sync.Mutex
	order  []string
	counts map[string]int
}

func newErrorCollector() *errorCollector {
	return &errorCollector{counts: make(map[string]int)}
}

func (c *errorCollector) add(code sterrors.Code, msg string) {
	line := string(code) + ": " + msg
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[line] == 0 {
		c.order = append(c.order, line)
	}
	c.counts[line]++
}

func (c *errorCollector) summary() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.order))
	for _, line := range c.order {
		if n := c.counts[line]; n > 1 {
			out = append(out, fmt.Sprintf("%s (x%d)", line, n))
		} else {
			out = append(out, line)
		}
	}
	return out
}
