package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackaudit/stackaudit/pkg/analysis"
	"github.com/stackaudit/stackaudit/pkg/audit"
	"github.com/stackaudit/stackaudit/pkg/cache"
	"github.com/stackaudit/stackaudit/pkg/deps"
	"github.com/stackaudit/stackaudit/pkg/deps/manifests"
	"github.com/stackaudit/stackaudit/pkg/integrations/depsdev"
	"github.com/stackaudit/stackaudit/pkg/integrations/github"
	"github.com/stackaudit/stackaudit/pkg/integrations/osv"
	"github.com/stackaudit/stackaudit/pkg/observability"
)

// auditOpts holds the command-line flags for the audit command.
type auditOpts struct {
	repo     string // "owner/name" to audit a GitHub repository instead of a local path
	ref      string // git ref for --repo (default branch if empty)
	jsonOut  bool   // emit the full result and report as JSON
	refresh  bool   // bypass HTTP cache
	noCache  bool   // disable caching entirely
	redis    string // Redis address for a shared cache backend
	output   string // output file path (stdout if empty)
	maxFiles int    // cap on manifest files collected
}

// newAuditCmd creates the audit command. It collects manifest files from a
// local directory tree or a GitHub repository, runs the full audit
// pipeline, and prints the findings.
func newAuditCmd() *cobra.Command {
	opts := auditOpts{maxFiles: 200}

	cmd := &cobra.Command{
		Use:   "audit [path]",
		Short: "Audit dependency manifests for known vulnerabilities",
		Long: `Audit dependency manifests for known vulnerabilities.

Walks a local directory (default ".") or a GitHub repository for supported
manifest files, resolves each dependency's transitive graph, and reports
every known vulnerability with prioritized remediation guidance.

Examples:
  stackaudit audit                              # Current directory
  stackaudit audit ./services/api               # Specific directory
  stackaudit audit --repo expressjs/express     # GitHub repository
  stackaudit audit --repo rails/rails --ref v7.1.0
  stackaudit audit --json -o report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runAudit(cmd.Context(), path, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.repo, "repo", "", "GitHub repository to audit (owner/name)")
	cmd.Flags().StringVar(&opts.ref, "ref", "", "git ref for --repo (default branch if empty)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "emit JSON instead of the text report")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable response caching")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for a shared response cache (host:port)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().IntVar(&opts.maxFiles, "max-files", opts.maxFiles, "maximum manifest files to collect")

	return cmd
}

func runAudit(ctx context.Context, path string, opts *auditOpts) error {
	logger := loggerFromContext(ctx)
	observability.SetAuditHooks(progressHooks{logger: logger})
	parsers := manifests.All()

	var files []audit.ManifestFile
	var err error
	if opts.repo != "" {
		files, err = collectRepoManifests(ctx, opts, parsers)
	} else {
		files, err = collectLocalManifests(path, opts.maxFiles, parsers)
	}
	if err != nil {
		return err
	}
	logger.Debug("collected manifests", "count", len(files))

	store, err := openCache(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := audit.NewEngine(
		depsdev.NewClient(store, audit.DefaultCacheTTL),
		osv.NewClient(store, audit.DefaultCacheTTL),
		parsers,
		audit.Options{Refresh: opts.refresh, Logger: logger},
	)

	prog := newProgress(logger)
	result, err := engine.Run(ctx, files)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Audited %d dependencies, %d vulnerabilities",
		result.TotalDependencies, result.TotalVulnerabilities))

	report := analysis.Analyze(result)

	out := os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*audit.Result
			Report *analysis.Report `json:"report"`
		}{result, report})
	}
	return writeTextReport(out, result, report)
}

// openCache builds the response cache backend from flags: Redis when
// --redis is set, no caching with --no-cache, otherwise the default
// on-disk cache.
func openCache(ctx context.Context, opts *auditOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redis != "" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redis})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return c, nil
	}
	c, err := cache.NewFileCache(cache.DefaultDir())
	if err != nil {
		return nil, fmt.Errorf("open cache dir: %w", err)
	}
	return c, nil
}

// collectLocalManifests walks the directory tree for supported manifest
// files, skipping dependency and build directories.
func collectLocalManifests(root string, maxFiles int, parsers []deps.Parser) ([]audit.ManifestFile, error) {
	var files []audit.ManifestFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && deps.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !deps.IsManifestFilename(d.Name(), parsers) {
			return nil
		}
		if len(files) >= maxFiles {
			return filepath.SkipAll
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, audit.ManifestFile{Path: filepath.ToSlash(rel), Content: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// collectRepoManifests lists a GitHub repository tree and downloads every
// supported manifest file. GITHUB_TOKEN raises the API rate limit but is
// optional for public repositories.
func collectRepoManifests(ctx context.Context, opts *auditOpts, parsers []deps.Parser) ([]audit.ManifestFile, error) {
	owner, name, ok := strings.Cut(opts.repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid --repo %q: expected owner/name", opts.repo)
	}

	client := github.NewClient(os.Getenv("GITHUB_TOKEN"))
	tree, err := client.ListTree(ctx, owner, name, opts.ref)
	if err != nil {
		return nil, fmt.Errorf("list %s tree: %w", opts.repo, err)
	}

	var files []audit.ManifestFile
	for _, item := range tree {
		if item.Type != "blob" || !deps.IsManifestFilename(filepath.Base(item.Path), parsers) {
			continue
		}
		if skipNestedPath(item.Path) {
			continue
		}
		if len(files) >= opts.maxFiles {
			break
		}
		content, err := client.ReadFile(ctx, owner, name, item.Path, opts.ref)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", item.Path, err)
		}
		files = append(files, audit.ManifestFile{Path: item.Path, Content: []byte(content)})
	}
	return files, nil
}

// skipNestedPath reports whether any path segment is a directory we never
// audit (vendored or installed dependencies).
func skipNestedPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if deps.SkipDir(seg) {
			return true
		}
	}
	return false
}
