package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/stackaudit/stackaudit/pkg/analysis"
	"github.com/stackaudit/stackaudit/pkg/audit"
	"github.com/stackaudit/stackaudit/pkg/deps/manifests"
	sterrors "github.com/stackaudit/stackaudit/pkg/errors"
	"github.com/stackaudit/stackaudit/pkg/integrations/depsdev"
	"github.com/stackaudit/stackaudit/pkg/integrations/osv"
)

// newServeCmd creates the serve command, exposing the audit engine over
// HTTP for callers that upload manifest contents directly.
func newServeCmd() *cobra.Command {
	opts := auditOpts{}
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit engine as an HTTP service",
		Long: `Run the audit engine as an HTTP service.

Endpoints:
  POST /api/v1/audit   {"manifests": {"package.json": "..."}}
  GET  /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, &opts)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable response caching")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for a shared response cache (host:port)")

	return cmd
}

func runServe(ctx context.Context, addr string, opts *auditOpts) error {
	logger := loggerFromContext(ctx)

	store, err := openCache(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := audit.NewEngine(
		depsdev.NewClient(store, audit.DefaultCacheTTL),
		osv.NewClient(store, audit.DefaultCacheTTL),
		manifests.All(),
		audit.Options{Refresh: opts.refresh, Logger: logger},
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(engine, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// auditRequest is the POST /api/v1/audit body: manifest contents keyed by
// their path.
type auditRequest struct {
	Manifests map[string]string `json:"manifests"`
}

type auditResponse struct {
	*audit.Result
	Report *analysis.Report `json:"report"`
}

func newRouter(engine *audit.Engine, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/v1/audit", func(w http.ResponseWriter, req *http.Request) {
		var body auditRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(body.Manifests) == 0 {
			writeError(w, http.StatusBadRequest, "no manifests provided")
			return
		}

		paths := make([]string, 0, len(body.Manifests))
		for path := range body.Manifests {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		files := make([]audit.ManifestFile, 0, len(paths))
		for _, path := range paths {
			files = append(files, audit.ManifestFile{Path: path, Content: []byte(body.Manifests[path])})
		}

		result, err := engine.Run(req.Context(), files)
		if err != nil {
			if sterrors.GetCode(err) == sterrors.ErrCodeNoManifests {
				writeError(w, http.StatusUnprocessableEntity, sterrors.UserMessage(err))
				return
			}
			logger.Error("audit failed", "request", middleware.GetReqID(req.Context()), "err", err)
			writeError(w, http.StatusInternalServerError, "audit failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(auditResponse{result, analysis.Analyze(result)}); err != nil {
			logger.Error("write response", "err", err)
		}
	})

	return r
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
