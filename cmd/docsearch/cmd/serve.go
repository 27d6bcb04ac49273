package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gcbaptista/doc-search-index/api"
	"github.com/gcbaptista/doc-search-index/config"
	"github.com/gcbaptista/doc-search-index/internal/catalog"
	"github.com/gcbaptista/doc-search-index/internal/engine"
	"github.com/gcbaptista/doc-search-index/internal/logger"
	"github.com/gcbaptista/doc-search-index/internal/metrics"
	"github.com/gcbaptista/doc-search-index/internal/watcher"
)

// serveOptions holds CLI flags for serve.
type serveOptions struct {
	configPath  string
	catalogPath string
	bundlePath  string
	port        int
	watch       bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve suggest, lookup and describe over HTTP",
		Long: `Serve suggest, lookup and describe over HTTP.

The index is loaded from a bundle when one is given, otherwise it is built
from the catalog. With a catalog configured, POST /rebuild and --watch
rebuild the index without interrupting queries.

Settings come from the config file, then DOCSEARCH_* environment
variables, then flags.

Examples:
  docsearch serve --catalog entities.json --watch
  docsearch serve --bundle index.gob --port 9000
  docsearch serve --config docsearch.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadServeSettings(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.Flags().StringVarP(&opts.catalogPath, "catalog", "c", "", "Entity catalog (.json, .yaml, .yml)")
	cmd.Flags().StringVarP(&opts.bundlePath, "bundle", "b", "", "Prebuilt bundle (.json, .gob)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Rebuild when the catalog changes")

	return cmd
}

// loadServeSettings merges the config file, environment and explicit flags.
func loadServeSettings(cmd *cobra.Command, opts serveOptions) (*config.Settings, error) {
	settings, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog") {
		settings.Index.CatalogPath = opts.catalogPath
	}
	if flags.Changed("bundle") {
		settings.Index.BundlePath = opts.bundlePath
	}
	if flags.Changed("port") {
		settings.Server.Port = opts.port
	}
	if flags.Changed("watch") {
		settings.Index.WatchCatalog = opts.watch
	}
	if logLevel != "" {
		settings.Logging.Level = logLevel
	}
	if logFormat != "" {
		settings.Logging.Format = logFormat
	}

	if problems := settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", problems)
	}
	return settings, nil
}

func runServe(ctx context.Context, settings *config.Settings) error {
	logger.Setup(settings.Logging.Level, settings.Logging.Format)
	log := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if settings.Metrics.Enabled {
		m = metrics.New()
	}

	eng := engine.NewEngine(engine.Options{
		CatalogPath: settings.Index.CatalogPath,
		Catalog: catalog.Options{
			DerivePartialTokens:  settings.Index.DerivePartialTokens,
			UnescapeDescriptions: settings.Index.UnescapeDescriptions,
		},
		Strict:           settings.Index.Strict,
		SuggestCacheSize: settings.Index.SuggestCacheSize,
		MaxJobWorkers:    settings.Jobs.MaxWorkers,
		JobRetention:     settings.Jobs.Retention,
		Metrics:          m,
	})
	defer eng.Close()

	if err := loadInitialIndex(ctx, eng, settings, log); err != nil {
		return err
	}

	if settings.Index.WatchCatalog {
		w, err := watcher.New(settings.Index.CatalogPath, settings.Index.WatchDebounce, func(ctx context.Context) error {
			_, err := eng.RebuildFromCatalog(ctx)
			return err
		})
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("catalog watcher stopped", "error", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(eng, api.Options{
		MaxSuggestions:  settings.Index.MaxSuggestions,
		MaxRequestBytes: settings.Server.MaxRequestBytes,
		LookupTimeout:   settings.Server.LookupTimeout,
		Metrics:         m,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(settings.Server.Port),
		Handler:      router,
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", server.Addr, "index_version", eng.Status().Version)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", settings.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// loadInitialIndex prefers the bundle and falls back to the catalog. With
// neither configured the server starts on an empty index.
func loadInitialIndex(ctx context.Context, eng *engine.Engine, settings *config.Settings, log *slog.Logger) error {
	switch {
	case settings.Index.BundlePath != "":
		return eng.LoadBundle(settings.Index.BundlePath)
	case settings.Index.CatalogPath != "":
		report, err := eng.RebuildFromCatalog(ctx)
		if err != nil {
			return err
		}
		if report.Rejected > 0 {
			log.Warn("catalog entries skipped", "count", report.Rejected)
		}
		return nil
	default:
		log.Warn("no bundle or catalog configured, serving an empty index")
		return nil
	}
}
