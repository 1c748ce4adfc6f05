package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"lectern-hq/lectern/pkg/cli"
	"lectern-hq/lectern/pkg/dictionary/manager"
	"lectern-hq/lectern/pkg/report"
	"lectern-hq/lectern/pkg/report/retention"
	"lectern-hq/lectern/pkg/telemetry/health"
)

var watchFlags struct {
	listen string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Load dictionaries and reload them on change",
	Long: `Load every dictionary under the configured path and reload them whenever
the files change. A reload that fails keeps the previously loaded
dictionaries. File watching follows dictionaries.watch in the configuration
(LECTERN_DICTIONARIES_WATCH); when it is off the loaded dictionaries are kept
until the process is interrupted.

While running, report retention runs on its configured schedule. With
--listen, an HTTP server exposes /health, /ready, /version and, when metrics
are enabled, /metrics.

Examples:
  # Watch the configured directory
  lectern watch --config lectern.yaml

  # Serve probes and metrics on port 9090
  lectern watch --listen :9090`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.listen, "listen", "l", "", "address for the health and metrics server")
}

func runWatch(cmd *cobra.Command, args []string) error {
	deps, err := setup()
	if err != nil {
		return err
	}
	defer deps.flushMetrics()
	ctx := cmd.Context()

	checker := health.New(0)

	m := manager.New(&deps.config.Dictionaries, deps.metrics, deps.logger)
	if err := m.Load(); err != nil {
		deps.logger.Warn("initial dictionary load failed, waiting for changes", "error", err)
	}
	for _, d := range m.List() {
		deps.logger.Info("dictionary available", "dictionary", d.Name, "version", d.Version, "schemas", len(d.Schemas))
	}
	checker.RegisterCheck("dictionaries", func(context.Context) error {
		if len(m.List()) == 0 {
			if err := m.LastLoadError(); err != nil {
				return err
			}
			return errors.New("no dictionaries loaded")
		}
		return nil
	})

	if deps.config.Reports.Enabled {
		store, err := deps.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		checker.RegisterCheck("reports", func(ctx context.Context) error {
			_, err := store.Count(ctx, &report.Query{})
			return err
		})

		pruner := retention.NewPruner(store, retention.FromConfig(deps.config.Reports.Retention), deps.logger)
		pruner.OnPrune(deps.metrics.RecordReportsPruned)
		if err := pruner.Start(ctx); err != nil {
			return cli.NewCommandError("watch", err)
		}
		defer pruner.Stop()
	}

	if watchFlags.listen != "" {
		srv := serveHTTP(watchFlags.listen, checker, deps)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if !deps.config.Dictionaries.Watch {
		deps.logger.Info("dictionary watching disabled, serving loaded dictionaries until interrupted")
		<-ctx.Done()
		return nil
	}
	if err := m.Watch(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}

func serveHTTP(addr string, checker *health.Checker, deps *runtimeDeps) *http.Server {
	mux := http.NewServeMux()
	health.Register(mux, checker, Version, GitCommit, BuildDate)
	if deps.metrics != nil {
		mux.Handle("/metrics", deps.metrics.Handler())
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		deps.logger.Info("serving health and metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.logger.Error("http server failed", "error", err)
		}
	}()
	return srv
}
