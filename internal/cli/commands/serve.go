package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ligiabernardet/ccpp-doc/internal/batch"
	"github.com/ligiabernardet/ccpp-doc/internal/cli/config"
	"github.com/ligiabernardet/ccpp-doc/internal/meta"
	"github.com/ligiabernardet/ccpp-doc/internal/preview"
	"github.com/ligiabernardet/ccpp-doc/internal/watch"
)

var (
	serveDir     string
	servePort    int
	serveHost    string
	serveConfig  string
	serveWatch   bool
	serveVerbose bool
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview generated fragments in a browser",
		Long: `Serve a fragment directory over HTTP with an index page. With --watch and
--config, metadata changes reconvert the batch and connected browsers reload
automatically.`,
		Example: `  # Serve already generated fragments
  ccppdoc serve --dir docs/metadata

  # Regenerate and live-reload on metadata changes
  ccppdoc serve --dir docs/metadata --config ccppdoc-batch.yaml --watch`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveDir, "dir", "", "Fragment directory to serve (default: config output)")
	cmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default: config serve.port)")
	cmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default: config serve.host)")
	cmd.Flags().StringVar(&serveConfig, "config", "", "Batch configuration for --watch regeneration")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "Reconvert and live-reload on metadata changes")
	cmd.Flags().BoolVar(&serveVerbose, "verbose", false, "Debug-level request logging")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := serveDir
	if dir == "" {
		dir = cfg.Output
	}
	port := servePort
	if port == 0 {
		port = cfg.Serve.Port
	}
	host := serveHost
	if host == "" {
		host = cfg.Serve.Host
	}

	if serveWatch && serveConfig == "" {
		return usageError(cmd, "--watch requires --config",
			"Regeneration needs a batch configuration naming the metadata sources.")
	}

	logger, err := newServeLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	var reload *watch.ReloadServer
	if serveWatch {
		reload = watch.NewReloadServer()
		defer reload.Close()
	}

	srv, err := preview.NewServer(preview.Config{
		Dir:    dir,
		Host:   host,
		Port:   port,
		Logger: logger,
		Reload: reload,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		fw, err := newRegenWatcher(logger, reload)
		if err != nil {
			return err
		}
		if err := fw.Start(); err != nil {
			return err
		}
		defer fw.Stop()
	}

	logger.Info("preview ready", zap.String("url", fmt.Sprintf("http://%s:%d/", host, port)))
	return srv.Run(ctx)
}

// newServeLogger builds the zap logger for the server lifecycle. --verbose
// lowers the level to debug so every request is logged.
func newServeLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "console"
	if serveVerbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zapCfg.Build()
}

// newRegenWatcher watches the batch config's metadata directories and re-runs
// the batch conversion on change, pushing the outcome to preview browsers.
func newRegenWatcher(logger *zap.Logger, reload *watch.ReloadServer) (*watch.FileWatcher, error) {
	bcfg, err := batch.LoadConfig(serveConfig)
	if err != nil {
		return nil, err
	}
	dirs, err := bcfg.MetadataDirs()
	if err != nil {
		return nil, err
	}

	onChange := func(files []string) error {
		reload.NotifyConverting(files)
		start := time.Now()

		// Reload the config each run so edits to it take effect too.
		bcfg, err := batch.LoadConfig(serveConfig)
		if err != nil {
			logger.Error("batch config reload failed", zap.Error(err))
			reload.NotifyErrors([]*watch.ErrorInfo{{Message: err.Error(), File: serveConfig}})
			return nil
		}

		report, err := batch.NewRunner(bcfg, 0).Run(context.Background())
		if err != nil {
			logger.Error("reconversion failed", zap.Error(err))
			reload.NotifyErrors([]*watch.ErrorInfo{{Message: err.Error()}})
			return nil
		}
		if report.HasFailures() {
			errs := report.Errors()
			logger.Warn("reconversion found content errors",
				zap.Int("files_failed", report.FilesFailed),
				zap.Int("errors", len(errs)))
			reload.NotifyErrors(toErrorInfos(errs))
			return nil
		}

		logger.Info("reconverted",
			zap.Int("files", len(report.Files)),
			zap.Int("fragments", len(report.Fragments)),
			zap.Duration("duration", time.Since(start)))
		reload.NotifyReload(time.Since(start))
		return nil
	}

	return watch.NewFileWatcher(dirs, []string{"*.meta"}, nil, onChange)
}

// toErrorInfos converts content errors to their websocket wire form.
func toErrorInfos(errs meta.ErrorList) []*watch.ErrorInfo {
	infos := make([]*watch.ErrorInfo, 0, len(errs))
	for _, e := range errs {
		infos = append(infos, &watch.ErrorInfo{
			Message: e.Message,
			File:    e.Pos.File,
			Line:    e.Pos.Line,
			Column:  e.Pos.Column,
			Hint:    e.Hint,
		})
	}
	return infos
}
