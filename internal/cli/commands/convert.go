package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ligiabernardet/ccpp-doc/internal/batch"
	"github.com/ligiabernardet/ccpp-doc/internal/cli/config"
	"github.com/ligiabernardet/ccpp-doc/internal/cli/ui"
	"github.com/ligiabernardet/ccpp-doc/internal/docgen"
	"github.com/ligiabernardet/ccpp-doc/internal/meta"
	"github.com/ligiabernardet/ccpp-doc/internal/watch"
)

var (
	convertMeta   string
	convertOut    string
	convertConfig string
	convertFormat string
	convertJSON   bool
	convertJobs   int
	convertReport string
	convertWatch  bool
)

// NewConvertCommand creates the convert command
func NewConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Generate argument-table fragments from scheme metadata",
		Long: `Convert scheme metadata files into per-entry-point argument tables.

Two mutually exclusive modes:
  single-file  --meta <path> --out <dir>   convert one metadata file
  batch        --config <path>             convert every file the config lists

Each entry point with at least one argument yields one fragment named after
the entry point, so documentation can include it with \htmlinclude. Entry
points without arguments produce nothing. A file with any content error
converts nothing; in batch mode the remaining files still convert and the
run exits non-zero.`,
		Example: `  # Convert one metadata file
  ccppdoc convert --meta schemes/mp_thompson.meta --out docs/metadata

  # Convert everything a batch config lists
  ccppdoc convert --config ccppdoc-batch.yaml

  # Batch with four workers, machine-readable report
  ccppdoc convert --config ccppdoc-batch.yaml --jobs 4 --report build/report.json

  # Regenerate on every metadata change
  ccppdoc convert --config ccppdoc-batch.yaml --watch`,
		RunE: runConvert,
	}

	cmd.Flags().StringVar(&convertMeta, "meta", "", "Metadata file to convert (single-file mode)")
	cmd.Flags().StringVar(&convertOut, "out", "", "Output directory for fragments (single-file mode)")
	cmd.Flags().StringVar(&convertConfig, "config", "", "Batch configuration file (batch mode)")
	cmd.Flags().StringVar(&convertFormat, "format", "", "Fragment formats: html, markdown, or html,markdown")
	cmd.Flags().BoolVar(&convertJSON, "json", false, "Output errors in JSON format")
	cmd.Flags().IntVar(&convertJobs, "jobs", 0, "Bound on batch concurrency (default: one worker per CPU)")
	cmd.Flags().StringVar(&convertReport, "report", "", "Write a JSON run report to this path (batch mode)")
	cmd.Flags().BoolVar(&convertWatch, "watch", false, "Stay resident and reconvert when metadata changes")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	warningColor := color.New(color.FgYellow)

	// Mode selection: exactly one of --meta and --config.
	switch {
	case convertMeta == "" && convertConfig == "":
		return usageError(cmd, "one of --meta or --config is required",
			"Pick single-file mode (--meta with --out) or batch mode (--config).")
	case convertMeta != "" && convertConfig != "":
		return usageError(cmd, "--meta and --config are mutually exclusive",
			"Pick single-file mode (--meta with --out) or batch mode (--config).")
	case convertMeta != "" && convertOut == "":
		return usageError(cmd, "--meta requires --out",
			"Single-file mode needs an explicit output directory.")
	case convertConfig != "" && convertOut != "":
		warningColor.Fprintln(cmd.ErrOrStderr(), "Warning: --out is ignored in batch mode; destinations come from the config file")
	}

	formats, err := resolveFormats()
	if err != nil {
		return usageError(cmd, err.Error(), "")
	}

	run := func() error {
		if convertMeta != "" {
			return convertSingle(cmd, formats)
		}
		return convertBatch(cmd)
	}

	if !convertWatch {
		return run()
	}
	return watchAndRun(cmd, run)
}

// resolveFormats merges the --format flag with the tool config default.
func resolveFormats() ([]docgen.Format, error) {
	if convertFormat != "" {
		return docgen.ParseFormats(convertFormat)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	var names string
	for i, f := range cfg.Formats {
		if i > 0 {
			names += ","
		}
		names += f
	}
	return docgen.ParseFormats(names)
}

// convertSingle converts one metadata file into --out.
func convertSingle(cmd *cobra.Command, formats []docgen.Format) error {
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)

	start := time.Now()

	f, errs := meta.ParseFile(convertMeta)
	if len(errs) > 0 {
		reportContentErrors(cmd, errs)
		return fmt.Errorf("conversion failed")
	}

	gen, err := docgen.NewGenerator(&docgen.Config{
		OutputDir: convertOut,
		Formats:   formats,
	})
	if err != nil {
		return err
	}

	result, err := gen.Generate([]*meta.File{f})
	if err != nil {
		return err
	}

	successColor.Fprintf(cmd.OutOrStdout(), "✓ Converted %s in %.2fs\n", convertMeta, time.Since(start).Seconds())
	for _, frag := range result.Fragments {
		infoColor.Fprintf(cmd.OutOrStdout(), "  %s\n", frag)
	}
	for _, name := range result.EmptyEntries {
		infoColor.Fprintf(cmd.OutOrStdout(), "  (entry point '%s' has no arguments, no fragment)\n", name)
	}

	return nil
}

// convertBatch runs every file the batch config lists.
func convertBatch(cmd *cobra.Command) error {
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)
	errorColor := color.New(color.FgRed, color.Bold)

	start := time.Now()

	cfg, err := batch.LoadConfig(convertConfig)
	if err != nil {
		return err
	}
	if convertFormat != "" {
		// The flag narrows the config's formats for this run.
		if _, err := docgen.ParseFormats(convertFormat); err != nil {
			return err
		}
		cfg.Formats = []string{convertFormat}
	}

	spin := ui.NewSpinner(cmd.ErrOrStderr(), ui.SpinnerOptions{
		Message: fmt.Sprintf("Converting metadata from %s", convertConfig),
		NoColor: color.NoColor,
	})
	spin.Start()

	runner := batch.NewRunner(cfg, convertJobs)
	report, err := runner.Run(cmd.Context())
	spin.Stop()
	if err != nil {
		return err
	}

	if convertReport != "" {
		if err := report.WriteFile(convertReport); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if report.HasFailures() {
		reportContentErrors(cmd, report.Errors())
		errorColor.Fprintf(cmd.ErrOrStderr(), "\n✗ %d of %d file(s) failed\n", report.FilesFailed, len(report.Files))
		return fmt.Errorf("conversion failed")
	}

	successColor.Fprintf(cmd.OutOrStdout(), "✓ Converted %d file(s) in %.2fs\n", len(report.Files), time.Since(start).Seconds())
	infoColor.Fprintf(cmd.OutOrStdout(), "  %d fragment(s) written\n", len(report.Fragments))
	if len(report.EmptyEntries) > 0 {
		infoColor.Fprintf(cmd.OutOrStdout(), "  %d entry point(s) without arguments skipped\n", len(report.EmptyEntries))
	}

	return nil
}

// watchAndRun executes run once, then re-executes it whenever a watched
// metadata file changes, until interrupted. A failing run keeps the watcher
// alive so the next save can fix it.
func watchAndRun(cmd *cobra.Command, run func() error) error {
	infoColor := color.New(color.FgCyan)
	errorColor := color.New(color.FgRed, color.Bold)

	failed := false
	if err := run(); err != nil {
		errorColor.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		failed = true
	}

	dirs, err := watchDirs()
	if err != nil {
		return err
	}

	fw, err := watch.NewFileWatcher(dirs, []string{"*.meta", "*.yaml", "*.yml"}, nil, func(files []string) error {
		infoColor.Fprintf(cmd.OutOrStdout(), "\nChange detected (%d file(s)), reconverting...\n", len(files))
		if err := run(); err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		return err
	}
	defer fw.Stop()

	infoColor.Fprintln(cmd.OutOrStdout(), "Watching for metadata changes. Press Ctrl+C to stop.")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if failed {
		return fmt.Errorf("last conversion failed")
	}
	return nil
}

// watchDirs lists the directories the active mode reads metadata from.
func watchDirs() ([]string, error) {
	if convertMeta != "" {
		return []string{filepath.Dir(convertMeta)}, nil
	}

	cfg, err := batch.LoadConfig(convertConfig)
	if err != nil {
		return nil, err
	}
	dirs, err := cfg.MetadataDirs()
	if err != nil {
		return nil, err
	}
	// The config file itself is watched too, so edits to it retrigger.
	return append(dirs, filepath.Dir(convertConfig)), nil
}

// reportContentErrors prints a collected error list in the selected format.
func reportContentErrors(cmd *cobra.Command, errs meta.ErrorList) {
	if convertJSON {
		outputErrorsJSON(cmd.OutOrStdout(), errs)
		return
	}
	ui.PrintMetaErrors(cmd.ErrOrStderr(), errs, false)
}

// outputErrorsJSON writes the error list as indented JSON for tooling.
func outputErrorsJSON(w io.Writer, errs meta.ErrorList) {
	output := struct {
		Success bool         `json:"success"`
		Errors  []meta.Error `json:"errors"`
	}{
		Success: false,
		Errors:  errs,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}

// usageError formats a usage error the same way for every command.
func usageError(cmd *cobra.Command, problem, consequence string) error {
	fmt.Fprint(cmd.ErrOrStderr(), ui.FormatError(ui.ErrorOptions{
		Level:        ui.ErrorLevelError,
		Context:      "usage error",
		Problem:      problem,
		Consequence:  consequence,
		HelpCommands: []string{fmt.Sprintf("See usage: ccppdoc %s --help", cmd.Name())},
	}))
	return fmt.Errorf("usage error: %s", problem)
}
