package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ligiabernardet/ccpp-doc/internal/cli/config"
	"github.com/ligiabernardet/ccpp-doc/internal/cli/ui"
	"github.com/ligiabernardet/ccpp-doc/internal/meta"
	"github.com/ligiabernardet/ccpp-doc/internal/utils"
)

var validateJSON bool

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Check metadata files without writing fragments",
		Long: `Parse and validate metadata files, reporting every content error found.

Arguments may be .meta files or directories, which are searched recursively.
With no arguments, the scheme_paths of ccppdoc.yaml are searched. Nothing is
written; the exit status is non-zero when any file has errors.`,
		Example: `  # Validate one file
  ccppdoc validate schemes/mp_thompson.meta

  # Validate every .meta file under a directory tree
  ccppdoc validate schemes/

  # Machine-readable output for editor integration
  ccppdoc validate --json schemes/`,
		RunE: runValidate,
	}

	cmd.Flags().BoolVar(&validateJSON, "json", false, "Output errors in JSON format")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	successColor := color.New(color.FgGreen, color.Bold)

	paths, err := collectMetaPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no metadata files found")
	}

	var all meta.ErrorList
	entryCount := 0
	failedFiles := 0
	for _, path := range paths {
		f, errs := meta.ParseFile(path)
		if len(errs) > 0 {
			failedFiles++
			all = append(all, errs...)
			continue
		}
		entryCount += len(f.Entries)
	}

	if len(all) > 0 {
		all.Sort()
		if validateJSON {
			outputErrorsJSON(cmd.OutOrStdout(), all)
		} else {
			ui.PrintMetaErrors(cmd.ErrOrStderr(), all, false)
			ui.PrintErrorSummary(cmd.ErrOrStderr(), failedFiles, len(all), false)
		}
		return fmt.Errorf("validation failed")
	}

	successColor.Fprintf(cmd.OutOrStdout(), "✓ %d file(s) valid, %d entry point(s)\n", len(paths), entryCount)
	return nil
}

// collectMetaPaths expands the argument list into metadata file paths. With no
// arguments the configured scheme paths are searched.
func collectMetaPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		args = cfg.SchemePaths
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := utils.FindMetaFiles(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
			continue
		}
		paths = append(paths, arg)
	}
	return paths, nil
}
