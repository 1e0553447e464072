// Package commands implements the ccppdoc command tree.
package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ccppdoc",
		Short: "Scheme metadata documentation tooling",
		Long: color.CyanString(`ccppdoc - physics-scheme metadata documentation tool

ccppdoc converts scheme metadata files (.meta) into per-entry-point argument
tables for inclusion in generated documentation (Doxygen \htmlinclude).

Commands:
  • convert  - generate argument-table fragments from metadata
  • validate - check metadata files without writing output
  • list     - show the entry points of one metadata file
  • init     - scaffold a batch configuration interactively
  • serve    - preview generated fragments in a browser`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewConvertCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the ccppdoc version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(cmd.OutOrStdout(), "ccppdoc version: ")
			valueColor.Fprintln(cmd.OutOrStdout(), Version)

			titleColor.Fprint(cmd.OutOrStdout(), "Git commit: ")
			valueColor.Fprintln(cmd.OutOrStdout(), GitCommit)

			titleColor.Fprint(cmd.OutOrStdout(), "Build date: ")
			valueColor.Fprintln(cmd.OutOrStdout(), BuildDate)

			titleColor.Fprint(cmd.OutOrStdout(), "Go version: ")
			valueColor.Fprintln(cmd.OutOrStdout(), goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
