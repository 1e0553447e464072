package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ligiabernardet/ccpp-doc/internal/cli/ui"
	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

var listMeta string

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the entry points of one metadata file",
		Long: `Print the entry points declared in a metadata file and, for each, its
ordered argument table.`,
		Example: `  ccppdoc list --meta schemes/mp_thompson.meta`,
		RunE:    runList,
	}

	cmd.Flags().StringVar(&listMeta, "meta", "", "Metadata file to inspect")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	if listMeta == "" {
		return usageError(cmd, "--meta is required", "")
	}

	infoColor := color.New(color.FgCyan)

	f, errs := meta.ParseFile(listMeta)
	if len(errs) > 0 {
		ui.PrintMetaErrors(cmd.ErrOrStderr(), errs, false)
		return fmt.Errorf("cannot list %s", listMeta)
	}

	if f.Properties != nil {
		kv := ui.NewKeyValueTable(cmd.OutOrStdout(), false)
		kv.AddRow("scheme", f.Properties.Name)
		if len(f.Properties.Dependencies) > 0 {
			kv.AddRow("dependencies", fmt.Sprintf("%d file(s)", len(f.Properties.Dependencies)))
		}
		kv.Render()
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if len(f.Entries) == 0 {
		infoColor.Fprintln(cmd.OutOrStdout(), "No entry points declared.")
		return nil
	}

	for _, entry := range f.Entries {
		ui.Header(cmd.OutOrStdout(), fmt.Sprintf("%s (%d argument(s))", entry.Name, len(entry.Args)), false)

		if entry.Empty() {
			infoColor.Fprintln(cmd.OutOrStdout(), "No arguments; no fragment will be generated.")
			fmt.Fprintln(cmd.OutOrStdout())
			continue
		}

		table := ui.NewTable(cmd.OutOrStdout(), []string{"ARGUMENT", "STANDARD NAME", "UNITS", "DIMENSIONS", "TYPE", "INTENT"}, nil)
		for _, arg := range entry.Args {
			table.AddRow(
				arg.LocalName,
				arg.StandardName,
				arg.Units,
				arg.DimensionSpec(),
				arg.Type,
				arg.Intent.String(),
			)
		}
		table.Render()
		fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}
