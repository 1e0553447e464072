package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ligiabernardet/ccpp-doc/internal/batch"
)

var initOutput string

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a batch configuration interactively",
		Long: `Ask for the scheme directories, output directory, and fragment formats,
then write a batch configuration file that 'ccppdoc convert --config' accepts.
An existing file is only overwritten after confirmation.`,
		Example: `  ccppdoc init
  ccppdoc init --output ccppdoc-batch.yaml`,
		RunE: runInit,
	}

	cmd.Flags().StringVar(&initOutput, "output", "ccppdoc-batch.yaml", "Path of the configuration file to write")

	return cmd
}

// initAnswers holds the prompt results.
type initAnswers struct {
	SchemeDirs string
	OutputDir  string
	Formats    []string
	Title      string
}

func runInit(cmd *cobra.Command, args []string) error {
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)

	if _, err := os.Stat(initOutput); err == nil {
		overwrite := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("%s already exists. Overwrite?", initOutput),
			Default: false,
		}
		if err := survey.AskOne(prompt, &overwrite); err != nil {
			return err
		}
		if !overwrite {
			infoColor.Fprintln(cmd.OutOrStdout(), "Keeping the existing configuration.")
			return nil
		}
	}

	questions := []*survey.Question{
		{
			Name: "schemeDirs",
			Prompt: &survey.Input{
				Message: "Scheme directories (comma separated):",
				Default: "schemes",
			},
			Validate: survey.Required,
		},
		{
			Name: "outputDir",
			Prompt: &survey.Input{
				Message: "Fragment output directory:",
				Default: "docs/metadata",
			},
			Validate: survey.Required,
		},
		{
			Name: "formats",
			Prompt: &survey.MultiSelect{
				Message: "Fragment formats:",
				Options: []string{"html", "markdown"},
				Default: []string{"html"},
			},
		},
		{
			Name: "title",
			Prompt: &survey.Input{
				Message: "Index page title:",
				Default: "Scheme Metadata",
			},
		},
	}

	answers := initAnswers{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}
	if len(answers.Formats) == 0 {
		answers.Formats = []string{"html"}
	}

	cfg := batch.Config{
		Output:  answers.OutputDir,
		Formats: answers.Formats,
		Title:   answers.Title,
	}
	for _, dir := range strings.Split(answers.SchemeDirs, ",") {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		cfg.Groups = append(cfg.Groups, batch.Group{
			Name:     groupName(dir),
			Metadata: []string{dir},
		})
	}
	if len(cfg.Groups) == 0 {
		return fmt.Errorf("no scheme directories given")
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	header := "# ccppdoc batch configuration\n# Generated by 'ccppdoc init'; edit freely.\n"
	if err := os.WriteFile(initOutput, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", initOutput, err)
	}

	successColor.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", initOutput)
	infoColor.Fprintf(cmd.OutOrStdout(), "  Run: ccppdoc convert --config %s\n", initOutput)
	return nil
}

// groupName derives a config group name from a directory path.
func groupName(dir string) string {
	name := strings.Trim(strings.ReplaceAll(dir, "\\", "/"), "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." {
		return "schemes"
	}
	return name
}
