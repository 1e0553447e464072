package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with help commands.
//
// Example output:
//
//	✗ USAGE ERROR: --meta and --config are mutually exclusive
//
//	   Pick single-file mode (--meta with --out) or batch mode (--config).
//
//	   → See usage: ccppdoc convert --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelError:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "✗"
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "!"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "i"
	}

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// PrintMetaErrors writes a collected content-error list the way the compiler
// commands report it: one position-prefixed line per error, hints indented
// below.
func PrintMetaErrors(w io.Writer, errs meta.ErrorList, noColor bool) {
	posColor := color.New(color.FgRed, color.Bold)
	hintColor := color.New(color.FgYellow)
	if noColor {
		posColor.DisableColor()
		hintColor.DisableColor()
	}

	for _, e := range errs {
		posColor.Fprintf(w, "%s: ", e.Pos)
		fmt.Fprintln(w, e.Message)
		if e.Hint != "" {
			hintColor.Fprintf(w, "   hint: %s\n", e.Hint)
		}
	}
}

// PrintErrorSummary writes the closing failure line for a conversion or
// validation run.
func PrintErrorSummary(w io.Writer, files, errors int, noColor bool) {
	red := color.New(color.FgRed, color.Bold)
	if noColor {
		red.DisableColor()
	}
	red.Fprintf(w, "\n✗ %d error(s) in %d file(s)\n", errors, files)
}
