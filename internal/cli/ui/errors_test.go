package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

func TestFormatErrorUsage(t *testing.T) {
	out := FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "usage error",
		Problem:      "--meta and --config are mutually exclusive",
		Consequence:  "Pick single-file mode (--meta with --out) or batch mode (--config).",
		HelpCommands: []string{"See usage: ccppdoc convert --help"},
		NoColor:      true,
	})

	if !strings.Contains(out, "USAGE ERROR") {
		t.Errorf("context not uppercased: %q", out)
	}
	if !strings.Contains(out, "mutually exclusive") {
		t.Errorf("problem missing: %q", out)
	}
	if !strings.Contains(out, "→ See usage: ccppdoc convert --help") {
		t.Errorf("help command missing: %q", out)
	}
}

func TestFormatErrorWithoutContext(t *testing.T) {
	out := FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: "--out is ignored in batch mode",
		NoColor: true,
	})

	if !strings.HasPrefix(out, "! ") {
		t.Errorf("warning symbol missing: %q", out)
	}
}

func TestPrintMetaErrors(t *testing.T) {
	var buf bytes.Buffer
	errs := meta.ErrorList{
		{
			Pos:     meta.Position{File: "bad.meta", Line: 4, Column: 1},
			Message: "argument 'im' is missing required property 'units'",
		},
		{
			Pos:     meta.Position{File: "bad.meta", Line: 9, Column: 1},
			Message: "invalid intent 'into' for argument 'delt'",
			Hint:    "intent must be one of in, out, inout",
		},
	}
	PrintMetaErrors(&buf, errs, true)

	out := buf.String()
	if !strings.Contains(out, "bad.meta:4:1: argument 'im'") {
		t.Errorf("position prefix missing: %q", out)
	}
	if !strings.Contains(out, "hint: intent must be one of in, out, inout") {
		t.Errorf("hint not rendered: %q", out)
	}
}

func TestPrintErrorSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintErrorSummary(&buf, 2, 5, true)

	if !strings.Contains(buf.String(), "5 error(s) in 2 file(s)") {
		t.Errorf("summary = %q", buf.String())
	}
}
