package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateCleanFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schemes/a.meta", schemeRunMeta)
	writeFile(t, dir, "schemes/b.meta", strings.ReplaceAll(schemeRunMeta, "scheme_run", "other_run"))

	stdout, _, err := runCommand(t, "validate", filepath.Join(dir, "schemes"))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(stdout, "2 file(s) valid") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout, "2 entry point(s)") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	dir := t.TempDir()
	badMeta := `[ccpp-arg-table]
  name = broken_run
  type = scheme

[im]
  standard_name = horizontal_loop_extent
  dimensions = ()
  type = integer
  intent = into
`
	path := writeFile(t, dir, "bad.meta", badMeta)

	_, stderr, err := runCommand(t, "validate", path)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	// Both the invalid intent and the missing units are reported.
	if !strings.Contains(stderr, "invalid intent 'into'") {
		t.Errorf("intent error missing: %q", stderr)
	}
	if !strings.Contains(stderr, "missing required property 'units'") {
		t.Errorf("units error missing: %q", stderr)
	}
}

func TestValidateWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schemes/a.meta", schemeRunMeta)
	before, _ := os.ReadDir(dir)

	if _, _, err := runCommand(t, "validate", filepath.Join(dir, "schemes")); err != nil {
		t.Fatalf("validate: %v", err)
	}

	after, _ := os.ReadDir(dir)
	if len(before) != len(after) {
		t.Error("validate created files")
	}
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.meta", duplicateEntryMeta)

	stdout, _, err := runCommand(t, "validate", "--json", path)
	if err == nil {
		t.Fatal("expected validation failure")
	}

	var payload struct {
		Success bool              `json:"success"`
		Errors  []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if payload.Success || len(payload.Errors) == 0 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestValidateMissingPath(t *testing.T) {
	_, _, err := runCommand(t, "validate", filepath.Join(t.TempDir(), "nope.meta"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if !strings.Contains(err.Error(), "cannot access") {
		t.Errorf("error = %v", err)
	}
}
