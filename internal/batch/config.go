// Package batch runs multi-file documentation builds from a YAML
// configuration. A build expands the configured metadata groups, parses and
// validates every file, enforces build-wide entry-point uniqueness, and
// writes fragments per output directory.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ligiabernardet/ccpp-doc/internal/docgen"
	"github.com/ligiabernardet/ccpp-doc/internal/utils"
)

// Config is a batch build configuration. Relative paths are resolved against
// the directory of the config file.
type Config struct {
	// Output is the default output directory for all groups
	Output string `yaml:"output,omitempty"`

	// Formats lists the fragment formats to generate (html, markdown)
	Formats []string `yaml:"formats,omitempty"`

	// Title labels the generated index pages
	Title string `yaml:"title,omitempty"`

	// Jobs bounds build concurrency; zero means one worker per CPU
	Jobs int `yaml:"jobs,omitempty"`

	// Groups are the metadata sources of the build
	Groups []Group `yaml:"groups"`

	// path and baseDir record where the config was loaded from
	path    string
	baseDir string
}

// Group names a set of metadata sources. Each source is a literal file path,
// a glob pattern, or a directory to search recursively for .meta files.
type Group struct {
	// Name identifies the group in reports and error messages
	Name string `yaml:"name"`

	// Output overrides the build-level output directory for this group
	Output string `yaml:"output,omitempty"`

	// Metadata lists the group's metadata sources
	Metadata []string `yaml:"metadata"`
}

// LoadConfig reads and validates a batch configuration file. Unknown keys are
// rejected so typos fail the build instead of being silently dropped.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	cfg.path = path
	cfg.baseDir = filepath.Dir(path)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the location the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) validate() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("config declares no groups")
	}

	for i, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("group %d has no name", i+1)
		}
		if len(g.Metadata) == 0 {
			return fmt.Errorf("group '%s' lists no metadata sources", g.Name)
		}
		if c.Output == "" && g.Output == "" {
			return fmt.Errorf("group '%s' has no output directory and the config sets no default", g.Name)
		}
	}

	if _, err := docgen.ParseFormats(strings.Join(c.Formats, ",")); err != nil {
		return err
	}

	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative")
	}

	return nil
}

// OutputFormats returns the configured formats, defaulting to HTML.
func (c *Config) OutputFormats() []docgen.Format {
	formats, err := docgen.ParseFormats(strings.Join(c.Formats, ","))
	if err != nil {
		// validate rejected unknown formats already
		return []docgen.Format{docgen.FormatHTML}
	}
	return formats
}

// OutputDir returns the effective output directory for a group, resolved
// against the config file location.
func (c *Config) OutputDir(g Group) string {
	out := c.Output
	if g.Output != "" {
		out = g.Output
	}
	return c.resolve(out)
}

// task is one metadata file scheduled for conversion.
type task struct {
	// Path is the metadata file
	Path string

	// Group names the group that listed the file
	Group string

	// OutputDir is the effective output directory
	OutputDir string
}

// Tasks expands every group's metadata sources into an ordered task list.
// Config order is preserved; files produced by a glob or directory source are
// sorted. A source that yields no files is an error, since a silently empty
// group almost always means a stale path.
func (c *Config) Tasks() ([]task, error) {
	var tasks []task

	for _, g := range c.Groups {
		outDir := c.OutputDir(g)

		for _, source := range g.Metadata {
			paths, err := c.expandSource(source)
			if err != nil {
				return nil, fmt.Errorf("group '%s': %w", g.Name, err)
			}
			if len(paths) == 0 {
				return nil, fmt.Errorf("group '%s': source '%s' matched no metadata files", g.Name, source)
			}
			for _, p := range paths {
				tasks = append(tasks, task{Path: p, Group: g.Name, OutputDir: outDir})
			}
		}
	}

	return tasks, nil
}

// MetadataDirs returns the unique directories holding the configured metadata
// files, in first-seen order. Watch mode monitors these.
func (c *Config) MetadataDirs() ([]string, error) {
	tasks, err := c.Tasks()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var dirs []string
	for _, t := range tasks {
		dir := filepath.Dir(t.Path)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// expandSource resolves one metadata source into file paths.
func (c *Config) expandSource(source string) ([]string, error) {
	resolved := c.resolve(source)

	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return utils.FindMetaFiles(resolved)
	}

	// filepath.Glob returns matches sorted and only errors on a bad pattern
	paths, err := filepath.Glob(resolved)
	if err != nil {
		return nil, fmt.Errorf("bad pattern '%s': %w", source, err)
	}
	return paths, nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}
