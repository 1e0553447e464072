package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ligiabernardet/ccpp-doc/internal/docgen"
	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

// FileResult records the outcome for one metadata file.
type FileResult struct {
	Path      string         `json:"path"`
	Group     string         `json:"group"`
	OutputDir string         `json:"output_dir"`
	Entries   int            `json:"entries"`
	Errors    meta.ErrorList `json:"errors,omitempty"`

	parsed *meta.File
}

// Failed reports whether the file produced errors.
func (fr *FileResult) Failed() bool {
	return len(fr.Errors) > 0
}

// Report is the outcome of one batch run.
type Report struct {
	RunID        string       `json:"run_id"`
	Config       string       `json:"config,omitempty"`
	Files        []FileResult `json:"files"`
	Fragments    []string     `json:"fragments"`
	EmptyEntries []string     `json:"empty_entries,omitempty"`
	FilesFailed  int          `json:"files_failed"`
}

// HasFailures reports whether any file failed.
func (r *Report) HasFailures() bool {
	return r.FilesFailed > 0
}

// Errors merges every file's errors into one position-sorted list.
func (r *Report) Errors() meta.ErrorList {
	var all meta.ErrorList
	for _, fr := range r.Files {
		all = append(all, fr.Errors...)
	}
	all.Sort()
	return all
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Runner executes batch builds for one configuration.
type Runner struct {
	config *Config
	jobs   int
}

// NewRunner creates a runner. jobs bounds concurrency; zero falls back to the
// config's jobs setting, then to one worker per CPU.
func NewRunner(config *Config, jobs int) *Runner {
	if jobs <= 0 {
		jobs = config.Jobs
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Runner{config: config, jobs: jobs}
}

// Run executes the build in three phases: parse every file concurrently,
// claim entry-point names in config order, then write each output directory's
// fragments. A file with errors produces no output; clean files convert even
// when other files fail. The returned error reports infrastructure failures
// only, content errors travel per file inside the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	tasks, err := r.config.Tasks()
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:  uuid.NewString(),
		Config: r.config.Path(),
		Files:  make([]FileResult, len(tasks)),
	}

	// Phase 1: parse and validate every file. Each worker writes only its
	// own slot, so no locking is needed.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.jobs)
	for i, t := range tasks {
		i, t := i, t
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			f, errs := meta.ParseFile(t.Path)
			report.Files[i] = FileResult{
				Path:      t.Path,
				Group:     t.Group,
				OutputDir: t.OutputDir,
				Errors:    errs,
				parsed:    f,
			}
			if f != nil {
				report.Files[i].Entries = len(f.Entries)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: claim entry-point names in config order, so when a name
	// collides the file listed later is the one that fails. A colliding
	// file claims nothing; only names that will render are held.
	registry := NewRegistry()
	for i := range report.Files {
		fr := &report.Files[i]
		if fr.parsed == nil || fr.Failed() {
			continue
		}

		var dups meta.ErrorList
		for _, entry := range fr.parsed.Entries {
			if first, taken := registry.Lookup(entry.Name); taken {
				dups = append(dups, meta.Error{
					Pos:     entry.Pos,
					Message: fmt.Sprintf("entry point '%s' already declared at %s", entry.Name, first),
					Hint:    "entry-point names label fragments and must be unique across the build",
				})
			}
		}
		if len(dups) > 0 {
			fr.Errors = append(fr.Errors, dups...)
			continue
		}

		for _, entry := range fr.parsed.Entries {
			registry.Register(entry.Name, entry.Pos)
		}
	}

	// Phase 3: write each output directory once, over all of its clean
	// files, so shared index pages cover the whole directory.
	byDir := make(map[string][]*meta.File)
	for i := range report.Files {
		fr := &report.Files[i]
		if fr.parsed == nil || fr.Failed() {
			continue
		}
		byDir[fr.OutputDir] = append(byDir[fr.OutputDir], fr.parsed)
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	results := make([]*docgen.Result, len(dirs))
	eg, egCtx = errgroup.WithContext(ctx)
	eg.SetLimit(r.jobs)
	for i, dir := range dirs {
		i, dir := i, dir
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			gen, err := docgen.NewGenerator(&docgen.Config{
				OutputDir: dir,
				Formats:   r.config.OutputFormats(),
				Title:     r.config.Title,
			})
			if err != nil {
				return err
			}
			res, err := gen.Generate(byDir[dir])
			if err != nil {
				return fmt.Errorf("writing %s: %w", dir, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		report.Fragments = append(report.Fragments, res.Fragments...)
		report.EmptyEntries = append(report.EmptyEntries, res.EmptyEntries...)
	}

	for i := range report.Files {
		if report.Files[i].Failed() {
			report.FilesFailed++
		}
	}

	return report, nil
}
