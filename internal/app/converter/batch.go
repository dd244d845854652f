package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sleroq/logseq-to-notion/internal/config"
	logseqdomain "github.com/sleroq/logseq-to-notion/internal/domain/logseq"
	"github.com/sleroq/logseq-to-notion/internal/infra/exportfs"
	"github.com/sleroq/logseq-to-notion/internal/infra/logseqfs"
)

// NotesDirName is the directory inside a run folder that holds the
// converted tree.
const NotesDirName = "notion-output"

const runStampLayout = "20060102-150405"

// Result is the outcome of converting one collection in a batch.
type Result struct {
	Collection string
	RunDir     string
	NotesDir   string
	// Archive is empty when packaging is disabled.
	Archive string
	Report  Report
}

// Batch converts several collections with the same settings.
type Batch struct {
	Config *config.Config
	Logger *slog.Logger
	// Suffix and Now override randomness and the clock in tests.
	Suffix func() string
	Now    func() time.Time
}

// Run converts dirs, at most Config.App.Workers at a time. A failing
// collection does not stop the others; all failures are joined into the
// returned error. Results keep the order of dirs and skip failed entries.
func (b Batch) Run(ctx context.Context, dirs []string) ([]Result, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.Now
	if now == nil {
		now = time.Now
	}
	workers := max(b.Config.App.Workers, 1)
	stamp := now().Format(runStampLayout)

	results := make([]*Result, len(dirs))
	errs := make([]error, len(dirs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, dir := range dirs {
		g.Go(func() error {
			res, err := b.convertOne(ctx, dir, stamp, workers == 1, logger)
			if err != nil {
				logger.Error("collection failed", slog.String("collection", dir), slog.String("error", err.Error()))
				errs[i] = fmt.Errorf("%s: %w", filepath.Base(dir), err)
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(dirs))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, errors.Join(errs...)
}

func (b Batch) convertOne(ctx context.Context, dir string, stamp string, progress bool, logger *slog.Logger) (Result, error) {
	coll, err := logseqfs.ReadCollection(dir)
	if err != nil {
		return Result{}, err
	}
	runDir, notesDir := RunDirs(b.Config.Output, coll.Name, stamp)

	report, err := b.converter(coll, notesDir, progress, logger).Run(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Collection: coll.Name, RunDir: runDir, NotesDir: notesDir, Report: report}
	if b.Config.Output.Zip {
		res.Archive = filepath.Join(runDir, filepath.Base(runDir)+".zip")
		files, err := exportfs.ZipDir(notesDir, res.Archive)
		if err != nil {
			return Result{}, fmt.Errorf("package %s: %w", coll.Name, err)
		}
		logger.Info("archive written", slog.String("path", res.Archive), slog.Int("files", files))
	}
	return res, nil
}

func (b Batch) converter(coll logseqdomain.Collection, notesDir string, progress bool, logger *slog.Logger) Converter {
	cfg := b.Config
	return Converter{
		Collection:    coll,
		OutputDir:     notesDir,
		Unique:        cfg.Convert.Unique,
		Suffix:        b.Suffix,
		JournalLayout: cfg.Convert.JournalLayout,
		SummaryLength: cfg.Convert.SummaryLength,
		ReportFormat:  cfg.Output.ReportFormat,
		IndexCSV:      cfg.Output.IndexCSV,
		Progress:      progress,
		Logger:        logger.With(slog.String("collection", coll.Name)),
		Now:           b.Now,
	}
}

// RunDirs returns the run folder and the notes folder for one collection.
// Timestamped runs live in <output>/<name>-<YYYYMMDD-HHMMSS>, others in
// <output>/<name>.
func RunDirs(out config.OutputConfig, name string, stamp string) (string, string) {
	runName := name
	if out.Timestamped {
		runName = name + "-" + stamp
	}
	runDir := filepath.Join(out.Path, runName)
	return runDir, filepath.Join(runDir, NotesDirName)
}
