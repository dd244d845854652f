package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sleroq/logseq-to-notion/internal/config"
	logseqdomain "github.com/sleroq/logseq-to-notion/internal/domain/logseq"
	"github.com/sleroq/logseq-to-notion/internal/infra/exportfs"
	"github.com/sleroq/logseq-to-notion/internal/infra/logseqfs"
)

// Converter converts one Logseq collection into a Notion import tree.
type Converter struct {
	Collection logseqdomain.Collection
	OutputDir  string
	// Unique appends a random hex token to every note file name.
	Unique bool
	// Suffix overrides the source of uniqueness tokens.
	Suffix        func() string
	JournalLayout string
	// SummaryLength bounds the per-note summary; 0 disables summaries.
	SummaryLength int
	ReportFormat  string
	IndexCSV      bool
	Progress      bool
	Logger        *slog.Logger
	Now           func() time.Time
}

// Run converts every note exactly once and writes the report. Problems with
// single notes or assets end up in the report; only a missing source, an
// unwritable output directory or cancellation return an error.
func (c Converter) Run(ctx context.Context) (Report, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}
	layout := c.JournalLayout
	if layout == "" {
		layout = logseqdomain.DefaultJournalLayout
	}
	format := c.ReportFormat
	if format == "" {
		format = config.ReportJSON
	}

	if c.OutputDir == "" {
		return Report{}, fmt.Errorf("output directory is required")
	}
	if info, err := os.Stat(c.Collection.Root); err != nil || !info.IsDir() {
		return Report{}, fmt.Errorf("%w: %s", logseqfs.ErrSourceNotFound, c.Collection.Root)
	}
	if err := exportfs.EnsureWritableDir(c.OutputDir); err != nil {
		return Report{}, err
	}

	logger.Info("converting collection",
		slog.String("collection", c.Collection.Name),
		slog.Int("notes", len(c.Collection.Notes)),
		slog.Int("assets", len(c.Collection.Assets)))

	reg := logseqdomain.BuildRegistry(c.Collection.Notes, logseqdomain.RegistryOptions{
		Unique:        c.Unique,
		Suffix:        c.Suffix,
		JournalLayout: layout,
	})
	assets := logseqdomain.MapAssets(c.Collection.Assets, func(src string) string {
		return exportfs.DetectFileExtensionFromContent(c.sourceFile(src))
	})

	report := Report{
		Source:      c.Collection.Root,
		OutputDir:   c.OutputDir,
		GeneratedAt: now(),
		NameMap:     reg.NameMap(),
		Records:     make([]Record, 0, len(c.Collection.Notes)),
	}
	report.Warnings = append(report.Warnings, assets.Warnings()...)

	bar := newProgressBar(progressOutput(c.Progress), len(c.Collection.Notes)+assets.Len())
	defer bar.Close()

	for _, entry := range assets.Entries() {
		dst := filepath.Join(c.OutputDir, filepath.FromSlash(entry.OutputRelativePath))
		src := c.sourceFile(entry.SourceRelativePath)
		if err := exportfs.CopyFile(src, dst); err != nil {
			logger.Warn("copy asset failed", slog.String("asset", entry.SourceRelativePath), slog.String("error", err.Error()))
			report.Warnings = append(report.Warnings, fmt.Sprintf("copy asset %s: %v", entry.SourceRelativePath, err))
		} else {
			c.keepFileTimes(src, dst, logger)
		}
		bar.Step("assets", entry.SourceRelativePath)
	}

	referenced := map[string]struct{}{}
	for _, id := range c.Collection.Notes {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		rec, refs := c.convertNote(id, reg, assets, logger)
		for _, ref := range refs {
			referenced[ref] = struct{}{}
		}
		report.Records = append(report.Records, rec)
		bar.Step("notes", id.SourcePath)
	}

	report.Assets = assets.Entries()
	for i := range report.Assets {
		_, report.Assets[i].Referenced = referenced[report.Assets[i].SourceRelativePath]
	}
	report.Stats = computeStats(report)

	path, err := WriteReport(c.OutputDir, report, format)
	if err != nil {
		return Report{}, err
	}
	if c.IndexCSV {
		if err := writeIndexCSV(c.OutputDir, report); err != nil {
			return Report{}, err
		}
	}
	bar.Finish("done")

	logger.Info("collection converted",
		slog.String("collection", c.Collection.Name),
		slog.Int("pages", report.Stats.Pages),
		slog.Int("journals", report.Stats.Journals),
		slog.Int("assets", report.Stats.Assets),
		slog.Int("warnings", report.Stats.Warnings),
		slog.String("report", path))
	return report, nil
}

func (c Converter) convertNote(id logseqdomain.NoteIdentity, reg *logseqdomain.Registry, assets *logseqdomain.AssetMap, logger *slog.Logger) (Record, []string) {
	name, _ := reg.ForSource(id.SourcePath)
	rec := Record{
		Identity: id,
		Resolved: name,
		Warnings: reg.NoticesFor(id.SourcePath),
	}
	skip := func(msg string) (Record, []string) {
		logger.Warn("note skipped", slog.String("note", id.SourcePath), slog.String("reason", msg))
		rec.Skipped = true
		rec.Warnings = append(rec.Warnings, "skipped: "+msg)
		return rec, nil
	}

	src := c.sourceFile(id.SourcePath)
	data, err := os.ReadFile(src)
	if err != nil {
		return skip(fmt.Sprintf("read: %v", err))
	}
	if !utf8.Valid(data) {
		return skip("content is not valid UTF-8")
	}
	content := strings.TrimPrefix(string(data), "\ufeff")

	transformed, warnings := logseqdomain.Transform(content)
	rec.Warnings = append(rec.Warnings, warnings...)

	links := logseqdomain.ResolveLinks(transformed, id.SourcePath, reg, assets)
	rec.LinksRewritten = links.LinksRewritten
	rec.Unresolved = links.Unresolved
	rec.Warnings = append(rec.Warnings, links.Warnings...)

	dst := filepath.Join(c.OutputDir, name.OutputFilename)
	if err := exportfs.WriteFile(dst, []byte(links.Content)); err != nil {
		return skip(fmt.Sprintf("write %s: %v", name.OutputFilename, err))
	}
	c.keepFileTimes(src, dst, logger)
	if c.SummaryLength > 0 {
		rec.Summary = logseqdomain.Summarize(links.Content, c.SummaryLength)
	}
	logger.Debug("note converted",
		slog.String("note", id.SourcePath),
		slog.String("output", name.OutputFilename),
		slog.Int("links", rec.LinksRewritten),
		slog.Int("unresolved", len(rec.Unresolved)))
	return rec, links.ReferencedAssets
}

// keepFileTimes copies the source modification time onto dst. Failures are
// only logged.
func (c Converter) keepFileTimes(src, dst string, logger *slog.Logger) {
	if err := exportfs.ApplySourceFileTimes(src, dst); err != nil {
		logger.Debug("apply file times failed", slog.String("path", dst), slog.String("error", err.Error()))
	}
}

func (c Converter) sourceFile(rel string) string {
	return filepath.Join(c.Collection.Root, filepath.FromSlash(rel))
}

func computeStats(r Report) Stats {
	s := Stats{
		Assets:   len(r.Assets),
		Warnings: len(r.Warnings),
	}
	for _, rec := range r.Records {
		s.Warnings += len(rec.Warnings)
		if rec.Skipped {
			continue
		}
		switch rec.Identity.Kind {
		case logseqdomain.KindJournal:
			s.Journals++
		default:
			s.Pages++
		}
	}
	return s
}
