package converter

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sleroq/logseq-to-notion/internal/config"
	"github.com/sleroq/logseq-to-notion/internal/infra/logseqfs"
)

func batchConfig(output string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Output.Path = output
	return cfg
}

func TestBatchWritesTimestampedRunAndArchive(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "work")
	writeFile(t, filepath.Join(source, "pages", "a.md"), "- [[b]]")
	writeFile(t, filepath.Join(source, "pages", "b.md"), "- b")
	writeFile(t, filepath.Join(source, "assets", "x.png"), "png")

	cfg := batchConfig(filepath.Join(root, "out"))
	cfg.Output.IndexCSV = true
	results, err := Batch{Config: cfg, Logger: quietLogger(), Now: fixedNow}.Run(context.Background(), []string{source})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}

	res := results[0]
	wantRun := filepath.Join(root, "out", "work-20250102-030405")
	if res.RunDir != wantRun || res.NotesDir != filepath.Join(wantRun, "notion-output") {
		t.Fatalf("unexpected dirs: %+v", res)
	}
	if res.Archive != filepath.Join(wantRun, "work-20250102-030405.zip") {
		t.Fatalf("unexpected archive path %s", res.Archive)
	}

	zr, err := zip.OpenReader(res.Archive)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"a.md", "assets/x.png", "b.md", "conversion_report.json", "index.csv"}
	if len(names) != len(want) {
		t.Fatalf("unexpected archive entries %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected archive entries %v", names)
		}
	}
}

func TestBatchWithoutTimestampOrZip(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "home")
	writeFile(t, filepath.Join(source, "journals", "2025_01_01.md"), "- day")

	cfg := batchConfig(filepath.Join(root, "out"))
	cfg.Output.Timestamped = false
	cfg.Output.Zip = false
	results, err := Batch{Config: cfg, Logger: quietLogger(), Now: fixedNow}.Run(context.Background(), []string{source})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if results[0].Archive != "" {
		t.Fatalf("archive written with zip disabled")
	}
	if _, err := os.Stat(filepath.Join(root, "out", "home", "notion-output", "2025年01月01日.md")); err != nil {
		t.Fatalf("journal not written: %v", err)
	}
}

func TestBatchConvertsCollectionsConcurrently(t *testing.T) {
	root := t.TempDir()
	var dirs []string
	for _, name := range []string{"a", "b", "c", "d"} {
		dir := filepath.Join(root, "src", name)
		writeFile(t, filepath.Join(dir, "pages", name+".md"), "- "+name)
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, filepath.Join(root, "src", "missing"))

	cfg := batchConfig(filepath.Join(root, "out"))
	cfg.App.Workers = 3
	cfg.Output.Zip = false
	results, err := Batch{Config: cfg, Logger: quietLogger(), Now: fixedNow}.Run(context.Background(), dirs)
	if !errors.Is(err, logseqfs.ErrSourceNotFound) {
		t.Fatalf("expected the missing collection to fail, got %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 converted collections, got %d", len(results))
	}
	for i, res := range results {
		if res.Collection != []string{"a", "b", "c", "d"}[i] {
			t.Fatalf("results out of order: %+v", results)
		}
		if res.Report.Stats.Pages != 1 {
			t.Fatalf("unexpected stats for %s: %+v", res.Collection, res.Report.Stats)
		}
	}
}
