package converter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sleroq/logseq-to-notion/internal/config"
	logseqdomain "github.com/sleroq/logseq-to-notion/internal/domain/logseq"
	"github.com/sleroq/logseq-to-notion/internal/infra/exportfs"
)

const (
	reportBaseName = "conversion_report"
	indexCSVName   = "index.csv"
)

type Stats struct {
	Pages    int `json:"pages" yaml:"pages"`
	Journals int `json:"journals" yaml:"journals"`
	Assets   int `json:"assets" yaml:"assets"`
	Warnings int `json:"warnings" yaml:"warnings"`
}

// Record describes what happened to one source note.
type Record struct {
	Identity       logseqdomain.NoteIdentity
	Resolved       logseqdomain.ResolvedName
	LinksRewritten int
	Unresolved     []string
	Warnings       []string
	Skipped        bool
	Summary        string
}

// Report is the complete outcome of converting one collection.
type Report struct {
	Source      string
	OutputDir   string
	GeneratedAt time.Time
	NameMap     map[string]string
	Records     []Record
	Assets      []logseqdomain.AssetEntry
	Warnings    []string
	Stats       Stats
}

type reportDocument struct {
	Source      string                    `json:"source" yaml:"source"`
	GeneratedAt string                    `json:"generatedAt" yaml:"generatedAt"`
	Stats       Stats                     `json:"stats" yaml:"stats"`
	NameMap     map[string]string         `json:"nameMap" yaml:"nameMap"`
	Records     []recordDocument          `json:"records" yaml:"records"`
	Assets      []logseqdomain.AssetEntry `json:"assets" yaml:"assets"`
	Warnings    []string                  `json:"warnings" yaml:"warnings"`
}

type recordDocument struct {
	Source         string   `json:"source" yaml:"source"`
	Output         string   `json:"output" yaml:"output"`
	Kind           string   `json:"kind" yaml:"kind"`
	Title          string   `json:"title" yaml:"title"`
	LinksRewritten int      `json:"linksRewritten" yaml:"linksRewritten"`
	Unresolved     []string `json:"unresolved" yaml:"unresolved"`
	Warnings       []string `json:"warnings" yaml:"warnings"`
	Skipped        bool     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Summary        string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func newReportDocument(r Report) reportDocument {
	doc := reportDocument{
		Source:      r.Source,
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
		Stats:       r.Stats,
		NameMap:     r.NameMap,
		Records:     make([]recordDocument, 0, len(r.Records)),
		Assets:      r.Assets,
		Warnings:    nonNil(r.Warnings),
	}
	if doc.NameMap == nil {
		doc.NameMap = map[string]string{}
	}
	if doc.Assets == nil {
		doc.Assets = []logseqdomain.AssetEntry{}
	}
	for _, rec := range r.Records {
		doc.Records = append(doc.Records, recordDocument{
			Source:         rec.Identity.SourcePath,
			Output:         rec.Resolved.OutputFilename,
			Kind:           rec.Identity.Kind.String(),
			Title:          rec.Resolved.DisplayTitle,
			LinksRewritten: rec.LinksRewritten,
			Unresolved:     nonNil(rec.Unresolved),
			Warnings:       nonNil(rec.Warnings),
			Skipped:        rec.Skipped,
			Summary:        rec.Summary,
		})
	}
	return doc
}

// EncodeReport serializes r without looking at anything but r.
func EncodeReport(r Report, format string) ([]byte, error) {
	doc := newReportDocument(r)
	switch format {
	case "", config.ReportJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return buf.Bytes(), nil
	case config.ReportYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// WriteReport writes r next to the converted notes and returns the path.
func WriteReport(dir string, r Report, format string) (string, error) {
	data, err := EncodeReport(r, format)
	if err != nil {
		return "", err
	}
	if format == "" {
		format = config.ReportJSON
	}
	path := filepath.Join(dir, reportBaseName+"."+format)
	if err := exportfs.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Column names follow the Notion team template database the CSV is meant
// to be imported into.
var indexCSVHeader = []string{"名字", "开始日期", "页面类型", "摘要"}

// EncodeIndexCSV renders one row per converted note, journals first by date.
func EncodeIndexCSV(r Report) ([]byte, error) {
	rows := make([]Record, 0, len(r.Records))
	for _, rec := range r.Records {
		if !rec.Skipped {
			rows = append(rows, rec)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Identity.Kind != rows[j].Identity.Kind {
			return rows[i].Identity.Kind == logseqdomain.KindJournal
		}
		return false
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(indexCSVHeader); err != nil {
		return nil, err
	}
	for _, rec := range rows {
		kind := "文章"
		start := ""
		if rec.Identity.Kind == logseqdomain.KindJournal {
			kind = "日志"
			if t, ok := logseqdomain.ParseJournalDate(rec.Identity.RawTitle); ok {
				start = t.Format("01/02/2006")
			}
		}
		if err := w.Write([]string{rec.Resolved.DisplayTitle, start, kind, rec.Summary}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeIndexCSV(dir string, r Report) error {
	data, err := EncodeIndexCSV(r)
	if err != nil {
		return fmt.Errorf("encode index csv: %w", err)
	}
	return exportfs.WriteFile(filepath.Join(dir, indexCSVName), data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
