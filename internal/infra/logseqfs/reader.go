package logseqfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logseqdomain "github.com/sleroq/logseq-to-notion/internal/domain/logseq"
)

var (
	ErrSourceNotFound = errors.New("source directory not found")
	ErrNoCollections  = errors.New("no logseq export found")
)

const (
	pagesDir    = "pages"
	journalsDir = "journals"
	assetsDir   = "assets"
)

// titleScanSize bounds how much of a page is read to find its title:: property.
const titleScanSize = 8 << 10

// IsCollection reports whether dir looks like one Logseq export.
func IsCollection(dir string) bool {
	for _, sub := range []string{pagesDir, journalsDir} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// ListCollections returns the sorted names of the subdirectories of root
// that are Logseq exports.
func ListCollections(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
		}
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	var out []string
	for _, ent := range entries {
		if ent.IsDir() && IsCollection(filepath.Join(root, ent.Name())) {
			out = append(out, ent.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// ResolveCollections picks the collection directories to convert. A root
// that is itself an export is returned alone; otherwise name selects one
// child, or every child when all is set.
func ResolveCollections(root string, name string, all bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
	}
	if name != "" {
		dir := filepath.Join(root, name)
		if !IsCollection(dir) {
			return nil, fmt.Errorf("%w: %s has no pages/ or journals/", ErrNoCollections, dir)
		}
		return []string{dir}, nil
	}
	if IsCollection(root) {
		return []string{root}, nil
	}
	names, err := ListCollections(root)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCollections, root)
	}
	if !all && len(names) > 1 {
		return nil, fmt.Errorf("%w: %s holds several exports (%s), pick one or convert all",
			ErrNoCollections, root, strings.Join(names, ", "))
	}
	dirs := make([]string, 0, len(names))
	for _, n := range names {
		dirs = append(dirs, filepath.Join(root, n))
	}
	return dirs, nil
}

// ReadCollection lists the notes and assets of one export directory.
func ReadCollection(dir string) (logseqdomain.Collection, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return logseqdomain.Collection{}, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
	}

	pages, err := readNotes(dir, pagesDir, logseqdomain.KindPage)
	if err != nil {
		return logseqdomain.Collection{}, err
	}
	journals, err := readNotes(dir, journalsDir, logseqdomain.KindJournal)
	if err != nil {
		return logseqdomain.Collection{}, err
	}
	assets, err := readAssets(dir)
	if err != nil {
		return logseqdomain.Collection{}, err
	}

	notes := make([]logseqdomain.NoteIdentity, 0, len(pages)+len(journals))
	notes = append(notes, pages...)
	notes = append(notes, journals...)

	return logseqdomain.Collection{
		Name:   filepath.Base(filepath.Clean(dir)),
		Root:   dir,
		Notes:  notes,
		Assets: assets,
	}, nil
}

func readNotes(root string, sub string, kind logseqdomain.NoteKind) ([]logseqdomain.NoteIdentity, error) {
	entries, err := os.ReadDir(filepath.Join(root, sub))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s dir: %w", sub, err)
	}
	var out []logseqdomain.NoteIdentity
	for _, ent := range entries {
		if ent.IsDir() || !strings.EqualFold(filepath.Ext(ent.Name()), ".md") {
			continue
		}
		stem := strings.TrimSuffix(ent.Name(), filepath.Ext(ent.Name()))
		id := logseqdomain.NoteIdentity{
			Kind:       kind,
			RawTitle:   stem,
			SourcePath: sub + "/" + ent.Name(),
		}
		if kind == logseqdomain.KindPage {
			id.RawTitle = logseqdomain.DecodePageFileName(stem)
			props := readLeadingProperties(filepath.Join(root, sub, ent.Name()))
			if title := strings.TrimSpace(props["title"]); title != "" {
				id.RawTitle = title
			}
			id.Aliases = logseqdomain.SplitPropertyList(props["alias"])
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourcePath < out[j].SourcePath })
	return out, nil
}

// readLeadingProperties is best effort: an unreadable page keeps its file
// name as title and fails later, when the converter reads it in full.
func readLeadingProperties(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, titleScanSize)
	n, _ := f.Read(buf)
	return logseqdomain.LeadingProperties(string(buf[:n]))
}

func readAssets(root string) ([]string, error) {
	base := filepath.Join(root, assetsDir)
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var out []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read assets dir: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
