package logseq

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// AssetsDir is the output directory every asset is copied into.
const AssetsDir = "assets"

// AssetMap is the immutable source -> output mapping for one collection.
type AssetMap struct {
	entries  []AssetEntry
	bySource map[string]int
	warnings []string
}

// MapAssets assigns every asset path (slash separated, relative to the
// collection root) one output path under AssetsDir. File names are kept
// unless two assets would land on the same name, in which case the later
// one gets a suffix derived from its source path. detectExt, when set,
// names an extension for files that have none.
func MapAssets(paths []string, detectExt func(sourcePath string) string) *AssetMap {
	m := &AssetMap{bySource: make(map[string]int, len(paths))}
	used := map[string]struct{}{}

	for _, p := range paths {
		src := path.Clean(strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./"))
		if _, dup := m.bySource[src]; dup {
			continue
		}

		base := path.Base(src)
		ext := path.Ext(base)
		stem := SanitizeFileStem(strings.TrimSuffix(base, ext))
		if stem == "" {
			stem = "asset"
		}
		if ext == "" && detectExt != nil {
			ext = detectExt(src)
		}
		ext = strings.Map(func(r rune) rune {
			if isForbiddenFileNameRune(r) || r == ' ' {
				return '_'
			}
			return r
		}, ext)
		out := AssetsDir + "/" + stem + ext

		if _, taken := used[collisionKey(out)]; taken {
			for i := 0; ; i++ {
				candidate := AssetsDir + "/" + stem + " " + hashSuffix(src+"#"+strconv.Itoa(i)) + ext
				if _, taken := used[collisionKey(candidate)]; !taken {
					m.warnings = append(m.warnings, fmt.Sprintf("asset %q renamed to %q to avoid a name collision", src, candidate))
					out = candidate
					break
				}
			}
		}
		used[collisionKey(out)] = struct{}{}

		m.bySource[src] = len(m.entries)
		m.entries = append(m.entries, AssetEntry{SourceRelativePath: src, OutputRelativePath: out})
	}
	return m
}

// Lookup finds an asset by its source path relative to the collection root.
func (m *AssetMap) Lookup(sourcePath string) (AssetEntry, bool) {
	if m == nil {
		return AssetEntry{}, false
	}
	i, ok := m.bySource[path.Clean(sourcePath)]
	if !ok {
		return AssetEntry{}, false
	}
	return m.entries[i], true
}

// Resolve interprets ref as written inside the note at notePath and looks
// the result up. candidate is the collection-relative path ref points to.
func (m *AssetMap) Resolve(notePath string, ref string) (entry AssetEntry, candidate string, ok bool) {
	for _, variant := range refVariants(ref) {
		var p string
		if strings.HasPrefix(variant, "/") {
			p = path.Clean(strings.TrimLeft(variant, "/"))
		} else {
			p = path.Clean(path.Join(path.Dir(notePath), variant))
		}
		if candidate == "" {
			candidate = p
		}
		if e, found := m.Lookup(p); found {
			return e, p, true
		}
		if i := strings.Index(p, "/"+AssetsDir+"/"); i >= 0 {
			i++
			if e, found := m.Lookup(p[i:]); found {
				return e, p[i:], true
			}
		}
	}
	return AssetEntry{}, candidate, false
}

func refVariants(ref string) []string {
	ref = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(ref, "<"), ">"))
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	out := []string{ref}
	if unescaped, err := url.PathUnescape(ref); err == nil && unescaped != ref {
		out = append(out, unescaped)
	}
	return out
}

var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// isLocalRef reports whether ref points into the export rather than to a
// URL, an anchor or inline data.
func isLocalRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	return !schemeRe.MatchString(ref)
}

// Entries returns the asset entries in discovery order.
func (m *AssetMap) Entries() []AssetEntry {
	if m == nil {
		return nil
	}
	return append([]AssetEntry(nil), m.entries...)
}

func (m *AssetMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Warnings lists the renames made while mapping.
func (m *AssetMap) Warnings() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.warnings...)
}
