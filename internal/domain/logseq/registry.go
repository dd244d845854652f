package logseq

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const suffixLen = 8

// maxSuffixDraws bounds redraws of a suffix source that keeps repeating itself.
const maxSuffixDraws = 16

type RegistryOptions struct {
	// Unique appends an 8 character hex token to every output file name.
	Unique bool
	// Suffix produces uniqueness tokens. Defaults to RandomSuffix.
	Suffix func() string
	// JournalLayout is the Go time layout for journal display titles.
	JournalLayout string
}

// Registry is the immutable rawTitle -> ResolvedName snapshot for one
// collection. It is built once before any note content is rewritten.
type Registry struct {
	byTitle  map[string]ResolvedName
	bySource map[string]ResolvedName
	aliases  map[string]string
	folded   map[string]string
	titles   []string
	notices  map[string][]string
	warnings []string
}

// RandomSuffix returns 8 lowercase hex characters taken from a random UUID.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
}

// BuildRegistry resolves every identity exactly once, in order.
func BuildRegistry(identities []NoteIdentity, opts RegistryOptions) *Registry {
	if opts.Suffix == nil {
		opts.Suffix = RandomSuffix
	}
	r := &Registry{
		byTitle:  make(map[string]ResolvedName, len(identities)),
		bySource: make(map[string]ResolvedName, len(identities)),
		aliases:  map[string]string{},
		folded:   map[string]string{},
		notices:  map[string][]string{},
	}

	usedSuffix := map[string]struct{}{}
	outputOwner := map[string]NoteIdentity{}

	for _, id := range identities {
		display := id.RawTitle
		aliases := appendUnique(nil, id.Aliases...)
		if id.Kind == KindJournal {
			title, ok := JournalDisplayTitle(id.RawTitle, opts.JournalLayout)
			if ok {
				display = title
				if t, parsed := ParseJournalDate(id.RawTitle); parsed {
					aliases = appendUnique(aliases, display, t.Format("2006-01-02"))
				}
			} else {
				r.notify(id.SourcePath, fmt.Sprintf("journal %q: file name is not a date token, using it as the title", id.RawTitle))
			}
		}

		stem := SanitizeFileStem(display)
		if stem == "" {
			stem = untitledName
			r.notify(id.SourcePath, fmt.Sprintf("title %q is empty after sanitizing, using %q", id.RawTitle, untitledName))
		}

		name := ResolvedName{
			DisplayTitle: display,
			FileStem:     stem,
			Aliases:      aliases,
		}
		if opts.Unique {
			name.UniqueSuffix = drawSuffix(opts.Suffix, usedSuffix, id.SourcePath)
			name.OutputFilename = stem + " " + name.UniqueSuffix + ".md"
		} else {
			name.OutputFilename = stem + ".md"
		}

		key := collisionKey(name.OutputFilename)
		prev, taken := outputOwner[key]
		if taken && prev.RawTitle != id.RawTitle {
			r.notify(id.SourcePath, fmt.Sprintf("output file %q for %q collides with %q (%s); the later note overwrites the earlier one",
				name.OutputFilename, id.RawTitle, prev.RawTitle, prev.SourcePath))
		}
		outputOwner[key] = id

		r.bySource[id.SourcePath] = name
		if _, dup := r.byTitle[id.RawTitle]; dup {
			msg := fmt.Sprintf("title %q is used by more than one note; links resolve to the first one", id.RawTitle)
			if taken && prev.RawTitle == id.RawTitle {
				msg += fmt.Sprintf("; output file %q of %s is overwritten by this note", name.OutputFilename, prev.SourcePath)
			}
			r.notify(id.SourcePath, msg)
			continue
		}
		r.byTitle[id.RawTitle] = name
		r.titles = append(r.titles, id.RawTitle)
		if _, ok := r.folded[strings.ToLower(id.RawTitle)]; !ok {
			r.folded[strings.ToLower(id.RawTitle)] = id.RawTitle
		}
		for _, alias := range aliases {
			if _, ok := r.aliases[alias]; !ok {
				r.aliases[alias] = id.RawTitle
			}
		}
	}
	return r
}

func drawSuffix(next func() string, used map[string]struct{}, seed string) string {
	for i := 0; i < maxSuffixDraws; i++ {
		s := strings.ToLower(next())
		if len(s) > suffixLen {
			s = s[:suffixLen]
		}
		if len(s) != suffixLen {
			continue
		}
		if _, taken := used[s]; taken {
			continue
		}
		used[s] = struct{}{}
		return s
	}
	for i := 0; ; i++ {
		s := hashSuffix(seed + "#" + strconv.Itoa(i))
		if _, taken := used[s]; taken {
			continue
		}
		used[s] = struct{}{}
		return s
	}
}

func hashSuffix(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:suffixLen]
}

func (r *Registry) notify(sourcePath string, msg string) {
	r.notices[sourcePath] = append(r.notices[sourcePath], msg)
	r.warnings = append(r.warnings, sourcePath+": "+msg)
}

// Lookup resolves a link target: exact title, then journal alias, then a
// case-insensitive match.
func (r *Registry) Lookup(target string) (ResolvedName, bool) {
	if name, ok := r.byTitle[target]; ok {
		return name, true
	}
	if title, ok := r.aliases[target]; ok {
		return r.byTitle[title], true
	}
	if title, ok := r.folded[strings.ToLower(target)]; ok {
		return r.byTitle[title], true
	}
	return ResolvedName{}, false
}

// ForSource returns the name assigned to the note read from sourcePath.
func (r *Registry) ForSource(sourcePath string) (ResolvedName, bool) {
	name, ok := r.bySource[sourcePath]
	return name, ok
}

// NameMap is a copy of rawTitle -> output file name.
func (r *Registry) NameMap() map[string]string {
	out := make(map[string]string, len(r.byTitle))
	for title, name := range r.byTitle {
		out[title] = name.OutputFilename
	}
	return out
}

// Titles lists registered raw titles in the order they were added.
func (r *Registry) Titles() []string {
	return append([]string(nil), r.titles...)
}

// NoticesFor returns the registry warnings that concern one source note.
func (r *Registry) NoticesFor(sourcePath string) []string {
	return append([]string(nil), r.notices[sourcePath]...)
}

// Warnings returns all registry warnings, prefixed with their source path.
func (r *Registry) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
