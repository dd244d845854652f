package logseq

// NoteKind is the closed set of note kinds found in a Logseq export.
type NoteKind int

const (
	KindPage NoteKind = iota
	KindJournal
)

func (k NoteKind) String() string {
	switch k {
	case KindJournal:
		return "journal"
	default:
		return "page"
	}
}

// MarshalText renders the kind as "page" or "journal" in reports.
func (k NoteKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NoteIdentity is one source note. RawTitle is the key page links use.
// Aliases come from a page's alias:: property.
type NoteIdentity struct {
	Kind       NoteKind
	RawTitle   string
	SourcePath string
	Aliases    []string
}

type ResolvedName struct {
	DisplayTitle   string
	FileStem       string
	UniqueSuffix   string
	OutputFilename string
	Aliases        []string
}

type AssetEntry struct {
	SourceRelativePath string `json:"source" yaml:"source"`
	OutputRelativePath string `json:"output" yaml:"output"`
	Referenced         bool   `json:"referenced" yaml:"referenced"`
}

// Collection is everything discovered for one exported graph.
type Collection struct {
	Name   string
	Root   string
	Notes  []NoteIdentity
	Assets []string
}
