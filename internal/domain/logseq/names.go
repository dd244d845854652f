package logseq

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultJournalLayout renders 2025_01_01 as 2025年01月01日.
const DefaultJournalLayout = "2006年01月02日"

const untitledName = "untitled"

var (
	journalTokenRe = regexp.MustCompile(`^(\d{4})[_-](\d{2})[_-](\d{2})$`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// ParseJournalDate parses a journal file token such as 2025_01_01 or
// 2025-01-01. The date must exist in the calendar.
func ParseJournalDate(token string) (time.Time, bool) {
	m := journalTokenRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// JournalDisplayTitle formats a journal token with layout. ok is false when
// the token is not a date, in which case the token is returned unchanged.
func JournalDisplayTitle(token string, layout string) (string, bool) {
	t, ok := ParseJournalDate(token)
	if !ok {
		return token, false
	}
	if strings.TrimSpace(layout) == "" {
		layout = DefaultJournalLayout
	}
	return t.Format(layout), true
}

// DecodePageFileName turns a Logseq page file stem back into the page name:
// "___" separates namespaces and %XX escapes are unescaped.
func DecodePageFileName(stem string) string {
	name := strings.ReplaceAll(stem, "___", "/")
	if strings.Contains(name, "%") {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	return name
}

// SanitizeFileStem strips characters most filesystems reject and collapses
// whitespace. It returns "" when nothing usable remains.
func SanitizeFileStem(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	for _, r := range s {
		if isForbiddenFileNameRune(r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	out := whitespaceRe.ReplaceAllString(b.String(), " ")
	out = strings.Trim(out, ". ")
	if strings.Trim(out, "_") == "" {
		return ""
	}
	return out
}

func isForbiddenFileNameRune(r rune) bool {
	if r == 0 || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
		return true
	}
	switch r {
	case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
		return true
	default:
		return false
	}
}

// collisionKey compares output names the way case-insensitive filesystems do.
func collisionKey(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}
