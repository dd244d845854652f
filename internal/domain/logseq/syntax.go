package logseq

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	BlockRefPlaceholder = "> [引用块]"
	QueryPlaceholder    = "<!-- LogSeq查询已移除 -->"
)

// Rule rewrites one kind of Logseq syntax. Apply must be idempotent: running
// it on its own output changes nothing.
type Rule struct {
	Name  string
	Apply func(text string) (string, []string)
}

// Pipeline applies rules in order to the prose parts of a note. Fenced code
// blocks are passed through untouched.
type Pipeline []Rule

// DefaultPipeline is the rule order used for every note.
var DefaultPipeline = Pipeline{
	{Name: "task-markers", Apply: RewriteTaskMarkers},
	{Name: "property-lines", Apply: RewritePropertyLines},
	{Name: "embeds", Apply: RewriteEmbeds},
	{Name: "block-references", Apply: RewriteBlockReferences},
	{Name: "queries", Apply: RewriteQueries},
}

// Transform runs DefaultPipeline over one note.
func Transform(raw string) (string, []string) {
	return DefaultPipeline.Transform(raw)
}

func (p Pipeline) Transform(raw string) (string, []string) {
	var warnings []string
	out := mapProse(raw, func(text string) string {
		for _, rule := range p {
			var w []string
			text, w = rule.Apply(text)
			warnings = append(warnings, w...)
		}
		return text
	})
	return out, warnings
}

var (
	openTaskRe     = regexp.MustCompile(`(?m)^([ \t]*[-*+][ \t]+)(?:TODO|LATER|NOW|DOING|WAITING)[ \t]+`)
	doneTaskRe     = regexp.MustCompile(`(?m)^([ \t]*[-*+][ \t]+)DONE[ \t]+`)
	canceledTaskRe = regexp.MustCompile(`(?m)^([ \t]*[-*+][ \t]+)(?:CANCELED|CANCELLED)[ \t]+(\S[^\r\n]*?)[ \t]*(\r?)$`)
)

// RewriteTaskMarkers turns Logseq task keywords at the start of a list item
// into Markdown task list items.
func RewriteTaskMarkers(text string) (string, []string) {
	text = doneTaskRe.ReplaceAllString(text, "${1}[x] ")
	text = canceledTaskRe.ReplaceAllString(text, "${1}[x] ~~${2}~~${3}")
	text = openTaskRe.ReplaceAllString(text, "${1}[ ] ")
	return text, nil
}

var (
	propertyLineRe = regexp.MustCompile(`(?m)^([ \t]*(?:[-*+][ \t]+)?)([\p{L}][\p{L}\p{N}_-]*)::(?:[ \t]+(.*?))?[ \t]*$`)
	propertyLikeRe = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+][ \t]+)?(\S+?)::(?:[ \t].*)?$`)
)

// RewritePropertyLines turns "key:: value" lines into "**key**: value".
// Lines that only resemble a property are kept and reported.
func RewritePropertyLines(text string) (string, []string) {
	var warnings []string
	for _, m := range propertyLikeRe.FindAllStringSubmatch(text, -1) {
		if propertyLineRe.MatchString(m[0]) {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("line %q looks like a property but %q is not a valid key; left unchanged", strings.TrimSpace(m[0]), m[1]))
	}
	text = replaceAllSubmatchFunc(propertyLineRe, text, func(m []string) string {
		line := m[1] + "**" + m[2] + "**:"
		if m[3] != "" {
			line += " " + m[3]
		}
		return line
	})
	return text, warnings
}

var embedRe = regexp.MustCompile(`\{\{[ \t]*embed[ \t]+(\[\[[^\]\n]+\]\]|\(\([0-9A-Za-z-]+\)\))[ \t]*\}\}`)

// RewriteEmbeds unwraps {{embed ...}} macros so the page link or block
// reference inside is handled by the rules that follow.
func RewriteEmbeds(text string) (string, []string) {
	return embedRe.ReplaceAllString(text, "${1}"), nil
}

var (
	tripleBlockRefRe = regexp.MustCompile(`\(\(\(([0-9a-fA-F-]+)\)\)\)`)
	blockRefRe       = regexp.MustCompile(`\(\(([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})\)\)`)
)

// RewriteBlockReferences degrades block references to a blockquote
// placeholder; the referenced block is not looked up.
func RewriteBlockReferences(text string) (string, []string) {
	var warnings []string
	degrade := func(m []string) string {
		warnings = append(warnings, fmt.Sprintf("block reference %s replaced with a placeholder", m[0]))
		return BlockRefPlaceholder
	}
	text = replaceAllSubmatchFunc(tripleBlockRefRe, text, degrade)
	text = replaceAllSubmatchFunc(blockRefRe, text, degrade)
	return text, warnings
}

var (
	simpleQueryRe   = regexp.MustCompile(`\{\{[ \t]*query\b[^\n]*?\}\}`)
	advancedQueryRe = regexp.MustCompile(`(?s)#\+BEGIN_QUERY\b.*?#\+END_QUERY`)
)

// RewriteQueries replaces query macros and advanced query blocks with an
// HTML comment.
func RewriteQueries(text string) (string, []string) {
	var warnings []string
	strip := func(m []string) string {
		warnings = append(warnings, fmt.Sprintf("query %q removed", abbreviate(m[0], 60)))
		return QueryPlaceholder
	}
	text = replaceAllSubmatchFunc(advancedQueryRe, text, strip)
	text = replaceAllSubmatchFunc(simpleQueryRe, text, strip)
	return text, warnings
}

func replaceAllSubmatchFunc(re *regexp.Regexp, s string, fn func([]string) string) string {
	idx := re.FindAllStringSubmatchIndex(s, -1)
	if len(idx) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range idx {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func abbreviate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
