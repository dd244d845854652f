package logseq

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// LinkResult is the outcome of resolving the links of one note.
type LinkResult struct {
	Content          string
	LinksRewritten   int
	Unresolved       []string
	Warnings         []string
	ReferencedAssets []string
}

var (
	markdownLinkRe = regexp.MustCompile(`(!?)\[([^\]\n]*)\]\(((?:[^()\s]|\([^()\s]*\))+)((?:[ \t]+"[^"\n]*")?)\)`)
	labeledPageRe  = regexp.MustCompile(`\[([^\]\n]*)\]\(\[\[([^\]\n]+)\]\]\)`)
	pageLinkRe     = regexp.MustCompile(`\[\[([^\[\]\n]+)\]\]`)
)

// ResolveLinks rewrites page links and asset links in content, which is the
// already transformed text of the note stored at sourcePath. reg and assets
// are only read.
func ResolveLinks(content string, sourcePath string, reg *Registry, assets *AssetMap) LinkResult {
	res := LinkResult{}
	res.Content = mapProse(content, func(text string) string {
		text = resolveAssetLinks(text, sourcePath, assets, &res)
		text = resolveLabeledPageLinks(text, reg, &res)
		return resolvePageLinks(text, reg, &res)
	})
	return res
}

func resolveAssetLinks(text string, sourcePath string, assets *AssetMap, res *LinkResult) string {
	return replaceAllSubmatchFunc(markdownLinkRe, text, func(m []string) string {
		bang, label, ref, title := m[1], m[2], m[3], m[4]
		if !isLocalRef(ref) || strings.HasPrefix(ref, "[[") {
			return m[0]
		}
		entry, candidate, ok := assets.Resolve(sourcePath, ref)
		if !ok {
			if bang == "!" || strings.HasPrefix(candidate, AssetsDir+"/") {
				res.Warnings = append(res.Warnings, fmt.Sprintf("asset %q not found, reference left unchanged", ref))
			}
			return m[0]
		}
		if !slices.Contains(res.ReferencedAssets, entry.SourceRelativePath) {
			res.ReferencedAssets = append(res.ReferencedAssets, entry.SourceRelativePath)
		}
		return bang + "[" + label + "](" + escapeDestination(entry.OutputRelativePath) + title + ")"
	})
}

func resolveLabeledPageLinks(text string, reg *Registry, res *LinkResult) string {
	return replaceAllSubmatchFunc(labeledPageRe, text, func(m []string) string {
		label, target := m[1], strings.TrimSpace(m[2])
		name, ok := reg.Lookup(target)
		if !ok {
			res.unresolved(target)
			return label
		}
		res.LinksRewritten++
		return "[" + label + "](" + escapeDestination(name.OutputFilename) + ")"
	})
}

func resolvePageLinks(text string, reg *Registry, res *LinkResult) string {
	idx := pageLinkRe.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range idx {
		b.WriteString(text[last:loc[0]])
		last = loc[1]
		whole := text[loc[0]:loc[1]]
		if loc[0] > 0 && text[loc[0]-1] == '#' {
			b.WriteString(whole)
			continue
		}
		target := text[loc[2]:loc[3]]
		name, ok := reg.Lookup(strings.TrimSpace(target))
		if !ok {
			res.unresolved(target)
			b.WriteString(target)
			continue
		}
		res.LinksRewritten++
		b.WriteString("[" + target + "](" + escapeDestination(name.OutputFilename) + ")")
	}
	b.WriteString(text[last:])
	return b.String()
}

func (r *LinkResult) unresolved(target string) {
	if !slices.Contains(r.Unresolved, target) {
		r.Unresolved = append(r.Unresolved, target)
	}
}

// escapeDestination percent-encodes each path segment when the destination
// would otherwise break a Markdown link or be decoded by the importer.
func escapeDestination(p string) string {
	if !strings.ContainsAny(p, " \t()%#<>") {
		return p
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
