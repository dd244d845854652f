package logseq

import "strings"

// mapProse applies fn to every part of content outside fenced code blocks.
// Fence lines may sit inside a list item ("- ```go").
func mapProse(content string, fn func(string) string) string {
	if !strings.Contains(content, "```") && !strings.Contains(content, "~~~") {
		return fn(content)
	}

	var out, prose strings.Builder
	fence := ""
	flush := func() {
		if prose.Len() > 0 {
			out.WriteString(fn(prose.String()))
			prose.Reset()
		}
	}
	for _, line := range strings.SplitAfter(content, "\n") {
		marker := fenceMarker(line)
		switch {
		case fence == "" && marker != "":
			flush()
			fence = marker
			out.WriteString(line)
		case fence != "":
			out.WriteString(line)
			if marker == fence {
				fence = ""
			}
		default:
			prose.WriteString(line)
		}
	}
	flush()
	return out.String()
}

func fenceMarker(line string) string {
	s := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* ") {
		s = strings.TrimLeft(s[2:], " \t")
	}
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(s, m) {
			return m
		}
	}
	return ""
}
