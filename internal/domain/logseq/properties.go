package logseq

import (
	"strings"
)

// LeadingProperties parses the property block at the top of a page, the
// place where Logseq keeps page-level properties such as title:: and alias::.
// Keys are lower-cased.
func LeadingProperties(content string) map[string]string {
	content = strings.TrimPrefix(content, "\ufeff")
	props := map[string]string{}
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			if len(props) == 0 && i == 0 {
				continue
			}
			break
		}
		m := propertyLineRe.FindStringSubmatch(line)
		if m == nil {
			break
		}
		if i > 0 && strings.HasPrefix(strings.TrimSpace(m[1]), "-") {
			break
		}
		props[strings.ToLower(m[2])] = strings.TrimSpace(m[3])
	}
	return props
}

// SplitPropertyList splits a comma separated property value such as
// "alias:: [[A]], B" into its items.
func SplitPropertyList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		item = strings.TrimSuffix(strings.TrimPrefix(item, "[["), "]]")
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
