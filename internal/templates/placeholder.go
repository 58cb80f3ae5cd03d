package templates

import (
	"regexp"
	"sort"
)

var placeholderRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Placeholders returns the unique placeholder names in body, sorted.
func Placeholders(body string) []string {
	seen := make(map[string]bool)
	for _, match := range placeholderRegex.FindAllStringSubmatch(body, -1) {
		seen[match[1]] = true
	}

	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Fill replaces {{name}} placeholders with values. Placeholders without a
// value are left as written.
func Fill(body string, values map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(body, func(match string) string {
		if value, ok := values[match[2:len(match)-2]]; ok {
			return value
		}
		return match
	})
}
