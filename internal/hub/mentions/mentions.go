// Package mentions extracts @name references from message content.
package mentions

import "regexp"

// mentionPattern matches @ followed by word characters, allowing hyphenated
// names like @code-reviewer. A trailing hyphen is not part of the mention.
var mentionPattern = regexp.MustCompile(`@(\w+(?:-\w+)*)`)

// Extract returns the mentioned names in order of appearance, without the @
// prefix. Matching is case-sensitive and duplicates are preserved.
func Extract(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
