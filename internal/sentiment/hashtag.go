package sentiment

import (
	"regexp"
	"strings"
)

// Letters, combining marks (Thai vowels and tone marks), digits and underscore.
var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{M}\p{N}_]+)`)

// ExtractHashtags returns the distinct hashtags in text without the leading
// '#', lower-cased, in order of first appearance.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
