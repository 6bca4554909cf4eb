package reply

import "strings"

// Sanitize deletes every literal occurrence of each non-empty banned keyword.
// Keywords are applied in order to the cumulative result, repeating until no
// deletion happens, so joined fragments ("aabb" minus "ab") cannot form a new
// occurrence. Matching is plain substring matching: a keyword inside a longer
// word is removed as well.
func Sanitize(text string, bannedKeywords []string) string {
	for {
		before := len(text)
		for _, keyword := range bannedKeywords {
			if keyword == "" {
				continue
			}
			text = strings.ReplaceAll(text, keyword, "")
		}
		if len(text) == before {
			return text
		}
	}
}

// ContainsBanned reports the first banned keyword present in text
func ContainsBanned(text string, bannedKeywords []string) (string, bool) {
	for _, keyword := range bannedKeywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return keyword, true
		}
	}
	return "", false
}
