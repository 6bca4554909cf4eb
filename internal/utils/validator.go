package utils

import (
	"net/url"
	"strings"
)

// NormalizeUsername trims whitespace, drops a leading @ and lower-cases
func NormalizeUsername(username string) string {
	username = strings.TrimLeft(strings.TrimSpace(username), "@")
	return strings.ToLower(username)
}

// NormalizeUsernames normalizes and dedupes usernames, keeping first-seen order
func NormalizeUsernames(usernames []string) []string {
	seen := make(map[string]struct{}, len(usernames))
	result := make([]string, 0, len(usernames))
	for _, raw := range usernames {
		name := NormalizeUsername(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}

// NormalizeKeywords trims entries and drops empty ones
func NormalizeKeywords(keywords []string) []string {
	result := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			result = append(result, k)
		}
	}
	return result
}

// ValidateURL reports whether raw is an absolute http(s) URL
func ValidateURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ContainsID reports whether id is in ids
func ContainsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if strings.TrimSpace(candidate) == id && id != "" {
			return true
		}
	}
	return false
}
