package service

import "strings"

// groupRules is checked in order; the first substring match wins.
var groupRules = []struct {
	needle string
	group  string
}{
	{"maxi", "Maxi"},
	{"familie", "Familie"},
	{"nina", "Freundin"},
	{"fsv", "FSV"},
}

// FallbackGroup is used when no rule matches, including for empty input.
const FallbackGroup = "Freunde"

// NormalizeGroup maps free text onto the Notion "Gruppe" options.
func NormalizeGroup(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range groupRules {
		if strings.Contains(lower, rule.needle) {
			return rule.group
		}
	}
	return FallbackGroup
}

// NormalizePriority passes a priority through; blank input means "not set".
func NormalizePriority(text string) (string, bool) {
	p := strings.TrimSpace(text)
	return p, p != ""
}
