package llm

import (
	"regexp"
	"strings"
)

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	thinkPattern      = regexp.MustCompile(`(?s)^<think>.*?</think>`)
)

// ExtractJSONObject pulls the outermost JSON object out of a model reply
// that may wrap it in prose or code fences.
func ExtractJSONObject(text string) (string, bool) {
	match := jsonObjectPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}

// StripThink removes a leading <think>...</think> block some models emit
// before their actual answer.
func StripThink(text string) string {
	return strings.TrimSpace(thinkPattern.ReplaceAllString(strings.TrimSpace(text), ""))
}
