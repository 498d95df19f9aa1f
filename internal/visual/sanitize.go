package visual

import (
	"regexp"
	"strings"
)

// StyleSuffix is appended for providers that respond well to style tags.
const StyleSuffix = ", photorealistic, highly detailed, sharp focus, professional lighting, cinematic, 8k"

const maxPromptChars = 300

var (
	disallowedChars = regexp.MustCompile(`[^\w\s,.\-!?']`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// SanitizePrompt drops characters image endpoints choke on, collapses
// whitespace and caps the prompt at 300 characters on a word boundary.
func SanitizePrompt(prompt string) string {
	clean := disallowedChars.ReplaceAllString(prompt, "")
	clean = strings.TrimSpace(whitespaceRun.ReplaceAllString(clean, " "))
	if len(clean) > maxPromptChars {
		clean = clean[:maxPromptChars]
		if i := strings.LastIndexByte(clean, ' '); i > 0 {
			clean = clean[:i]
		}
	}
	return clean
}

// EnhancePrompt appends StyleSuffix.
func EnhancePrompt(clean string) string {
	return clean + StyleSuffix
}
