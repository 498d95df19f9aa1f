package tts

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars caps the text sent for one article.
const DefaultMaxChars = 5000

var (
	codeBlockPattern  = regexp.MustCompile("(?s)```.*?```")
	headingPattern    = regexp.MustCompile(`#{1,6}\s*`)
	boldPattern       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern     = regexp.MustCompile(`\*([^*]+)\*`)
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	bareURLPattern    = regexp.MustCompile(`https?://\S+`)
	bulletPattern     = regexp.MustCompile(`(?m)^\s*[-•]\s+`)

	symbolReplacer = strings.NewReplacer("&", " and ", "%", " percent", "@", " at ")
)

// CleanText removes markdown and URLs and spells out symbols that read badly.
func CleanText(text string) string {
	text = codeBlockPattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = inlineCodePattern.ReplaceAllString(text, "$1")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = bareURLPattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = symbolReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// PrepareText builds the read-aloud script for an article: the headline as its
// own sentence, then the cleaned body, capped at maxChars on a word boundary.
func PrepareText(title, body string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	title = CleanText(title)
	if title != "" && !strings.ContainsAny(title[len(title)-1:], ".!?") {
		title += "."
	}
	text := strings.TrimSpace(title + " " + CleanText(body))
	if len(text) <= maxChars {
		return text
	}

	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	text = text[:cut]
	if i := strings.LastIndexByte(text, ' '); i > 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
