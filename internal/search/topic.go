package search

import (
	"regexp"
	"strings"
)

// DefaultTopicQueries is the rotating topic pool used when no query is configured.
var DefaultTopicQueries = []string{
	"artificial intelligence latest breakthroughs announcements",
	"OpenAI GPT new model release announcements",
	"Google DeepMind Gemini AI research news",
	"Anthropic Claude AI safety research news",
	"Meta AI Llama open source model news",
	"generative AI tools products launches today",
	"AI startup funding acquisition deals news",
	"AI regulation policy government updates",
	"Nvidia AMD AI chip semiconductor news",
	"Apple Google Microsoft major tech announcements",
	"quantum computing breakthrough research news",
	"cloud computing AI infrastructure updates",
	"robotics automation humanoid robot news",
	"autonomous driving self-driving car AI news",
	"AI healthcare medical diagnosis breakthrough",
	"AI coding programming developer tools news",
	"AI image video generation model news",
	"tech company earnings big tech stock news",
	"tech startup unicorn IPO funding news",
	"cryptocurrency blockchain Web3 AI news",
}

// DefaultFallbackQueries are the broader Tier 2 queries.
var DefaultFallbackQueries = []string{
	"artificial intelligence news today",
	"latest AI technology breakthrough",
	"OpenAI Google AI news today",
}

// DefaultGenericQuery is the Tier 3 query.
const DefaultGenericQuery = "latest technology AI news"

var (
	timeModifierPattern = regexp.MustCompile(`(?i)\s*(latest breaking news|updates today|news \w+ \d+|fresh developments|this week|breaking today|\d+ breakthrough|exclusive update)$`)
	booleanPattern      = regexp.MustCompile(`\s+(AND|OR)\s+`)
)

// ExtractTopic strips trailing time modifiers and rewrites boolean operators,
// giving the core topic of a query for logs and health records.
func ExtractTopic(query string) string {
	topic := strings.TrimSpace(timeModifierPattern.ReplaceAllString(query, ""))
	return booleanPattern.ReplaceAllString(topic, " & ")
}
