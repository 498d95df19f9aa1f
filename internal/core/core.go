package core

import (
	"strings"
	"time"
)

// Category is one label from the closed topic taxonomy.
type Category string

const (
	CategoryAI       Category = "ai"
	CategoryBusiness Category = "business"
	CategoryScience  Category = "science"
	CategoryHealth   Category = "health"
	CategoryClimate  Category = "climate"
	CategoryWorld    Category = "world"
	CategoryTech     Category = "tech"

	// DefaultCategory is returned when nothing else matches.
	DefaultCategory = CategoryTech
)

// Categories lists every valid category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryAI,
		CategoryBusiness,
		CategoryScience,
		CategoryHealth,
		CategoryClimate,
		CategoryWorld,
		CategoryTech,
	}
}

// ParseCategory maps a free-form label onto the closed set.
// The boolean is false when the label is not a member.
func ParseCategory(label string) (Category, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Trim(label, "\"'`")
	for _, c := range Categories() {
		if string(c) == label {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// Article is one published record in the primary store. Immutable once written.
type Article struct {
	ID          string    `json:"id"`           // Unique identifier, generated at creation
	Title       string    `json:"title"`        // Headline, 4-14 words recommended
	Body        string    `json:"summary"`      // Article text
	ImageURL    string    `json:"image_url"`    // Always non-empty: real asset or placeholder
	SourceURLs  []string  `json:"source_urls"`  // Search results the body was written from
	SourceName  string    `json:"source_name"`  // Display label
	Category    Category  `json:"category"`     // One of Categories()
	CreatedAt   time.Time `json:"date"`         // UTC creation timestamp
	ImageSource string    `json:"image_source"` // "generated" or "placeholder"
}

// Image sources.
const (
	ImageGenerated   = "generated"
	ImagePlaceholder = "placeholder"
)

// History origins.
const (
	OriginPublish  = "publish"
	OriginEviction = "eviction"
)

// HistoryEntry is one row of the dedup ledger. Never displayed.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	SourceURLs []string  `json:"source_urls"` // Normalized, deduplicated
	Origin     string    `json:"origin"`      // OriginPublish or OriginEviction
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResult is a transient search hit. Never persisted directly.
type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// TextLength returns the combined title and description length used by the search floor.
func (r SearchResult) TextLength() int {
	return len(r.Title) + 1 + len(r.Description)
}

// Health statuses.
const (
	HealthSuccess = "success"
	HealthFailed  = "failed"
)

// HealthRecord summarizes the last pipeline run for external monitoring.
type HealthRecord struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Runner        string    `json:"runner"`
	Title         string    `json:"last_news_title,omitempty"`
	ArticleID     string    `json:"article_id,omitempty"`
	Category      Category  `json:"category,omitempty"`
	WordCount     int       `json:"word_count,omitempty"`
	ImagePrompt   string    `json:"image_prompt,omitempty"`
	ImageSource   string    `json:"image_source,omitempty"`
	ImageProvider string    `json:"image_provider,omitempty"`
	SearchQuery   string    `json:"search_query,omitempty"`
	SearchTier    int       `json:"search_tier,omitempty"`
	SearchResults int       `json:"search_results,omitempty"`
	TextBackend   string    `json:"text_backend,omitempty"`
	Evicted       int       `json:"evicted"`
	Purged        int       `json:"purged"`
	DurationMs    int64     `json:"duration_ms"`
	Error         string    `json:"error_message,omitempty"`
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
