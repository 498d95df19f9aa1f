package article

import (
	"encoding/json"
	"fmt"
	"strings"

	"newscycle/internal/core"
)

// Structure selects the shape the article body must take.
type Structure string

const (
	StructureParagraphs Structure = "paragraphs"
	StructureBullets    Structure = "bullets"
)

const systemPrompt = `You are a strict, factual tech journalist. You MUST output valid JSON with exactly two keys: "articleText" and "category". No other keys, no markdown, no explanation. ONLY the JSON object.`

type promptResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// BuildArticlePrompt renders the user prompt for one generation call.
func BuildArticlePrompt(results []core.SearchResult, historyTitles []string, opts Options, categories string) string {
	items := make([]promptResult, 0, len(results))
	for _, r := range results {
		items = append(items, promptResult{Title: r.Title, Description: r.Description})
	}
	data, _ := json.MarshalIndent(items, "", "  ")

	var prompt strings.Builder
	prompt.WriteString("Write a news article based ONLY on the search results below.\n\n")
	prompt.WriteString("Search results:\n")
	prompt.Write(data)
	prompt.WriteString("\n\n")

	prompt.WriteString("STRICT RULES FOR articleText:\n")
	prompt.WriteString("1. Write STRICTLY based on facts from the search results above. NO speculation, NO invented info.\n")
	prompt.WriteString("2. Pick the single most prominent or interesting news story. Do NOT mix unrelated topics.\n")
	prompt.WriteString("3. Write clean, professional prose that a news reader would enjoy. Rewrite facts naturally.\n")
	if opts.Structure == StructureBullets {
		fmt.Fprintf(&prompt, "4. Structure as a one-sentence lead followed by exactly %d bullet points, each starting with \"- \" on its own line.\n", opts.BulletCount)
	} else {
		prompt.WriteString("4. Structure as 2-3 well-developed paragraphs separated by double newlines.\n")
	}
	prompt.WriteString("5. Start with a punchy, attention-grabbing opening. Do NOT start with \"In\" or \"The\".\n")
	prompt.WriteString("6. NEVER mention search engines, APIs, scraped data, prompts, or internal system details.\n")
	prompt.WriteString("7. NEVER include specific dates. Write timelessly, using phrases like \"recently\" or \"this week\".\n")
	prompt.WriteString("8. Include relevant context: who, what, where, why, and implications.\n\n")

	if len(historyTitles) > 0 {
		prompt.WriteString("ALREADY PUBLISHED (do NOT write about these stories again):\n")
		for _, title := range historyTitles {
			fmt.Fprintf(&prompt, "- %s\n", title)
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("WORD COUNT REQUIREMENT (CRITICAL):\n")
	fmt.Fprintf(&prompt, "- You MUST write BETWEEN %d and %d words. This is MANDATORY.\n", opts.MinWords, opts.MaxWords)
	fmt.Fprintf(&prompt, "- Count your words. If under %d, ADD factual context, background, or analysis.\n\n", opts.MinWords)

	if categories != "" {
		prompt.WriteString("CATEGORY: set \"category\" to exactly one of:\n")
		prompt.WriteString(categories)
		prompt.WriteString("\n")
	}

	fmt.Fprintf(&prompt, `Return JSON: { "articleText": "your %d-%d word article", "category": "one label from the list" }`, opts.MinWords, opts.MaxWords)
	return prompt.String()
}

// BuildCorrectionPrompt re-asserts the band after an attempt came in short.
func BuildCorrectionPrompt(original string, achieved int, opts Options) string {
	return fmt.Sprintf(`%s

CRITICAL CORRECTION: Your previous attempt was ONLY %d words. UNACCEPTABLE.
You MUST write AT LEAST %d words and NO MORE than %d words.
Expand with more factual details, background context, industry implications.
Do NOT repeat the same content. ADD NEW substantive information.`, original, achieved, opts.MinWords, opts.MaxWords)
}

const headlineSystemPrompt = "You are a headline writer for Reuters, Bloomberg, and The Wall Street Journal. " +
	"You write crisp, professional headlines that immediately communicate the news. " +
	"Output ONLY the headline text. No quotes, no explanation, no labels."

// BuildHeadlinePrompt asks for one 8-14 word Title Case headline.
func BuildHeadlinePrompt(body string) string {
	return "Write ONE professional news headline for this article.\n\n" +
		"MANDATORY RULES:\n" +
		"1. Exactly 8-14 words, Title Case\n" +
		"2. Start with the WHO or WHAT (company name, person, or key noun)\n" +
		"3. Use a strong active verb (Launches, Unveils, Reports, Acquires, Faces, etc.)\n" +
		"4. ABSOLUTELY NO prefix labels like 'Tech:', 'Breaking:' or 'Report:'\n" +
		"5. ABSOLUTELY NO colons in the headline\n" +
		"6. MUST be specific, mentioning actual names, products, or numbers\n\n" +
		"Article: " + truncateRunes(body, 500)
}

const imageSystemPrompt = "You are an expert visual director for a premium news publication. You write " +
	"photorealistic image descriptions that look like award-winning editorial photographs. " +
	"Output ONLY the image description, nothing else. Never include any text, words, " +
	"letters, logos, or watermarks in the description."

// BuildImagePrompt asks for a 60-80 word photorealistic scene description.
func BuildImagePrompt(body string) string {
	return "Write a 60-80 word photorealistic image description for this news article. " +
		"The image should look like a real editorial photograph, NOT sci-fi or cartoon.\n\n" +
		"STYLE RULES:\n" +
		"- Photorealistic, shot on a full-frame camera, 85mm lens, f/2.8\n" +
		"- Natural lighting (golden hour, soft studio, or dramatic overcast)\n" +
		"- Real-world setting that matches the article topic (office, lab, city, etc.)\n" +
		"- Include specific visual details: materials, textures, environment\n" +
		"- Cinematic composition, shallow depth-of-field, 16:9 widescreen\n" +
		"- NO neon, NO glowing effects, NO holographic elements\n" +
		"- NO text, words, letters, or UI elements in the image\n\n" +
		"Article: " + truncateRunes(body, 600)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
