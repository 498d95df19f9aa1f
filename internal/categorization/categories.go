// Package categorization assigns articles to one label of the closed category set.
package categorization

import "newscycle/internal/core"

// Rule binds a category to the keywords that vote for it. Order matters:
// on equal scores the earlier rule wins.
type Rule struct {
	Category    core.Category
	Description string
	Keywords    []string
}

// Table is an ordered list of rules.
type Table []Rule

// DefaultTable returns the standard keyword table in tie-break order.
// The catch-all default category carries no keywords of its own.
func DefaultTable() Table {
	return Table{
		{
			Category:    core.CategoryAI,
			Description: "AI models, research labs, generative tools and machine learning",
			Keywords: []string{
				"artificial intelligence", "machine learning", "deep learning", "neural network",
				"llm", "large language model", "gpt", "chatgpt", "openai", "gemini", "copilot",
				"anthropic", "claude", "midjourney", "stable diffusion", "hugging face",
				"generative ai", "gen ai", "ai model", "ai agent", "chatbot", "ai assistant",
				"ai safety", "ai regulation", "llama", "mistral", "deepseek", "deepmind",
				"computer vision", "reinforcement learning", "fine-tuning", "text-to-image",
				"text-to-video", "ai-powered", "ai-generated",
			},
		},
		{
			Category:    core.CategoryBusiness,
			Description: "Funding, earnings, markets, acquisitions and startups",
			Keywords: []string{
				"earnings", "stock", "ipo", "funding", "startup", "unicorn", "crypto",
				"blockchain", "web3", "acquisition", "valuation", "investor", "revenue",
				"market share", "shares",
			},
		},
		{
			Category:    core.CategoryScience,
			Description: "Research results, physics, space and lab breakthroughs",
			Keywords: []string{
				"quantum", "research", "breakthrough", "scientists", "physics", "nasa",
				"space", "telescope", "study finds", "laboratory", "peer-reviewed",
			},
		},
		{
			Category:    core.CategoryHealth,
			Description: "Medicine, healthcare and biotech",
			Keywords: []string{
				"healthcare", "medical", "diagnosis", "patients", "hospital", "drug",
				"clinical", "biotech", "fda", "disease", "accessibility",
			},
		},
		{
			Category:    core.CategoryClimate,
			Description: "Climate, energy and environment",
			Keywords: []string{
				"climate", "emissions", "carbon", "renewable", "solar", "battery",
				"electric vehicle", "energy grid", "sustainability",
			},
		},
		{
			Category:    core.CategoryWorld,
			Description: "Government, policy and geopolitics",
			Keywords: []string{
				"government", "policy", "regulation", "congress", "european union", "eu ",
				"china", "sanctions", "election", "lawmakers",
			},
		},
		{
			Category:    core.CategoryTech,
			Description: "General technology, hardware, software and platforms",
		},
	}
}

// Categories returns the labels of the table in order.
func (t Table) Categories() []core.Category {
	out := make([]core.Category, len(t))
	for i, rule := range t {
		out[i] = rule.Category
	}
	return out
}
