package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"newscycle/internal/core"
	"newscycle/internal/pipeline"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).Padding(0, 1)
	bodyWrap    = 80
	timeDisplay = "2006-01-02 15:04 MST"
)

func field(label string, value any) string {
	return labelStyle.Render(label+":") + " " + fmt.Sprint(value)
}

// renderArticle formats an article for the terminal.
func renderArticle(a *core.Article) string {
	if a == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render(a.Title),
		field("Category", a.Category) + "  " + field("Date", a.CreatedAt.Format(timeDisplay)),
		"",
		lipgloss.NewStyle().Width(bodyWrap).Render(a.Body),
		"",
		field("Image", fmt.Sprintf("%s (%s)", a.ImageURL, a.ImageSource)),
	}
	for i, u := range a.SourceURLs {
		lines = append(lines, field(fmt.Sprintf("Source %d", i+1), u))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// renderRunSummary formats the per-stage outcome of a run.
func renderRunSummary(r *pipeline.Result) string {
	if r == nil {
		return ""
	}
	status := okStyle.Render("published")
	if r.DryRun {
		status = okStyle.Render("dry run")
	}

	lines := []string{status + "  " + field("took", r.Duration.Round(time.Millisecond))}
	if r.Search != nil {
		lines = append(lines, field("Search", fmt.Sprintf("tier %d via %s, %d results, %d duplicates filtered",
			r.Search.Tier, r.Search.Provider, len(r.Search.Results), r.Search.Filtered)))
	}
	if r.Draft != nil {
		lines = append(lines, field("Text", fmt.Sprintf("%s, %d words", r.Draft.Backend, r.Draft.WordCount)))
	}
	if r.Image != nil {
		provider := r.Image.Provider
		if provider == "" {
			provider = "none"
		}
		lines = append(lines, field("Image", fmt.Sprintf("%s via %s", r.Publication.Source, provider)))
	}
	if !r.DryRun {
		lines = append(lines, field("Rotation", fmt.Sprintf("evicted %d, purged %d", r.Evicted, r.Purged)))
	}
	return strings.Join(lines, "\n")
}

// renderHealth formats the last-run record.
func renderHealth(h *core.HealthRecord) string {
	if h == nil {
		return labelStyle.Render("No runs recorded yet")
	}
	status := okStyle.Render(h.Status)
	if h.Status != core.HealthSuccess {
		status = failStyle.Render(h.Status)
	}

	lines := []string{
		status + "  " + field("at", h.Timestamp.Format(timeDisplay)) + "  " + field("runner", h.Runner),
	}
	if h.Title != "" {
		lines = append(lines, field("Title", h.Title))
	}
	if h.SearchQuery != "" {
		lines = append(lines, field("Search", fmt.Sprintf("%q tier %d, %d results", h.SearchQuery, h.SearchTier, h.SearchResults)))
	}
	if h.TextBackend != "" {
		lines = append(lines, field("Text", fmt.Sprintf("%s, %d words", h.TextBackend, h.WordCount)))
	}
	if h.ImageSource != "" {
		lines = append(lines, field("Image", fmt.Sprintf("%s via %s", h.ImageSource, h.ImageProvider)))
	}
	if h.Evicted > 0 || h.Purged > 0 {
		lines = append(lines, field("Rotation", fmt.Sprintf("evicted %d, purged %d", h.Evicted, h.Purged)))
	}
	if h.Error != "" {
		lines = append(lines, field("Error", failStyle.Render(h.Error)))
	}
	lines = append(lines, field("Duration", time.Duration(h.DurationMs)*time.Millisecond))
	return panelStyle.Render(strings.Join(lines, "\n"))
}
