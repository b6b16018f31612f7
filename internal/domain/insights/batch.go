package insights

import (
	"regexp"
	"strings"
)

// Aggregate summarizes the dash-listed lines of numbered analysis sections
// across a batch.
type Aggregate struct {
	Themes            []Item `json:"themes"`
	Audiences         []Item `json:"audiences"`
	EngagementFactors []Item `json:"engagementFactors"`
	SemanticPatterns  []Item `json:"semanticPatterns"`
}

// numberedSection captures a section body up to the next "N." marker.
func numberedSection(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)` + regexp.QuoteMeta(name) + `[:\s]+(.*?)(?:\d+\.|$)`)
}

var (
	batchThemes     = numberedSection("4. THEMES & TOPICS")
	batchAudience   = numberedSection("6. AUDIENCE & CONTEXT")
	batchEngagement = numberedSection("5. ENGAGEMENT FACTORS")
	batchSemantic   = numberedSection("7. SEMANTIC ANALYSIS")
)

// BatchInsights counts the "-" lines of the themes, audience, engagement and
// semantic sections. Results carrying an error are skipped.
func BatchInsights(results []Result) Aggregate {
	themes, audiences, engagement, semantic := newTally(), newTally(), newTally(), newTally()

	for _, r := range results {
		if r.Error != "" {
			continue
		}
		text := r.Text()
		if text == "" {
			continue
		}
		dashLines(text, batchThemes, r.VideoID, themes)
		dashLines(text, batchAudience, r.VideoID, audiences)
		dashLines(text, batchEngagement, r.VideoID, engagement)
		dashLines(text, batchSemantic, r.VideoID, semantic)
	}

	return Aggregate{
		Themes:            themes.sorted(),
		Audiences:         audiences.sorted(),
		EngagementFactors: engagement.sorted(),
		SemanticPatterns:  semantic.sorted(),
	}
}

func dashLines(text string, section *regexp.Regexp, videoID string, t *tally) {
	m := section.FindStringSubmatch(text)
	if m == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		if item := strings.TrimSpace(strings.TrimLeft(line[1:], " \t")); item != "" {
			t.add(item, videoID)
		}
	}
}
