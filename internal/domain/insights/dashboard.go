package insights

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

const maxRelations = 20

// Relation counts how often two keywords were extracted from the same
// analysis.
type Relation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Summary is the keyword dashboard over a set of analyses.
type Summary struct {
	Themes    []Item     `json:"themes"`
	Keywords  []string   `json:"keywords"`
	Relations []Relation `json:"relations"`
}

const (
	sectionThemes   = "THEMES & TOPICS"
	sectionSemantic = "SEMANTIC ANALYSIS"
)

// headerPatterns are tried in order: numbered, bold, markdown heading, bare.
func headerPatterns(name string) []*regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return []*regexp.Regexp{
		regexp.MustCompile(`(?is)[\d.\s]*` + q + `[:\s]+(.*?)(?:[\d.]+\s*\w+[:\s]|$)`),
		regexp.MustCompile(`(?is)\*\*` + q + `\*\*[:\s]+(.*?)(?:\*\*|[\d.]+\s*\w+[:\s]|$)`),
		regexp.MustCompile(`(?is)#\s*` + q + `[:\s]+(.*?)(?:#|[\d.]+\s*\w+[:\s]|$)`),
		regexp.MustCompile(`(?is)` + q + `[:\s]+(.*?)(?:[A-Z\s&]{3,}:|$)`),
	}
}

var (
	themeHeaders    = headerPatterns(sectionThemes)
	semanticHeaders = headerPatterns(sectionSemantic)

	themeLineHint    = regexp.MustCompile(`(?i)#\w+|topic|theme|trend|subject|content|about`)
	semanticLineHint = regexp.MustCompile(`(?i)language|communication|message|storytelling|narrative|persuasive|tone|style`)

	numberedItem = regexp.MustCompile(`^[\d.]+\s`)
	themeMention = regexp.MustCompile(`(?i)theme|topic|about|hashtag`)
	itemMarker   = regexp.MustCompile(`^[-•*\d.]+\s*`)

	hashtagWord   = regexp.MustCompile(`#\w+`)
	doubleQuoted  = regexp.MustCompile(`"([^"]+)"`)
	singleQuoted  = regexp.MustCompile(`'([^']+)'`)
	capitalized   = regexp.MustCompile(`\b[A-Z][a-zA-Z]+\b`)
	explicitTheme = regexp.MustCompile(`(?i)\b(?:theme|topic|trend)s?:?\s+([^,.;:]+)`)
	danceTerm     = regexp.MustCompile(`(?i)dance|choreography|routine|moves|challenge`)
	stopword      = regexp.MustCompile(`(?i)^(and|the|for|with|from|that|this|these|those|have|will|what)$`)
)

// dashboardSection finds a section with the header patterns, then falls back
// to the lines that hint at it.
func dashboardSection(text string, headers []*regexp.Regexp, hint *regexp.Regexp) string {
	if text == "" {
		return ""
	}
	for _, re := range headers {
		if m := re.FindStringSubmatch(text); m != nil {
			if body := strings.TrimSpace(m[1]); body != "" {
				return body
			}
		}
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if hint.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// isThemeLine accepts list items and lines that talk about themes.
func isThemeLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "•"), strings.HasPrefix(line, "*"):
		return true
	case numberedItem.MatchString(line):
		return true
	}
	return themeMention.MatchString(line)
}

// keywordSet keeps keywords unique in first-seen order.
type keywordSet struct {
	seen  map[string]struct{}
	order []string
}

func (s *keywordSet) add(k string) {
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.order = append(s.order, k)
}

// extractKeywords pulls hashtags, quoted phrases, capitalized words that are
// not labels, explicit "theme: X" mentions and dance terms from text.
// Duplicates are kept so co-occurrence weights reflect repetition.
func extractKeywords(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	keep := func(k string) {
		k = strings.TrimSpace(k)
		if len([]rune(k)) > 2 && !stopword.MatchString(k) {
			out = append(out, k)
		}
	}

	for _, tag := range hashtagWord.FindAllString(text, -1) {
		keep(tag[1:])
	}
	for _, m := range doubleQuoted.FindAllStringSubmatch(text, -1) {
		keep(m[1])
	}
	for _, m := range singleQuoted.FindAllStringSubmatch(text, -1) {
		keep(m[1])
	}
	for _, loc := range capitalized.FindAllStringIndex(text, -1) {
		rest := strings.TrimLeftFunc(text[loc[1]:], unicode.IsSpace)
		if strings.HasPrefix(rest, ":") {
			continue
		}
		keep(text[loc[0]:loc[1]])
	}
	for _, m := range explicitTheme.FindAllStringSubmatch(text, -1) {
		keep(m[1])
	}
	out = append(out, danceTerm.FindAllString(text, -1)...)
	return out
}

// Dashboard counts theme lines, collects keywords and relates keywords that
// appear in the same analysis more than once.
func Dashboard(results []Result) Summary {
	themes := newTally()
	keywords := &keywordSet{seen: map[string]struct{}{}}

	var sources []string
	relations := map[string]map[string]int{}
	targetOrder := map[string][]string{}

	for _, r := range results {
		text := r.Text()
		if text == "" {
			continue
		}
		themesSection := dashboardSection(text, themeHeaders, themeLineHint)
		semanticSection := dashboardSection(text, semanticHeaders, semanticLineHint)

		for _, line := range strings.Split(themesSection, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || !isThemeLine(line) {
				continue
			}
			if theme := strings.TrimSpace(itemMarker.ReplaceAllString(line, "")); theme != "" {
				themes.add(theme, r.VideoID)
			}
		}

		all := append(extractKeywords(themesSection), extractKeywords(semanticSection)...)
		for _, k := range all {
			keywords.add(k)
		}
		for _, src := range all {
			targets, ok := relations[src]
			if !ok {
				targets = map[string]int{}
				relations[src] = targets
				sources = append(sources, src)
			}
			for _, dst := range all {
				if src == dst {
					continue
				}
				if _, seen := targets[dst]; !seen {
					targetOrder[src] = append(targetOrder[src], dst)
				}
				targets[dst]++
			}
		}
	}

	var rels []Relation
	for _, src := range sources {
		for _, dst := range targetOrder[src] {
			if w := relations[src][dst]; w > 1 {
				rels = append(rels, Relation{Source: src, Target: dst, Weight: w})
			}
		}
	}
	slices.SortStableFunc(rels, func(a, b Relation) int { return b.Weight - a.Weight })
	if len(rels) > maxRelations {
		rels = rels[:maxRelations]
	}
	if rels == nil {
		rels = []Relation{}
	}
	kw := keywords.order
	if kw == nil {
		kw = []string{}
	}

	return Summary{Themes: themes.sorted(), Keywords: kw, Relations: rels}
}
