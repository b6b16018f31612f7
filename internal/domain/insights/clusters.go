package insights

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/okian/tokscope/internal/domain/video"
)

const (
	maxClusters      = 5
	themesPerVideo   = 3
	minThemes        = 3
	labelLimit       = 15
	idSlugLimit      = 20
	weakStrength     = 0.2
	fallbackStrength = 0.5
	maxStrength      = 0.9
	sharedBonus      = 0.2
)

// Graph construction methods reported in ClusterGraph.Method.
const (
	MethodThemes   = "themes"
	MethodFallback = "fallback"
)

// Cluster groups videos that share a theme.
type Cluster struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Size     int             `json:"size"`
	Group    int             `json:"group"`
	Videos   []video.Summary `json:"videos"`
	Keywords []string        `json:"keywords"`
}

// Connection links two clusters. Strength is in (0, 0.9].
type Connection struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

// ClusterGraph is the clustering output.
type ClusterGraph struct {
	Clusters    []Cluster    `json:"clusters"`
	Connections []Connection `json:"connections"`
	Method      string       `json:"method"`
}

var themeSections = []string{
	"THEMES & TOPICS", "THEMES AND TOPICS", "THEMES", "TOPICS",
	"MAIN THEMES", "KEY THEMES", "CONTENT SUMMARY",
}

var (
	sectionPatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(themeSections))
		for i, name := range themeSections {
			out[i] = regexp.MustCompile(`(?is)` + regexp.QuoteMeta(name) +
				`[:\s]*(.*?)(?:\n\s*\n|\n\s*[A-Z\s]{2,}:|$)`)
		}
		return out
	}()

	bulletItem    = regexp.MustCompile(`^\s*[-•*+]\s*(.*)$`)
	numberedEntry = regexp.MustCompile(`^\s*\d+[.)\]]\s*(.*)$`)
	sentenceBreak = regexp.MustCompile(`[.!?]`)
	hashtag       = regexp.MustCompile(`#(\w+)`)
	keywordSplit  = regexp.MustCompile(`[,\s]`)

	topicsPrefix  = regexp.MustCompile(`(?i)^TOPICS:?\s*`)
	themesPrefix  = regexp.MustCompile(`(?i)^THEMES:?\s*`)
	numbering     = regexp.MustCompile(`\d+\.?\s*`)
	whitespace    = regexp.MustCompile(`\s+`)
)

var themeIndicators = []string{"theme", "topic", "about", "focuses", "focus", "discuss", "content", "video is"}

type category struct {
	name     string
	keywords []string
}

var descriptionCategories = []category{
	{"Educational Content", []string{"learn", "how to", "tutorial", "explain", "tip", "advice", "guide"}},
	{"Entertainment", []string{"funny", "laugh", "comedy", "fun", "humor", "joke", "prank"}},
	{"Lifestyle & Fashion", []string{"fashion", "style", "outfit", "clothing", "beauty", "makeup", "skincare"}},
	{"Food & Cooking", []string{"food", "recipe", "cook", "meal", "restaurant", "eating", "diet"}},
	{"Health & Fitness", []string{"fitness", "workout", "exercise", "health", "gym", "training", "wellness"}},
	{"Travel & Adventure", []string{"travel", "trip", "vacation", "journey", "adventure", "explore", "destination"}},
	{"Technology & Gadgets", []string{"tech", "technology", "gadget", "device", "review", "phone", "computer"}},
	{"Music & Dance", []string{"music", "song", "dance", "singing", "concert", "artist", "performer"}},
	{"Social Media Trends", []string{"trend", "challenge", "viral", "popular", "trending", "famous"}},
}

type fallbackGroup struct {
	key   string
	label string
	words []string
}

var fallbackGroups = []fallbackGroup{
	{"group1", "How-to & Guides", []string{"how", "what", "why", "tutorial", "guide"}},
	{"group2", "Reviews & Products", []string{"new", "review", "unboxing", "product"}},
	{"group3", "Entertainment", []string{"funny", "comedy", "laugh", "joke"}},
}

const miscGroup = "misc"

// themeData accumulates the videos and keywords of one theme.
type themeData struct {
	count    int
	videos   []video.Summary
	keywords []string
}

// themeMap keeps themes in insertion order.
type themeMap struct {
	order []string
	data  map[string]*themeData
}

func newThemeMap() *themeMap { return &themeMap{data: map[string]*themeData{}} }

func (m *themeMap) get(theme string) *themeData {
	d, ok := m.data[theme]
	if !ok {
		d = &themeData{}
		m.data[theme] = d
		m.order = append(m.order, theme)
	}
	return d
}

func (m *themeMap) has(theme string) bool {
	_, ok := m.data[theme]
	return ok
}

// Clusters groups videos by the themes their analyses mention, falling back
// to description keywords when the analyses yield nothing usable.
func Clusters(videos []video.Summary, results []Result) ClusterGraph {
	if len(videos) == 0 {
		return ClusterGraph{Clusters: []Cluster{}, Connections: []Connection{}, Method: MethodFallback}
	}
	if len(results) == 0 {
		return fallbackClusters(videos)
	}
	themes := extractThemes(videos, results)
	if len(themes.order) == 0 {
		return fallbackClusters(videos)
	}
	clusters := clustersFromThemes(themes, videos)
	if len(clusters) == 0 {
		return fallbackClusters(videos)
	}
	return ClusterGraph{Clusters: clusters, Connections: connect(clusters), Method: MethodThemes}
}

func findVideo(videos []video.Summary, id string) (video.Summary, bool) {
	for _, v := range videos {
		if v.ID == id {
			return v, true
		}
	}
	return video.Summary{}, false
}

func extractThemes(videos []video.Summary, results []Result) *themeMap {
	themes := newThemeMap()

	for _, r := range results {
		text := r.Text()
		if len(text) < 5 {
			continue
		}
		candidates := themesOf(text)
		if len(candidates) == 0 {
			continue
		}
		v, ok := findVideo(videos, r.VideoID)
		if !ok {
			continue
		}
		for _, theme := range candidates[:min(themesPerVideo, len(candidates))] {
			d := themes.get(theme)
			d.count++
			d.videos = append(d.videos, v)
			d.keywords = union(d.keywords, themeKeywords(theme))
		}
	}

	if len(themes.order) < minThemes {
		extra := descriptionThemes(videos)
		for _, name := range extra.order {
			if !themes.has(name) {
				*themes.get(name) = *extra.data[name]
			}
		}
	}
	return themes
}

// themesOf lists candidate themes of one analysis in priority order.
func themesOf(text string) []string {
	var section string
	for _, re := range sectionPatterns {
		section = ""
		if m := re.FindStringSubmatch(text); m != nil {
			section = strings.TrimSpace(m[1])
		}
		if len(section) > 10 {
			break
		}
	}
	if len(section) < 10 {
		section = text
	}

	themes := append(listItems(section, bulletItem), listItems(section, numberedEntry)...)
	if len(themes) == 0 {
		themes = indicatorLines(section)
	}
	if len(themes) == 0 {
		for _, s := range sentenceBreak.Split(section, -1) {
			if s = strings.TrimSpace(s); len(s) > 10 {
				themes = append(themes, s)
			}
		}
	}
	for _, m := range hashtag.FindAllStringSubmatch(text, -1) {
		if tag := m[1]; len(tag) > 3 {
			themes = append(themes, capitalize(tag)+" Content")
		}
	}

	out := themes[:0]
	for _, t := range themes {
		if n := len([]rune(t)); n > 3 && n < 100 {
			out = append(out, t)
		}
	}
	return out
}

// listItems returns the items of lines matching re whose next line is
// another item, a blank line, or the end of the text.
func listItems(text string, re *regexp.Regexp) []string {
	lines := strings.Split(text, "\n")
	var out []string
	for i, line := range lines {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if i+1 < len(lines) {
			next := lines[i+1]
			if strings.TrimSpace(next) != "" && !re.MatchString(next) {
				continue
			}
		}
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func indicatorLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 {
			continue
		}
		lower := strings.ToLower(line)
		for _, ind := range themeIndicators {
			if strings.Contains(lower, ind) {
				out = append(out, line)
				break
			}
		}
	}
	return out
}

func themeKeywords(theme string) []string {
	var out []string
	for _, w := range keywordSplit.Split(strings.ToLower(theme), -1) {
		w = strings.TrimSpace(w)
		if len([]rune(w)) > 3 && w != "with" && w != "this" && w != "that" {
			out = append(out, w)
		}
	}
	return out
}

func descriptionThemes(videos []video.Summary) *themeMap {
	themes := newThemeMap()
	for _, v := range videos {
		desc := strings.ToLower(v.Desc)
		if desc == "" {
			continue
		}
		for _, c := range descriptionCategories {
			if !containsAny(desc, c.keywords) {
				continue
			}
			d := themes.get(c.name)
			d.count++
			d.videos = append(d.videos, v)
			d.keywords = union(d.keywords, c.keywords)
		}
	}
	return themes
}

func clustersFromThemes(themes *themeMap, videos []video.Summary) []Cluster {
	names := make([]string, 0, len(themes.order))
	for _, name := range themes.order {
		if themes.data[name].count > 0 {
			names = append(names, name)
		}
	}
	slices.SortStableFunc(names, func(a, b string) int {
		return themes.data[b].count - themes.data[a].count
	})
	if len(names) > maxClusters {
		names = names[:maxClusters]
	}

	clusters := make([]Cluster, 0, len(names)+2)
	for i, name := range names {
		d := themes.data[name]
		label := cleanLabel(name)
		clusters = append(clusters, Cluster{
			ID:       "cluster-" + truncateRunes(strings.ToLower(whitespace.ReplaceAllString(label, "-")), idSlugLimit),
			Label:    shortLabel(label),
			Size:     d.count,
			Group:    i + 1,
			Videos:   d.videos,
			Keywords: nonNil(d.keywords),
		})
	}

	if len(clusters) < 2 && len(videos) > 1 {
		clusters = append(clusters, engagementClusters(videos, len(clusters))...)
	}
	return clusters
}

func engagementClusters(videos []video.Summary, group int) []Cluster {
	threshold := video.MedianEngagement(videos)
	var high, low []video.Summary
	for _, v := range videos {
		if video.Engagement(v.Statistics) > threshold {
			high = append(high, v)
		} else {
			low = append(low, v)
		}
	}

	var out []Cluster
	if len(high) > 0 {
		group++
		out = append(out, Cluster{
			ID: "cluster-high-engagement", Label: "Higher Engagement",
			Size: len(high), Group: group, Videos: high,
			Keywords: []string{"popular", "viral", "trending", "high engagement"},
		})
	}
	if len(low) > 0 {
		group++
		out = append(out, Cluster{
			ID: "cluster-lower-engagement", Label: "Lower Engagement",
			Size: len(low), Group: group, Videos: low,
			Keywords: []string{"emerging", "niche", "lower engagement"},
		})
	}
	return out
}

// connect links every pair of clusters. Shared keywords strengthen a link.
func connect(clusters []Cluster) []Connection {
	out := []Connection{}
	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			a, b := clusters[i], clusters[j]
			strength := weakStrength
			if shared := countShared(a.Keywords, b.Keywords); shared > 0 {
				strength = min(maxStrength, float64(shared)/float64(max(len(a.Keywords), len(b.Keywords)))+sharedBonus)
			}
			out = append(out, Connection{Source: a.ID, Target: b.ID, Strength: strength})
		}
	}
	return out
}

// fallbackClusters groups videos by words in their descriptions.
func fallbackClusters(videos []video.Summary) ClusterGraph {
	var order []string
	groups := map[string][]video.Summary{}
	for _, v := range videos {
		desc := strings.ToLower(v.Desc)
		key := miscGroup
		for _, g := range fallbackGroups {
			if containsAny(desc, g.words) {
				key = g.key
				break
			}
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], v)
	}

	clusters := make([]Cluster, 0, len(order))
	for i, key := range order {
		clusters = append(clusters, Cluster{
			ID:       "cluster-" + key,
			Label:    fallbackLabel(key),
			Size:     len(groups[key]),
			Group:    i + 1,
			Videos:   groups[key],
			Keywords: []string{key, "content", "videos"},
		})
	}

	conns := []Connection{}
	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			conns = append(conns, Connection{Source: clusters[i].ID, Target: clusters[j].ID, Strength: fallbackStrength})
		}
	}
	return ClusterGraph{Clusters: clusters, Connections: conns, Method: MethodFallback}
}

func fallbackLabel(key string) string {
	for _, g := range fallbackGroups {
		if g.key == key {
			return g.label
		}
	}
	return "Miscellaneous"
}

func cleanLabel(theme string) string {
	s := topicsPrefix.ReplaceAllString(theme, "")
	s = themesPrefix.ReplaceAllString(s, "")
	// Only the first number goes, wherever it sits.
	if loc := numbering.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

func shortLabel(s string) string {
	if len([]rune(s)) > labelLimit {
		return truncateRunes(s, labelLimit) + "..."
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func union(a, b []string) []string {
	for _, w := range b {
		if !slices.Contains(a, w) {
			a = append(a, w)
		}
	}
	return a
}

func countShared(a, b []string) int {
	n := 0
	for _, w := range a {
		if slices.Contains(b, w) {
			n++
		}
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
