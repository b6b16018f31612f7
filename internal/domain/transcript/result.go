// Package transcript turns recognized speech into the stored transcript
// document and runs the primary/fallback provider chain.
package transcript

import (
	"regexp"
	"strings"
)

// FallbackMarker is appended to Keywords when the fallback provider produced the text.
const FallbackMarker = "used_groq_fallback"

const segmentSeconds = 5

// Segment is one sentence-ish slice of the transcript on a fixed 5s grid.
type Segment struct {
	Text      string   `json:"text"`
	StartTime float64  `json:"startTime"`
	EndTime   float64  `json:"endTime"`
	Keywords  []string `json:"keywords"`
}

// Result is the stored transcript document.
type Result struct {
	Transcript   string    `json:"transcript"`
	TextSegments []Segment `json:"textSegments"`
	OnScreenText []string  `json:"onScreenText"`
	Keywords     []string  `json:"keywords"`
}

type keywordRule struct {
	term  string
	label string
}

var keywordTable = []keywordRule{
	{"ozempic", "ozempic"},
	{"side effects", "side effects"},
	{"constipation", "constipation"},
	{"nutrition", "nutrition"},
	{"vitamins", "supplements"},
	{"supplements", "supplements"},
	{"mood swings", "mood swings"},
	{"fatigue", "fatigue"},
	{"brain fog", "brain fog"},
	{"weight loss", "weight loss"},
	{"doctor", "medical"},
}

var hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Keywords returns the labels whose term occurs in text, unique, in table order.
func Keywords(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	seen := map[string]bool{}
	for _, rule := range keywordTable {
		if seen[rule.label] || !strings.Contains(lower, rule.term) {
			continue
		}
		seen[rule.label] = true
		out = append(out, rule.label)
	}
	return out
}

// Segments splits text on ". " and tags each piece with the keywords it mentions.
func Segments(text string, keywords []string) []Segment {
	if strings.TrimSpace(text) == "" {
		return []Segment{}
	}
	parts := strings.Split(text, ". ")
	out := make([]Segment, 0, len(parts))
	for i, part := range parts {
		s := strings.TrimSpace(part)
		if !strings.HasSuffix(s, ".") {
			s += "."
		}
		lower := strings.ToLower(part)
		kws := []string{}
		for _, k := range keywords {
			if strings.Contains(lower, strings.ToLower(k)) {
				kws = append(kws, k)
			}
		}
		out = append(out, Segment{
			Text:      s,
			StartTime: float64(i * segmentSeconds),
			EndTime:   float64((i+1)*segmentSeconds) - 0.5,
			Keywords:  kws,
		})
	}
	return out
}

// OnScreenText lists the hashtags of a caption, unique, in order.
func OnScreenText(caption string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, tag := range hashtagRe.FindAllString(caption, -1) {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Build assembles a Result from recognized text.
func Build(text, caption string, usedFallback bool) Result {
	kws := Keywords(text)
	res := Result{
		Transcript:   text,
		TextSegments: Segments(text, kws),
		OnScreenText: OnScreenText(caption),
		Keywords:     kws,
	}
	if usedFallback {
		res.Keywords = append(res.Keywords, FallbackMarker)
	}
	return res
}
