// Package insights turns free-text video analyses into theme clusters,
// keyword dashboards and batch aggregates. Every extractor is best effort:
// text it cannot read contributes nothing rather than failing the call.
package insights

import (
	"encoding/json"
	"strings"
)

// Result is one analysis keyed by the video it describes. Result holds
// whatever the caller got back from the analysis endpoint: a plain string,
// an object with text, or a raw model response with candidates.
type Result struct {
	VideoID string          `json:"videoId"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error,omitempty"`
}

// TextResult wraps plain analysis text.
func TextResult(videoID, text string) Result {
	data, _ := json.Marshal(text)
	return Result{VideoID: videoID, Result: data}
}

type part struct {
	Text string `json:"text"`
}

type candidate struct {
	Content *struct {
		Parts []part `json:"parts"`
	} `json:"content"`
}

type envelope struct {
	Text        string      `json:"text"`
	Result      any         `json:"result"`
	Candidates  []candidate `json:"candidates"`
	RawResponse *struct {
		Candidates []candidate `json:"candidates"`
	} `json:"rawResponse"`
}

// Text extracts the analysis text from r.Result. Unknown shapes fall back to
// the raw JSON so the heuristics still have something to scan.
func (r Result) Text() string {
	raw := strings.TrimSpace(string(r.Result))
	if raw == "" || raw == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(r.Result, &s); err == nil {
		return s
	}

	var env envelope
	if err := json.Unmarshal(r.Result, &env); err != nil {
		return raw
	}
	if env.Text != "" {
		return env.Text
	}
	if s, ok := env.Result.(string); ok && s != "" {
		return s
	}
	if env.RawResponse != nil && len(env.RawResponse.Candidates) > 0 {
		if t := joinParts(env.RawResponse.Candidates[:1], "\n"); t != "" {
			return t
		}
	}
	if t := joinParts(env.Candidates, "\n"); t != "" {
		return t
	}
	return raw
}

func joinParts(cs []candidate, sep string) string {
	var texts []string
	for _, c := range cs {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
	}
	return strings.Join(texts, sep)
}
