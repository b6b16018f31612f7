package video

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultMaxItems    = 10
	defaultRegion      = "US"
	defaultPublishTime = "ALL_TIME"
)

// Search types accepted by the scraping actor.
const (
	TypeSearch  = "SEARCH"
	TypeTrend   = "TREND"
	TypeHashtag = "HASHTAG"
	TypeUser    = "USER"
	TypeMusic   = "MUSIC"
)

var searchTypes = map[string]bool{
	TypeSearch: true, TypeTrend: true, TypeHashtag: true, TypeUser: true, TypeMusic: true,
}

// SearchRequest is the body of POST /api/search. MaxItems and SortType may
// arrive as numbers or numeric strings, IsUnlimited as a bool or "true"/"false".
type SearchRequest struct {
	Type        string          `json:"type"`
	Region      string          `json:"region"`
	URL         string          `json:"url"`
	Keywords    json.RawMessage `json:"keywords"`
	MaxItems    json.RawMessage `json:"maxItems"`
	IsUnlimited json.RawMessage `json:"isUnlimited"`
	SortType    json.RawMessage `json:"sortType"`
	PublishTime string          `json:"publishTime"`
}

// SearchParams is the validated actor input.
type SearchParams struct {
	Type        string   `json:"type"`
	Region      string   `json:"region"`
	URL         string   `json:"url"`
	Keywords    []string `json:"keywords"`
	MaxItems    int      `json:"maxItems"`
	IsUnlimited bool     `json:"isUnlimited"`
	SortType    int      `json:"sortType"`
	PublishTime string   `json:"publishTime"`
}

// Params validates the request and applies defaults.
func (r SearchRequest) Params() (SearchParams, error) {
	typ := strings.ToUpper(strings.TrimSpace(r.Type))
	if typ == "" {
		return SearchParams{}, ErrMissingType
	}
	if !searchTypes[typ] {
		return SearchParams{}, fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}

	maxItems, err := parseMaxItems(r.MaxItems)
	if err != nil {
		return SearchParams{}, err
	}
	unlimited, err := parseFlag(r.IsUnlimited)
	if err != nil {
		return SearchParams{}, fmt.Errorf("%w: isUnlimited %s", ErrInvalidFlag, r.IsUnlimited)
	}
	sortType, err := parseSortType(r.SortType)
	if err != nil {
		return SearchParams{}, fmt.Errorf("%w: sortType %s", ErrInvalidFlag, r.SortType)
	}

	p := SearchParams{
		Type:        typ,
		Region:      r.Region,
		URL:         r.URL,
		Keywords:    parseKeywords(r.Keywords),
		MaxItems:    maxItems,
		IsUnlimited: unlimited,
		SortType:    sortType,
		PublishTime: r.PublishTime,
	}
	if p.Region == "" {
		p.Region = defaultRegion
	}
	if p.PublishTime == "" {
		p.PublishTime = defaultPublishTime
	}
	return p, nil
}

func parseMaxItems(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == `""` || s == "0" || s == "false" {
		return defaultMaxItems, nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			n = int(f)
		} else {
			return 0, fmt.Errorf("%w: %s", ErrInvalidLimit, s)
		}
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	if n == 0 {
		return defaultMaxItems, nil
	}
	return n, nil
}

func unquote(raw json.RawMessage) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(string(raw)), `"`))
}

func parseFlag(raw json.RawMessage) (bool, error) {
	switch s := unquote(raw); s {
	case "", "null":
		return false, nil
	default:
		return strconv.ParseBool(s)
	}
}

func parseSortType(raw json.RawMessage) (int, error) {
	switch s := unquote(raw); s {
	case "", "null":
		return 0, nil
	default:
		return strconv.Atoi(s)
	}
}

// parseKeywords keeps keywords only when they arrive as an array of strings.
func parseKeywords(raw json.RawMessage) []string {
	var kws []string
	if err := json.Unmarshal(raw, &kws); err != nil {
		return []string{}
	}
	if kws == nil {
		return []string{}
	}
	return kws
}

// Truncate caps vs at max entries.
func Truncate(vs []Video, max int) []Video {
	if max > 0 && len(vs) > max {
		return vs[:max]
	}
	return vs
}
