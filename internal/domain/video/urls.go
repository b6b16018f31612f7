package video

import (
	"sort"
	"strings"
)

// ExtractPlayURL finds the best playable URL in v, which is either a URL
// string or a raw record. Record candidates in priority order: the highest
// video.bit_rate entry, video.play_addr, a top-level videoUrl, then
// video.download_addr.
func ExtractPlayURL(v any) (string, error) {
	switch t := v.(type) {
	case string:
		if strings.Contains(t, "http://") || strings.Contains(t, "https://") {
			return t, nil
		}
		return "", ErrNoVideoURL
	case map[string]any:
		return extractFromRecord(t)
	}
	return "", ErrNoVideoURL
}

func extractFromRecord(r Raw) (string, error) {
	if u := bestBitRateURL(r); u != "" {
		return u, nil
	}
	if u := FirstURL(urlList(r, "video", "play_addr")); u != "" {
		return u, nil
	}
	if u := str(r, "videoUrl"); u != "" {
		return u, nil
	}
	if u := FirstURL(urlList(r, "video", "download_addr")); u != "" {
		return u, nil
	}
	return "", ErrNoVideoURL
}

func bestBitRateURL(r Raw) string {
	v, ok := lookup(r, "video", "bit_rate")
	if !ok {
		return ""
	}
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	rates := make([]Raw, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			rates = append(rates, m)
		}
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return num(rates[i], "bit_rate") > num(rates[j], "bit_rate")
	})
	if len(rates) == 0 {
		return ""
	}
	return FirstURL(urlList(rates[0], "play_addr"))
}

// ExtractDownloadURL returns the first play_addr URL, else the first
// download_addr URL, as used when fetching a single video for comments.
func ExtractDownloadURL(r Raw) (string, error) {
	if l := urlList(r, "video", "play_addr"); len(l) > 0 && l[0] != "" {
		return l[0], nil
	}
	if l := urlList(r, "video", "download_addr"); len(l) > 0 && l[0] != "" {
		return l[0], nil
	}
	return "", ErrNoVideoURL
}
