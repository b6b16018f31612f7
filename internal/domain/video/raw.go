package video

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Raw is a scraping-actor record, kept exactly as the vendor returned it.
type Raw = map[string]any

// lookup walks nested objects by key.
func lookup(r Raw, path ...string) (any, bool) {
	var cur any = r
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func str(r Raw, path ...string) string {
	v, ok := lookup(r, path...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func num(r Raw, path ...string) int64 {
	v, ok := lookup(r, path...)
	if !ok {
		return 0
	}
	return toInt(v)
}

func toInt(v any) int64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return i
		}
	}
	return 0
}

func urlList(r Raw, path ...string) []string {
	v, ok := lookup(r, append(path, "url_list")...)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func hasURLList(r Raw, path ...string) bool {
	_, ok := lookup(r, append(path, "url_list")...)
	return ok
}

// ID returns aweme_id, falling back to id.
func ID(r Raw) string {
	if id := str(r, "aweme_id"); id != "" {
		return id
	}
	return str(r, "id")
}
