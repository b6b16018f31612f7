// Package video reshapes scraping-actor records into the compact shapes the
// API returns and caches, and locates playable media inside them.
package video

// Author is the creator of a video.
type Author struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Statistics are engagement counters in the API's camelCase shape.
type Statistics struct {
	DiggCount    int64 `json:"diggCount"`
	CommentCount int64 `json:"commentCount"`
	PlayCount    int64 `json:"playCount"`
	ShareCount   int64 `json:"shareCount"`
}

// Video is a processed search result.
type Video struct {
	ID         string     `json:"id"`
	Desc       string     `json:"desc"`
	Author     Author     `json:"author"`
	Statistics Statistics `json:"statistics"`
	CoverImage string     `json:"coverImage"`
	VideoURL   string     `json:"videoUrl"`
	Duration   int64      `json:"duration"`
}

// CachedStatistics are the snake_case counters kept in the video cache.
type CachedStatistics struct {
	DiggCount    int64 `json:"digg_count"`
	CommentCount int64 `json:"comment_count"`
	PlayCount    int64 `json:"play_count"`
	ShareCount   int64 `json:"share_count"`
}

// Cached is the record held by the process-wide video cache.
type Cached struct {
	ID         string           `json:"id"`
	Desc       string           `json:"desc"`
	Author     Author           `json:"author"`
	Statistics CachedStatistics `json:"statistics"`
	CoverImage string           `json:"coverImage"`
	VideoURL   string           `json:"videoUrl"`
	Duration   int64            `json:"duration"`
}

// ToCached converts a processed video to its cache shape.
func ToCached(v Video) Cached {
	return Cached{
		ID:     v.ID,
		Desc:   v.Desc,
		Author: v.Author,
		Statistics: CachedStatistics{
			DiggCount:    v.Statistics.DiggCount,
			CommentCount: v.Statistics.CommentCount,
			PlayCount:    v.Statistics.PlayCount,
			ShareCount:   v.Statistics.ShareCount,
		},
		CoverImage: v.CoverImage,
		VideoURL:   v.VideoURL,
		Duration:   v.Duration,
	}
}

// ToCachedAll converts a slice of processed videos.
func ToCachedAll(vs []Video) []Cached {
	out := make([]Cached, len(vs))
	for i, v := range vs {
		out[i] = ToCached(v)
	}
	return out
}

// Summary is the subset of a record the insight heuristics read. It can be
// built from raw actor records, processed videos or cached videos.
type Summary struct {
	ID         string     `json:"id"`
	Desc       string     `json:"desc"`
	Nickname   string     `json:"nickname"`
	Statistics Statistics `json:"statistics"`
}

// SummaryOf builds a Summary from a raw record, accepting either statistics naming.
func SummaryOf(r Raw) Summary {
	s := Summary{
		ID:       ID(r),
		Desc:     str(r, "desc"),
		Nickname: str(r, "author", "nickname"),
	}
	s.Statistics = Statistics{
		DiggCount:    firstNonZero(num(r, "statistics", "digg_count"), num(r, "statistics", "diggCount")),
		CommentCount: firstNonZero(num(r, "statistics", "comment_count"), num(r, "statistics", "commentCount")),
		PlayCount:    firstNonZero(num(r, "statistics", "play_count"), num(r, "statistics", "playCount")),
		ShareCount:   firstNonZero(num(r, "statistics", "share_count"), num(r, "statistics", "shareCount")),
	}
	return s
}

// SummaryOfCached builds a Summary from a cached record.
func SummaryOfCached(c Cached) Summary {
	return Summary{
		ID:       c.ID,
		Desc:     c.Desc,
		Nickname: c.Author.Nickname,
		Statistics: Statistics{
			DiggCount:    c.Statistics.DiggCount,
			CommentCount: c.Statistics.CommentCount,
			PlayCount:    c.Statistics.PlayCount,
			ShareCount:   c.Statistics.ShareCount,
		},
	}
}

func firstNonZero(a, b int64) int64 {
	if a != 0 {
		return a
	}
	return b
}
