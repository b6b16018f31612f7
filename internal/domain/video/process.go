package video

import "strings"

var urlDecorations = strings.NewReplacer("](", "")

// FirstURL returns the first non-empty url_list entry, with markdown link
// decorations ("[", "]", "](", trailing ")") removed.
func FirstURL(list []string) string {
	for _, u := range list {
		if u == "" {
			continue
		}
		u = strings.TrimPrefix(u, "[")
		u = strings.TrimSuffix(u, "]")
		u = urlDecorations.Replace(u)
		u = strings.TrimSuffix(u, ")")
		return u
	}
	return ""
}

// Process reshapes a raw actor record. Records without aweme_id or id are
// rejected.
func Process(r Raw) (Video, bool) {
	id := ID(r)
	if r == nil || id == "" {
		return Video{}, false
	}

	var cover string
	switch {
	case hasURLList(r, "video", "cover"):
		cover = FirstURL(urlList(r, "video", "cover"))
	case hasURLList(r, "video", "origin_cover"):
		cover = FirstURL(urlList(r, "video", "origin_cover"))
	}

	authorID := str(r, "author", "uid")
	if authorID == "" {
		authorID = str(r, "author", "id")
	}

	return Video{
		ID:   id,
		Desc: str(r, "desc"),
		Author: Author{
			ID:       authorID,
			Nickname: str(r, "author", "nickname"),
			Avatar:   FirstURL(urlList(r, "author", "avatar_medium")),
		},
		Statistics: Statistics{
			DiggCount:    num(r, "statistics", "digg_count"),
			CommentCount: num(r, "statistics", "comment_count"),
			PlayCount:    num(r, "statistics", "play_count"),
			ShareCount:   num(r, "statistics", "share_count"),
		},
		CoverImage: cover,
		VideoURL:   FirstURL(urlList(r, "video", "play_addr")),
		Duration:   num(r, "video", "duration"),
	}, true
}

// ProcessAll reshapes records in order, dropping the ones Process rejects.
func ProcessAll(raws []Raw) []Video {
	out := make([]Video, 0, len(raws))
	for _, r := range raws {
		if v, ok := Process(r); ok {
			out = append(out, v)
		}
	}
	return out
}
