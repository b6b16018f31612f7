package video

import "sort"

// Engagement scores a video as likes + comments + shares + plays/1000.
func Engagement(s Statistics) float64 {
	return float64(s.DiggCount+s.CommentCount+s.ShareCount) + float64(s.PlayCount)/1000
}

// MedianEngagement returns the median engagement of vs, 0 when empty.
func MedianEngagement(vs []Summary) float64 {
	if len(vs) == 0 {
		return 0
	}
	scores := make([]float64, len(vs))
	for i, v := range vs {
		scores[i] = Engagement(v.Statistics)
	}
	sort.Float64s(scores)
	mid := len(scores) / 2
	if len(scores)%2 == 0 {
		return (scores[mid-1] + scores[mid]) / 2
	}
	return scores[mid]
}
